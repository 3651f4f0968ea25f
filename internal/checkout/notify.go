package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, Notice) {}

// WriterNotifier prints notices, with the failure kind and detail when present.
type WriterNotifier struct {
	Out io.Writer
	mu  sync.Mutex
}

func (w *WriterNotifier) Notify(_ context.Context, notice Notice) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fmt.Fprintln(w.Out, notice.Message)
	if notice.Level != LevelError {
		return
	}
	fmt.Fprintf(w.Out, "  kind: %s\n", notice.Kind)
	if notice.Detail == nil {
		return
	}
	detail, err := json.MarshalIndent(notice.Detail, "  ", "  ")
	if err != nil {
		fmt.Fprintf(w.Out, "  detail: %v\n", notice.Detail)
		return
	}
	fmt.Fprintf(w.Out, "  detail: %s\n", detail)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context, url string) error

func (f NavigatorFunc) Navigate(ctx context.Context, url string) error {
	return f(ctx, url)
}

// PrintNavigator asks the shopper to open the link themselves.
type PrintNavigator struct {
	Out io.Writer
}

func (p PrintNavigator) Navigate(_ context.Context, url string) error {
	_, err := fmt.Fprintf(p.Out, "Approve your payment at:\n  %s\n", url)
	return err
}
