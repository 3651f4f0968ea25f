package main

import (
	"context"
	"os/exec"
	"runtime"

	"github.com/velvetcharms/storefront-backend/internal/checkout"
)

// browserNavigator opens the approval page with the desktop's URL handler and
// falls back to printing it.
type browserNavigator struct {
	fallback checkout.Navigator
}

func (b browserNavigator) Navigate(ctx context.Context, url string) error {
	name, args := openCommand(url)
	if err := exec.CommandContext(ctx, name, args...).Start(); err != nil {
		return b.fallback.Navigate(ctx, url)
	}
	return nil
}

func openCommand(url string) (string, []string) {
	switch runtime.GOOS {
	case "darwin":
		return "open", []string{url}
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", url}
	default:
		return "xdg-open", []string{url}
	}
}
