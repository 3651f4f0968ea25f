package catalogue

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// maxDocumentBytes caps a single catalogue document.
const maxDocumentBytes = 8 << 20

// Fetcher retrieves the raw bytes of one catalogue source.
type Fetcher interface {
	Fetch(ctx context.Context, source string) ([]byte, error)
}

// HTTPFetcher fetches http(s) sources.
type HTTPFetcher struct {
	Client *http.Client
}

func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPFetcher{Client: &http.Client{Timeout: timeout}}
}

func (h *HTTPFetcher) Fetch(ctx context.Context, source string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
}

// FileFetcher reads file:// URLs and plain paths. Relative paths resolve
// against Root when set.
type FileFetcher struct {
	Root string
}

func (f FileFetcher) Fetch(ctx context.Context, source string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := source
	if strings.HasPrefix(source, "file://") {
		u, err := url.Parse(source)
		if err != nil {
			return nil, err
		}
		path = u.Path
	} else if !filepath.IsAbs(path) && f.Root != "" {
		path = filepath.Join(f.Root, path)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(io.LimitReader(file, maxDocumentBytes))
}

// SchemeFetcher dispatches on the source scheme.
type SchemeFetcher struct {
	HTTP Fetcher
	File Fetcher
}

// NewFetcher returns the default dispatcher for http(s), file:// and plain paths.
func NewFetcher(timeout time.Duration, root string) SchemeFetcher {
	return SchemeFetcher{HTTP: NewHTTPFetcher(timeout), File: FileFetcher{Root: root}}
}

func (s SchemeFetcher) Fetch(ctx context.Context, source string) ([]byte, error) {
	lower := strings.ToLower(source)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		if s.HTTP == nil {
			return nil, fmt.Errorf("no http fetcher configured")
		}
		return s.HTTP.Fetch(ctx, source)
	}
	if s.File == nil {
		return nil, fmt.Errorf("no file fetcher configured")
	}
	return s.File.Fetch(ctx, source)
}
