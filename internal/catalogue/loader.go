package catalogue

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Loader builds the index once per process. Concurrent first callers share a
// single load; Reload replaces the cached index.
type Loader struct {
	sources []string
	opts    Options

	group  singleflight.Group
	mu     sync.RWMutex
	index  *Index
	report Report
}

func NewLoader(sources []string, opts Options) *Loader {
	return &Loader{sources: append([]string(nil), sources...), opts: opts}
}

// Get returns the cached index, loading it on first use.
func (l *Loader) Get(ctx context.Context) (*Index, Report) {
	l.mu.RLock()
	index, report := l.index, l.report
	l.mu.RUnlock()
	if index != nil {
		return index, report
	}
	return l.load(ctx, false)
}

// Reload loads the sources again and swaps the cached index.
func (l *Loader) Reload(ctx context.Context) (*Index, Report) {
	return l.load(ctx, true)
}

// Lookup resolves id against the cached index, loading it if needed.
func (l *Loader) Lookup(id string) (Product, bool) {
	index, _ := l.Get(context.Background())
	return index.Lookup(id)
}

type loadResult struct {
	index  *Index
	report Report
}

func (l *Loader) load(ctx context.Context, force bool) (*Index, Report) {
	key := "get"
	if force {
		key = "reload"
	}
	v, _, _ := l.group.Do(key, func() (any, error) {
		if !force {
			l.mu.RLock()
			index, report := l.index, l.report
			l.mu.RUnlock()
			if index != nil {
				return loadResult{index: index, report: report}, nil
			}
		}
		index, report := Load(context.WithoutCancel(ctx), l.sources, l.opts)
		l.mu.Lock()
		l.index, l.report = index, report
		l.mu.Unlock()
		return loadResult{index: index, report: report}, nil
	})
	res := v.(loadResult)
	return res.index, res.report
}
