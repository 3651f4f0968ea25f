package catalogue

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bodyGlow = `{
  "categories": [
    {
      "name": "Body Glow",
      "products": [
        {"id": "glow-oil", "name": "Glow Oil", "price": 10, "images": ["/img/glow.jpg"],
         "options": {"scent": ["vanilla", "rose"]}}
      ],
      "subcategories": [
        {
          "name": "Scrubs",
          "products": [{"id": "sugar-scrub", "name": "Sugar Scrub", "price": "5.50"}],
          "subcategories": [
            {"name": "Minis", "products": [{"id": 42, "name": "Mini Scrub", "price": 3.25}]}
          ]
        }
      ]
    }
  ]
}`

const artGifts = `{
  "categories": [
    {"name": "Art", "products": [
      {"id": "canvas", "name": "Canvas", "price": ""},
      {"id": "glow-oil", "name": "Glow Oil (Gift)", "price": 12},
      {"id": "broken", "name": "Broken", "price": -1},
      {"name": "No id", "price": 1}
    ]}
  ]
}`

type mapFetcher map[string]string

func (m mapFetcher) Fetch(_ context.Context, source string) ([]byte, error) {
	body, ok := m[source]
	if !ok {
		return nil, errors.New("404 not found")
	}
	return []byte(body), nil
}

func TestLoadWalksNestedCategories(t *testing.T) {
	index, report := Load(context.Background(), []string{"body"}, Options{Fetcher: mapFetcher{"body": bodyGlow}})
	require.NoError(t, report.Err)
	assert.Equal(t, 3, index.Len())

	oil, ok := index.Lookup("glow-oil")
	require.True(t, ok)
	assert.True(t, oil.Priced)
	assert.Equal(t, "10", oil.Price.String())
	assert.Equal(t, []string{"vanilla", "rose"}, oil.Options["scent"])

	mini, ok := index.Lookup("42")
	require.True(t, ok)
	assert.Equal(t, []string{"Body Glow", "Scrubs", "Minis"}, mini.Category)
	assert.Equal(t, "3.25", mini.Price.String())
}

func TestLoadSkipsBadSourcesAndKeepsValidOnes(t *testing.T) {
	fetcher := mapFetcher{"good": bodyGlow, "malformed": `{"categories": [`}
	index, report := Load(context.Background(), []string{"malformed", "missing", "good"}, Options{Fetcher: fetcher})

	assert.Equal(t, 3, index.Len())
	assert.Equal(t, []string{"good"}, report.Loaded)
	assert.Equal(t, []string{"malformed", "missing"}, report.Failed)
	require.Error(t, report.Err)
	assert.Contains(t, report.Err.Error(), "malformed")
	assert.Contains(t, report.Err.Error(), "missing")

	expected, _ := Load(context.Background(), []string{"good"}, Options{Fetcher: fetcher})
	assert.Equal(t, expected.Products(), index.Products())
}

func TestLoadWithNoUsableSourceIsEmpty(t *testing.T) {
	index, report := Load(context.Background(), []string{"a", "b"}, Options{Fetcher: mapFetcher{}})
	assert.Zero(t, index.Len())
	assert.Error(t, report.Err)
	_, ok := index.Lookup("anything")
	assert.False(t, ok)
}

func TestLoadLastWriterWins(t *testing.T) {
	index, report := Load(context.Background(), []string{"body", "art"}, Options{Fetcher: mapFetcher{"body": bodyGlow, "art": artGifts}})
	require.NoError(t, report.Err)

	oil, _ := index.Lookup("glow-oil")
	assert.Equal(t, "Glow Oil (Gift)", oil.Name)
	assert.Equal(t, "12", oil.Price.String())
	assert.Equal(t, "art", oil.Source)

	canvas, ok := index.Lookup("canvas")
	require.True(t, ok)
	assert.False(t, canvas.Priced)

	_, ok = index.Lookup("broken")
	assert.False(t, ok)
	assert.Len(t, report.Skipped, 2)

	ids := []string{}
	for _, p := range index.Products() {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"glow-oil", "sugar-scrub", "42", "canvas"}, ids)
}

type spyRecorder struct {
	products int
	failures []string
}

func (s *spyRecorder) SetProducts(n int)           { s.products = n }
func (s *spyRecorder) IncSourceFailure(src string) { s.failures = append(s.failures, src) }

func TestLoadRecordsMetrics(t *testing.T) {
	rec := &spyRecorder{}
	Load(context.Background(), []string{"body", "gone"}, Options{Fetcher: mapFetcher{"body": bodyGlow}, Recorder: rec})
	assert.Equal(t, 3, rec.products)
	assert.Equal(t, []string{"gone"}, rec.failures)
}

func TestSchemeFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/catalogue.json" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(bodyGlow))
	}))
	defer srv.Close()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "catalogue-art-gifts.json"), []byte(artGifts), 0o600))

	fetcher := NewFetcher(0, dir)
	index, report := Load(context.Background(), []string{
		srv.URL + "/catalogue.json",
		"catalogue-art-gifts.json",
		"file://" + filepath.Join(dir, "catalogue-art-gifts.json"),
		srv.URL + "/missing.json",
	}, Options{Fetcher: fetcher})

	assert.Len(t, report.Loaded, 3)
	assert.Equal(t, []string{srv.URL + "/missing.json"}, report.Failed)
	assert.Equal(t, 4, index.Len())
}

type countingFetcher struct {
	calls atomic.Int32
	inner Fetcher
}

func (c *countingFetcher) Fetch(ctx context.Context, source string) ([]byte, error) {
	c.calls.Add(1)
	return c.inner.Fetch(ctx, source)
}

func TestLoaderLoadsOnce(t *testing.T) {
	fetcher := &countingFetcher{inner: mapFetcher{"body": bodyGlow}}
	loader := NewLoader([]string{"body"}, Options{Fetcher: fetcher})

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			index, _ := loader.Get(context.Background())
			assert.Equal(t, 3, index.Len())
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), fetcher.calls.Load())

	_, ok := loader.Lookup("sugar-scrub")
	assert.True(t, ok)
	assert.Equal(t, int32(1), fetcher.calls.Load())

	loader.Reload(context.Background())
	assert.Equal(t, int32(2), fetcher.calls.Load())
}
