package controllers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/velvetcharms/storefront-backend/api/middleware"
	"github.com/velvetcharms/storefront-backend/internal/catalogue"
	"github.com/velvetcharms/storefront-backend/internal/orders"
	"github.com/velvetcharms/storefront-backend/pkg/config"
	"github.com/velvetcharms/storefront-backend/pkg/logger"
	"github.com/velvetcharms/storefront-backend/pkg/storage"
)

const testCatalogue = `{"categories":[
	{"name":"Body Glow","products":[
		{"id":"1","name":"Shimmer Oil","price":12.5},
		{"id":"2","name":"Glow Balm","price":"5.00"}
	],"subcategories":[
		{"name":"Gifts","products":[{"id":"3","name":"Custom Charm","price":null}]}
	]}
]}`

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: "debug", Output: io.Discard})
}

type mapFetcher map[string]string

func (m mapFetcher) Fetch(_ context.Context, source string) ([]byte, error) {
	body, ok := m[source]
	if !ok {
		return nil, fmt.Errorf("no such source %s", source)
	}
	return []byte(body), nil
}

type staticCatalogue struct {
	index  *catalogue.Index
	report catalogue.Report
}

func (s staticCatalogue) Get(context.Context) (*catalogue.Index, catalogue.Report) {
	return s.index, s.report
}

func newTestCatalogue(t *testing.T) staticCatalogue {
	t.Helper()
	index, report := catalogue.Load(context.Background(), []string{"main.json", "missing.json"},
		catalogue.Options{Fetcher: mapFetcher{"main.json": testCatalogue}})
	require.Equal(t, 3, index.Len())
	return staticCatalogue{index: index, report: report}
}

func newTestBuilder(t *testing.T) *orders.Builder {
	t.Helper()
	b, err := orders.NewBuilder(config.PayPalConfig{Currency: "USD", BrandName: "Velvet Charms"})
	require.NoError(t, err)
	return b
}

type stubOrders struct {
	createErr  error
	captureErr error
	created    []orders.Request
	captured   []string
}

func (s *stubOrders) CreateOrder(_ context.Context, req orders.Request) (orders.Created, error) {
	s.created = append(s.created, req)
	if s.createErr != nil {
		return orders.Created{}, s.createErr
	}
	return orders.Created{OrderID: "X", ApprovalURL: "https://pay/X"}, nil
}

func (s *stubOrders) CaptureOrder(_ context.Context, id string) (orders.Captured, error) {
	s.captured = append(s.captured, id)
	if s.captureErr != nil {
		return orders.Captured{}, s.captureErr
	}
	return orders.Captured{Status: "COMPLETED", OrderID: id, CaptureID: "CAP-1"}, nil
}

type memorySessions struct {
	mu       sync.Mutex
	backends map[string]*storage.Memory
}

func newMemorySessions() *memorySessions {
	return &memorySessions{backends: map[string]*storage.Memory{}}
}

func (m *memorySessions) open(sessionID string) (storage.Backend, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.backends[sessionID]
	if !ok {
		b = storage.NewMemory()
		m.backends[sessionID] = b
	}
	return b, nil
}

func sessionRequest(method, target, sessionID, body string, params map[string]string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	ctx := middleware.WithSessionID(req.Context(), sessionID)
	if len(params) > 0 {
		rc := chi.NewRouteContext()
		for k, v := range params {
			rc.URLParams.Add(k, v)
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rc)
	}
	return req.WithContext(ctx)
}
