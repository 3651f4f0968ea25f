package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velvetcharms/storefront-backend/internal/cart"
	"github.com/velvetcharms/storefront-backend/internal/orders"
	"github.com/velvetcharms/storefront-backend/pkg/config"
	pkgerrors "github.com/velvetcharms/storefront-backend/pkg/errors"
	"github.com/velvetcharms/storefront-backend/pkg/logger"
	"github.com/velvetcharms/storefront-backend/pkg/money"
	"github.com/velvetcharms/storefront-backend/pkg/storage"
)

type stubOrders struct {
	calls   int
	last    orders.Request
	created orders.Created
	err     error
}

func (s *stubOrders) CreateOrder(_ context.Context, req orders.Request) (orders.Created, error) {
	s.calls++
	s.last = req
	return s.created, s.err
}

type recordingNavigator struct {
	urls []string
}

func (r *recordingNavigator) Navigate(_ context.Context, url string) error {
	r.urls = append(r.urls, url)
	return nil
}

type recordingNotifier struct {
	notices []Notice
}

func (r *recordingNotifier) Notify(_ context.Context, n Notice) {
	r.notices = append(r.notices, n)
}

type fixture struct {
	store     *cart.Store
	orders    *stubOrders
	navigator *recordingNavigator
	notifier  *recordingNotifier
	ctrl      *Controller
}

func newFixture(t *testing.T, created orders.Created, createErr error) fixture {
	t.Helper()
	store, err := cart.NewStore(storage.NewMemory(), logger.Nop())
	require.NoError(t, err)
	builder, err := orders.NewBuilder(config.PayPalConfig{Currency: "USD", BrandName: "Velvet Charms"})
	require.NoError(t, err)

	f := fixture{
		store:     store,
		orders:    &stubOrders{created: created, err: createErr},
		navigator: &recordingNavigator{},
		notifier:  &recordingNotifier{},
	}
	f.ctrl, err = NewController(Params{
		Cart:      store,
		Builder:   builder,
		Orders:    f.orders,
		Navigator: f.navigator,
		Notifier:  f.notifier,
		Shipping:  money.MustParse("2.00"),
		Logger:    logger.Nop(),
	})
	require.NoError(t, err)
	return f
}

func (f fixture) fill(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	_, err := f.store.Add(ctx, "itemA", cart.Snapshot{Name: "Item A", Price: money.MustParse("10.00")}, 2, nil)
	require.NoError(t, err)
	_, err = f.store.Add(ctx, "itemB", cart.Snapshot{Name: "Item B", Price: money.MustParse("5.50")}, 1, nil)
	require.NoError(t, err)
}

func TestCheckoutAllNavigatesToApprovalURL(t *testing.T) {
	f := newFixture(t, orders.Created{OrderID: "X", ApprovalURL: "https://pay/X"}, nil)
	f.fill(t)

	outcome, err := f.ctrl.CheckoutAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"https://pay/X"}, f.navigator.urls)
	assert.Equal(t, "X", outcome.OrderID)
	assert.Equal(t, "27.50", money.Format(outcome.GrandTotal))
	assert.Equal(t, "25.50", money.Format(f.orders.last.ItemTotal))
	assert.Equal(t, 1, f.orders.calls)
}

func TestCheckoutAllEmptyCartMakesNoCall(t *testing.T) {
	f := newFixture(t, orders.Created{}, nil)

	_, err := f.ctrl.CheckoutAll(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, orders.ErrEmptyCart))
	assert.Zero(t, f.orders.calls)
	assert.Empty(t, f.navigator.urls)
	require.Len(t, f.notifier.notices, 1)
	assert.Equal(t, "Your cart is empty.", f.notifier.notices[0].Message)
}

func TestCheckoutAllAuthErrorLeavesCartIntact(t *testing.T) {
	authErr := pkgerrors.New(pkgerrors.CodeProviderAuth, "unable to authenticate").
		WithDetails(map[string]any{"error": "invalid_client"})
	f := newFixture(t, orders.Created{}, authErr)
	f.fill(t)

	_, err := f.ctrl.CheckoutAll(context.Background())
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeProviderAuth))
	assert.Empty(t, f.navigator.urls)

	require.Len(t, f.notifier.notices, 1)
	notice := f.notifier.notices[0]
	assert.Equal(t, LevelError, notice.Level)
	assert.Equal(t, pkgerrors.CodeProviderAuth, notice.Kind)
	assert.Equal(t, map[string]any{"error": "invalid_client"}, notice.Detail)

	c, err := f.store.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, 3, c.Quantity())
}

func TestCheckoutAllNavigationFailureIsReported(t *testing.T) {
	f := newFixture(t, orders.Created{OrderID: "X", ApprovalURL: "https://pay/X"}, nil)
	f.fill(t)
	f.ctrl.navigator = NavigatorFunc(func(context.Context, string) error { return errors.New("no browser") })

	_, err := f.ctrl.CheckoutAll(context.Background())
	require.Error(t, err)
	require.Len(t, f.notifier.notices, 1)
	assert.Contains(t, f.notifier.notices[0].Message, "https://pay/X")
}

func TestWriterNotifierAndPrintNavigator(t *testing.T) {
	var buf bytes.Buffer
	notifier := &WriterNotifier{Out: &buf}
	notifier.Notify(context.Background(), Notice{Level: LevelError, Message: "Payment could not be started.", Kind: pkgerrors.CodeUpstream, Detail: map[string]string{"name": "UNPROCESSABLE_ENTITY"}})
	assert.Contains(t, buf.String(), "UPSTREAM_ERROR")
	assert.Contains(t, buf.String(), "UNPROCESSABLE_ENTITY")

	buf.Reset()
	require.NoError(t, PrintNavigator{Out: &buf}.Navigate(context.Background(), "https://pay/X"))
	assert.Contains(t, buf.String(), "https://pay/X")
}

func TestHTTPOrderServiceCreateOrder(t *testing.T) {
	var received orders.CartPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, createOrderPath, r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		_, _ = io.WriteString(w, `{"orderID":"X","approveUrl":"https://pay/X"}`)
	}))
	defer srv.Close()

	f := newFixture(t, orders.Created{}, nil)
	f.fill(t)
	f.ctrl.orders = NewHTTPOrderService(srv.URL, time.Second)

	outcome, err := f.ctrl.CheckoutAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "https://pay/X", outcome.ApprovalURL)
	assert.Equal(t, []string{"https://pay/X"}, f.navigator.urls)
	require.Len(t, received.Cart.Items, 2)
	assert.Equal(t, "itemA", received.Cart.Items[0].ID)
	assert.Equal(t, 2, received.Cart.Items[0].Qty)
	require.NotNil(t, received.Cart.Shipping)
	assert.Equal(t, "2.00", money.Format(*received.Cart.Shipping))
}

func TestHTTPOrderServiceDecodesErrorBodies(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		code   pkgerrors.Code
		detail any
	}{
		{"typed", http.StatusInternalServerError, `{"error":"capture failed","code":"UPSTREAM_ERROR","details":{"name":"RESOURCE_NOT_FOUND"}}`, pkgerrors.CodeUpstream, map[string]any{"name": "RESOURCE_NOT_FOUND"}},
		{"no code", http.StatusBadRequest, `{"error":"orderID is required"}`, pkgerrors.CodeValidation, nil},
		{"not json", http.StatusMethodNotAllowed, `nope`, pkgerrors.CodeMethodNotAllowed, "nope"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			_, err := NewHTTPOrderService(srv.URL, time.Second).CaptureOrder(context.Background(), "missingID")
			typed := pkgerrors.As(err)
			require.NotNil(t, typed)
			assert.Equal(t, tt.code, typed.Code())
			assert.Equal(t, tt.detail, typed.Details())
		})
	}
}

func TestHTTPOrderServiceUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewHTTPOrderService(url, time.Second).CreateOrder(context.Background(), orders.Request{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}
