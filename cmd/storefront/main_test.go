package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velvetcharms/storefront-backend/internal/cart"
	"github.com/velvetcharms/storefront-backend/pkg/logger"
	"github.com/velvetcharms/storefront-backend/pkg/storage"
)

const testCatalogue = `{"categories":[{"name":"Body Glow","products":[
	{"id":"oil","name":"Shimmer Oil","price":"12.5"},
	{"id":"mural","name":"Custom Mural","price":null}
]}]}`

func newTestApp(t *testing.T, server string) (*app, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "catalogue.json"), []byte(testCatalogue), 0o644))
	out := &bytes.Buffer{}
	return &app{
		server:   server,
		dataDir:  filepath.Join(dir, "data"),
		sources:  []string{"catalogue.json"},
		catDir:   dir,
		timeout:  2 * time.Second,
		currency: "USD",
		out:      out,
		logger:   logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	}, out
}

func TestCartCommands(t *testing.T) {
	a, out := newTestApp(t, "http://unused")
	ctx := context.Background()

	require.NoError(t, a.run(ctx, []string{"cart", "add", "oil", "2", "size=large"}))
	assert.Contains(t, out.String(), "2 items, subtotal 25.00")

	err := a.run(ctx, []string{"cart", "add", "mural"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no price")

	backend, err := storage.NewFile(a.dataDir)
	require.NoError(t, err)
	store, err := cart.NewStore(backend, logger.Nop())
	require.NoError(t, err)
	current, err := store.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, current.Len())
	key := current.Lines()[0].Key

	out.Reset()
	require.NoError(t, a.run(ctx, []string{"cart", "set", key, "3"}))
	assert.Contains(t, out.String(), "3 items, subtotal 37.50")

	out.Reset()
	require.NoError(t, a.run(ctx, []string{"cart", "remove", key}))
	assert.Contains(t, out.String(), "cart is empty")
}

func TestWishlistToggleTwiceRestores(t *testing.T) {
	a, out := newTestApp(t, "http://unused")
	ctx := context.Background()

	require.NoError(t, a.run(ctx, []string{"wishlist", "toggle", "oil"}))
	assert.Contains(t, out.String(), "added oil")
	require.NoError(t, a.run(ctx, []string{"wishlist", "toggle", "oil"}))
	assert.Contains(t, out.String(), "removed oil")
	assert.Contains(t, out.String(), "0 saved")
}

func TestCheckoutPrintsApprovalLinkAndKeepsCart(t *testing.T) {
	var received map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/create-order", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"orderID":"X","approveUrl":"https://pay/X"}`)
	}))
	defer srv.Close()

	a, out := newTestApp(t, srv.URL)
	ctx := context.Background()
	require.NoError(t, a.run(ctx, []string{"cart", "add", "oil"}))

	require.NoError(t, a.run(ctx, []string{"checkout", "-shipping", "5"}))
	assert.Contains(t, out.String(), "https://pay/X")
	assert.Contains(t, out.String(), "order X created for 17.50")
	require.NotNil(t, received["cart"])

	out.Reset()
	require.NoError(t, a.run(ctx, []string{"cart", "show"}))
	assert.Contains(t, out.String(), "1 items")
}

func TestCheckoutEmptyCartMakesNoCall(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	a, _ := newTestApp(t, srv.URL)
	require.Error(t, a.run(context.Background(), []string{"checkout"}))
	assert.False(t, called)
}

func TestParseAddArgs(t *testing.T) {
	qty, options, err := parseAddArgs(nil)
	require.NoError(t, err)
	assert.Equal(t, 1, qty)
	assert.Nil(t, options)

	qty, options, err = parseAddArgs([]string{"4", "colour=gold", "size = S"})
	require.NoError(t, err)
	assert.Equal(t, 4, qty)
	assert.Equal(t, map[string]string{"colour": "gold", "size": "S"}, options)

	_, _, err = parseAddArgs([]string{"0"})
	assert.Error(t, err)
	_, _, err = parseAddArgs([]string{"2", "loose"})
	assert.Error(t, err)
}
