package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/velvetcharms/storefront-backend/pkg/errors"
	"github.com/velvetcharms/storefront-backend/pkg/types"
)

func TestCreateOrderPricesFromCatalogue(t *testing.T) {
	svc := &stubOrders{}
	h := CreateOrder(svc, newTestBuilder(t), newTestCatalogue(t), testLogger())

	body := `{"cart":{"items":[
		{"id":"1","name":"stale name","price":99,"qty":2,"image":"a.png"},
		{"id":"legacy","name":"Old Charm","price":"0.5","qty":1}
	],"shipping":"2.00"}}`
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/create-order", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, map[string]any{"orderID": "X", "approveUrl": "https://pay/X"}, resp)

	require.Len(t, svc.created, 1)
	req := svc.created[0]
	assert.Equal(t, "Shimmer Oil", req.Lines[0].Name)
	assert.Equal(t, "25.00", req.Lines[0].Total.StringFixedBank(2))
	assert.Equal(t, "Old Charm", req.Lines[1].Name)
	assert.Equal(t, "25.50", req.ItemTotal.StringFixedBank(2))
	assert.Equal(t, "27.50", req.GrandTotal.StringFixedBank(2))
}

func TestCreateOrderRejectsEmptyCartWithoutCallingProvider(t *testing.T) {
	svc := &stubOrders{}
	h := CreateOrder(svc, newTestBuilder(t), newTestCatalogue(t), testLogger())

	for _, body := range []string{`{"cart":{"items":[]}}`, `{}`, `{"cart":{"items":[{"id":"1","price":1,"qty":0}]}}`} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/create-order", strings.NewReader(body)))
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)

		var errBody types.ErrorBody
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&errBody))
		assert.Equal(t, string(pkgerrors.CodeValidation), errBody.Code)
	}
	assert.Empty(t, svc.created)
}

func TestCreateOrderSurfacesProviderFailure(t *testing.T) {
	raw := json.RawMessage(`{"error":"invalid_client"}`)
	svc := &stubOrders{createErr: pkgerrors.New(pkgerrors.CodeProviderAuth, "unable to authenticate with payment provider").WithDetails(raw)}
	h := CreateOrder(svc, newTestBuilder(t), nil, testLogger())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/create-order",
		strings.NewReader(`{"cart":{"items":[{"id":"1","name":"A","price":1,"qty":1}]}}`)))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "PROVIDER_AUTH_ERROR", resp["code"])
	assert.Equal(t, map[string]any{"error": "invalid_client"}, resp["details"])
}

func TestCaptureOrder(t *testing.T) {
	svc := &stubOrders{}
	h := CaptureOrder(svc, testLogger())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/capture-order", strings.NewReader(`{"orderID":"5O1"}`)))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "COMPLETED", resp["status"])
	assert.Equal(t, "5O1", resp["id"])
	assert.Equal(t, "CAP-1", resp["captureId"])

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/capture-order", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, []string{"5O1"}, svc.captured)
}

func TestCaptureOrderUpstreamBodyPassesThrough(t *testing.T) {
	upstream := json.RawMessage(`{"name":"RESOURCE_NOT_FOUND","details":[{"issue":"INVALID_RESOURCE_ID"}]}`)
	svc := &stubOrders{captureErr: pkgerrors.New(pkgerrors.CodeUpstream, "capture order failed").WithDetails(upstream)}

	rec := httptest.NewRecorder()
	CaptureOrder(svc, testLogger()).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/capture-order", strings.NewReader(`{"orderID":"missing"}`)))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var resp struct {
		Code    string          `json:"code"`
		Details json.RawMessage `json:"details"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "UPSTREAM_ERROR", resp.Code)
	assert.JSONEq(t, string(upstream), string(resp.Details))
}

func TestReturnAndCancel(t *testing.T) {
	svc := &stubOrders{}

	rec := httptest.NewRecorder()
	ReturnFromProvider(svc, testLogger()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/return?token=ABC&PayerID=P1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"ABC"}, svc.captured)

	rec = httptest.NewRecorder()
	ReturnFromProvider(svc, testLogger()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/return", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	CancelFromProvider(testLogger()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/cancel?token=ABC", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"CANCELED","orderID":"ABC"}`, rec.Body.String())
	assert.Len(t, svc.captured, 1)
}
