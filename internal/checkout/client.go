package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/velvetcharms/storefront-backend/internal/orders"
	pkgerrors "github.com/velvetcharms/storefront-backend/pkg/errors"
	"github.com/velvetcharms/storefront-backend/pkg/types"
)

const (
	createOrderPath  = "/api/create-order"
	captureOrderPath = "/api/capture-order"

	maxResponseBytes = 1 << 20
)

// HTTPOrderService calls the storefront's order endpoints. Error bodies are
// decoded back into typed errors so callers see the server's error kind.
type HTTPOrderService struct {
	baseURL string
	client  *http.Client
}

func NewHTTPOrderService(baseURL string, timeout time.Duration) *HTTPOrderService {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPOrderService{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (h *HTTPOrderService) CreateOrder(ctx context.Context, req orders.Request) (orders.Created, error) {
	var created orders.Created
	if err := h.post(ctx, createOrderPath, req.CartPayload(), &created); err != nil {
		return orders.Created{}, err
	}
	if created.OrderID == "" || created.ApprovalURL == "" {
		return orders.Created{}, pkgerrors.New(pkgerrors.CodeMalformedResponse, "create-order response is missing orderID or approveUrl").
			WithDetails(created)
	}
	return created, nil
}

func (h *HTTPOrderService) CaptureOrder(ctx context.Context, orderID string) (orders.Captured, error) {
	var captured orders.Captured
	body := map[string]string{"orderID": orderID}
	if err := h.post(ctx, captureOrderPath, body, &captured); err != nil {
		return orders.Captured{}, err
	}
	return captured, nil
}

func (h *HTTPOrderService) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "order service unreachable").WithDetails(err.Error())
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read order service response")
	}

	if resp.StatusCode != http.StatusOK {
		return decodeErrorBody(resp.StatusCode, raw)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeMalformedResponse, err, "decode order service response").
			WithDetails(string(raw))
	}
	return nil
}

func decodeErrorBody(status int, raw []byte) error {
	var body types.ErrorBody
	if err := json.Unmarshal(raw, &body); err != nil || body.Error == "" {
		return pkgerrors.New(pkgerrors.CodeForStatus(status), fmt.Sprintf("order service returned status %d", status)).
			WithDetails(string(raw))
	}
	code := pkgerrors.Code(body.Code)
	if code == "" {
		code = pkgerrors.CodeForStatus(status)
	}
	return pkgerrors.New(code, body.Error).WithDetails(body.Details)
}
