package paypal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/velvetcharms/storefront-backend/pkg/config"
	"github.com/velvetcharms/storefront-backend/pkg/enums"
	"github.com/velvetcharms/storefront-backend/pkg/logger"
)

const (
	sandboxEnv = config.PayPalEnvSandbox
	liveEnv    = config.PayPalEnvLive

	opToken   = "token"
	opCreate  = "create_order"
	opCapture = "capture_order"

	maxBodyBytes = 1 << 20
)

var (
	errClientIDRequired     = errors.New("paypal client id is required")
	errClientSecretRequired = errors.New("paypal client secret is required")
	errInvalidEnv           = fmt.Errorf("paypal environment must be %q or %q", sandboxEnv, liveEnv)
	errLoggerRequired       = errors.New("paypal logger is required")
	errOrderIDRequired      = errors.New("order id is required")
)

var baseURLs = map[string]string{
	sandboxEnv: "https://api-m.sandbox.paypal.com",
	liveEnv:    "https://api-m.paypal.com",
}

// Client talks to the PayPal Orders v2 REST API. It holds no per-order state;
// every call exchanges credentials for a fresh token and does not retry.
type Client struct {
	http         *http.Client
	baseURL      string
	clientID     string
	clientSecret string
	environment  string
	logger       *logger.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the default client (tests point it at httptest).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithBaseURL overrides the environment base URL.
func WithBaseURL(base string) Option {
	return func(c *Client) {
		if base = strings.TrimSpace(base); base != "" {
			c.baseURL = strings.TrimRight(base, "/")
		}
	}
}

// NewClient validates credentials and resolves the base URL for the configured environment.
func NewClient(ctx context.Context, cfg config.PayPalConfig, logg *logger.Logger, opts ...Option) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	env, err := normalizeEnv(cfg.Environment())
	if err != nil {
		return nil, err
	}
	clientID := strings.TrimSpace(cfg.ClientID)
	if clientID == "" {
		return nil, errClientIDRequired
	}
	clientSecret := strings.TrimSpace(cfg.ClientSecret)
	if clientSecret == "" {
		return nil, errClientSecretRequired
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	c := &Client{
		http:         &http.Client{Timeout: timeout},
		baseURL:      baseURLs[env],
		clientID:     clientID,
		clientSecret: clientSecret,
		environment:  env,
		logger:       logg,
	}
	WithBaseURL(cfg.BaseURL)(c)
	for _, opt := range opts {
		opt(c)
	}

	logg.Info(logg.WithFields(ctx, map[string]any{"environment": env, "base_url": c.baseURL}), "paypal client initialized")
	return c, nil
}

// Environment reports the normalized PayPal environment.
func (c *Client) Environment() string {
	if c == nil {
		return ""
	}
	return c.environment
}

// AccessToken performs the client-credentials grant.
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", authFailure(opToken, 0, nil, err)
	}
	req.SetBasicAuth(c.clientID, c.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	c.log(ctx, "request", opToken, nil)
	status, raw, err := c.do(req)
	if err != nil {
		c.log(ctx, "error", opToken, map[string]any{"error": err.Error()})
		return "", upstreamFailure(opToken, status, raw, err)
	}
	if status < 200 || status > 299 {
		c.log(ctx, "error", opToken, map[string]any{"error": "token request rejected", "status": status})
		return "", authFailure(opToken, status, raw, fmt.Errorf("token request rejected"))
	}

	var token tokenResponse
	if err := json.Unmarshal(raw, &token); err != nil {
		c.log(ctx, "error", opToken, map[string]any{"error": err.Error(), "status": status})
		return "", authFailure(opToken, status, raw, fmt.Errorf("decode token response: %w", err))
	}
	if strings.TrimSpace(token.AccessToken) == "" {
		c.log(ctx, "error", opToken, map[string]any{"error": "no access token", "status": status})
		return "", authFailure(opToken, status, raw, errors.New("no access token in response"))
	}
	c.log(ctx, "response", opToken, map[string]any{"status": status, "expires_in": token.ExpiresIn})
	return token.AccessToken, nil
}

// CreateOrder obtains a token and submits the order. The returned order always
// has an id; callers check for the approval link.
func (c *Client) CreateOrder(ctx context.Context, order OrderRequest) (*Order, error) {
	token, err := c.AccessToken(ctx)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(order)
	if err != nil {
		return nil, fmt.Errorf("encode order request: %w", err)
	}
	req, err := c.newJSONRequest(ctx, c.baseURL+"/v2/checkout/orders", token, body)
	if err != nil {
		return nil, upstreamFailure(opCreate, 0, nil, err)
	}

	c.log(ctx, "request", opCreate, map[string]any{"purchase_units": len(order.PurchaseUnits)})
	status, raw, err := c.do(req)
	if err != nil {
		c.log(ctx, "error", opCreate, map[string]any{"error": err.Error()})
		return nil, upstreamFailure(opCreate, status, raw, err)
	}
	if status < 200 || status > 299 {
		c.log(ctx, "error", opCreate, map[string]any{"error": "order rejected", "status": status})
		return nil, upstreamFailure(opCreate, status, raw, errors.New("order rejected"))
	}

	created, err := decodeOrder(raw)
	if err != nil {
		c.log(ctx, "error", opCreate, map[string]any{"error": err.Error(), "status": status})
		return nil, parseFailure(opCreate, status, raw, err)
	}
	if strings.TrimSpace(created.ID) == "" {
		c.log(ctx, "error", opCreate, map[string]any{"error": "order id missing", "status": status})
		return nil, upstreamFailure(opCreate, status, raw, errors.New("order id missing from response"))
	}
	c.log(ctx, "response", opCreate, map[string]any{"order_id": created.ID, "status": created.Status})
	return created, nil
}

// CaptureOrder obtains a token and captures an approved order.
func (c *Client) CaptureOrder(ctx context.Context, orderID string) (*Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, errOrderIDRequired
	}
	token, err := c.AccessToken(ctx)
	if err != nil {
		return nil, err
	}
	endpoint := fmt.Sprintf("%s/v2/checkout/orders/%s/capture", c.baseURL, url.PathEscape(orderID))
	req, err := c.newJSONRequest(ctx, endpoint, token, nil)
	if err != nil {
		return nil, upstreamFailure(opCapture, 0, nil, err)
	}

	c.log(ctx, "request", opCapture, map[string]any{"order_id": orderID})
	status, raw, err := c.do(req)
	if err != nil {
		c.log(ctx, "error", opCapture, map[string]any{"error": err.Error(), "order_id": orderID})
		return nil, upstreamFailure(opCapture, status, raw, err)
	}
	if status < 200 || status > 299 {
		c.log(ctx, "error", opCapture, map[string]any{"error": "capture rejected", "status": status, "order_id": orderID})
		return nil, upstreamFailure(opCapture, status, raw, errors.New("capture rejected"))
	}

	var envelope errorEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		c.log(ctx, "error", opCapture, map[string]any{"error": err.Error(), "status": status})
		return nil, parseFailure(opCapture, status, raw, err)
	}
	if envelope.present() {
		return nil, upstreamFailure(opCapture, status, raw, fmt.Errorf("capture reported %s", firstNonEmpty(envelope.Name, envelope.Error)))
	}
	captured, err := decodeOrder(raw)
	if err != nil {
		return nil, parseFailure(opCapture, status, raw, err)
	}
	if _, err := enums.ParseOrderStatus(captured.Status); err != nil {
		return nil, upstreamFailure(opCapture, status, raw, err)
	}
	c.log(ctx, "response", opCapture, map[string]any{
		"order_id":   orderID,
		"status":     captured.Status,
		"capture_id": captured.CaptureID(),
	})
	return captured, nil
}

func (c *Client) newJSONRequest(ctx context.Context, endpoint, token string, body []byte) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Prefer", "return=representation")
	return req, nil
}

func (c *Client) do(req *http.Request) (int, []byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, raw, fmt.Errorf("read response body: %w", err)
	}
	return resp.StatusCode, raw, nil
}

func decodeOrder(raw []byte) (*Order, error) {
	var order Order
	if err := json.Unmarshal(raw, &order); err != nil {
		return nil, fmt.Errorf("decode order: %w", err)
	}
	order.Raw = append(json.RawMessage(nil), raw...)
	return &order, nil
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"operation": op,
		"phase":     phase,
	}
	for k, v := range fields {
		logFields[k] = redact(k, v)
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Warn(ctx, fmt.Sprintf("paypal %s failed", op))
	default:
		c.logger.Debug(ctx, fmt.Sprintf("paypal %s", phase))
	}
}

func sensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, sensitive := range []string{"token", "secret", "authorization", "password"} {
		if strings.Contains(lower, sensitive) {
			return true
		}
	}
	return false
}

func redact(key string, value any) any {
	if sensitiveKey(key) {
		return "[REDACTED]"
	}
	return value
}

// redactBody masks credential-bearing fields of a JSON body. Non-JSON bodies
// are returned unchanged.
func redactBody(raw []byte) []byte {
	if len(raw) == 0 {
		return raw
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return raw
	}
	changed := false
	for k := range fields {
		if sensitiveKey(k) {
			fields[k] = "[REDACTED]"
			changed = true
		}
	}
	if !changed {
		return raw
	}
	out, err := json.Marshal(fields)
	if err != nil {
		return raw
	}
	return out
}

func normalizeEnv(raw string) (string, error) {
	env := strings.TrimSpace(strings.ToLower(raw))
	if env == "" {
		env = sandboxEnv
	}
	switch env {
	case sandboxEnv, liveEnv:
		return env, nil
	default:
		return "", errInvalidEnv
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
