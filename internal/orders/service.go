package orders

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/velvetcharms/storefront-backend/pkg/enums"
	pkgerrors "github.com/velvetcharms/storefront-backend/pkg/errors"
	"github.com/velvetcharms/storefront-backend/pkg/logger"
	"github.com/velvetcharms/storefront-backend/pkg/metrics"
	"github.com/velvetcharms/storefront-backend/pkg/paypal"
)

const (
	opCreate  = "create_order"
	opCapture = "capture_order"
)

// Provider is the payment API surface. *paypal.Client implements it.
type Provider interface {
	CreateOrder(ctx context.Context, order paypal.OrderRequest) (*paypal.Order, error)
	CaptureOrder(ctx context.Context, orderID string) (*paypal.Order, error)
}

// Created is the create-order response body.
type Created struct {
	OrderID     string `json:"orderID"`
	ApprovalURL string `json:"approveUrl"`
}

// Captured is the capture-order response body.
type Captured struct {
	Status    enums.OrderStatus `json:"status"`
	OrderID   string            `json:"id"`
	CaptureID string            `json:"captureId,omitempty"`
	Raw       json.RawMessage   `json:"details,omitempty"`
}

type ServiceParams struct {
	Provider Provider
	Logger   *logger.Logger
	Metrics  *metrics.PaymentMetrics
}

// Service is the only holder of provider credentials. It keeps no state
// between calls and never retries.
type Service struct {
	provider Provider
	logger   *logger.Logger
	metrics  *metrics.PaymentMetrics
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Provider == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payment provider is required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &Service{provider: params.Provider, logger: logg, metrics: params.Metrics}, nil
}

// CreateOrder submits req and returns the order id with its approval URL.
func (s *Service) CreateOrder(ctx context.Context, req Request) (created Created, err error) {
	if len(req.Lines) == 0 {
		return Created{}, pkgerrors.Wrap(pkgerrors.CodeValidation, ErrEmptyCart, "cart is empty")
	}
	defer s.observe(opCreate, time.Now(), &err)

	order, err := s.provider.CreateOrder(ctx, req.ProviderRequest())
	if err != nil {
		return Created{}, mapProviderError(err, "create order")
	}
	approval := order.ApproveURL()
	if approval == "" {
		return Created{}, pkgerrors.New(pkgerrors.CodeUpstream, "order has no approval link").
			WithDetails(rawDetail(order.Raw))
	}

	s.logger.Info(s.logger.WithFields(ctx, map[string]any{
		"order_id":    order.ID,
		"grand_total": req.GrandTotal.StringFixedBank(2),
		"lines":       len(req.Lines),
	}), "order created")
	return Created{OrderID: order.ID, ApprovalURL: approval}, nil
}

// CaptureOrder finalizes an approved order.
func (s *Service) CaptureOrder(ctx context.Context, orderID string) (captured Captured, err error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return Captured{}, pkgerrors.New(pkgerrors.CodeValidation, "orderID is required")
	}
	defer s.observe(opCapture, time.Now(), &err)

	ctx = s.logger.WithOrderID(ctx, orderID)
	order, err := s.provider.CaptureOrder(ctx, orderID)
	if err != nil {
		return Captured{}, mapProviderError(err, "capture order")
	}
	status, err := enums.ParseOrderStatus(order.Status)
	if err != nil {
		return Captured{}, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "capture returned no recognizable status").
			WithDetails(rawDetail(order.Raw))
	}

	s.logger.Info(s.logger.WithField(ctx, "status", status.String()), "order captured")
	return Captured{
		Status:    status,
		OrderID:   firstNonEmpty(order.ID, orderID),
		CaptureID: order.CaptureID(),
		Raw:       order.Raw,
	}, nil
}

func (s *Service) observe(op string, started time.Time, err *error) {
	s.metrics.ObserveDuration(op, time.Since(started))
	outcome := metrics.OutcomeSuccess
	if *err != nil {
		outcome = string(pkgerrors.CodeOf(*err))
	}
	s.metrics.IncOutcome(op, outcome)
}

// mapProviderError turns a provider failure into the API error taxonomy.
func mapProviderError(err error, action string) error {
	var failure *paypal.Failure
	if errors.As(err, &failure) {
		code := pkgerrors.CodeUpstream
		switch failure.Kind {
		case paypal.FailureAuth:
			code = pkgerrors.CodeProviderAuth
		case paypal.FailureParse:
			code = pkgerrors.CodeMalformedResponse
		}
		return pkgerrors.Wrap(code, err, action+" failed").WithDetails(failure.Detail())
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return pkgerrors.Wrap(pkgerrors.CodeUpstream, err, action+" timed out").WithDetails(err.Error())
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, action+" failed")
}

func rawDetail(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return raw
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
