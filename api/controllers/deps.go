package controllers

import (
	"context"

	"github.com/velvetcharms/storefront-backend/internal/catalogue"
	"github.com/velvetcharms/storefront-backend/internal/orders"
	"github.com/velvetcharms/storefront-backend/pkg/storage"
)

// OrderService is the payment side the order routes call.
type OrderService interface {
	CreateOrder(ctx context.Context, req orders.Request) (orders.Created, error)
	CaptureOrder(ctx context.Context, orderID string) (orders.Captured, error)
}

// Catalogue returns the loaded product index.
type Catalogue interface {
	Get(ctx context.Context) (*catalogue.Index, catalogue.Report)
}

// SessionBackend opens the storage backend scoped to one cart session.
type SessionBackend func(sessionID string) (storage.Backend, error)

// Pinger is a readiness probe target.
type Pinger interface {
	Ping(ctx context.Context) error
}
