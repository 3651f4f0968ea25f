package cart

import (
	"context"
	"strings"
	"sync"

	pkgerrors "github.com/velvetcharms/storefront-backend/pkg/errors"
	"github.com/velvetcharms/storefront-backend/pkg/logger"
	"github.com/velvetcharms/storefront-backend/pkg/storage"
)

// Store persists the cart as one blob. Every mutator re-reads the blob, applies
// the change and writes it back while holding the store lock.
type Store struct {
	backend storage.Backend
	logger  *logger.Logger
	mu      sync.Mutex
}

func NewStore(backend storage.Backend, logg *logger.Logger) (*Store, error) {
	if backend == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart storage backend is required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Store{backend: backend, logger: logg}, nil
}

// Get reads the persisted cart. Undecodable data is an empty cart.
func (s *Store) Get(ctx context.Context) (Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(ctx)
}

// Add merges qty into the line with the same product and options, or appends a new line.
func (s *Store) Add(ctx context.Context, productID string, snap Snapshot, qty int, options map[string]string) (Cart, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return Cart{}, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if qty < 1 {
		return Cart{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1").
			WithDetails(map[string]any{"quantity": qty})
	}
	if snap.Price.IsNegative() {
		return Cart{}, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
	}

	options = normalizeOptions(options)
	key := LineKey(productID, options)
	return s.mutate(ctx, func(c *Cart) {
		if i := c.indexOf(key); i >= 0 {
			c.Items[i].Quantity += qty
			return
		}
		name := strings.TrimSpace(snap.Name)
		if name == "" {
			name = productID
		}
		c.Items = append(c.Items, Line{
			Key:       key,
			ProductID: productID,
			Name:      name,
			UnitPrice: snap.Price,
			Quantity:  qty,
			Options:   options,
		})
	})
}

// SetQuantity replaces a line's quantity; qty <= 0 removes the line. Unknown keys are ignored.
func (s *Store) SetQuantity(ctx context.Context, key string, qty int) (Cart, error) {
	return s.mutate(ctx, func(c *Cart) {
		i := c.indexOf(key)
		if i < 0 {
			return
		}
		if qty <= 0 {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return
		}
		c.Items[i].Quantity = qty
	})
}

func (s *Store) Remove(ctx context.Context, key string) (Cart, error) {
	return s.SetQuantity(ctx, key, 0)
}

func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.backend.Delete(ctx, StorageKey); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

func (s *Store) mutate(ctx context.Context, fn func(c *Cart)) (Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.read(ctx)
	if err != nil {
		return Cart{}, err
	}
	fn(&current)
	if err := s.write(ctx, current); err != nil {
		return Cart{}, err
	}
	return current, nil
}

func (s *Store) read(ctx context.Context) (Cart, error) {
	raw, ok, err := s.backend.Get(ctx, StorageKey)
	if err != nil {
		return Cart{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if !ok {
		return emptyCart(), nil
	}
	decoded, reason := codec.DecodeOr(raw)
	if reason != nil {
		s.logger.Warn(s.logger.WithField(ctx, "reason", reason.Error()), "discarding unreadable cart")
	}
	return sanitize(decoded), nil
}

func (s *Store) write(ctx context.Context, c Cart) error {
	raw, err := codec.Encode(c)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode cart")
	}
	if err := s.backend.Set(ctx, StorageKey, raw); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart")
	}
	return nil
}
