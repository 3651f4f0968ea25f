package wishlist

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"

	pkgerrors "github.com/velvetcharms/storefront-backend/pkg/errors"
	"github.com/velvetcharms/storefront-backend/pkg/logger"
	"github.com/velvetcharms/storefront-backend/pkg/storage"
)

// StorageKey is the local storage key the original storefront used.
const StorageKey = "velvetcharms_wishlist_v1"

// Wishlist is an insertion-ordered set of product ids.
type Wishlist struct {
	IDs []string `json:"ids"`
}

func (w Wishlist) Contains(id string) bool {
	return w.indexOf(id) >= 0
}

func (w Wishlist) Len() int {
	return len(w.IDs)
}

func (w Wishlist) indexOf(id string) int {
	for i, existing := range w.IDs {
		if existing == id {
			return i
		}
	}
	return -1
}

func empty() Wishlist {
	return Wishlist{IDs: []string{}}
}

var codec = storage.Codec[Wishlist]{
	Version: 2,
	Legacy:  decodeLegacy,
	Empty:   empty,
}

// decodeLegacy reads the original layout, a bare array of ids.
func decodeLegacy(raw []byte) (Wishlist, error) {
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return Wishlist{}, err
	}
	out := empty()
	for _, entry := range entries {
		entry = bytes.TrimSpace(entry)
		var id string
		if len(entry) > 0 && entry[0] == '"' {
			if err := json.Unmarshal(entry, &id); err != nil {
				return Wishlist{}, err
			}
		} else {
			var n json.Number
			if err := json.Unmarshal(entry, &n); err != nil {
				return Wishlist{}, err
			}
			id = n.String()
		}
		out.IDs = append(out.IDs, id)
	}
	return out, nil
}

func sanitize(w Wishlist) Wishlist {
	out := empty()
	for _, id := range w.IDs {
		id = strings.TrimSpace(id)
		if id == "" || out.Contains(id) {
			continue
		}
		out.IDs = append(out.IDs, id)
	}
	return out
}

// Store persists the wishlist as one blob, with the same read-modify-write
// discipline as the cart store.
type Store struct {
	backend storage.Backend
	logger  *logger.Logger
	mu      sync.Mutex
}

func NewStore(backend storage.Backend, logg *logger.Logger) (*Store, error) {
	if backend == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "wishlist storage backend is required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Store{backend: backend, logger: logg}, nil
}

func (s *Store) Get(ctx context.Context) (Wishlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(ctx)
}

// Toggle removes id when present and appends it otherwise. It reports whether
// id is in the wishlist afterwards.
func (s *Store) Toggle(ctx context.Context, id string) (Wishlist, bool, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Wishlist{}, false, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	var added bool
	w, err := s.mutate(ctx, func(w *Wishlist) {
		if i := w.indexOf(id); i >= 0 {
			w.IDs = append(w.IDs[:i], w.IDs[i+1:]...)
			return
		}
		w.IDs = append(w.IDs, id)
		added = true
	})
	if err != nil {
		return Wishlist{}, false, err
	}
	return w, added, nil
}

func (s *Store) Remove(ctx context.Context, id string) (Wishlist, error) {
	id = strings.TrimSpace(id)
	return s.mutate(ctx, func(w *Wishlist) {
		if i := w.indexOf(id); i >= 0 {
			w.IDs = append(w.IDs[:i], w.IDs[i+1:]...)
		}
	})
}

func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.backend.Delete(ctx, StorageKey); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear wishlist")
	}
	return nil
}

func (s *Store) mutate(ctx context.Context, fn func(w *Wishlist)) (Wishlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.read(ctx)
	if err != nil {
		return Wishlist{}, err
	}
	fn(&current)
	raw, err := codec.Encode(current)
	if err != nil {
		return Wishlist{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode wishlist")
	}
	if err := s.backend.Set(ctx, StorageKey, raw); err != nil {
		return Wishlist{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save wishlist")
	}
	return current, nil
}

func (s *Store) read(ctx context.Context) (Wishlist, error) {
	raw, ok, err := s.backend.Get(ctx, StorageKey)
	if err != nil {
		return Wishlist{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wishlist")
	}
	if !ok {
		return empty(), nil
	}
	decoded, reason := codec.DecodeOr(raw)
	if reason != nil {
		s.logger.Warn(s.logger.WithField(ctx, "reason", reason.Error()), "discarding unreadable wishlist")
	}
	return sanitize(decoded), nil
}
