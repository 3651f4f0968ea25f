package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// SessionKV is the subset of the redis client the session backend needs.
type SessionKV interface {
	Load(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Touch(ctx context.Context, key string, ttl time.Duration) error
	SessionKey(sessionID, name string) string
}

// Session scopes blobs to one visitor session in Redis. Reads and writes both
// refresh the TTL, so an active shopper's cart never expires mid-visit.
type Session struct {
	kv        SessionKV
	sessionID string
	ttl       time.Duration
}

// NewSession binds a backend to sessionID.
func NewSession(kv SessionKV, sessionID string, ttl time.Duration) (*Session, error) {
	if kv == nil {
		return nil, errors.New("session store is required")
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, errors.New("session id is required")
	}
	return &Session{kv: kv, sessionID: sessionID, ttl: ttl}, nil
}

func (s *Session) Get(ctx context.Context, key string) ([]byte, bool, error) {
	full := s.kv.SessionKey(s.sessionID, key)
	raw, ok, err := s.kv.Load(ctx, full)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if ok && s.ttl > 0 {
		if err := s.kv.Touch(ctx, full, s.ttl); err != nil {
			return nil, false, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}
	return raw, ok, nil
}

func (s *Session) Set(ctx context.Context, key string, value []byte) error {
	if err := s.kv.Set(ctx, s.kv.SessionKey(s.sessionID, key), value, s.ttl); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *Session) Delete(ctx context.Context, key string) error {
	if err := s.kv.Del(ctx, s.kv.SessionKey(s.sessionID, key)); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
