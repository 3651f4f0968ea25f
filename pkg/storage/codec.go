package storage

import (
	"encoding/json"
	"fmt"
)

// Envelope is the versioned wrapper every persisted blob is written in.
type Envelope[T any] struct {
	Version int `json:"version"`
	Data    T   `json:"data"`
}

// Migration converts a blob from an older (or unversioned) layout.
type Migration[T any] func(raw []byte) (T, error)

// Codec encodes values of T at a fixed version and decodes with a fallback.
type Codec[T any] struct {
	Version int
	// Legacy decodes blobs without a version tag. Optional.
	Legacy Migration[T]
	// Empty builds the value used when a blob cannot be decoded.
	Empty func() T
}

// Encode wraps value in the current envelope.
func (c Codec[T]) Encode(value T) ([]byte, error) {
	return json.Marshal(Envelope[T]{Version: c.Version, Data: value})
}

// Decode reads raw in the current envelope, or through Legacy when the blob has
// no version tag. It never yields a zero-value surprise: on any failure the
// returned value is Empty() and err describes why.
func (c Codec[T]) Decode(raw []byte) (T, error) {
	var head struct {
		Version *int `json:"version"`
	}
	if err := json.Unmarshal(raw, &head); err != nil || head.Version == nil {
		if c.Legacy != nil {
			value, legacyErr := c.Legacy(raw)
			if legacyErr == nil {
				return value, nil
			}
			return c.empty(), fmt.Errorf("decode legacy blob: %w", legacyErr)
		}
		if err != nil {
			return c.empty(), fmt.Errorf("decode blob: %w", err)
		}
		return c.empty(), fmt.Errorf("blob has no version")
	}
	if *head.Version != c.Version {
		return c.empty(), fmt.Errorf("unsupported blob version %d (want %d)", *head.Version, c.Version)
	}
	var env Envelope[T]
	if err := json.Unmarshal(raw, &env); err != nil {
		return c.empty(), fmt.Errorf("decode blob: %w", err)
	}
	return env.Data, nil
}

// DecodeOr decodes raw and returns the fallback reason separately, so callers
// can log it without ever surfacing it as a failure.
func (c Codec[T]) DecodeOr(raw []byte) (value T, fallbackReason error) {
	if len(raw) == 0 {
		return c.empty(), nil
	}
	return c.Decode(raw)
}

func (c Codec[T]) empty() T {
	if c.Empty != nil {
		return c.Empty()
	}
	var zero T
	return zero
}
