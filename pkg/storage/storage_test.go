package storage

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velvetcharms/storefront-backend/pkg/redis"
)

func backends(t *testing.T) map[string]Backend {
	t.Helper()

	file, err := NewFile(t.TempDir())
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	raw := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = raw.Close() })
	session, err := NewSession(redis.NewFromClient(raw), "visitor-1", time.Hour)
	require.NoError(t, err)

	return map[string]Backend{
		"memory":  NewMemory(),
		"file":    file,
		"session": session,
	}
}

func TestBackendsRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := backend.Get(ctx, "velvetcharms_cart_v1")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, backend.Set(ctx, "velvetcharms_cart_v1", []byte(`{"version":2,"data":[]}`)))
			raw, ok, err := backend.Get(ctx, "velvetcharms_cart_v1")
			require.NoError(t, err)
			require.True(t, ok)
			assert.JSONEq(t, `{"version":2,"data":[]}`, string(raw))

			require.NoError(t, backend.Set(ctx, "velvetcharms_cart_v1", []byte(`{"version":2,"data":[1]}`)))
			raw, _, err = backend.Get(ctx, "velvetcharms_cart_v1")
			require.NoError(t, err)
			assert.JSONEq(t, `{"version":2,"data":[1]}`, string(raw))

			require.NoError(t, backend.Delete(ctx, "velvetcharms_cart_v1"))
			require.NoError(t, backend.Delete(ctx, "velvetcharms_cart_v1"))
			_, ok, err = backend.Get(ctx, "velvetcharms_cart_v1")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestFileSanitizesKeys(t *testing.T) {
	dir := t.TempDir()
	file, err := NewFile(dir)
	require.NoError(t, err)

	require.NoError(t, file.Set(context.Background(), "../escape/me", []byte("x")))
	_, err = os.Stat(filepath.Join(dir, ".._escape_me.json"))
	assert.NoError(t, err)
}

func TestSessionRequiresID(t *testing.T) {
	_, err := NewSession(nil, "abc", 0)
	assert.Error(t, err)
}

type failingKV struct{}

func (failingKV) Load(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("connection refused")
}
func (failingKV) Set(context.Context, string, any, time.Duration) error {
	return errors.New("connection refused")
}
func (failingKV) Del(context.Context, ...string) error { return errors.New("connection refused") }
func (failingKV) Touch(context.Context, string, time.Duration) error {
	return errors.New("connection refused")
}
func (failingKV) SessionKey(id, name string) string { return id + ":" + name }

func TestSessionWrapsFailuresAsUnavailable(t *testing.T) {
	session, err := NewSession(failingKV{}, "abc", time.Minute)
	require.NoError(t, err)

	_, _, err = session.Get(context.Background(), "cart")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, session.Set(context.Background(), "cart", nil), ErrUnavailable)
}

type sample struct {
	Names []string `json:"names"`
}

func sampleCodec() Codec[sample] {
	return Codec[sample]{
		Version: 2,
		Empty:   func() sample { return sample{Names: []string{}} },
		Legacy: func(raw []byte) (sample, error) {
			var names []string
			if err := json.Unmarshal(raw, &names); err != nil {
				return sample{}, err
			}
			return sample{Names: names}, nil
		},
	}
}

func TestCodecRoundTrip(t *testing.T) {
	codec := sampleCodec()
	raw, err := codec.Encode(sample{Names: []string{"a", "b"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":2,"data":{"names":["a","b"]}}`, string(raw))

	decoded, reason := codec.DecodeOr(raw)
	require.NoError(t, reason)
	assert.Equal(t, []string{"a", "b"}, decoded.Names)
}

func TestCodecFallbacks(t *testing.T) {
	codec := sampleCodec()

	legacy, reason := codec.DecodeOr([]byte(`["x","y"]`))
	require.NoError(t, reason)
	assert.Equal(t, []string{"x", "y"}, legacy.Names)

	for _, raw := range []string{`{not json`, `{"version":9,"data":{}}`, `{"version":2,"data":"nope"}`, `42`} {
		value, reason := codec.DecodeOr([]byte(raw))
		assert.Error(t, reason, raw)
		assert.Equal(t, []string{}, value.Names, raw)
	}

	empty, reason := codec.DecodeOr(nil)
	require.NoError(t, reason)
	assert.Equal(t, []string{}, empty.Names)
}

func TestSessionReadsSlideTTL(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	raw := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = raw.Close() })
	client := redis.NewFromClient(raw)

	session, err := NewSession(client, "visitor-2", time.Hour)
	require.NoError(t, err)
	require.NoError(t, session.Set(ctx, "velvetcharms_wishlist_v1", []byte(`{"version":1,"data":[]}`)))

	mr.FastForward(50 * time.Minute)
	_, ok, err := session.Get(ctx, "velvetcharms_wishlist_v1")
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(50 * time.Minute)
	_, ok, err = session.Get(ctx, "velvetcharms_wishlist_v1")
	require.NoError(t, err)
	assert.True(t, ok, "read should have extended the session TTL")

	assert.Equal(t, time.Hour, mr.TTL(client.SessionKey("visitor-2", "velvetcharms_wishlist_v1")))
}
