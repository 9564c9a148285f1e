package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillplay/skillplay-life/internal/domain/shared"
)

func TestConfig_Addr(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "localhost:6379", cfg.Addr())
	assert.Equal(t, "skillplay:", cfg.KeyPrefix)

	cfg.Host = "::1"
	assert.Equal(t, "[::1]:6379", cfg.Addr())
}

func TestConfig_OptionsFromURL(t *testing.T) {
	cfg := DefaultConfig()
	cfg.URL = "redis://:hunter2@cache:6380/3"

	opts, err := cfg.Options()
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, "hunter2", opts.Password)
	assert.Equal(t, 3, opts.DB)
	assert.Equal(t, cfg.DialTimeout, opts.DialTimeout)

	cfg.URL = "http://not-redis"
	_, err = cfg.Options()
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestStore_KeyPrefix(t *testing.T) {
	s := New(redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"}), "skillplay:alice:")
	t.Cleanup(func() { _ = s.Close() })

	assert.Equal(t, "skillplay:alice:totalPoints", s.Key("totalPoints"))
	assert.Equal(t, "totalPoints", New(s.client, "").Key("totalPoints"))
}

func TestStore_RejectsEmptyKey(t *testing.T) {
	s := New(redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"}), "")
	t.Cleanup(func() { _ = s.Close() })
	ctx := context.Background()

	_, err := s.Get(ctx, "")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
	assert.ErrorIs(t, s.Set(ctx, "", []byte("x")), shared.ErrInvalidInput)
	assert.NoError(t, s.Delete(ctx))
}

func TestOpen_Unreachable(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = 1
	cfg.MaxRetries = -1
	cfg.DialTimeout = 200 * time.Millisecond

	_, err := Open(context.Background(), cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConnection)
}
