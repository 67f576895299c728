package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/marked/internal/logger"
)

// unreachable points at a port nothing listens on, so every command fails fast.
func unreachable() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
}

func TestCanonicalKey(t *testing.T) {
	assert.Equal(t, "marked:canonical:https://example.com/a", CanonicalKey("https://example.com/a"))
}

func TestCanonicalCache_ErrorsAreMisses(t *testing.T) {
	client := unreachable()
	defer client.Close()

	c := NewCanonicalCache(client, time.Hour, logger.Nop())
	ctx := context.Background()

	assert.NotPanics(t, func() { c.Set(ctx, "https://example.com/a", 7) })

	id, ok := c.Get(ctx, "https://example.com/a")
	assert.False(t, ok)
	assert.Zero(t, id)
}

func TestConnectOptions_Validate(t *testing.T) {
	opts := DefaultConnectOptions("localhost:6379")
	require.NoError(t, opts.validate())

	tests := []struct {
		name   string
		modify func(*ConnectOptions)
	}{
		{"missing address", func(o *ConnectOptions) { o.Addr = "" }},
		{"zero connect timeout", func(o *ConnectOptions) { o.ConnectTimeout = 0 }},
		{"zero retry interval", func(o *ConnectOptions) { o.RetryInterval = 0 }},
		{"zero max wait", func(o *ConnectOptions) { o.MaxWait = 0 }},
		{"zero ping timeout", func(o *ConnectOptions) { o.PingTimeout = 0 }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			o := DefaultConnectOptions("localhost:6379")
			tc.modify(&o)
			assert.Error(t, o.validate())
		})
	}
}

func TestConnect_GivesUp(t *testing.T) {
	opts := DefaultConnectOptions("127.0.0.1:1")
	opts.DialTimeout = 50 * time.Millisecond
	opts.ConnectTimeout = 300 * time.Millisecond
	opts.RetryInterval = 50 * time.Millisecond
	opts.MaxWait = 100 * time.Millisecond
	opts.PingTimeout = 100 * time.Millisecond

	start := time.Now()
	client, err := Connect(context.Background(), opts, logger.Nop())

	assert.Error(t, err)
	assert.Nil(t, client)
	assert.Less(t, time.Since(start), 5*time.Second)
}
