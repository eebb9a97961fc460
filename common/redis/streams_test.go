package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) *redis.Client {
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}

func TestPublishToStream_ConvertsValues(t *testing.T) {
	client := setupTestRedis(t)
	ctx := context.Background()

	id, err := PublishToStream(ctx, client, "test:stream", 0, map[string]interface{}{
		"name":   "gauze",
		"count":  3,
		"ratio":  1.5,
		"active": true,
		"tags":   []string{"a", "b"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	msgs, err := client.XRange(ctx, "test:stream", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	values := msgs[0].Values
	assert.Equal(t, "gauze", values["name"])
	assert.Equal(t, "3", values["count"])
	assert.Equal(t, "1.5", values["ratio"])
	assert.Equal(t, "true", values["active"])
	assert.Equal(t, `["a","b"]`, values["tags"])
}
