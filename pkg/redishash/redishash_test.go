package redishash

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name    string  `redis:"name"`
	Count   int64   `redis:"count"`
	Avatar  *string `redis:"avatar"`
	Note    *string `redis:"note"`
	Skipped string  `redis:"-"`
	Plain   bool
	private string
}

func TestFields(t *testing.T) {
	avatar := "a.png"
	fields := Fields(&sample{Name: "n", Count: 3, Avatar: &avatar, Skipped: "x", Plain: true, private: "p"})

	assert.Equal(t, map[string]any{
		"name":   "n",
		"count":  int64(3),
		"avatar": "a.png",
		"Plain":  true,
	}, fields)
}

func TestHSetStruct(t *testing.T) {
	s := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: s.Addr()})
	ctx := context.Background()

	require.NoError(t, HSetStruct(ctx, rc, "h", sample{Name: "n", Count: 7}).Err())

	got, err := rc.HGetAll(ctx, "h").Result()
	require.NoError(t, err)
	assert.Equal(t, "n", got["name"])
	assert.Equal(t, int64(7), FieldToInt64(got["count"]))
	assert.Nil(t, FieldToStringPtr(got, "avatar"))
	_, hasNote := got["note"]
	assert.False(t, hasNote)

	t.Log("queued on a transaction the hash lands on exec")
	pipe := rc.TxPipeline()
	cmd := HSetStruct(ctx, pipe, "h2", sample{Name: "m"})
	require.NoError(t, ExecPipe(ctx, pipe))
	assert.Equal(t, int64(3), cmd.Val(), "name, count and Plain")
	assert.Equal(t, "m", rc.HGet(ctx, "h2", "name").Val())
}
