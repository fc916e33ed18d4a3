package redis_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/davidbz/kiln/internal/feedback"
	feedbackredis "github.com/davidbz/kiln/internal/feedback/redis"
)

func newStore(t *testing.T) (*feedbackredis.Store, *miniredis.Miniredis) {
	t.Helper()

	server := miniredis.RunT(t)
	client := feedbackredis.NewClient(feedback.Config{RedisAddr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store, err := feedbackredis.NewStore(context.Background(), client, "feedback:counts")
	require.NoError(t, err)

	return store, server
}

func TestStore_IncrementAndCounts(t *testing.T) {
	store, server := newStore(t)
	ctx := context.Background()

	count, err := store.Increment(ctx, "vscode__1.2.0__True")
	require.NoError(t, err)
	require.EqualValues(t, 1, count)

	count, err = store.Increment(ctx, "vscode__1.2.0__True")
	require.NoError(t, err)
	require.EqualValues(t, 2, count)

	_, err = store.Increment(ctx, "vscode__1.2.0__False")
	require.NoError(t, err)

	counts, err := store.Counts(ctx)
	require.NoError(t, err)
	require.Equal(t, map[string]int64{
		"vscode__1.2.0__True":  2,
		"vscode__1.2.0__False": 1,
	}, counts)

	require.Equal(t, "2", server.HGet("feedback:counts", "vscode__1.2.0__True"))
}

func TestStore_SkipsMalformedCounters(t *testing.T) {
	store, server := newStore(t)

	server.HSet("feedback:counts", "broken", "not-a-number")
	server.HSet("feedback:counts", "ok", "3")

	counts, err := store.Counts(context.Background())
	require.NoError(t, err)
	require.Equal(t, map[string]int64{"ok": 3}, counts)
}

func TestStore_EmptyHash(t *testing.T) {
	store, _ := newStore(t)

	counts, err := store.Counts(context.Background())
	require.NoError(t, err)
	require.Empty(t, counts)
}

func TestNewStore_Unreachable(t *testing.T) {
	server := miniredis.RunT(t)
	addr := server.Addr()
	server.Close()

	client := feedbackredis.NewClient(feedback.Config{RedisAddr: addr})
	t.Cleanup(func() { _ = client.Close() })

	store, err := feedbackredis.NewStore(context.Background(), client, "feedback:counts")
	require.Error(t, err)
	require.Nil(t, store)
}
