package workerpool

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/ragnar-no-sleep/cynic/judgment"
)

func setupTestBackend(t *testing.T) *RedisBackend {
	t.Helper()
	mr := miniredis.RunT(t)
	backend, err := NewRedisBackend(RedisOptions{URL: fmt.Sprintf("redis://%s", mr.Addr())})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = backend.Close()
		mr.Close()
	})
	return backend
}

func TestRedisBackendSaveAndLoad(t *testing.T) {
	backend := setupTestBackend(t)
	ctx := context.Background()

	task := judgment.Task{ID: "t-1", Type: "code_review", Status: judgment.TaskCompleted, CreatedAt: time.Now()}
	require.NoError(t, backend.Save(ctx, task))

	loaded, ok, err := backend.Load(ctx, "t-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, task.ID, loaded.ID)
	require.Equal(t, task.Status, loaded.Status)
}

func TestRedisBackendLoadMissing(t *testing.T) {
	backend := setupTestBackend(t)
	_, ok, err := backend.Load(context.Background(), "nope")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestPoolSubmitWritesThroughBackend(t *testing.T) {
	backend := setupTestBackend(t)
	cfg := NewConfig()
	cfg.Backend = backend
	p := New(cfg)
	defer p.Shutdown(context.Background())

	id, err := p.Submit(judgment.Task{Type: "code_review"}, func(ctx context.Context, task judgment.Task, report func(int, string)) (any, error) {
		return "ok", nil
	})
	require.NoError(t, err)

	waitForTerminal(t, p, id, time.Second)

	saved, ok, err := backend.Load(context.Background(), id)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, judgment.TaskCompleted, saved.Status)
}
