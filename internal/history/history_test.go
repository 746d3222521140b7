package history

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/JonMunkholm/rowrelay/internal/core"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func report(id string, started time.Time) core.BatchReport {
	return core.BatchReport{
		ID:        id,
		URL:       "http://svc/personas",
		Rows:      3,
		StartedAt: started,
		Duration:  1500 * time.Millisecond,
		Result: core.BatchResult{
			Correctos: []int{0, 2},
			Erroneos:  []core.RowFailure{{Idx: 1, Error: `required field "Nombre" is empty`}},
		},
	}
}

func TestMemoryStore_SaveGetRecent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(3)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 4; i++ {
		require.NoError(t, store.Save(ctx, report(fmt.Sprintf("r%d", i), base.Add(time.Duration(i)*time.Minute))))
	}

	assert.Equal(t, 3, store.Len(), "oldest report should be evicted")

	_, err := store.Get(ctx, "r0")
	assert.ErrorIs(t, err, core.ErrReportNotFound)

	got, err := store.Get(ctx, "r2")
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, got.Result.Correctos)

	recent, err := store.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "r3", recent[0].ID)
	assert.Equal(t, "r2", recent[1].ID)

	all, err := store.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(1)
	require.NoError(t, store.Save(ctx, report("a", time.Now())))

	got, err := store.Get(ctx, "a")
	require.NoError(t, err)
	got.URL = "changed"

	again, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "http://svc/personas", again.URL)
}

func TestMemoryStore_Prune(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(10)
	now := time.Now()

	require.NoError(t, store.Save(ctx, report("old", now.Add(-48*time.Hour))))
	require.NoError(t, store.Save(ctx, report("new", now)))

	removed, err := store.Prune(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	_, err = store.Get(ctx, "old")
	assert.ErrorIs(t, err, core.ErrReportNotFound)
	_, err = store.Get(ctx, "new")
	assert.NoError(t, err)
}

type failingPruner struct{ calls int }

func (f *failingPruner) Prune(context.Context, time.Time) (int64, error) {
	f.calls++
	return 0, errors.New("database unavailable")
}

func TestRunPrune(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(10)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.Save(ctx, report("old", now.Add(-31*24*time.Hour))))
	require.NoError(t, store.Save(ctx, report("recent", now.Add(-time.Hour))))

	removed := runPrune(ctx, store, 30*24*time.Hour, func() time.Time { return now })
	assert.Equal(t, int64(1), removed)
	assert.Equal(t, 1, store.Len())

	failing := &failingPruner{}
	assert.Equal(t, int64(0), runPrune(ctx, failing, time.Hour, time.Now))
	assert.Equal(t, 1, failing.calls)
}

func TestStartRetention_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pruner := &failingPruner{}

	done := make(chan struct{})
	go func() {
		StartRetention(ctx, pruner, RetentionConfig{MaxAge: time.Hour, CheckInterval: time.Hour})
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("StartRetention did not return after cancel")
	}
	assert.Equal(t, 1, pruner.calls, "initial pass should run once")
}

func TestStartRetention_Disabled(t *testing.T) {
	pruner := &failingPruner{}
	StartRetention(context.Background(), pruner, RetentionConfig{})
	assert.Equal(t, 0, pruner.calls)
}

// TestPostgresStore runs against a real database when
// ROWRELAY_TEST_DATABASE_URL is set.
func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("ROWRELAY_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("ROWRELAY_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	defer pool.Close()

	store, err := NewPostgresStore(ctx, pool)
	require.NoError(t, err)

	id := uuid.NewString()
	started := time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, store.Save(ctx, report(id, started)))
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM batch_runs WHERE id = $1`, id)
	})

	got, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, 1500*time.Millisecond, got.Duration)
	assert.Equal(t, []int{0, 2}, got.Result.Correctos)
	assert.True(t, started.Equal(got.StartedAt))

	_, err = store.Get(ctx, uuid.NewString())
	assert.ErrorIs(t, err, core.ErrReportNotFound)

	recent, err := store.Recent(ctx, 5)
	require.NoError(t, err)
	assert.NotEmpty(t, recent)
}
