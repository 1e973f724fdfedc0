package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/EEWBot/webhook-benchmark/model"
	"github.com/stretchr/testify/require"
)

func TestSnapshotArgs(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.FixedZone("JST", 9*3600))

	args := snapshotArgs(at, model.NewGauge())
	require.Len(t, args, 6)
	require.Equal(t, at.UTC(), args[0])
	require.EqualValues(t, 0, args[1])
	require.Nil(t, args[3])
	require.Nil(t, args[4])
	require.Nil(t, args[5])

	g := model.NewGauge()
	g.Append(3)
	g.Append(9)
	args = snapshotArgs(at, g)
	require.EqualValues(t, 2, args[1])
	require.EqualValues(t, 12, args[2])
	require.EqualValues(t, 3, *args[3].(*int64))
	require.EqualValues(t, 6, *args[4].(*int64))
	require.EqualValues(t, 9, *args[5].(*int64))
}

func TestRestoreBounds(t *testing.T) {
	empty := model.NewGauge()
	b, w := restoreBounds(nil, nil)
	require.Equal(t, empty.BestMs, b)
	require.Equal(t, empty.WorstMs, w)

	best, worst := int64(4), int64(40)
	b, w = restoreBounds(&best, &worst)
	require.EqualValues(t, 4, b)
	require.EqualValues(t, 40, w)
}

func TestPostgresStorage_Integration(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := NewPostgresStorage(ctx, dsn)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Ping(ctx))

	g := model.NewGauge()
	g.Append(15)
	g.Append(25)
	takenAt := time.Now().Add(time.Hour).Truncate(time.Microsecond)
	require.NoError(t, store.SaveSnapshot(ctx, takenAt, g))

	latest, err := store.Latest(ctx)
	require.NoError(t, err)
	require.True(t, takenAt.Equal(latest.TakenAt))
	require.Equal(t, g, latest.Gauge)
}
