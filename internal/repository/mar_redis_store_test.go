package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/ward-mar-api/internal/models"
	appErrors "github.com/noah-isme/ward-mar-api/pkg/errors"
)

func newRedisStore(t *testing.T) (*MarRedisStore, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewMarRedisStore(client, "ward7", zap.NewNop()), srv
}

func TestMarRedisStoreReplaceThenSnapshot(t *testing.T) {
	store, srv := newRedisStore(t)
	ctx := context.Background()

	err := store.Replace(ctx, &models.MarSnapshot{
		Visits: []models.Visit{{ID: "V1", DeptCode: "ICU"}, {ID: "V2", DeptCode: "ER"}},
		Items: []models.MedicationItem{
			{ID: "M1", VisitID: "V1", Status: models.MedicationStatusScheduled},
			{ID: "M2", VisitID: "V2", Status: models.MedicationStatusReturnPending},
		},
	})
	require.NoError(t, err)
	assert.True(t, srv.Exists("ward7:published_at"))

	snapshot, err := store.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snapshot.Visits, 2)
	require.Len(t, snapshot.Items, 2)
	assert.Equal(t, "V1", snapshot.Visits[0].ID)
	assert.Equal(t, models.MedicationStatusReturnPending, snapshot.Items[1].Status)

	items, err := store.MedicationItems(ctx)
	require.NoError(t, err)
	assert.Equal(t, snapshot.Items, items)
}

func TestMarRedisStoreEmptyWhenNothingPublished(t *testing.T) {
	store, _ := newRedisStore(t)

	snapshot, err := store.Snapshot(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, snapshot.Visits)
	assert.Empty(t, snapshot.Visits)
	assert.Empty(t, snapshot.Items)

	items, err := store.MedicationItems(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestMarRedisStoreRejectsUnknownStatus(t *testing.T) {
	store, srv := newRedisStore(t)
	require.NoError(t, srv.Set("ward7:visits", `[{"id":"V1","deptCode":"ICU"}]`))
	require.NoError(t, srv.Set("ward7:items", `[{"id":"M1","visitId":"V1","status":"VANISHED"}]`))

	_, err := store.Snapshot(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrInvalidUpstreamData))
}

func TestMarRedisStoreUnavailable(t *testing.T) {
	store, srv := newRedisStore(t)
	srv.Close()

	_, err := store.Snapshot(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrUpstreamUnavailable))
}
