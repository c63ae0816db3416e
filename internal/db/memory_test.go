package db

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kube-rca/graylog-relay/internal/metrics"
	"github.com/kube-rca/graylog-relay/internal/model"
)

func TestAddAssignsFreshIdentity(t *testing.T) {
	store := NewAlertStore(zap.NewNop(), nil)
	ctx := context.Background()

	input := model.StoredAlert{ID: uuid.MustParse("00000000-0000-0000-0000-000000000001"), EventID: "evt-1", Priority: 2}
	first, err := store.Add(ctx, input)
	require.NoError(t, err)
	second, err := store.Add(ctx, input)
	require.NoError(t, err)

	assert.NotEqual(t, input.ID, first.ID)
	assert.NotEqual(t, first.ID, second.ID)
	assert.False(t, first.ReceivedAt.IsZero())

	got, err := store.Get(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, "evt-1", got.EventID)
}

func TestGetUnknownID(t *testing.T) {
	store := NewAlertStore(zap.NewNop(), nil)

	_, err := store.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrAlertNotFound)
}

func TestListByMinPriority(t *testing.T) {
	store := NewAlertStore(zap.NewNop(), nil)
	ctx := context.Background()
	for _, p := range []int{0, 1, 2, 3} {
		_, err := store.Add(ctx, model.StoredAlert{Priority: p})
		require.NoError(t, err)
	}

	all, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)
	assert.Equal(t, 0, all[0].Priority)

	high, err := store.ListByMinPriority(ctx, 2)
	require.NoError(t, err)
	require.Len(t, high, 2)
	assert.Equal(t, 2, high[0].Priority)
	assert.Equal(t, 3, high[1].Priority)
}

func TestListReturnsCopy(t *testing.T) {
	store := NewAlertStore(zap.NewNop(), nil)
	ctx := context.Background()
	_, err := store.Add(ctx, model.StoredAlert{EventID: "a"})
	require.NoError(t, err)

	list, _ := store.List(ctx)
	list[0].EventID = "mutated"

	again, _ := store.List(ctx)
	assert.Equal(t, "a", again[0].EventID)
}

func TestConcurrentAddAndList(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	store := NewAlertStore(zap.NewNop(), m)
	ctx := context.Background()

	const writers = 50
	var wg sync.WaitGroup
	ids := make(chan uuid.UUID, writers)
	for i := 0; i < writers; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			a, err := store.Add(ctx, model.StoredAlert{Priority: 3})
			assert.NoError(t, err)
			ids <- a.ID
		}()
		go func() {
			defer wg.Done()
			_, err := store.List(ctx)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[uuid.UUID]bool{}
	for id := range ids {
		assert.False(t, seen[id])
		seen[id] = true
	}

	list, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, writers)
	assert.Equal(t, float64(writers), storedAlertsGauge(t, reg))
}

func storedAlertsGauge(t *testing.T, reg *prometheus.Registry) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == "graylog_relay_stored_alerts" {
			return f.GetMetric()[0].GetGauge().GetValue()
		}
	}
	t.Fatal("stored_alerts gauge not registered")
	return 0
}
