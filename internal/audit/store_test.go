package audit

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"grimm.is/dvr/internal/ctlplane"
	"grimm.is/dvr/internal/events"
	"grimm.is/dvr/internal/logging"
	"grimm.is/dvr/internal/routing"
)

func newTestStore(t *testing.T, retain int) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "state", "audit.db"), retain)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_WriteRecent(t *testing.T) {
	store := newTestStore(t, 0)
	ts := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	for i := 1; i <= 3; i++ {
		require.NoError(t, store.Write(Record{
			Seq:       uint64(i),
			Timestamp: ts.Add(time.Duration(i) * time.Second),
			Plane:     "ctlplane",
			Action:    string(events.EventRouteAdded),
			Route:     routing.Route{Destination: fmt.Sprintf("10.%d.0.0/24", i), NextHop: "192.168.1.1", Metric: 100},
			Replaced:  i == 2,
		}))
	}

	recs, err := store.Recent(2)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, uint64(3), recs[0].Seq)
	assert.Equal(t, "10.3.0.0/24", recs[0].Route.Destination)
	assert.Equal(t, ts.Add(3*time.Second), recs[0].Timestamp)
	assert.False(t, recs[0].Replaced)
	assert.True(t, recs[1].Replaced)

	all, err := store.Recent(0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestStore_RecentEmpty(t *testing.T) {
	store := newTestStore(t, 0)
	recs, err := store.Recent(10)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestStore_Prune(t *testing.T) {
	store := newTestStore(t, 5)
	for i := range 8 {
		require.NoError(t, store.Write(Record{Seq: uint64(i + 1), Plane: "ctlplane", Action: "route.added"}))
	}

	n, err := store.Prune()
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	count, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, 5, count)

	recs, err := store.Recent(0)
	require.NoError(t, err)
	assert.Equal(t, uint64(8), recs[0].Seq)
	assert.Equal(t, uint64(4), recs[4].Seq)
}

func TestStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")
	store, err := NewStore(path, 0)
	require.NoError(t, err)
	require.NoError(t, store.Write(Record{Seq: 1, Plane: "ctlplane", Action: "route.deleted",
		Route: routing.Route{Destination: "10.0.0.0/24"}}))
	require.NoError(t, store.Close())

	store, err = NewStore(path, 0)
	require.NoError(t, err)
	defer store.Close()

	count, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRecordFromEvent(t *testing.T) {
	_, ok := RecordFromEvent(events.Event{Type: events.EventRouteAdded, Data: "bogus"})
	assert.False(t, ok)

	ts := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	rec, ok := RecordFromEvent(events.Event{
		Type:      events.EventRouteDeleted,
		Timestamp: ts,
		Source:    "ctlplane",
		Data:      events.RouteChangeData{Seq: 7, Route: routing.Route{Destination: "10.0.0.0/24"}},
	})
	require.True(t, ok)
	assert.Equal(t, Record{
		Seq:       7,
		Timestamp: ts,
		Plane:     "ctlplane",
		Action:    "route.deleted",
		Route:     routing.Route{Destination: "10.0.0.0/24"},
	}, rec)
}

func TestRecorder_JournalsControlPlaneChanges(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreTopFunction("database/sql.(*DB).connectionOpener"))

	store := newTestStore(t, 0)
	hub := events.NewHub()
	rec := NewRecorder(store, hub, logging.Discard())
	rec.Start()
	rec.Start() // no second subscription
	assert.Equal(t, 1, hub.Subscribers())

	cp := ctlplane.New(ctlplane.Options{Logger: logging.Discard(), Hub: hub})
	cp.AddRoute(routing.Route{Destination: "10.1.0.0/24", NextHop: "192.168.1.9", Metric: 50})
	cp.DeleteRoute("10.0.0.0/24")

	rec.Stop()
	rec.Stop()
	assert.Zero(t, hub.Subscribers())

	recs, err := store.Recent(0)
	require.NoError(t, err)
	require.Len(t, recs, 4, "two seeds, one add, one delete")

	assert.Equal(t, "route.deleted", recs[0].Action)
	assert.Equal(t, "10.0.0.0/24", recs[0].Route.Destination)
	assert.Equal(t, uint64(4), recs[0].Seq)
	assert.Equal(t, "route.added", recs[1].Action)
	assert.Equal(t, routing.Route{Destination: "10.1.0.0/24", NextHop: "192.168.1.9", Metric: 50}, recs[1].Route)
	for _, r := range recs {
		assert.Equal(t, "ctlplane", r.Plane)
	}

	// Changes after Stop are not journaled.
	cp.AddRoute(routing.Route{Destination: "10.2.0.0/24"})
	count, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}
