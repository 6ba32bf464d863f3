package ctlplane

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grimm.is/dvr/internal/clock"
	"grimm.is/dvr/internal/events"
	"grimm.is/dvr/internal/logging"
	"grimm.is/dvr/internal/metrics"
	"grimm.is/dvr/internal/routing"
)

func newTestPlane(t *testing.T, opts Options) *ControlPlane {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	return New(opts)
}

func TestNew_SeedsDefaultRoutes(t *testing.T) {
	start := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	cp := newTestPlane(t, Options{Clock: clock.NewMockClock(start)})

	assert.Equal(t, routing.DefaultRoutes(), cp.GetRoutes())

	stats := cp.GetStats()
	assert.Equal(t, start, stats.StartTime)
	assert.Equal(t, uint64(2), stats.RoutesAdded)
	assert.Zero(t, stats.RoutesDeleted)
	assert.Zero(t, stats.APIRequests)
}

func TestNew_CustomSeeds(t *testing.T) {
	seeds := []routing.Route{{Destination: "10.9.0.0/24", NextHop: "192.168.1.9", Metric: 50}}
	cp := newTestPlane(t, Options{Seeds: seeds})

	assert.Equal(t, seeds, cp.GetRoutes())
	assert.Equal(t, uint64(1), cp.GetStats().RoutesAdded)

	empty := newTestPlane(t, Options{Seeds: []routing.Route{}})
	assert.Empty(t, empty.GetRoutes())
	assert.NotNil(t, empty.GetRoutes())
}

func TestAddRoute_LastWriteWins(t *testing.T) {
	cp := newTestPlane(t, Options{})

	cp.AddRoute(routing.Route{Destination: "10.0.0.0/24", NextHop: "192.168.1.50", Metric: 10})

	routes := cp.GetRoutes()
	require.Len(t, routes, 2)
	assert.Equal(t, routing.Route{Destination: "10.0.0.0/24", NextHop: "192.168.1.50", Metric: 10}, routes[0])
	// Overwrites still count as adds.
	assert.Equal(t, uint64(3), cp.GetStats().RoutesAdded)
}

func TestAddRoute_AcceptsEmptyFields(t *testing.T) {
	cp := newTestPlane(t, Options{Seeds: []routing.Route{}})

	cp.AddRoute(routing.Route{})
	cp.AddRoute(routing.Route{Destination: "", NextHop: "x", Metric: -1})

	routes := cp.GetRoutes()
	require.Len(t, routes, 1)
	assert.Equal(t, "x", routes[0].NextHop)
	assert.Equal(t, uint64(2), cp.GetStats().RoutesAdded)
}

func TestDeleteRoute(t *testing.T) {
	cp := newTestPlane(t, Options{})

	assert.True(t, cp.DeleteRoute("10.0.0.0/24"))
	assert.False(t, cp.DeleteRoute("10.0.0.0/24"), "second delete finds nothing")
	assert.False(t, cp.DeleteRoute("192.0.2.0/24"))

	stats := cp.GetStats()
	assert.Equal(t, uint64(1), stats.RoutesDeleted, "only successful deletes count")
	assert.Equal(t, uint64(2), stats.RoutesAdded)
	assert.Equal(t, []routing.Route{routing.DefaultRoutes()[1]}, cp.GetRoutes())
}

func TestGetRoutes_ReturnsCopy(t *testing.T) {
	cp := newTestPlane(t, Options{})

	routes := cp.GetRoutes()
	routes[0].NextHop = "mutated"

	assert.Equal(t, "192.168.1.1", cp.GetRoutes()[0].NextHop)
}

func TestRecordRequest(t *testing.T) {
	cp := newTestPlane(t, Options{})
	for range 3 {
		cp.RecordRequest()
	}
	assert.Equal(t, uint64(3), cp.GetStats().APIRequests)
}

func TestConcurrentCallers(t *testing.T) {
	cp := newTestPlane(t, Options{Seeds: []routing.Route{}})

	const workers = 8
	const perWorker = 200

	var wg sync.WaitGroup
	for w := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range perWorker {
				dest := fmt.Sprintf("10.%d.%d.0/24", w, i)
				cp.AddRoute(routing.Route{Destination: dest, NextHop: "192.168.1.1", Metric: 100})
				cp.RecordRequest()
				_ = cp.GetRoutes()
				if i%2 == 0 {
					assert.True(t, cp.DeleteRoute(dest))
				}
			}
		}()
	}
	wg.Wait()

	stats := cp.GetStats()
	assert.Equal(t, uint64(workers*perWorker), stats.RoutesAdded)
	assert.Equal(t, uint64(workers*perWorker/2), stats.RoutesDeleted)
	assert.Equal(t, uint64(workers*perWorker), stats.APIRequests)
	assert.Len(t, cp.GetRoutes(), workers*perWorker/2)
}

func TestEvents(t *testing.T) {
	hub := events.NewHub()
	cp := newTestPlane(t, Options{Hub: hub})
	ch := hub.Subscribe(16)
	defer hub.Unsubscribe(ch)

	cp.AddRoute(routing.Route{Destination: "10.0.0.0/24", NextHop: "192.168.1.50", Metric: 10})
	cp.DeleteRoute("172.16.0.0/16")
	cp.DeleteRoute("192.0.2.0/24") // no event

	added := <-ch
	assert.Equal(t, events.EventRouteAdded, added.Type)
	assert.Equal(t, metrics.PlaneControl, added.Source)
	addData := added.Data.(events.RouteChangeData)
	assert.Equal(t, uint64(3), addData.Seq, "seeds consume sequence numbers 1 and 2")
	assert.True(t, addData.Replaced)
	assert.Equal(t, "192.168.1.50", addData.Route.NextHop)

	deleted := <-ch
	assert.Equal(t, events.EventRouteDeleted, deleted.Type)
	delData := deleted.Data.(events.RouteChangeData)
	assert.Equal(t, uint64(4), delData.Seq)
	assert.Equal(t, "172.16.0.0/16", delData.Route.Destination)

	select {
	case e := <-ch:
		t.Fatalf("unexpected event %+v", e)
	default:
	}
	assert.Same(t, hub, cp.Hub())
}

func TestMetrics(t *testing.T) {
	reg := metrics.New(prometheus.NewRegistry())
	cp := newTestPlane(t, Options{Metrics: reg})

	cp.AddRoute(routing.Route{Destination: "10.1.0.0/24", NextHop: "192.168.1.1", Metric: 100})
	cp.DeleteRoute("10.0.0.0/24")
	cp.DeleteRoute("10.0.0.0/24")

	assert.Equal(t, 3.0, testutil.ToFloat64(reg.RoutesAdded.WithLabelValues(metrics.PlaneControl)))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.RoutesDeleted.WithLabelValues(metrics.PlaneControl)))
	assert.Equal(t, 2.0, testutil.ToFloat64(reg.Routes.WithLabelValues(metrics.PlaneControl)))
}
