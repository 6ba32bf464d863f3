package ctlplane

import (
	"sync"

	"grimm.is/dvr/internal/clock"
	"grimm.is/dvr/internal/events"
	"grimm.is/dvr/internal/logging"
	"grimm.is/dvr/internal/metrics"
	"grimm.is/dvr/internal/routing"
)

// Options holds the dependencies of a ControlPlane. All fields are optional.
type Options struct {
	Logger  *logging.Logger
	Clock   clock.Clock
	Metrics *metrics.Registry
	Hub     *events.Hub

	// Seeds are inserted at construction. Nil means routing.DefaultRoutes().
	Seeds []routing.Route
}

// ControlPlane owns the route table served by the API.
type ControlPlane struct {
	mu    sync.Mutex
	table *routing.Table
	stats Stats
	seq   uint64

	logger  *logging.Logger
	metrics *metrics.Registry
	hub     *events.Hub
}

// New creates a control plane and seeds it. Seeding goes through AddRoute,
// so a fresh plane reports routes_added equal to the number of seeds.
func New(opts Options) *ControlPlane {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Default()
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.Default()
	}

	cp := &ControlPlane{
		table:   routing.NewTable(),
		stats:   Stats{StartTime: clk.Now()},
		logger:  logger.WithComponent(metrics.PlaneControl),
		metrics: opts.Metrics,
		hub:     opts.Hub,
	}

	seeds := opts.Seeds
	if seeds == nil {
		seeds = routing.DefaultRoutes()
	}
	for _, r := range seeds {
		cp.AddRoute(r)
	}
	return cp
}

// AddRoute inserts or replaces the route for r.Destination. It never fails.
func (cp *ControlPlane) AddRoute(r routing.Route) {
	cp.mu.Lock()
	replaced := cp.table.Insert(r)
	cp.stats.RoutesAdded++
	cp.seq++
	seq := cp.seq
	cp.metrics.RecordRouteAdded(metrics.PlaneControl, cp.table.Len())
	cp.mu.Unlock()

	cp.logger.Info("Route added",
		"destination", r.Destination,
		"next_hop", r.NextHop,
		"metric", r.Metric,
		"replaced", replaced)
	cp.publish(events.EventRouteAdded, events.RouteChangeData{Seq: seq, Route: r, Replaced: replaced})
}

// DeleteRoute removes the route for destination and reports whether it existed.
// routes_deleted only counts deletes that removed something.
func (cp *ControlPlane) DeleteRoute(destination string) bool {
	cp.mu.Lock()
	if !cp.table.Delete(destination) {
		cp.mu.Unlock()
		return false
	}
	cp.stats.RoutesDeleted++
	cp.seq++
	seq := cp.seq
	cp.metrics.RecordRouteDeleted(metrics.PlaneControl, cp.table.Len())
	cp.mu.Unlock()

	cp.logger.Info("Route deleted", "destination", destination)
	cp.publish(events.EventRouteDeleted, events.RouteChangeData{
		Seq:   seq,
		Route: routing.Route{Destination: destination},
	})
	return true
}

// GetRoutes returns a copy of the table.
func (cp *ControlPlane) GetRoutes() []routing.Route {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	return cp.table.List()
}

// GetStats returns a copy of the counters.
func (cp *ControlPlane) GetStats() Stats {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	return cp.stats
}

// RecordRequest counts one API request. The HTTP layer calls it before
// dispatch, so malformed and unknown requests are counted too.
func (cp *ControlPlane) RecordRequest() {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	cp.stats.APIRequests++
}

// Hub returns the event hub route changes are published to, or nil.
func (cp *ControlPlane) Hub() *events.Hub {
	return cp.hub
}

func (cp *ControlPlane) publish(t events.EventType, data events.RouteChangeData) {
	if cp.hub == nil {
		return
	}
	cp.hub.Publish(events.Event{Type: t, Source: metrics.PlaneControl, Data: data})
}
