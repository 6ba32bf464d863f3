// Package dataplane simulates a forwarding plane: an independent route table
// plus one background worker that counts simulated packets.
//
// The data plane is seeded with the same defaults as the control plane but
// never receives updates from it.
package dataplane

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"grimm.is/dvr/internal/clock"
	"grimm.is/dvr/internal/logging"
	"grimm.is/dvr/internal/metrics"
	"grimm.is/dvr/internal/routing"
)

// Defaults for the worker loop.
const (
	DefaultInterval       = 2 * time.Second
	DefaultPacketsPerTick = 5
	DefaultProgressEvery  = 5
)

// Options configures a DataPlane. Zero values select the defaults.
type Options struct {
	Logger  *logging.Logger
	Clock   clock.Clock
	Metrics *metrics.Registry

	Interval       time.Duration
	PacketsPerTick int
	ProgressEvery  int

	// Seeds are inserted by Initialize. Nil means routing.DefaultRoutes().
	Seeds []routing.Route
}

// Stats is a snapshot of the data plane counters.
type Stats struct {
	PacketsProcessed uint64 `json:"packets_processed" yaml:"packets_processed"`
	RoutesUpdated    uint64 `json:"routes_updated" yaml:"routes_updated"`
	ActiveRoutes     int    `json:"active_routes" yaml:"active_routes"`
}

// DataPlane owns a route table and the packet worker.
type DataPlane struct {
	// mu guards table. The worker never takes it.
	mu    sync.Mutex
	table *routing.Table

	packets atomic.Uint64
	updated atomic.Uint64
	running atomic.Bool

	// lifecycle serializes Start and Stop; done is closed when the worker returns.
	lifecycle sync.Mutex
	done      chan struct{}

	logger  *logging.Logger
	clock   clock.Clock
	metrics *metrics.Registry

	interval       time.Duration
	packetsPerTick int
	progressEvery  int
	seeds          []routing.Route
}

// New creates a stopped, empty data plane. Call Initialize to seed it.
func New(opts Options) *DataPlane {
	dp := &DataPlane{
		table:          routing.NewTable(),
		logger:         opts.Logger,
		clock:          opts.Clock,
		metrics:        opts.Metrics,
		interval:       opts.Interval,
		packetsPerTick: opts.PacketsPerTick,
		progressEvery:  opts.ProgressEvery,
		seeds:          opts.Seeds,
	}
	if dp.logger == nil {
		dp.logger = logging.Default()
	}
	dp.logger = dp.logger.WithComponent(metrics.PlaneData)
	if dp.clock == nil {
		dp.clock = clock.Default()
	}
	if dp.interval <= 0 {
		dp.interval = DefaultInterval
	}
	if dp.packetsPerTick <= 0 {
		dp.packetsPerTick = DefaultPacketsPerTick
	}
	if dp.progressEvery <= 0 {
		dp.progressEvery = DefaultProgressEvery
	}
	if dp.seeds == nil {
		dp.seeds = routing.DefaultRoutes()
	}
	return dp
}

// Initialize seeds the table. Calling it again overwrites the seeds and
// counts them as updates again. It always returns nil.
func (dp *DataPlane) Initialize() error {
	dp.logger.Info("Initializing data plane")
	for _, r := range dp.seeds {
		dp.AddRoute(r.Destination, r.NextHop, r.Metric)
	}

	dp.mu.Lock()
	n := dp.table.Len()
	dp.mu.Unlock()

	dp.logger.Info("Data plane initialized", "routes", n)
	return nil
}

// AddRoute inserts or replaces the route for destination.
func (dp *DataPlane) AddRoute(destination, nextHop string, metric int) {
	r := routing.Route{Destination: destination, NextHop: nextHop, Metric: metric}

	dp.mu.Lock()
	replaced := dp.table.Insert(r)
	dp.updated.Add(1)
	dp.metrics.RecordRouteAdded(metrics.PlaneData, dp.table.Len())
	dp.mu.Unlock()

	dp.logger.Info("Route added",
		"destination", destination,
		"next_hop", nextHop,
		"metric", metric,
		"replaced", replaced)
}

// DeleteRoute removes the route for destination and reports whether it existed.
func (dp *DataPlane) DeleteRoute(destination string) bool {
	dp.mu.Lock()
	ok := dp.table.Delete(destination)
	if ok {
		dp.updated.Add(1)
		dp.metrics.RecordRouteDeleted(metrics.PlaneData, dp.table.Len())
	}
	dp.mu.Unlock()

	if !ok {
		dp.logger.Warn("Route not found", "destination", destination)
		return false
	}
	dp.logger.Info("Route deleted", "destination", destination)
	return true
}

// GetRoutes returns a copy of the table.
func (dp *DataPlane) GetRoutes() []routing.Route {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	return dp.table.List()
}

// Stats returns the current counters.
func (dp *DataPlane) Stats() Stats {
	dp.mu.Lock()
	active := dp.table.Len()
	dp.mu.Unlock()

	return Stats{
		PacketsProcessed: dp.packets.Load(),
		RoutesUpdated:    dp.updated.Load(),
		ActiveRoutes:     active,
	}
}

// ShowStats writes a human-readable statistics block to w.
func (dp *DataPlane) ShowStats(w io.Writer) error {
	s := dp.Stats()
	_, err := fmt.Fprintf(w,
		"=== Data Plane Statistics ===\nPackets processed: %d\nRoutes updated: %d\nActive routes: %d\n",
		s.PacketsProcessed, s.RoutesUpdated, s.ActiveRoutes)
	return err
}
