// Package routing holds the route record and the route table shared by the
// control plane and the data plane.
//
// A Table is a plain mapping from destination to Route with last-write-wins
// insertion. It does no locking of its own: each plane owns one Table and
// guards it with that plane's lock.
package routing

import (
	"fmt"
	"slices"
	"strings"
)

// DefaultMetric is applied when a route is added without an explicit metric.
const DefaultMetric = 100

// Route is a single forwarding entry. Destination is an opaque key; it is
// neither parsed nor validated as a prefix.
type Route struct {
	Destination string `json:"destination" yaml:"destination"`
	NextHop     string `json:"next_hop" yaml:"next_hop"`
	Metric      int    `json:"metric" yaml:"metric"`
}

func (r Route) String() string {
	return fmt.Sprintf("%s -> %s (metric: %d)", r.Destination, r.NextHop, r.Metric)
}

// DefaultRoutes returns the two routes every plane is seeded with.
func DefaultRoutes() []Route {
	return []Route{
		{Destination: "10.0.0.0/24", NextHop: "192.168.1.1", Metric: 100},
		{Destination: "172.16.0.0/16", NextHop: "192.168.1.2", Metric: 200},
	}
}

// Table maps destination to Route. The zero value is not usable; use NewTable.
type Table struct {
	routes map[string]Route
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{routes: make(map[string]Route)}
}

// Insert stores r, replacing any route with the same destination.
// It reports whether an existing route was replaced.
func (t *Table) Insert(r Route) (replaced bool) {
	_, replaced = t.routes[r.Destination]
	t.routes[r.Destination] = r
	return replaced
}

// Delete removes the route for destination and reports whether one existed.
func (t *Table) Delete(destination string) bool {
	if _, ok := t.routes[destination]; !ok {
		return false
	}
	delete(t.routes, destination)
	return true
}

// List returns a copy of every route, ordered by destination.
func (t *Table) List() []Route {
	out := make([]Route, 0, len(t.routes))
	for _, r := range t.routes {
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b Route) int {
		return strings.Compare(a.Destination, b.Destination)
	})
	return out
}

// Len returns the number of routes.
func (t *Table) Len() int {
	return len(t.routes)
}
