// Package ctlplane implements the control plane: the authoritative route
// table behind the HTTP API.
//
// # Overview
//
// A [ControlPlane] owns one routing.Table and its statistics. Every public
// method takes the plane's single mutex for its full duration, so concurrent
// HTTP handlers never observe a half-applied insert or delete and the
// counters always agree with the table.
//
// Work that is not O(1) stays outside the lock: log lines, event publication
// to the events.Hub (which feeds watch streams and the audit journal).
//
// # Known limitation
//
// The control plane never pushes routes to the data plane. The two tables are
// seeded identically and then diverge.
//
// # Example
//
//	cp := ctlplane.New(ctlplane.Options{Logger: logger, Hub: hub})
//	cp.AddRoute(routing.Route{Destination: "10.1.0.0/24", NextHop: "192.168.1.9", Metric: 100})
//	routes := cp.GetRoutes()
package ctlplane
