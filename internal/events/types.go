// Package events provides the pub/sub bus that carries route table changes
// from a plane to its observers (watch streams, the audit journal).
package events

import (
	"time"

	"grimm.is/dvr/internal/routing"
)

// EventType identifies the category of event.
type EventType string

const (
	EventRouteAdded   EventType = "route.added"
	EventRouteDeleted EventType = "route.deleted"
)

// Event is the core message passed through the event bus.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"` // plane that emitted: "ctlplane", "dataplane"
	Data      any       `json:"data"`
}

// RouteChangeData is the payload for EventRouteAdded/EventRouteDeleted.
// Seq is assigned under the plane lock, so it orders changes the same way
// the table saw them even though publication happens after unlock.
type RouteChangeData struct {
	Seq      uint64        `json:"seq"`
	Route    routing.Route `json:"route"`
	Replaced bool          `json:"replaced,omitempty"`
}
