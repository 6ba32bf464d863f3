package ctlplane

import "time"

// Stats is a snapshot of the control plane counters.
type Stats struct {
	StartTime     time.Time `json:"start_time"`
	RoutesAdded   uint64    `json:"routes_added"`
	RoutesDeleted uint64    `json:"routes_deleted"`
	APIRequests   uint64    `json:"api_requests"`
}
