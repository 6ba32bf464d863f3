// Package api implements the control plane's REST API.
//
// # Overview
//
// The server is a thin layer over a single long-lived [ctlplane.ControlPlane]
// shared by every request goroutine. Handlers translate HTTP into plane
// operations and encode the result as JSON.
//
// # Request Flow
//
//	HTTP Request → requestCounter → accessLog → Mux → Handler → ControlPlane
//
// Every request is counted in the plane's api_requests statistic before it
// is dispatched, including requests that end in 400 or 404.
//
// # Endpoints
//
//   - GET /routes - List all routes
//   - POST /routes - Add or replace a route
//   - DELETE /routes?destination=X - Delete a route
//   - GET /stats - Control plane statistics
//   - GET /health - Liveness check
//   - GET /routes/watch - WebSocket stream of route changes
//
// Any other path, or a known path with the wrong method, is a bare 404.
package api
