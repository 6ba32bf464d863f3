package config

import (
	"time"

	"grimm.is/dvr/internal/routing"
)

// CurrentSchemaVersion is written by tools and accepted by the loader.
const CurrentSchemaVersion = "1.0"

// Defaults
const (
	DefaultListen         = "localhost:8080"
	DefaultMaxBodyBytes   = 1 << 20
	DefaultAuditRetain    = 10000
	DefaultMaxConnections = 512
	DefaultInterval       = 2 * time.Second
	DefaultPacketsPerTick = 5
	DefaultProgressEvery  = 5
)

// Config is the top-level configuration shared by both processes. Each
// process reads its own block and ignores the other.
type Config struct {
	SchemaVersion string              `hcl:"schema_version,optional" json:"schema_version,omitempty"`
	LogLevel      string              `hcl:"log_level,optional" json:"log_level,omitempty"`
	LogJSON       bool                `hcl:"log_json,optional" json:"log_json"`
	ControlPlane  *ControlPlaneConfig `hcl:"control_plane,block" json:"control_plane"`
	DataPlane     *DataPlaneConfig    `hcl:"data_plane,block" json:"data_plane"`
	StaticRoutes  []StaticRoute       `hcl:"static_route,block" json:"static_routes,omitempty"`
}

// ControlPlaneConfig configures the HTTP route API process.
type ControlPlaneConfig struct {
	Listen        string `hcl:"listen,optional" json:"listen"`
	MetricsListen string `hcl:"metrics_listen,optional" json:"metrics_listen,omitempty"` // empty disables
	AuditDB       string `hcl:"audit_db,optional" json:"audit_db,omitempty"`             // empty disables
	AuditRetain   int    `hcl:"audit_retain,optional" json:"audit_retain,omitempty"`     // rows kept in the journal
	MaxBodyBytes  int64  `hcl:"max_body_bytes,optional" json:"max_body_bytes,omitempty"`
	MaxConns      *int   `hcl:"max_connections,optional" json:"max_connections,omitempty"` // 0 disables the cap
}

// ConnectionLimit returns the API connection cap, or the default when unset.
func (c *ControlPlaneConfig) ConnectionLimit() int {
	if c.MaxConns == nil {
		return DefaultMaxConnections
	}
	return *c.MaxConns
}

// DataPlaneConfig configures the forwarding simulator process.
type DataPlaneConfig struct {
	Interval       string `hcl:"interval,optional" json:"interval"`
	PacketsPerTick int    `hcl:"packets_per_tick,optional" json:"packets_per_tick"`
	ProgressEvery  int    `hcl:"progress_every,optional" json:"progress_every"`
	MetricsListen  string `hcl:"metrics_listen,optional" json:"metrics_listen,omitempty"` // empty disables
}

// StaticRoute is an extra route seeded into both planes after the defaults.
type StaticRoute struct {
	Name        string `hcl:"name,label" json:"name"`
	Destination string `hcl:"destination" json:"destination"`
	NextHop     string `hcl:"next_hop" json:"next_hop"`
	Metric      *int   `hcl:"metric,optional" json:"metric,omitempty"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.SchemaVersion == "" {
		c.SchemaVersion = CurrentSchemaVersion
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.ControlPlane == nil {
		c.ControlPlane = &ControlPlaneConfig{}
	}
	if c.ControlPlane.Listen == "" {
		c.ControlPlane.Listen = DefaultListen
	}
	if c.ControlPlane.MaxBodyBytes == 0 {
		c.ControlPlane.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if c.ControlPlane.MaxConns == nil {
		n := DefaultMaxConnections
		c.ControlPlane.MaxConns = &n
	}
	if c.ControlPlane.AuditRetain == 0 {
		c.ControlPlane.AuditRetain = DefaultAuditRetain
	}
	if c.DataPlane == nil {
		c.DataPlane = &DataPlaneConfig{}
	}
	if c.DataPlane.Interval == "" {
		c.DataPlane.Interval = DefaultInterval.String()
	}
	if c.DataPlane.PacketsPerTick == 0 {
		c.DataPlane.PacketsPerTick = DefaultPacketsPerTick
	}
	if c.DataPlane.ProgressEvery == 0 {
		c.DataPlane.ProgressEvery = DefaultProgressEvery
	}
}

// IntervalDuration returns the parsed worker interval, or DefaultInterval if
// the value does not parse. Validate reports the parse error.
func (d *DataPlaneConfig) IntervalDuration() time.Duration {
	v, err := time.ParseDuration(d.Interval)
	if err != nil || v <= 0 {
		return DefaultInterval
	}
	return v
}

// Route converts the block to a routing.Route, applying the default metric.
func (s StaticRoute) Route() routing.Route {
	metric := routing.DefaultMetric
	if s.Metric != nil {
		metric = *s.Metric
	}
	return routing.Route{Destination: s.Destination, NextHop: s.NextHop, Metric: metric}
}

// SeedRoutes returns the routes a plane starts with: the two defaults
// followed by the configured static routes, in file order.
func (c *Config) SeedRoutes() []routing.Route {
	seeds := routing.DefaultRoutes()
	for _, s := range c.StaticRoutes {
		seeds = append(seeds, s.Route())
	}
	return seeds
}
