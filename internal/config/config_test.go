package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grimm.is/dvr/internal/routing"
)

func TestParseConfig(t *testing.T) {
	hclContent := `
log_level = "debug"

control_plane {
  listen         = "0.0.0.0:8080"
  metrics_listen = "127.0.0.1:9108"
}

data_plane {
  interval         = "500ms"
  packets_per_tick = 10
}

static_route "lab" {
  destination = "10.9.0.0/24"
  next_hop    = "192.168.1.9"
  metric      = 50
}

static_route "backup" {
  destination = "10.10.0.0/16"
  next_hop    = "192.168.1.10"
}
`
	cfg, err := Parse([]byte(hclContent), "dvr.hcl")
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "0.0.0.0:8080", cfg.ControlPlane.Listen)
	assert.Equal(t, "127.0.0.1:9108", cfg.ControlPlane.MetricsListen)
	assert.Equal(t, int64(DefaultMaxBodyBytes), cfg.ControlPlane.MaxBodyBytes)
	assert.Equal(t, DefaultMaxConnections, cfg.ControlPlane.ConnectionLimit())
	assert.Equal(t, 500*time.Millisecond, cfg.DataPlane.IntervalDuration())
	assert.Equal(t, 10, cfg.DataPlane.PacketsPerTick)
	assert.Equal(t, DefaultProgressEvery, cfg.DataPlane.ProgressEvery)

	require.Len(t, cfg.StaticRoutes, 2)
	assert.Equal(t, "lab", cfg.StaticRoutes[0].Name)
	assert.Equal(t, routing.Route{Destination: "10.9.0.0/24", NextHop: "192.168.1.9", Metric: 50}, cfg.StaticRoutes[0].Route())
	assert.Equal(t, routing.DefaultMetric, cfg.StaticRoutes[1].Route().Metric)

	assert.Empty(t, cfg.Validate())
}

func TestParseConfig_MatchesHCLSimple(t *testing.T) {
	src := []byte(`
control_plane {
  listen = "localhost:9000"
}
`)
	var direct Config
	require.NoError(t, hclsimple.Decode("test.hcl", src, nil, &direct))

	cfg, err := Parse(src, "test.hcl")
	require.NoError(t, err)
	assert.Equal(t, direct.ControlPlane.Listen, cfg.ControlPlane.Listen)
}

func TestParseConfig_ConnectionLimit(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want int
	}{
		{"absent", "control_plane {\n}\n", DefaultMaxConnections},
		{"explicit zero disables", "control_plane {\n  max_connections = 0\n}\n", 0},
		{"explicit value", "control_plane {\n  max_connections = 32\n}\n", 32},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := Parse([]byte(tc.src), "dvr.hcl")
			require.NoError(t, err)
			require.NotNil(t, cfg.ControlPlane.MaxConns)
			assert.Equal(t, tc.want, *cfg.ControlPlane.MaxConns)
			assert.Equal(t, tc.want, cfg.ControlPlane.ConnectionLimit())
			assert.Empty(t, cfg.Validate())
		})
	}
}

func TestParseConfig_EnvFunction(t *testing.T) {
	t.Setenv("LAB_GATEWAY", "192.168.7.1")

	cfg, err := Parse([]byte(`
static_route "lab" {
  destination = "10.7.0.0/24"
  next_hop    = env("LAB_GATEWAY")
}
`), "dvr.hcl")
	require.NoError(t, err)
	assert.Equal(t, "192.168.7.1", cfg.StaticRoutes[0].NextHop)
}

func TestParseConfig_JSON(t *testing.T) {
	cfg, err := Parse([]byte(`{"log_level": "warn", "data_plane": {"interval": "1s"}}`), "dvr.json")
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, time.Second, cfg.DataPlane.IntervalDuration())
}

func TestParseConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"syntax", `control_plane {`},
		{"unknown attribute", `listen = "x"`},
		{"missing required", `static_route "a" { destination = "10.0.0.0/8" }`},
		{"wrong type", `data_plane { packets_per_tick = "many" }`},
		{"future schema", `schema_version = "2.0"`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.src), "bad.hcl")
			assert.Error(t, err)
		})
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, CurrentSchemaVersion, cfg.SchemaVersion)
	assert.Equal(t, DefaultListen, cfg.ControlPlane.Listen)
	assert.Empty(t, cfg.ControlPlane.MetricsListen)
	assert.Empty(t, cfg.ControlPlane.AuditDB)
	assert.Equal(t, DefaultInterval, cfg.DataPlane.IntervalDuration())
	assert.Equal(t, DefaultPacketsPerTick, cfg.DataPlane.PacketsPerTick)
	assert.Equal(t, DefaultMaxConnections, cfg.ControlPlane.ConnectionLimit())
	assert.Empty(t, cfg.Validate())

	assert.Equal(t, routing.DefaultRoutes(), cfg.SeedRoutes())
}

func TestSeedRoutes_AppendsStatic(t *testing.T) {
	metric := 7
	cfg := Default()
	cfg.StaticRoutes = []StaticRoute{{Name: "x", Destination: "10.5.0.0/16", NextHop: "gw", Metric: &metric}}

	seeds := cfg.SeedRoutes()
	require.Len(t, seeds, 3)
	assert.Equal(t, routing.Route{Destination: "10.5.0.0/16", NextHop: "gw", Metric: 7}, seeds[2])
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadFile(filepath.Join(dir, "missing.hcl"))
	assert.ErrorIs(t, err, ErrNoConfig)

	path := filepath.Join(dir, "dvr.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`log_json = true`), 0o600))
	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.True(t, cfg.LogJSON)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("DVR_LISTEN", "127.0.0.1:18080")
	t.Setenv("DVR_LOG_LEVEL", "error")
	t.Setenv("DVR_LOG_JSON", "true")
	t.Setenv("DVR_WORKER_INTERVAL", "10ms")
	t.Setenv("DVR_AUDIT_DB", "/tmp/audit.db")

	cfg := Default()
	require.NoError(t, ApplyEnv(cfg))
	assert.Equal(t, "127.0.0.1:18080", cfg.ControlPlane.Listen)
	assert.Equal(t, "error", cfg.LogLevel)
	assert.True(t, cfg.LogJSON)
	assert.Equal(t, 10*time.Millisecond, cfg.DataPlane.IntervalDuration())
	assert.Equal(t, "/tmp/audit.db", cfg.ControlPlane.AuditDB)

	t.Setenv("DVR_LOG_JSON", "sometimes")
	assert.Error(t, ApplyEnv(Default()))
}
