package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"grimm.is/dvr/internal/brand"
)

// ApplyEnv overrides file values from DVR_* environment variables:
//
//	DVR_LOG_LEVEL, DVR_LOG_JSON, DVR_LISTEN, DVR_METRICS_LISTEN, DVR_AUDIT_DB,
//	DVR_DATA_METRICS_LISTEN, DVR_WORKER_INTERVAL
//
// Unset or empty variables leave the config untouched.
func ApplyEnv(cfg *Config) error {
	cfg.applyDefaults()
	var errs []string

	envStr(brand.EnvKey("LOG_LEVEL"), &cfg.LogLevel)
	envBool(brand.EnvKey("LOG_JSON"), &cfg.LogJSON, &errs)
	envStr(brand.EnvKey("LISTEN"), &cfg.ControlPlane.Listen)
	envStr(brand.EnvKey("METRICS_LISTEN"), &cfg.ControlPlane.MetricsListen)
	envStr(brand.EnvKey("AUDIT_DB"), &cfg.ControlPlane.AuditDB)
	envStr(brand.EnvKey("DATA_METRICS_LISTEN"), &cfg.DataPlane.MetricsListen)
	envStr(brand.EnvKey("WORKER_INTERVAL"), &cfg.DataPlane.Interval)

	if len(errs) > 0 {
		return fmt.Errorf("invalid environment: %s", strings.Join(errs, "; "))
	}
	return nil
}

func envStr(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envBool(key string, dst *bool, errs *[]string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("%s: %q is not a boolean", key, v))
		return
	}
	*dst = b
}
