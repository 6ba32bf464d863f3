// Package config loads the dvr configuration file.
//
// The file is HCL (or the HCL JSON syntax when the name ends in .json). Every
// setting has a built-in default, so a missing file is not fatal: callers
// check for ErrNoConfig and fall back to Default().
//
//	log_level = "info"
//
//	control_plane {
//	  listen         = "localhost:8080"
//	  metrics_listen = "localhost:9108"
//	  audit_db       = "/var/lib/dvr/audit.db"
//	}
//
//	data_plane {
//	  interval         = "2s"
//	  packets_per_tick = 5
//	}
//
//	static_route "lab" {
//	  destination = "10.9.0.0/24"
//	  next_hop    = env("LAB_GATEWAY")
//	  metric      = 50
//	}
//
// Environment variables with the DVR_ prefix override file values; see ApplyEnv.
package config
