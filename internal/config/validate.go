package config

import (
	"fmt"
	"net"
	"strings"
	"time"

	"grimm.is/dvr/internal/logging"
)

// Severity levels for ValidationError.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field    string
	Message  string
	Severity string // "error" (default), "warning"
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// HasErrors returns true if any entry is an error rather than a warning.
func (e ValidationErrors) HasErrors() bool {
	for _, v := range e {
		if v.Severity != SeverityWarning {
			return true
		}
	}
	return false
}

// Warnings returns only the warning entries.
func (e ValidationErrors) Warnings() ValidationErrors {
	var out ValidationErrors
	for _, v := range e {
		if v.Severity == SeverityWarning {
			out = append(out, v)
		}
	}
	return out
}

// Validate validates the entire configuration.
func (c *Config) Validate() ValidationErrors {
	var errs ValidationErrors

	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, ValidationError{Field: "log_level", Message: err.Error()})
	}

	errs = append(errs, c.validateControlPlane()...)
	errs = append(errs, c.validateDataPlane()...)
	errs = append(errs, c.validateStaticRoutes()...)

	return errs
}

func (c *Config) validateControlPlane() ValidationErrors {
	var errs ValidationErrors
	cp := c.ControlPlane
	if cp == nil {
		return nil
	}

	if err := validateListen(cp.Listen); err != nil {
		errs = append(errs, ValidationError{Field: "control_plane.listen", Message: err.Error()})
	}
	if cp.MetricsListen != "" {
		if err := validateListen(cp.MetricsListen); err != nil {
			errs = append(errs, ValidationError{Field: "control_plane.metrics_listen", Message: err.Error()})
		} else if cp.MetricsListen == cp.Listen {
			errs = append(errs, ValidationError{Field: "control_plane.metrics_listen", Message: "must differ from listen"})
		}
	}
	if cp.MaxBodyBytes < 0 {
		errs = append(errs, ValidationError{Field: "control_plane.max_body_bytes", Message: "must be positive"})
	}
	if cp.ConnectionLimit() < 0 {
		errs = append(errs, ValidationError{Field: "control_plane.max_connections", Message: "must not be negative"})
	}
	if cp.AuditRetain < 0 {
		errs = append(errs, ValidationError{Field: "control_plane.audit_retain", Message: "must not be negative"})
	}
	return errs
}

func (c *Config) validateDataPlane() ValidationErrors {
	var errs ValidationErrors
	dp := c.DataPlane
	if dp == nil {
		return nil
	}

	if d, err := time.ParseDuration(dp.Interval); err != nil {
		errs = append(errs, ValidationError{Field: "data_plane.interval", Message: err.Error()})
	} else if d <= 0 {
		errs = append(errs, ValidationError{Field: "data_plane.interval", Message: "must be positive"})
	}
	if dp.PacketsPerTick < 0 {
		errs = append(errs, ValidationError{Field: "data_plane.packets_per_tick", Message: "must be positive"})
	}
	if dp.ProgressEvery < 0 {
		errs = append(errs, ValidationError{Field: "data_plane.progress_every", Message: "must be positive"})
	}
	if dp.MetricsListen != "" {
		if err := validateListen(dp.MetricsListen); err != nil {
			errs = append(errs, ValidationError{Field: "data_plane.metrics_listen", Message: err.Error()})
		}
	}
	return errs
}

func (c *Config) validateStaticRoutes() ValidationErrors {
	var errs ValidationErrors
	names := make(map[string]bool)
	dests := make(map[string]string)

	for _, r := range c.StaticRoutes {
		field := fmt.Sprintf("static_route.%s", r.Name)
		if names[r.Name] {
			errs = append(errs, ValidationError{Field: field, Message: "duplicate static_route name"})
		}
		names[r.Name] = true

		if r.Destination == "" {
			errs = append(errs, ValidationError{Field: field + ".destination", Message: "must not be empty"})
		}
		if r.NextHop == "" {
			errs = append(errs, ValidationError{Field: field + ".next_hop", Message: "must not be empty"})
		}
		if prev, ok := dests[r.Destination]; ok && r.Destination != "" {
			errs = append(errs, ValidationError{
				Field:    field + ".destination",
				Message:  fmt.Sprintf("overrides static_route %q; the later block wins", prev),
				Severity: SeverityWarning,
			})
		}
		dests[r.Destination] = r.Name
	}
	return errs
}

func validateListen(addr string) error {
	if addr == "" {
		return fmt.Errorf("address is empty")
	}
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return err
	}
	return nil
}
