package config

import "errors"

// ObservabilityConfig controls the New Relic agent. Disabled unless a
// license key is configured.
type ObservabilityConfig struct {
	Enabled     bool   `koanf:"enabled"`
	LicenseKey  string `koanf:"license_key"`
	ServiceName string `koanf:"-"`
	Environment string `koanf:"-"`
}

// DefaultObservabilityConfig returns a disabled observability config.
func DefaultObservabilityConfig() *ObservabilityConfig {
	return &ObservabilityConfig{Enabled: false}
}

// Validate reports whether the config is usable as-is.
func (o *ObservabilityConfig) Validate() error {
	if o.Enabled && o.LicenseKey == "" {
		return errors.New("observability enabled but license_key is empty")
	}
	return nil
}
