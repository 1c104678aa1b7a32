package observability

import (
	"fmt"

	"github.com/newrelic/go-agent/v3/newrelic"

	"github.com/mukhulaazam/large-req-handling/internal/config"
)

// NewApplication bootstraps the New Relic agent. Returns nil when
// observability is disabled; callers treat a nil application as "no
// instrumentation".
func NewApplication(cfg *config.ObservabilityConfig) (*newrelic.Application, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, nil
	}
	app, err := newrelic.NewApplication(
		newrelic.ConfigAppName(cfg.ServiceName),
		newrelic.ConfigLicense(cfg.LicenseKey),
		func(c *newrelic.Config) {
			c.Labels = map[string]string{"environment": cfg.Environment}
		},
	)
	if err != nil {
		return nil, fmt.Errorf("new relic application: %w", err)
	}
	return app, nil
}
