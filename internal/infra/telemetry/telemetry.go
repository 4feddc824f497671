package telemetry

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/arklim/social-platform-accounts/internal/infra/config"
)

// Provider represents a telemetry provider handle.
type Provider struct {
	buildInfo prometheus.Gauge
}

// Attach registers process-level metrics and returns a provider handle.
// Request-level metrics live in the HTTP middleware.
func Attach(_ context.Context, cfg *config.AppConfig) (*Provider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	buildInfo := promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "accounts",
		Name:      "build_info",
		Help:      "Constant metric labeled with service name and environment.",
		ConstLabels: prometheus.Labels{
			"service":     cfg.App.Name,
			"environment": cfg.App.Env,
		},
	})
	buildInfo.Set(1)

	return &Provider{
		buildInfo: buildInfo,
	}, nil
}
