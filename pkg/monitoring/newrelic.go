package monitoring

import (
	"fmt"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
)

// Config holds New Relic configuration
type Config struct {
	LicenseKey string
	AppName    string
	Enabled    bool
}

// NewRelicApp wraps the New Relic application
type NewRelicApp struct {
	*newrelic.Application
	enabled bool
}

// New creates a new New Relic application. With monitoring disabled or no
// license key it returns an inert wrapper so callers never nil-check.
func New(cfg Config) (*NewRelicApp, error) {
	if !cfg.Enabled || cfg.LicenseKey == "" {
		return &NewRelicApp{nil, false}, nil
	}

	app, err := newrelic.NewApplication(
		newrelic.ConfigAppName(cfg.AppName),
		newrelic.ConfigLicense(cfg.LicenseKey),
		newrelic.ConfigAppLogForwardingEnabled(true),
		newrelic.ConfigDistributedTracerEnabled(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create New Relic application: %w", err)
	}

	return &NewRelicApp{app, true}, nil
}

// IsEnabled reports whether events are actually being recorded.
func (nr *NewRelicApp) IsEnabled() bool {
	return nr.enabled && nr.Application != nil
}

// RecordCustomEvent records a custom event
func (nr *NewRelicApp) RecordCustomEvent(eventType string, params map[string]interface{}) {
	if !nr.IsEnabled() {
		return
	}
	nr.Application.RecordCustomEvent(eventType, params)
}

// RecordCustomMetric records a custom metric
func (nr *NewRelicApp) RecordCustomMetric(name string, value float64) {
	if !nr.IsEnabled() {
		return
	}
	nr.Application.RecordCustomMetric(name, value)
}

// Shutdown gracefully shuts down the New Relic application
func (nr *NewRelicApp) Shutdown(timeout time.Duration) {
	if !nr.IsEnabled() {
		return
	}
	nr.Application.Shutdown(timeout)
}

// Domain event helpers

// RecordSearchRanked records a completed search with its result size.
func (nr *NewRelicApp) RecordSearchRanked(origin, destination string, results int, latencyMs float64) {
	nr.RecordCustomEvent("SearchRanked", map[string]interface{}{
		"origin":      origin,
		"destination": destination,
		"results":     results,
		"latency_ms":  latencyMs,
	})
}

// RecordBookingCreated records a successful booking creation.
func (nr *NewRelicApp) RecordBookingCreated(bookingID string, seats int, amount float64) {
	nr.RecordCustomEvent("BookingCreated", map[string]interface{}{
		"booking_id": bookingID,
		"seats":      seats,
		"amount":     amount,
	})
}

// RecordTokenIssued records a verification token mint.
func (nr *NewRelicApp) RecordTokenIssued(bookingID string) {
	nr.RecordCustomMetric("custom/token/issued", 1)
	nr.RecordCustomEvent("TokenIssued", map[string]interface{}{
		"booking_id": bookingID,
	})
}

// RecordTokenRedeemed records a redemption outcome, success or refusal.
func (nr *NewRelicApp) RecordTokenRedeemed(bookingID string, outcome string) {
	nr.RecordCustomEvent("TokenRedeemed", map[string]interface{}{
		"booking_id": bookingID,
		"outcome":    outcome,
	})
}
