package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "gitrelay"

// Metrics holds all relay metric instruments.
type Metrics struct {
	DeliveriesReceived   metric.Int64Counter
	DeliveriesRejected   metric.Int64Counter
	DeliveriesSuppressed metric.Int64Counter
	SendsSucceeded       metric.Int64Counter
	SendsFailed          metric.Int64Counter
	SendDuration         metric.Float64Histogram
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.DeliveriesReceived, err = meter.Int64Counter("gitrelay.deliveries.received",
		metric.WithDescription("Webhook deliveries accepted for processing"))
	if err != nil {
		return nil, err
	}

	m.DeliveriesRejected, err = meter.Int64Counter("gitrelay.deliveries.rejected",
		metric.WithDescription("Webhook deliveries rejected (auth or parse failure)"))
	if err != nil {
		return nil, err
	}

	m.DeliveriesSuppressed, err = meter.Int64Counter("gitrelay.deliveries.suppressed",
		metric.WithDescription("Deliveries routed to zero destinations"))
	if err != nil {
		return nil, err
	}

	m.SendsSucceeded, err = meter.Int64Counter("gitrelay.sends.succeeded",
		metric.WithDescription("Messages delivered to a chat"))
	if err != nil {
		return nil, err
	}

	m.SendsFailed, err = meter.Int64Counter("gitrelay.sends.failed",
		metric.WithDescription("Messages that exhausted retries or failed permanently"))
	if err != nil {
		return nil, err
	}

	m.SendDuration, err = meter.Float64Histogram("gitrelay.send.duration_seconds",
		metric.WithDescription("End-to-end duration of a single chat delivery including retries"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
