package metrics

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Domain exposes business-level OTLP instruments. All record methods are
// nil-safe so services built by hand in tests can leave it unset.
type Domain struct {
	quoteTransitions  metric.Int64Counter
	snapshotsWritten  metric.Int64Counter
	messagesThrottled metric.Int64Counter
}

// NewDomain configures the domain instruments on the shared meter provider.
func NewDomain(cfg Config, provider metric.MeterProvider) (*Domain, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "devisio"
	}
	meter := provider.Meter(name)

	quoteTransitions, err := meter.Int64Counter("devisio_quote_transitions_total")
	if err != nil {
		return nil, err
	}
	snapshotsWritten, err := meter.Int64Counter("devisio_finance_snapshots_total")
	if err != nil {
		return nil, err
	}
	messagesThrottled, err := meter.Int64Counter("devisio_messages_throttled_total")
	if err != nil {
		return nil, err
	}

	return &Domain{
		quoteTransitions:  quoteTransitions,
		snapshotsWritten:  snapshotsWritten,
		messagesThrottled: messagesThrottled,
	}, nil
}

// RecordQuoteTransition counts quote lifecycle transitions by target status.
func (d *Domain) RecordQuoteTransition(ctx context.Context, status string) {
	if d == nil {
		return
	}
	d.quoteTransitions.Add(ctx, 1, metric.WithAttributes(
		filterAttributes(attribute.String("status", strings.TrimSpace(status)))...,
	))
}

// RecordSnapshotWritten counts persisted finance snapshots by budget source.
func (d *Domain) RecordSnapshotWritten(ctx context.Context, source string) {
	if d == nil {
		return
	}
	d.snapshotsWritten.Add(ctx, 1, metric.WithAttributes(
		filterAttributes(attribute.String("source", strings.TrimSpace(source)))...,
	))
}

// RecordMessageThrottled counts messages refused by the rate limiter.
func (d *Domain) RecordMessageThrottled(ctx context.Context, scope string) {
	if d == nil {
		return
	}
	d.messagesThrottled.Add(ctx, 1, metric.WithAttributes(
		filterAttributes(attribute.String("scope", strings.TrimSpace(scope)))...,
	))
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"status": {},
	"source": {},
	"scope":  {},
}

// filterAttributes strips disallowed labels to keep metrics low-cardinality.
func filterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
