package callbackdata

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const meterName = "gitlab.com/yelinaung/callback-bot/internal/callbackdata"

type cacheMetrics struct {
	stored    metric.Int64Counter
	lookups   metric.Int64Counter
	evictions metric.Int64Counter
}

func newCacheMetrics(meter metric.Meter) *cacheMetrics {
	if meter == nil {
		meter = otel.Meter(meterName)
	}
	return &cacheMetrics{
		stored: counter(meter, "callbackdata.keyboards.stored",
			"Keyboards whose payloads were replaced by tokens"),
		lookups: counter(meter, "callbackdata.lookups",
			"Token resolutions by result"),
		evictions: counter(meter, "callbackdata.evictions",
			"Entries evicted by the size bound"),
	}
}

func counter(meter metric.Meter, name, description string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(description))
	if err != nil {
		return noop.Int64Counter{}
	}
	return c
}

func (m *cacheMetrics) keyboardStored() {
	m.stored.Add(context.Background(), 1)
}

func (m *cacheMetrics) lookup(result string) {
	m.lookups.Add(context.Background(), 1, metric.WithAttributes(attribute.String("result", result)))
}

func (m *cacheMetrics) evicted(store string) {
	m.evictions.Add(context.Background(), 1, metric.WithAttributes(attribute.String("store", store)))
}
