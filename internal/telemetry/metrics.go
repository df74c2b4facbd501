package telemetry

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// InitMeterProvider initializes the Prometheus exporter and MeterProvider and
// starts Go runtime metrics collection.
// It returns an http.Handler for the /metrics endpoint and a shutdown function.
func InitMeterProvider(serviceName, serviceVersion string) (http.Handler, func(context.Context) error, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, nil, err
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
		sdkmetric.WithResource(newResource(serviceName, serviceVersion)),
	)

	otel.SetMeterProvider(mp)

	if err := runtime.Start(runtime.WithMinimumReadMemStatsInterval(time.Second)); err != nil {
		return nil, nil, err
	}

	return promhttp.Handler(), mp.Shutdown, nil
}

// Metrics holds the storefront domain instruments. A nil *Metrics records nothing.
type Metrics struct {
	ordersPlaced  metric.Int64Counter
	orderAmount   metric.Float64Histogram
	notifications metric.Int64Counter
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	ordersPlaced, err := meter.Int64Counter("storefront.orders.placed",
		metric.WithDescription("Orders committed by the place-order workflow"),
	)
	if err != nil {
		return nil, err
	}

	orderAmount, err := meter.Float64Histogram("storefront.orders.amount",
		metric.WithDescription("Total amount of placed orders"),
	)
	if err != nil {
		return nil, err
	}

	notifications, err := meter.Int64Counter("storefront.notifications",
		metric.WithDescription("Notification dispatch outcomes"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		ordersPlaced:  ordersPlaced,
		orderAmount:   orderAmount,
		notifications: notifications,
	}, nil
}

func (m *Metrics) OrderPlaced(ctx context.Context, amount float64) {
	if m == nil {
		return
	}
	m.ordersPlaced.Add(ctx, 1)
	m.orderAmount.Record(ctx, amount)
}

func (m *Metrics) Notification(ctx context.Context, event, status string) {
	if m == nil {
		return
	}
	m.notifications.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event", event),
		attribute.String("status", status),
	))
}
