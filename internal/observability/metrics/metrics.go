package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
	ExportInterval   time.Duration
}

// Metrics exposes pricing-level instruments.
type Metrics struct {
	quotes           metric.Int64Counter
	fallbacks        metric.Int64Counter
	storeFailures    metric.Int64Counter
	demandFailures   metric.Int64Counter
	forecasts        metric.Int64Counter
	ruleWrites       metric.Int64Counter
	rateLimitDenied  metric.Int64Counter
	composeDurations metric.Float64Histogram
}

// NewProvider registers the global meter provider. Disabled metrics get a
// noop provider so instruments can be recorded unconditionally.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}
	interval := cfg.ExportInterval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval))),
		sdkmetric.WithResource(resource.NewWithAttributes("",
			attribute.String("service.name", serviceName(cfg)),
			attribute.String("deployment.environment", cfg.Environment),
		)),
	)
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				// Flush the last partial interval of quote counters.
				return provider.Shutdown(ctx)
			},
		})
	}
	log.Info("metrics exporter started",
		zap.String("endpoint", cfg.ExporterEndpoint),
		zap.String("protocol", cfg.ExporterProtocol),
		zap.Duration("interval", interval),
	)
	return provider, nil
}

func serviceName(cfg Config) string {
	if name := strings.TrimSpace(cfg.ServiceName); name != "" {
		return name
	}
	return "ticketprice"
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	meter := provider.Meter(serviceName(cfg))

	var (
		m   Metrics
		err error
	)
	if m.quotes, err = meter.Int64Counter("ticketprice_quotes_total"); err != nil {
		return nil, err
	}
	if m.fallbacks, err = meter.Int64Counter("ticketprice_computation_fallbacks_total"); err != nil {
		return nil, err
	}
	if m.storeFailures, err = meter.Int64Counter("ticketprice_rule_store_failures_total"); err != nil {
		return nil, err
	}
	if m.demandFailures, err = meter.Int64Counter("ticketprice_demand_signal_failures_total"); err != nil {
		return nil, err
	}
	if m.forecasts, err = meter.Int64Counter("ticketprice_forecasts_total"); err != nil {
		return nil, err
	}
	if m.ruleWrites, err = meter.Int64Counter("ticketprice_rule_writes_total"); err != nil {
		return nil, err
	}
	if m.rateLimitDenied, err = meter.Int64Counter("ticketprice_rate_limit_denied_total"); err != nil {
		return nil, err
	}
	if m.composeDurations, err = meter.Float64Histogram("ticketprice_compose_duration_seconds"); err != nil {
		return nil, err
	}
	return &m, nil
}

// RecordQuote counts a served quote; outcome is "priced" or "degraded".
func (m *Metrics) RecordQuote(ctx context.Context, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("outcome", outcome))
	m.quotes.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.composeDurations.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attrs...))
}

func (m *Metrics) RecordComputationFallback(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	m.fallbacks.Add(ctx, 1, metric.WithAttributes(FilterAttributes(attribute.String("reason", reason))...))
}

func (m *Metrics) RecordStoreUnavailable(ctx context.Context) {
	if m == nil {
		return
	}
	m.storeFailures.Add(ctx, 1)
}

func (m *Metrics) RecordDemandSignalFailure(ctx context.Context, source string) {
	if m == nil {
		return
	}
	m.demandFailures.Add(ctx, 1, metric.WithAttributes(FilterAttributes(attribute.String("source", source))...))
}

func (m *Metrics) RecordForecast(ctx context.Context, hasChange bool) {
	if m == nil {
		return
	}
	outcome := "none"
	if hasChange {
		outcome = "change"
	}
	m.forecasts.Add(ctx, 1, metric.WithAttributes(FilterAttributes(attribute.String("outcome", outcome))...))
}

func (m *Metrics) RecordRuleWrite(ctx context.Context, operation, result string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("operation", operation),
		attribute.String("result", result),
	)
	m.ruleWrites.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *Metrics) RecordRateLimitDenied(ctx context.Context, endpoint string) {
	if m == nil {
		return
	}
	m.rateLimitDenied.Add(ctx, 1, metric.WithAttributes(FilterAttributes(attribute.String("endpoint", endpoint))...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(protocol)) {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"endpoint":    {},
	"status_code": {},
	"outcome":     {},
	"reason":      {},
	"rule_type":   {},
	"operation":   {},
	"result":      {},
	"source":      {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
