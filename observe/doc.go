// Package observe provides repair.Listener implementations that export what
// the repair loop does.
//
// Metrics records Prometheus counters and histograms per attempt and per
// invocation. Tracing opens an OpenTelemetry span per invocation with a child
// span per attempt.
//
//	reg := prometheus.NewRegistry()
//	loop, err := repair.New(s, gen,
//		repair.WithListener(observe.NewMetrics("langfix", reg)),
//		repair.WithListener(observe.NewTracing(otel.Tracer("langfix"))),
//	)
package observe
