package gridgo

type options struct {
	initialCapacity  int
	logger           *Logger
	metricsCollector MetricsCollector
}

// Option configures a Grid at construction time.
//
// The tuning knobs that change addressing behavior (cell size, z-order
// bit width) are deliberately positional arguments to New, not options:
// there is no workload-independent default for either.
type Option func(*options)

// WithInitialCapacity pre-sizes the element and cell-node arenas for n
// elements. Pure capacity hint; no observable behavior change.
func WithInitialCapacity(n int) Option {
	return func(o *options) {
		o.initialCapacity = n
	}
}

// WithLogger sets the logger used for lifecycle events. Defaults to
// NoopLogger.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetricsCollector configures a metrics collector for monitoring
// operations. Defaults to NoopMetricsCollector.
//
// Example with BasicMetricsCollector:
//
//	metrics := &gridgo.BasicMetricsCollector{}
//	grid, _ := gridgo.New[Entity](32, 16, gridgo.WithMetricsCollector(metrics))
//	// ... use grid ...
//	stats := metrics.GetStats()
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc != nil {
			o.metricsCollector = mc
		}
	}
}
