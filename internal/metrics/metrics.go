package metrics

import (
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HandleOperation identifies the compiled-handle cache method being instrumented.
type HandleOperation string

const (
	// HandleOperationGet records a lookup against the compiled-handle cache.
	HandleOperationGet HandleOperation = "get"
	// HandleOperationPut records a store into the compiled-handle cache.
	HandleOperationPut HandleOperation = "put"
)

// HandleLookupOutcome captures the result of a compiled-handle cache lookup.
type HandleLookupOutcome string

const (
	// HandleLookupHit indicates a previously compiled regex or xlat program was reused.
	HandleLookupHit HandleLookupOutcome = "hit"
	// HandleLookupMiss indicates nothing was cached for the source string.
	HandleLookupMiss HandleLookupOutcome = "miss"
)

// HandleStoreOutcome captures the result of a compiled-handle cache store attempt.
type HandleStoreOutcome string

const (
	// HandleStoreStored indicates the compiled handle was admitted into the cache.
	HandleStoreStored HandleStoreOutcome = "stored"
	// HandleStoreRejected indicates ristretto declined to admit the handle.
	HandleStoreRejected HandleStoreOutcome = "rejected"
)

// Recorder publishes Prometheus metrics for the template engine's parse,
// cast, exec, and compiled-handle-cache activity.
type Recorder struct {
	gatherer prometheus.Gatherer
	handler  http.Handler

	parseTotal *prometheus.CounterVec
	castTotal  *prometheus.CounterVec

	execTotal    *prometheus.CounterVec
	execDuration *prometheus.HistogramVec

	cursorMatches *prometheus.HistogramVec

	handleCacheOps     *prometheus.CounterVec
	handleCacheLatency *prometheus.HistogramVec
}

// NewRecorder constructs a Prometheus-backed Recorder. When reg is nil a dedicated
// registry is created so multiple recorders can coexist without conflicting with
// the global default registerer.
func NewRecorder(reg *prometheus.Registry) *Recorder {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	reg.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	parseTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tmplengine",
		Subsystem: "parse",
		Name:      "total",
		Help:      "Templates parsed by kind and outcome.",
	}, []string{"kind", "outcome"})

	castTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tmplengine",
		Subsystem: "cast",
		Name:      "total",
		Help:      "Datum casts performed by source kind, target kind, and outcome.",
	}, []string{"from_kind", "to_kind", "outcome"})

	execTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tmplengine",
		Subsystem: "exec",
		Name:      "total",
		Help:      "KindExec expansions executed, by outcome.",
	}, []string{"outcome"})

	execDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "tmplengine",
		Subsystem: "exec",
		Name:      "duration_seconds",
		Help:      "Latency distribution for KindExec expansions.",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"outcome"})

	cursorMatches := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "tmplengine",
		Subsystem: "cursor",
		Name:      "matches",
		Help:      "Pair count returned by a single cursor walk over a list.",
		Buckets:   []float64{0, 1, 2, 4, 8, 16, 32, 64},
	}, []string{"list"})

	handleCacheOps := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tmplengine",
		Subsystem: "handle_cache",
		Name:      "operations_total",
		Help:      "Compiled regex/xlat handle cache operations.",
	}, []string{"handle_type", "operation", "result"})

	handleCacheLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "tmplengine",
		Subsystem: "handle_cache",
		Name:      "operation_duration_seconds",
		Help:      "Latency distribution for compiled handle cache operations.",
		Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05},
	}, []string{"handle_type", "operation", "result"})

	reg.MustRegister(parseTotal, castTotal, execTotal, execDuration, cursorMatches, handleCacheOps, handleCacheLatency)

	handler := promhttp.HandlerFor(reg, promhttp.HandlerOpts{})

	return &Recorder{
		gatherer:           reg,
		handler:            handler,
		parseTotal:         parseTotal,
		castTotal:          castTotal,
		execTotal:          execTotal,
		execDuration:       execDuration,
		cursorMatches:      cursorMatches,
		handleCacheOps:     handleCacheOps,
		handleCacheLatency: handleCacheLatency,
	}
}

// Handler exposes the Prometheus HTTP handler for the recorder's registry.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "metrics unavailable", http.StatusServiceUnavailable)
		})
	}
	return r.handler
}

// Gatherer returns the underlying Prometheus gatherer for tests and advanced
// integrations.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	if r == nil {
		return prometheus.NewRegistry()
	}
	return r.gatherer
}

// ObserveParse records the outcome of parsing a template string into a Kind.
func (r *Recorder) ObserveParse(kind, outcome string) {
	if r == nil {
		return
	}
	r.parseTotal.WithLabelValues(normalizeLabel(kind), normalizeLabel(outcome)).Inc()
}

// ObserveCast records the outcome of a datum.Cast call.
func (r *Recorder) ObserveCast(fromKind, toKind, outcome string) {
	if r == nil {
		return
	}
	r.castTotal.WithLabelValues(normalizeLabel(fromKind), normalizeLabel(toKind), normalizeLabel(outcome)).Inc()
}

// ObserveExec records the outcome and latency of a KindExec expansion.
func (r *Recorder) ObserveExec(outcome string, duration time.Duration) {
	if r == nil {
		return
	}
	label := normalizeLabel(outcome)
	r.execTotal.WithLabelValues(label).Inc()
	r.execDuration.WithLabelValues(label).Observe(duration.Seconds())
}

// ObserveCursorMatches records how many pairs a single cursor walk returned for a list.
func (r *Recorder) ObserveCursorMatches(list string, count int) {
	if r == nil {
		return
	}
	r.cursorMatches.WithLabelValues(normalizeLabel(list)).Observe(float64(count))
}

// ObserveHandleCacheGet records the result of a compiled-handle cache lookup.
func (r *Recorder) ObserveHandleCacheGet(handleType string, result HandleLookupOutcome, duration time.Duration) {
	if r == nil {
		return
	}
	resultLabel := string(result)
	if resultLabel == "" {
		resultLabel = string(HandleLookupMiss)
	}
	r.observeHandleCache(handleType, HandleOperationGet, resultLabel, duration)
}

// ObserveHandleCachePut records the result of a compiled-handle cache store attempt.
func (r *Recorder) ObserveHandleCachePut(handleType string, result HandleStoreOutcome, duration time.Duration) {
	if r == nil {
		return
	}
	resultLabel := string(result)
	if resultLabel == "" {
		resultLabel = string(HandleStoreRejected)
	}
	r.observeHandleCache(handleType, HandleOperationPut, resultLabel, duration)
}

func (r *Recorder) observeHandleCache(handleType string, operation HandleOperation, result string, duration time.Duration) {
	opLabel := string(operation)
	if opLabel == "" {
		opLabel = string(HandleOperationGet)
	}
	typeLabel := normalizeLabel(handleType)
	resLabel := normalizeLabel(result)
	r.handleCacheOps.WithLabelValues(typeLabel, opLabel, resLabel).Inc()
	r.handleCacheLatency.WithLabelValues(typeLabel, opLabel, resLabel).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "unknown"
	}
	return trimmed
}
