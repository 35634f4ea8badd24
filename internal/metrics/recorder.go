// Package metrics exposes run statistics as Prometheus metrics.
//
// A batch run has no scrape endpoint, so the registry is either written to a
// node-exporter textfile or pushed to a Pushgateway once the run is done.
package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
	"go.uber.org/zap"

	"github.com/sanspareilsmyn/timerlens/internal/config"
	"github.com/sanspareilsmyn/timerlens/internal/stats"
)

const namespace = "timerlens"

// Recorder owns a private registry so runs in the same process never collide.
type Recorder struct {
	cfg      config.MetricsConfig
	registry *prometheus.Registry
	logger   *zap.Logger

	records       prometheus.Counter
	failures      prometheus.Counter
	timerCount    *prometheus.GaugeVec
	timerMean     *prometheus.GaugeVec
	timerQ90      *prometheus.GaugeVec
	timerMinutes  *prometheus.GaugeVec
	filteredCount *prometheus.GaugeVec
	violations    *prometheus.CounterVec
}

// NewRecorder registers all collectors on a fresh registry.
func NewRecorder(cfg config.MetricsConfig, logger *zap.Logger) *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		cfg:      cfg,
		registry: reg,
		logger:   logger,
		records: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_total",
			Help:      "Timer records parsed successfully.",
		}),
		failures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "failures_total",
			Help:      "Candidates that could not be parsed into a timer record.",
		}),
		timerCount: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "timer_count",
			Help:      "Number of observations for a timer name.",
		}, []string{"name"}),
		timerMean: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "timer_mean_ms",
			Help:      "Mean elapsed milliseconds for a timer name.",
		}, []string{"name"}),
		timerQ90: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "timer_q90_ms",
			Help:      "90th percentile elapsed milliseconds for a timer name.",
		}, []string{"name"}),
		timerMinutes: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "timer_total_minutes",
			Help:      "Total elapsed minutes for a timer name.",
		}, []string{"name"}),
		filteredCount: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "timer_filtered_count",
			Help:      "Observations left for a timer name after outlier filtering.",
		}, []string{"name"}),
		violations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "threshold_violations_total",
			Help:      "Threshold violations per timer name and check.",
		}, []string{"name", "check_type"}),
	}
}

// Registry returns the registry backing this recorder.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveExtraction records the outcome of the parsing stage.
func (r *Recorder) ObserveExtraction(records, failures int) {
	r.records.Add(float64(records))
	r.failures.Add(float64(failures))
}

// ObserveReport sets the per-timer gauges from a finished report.
func (r *Recorder) ObserveReport(report stats.Report) {
	for _, s := range report.Total {
		r.timerCount.WithLabelValues(s.Name).Set(float64(s.Count))
		r.timerMean.WithLabelValues(s.Name).Set(s.Mean)
		r.timerQ90.WithLabelValues(s.Name).Set(float64(s.Q90))
		r.timerMinutes.WithLabelValues(s.Name).Set(s.Total)
	}
	for _, s := range report.Filtered {
		r.filteredCount.WithLabelValues(s.Name).Set(float64(s.Count))
	}
}

// ObserveViolation counts one threshold violation.
func (r *Recorder) ObserveViolation(name, checkType string) {
	r.violations.WithLabelValues(name, checkType).Inc()
}

// Publish writes the textfile and pushes to the Pushgateway, whichever are
// configured. It is a no-op when metrics are disabled.
func (r *Recorder) Publish(ctx context.Context, runID string) error {
	if !r.cfg.Enabled {
		return nil
	}

	if r.cfg.Textfile != "" {
		if err := prometheus.WriteToTextfile(r.cfg.Textfile, r.registry); err != nil {
			return fmt.Errorf("%w: %w", ErrWriteTextfile, err)
		}
		r.logger.Info("Metrics textfile written", zap.String("path", r.cfg.Textfile))
	}

	if r.cfg.PushgatewayURL != "" {
		err := push.New(r.cfg.PushgatewayURL, r.cfg.Job).
			Gatherer(r.registry).
			Grouping("run_id", runID).
			PushContext(ctx)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrPushMetrics, err)
		}
		r.logger.Info("Metrics pushed",
			zap.String("url", r.cfg.PushgatewayURL),
			zap.String("job", r.cfg.Job),
			zap.String("run_id", runID),
		)
	}
	return nil
}
