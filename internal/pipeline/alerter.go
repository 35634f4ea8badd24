package pipeline

import (
	"go.uber.org/zap"

	"github.com/sanspareilsmyn/timerlens/internal/config"
	"github.com/sanspareilsmyn/timerlens/internal/stats"
)

// Check types reported with a violation.
const (
	checkMean = "mean"
	checkQ90  = "q90"
)

// violationRecorder is satisfied by metrics.Recorder.
type violationRecorder interface {
	ObserveViolation(name, checkType string)
}

// Violation is one timer statistic above its configured ceiling.
type Violation struct {
	Name      string
	CheckType string
	Actual    float64
	Threshold float64
}

// Alerter checks total statistics against configured per-timer thresholds.
type Alerter struct {
	thresholds map[string]config.TimerThresholds
	recorder   violationRecorder
	logger     *zap.Logger
}

// NewAlerter creates a new Alerter instance. recorder may be nil.
func NewAlerter(thresholds []config.TimerThresholds, recorder violationRecorder, logger *zap.Logger) *Alerter {
	thresholdMap := make(map[string]config.TimerThresholds, len(thresholds))
	for _, t := range thresholds {
		thresholdMap[t.Name] = t
	}

	logger.Debug("Alerter initialized", zap.Int("timer_count", len(thresholdMap)))

	return &Alerter{
		thresholds: thresholdMap,
		recorder:   recorder,
		logger:     logger,
	}
}

// Check returns every violation found in rows, logging each one.
func (a *Alerter) Check(rows []stats.TotalStatistics) []Violation {
	var violations []Violation
	for _, row := range rows {
		t, ok := a.thresholds[row.Name]
		if !ok {
			continue
		}
		if v, hit := a.checkMax(row.Name, checkMean, row.Mean, t.MeanMax); hit {
			violations = append(violations, v)
		}
		if v, hit := a.checkMax(row.Name, checkQ90, float64(row.Q90), t.Q90Max); hit {
			violations = append(violations, v)
		}
	}
	return violations
}

func (a *Alerter) checkMax(name, checkType string, actual float64, threshold *float64) (Violation, bool) {
	if threshold == nil || actual <= *threshold {
		return Violation{}, false
	}

	a.logger.Warn("Timer threshold violation",
		zap.String("timer", name),
		zap.String("check_type", checkType),
		zap.Float64("actual", actual),
		zap.Float64("threshold", *threshold),
		zap.String("comparison", ">"),
	)
	if a.recorder != nil {
		a.recorder.ObserveViolation(name, checkType)
	}
	return Violation{Name: name, CheckType: checkType, Actual: actual, Threshold: *threshold}, true
}
