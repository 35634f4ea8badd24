// Package pipeline runs the read, extract, aggregate and report stages of a
// timerlens run.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sanspareilsmyn/timerlens/internal/aggregate"
	"github.com/sanspareilsmyn/timerlens/internal/config"
	"github.com/sanspareilsmyn/timerlens/internal/metrics"
	"github.com/sanspareilsmyn/timerlens/internal/record"
	"github.com/sanspareilsmyn/timerlens/internal/report"
	"github.com/sanspareilsmyn/timerlens/internal/source"
	"github.com/sanspareilsmyn/timerlens/internal/stats"
	"github.com/sanspareilsmyn/timerlens/internal/store"
)

const failureSnippetLength = 120

// Pipeline wires the components of a single batch run.
type Pipeline struct {
	cfg      *config.Config
	source   source.Source
	parser   *record.Parser
	engine   *stats.Engine
	emitter  *report.Emitter
	recorder *metrics.Recorder
	alerter  *Alerter
	store    *store.Store // nil when run history is disabled
	logger   *zap.Logger
}

// New creates and wires up a new pipeline.
func New(cfg *config.Config, logger *zap.Logger) (*Pipeline, error) {
	initLogger := logger.Named("pipeline.init")
	initLogger.Debug("Creating pipeline components...")

	src, err := source.New(cfg, logger.Named("source"))
	if err != nil {
		initLogger.Error("Failed to create source", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrSourceCreationFailed, err)
	}
	initLogger.Debug("Source created", zap.String("source", src.Name()))

	parser, err := record.NewParser(cfg.Parser.GroupKeyFields)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParserCreationFailed, err)
	}

	variance, err := stats.VarianceByName(cfg.Stats.Variance)
	if err != nil {
		return nil, err
	}
	engine := stats.NewEngine(cfg.Stats.OutlierThreshold, variance, logger.Named("stats"))

	recorder := metrics.NewRecorder(cfg.Metrics, logger.Named("metrics"))

	p := &Pipeline{
		cfg:      cfg,
		source:   src,
		parser:   parser,
		engine:   engine,
		emitter:  report.NewEmitter(cfg.Report, logger.Named("report")),
		recorder: recorder,
		alerter:  NewAlerter(cfg.Thresholds, recorder, logger.Named("alerter")),
		logger:   logger.Named("pipeline"),
	}

	if cfg.Store.Enabled {
		st, err := store.Open(cfg.Store.Path)
		if err != nil {
			initLogger.Error("Failed to open run store", zap.String("path", cfg.Store.Path), zap.Error(err))
			return nil, fmt.Errorf("%w: %w", ErrStoreOpenFailed, err)
		}
		p.store = st
		initLogger.Debug("Run store opened", zap.String("path", cfg.Store.Path))
	}

	initLogger.Info("Pipeline instance created successfully")
	return p, nil
}

// Run executes one pass over the input and writes every artifact. The context
// is checked between stages; a stage in progress is not interrupted.
func (p *Pipeline) Run(ctx context.Context) error {
	startedAt := time.Now()
	runID := uuid.NewString()
	logger := p.logger.With(zap.String("run_id", runID))
	logger.Info("Pipeline run started", zap.String("source", p.source.Name()))

	text, err := p.source.Read(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSourceReadFailed, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	records, failures := record.Extract(p.newSplitter(text), p.parser)
	p.logFailures(logger, failures)
	p.recorder.ObserveExtraction(len(records), len(failures))

	if err := p.emitter.WriteFailures(failures); err != nil {
		return fmt.Errorf("%w: %w", ErrReportFailed, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	agg := aggregate.New()
	agg.AddAll(records)
	rep := p.engine.Build(agg.Buckets())

	if err := p.emitter.WriteReport(rep); err != nil {
		return fmt.Errorf("%w: %w", ErrReportFailed, err)
	}

	violations := p.alerter.Check(rep.Total)
	p.recorder.ObserveReport(rep)

	// Metrics and run history are independent sinks.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := p.recorder.Publish(gctx, runID); err != nil {
			return fmt.Errorf("%w: %w", ErrMetricsFailed, err)
		}
		return nil
	})
	if p.store != nil {
		run := store.Run{
			ID:         runID,
			Source:     p.source.Name(),
			StartedAt:  startedAt,
			FinishedAt: time.Now(),
			Records:    len(records),
			Failures:   len(failures),
		}
		g.Go(func() error {
			if err := p.store.SaveRun(gctx, run, rep); err != nil {
				return fmt.Errorf("%w: %w", ErrStoreFailed, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("Pipeline run finished",
		zap.Int("records", agg.Records()),
		zap.Int("failures", len(failures)),
		zap.Int("timers", len(rep.Total)),
		zap.Int("groups", len(rep.PerGroup)),
		zap.Int("violations", len(violations)),
		zap.Duration("elapsed", time.Since(startedAt)),
	)
	return nil
}

func (p *Pipeline) newSplitter(text string) record.Splitter {
	pc := p.cfg.Parser
	if pc.SplitMode == config.SplitModeDelimiter {
		return record.NewDelimitedSplitter(text, pc.Delimiter, pc.SkipLeading)
	}
	return record.NewScanSplitter(text, pc.SkipLeading)
}

func (p *Pipeline) logFailures(logger *zap.Logger, failures []record.Failure) {
	if len(failures) == 0 {
		return
	}
	for _, f := range failures {
		logger.Debug("Skipping unparsable entry",
			zap.Int("line", f.Line),
			zap.String("entry", record.Snippet(f.Entry, failureSnippetLength)),
			zap.String("cause", f.Cause),
		)
	}
	logger.Warn("Some entries could not be parsed", zap.Int("failures", len(failures)))
}

// Close releases the run store, if one is open.
func (p *Pipeline) Close() error {
	if p.store == nil {
		return nil
	}
	return p.store.Close()
}
