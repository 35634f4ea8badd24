// Package report writes run artifacts as pretty-printed JSON arrays.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/sanspareilsmyn/timerlens/internal/config"
	"github.com/sanspareilsmyn/timerlens/internal/record"
	"github.com/sanspareilsmyn/timerlens/internal/stats"
)

// Artifact suffixes, appended to the configured name prefix.
const (
	suffixFailures = "_logs.json"
	suffixTotal    = "_statistics.json"
	suffixFiltered = "_parsed_statistics.json"
	suffixPerGroup = "_per_chain_statistics.json"
)

// Emitter writes failure logs and statistics collections into one directory.
type Emitter struct {
	dir    string
	prefix string
	logger *zap.Logger
}

// NewEmitter creates an Emitter for the report section of the configuration.
func NewEmitter(cfg config.ReportConfig, logger *zap.Logger) *Emitter {
	return &Emitter{
		dir:    cfg.OutputDir,
		prefix: cfg.NamePrefix,
		logger: logger,
	}
}

// Path returns where the artifact with the given suffix is written.
func (e *Emitter) Path(suffix string) string {
	return filepath.Join(e.dir, e.prefix+suffix)
}

// WriteFailures writes the failure log. An empty log is still written.
func (e *Emitter) WriteFailures(failures []record.Failure) error {
	if failures == nil {
		failures = []record.Failure{}
	}
	return e.write(suffixFailures, failures)
}

// WriteReport writes the unfiltered, filtered and per-group statistics.
func (e *Emitter) WriteReport(r stats.Report) error {
	artifacts := []struct {
		suffix string
		value  interface{}
	}{
		{suffixTotal, nonNil(r.Total)},
		{suffixFiltered, nonNil(r.Filtered)},
		{suffixPerGroup, nonNil(r.PerGroup)},
	}
	for _, a := range artifacts {
		if err := e.write(a.suffix, a.value); err != nil {
			return err
		}
	}
	return nil
}

func (e *Emitter) write(suffix string, v interface{}) error {
	data, err := encode(v)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrSerializeReport, suffix, err)
	}

	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteReport, err)
	}
	path := e.Path(suffix)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteReport, err)
	}

	e.logger.Info("Report written", zap.String("path", path), zap.Int("bytes", len(data)))
	return nil
}

// encode renders v with two-space indentation and a trailing newline,
// leaving HTML characters unescaped.
func encode(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
