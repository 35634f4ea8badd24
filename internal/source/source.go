// Package source loads the raw timer-log stream into memory.
package source

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/sanspareilsmyn/timerlens/internal/config"
)

// Source yields the whole raw stream in one piece.
type Source interface {
	Name() string
	Read(ctx context.Context) (string, error)
}

// New builds the source selected by cfg.Input.Source.
func New(cfg *config.Config, logger *zap.Logger) (Source, error) {
	switch cfg.Input.Source {
	case config.SourceFile:
		return NewFileSource(cfg.Input.Path, logger)
	case config.SourceKafka:
		return NewKafkaSource(cfg.Kafka, logger)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, cfg.Input.Source)
	}
}

// FileSource reads a timer log from disk.
type FileSource struct {
	path   string
	logger *zap.Logger
}

// NewFileSource returns a FileSource for path.
func NewFileSource(path string, logger *zap.Logger) (*FileSource, error) {
	if path == "" {
		return nil, ErrMissingInputPath
	}
	return &FileSource{path: path, logger: logger}, nil
}

// Name identifies the source in logs and run history.
func (f *FileSource) Name() string {
	return "file:" + f.path
}

// Read loads the whole file.
func (f *FileSource) Read(_ context.Context) (string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrReadInput, err)
	}
	f.logger.Debug("Input file loaded", zap.String("path", f.path), zap.Int("bytes", len(data)))
	return string(data), nil
}
