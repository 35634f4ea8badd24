package pipeline

import "errors"

var (
	ErrSourceCreationFailed = errors.New("failed to create input source")
	ErrParserCreationFailed = errors.New("failed to create parser")
	ErrStoreOpenFailed      = errors.New("failed to open run store")
	ErrSourceReadFailed     = errors.New("input source failed")
	ErrReportFailed         = errors.New("report stage failed")
	ErrMetricsFailed        = errors.New("metrics stage failed")
	ErrStoreFailed          = errors.New("store stage failed")
)
