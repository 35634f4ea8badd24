package report

import "errors"

var (
	ErrSerializeReport = errors.New("failed to serialize report")
	ErrWriteReport     = errors.New("failed to write report")
)
