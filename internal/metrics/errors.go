package metrics

import "errors"

var (
	ErrWriteTextfile = errors.New("failed to write metrics textfile")
	ErrPushMetrics   = errors.New("failed to push metrics")
)
