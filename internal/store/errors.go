package store

import "errors"

var (
	ErrOpenStore   = errors.New("failed to open run store")
	ErrSaveRun     = errors.New("failed to save run")
	ErrQueryStore  = errors.New("failed to query run store")
	ErrRunNotFound = errors.New("run not found")
)
