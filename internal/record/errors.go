package record

import "errors"

var (
	ErrInvalidJSON    = errors.New("invalid JSON")
	ErrParseToObject  = errors.New("failed to parse value to object")
	ErrParseToU64     = errors.New("failed to parse value to u64")
	ErrEmptyName      = errors.New("timer name is empty")
	ErrNoGroupKeyList = errors.New("at least one group key field is required")
)
