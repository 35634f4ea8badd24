package stats

import "errors"

var ErrUnknownVariance = errors.New("unknown variance convention")
