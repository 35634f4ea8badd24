package source

import "errors"

var (
	ErrMissingInputPath   = errors.New("missing profiling file")
	ErrReadInput          = errors.New("failed to read input file")
	ErrUnknownSource      = errors.New("unknown input source")
	ErrInvalidKafkaConfig = errors.New("invalid Kafka configuration provided")
	ErrKafkaFetchFailed   = errors.New("failed to fetch message from Kafka")
)
