package config

import "errors"

var (
	ErrReadingConfigFile       = errors.New("failed to read config file")
	ErrUnmarshallingConfig     = errors.New("failed to unmarshal config")
	ErrConfigFileMissing       = errors.New("config file not found")
	ErrUnknownInputSource      = errors.New("input source must be \"file\" or \"kafka\"")
	ErrEmptyKafkaBrokers       = errors.New("kafka brokers list cannot be empty")
	ErrEmptyKafkaTopic         = errors.New("kafka topic cannot be empty")
	ErrEmptyKafkaGroupID       = errors.New("kafka groupID cannot be empty")
	ErrInvalidKafkaIdleTimeout = errors.New("kafka idleTimeout must be positive")
	ErrUnknownSplitMode        = errors.New("parser splitMode must be \"scan\" or \"delimiter\"")
	ErrEmptyDelimiter          = errors.New("parser delimiter cannot be empty in delimiter mode")
	ErrNegativeSkipLeading     = errors.New("parser skipLeading cannot be negative")
	ErrEmptyGroupKeyFields     = errors.New("parser groupKeyFields cannot be empty")
	ErrInvalidOutlierThreshold = errors.New("stats outlierThreshold must be positive")
	ErrUnknownVariance         = errors.New("stats variance must be \"sample\" or \"population\"")
	ErrEmptyNamePrefix         = errors.New("report namePrefix cannot be empty")
	ErrEmptyThresholdName      = errors.New("threshold entries must name a timer")
	ErrEmptyStorePath          = errors.New("store path cannot be empty when the store is enabled")
)
