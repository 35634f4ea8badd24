package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	defaultInputSource       = SourceFile
	defaultKafkaGroupID      = "timerlens-default-group"
	defaultKafkaMaxMessages  = 0
	defaultKafkaIdleTimeout  = 10 * time.Second
	defaultSplitMode         = SplitModeScan
	defaultSkipLeading       = 1
	defaultDelimiter         = "}\n{"
	defaultOutlierThreshold  = 3.0
	defaultVariance          = VarianceSample
	defaultOutputDir         = "outputs"
	defaultNamePrefix        = "profiling"
	defaultMetricsEnabled    = false
	defaultMetricsJob        = "timerlens"
	defaultStoreEnabled      = false
	defaultStorePath         = "outputs/timerlens.db"
	defaultLogLevel          = "info"
	defaultLogFormat         = "console"
	defaultLogFileEnabled    = false
	defaultLogDirectory      = "log"
	defaultLogFilename       = "timerlens.log"
	defaultLogMaxSizeMB      = 100
	defaultLogMaxBackups     = 3
	defaultLogMaxAgeDays     = 7
	defaultLogCompress       = false
	legacyNamePrefixVariable = "NAME_PREFIX"

	// Environment variable prefix
	envPrefix = "TIMERLENS"
)

// Input sources.
const (
	SourceFile  = "file"
	SourceKafka = "kafka"
)

// Split modes.
const (
	SplitModeScan      = "scan"
	SplitModeDelimiter = "delimiter"
)

// Variance conventions.
const (
	VarianceSample     = "sample"
	VariancePopulation = "population"
)

var defaultGroupKeyFields = []string{"src_chain", "chain"}

type Config struct {
	Input      InputConfig       `mapstructure:"input"`
	Kafka      KafkaConfig       `mapstructure:"kafka"`
	Parser     ParserConfig      `mapstructure:"parser"`
	Stats      StatsConfig       `mapstructure:"stats"`
	Report     ReportConfig      `mapstructure:"report"`
	Metrics    MetricsConfig     `mapstructure:"metrics"`
	Store      StoreConfig       `mapstructure:"store"`
	Thresholds []TimerThresholds `mapstructure:"thresholds"`
	Log        LogConfig         `mapstructure:"log"`
}

type InputConfig struct {
	Source string `mapstructure:"source"` // "file" or "kafka"
	Path   string `mapstructure:"path"`
}

type KafkaConfig struct {
	Brokers     []string      `mapstructure:"brokers"`
	Topic       string        `mapstructure:"topic"`
	GroupID     string        `mapstructure:"groupID"`
	MaxMessages int           `mapstructure:"maxMessages"` // 0 reads until idle
	IdleTimeout time.Duration `mapstructure:"idleTimeout"`
}

type ParserConfig struct {
	SplitMode      string   `mapstructure:"splitMode"`
	SkipLeading    int      `mapstructure:"skipLeading"`
	Delimiter      string   `mapstructure:"delimiter"`
	GroupKeyFields []string `mapstructure:"groupKeyFields"` // tried in order, first present wins
}

type StatsConfig struct {
	OutlierThreshold float64 `mapstructure:"outlierThreshold"`
	Variance         string  `mapstructure:"variance"`
}

type ReportConfig struct {
	OutputDir  string `mapstructure:"outputDir"`
	NamePrefix string `mapstructure:"namePrefix"`
}

type MetricsConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Textfile       string `mapstructure:"textfile"`
	PushgatewayURL string `mapstructure:"pushgatewayURL"`
	Job            string `mapstructure:"job"`
}

type StoreConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// TimerThresholds bounds the unfiltered statistics of a single timer name.
type TimerThresholds struct {
	Name    string   `mapstructure:"name"`
	MeanMax *float64 `mapstructure:"meanMax"`
	Q90Max  *float64 `mapstructure:"q90Max"`
}

type LogConfig struct {
	Level              string `mapstructure:"level"`
	Format             string `mapstructure:"format"`
	FileLoggingEnabled bool   `mapstructure:"fileLoggingEnabled"`
	Directory          string `mapstructure:"directory"`
	Filename           string `mapstructure:"filename"`
	MaxSize            int    `mapstructure:"maxSize"`    // Max size in MB
	MaxBackups         int    `mapstructure:"maxBackups"` // Max backup files
	MaxAge             int    `mapstructure:"maxAge"`     // Max days to retain
	Compress           bool   `mapstructure:"compress"`   // Compress rotated files?
}

// Load initializes viper, reads config, applies defaults, unmarshals, and validates.
// An empty configPath runs on defaults and environment variables alone.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	configureViper(v, configPath)

	// Set default values before reading config source .yaml
	setDefaults(v)

	if configPath != "" {
		if err := readConfigFile(v); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnmarshallingConfig, err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// configureViper sets up viper instance for file and environment variables.
func configureViper(v *viper.Viper, configPath string) {
	if configPath != "" {
		v.SetConfigFile(configPath)
	}

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	// NAME_PREFIX predates the TIMERLENS_ prefix and is still honoured.
	_ = v.BindEnv("report.namePrefix", envPrefix+"_REPORT_NAMEPREFIX", legacyNamePrefixVariable)
}

// setDefaults applies default configuration values using Viper.
func setDefaults(v *viper.Viper) {
	v.SetDefault("input.source", defaultInputSource)
	v.SetDefault("kafka.groupID", defaultKafkaGroupID)
	v.SetDefault("kafka.maxMessages", defaultKafkaMaxMessages)
	v.SetDefault("kafka.idleTimeout", defaultKafkaIdleTimeout)
	v.SetDefault("parser.splitMode", defaultSplitMode)
	v.SetDefault("parser.skipLeading", defaultSkipLeading)
	v.SetDefault("parser.delimiter", defaultDelimiter)
	v.SetDefault("parser.groupKeyFields", defaultGroupKeyFields)
	v.SetDefault("stats.outlierThreshold", defaultOutlierThreshold)
	v.SetDefault("stats.variance", defaultVariance)
	v.SetDefault("report.outputDir", defaultOutputDir)
	v.SetDefault("report.namePrefix", defaultNamePrefix)
	v.SetDefault("metrics.enabled", defaultMetricsEnabled)
	v.SetDefault("metrics.job", defaultMetricsJob)
	v.SetDefault("store.enabled", defaultStoreEnabled)
	v.SetDefault("store.path", defaultStorePath)
	v.SetDefault("log.level", defaultLogLevel)
	v.SetDefault("log.format", defaultLogFormat)
	v.SetDefault("log.fileLoggingEnabled", defaultLogFileEnabled)
	v.SetDefault("log.directory", defaultLogDirectory)
	v.SetDefault("log.filename", defaultLogFilename)
	v.SetDefault("log.maxSize", defaultLogMaxSizeMB)
	v.SetDefault("log.maxBackups", defaultLogMaxBackups)
	v.SetDefault("log.maxAge", defaultLogMaxAgeDays)
	v.SetDefault("log.compress", defaultLogCompress)
}

// readConfigFile attempts to read the configuration file specified in viper.
func readConfigFile(v *viper.Viper) error {
	err := v.ReadInConfig()
	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) || errors.Is(err, fs.ErrNotExist) {
			return ErrConfigFileMissing
		}
		return fmt.Errorf("%w: %w", ErrReadingConfigFile, err)
	}
	return nil
}

func validateConfig(cfg *Config) error {
	switch cfg.Input.Source {
	case SourceFile:
	case SourceKafka:
		if len(cfg.Kafka.Brokers) == 0 {
			return ErrEmptyKafkaBrokers
		}
		if cfg.Kafka.Topic == "" {
			return ErrEmptyKafkaTopic
		}
		if cfg.Kafka.GroupID == "" {
			return ErrEmptyKafkaGroupID
		}
		if cfg.Kafka.IdleTimeout <= 0 {
			return ErrInvalidKafkaIdleTimeout
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownInputSource, cfg.Input.Source)
	}

	switch cfg.Parser.SplitMode {
	case SplitModeScan:
	case SplitModeDelimiter:
		if cfg.Parser.Delimiter == "" {
			return ErrEmptyDelimiter
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSplitMode, cfg.Parser.SplitMode)
	}
	if cfg.Parser.SkipLeading < 0 {
		return ErrNegativeSkipLeading
	}
	if len(cfg.Parser.GroupKeyFields) == 0 {
		return ErrEmptyGroupKeyFields
	}

	if cfg.Stats.OutlierThreshold <= 0 {
		return ErrInvalidOutlierThreshold
	}
	if cfg.Stats.Variance != VarianceSample && cfg.Stats.Variance != VariancePopulation {
		return fmt.Errorf("%w: %q", ErrUnknownVariance, cfg.Stats.Variance)
	}

	if cfg.Report.NamePrefix == "" {
		return ErrEmptyNamePrefix
	}
	if cfg.Store.Enabled && cfg.Store.Path == "" {
		return ErrEmptyStorePath
	}
	for _, t := range cfg.Thresholds {
		if t.Name == "" {
			return ErrEmptyThresholdName
		}
	}
	return nil
}
