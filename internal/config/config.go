package config

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"codeberg.org/mutker/roverdash/internal/acquisition"
	"codeberg.org/mutker/roverdash/internal/ecu"
	"codeberg.org/mutker/roverdash/internal/errors"
	"codeberg.org/mutker/roverdash/internal/metrics"
	"codeberg.org/mutker/roverdash/internal/telemetry"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	appName          = "roverdash"
	DefaultEnvPrefix = "ROVERDASH"
	DefaultRefreshMs = 200
	DefaultLogLevel  = LogLevelWarning
	DefaultDriver    = "sim"
)

type RecordConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	DBPath       string `mapstructure:"db_path"`
	BatchSize    int    `mapstructure:"batch_size"`
	BatchTimeout int    `mapstructure:"batch_timeout"`
}

type PublishConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
	Key     string `mapstructure:"key"`
}

type SimConfig struct {
	Seed        int64   `mapstructure:"seed"`
	FailureRate float64 `mapstructure:"failure_rate"`
	FailConnect bool    `mapstructure:"fail_connect"`
}

type Config struct {
	// Device is the communication port given on the command line
	Device string `mapstructure:"-"`

	RefreshMs      int              `mapstructure:"refresh_ms"`
	Metric         bool             `mapstructure:"metric"`
	LogLevel       string           `mapstructure:"log_level"`
	LogFile        string           `mapstructure:"log_file"`
	Driver         string           `mapstructure:"driver"`
	FeedbackMode   string           `mapstructure:"feedback_mode"`
	LambdaTrim     string           `mapstructure:"lambda_trim"`
	FuelMapRefresh bool             `mapstructure:"fuel_map_refresh"`
	AirflowType    string           `mapstructure:"airflow_type"`
	ThrottleType   string           `mapstructure:"throttle_type"`
	Intervals      map[string]int64 `mapstructure:"intervals"`

	Record  RecordConfig  `mapstructure:"record"`
	Publish PublishConfig `mapstructure:"publish"`
	Sim     SimConfig     `mapstructure:"sim"`

	mode     acquisition.ModeContext
	readOpts acquisition.ReadOptions
	catalog  *acquisition.Catalog
}

// Load reads the configuration from defaults, config file, environment and
// the command line args (without the program name), in increasing order of
// precedence. Exactly one positional argument, the device, is required.
func Load(args []string, opts ...Option) (*Config, error) {
	errFactory := errors.New()

	o := &options{
		configPath: os.Getenv(DefaultEnvPrefix + "_CONFIG"),
		envPrefix:  DefaultEnvPrefix,
		searchPaths: []string{
			"/etc",
			filepath.Join(userConfigDir(), appName),
		},
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
		}
	}

	v := viper.New()
	setDefaults(v)

	fs := newFlagSet()
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil, errFactory.New(ErrHelpRequested)
		}
		return nil, errFactory.Wrap(errors.ErrUsage, err)
	}
	if fs.NArg() != 1 {
		return nil, errFactory.WithData(errors.ErrUsage, struct {
			Args []string
		}{fs.Args()})
	}

	if path, _ := fs.GetString("config"); path != "" {
		o.configPath = path
	}

	if err := bindFlags(v, fs); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}

	v.SetEnvPrefix(o.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := readConfigFile(v, o); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}
	cfg.Device = fs.Arg(0)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("refresh_ms", DefaultRefreshMs)
	v.SetDefault("metric", true)
	v.SetDefault("log_level", DefaultLogLevel.String())
	v.SetDefault("log_file", filepath.Join(os.TempDir(), appName+".log"))
	v.SetDefault("driver", DefaultDriver)
	v.SetDefault("feedback_mode", "closed")
	v.SetDefault("lambda_trim", "long")
	v.SetDefault("fuel_map_refresh", false)
	v.SetDefault("airflow_type", "linear")
	v.SetDefault("throttle_type", "absolute")

	catalog := acquisition.DefaultCatalog()
	for _, kind := range acquisition.SampleKinds() {
		v.SetDefault("intervals."+kind.String(), catalog.Interval(kind))
	}

	rec := metrics.DefaultConfig()
	v.SetDefault("record.enabled", rec.Enabled)
	v.SetDefault("record.db_path", rec.DBPath)
	v.SetDefault("record.batch_size", rec.BatchSize)
	v.SetDefault("record.batch_timeout", rec.BatchTimeout)

	pub := telemetry.DefaultConfig()
	v.SetDefault("publish.enabled", pub.Enabled)
	v.SetDefault("publish.addr", pub.Addr)
	v.SetDefault("publish.key", pub.Key)

	v.SetDefault("sim.seed", 1)
	v.SetDefault("sim.failure_rate", 0.0)
	v.SetDefault("sim.fail_connect", false)
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet(appName, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.String("config", "", "Path to the config file")
	fs.Int("refresh-ms", DefaultRefreshMs, "Milliseconds between acquisition cycles")
	fs.Bool("metric", true, "Show metric units (false shows mph and degF)")
	fs.String("log-level", DefaultLogLevel.String(), "Log level (debug, info, warning, error)")
	fs.String("log-file", "", "Log file path")
	fs.String("driver", DefaultDriver, "ECU driver")
	fs.String("feedback-mode", "closed", "Fueling feedback mode (closed, open)")
	fs.String("lambda-trim", "long", "Lambda trim to display (short, long)")
	fs.Bool("fuel-map-refresh", false, "Periodically read the active fuel map")
	fs.String("airflow-type", "linear", "MAF scaling (linear, direct)")
	fs.String("throttle-type", "absolute", "Throttle scaling (absolute, corrected)")
	fs.Bool("record", false, "Record every cycle to the SQLite cycle log")
	fs.String("record-db", "", "Cycle log database path")
	fs.Bool("publish", false, "Publish every cycle to Redis")
	fs.String("publish-addr", "", "Redis address")
	fs.String("publish-key", "", "Redis hash and channel name")
	fs.Float64("sim-failure-rate", 0, "Fraction of simulated reads that fail")
	fs.Bool("sim-fail-connect", false, "Make the simulated port refuse to open")

	return fs
}

var flagKeys = map[string]string{
	"refresh-ms":       "refresh_ms",
	"metric":           "metric",
	"log-level":        "log_level",
	"log-file":         "log_file",
	"driver":           "driver",
	"feedback-mode":    "feedback_mode",
	"lambda-trim":      "lambda_trim",
	"fuel-map-refresh": "fuel_map_refresh",
	"airflow-type":     "airflow_type",
	"throttle-type":    "throttle_type",
	"record":           "record.enabled",
	"record-db":        "record.db_path",
	"publish":          "publish.enabled",
	"publish-addr":     "publish.addr",
	"publish-key":      "publish.key",
	"sim-failure-rate": "sim.failure_rate",
	"sim-fail-connect": "sim.fail_connect",
}

// bindFlags binds only the flags given on the command line, so flag
// defaults never mask the config file or environment
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	var bindErr error
	fs.Visit(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok || bindErr != nil {
			return
		}
		bindErr = v.BindPFlag(key, f)
	})
	return bindErr
}

func readConfigFile(v *viper.Viper, o *options) error {
	errFactory := errors.New()

	if o.configPath != "" {
		v.SetConfigFile(o.configPath)
	} else {
		v.SetConfigName(appName)
		v.SetConfigType("toml")
		for _, p := range o.searchPaths {
			v.AddConfigPath(p)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if o.configPath == "" && errors.As(err, &notFound) {
			return nil
		}
		return errFactory.Wrap(errors.ErrReadConfig, err)
	}

	return nil
}

// Validate checks every value and resolves the acquisition settings
func (c *Config) Validate() error {
	errFactory := errors.New()

	if c.Device == "" {
		return errFactory.New(errors.ErrUsage)
	}
	if c.RefreshMs <= 0 {
		return errFactory.WithData(errors.ErrInvalidInterval, c.RefreshMs)
	}
	if !LogLevel(strings.ToLower(c.LogLevel)).IsValid() {
		return errFactory.WithData(errors.ErrInvalidLogLevel, c.LogLevel)
	}
	if c.Sim.FailureRate < 0 || c.Sim.FailureRate > 1 {
		return invalid("sim.failure_rate", c.Sim.FailureRate)
	}

	switch strings.ToLower(c.FeedbackMode) {
	case "closed":
		c.mode.Feedback = ecu.ClosedLoop
	case "open":
		c.mode.Feedback = ecu.OpenLoop
	default:
		return invalid("feedback_mode", c.FeedbackMode)
	}

	switch strings.ToLower(c.LambdaTrim) {
	case "short":
		c.mode.LambdaTrim = ecu.ShortTerm
	case "long":
		c.mode.LambdaTrim = ecu.LongTerm
	default:
		return invalid("lambda_trim", c.LambdaTrim)
	}
	c.mode.FuelMapRefresh = c.FuelMapRefresh

	switch strings.ToLower(c.AirflowType) {
	case "linear":
		c.readOpts.Airflow = ecu.AirflowLinear
	case "direct":
		c.readOpts.Airflow = ecu.AirflowDirect
	default:
		return invalid("airflow_type", c.AirflowType)
	}

	switch strings.ToLower(c.ThrottleType) {
	case "absolute":
		c.readOpts.Throttle = ecu.ThrottleAbsolute
	case "corrected":
		c.readOpts.Throttle = ecu.ThrottleCorrected
	default:
		return invalid("throttle_type", c.ThrottleType)
	}

	c.catalog = acquisition.DefaultCatalog()
	for name, ms := range c.Intervals {
		kind, err := acquisition.ParseSampleKind(name)
		if err != nil {
			return errFactory.Wrap(errors.ErrInvalidConfig, err)
		}
		if err := c.catalog.WithInterval(kind, ms); err != nil {
			return errFactory.Wrap(errors.ErrInvalidConfig, err)
		}
	}

	if err := c.MetricsConfig().Validate(); err != nil {
		return errFactory.Wrap(errors.ErrInvalidConfig, err)
	}
	if err := c.TelemetryConfig().Validate(); err != nil {
		return errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	return nil
}

func invalid(key string, value any) error {
	return errors.New().WithData(ErrInvalidValue, struct {
		Key   string
		Value any
	}{key, value})
}

func (c *Config) Refresh() time.Duration {
	return time.Duration(c.RefreshMs) * time.Millisecond
}

func (c *Config) ModeContext() acquisition.ModeContext {
	return c.mode
}

func (c *Config) ReadOptions() acquisition.ReadOptions {
	return c.readOpts
}

// Catalog returns the default intervals with the configured overrides
func (c *Config) Catalog() *acquisition.Catalog {
	if c.catalog == nil {
		return acquisition.DefaultCatalog()
	}
	return c.catalog
}

func (c *Config) DriverOptions() ecu.Options {
	return ecu.Options{
		Seed:        c.Sim.Seed,
		FailureRate: c.Sim.FailureRate,
		FailConnect: c.Sim.FailConnect,
	}
}

func (c *Config) MetricsConfig() metrics.Config {
	return metrics.Config{
		DBPath:       c.Record.DBPath,
		Enabled:      c.Record.Enabled,
		BatchSize:    c.Record.BatchSize,
		BatchTimeout: c.Record.BatchTimeout,
	}
}

func (c *Config) TelemetryConfig() telemetry.Config {
	cfg := telemetry.DefaultConfig()
	cfg.Enabled = c.Publish.Enabled
	cfg.Addr = c.Publish.Addr
	cfg.Key = c.Publish.Key
	return cfg
}

// Usage returns the usage line followed by the flag descriptions
func Usage() string {
	return errors.GetErrorMessage(errors.ErrUsage) + "\n\nFlags:\n" + newFlagSet().FlagUsages()
}

func userConfigDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return dir
	}
	return filepath.Join(os.Getenv("HOME"), ".config")
}
