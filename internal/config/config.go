package config

import (
	"os"
	"strings"

	"codeberg.org/mutker/fwectl/internal/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultLogLevel = "info"

	defaultInterval       = 5
	defaultPollInterval   = 5
	defaultHysteresis     = 2.0
	defaultRateLimit      = 100.0
	defaultRingCapacity   = 720
	defaultChargeLimitPct = 80
	defaultChargeRateC    = 1.0

	minCurvePoints = 2
)

// FanMode selects how the fan loop drives the EC.
type FanMode string

const (
	FanModeDisabled FanMode = "disabled"
	FanModeManual   FanMode = "manual"
	FanModeCurve    FanMode = "curve"
)

func (m FanMode) IsValid() bool {
	switch m {
	case FanModeDisabled, FanModeManual, FanModeCurve:
		return true
	default:
		return false
	}
}

// Backend selects the primary hardware-access path. The fallback order
// is derived from it: the other backend is tried when the preferred one
// is unavailable.
type Backend string

const (
	BackendDevice Backend = "device"
	BackendCLI    Backend = "cli"
)

func (b Backend) IsValid() bool {
	return b == BackendDevice || b == BackendCLI
}

type FanConfig struct {
	Mode          string      `mapstructure:"mode"`
	ManualDutyPct float64     `mapstructure:"manual_duty_pct"`
	Points        [][]float64 `mapstructure:"points"`
	PollInterval  int         `mapstructure:"poll_interval"`
	HysteresisPct float64     `mapstructure:"hysteresis_pct"`
	RateLimitPct  float64     `mapstructure:"rate_limit_pct"`
}

// PowerProfile holds the optional limits applied while the matching
// power source is active. Disabled settings keep their last value.
type PowerProfile struct {
	TDPEnabled     bool `mapstructure:"tdp_enabled"`
	TDPWatts       int  `mapstructure:"tdp_watts"`
	ThermalEnabled bool `mapstructure:"thermal_enabled"`
	ThermalLimitC  int  `mapstructure:"thermal_limit_c"`
}

type PowerConfig struct {
	AC      PowerProfile `mapstructure:"ac"`
	Battery PowerProfile `mapstructure:"battery"`
}

type BatteryConfig struct {
	ChargeLimitEnabled bool    `mapstructure:"charge_limit_enabled"`
	ChargeLimitPct     int     `mapstructure:"charge_limit_pct"`
	ChargeRateEnabled  bool    `mapstructure:"charge_rate_enabled"`
	ChargeRateC        float64 `mapstructure:"charge_rate_c"`
	ChargeRateSocPct   int     `mapstructure:"charge_rate_soc_pct"`
}

type Config struct {
	Interval        int           `mapstructure:"interval"`
	Backend         string        `mapstructure:"backend"`
	LogLevel        string        `mapstructure:"log_level"`
	Debug           bool          `mapstructure:"debug"`
	Verbose         bool          `mapstructure:"verbose"`
	TelemetryWindow int           `mapstructure:"telemetry_window"`
	Fan             FanConfig     `mapstructure:"fan"`
	Power           PowerConfig   `mapstructure:"power"`
	Battery         BatteryConfig `mapstructure:"battery"`
}

func Load() (*Config, error) {
	errFactory := errors.New()

	flags := pflag.NewFlagSet("fwectl", pflag.ContinueOnError)
	configFlag := flags.String("config", "", "Path to configuration file")
	flags.String("log-level", "", "Log level (debug, info, warning, error)")
	flags.Bool("debug", false, "Enable debugging mode")
	flags.Bool("verbose", false, "Enable verbose logging")
	flags.Int("interval", defaultInterval, "Backend supervision interval in seconds")
	flags.String("backend", string(BackendDevice), "Preferred backend (device or cli)")
	flags.String("fan-mode", string(FanModeCurve), "Fan control mode (disabled, manual or curve)")

	if err := flags.Parse(os.Args[1:]); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("fwectl")
	v.SetConfigType("toml")
	v.AddConfigPath("/etc")
	if path := os.Getenv("FWECTL_CONFIG"); path != "" {
		v.SetConfigFile(path)
	} else if *configFlag != "" {
		v.SetConfigFile(*configFlag)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errFactory.Wrap(errors.ErrReadConfig, err)
		}
	}

	// Command line flags override file values
	flags.Visit(func(f *pflag.Flag) {
		key := strings.ReplaceAll(f.Name, "-", "_")
		switch f.Name {
		case "fan-mode":
			key = "fan.mode"
		case "log-level":
			key = "log_level"
		}
		v.Set(key, f.Value.String())
	})

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("interval", defaultInterval)
	v.SetDefault("backend", string(BackendDevice))
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("debug", false)
	v.SetDefault("verbose", false)
	v.SetDefault("telemetry_window", defaultRingCapacity)

	v.SetDefault("fan.mode", string(FanModeCurve))
	v.SetDefault("fan.manual_duty_pct", 50.0)
	v.SetDefault("fan.points", [][]float64{{50, 0}, {60, 30}, {70, 50}, {80, 80}, {90, 100}})
	v.SetDefault("fan.poll_interval", defaultPollInterval)
	v.SetDefault("fan.hysteresis_pct", defaultHysteresis)
	v.SetDefault("fan.rate_limit_pct", defaultRateLimit)

	v.SetDefault("power.ac.tdp_enabled", false)
	v.SetDefault("power.ac.tdp_watts", 28)
	v.SetDefault("power.ac.thermal_enabled", false)
	v.SetDefault("power.ac.thermal_limit_c", 95)
	v.SetDefault("power.battery.tdp_enabled", false)
	v.SetDefault("power.battery.tdp_watts", 15)
	v.SetDefault("power.battery.thermal_enabled", false)
	v.SetDefault("power.battery.thermal_limit_c", 80)

	v.SetDefault("battery.charge_limit_enabled", false)
	v.SetDefault("battery.charge_limit_pct", defaultChargeLimitPct)
	v.SetDefault("battery.charge_rate_enabled", false)
	v.SetDefault("battery.charge_rate_c", defaultChargeRateC)
	v.SetDefault("battery.charge_rate_soc_pct", 0)
}

func (c *Config) Validate() error {
	errFactory := errors.New()

	if !LogLevel(c.LogLevel).IsValid() {
		return errFactory.WithData(errors.ErrInvalidLogLevel, c.LogLevel)
	}

	if c.Interval <= 0 {
		return errFactory.WithData(errors.ErrInvalidInterval, c.Interval)
	}

	if !Backend(c.Backend).IsValid() {
		return errFactory.WithData(errors.ErrInvalidConfig, "backend must be device or cli")
	}

	if !FanMode(c.Fan.Mode).IsValid() {
		return errFactory.WithData(errors.ErrInvalidConfig, "fan.mode must be disabled, manual or curve")
	}

	if c.Fan.PollInterval <= 0 {
		return errFactory.WithData(errors.ErrInvalidInterval, c.Fan.PollInterval)
	}

	if FanMode(c.Fan.Mode) == FanModeCurve {
		if len(c.Fan.Points) < minCurvePoints {
			return errFactory.WithData(errors.ErrInvalidConfig, "fan.points needs at least two points")
		}
		for _, p := range c.Fan.Points {
			if len(p) != 2 {
				return errFactory.WithData(errors.ErrInvalidConfig, "fan.points entries must be [temperature, duty] pairs")
			}
		}
	}

	if c.Battery.ChargeLimitEnabled && (c.Battery.ChargeLimitPct < 25 || c.Battery.ChargeLimitPct > 100) {
		return errFactory.WithData(errors.ErrInvalidConfig, "battery.charge_limit_pct must be within 25-100")
	}

	if c.Battery.ChargeRateEnabled && (c.Battery.ChargeRateC <= 0 || c.Battery.ChargeRateC > 1.0) {
		return errFactory.WithData(errors.ErrInvalidConfig, "battery.charge_rate_c must be within (0, 1.0]")
	}

	return nil
}

// LogLevel represents valid logging levels
type LogLevel string

const (
	LogLevelDebug   LogLevel = "debug"
	LogLevelInfo    LogLevel = "info"
	LogLevelWarning LogLevel = "warning"
	LogLevelError   LogLevel = "error"
)

func (l LogLevel) IsValid() bool {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarning, LogLevelError:
		return true
	default:
		return false
	}
}

func (l LogLevel) String() string {
	return string(l)
}
