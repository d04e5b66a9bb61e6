// ABOUTME: Command-line, environment and file configuration
// ABOUTME: Flags are bound into viper with AUDIOBRIDGE_ environment overrides
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Resonate-Protocol/audio-bridge/internal/logging"
	"github.com/Resonate-Protocol/audio-bridge/pkg/audio/device"
)

// EnvPrefix prefixes every environment override, e.g. AUDIOBRIDGE_LATENCY
const EnvPrefix = "AUDIOBRIDGE"

// Config holds the resolved settings of one invocation
type Config struct {
	Input          string
	Output         string
	Match          device.MatchMode
	InputBackend   string
	OutputBackend  string
	Latency        time.Duration
	Duration       time.Duration
	ReportInterval time.Duration
	Block          time.Duration
	Loop           bool
	LogLevel       string
	LogFile        string
	ConfigFile     string
	ShowVersion    bool
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("input", "M8")
	v.SetDefault("output", "")
	v.SetDefault("match", "contains")
	v.SetDefault("input-backend", device.BackendMalgo)
	v.SetDefault("output-backend", device.BackendMalgo)
	v.SetDefault("latency", 150*time.Millisecond)
	v.SetDefault("duration", 3*time.Second)
	v.SetDefault("report-interval", 500*time.Millisecond)
	v.SetDefault("block", 10*time.Millisecond)
	v.SetDefault("loop", false)
	v.SetDefault("loglevel", "info")
	v.SetDefault("logfile", "")
}

// NewFlagSet declares every flag. Defaults shown in help match the viper
// defaults.
func NewFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.String("config", "", "Path to a YAML config file")
	fs.StringP("input", "i", "M8", "Input device name pattern, or WAV path for the file backend (empty: default device)")
	fs.StringP("output", "o", "", "Output device name pattern, or WAV path for the file backend (empty: default device)")
	fs.String("match", "contains", "Device name matching: contains or prefix")
	fs.String("input-backend", device.BackendMalgo, "Input backend: "+strings.Join(device.Backends(), ", "))
	fs.String("output-backend", device.BackendMalgo, "Output backend: "+strings.Join(device.Backends(), ", "))
	fs.DurationP("latency", "l", 150*time.Millisecond, "Delay between capture and playback")
	fs.DurationP("duration", "d", 3*time.Second, "How long to stream (0: until interrupted)")
	fs.Duration("report-interval", 500*time.Millisecond, "How often overruns and underruns are reported")
	fs.Duration("block", 10*time.Millisecond, "Clock period of file backend streams")
	fs.Bool("loop", false, "Loop the input WAV file")
	fs.String("loglevel", "info", "Log level: "+strings.Join(logging.Levels, ", "))
	fs.String("logfile", "", "Write JSON logs to this file instead of stdout")
	fs.BoolP("version", "v", false, "Print version and exit")
	return fs
}

// Load parses args and resolves flags, environment, config file and
// defaults, in that order of precedence. pflag.ErrHelp is returned as is
// when help was requested.
func Load(name string, args []string) (*Config, error) {
	fs := NewFlagSet(name)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return FromFlags(fs)
}

// FromFlags resolves settings for an already parsed flag set
func FromFlags(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("failed to bind flags: %w", err)
	}

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error during config read: %w", err)
		}
	}

	match, err := device.ParseMatchMode(v.GetString("match"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Input:          v.GetString("input"),
		Output:         v.GetString("output"),
		Match:          match,
		InputBackend:   strings.ToLower(v.GetString("input-backend")),
		OutputBackend:  strings.ToLower(v.GetString("output-backend")),
		Latency:        v.GetDuration("latency"),
		Duration:       v.GetDuration("duration"),
		ReportInterval: v.GetDuration("report-interval"),
		Block:          v.GetDuration("block"),
		Loop:           v.GetBool("loop"),
		LogLevel:       v.GetString("loglevel"),
		LogFile:        v.GetString("logfile"),
		ConfigFile:     v.GetString("config"),
		ShowVersion:    v.GetBool("version"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings no session could run with
func (c *Config) Validate() error {
	if c.Latency <= 0 {
		return fmt.Errorf("latency must be positive, got %v", c.Latency)
	}
	if c.Duration < 0 {
		return fmt.Errorf("duration must not be negative, got %v", c.Duration)
	}
	if c.ReportInterval <= 0 {
		return fmt.Errorf("report interval must be positive, got %v", c.ReportInterval)
	}
	if c.Block <= 0 {
		return fmt.Errorf("block must be positive, got %v", c.Block)
	}
	if !device.IsBackend(c.InputBackend) {
		return fmt.Errorf("unknown input backend %q (supported: %s)", c.InputBackend, strings.Join(device.Backends(), ", "))
	}
	if !device.IsBackend(c.OutputBackend) {
		return fmt.Errorf("unknown output backend %q (supported: %s)", c.OutputBackend, strings.Join(device.Backends(), ", "))
	}
	if c.InputBackend == device.BackendOto {
		return errors.New("the oto backend has no inputs")
	}
	if _, _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// FileOptions returns the file backend settings. For file backends the
// input and output settings name WAV paths rather than device patterns.
func (c *Config) FileOptions() device.FileOptions {
	opts := device.FileOptions{Block: c.Block, Loop: c.Loop}
	if c.InputBackend == device.BackendFile {
		opts.InputPath = c.Input
	}
	if c.OutputBackend == device.BackendFile {
		opts.OutputPath = c.Output
	}
	return opts
}

// InputPattern is the device pattern for the input backend. File
// backends expose a single endpoint, selected as the default.
func (c *Config) InputPattern() string {
	if c.InputBackend == device.BackendFile {
		return ""
	}
	return c.Input
}

// OutputPattern is the device pattern for the output backend
func (c *Config) OutputPattern() string {
	if c.OutputBackend == device.BackendFile {
		return ""
	}
	return c.Output
}
