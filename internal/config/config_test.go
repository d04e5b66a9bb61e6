// ABOUTME: Tests for configuration loading and validation
// ABOUTME: Covers defaults, flags, environment overrides and YAML files
package config

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"github.com/Resonate-Protocol/audio-bridge/pkg/audio/device"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("audio-bridge", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Input != "M8" {
		t.Errorf("expected input 'M8', got '%s'", cfg.Input)
	}
	if cfg.Output != "" {
		t.Errorf("expected empty output, got '%s'", cfg.Output)
	}
	if cfg.Match != device.MatchContains {
		t.Errorf("expected contains matching, got %v", cfg.Match)
	}
	if cfg.InputBackend != device.BackendMalgo || cfg.OutputBackend != device.BackendMalgo {
		t.Errorf("expected malgo backends, got %s and %s", cfg.InputBackend, cfg.OutputBackend)
	}
	if cfg.Latency != 150*time.Millisecond {
		t.Errorf("expected latency 150ms, got %v", cfg.Latency)
	}
	if cfg.Duration != 3*time.Second {
		t.Errorf("expected duration 3s, got %v", cfg.Duration)
	}
	if cfg.ReportInterval != 500*time.Millisecond {
		t.Errorf("expected report interval 500ms, got %v", cfg.ReportInterval)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected loglevel 'info', got '%s'", cfg.LogLevel)
	}
}

func TestLoadFlags(t *testing.T) {
	cfg, err := Load("audio-bridge", []string{
		"--input", "USB Audio",
		"-o", "Speakers",
		"--match", "prefix",
		"--latency", "40ms",
		"--duration", "0",
		"--output-backend", "OTO",
		"--loglevel", "debug",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Input != "USB Audio" || cfg.Output != "Speakers" {
		t.Errorf("expected devices from flags, got %q and %q", cfg.Input, cfg.Output)
	}
	if cfg.Match != device.MatchPrefix {
		t.Errorf("expected prefix matching, got %v", cfg.Match)
	}
	if cfg.Latency != 40*time.Millisecond {
		t.Errorf("expected latency 40ms, got %v", cfg.Latency)
	}
	if cfg.Duration != 0 {
		t.Errorf("expected duration 0, got %v", cfg.Duration)
	}
	if cfg.OutputBackend != device.BackendOto {
		t.Errorf("expected lowercased oto backend, got %s", cfg.OutputBackend)
	}
}

func TestLoadEnvironment(t *testing.T) {
	t.Setenv("AUDIOBRIDGE_LATENCY", "75ms")
	t.Setenv("AUDIOBRIDGE_REPORT_INTERVAL", "2s")

	cfg, err := Load("audio-bridge", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Latency != 75*time.Millisecond {
		t.Errorf("expected latency 75ms from environment, got %v", cfg.Latency)
	}
	if cfg.ReportInterval != 2*time.Second {
		t.Errorf("expected report interval 2s from environment, got %v", cfg.ReportInterval)
	}

	cfg, err = Load("audio-bridge", []string{"--latency", "20ms"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Latency != 20*time.Millisecond {
		t.Errorf("expected flag to override environment, got %v", cfg.Latency)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bridge.yaml")
	yaml := "input: Scarlett\nlatency: 250ms\nloop: true\n"
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	cfg, err := Load("audio-bridge", []string{"--config", path})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Input != "Scarlett" {
		t.Errorf("expected input from file, got '%s'", cfg.Input)
	}
	if cfg.Latency != 250*time.Millisecond {
		t.Errorf("expected latency 250ms from file, got %v", cfg.Latency)
	}
	if !cfg.Loop {
		t.Error("expected loop from file")
	}
	if cfg.ConfigFile != path {
		t.Errorf("expected config path %s, got %s", path, cfg.ConfigFile)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"zero latency", []string{"--latency", "0"}},
		{"negative duration", []string{"--duration=-1s"}},
		{"unknown backend", []string{"--input-backend", "jack"}},
		{"oto input", []string{"--input-backend", "oto"}},
		{"unknown match mode", []string{"--match", "regex"}},
		{"unknown log level", []string{"--loglevel", "trace"}},
		{"unknown flag", []string{"--bogus"}},
		{"unreadable config", []string{"--config", filepath.Join(os.TempDir(), "does-not-exist.yaml")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load("audio-bridge", tt.args); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadMissingConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.yaml")
	_, err := Load("audio-bridge", []string{"--config", path})
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected fs.ErrNotExist for %s, got %v", path, err)
	}
}

func TestLoadHelp(t *testing.T) {
	fs := NewFlagSet("audio-bridge")
	fs.SetOutput(io.Discard)
	if err := fs.Parse([]string{"--help"}); !errors.Is(err, pflag.ErrHelp) {
		t.Errorf("expected pflag.ErrHelp, got %v", err)
	}
}

func TestFileBackendPaths(t *testing.T) {
	cfg, err := Load("audio-bridge", []string{
		"--input-backend", "file", "--input", "in.wav",
		"--output-backend", "file", "--output", "out.wav",
		"--block", "5ms", "--loop",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	opts := cfg.FileOptions()
	if opts.InputPath != "in.wav" || opts.OutputPath != "out.wav" {
		t.Errorf("expected WAV paths, got %q and %q", opts.InputPath, opts.OutputPath)
	}
	if opts.Block != 5*time.Millisecond || !opts.Loop {
		t.Errorf("expected block 5ms with loop, got %v and %v", opts.Block, opts.Loop)
	}
	if cfg.InputPattern() != "" || cfg.OutputPattern() != "" {
		t.Error("expected default endpoint selection for file backends")
	}
}

func TestDevicePatterns(t *testing.T) {
	cfg, err := Load("audio-bridge", []string{"--input", "M8", "--output-backend", "file", "--output", "rec.wav"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.InputPattern() != "M8" {
		t.Errorf("expected input pattern 'M8', got '%s'", cfg.InputPattern())
	}
	if cfg.FileOptions().InputPath != "" {
		t.Error("expected no input path for a device backend")
	}
	if cfg.FileOptions().OutputPath != "rec.wav" {
		t.Errorf("expected output path 'rec.wav', got '%s'", cfg.FileOptions().OutputPath)
	}
}
