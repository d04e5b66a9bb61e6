// ABOUTME: Entry point for the audio bridge
// ABOUTME: Routes one input device to one output device with a fixed latency
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/Resonate-Protocol/audio-bridge/internal/config"
	"github.com/Resonate-Protocol/audio-bridge/internal/logging"
	"github.com/Resonate-Protocol/audio-bridge/internal/version"
	"github.com/Resonate-Protocol/audio-bridge/pkg/audio"
	"github.com/Resonate-Protocol/audio-bridge/pkg/audio/device"
	"github.com/Resonate-Protocol/audio-bridge/pkg/bridge"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, err := config.Load("audio-bridge", args)
	if errors.Is(err, pflag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if cfg.ShowVersion {
		fmt.Println(version.String())
		return 0
	}

	logFile, err := logging.ConfigureDefaultLogger(cfg.LogLevel, cfg.LogFile, slog.HandlerOptions{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error configuring logger: %v\n", err)
		return 1
	}
	if logFile != nil {
		defer logFile.Close()
	}
	logger := slog.Default()
	logger.Debug("starting", "version", version.String(), "configFile", cfg.ConfigFile)

	inHost, outHost, err := openHosts(cfg, logger)
	if err != nil {
		logger.Error("failed to open audio backend", "err", err)
		return 1
	}
	defer inHost.Close()
	if outHost != inHost {
		defer outHost.Close()
	}

	input, err := device.FindInput(inHost, cfg.InputPattern(), cfg.Match)
	if err != nil {
		logger.Error("failed to find input device", "err", err)
		return 1
	}
	output, err := device.FindOutput(outHost, cfg.OutputPattern(), cfg.Match)
	if err != nil {
		logger.Error("failed to find output device", "err", err)
		return 1
	}

	fmt.Printf("Using input device: %q\n", input.Name())
	fmt.Printf("Using output device: %q\n", output.Name())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	session := bridge.NewSession(input, output, bridge.Config{
		Latency:        cfg.Latency,
		Duration:       cfg.Duration,
		ReportInterval: cfg.ReportInterval,
	}, logger)

	if cfg.Duration > 0 {
		fmt.Printf("Playing for %v... \n", cfg.Duration)
	} else {
		fmt.Println("Playing until interrupted... ")
	}

	runErr := session.Run(ctx)
	printSummary(os.Stdout, session)

	if runErr != nil {
		var mismatch *bridge.FormatMismatchError
		if errors.As(runErr, &mismatch) {
			fmt.Fprintln(os.Stderr, mismatch.Error())
		}
		logger.Error("bridge failed", "session", session.ID().String(), "err", runErr)
		return 1
	}

	fmt.Println("Done!")
	return 0
}

// openHosts opens the input and output backends, sharing one host when
// both sides use the same backend.
func openHosts(cfg *config.Config, logger *slog.Logger) (device.Host, device.Host, error) {
	files := cfg.FileOptions()

	inHost, err := device.OpenHost(cfg.InputBackend, files, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("input backend %s: %w", cfg.InputBackend, err)
	}
	if cfg.OutputBackend == cfg.InputBackend {
		return inHost, inHost, nil
	}

	outHost, err := device.OpenHost(cfg.OutputBackend, files, logger)
	if err != nil {
		inHost.Close()
		return nil, nil, fmt.Errorf("output backend %s: %w", cfg.OutputBackend, err)
	}
	return inHost, outHost, nil
}

func printSummary(w io.Writer, session *bridge.Session) {
	if session.State() != bridge.StateStopped {
		return
	}
	snap := session.Stats().Snapshot()
	if snap.CaptureCallbacks == 0 && snap.PlaybackCallbacks == 0 {
		return
	}
	writeSummary(w, session.Format(), snap)
}

func writeSummary(w io.Writer, format audio.Format, snap bridge.StatsSnapshot) {
	fmt.Fprintf(w, "Format: %s\n", format)
	fmt.Fprintf(w, "Captured %d samples (%v), played %d samples (%v)\n",
		snap.Captured, format.DurationOf(int(snap.Captured)),
		snap.Played, format.DurationOf(int(snap.Played)))
	if snap.Overruns > 0 {
		fmt.Fprintf(w, "Overruns: %d (%d samples dropped)\n", snap.Overruns, snap.Dropped)
	}
	if snap.Underruns > 0 {
		fmt.Fprintf(w, "Underruns: %d (%d samples of silence)\n", snap.Underruns, snap.Silenced)
	}
}
