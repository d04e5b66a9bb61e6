// ABOUTME: Lists the audio endpoints of a backend
// ABOUTME: Shows each device's preferred format and supported output configs
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/Resonate-Protocol/audio-bridge/internal/logging"
	"github.com/Resonate-Protocol/audio-bridge/pkg/audio"
	"github.com/Resonate-Protocol/audio-bridge/pkg/audio/device"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, w io.Writer) int {
	fs := pflag.NewFlagSet("list-devices", pflag.ContinueOnError)
	backend := fs.StringP("backend", "b", device.BackendMalgo, "Backend to list: "+strings.Join(device.Backends(), ", "))
	inputPath := fs.String("input", "", "WAV file to expose as input (file backend)")
	outputPath := fs.String("output", "", "WAV file to expose as output (file backend)")
	logLevel := fs.String("loglevel", "warn", "Log level: "+strings.Join(logging.Levels, ", "))
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 1
	}

	if _, err := logging.ConfigureDefaultLogger(*logLevel, "", slog.HandlerOptions{}); err != nil {
		fmt.Fprintf(os.Stderr, "Error configuring logger: %v\n", err)
		return 1
	}

	host, err := device.OpenHost(*backend, device.FileOptions{InputPath: *inputPath, OutputPath: *outputPath}, slog.Default())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer host.Close()

	if err := listDevices(w, host); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func listDevices(w io.Writer, host device.Host) error {
	inputs, err := host.Inputs()
	if err != nil {
		return fmt.Errorf("failed to list inputs: %w", err)
	}
	outputs, err := host.Outputs()
	if err != nil {
		return fmt.Errorf("failed to list outputs: %w", err)
	}

	fmt.Fprintf(w, "Inputs (%d):\n", len(inputs))
	for _, in := range inputs {
		fmt.Fprintf(w, "  %q\n", in.Name())
		printFormat(w, in.DefaultFormat)
	}

	fmt.Fprintf(w, "\nOutputs (%d):\n", len(outputs))
	for _, out := range outputs {
		fmt.Fprintf(w, "  %q\n", out.Name())
		printFormat(w, out.DefaultFormat)

		configs, err := out.SupportedConfigs()
		if err != nil {
			fmt.Fprintf(w, "    configs: unavailable (%v)\n", err)
			continue
		}
		for _, c := range configs {
			fmt.Fprintf(w, "    config:  %s\n", c)
		}
	}
	return nil
}

func printFormat(w io.Writer, defaultFormat func() (audio.Format, error)) {
	format, err := defaultFormat()
	if err != nil {
		fmt.Fprintf(w, "    default: unavailable (%v)\n", err)
		return
	}
	fmt.Fprintf(w, "    default: %s\n", format)
}
