// ABOUTME: Stream format negotiation between input and output endpoints
// ABOUTME: Accepts the input's preferred format only if the output supports it
package bridge

import (
	"fmt"

	"github.com/Resonate-Protocol/audio-bridge/pkg/audio"
	"github.com/Resonate-Protocol/audio-bridge/pkg/audio/device"
)

// FindConfig returns the first configuration that supports format
func FindConfig(format audio.Format, configs []device.SupportedConfig) (device.SupportedConfig, bool) {
	for _, c := range configs {
		if c.Supports(format) {
			return c, true
		}
	}
	return device.SupportedConfig{}, false
}

// Negotiate reads the input's preferred format and checks that the output
// can play it unchanged. Nothing is resampled or remapped, so the only
// acceptable output configuration has the same channel count and a rate
// range containing the input rate.
func Negotiate(in device.Input, out device.Output, opts ...Option) (*Negotiated, error) {
	o := applyOptions(opts)

	format, err := in.DefaultFormat()
	if err != nil {
		return nil, fmt.Errorf("failed to read format of input %q: %w", in.Name(), err)
	}
	if err := format.Validate(); err != nil {
		return nil, fmt.Errorf("input %q reported an unusable format: %w", in.Name(), err)
	}

	configs, err := out.SupportedConfigs()
	if err != nil {
		return nil, fmt.Errorf("failed to list configurations of output %q: %w", out.Name(), err)
	}

	config, ok := FindConfig(format, configs)
	if !ok {
		return nil, &FormatMismatchError{
			Output:    out.Name(),
			Required:  format,
			Available: configs,
		}
	}

	o.logger.Debug("format negotiated",
		"input", in.Name(),
		"output", out.Name(),
		"format", format.String(),
		"outputConfig", config.String(),
	)

	return &Negotiated{
		input:  in,
		output: out,
		format: format,
		config: config,
		opts:   o,
	}, nil
}
