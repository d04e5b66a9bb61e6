// ABOUTME: WAV file backed endpoints
// ABOUTME: Input plays a file on its own clock, output records what playback pulls
package device

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/Resonate-Protocol/audio-bridge/pkg/audio"
	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	wavOutputBitDepth = 16
	wavPCMFormat      = 1
	wav8BitMidpoint   = 128
	wavMaxChannels    = 8
	defaultFileBlock  = 10 * time.Millisecond
	wavMinSampleRate  = 8000
	wavMaxSampleRate  = 384000
)

// FileOptions configures a FileHost
type FileOptions struct {
	// InputPath is a WAV file exposed as the only input ("" for none)
	InputPath string

	// OutputPath is a WAV file exposed as the only output ("" for none)
	OutputPath string

	// Block is the period of each endpoint's clock (default: 10ms)
	Block time.Duration

	// Loop restarts the input file at its end instead of playing silence
	Loop bool
}

// FileHost exposes WAV files as endpoints. Each opened stream runs its
// own ticker, so input and output clocks drift like real devices do.
type FileHost struct {
	opts   FileOptions
	logger *slog.Logger
}

// NewFileHost creates a host for the given files
func NewFileHost(opts FileOptions, logger *slog.Logger) *FileHost {
	if opts.Block <= 0 {
		opts.Block = defaultFileBlock
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FileHost{opts: opts, logger: logger}
}

func (h *FileHost) Inputs() ([]Input, error) {
	if h.opts.InputPath == "" {
		return nil, nil
	}
	return []Input{&wavInput{host: h, path: h.opts.InputPath}}, nil
}

func (h *FileHost) Outputs() ([]Output, error) {
	if h.opts.OutputPath == "" {
		return nil, nil
	}
	return []Output{&wavOutput{host: h, path: h.opts.OutputPath}}, nil
}

func (h *FileHost) DefaultInput() (Input, error) {
	if h.opts.InputPath == "" {
		return nil, fmt.Errorf("%w: no input file configured", ErrDeviceNotFound)
	}
	return &wavInput{host: h, path: h.opts.InputPath}, nil
}

func (h *FileHost) DefaultOutput() (Output, error) {
	if h.opts.OutputPath == "" {
		return nil, fmt.Errorf("%w: no output file configured", ErrDeviceNotFound)
	}
	return &wavOutput{host: h, path: h.opts.OutputPath}, nil
}

func (h *FileHost) Close() error {
	return nil
}

// --------------------------------------------------------------------------------
// Input

type wavInput struct {
	host *FileHost
	path string
}

func (in *wavInput) Name() string {
	return in.path
}

func (in *wavInput) DefaultFormat() (audio.Format, error) {
	f, err := os.Open(in.path)
	if err != nil {
		return audio.Format{}, fmt.Errorf("could not open audio file: %w", err)
	}
	defer f.Close()

	decoder, err := newPCMDecoder(f, in.path)
	if err != nil {
		return audio.Format{}, err
	}
	return audio.Format{Channels: int(decoder.NumChans), SampleRate: int(decoder.SampleRate)}, nil
}

// OpenCapture decodes the whole file up front so the clock goroutine
// never touches the disk.
func (in *wavInput) OpenCapture(format audio.Format, data CaptureFunc, onErr ErrorFunc) (Stream, error) {
	samples, fileFormat, err := decodeWAV(in.path)
	if err != nil {
		return nil, err
	}
	if fileFormat != format {
		return nil, fmt.Errorf("%s is %s, cannot capture at %s", in.path, fileFormat, format)
	}

	blockSamples := format.SamplesFor(in.host.opts.Block)
	if blockSamples <= 0 {
		blockSamples = format.Channels
	}

	logger := in.host.logger.With("input file", in.path)
	logger.Debug("loaded audio file",
		"format", format.String(),
		"samples", len(samples),
		"blockSamples", blockSamples,
	)

	block := make([]float32, blockSamples)
	pos := 0
	exhausted := false

	tick := func() {
		for i := range block {
			if pos >= len(samples) {
				if in.host.opts.Loop && len(samples) > 0 {
					pos = 0
				} else {
					if !exhausted {
						exhausted = true
						logger.Info("input file exhausted, capturing silence")
					}
					block[i] = 0
					continue
				}
			}
			block[i] = samples[pos]
			pos++
		}
		data(block)
	}

	return newClockStream(in.host.opts.Block, tick, nil), nil
}

func decodeWAV(path string) ([]float32, audio.Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, audio.Format{}, fmt.Errorf("could not open audio file: %w", err)
	}
	defer f.Close()

	decoder, err := newPCMDecoder(f, path)
	if err != nil {
		return nil, audio.Format{}, err
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, audio.Format{}, fmt.Errorf("could not decode %s: %w", path, err)
	}

	bitDepth := int(decoder.BitDepth)
	offset := 0
	if bitDepth == 8 {
		// 8-bit PCM is unsigned
		offset = wav8BitMidpoint
	}
	samples := make([]float32, len(buf.Data))
	for i, s := range buf.Data {
		samples[i] = audio.SampleFromInt(s-offset, bitDepth)
	}

	format := audio.Format{Channels: int(decoder.NumChans), SampleRate: int(decoder.SampleRate)}
	return samples, format, nil
}

// newPCMDecoder reads the headers of f and rejects anything but integer PCM
func newPCMDecoder(f *os.File, path string) (*wav.Decoder, error) {
	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("%s is not a valid WAV file: %v", path, decoder.Err())
	}
	if decoder.WavAudioFormat != wavPCMFormat {
		return nil, fmt.Errorf("%s uses WAV audio format %d, only PCM (%d) is supported", path, decoder.WavAudioFormat, wavPCMFormat)
	}
	return decoder, nil
}

// ReadWAV decodes a whole WAV file into interleaved float32 samples
func ReadWAV(path string) ([]float32, audio.Format, error) {
	return decodeWAV(path)
}

// WriteWAV writes interleaved float32 samples as a 16-bit PCM WAV file
func WriteWAV(path string, format audio.Format, samples []float32) error {
	if err := format.Validate(); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create %s: %w", path, err)
	}

	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = audio.SampleToInt(s, wavOutputBitDepth)
	}

	encoder := wav.NewEncoder(f, format.SampleRate, wavOutputBitDepth, format.Channels, wavPCMFormat)
	writeErr := encoder.Write(&goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: format.Channels, SampleRate: format.SampleRate},
		Data:           data,
		SourceBitDepth: wavOutputBitDepth,
	})
	if err := errors.Join(writeErr, encoder.Close(), f.Close()); err != nil {
		return fmt.Errorf("could not write %s: %w", path, err)
	}
	return nil
}

// --------------------------------------------------------------------------------
// Output

type wavOutput struct {
	host *FileHost
	path string
}

func (out *wavOutput) Name() string {
	return out.path
}

func (out *wavOutput) DefaultFormat() (audio.Format, error) {
	return audio.Format{Channels: 2, SampleRate: 48000}, nil
}

// SupportedConfigs accepts any channel count up to wavMaxChannels at any
// common rate; the file is written at whatever format was negotiated.
func (out *wavOutput) SupportedConfigs() ([]SupportedConfig, error) {
	configs := make([]SupportedConfig, 0, wavMaxChannels)
	for ch := 1; ch <= wavMaxChannels; ch++ {
		configs = append(configs, SupportedConfig{
			Channels:      ch,
			MinSampleRate: wavMinSampleRate,
			MaxSampleRate: wavMaxSampleRate,
		})
	}
	return configs, nil
}

func (out *wavOutput) OpenPlayback(format audio.Format, data PlaybackFunc, onErr ErrorFunc) (Stream, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}

	f, err := os.Create(out.path)
	if err != nil {
		return nil, fmt.Errorf("could not create output file: %w", err)
	}

	encoder := wav.NewEncoder(f, format.SampleRate, wavOutputBitDepth, format.Channels, wavPCMFormat)

	blockSamples := format.SamplesFor(out.host.opts.Block)
	if blockSamples <= 0 {
		blockSamples = format.Channels
	}

	block := make([]float32, blockSamples)
	intBuf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: format.Channels, SampleRate: format.SampleRate},
		Data:           make([]int, blockSamples),
		SourceBitDepth: wavOutputBitDepth,
	}

	failed := false
	tick := func() {
		data(block)
		if failed {
			return
		}
		for i, s := range block {
			intBuf.Data[i] = audio.SampleToInt(s, wavOutputBitDepth)
		}
		if err := encoder.Write(intBuf); err != nil {
			failed = true
			if onErr != nil {
				onErr(fmt.Errorf("could not write %s: %w", out.path, err))
			}
		}
	}

	finish := func() error {
		encErr := encoder.Close()
		fileErr := f.Close()
		if err := errors.Join(encErr, fileErr); err != nil {
			return fmt.Errorf("could not finalize %s: %w", out.path, err)
		}
		out.host.logger.Debug("output file written", "output file", out.path, "format", format.String())
		return nil
	}

	return newClockStream(out.host.opts.Block, tick, finish), nil
}

// --------------------------------------------------------------------------------
// Clock

// clockStream calls tick once per period on its own goroutine
type clockStream struct {
	period time.Duration
	tick   func()
	finish func() error

	mu      sync.Mutex
	done    chan struct{}
	wg      sync.WaitGroup
	running bool
	closed  bool
}

func newClockStream(period time.Duration, tick func(), finish func() error) *clockStream {
	return &clockStream{period: period, tick: tick, finish: finish}
}

func (s *clockStream) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if s.running {
		return nil
	}

	s.done = make(chan struct{})
	s.running = true
	s.wg.Add(1)
	go s.run(s.done)
	return nil
}

func (s *clockStream) run(done chan struct{}) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

// Stop waits for the clock goroutine, so no tick runs after it returns
func (s *clockStream) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	close(s.done)
	s.wg.Wait()
	s.running = false
	return nil
}

func (s *clockStream) Close() error {
	if err := s.Stop(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.finish != nil {
		return s.finish()
	}
	return nil
}
