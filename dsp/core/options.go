package core

// Defaults of the effects module.
const (
	DefaultSampleRate = 48000
	DefaultFrameSize  = 64
	DefaultArenaBytes = 129 * 1024
)

// Config defines the fixed processing settings of the module.
type Config struct {
	SampleRate float64
	// FrameSize is the number of stereo frames per buffer period.
	FrameSize int
	// ArenaBytes is the capacity of the shared algorithm memory.
	ArenaBytes int
}

// Option mutates a Config.
type Option func(*Config)

// DefaultConfig returns the settings of the reference hardware.
func DefaultConfig() Config {
	return Config{
		SampleRate: DefaultSampleRate,
		FrameSize:  DefaultFrameSize,
		ArenaBytes: DefaultArenaBytes,
	}
}

// WithSampleRate sets the processing sample rate.
func WithSampleRate(sampleRate float64) Option {
	return func(cfg *Config) {
		if sampleRate > 0 {
			cfg.SampleRate = sampleRate
		}
	}
}

// WithFrameSize sets the number of stereo frames per buffer.
func WithFrameSize(frames int) Option {
	return func(cfg *Config) {
		if frames > 0 {
			cfg.FrameSize = frames
		}
	}
}

// WithArenaBytes sets the algorithm arena capacity.
func WithArenaBytes(n int) Option {
	return func(cfg *Config) {
		if n > 0 {
			cfg.ArenaBytes = n
		}
	}
}

// ApplyOptions applies zero or more options to the default config.
func ApplyOptions(opts ...Option) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return cfg
}

// BufferPeriodNanos returns the duration of one buffer in nanoseconds.
func (c Config) BufferPeriodNanos() int64 {
	if c.SampleRate <= 0 {
		return 0
	}

	return int64(float64(c.FrameSize) * 1e9 / c.SampleRate)
}
