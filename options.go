package wavstream

import (
	"github.com/pion/logging"

	wavlog "github.com/cwbudde/wavstream/internal/logging"
)

const loggerScope = "wavstream"

// Option configures a reader or writer.
type Option func(*config)

type config struct {
	logger      logging.LeveledLogger
	extensible  bool
	channelMask uint32
}

// WithLogger sets the logger used for diagnostics. By default a logger
// scoped "wavstream" is taken from pion/logging's default factory.
func WithLogger(logger logging.LeveledLogger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithExtensible makes a writer emit a WAVE_FORMAT_EXTENSIBLE fmt chunk
// with the given speaker channel mask. Readers ignore it.
func WithExtensible(channelMask uint32) Option {
	return func(c *config) {
		c.extensible = true
		c.channelMask = channelMask
	}
}

func newConfig(opts []Option) *config {
	cfg := &config{}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}

	if cfg.logger == nil {
		cfg.logger = wavlog.NewLogger(loggerScope)
	}

	return cfg
}
