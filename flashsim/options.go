package flashsim

import (
	"time"

	"github.com/moffa90/go-mx25r/flash"
)

// Timing holds how long each internal operation keeps the chip busy. The
// defaults are the typical values from the datasheet, high-performance
// mode.
type Timing struct {
	PageProgram   time.Duration
	WriteStatus   time.Duration
	SectorErase   time.Duration
	BlockErase32K time.Duration
	BlockErase    time.Duration
	ChipErase     time.Duration
}

// DefaultTiming returns the typical operation times.
func DefaultTiming() Timing {
	return Timing{
		PageProgram:   850 * time.Microsecond,
		WriteStatus:   4 * time.Millisecond,
		SectorErase:   40 * time.Millisecond,
		BlockErase32K: 200 * time.Millisecond,
		BlockErase:    400 * time.Millisecond,
		ChipErase:     50 * time.Second,
	}
}

type config struct {
	timing   Timing
	pollStep time.Duration
	logger   flash.Logger
}

func defaultConfig() config {
	return config{
		timing:   DefaultTiming(),
		pollStep: 100 * time.Microsecond,
	}
}

// Option configures a Chip.
type Option func(*config)

// WithTiming replaces the operation times.
func WithTiming(t Timing) Option {
	return func(c *config) {
		c.timing = t
	}
}

// WithPollStep sets how much virtual time passes between two automatic
// status reads.
func WithPollStep(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.pollStep = d
		}
	}
}

// WithLogger logs every transaction the chip sees at debug level.
func WithLogger(l flash.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}
