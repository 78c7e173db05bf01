package flash

import (
	"time"

	"periph.io/x/conn/v3/physic"

	"github.com/moffa90/go-mx25r/protocol"
)

// Timeouts holds the bus timeout of each operation class.
type Timeouts struct {
	// Default bounds every transaction without a class of its own,
	// including write-enable and register polls
	Default time.Duration

	// Program bounds the wait for one page program to finish
	Program time.Duration

	// BlockErase bounds the wait for a 64 KiB block erase
	BlockErase time.Duration

	// ChipErase bounds the wait for a full chip erase
	ChipErase time.Duration
}

// Config holds the device configuration.
type Config struct {
	// ProgressCallback is called during writes to report progress (optional)
	ProgressCallback ProgressCallback

	// Logger is used for logging operations (optional)
	Logger Logger

	// Timeouts per operation class
	Timeouts Timeouts

	// BusClock is the controller input clock the prescaler divides
	BusClock physic.Frequency

	// Pins is the quad-SPI port, resolved through PinMapper at Init
	Pins Pins

	// PinMapper resolves Pins; nil skips pin binding
	PinMapper PinMapper

	// Geometry of the array
	Geometry protocol.Geometry
}

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		Timeouts: Timeouts{
			Default:    5 * time.Second,
			Program:    5 * time.Second,
			BlockErase: protocol.BlockEraseMaxTime,
			ChipErase:  protocol.ChipEraseMaxTime,
		},
		BusClock: protocol.MaxClock,
		Geometry: protocol.MX25R6435F,
	}
}

// Option is a functional option for configuring the Device.
type Option func(*Config)

// WithProgressCallback sets a callback function to track write progress.
//
// Example:
//
//	dev := flash.New(bus,
//	    flash.WithProgressCallback(func(p flash.Progress) {
//	        fmt.Printf("%.1f%% complete\n", p.Percentage)
//	    }),
//	)
func WithProgressCallback(callback ProgressCallback) Option {
	return func(c *Config) {
		c.ProgressCallback = callback
	}
}

// WithLogger sets a logger for the device operations.
//
// Example:
//
//	dev := flash.New(bus, flash.WithLogger(myLogger))
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithTimeouts replaces every operation timeout. Zero fields keep their
// default.
//
// Example:
//
//	dev := flash.New(bus, flash.WithTimeouts(flash.Timeouts{
//	    ChipErase: 5 * time.Minute,
//	}))
func WithTimeouts(t Timeouts) Option {
	return func(c *Config) {
		if t.Default > 0 {
			c.Timeouts.Default = t.Default
		}
		if t.Program > 0 {
			c.Timeouts.Program = t.Program
		}
		if t.BlockErase > 0 {
			c.Timeouts.BlockErase = t.BlockErase
		}
		if t.ChipErase > 0 {
			c.Timeouts.ChipErase = t.ChipErase
		}
	}
}

// WithDefaultTimeout sets the timeout of transactions without a class of
// their own.
func WithDefaultTimeout(timeout time.Duration) Option {
	return WithTimeouts(Timeouts{Default: timeout})
}

// WithProgramTimeout sets the page program timeout.
func WithProgramTimeout(timeout time.Duration) Option {
	return WithTimeouts(Timeouts{Program: timeout})
}

// WithBlockEraseTimeout sets the block erase timeout.
func WithBlockEraseTimeout(timeout time.Duration) Option {
	return WithTimeouts(Timeouts{BlockErase: timeout})
}

// WithChipEraseTimeout sets the chip erase timeout.
func WithChipEraseTimeout(timeout time.Duration) Option {
	return WithTimeouts(Timeouts{ChipErase: timeout})
}

// WithBusClock sets the controller input clock. The prescaler is chosen so
// the chip clock stays at or below protocol.MaxClock.
//
// Example:
//
//	dev := flash.New(bus, flash.WithBusClock(110*physic.MegaHertz))
func WithBusClock(f physic.Frequency) Option {
	return func(c *Config) {
		if f > 0 {
			c.BusClock = f
		}
	}
}

// WithPins binds the device to a quad-SPI port. Init fails unless all six
// pins resolve to the same controller instance.
//
// Example:
//
//	dev := flash.New(bus, flash.WithPins(flash.Pins{
//	    Data:       [4]string{"PE12", "PE13", "PE14", "PE15"},
//	    Clock:      "PE10",
//	    ChipSelect: "PE11",
//	}, boardPinMap))
func WithPins(pins Pins, m PinMapper) Option {
	return func(c *Config) {
		c.Pins = pins
		c.PinMapper = m
	}
}

// WithGeometry overrides the array geometry, for parts of the same family
// with a different density. SectorCount and PageCount are derived from the
// sizes; the values in g are ignored.
func WithGeometry(g protocol.Geometry) Option {
	return func(c *Config) {
		if g.FlashSize > 0 && g.PageSize > 0 && g.SectorSize > 0 {
			g.SectorCount = g.FlashSize / g.SectorSize
			g.PageCount = g.FlashSize / g.PageSize
			c.Geometry = g
		}
	}
}
