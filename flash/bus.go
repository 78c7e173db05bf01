package flash

import (
	"context"
	"fmt"
	"time"

	"github.com/moffa90/go-mx25r/protocol"
)

// BusConfig is handed to Bus.Init. It mirrors the controller init block the
// chip needs; controller-specific fields beyond these are the bus's concern.
type BusConfig struct {
	// Instance is the controller instance the pins resolved to. Empty when
	// no pin binding is configured.
	Instance string

	// ClockPrescaler divides the bus clock: chip clock = hclk/(prescaler+1)
	ClockPrescaler uint8

	// FlashSize is log2 of the array size in bytes
	FlashSize uint8

	// FifoThreshold is the controller FIFO threshold in bytes
	FifoThreshold uint8

	// ChipSelectHighCycles is the minimum chip select high time between commands
	ChipSelectHighCycles uint8

	// ClockMode is the SPI clock mode (0 or 3)
	ClockMode uint8
}

// Bus executes quad-SPI transactions against the chip.
//
// Every method blocks until the controller reports completion or the
// timeout elapses. Implementations choose how a Command maps onto their
// registers; the engine never sees controller-specific fields.
type Bus interface {
	// Init configures the controller
	Init(cfg BusConfig) error

	// DeInit releases the controller. It must succeed on a controller that
	// was never initialized.
	DeInit() error

	// Command issues the instruction, address, alternate and dummy phases
	// of cmd. A command without a data phase completes here; otherwise the
	// data phase follows with Transmit or Receive.
	Command(ctx context.Context, cmd *protocol.Command, timeout time.Duration) error

	// Transmit clocks out the data phase of the last command
	Transmit(ctx context.Context, data []byte, timeout time.Duration) error

	// Receive clocks in the data phase of the last command
	Receive(ctx context.Context, data []byte, timeout time.Duration) error

	// AutoPoll issues cmd repeatedly, every p.Interval controller cycles,
	// until the register it returns satisfies p or the timeout elapses
	AutoPoll(ctx context.Context, cmd *protocol.Command, p protocol.Predicate, timeout time.Duration) error
}

// MemoryMapper is implemented by buses that can expose the chip as
// directly addressable memory.
type MemoryMapper interface {
	// MemoryMap programs read (and, where the controller supports it,
	// write) as the access commands and returns the base address of the
	// mapped region.
	MemoryMap(ctx context.Context, read, write *protocol.Command) (uintptr, error)
}

// PinRole is the function of one of the six quad-SPI signals.
type PinRole int

// Quad-SPI signals.
const (
	PinData0 PinRole = iota
	PinData1
	PinData2
	PinData3
	PinClock
	PinChipSelect
)

func (r PinRole) String() string {
	switch r {
	case PinData0:
		return "D0"
	case PinData1:
		return "D1"
	case PinData2:
		return "D2"
	case PinData3:
		return "D3"
	case PinClock:
		return "SCLK"
	case PinChipSelect:
		return "SSEL"
	default:
		return fmt.Sprintf("PinRole(%d)", int(r))
	}
}

// Pins names the six signals of one quad-SPI port. Pin names are opaque to
// the engine; only the PinMapper interprets them.
type Pins struct {
	Data       [4]string
	Clock      string
	ChipSelect string
}

func (p Pins) lookup(role PinRole) string {
	switch role {
	case PinClock:
		return p.Clock
	case PinChipSelect:
		return p.ChipSelect
	default:
		return p.Data[role]
	}
}

// PinMapper resolves a pin used in a given role to the controller instance
// it is wired to.
type PinMapper interface {
	Peripheral(role PinRole, pin string) (instance string, ok bool)
}

// ResolveInstance maps all six pins and returns the single controller
// instance they share.
func ResolveInstance(pins Pins, m PinMapper) (string, error) {
	var instance string
	for role := PinData0; role <= PinChipSelect; role++ {
		pin := pins.lookup(role)
		got, ok := m.Peripheral(role, pin)
		if !ok {
			return "", &PinError{Role: role, Pin: pin}
		}
		if role == PinData0 {
			instance = got
			continue
		}
		if got != instance {
			return "", &PinError{Role: role, Pin: pin, Instance: got, Want: instance}
		}
	}
	return instance, nil
}
