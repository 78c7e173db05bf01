package protocol

import (
	"errors"
	"fmt"
)

// Lines is the number of data lines a transaction phase is clocked on.
type Lines uint8

// Line counts supported by the quad controllers.
const (
	LinesNone Lines = 0
	Lines1    Lines = 1
	Lines2    Lines = 2
	Lines4    Lines = 4
)

// Direction is the direction of a data phase.
type Direction uint8

// Data phase directions.
const (
	DirNone Direction = iota
	DirRead
	DirWrite
)

func (d Direction) String() string {
	switch d {
	case DirNone:
		return "none"
	case DirRead:
		return "read"
	case DirWrite:
		return "write"
	default:
		return fmt.Sprintf("Direction(%d)", uint8(d))
	}
}

// Phase widths in bits.
const (
	Address24  = 24
	Alternate8 = 8
)

// Command describes one bus transaction. Phases whose line count is
// LinesNone are not clocked.
type Command struct {
	// Instruction is the opcode, always sent
	Instruction byte

	// InstructionLines is the line count of the instruction phase
	InstructionLines Lines

	// Address is the byte address sent after the instruction
	Address uint32

	// AddressLines is the line count of the address phase (LinesNone = no address)
	AddressLines Lines

	// AddressBits is the address width
	AddressBits uint8

	// AlternateBytes is the mode value sent after the address
	AlternateBytes uint32

	// AlternateLines is the line count of the alternate phase (LinesNone = no alternate)
	AlternateLines Lines

	// AlternateBits is the alternate width
	AlternateBits uint8

	// DummyCycles is the number of idle clocks before the data phase
	DummyCycles uint8

	// Direction of the data phase
	Direction Direction

	// DataLines is the line count of the data phase (LinesNone = no data)
	DataLines Lines

	// DataLength is the number of bytes in the data phase; zero in
	// memory-mapped descriptors where the length is unbounded
	DataLength int
}

// HasData reports whether the descriptor has a data phase.
func (c *Command) HasData() bool {
	return c.DataLines != LinesNone
}

// Validate checks the descriptor invariants: a data phase has exactly one
// direction and a length, an address phase has a width.
func (c *Command) Validate() error {
	if c.InstructionLines == LinesNone {
		return errors.New("instruction phase must use at least one line")
	}
	if !validLines(c.InstructionLines) || !validLines(c.AddressLines) ||
		!validLines(c.AlternateLines) || !validLines(c.DataLines) {
		return fmt.Errorf("invalid line count in command 0x%02X", c.Instruction)
	}

	if c.AddressLines != LinesNone {
		if c.AddressBits == 0 || c.AddressBits%8 != 0 || c.AddressBits > 32 {
			return fmt.Errorf("invalid address width %d bits", c.AddressBits)
		}
		if c.AddressBits < 32 && c.Address >= 1<<c.AddressBits {
			return fmt.Errorf("address 0x%X does not fit in %d bits", c.Address, c.AddressBits)
		}
	}

	if c.AlternateLines != LinesNone {
		if c.AlternateBits == 0 || c.AlternateBits%8 != 0 || c.AlternateBits > 32 {
			return fmt.Errorf("invalid alternate width %d bits", c.AlternateBits)
		}
	}

	if c.HasData() {
		if c.Direction != DirRead && c.Direction != DirWrite {
			return fmt.Errorf("data phase of command 0x%02X has no direction", c.Instruction)
		}
		if c.DataLength < 0 {
			return fmt.Errorf("negative data length %d", c.DataLength)
		}
	} else if c.Direction != DirNone || c.DataLength != 0 {
		return fmt.Errorf("command 0x%02X has a direction or length but no data phase", c.Instruction)
	}

	return nil
}

func validLines(l Lines) bool {
	switch l {
	case LinesNone, Lines1, Lines2, Lines4:
		return true
	}
	return false
}

func (c *Command) String() string {
	s := fmt.Sprintf("cmd=0x%02X", c.Instruction)
	if c.AddressLines != LinesNone {
		s += fmt.Sprintf(" addr=0x%06X/%d", c.Address, c.AddressLines)
	}
	if c.AlternateLines != LinesNone {
		s += fmt.Sprintf(" alt=0x%02X/%d", c.AlternateBytes, c.AlternateLines)
	}
	if c.DummyCycles > 0 {
		s += fmt.Sprintf(" dummy=%d", c.DummyCycles)
	}
	if c.HasData() {
		s += fmt.Sprintf(" %s=%d/%d", c.Direction, c.DataLength, c.DataLines)
	}
	return s
}

// MatchMode selects how a polled register is compared against a Predicate.
type MatchMode uint8

// Match modes.
const (
	// MatchAllSet completes when every bit in Mask is set
	MatchAllSet MatchMode = iota

	// MatchAllClear completes when every bit in Mask is clear
	MatchAllClear
)

// Predicate decides when an automatically polled status read indicates
// completion.
type Predicate struct {
	// Match is the expected value of the masked bits
	Match byte

	// Mask selects the bits that are compared
	Mask byte

	// Mode is the comparison mode
	Mode MatchMode

	// Interval is the number of controller cycles between two reads
	Interval uint16
}

// Matches reports whether reg satisfies the predicate.
func (p Predicate) Matches(reg byte) bool {
	if p.Mode == MatchAllClear {
		return reg&p.Mask == 0
	}
	return reg&p.Mask == p.Match&p.Mask
}

// MemReady is the predicate for "no write in progress".
func MemReady() Predicate {
	return Predicate{
		Match:    0,
		Mask:     SRWriteInProgress,
		Mode:     MatchAllClear,
		Interval: DefaultPollInterval,
	}
}

// WriteEnabled is the predicate for "write enable latch set".
func WriteEnabled() Predicate {
	return Predicate{
		Match:    SRWriteEnableLatch,
		Mask:     SRWriteEnableLatch,
		Mode:     MatchAllSet,
		Interval: DefaultPollInterval,
	}
}

// Geometry describes the memory array. It is fixed per chip and never
// mutated.
type Geometry struct {
	// FlashSize is the total size in bytes
	FlashSize uint32

	// BlockSize is the block erase size in bytes
	BlockSize uint32

	// SectorSize is the sector erase size in bytes
	SectorSize uint32

	// SectorCount is the number of erasable sectors
	SectorCount uint32

	// PageSize is the program page size in bytes
	PageSize uint32

	// PageCount is the number of program pages
	PageCount uint32
}

// MX25R6435F is the geometry of the 64 Mbit part.
var MX25R6435F = Geometry{
	FlashSize:   FlashSize,
	BlockSize:   BlockSize,
	SectorSize:  SectorSize,
	SectorCount: FlashSize / SectorSize,
	PageSize:    PageSize,
	PageCount:   FlashSize / PageSize,
}

// SizeLog2 returns log2 of the flash size, the form controllers expect in
// their device size field.
func (g Geometry) SizeLog2() uint8 {
	var n uint8
	for s := g.FlashSize; s > 1; s >>= 1 {
		n++
	}
	return n
}

// Chunk is one page-bounded program unit of a larger write.
type Chunk struct {
	// Address is the flash address of the first byte
	Address uint32

	// Offset is the position of the first byte in the source buffer
	Offset int

	// Length is the number of bytes; never crosses a page boundary
	Length int
}
