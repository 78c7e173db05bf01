package stm32

import (
	"fmt"

	"github.com/moffa90/go-mx25r/protocol"
)

// FunctionalMode selects what the controller does with a command. The
// values are the FMODE field encoding of both controllers.
type FunctionalMode uint8

// Functional modes.
const (
	IndirectWrite FunctionalMode = iota
	IndirectRead
	AutoPolling
	MemoryMapped
)

func (m FunctionalMode) String() string {
	switch m {
	case IndirectWrite:
		return "indirect-write"
	case IndirectRead:
		return "indirect-read"
	case AutoPolling:
		return "auto-polling"
	case MemoryMapped:
		return "memory-mapped"
	default:
		return fmt.Sprintf("FunctionalMode(%d)", uint8(m))
	}
}

// QUADSPI_CCR field positions (RM0351 section 17.5.6)
const (
	qspiCCRInstruction = 0  // INSTRUCTION[7:0]
	qspiCCRIMode       = 8  // IMODE[9:8]
	qspiCCRADMode      = 10 // ADMODE[11:10]
	qspiCCRADSize      = 12 // ADSIZE[13:12]
	qspiCCRABMode      = 14 // ABMODE[15:14]
	qspiCCRABSize      = 16 // ABSIZE[17:16]
	qspiCCRDCyc        = 18 // DCYC[22:18]
	qspiCCRDMode       = 24 // DMODE[25:24]
	qspiCCRFMode       = 26 // FMODE[27:26]
)

// OCTOSPI_CCR field positions (RM0432 section 24.7.17)
const (
	ospiCCRIMode  = 0  // IMODE[2:0]
	ospiCCRISize  = 4  // ISIZE[5:4]
	ospiCCRADMode = 8  // ADMODE[10:8]
	ospiCCRADSize = 12 // ADSIZE[13:12]
	ospiCCRABMode = 16 // ABMODE[18:16]
	ospiCCRABSize = 20 // ABSIZE[21:20]
	ospiCCRDMode  = 24 // DMODE[26:24]

	ospiCRFMode = 28 // CR FMODE[29:28]
	ospiCRPMM   = 23 // CR PMM, polling match mode

	ospiTCRDCyc = 0 // TCR DCYC[4:0]
)

// MaxDummyCycles is the largest dummy count both controllers can encode.
const MaxDummyCycles = 31

// QUADSPIRegs holds the register values the QUADSPI controller needs for
// one command.
type QUADSPIRegs struct {
	CCR uint32 // communication configuration
	AR  uint32 // address
	ABR uint32 // alternate bytes
	DLR uint32 // data length minus one
}

// OCTOSPIRegs holds the register values the OCTOSPI controller needs for
// one command. CR carries the FMODE field only; the caller merges it into
// the control register.
type OCTOSPIRegs struct {
	CR  uint32
	CCR uint32
	TCR uint32
	IR  uint32
	AR  uint32
	ABR uint32
	DLR uint32
}

// EncodeQUADSPI translates a command descriptor into QUADSPI register
// values.
func EncodeQUADSPI(cmd *protocol.Command, mode FunctionalMode) (QUADSPIRegs, error) {
	if err := check(cmd, mode); err != nil {
		return QUADSPIRegs{}, err
	}

	ccr := uint32(cmd.Instruction)<<qspiCCRInstruction |
		lineMode(cmd.InstructionLines)<<qspiCCRIMode |
		lineMode(cmd.AddressLines)<<qspiCCRADMode |
		lineMode(cmd.AlternateLines)<<qspiCCRABMode |
		uint32(cmd.DummyCycles)<<qspiCCRDCyc |
		lineMode(cmd.DataLines)<<qspiCCRDMode |
		uint32(mode)<<qspiCCRFMode

	if cmd.AddressLines != protocol.LinesNone {
		ccr |= sizeCode(cmd.AddressBits) << qspiCCRADSize
	}
	if cmd.AlternateLines != protocol.LinesNone {
		ccr |= sizeCode(cmd.AlternateBits) << qspiCCRABSize
	}

	return QUADSPIRegs{
		CCR: ccr,
		AR:  cmd.Address,
		ABR: cmd.AlternateBytes,
		DLR: dataLength(cmd),
	}, nil
}

// EncodeOCTOSPI translates a command descriptor into OCTOSPI register
// values. The instruction is always one byte wide.
func EncodeOCTOSPI(cmd *protocol.Command, mode FunctionalMode) (OCTOSPIRegs, error) {
	if err := check(cmd, mode); err != nil {
		return OCTOSPIRegs{}, err
	}

	ccr := lineMode(cmd.InstructionLines)<<ospiCCRIMode |
		0<<ospiCCRISize |
		lineMode(cmd.AddressLines)<<ospiCCRADMode |
		lineMode(cmd.AlternateLines)<<ospiCCRABMode |
		lineMode(cmd.DataLines)<<ospiCCRDMode

	if cmd.AddressLines != protocol.LinesNone {
		ccr |= sizeCode(cmd.AddressBits) << ospiCCRADSize
	}
	if cmd.AlternateLines != protocol.LinesNone {
		ccr |= sizeCode(cmd.AlternateBits) << ospiCCRABSize
	}

	return OCTOSPIRegs{
		CR:  uint32(mode) << ospiCRFMode,
		CCR: ccr,
		TCR: uint32(cmd.DummyCycles) << ospiTCRDCyc,
		IR:  uint32(cmd.Instruction),
		AR:  cmd.Address,
		ABR: cmd.AlternateBytes,
		DLR: dataLength(cmd),
	}, nil
}

// PollRegs holds the automatic polling registers. Both controllers use the
// same layout for PSMKR, PSMAR and PIR.
type PollRegs struct {
	PSMKR uint32 // status mask
	PSMAR uint32 // status match
	PIR   uint32 // polling interval in clock cycles

	// PMM is the polling match mode bit, false for AND
	PMM bool
}

// EncodePoll translates a completion predicate into polling registers.
// Both match modes compare every masked bit, so PMM is always AND.
func EncodePoll(p protocol.Predicate) PollRegs {
	match := p.Match & p.Mask
	if p.Mode == protocol.MatchAllClear {
		match = 0
	}
	return PollRegs{
		PSMKR: uint32(p.Mask),
		PSMAR: uint32(match),
		PIR:   uint32(p.Interval),
	}
}

// OCTOSPIPollCR returns the control register bits OCTOSPI needs for an
// automatic poll: FMODE and PMM. The QUADSPI equivalent lives in CR too,
// at the same PMM position.
func OCTOSPIPollCR(p PollRegs) uint32 {
	cr := uint32(AutoPolling) << ospiCRFMode
	if p.PMM {
		cr |= 1 << ospiCRPMM
	}
	return cr
}

func check(cmd *protocol.Command, mode FunctionalMode) error {
	if cmd == nil {
		return fmt.Errorf("nil command")
	}
	if err := cmd.Validate(); err != nil {
		return err
	}
	if mode > MemoryMapped {
		return fmt.Errorf("invalid functional mode %d", mode)
	}
	if cmd.DummyCycles > MaxDummyCycles {
		return fmt.Errorf("%d dummy cycles exceed the maximum of %d", cmd.DummyCycles, MaxDummyCycles)
	}

	switch mode {
	case IndirectWrite:
		if cmd.HasData() && cmd.Direction != protocol.DirWrite {
			return fmt.Errorf("command 0x%02X: %s data phase in %s mode", cmd.Instruction, cmd.Direction, mode)
		}
	case IndirectRead, AutoPolling, MemoryMapped:
		if !cmd.HasData() || cmd.Direction != protocol.DirRead {
			return fmt.Errorf("command 0x%02X: %s mode needs a read data phase", cmd.Instruction, mode)
		}
	}
	return nil
}

// lineMode maps a line count onto the 2- or 3-bit mode fields. Both
// controllers use 0 none, 1 single, 2 dual, 3 quad.
func lineMode(l protocol.Lines) uint32 {
	switch l {
	case protocol.Lines1:
		return 1
	case protocol.Lines2:
		return 2
	case protocol.Lines4:
		return 3
	}
	return 0
}

// sizeCode maps a width in bits onto the 2-bit size fields.
func sizeCode(bits uint8) uint32 {
	return uint32(bits/8) - 1
}

func dataLength(cmd *protocol.Command) uint32 {
	if cmd.DataLength == 0 {
		return 0
	}
	return uint32(cmd.DataLength - 1)
}
