package protocol

import "fmt"

// simpleCmd returns an instruction-only descriptor on one line.
func simpleCmd(instruction byte) *Command {
	return &Command{
		Instruction:      instruction,
		InstructionLines: Lines1,
	}
}

// registerReadCmd returns a single-line register read of n bytes.
func registerReadCmd(instruction byte, n int) *Command {
	return &Command{
		Instruction:      instruction,
		InstructionLines: Lines1,
		Direction:        DirRead,
		DataLines:        Lines1,
		DataLength:       n,
	}
}

func checkRange(addr uint32, n int) error {
	if addr > MaxAddress {
		return fmt.Errorf("address 0x%X exceeds 24-bit range", addr)
	}
	if n <= 0 {
		return fmt.Errorf("data length must be positive, got %d", n)
	}
	if uint64(addr)+uint64(n) > MaxAddress+1 {
		return fmt.Errorf("transfer of %d bytes at 0x%06X exceeds 24-bit range", n, addr)
	}
	return nil
}

// BuildReadCmd constructs a quad I/O read (4READ) descriptor.
//
// Phases:
//
//	[0xEB x1][ADDR(24) x4][ALT 0xAA x4][DUMMY 4][DATA(n) x4]
func BuildReadCmd(addr uint32, n int) (*Command, error) {
	if err := checkRange(addr, n); err != nil {
		return nil, err
	}

	return &Command{
		Instruction:      CmdQuadInOutRead,
		InstructionLines: Lines1,
		Address:          addr,
		AddressLines:     Lines4,
		AddressBits:      Address24,
		AlternateBytes:   AltBytesNoPerformanceEnhance,
		AlternateLines:   Lines4,
		AlternateBits:    Alternate8,
		DummyCycles:      DummyCyclesReadQuad,
		Direction:        DirRead,
		DataLines:        Lines4,
		DataLength:       n,
	}, nil
}

// BuildQuadPageProgramCmd constructs a quad page program (4PP) descriptor.
// The chip wraps inside the page, so addr+n must not cross a page boundary;
// SplitPages produces suitable chunks.
//
// Phases:
//
//	[0x38 x1][ADDR(24) x4][DATA(n) x4]
func BuildQuadPageProgramCmd(addr uint32, n int) (*Command, error) {
	if err := checkRange(addr, n); err != nil {
		return nil, err
	}
	if n > PageSize {
		return nil, fmt.Errorf("data length %d exceeds page size %d", n, PageSize)
	}
	if addr%PageSize+uint32(n) > PageSize {
		return nil, fmt.Errorf("program of %d bytes at 0x%06X crosses a page boundary", n, addr)
	}

	return &Command{
		Instruction:      CmdQuadPageProgram,
		InstructionLines: Lines1,
		Address:          addr,
		AddressLines:     Lines4,
		AddressBits:      Address24,
		Direction:        DirWrite,
		DataLines:        Lines4,
		DataLength:       n,
	}, nil
}

// addressedCmd returns a single-line instruction followed by a single-line
// 24-bit address and no data.
func addressedCmd(instruction byte, addr uint32) (*Command, error) {
	if addr > MaxAddress {
		return nil, fmt.Errorf("address 0x%X exceeds 24-bit range", addr)
	}

	return &Command{
		Instruction:      instruction,
		InstructionLines: Lines1,
		Address:          addr,
		AddressLines:     Lines1,
		AddressBits:      Address24,
	}, nil
}

// BuildBlockEraseCmd constructs a 64 KiB block erase descriptor.
//
// Phases:
//
//	[0xD8 x1][ADDR(24) x1]
func BuildBlockEraseCmd(addr uint32) (*Command, error) {
	return addressedCmd(CmdBlockErase, addr)
}

// BuildSectorEraseCmd constructs a 4 KiB sector erase descriptor.
//
// Phases:
//
//	[0x20 x1][ADDR(24) x1]
func BuildSectorEraseCmd(addr uint32) (*Command, error) {
	return addressedCmd(CmdSectorErase, addr)
}

// BuildChipEraseCmd constructs a chip erase descriptor.
func BuildChipEraseCmd() (*Command, error) {
	return simpleCmd(CmdChipErase), nil
}

// BuildWriteEnableCmd constructs a write enable descriptor.
func BuildWriteEnableCmd() (*Command, error) {
	return simpleCmd(CmdWriteEnable), nil
}

// BuildReadStatusCmd constructs a 1-byte status register read descriptor.
// It is also the descriptor used for automatic polling.
func BuildReadStatusCmd() (*Command, error) {
	return registerReadCmd(CmdReadStatusReg, 1), nil
}

// BuildReadConfigCmd constructs a 2-byte configuration register read
// descriptor. Byte 0 is CR1 and byte 1 is CR2.
func BuildReadConfigCmd() (*Command, error) {
	return registerReadCmd(CmdReadConfigReg, 2), nil
}

// BuildReadSecurityCmd constructs a 1-byte security register read
// descriptor.
func BuildReadSecurityCmd() (*Command, error) {
	return registerReadCmd(CmdReadSecurityReg, 1), nil
}

// BuildWriteStatusConfigCmd constructs a status/configuration register
// write of n bytes: 1 writes SR, 2 writes SR and CR1, 3 writes SR, CR1 and
// CR2.
func BuildWriteStatusConfigCmd(n int) (*Command, error) {
	if n < 1 || n > 3 {
		return nil, fmt.Errorf("status/config write must be 1 to 3 bytes, got %d", n)
	}

	return &Command{
		Instruction:      CmdWriteStatusConfig,
		InstructionLines: Lines1,
		Direction:        DirWrite,
		DataLines:        Lines1,
		DataLength:       n,
	}, nil
}

// BuildResetEnableCmd constructs the first half of the software reset.
func BuildResetEnableCmd() (*Command, error) {
	return simpleCmd(CmdResetEnable), nil
}

// BuildResetMemoryCmd constructs the second half of the software reset.
// The chip ignores it unless it directly follows reset enable.
func BuildResetMemoryCmd() (*Command, error) {
	return simpleCmd(CmdResetMemory), nil
}

// BuildSuspendCmd constructs a program/erase suspend descriptor.
func BuildSuspendCmd() (*Command, error) {
	return simpleCmd(CmdSuspend), nil
}

// BuildResumeCmd constructs a program/erase resume descriptor.
func BuildResumeCmd() (*Command, error) {
	return simpleCmd(CmdResume), nil
}

// BuildDeepPowerDownCmd constructs a deep power-down entry descriptor.
func BuildDeepPowerDownCmd() (*Command, error) {
	return simpleCmd(CmdDeepPowerDown), nil
}

// BuildNoOperationCmd constructs a NOP descriptor. Pulsing chip select with
// a NOP is how the chip is brought out of deep power-down.
func BuildNoOperationCmd() (*Command, error) {
	return simpleCmd(CmdNoOperation), nil
}

// BuildReadIDCmd constructs a JEDEC ID read descriptor (3 bytes:
// manufacturer, memory type, density).
func BuildReadIDCmd() (*Command, error) {
	return registerReadCmd(CmdReadID, 3), nil
}

// BuildMemoryMappedReadCmd constructs the read descriptor programmed into
// the controller for memory-mapped mode. It has no data length.
func BuildMemoryMappedReadCmd() (*Command, error) {
	return &Command{
		Instruction:      CmdQuadInOutRead,
		InstructionLines: Lines1,
		AddressLines:     Lines4,
		AddressBits:      Address24,
		AlternateBytes:   AltBytesNoPerformanceEnhance,
		AlternateLines:   Lines4,
		AlternateBits:    Alternate8,
		DummyCycles:      DummyCyclesReadQuad,
		Direction:        DirRead,
		DataLines:        Lines4,
	}, nil
}

// BuildMemoryMappedWriteCmd constructs the write descriptor programmed into
// controllers that also map writes (OCTOSPI). Controllers that map reads
// only ignore it.
func BuildMemoryMappedWriteCmd() (*Command, error) {
	return &Command{
		Instruction:      CmdQuadPageProgram,
		InstructionLines: Lines1,
		AddressLines:     Lines4,
		AddressBits:      Address24,
		Direction:        DirWrite,
		DataLines:        Lines4,
	}, nil
}
