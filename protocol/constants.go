package protocol

import (
	"time"

	"periph.io/x/conn/v3/physic"
)

// Memory geometry of the MX25R6435F (64 Mbit).
const (
	// FlashSize is the total array size in bytes (8 MiB)
	FlashSize = 0x800000

	// BlockSize is the 64 KiB block erase granularity
	BlockSize = 0x10000

	// SectorSize is the 4 KiB sector erase granularity
	SectorSize = 0x1000

	// PageSize is the program page size; a program command wraps inside one page
	PageSize = 0x100

	// MaxAddress is the largest value an Address24 phase can carry
	MaxAddress = 0xFFFFFF
)

// Command opcodes per MX25R6435F datasheet table 6.
const (
	// Reset and power operations
	CmdResetEnable   = 0x66
	CmdResetMemory   = 0x99
	CmdNoOperation   = 0x00
	CmdDeepPowerDown = 0xB9

	// Identification
	CmdReadID             = 0x9F
	CmdReadElectronicID   = 0xAB
	CmdReadManufacturerID = 0x90
	CmdReadSFDP           = 0x5A

	// Read operations
	CmdRead          = 0x03
	CmdFastRead      = 0x0B
	CmdDualOutRead   = 0x3B
	CmdDualInOutRead = 0xBB
	CmdQuadOutRead   = 0x6B
	CmdQuadInOutRead = 0xEB

	// Write enable/disable
	CmdWriteEnable  = 0x06
	CmdWriteDisable = 0x04

	// Register operations
	CmdReadStatusReg     = 0x05
	CmdReadConfigReg     = 0x15
	CmdWriteStatusConfig = 0x01
	CmdReadSecurityReg   = 0x2B
	CmdWriteSecurityReg  = 0x2F

	// Program operations
	CmdPageProgram     = 0x02
	CmdQuadPageProgram = 0x38

	// Erase operations
	CmdSectorErase   = 0x20
	CmdBlockErase32K = 0x52
	CmdBlockErase    = 0xD8
	CmdChipErase     = 0x60
	CmdChipEraseAlt  = 0xC7
	CmdSuspend       = 0xB0
	CmdResume        = 0x30
)

// Status register bits.
const (
	// SRWriteInProgress is set while a program, erase or register write runs
	SRWriteInProgress = 0x01

	// SRWriteEnableLatch must be set before any program, erase or register write
	SRWriteEnableLatch = 0x02

	// SRBlockProtect covers the four block protect bits BP0-BP3
	SRBlockProtect = 0x3C

	// SRQuadEnable enables the 4-line address and data phases
	SRQuadEnable = 0x40

	// SRWriteProtectDisable is the status register write disable bit
	SRWriteProtectDisable = 0x80
)

// Configuration register bits. CR1 is byte 0 and CR2 is byte 1 of the
// 2-byte configuration register read.
const (
	// CR1TopBottom selects top or bottom block protection
	CR1TopBottom = 0x08

	// CR1DummyCycle selects the extended dummy cycle count
	CR1DummyCycle = 0x40

	// CR2LowHighSwitch selects high-performance mode when set
	CR2LowHighSwitch = 0x02
)

// Security register bits.
const (
	// SECRSecuredOTP indicates the factory secured OTP area
	SECRSecuredOTP = 0x01

	// SECRLockDown indicates the customer OTP area is locked
	SECRLockDown = 0x02

	// SECRProgramSuspended is set while a program is suspended
	SECRProgramSuspended = 0x04

	// SECREraseSuspended is set while an erase is suspended
	SECREraseSuspended = 0x08

	// SECRProgramFail is set when the last program failed
	SECRProgramFail = 0x20

	// SECREraseFail is set when the last erase failed
	SECREraseFail = 0x40

	// SECRWriteProtectSelect selects individual block protection
	SECRWriteProtectSelect = 0x80
)

// Read timing.
const (
	// DummyCyclesReadQuad is the dummy count for 4READ (0xEB) with the default CR1
	DummyCyclesReadQuad = 4

	// DummyCyclesRead is the dummy count for FAST_READ (0x0B)
	DummyCyclesRead = 8

	// AltBytesPerformanceEnhance keeps the chip in performance-enhance mode
	AltBytesPerformanceEnhance = 0xA5

	// AltBytesNoPerformanceEnhance leaves performance-enhance mode
	AltBytesNoPerformanceEnhance = 0xAA
)

// Identification values.
const (
	// ManufacturerMacronix is the JEDEC manufacturer ID
	ManufacturerMacronix = 0xC2

	// MemoryTypeMX25R is the JEDEC memory type byte
	MemoryTypeMX25R = 0x28

	// MemoryDensity64Mbit is the JEDEC capacity byte
	MemoryDensity64Mbit = 0x17
)

// Maximum operation times per datasheet table 19. These are the worst-case
// values and are used as default timeouts.
const (
	ChipEraseMaxTime   = 240 * time.Second
	BlockEraseMaxTime  = 3500 * time.Millisecond
	SectorEraseMaxTime = 240 * time.Millisecond
	PageProgramMaxTime = 10 * time.Millisecond
	ResetMaxTime       = 100 * time.Millisecond
)

// Deep power-down settle times. The engine issues the instruction only; the
// caller must wait before the next command.
const (
	// DeepPowerDownEntry is the time the chip needs to enter deep power-down
	DeepPowerDownEntry = 10 * time.Microsecond

	// DeepPowerDownExit is the time the chip needs to leave deep power-down
	DeepPowerDownExit = 35 * time.Microsecond
)

// MaxClock is the highest clock the chip accepts in high-performance mode.
const MaxClock = 80 * physic.MegaHertz

// DefaultPollInterval is the number of controller clock cycles between two
// status reads during automatic polling.
const DefaultPollInterval = 0x10

// MappedBaseAddress is where the controller exposes the array in
// memory-mapped mode.
const MappedBaseAddress uintptr = 0x90000000
