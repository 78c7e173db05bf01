package stm32

import (
	"fmt"

	"github.com/moffa90/go-mx25r/flash"
)

// QUADSPI_CR and QUADSPI_DCR field positions
const (
	qspiCRPrescaler = 24 // PRESCALER[31:24]
	qspiCRFThres    = 8  // FTHRES[11:8]
	qspiCREnable    = 0  // EN

	qspiDCRFSize  = 16 // FSIZE[20:16]
	qspiDCRCSHT   = 8  // CSHT[10:8]
	qspiDCRCKMode = 0  // CKMODE
)

// OCTOSPI_CR, OCTOSPI_DCR1 and OCTOSPI_DCR2 field positions
const (
	ospiCRFThres = 8 // FTHRES[12:8]
	ospiCREnable = 0 // EN

	ospiDCR1MTyp    = 24 // MTYP[26:24]
	ospiDCR1DevSize = 16 // DEVSIZE[20:16]
	ospiDCR1CSHT    = 8  // CSHT[10:8]
	ospiDCR1CKMode  = 0  // CKMODE

	ospiDCR2Prescaler = 0 // PRESCALER[7:0]

	// Macronix memory type
	ospiMTypMacronix = 0
)

// QUADSPIConfig holds the QUADSPI control and device configuration
// registers.
type QUADSPIConfig struct {
	CR  uint32
	DCR uint32
}

// OCTOSPIConfig holds the OCTOSPI control and device configuration
// registers.
type OCTOSPIConfig struct {
	CR   uint32
	DCR1 uint32
	DCR2 uint32
}

// EncodeQUADSPIConfig translates a bus configuration into QUADSPI register
// values with the controller enabled. The device size field holds
// log2(size)-1.
func EncodeQUADSPIConfig(cfg flash.BusConfig) (QUADSPIConfig, error) {
	if err := checkConfig(cfg, 16); err != nil {
		return QUADSPIConfig{}, err
	}

	return QUADSPIConfig{
		CR: uint32(cfg.ClockPrescaler)<<qspiCRPrescaler |
			uint32(cfg.FifoThreshold-1)<<qspiCRFThres |
			1<<qspiCREnable,
		DCR: uint32(cfg.FlashSize-1)<<qspiDCRFSize |
			uint32(cfg.ChipSelectHighCycles-1)<<qspiDCRCSHT |
			clockModeBit(cfg.ClockMode)<<qspiDCRCKMode,
	}, nil
}

// EncodeOCTOSPIConfig translates a bus configuration into OCTOSPI register
// values with the controller enabled. The device size field holds
// log2(size).
func EncodeOCTOSPIConfig(cfg flash.BusConfig) (OCTOSPIConfig, error) {
	if err := checkConfig(cfg, 32); err != nil {
		return OCTOSPIConfig{}, err
	}

	return OCTOSPIConfig{
		CR: uint32(cfg.FifoThreshold-1)<<ospiCRFThres |
			1<<ospiCREnable,
		DCR1: ospiMTypMacronix<<ospiDCR1MTyp |
			uint32(cfg.FlashSize)<<ospiDCR1DevSize |
			uint32(cfg.ChipSelectHighCycles-1)<<ospiDCR1CSHT |
			clockModeBit(cfg.ClockMode)<<ospiDCR1CKMode,
		DCR2: uint32(cfg.ClockPrescaler) << ospiDCR2Prescaler,
	}, nil
}

func checkConfig(cfg flash.BusConfig, fifo uint8) error {
	if cfg.FlashSize < 1 || cfg.FlashSize > 32 {
		return fmt.Errorf("invalid device size 2^%d", cfg.FlashSize)
	}
	if cfg.FifoThreshold < 1 || cfg.FifoThreshold > fifo {
		return fmt.Errorf("FIFO threshold %d out of range 1-%d", cfg.FifoThreshold, fifo)
	}
	if cfg.ChipSelectHighCycles < 1 || cfg.ChipSelectHighCycles > 8 {
		return fmt.Errorf("chip select high time %d out of range 1-8", cfg.ChipSelectHighCycles)
	}
	if cfg.ClockMode != 0 && cfg.ClockMode != 3 {
		return fmt.Errorf("unsupported clock mode %d", cfg.ClockMode)
	}
	return nil
}

func clockModeBit(mode uint8) uint32 {
	if mode == 3 {
		return 1
	}
	return 0
}
