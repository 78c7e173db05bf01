// Package stm32 encodes command descriptors for the STM32 quad-SPI
// controllers.
//
// Two controller generations are covered: QUADSPI (STM32L4, F4, F7) and
// OCTOSPI (STM32L4+, L5, U5). A flash.Bus implementation for either part
// writes the values returned here into the peripheral:
//
//	regs, err := stm32.EncodeQUADSPI(cmd, stm32.IndirectRead)
//	if err != nil {
//	    return err
//	}
//	qspi.DLR.Set(regs.DLR)
//	qspi.CCR.Set(regs.CCR)
//	qspi.AR.Set(regs.AR)
//
// The two generations differ in the device size field: QUADSPI stores
// log2(size)-1, OCTOSPI stores log2(size). EncodeQUADSPIConfig and
// EncodeOCTOSPIConfig take care of that.
//
// PinMap resolves board pins for flash.WithPins.
package stm32
