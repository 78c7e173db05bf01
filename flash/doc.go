// Package flash drives a Macronix MX25R6435F quad-SPI NOR flash.
//
// # Overview
//
// A Device turns high-level operations into ordered quad-SPI transactions:
//   - Initializing the chip: reset, quad mode, high-performance mode
//   - Reading with the quad I/O read command
//   - Writing with page-bounded quad page programs
//   - Erasing sectors, blocks or the whole chip
//   - Suspending and resuming an erase
//   - Entering and leaving deep power-down
//
// # Basic Usage
//
//	// User provides the controller (flash.Bus)
//	bus := board.QSPI()
//
//	dev := flash.New(bus)
//	if err := dev.Init(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer dev.Deinit(ctx)
//
//	if err := dev.EraseBlock(ctx, 0x10000); err != nil {
//	    log.Fatal(err)
//	}
//	if err := dev.Write(ctx, 0x10000, data); err != nil {
//	    log.Fatal(err)
//	}
//
// # Sector Erase
//
// EraseSector returns as soon as the chip accepts the command. The erase
// runs on inside the chip; the caller learns when it is done by polling
// Status or calling WaitReady:
//
//	if err := dev.EraseSector(ctx, 12); err != nil {
//	    return err
//	}
//	// ... do other work ...
//	if err := dev.WaitReady(ctx, protocol.SectorEraseMaxTime); err != nil {
//	    return err
//	}
//
// # Configuration Options
//
//	dev := flash.New(bus,
//	    flash.WithProgressCallback(progressFunc),
//	    flash.WithLogger(myLogger),
//	    flash.WithBusClock(110*physic.MegaHertz),
//	    flash.WithChipEraseTimeout(5*time.Minute),
//	)
//
// # Error Handling
//
// Operations return errors; none are retried. The package provides:
//   - ErrNotInitialized: Init has not succeeded
//   - ErrNotSupported: the chip did not answer reset, or the bus cannot map memory
//   - SectorRangeError, AddressRangeError: request outside the array
//   - VerifyError: a mode bit did not stick
//   - PinError: the pins do not share one controller
//   - protocol.UnexpectedStatusError: suspend or resume did not reach the expected state
//
// StatusOf maps any of these onto a protocol.Status.
//
// # Hardware Independence
//
// This package does NOT drive hardware registers. Users provide a Bus that
// executes protocol.Command descriptors on their controller; package stm32
// encodes descriptors for the STM32 QUADSPI and OCTOSPI peripherals, and
// package flashsim provides a simulated chip.
//
// A Device is not safe for concurrent use.
package flash
