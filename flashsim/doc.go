// Package flashsim simulates an MX25R6435F behind a quad-SPI controller.
//
// A Chip implements flash.Bus and flash.MemoryMapper, so a flash.Device can
// be driven end to end without hardware:
//
//	chip := flashsim.New()
//	dev := flash.New(chip)
//	if err := dev.Init(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// The model follows the datasheet behaviour the driver depends on: the
// write enable latch, the write-in-progress bit, page wrap on program,
// erase suspend and resume, deep power-down and the two-step reset. Quad
// commands are ignored until the quad enable bit is set.
//
// # Virtual Time
//
// Internal operations take the durations in Timing, measured on a virtual
// clock. The clock moves only while AutoPoll waits (one poll step per
// status read) or when Advance is called.
//
// # Fault Injection
//
//   - FailNextProgram, FailNextErase: the chip reports a failure in the
//     security register
//   - LockConfig: register writes leave the mode bits unchanged
//   - SetIgnored: the chip drops one instruction
//   - InjectError: the next transaction with an instruction fails on the bus
//   - SetUnresponsive: the chip is gone
//
// # Trace
//
// Every transaction is recorded and returned by Trace, so tests can check
// exactly what the driver sent.
package flashsim
