package flash

import (
	"context"
	"fmt"
	"time"

	"github.com/moffa90/go-mx25r/protocol"
)

// readRegister issues a register read built by build and receives n bytes.
func (d *Device) readRegister(ctx context.Context, build func() (*protocol.Command, error), buf []byte) error {
	cmd, err := build()
	if err != nil {
		return err
	}
	cmd.DataLength = len(buf)

	if err := d.bus.Command(ctx, cmd, d.config.Timeouts.Default); err != nil {
		return fmt.Errorf("command 0x%02X: %w", cmd.Instruction, err)
	}
	if err := d.bus.Receive(ctx, buf, d.config.Timeouts.Default); err != nil {
		return fmt.Errorf("receive 0x%02X: %w", cmd.Instruction, err)
	}
	return nil
}

// writeRegisters writes buf (status, then configuration bytes) with the
// write status/configuration command.
func (d *Device) writeRegisters(ctx context.Context, buf []byte) error {
	cmd, err := protocol.BuildWriteStatusConfigCmd(len(buf))
	if err != nil {
		return err
	}

	if err := d.bus.Command(ctx, cmd, d.config.Timeouts.Default); err != nil {
		return fmt.Errorf("write registers command: %w", err)
	}
	if err := d.bus.Transmit(ctx, buf, d.config.Timeouts.Default); err != nil {
		return fmt.Errorf("write registers data: %w", err)
	}
	return nil
}

// simple issues an instruction-only command.
func (d *Device) simple(ctx context.Context, build func() (*protocol.Command, error)) error {
	cmd, err := build()
	if err != nil {
		return err
	}
	if err := d.bus.Command(ctx, cmd, d.config.Timeouts.Default); err != nil {
		return fmt.Errorf("command 0x%02X: %w", cmd.Instruction, err)
	}
	return nil
}

// pollReady waits for the write-in-progress bit to clear.
func (d *Device) pollReady(ctx context.Context, timeout time.Duration) error {
	cmd, err := protocol.BuildReadStatusCmd()
	if err != nil {
		return err
	}
	if err := d.bus.AutoPoll(ctx, cmd, protocol.MemReady(), timeout); err != nil {
		return fmt.Errorf("wait for ready: %w", err)
	}
	return nil
}

// writeEnable sets the write enable latch and waits until the chip reports
// it. The chip clears the latch after every program, erase or register
// write, so this precedes each of them.
func (d *Device) writeEnable(ctx context.Context) error {
	if err := d.simple(ctx, protocol.BuildWriteEnableCmd); err != nil {
		return fmt.Errorf("write enable: %w", err)
	}

	cmd, err := protocol.BuildReadStatusCmd()
	if err != nil {
		return err
	}
	if err := d.bus.AutoPoll(ctx, cmd, protocol.WriteEnabled(), d.config.Timeouts.Default); err != nil {
		return fmt.Errorf("wait for write enable latch: %w", err)
	}
	return nil
}

// resetMemory issues the two-step software reset and waits for the chip to
// come back.
func (d *Device) resetMemory(ctx context.Context) error {
	if err := d.simple(ctx, protocol.BuildResetEnableCmd); err != nil {
		return fmt.Errorf("reset enable: %w", err)
	}
	if err := d.simple(ctx, protocol.BuildResetMemoryCmd); err != nil {
		return fmt.Errorf("reset memory: %w", err)
	}
	return d.pollReady(ctx, d.config.Timeouts.Default)
}

// WaitReady blocks until no program or erase is in progress, or the timeout
// elapses. Use it after EraseSector, which returns as soon as the chip
// accepts the command.
func (d *Device) WaitReady(ctx context.Context, timeout time.Duration) error {
	if err := d.checkInit(); err != nil {
		return err
	}
	return d.pollReady(ctx, timeout)
}

// Status reports the chip state from the security and status registers.
// A failed program or erase reported by the chip is StatusError, returned
// with a nil error; a bus failure is StatusError with the cause.
//
// Status does not require Init, so it can probe a chip whose Init failed.
func (d *Device) Status(ctx context.Context) (protocol.Status, error) {
	var secr, sr [1]byte

	if err := d.readRegister(ctx, protocol.BuildReadSecurityCmd, secr[:]); err != nil {
		return protocol.StatusError, fmt.Errorf("read security register: %w", err)
	}
	if st, ok := protocol.DecodeSecurity(secr[0]); ok {
		return st, nil
	}

	if err := d.readRegister(ctx, protocol.BuildReadStatusCmd, sr[:]); err != nil {
		return protocol.StatusError, fmt.Errorf("read status register: %w", err)
	}
	return protocol.DecodeStatus(secr[0], sr[0]), nil
}

// ReadID returns the JEDEC manufacturer, memory type and density bytes.
func (d *Device) ReadID(ctx context.Context) ([3]byte, error) {
	var id [3]byte
	if err := d.checkInit(); err != nil {
		return id, err
	}
	if err := d.readRegister(ctx, protocol.BuildReadIDCmd, id[:]); err != nil {
		return id, fmt.Errorf("read id: %w", err)
	}
	return id, nil
}

// SetQuadMode sets or clears the quad enable bit and verifies the chip took
// it. Init enables quad mode; reads and programs fail without it.
func (d *Device) SetQuadMode(ctx context.Context, on bool) error {
	if err := d.checkInit(); err != nil {
		return err
	}
	return d.setQuadMode(ctx, on)
}

func (d *Device) setQuadMode(ctx context.Context, on bool) error {
	var sr [1]byte
	if err := d.readRegister(ctx, protocol.BuildReadStatusCmd, sr[:]); err != nil {
		return fmt.Errorf("read status register: %w", err)
	}

	if err := d.writeEnable(ctx); err != nil {
		return err
	}

	if on {
		sr[0] |= protocol.SRQuadEnable
	} else {
		sr[0] &^= protocol.SRQuadEnable
	}
	want := sr[0]

	if err := d.writeRegisters(ctx, sr[:]); err != nil {
		return err
	}
	if err := d.pollReady(ctx, d.config.Timeouts.Default); err != nil {
		return err
	}

	if err := d.readRegister(ctx, protocol.BuildReadStatusCmd, sr[:]); err != nil {
		return fmt.Errorf("read status register: %w", err)
	}
	if sr[0]&protocol.SRQuadEnable != want&protocol.SRQuadEnable {
		d.logError("quad mode verify failed", "status", fmt.Sprintf("0x%02X", sr[0]), "enable", on)
		return &VerifyError{
			Register: "status",
			Mask:     protocol.SRQuadEnable,
			Expected: want,
			Actual:   sr[0],
		}
	}

	d.logDebug("quad mode set", "enable", on)
	return nil
}

// SetHighPerformanceMode sets or clears the low/high power switch bit in
// the second configuration register and verifies the chip took it. The chip
// only accepts the full 80 MHz clock in high-performance mode.
func (d *Device) SetHighPerformanceMode(ctx context.Context, on bool) error {
	if err := d.checkInit(); err != nil {
		return err
	}
	return d.setHighPerformanceMode(ctx, on)
}

func (d *Device) setHighPerformanceMode(ctx context.Context, on bool) error {
	// reg[0] is SR, reg[1] is CR1, reg[2] is CR2. WRSR takes all three in
	// this order.
	var reg [3]byte
	if err := d.readRegister(ctx, protocol.BuildReadStatusCmd, reg[:1]); err != nil {
		return fmt.Errorf("read status register: %w", err)
	}
	if err := d.readRegister(ctx, protocol.BuildReadConfigCmd, reg[1:]); err != nil {
		return fmt.Errorf("read configuration register: %w", err)
	}

	if err := d.writeEnable(ctx); err != nil {
		return err
	}

	if on {
		reg[2] |= protocol.CR2LowHighSwitch
	} else {
		reg[2] &^= protocol.CR2LowHighSwitch
	}
	want := reg[2]

	if err := d.writeRegisters(ctx, reg[:]); err != nil {
		return err
	}
	if err := d.pollReady(ctx, d.config.Timeouts.Default); err != nil {
		return err
	}

	var cr [2]byte
	if err := d.readRegister(ctx, protocol.BuildReadConfigCmd, cr[:]); err != nil {
		return fmt.Errorf("read configuration register: %w", err)
	}
	if cr[1]&protocol.CR2LowHighSwitch != want&protocol.CR2LowHighSwitch {
		d.logError("high-performance mode verify failed", "config", fmt.Sprintf("0x%02X%02X", cr[0], cr[1]), "enable", on)
		return &VerifyError{
			Register: "configuration",
			Mask:     protocol.CR2LowHighSwitch,
			Expected: want,
			Actual:   cr[1],
		}
	}

	d.logDebug("high-performance mode set", "enable", on)
	return nil
}
