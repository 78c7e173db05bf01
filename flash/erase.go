package flash

import (
	"context"
	"fmt"

	"github.com/moffa90/go-mx25r/protocol"
)

// EraseBlock erases the 64 KiB block containing addr and waits for the
// erase to finish.
//
// Completion is judged by WIP alone. An erase the chip reports as failed
// still returns nil; check Status afterwards to see the erase fail bit.
func (d *Device) EraseBlock(ctx context.Context, addr uint32) error {
	if err := d.checkInit(); err != nil {
		return err
	}
	if err := d.checkRange(addr, 1); err != nil {
		return err
	}

	if err := d.writeEnable(ctx); err != nil {
		return err
	}

	cmd, err := protocol.BuildBlockEraseCmd(addr)
	if err != nil {
		return err
	}
	if err := d.bus.Command(ctx, cmd, d.config.Timeouts.Default); err != nil {
		return fmt.Errorf("block erase command: %w", err)
	}

	if err := d.pollReady(ctx, d.config.Timeouts.BlockErase); err != nil {
		return fmt.Errorf("block erase at 0x%06X: %w", addr, err)
	}

	d.logDebug("block erased", "address", fmt.Sprintf("0x%06X", addr))
	return nil
}

// EraseSector starts erasing sector index and returns once the chip has
// accepted the command. The erase runs on in the chip; poll Status or call
// WaitReady to learn when it is done.
//
// An index past the last sector returns *SectorRangeError without touching
// the bus.
func (d *Device) EraseSector(ctx context.Context, index uint32) error {
	if err := d.checkInit(); err != nil {
		return err
	}

	g := d.config.Geometry
	if index >= g.SectorCount {
		return &SectorRangeError{Index: index, Count: g.SectorCount}
	}

	if err := d.writeEnable(ctx); err != nil {
		return err
	}

	cmd, err := protocol.BuildSectorEraseCmd(index * g.SectorSize)
	if err != nil {
		return err
	}
	if err := d.bus.Command(ctx, cmd, d.config.Timeouts.Default); err != nil {
		return fmt.Errorf("sector erase command: %w", err)
	}

	d.logDebug("sector erase started", "sector", index)
	return nil
}

// EraseChip erases the whole array and waits for the erase to finish. This
// takes minutes on a real chip; the wait is bounded by the chip erase
// timeout.
func (d *Device) EraseChip(ctx context.Context) error {
	if err := d.checkInit(); err != nil {
		return err
	}

	if err := d.writeEnable(ctx); err != nil {
		return err
	}
	if err := d.simple(ctx, protocol.BuildChipEraseCmd); err != nil {
		return fmt.Errorf("chip erase: %w", err)
	}

	if err := d.pollReady(ctx, d.config.Timeouts.ChipErase); err != nil {
		return fmt.Errorf("chip erase: %w", err)
	}

	d.logInfo("chip erased")
	return nil
}

// SuspendErase pauses the erase in progress. It does nothing unless the
// chip is busy. After the suspend command the chip must report
// StatusSuspended, otherwise a *protocol.UnexpectedStatusError is returned.
func (d *Device) SuspendErase(ctx context.Context) error {
	if err := d.checkInit(); err != nil {
		return err
	}

	st, err := d.Status(ctx)
	if err != nil {
		return err
	}
	if st != protocol.StatusBusy {
		return nil
	}

	if err := d.simple(ctx, protocol.BuildSuspendCmd); err != nil {
		return fmt.Errorf("suspend: %w", err)
	}

	st, err = d.Status(ctx)
	if err != nil {
		return err
	}
	if st != protocol.StatusSuspended {
		return &protocol.UnexpectedStatusError{
			Operation: "suspend erase",
			Want:      protocol.StatusSuspended,
			Got:       st,
		}
	}

	d.logDebug("erase suspended")
	return nil
}

// ResumeErase continues a suspended erase. It does nothing unless the chip
// is suspended. After the resume command the chip must report StatusBusy,
// otherwise a *protocol.UnexpectedStatusError is returned.
func (d *Device) ResumeErase(ctx context.Context) error {
	if err := d.checkInit(); err != nil {
		return err
	}

	st, err := d.Status(ctx)
	if err != nil {
		return err
	}
	if st != protocol.StatusSuspended {
		return nil
	}

	if err := d.simple(ctx, protocol.BuildResumeCmd); err != nil {
		return fmt.Errorf("resume: %w", err)
	}

	st, err = d.Status(ctx)
	if err != nil {
		return err
	}
	if st != protocol.StatusBusy {
		return &protocol.UnexpectedStatusError{
			Operation: "resume erase",
			Want:      protocol.StatusBusy,
			Got:       st,
		}
	}

	d.logDebug("erase resumed")
	return nil
}

// Sleep puts the chip into deep power-down. The chip ignores every command
// but the wake-up until it leaves; the caller must wait
// protocol.DeepPowerDownEntry before the next command.
func (d *Device) Sleep(ctx context.Context) error {
	if err := d.checkInit(); err != nil {
		return err
	}
	if err := d.simple(ctx, protocol.BuildDeepPowerDownCmd); err != nil {
		return fmt.Errorf("deep power-down: %w", err)
	}
	return nil
}

// Wakeup brings the chip out of deep power-down by pulsing chip select with
// a no-operation command. The caller must wait protocol.DeepPowerDownExit
// before the next command.
func (d *Device) Wakeup(ctx context.Context) error {
	if err := d.checkInit(); err != nil {
		return err
	}
	if err := d.simple(ctx, protocol.BuildNoOperationCmd); err != nil {
		return fmt.Errorf("leave deep power-down: %w", err)
	}
	return nil
}
