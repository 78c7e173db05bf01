package flash

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/moffa90/go-mx25r/protocol"
)

// Device drives one MX25R6435F through a quad-SPI Bus.
//
// A Device is owned by a single caller. The chip has no notion of
// concurrent transactions, so overlapping calls must be serialized by the
// caller.
type Device struct {
	bus      Bus
	config   Config
	initDone bool
}

// New creates a new Device on the given bus with the given options.
// The device is unusable until Init succeeds.
//
// Example:
//
//	dev := flash.New(bus,
//	    flash.WithBusClock(110*physic.MegaHertz),
//	    flash.WithLogger(myLogger),
//	)
//	if err := dev.Init(ctx); err != nil {
//	    log.Fatal(err)
//	}
func New(bus Bus, opts ...Option) *Device {
	if bus == nil {
		panic("bus cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Device{
		bus:    bus,
		config: cfg,
	}
}

// Init brings the chip into its operating state:
//  1. Resolve the pins to one controller instance (if WithPins was given)
//  2. Release and reconfigure the controller at a reduced clock
//  3. Reset the chip
//  4. Enable quad mode
//  5. Enable high-performance mode
//  6. Reconfigure the controller at full clock
//
// If the chip does not answer the reset, the returned error wraps
// ErrNotSupported. Any failure leaves the device uninitialized.
func (d *Device) Init(ctx context.Context) error {
	d.initDone = false

	var instance string
	if d.config.PinMapper != nil {
		var err error
		instance, err = ResolveInstance(d.config.Pins, d.config.PinMapper)
		if err != nil {
			return fmt.Errorf("bind pins: %w", err)
		}
	}

	prescaler, err := protocol.ClockPrescaler(d.config.BusClock, protocol.MaxClock)
	if err != nil {
		return fmt.Errorf("clock prescaler: %w", err)
	}

	if err := d.bus.DeInit(); err != nil {
		return fmt.Errorf("release bus: %w", err)
	}

	// Low-power mode is still active, so run one step slower until
	// high-performance mode is confirmed.
	cfg := d.busConfig(instance, prescaler+1)
	if err := d.bus.Init(cfg); err != nil {
		return fmt.Errorf("init bus: %w", err)
	}

	if err := d.resetMemory(ctx); err != nil {
		d.logError("chip did not answer reset", "error", err)
		return fmt.Errorf("reset memory: %w: %w", ErrNotSupported, err)
	}

	if err := d.setQuadMode(ctx, true); err != nil {
		return fmt.Errorf("enable quad mode: %w", err)
	}

	if err := d.setHighPerformanceMode(ctx, true); err != nil {
		return fmt.Errorf("enable high-performance mode: %w", err)
	}

	cfg.ClockPrescaler = prescaler
	for i := 0; i < 2; i++ {
		if err := d.bus.Init(cfg); err != nil {
			return fmt.Errorf("reinit bus: %w", err)
		}
	}

	d.initDone = true

	d.logInfo("device initialized",
		"instance", instance,
		"bus_clock", d.config.BusClock.String(),
		"prescaler", prescaler,
	)

	return nil
}

// Deinit resets the chip and releases the bus. The reset is best effort: a
// chip in deep power-down or already gone does not prevent the bus from
// being released.
func (d *Device) Deinit(ctx context.Context) error {
	if !d.initDone {
		return ErrNotInitialized
	}
	d.initDone = false

	if err := d.resetMemory(ctx); err != nil {
		d.logError("reset before deinit failed", "error", err)
	}

	if err := d.bus.DeInit(); err != nil {
		return fmt.Errorf("release bus: %w", err)
	}

	d.logDebug("device deinitialized")
	return nil
}

// Geometry returns the array geometry.
func (d *Device) Geometry() protocol.Geometry {
	return d.config.Geometry
}

// Read reads len(buf) bytes starting at addr using the quad I/O read command.
func (d *Device) Read(ctx context.Context, addr uint32, buf []byte) error {
	if err := d.checkInit(); err != nil {
		return err
	}
	if len(buf) == 0 {
		return nil
	}
	if err := d.checkRange(addr, len(buf)); err != nil {
		return err
	}

	cmd, err := protocol.BuildReadCmd(addr, len(buf))
	if err != nil {
		return err
	}

	if err := d.bus.Command(ctx, cmd, d.config.Timeouts.Default); err != nil {
		return fmt.Errorf("read command: %w", err)
	}
	if err := d.bus.Receive(ctx, buf, d.config.Timeouts.Default); err != nil {
		return fmt.Errorf("read data: %w", err)
	}

	return nil
}

// ReadByteAt reads the byte at addr.
func (d *Device) ReadByteAt(ctx context.Context, addr uint32) (byte, error) {
	var b [1]byte
	if err := d.Read(ctx, addr, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

// Write programs data starting at addr.
//
// The write is split at page boundaries; each chunk is a separate
// write-enable, page program and completion poll. Programming only clears
// bits, so the target range must have been erased. A bus failure aborts
// the write; pages already programmed stay programmed.
//
// Completion is judged by WIP alone. A page the chip reports as failed
// does not stop the write and Write still returns nil. The chip keeps the
// program fail bit only until the next program or erase, so check Status
// after the write, or read the data back when it spans several pages.
func (d *Device) Write(ctx context.Context, addr uint32, data []byte) error {
	if err := d.checkInit(); err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	if err := d.checkRange(addr, len(data)); err != nil {
		return err
	}

	startTime := time.Now()
	chunks := protocol.SplitPages(addr, len(data), d.config.Geometry.PageSize)

	written := 0
	for i, c := range chunks {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("cancelled: %w", err)
		}

		if err := d.programPage(ctx, c.Address, data[c.Offset:c.Offset+c.Length]); err != nil {
			return fmt.Errorf("program page at 0x%06X: %w", c.Address, err)
		}

		written += c.Length
		d.reportProgress(Progress{
			Phase:        PhaseProgramming,
			Address:      c.Address,
			CurrentChunk: i + 1,
			TotalChunks:  len(chunks),
			BytesWritten: written,
			TotalBytes:   len(data),
			Percentage:   float64(written) / float64(len(data)) * 100,
			ElapsedTime:  time.Since(startTime),
		})
	}

	d.reportProgress(Progress{
		Phase:        PhaseComplete,
		CurrentChunk: len(chunks),
		TotalChunks:  len(chunks),
		BytesWritten: written,
		TotalBytes:   len(data),
		Percentage:   100,
		ElapsedTime:  time.Since(startTime),
	})

	d.logDebug("write complete",
		"address", fmt.Sprintf("0x%06X", addr),
		"bytes", written,
		"pages", len(chunks),
	)

	return nil
}

// WriteByteAt programs a single byte at addr.
func (d *Device) WriteByteAt(ctx context.Context, addr uint32, b byte) error {
	return d.Write(ctx, addr, []byte{b})
}

// ReadAt implements io.ReaderAt. A read running past the end of the array
// returns the bytes up to the end and io.EOF.
func (d *Device) ReadAt(p []byte, off int64) (int, error) {
	n, err := d.clamp(p, off)
	if err != nil || n == 0 {
		return 0, err
	}
	if err := d.Read(context.Background(), uint32(off), p[:n]); err != nil {
		return 0, err
	}
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// WriteAt implements io.WriterAt. A write running past the end of the
// array programs the bytes up to the end and returns io.ErrShortWrite.
func (d *Device) WriteAt(p []byte, off int64) (int, error) {
	n, err := d.clamp(p, off)
	if err != nil && err != io.EOF {
		return 0, err
	}
	if n > 0 {
		if err := d.Write(context.Background(), uint32(off), p[:n]); err != nil {
			return 0, err
		}
	}
	if n < len(p) {
		return n, io.ErrShortWrite
	}
	return n, nil
}

// clamp returns how many bytes of p fit in the array at off. An offset at
// or past the end with a non-empty p is io.EOF.
func (d *Device) clamp(p []byte, off int64) (int, error) {
	size := int64(d.config.Geometry.FlashSize)
	if off < 0 {
		return 0, &AddressRangeError{Address: uint32(off), Length: len(p), Size: uint32(size)}
	}
	if len(p) == 0 {
		return 0, nil
	}
	if off >= size {
		return 0, io.EOF
	}
	return int(min(int64(len(p)), size-off)), nil
}

// programPage programs one chunk that lies inside a single page.
func (d *Device) programPage(ctx context.Context, addr uint32, data []byte) error {
	if err := d.writeEnable(ctx); err != nil {
		return err
	}

	cmd, err := protocol.BuildQuadPageProgramCmd(addr, len(data))
	if err != nil {
		return err
	}

	if err := d.bus.Command(ctx, cmd, d.config.Timeouts.Default); err != nil {
		return fmt.Errorf("program command: %w", err)
	}
	if err := d.bus.Transmit(ctx, data, d.config.Timeouts.Default); err != nil {
		return fmt.Errorf("program data: %w", err)
	}

	return d.pollReady(ctx, d.config.Timeouts.Program)
}

// EnableMemoryMapped switches the controller to memory-mapped mode and
// returns the base address of the array. The bus must implement
// MemoryMapper.
func (d *Device) EnableMemoryMapped(ctx context.Context) (uintptr, error) {
	if err := d.checkInit(); err != nil {
		return 0, err
	}

	mapper, ok := d.bus.(MemoryMapper)
	if !ok {
		return 0, fmt.Errorf("memory-mapped mode: %w", ErrNotSupported)
	}

	read, err := protocol.BuildMemoryMappedReadCmd()
	if err != nil {
		return 0, err
	}
	write, err := protocol.BuildMemoryMappedWriteCmd()
	if err != nil {
		return 0, err
	}

	base, err := mapper.MemoryMap(ctx, read, write)
	if err != nil {
		return 0, fmt.Errorf("memory-mapped mode: %w", err)
	}

	d.logDebug("memory-mapped mode enabled", "base", fmt.Sprintf("0x%08X", base))
	return base, nil
}

func (d *Device) checkInit() error {
	if !d.initDone {
		return ErrNotInitialized
	}
	return nil
}

func (d *Device) checkRange(addr uint32, n int) error {
	if uint64(addr)+uint64(n) > uint64(d.config.Geometry.FlashSize) {
		return &AddressRangeError{Address: addr, Length: n, Size: d.config.Geometry.FlashSize}
	}
	return nil
}

func (d *Device) busConfig(instance string, prescaler uint8) BusConfig {
	return BusConfig{
		Instance:             instance,
		ClockPrescaler:       prescaler,
		FlashSize:            d.config.Geometry.SizeLog2(),
		FifoThreshold:        4,
		ChipSelectHighCycles: 1,
		ClockMode:            0,
	}
}

// reportProgress calls the progress callback if configured.
func (d *Device) reportProgress(progress Progress) {
	if d.config.ProgressCallback != nil {
		d.config.ProgressCallback(progress)
	}
}

// logDebug logs a debug message if a logger is configured.
func (d *Device) logDebug(msg string, keysAndValues ...interface{}) {
	if d.config.Logger != nil {
		d.config.Logger.Debug(msg, keysAndValues...)
	}
}

// logInfo logs an info message if a logger is configured.
func (d *Device) logInfo(msg string, keysAndValues ...interface{}) {
	if d.config.Logger != nil {
		d.config.Logger.Info(msg, keysAndValues...)
	}
}

// logError logs an error message if a logger is configured.
func (d *Device) logError(msg string, keysAndValues ...interface{}) {
	if d.config.Logger != nil {
		d.config.Logger.Error(msg, keysAndValues...)
	}
}
