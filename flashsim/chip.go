package flashsim

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/moffa90/go-mx25r/flash"
	"github.com/moffa90/go-mx25r/protocol"
)

var (
	// ErrTimeout is returned by AutoPoll when the predicate does not match
	// within the timeout.
	ErrTimeout = errors.New("flashsim: timeout")

	// ErrBusNotInitialized is returned by transactions issued before Init
	// or after DeInit.
	ErrBusNotInitialized = errors.New("flashsim: bus not initialized")

	// ErrMemoryMapped is returned by transactions issued while the
	// controller is in memory-mapped mode.
	ErrMemoryMapped = errors.New("flashsim: controller is in memory-mapped mode")
)

// Writable register bits.
const (
	srWritable  = protocol.SRQuadEnable | protocol.SRBlockProtect | protocol.SRWriteProtectDisable
	cr1Writable = protocol.CR1TopBottom | protocol.CR1DummyCycle
	cr2Writable = protocol.CR2LowHighSwitch
)

type opKind int

const (
	opProgram opKind = iota + 1
	opErase
	opWriteStatus
)

// operation is an internal program, erase or register write cycle.
type operation struct {
	kind      opKind
	addr      uint32
	size      uint32
	data      []byte
	remaining time.Duration
	fail      bool
}

// Chip is a behavioural model of an MX25R6435F behind a quad-SPI
// controller. It implements flash.Bus and flash.MemoryMapper.
//
// Time is virtual: it only moves while AutoPoll waits or when Advance is
// called, so tests are deterministic and fast.
type Chip struct {
	cfg config
	mem []byte

	sr   byte
	cr1  byte
	cr2  byte
	secr byte

	now       time.Duration
	op        *operation
	suspended *operation

	busCfg  flash.BusConfig
	busUp   bool
	mapped  bool
	pending *protocol.Command
	dropped bool

	resetArmed    bool
	deepPowerDown bool

	unresponsive bool
	configLocked bool
	failProgram  bool
	failErase    bool
	ignored      map[byte]bool
	injected     map[byte]error

	trace []Transaction
}

// New returns an erased chip with quad and high-performance mode off.
func New(opts ...Option) *Chip {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Chip{
		cfg:      cfg,
		mem:      bytes.Repeat([]byte{0xFF}, protocol.FlashSize),
		ignored:  make(map[byte]bool),
		injected: make(map[byte]error),
	}
}

// Init implements flash.Bus.
func (c *Chip) Init(cfg flash.BusConfig) error {
	c.record(Transaction{Kind: KindInit})
	if cfg.ClockPrescaler == 0 && cfg.FifoThreshold == 0 {
		return fmt.Errorf("flashsim: empty bus config")
	}
	c.busCfg = cfg
	c.busUp = true
	c.mapped = false
	c.pending = nil
	return nil
}

// DeInit implements flash.Bus.
func (c *Chip) DeInit() error {
	c.record(Transaction{Kind: KindDeInit})
	c.busUp = false
	c.mapped = false
	c.pending = nil
	return nil
}

// BusConfig returns the configuration of the last Init.
func (c *Chip) BusConfig() flash.BusConfig {
	return c.busCfg
}

func (c *Chip) ready(ctx context.Context, cmd *protocol.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !c.busUp {
		return ErrBusNotInitialized
	}
	if c.mapped {
		return ErrMemoryMapped
	}
	if cmd != nil {
		if err := cmd.Validate(); err != nil {
			return fmt.Errorf("flashsim: %w", err)
		}
		if err, ok := c.injected[cmd.Instruction]; ok {
			delete(c.injected, cmd.Instruction)
			return err
		}
	}
	return nil
}

// Command implements flash.Bus.
func (c *Chip) Command(ctx context.Context, cmd *protocol.Command, timeout time.Duration) error {
	if err := c.ready(ctx, cmd); err != nil {
		return err
	}

	c.pending = nil
	ok := c.accept(cmd)
	if cmd.HasData() {
		pending := *cmd
		c.pending = &pending
		c.dropped = !ok
	} else if ok {
		ok = c.execute(cmd)
	}

	c.record(Transaction{Kind: KindCommand, Command: *cmd, Ignored: !ok})
	return nil
}

// Transmit implements flash.Bus.
func (c *Chip) Transmit(ctx context.Context, data []byte, timeout time.Duration) error {
	p, err := c.dataPhase(ctx, protocol.DirWrite, len(data))
	if err != nil {
		return err
	}

	ok := !c.dropped && c.write(p, data)
	c.record(Transaction{Kind: KindTransmit, Command: *p, Data: append([]byte(nil), data...), Ignored: !ok})
	return nil
}

// Receive implements flash.Bus.
func (c *Chip) Receive(ctx context.Context, data []byte, timeout time.Duration) error {
	p, err := c.dataPhase(ctx, protocol.DirRead, len(data))
	if err != nil {
		return err
	}

	if c.dropped {
		for i := range data {
			data[i] = 0xFF
		}
	} else {
		c.read(p, data)
	}
	c.record(Transaction{Kind: KindReceive, Command: *p, Data: append([]byte(nil), data...), Ignored: c.dropped})
	return nil
}

func (c *Chip) dataPhase(ctx context.Context, dir protocol.Direction, n int) (*protocol.Command, error) {
	if err := c.ready(ctx, nil); err != nil {
		return nil, err
	}
	p := c.pending
	c.pending = nil
	if p == nil || p.Direction != dir {
		return nil, fmt.Errorf("flashsim: no %s data phase pending", dir)
	}
	if n != p.DataLength {
		return nil, fmt.Errorf("flashsim: %s of %d bytes, command 0x%02X expects %d",
			dir, n, p.Instruction, p.DataLength)
	}
	return p, nil
}

// AutoPoll implements flash.Bus. The register is read once per poll step
// of virtual time.
func (c *Chip) AutoPoll(ctx context.Context, cmd *protocol.Command, p protocol.Predicate, timeout time.Duration) error {
	if err := c.ready(ctx, cmd); err != nil {
		return err
	}
	if cmd.Direction != protocol.DirRead {
		return fmt.Errorf("flashsim: autopoll needs a read command, got %s", cmd)
	}

	c.pending = nil
	c.resetArmed = false

	// The first chip select pulse wakes a sleeping chip but reads nothing.
	wake := c.deepPowerDown
	c.deepPowerDown = false

	var (
		err    error
		polls  int
		waited time.Duration
	)
	for {
		reg := c.register(cmd.Instruction)
		if wake {
			reg = 0xFF
			wake = false
		}
		polls++
		if p.Matches(reg) {
			break
		}
		if waited >= timeout {
			err = ErrTimeout
			break
		}
		c.advance(c.cfg.pollStep)
		waited += c.cfg.pollStep
		if polls%1024 == 0 {
			if err = ctx.Err(); err != nil {
				break
			}
		}
	}

	c.record(Transaction{Kind: KindAutoPoll, Command: *cmd, Polls: polls})
	return err
}

// MemoryMap implements flash.MemoryMapper.
func (c *Chip) MemoryMap(ctx context.Context, read, write *protocol.Command) (uintptr, error) {
	if err := c.ready(ctx, read); err != nil {
		return 0, err
	}
	if read.Direction != protocol.DirRead || read.DataLength != 0 {
		return 0, fmt.Errorf("flashsim: invalid memory-mapped read command %s", read)
	}
	if !c.accept(read) {
		c.record(Transaction{Kind: KindMemoryMap, Command: *read, Ignored: true})
		return 0, fmt.Errorf("flashsim: chip rejected memory-mapped read command %s", read)
	}

	c.mapped = true
	c.record(Transaction{Kind: KindMemoryMap, Command: *read})
	return protocol.MappedBaseAddress, nil
}

// Mapped reports whether the controller is in memory-mapped mode.
func (c *Chip) Mapped() bool {
	return c.mapped
}

// accept decides whether the chip acts on cmd at all.
func (c *Chip) accept(cmd *protocol.Command) bool {
	armed := c.resetArmed
	c.resetArmed = false

	if c.unresponsive || c.ignored[cmd.Instruction] {
		return false
	}
	if c.deepPowerDown {
		c.deepPowerDown = false
		return false
	}
	if cmd.Instruction == protocol.CmdResetMemory && !armed {
		return false
	}

	quad := cmd.AddressLines == protocol.Lines4 || cmd.AlternateLines == protocol.Lines4 ||
		cmd.DataLines == protocol.Lines4
	if quad && c.sr&protocol.SRQuadEnable == 0 {
		return false
	}

	if c.op != nil {
		switch cmd.Instruction {
		case protocol.CmdReadStatusReg, protocol.CmdReadSecurityReg, protocol.CmdSuspend,
			protocol.CmdResetEnable, protocol.CmdResetMemory, protocol.CmdNoOperation:
		default:
			return false
		}
	}

	return true
}

// execute runs an accepted command without data phase.
func (c *Chip) execute(cmd *protocol.Command) bool {
	switch cmd.Instruction {
	case protocol.CmdWriteEnable:
		c.sr |= protocol.SRWriteEnableLatch
	case protocol.CmdWriteDisable:
		c.sr &^= protocol.SRWriteEnableLatch
	case protocol.CmdResetEnable:
		c.resetArmed = true
	case protocol.CmdResetMemory:
		c.reset()
	case protocol.CmdDeepPowerDown:
		c.deepPowerDown = true
	case protocol.CmdNoOperation:
	case protocol.CmdSectorErase:
		return c.startErase(cmd.Address, protocol.SectorSize)
	case protocol.CmdBlockErase32K:
		return c.startErase(cmd.Address, protocol.BlockSize/2)
	case protocol.CmdBlockErase:
		return c.startErase(cmd.Address, protocol.BlockSize)
	case protocol.CmdChipErase, protocol.CmdChipEraseAlt:
		return c.startErase(0, protocol.FlashSize)
	case protocol.CmdSuspend:
		return c.suspend()
	case protocol.CmdResume:
		return c.resume()
	default:
		return false
	}
	return true
}

// write runs the data phase of an accepted write command.
func (c *Chip) write(p *protocol.Command, data []byte) bool {
	switch p.Instruction {
	case protocol.CmdQuadPageProgram, protocol.CmdPageProgram:
		if c.sr&protocol.SRWriteEnableLatch == 0 {
			return false
		}
		c.secr &^= protocol.SECRProgramFail | protocol.SECREraseFail
		c.start(&operation{
			kind:      opProgram,
			addr:      p.Address,
			data:      append([]byte(nil), data...),
			remaining: c.cfg.timing.PageProgram,
			fail:      c.failProgram,
		})
		c.failProgram = false
		return true
	case protocol.CmdWriteStatusConfig:
		if c.sr&protocol.SRWriteEnableLatch == 0 {
			return false
		}
		c.start(&operation{
			kind:      opWriteStatus,
			data:      append([]byte(nil), data...),
			remaining: c.cfg.timing.WriteStatus,
		})
		return true
	}
	return false
}

// read fills data for an accepted read command. Register reads repeat the
// register for as long as the controller clocks.
func (c *Chip) read(p *protocol.Command, data []byte) {
	switch p.Instruction {
	case protocol.CmdQuadInOutRead, protocol.CmdRead, protocol.CmdFastRead:
		for i := range data {
			data[i] = c.mem[(p.Address+uint32(i))%protocol.FlashSize]
		}
	case protocol.CmdReadConfigReg:
		for i := range data {
			if i%2 == 0 {
				data[i] = c.cr1
			} else {
				data[i] = c.cr2
			}
		}
	case protocol.CmdReadID:
		id := []byte{protocol.ManufacturerMacronix, protocol.MemoryTypeMX25R, protocol.MemoryDensity64Mbit}
		for i := range data {
			data[i] = id[i%len(id)]
		}
	default:
		reg := c.register(p.Instruction)
		for i := range data {
			data[i] = reg
		}
	}
}

// register returns the single-byte register an instruction reads.
func (c *Chip) register(op byte) byte {
	if c.unresponsive || c.ignored[op] {
		return 0xFF
	}
	switch op {
	case protocol.CmdReadStatusReg:
		return c.sr
	case protocol.CmdReadSecurityReg:
		return c.secr
	case protocol.CmdReadConfigReg:
		return c.cr1
	}
	return 0xFF
}

func (c *Chip) start(op *operation) {
	c.op = op
	c.sr |= protocol.SRWriteInProgress
}

func (c *Chip) startErase(addr, size uint32) bool {
	if c.sr&protocol.SRWriteEnableLatch == 0 || c.suspended != nil {
		return false
	}

	d := c.cfg.timing.SectorErase
	switch size {
	case protocol.BlockSize / 2:
		d = c.cfg.timing.BlockErase32K
	case protocol.BlockSize:
		d = c.cfg.timing.BlockErase
	case protocol.FlashSize:
		d = c.cfg.timing.ChipErase
	}

	c.secr &^= protocol.SECRProgramFail | protocol.SECREraseFail
	c.start(&operation{
		kind:      opErase,
		addr:      addr &^ (size - 1),
		size:      size,
		remaining: d,
		fail:      c.failErase,
	})
	c.failErase = false
	return true
}

func (c *Chip) suspend() bool {
	if c.op == nil || c.op.kind == opWriteStatus {
		return false
	}

	c.suspended = c.op
	c.op = nil
	c.sr &^= protocol.SRWriteInProgress
	if c.suspended.kind == opErase {
		c.secr |= protocol.SECREraseSuspended
	} else {
		c.secr |= protocol.SECRProgramSuspended
	}
	return true
}

func (c *Chip) resume() bool {
	if c.suspended == nil || c.op != nil {
		return false
	}

	c.secr &^= protocol.SECREraseSuspended | protocol.SECRProgramSuspended
	c.start(c.suspended)
	c.suspended = nil
	return true
}

// reset aborts any operation and returns the volatile state to power-on
// values. Quad and high-performance mode are non-volatile and survive.
func (c *Chip) reset() {
	c.op = nil
	c.suspended = nil
	c.deepPowerDown = false
	c.sr &^= protocol.SRWriteInProgress | protocol.SRWriteEnableLatch
	c.secr &^= protocol.SECRProgramSuspended | protocol.SECREraseSuspended |
		protocol.SECRProgramFail | protocol.SECREraseFail
}

// advance moves virtual time forward and completes the running operation
// when its time is up.
func (c *Chip) advance(d time.Duration) {
	c.now += d
	if c.op == nil {
		return
	}
	if c.op.remaining > d {
		c.op.remaining -= d
		return
	}
	c.complete()
}

func (c *Chip) complete() {
	op := c.op
	c.op = nil
	c.sr &^= protocol.SRWriteInProgress | protocol.SRWriteEnableLatch

	switch op.kind {
	case opProgram:
		if op.fail {
			c.secr |= protocol.SECRProgramFail
			return
		}
		c.program(op.addr, op.data)
	case opErase:
		if op.fail {
			c.secr |= protocol.SECREraseFail
			return
		}
		end := op.addr + op.size
		for a := op.addr; a < end; a++ {
			c.mem[a] = 0xFF
		}
	case opWriteStatus:
		c.writeStatus(op.data)
	}
}

// program clears bits inside one page. Bytes past the end of the page
// wrap to its start.
func (c *Chip) program(addr uint32, data []byte) {
	page := addr &^ (protocol.PageSize - 1)
	off := addr % protocol.PageSize
	for i, b := range data {
		a := page + (off+uint32(i))%protocol.PageSize
		c.mem[a%protocol.FlashSize] &= b
	}
}

func (c *Chip) writeStatus(data []byte) {
	sr := data[0]
	if c.configLocked {
		sr = sr&^protocol.SRQuadEnable | c.sr&protocol.SRQuadEnable
	}
	c.sr = c.sr&^srWritable | sr&srWritable

	if len(data) > 1 {
		c.cr1 = c.cr1&^cr1Writable | data[1]&cr1Writable
	}
	if len(data) > 2 && !c.configLocked {
		c.cr2 = c.cr2&^cr2Writable | data[2]&cr2Writable
	}
}

// Advance moves virtual time forward, as if the caller waited d.
func (c *Chip) Advance(d time.Duration) {
	c.advance(d)
}

// Elapsed returns the virtual time since the chip was created.
func (c *Chip) Elapsed() time.Duration {
	return c.now
}

// Registers returns the status, configuration and security registers.
func (c *Chip) Registers() (sr, cr1, cr2, secr byte) {
	return c.sr, c.cr1, c.cr2, c.secr
}

// Busy reports whether an internal operation is running.
func (c *Chip) Busy() bool {
	return c.op != nil
}

// Sleeping reports whether the chip is in deep power-down.
func (c *Chip) Sleeping() bool {
	return c.deepPowerDown
}

// FailNextProgram makes the next page program report a failure in the
// security register without changing the array.
func (c *Chip) FailNextProgram() {
	c.failProgram = true
}

// FailNextErase makes the next erase report a failure in the security
// register without changing the array.
func (c *Chip) FailNextErase() {
	c.failErase = true
}

// LockConfig makes register writes leave the quad enable and
// high-performance bits unchanged, as a hardware-protected part would.
func (c *Chip) LockConfig(locked bool) {
	c.configLocked = locked
}

// SetIgnored makes the chip silently drop every command with instruction
// op, as if it had not seen it.
func (c *Chip) SetIgnored(op byte, ignored bool) {
	if ignored {
		c.ignored[op] = true
	} else {
		delete(c.ignored, op)
	}
}

// InjectError makes the next transaction with instruction op fail on the
// bus with err.
func (c *Chip) InjectError(op byte, err error) {
	c.injected[op] = err
}

// SetUnresponsive disconnects the chip: reads return 0xFF and every command
// is lost.
func (c *Chip) SetUnresponsive(unresponsive bool) {
	c.unresponsive = unresponsive
}

// Memory returns a copy of n bytes of the array starting at addr.
func (c *Chip) Memory(addr uint32, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = c.mem[(addr+uint32(i))%protocol.FlashSize]
	}
	return out
}

// Load replaces the array with the raw image read from r. A short image
// leaves the rest of the array erased.
func (c *Chip) Load(r io.Reader) error {
	n, err := io.ReadFull(r, c.mem)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return fmt.Errorf("flashsim: load image: %w", err)
	}
	for i := n; i < len(c.mem); i++ {
		c.mem[i] = 0xFF
	}
	return nil
}

// Save writes the raw array to w.
func (c *Chip) Save(w io.Writer) error {
	if _, err := w.Write(c.mem); err != nil {
		return fmt.Errorf("flashsim: save image: %w", err)
	}
	return nil
}
