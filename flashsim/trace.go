package flashsim

import (
	"fmt"

	"github.com/moffa90/go-mx25r/protocol"
)

// Kind is the bus primitive a transaction went through.
type Kind int

// Transaction kinds.
const (
	KindInit Kind = iota
	KindDeInit
	KindCommand
	KindTransmit
	KindReceive
	KindAutoPoll
	KindMemoryMap
)

func (k Kind) String() string {
	switch k {
	case KindInit:
		return "init"
	case KindDeInit:
		return "deinit"
	case KindCommand:
		return "command"
	case KindTransmit:
		return "transmit"
	case KindReceive:
		return "receive"
	case KindAutoPoll:
		return "autopoll"
	case KindMemoryMap:
		return "memorymap"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Transaction is one entry of the chip's trace.
type Transaction struct {
	Kind Kind

	// Command is a copy of the descriptor for command, autopoll and
	// memory-map transactions, and of the pending descriptor for data
	// phases
	Command protocol.Command

	// Data is a copy of the bytes transmitted or received
	Data []byte

	// Polls is the number of status reads an autopoll took
	Polls int

	// Ignored is set when the chip did not act on the command: wrong
	// state, missing write enable, quad mode off, or deep power-down
	Ignored bool
}

func (t Transaction) String() string {
	s := t.Kind.String()
	switch t.Kind {
	case KindCommand, KindMemoryMap:
		s += " " + t.Command.String()
	case KindTransmit, KindReceive:
		s += fmt.Sprintf(" 0x%02X % X", t.Command.Instruction, t.Data)
	case KindAutoPoll:
		s += fmt.Sprintf(" 0x%02X polls=%d", t.Command.Instruction, t.Polls)
	}
	if t.Ignored {
		s += " (ignored)"
	}
	return s
}

// Trace returns a copy of every transaction since the chip was created or
// the trace was last reset.
func (c *Chip) Trace() []Transaction {
	out := make([]Transaction, len(c.trace))
	copy(out, c.trace)
	return out
}

// ResetTrace discards the recorded transactions.
func (c *Chip) ResetTrace() {
	c.trace = c.trace[:0]
}

// Commands returns the instructions of every command transaction in the
// trace, in order.
func (c *Chip) Commands() []byte {
	var ops []byte
	for _, t := range c.trace {
		if t.Kind == KindCommand {
			ops = append(ops, t.Command.Instruction)
		}
	}
	return ops
}

// Count returns how many command transactions carried instruction op.
func (c *Chip) Count(op byte) int {
	n := 0
	for _, t := range c.trace {
		if t.Kind == KindCommand && t.Command.Instruction == op {
			n++
		}
	}
	return n
}

func (c *Chip) record(t Transaction) {
	c.trace = append(c.trace, t)
	if c.cfg.logger != nil {
		c.cfg.logger.Debug("flashsim", "tx", t.String())
	}
}
