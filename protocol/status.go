package protocol

import "fmt"

// Status is the state of the memory as seen by the driver.
type Status uint8

// Status codes. The values match the bit codes used by the reference BSP so
// they can be combined and compared with existing firmware.
const (
	// StatusOK means the chip is idle and the last operation succeeded
	StatusOK Status = 0x00

	// StatusError covers bus failures, chip-reported program or erase
	// failures and malformed requests
	StatusError Status = 0x01

	// StatusBusy means a program or erase is in flight
	StatusBusy Status = 0x02

	// StatusNotSupported means the chip did not answer the reset sequence
	StatusNotSupported Status = 0x04

	// StatusSuspended means an erase or program was deliberately paused
	StatusSuspended Status = 0x08
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusError:
		return "error"
	case StatusBusy:
		return "busy"
	case StatusNotSupported:
		return "not supported"
	case StatusSuspended:
		return "suspended"
	default:
		return fmt.Sprintf("Status(0x%02X)", uint8(s))
	}
}

// DecodeSecurity applies the first stage of status decoding to the
// security register. It returns the verdict and true when the security
// register alone decides the status; a failed operation always wins over a
// suspended one.
func DecodeSecurity(secr byte) (Status, bool) {
	if secr&(SECRProgramFail|SECREraseFail) != 0 {
		return StatusError, true
	}
	if secr&(SECRProgramSuspended|SECREraseSuspended) != 0 {
		return StatusSuspended, true
	}
	return StatusOK, false
}

// DecodeStatus combines the security register and the status register into
// one Status. Fail bits take priority over suspend bits, which take
// priority over the write-in-progress bit.
func DecodeStatus(secr, sr byte) Status {
	if st, ok := DecodeSecurity(secr); ok {
		return st
	}
	if sr&SRWriteInProgress != 0 {
		return StatusBusy
	}
	return StatusOK
}
