package flash

import (
	"errors"
	"fmt"

	"github.com/moffa90/go-mx25r/protocol"
)

var (
	// ErrNotInitialized is returned by operations on a Device whose Init
	// has not succeeded.
	ErrNotInitialized = errors.New("device not initialized")

	// ErrNotSupported is returned when the chip does not answer the reset
	// sequence, or the bus lacks a capability an operation needs.
	ErrNotSupported = errors.New("not supported")
)

// SectorRangeError indicates a sector index beyond the end of the array.
type SectorRangeError struct {
	Index uint32
	Count uint32
}

func (e *SectorRangeError) Error() string {
	return fmt.Sprintf("sector %d is out of range: device has %d sectors", e.Index, e.Count)
}

// AddressRangeError indicates an access that does not fit in the array.
type AddressRangeError struct {
	Address uint32
	Length  int
	Size    uint32
}

func (e *AddressRangeError) Error() string {
	return fmt.Sprintf("access of %d bytes at 0x%06X is out of range: flash size is 0x%X",
		e.Length, e.Address, e.Size)
}

// VerifyError indicates a configuration register did not take the value
// written to it.
type VerifyError struct {
	Register string
	Mask     byte
	Expected byte
	Actual   byte
}

func (e *VerifyError) Error() string {
	return fmt.Sprintf("%s register verify failed: mask 0x%02X expected 0x%02X, got 0x%02X",
		e.Register, e.Mask, e.Expected&e.Mask, e.Actual&e.Mask)
}

// PinError indicates the quad-SPI pins do not resolve to one controller.
type PinError struct {
	Role     PinRole
	Pin      string
	Instance string
	Want     string
}

func (e *PinError) Error() string {
	if e.Instance == "" {
		return fmt.Sprintf("pin %q (%s) has no quad-SPI function", e.Pin, e.Role)
	}
	return fmt.Sprintf("pin %q (%s) belongs to %s, other pins belong to %s",
		e.Pin, e.Role, e.Instance, e.Want)
}

// StatusOf maps an error returned by a Device onto the chip status codes.
// A nil error is StatusOK; ErrNotSupported is StatusNotSupported; every
// other failure is StatusError.
func StatusOf(err error) protocol.Status {
	switch {
	case err == nil:
		return protocol.StatusOK
	case errors.Is(err, ErrNotSupported):
		return protocol.StatusNotSupported
	default:
		return protocol.StatusError
	}
}
