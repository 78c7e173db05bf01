// Package protocol implements the Macronix MX25R6435F quad-SPI command set.
//
// This package describes bus transactions; it never issues them. Every
// transaction the flash engine needs is produced by a Build* function as a
// Command descriptor, which a bus executor turns into controller register
// writes.
//
// # Transaction Overview
//
// A quad-SPI transaction is made of up to five phases, each of which can use
// its own number of data lines:
//
//	[INSTRUCTION][ADDRESS][ALTERNATE][DUMMY][DATA...]
//
// Where:
//   - INSTRUCTION = 8-bit opcode, always present
//   - ADDRESS = 24-bit byte address (optional)
//   - ALTERNATE = mode byte sent after the address (optional, 0xAA for 4READ)
//   - DUMMY = idle clock cycles before the chip drives data (optional)
//   - DATA = N bytes, read or written (optional)
//
// # Command Builders
//
// Use the Build* functions to create descriptors:
//
//	cmd, err := protocol.BuildReadCmd(0x1000, 256)
//	cmd, err := protocol.BuildQuadPageProgramCmd(0x1000, 256)
//	// ... etc
//
// # Status Decoding
//
// The chip reports its state through two registers. DecodeStatus combines
// them into a single Status:
//
//	st := protocol.DecodeStatus(secr, sr)
//	if st == protocol.StatusBusy {
//	    // erase or program in flight
//	}
//
// # Page Splitting
//
// Page program commands wrap inside a 256-byte page. SplitPages returns the
// page-bounded chunks a write must be issued as:
//
//	for _, c := range protocol.SplitPages(addr, len(data), protocol.PageSize) {
//	    // program data[c.Offset : c.Offset+c.Length] at c.Address
//	}
//
// # Reference
//
// Macronix MX25R6435F datasheet, rev. 1.6, section 9 "Command Description".
package protocol
