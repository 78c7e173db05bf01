// Package hexfile provides parsing for Intel HEX firmware images.
//
// # Intel HEX Format
//
// Each line is one record, hex-encoded after a ':' start code:
//
//	:[Length(2)][Offset(4)][Type(2)][Data(variable)][Checksum(2)]
//
// Example record:
//
//	:0400100001020304E2
//	  04 = Data length
//	  0010 = Offset (big-endian)
//	  00 = Record type (data)
//	  01020304 = Data
//	  E2 = Checksum
//
// Supported record types:
//   - 00: data
//   - 01: end of file
//   - 02, 04: extended segment and linear address
//   - 03, 05: start segment and linear address
//
// # Usage
//
//	img, err := hexfile.Parse("firmware.hex")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, s := range img.Segments {
//	    if err := dev.Write(ctx, s.Address, s.Data); err != nil {
//	        log.Fatal(err)
//	    }
//	}
//
// Data records are merged into segments sorted by address, so each segment
// maps onto a single flash write.
//
// # Error Handling
//
// Parse returns detailed errors for invalid files:
//   - Record parsing errors with line numbers
//   - Checksum mismatches
//   - Invalid hex encoding
//   - Overlapping data
//   - Missing end-of-file record
package hexfile
