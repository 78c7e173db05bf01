package hexfile

import (
	"bufio"
	"cmp"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
)

// Constants for Intel HEX parsing.
const (
	// MinimumRecordLength is the length of a record without data in hex
	// characters, after the ':' start code
	MinimumRecordLength = 10

	// RecordHeaderSize is the size of the record metadata (length + offset + type)
	RecordHeaderSize = 4

	// RecordChecksumSize is the size of the record checksum field
	RecordChecksumSize = 1
)

// Parse parses an Intel HEX file from the given file path.
//
// Example:
//
//	img, err := hexfile.Parse("firmware.hex")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("%d bytes in %d segments\n", img.Size(), len(img.Segments))
func Parse(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return ParseReader(f)
}

// ParseReader parses an Intel HEX file from any io.Reader.
func ParseReader(r io.Reader) (*Image, error) {
	scanner := bufio.NewScanner(r)

	img := &Image{}
	var (
		base    uint32
		lineNum int
		eof     bool
	)

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines
		if line == "" {
			continue
		}
		if eof {
			return nil, fmt.Errorf("line %d: record after end of file", lineNum)
		}

		rec, err := parseRecord(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}

		switch rec.kind {
		case RecordData:
			addr := uint64(base) + uint64(rec.offset)
			if addr+uint64(len(rec.data)) > 1<<32 {
				return nil, fmt.Errorf("line %d: data at 0x%X wraps the 32-bit address space", lineNum, addr)
			}
			img.add(uint32(addr), rec.data)

		case RecordEOF:
			eof = true

		case RecordExtendedSegmentAddress:
			if err := checkLength(rec, 2); err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNum, err)
			}
			base = (uint32(rec.data[0])<<8 | uint32(rec.data[1])) << 4

		case RecordExtendedLinearAddress:
			if err := checkLength(rec, 2); err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNum, err)
			}
			base = (uint32(rec.data[0])<<8 | uint32(rec.data[1])) << 16

		case RecordStartSegmentAddress:
			if err := checkLength(rec, 4); err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNum, err)
			}
			// CS:IP
			cs := uint32(rec.data[0])<<8 | uint32(rec.data[1])
			ip := uint32(rec.data[2])<<8 | uint32(rec.data[3])
			img.StartAddress = cs<<4 + ip
			img.HasStartAddress = true

		case RecordStartLinearAddress:
			if err := checkLength(rec, 4); err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNum, err)
			}
			img.StartAddress = uint32(rec.data[0])<<24 | uint32(rec.data[1])<<16 |
				uint32(rec.data[2])<<8 | uint32(rec.data[3])
			img.HasStartAddress = true

		default:
			return nil, fmt.Errorf("line %d: unknown record type 0x%02X", lineNum, rec.kind)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	if lineNum == 0 {
		return nil, fmt.Errorf("empty file")
	}
	if !eof {
		return nil, fmt.Errorf("missing end-of-file record")
	}

	if err := img.normalize(); err != nil {
		return nil, err
	}
	return img, nil
}

// parseRecord parses a single record line.
//
// Record format:
//
//	:[Length(1 byte)][Offset(2 bytes)][Type(1 byte)][Data(N bytes)][Checksum(1 byte)]
//
// All values are hex-encoded. Offset is big-endian.
//
// Example: ":0400100001020304E2"
//
//	Length: 0x04
//	Offset: 0x0010
//	Type: 0x00 (data)
//	Data: [0x01, 0x02, 0x03, 0x04]
//	Checksum: 0xE2
func parseRecord(line string) (*record, error) {
	if line[0] != ':' {
		return nil, fmt.Errorf("record must start with ':'")
	}
	line = line[1:]

	if len(line) < MinimumRecordLength {
		return nil, fmt.Errorf("record too short: got %d characters, minimum is %d", len(line), MinimumRecordLength)
	}

	data, err := hex.DecodeString(line)
	if err != nil {
		return nil, fmt.Errorf("invalid hex data: %w", err)
	}

	length := data[0]
	expectedLen := RecordHeaderSize + int(length) + RecordChecksumSize
	if len(data) != expectedLen {
		return nil, fmt.Errorf("data length mismatch: got %d bytes, expected %d (header=%d + data=%d + checksum=%d)",
			len(data), expectedLen, RecordHeaderSize, length, RecordChecksumSize)
	}

	checksum := data[len(data)-1]
	calculatedChecksum := calculateChecksum(data[:len(data)-1])
	if checksum != calculatedChecksum {
		return nil, fmt.Errorf("checksum mismatch: got 0x%02X, expected 0x%02X",
			checksum, calculatedChecksum)
	}

	rec := &record{
		length:   length,
		offset:   uint16(data[1])<<8 | uint16(data[2]),
		kind:     data[3],
		data:     make([]byte, length),
		checksum: checksum,
	}
	copy(rec.data, data[RecordHeaderSize:RecordHeaderSize+int(length)])

	return rec, nil
}

func checkLength(rec *record, want int) error {
	if int(rec.length) != want {
		return fmt.Errorf("record type 0x%02X needs %d data bytes, got %d", rec.kind, want, rec.length)
	}
	return nil
}

// calculateChecksum computes the 8-bit checksum for a record.
// Uses basic summation with 2's complement.
func calculateChecksum(data []byte) byte {
	var sum byte
	for _, b := range data {
		sum += b
	}
	return ^sum + 1 // 2's complement
}

// add appends data, extending the last segment when the record continues
// it.
func (img *Image) add(addr uint32, data []byte) {
	if len(data) == 0 {
		return
	}
	if n := len(img.Segments); n > 0 {
		last := img.Segments[n-1]
		if last.End() == uint64(addr) {
			last.Data = append(last.Data, data...)
			return
		}
	}
	img.Segments = append(img.Segments, &Segment{
		Address: addr,
		Data:    append([]byte(nil), data...),
	})
}

// normalize sorts the segments, merges touching ones and rejects overlaps.
func (img *Image) normalize() error {
	slices.SortStableFunc(img.Segments, func(a, b *Segment) int {
		return cmp.Compare(a.Address, b.Address)
	})

	merged := img.Segments[:0]
	for _, s := range img.Segments {
		if n := len(merged); n > 0 {
			last := merged[n-1]
			if uint64(s.Address) < last.End() {
				return fmt.Errorf("data at 0x%08X overlaps segment 0x%08X-0x%08X",
					s.Address, last.Address, last.End()-1)
			}
			if uint64(s.Address) == last.End() {
				last.Data = append(last.Data, s.Data...)
				continue
			}
		}
		merged = append(merged, s)
	}
	img.Segments = merged
	return nil
}
