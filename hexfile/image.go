package hexfile

// Record types of the Intel HEX format.
const (
	RecordData                   = 0x00
	RecordEOF                    = 0x01
	RecordExtendedSegmentAddress = 0x02
	RecordStartSegmentAddress    = 0x03
	RecordExtendedLinearAddress  = 0x04
	RecordStartLinearAddress     = 0x05
)

// Image represents a complete parsed Intel HEX file.
type Image struct {
	// Segments holds the data, sorted by address, with adjacent records
	// merged. Segments never overlap.
	Segments []*Segment

	// StartAddress is the entry point from a start address record
	StartAddress uint32

	// HasStartAddress reports whether the file carried a start address
	HasStartAddress bool
}

// Segment is a contiguous run of bytes at an absolute address.
type Segment struct {
	// Address is the absolute address of the first byte
	Address uint32

	// Data is the segment content
	Data []byte
}

// End returns the address one past the last byte of the segment.
func (s *Segment) End() uint64 {
	return uint64(s.Address) + uint64(len(s.Data))
}

// Size returns the number of data bytes in the image.
func (img *Image) Size() int {
	n := 0
	for _, s := range img.Segments {
		n += len(s.Data)
	}
	return n
}

// Bounds returns the lowest address and one past the highest address
// covered by the image. An empty image returns 0, 0.
func (img *Image) Bounds() (start uint32, end uint64) {
	if len(img.Segments) == 0 {
		return 0, 0
	}
	return img.Segments[0].Address, img.Segments[len(img.Segments)-1].End()
}

// record is one decoded line.
type record struct {
	length   byte
	offset   uint16
	kind     byte
	data     []byte
	checksum byte
}
