package protocol

// SplitPages splits a write of n bytes at addr into page-bounded chunks.
//
// The first chunk fills the remainder of the starting page (or all of n if
// smaller); every following chunk is a full page or the tail remainder.
// Concatenating the chunks reconstructs [addr, addr+n) with no gaps or
// overlaps. A zero or negative n yields no chunks.
func SplitPages(addr uint32, n int, pageSize uint32) []Chunk {
	if n <= 0 || pageSize == 0 {
		return nil
	}

	end := uint64(addr) + uint64(n)
	cur := uint64(addr)
	size := uint64(pageSize) - uint64(addr%pageSize)
	if size > uint64(n) {
		size = uint64(n)
	}

	chunks := make([]Chunk, 0, n/int(pageSize)+2)
	offset := 0
	for cur < end {
		chunks = append(chunks, Chunk{
			Address: uint32(cur),
			Offset:  offset,
			Length:  int(size),
		})

		cur += size
		offset += int(size)
		size = min(uint64(pageSize), end-cur)
	}

	return chunks
}
