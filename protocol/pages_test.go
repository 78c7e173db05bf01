package protocol

import "testing"

func TestSplitPages(t *testing.T) {
	tests := []struct {
		name string
		addr uint32
		n    int
		want []Chunk
	}{
		{
			name: "empty",
			addr: 0x100,
			n:    0,
			want: nil,
		},
		{
			name: "inside one page",
			addr: 0x110,
			n:    0x20,
			want: []Chunk{{0x110, 0, 0x20}},
		},
		{
			name: "exactly one aligned page",
			addr: 0x200,
			n:    PageSize,
			want: []Chunk{{0x200, 0, PageSize}},
		},
		{
			name: "fills remainder of page",
			addr: 0x2F0,
			n:    0x10,
			want: []Chunk{{0x2F0, 0, 0x10}},
		},
		{
			name: "crosses one boundary",
			addr: 0x2F0,
			n:    0x20,
			want: []Chunk{{0x2F0, 0, 0x10}, {0x300, 0x10, 0x10}},
		},
		{
			name: "aligned two pages and tail",
			addr: 0x1000,
			n:    2*PageSize + 3,
			want: []Chunk{{0x1000, 0, PageSize}, {0x1100, PageSize, PageSize}, {0x1200, 2 * PageSize, 3}},
		},
		{
			name: "misaligned start two pages and tail",
			addr: 0x10FF,
			n:    1 + 2*PageSize + 5,
			want: []Chunk{
				{0x10FF, 0, 1},
				{0x1100, 1, PageSize},
				{0x1200, 1 + PageSize, PageSize},
				{0x1300, 1 + 2*PageSize, 5},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitPages(tt.addr, tt.n, PageSize)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d chunks %v, want %d chunks %v", len(got), got, len(tt.want), tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("chunk %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

// TestSplitPagesCoverage checks every chunk stays inside one page and the
// chunks tile the requested range exactly.
func TestSplitPagesCoverage(t *testing.T) {
	starts := []uint32{0, 1, 0x7F, 0xFF, 0x100, 0x1234, 0x7FFF00}
	lengths := []int{1, 2, 0xFF, 0x100, 0x101, 0x1FF, 0x200, 0x305, 0x1000}

	for _, addr := range starts {
		for _, n := range lengths {
			chunks := SplitPages(addr, n, PageSize)

			wantCount := 0
			for a := uint64(addr); a < uint64(addr)+uint64(n); a = (a/PageSize + 1) * PageSize {
				wantCount++
			}
			if len(chunks) != wantCount {
				t.Errorf("addr=0x%X n=%d: got %d chunks, want %d", addr, n, len(chunks), wantCount)
			}

			next := addr
			offset := 0
			for i, c := range chunks {
				if c.Address != next || c.Offset != offset {
					t.Fatalf("addr=0x%X n=%d: chunk %d starts at 0x%X/%d, want 0x%X/%d",
						addr, n, i, c.Address, c.Offset, next, offset)
				}
				if c.Length <= 0 {
					t.Fatalf("addr=0x%X n=%d: chunk %d has length %d", addr, n, i, c.Length)
				}
				if c.Address/PageSize != (c.Address+uint32(c.Length)-1)/PageSize {
					t.Errorf("addr=0x%X n=%d: chunk %d crosses a page boundary: %+v", addr, n, i, c)
				}
				next += uint32(c.Length)
				offset += c.Length
			}
			if offset != n {
				t.Errorf("addr=0x%X n=%d: chunks cover %d bytes", addr, n, offset)
			}
		}
	}
}
