package main

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/moffa90/go-mx25r/flash"
	"github.com/moffa90/go-mx25r/hexfile"
	"github.com/moffa90/go-mx25r/protocol"
)

func parseUint32(s, what string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", what, s, err)
	}
	return uint32(v), nil
}

func newInfoCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show chip identification and geometry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			s, err := openSession(ctx, opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			id, err := s.dev.ReadID(ctx)
			if err != nil {
				_ = s.close(ctx, false)
				return err
			}
			g := s.dev.Geometry()
			cfg := s.chip.BusConfig()

			fmt.Fprintf(out, "JEDEC ID:   %02X %02X %02X\n", id[0], id[1], id[2])
			fmt.Fprintf(out, "Size:       %d bytes (2^%d)\n", g.FlashSize, g.SizeLog2())
			fmt.Fprintf(out, "Blocks:     %d x %d bytes\n", g.FlashSize/g.BlockSize, g.BlockSize)
			fmt.Fprintf(out, "Sectors:    %d x %d bytes\n", g.SectorCount, g.SectorSize)
			fmt.Fprintf(out, "Pages:      %d x %d bytes\n", g.PageCount, g.PageSize)
			fmt.Fprintf(out, "Bus clock:  %s / %d\n", opts.hclk, int(cfg.ClockPrescaler)+1)

			return s.close(ctx, false)
		},
	}
}

func newStatusCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the decoded chip status and raw registers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			s, err := openSession(ctx, opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			st, err := s.dev.Status(ctx)
			if err != nil {
				_ = s.close(ctx, false)
				return err
			}
			sr, cr1, cr2, secr := s.chip.Registers()

			fmt.Fprintf(out, "Status:     %s\n", st)
			fmt.Fprintf(out, "SR:         0x%02X\n", sr)
			fmt.Fprintf(out, "CR:         0x%02X 0x%02X\n", cr1, cr2)
			fmt.Fprintf(out, "SECR:       0x%02X\n", secr)

			return s.close(ctx, false)
		},
	}
}

func newReadCmd(opts *options) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "read <address> <length>",
		Short: "Read bytes from the array",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			addr, err := parseUint32(args[0], "address")
			if err != nil {
				return err
			}
			n, err := parseUint32(args[1], "length")
			if err != nil {
				return err
			}

			s, err := openSession(ctx, opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			buf := make([]byte, n)
			if err := s.dev.Read(ctx, addr, buf); err != nil {
				_ = s.close(ctx, false)
				return err
			}
			if err := s.close(ctx, false); err != nil {
				return err
			}

			if outPath != "" {
				return os.WriteFile(outPath, buf, 0o644)
			}
			dump(cmd.OutOrStdout(), addr, buf)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write the bytes to a file instead of dumping them")
	return cmd
}

// dump prints buf as hex lines prefixed with flash addresses.
func dump(w io.Writer, addr uint32, buf []byte) {
	for off := 0; off < len(buf); off += 16 {
		end := min(off+16, len(buf))
		line := buf[off:end]

		ascii := make([]byte, len(line))
		for i, b := range line {
			if b < 0x20 || b > 0x7E {
				b = '.'
			}
			ascii[i] = b
		}
		fmt.Fprintf(w, "%06X  %-47s  |%s|\n", addr+uint32(off), fmt.Sprintf("% X", line), ascii)
	}
}

func newWriteCmd(opts *options) *cobra.Command {
	var inPath string

	cmd := &cobra.Command{
		Use:   "write <address> [hex bytes]",
		Short: "Program bytes without erasing first",
		Long:  "Program bytes at an address. Programming only clears bits; erase the range first to store arbitrary data.",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			addr, err := parseUint32(args[0], "address")
			if err != nil {
				return err
			}

			var data []byte
			switch {
			case inPath != "" && len(args) == 2:
				return fmt.Errorf("give either hex bytes or --in, not both")
			case inPath != "":
				if data, err = os.ReadFile(inPath); err != nil {
					return fmt.Errorf("failed to read input: %w", err)
				}
			case len(args) == 2:
				if data, err = hex.DecodeString(args[1]); err != nil {
					return fmt.Errorf("invalid hex data: %w", err)
				}
			default:
				return fmt.Errorf("no data: give hex bytes or --in")
			}

			s, err := openSession(ctx, opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if err := s.dev.Write(ctx, addr, data); err != nil {
				_ = s.close(ctx, false)
				return err
			}
			if err := s.close(ctx, true); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d bytes at 0x%06X\n", len(data), addr)
			return nil
		},
	}

	cmd.Flags().StringVarP(&inPath, "in", "i", "", "read the bytes from a file")
	return cmd
}

func newProgramCmd(opts *options) *cobra.Command {
	var verify bool

	cmd := &cobra.Command{
		Use:   "program <file.hex>",
		Short: "Erase the covered sectors and program an Intel HEX image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			img, err := hexfile.Parse(args[0])
			if err != nil {
				return fmt.Errorf("failed to parse image: %w", err)
			}
			if _, end := img.Bounds(); end > protocol.FlashSize {
				return fmt.Errorf("image ends at 0x%X, past the end of the flash", end)
			}

			s, err := openSession(ctx, opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			if err := program(cmd, s, img, verify); err != nil {
				_ = s.close(ctx, false)
				return err
			}
			if err := s.close(ctx, true); err != nil {
				return err
			}

			fmt.Fprintf(out, "Programmed %d bytes in %d segments\n", img.Size(), len(img.Segments))
			return nil
		},
	}

	cmd.Flags().BoolVar(&verify, "verify", true, "read back and compare after programming")
	return cmd
}

func program(cmd *cobra.Command, s *session, img *hexfile.Image, verify bool) error {
	ctx := cmd.Context()
	g := s.dev.Geometry()

	erased := make(map[uint32]bool)
	for _, seg := range img.Segments {
		first := seg.Address / g.SectorSize
		last := uint32((seg.End() - 1) / uint64(g.SectorSize))
		for sector := first; sector <= last; sector++ {
			if erased[sector] {
				continue
			}
			if err := s.dev.EraseSector(ctx, sector); err != nil {
				return err
			}
			if err := s.dev.WaitReady(ctx, protocol.SectorEraseMaxTime); err != nil {
				return fmt.Errorf("erase sector %d: %w", sector, err)
			}
			erased[sector] = true
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Erased %d sectors\n", len(erased))

	for _, seg := range img.Segments {
		if err := s.dev.Write(ctx, seg.Address, seg.Data); err != nil {
			return err
		}
	}

	if !verify {
		return nil
	}
	for _, seg := range img.Segments {
		buf := make([]byte, len(seg.Data))
		if err := s.dev.Read(ctx, seg.Address, buf); err != nil {
			return err
		}
		if !bytes.Equal(buf, seg.Data) {
			return fmt.Errorf("verify failed in segment at 0x%06X", seg.Address)
		}
	}
	return nil
}

func newEraseCmd(opts *options) *cobra.Command {
	erase := &cobra.Command{
		Use:   "erase",
		Short: "Erase a sector, a block or the whole chip",
	}

	// run wraps one erase in a session and saves the image
	run := func(cmd *cobra.Command, op func(*session) error) error {
		ctx := cmd.Context()
		s, err := openSession(ctx, opts, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		if err := op(s); err != nil {
			_ = s.close(ctx, false)
			return err
		}
		return s.close(ctx, true)
	}

	sector := &cobra.Command{
		Use:   "sector <index>",
		Short: "Erase one 4 KiB sector",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseUint32(args[0], "sector")
			if err != nil {
				return err
			}
			return run(cmd, func(s *session) error {
				if err := s.dev.EraseSector(cmd.Context(), index); err != nil {
					return err
				}
				return s.dev.WaitReady(cmd.Context(), protocol.SectorEraseMaxTime)
			})
		},
	}

	block := &cobra.Command{
		Use:   "block <address>",
		Short: "Erase the 64 KiB block containing an address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := parseUint32(args[0], "address")
			if err != nil {
				return err
			}
			return run(cmd, func(s *session) error {
				return s.dev.EraseBlock(cmd.Context(), addr)
			})
		},
	}

	chip := &cobra.Command{
		Use:   "chip",
		Short: "Erase the whole array",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, func(s *session) error {
				return s.dev.EraseChip(cmd.Context())
			})
		},
	}

	erase.AddCommand(sector, block, chip)
	return erase
}

// newProgressPrinter renders write progress as a bar on one line.
func newProgressPrinter(w io.Writer) flash.ProgressCallback {
	bar := newProgressBar(40)
	return func(p flash.Progress) {
		switch p.Phase {
		case flash.PhaseProgramming:
			fmt.Fprintf(w, "\r%s %d/%d pages", bar.render(p.Percentage), p.CurrentChunk, p.TotalChunks)
		case flash.PhaseComplete:
			fmt.Fprintf(w, "\r%s %d bytes in %v\n", bar.render(100), p.TotalBytes, p.ElapsedTime.Round(time.Millisecond))
		}
	}
}

type progressBar struct {
	width int
}

func newProgressBar(width int) *progressBar {
	return &progressBar{width: width}
}

func (pb *progressBar) render(percentage float64) string {
	filled := int(float64(pb.width) * percentage / 100.0)
	if filled > pb.width {
		filled = pb.width
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", pb.width-filled)
	return fmt.Sprintf("[%s] %.1f%%", bar, percentage)
}
