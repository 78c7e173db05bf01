package stm32

import (
	"errors"
	"testing"

	"github.com/moffa90/go-mx25r/flash"
	"github.com/moffa90/go-mx25r/protocol"
)

func must(cmd *protocol.Command, err error) *protocol.Command {
	if err != nil {
		panic(err)
	}
	return cmd
}

func TestEncodeQUADSPI(t *testing.T) {
	tests := []struct {
		name string
		cmd  *protocol.Command
		mode FunctionalMode
		want QUADSPIRegs
	}{
		{
			name: "quad read",
			cmd:  must(protocol.BuildReadCmd(0x1000, 16)),
			mode: IndirectRead,
			want: QUADSPIRegs{CCR: 0x0710EDEB, AR: 0x1000, ABR: 0xAA, DLR: 15},
		},
		{
			name: "quad page program",
			cmd:  must(protocol.BuildQuadPageProgramCmd(0x100, 256)),
			mode: IndirectWrite,
			want: QUADSPIRegs{CCR: 0x03002D38, AR: 0x100, DLR: 255},
		},
		{
			name: "write enable",
			cmd:  must(protocol.BuildWriteEnableCmd()),
			mode: IndirectWrite,
			want: QUADSPIRegs{CCR: 0x00000106},
		},
		{
			name: "status poll",
			cmd:  must(protocol.BuildReadStatusCmd()),
			mode: AutoPolling,
			want: QUADSPIRegs{CCR: 0x09000105},
		},
		{
			name: "memory-mapped read",
			cmd:  must(protocol.BuildMemoryMappedReadCmd()),
			mode: MemoryMapped,
			want: QUADSPIRegs{CCR: 0x0F10EDEB, ABR: 0xAA},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EncodeQUADSPI(tt.cmd, tt.mode)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("EncodeQUADSPI() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestEncodeOCTOSPI(t *testing.T) {
	cmd := must(protocol.BuildReadCmd(0x7FFFF0, 16))

	got, err := EncodeOCTOSPI(cmd, IndirectRead)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := OCTOSPIRegs{
		CR:  0x10000000,
		CCR: 0x03032301,
		TCR: protocol.DummyCyclesReadQuad,
		IR:  protocol.CmdQuadInOutRead,
		AR:  0x7FFFF0,
		ABR: protocol.AltBytesNoPerformanceEnhance,
		DLR: 15,
	}
	if got != want {
		t.Errorf("EncodeOCTOSPI() = %+v, want %+v", got, want)
	}
}

func TestEncodeErrors(t *testing.T) {
	read := must(protocol.BuildReadCmd(0, 4))
	tooManyDummies := *read
	tooManyDummies.DummyCycles = MaxDummyCycles + 1
	noInstruction := *read
	noInstruction.InstructionLines = protocol.LinesNone

	tests := []struct {
		name string
		cmd  *protocol.Command
		mode FunctionalMode
	}{
		{"nil command", nil, IndirectRead},
		{"invalid descriptor", &noInstruction, IndirectRead},
		{"too many dummy cycles", &tooManyDummies, IndirectRead},
		{"invalid mode", read, FunctionalMode(4)},
		{"read in write mode", read, IndirectWrite},
		{"write in read mode", must(protocol.BuildQuadPageProgramCmd(0, 4)), IndirectRead},
		{"poll without data", must(protocol.BuildWriteEnableCmd()), AutoPolling},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := EncodeQUADSPI(tt.cmd, tt.mode); err == nil {
				t.Error("EncodeQUADSPI: expected error")
			}
			if _, err := EncodeOCTOSPI(tt.cmd, tt.mode); err == nil {
				t.Error("EncodeOCTOSPI: expected error")
			}
		})
	}
}

func TestEncodePoll(t *testing.T) {
	tests := []struct {
		name string
		p    protocol.Predicate
		want PollRegs
	}{
		{"memory ready", protocol.MemReady(), PollRegs{PSMKR: 0x01, PSMAR: 0x00, PIR: 0x10}},
		{"write enabled", protocol.WriteEnabled(), PollRegs{PSMKR: 0x02, PSMAR: 0x02, PIR: 0x10}},
		{
			"all clear ignores match",
			protocol.Predicate{Match: 0xFF, Mask: 0x03, Mode: protocol.MatchAllClear, Interval: 1},
			PollRegs{PSMKR: 0x03, PSMAR: 0x00, PIR: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EncodePoll(tt.p); got != tt.want {
				t.Errorf("EncodePoll() = %+v, want %+v", got, tt.want)
			}
		})
	}

	if cr := OCTOSPIPollCR(PollRegs{}); cr != 0x20000000 {
		t.Errorf("OCTOSPIPollCR() = 0x%08X, want 0x20000000", cr)
	}
	if cr := OCTOSPIPollCR(PollRegs{PMM: true}); cr != 0x20800000 {
		t.Errorf("OCTOSPIPollCR(PMM) = 0x%08X, want 0x20800000", cr)
	}
}

func TestEncodeConfig(t *testing.T) {
	cfg := flash.BusConfig{
		ClockPrescaler:       1,
		FlashSize:            protocol.MX25R6435F.SizeLog2(),
		FifoThreshold:        4,
		ChipSelectHighCycles: 1,
	}

	q, err := EncodeQUADSPIConfig(cfg)
	if err != nil {
		t.Fatalf("EncodeQUADSPIConfig: %v", err)
	}
	if q.CR != 0x01000301 {
		t.Errorf("QUADSPI CR = 0x%08X, want 0x01000301", q.CR)
	}
	// FSIZE holds log2(size)-1
	if q.DCR != 0x00160000 {
		t.Errorf("QUADSPI DCR = 0x%08X, want 0x00160000", q.DCR)
	}

	o, err := EncodeOCTOSPIConfig(cfg)
	if err != nil {
		t.Fatalf("EncodeOCTOSPIConfig: %v", err)
	}
	if o.CR != 0x00000301 {
		t.Errorf("OCTOSPI CR = 0x%08X, want 0x00000301", o.CR)
	}
	// DEVSIZE holds log2(size)
	if o.DCR1 != 0x00170000 {
		t.Errorf("OCTOSPI DCR1 = 0x%08X, want 0x00170000", o.DCR1)
	}
	if o.DCR2 != 1 {
		t.Errorf("OCTOSPI DCR2 = 0x%08X, want 1", o.DCR2)
	}

	mode3 := cfg
	mode3.ClockMode = 3
	mode3.ChipSelectHighCycles = 2
	if q, _ := EncodeQUADSPIConfig(mode3); q.DCR != 0x00160101 {
		t.Errorf("QUADSPI DCR mode 3 = 0x%08X, want 0x00160101", q.DCR)
	}
}

func TestEncodeConfigErrors(t *testing.T) {
	base := flash.BusConfig{ClockPrescaler: 1, FlashSize: 23, FifoThreshold: 4, ChipSelectHighCycles: 1}

	tests := []struct {
		name    string
		modify  func(*flash.BusConfig)
		quadErr bool
		octoErr bool
	}{
		{"zero size", func(c *flash.BusConfig) { c.FlashSize = 0 }, true, true},
		{"size too large", func(c *flash.BusConfig) { c.FlashSize = 33 }, true, true},
		{"zero FIFO threshold", func(c *flash.BusConfig) { c.FifoThreshold = 0 }, true, true},
		{"FIFO threshold 32", func(c *flash.BusConfig) { c.FifoThreshold = 32 }, true, false},
		{"chip select high 9", func(c *flash.BusConfig) { c.ChipSelectHighCycles = 9 }, true, true},
		{"clock mode 1", func(c *flash.BusConfig) { c.ClockMode = 1 }, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.modify(&cfg)

			_, err := EncodeQUADSPIConfig(cfg)
			if (err != nil) != tt.quadErr {
				t.Errorf("EncodeQUADSPIConfig() error = %v, wantErr %v", err, tt.quadErr)
			}
			_, err = EncodeOCTOSPIConfig(cfg)
			if (err != nil) != tt.octoErr {
				t.Errorf("EncodeOCTOSPIConfig() error = %v, wantErr %v", err, tt.octoErr)
			}
		})
	}
}

func TestPinMap(t *testing.T) {
	instance, err := flash.ResolveInstance(BL475EIOT01A, STM32L475)
	if err != nil {
		t.Fatalf("ResolveInstance: %v", err)
	}
	if instance != "QUADSPI" {
		t.Errorf("instance = %q, want QUADSPI", instance)
	}

	// PB1 carries D0, not D1
	pins := BL475EIOT01A
	pins.Data[1] = "PB1"
	_, err = flash.ResolveInstance(pins, STM32L475)
	var pinErr *flash.PinError
	if !errors.As(err, &pinErr) || pinErr.Role != flash.PinData1 {
		t.Errorf("error = %v, want PinError for D1", err)
	}
}
