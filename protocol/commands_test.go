package protocol

import (
	"strings"
	"testing"
)

func TestBuildReadCmd(t *testing.T) {
	tests := []struct {
		name    string
		addr    uint32
		n       int
		wantErr bool
		errMsg  string
	}{
		{
			name: "single byte at zero",
			addr: 0,
			n:    1,
		},
		{
			name: "full array",
			addr: 0,
			n:    FlashSize,
		},
		{
			name: "last byte of 24-bit space",
			addr: MaxAddress,
			n:    1,
		},
		{
			name:    "zero length",
			addr:    0x1000,
			n:       0,
			wantErr: true,
			errMsg:  "data length must be positive",
		},
		{
			name:    "address beyond 24 bits",
			addr:    0x1000000,
			n:       1,
			wantErr: true,
			errMsg:  "exceeds 24-bit range",
		},
		{
			name:    "transfer wraps 24-bit space",
			addr:    MaxAddress,
			n:       2,
			wantErr: true,
			errMsg:  "exceeds 24-bit range",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := BuildReadCmd(tt.addr, tt.n)

			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error containing %q, got nil", tt.errMsg)
				}
				if !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("error = %v, want substring %q", err, tt.errMsg)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if err := cmd.Validate(); err != nil {
				t.Fatalf("built descriptor is invalid: %v", err)
			}

			if cmd.Instruction != CmdQuadInOutRead {
				t.Errorf("Instruction = 0x%02X, want 0x%02X", cmd.Instruction, CmdQuadInOutRead)
			}
			if cmd.InstructionLines != Lines1 {
				t.Errorf("InstructionLines = %d, want 1", cmd.InstructionLines)
			}
			if cmd.AddressLines != Lines4 || cmd.AlternateLines != Lines4 || cmd.DataLines != Lines4 {
				t.Errorf("address/alternate/data lines = %d/%d/%d, want 4/4/4",
					cmd.AddressLines, cmd.AlternateLines, cmd.DataLines)
			}
			if cmd.AlternateBytes != AltBytesNoPerformanceEnhance {
				t.Errorf("AlternateBytes = 0x%02X, want 0x%02X", cmd.AlternateBytes, AltBytesNoPerformanceEnhance)
			}
			if cmd.DummyCycles != DummyCyclesReadQuad {
				t.Errorf("DummyCycles = %d, want %d", cmd.DummyCycles, DummyCyclesReadQuad)
			}
			if cmd.Direction != DirRead || cmd.DataLength != tt.n {
				t.Errorf("data = %s/%d, want read/%d", cmd.Direction, cmd.DataLength, tt.n)
			}
			if cmd.Address != tt.addr {
				t.Errorf("Address = 0x%06X, want 0x%06X", cmd.Address, tt.addr)
			}
		})
	}
}

func TestBuildQuadPageProgramCmd(t *testing.T) {
	tests := []struct {
		name    string
		addr    uint32
		n       int
		wantErr bool
		errMsg  string
	}{
		{
			name: "full aligned page",
			addr: 0x1000,
			n:    PageSize,
		},
		{
			name: "tail of page",
			addr: 0x10F0,
			n:    0x10,
		},
		{
			name:    "crosses page boundary",
			addr:    0x10F0,
			n:       0x11,
			wantErr: true,
			errMsg:  "crosses a page boundary",
		},
		{
			name:    "longer than a page",
			addr:    0,
			n:       PageSize + 1,
			wantErr: true,
			errMsg:  "exceeds page size",
		},
		{
			name:    "empty",
			addr:    0,
			n:       0,
			wantErr: true,
			errMsg:  "data length must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := BuildQuadPageProgramCmd(tt.addr, tt.n)

			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error containing %q, got nil", tt.errMsg)
				}
				if !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("error = %v, want substring %q", err, tt.errMsg)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cmd.Instruction != CmdQuadPageProgram {
				t.Errorf("Instruction = 0x%02X, want 0x%02X", cmd.Instruction, CmdQuadPageProgram)
			}
			if cmd.AddressLines != Lines4 || cmd.DataLines != Lines4 {
				t.Errorf("address/data lines = %d/%d, want 4/4", cmd.AddressLines, cmd.DataLines)
			}
			if cmd.AlternateLines != LinesNone || cmd.DummyCycles != 0 {
				t.Errorf("program must not carry alternate bytes or dummy cycles: %s", cmd)
			}
			if cmd.Direction != DirWrite || cmd.DataLength != tt.n {
				t.Errorf("data = %s/%d, want write/%d", cmd.Direction, cmd.DataLength, tt.n)
			}
		})
	}
}

func TestInstructionOnlyBuilders(t *testing.T) {
	tests := []struct {
		name   string
		build  func() (*Command, error)
		opcode byte
	}{
		{"write enable", BuildWriteEnableCmd, CmdWriteEnable},
		{"chip erase", BuildChipEraseCmd, CmdChipErase},
		{"reset enable", BuildResetEnableCmd, CmdResetEnable},
		{"reset memory", BuildResetMemoryCmd, CmdResetMemory},
		{"suspend", BuildSuspendCmd, CmdSuspend},
		{"resume", BuildResumeCmd, CmdResume},
		{"deep power down", BuildDeepPowerDownCmd, CmdDeepPowerDown},
		{"no operation", BuildNoOperationCmd, CmdNoOperation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := tt.build()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if err := cmd.Validate(); err != nil {
				t.Fatalf("built descriptor is invalid: %v", err)
			}
			if cmd.Instruction != tt.opcode {
				t.Errorf("Instruction = 0x%02X, want 0x%02X", cmd.Instruction, tt.opcode)
			}
			if cmd.AddressLines != LinesNone || cmd.AlternateLines != LinesNone || cmd.HasData() {
				t.Errorf("expected instruction-only descriptor, got %s", cmd)
			}
		})
	}
}

func TestRegisterReadBuilders(t *testing.T) {
	tests := []struct {
		name   string
		build  func() (*Command, error)
		opcode byte
		length int
	}{
		{"status", BuildReadStatusCmd, CmdReadStatusReg, 1},
		{"config", BuildReadConfigCmd, CmdReadConfigReg, 2},
		{"security", BuildReadSecurityCmd, CmdReadSecurityReg, 1},
		{"jedec id", BuildReadIDCmd, CmdReadID, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := tt.build()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cmd.Instruction != tt.opcode {
				t.Errorf("Instruction = 0x%02X, want 0x%02X", cmd.Instruction, tt.opcode)
			}
			if cmd.Direction != DirRead || cmd.DataLines != Lines1 || cmd.DataLength != tt.length {
				t.Errorf("data = %s/%d lines/%d bytes, want read/1/%d",
					cmd.Direction, cmd.DataLines, cmd.DataLength, tt.length)
			}
		})
	}
}

func TestBuildEraseCmds(t *testing.T) {
	block, err := BuildBlockEraseCmd(0x20000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if block.Instruction != CmdBlockErase || block.AddressLines != Lines1 || block.Address != 0x20000 {
		t.Errorf("block erase = %s", block)
	}

	sector, err := BuildSectorEraseCmd(0x3000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sector.Instruction != CmdSectorErase || sector.AddressLines != Lines1 || sector.Address != 0x3000 {
		t.Errorf("sector erase = %s", sector)
	}
	if sector.HasData() {
		t.Error("sector erase must not have a data phase")
	}

	if _, err := BuildBlockEraseCmd(0x1000000); err == nil {
		t.Error("expected error for address beyond 24 bits")
	}
}

func TestBuildWriteStatusConfigCmd(t *testing.T) {
	for n := 1; n <= 3; n++ {
		cmd, err := BuildWriteStatusConfigCmd(n)
		if err != nil {
			t.Fatalf("n=%d: unexpected error: %v", n, err)
		}
		if cmd.Instruction != CmdWriteStatusConfig || cmd.Direction != DirWrite || cmd.DataLength != n {
			t.Errorf("n=%d: got %s", n, cmd)
		}
	}

	for _, n := range []int{0, 4} {
		if _, err := BuildWriteStatusConfigCmd(n); err == nil {
			t.Errorf("n=%d: expected error", n)
		}
	}
}

func TestBuildMemoryMappedCmds(t *testing.T) {
	read, err := BuildMemoryMappedReadCmd()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := read.Validate(); err != nil {
		t.Fatalf("read descriptor invalid: %v", err)
	}
	if read.Instruction != CmdQuadInOutRead || read.DataLength != 0 || read.Direction != DirRead {
		t.Errorf("mapped read = %s", read)
	}

	write, err := BuildMemoryMappedWriteCmd()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if write.Instruction != CmdQuadPageProgram || write.AlternateLines != LinesNone || write.DummyCycles != 0 {
		t.Errorf("mapped write = %s", write)
	}
}
