package flash

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/moffa90/go-mx25r/protocol"
)

func TestSectorRangeError(t *testing.T) {
	err := &SectorRangeError{Index: 4096, Count: 2048}

	errMsg := err.Error()
	if !strings.Contains(errMsg, "sector 4096") {
		t.Errorf("error message should contain sector index, got: %s", errMsg)
	}
	if !strings.Contains(errMsg, "2048 sectors") {
		t.Errorf("error message should contain sector count, got: %s", errMsg)
	}
}

func TestAddressRangeError(t *testing.T) {
	err := &AddressRangeError{Address: 0x7FFFFF, Length: 2, Size: 0x800000}

	errMsg := err.Error()
	if !strings.Contains(errMsg, "0x7FFFFF") {
		t.Errorf("error message should contain address, got: %s", errMsg)
	}
	if !strings.Contains(errMsg, "out of range") {
		t.Errorf("error message should contain 'out of range', got: %s", errMsg)
	}
}

func TestVerifyError(t *testing.T) {
	err := &VerifyError{
		Register: "status",
		Mask:     protocol.SRQuadEnable,
		Expected: 0x42,
		Actual:   0x02,
	}

	errMsg := err.Error()
	if !strings.Contains(errMsg, "status register") {
		t.Errorf("error message should name the register, got: %s", errMsg)
	}
	// only the masked bits are reported
	if !strings.Contains(errMsg, "expected 0x40, got 0x00") {
		t.Errorf("error message should contain masked values, got: %s", errMsg)
	}
}

func TestPinError(t *testing.T) {
	tests := []struct {
		name string
		err  *PinError
		want string
	}{
		{
			name: "unmapped pin",
			err:  &PinError{Role: PinData3, Pin: "PA0"},
			want: `pin "PA0" (D3) has no quad-SPI function`,
		},
		{
			name: "mismatched instance",
			err:  &PinError{Role: PinClock, Pin: "PB2", Instance: "QUADSPI2", Want: "QUADSPI1"},
			want: `pin "PB2" (SCLK) belongs to QUADSPI2, other pins belong to QUADSPI1`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want protocol.Status
	}{
		{"nil", nil, protocol.StatusOK},
		{"not supported", ErrNotSupported, protocol.StatusNotSupported},
		{"wrapped not supported", fmt.Errorf("reset memory: %w", ErrNotSupported), protocol.StatusNotSupported},
		{"not initialized", ErrNotInitialized, protocol.StatusError},
		{"sector range", &SectorRangeError{Index: 1, Count: 1}, protocol.StatusError},
		{"verify", &VerifyError{}, protocol.StatusError},
		{"status", &protocol.UnexpectedStatusError{Want: protocol.StatusSuspended, Got: protocol.StatusBusy}, protocol.StatusError},
		{"bus", errors.New("bus fault"), protocol.StatusError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusOf(tt.err); got != tt.want {
				t.Errorf("StatusOf(%v) = %s, want %s", tt.err, got, tt.want)
			}
		})
	}
}

// mapPins is a PinMapper backed by a table keyed by pin name
type mapPins map[string]string

func (m mapPins) Peripheral(role PinRole, pin string) (string, bool) {
	instance, ok := m[pin]
	return instance, ok
}

func TestResolveInstance(t *testing.T) {
	board := mapPins{
		"PE10": "QUADSPI", "PE11": "QUADSPI", "PE12": "QUADSPI",
		"PE13": "QUADSPI", "PE14": "QUADSPI", "PE15": "QUADSPI",
		"PB0": "OCTOSPI2",
	}
	good := Pins{
		Data:       [4]string{"PE12", "PE13", "PE14", "PE15"},
		Clock:      "PE10",
		ChipSelect: "PE11",
	}

	t.Run("all pins on one instance", func(t *testing.T) {
		got, err := ResolveInstance(good, board)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "QUADSPI" {
			t.Errorf("instance = %q, want QUADSPI", got)
		}
	})

	t.Run("data 3 unmapped", func(t *testing.T) {
		pins := good
		pins.Data[3] = "PA0"

		_, err := ResolveInstance(pins, board)
		var pinErr *PinError
		if !errors.As(err, &pinErr) {
			t.Fatalf("error = %v, want PinError", err)
		}
		if pinErr.Role != PinData3 {
			t.Errorf("Role = %s, want D3", pinErr.Role)
		}
	})

	t.Run("chip select on another instance", func(t *testing.T) {
		pins := good
		pins.ChipSelect = "PB0"

		_, err := ResolveInstance(pins, board)
		var pinErr *PinError
		if !errors.As(err, &pinErr) {
			t.Fatalf("error = %v, want PinError", err)
		}
		if pinErr.Role != PinChipSelect || pinErr.Instance != "OCTOSPI2" || pinErr.Want != "QUADSPI" {
			t.Errorf("PinError = %+v", pinErr)
		}
	})

	t.Run("init fails before touching the bus", func(t *testing.T) {
		pins := good
		pins.Clock = "PB0"
		bus := NewMockBus()
		dev := New(bus, WithPins(pins, board))

		if err := dev.Init(context.Background()); err == nil {
			t.Fatal("expected error")
		}
		if len(bus.calls) != 0 {
			t.Errorf("issued %d transactions", len(bus.calls))
		}
	})

	t.Run("init passes instance to bus", func(t *testing.T) {
		bus := NewMockBus()
		dev := New(bus, WithPins(good, board))

		if err := dev.Init(context.Background()); err != nil {
			t.Fatalf("Init: %v", err)
		}
		for _, c := range bus.calls {
			if c.kind == "init" && c.cfg.Instance != "QUADSPI" {
				t.Errorf("bus init Instance = %q, want QUADSPI", c.cfg.Instance)
			}
		}
	})
}
