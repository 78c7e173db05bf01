package protocol

import (
	"fmt"

	"periph.io/x/conn/v3/physic"
)

// MaxPrescaler is the exclusive upper bound of the controller prescaler.
const MaxPrescaler = 255

// ClockPrescaler returns the smallest divider i in [1, MaxPrescaler) such
// that hclk/i does not exceed limit.
//
// The controller clocks the chip at hclk/(prescaler+1), so the value
// returned here is the high-performance setting; the slower setting used
// before high-performance mode is confirmed is the result plus one.
func ClockPrescaler(hclk, limit physic.Frequency) (uint8, error) {
	if hclk <= 0 {
		return 0, fmt.Errorf("invalid bus clock %s", hclk)
	}
	if limit <= 0 {
		return 0, fmt.Errorf("invalid maximum clock %s", limit)
	}

	for i := 1; i < MaxPrescaler; i++ {
		if hclk/physic.Frequency(i) <= limit {
			return uint8(i), nil
		}
	}

	return 0, fmt.Errorf("no prescaler brings %s below %s", hclk, limit)
}
