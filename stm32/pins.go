package stm32

import "github.com/moffa90/go-mx25r/flash"

// PinMap is a flash.PinMapper backed by the alternate function table of
// one part: for each signal, the pins that carry it and the controller
// instance they belong to.
type PinMap map[flash.PinRole]map[string]string

// Peripheral implements flash.PinMapper.
func (m PinMap) Peripheral(role flash.PinRole, pin string) (string, bool) {
	instance, ok := m[role][pin]
	return instance, ok
}

// STM32L475 lists the QUADSPI pins of the STM32L475/L476 in LQFP100.
var STM32L475 = PinMap{
	flash.PinData0:      {"PB1": "QUADSPI", "PE12": "QUADSPI"},
	flash.PinData1:      {"PB0": "QUADSPI", "PE13": "QUADSPI"},
	flash.PinData2:      {"PA7": "QUADSPI", "PE14": "QUADSPI"},
	flash.PinData3:      {"PA6": "QUADSPI", "PE15": "QUADSPI"},
	flash.PinClock:      {"PB10": "QUADSPI", "PE10": "QUADSPI", "PA3": "QUADSPI"},
	flash.PinChipSelect: {"PB11": "QUADSPI", "PE11": "QUADSPI", "PA2": "QUADSPI"},
}

// BL475EIOT01A is the wiring of the MX25R6435F on the B-L475E-IOT01A
// discovery kit.
var BL475EIOT01A = flash.Pins{
	Data:       [4]string{"PE12", "PE13", "PE14", "PE15"},
	Clock:      "PE10",
	ChipSelect: "PE11",
}
