// Command mx25sim drives a simulated MX25R6435F backed by an image file.
//
// Every command loads the image, initializes the chip the way firmware
// does, runs one operation and writes the image back:
//
//	mx25sim --image flash.bin program firmware.hex
//	mx25sim --image flash.bin read 0x1000 64
//	mx25sim --image flash.bin erase sector 3
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"periph.io/x/conn/v3/physic"

	"github.com/moffa90/go-mx25r/protocol"
)

type options struct {
	image    string
	hclk     physic.Frequency
	verbose  bool
	trace    bool
	progress bool
}

// frequencyValue adapts physic.Frequency to a command line flag.
type frequencyValue struct {
	f *physic.Frequency
}

var _ pflag.Value = frequencyValue{}

func (v frequencyValue) String() string {
	if v.f == nil {
		return ""
	}
	return v.f.String()
}

func (v frequencyValue) Set(s string) error {
	return v.f.Set(s)
}

func (v frequencyValue) Type() string {
	return "frequency"
}

func newRootCmd() *cobra.Command {
	opts := &options{
		image: "flash.bin",
		hclk:  protocol.MaxClock,
	}

	root := &cobra.Command{
		Use:           "mx25sim",
		Short:         "Simulated MX25R6435F quad-SPI flash",
		Long:          "Drive a simulated MX25R6435F through the flash driver, with the array stored in an image file",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.image, "image", opts.image, "flash image file, created erased if missing")
	flags.Var(frequencyValue{&opts.hclk}, "hclk", "controller input clock (e.g. 80MHz, 110MHz)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log driver debug messages")
	flags.BoolVar(&opts.trace, "trace", false, "log every bus transaction")
	flags.BoolVar(&opts.progress, "progress", false, "show a progress bar while writing")

	root.AddCommand(
		newInfoCmd(opts),
		newStatusCmd(opts),
		newReadCmd(opts),
		newWriteCmd(opts),
		newProgramCmd(opts),
		newEraseCmd(opts),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
