// Command lr35902 runs a flat binary image through the CPU core and
// reports how it finished. It is a conformance-running harness, not a
// front end: no graphics, no audio, no cartridge mapper.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"lr35902/cpu"
	"lr35902/mem"
)

func main() {
	var (
		initialPC uint16
		initialSP uint16
		loadAddr  uint16
		trace     bool
		maxSteps  uint64
		debug     bool
	)

	root := &cobra.Command{
		Use:   "lr35902 [image]",
		Short: "Run a flat Sharp LR35902 binary image against the instruction core",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
			if trace {
				zerolog.SetGlobalLevel(zerolog.TraceLevel)
			}

			image, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading image: %w", err)
			}

			ram := mem.NewRAM()
			ram.LoadAt(loadAddr, image)

			c := cpu.New(ram)
			c.SetPC(initialPC)
			c.SetSP(initialSP)

			log.Info().
				Uint16("pc", initialPC).
				Uint16("sp", initialSP).
				Uint16("loadAddr", loadAddr).
				Int("imageBytes", len(image)).
				Msg("starting run")

			if debug {
				cpu.Debug(c, ram, image, loadAddr)
				return nil
			}

			steps, err := c.Run(nil, maxSteps, func(pc uint16, cycles uint8) {
				log.Trace().
					Uint16("pc", pc).
					Uint8("cycles", cycles).
					Uint64("totalCycles", c.CycleCounter()).
					Msg("step")
			})

			log.Info().
				Uint64("steps", steps).
				Uint64("cycles", c.CycleCounter()).
				Msg("run finished")

			if _, ok := err.(cpu.StepLimitReached); ok {
				return nil
			}
			return err
		},
	}

	root.Flags().Uint16Var(&initialPC, "pc", 0x0100, "initial program counter")
	root.Flags().Uint16Var(&initialSP, "sp", 0xFFFE, "initial stack pointer")
	root.Flags().Uint16Var(&loadAddr, "load-addr", 0x0100, "address the image is loaded at")
	root.Flags().BoolVar(&trace, "trace", false, "emit a structured trace line per instruction")
	root.Flags().Uint64Var(&maxSteps, "max-steps", 0, "stop after this many instructions (0 = unbounded)")
	root.Flags().BoolVar(&debug, "debug", false, "launch the interactive step-through TUI instead of running freely")

	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("run failed")
		os.Exit(1)
	}
}
