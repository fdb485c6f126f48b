package cmd

import (
	"fmt"
	"os"

	"github.com/OpenTraceLab/OpenTraceSVF/internal/config"
	"github.com/OpenTraceLab/OpenTraceSVF/pkg/jtag"
	"github.com/OpenTraceLab/OpenTraceSVF/pkg/svf"
	"github.com/spf13/cobra"
)

var (
	runCable   string
	runSpeed   int
	runBatch   int
	runCfgPath string
	runReset   bool
)

var runCmd = &cobra.Command{
	Use:   "run <svf-file>",
	Short: "Play an SVF file against a JTAG TAP",
	Long: `Parse an SVF file and execute it command by command: shift the scan
vectors, verify captured TDO against the masked expectations, and clock
the run-test cycles.

Examples:
  svfplay run program.svf
  svfplay run --cable cmsis-dap --speed 4000000 program.svf
  svfplay run --config svfplay.yaml program.svf`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runCable, "cable", "c", "",
		"cable to drive (simulator or cmsis-dap)")
	runCmd.Flags().IntVarP(&runSpeed, "speed", "s", 0,
		"TCK frequency in Hz")
	runCmd.Flags().IntVar(&runBatch, "batch", 0,
		"idle cycles per run-test transfer")
	runCmd.Flags().StringVar(&runCfgPath, "config", "",
		"path to a YAML configuration file")
	runCmd.Flags().BoolVar(&runReset, "reset", false,
		"run the probe's target reset sequence before playback")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := newLogger()

	cable, err := openCable(cfg)
	if err != nil {
		return err
	}
	defer cable.Close()

	if err := cable.SetSpeed(cfg.SpeedHz); err != nil {
		return fmt.Errorf("set cable speed: %w", err)
	}

	if runReset {
		resetter, ok := cable.(jtag.TargetResetter)
		if !ok {
			return fmt.Errorf("cable %s cannot reset the target", cfg.Cable)
		}
		if err := resetter.ResetTarget(); err != nil {
			return fmt.Errorf("reset target: %w", err)
		}
	}

	driver := jtag.NewDriver(cable)
	if err := driver.Reset(); err != nil {
		return fmt.Errorf("reset TAP: %w", err)
	}

	player := svf.NewPlayer(driver, logger)
	player.ClockBatch = cfg.ClockBatch

	parser, err := svf.NewParser()
	if err != nil {
		return fmt.Errorf("create parser: %w", err)
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}

	if err := player.Run(parser.Commands(args[0], string(data))); err != nil {
		return fmt.Errorf("play %s: %w", args[0], err)
	}

	logger.Info("playback finished", "file", args[0])
	return nil
}

// loadConfig resolves the effective configuration: file (or defaults)
// first, then flag overrides.
func loadConfig() (config.Config, error) {
	cfg := config.Default()
	if runCfgPath != "" {
		var err error
		if cfg, err = config.Load(runCfgPath); err != nil {
			return cfg, err
		}
	}

	if runCable != "" {
		cfg.Cable = runCable
	}
	if runSpeed > 0 {
		cfg.SpeedHz = runSpeed
	}
	if runBatch > 0 {
		cfg.ClockBatch = runBatch
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func openCable(cfg config.Config) (jtag.Cable, error) {
	switch cfg.Cable {
	case config.CableSimulator:
		return jtag.NewSimCable(), nil
	case config.CableCMSISDAP:
		cable, err := jtag.NewCMSISDAP(cfg.USB.VendorID, cfg.USB.ProductID)
		if err != nil {
			return nil, fmt.Errorf("open CMSIS-DAP probe %04X:%04X: %w",
				cfg.USB.VendorID, cfg.USB.ProductID, err)
		}
		return cable, nil
	default:
		return nil, fmt.Errorf("unknown cable %q", cfg.Cable)
	}
}
