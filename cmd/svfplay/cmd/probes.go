package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/OpenTraceLab/OpenTraceSVF/pkg/jtag"
	"github.com/spf13/cobra"
)

var probesCmd = &cobra.Command{
	Use:   "probes",
	Short: "List available JTAG probes",
	Long: `Scan the host for supported JTAG probes (CMSIS-DAP and compatible)
and print a summary. The in-process simulator is always listed.`,
	RunE: runProbes,
}

func init() {
	rootCmd.AddCommand(probesCmd)
}

func runProbes(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	infos, err := jtag.DiscoverProbes(ctx)
	if err != nil {
		return fmt.Errorf("discover probes: %w", err)
	}

	fmt.Println("Detected JTAG probes:")
	for _, probe := range infos {
		if probe.Kind == jtag.ProbeKindSim {
			fmt.Printf("  - %s [%s]\n", probe.Label(), probe.Kind)
			continue
		}
		fmt.Printf("  - %s [%s] (VID:PID %04X:%04X)\n",
			probe.Label(), probe.Kind, probe.VendorID, probe.ProductID)
	}

	return nil
}
