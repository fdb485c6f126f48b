package cmd

import (
	"fmt"

	"github.com/OpenTraceLab/OpenTraceSVF/pkg/svf"
	"github.com/spf13/cobra"
)

var parseCmd = &cobra.Command{
	Use:   "parse <svf-file>",
	Short: "Parse an SVF file and print its commands",
	Long: `Parse an SVF file without touching any hardware and print every
command in canonical form. Useful for checking a file before playing it.

Examples:
  svfplay parse program.svf
  svfplay parse -v program.svf`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	filename := args[0]

	if verbose {
		fmt.Printf("Parsing SVF file: %s\n\n", filename)
	}

	parser, err := svf.NewParser()
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	commands, err := parser.ParseFile(filename)
	if err != nil {
		return fmt.Errorf("failed to parse file: %w", err)
	}

	for _, command := range commands {
		fmt.Println(command)
	}

	if verbose {
		fmt.Printf("\n%d commands parsed.\n", len(commands))
	}
	return nil
}
