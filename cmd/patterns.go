package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/affect-fusion/internal/app"
)

var (
	patternsFormat string
	patternsOut    string
)

// patternsCmd groups the pattern table commands
var patternsCmd = &cobra.Command{
	Use:   "patterns",
	Short: "Export or validate emotion pattern tables",
	Long: `Work with emotion pattern tables.

A pattern table lists each emotion's keyword groups, context phrases and
acoustic profile, plus the shared intensifier, negator and sarcasm lists.
Export the built-in table as a starting point for a custom one.

Examples:
  # Write the built-in table as YAML
  affect-fusion patterns export --format yaml --out patterns.yaml

  # Check a custom table before deploying it
  affect-fusion patterns validate patterns.yaml`,
}

var patternsExportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Print a pattern table, the built-in one by default",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runPatternsExport,
}

var patternsValidateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Load and compile a pattern table",
	Args:  cobra.ExactArgs(1),
	RunE:  runPatternsValidate,
}

func init() {
	rootCmd.AddCommand(patternsCmd)
	patternsCmd.AddCommand(patternsExportCmd)
	patternsCmd.AddCommand(patternsValidateCmd)

	patternsExportCmd.Flags().StringVarP(&patternsFormat, "format", "f", "yaml",
		"table format (yaml, json)")
	patternsExportCmd.Flags().StringVar(&patternsOut, "out", "",
		"write the table to a file instead of stdout")
}

func runPatternsExport(cmd *cobra.Command, args []string) error {
	path := ""
	if len(args) == 1 {
		path = args[0]
	}

	table, err := app.LoadPatternTable(path)
	if err != nil {
		return err
	}

	data, err := app.EncodePatternTable(table, patternsFormat)
	if err != nil {
		return err
	}

	if patternsOut == "" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(patternsOut, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", patternsOut, err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%sPattern table written to %s%s\n", ColorGreen, patternsOut, ColorReset)
	return nil
}

func runPatternsValidate(cmd *cobra.Command, args []string) error {
	table, err := app.LoadPatternTable(args[0])
	if err != nil {
		return fmt.Errorf("%sInvalid pattern table: %v%s", ColorRed, err, ColorReset)
	}

	printSection("PATTERN TABLE")
	printKeyValue("File", args[0])
	printKeyValue("Emotions", fmt.Sprintf("(%d) %s", len(table.Patterns), strings.Join(table.Labels(), ", ")))
	printKeyValue("Intensifiers", fmt.Sprintf("%d", len(table.Intensifiers)))
	printKeyValue("Negators", fmt.Sprintf("%d", len(table.Negators)))
	printKeyValue("Sarcasm Markers", fmt.Sprintf("%d", len(table.SarcasmMarkers)))

	for _, p := range table.Patterns {
		printSubsection(strings.ToUpper(p.Label))
		printKeyValue("  Valence", string(p.Valence))
		printKeyValue("  Keyword Groups", fmt.Sprintf("%d", len(p.KeywordGroups)))
		printKeyValue("  Context Phrases", fmt.Sprintf("%d", len(p.ContextPhrases)))
		printKeyValue("  Pitch Range", fmt.Sprintf("%.0f-%.0f Hz (optimal %.0f)", p.Voice.PitchMin, p.Voice.PitchMax, p.Voice.PitchOptimal))
		printKeyValue("  Energy Range", fmt.Sprintf("%.2f-%.2f", p.Voice.EnergyMin, p.Voice.EnergyMax))
		printKeyValue("  Weights", fmt.Sprintf("text %.2f / voice %.2f", p.TextWeight, p.VoiceWeight))
	}

	fmt.Printf("\n%sPattern table is valid%s\n", ColorGreen, ColorReset)
	return nil
}
