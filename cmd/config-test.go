package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/RyanBlaney/affect-fusion/configs"
)

// configTestCmd represents the config test command
var configTestCmd = &cobra.Command{
	Use:   "config-test",
	Short: "Test and display all configuration values",
	Long: `Test configuration loading and display all values to verify proper parsing.

This command loads the configuration and displays all values in a structured format
to help verify that your YAML configuration and AFFECT_FUSION_* environment
variables are being applied correctly.

Examples:
  # Test with default config file
  affect-fusion config-test

  # Test with specific config file
  affect-fusion --config /path/to/config.yaml config-test`,
	RunE: runConfigTest,
}

func init() {
	rootCmd.AddCommand(configTestCmd)
}

func runConfigTest(cmd *cobra.Command, args []string) error {
	fmt.Println("AFFECT FUSION CONFIGURATION TEST")
	fmt.Println(strings.Repeat("=", 80))

	// Load configuration
	config, err := configs.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := configs.ValidateConfig(config); err != nil {
		return fmt.Errorf("%sinvalid configuration: %v%s", ColorRed, err, ColorReset)
	}

	printSection("APPLICATION SETTINGS")
	printKeyValue("Verbose", fmt.Sprintf("%t", config.Verbose))
	printKeyValue("Log Level", config.LogLevel)
	printKeyValue("Output Format", config.OutputFormat)
	printKeyValue("Config Directory", config.ConfigDir)
	printKeyValue("Data Directory", config.DataDir)

	printSection("PROSODY")
	printKeyValue("Frame Size", fmt.Sprintf("%d", config.Prosody.FrameSize))
	printKeyValue("Hop Size", fmt.Sprintf("%d", config.Prosody.HopSize))
	printKeyValue("Pitch Range", fmt.Sprintf("%.0f-%.0f Hz", config.Prosody.MinPitchHz, config.Prosody.MaxPitchHz))
	printKeyValue("Voicing Threshold", fmt.Sprintf("%.2f", config.Prosody.VoicingThreshold))
	printKeyValue("Silence RMS", fmt.Sprintf("%g", config.Prosody.SilenceRMS))

	printSection("ENERGY")
	printKeyValue("Spike Frame Size", fmt.Sprintf("%d", config.Energy.SpikeFrameSize))
	printKeyValue("Spike Multiplier", fmt.Sprintf("%.2f", config.Energy.SpikeMultiplier))
	printKeyValue("Dynamics Window", fmt.Sprintf("%d", config.Energy.DynamicsWindow))
	printKeyValue("Dynamics Hop", fmt.Sprintf("%d", config.Energy.DynamicsHop))

	printSection("LEXICON")
	patterns := config.Lexicon.PatternsFile
	if patterns == "" {
		patterns = "(built-in)"
	}
	printKeyValue("Patterns File", patterns)
	printKeyValue("Context Phrase Bonus", fmt.Sprintf("%.2f", config.Lexicon.Scoring.ContextPhraseBonus))
	printKeyValue("Intensifier Bonus", fmt.Sprintf("%.2f (window %d)", config.Lexicon.Scoring.IntensifierBonus, config.Lexicon.Scoring.IntensifierWindow))
	printKeyValue("Negation Penalty", fmt.Sprintf("%.2f (window %d)", config.Lexicon.Scoring.NegationPenalty, config.Lexicon.Scoring.NegationWindow))
	printKeyValue("Consistency Bonus", fmt.Sprintf("%.2f", config.Lexicon.Scoring.ConsistencyBonus))
	printKeyValue("Min Transcript Chars", fmt.Sprintf("%d", config.Lexicon.Scoring.MinTranscriptChars))

	printSection("FUSION")
	printKeyValue("Pitch Weight", fmt.Sprintf("%.2f", config.Fusion.PitchWeight))
	printKeyValue("Energy Weight", fmt.Sprintf("%.2f", config.Fusion.EnergyWeight))
	printKeyValue("Tonal Bonus", fmt.Sprintf("%.2f", config.Fusion.TonalBonus))
	printKeyValue("Speech Rate Bonus", fmt.Sprintf("%.2f", config.Fusion.SpeechRateBonus))
	printKeyValue("Spike Bonus", fmt.Sprintf("%.2f", config.Fusion.SpikeBonus))
	printKeyValue("Sarcasm Energy Threshold", fmt.Sprintf("%.2f", config.Fusion.SarcasmEnergyThreshold))
	printKeyValue("Sarcasm Damping", fmt.Sprintf("%.2f", config.Fusion.SarcasmDamping))

	printSection("SMOOTHING")
	printKeyValue("Mode", config.Smoothing.Mode)
	printKeyValue("EMA Alpha", fmt.Sprintf("%.2f", config.Smoothing.EMAAlpha))
	printKeyValue("Buffer Capacity", fmt.Sprintf("%d", config.Smoothing.Decision.Capacity))
	printKeyValue("Buffer Window", config.Smoothing.Decision.Window.String())
	printKeyValue("Min Votes", fmt.Sprintf("%d", config.Smoothing.Decision.MinVotes))

	printSection("CALIBRATION")
	printKeyValue("Store", config.Calibration.Store)
	printKeyValue("Path", config.Calibration.Path)
	if config.Calibration.Store == "redis" {
		printKeyValue("Redis Address", config.Calibration.RedisAddr)
		printKeyValue("Redis DB", fmt.Sprintf("%d", config.Calibration.RedisDB))
		printKeyValue("Redis Prefix", config.Calibration.RedisPrefix)
		printKeyValue("Redis TTL", config.Calibration.RedisTTL.String())
	}
	printKeyValue("Reference Pitch", fmt.Sprintf("%.0f Hz", config.Calibration.ReferenceHz))

	printSection("CLASSIFIER")
	endpoint := config.Classifier.Endpoint
	if endpoint == "" {
		endpoint = "(disabled)"
	}
	printKeyValue("Endpoint", endpoint)
	printKeyValue("API Key", fmt.Sprintf("%t", config.Classifier.APIKey != ""))
	printKeyValue("Timeout", config.Classifier.Timeout.String())
	printKeyValue("Max Response Bytes", fmt.Sprintf("%d", config.Classifier.MaxResponseBytes))

	printSection("SERVER")
	printKeyValue("Address", config.Server.Address)
	printKeyValue("Read Timeout", config.Server.ReadTimeout.String())
	printKeyValue("Write Timeout", config.Server.WriteTimeout.String())
	printKeyValue("Shutdown Timeout", config.Server.ShutdownTimeout.String())
	printKeyValue("Session Idle", config.Server.SessionIdle.String())

	printSection("METRICS")
	printKeyValue("Enabled", fmt.Sprintf("%t", config.Metrics.Enabled))
	printKeyValue("Prefix", config.Metrics.Prefix)

	printSection("OUTPUT CONFIGURATION")
	printKeyValue("Precision", fmt.Sprintf("%d", config.Output.Precision))
	printKeyValue("Include Metadata", fmt.Sprintf("%t", config.Output.IncludeMetadata))
	printKeyValue("Timestamps", fmt.Sprintf("%t", config.Output.Timestamps))

	fmt.Println()
	fmt.Println(ColorGreen + strings.Repeat("-", 80))
	fmt.Println("CONFIGURATION TEST COMPLETED SUCCESSFULLY")
	fmt.Printf("Config file: %s\n", getConfigFilePath())
	fmt.Println(strings.Repeat("=", 80) + ColorReset)

	return nil
}

func getConfigFilePath() string {
	if used := viper.ConfigFileUsed(); used != "" {
		return used
	}
	return "(none, defaults and environment only)"
}
