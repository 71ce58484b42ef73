package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/RyanBlaney/affect-fusion/internal/app"
)

var (
	analyzeAudio          string
	analyzeTranscript     string
	analyzeUser           string
	analyzePatterns       string
	analyzeMode           string
	analyzeOutputFile     string
	analyzeDetailed       bool
	analyzeTimeout        time.Duration
	analyzeExternalScores map[string]string
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Detect the emotion of one utterance",
	Long: `Analyze a single utterance from a WAV file, a transcript or both.

The voice path extracts pitch, energy and speech rate from the audio and
matches them against each emotion's acoustic profile. The text path scores
the transcript against the emotion lexicon. Both are fused into a single
normalized distribution.

Examples:
  # Transcript only
  affect-fusion analyze --transcript "I can't believe we actually won!"

  # Audio and transcript for a known speaker
  affect-fusion analyze --audio clip.wav --transcript "fine, whatever" --user alice

  # Include scores from an upstream classifier
  affect-fusion analyze --transcript "this is great" --external-scores joy=0.7,anger=0.1

  # Detailed JSON written to a file
  affect-fusion analyze --audio clip.wav --detailed --output json --output-file result.json`,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVarP(&analyzeAudio, "audio", "a", "",
		"path to a WAV file")
	analyzeCmd.Flags().StringVarP(&analyzeTranscript, "transcript", "t", "",
		"transcript of the utterance")
	analyzeCmd.Flags().StringVarP(&analyzeUser, "user", "u", "",
		"speaker ID used to key calibration")
	analyzeCmd.Flags().StringVar(&analyzePatterns, "patterns", "",
		"emotion pattern table (YAML or JSON)")
	analyzeCmd.Flags().StringVar(&analyzeMode, "mode", "",
		"detector mode (utterance, continuous)")
	analyzeCmd.Flags().StringVar(&analyzeOutputFile, "output-file", "",
		"write results to a file instead of stdout")
	analyzeCmd.Flags().BoolVar(&analyzeDetailed, "detailed", false,
		"include extracted features and per-emotion evidence")
	analyzeCmd.Flags().DurationVar(&analyzeTimeout, "timeout", 30*time.Second,
		"timeout for the analysis")
	analyzeCmd.Flags().StringToStringVar(&analyzeExternalScores, "external-scores", nil,
		"external classifier scores as label=score pairs")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	scores, err := parseScores(analyzeExternalScores)
	if err != nil {
		return err
	}

	appCtx := &app.Context{
		AudioFile:        analyzeAudio,
		Transcript:       analyzeTranscript,
		UserID:           analyzeUser,
		PatternsFile:     analyzePatterns,
		Mode:             analyzeMode,
		OutputFile:       analyzeOutputFile,
		OutputFormat:     viper.GetString("output_format"),
		Timeout:          analyzeTimeout,
		ExternalScores:   scores,
		Verbose:          viper.GetBool("verbose"),
		DetailedAnalysis: analyzeDetailed,
	}

	analyzeApp, err := app.NewAnalyzeApp(appCtx)
	if err != nil {
		return err
	}
	defer analyzeApp.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return analyzeApp.Run(ctx)
}

// parseScores converts label=score flag pairs into a score map
func parseScores(raw map[string]string) (map[string]float64, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	scores := make(map[string]float64, len(raw))
	for label, value := range raw {
		score, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid score for %q: %w", label, err)
		}
		scores[label] = score
	}
	return scores, nil
}
