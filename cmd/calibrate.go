package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/RyanBlaney/affect-fusion/internal/app"
)

var (
	calibrateUser    string
	calibrateHz      float64
	calibrateAudio   string
	calibrateTimeout time.Duration
)

// calibrateCmd represents the calibrate command
var calibrateCmd = &cobra.Command{
	Use:   "calibrate",
	Short: "Set a speaker's baseline pitch",
	Long: `Set the baseline pitch used to re-center a speaker's voice.

The baseline is either given directly in Hz or measured from a WAV sample of
the speaker talking in their normal register.

Examples:
  # Explicit baseline
  affect-fusion calibrate --user alice --hz 210

  # Measure the baseline from a sample
  affect-fusion calibrate --user alice --audio neutral.wav`,
	RunE: runCalibrate,
}

// calibrationCmd groups the calibration inspection commands
var calibrationCmd = &cobra.Command{
	Use:   "calibration",
	Short: "Inspect or clear stored calibration",
}

var calibrationShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show a speaker's stored calibration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCalibrationApp(func(ctx context.Context, a *app.AnalyzeApp) error {
			return a.ShowCalibration(ctx)
		})
	},
}

var calibrationResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear a speaker's calibration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCalibrationApp(func(ctx context.Context, a *app.AnalyzeApp) error {
			return a.ResetCalibration(ctx)
		})
	},
}

func init() {
	rootCmd.AddCommand(calibrateCmd)
	rootCmd.AddCommand(calibrationCmd)
	calibrationCmd.AddCommand(calibrationShowCmd)
	calibrationCmd.AddCommand(calibrationResetCmd)

	calibrateCmd.Flags().StringVarP(&calibrateUser, "user", "u", "",
		"speaker ID to calibrate")
	calibrateCmd.Flags().Float64Var(&calibrateHz, "hz", 0,
		"baseline pitch in Hz")
	calibrateCmd.Flags().StringVarP(&calibrateAudio, "audio", "a", "",
		"WAV sample to measure the baseline from")
	calibrateCmd.Flags().DurationVar(&calibrateTimeout, "timeout", 30*time.Second,
		"timeout for calibration")
	calibrateCmd.MarkFlagRequired("user")
	calibrateCmd.MarkFlagsMutuallyExclusive("hz", "audio")

	calibrationCmd.PersistentFlags().StringVarP(&calibrateUser, "user", "u", "",
		"speaker ID")
	calibrationCmd.MarkPersistentFlagRequired("user")
}

func runCalibrate(cmd *cobra.Command, args []string) error {
	appCtx := &app.Context{
		AudioFile:    calibrateAudio,
		UserID:       calibrateUser,
		OutputFormat: viper.GetString("output_format"),
		Verbose:      viper.GetBool("verbose"),
	}

	calibrateApp, err := app.NewAnalyzeApp(appCtx)
	if err != nil {
		return err
	}
	defer calibrateApp.Close()

	ctx, cancel := context.WithTimeout(context.Background(), calibrateTimeout)
	defer cancel()

	return calibrateApp.Calibrate(ctx, calibrateHz)
}

func withCalibrationApp(fn func(ctx context.Context, a *app.AnalyzeApp) error) error {
	appCtx := &app.Context{
		UserID:       calibrateUser,
		OutputFormat: viper.GetString("output_format"),
		Verbose:      viper.GetBool("verbose"),
	}

	calibrationApp, err := app.NewAnalyzeApp(appCtx)
	if err != nil {
		return err
	}
	defer calibrationApp.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return fn(ctx, calibrationApp)
}
