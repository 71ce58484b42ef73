package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/RyanBlaney/latency-benchmark-common/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/RyanBlaney/affect-fusion/internal/api"
	"github.com/RyanBlaney/affect-fusion/internal/app"
	"github.com/RyanBlaney/affect-fusion/pkg/affect"
)

var (
	serveAddress  string
	servePatterns string
	serveMode     string
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the detection HTTP and websocket API",
	Long: `Serve emotion detection over HTTP.

Endpoints:
  GET    /healthz                 liveness and retained session count
  POST   /v1/analyze              analyze one utterance
  GET    /v1/calibration/{user}   stored calibration for a speaker
  PUT    /v1/calibration/{user}   set a baseline (baselineHz or fromLast)
  DELETE /v1/calibration/{user}   clear a speaker's calibration
  GET    /v1/stream               websocket stream of utterances

Requests that carry contextHints.userId share one session per speaker, so
calibration and smoothing follow the speaker across requests.

Examples:
  # Serve on the configured address
  affect-fusion serve

  # Serve on a custom port with a redis calibration store
  AFFECT_FUSION_CALIBRATION_STORE=redis affect-fusion serve --address :9090`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddress, "address", "",
		"listen address (overrides server.address)")
	serveCmd.Flags().StringVar(&servePatterns, "patterns", "",
		"emotion pattern table (YAML or JSON)")
	serveCmd.Flags().StringVar(&serveMode, "mode", "",
		"default detector mode (utterance, continuous)")
}

func runServe(cmd *cobra.Command, args []string) error {
	appCtx := &app.Context{
		PatternsFile: servePatterns,
		Mode:         serveMode,
		OutputFormat: viper.GetString("output_format"),
		Verbose:      viper.GetBool("verbose"),
	}

	serveApp, err := app.NewAnalyzeApp(appCtx)
	if err != nil {
		return err
	}
	defer serveApp.Close()

	config := serveApp.Config()
	logger := serveApp.Logger()

	address := config.Server.Address
	if serveAddress != "" {
		address = serveAddress
	}

	registry := api.NewRegistry(func(ctx context.Context, key string) (*affect.Session, error) {
		return serveApp.NewSession(ctx, key)
	}, config.Server.SessionIdle)

	handlers := api.NewHandlers(api.Options{
		Registry:   registry,
		Store:      serveApp.Store(),
		Classifier: serveApp.Classifier(),
		Metrics:    serveApp.Metrics(),
		Mode:       serveApp.Mode(),
		Logger:     logger,
	})

	srv := &http.Server{
		Addr:         address,
		Handler:      handlers.Router(),
		ReadTimeout:  config.Server.ReadTimeout,
		WriteTimeout: config.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Server starting", logging.Fields{
			"address":           address,
			"mode":              string(serveApp.Mode()),
			"calibration_store": config.Calibration.Store,
			"classifier":        serveApp.Classifier().Enabled(),
		})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err, ok := <-serverErr:
		if ok {
			return fmt.Errorf("server failed to start: %w", err)
		}
		return nil
	case <-quit:
	}

	logger.Info("Shutting down server", logging.Fields{
		"sessions": registry.Len(),
	})

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	registry.Close(shutdownCtx)

	logger.Info("Server exited")
	return nil
}
