package app

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/RyanBlaney/affect-fusion/configs"
	"github.com/RyanBlaney/affect-fusion/internal/audio"
	"github.com/RyanBlaney/affect-fusion/internal/classifier"
	"github.com/RyanBlaney/affect-fusion/internal/storage"
	"github.com/RyanBlaney/affect-fusion/pkg/affect"
	"github.com/RyanBlaney/affect-fusion/pkg/calibration"
	"github.com/RyanBlaney/affect-fusion/pkg/fusion"
	"github.com/RyanBlaney/affect-fusion/pkg/lexicon"
	"github.com/RyanBlaney/latency-benchmark-common/logging"
	"github.com/RyanBlaney/latency-benchmark-common/output"
)

// Context holds the application context and configuration
type Context struct {
	// CLI arguments
	AudioFile        string
	Transcript       string
	UserID           string
	PatternsFile     string
	Mode             string
	OutputFile       string
	OutputFormat     string
	Timeout          time.Duration
	ExternalScores   map[string]float64
	Verbose          bool
	DetailedAnalysis bool

	// Runtime context
	Logger logging.Logger
	Config *configs.Config
}

// AnalyzeApp owns everything one CLI or server process shares: the loaded
// configuration, the pattern table, the calibration store and the optional
// text classifier
type AnalyzeApp struct {
	ctx        *Context
	config     *configs.Config
	table      *lexicon.Table
	store      calibration.Store
	classifier *classifier.Client
	metrics    *MetricsEmitter
	logger     logging.Logger
}

// NewAnalyzeApp loads configuration and opens the calibration store
func NewAnalyzeApp(ctx *Context) (*AnalyzeApp, error) {
	// Set up logging
	logger := setupLogging(ctx)
	ctx.Logger = logger

	// Load configuration
	config, err := loadAndMergeConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	ctx.Config = config

	table, err := LoadPatternTable(config.Lexicon.PatternsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load pattern table: %w", err)
	}

	storeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	store, err := storage.New(storeCtx, config.StorageConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open calibration store: %w", err)
	}

	logger.Debug("Analysis application initialized", logging.Fields{
		"patterns_file":     config.Lexicon.PatternsFile,
		"emotions":          len(table.Patterns),
		"mode":              config.Smoothing.Mode,
		"calibration_store": config.Calibration.Store,
		"classifier":        config.Classifier.Endpoint != "",
		"output_format":     ctx.OutputFormat,
	})

	return &AnalyzeApp{
		ctx:        ctx,
		config:     config,
		table:      table,
		store:      store,
		classifier: classifier.NewClient(config.Classifier, logger),
		metrics:    NewMetricsEmitter(config.Metrics.Enabled, config.Metrics.Prefix, ""),
		logger:     logger,
	}, nil
}

func (app *AnalyzeApp) Config() *configs.Config { return app.config }
func (app *AnalyzeApp) Table() *lexicon.Table { return app.table }
func (app *AnalyzeApp) Store() calibration.Store { return app.store }
func (app *AnalyzeApp) Classifier() *classifier.Client { return app.classifier }
func (app *AnalyzeApp) Metrics() *MetricsEmitter { return app.metrics }
func (app *AnalyzeApp) Logger() logging.Logger { return app.logger }
func (app *AnalyzeApp) Mode() affect.Mode { return affect.Mode(app.config.Smoothing.Mode) }
func (app *AnalyzeApp) Close() error { return app.store.Close() }

// NewSession starts a session whose calibration is keyed by key. An empty
// key gives an anonymous session keyed by its own ID.
func (app *AnalyzeApp) NewSession(ctx context.Context, key string, opts ...affect.SessionOption) (*affect.Session, error) {
	opts = append([]affect.SessionOption{
		affect.WithStore(app.store),
		affect.WithLogger(app.logger),
	}, opts...)
	if key != "" {
		opts = append(opts, affect.WithCalibrationKey(key))
	}

	session, err := affect.NewSession(app.table, app.config.DetectorConfig(), opts...)
	if err != nil {
		return nil, err
	}
	if err := session.Start(ctx); err != nil {
		return nil, err
	}
	return session, nil
}

// Run analyzes the utterance described by the CLI arguments
func (app *AnalyzeApp) Run(ctx context.Context) error {
	if app.ctx.AudioFile == "" && strings.TrimSpace(app.ctx.Transcript) == "" {
		return fmt.Errorf("nothing to analyze: provide an audio file, a transcript or both")
	}

	if app.ctx.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, app.ctx.Timeout)
		defer cancel()
	}

	utt := affect.Utterance{
		Transcript:     app.ctx.Transcript,
		Hints:          affect.Hints{UserID: app.ctx.UserID},
		ExternalScores: app.ctx.ExternalScores,
	}

	if app.ctx.AudioFile != "" {
		input, err := audio.ReadWAV(app.ctx.AudioFile)
		if err != nil {
			return fmt.Errorf("failed to read audio: %w", err)
		}
		utt.Audio = input
	}

	if utt.ExternalScores == nil {
		utt.ExternalScores = app.classifier.Scores(ctx, utt.Transcript)
	}

	session, err := app.NewSession(ctx, app.ctx.UserID)
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	detector := affect.NewDetector(app.Mode(), session)
	defer detector.Stop(ctx)

	start := time.Now()
	result, err := detector.Analyze(ctx, utt)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}
	elapsed := time.Since(start)

	app.metrics.Record(result, elapsed, "mode:"+string(app.Mode()))

	return app.outputResults(app.buildAnalysisOutput(result, session, elapsed))
}

// Calibrate sets a user baseline, either explicitly or from the pitch of an
// audio file
func (app *AnalyzeApp) Calibrate(ctx context.Context, baselineHz float64) error {
	if app.ctx.UserID == "" {
		return fmt.Errorf("calibration requires a user ID")
	}

	session, err := app.NewSession(ctx, app.ctx.UserID)
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.Stop(ctx)

	var state calibration.State
	switch {
	case baselineHz > 0:
		state, err = session.Recalibrate(ctx, baselineHz)
	case app.ctx.AudioFile != "":
		input, readErr := audio.ReadWAV(app.ctx.AudioFile)
		if readErr != nil {
			return fmt.Errorf("failed to read audio: %w", readErr)
		}
		if _, err := affect.NewUtteranceDetector(session).Analyze(ctx, affect.Utterance{Audio: input}); err != nil {
			return fmt.Errorf("failed to analyze calibration sample: %w", err)
		}
		state, err = session.RecalibrateFromLast(ctx)
	default:
		return fmt.Errorf("provide a baseline pitch or an audio sample")
	}
	if err != nil {
		return fmt.Errorf("calibration failed: %w", err)
	}

	return app.outputResults(calibrationOutput(app.ctx.UserID, state))
}

// ShowCalibration prints the stored calibration for the user
func (app *AnalyzeApp) ShowCalibration(ctx context.Context) error {
	if app.ctx.UserID == "" {
		return fmt.Errorf("calibration requires a user ID")
	}

	state, _, err := app.store.Load(ctx, app.ctx.UserID)
	if err != nil {
		return fmt.Errorf("failed to load calibration: %w", err)
	}
	return app.outputResults(calibrationOutput(app.ctx.UserID, state))
}

// ResetCalibration clears the user's baseline
func (app *AnalyzeApp) ResetCalibration(ctx context.Context) error {
	if app.ctx.UserID == "" {
		return fmt.Errorf("calibration requires a user ID")
	}

	session, err := app.NewSession(ctx, app.ctx.UserID)
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.Stop(ctx)

	state, err := session.ResetCalibration(ctx)
	if err != nil {
		return fmt.Errorf("failed to reset calibration: %w", err)
	}
	return app.outputResults(calibrationOutput(app.ctx.UserID, state))
}

// setupLogging configures logging based on context
func setupLogging(ctx *Context) logging.Logger {
	if ctx.Logger != nil {
		return ctx.Logger
	}
	return logging.NewDefaultLogger()
}

// loadAndMergeConfig loads configuration and applies CLI overrides
func loadAndMergeConfig(ctx *Context) (*configs.Config, error) {
	config := ctx.Config
	if config == nil {
		var err error
		config, err = configs.LoadConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to load base configuration: %w", err)
		}
	}

	if ctx.PatternsFile != "" {
		config.Lexicon.PatternsFile = ctx.PatternsFile
	}
	if ctx.Mode != "" {
		config.Smoothing.Mode = ctx.Mode
	}
	if ctx.OutputFormat == "" {
		ctx.OutputFormat = config.OutputFormat
	}
	if ctx.Verbose {
		config.Verbose = true
	}

	if err := configs.ValidateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

func (app *AnalyzeApp) buildAnalysisOutput(result *fusion.Result, session *affect.Session, elapsed time.Duration) map[string]any {
	out := map[string]any{
		"emotionLabel":     result.EmotionLabel,
		"confidence":       roundTo(result.Confidence, app.config.Output.Precision),
		"perEmotionScores": roundScores(result.PerEmotionScores, app.config.Output.Precision),
		"source":           string(result.Source),
		"sarcasmFlag":      result.SarcasmFlag,
	}

	if app.config.Output.IncludeMetadata {
		out["calibration"] = string(session.Calibration().Status())
		out["mode"] = string(app.Mode())
		out["analysis_ms"] = elapsed.Milliseconds()
	}
	if app.config.Output.Timestamps {
		out["timestamp"] = time.Now()
	}

	if app.ctx.DetailedAnalysis || app.config.Verbose {
		out["features"] = result.Features
		out["voiceMatches"] = result.VoiceMatches
		out["textEvidence"] = roundScores(result.TextEvidence, app.config.Output.Precision)
		if result.Lexical != nil {
			raw := make(map[string]float64, len(result.Lexical.Scores))
			for label, score := range result.Lexical.Scores {
				raw[label] = score.RawScore
			}
			out["lexicalScores"] = roundScores(raw, app.config.Output.Precision)
		}
	}

	return out
}

func calibrationOutput(key string, state calibration.State) map[string]any {
	out := map[string]any{
		"key":            key,
		"status":         string(state.Status()),
		"calibrated":     state.Calibrated,
		"autoCalibrated": state.AutoCalibrated,
		"baselineHz":     nil,
	}
	if state.BaselineHz != nil {
		out["baselineHz"] = *state.BaselineHz
	}
	return out
}

// outputResults handles all result output
func (app *AnalyzeApp) outputResults(outputData map[string]any) error {
	formatted, err := FormatOutput(outputData, app.ctx.OutputFormat)
	if err != nil {
		return err
	}

	// Write to file or stdout
	if app.ctx.OutputFile != "" {
		return app.writeToFile(formatted)
	}

	_, err = os.Stdout.Write(formatted)
	return err
}

// FormatOutput renders data with the formatter named by format
func FormatOutput(data any, format string) ([]byte, error) {
	// Create formatter
	var formatter output.Formatter
	switch format {
	case "json":
		formatter = &output.JSONFormatter{}
	case "yaml":
		formatter = &output.YAMLFormatter{}
	case "csv":
		formatter = &output.CSVFormatter{}
	case "table":
		formatter = &output.TableFormatter{}
	default:
		formatter = &output.JSONFormatter{}
	}

	// Format data
	formatted, err := formatter.Format(data, true)
	if err != nil {
		// JSON rejects NaN and Inf
		if strings.Contains(err.Error(), "unsupported value") {
			formatted, err = formatter.Format(sanitizeForJSON(data), true)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to format output data: %w", err)
		}
	}
	return formatted, nil
}

// writeToFile writes data to the specified output file
func (app *AnalyzeApp) writeToFile(data []byte) error {
	// Ensure directory exists
	dir := filepath.Dir(app.ctx.OutputFile)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := os.WriteFile(app.ctx.OutputFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	app.logger.Debug("Results written to file", logging.Fields{
		"output_file": app.ctx.OutputFile,
		"size_bytes":  len(data),
	})

	return nil
}

func roundTo(v float64, precision int) float64 {
	if precision <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	scale := math.Pow(10, float64(precision))
	return math.Round(v*scale) / scale
}

func roundScores(scores map[string]float64, precision int) map[string]float64 {
	out := make(map[string]float64, len(scores))
	for label, score := range scores {
		out[label] = roundTo(score, precision)
	}
	return out
}

// sanitizeForJSON recursively replaces infinite and NaN values with zero
func sanitizeForJSON(data any) any {
	switch v := data.(type) {
	case float64:
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return 0.0
		}
		return v
	case map[string]any:
		result := make(map[string]any, len(v))
		for k, val := range v {
			result[k] = sanitizeForJSON(val)
		}
		return result
	case map[string]float64:
		result := make(map[string]float64, len(v))
		for k, val := range v {
			result[k] = sanitizeForJSON(val).(float64)
		}
		return result
	case []float64:
		result := make([]float64, len(v))
		for i, val := range v {
			result[i] = sanitizeForJSON(val).(float64)
		}
		return result
	default:
		return sanitizeWithReflection(data)
	}
}

// sanitizeWithReflection walks structs by their JSON names
func sanitizeWithReflection(data any) any {
	if data == nil {
		return nil
	}

	val := reflect.ValueOf(data)
	if val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return nil
		}
		val = val.Elem()
	}

	switch val.Kind() {
	case reflect.Struct:
		if _, ok := val.Interface().(time.Time); ok {
			return val.Interface()
		}
		result := make(map[string]any)
		typ := val.Type()
		for i := 0; i < val.NumField(); i++ {
			field := val.Field(i)
			if !field.CanInterface() {
				continue
			}

			name := typ.Field(i).Name
			if tag := typ.Field(i).Tag.Get("json"); tag != "" {
				if tag == "-" {
					continue
				}
				if parts := strings.Split(tag, ","); parts[0] != "" {
					name = parts[0]
				}
			}
			result[name] = sanitizeForJSON(field.Interface())
		}
		return result
	case reflect.Slice:
		result := make([]any, val.Len())
		for i := 0; i < val.Len(); i++ {
			result[i] = sanitizeForJSON(val.Index(i).Interface())
		}
		return result
	case reflect.Map:
		result := make(map[string]any)
		for _, key := range val.MapKeys() {
			result[fmt.Sprintf("%v", key.Interface())] = sanitizeForJSON(val.MapIndex(key).Interface())
		}
		return result
	case reflect.Float64, reflect.Float32:
		return sanitizeForJSON(val.Float())
	default:
		return val.Interface()
	}
}
