// Package api exposes the detectors over HTTP and a websocket stream.
package api

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/RyanBlaney/affect-fusion/internal/platform/errors"
	"github.com/RyanBlaney/affect-fusion/pkg/affect"
	"github.com/RyanBlaney/affect-fusion/pkg/calibration"
	"github.com/RyanBlaney/affect-fusion/pkg/fusion"
	"github.com/RyanBlaney/latency-benchmark-common/logging"
	"github.com/bytedance/sonic"
	"github.com/gorilla/mux"
)

const maxBodyBytes = 16 << 20

// ScoreSource supplies external text scores. A nil map means no scores.
type ScoreSource interface {
	Scores(ctx context.Context, text string) map[string]float64
}

// MetricsRecorder receives one call per completed analysis.
type MetricsRecorder interface {
	Record(result *fusion.Result, elapsed time.Duration, extraTags ...string)
}

type Options struct {
	Registry   *Registry
	Store      calibration.Store
	Classifier ScoreSource
	Metrics    MetricsRecorder
	Mode       affect.Mode
	Logger     logging.Logger
}

type Handlers struct {
	registry   *Registry
	store      calibration.Store
	classifier ScoreSource
	metrics    MetricsRecorder
	mode       affect.Mode
	logger     logging.Logger
}

func NewHandlers(opts Options) *Handlers {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	mode := opts.Mode
	if mode == "" {
		mode = affect.ModeUtterance
	}
	return &Handlers{
		registry:   opts.Registry,
		store:      opts.Store,
		classifier: opts.Classifier,
		metrics:    opts.Metrics,
		mode:       mode,
		logger: logger.WithFields(logging.Fields{
			"component": "api",
		}),
	}
}

// Router wires every endpoint onto a new mux router.
func (h *Handlers) Router() *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/healthz", h.HealthHandler).Methods(http.MethodGet)
	router.HandleFunc("/v1/analyze", h.AnalyzeHandler).Methods(http.MethodPost)
	router.HandleFunc("/v1/calibration/{key}", h.GetCalibrationHandler).Methods(http.MethodGet)
	router.HandleFunc("/v1/calibration/{key}", h.PutCalibrationHandler).Methods(http.MethodPut)
	router.HandleFunc("/v1/calibration/{key}", h.DeleteCalibrationHandler).Methods(http.MethodDelete)
	router.HandleFunc("/v1/stream", h.StreamHandler)
	return router
}

type AnalyzeRequest struct {
	affect.Utterance
	// Mode overrides the server's detector mode for this request.
	Mode affect.Mode `json:"mode,omitempty"`
}

type CalibrationRequest struct {
	BaselineHz *float64 `json:"baselineHz"`
	// FromLast uses the pitch of the speaker's most recent voiced utterance.
	FromLast bool `json:"fromLast,omitempty"`
}

type CalibrationResponse struct {
	Key            string             `json:"key"`
	Status         calibration.Status `json:"status"`
	BaselineHz     *float64           `json:"baselineHz"`
	Calibrated     bool               `json:"calibrated"`
	AutoCalibrated bool               `json:"autoCalibrated"`
}

func newCalibrationResponse(key string, state calibration.State) CalibrationResponse {
	return CalibrationResponse{
		Key:            key,
		Status:         state.Status(),
		BaselineHz:     state.BaselineHz,
		Calibrated:     state.Calibrated,
		AutoCalibrated: state.AutoCalibrated,
	}
}

type errorResponse struct {
	Error string      `json:"error"`
	Kind  errors.Kind `json:"kind"`
}

func (h *Handlers) HealthHandler(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": h.registry.Len(),
	})
}

func (h *Handlers) AnalyzeHandler(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	result, err := h.analyze(r.Context(), req.Utterance, req.Mode)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// analyze runs one utterance through the speaker's session.
func (h *Handlers) analyze(ctx context.Context, utt affect.Utterance, mode affect.Mode) (*fusion.Result, error) {
	if mode == "" {
		mode = h.mode
	}

	session, err := h.registry.Get(ctx, utt.Hints.UserID)
	if err != nil {
		return nil, err
	}

	if utt.ExternalScores == nil && h.classifier != nil {
		utt.ExternalScores = h.classifier.Scores(ctx, utt.Transcript)
	}

	start := time.Now()
	result, err := affect.NewDetector(mode, session).Analyze(ctx, utt)
	if err != nil {
		return nil, err
	}
	elapsed := time.Since(start)

	if h.metrics != nil {
		h.metrics.Record(result, elapsed, "mode:"+string(mode), "transport:http")
	}

	h.logger.Debug("Utterance analyzed", logging.Fields{
		"session_id": session.ID(),
		"emotion":    result.EmotionLabel,
		"confidence": result.Confidence,
		"source":     string(result.Source),
		"elapsed_ms": elapsed.Milliseconds(),
	})

	return result, nil
}

func (h *Handlers) GetCalibrationHandler(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]

	state, found, err := h.store.Load(r.Context(), key)
	if err != nil {
		h.writeError(w, errors.Wrap(errors.KindStorage, "api.GetCalibration", "failed to load calibration", err))
		return
	}
	if !found {
		h.writeJSON(w, http.StatusNotFound, errorResponse{Error: "no calibration for key", Kind: errors.KindState})
		return
	}

	h.writeJSON(w, http.StatusOK, newCalibrationResponse(key, state))
}

func (h *Handlers) PutCalibrationHandler(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]

	var req CalibrationRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	session, err := h.registry.Get(r.Context(), key)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var state calibration.State
	switch {
	case req.FromLast:
		state, err = session.RecalibrateFromLast(r.Context())
	case req.BaselineHz != nil:
		state, err = session.Recalibrate(r.Context(), *req.BaselineHz)
	default:
		err = errors.New(errors.KindMalformedInput, "api.PutCalibration", "baselineHz or fromLast is required")
	}
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, newCalibrationResponse(key, state))
}

func (h *Handlers) DeleteCalibrationHandler(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]

	session, err := h.registry.Get(r.Context(), key)
	if err != nil {
		h.writeError(w, err)
		return
	}

	state, err := session.ResetCalibration(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, newCalibrationResponse(key, state))
}

func (h *Handlers) decode(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return errors.Wrap(errors.KindMalformedInput, "api.decode", "failed to read request body", err)
	}
	if err := sonic.Unmarshal(body, v); err != nil {
		return errors.Wrap(errors.KindMalformedInput, "api.decode", "invalid JSON body", err)
	}
	return nil
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := sonic.Marshal(v)
	if err != nil {
		h.logger.Error(err, "Failed to encode response")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func (h *Handlers) writeError(w http.ResponseWriter, err error) {
	kind := errors.KindOf(err)
	h.writeJSON(w, statusFor(err), errorResponse{Error: err.Error(), Kind: kind})
}

func statusFor(err error) int {
	switch errors.KindOf(err) {
	case errors.KindMalformedInput:
		return http.StatusBadRequest
	case errors.KindState:
		return http.StatusConflict
	case errors.KindStorage, errors.KindExternal:
		return http.StatusServiceUnavailable
	}
	if err == context.Canceled || err == context.DeadlineExceeded {
		return http.StatusRequestTimeout
	}
	return http.StatusInternalServerError
}
