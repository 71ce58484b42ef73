package api

import (
	"context"
	"net/http"
	"time"

	"github.com/RyanBlaney/affect-fusion/internal/platform/errors"
	"github.com/RyanBlaney/affect-fusion/pkg/affect"
	"github.com/RyanBlaney/affect-fusion/pkg/fusion"
	"github.com/RyanBlaney/latency-benchmark-common/logging"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// StreamMessage is the envelope for both directions of /v1/stream.
// Clients send start, utterance, recalibrate, reset and ping; the server
// answers with started, result, calibration, pong and error.
type StreamMessage struct {
	Type        string               `json:"type"`
	UserID      string               `json:"userId,omitempty"`
	Mode        affect.Mode          `json:"mode,omitempty"`
	Utterance   *affect.Utterance    `json:"utterance,omitempty"`
	BaselineHz  *float64             `json:"baselineHz,omitempty"`
	SessionID   string               `json:"sessionId,omitempty"`
	Result      *fusion.Result       `json:"result,omitempty"`
	Calibration *CalibrationResponse `json:"calibration,omitempty"`
	Error       string               `json:"error,omitempty"`
	Kind        errors.Kind          `json:"kind,omitempty"`
}

// streamState is the per-connection session binding.
type streamState struct {
	session *affect.Session
	key     string
	mode    affect.Mode
}

// StreamHandler serves a continuous feed of utterances over one websocket.
// The stream defaults to the continuous detector.
func (h *Handlers) StreamHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error(err, "Websocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	state := &streamState{mode: affect.ModeContinuous}

	for {
		var msg StreamMessage
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}

		switch msg.Type {
		case "start":
			h.handleStart(ctx, conn, state, &msg)
		case "utterance":
			h.handleUtterance(ctx, conn, state, &msg)
		case "recalibrate":
			h.handleRecalibrate(ctx, conn, state, &msg)
		case "reset":
			h.handleReset(ctx, conn, state)
		case "ping":
			h.sendMessage(conn, StreamMessage{Type: "pong"})
		default:
			h.sendMessage(conn, StreamMessage{
				Type:  "error",
				Error: "Unknown message type",
				Kind:  errors.KindMalformedInput,
			})
		}
	}

	if state.session != nil {
		if state.key == "" {
			_ = state.session.Stop(ctx)
		} else {
			h.registry.Release(state.key)
		}
	}
}

func (h *Handlers) handleStart(ctx context.Context, conn *websocket.Conn, state *streamState, msg *StreamMessage) {
	if state.session != nil {
		h.sendError(conn, errors.New(errors.KindState, "api.stream", "stream already started"))
		return
	}

	session, err := h.registry.Acquire(ctx, msg.UserID)
	if err != nil {
		h.sendError(conn, err)
		return
	}

	state.session = session
	state.key = msg.UserID
	if msg.Mode != "" {
		state.mode = msg.Mode
	}

	h.logger.Debug("Stream started", logging.Fields{
		"session_id": session.ID(),
		"user_id":    msg.UserID,
		"mode":       string(state.mode),
	})

	h.sendMessage(conn, StreamMessage{
		Type:      "started",
		SessionID: session.ID(),
		Mode:      state.mode,
	})
}

func (h *Handlers) handleUtterance(ctx context.Context, conn *websocket.Conn, state *streamState, msg *StreamMessage) {
	if state.session == nil {
		h.sendError(conn, errors.New(errors.KindState, "api.stream", "send start before utterances"))
		return
	}
	if msg.Utterance == nil {
		h.sendError(conn, errors.New(errors.KindMalformedInput, "api.stream", "utterance is required"))
		return
	}

	utt := *msg.Utterance
	if utt.ExternalScores == nil && h.classifier != nil {
		utt.ExternalScores = h.classifier.Scores(ctx, utt.Transcript)
	}

	start := time.Now()
	result, err := affect.NewDetector(state.mode, state.session).Analyze(ctx, utt)
	if err != nil {
		h.sendError(conn, err)
		return
	}

	if h.metrics != nil {
		h.metrics.Record(result, time.Since(start), "mode:"+string(state.mode), "transport:websocket")
	}

	h.sendMessage(conn, StreamMessage{Type: "result", SessionID: state.session.ID(), Result: result})
}

func (h *Handlers) handleRecalibrate(ctx context.Context, conn *websocket.Conn, state *streamState, msg *StreamMessage) {
	if state.session == nil {
		h.sendError(conn, errors.New(errors.KindState, "api.stream", "send start before recalibrating"))
		return
	}

	var (
		cal CalibrationResponse
		err error
	)
	if msg.BaselineHz != nil {
		s, recalErr := state.session.Recalibrate(ctx, *msg.BaselineHz)
		cal, err = newCalibrationResponse(state.session.Key(), s), recalErr
	} else {
		s, recalErr := state.session.RecalibrateFromLast(ctx)
		cal, err = newCalibrationResponse(state.session.Key(), s), recalErr
	}
	if err != nil {
		h.sendError(conn, err)
		return
	}

	h.sendMessage(conn, StreamMessage{Type: "calibration", Calibration: &cal})
}

func (h *Handlers) handleReset(ctx context.Context, conn *websocket.Conn, state *streamState) {
	if state.session == nil {
		h.sendError(conn, errors.New(errors.KindState, "api.stream", "send start before resetting"))
		return
	}

	s, err := state.session.ResetCalibration(ctx)
	if err != nil {
		h.sendError(conn, err)
		return
	}

	cal := newCalibrationResponse(state.session.Key(), s)
	h.sendMessage(conn, StreamMessage{Type: "calibration", Calibration: &cal})
}

func (h *Handlers) sendError(conn *websocket.Conn, err error) {
	h.sendMessage(conn, StreamMessage{
		Type:  "error",
		Error: err.Error(),
		Kind:  errors.KindOf(err),
	})
}

func (h *Handlers) sendMessage(conn *websocket.Conn, msg StreamMessage) {
	if err := conn.WriteJSON(msg); err != nil {
		h.logger.Warn("Failed to write stream message", logging.Fields{
			"type":  msg.Type,
			"error": err.Error(),
		})
	}
}
