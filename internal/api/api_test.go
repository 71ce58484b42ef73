package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/RyanBlaney/affect-fusion/internal/platform/errors"
	"github.com/RyanBlaney/affect-fusion/internal/storage"
	"github.com/RyanBlaney/affect-fusion/pkg/affect"
	"github.com/RyanBlaney/affect-fusion/pkg/calibration"
	"github.com/RyanBlaney/affect-fusion/pkg/fusion"
	"github.com/RyanBlaney/affect-fusion/pkg/lexicon"
)

type stubScores struct {
	mu    sync.Mutex
	calls int
	out   map[string]float64
}

func (s *stubScores) Scores(ctx context.Context, text string) map[string]float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.out
}

type stubMetrics struct {
	mu      sync.Mutex
	results []*fusion.Result
}

func (m *stubMetrics) Record(result *fusion.Result, elapsed time.Duration, extraTags ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = append(m.results, result)
}

func newFactory(store calibration.Store) SessionFactory {
	table := lexicon.DefaultTable()
	return func(ctx context.Context, key string) (*affect.Session, error) {
		opts := []affect.SessionOption{affect.WithStore(store)}
		if key != "" {
			opts = append(opts, affect.WithCalibrationKey(key))
		}
		session, err := affect.NewSession(table, affect.DefaultConfig(), opts...)
		if err != nil {
			return nil, err
		}
		return session, session.Start(ctx)
	}
}

type APITestSuite struct {
	suite.Suite
	store      calibration.Store
	registry   *Registry
	classifier *stubScores
	metrics    *stubMetrics
	server     *httptest.Server
	elapsed    atomic.Int64
}

func (s *APITestSuite) SetupTest() {
	s.store = storage.NewMemory()
	s.registry = NewRegistry(newFactory(s.store), time.Hour)
	s.elapsed.Store(0)
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.registry.now = func() time.Time { return start.Add(time.Duration(s.elapsed.Load())) }
	s.classifier = &stubScores{}
	s.metrics = &stubMetrics{}

	handlers := NewHandlers(Options{
		Registry:   s.registry,
		Store:      s.store,
		Classifier: s.classifier,
		Metrics:    s.metrics,
	})
	s.server = httptest.NewServer(handlers.Router())
}

func (s *APITestSuite) TearDownTest() {
	s.server.Close()
	s.registry.Close(context.Background())
}

func (s *APITestSuite) do(method, path, body string) (int, []byte) {
	req, err := http.NewRequest(method, s.server.URL+path, strings.NewReader(body))
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	return resp.StatusCode, data
}

func (s *APITestSuite) TestHealth() {
	status, body := s.do(http.MethodGet, "/healthz", "")
	s.Equal(http.StatusOK, status)
	s.Contains(string(body), `"ok"`)
}

func (s *APITestSuite) TestAnalyzeTranscript() {
	status, body := s.do(http.MethodPost, "/v1/analyze",
		`{"transcript": "I am absolutely thrilled and excited about this incredible news!", "contextHints": {"userId": "u1"}}`)
	s.Require().Equal(http.StatusOK, status, string(body))

	var result fusion.Result
	s.Require().NoError(sonic.Unmarshal(body, &result))
	s.Equal("joy", result.EmotionLabel)
	s.Equal(fusion.SourceTextOnly, result.Source)
	s.Greater(result.Confidence, 0.5)

	s.Equal(1, s.classifier.calls)
	s.Len(s.metrics.results, 1)
	s.Equal(1, s.registry.Len())
}

func (s *APITestSuite) TestCallerScoresSkipClassifier() {
	status, _ := s.do(http.MethodPost, "/v1/analyze",
		`{"transcript": "hello there friend", "externalScores": {"angry": 0.9}}`)
	s.Equal(http.StatusOK, status)
	s.Zero(s.classifier.calls)
	// Anonymous requests are not retained.
	s.Zero(s.registry.Len())
}

func (s *APITestSuite) TestAnalyzeRejectsMalformedInput() {
	type test struct {
		name string
		body string
	}

	tests := []test{
		{name: "invalid json", body: `{"transcript": `},
		{name: "zero sample rate", body: `{"audio": {"samples": [0.1, 0.2], "sampleRate": 0}}`},
		{name: "empty samples", body: `{"audio": {"samples": [], "sampleRate": 16000}}`},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			status, body := s.do(http.MethodPost, "/v1/analyze", tt.body)
			s.Equal(http.StatusBadRequest, status)
			s.Contains(string(body), string(errors.KindMalformedInput))
		})
	}
}

func (s *APITestSuite) TestCalibrationEndpoints() {
	status, _ := s.do(http.MethodGet, "/v1/calibration/speaker", "")
	s.Equal(http.StatusNotFound, status)

	status, body := s.do(http.MethodPut, "/v1/calibration/speaker", `{"baselineHz": 150}`)
	s.Require().Equal(http.StatusOK, status, string(body))

	var cal CalibrationResponse
	s.Require().NoError(sonic.Unmarshal(body, &cal))
	s.Equal(calibration.StatusUserCalibrated, cal.Status)
	s.Require().NotNil(cal.BaselineHz)
	s.InDelta(150, *cal.BaselineHz, 1e-9)

	status, body = s.do(http.MethodGet, "/v1/calibration/speaker", "")
	s.Equal(http.StatusOK, status)
	s.Contains(string(body), `"user_calibrated"`)

	status, body = s.do(http.MethodDelete, "/v1/calibration/speaker", "")
	s.Equal(http.StatusOK, status)
	s.Contains(string(body), `"uncalibrated"`)

	status, _ = s.do(http.MethodPut, "/v1/calibration/speaker", `{}`)
	s.Equal(http.StatusBadRequest, status)

	status, _ = s.do(http.MethodPut, "/v1/calibration/speaker", `{"baselineHz": -4}`)
	s.Equal(http.StatusBadRequest, status)

	status, _ = s.do(http.MethodPut, "/v1/calibration/speaker", `{"fromLast": true}`)
	s.Equal(http.StatusConflict, status)
}

func (s *APITestSuite) dial() *websocket.Conn {
	url := "ws" + strings.TrimPrefix(s.server.URL, "http") + "/v1/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = conn.Close() })
	return conn
}

func (s *APITestSuite) roundTrip(conn *websocket.Conn, msg StreamMessage) StreamMessage {
	s.Require().NoError(conn.SetReadDeadline(time.Now().Add(5 * time.Second)))
	s.Require().NoError(conn.WriteJSON(msg))

	var reply StreamMessage
	s.Require().NoError(conn.ReadJSON(&reply))
	return reply
}

func (s *APITestSuite) TestStream() {
	conn := s.dial()

	reply := s.roundTrip(conn, StreamMessage{Type: "utterance", Utterance: &affect.Utterance{Transcript: "hi"}})
	s.Equal("error", reply.Type)
	s.Equal(errors.KindState, reply.Kind)

	reply = s.roundTrip(conn, StreamMessage{Type: "start", UserID: "streamer"})
	s.Equal("started", reply.Type)
	s.Equal(affect.ModeContinuous, reply.Mode)
	s.NotEmpty(reply.SessionID)

	reply = s.roundTrip(conn, StreamMessage{Type: "start"})
	s.Equal("error", reply.Type)

	reply = s.roundTrip(conn, StreamMessage{
		Type:      "utterance",
		Utterance: &affect.Utterance{Transcript: "I feel so sad and lonely today, nobody cares"},
	})
	s.Require().Equal("result", reply.Type, reply.Error)
	s.Require().NotNil(reply.Result)
	s.Equal("sadness", reply.Result.EmotionLabel)

	reply = s.roundTrip(conn, StreamMessage{
		Type:      "utterance",
		Utterance: &affect.Utterance{Audio: &affect.AudioInput{SampleRate: 16000}},
	})
	s.Equal("error", reply.Type)
	s.Equal(errors.KindMalformedInput, reply.Kind)

	hz := 175.0
	reply = s.roundTrip(conn, StreamMessage{Type: "recalibrate", BaselineHz: &hz})
	s.Require().Equal("calibration", reply.Type, reply.Error)
	s.Equal(calibration.StatusUserCalibrated, reply.Calibration.Status)
	s.Equal("streamer", reply.Calibration.Key)

	reply = s.roundTrip(conn, StreamMessage{Type: "reset"})
	s.Equal("calibration", reply.Type)
	s.Equal(calibration.StatusUncalibrated, reply.Calibration.Status)

	reply = s.roundTrip(conn, StreamMessage{Type: "ping"})
	s.Equal("pong", reply.Type)

	reply = s.roundTrip(conn, StreamMessage{Type: "shout"})
	s.Equal("error", reply.Type)

	// The stream shares the registry session with HTTP callers.
	status, body := s.do(http.MethodGet, "/v1/calibration/streamer", "")
	s.Equal(http.StatusOK, status)
	s.Contains(string(body), `"uncalibrated"`)
}

func (s *APITestSuite) TestQuietStreamSurvivesIdleSweep() {
	conn := s.dial()

	reply := s.roundTrip(conn, StreamMessage{Type: "start", UserID: "alice"})
	s.Require().Equal("started", reply.Type)

	s.elapsed.Add(int64(2 * time.Hour))

	// Another caller's lookup runs the idle sweep.
	status, _ := s.do(http.MethodPost, "/v1/analyze",
		`{"transcript": "hello there friend", "contextHints": {"userId": "bob"}}`)
	s.Require().Equal(http.StatusOK, status)
	s.Equal(2, s.registry.Len())

	reply = s.roundTrip(conn, StreamMessage{
		Type:      "utterance",
		Utterance: &affect.Utterance{Transcript: "I feel so sad and lonely today, nobody cares"},
	})
	s.Require().Equal("result", reply.Type, reply.Error)

	// HTTP callers for the same user share the stream's session.
	status, body := s.do(http.MethodPut, "/v1/calibration/alice", `{"baselineHz": 190}`)
	s.Require().Equal(http.StatusOK, status, string(body))
	reply = s.roundTrip(conn, StreamMessage{Type: "reset"})
	s.Require().Equal("calibration", reply.Type, reply.Error)
	s.Equal(calibration.StatusUncalibrated, reply.Calibration.Status)

	registered, err := s.registry.Get(context.Background(), "alice")
	s.Require().NoError(err)
	s.Equal(calibration.StatusUncalibrated, registered.Calibration().Status())
}

func TestAPITestSuite(t *testing.T) {
	suite.Run(t, new(APITestSuite))
}

func TestRegistryReusesAndEvictsSessions(t *testing.T) {
	store := storage.NewMemory()
	registry := NewRegistry(newFactory(store), time.Minute)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	registry.now = func() time.Time { return now }
	ctx := context.Background()

	a, err := registry.Get(ctx, "alice")
	require.NoError(t, err)
	again, err := registry.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Same(t, a, again)

	anon1, err := registry.Get(ctx, "")
	require.NoError(t, err)
	anon2, err := registry.Get(ctx, "")
	require.NoError(t, err)
	assert.NotSame(t, anon1, anon2)
	assert.Equal(t, 1, registry.Len())

	now = now.Add(2 * time.Minute)
	b, err := registry.Get(ctx, "bob")
	require.NoError(t, err)
	assert.NotNil(t, b)
	assert.Equal(t, 1, registry.Len())

	// Alice was evicted and comes back as a new session.
	fresh, err := registry.Get(ctx, "alice")
	require.NoError(t, err)
	assert.NotSame(t, a, fresh)

	registry.Close(ctx)
	assert.Zero(t, registry.Len())
}

func TestRegistryLeasesBlockEviction(t *testing.T) {
	registry := NewRegistry(newFactory(storage.NewMemory()), time.Minute)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	registry.now = func() time.Time { return now }
	ctx := context.Background()

	streamed, err := registry.Acquire(ctx, "alice")
	require.NoError(t, err)

	now = now.Add(10 * time.Minute)
	_, err = registry.Get(ctx, "bob")
	require.NoError(t, err)

	shared, err := registry.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Same(t, streamed, shared)

	_, err = affect.NewUtteranceDetector(streamed).Analyze(ctx, affect.Utterance{Transcript: "I am absolutely thrilled about this"})
	require.NoError(t, err)

	// Once released, the idle clock starts again from the release.
	registry.Release("alice")
	now = now.Add(30 * time.Second)
	_, err = registry.Get(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, 2, registry.Len())

	now = now.Add(2 * time.Minute)
	_, err = registry.Get(ctx, "carol")
	require.NoError(t, err)
	fresh, err := registry.Get(ctx, "alice")
	require.NoError(t, err)
	assert.NotSame(t, streamed, fresh)

	// Release without a lease and anonymous releases are no-ops.
	registry.Release("nobody")
	registry.Release("")
}

func TestStatusFor(t *testing.T) {
	type test struct {
		err  error
		want int
	}

	tests := []test{
		{err: errors.New(errors.KindMalformedInput, "op", "bad"), want: http.StatusBadRequest},
		{err: errors.New(errors.KindState, "op", "stopped"), want: http.StatusConflict},
		{err: errors.New(errors.KindStorage, "op", "disk"), want: http.StatusServiceUnavailable},
		{err: context.DeadlineExceeded, want: http.StatusRequestTimeout},
		{err: io.EOF, want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

func TestAnalyzeRequestEmbedsUtterance(t *testing.T) {
	var req AnalyzeRequest
	body := []byte(`{"transcript": "hello", "mode": "continuous", "contextHints": {"userId": "u"}}`)
	require.NoError(t, sonic.Unmarshal(body, &req))
	assert.Equal(t, "hello", req.Transcript)
	assert.Equal(t, "u", req.Hints.UserID)
	assert.Equal(t, affect.ModeContinuous, req.Mode)
}
