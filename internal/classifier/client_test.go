package classifier

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/affect-fusion/internal/platform/errors"
)

func TestScoresAreCanonicalized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/detect", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), "so happy")

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"emotions": [
				{"label": "Happy", "score": 0.5},
				{"label": "excitement", "score": 0.3},
				{"label": "angry", "score": 0.1},
				{"label": "sad", "score": -0.2}
			],
			"dominant_emotion": "happy"
		}`)
	}))
	defer server.Close()

	client := NewClient(Config{Endpoint: server.URL + "/", APIKey: "secret"}, nil)
	scores := client.Scores(context.Background(), "I am so happy")

	require.NotNil(t, scores)
	assert.InDelta(t, 0.8, scores["joy"], 1e-9)
	assert.InDelta(t, 0.1, scores["anger"], 1e-9)
	assert.NotContains(t, scores, "sadness")
}

func TestFailuresDegradeToNil(t *testing.T) {
	type test struct {
		name    string
		handler http.HandlerFunc
	}

	tests := []test{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
		},
		{
			name: "garbage body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, "{not json")
			},
		},
		{
			name: "no emotions",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, `{"emotions": []}`)
			},
		},
		{
			name: "too slow",
			handler: func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-time.After(500 * time.Millisecond):
				case <-r.Context().Done():
				}
				_, _ = io.WriteString(w, `{"emotions": [{"label": "joy", "score": 1}]}`)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			client := NewClient(Config{Endpoint: server.URL, Timeout: 50 * time.Millisecond}, nil)
			assert.Nil(t, client.Scores(context.Background(), "hello there"))
		})
	}
}

func TestDetectErrorKinds(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := NewClient(Config{Endpoint: server.URL}, nil).Detect(context.Background(), "hi")
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindExternal))
	assert.True(t, strings.Contains(err.Error(), "unavailable"))

	_, err = NewClient(Config{}, nil).Detect(context.Background(), "hi")
	assert.True(t, errors.IsKind(err, errors.KindConfig))
}

func TestDisabledClientSkipsRequests(t *testing.T) {
	client := NewClient(Config{}, nil)
	assert.False(t, client.Enabled())
	assert.Nil(t, client.Scores(context.Background(), "I am happy"))

	var missing *Client
	assert.False(t, missing.Enabled())
}

func TestOversizedResponsesAreRejected(t *testing.T) {
	body := `{"emotions": [{"label": "happy", "score": 0.9}], "dominant_emotion": "happy"}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, body+strings.Repeat(" ", 512))
	}))
	defer server.Close()

	client := NewClient(Config{Endpoint: server.URL, MaxResponseBytes: 256}, nil)
	_, err := client.Detect(context.Background(), "I am so happy")
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindExternal))
	assert.Contains(t, err.Error(), "exceeds 256 bytes")
	assert.Nil(t, client.Scores(context.Background(), "I am so happy"))

	roomy := NewClient(Config{Endpoint: server.URL, MaxResponseBytes: 4096}, nil)
	resp, err := roomy.Detect(context.Background(), "I am so happy")
	require.NoError(t, err)
	assert.Equal(t, "happy", resp.DominantEmotion)
}
