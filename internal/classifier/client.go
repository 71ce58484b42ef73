// Package classifier calls an external text emotion classifier over HTTP.
// Its scores are optional evidence: every failure degrades to nil scores.
package classifier

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/RyanBlaney/affect-fusion/internal/platform/errors"
	"github.com/RyanBlaney/affect-fusion/pkg/fusion"
	"github.com/RyanBlaney/latency-benchmark-common/logging"
	"github.com/bytedance/sonic"
)

const (
	DefaultTimeout          = 3 * time.Second
	DefaultMaxResponseBytes = 1 << 20
)

type Config struct {
	Endpoint string        `mapstructure:"endpoint" yaml:"endpoint" json:"endpoint"`
	APIKey   string        `mapstructure:"api_key" yaml:"api_key" json:"api_key"`
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout" json:"timeout"`
	// MaxResponseBytes caps how much of a response body is read.
	MaxResponseBytes int64 `mapstructure:"max_response_bytes" yaml:"max_response_bytes" json:"max_response_bytes"`
}

type detectRequest struct {
	Text string `json:"text"`
}

type Score struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

type Response struct {
	Emotions        []Score `json:"emotions"`
	DominantEmotion string  `json:"dominant_emotion"`
}

type Client struct {
	endpoint string
	apiKey   string
	maxBytes int64
	http     *http.Client
	logger   logging.Logger
}

func NewClient(cfg Config, logger logging.Logger) *Client {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	maxBytes := cfg.MaxResponseBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxResponseBytes
	}
	return &Client{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:   cfg.APIKey,
		maxBytes: maxBytes,
		http:     &http.Client{Timeout: timeout},
		logger: logger.WithFields(logging.Fields{
			"component": "text_classifier",
		}),
	}
}

// Enabled reports whether an endpoint is configured.
func (c *Client) Enabled() bool {
	return c != nil && c.endpoint != ""
}

// Detect posts text to <endpoint>/detect.
func (c *Client) Detect(ctx context.Context, text string) (*Response, error) {
	if !c.Enabled() {
		return nil, errors.New(errors.KindConfig, "classifier.Detect", "no classifier endpoint configured")
	}

	body, err := sonic.Marshal(detectRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("classifier encode: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/detect", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(errors.KindExternal, "classifier.Detect", "request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return nil, errors.Wrap(errors.KindExternal, "classifier.Detect", "failed to read response", err)
	}
	if int64(len(raw)) > c.maxBytes {
		return nil, errors.New(errors.KindExternal, "classifier.Detect",
			fmt.Sprintf("response exceeds %d bytes", c.maxBytes))
	}

	if resp.StatusCode != http.StatusOK {
		return nil, errors.New(errors.KindExternal, "classifier.Detect",
			fmt.Sprintf("classifier %s: %s", resp.Status, strings.TrimSpace(string(raw))))
	}

	var out Response
	if err := sonic.Unmarshal(raw, &out); err != nil {
		return nil, errors.Wrap(errors.KindExternal, "classifier.Detect", "failed to decode response", err)
	}
	return &out, nil
}

// Scores returns canonical per-emotion scores for text, or nil when the
// classifier is disabled, unreachable, slow or returns garbage.
func (c *Client) Scores(ctx context.Context, text string) map[string]float64 {
	if !c.Enabled() || strings.TrimSpace(text) == "" {
		return nil
	}

	start := time.Now()
	resp, err := c.Detect(ctx, text)
	if err != nil {
		c.logger.Warn("Text classifier unavailable, continuing without external scores", logging.Fields{
			"error": err.Error(),
			"kind":  string(errors.KindDegraded),
		})
		return nil
	}

	raw := make(map[string]float64, len(resp.Emotions))
	for _, e := range resp.Emotions {
		raw[e.Label] += e.Score
	}
	scores := fusion.CanonicalScores(raw)

	c.logger.Debug("Text classifier responded", logging.Fields{
		"dominant":    resp.DominantEmotion,
		"labels":      len(scores),
		"duration_ms": time.Since(start).Milliseconds(),
	})

	if len(scores) == 0 {
		return nil
	}
	return scores
}
