package app

import (
	"sync"
	"syscall"
	"time"

	"github.com/RyanBlaney/affect-fusion/pkg/fusion"
	"github.com/RyanBlaney/latency-benchmark-common/logging"
	"github.com/tunein/go-logging/v7/pkg/logger"
	"github.com/tunein/go-logging/v7/pkg/logger/logtypes"
	"github.com/tunein/go-logging/v7/pkg/rootcollector"
	"github.com/tunein/go-logging/v7/pkg/rootlogger"
)

// MetricsEmitter reports per-analysis metrics through rootcollector
type MetricsEmitter struct {
	enabled bool
	prefix  string
	out     string
	once    sync.Once
}

func NewMetricsEmitter(enabled bool, prefix, out string) *MetricsEmitter {
	if prefix == "" {
		prefix = "affect_fusion"
	}
	if out == "" {
		out = "/tmp/affect-fusion.log"
	}
	return &MetricsEmitter{enabled: enabled, prefix: prefix, out: out}
}

func (m *MetricsEmitter) configure() {
	m.once.Do(func() {
		err := rootlogger.Configure(logger.LogOptions{
			Out:          m.out,
			ReopenSignal: syscall.SIGHUP,
			Level:        logtypes.InfoLevel,
		})
		if err != nil {
			logging.Error(err, "Failed configuring log writer")
		}
	})
}

// Record sends the confidence (as a percentage, rootcollector takes int64)
// and the analysis duration for one result
func (m *MetricsEmitter) Record(result *fusion.Result, elapsed time.Duration, extraTags ...string) {
	if m == nil || !m.enabled || result == nil {
		return
	}
	m.configure()

	tags := append([]string{
		"emotion:" + result.EmotionLabel,
		"source:" + string(result.Source),
	}, extraTags...)
	if result.SarcasmFlag {
		tags = append(tags, "sarcasm:true")
	}

	rootcollector.Metric(m.prefix+".confidence.pct", int64(result.Confidence*100), tags)
	rootcollector.Metric(m.prefix+".analysis.duration.milliseconds", elapsed.Milliseconds(), tags)
}
