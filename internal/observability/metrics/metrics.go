// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ai_voice_relay"

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Call metrics
	CallsTotal   prometheus.Counter
	CallsActive  prometheus.Gauge
	CallDuration prometheus.Histogram
	CallsEnded   *prometheus.CounterVec

	// Caller-leg metrics
	CallerFramesReceived *prometheus.CounterVec
	AudioBytesReceived   prometheus.Counter
	MarksQueued          prometheus.Counter
	MarksAcked           prometheus.Counter

	// AI-leg metrics
	RealtimeEventsReceived *prometheus.CounterVec
	AudioDeltasForwarded   prometheus.Counter
	UpstreamConnectFailed  prometheus.Counter

	// Interruption metrics
	InterruptionsTotal prometheus.Counter
	TruncationsTotal   prometheus.Counter

	// Kafka publish metrics
	KafkaPublishTotal   *prometheus.CounterVec
	KafkaPublishErrors  *prometheus.CounterVec
	KafkaPublishLatency *prometheus.HistogramVec
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics = NewMetrics()

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		CallsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calls_total",
			Help:      "Total number of relay sessions started",
		}),
		CallsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "calls_active",
			Help:      "Number of currently active relay sessions",
		}),
		CallDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "call_duration_seconds",
			Help:      "Duration of relay sessions in seconds",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		}),
		CallsEnded: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calls_ended_total",
			Help:      "Total number of relay sessions ended",
		}, []string{"reason"}),

		CallerFramesReceived: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "caller_frames_received_total",
			Help:      "Total caller-leg frames received",
		}, []string{"event"}),
		AudioBytesReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_bytes_received_total",
			Help:      "Total inbound audio payload bytes received",
		}),
		MarksQueued: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "marks_queued_total",
			Help:      "Total synchronization marks sent to the caller leg",
		}),
		MarksAcked: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "marks_acked_total",
			Help:      "Total mark echoes received from the caller leg",
		}),

		RealtimeEventsReceived: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "realtime_events_received_total",
			Help:      "Total AI-leg events received",
		}, []string{"type"}),
		AudioDeltasForwarded: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_deltas_forwarded_total",
			Help:      "Total AI audio deltas re-framed and sent to the caller leg",
		}),
		UpstreamConnectFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_connect_failed_total",
			Help:      "Total failures to open the AI-leg connection",
		}),

		InterruptionsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "interruptions_total",
			Help:      "Total barge-in interruptions handled",
		}),
		TruncationsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "truncations_total",
			Help:      "Total truncate instructions sent upstream",
		}),

		KafkaPublishTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_total",
			Help:      "Total number of Kafka messages published",
		}, []string{"topic", "event_type"}),
		KafkaPublishErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_errors_total",
			Help:      "Total number of Kafka publish errors",
		}, []string{"topic", "event_type"}),
		KafkaPublishLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kafka_publish_latency_seconds",
			Help:      "Kafka publish latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"topic"}),
	}
}

// RecordCallStart records a new relay session starting.
func (m *Metrics) RecordCallStart() {
	m.CallsTotal.Inc()
	m.CallsActive.Inc()
}

// RecordCallEnd records a relay session ending.
func (m *Metrics) RecordCallEnd(reason string, durationSeconds float64) {
	m.CallsActive.Dec()
	m.CallDuration.Observe(durationSeconds)
	m.CallsEnded.WithLabelValues(reason).Inc()
}

// RecordCallerFrame records one inbound caller-leg frame.
func (m *Metrics) RecordCallerFrame(event string) {
	m.CallerFramesReceived.WithLabelValues(event).Inc()
}

// RecordAudioReceived records inbound audio payload bytes.
func (m *Metrics) RecordAudioReceived(bytes int) {
	m.AudioBytesReceived.Add(float64(bytes))
}

// RecordRealtimeEvent records one inbound AI-leg event.
func (m *Metrics) RecordRealtimeEvent(eventType string) {
	m.RealtimeEventsReceived.WithLabelValues(eventType).Inc()
}

// RecordDeltaForwarded records one audio delta sent to the caller leg.
func (m *Metrics) RecordDeltaForwarded() {
	m.AudioDeltasForwarded.Inc()
}

// RecordMarkQueued records one mark sent to the caller leg.
func (m *Metrics) RecordMarkQueued() {
	m.MarksQueued.Inc()
}

// RecordMarkAcked records one mark echo from the caller leg.
func (m *Metrics) RecordMarkAcked() {
	m.MarksAcked.Inc()
}

// RecordInterruption records one handled barge-in, and whether a truncate
// instruction was sent upstream.
func (m *Metrics) RecordInterruption(truncated bool) {
	m.InterruptionsTotal.Inc()
	if truncated {
		m.TruncationsTotal.Inc()
	}
}

// RecordUpstreamConnectFailure records a failed AI-leg dial.
func (m *Metrics) RecordUpstreamConnectFailure() {
	m.UpstreamConnectFailed.Inc()
}

// RecordKafkaPublish records a Kafka publish attempt.
func (m *Metrics) RecordKafkaPublish(topic, eventType string, err error, latencySeconds float64) {
	m.KafkaPublishTotal.WithLabelValues(topic, eventType).Inc()
	m.KafkaPublishLatency.WithLabelValues(topic).Observe(latencySeconds)
	if err != nil {
		m.KafkaPublishErrors.WithLabelValues(topic, eventType).Inc()
	}
}
