// Package metrics provides Prometheus metrics for the analysis backend.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "screenknow"

// Metrics holds all Prometheus metrics for the backend.
type Metrics struct {
	// Voice session metrics
	SessionsTotal   prometheus.Counter
	SessionsActive  prometheus.Gauge
	SessionsSuccess prometheus.Counter
	SessionsFailed  prometheus.Counter
	SessionDuration prometheus.Histogram

	// Audio metrics
	AudioBytesReceived  prometheus.Counter
	AudioChunksReceived prometheus.Counter

	// Transcription metrics
	TranscriptionLatency *prometheus.HistogramVec
	TranscriptionErrors  *prometheus.CounterVec

	// Vision metrics
	AnswerChunksStreamed prometheus.Counter
	VisionLatency        *prometheus.HistogramVec
	VisionErrors         *prometheus.CounterVec

	// Screenshot metrics
	ScreenshotsTotal  prometheus.Counter
	ScreenshotsFailed prometheus.Counter

	// Describe endpoint metrics
	DescribeRequests prometheus.Counter

	// Kafka publish metrics
	KafkaPublishTotal  *prometheus.CounterVec
	KafkaPublishErrors *prometheus.CounterVec
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics = NewMetrics()

// NewMetrics creates and registers all metrics on the default registry.
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith registers all metrics on the given registerer.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		SessionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "voice_sessions_total",
			Help:      "Total number of voice sessions started",
		}),
		SessionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "voice_sessions_active",
			Help:      "Number of currently active voice sessions",
		}),
		SessionsSuccess: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "voice_sessions_success_total",
			Help:      "Total number of voice sessions answered successfully",
		}),
		SessionsFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "voice_sessions_failed_total",
			Help:      "Total number of failed voice sessions",
		}),
		SessionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "voice_session_duration_seconds",
			Help:      "Duration of voice sessions in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		}),

		AudioBytesReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_bytes_received_total",
			Help:      "Total audio bytes received over voice channels",
		}),
		AudioChunksReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_chunks_received_total",
			Help:      "Total audio chunks received over voice channels",
		}),

		TranscriptionLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transcription_latency_seconds",
			Help:      "Speech-to-text latency in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
		}, []string{"provider"}),
		TranscriptionErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcription_errors_total",
			Help:      "Total number of speech-to-text errors",
		}, []string{"provider"}),

		AnswerChunksStreamed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "answer_chunks_streamed_total",
			Help:      "Total answer chunks streamed back to clients",
		}),
		VisionLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "vision_latency_seconds",
			Help:      "Screen analysis latency in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"provider"}),
		VisionErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vision_errors_total",
			Help:      "Total number of screen analysis errors",
		}, []string{"provider"}),

		ScreenshotsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "screenshots_total",
			Help:      "Total number of screenshots captured",
		}),
		ScreenshotsFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "screenshots_failed_total",
			Help:      "Total number of failed screenshot captures",
		}),

		DescribeRequests: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "describe_requests_total",
			Help:      "Total number of typed describe requests",
		}),

		KafkaPublishTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_total",
			Help:      "Total number of Kafka messages published",
		}, []string{"topic", "event_type"}),
		KafkaPublishErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_errors_total",
			Help:      "Total number of Kafka publish errors",
		}, []string{"topic", "event_type"}),
	}
}

// RecordSessionStart records a new voice session starting.
func (m *Metrics) RecordSessionStart() {
	m.SessionsTotal.Inc()
	m.SessionsActive.Inc()
}

// RecordSessionEnd records a voice session ending.
func (m *Metrics) RecordSessionEnd(success bool, durationSeconds float64) {
	m.SessionsActive.Dec()
	m.SessionDuration.Observe(durationSeconds)
	if success {
		m.SessionsSuccess.Inc()
	} else {
		m.SessionsFailed.Inc()
	}
}

// RecordAudioReceived records audio bytes and chunks received.
func (m *Metrics) RecordAudioReceived(bytes int) {
	m.AudioBytesReceived.Add(float64(bytes))
	m.AudioChunksReceived.Inc()
}

// RecordTranscription records one speech-to-text call.
func (m *Metrics) RecordTranscription(provider string, err error, latencySeconds float64) {
	m.TranscriptionLatency.WithLabelValues(provider).Observe(latencySeconds)
	if err != nil {
		m.TranscriptionErrors.WithLabelValues(provider).Inc()
	}
}

// RecordAnswerChunk records one answer chunk streamed to a client.
func (m *Metrics) RecordAnswerChunk() {
	m.AnswerChunksStreamed.Inc()
}

// RecordVision records one screen analysis call.
func (m *Metrics) RecordVision(provider string, err error, latencySeconds float64) {
	m.VisionLatency.WithLabelValues(provider).Observe(latencySeconds)
	if err != nil {
		m.VisionErrors.WithLabelValues(provider).Inc()
	}
}

// RecordScreenshot records one screenshot capture attempt.
func (m *Metrics) RecordScreenshot(err error) {
	m.ScreenshotsTotal.Inc()
	if err != nil {
		m.ScreenshotsFailed.Inc()
	}
}

// RecordDescribeRequest records one typed describe request.
func (m *Metrics) RecordDescribeRequest() {
	m.DescribeRequests.Inc()
}

// RecordKafkaPublish records a Kafka publish attempt.
func (m *Metrics) RecordKafkaPublish(topic string, eventType string, err error) {
	m.KafkaPublishTotal.WithLabelValues(topic, eventType).Inc()
	if err != nil {
		m.KafkaPublishErrors.WithLabelValues(topic, eventType).Inc()
	}
}
