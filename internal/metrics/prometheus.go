package metrics

import (
	"context"
	"errors"
	log "log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	// Wake word
	FramesScored *prometheus.CounterVec
	RawScore     *prometheus.HistogramVec
	Detections   *prometheus.CounterVec

	// Pipeline
	Activations    prometheus.Counter
	EmptyCommands  prometheus.Counter
	Routes         *prometheus.CounterVec
	PipelineErrors *prometheus.CounterVec
	STTDuration    prometheus.Histogram
	ReplyDuration  prometheus.Histogram

	gatherer prometheus.Gatherer
}

func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
}

func NewWithRegistry(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		FramesScored: f.NewCounterVec(prometheus.CounterOpts{
			Name: "echo_wakeword_frames_scored_total",
			Help: "Total number of frames scored per wake-word model",
		}, []string{"model"}),
		RawScore: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "echo_wakeword_raw_score",
			Help:    "Raw per-frame wake-word scores",
			Buckets: prometheus.LinearBuckets(0.1, 0.1, 10),
		}, []string{"model"}),
		Detections: f.NewCounterVec(prometheus.CounterOpts{
			Name: "echo_wakeword_detections_total",
			Help: "Total number of accepted wake-word detections",
		}, []string{"model"}),

		Activations: f.NewCounter(prometheus.CounterOpts{
			Name: "echo_pipeline_activations_total",
			Help: "Total number of command pipeline runs",
		}),
		EmptyCommands: f.NewCounter(prometheus.CounterOpts{
			Name: "echo_pipeline_empty_commands_total",
			Help: "Total number of activations with an empty transcript",
		}),
		Routes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "echo_pipeline_routes_total",
			Help: "Total number of routed commands by kind",
		}, []string{"kind"}),
		PipelineErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "echo_pipeline_errors_total",
			Help: "Total number of pipeline errors by stage",
		}, []string{"stage"}),
		STTDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "echo_stt_duration_seconds",
			Help:    "Time spent transcribing a command",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
		ReplyDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "echo_reply_duration_seconds",
			Help:    "Time from transcript to delivered reply",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}),

		gatherer: gatherer,
	}
}

// Scored and Detected make Metrics a wakeword.Observer.
func (m *Metrics) Scored(model string, raw, smoothed float64) {
	m.FramesScored.WithLabelValues(model).Inc()
	m.RawScore.WithLabelValues(model).Observe(raw)
}

func (m *Metrics) Detected(model string, smoothed, peak float64) {
	m.Detections.WithLabelValues(model).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Info("Metrics listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
