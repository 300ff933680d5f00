package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SyncAttempts tracks playlist fetch attempts by outcome
	SyncAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "iptv_playlist_sync_attempts_total",
		Help: "Total number of playlist sync attempts",
	}, []string{"result"})

	// SyncFailures tracks failed attempts by failure kind
	SyncFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "iptv_playlist_sync_failures_total",
		Help: "Total number of failed playlist sync attempts",
	}, []string{"kind"})

	// SyncDuration observes how long a successful attempt took
	SyncDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "iptv_playlist_sync_duration_seconds",
		Help:    "Duration of successful playlist sync attempts",
		Buckets: prometheus.DefBuckets,
	})

	// SyncInProgress is 1 while a sync is running (including retry waits)
	SyncInProgress = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "iptv_playlist_sync_in_progress",
		Help: "Whether a playlist sync is currently running (1) or not (0)",
	})

	// PlaylistChanges counts catalog changes that were persisted and notified
	PlaylistChanges = promauto.NewCounter(prometheus.CounterOpts{
		Name: "iptv_playlist_changes_total",
		Help: "Total number of catalog changes applied",
	})

	// PlaylistChannels tracks the number of channels in the current catalog
	PlaylistChannels = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "iptv_playlist_channels",
		Help: "Number of channels in the current catalog",
	})

	// LastSyncTimestamp is the unix time of the last successful sync
	LastSyncTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "iptv_playlist_last_sync_timestamp_seconds",
		Help: "Unix time of the last successful playlist sync",
	})

	// Activations tracks fullscreen activations by adapter and outcome
	Activations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "iptv_fullscreen_activations_total",
		Help: "Total number of fullscreen activations",
	}, []string{"adapter", "result"})

	// HealthCheckFailures tracks health check failures
	HealthCheckFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "iptv_health_check_failures_total",
		Help: "Total number of health check failures",
	})
)

// RecordSyncSuccess records a successful attempt and its duration
func RecordSyncSuccess(elapsed time.Duration) {
	SyncAttempts.WithLabelValues("success").Inc()
	SyncDuration.Observe(elapsed.Seconds())
}

// RecordSyncFailure records a failed attempt of the given kind
func RecordSyncFailure(kind string) {
	SyncAttempts.WithLabelValues("failure").Inc()
	SyncFailures.WithLabelValues(kind).Inc()
}

// SetSyncInProgress updates the in-progress gauge
func SetSyncInProgress(running bool) {
	if running {
		SyncInProgress.Set(1)
		return
	}
	SyncInProgress.Set(0)
}

// RecordPlaylistChange increments the change counter and updates the channel count
func RecordPlaylistChange(channels int) {
	PlaylistChanges.Inc()
	PlaylistChannels.Set(float64(channels))
}

// SetPlaylistChannels sets the number of channels in the current catalog
func SetPlaylistChannels(count int) {
	PlaylistChannels.Set(float64(count))
}

// SetLastSync records the time of the last successful sync
func SetLastSync(t time.Time) {
	LastSyncTimestamp.Set(float64(t.Unix()))
}

// RecordActivation increments the activation counter for an adapter
func RecordActivation(adapter string, ok bool) {
	result := "success"
	if !ok {
		result = "failure"
	}
	Activations.WithLabelValues(adapter, result).Inc()
}

// RecordHealthCheckFailure increments the health check failure counter
func RecordHealthCheckFailure() {
	HealthCheckFailures.Inc()
}
