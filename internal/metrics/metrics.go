package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	eventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "download_activity_events_published_total",
			Help: "Total number of activity events published",
		},
		[]string{"kind"},
	)

	eventsSuppressedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "download_activity_events_suppressed_total",
			Help: "Total number of file reads that produced no activity event",
		},
		[]string{"reason"},
	)

	feedEntriesSkippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "download_activity_feed_entries_skipped_total",
			Help: "Total number of stored events omitted from a rendered feed",
		},
		[]string{"reason"},
	)

	feedRendersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "download_activity_feed_renders_total",
			Help: "Total number of feed rendering passes",
		},
		[]string{"mode"},
	)
)

// EventPublished records a published event of the given kind.
func EventPublished(kind string) {
	eventsPublishedTotal.WithLabelValues(kind).Inc()
}

// EventSuppressed records a read that was dropped.
func EventSuppressed(reason string) {
	eventsSuppressedTotal.WithLabelValues(reason).Inc()
}

// FeedEntrySkipped records a stored event left out of a feed.
func FeedEntrySkipped(reason string) {
	feedEntriesSkippedTotal.WithLabelValues(reason).Inc()
}

// FeedRendered records one rendering pass.
func FeedRendered(mode string) {
	feedRendersTotal.WithLabelValues(mode).Inc()
}

// Handler returns the Prometheus metrics handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
