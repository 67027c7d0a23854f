package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "synchub"

var (
	wsActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ws_active_connections",
			Help:      "Number of open websocket connections",
		},
	)

	wsMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_messages_total",
			Help:      "Inbound websocket messages by type and outcome",
		},
		[]string{"type", "status"},
	)

	wsMessageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ws_message_duration_seconds",
			Help:      "Time spent handling an inbound websocket message",
			Buckets:   prometheus.ExponentialBuckets(0.00005, 4, 8),
		},
		[]string{"type"},
	)

	sendDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "send_dropped_total",
			Help:      "Outbound messages dropped because a connection's queue was full",
		},
	)

	relayDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "relay_dropped_total",
			Help:      "Signaling messages dropped because the target connection is gone",
		},
		[]string{"namespace", "kind"},
	)

	chatPersistFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_persist_failures_total",
			Help:      "Chat messages broadcast with a local id because the store failed",
		},
	)

	activeRooms = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rooms",
			Help:      "Number of rooms with room state",
		},
	)
)

func IncrementWSActiveConnections() {
	wsActiveConnections.Inc()
}

func DecrementWSActiveConnections() {
	wsActiveConnections.Dec()
}

// RecordWSMessage records one handled inbound message. status is "ok" or "error".
func RecordWSMessage(messageType, status string, duration time.Duration) {
	wsMessagesTotal.WithLabelValues(messageType, status).Inc()
	wsMessageDuration.WithLabelValues(messageType).Observe(duration.Seconds())
}

func RecordSendDropped() {
	sendDroppedTotal.Inc()
}

func RecordRelayDropped(namespace, kind string) {
	relayDroppedTotal.WithLabelValues(namespace, kind).Inc()
}

func RecordChatPersistFailure() {
	chatPersistFailuresTotal.Inc()
}

func SetRooms(count int) {
	activeRooms.Set(float64(count))
}
