package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MessagesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "roomy_chat_messages_sent_total",
		Help: "Messages persisted by the chat service.",
	})

	DeliveriesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "roomy_chat_deliveries_dropped_total",
		Help: "Live pushes dropped because the recipient had no session or a full buffer.",
	})

	ConnectedClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "roomy_ws_connected_clients",
		Help: "Currently connected WebSocket clients.",
	})
)
