// Package metrics registers the Prometheus series this server exposes at
// /metrics, grounded on the corpus's own client_golang usage: plain
// package-level vectors registered once, updated from wherever the event
// they describe actually happens.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RoomsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "bullpen_rooms_active",
		Help: "Number of currently live game rooms.",
	})

	ClientsConnected = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "bullpen_clients_connected",
		Help: "Number of currently connected websocket clients, across all rooms.",
	})

	OrdersPlaced = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bullpen_orders_placed_total",
		Help: "Orders accepted into the book, by side and order type.",
	}, []string{"side", "order_type"})

	OrdersRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bullpen_orders_rejected_total",
		Help: "Orders rejected at the participant boundary, by reason.",
	}, []string{"reason"})

	GamesConcluded = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bullpen_games_concluded_total",
		Help: "Games that reached their natural end and broadcast a conclusion.",
	})

	PowersConsumed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bullpen_powers_consumed_total",
		Help: "Power-up instances consumed, by power type.",
	}, []string{"power"})

	WebsocketMessagesDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bullpen_websocket_messages_dropped_total",
		Help: "Outbound messages dropped because a client's send buffer was full.",
	})
)

func init() {
	prometheus.MustRegister(
		RoomsActive,
		ClientsConnected,
		OrdersPlaced,
		OrdersRejected,
		GamesConcluded,
		PowersConsumed,
		WebsocketMessagesDropped,
	)
}
