package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	OnlineConns = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "gateway_online_conns",
		Help: "Current live websocket connections.",
	})

	SendDelivered = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gateway_send_delivered_total",
		Help: "Total per-connection deliveries from sendToUser.",
	})
	SendOffline = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gateway_send_offline_total",
		Help: "Total sendToUser calls that found no active connection.",
	})
	RoomBroadcasts = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gateway_room_broadcasts_total",
		Help: "Total room broadcasts emitted to the transport.",
	})
	DuplicatesSuppressed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gateway_duplicates_suppressed_total",
		Help: "Total admin notifications suppressed as duplicates.",
	})
	AdminJoinDenied = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gateway_admin_join_denied_total",
		Help: "Total admin-room join attempts denied for missing role.",
	})

	RoomsEvicted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gateway_rooms_evicted_total",
		Help: "Total idle room metadata records evicted by the janitor.",
	})
	DedupEvicted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gateway_dedup_evicted_total",
		Help: "Total dedup records evicted by expiry or capacity.",
	})
)

func Register() {
	prometheus.MustRegister(
		OnlineConns,
		SendDelivered, SendOffline, RoomBroadcasts,
		DuplicatesSuppressed, AdminJoinDenied,
		RoomsEvicted, DedupEvicted,
	)
}
