// Package metrics exposes prometheus instrumentation for the game core.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// BetsAccepted counts admitted bets by bet type.
	BetsAccepted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pc28",
		Name:      "bets_accepted_total",
		Help:      "Bets admitted into the current round.",
	}, []string{"bet_type"})

	// BetsRejected counts rejected bets by rejection kind.
	BetsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pc28",
		Name:      "bets_rejected_total",
		Help:      "Bets rejected by the admission gate.",
	}, []string{"kind"})

	// RoundsOpened counts opened rounds.
	RoundsOpened = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pc28",
		Name:      "rounds_opened_total",
		Help:      "Rounds opened.",
	})

	// RoundsSettled counts settled rounds.
	RoundsSettled = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pc28",
		Name:      "rounds_settled_total",
		Help:      "Rounds settled.",
	})

	// RoundsVoided counts administratively voided rounds.
	RoundsVoided = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pc28",
		Name:      "rounds_voided_total",
		Help:      "Rounds voided.",
	})

	// WSClients tracks currently connected push subscribers.
	WSClients = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "pc28",
		Name:      "ws_clients",
		Help:      "Connected push subscribers.",
	})

	// BroadcastDropped counts events dropped from full subscriber queues.
	BroadcastDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pc28",
		Name:      "broadcast_dropped_total",
		Help:      "Events dropped because a subscriber queue was full.",
	})
)

// Handler returns the prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
