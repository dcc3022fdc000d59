// Package metrics exposes wagering counters in Prometheus format.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/attaboy/faketoto/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns a private registry so tests and multiple servers do not collide.
type Collector struct {
	registry *prometheus.Registry

	betsPlaced     *prometheus.CounterVec
	stakes         *prometheus.CounterVec
	roundsSettled  *prometheus.CounterVec
	payouts        *prometheus.CounterVec
	activeSessions prometheus.Gauge
	rejections     *prometheus.CounterVec
}

// NewCollector registers all wagering metrics plus the Go runtime collectors.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		betsPlaced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "faketoto",
			Name:      "bets_placed_total",
			Help:      "Accepted bets and confirmed tickets by game mode.",
		}, []string{"mode"}),
		stakes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "faketoto",
			Name:      "stakes_total",
			Help:      "Sum of debited stakes by game mode.",
		}, []string{"mode"}),
		roundsSettled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "faketoto",
			Name:      "rounds_settled_total",
			Help:      "Resolved ladder and race rounds by mode and result.",
		}, []string{"mode", "won"}),
		payouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "faketoto",
			Name:      "payouts_total",
			Help:      "Sum of credited winnings by game mode.",
		}, []string{"mode"}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "faketoto",
			Name:      "active_sessions",
			Help:      "Sessions currently held in memory.",
		}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "faketoto",
			Name:      "bet_rejections_total",
			Help:      "Rejected bets by mode and error code.",
		}, []string{"mode", "code"}),
	}
	c.registry.MustRegister(
		c.betsPlaced, c.stakes, c.roundsSettled, c.payouts, c.activeSessions, c.rejections,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

func (c *Collector) BetPlaced(mode domain.Mode, stake int64) {
	c.betsPlaced.WithLabelValues(string(mode)).Inc()
	c.stakes.WithLabelValues(string(mode)).Add(float64(stake))
}

func (c *Collector) BetRejected(mode domain.Mode, code string) {
	c.rejections.WithLabelValues(string(mode), code).Inc()
}

func (c *Collector) RoundSettled(r domain.RoundResult) {
	c.roundsSettled.WithLabelValues(string(r.Mode), strconv.FormatBool(r.Won)).Inc()
	if r.Payout > 0 {
		c.payouts.WithLabelValues(string(r.Mode)).Add(float64(r.Payout))
	}
}

func (c *Collector) SessionOpened() { c.activeSessions.Inc() }
func (c *Collector) SessionClosed() { c.activeSessions.Dec() }
