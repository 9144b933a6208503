// Package telemetry centralizes the prometheus instrumentation of the
// chat engine. Collectors are registered on a private registry so tests
// can create engines without duplicate-registration panics.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	MessagesTotal     prometheus.Counter
	FlaggedTotal      prometheus.Counter
	ReactionsTotal    prometheus.Counter
	PollsTotal        prometheus.Counter
	VotesTotal        prometheus.Counter
	ModerationActions *prometheus.CounterVec
	BansTotal         prometheus.Counter
	LiveRooms         prometheus.Gauge
	ProcessCPU        prometheus.Gauge
	ProcessRSS        prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		MessagesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "streamchat_messages_total",
			Help: "Messages committed to chat rooms.",
		}),
		FlaggedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "streamchat_messages_autoflagged_total",
			Help: "Messages auto-flagged for human review.",
		}),
		ReactionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "streamchat_reactions_total",
			Help: "Reaction toggle events.",
		}),
		PollsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "streamchat_polls_total",
			Help: "Polls created.",
		}),
		VotesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "streamchat_poll_votes_total",
			Help: "Accepted poll votes.",
		}),
		ModerationActions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "streamchat_moderation_actions_total",
			Help: "Human moderation actions by verb.",
		}, []string{"action"}),
		BansTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "streamchat_bans_total",
			Help: "Users banned from rooms.",
		}),
		LiveRooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "streamchat_live_rooms",
			Help: "Rooms currently held in memory.",
		}),
		ProcessCPU: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "streamchat_process_cpu_percent",
			Help: "CPU usage of the engine process.",
		}),
		ProcessRSS: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "streamchat_process_memory_percent",
			Help: "Resident memory usage of the engine process.",
		}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		m.MessagesTotal, m.FlaggedTotal, m.ReactionsTotal,
		m.PollsTotal, m.VotesTotal, m.ModerationActions,
		m.BansTotal, m.LiveRooms, m.ProcessCPU, m.ProcessRSS,
	)
	return m
}

// Handler serves the exposition endpoint for the debug server.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
