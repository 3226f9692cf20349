package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DispatchTicks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "courier_dispatch_ticks_total",
		Help: "Number of dispatcher ticks executed.",
	})

	MessagesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "courier_messages_sent_total",
		Help: "Scheduled messages delivered successfully.",
	})

	MessagesFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "courier_messages_failed_total",
		Help: "Scheduled messages that reached a terminal failed status.",
	}, []string{"reason"})

	TokenRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "courier_token_refreshes_total",
		Help: "Token refresh grant attempts by outcome.",
	}, []string{"outcome"})
)

// Failure reasons for MessagesFailed.
const (
	ReasonWorkspaceMissing = "workspace_missing"
	ReasonTokenRefresh     = "token_refresh"
	ReasonProvider         = "provider"
)
