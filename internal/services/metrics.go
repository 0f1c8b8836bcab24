package services

import "github.com/prometheus/client_golang/prometheus"

// Domain counters, exposed on /metrics next to the HTTP collectors.
var (
	loginsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intranet_logins_total",
			Help: "Login attempts by result.",
		},
		[]string{"result"},
	)

	leaveDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intranet_leave_decisions_total",
			Help: "Leave request status changes made by admins.",
		},
		[]string{"status"},
	)

	worklogUnlocksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "intranet_worklog_unlocks_total",
			Help: "Work-log lines unlocked after the full confirmation sequence.",
		},
	)

	chatMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intranet_chat_messages_total",
			Help: "Chat messages sent, by attachment type (none for text only).",
		},
		[]string{"attachment"},
	)
)

func init() {
	prometheus.MustRegister(loginsTotal, leaveDecisionsTotal, worklogUnlocksTotal, chatMessagesTotal)
}
