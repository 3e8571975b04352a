package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// IRCConnected - авторизовано ли подключение к IRC (1) или нет (0).
	IRCConnected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "irc_connected",
		Help: "Whether the IRC connection is ready (1) or not (0)",
	})

	// IRCLines - входящие строки по командам.
	IRCLines = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "irc_lines_total",
			Help: "Total number of received IRC lines per command",
		},
		[]string{"command"},
	)

	// IRCSent - отправленные команды.
	IRCSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "irc_sent_total",
		Help: "Total number of raw commands written to the server",
	})

	// IRCParseErrors - строки, которые не удалось разобрать.
	IRCParseErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "irc_parse_errors_total",
		Help: "Total number of IRC lines that failed to parse",
	})

	// IRCErrors - ошибки подключения, авторизации и отправки.
	IRCErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "irc_errors_total",
		Help: "Total number of connection, login and send errors",
	})

	// IRCConnects - попытки подключения, включая переподключения.
	IRCConnects = promauto.NewCounter(prometheus.CounterOpts{
		Name: "irc_connects_total",
		Help: "Total number of connection attempts",
	})

	// RoomsJoined - количество каналов, в которых находится клиент.
	RoomsJoined = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "rooms_joined",
		Help: "Number of channels the client is currently in",
	})

	// Notifications - уведомления по типам и каналам.
	Notifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_total",
			Help: "Total number of accepted notifications per kind and channel",
		},
		[]string{"kind", "channel"},
	)

	// NotificationsFiltered - уведомления, скрытые фильтрами.
	NotificationsFiltered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_filtered_total",
			Help: "Total number of notifications hidden by the display filters per kind",
		},
		[]string{"kind"},
	)

	// GiftedSubs - подарочные подписки, включая массовые.
	GiftedSubs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gifted_subs_total",
			Help: "Total number of gifted subs per channel",
		},
		[]string{"channel"},
	)

	// PendingGifts - подарки, ожидающие объединения.
	PendingGifts = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pending_gifts",
			Help: "Gifts waiting to be coalesced, by type",
		},
		[]string{"type"},
	)
)
