package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"
	router "twitchnotify/internal/app/adapters/http"
	"twitchnotify/internal/app/adapters/metrics"
	"twitchnotify/internal/app/adapters/platform/twitch/irc"
	"twitchnotify/internal/app/domain/notifications"
	"twitchnotify/internal/app/domain/rooms"
	"twitchnotify/internal/app/infrastructure/config"
	"twitchnotify/internal/app/infrastructure/timers"
	"twitchnotify/internal/app/ports"
	"twitchnotify/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	configPath = "config.json"
	envPath    = ".env"

	wheelTick  = 10 * time.Millisecond
	wheelSlots = 512
)

func New() error {
	if err := config.LoadEnv(envPath); err != nil {
		return fmt.Errorf("load %s: %w", envPath, err)
	}

	manager, err := config.New(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg := manager.Get()

	log := logger.New(cfg.App.LogFile)
	log.SetLogLevel(cfg.App.LogLevel)

	dialer, err := irc.NewDialer(cfg.IRC.Transport, cfg.IRC.Address, cfg.Proxy.Addr())
	if err != nil {
		return err
	}

	client := irc.New(logger.NewPrefixedLogger(log, "irc"), irc.Options{
		Login:          cfg.Twitch.Login,
		Token:          cfg.Twitch.OAuth,
		AutoReconnect:  cfg.IRC.AutoReconnect,
		RequestCAP:     cfg.IRC.RequestCAP,
		ReconnectDelay: cfg.IRC.ReconnectDelay,
		JoinTimeout:    cfg.IRC.JoinTimeout,
	}, dialer)

	wheel := timers.NewTimingWheel(wheelTick, wheelSlots)
	tracker := rooms.New(logger.NewPrefixedLogger(log, "rooms"), client)
	classifier := notifications.New(logger.NewPrefixedLogger(log, "notifications"), client, wheel, notifications.Options{
		GiftWindow:     cfg.Notifications.GiftWindow,
		MassGiftWindow: cfg.Notifications.MassGiftWindow,
	})

	svc := NewService(log, manager, client, tracker, classifier)
	wireMetrics(client, tracker)
	client.OnReady(svc.Kick)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go svc.Run(ctx)
	go func() {
		connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()

		// a failed first attempt is retried by the client when auto reconnect is on
		_ = client.Connect(connectCtx)
	}()

	r := router.NewRouter(logger.NewPrefixedLogger(log, "http"), manager, svc)
	runErr := r.Run(ctx, cfg.App.HTTPAddr)

	log.Info("Shutting down")
	_ = client.Close()
	classifier.Flush()
	wheel.Stop()
	svc.Close()
	classifier.Close()
	tracker.Close()

	return runErr
}

// ircEvents is what wireMetrics observes on the client.
type ircEvents interface {
	OnRaw(fn func(ports.RawEvent)) func()
	OnRawSend(fn func(string)) func()
	OnParseError(fn func(ports.ParseErrorEvent)) func()
	OnError(fn func(error)) func()
	OnStateChange(fn func(ports.ConnectionState)) func()
}

type roomCounter interface {
	OnChange(fn func(channel string)) func()
	Len() int
}

func wireMetrics(client ircEvents, tracker roomCounter) {
	client.OnRaw(func(ev ports.RawEvent) {
		if ev.Message == nil {
			return
		}
		metrics.IRCLines.With(prometheus.Labels{"command": ev.Message.Command}).Inc()
	})
	client.OnRawSend(func(string) { metrics.IRCSent.Inc() })
	client.OnParseError(func(ports.ParseErrorEvent) { metrics.IRCParseErrors.Inc() })
	client.OnError(func(error) { metrics.IRCErrors.Inc() })
	client.OnStateChange(func(st ports.ConnectionState) {
		switch st {
		case ports.Connecting:
			metrics.IRCConnects.Inc()
			metrics.IRCConnected.Set(0)
		case ports.Ready:
			metrics.IRCConnected.Set(1)
		default:
			metrics.IRCConnected.Set(0)
		}
	})

	tracker.OnChange(func(string) {
		metrics.RoomsJoined.Set(float64(tracker.Len()))
	})
}
