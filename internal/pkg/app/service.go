package app

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"
	"twitchnotify/internal/app/adapters/http/handlers"
	"twitchnotify/internal/app/adapters/metrics"
	"twitchnotify/internal/app/domain/notifications"
	"twitchnotify/internal/app/infrastructure/config"
	"twitchnotify/internal/app/infrastructure/storage"
	"twitchnotify/internal/app/ports"
	"twitchnotify/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
)

const defaultSyncInterval = 10 * time.Second

// chatClient is the part of the IRC client the service drives.
type chatClient interface {
	Join(channel string, onJoined func())
	Part(channel string, onParted func())
	IsReady() bool
	State() ports.ConnectionState
	Login() string
}

type notifier interface {
	OnAny(fn func(notifications.Notification)) func()
	SendDummy(kind notifications.Kind, channel string) error
	Pending() (gifts, massGifts int)
}

// Service keeps the joined rooms in line with the configured channels and
// collects accepted notifications.
type Service struct {
	log     logger.Logger
	manager *config.Manager
	client  chatClient
	rooms   ports.RoomsPort
	notes   notifier
	recent  *storage.Cache[notifications.Notification]

	startedAt time.Time
	kick      chan struct{}

	mu       sync.Mutex
	sinks    []func(notifications.Notification)
	unsubAny func()
}

func NewService(log logger.Logger, manager *config.Manager, client chatClient, rooms ports.RoomsPort, notes notifier) *Service {
	cfg := manager.Get()

	s := &Service{
		log:       log,
		manager:   manager,
		client:    client,
		rooms:     rooms,
		notes:     notes,
		recent:    storage.NewCache[notifications.Notification](cfg.Notifications.RecentSize, cfg.Notifications.RecentTTL),
		startedAt: time.Now(),
		kick:      make(chan struct{}, 1),
	}
	s.unsubAny = notes.OnAny(s.accept)

	return s
}

// OnNotification registers fn for every notification that passes the channel,
// dedupe and display filters.
func (s *Service) OnNotification(fn func(notifications.Notification)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sinks = append(s.sinks, fn)
}

func (s *Service) Close() {
	s.unsubAny()
}

// Kick asks the sync loop for an immediate reconcile.
func (s *Service) Kick() {
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

// Run reconciles rooms every sync interval until ctx is done.
func (s *Service) Run(ctx context.Context) {
	interval := s.manager.Get().IRC.SyncInterval
	if interval <= 0 {
		interval = defaultSyncInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-s.kick:
		}

		s.reconcile(ctx)
		s.updatePending()
	}
}

func (s *Service) reconcile(ctx context.Context) {
	if !s.client.IsReady() {
		return
	}

	cfg := s.manager.Get()
	desired := make(map[string]struct{}, len(cfg.Twitch.Channels))
	for _, ch := range cfg.Twitch.Channels {
		desired[ch] = struct{}{}
	}

	for _, room := range s.rooms.ListChannels() {
		if _, ok := desired[room.Channel]; ok {
			continue
		}
		s.log.Info("Leaving channel", slog.String("channel", room.Channel))
		s.client.Part(room.Channel, nil)
	}

	for _, ch := range cfg.Twitch.Channels {
		if s.rooms.IsInChannel(ch) {
			continue
		}
		if cfg.Limiter.Rate != nil {
			if err := cfg.Limiter.Rate.Wait(ctx); err != nil {
				return
			}
		}

		s.log.Debug("Joining channel", slog.String("channel", ch))
		s.client.Join(ch, func() {
			s.log.Info("Joined channel", slog.String("channel", ch))
		})
	}
}

func (s *Service) desired(channel string) bool {
	if channel == config.DummyChannel {
		return true
	}
	return slices.Contains(s.manager.Get().Twitch.Channels, channel)
}

func (s *Service) accept(n notifications.Notification) {
	defer s.updatePending()

	if !s.desired(n.Channel) {
		s.log.Trace("Notification for untracked channel dropped", slog.String("channel", n.Channel))
		return
	}

	if !notifications.Allowed(s.manager.Get().Filters, n) {
		metrics.NotificationsFiltered.With(prometheus.Labels{"kind": string(n.Kind)}).Inc()
		return
	}

	if n.ID != "" && !s.recent.Add(n.ID, n) {
		s.log.Debug("Duplicate notification dropped", slog.String("id", n.ID))
		return
	}

	metrics.Notifications.With(prometheus.Labels{"kind": string(n.Kind), "channel": n.Channel}).Inc()
	switch n.Kind {
	case notifications.KindGiftSub:
		metrics.GiftedSubs.With(prometheus.Labels{"channel": n.Channel}).Inc()
	case notifications.KindMassGiftSub:
		metrics.GiftedSubs.With(prometheus.Labels{"channel": n.Channel}).Add(float64(n.MassCount))
	}

	s.log.Info(n.Text(),
		slog.String("event", string(n.Kind)),
		slog.String("channel", n.Channel),
		slog.String("user", n.DisplayName),
	)

	s.mu.Lock()
	sinks := slices.Clone(s.sinks)
	s.mu.Unlock()

	for _, fn := range sinks {
		fn(n)
	}
}

func (s *Service) updatePending() {
	gifts, mass := s.notes.Pending()
	metrics.PendingGifts.With(prometheus.Labels{"type": "gift"}).Set(float64(gifts))
	metrics.PendingGifts.With(prometheus.Labels{"type": "mass"}).Set(float64(mass))
}

func (s *Service) Status() handlers.Status {
	gifts, mass := s.notes.Pending()

	rooms := s.rooms.ListChannels()
	tracking := make([]string, 0, len(rooms))
	for _, r := range rooms {
		tracking = append(tracking, r.Channel)
	}

	return handlers.Status{
		Login:            s.client.Login(),
		State:            s.client.State().String(),
		Ready:            s.client.IsReady(),
		Desired:          slices.Clone(s.manager.Get().Twitch.Channels),
		Tracking:         tracking,
		Rooms:            rooms,
		PendingGifts:     gifts,
		PendingMassGifts: mass,
		StartedAt:        s.startedAt,
	}
}

// Recent returns up to limit accepted notifications, newest first.
func (s *Service) Recent(limit int) []notifications.Notification {
	out := s.recent.Values()
	slices.SortFunc(out, func(a, b notifications.Notification) int {
		if c := cmp.Compare(b.Timestamp, a.Timestamp); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (s *Service) SendDummy(kind notifications.Kind) error {
	return s.notes.SendDummy(kind, config.DummyChannel)
}

// SetChannels replaces the desired channel list, saves it and triggers a reconcile.
func (s *Service) SetChannels(channels []string) error {
	if err := s.manager.Update(func(cfg *config.Config) {
		cfg.Twitch.Channels = channels
	}); err != nil {
		return err
	}

	s.log.Info("Channel list updated", slog.Any("channels", s.manager.Get().Twitch.Channels))
	s.Kick()
	return nil
}
