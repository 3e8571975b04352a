package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

var ErrInvalid = errors.New("invalid config")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

func (m *Manager) validate(cfg *Config) error {
	// app
	validLevels := map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "error": true}
	if cfg.App.LogLevel != "" && !validLevels[cfg.App.LogLevel] {
		return invalid("app.log_level must be one of trace, debug, info, warn, error; got %s", cfg.App.LogLevel)
	}
	validModes := map[string]bool{"debug": true, "release": true, "test": true}
	if cfg.App.GinMode != "" && !validModes[cfg.App.GinMode] {
		return invalid("app.gin_mode must be one of debug, release, test; got %s", cfg.App.GinMode)
	}

	// proxy
	if cfg.Proxy != nil && cfg.Proxy.Address != "" && (cfg.Proxy.Port <= 0 || cfg.Proxy.Port > 65535) {
		return invalid("proxy.port must be [1,65535]")
	}

	// twitch
	if cfg.Twitch.OAuth != "" && cfg.Twitch.Login == "" {
		return invalid("twitch.login is required when twitch.oauth is set")
	}
	channels := make([]string, 0, len(cfg.Twitch.Channels))
	seen := make(map[string]struct{}, len(cfg.Twitch.Channels))
	for _, ch := range cfg.Twitch.Channels {
		ch = NormalizeChannel(ch)
		if ch == "" {
			continue
		}
		if strings.ContainsAny(ch, " ,") {
			return invalid("twitch.channels contains an invalid name %q", ch)
		}
		if _, ok := seen[ch]; ok {
			continue
		}
		seen[ch] = struct{}{}
		channels = append(channels, ch)
	}
	cfg.Twitch.Channels = channels

	// irc
	switch cfg.IRC.Transport {
	case "", "tcp", "tls", "websocket":
	default:
		return invalid("irc.transport must be one of tcp, tls, websocket; got %s", cfg.IRC.Transport)
	}
	if cfg.IRC.ReconnectDelay < 0 || cfg.IRC.JoinTimeout < 0 || cfg.IRC.SyncInterval < 0 {
		return invalid("irc durations must not be negative")
	}

	// notifications
	if cfg.Notifications.GiftWindow < 0 || cfg.Notifications.MassGiftWindow < 0 {
		return invalid("notifications windows must not be negative")
	}
	if cfg.Notifications.RecentSize < 0 {
		return invalid("notifications.recent_size must not be negative")
	}

	// filters
	if cfg.Filters.MinBits < 0 {
		return invalid("filters.min_bits must not be negative")
	}

	// limiter
	if (cfg.Limiter.Requests != 0 && cfg.Limiter.Per == 0) || (cfg.Limiter.Requests == 0 && cfg.Limiter.Per != 0) {
		return invalid("limiter.requests and limiter.per must both be set or both be zero")
	}
	if cfg.Limiter.Requests < 0 || cfg.Limiter.Per < 0 {
		return invalid("limiter values must not be negative")
	}
	cfg.Limiter.Rate = newLimiter(cfg.Limiter)

	return nil
}

func newLimiter(l Limiter) *rate.Limiter {
	if l.Requests == 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(l.Per/time.Duration(l.Requests)), l.Requests)
}

// NormalizeChannel lower-cases a channel name and strips the leading '#'.
func NormalizeChannel(ch string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ch), "#"))
}
