package config

import "time"

const DummyChannel = "dummychannel"

func (m *Manager) GetDefault() *Config {
	cfg := &Config{
		App: App{
			LogLevel: "info",
			LogFile:  "logs/main.log",
			GinMode:  "release",
			HTTPAddr: "127.0.0.1:8080",
		},
		Twitch: Twitch{
			Channels: []string{},
		},
		IRC: IRC{
			Transport:      "tcp",
			AutoReconnect:  true,
			RequestCAP:     true,
			ReconnectDelay: 5 * time.Second,
			JoinTimeout:    5 * time.Second,
			SyncInterval:   10 * time.Second,
		},
		Notifications: Notifications{
			GiftWindow:     time.Second,
			MassGiftWindow: 5 * time.Second,
			RecentSize:     500,
			RecentTTL:      24 * time.Hour,
		},
		Filters: Filters{
			ShowBits:     true,
			MinBits:      0,
			ShowNewsubs:  true,
			ShowResubs:   true,
			ShowGiftsubs: true,
		},
		Limiter: Limiter{
			Requests: 20,
			Per:      10 * time.Second,
		},
	}

	_ = m.validate(cfg)
	return cfg
}
