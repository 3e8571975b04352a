package config

import (
	"net"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

type Config struct {
	App           App           `json:"app"`
	Proxy         *Proxy        `json:"proxy"`
	Twitch        Twitch        `json:"twitch"`
	IRC           IRC           `json:"irc"`
	Notifications Notifications `json:"notifications"`
	Filters       Filters       `json:"filters"`
	Limiter       Limiter       `json:"limiter"`
}

type App struct {
	LogLevel  string `json:"log_level"`
	LogFile   string `json:"log_file"`
	GinMode   string `json:"gin_mode"`
	HTTPAddr  string `json:"http_addr"`
	AuthToken string `json:"auth_token"` // basic auth password for /metrics and /debug/pprof
}

type Proxy struct {
	Address string `json:"address"`
	Port    int    `json:"port"`
}

// Addr returns host:port, empty when no proxy is configured.
func (p *Proxy) Addr() string {
	if p == nil || p.Address == "" {
		return ""
	}
	return net.JoinHostPort(p.Address, strconv.Itoa(p.Port))
}

type Twitch struct {
	Login    string   `json:"login"` // пусто - анонимный вход justinfan
	OAuth    string   `json:"oauth"`
	Channels []string `json:"channels"`
}

type IRC struct {
	Transport      string        `json:"transport"` // tcp, tls, websocket
	Address        string        `json:"address"`
	AutoReconnect  bool          `json:"auto_reconnect"`
	RequestCAP     bool          `json:"request_cap"`
	ReconnectDelay time.Duration `json:"reconnect_delay"`
	JoinTimeout    time.Duration `json:"join_timeout"`
	SyncInterval   time.Duration `json:"sync_interval"`
}

type Notifications struct {
	GiftWindow     time.Duration `json:"gift_window"`
	MassGiftWindow time.Duration `json:"mass_gift_window"`
	RecentSize     int           `json:"recent_size"`
	RecentTTL      time.Duration `json:"recent_ttl"`
}

type Filters struct {
	ShowBits     bool `json:"show_bits"`
	MinBits      int  `json:"min_bits"`
	ShowNewsubs  bool `json:"show_newsubs"`
	ShowResubs   bool `json:"show_resubs"`
	ShowGiftsubs bool `json:"show_giftsubs"`
}

type Limiter struct {
	Requests int           `json:"requests"` // сколько JOIN
	Per      time.Duration `json:"per"`      // за какое время
	Rate     *rate.Limiter `json:"-"`
}
