package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvLogin, EnvOAuth, EnvChannels} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestNew_CreatesDefault(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	m, err := New(path)
	require.NoError(t, err)

	cfg := m.Get()
	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.Equal(t, "tcp", cfg.IRC.Transport)
	assert.Equal(t, 5*time.Second, cfg.IRC.ReconnectDelay)
	assert.Equal(t, 10*time.Second, cfg.IRC.SyncInterval)
	assert.Equal(t, time.Second, cfg.Notifications.GiftWindow)
	assert.Equal(t, 5*time.Second, cfg.Notifications.MassGiftWindow)
	assert.True(t, cfg.Filters.ShowGiftsubs)
	assert.NotNil(t, cfg.Limiter.Rate)

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestNew_ReadsFileAndKeepsDefaultsForMissingFields(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.json")
	raw := `{"twitch":{"login":"Bot","oauth":"abc","channels":["#Foo","foo","bar"]},"filters":{"min_bits":100}}`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0644))

	m, err := New(path)
	require.NoError(t, err)

	cfg := m.Get()
	assert.Equal(t, []string{"foo", "bar"}, cfg.Twitch.Channels)
	assert.Equal(t, 100, cfg.Filters.MinBits)
	assert.True(t, cfg.Filters.ShowBits)
	assert.Equal(t, 5*time.Second, cfg.IRC.JoinTimeout)
}

func TestNew_EnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	t.Setenv(EnvLogin, "envbot")
	t.Setenv(EnvOAuth, "oauth:xyz")
	t.Setenv(EnvChannels, "one, #Two")

	m, err := New(path)
	require.NoError(t, err)

	cfg := m.Get()
	assert.Equal(t, "envbot", cfg.Twitch.Login)
	assert.Equal(t, "oauth:xyz", cfg.Twitch.OAuth)
	assert.Equal(t, []string{"one", "two"}, cfg.Twitch.Channels)
}

func TestLoadEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("TWITCH_LOGIN=fromfile\n"), 0644))

	require.NoError(t, LoadEnv(filepath.Join(dir, "missing.env"), envFile))
	assert.Equal(t, "fromfile", os.Getenv(EnvLogin))
}

func TestNew_InvalidFile(t *testing.T) {
	clearEnv(t)
	cases := map[string]string{
		"bad json":       `{`,
		"bad level":      `{"app":{"log_level":"loud"}}`,
		"bad transport":  `{"irc":{"transport":"udp"}}`,
		"oauth no login": `{"twitch":{"oauth":"abc"}}`,
		"negative bits":  `{"filters":{"min_bits":-1}}`,
		"half limiter":   `{"limiter":{"requests":3,"per":0}}`,
		"bad proxy port": `{"proxy":{"address":"127.0.0.1","port":0}}`,
		"spaced channel": `{"twitch":{"channels":["a b"]}}`,
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.json")
			require.NoError(t, os.WriteFile(path, []byte(raw), 0644))

			_, err := New(path)
			assert.Error(t, err)
		})
	}
}

func TestManager_Update(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.json")
	m, err := New(path)
	require.NoError(t, err)

	require.NoError(t, m.Update(func(cfg *Config) {
		cfg.Twitch.Channels = []string{"#NewChan"}
	}))
	assert.Equal(t, []string{"newchan"}, m.Get().Twitch.Channels)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var onDisk Config
	require.NoError(t, json.Unmarshal(raw, &onDisk))
	assert.Equal(t, []string{"newchan"}, onDisk.Twitch.Channels)

	err = m.Update(func(cfg *Config) { cfg.IRC.Transport = "carrier-pigeon" })
	assert.ErrorIs(t, err, ErrInvalid)
	assert.Equal(t, "tcp", m.Get().IRC.Transport)
}

func TestProxyAddr(t *testing.T) {
	var p *Proxy
	assert.Equal(t, "", p.Addr())
	assert.Equal(t, "", (&Proxy{}).Addr())
	assert.Equal(t, "127.0.0.1:1080", (&Proxy{Address: "127.0.0.1", Port: 1080}).Addr())
}

func TestNormalizeChannel(t *testing.T) {
	assert.Equal(t, "chan", NormalizeChannel(" #Chan "))
}
