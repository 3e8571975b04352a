package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"twitchnotify/internal/app/adapters/http/handlers"
	"twitchnotify/internal/app/domain/notifications"
	"twitchnotify/internal/app/infrastructure/config"
	"twitchnotify/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	limit    int
	dummies  []notifications.Kind
	channels []string
	setErr   error
}

func (s *fakeService) Status() handlers.Status {
	return handlers.Status{
		Login:     "bot",
		State:     "ready",
		Ready:     true,
		Desired:   s.channels,
		StartedAt: time.Now().Add(-time.Minute),
	}
}

func (s *fakeService) Recent(limit int) []notifications.Notification {
	s.limit = limit
	return []notifications.Notification{{Kind: notifications.KindSub, Channel: "chan", ID: "1"}}
}

func (s *fakeService) SendDummy(kind notifications.Kind) error {
	s.dummies = append(s.dummies, kind)
	return nil
}

func (s *fakeService) SetChannels(channels []string) error {
	if s.setErr != nil {
		return s.setErr
	}
	s.channels = channels
	return nil
}

func newTestRouter(t *testing.T, token string) (http.Handler, *fakeService) {
	t.Helper()
	for _, env := range []string{config.EnvLogin, config.EnvOAuth, config.EnvChannels} {
		t.Setenv(env, "")
	}

	manager, err := config.New(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)
	require.NoError(t, manager.Update(func(cfg *config.Config) {
		cfg.App.GinMode = "test"
		cfg.App.AuthToken = token
	}))

	svc := &fakeService{}
	return NewRouter(logger.NewDiscard(), manager, svc).Handler(), svc
}

func do(h http.Handler, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

var bearer = map[string]string{"Authorization": "Bearer secret"}

func TestRouter_Status(t *testing.T) {
	h, _ := newTestRouter(t, "secret")

	w := do(h, http.MethodGet, "/status", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "bot", body["login"])
	assert.Equal(t, true, body["ready"])
	assert.NotEmpty(t, body["uptime"])
	assert.Contains(t, body, "cpu_percent")
	assert.Contains(t, body, "goroutines")
}

func TestRouter_Notifications(t *testing.T) {
	h, svc := newTestRouter(t, "secret")

	w := do(h, http.MethodGet, "/notifications", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 50, svc.limit)
	assert.Contains(t, w.Body.String(), `"event":"sub"`)

	w = do(h, http.MethodGet, "/notifications?limit=5000", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 500, svc.limit)

	for _, bad := range []string{"abc", "0", "-1"} {
		w = do(h, http.MethodGet, "/notifications?limit="+bad, "", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, bad)
	}
}

func TestRouter_Dummy(t *testing.T) {
	h, svc := newTestRouter(t, "secret")

	w := do(h, http.MethodPost, "/dummy/sub", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(h, http.MethodPost, "/dummy/sub", "", map[string]string{"Authorization": "Bearer wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(h, http.MethodPost, "/dummy/sub", "", bearer)
	assert.Equal(t, http.StatusAccepted, w.Code)

	w = do(h, http.MethodPost, "/dummy/any", "", bearer)
	assert.Equal(t, http.StatusAccepted, w.Code)

	w = do(h, http.MethodPost, "/dummy/raid", "", bearer)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Equal(t, []notifications.Kind{notifications.KindSub, notifications.KindAny}, svc.dummies)
}

func TestRouter_Channels(t *testing.T) {
	h, svc := newTestRouter(t, "secret")

	w := do(h, http.MethodPut, "/channels", `{"channels":["a","b"]}`, bearer)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"a", "b"}, svc.channels)
	assert.JSONEq(t, `{"desired":["a","b"]}`, w.Body.String())

	w = do(h, http.MethodPut, "/channels", `{"channels":[]}`, bearer)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, svc.channels)

	w = do(h, http.MethodPut, "/channels", `{}`, bearer)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(h, http.MethodPut, "/channels", `not json`, bearer)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	svc.setErr = errors.New("bad channel")
	w = do(h, http.MethodPut, "/channels", `{"channels":["a b"]}`, bearer)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "bad channel")
}

func TestRouter_EmptyTokenLocksWrites(t *testing.T) {
	h, svc := newTestRouter(t, "")

	w := do(h, http.MethodPost, "/dummy/sub", "", map[string]string{"Authorization": "Bearer "})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, svc.dummies)
}

func TestRouter_MetricsRequireBasicAuth(t *testing.T) {
	h, _ := newTestRouter(t, "secret")

	w := do(h, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.SetBasicAuth("admin", "secret")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_EmptyTokenLocksAdmin(t *testing.T) {
	h, _ := newTestRouter(t, "")

	for _, path := range []string{"/metrics", "/debug/pprof/"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.SetBasicAuth("admin", "")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestRouter_AdminWrongPassword(t *testing.T) {
	h, _ := newTestRouter(t, "secret")

	req := httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil)
	req.SetBasicAuth("admin", "nope")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil)
	req.SetBasicAuth("admin", "secret")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
