package irc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
	"time"
	"twitchnotify/internal/app/ports"
	"twitchnotify/pkg/logger"
	"unicode/utf8"
)

const (
	MaxLineLength = 500

	DefaultReconnectDelay = 5 * time.Second
	DefaultJoinTimeout    = 5 * time.Second

	writeTimeout = 10 * time.Second
	dialTimeout  = 30 * time.Second
)

// Lines Twitch sends after a successful login, in this order.
// See https://dev.twitch.tv/docs/irc/authenticate-bot/
var handshakeMarkers = []string{
	"Welcome, GLHF!",
	"You are in a maze of twisty passages",
	">",
}

var (
	ErrMessageTooLong = errors.New("cannot send more than 500 characters")
	ErrLoginFailed    = errors.New("login failed")
	ErrSuperseded     = errors.New("connection attempt superseded")
)

type Options struct {
	// Login is the bot nick. Empty means anonymous (justinfan#####).
	Login string
	// Token is the oauth token, with or without the "oauth:" prefix.
	Token          string
	AutoReconnect  bool
	RequestCAP     bool
	ReconnectDelay time.Duration
	JoinTimeout    time.Duration
}

func DefaultOptions() Options {
	return Options{
		AutoReconnect:  true,
		RequestCAP:     true,
		ReconnectDelay: DefaultReconnectDelay,
		JoinTimeout:    DefaultJoinTimeout,
	}
}

type Client struct {
	log    logger.Logger
	opts   Options
	dialer Dialer

	// mu guards everything below and is held for every write to conn.
	mu        sync.Mutex
	state     ports.ConnectionState
	conn      io.ReadWriteCloser
	gen       uint64
	queue     []string
	markers   []string
	closed    bool
	reconnect *time.Timer

	waiters *waiters
	ev      events
}

var _ ports.IRCPort = (*Client)(nil)

func New(log logger.Logger, opts Options, dialer Dialer) *Client {
	if opts.Login == "" {
		opts.Login = anonymousLogin()
		opts.Token = ""
	}
	opts.Login = strings.ToLower(opts.Login)
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = DefaultReconnectDelay
	}
	if opts.JoinTimeout <= 0 {
		opts.JoinTimeout = DefaultJoinTimeout
	}

	return &Client{
		log:     log,
		opts:    opts,
		dialer:  dialer,
		waiters: newWaiters(),
		ev:      newEvents(),
	}
}

func anonymousLogin() string {
	var sb strings.Builder
	sb.WriteString("justinfan")
	for range 5 {
		sb.WriteString(strconv.Itoa(rand.IntN(10)))
	}
	return sb.String()
}

func (c *Client) Login() string {
	return c.opts.Login
}

func (c *Client) IsReady() bool {
	return c.State() == ports.Ready
}

func (c *Client) State() ports.ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

// Connect opens a fresh connection, dropping the current one if any, and logs
// in. The client becomes ready asynchronously once the handshake completes.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	c.closed = false
	c.stopReconnectLocked()
	old := c.conn
	c.conn = nil
	c.gen++
	gen := c.gen
	c.markers = append([]string(nil), handshakeMarkers...)
	changed := c.setStateLocked(ports.Connecting)
	c.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}
	if changed {
		c.ev.state.Emit(ports.Connecting)
	}

	conn, err := c.dialer.Dial(ctx)
	if err != nil {
		err = fmt.Errorf("connect to twitch irc: %w", err)
		c.log.Error("Failed to connect to IRC chat Twitch", err)
		c.ev.err.Emit(err)
		c.handleClosed(gen)
		return err
	}

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		_ = conn.Close()
		return ErrSuperseded
	}
	c.conn = conn

	for _, line := range c.loginLines() {
		if err := c.writeLocked(line); err != nil {
			c.log.Error("Failed to send login", err)
			break
		}
	}
	changed = c.setStateLocked(ports.AwaitingAuth)
	c.mu.Unlock()

	if changed {
		c.ev.state.Emit(ports.AwaitingAuth)
	}

	c.log.Info("Connected to IRC chat Twitch", slog.String("login", c.opts.Login))
	go c.listen(conn, gen)

	return nil
}

func (c *Client) loginLines() []string {
	lines := make([]string, 0, 5)
	if c.opts.RequestCAP {
		lines = append(lines,
			"CAP REQ twitch.tv/membership",
			"CAP REQ twitch.tv/tags",
			"CAP REQ twitch.tv/commands",
		)
	}
	if c.opts.Token != "" {
		if strings.HasPrefix(c.opts.Token, "oauth:") {
			lines = append(lines, "PASS "+c.opts.Token)
		} else {
			lines = append(lines, "PASS oauth:"+c.opts.Token)
		}
	}
	return append(lines, "NICK "+c.opts.Login)
}

// Close stops the client for good: no reconnect is scheduled afterwards.
func (c *Client) Close() error {
	c.mu.Lock()
	c.closed = true
	c.gen++
	c.stopReconnectLocked()
	conn := c.conn
	c.conn = nil
	changed := c.setStateLocked(ports.Disconnected)
	c.mu.Unlock()

	c.waiters.clear()
	if changed {
		c.ev.state.Emit(ports.Disconnected)
	}

	if conn != nil {
		return conn.Close()
	}
	return nil
}

// Join sends JOIN. onJoined, if set, runs once the join is confirmed within
// the join timeout; otherwise it is never called.
func (c *Client) Join(channel string, onJoined func()) {
	name := normalizeChannel(channel)
	if onJoined != nil {
		c.waiters.wait("join", name, c.opts.JoinTimeout, onJoined)
	}
	_ = c.Send("JOIN #" + name)
}

func (c *Client) Part(channel string, onParted func()) {
	name := normalizeChannel(channel)
	if onParted != nil {
		c.waiters.wait("part", name, c.opts.JoinTimeout, onParted)
	}
	_ = c.Send("PART #" + name)
}

func (c *Client) Say(channel, text string) error {
	return c.Send("PRIVMSG #" + normalizeChannel(channel) + " :" + text)
}

// Send writes raw to the server, or queues it until the client is ready.
func (c *Client) Send(raw string) error {
	if utf8.RuneCountInString(raw) > MaxLineLength {
		err := fmt.Errorf("%w: got %d", ErrMessageTooLong, utf8.RuneCountInString(raw))
		c.log.Error("Message too long", err)
		c.ev.err.Emit(err)
		return err
	}

	c.mu.Lock()
	if c.state != ports.Ready || c.conn == nil {
		c.queue = append(c.queue, raw)
		c.mu.Unlock()
		c.log.Debug("Queued until ready", slog.String("raw", raw))
		return nil
	}
	err := c.writeLocked(raw)
	c.mu.Unlock()

	if err != nil {
		c.log.Error("Failed to write to IRC chat Twitch", err)
		c.ev.err.Emit(err)
		return err
	}

	c.ev.rawSend.Emit(raw)
	return nil
}

func (c *Client) writeLocked(line string) error {
	if c.conn == nil {
		return io.ErrClosedPipe
	}
	if d, ok := c.conn.(interface{ SetWriteDeadline(time.Time) error }); ok {
		_ = d.SetWriteDeadline(time.Now().Add(writeTimeout))
	}
	_, err := c.conn.Write([]byte(line + "\r\n"))
	return err
}

func (c *Client) listen(conn io.ReadWriteCloser, gen uint64) {
	var lb lineBuffer
	buf := make([]byte, 4096)

	for {
		n, err := conn.Read(buf)
		if n > 0 {
			for _, line := range lb.feed(buf[:n]) {
				c.handleLine(line, gen)
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && c.current(gen) {
				c.log.Error("Failed to read line on Twitch", err)
				c.ev.err.Emit(fmt.Errorf("read: %w", err))
			}
			break
		}
	}

	_ = conn.Close()
	c.handleClosed(gen)
}

func (c *Client) current(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return gen == c.gen
}

// handleClosed moves to Disconnected and schedules a reconnect, unless gen
// belongs to a connection that was already replaced or closed.
func (c *Client) handleClosed(gen uint64) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.conn = nil
	changed := c.setStateLocked(ports.Disconnected)
	if !c.closed && c.opts.AutoReconnect {
		c.stopReconnectLocked()
		c.reconnect = time.AfterFunc(c.opts.ReconnectDelay, func() {
			ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
			defer cancel()

			if !c.current(gen) {
				return
			}
			_ = c.Connect(ctx)
		})
		c.log.Warn("IRC connection lost, retrying...", slog.Duration("delay", c.opts.ReconnectDelay))
	}
	c.mu.Unlock()

	if changed {
		c.ev.state.Emit(ports.Disconnected)
	}
}

func (c *Client) stopReconnectLocked() {
	if c.reconnect != nil {
		c.reconnect.Stop()
		c.reconnect = nil
	}
}

func (c *Client) setStateLocked(s ports.ConnectionState) bool {
	if c.state == s {
		return false
	}
	c.state = s
	return true
}

// dropConn closes the socket without marking the client closed, so the
// regular reconnect path runs.
func (c *Client) dropConn(gen uint64) {
	c.mu.Lock()
	conn := c.conn
	if gen != c.gen {
		conn = nil
	}
	c.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
}

func (c *Client) handleLine(line string, gen uint64) {
	// keep-alive
	if strings.HasPrefix(line, "PING") {
		c.mu.Lock()
		if gen == c.gen {
			_ = c.writeLocked("PONG :tmi.twitch.tv")
		}
		c.mu.Unlock()
		return
	}

	msg, err := Parse(line)
	if err != nil {
		c.log.Warn("Failed to parse line", slog.String("line", line), slog.String("error", err.Error()))
		c.ev.parseErr.Emit(ports.ParseErrorEvent{Line: line, Err: err})
		return
	}

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	if c.state == ports.Ready {
		c.mu.Unlock()
		c.dispatch(line, msg, gen)
		return
	}

	var flushed []string
	var writeErr error
	ready := false
	if len(c.markers) > 0 && strings.Contains(msg.Trailing, c.markers[0]) {
		c.markers = c.markers[1:]
		if len(c.markers) == 0 {
			c.state = ports.Ready
			ready = true
			flushed, writeErr = c.flushLocked()
		}
	}
	loginFailed := msg.Command == "NOTICE"
	c.mu.Unlock()

	if ready {
		c.log.Info("Logged in to IRC chat Twitch", slog.Int("flushed", len(flushed)))
		c.ev.state.Emit(ports.Ready)
		for _, raw := range flushed {
			c.ev.rawSend.Emit(raw)
		}
		if writeErr != nil {
			c.ev.err.Emit(writeErr)
		}
		c.ev.ready.Emit(struct{}{})
	}

	// A notice before the handshake finished means the login was rejected.
	if loginFailed {
		err := fmt.Errorf("%w: %s", ErrLoginFailed, msg.Trailing)
		c.log.Error("Login authentication to IRC failed", err, slog.String("line", line))
		c.ev.err.Emit(err)
		c.dropConn(gen)
	}
}

// flushLocked writes the queued commands in order. Commands that could not
// be written stay queued.
func (c *Client) flushLocked() ([]string, error) {
	sent := make([]string, 0, len(c.queue))
	for len(c.queue) > 0 {
		raw := c.queue[0]
		if err := c.writeLocked(raw); err != nil {
			return sent, err
		}
		sent = append(sent, raw)
		c.queue = c.queue[1:]
	}
	c.queue = nil
	return sent, nil
}

func (c *Client) dispatch(line string, msg *ports.IRCMessage, gen uint64) {
	c.log.Trace("New IRC line", slog.String("line", line))
	c.ev.raw.Emit(ports.RawEvent{Line: line, Message: msg})

	switch msg.Command {
	case "JOIN":
		login := msg.Login()
		if strings.EqualFold(login, c.opts.Login) {
			c.ev.join.Emit(msg.Channel)
			c.waiters.notify("join", normalizeChannel(msg.Channel))
		} else {
			c.ev.otherJoin.Emit(ports.MembershipEvent{Channel: msg.Channel, Login: login})
		}
	case "PART":
		login := msg.Login()
		if strings.EqualFold(login, c.opts.Login) {
			c.ev.part.Emit(msg.Channel)
			c.waiters.notify("part", normalizeChannel(msg.Channel))
		} else {
			c.ev.otherPart.Emit(ports.MembershipEvent{Channel: msg.Channel, Login: login})
		}
	case "PRIVMSG":
		c.ev.message.Emit(ports.ChatMessageEvent{
			Channel: msg.Channel,
			Login:   msg.Login(),
			Text:    msg.Trailing,
			Tags:    msg.Tags,
		})
	case "ROOMSTATE":
		c.ev.roomState.Emit(ports.ChannelTagsEvent{Channel: msg.Channel, Tags: msg.Tags})
	case "USERNOTICE":
		c.ev.userNotice.Emit(ports.UserNoticeEvent{
			Channel: msg.Channel,
			Login:   msg.Tags.Get("login"),
			Text:    msg.Trailing,
			Tags:    msg.Tags,
		})
	case "NOTICE":
		c.ev.notice.Emit(ports.NoticeEvent{Channel: msg.Channel, Text: msg.Trailing, Tags: msg.Tags})
	case "CLEARCHAT":
		if msg.Trailing != "" {
			c.ev.userBan.Emit(ports.UserBanEvent{Channel: msg.Channel, Login: msg.Trailing, Tags: msg.Tags})
		} else {
			c.ev.clearChat.Emit(msg.Channel)
		}
	case "CLEARMSG":
		c.ev.messageDeleted.Emit(ports.ChannelTagsEvent{Channel: msg.Channel, Tags: msg.Tags})
	case "GLOBALUSERSTATE":
		c.ev.globalUserState.Emit(msg.Tags)
	case "USERSTATE":
		c.ev.userState.Emit(ports.ChannelTagsEvent{Channel: msg.Channel, Tags: msg.Tags})
	case "HOSTTARGET":
		c.ev.host.Emit(parseHostTarget(msg))
	case "RECONNECT":
		c.log.Info("Twitch requested a reconnect")
		c.ev.reconnect.Emit(struct{}{})
		c.dropConn(gen)
	}
}

func parseHostTarget(msg *ports.IRCMessage) ports.HostEvent {
	ev := ports.HostEvent{Channel: msg.Channel}

	fields := strings.Fields(msg.Trailing)
	if len(fields) > 0 {
		ev.Target = fields[0]
	}
	if len(fields) > 1 {
		if n, err := strconv.Atoi(fields[1]); err == nil {
			ev.Viewers = n
			ev.HasViewers = true
		}
	}

	return ev
}

func normalizeChannel(channel string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(channel), "#"))
}
