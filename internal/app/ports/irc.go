package ports

import (
	"context"
	"strconv"
	"strings"
)

// Tags holds IRCv3 message tags. A tag sent without "=" is stored with an empty value.
type Tags map[string]string

func (t Tags) Get(key string) string {
	return t[key]
}

func (t Tags) Lookup(key string) (string, bool) {
	v, ok := t[key]
	return v, ok
}

// Int returns the tag as a number, 0 when missing or malformed.
func (t Tags) Int(key string) int {
	n, err := strconv.Atoi(t[key])
	if err != nil {
		return 0
	}
	return n
}

// Text returns the tag with IRCv3 escaping undone.
func (t Tags) Text(key string) string {
	return UnescapeTagValue(t[key])
}

func (t Tags) Clone() Tags {
	if t == nil {
		return nil
	}
	out := make(Tags, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

var tagEscapes = strings.NewReplacer(
	`\s`, " ",
	`\:`, ";",
	`\\`, `\`,
	`\r`, "\r",
	`\n`, "\n",
)

// UnescapeTagValue undoes IRCv3 tag value escaping.
func UnescapeTagValue(v string) string {
	if !strings.Contains(v, `\`) {
		return v
	}
	return tagEscapes.Replace(v)
}

type IRCMessage struct {
	Raw      string
	Tags     Tags
	Prefix   string
	Command  string
	Params   []string
	Channel  string
	Trailing string
}

// Login returns the nick part of a nick!user@host prefix.
func (m *IRCMessage) Login() string {
	for i := 0; i < len(m.Prefix); i++ {
		if m.Prefix[i] == '!' {
			return m.Prefix[:i]
		}
	}
	return ""
}

type ConnectionState int

const (
	Disconnected ConnectionState = iota
	Connecting
	AwaitingAuth
	Ready
)

func (s ConnectionState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case AwaitingAuth:
		return "awaiting_auth"
	case Ready:
		return "ready"
	}
	return "unknown"
}

type ParseErrorEvent struct {
	Line string
	Err  error
}

type RawEvent struct {
	Line    string
	Message *IRCMessage
}

type MembershipEvent struct {
	Channel string
	Login   string
}

type ChatMessageEvent struct {
	Channel string
	Login   string
	Text    string
	Tags    Tags
}

type ChannelTagsEvent struct {
	Channel string
	Tags    Tags
}

type UserNoticeEvent struct {
	Channel string
	Login   string
	Text    string
	Tags    Tags
}

type NoticeEvent struct {
	Channel string
	Text    string
	Tags    Tags
}

type UserBanEvent struct {
	Channel string
	Login   string
	Tags    Tags
}

// HostEvent target is "-" when hosting stopped. HasViewers is false when Twitch sent no count.
type HostEvent struct {
	Channel    string
	Target     string
	Viewers    int
	HasViewers bool
}

// MembershipSource is what the room tracker observes.
type MembershipSource interface {
	OnJoin(fn func(channel string)) func()
	OnPart(fn func(channel string)) func()
	OnRoomState(fn func(ChannelTagsEvent)) func()
	OnStateChange(fn func(ConnectionState)) func()
}

// NotificationSource is what the notification classifier observes.
type NotificationSource interface {
	OnUserNotice(fn func(UserNoticeEvent)) func()
	OnMessage(fn func(ChatMessageEvent)) func()
}

type IRCPort interface {
	MembershipSource
	NotificationSource

	Connect(ctx context.Context) error
	Close() error
	Join(channel string, onJoined func())
	Part(channel string, onParted func())
	Say(channel, text string) error
	Send(raw string) error
	IsReady() bool
	State() ConnectionState
	Login() string

	OnReady(fn func()) func()
	OnError(fn func(error)) func()
	OnParseError(fn func(ParseErrorEvent)) func()
	OnRaw(fn func(RawEvent)) func()
	OnRawSend(fn func(string)) func()
	OnReconnect(fn func()) func()
	OnOtherJoin(fn func(MembershipEvent)) func()
	OnOtherPart(fn func(MembershipEvent)) func()
	OnNotice(fn func(NoticeEvent)) func()
	OnClearChat(fn func(channel string)) func()
	OnUserBan(fn func(UserBanEvent)) func()
	OnMessageDeleted(fn func(ChannelTagsEvent)) func()
	OnGlobalUserState(fn func(Tags)) func()
	OnUserState(fn func(ChannelTagsEvent)) func()
	OnHost(fn func(HostEvent)) func()
}
