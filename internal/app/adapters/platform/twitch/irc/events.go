package irc

import (
	"twitchnotify/internal/app/ports"
	"twitchnotify/pkg/emitter"
)

type events struct {
	ready           *emitter.Emitter[struct{}]
	err             *emitter.Emitter[error]
	parseErr        *emitter.Emitter[ports.ParseErrorEvent]
	raw             *emitter.Emitter[ports.RawEvent]
	rawSend         *emitter.Emitter[string]
	state           *emitter.Emitter[ports.ConnectionState]
	reconnect       *emitter.Emitter[struct{}]
	join            *emitter.Emitter[string]
	part            *emitter.Emitter[string]
	otherJoin       *emitter.Emitter[ports.MembershipEvent]
	otherPart       *emitter.Emitter[ports.MembershipEvent]
	message         *emitter.Emitter[ports.ChatMessageEvent]
	roomState       *emitter.Emitter[ports.ChannelTagsEvent]
	userNotice      *emitter.Emitter[ports.UserNoticeEvent]
	notice          *emitter.Emitter[ports.NoticeEvent]
	clearChat       *emitter.Emitter[string]
	userBan         *emitter.Emitter[ports.UserBanEvent]
	messageDeleted  *emitter.Emitter[ports.ChannelTagsEvent]
	globalUserState *emitter.Emitter[ports.Tags]
	userState       *emitter.Emitter[ports.ChannelTagsEvent]
	host            *emitter.Emitter[ports.HostEvent]
}

func newEvents() events {
	return events{
		ready:           emitter.New[struct{}](),
		err:             emitter.New[error](),
		parseErr:        emitter.New[ports.ParseErrorEvent](),
		raw:             emitter.New[ports.RawEvent](),
		rawSend:         emitter.New[string](),
		state:           emitter.New[ports.ConnectionState](),
		reconnect:       emitter.New[struct{}](),
		join:            emitter.New[string](),
		part:            emitter.New[string](),
		otherJoin:       emitter.New[ports.MembershipEvent](),
		otherPart:       emitter.New[ports.MembershipEvent](),
		message:         emitter.New[ports.ChatMessageEvent](),
		roomState:       emitter.New[ports.ChannelTagsEvent](),
		userNotice:      emitter.New[ports.UserNoticeEvent](),
		notice:          emitter.New[ports.NoticeEvent](),
		clearChat:       emitter.New[string](),
		userBan:         emitter.New[ports.UserBanEvent](),
		messageDeleted:  emitter.New[ports.ChannelTagsEvent](),
		globalUserState: emitter.New[ports.Tags](),
		userState:       emitter.New[ports.ChannelTagsEvent](),
		host:            emitter.New[ports.HostEvent](),
	}
}

func (c *Client) OnReady(fn func()) func() {
	return c.ev.ready.On(func(struct{}) { fn() })
}

func (c *Client) OnError(fn func(error)) func() { return c.ev.err.On(fn) }

func (c *Client) OnParseError(fn func(ports.ParseErrorEvent)) func() { return c.ev.parseErr.On(fn) }

func (c *Client) OnRaw(fn func(ports.RawEvent)) func() { return c.ev.raw.On(fn) }

func (c *Client) OnRawSend(fn func(string)) func() { return c.ev.rawSend.On(fn) }

func (c *Client) OnStateChange(fn func(ports.ConnectionState)) func() { return c.ev.state.On(fn) }

// OnReconnect fires when Twitch asks the client to reconnect.
func (c *Client) OnReconnect(fn func()) func() {
	return c.ev.reconnect.On(func(struct{}) { fn() })
}

// OnJoin fires when the client itself joined channel.
func (c *Client) OnJoin(fn func(channel string)) func() { return c.ev.join.On(fn) }

// OnPart fires when the client itself left channel.
func (c *Client) OnPart(fn func(channel string)) func() { return c.ev.part.On(fn) }

func (c *Client) OnOtherJoin(fn func(ports.MembershipEvent)) func() { return c.ev.otherJoin.On(fn) }

func (c *Client) OnOtherPart(fn func(ports.MembershipEvent)) func() { return c.ev.otherPart.On(fn) }

func (c *Client) OnMessage(fn func(ports.ChatMessageEvent)) func() { return c.ev.message.On(fn) }

func (c *Client) OnRoomState(fn func(ports.ChannelTagsEvent)) func() { return c.ev.roomState.On(fn) }

func (c *Client) OnUserNotice(fn func(ports.UserNoticeEvent)) func() { return c.ev.userNotice.On(fn) }

func (c *Client) OnNotice(fn func(ports.NoticeEvent)) func() { return c.ev.notice.On(fn) }

func (c *Client) OnClearChat(fn func(channel string)) func() { return c.ev.clearChat.On(fn) }

func (c *Client) OnUserBan(fn func(ports.UserBanEvent)) func() { return c.ev.userBan.On(fn) }

func (c *Client) OnMessageDeleted(fn func(ports.ChannelTagsEvent)) func() {
	return c.ev.messageDeleted.On(fn)
}

func (c *Client) OnGlobalUserState(fn func(ports.Tags)) func() { return c.ev.globalUserState.On(fn) }

func (c *Client) OnUserState(fn func(ports.ChannelTagsEvent)) func() { return c.ev.userState.On(fn) }

func (c *Client) OnHost(fn func(ports.HostEvent)) func() { return c.ev.host.On(fn) }
