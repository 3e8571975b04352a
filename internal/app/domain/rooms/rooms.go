package rooms

import (
	"log/slog"
	"strings"
	"sync"
	"twitchnotify/internal/app/ports"
	"twitchnotify/pkg/emitter"
	"twitchnotify/pkg/logger"
)

// Tracker mirrors the channels the client is in, fed only by client events.
type Tracker struct {
	log logger.Logger

	mu    sync.RWMutex
	order []string
	rooms map[string]ports.Tags

	joined  *emitter.Emitter[string]
	parted  *emitter.Emitter[string]
	state   *emitter.Emitter[ports.Room]
	changed *emitter.Emitter[string]

	unsubscribe []func()
}

var _ ports.RoomsPort = (*Tracker)(nil)

func New(log logger.Logger, src ports.MembershipSource) *Tracker {
	t := &Tracker{
		log:     log,
		rooms:   make(map[string]ports.Tags),
		joined:  emitter.New[string](),
		parted:  emitter.New[string](),
		state:   emitter.New[ports.Room](),
		changed: emitter.New[string](),
	}

	t.unsubscribe = []func(){
		src.OnJoin(t.handleJoin),
		src.OnPart(t.handlePart),
		src.OnRoomState(t.handleRoomState),
		src.OnStateChange(func(s ports.ConnectionState) {
			if s == ports.Disconnected {
				t.reset()
			}
		}),
	}

	return t
}

// Close detaches the tracker from its source.
func (t *Tracker) Close() {
	for _, off := range t.unsubscribe {
		off()
	}
}

func (t *Tracker) IsInChannel(channel string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	_, ok := t.rooms[normalize(channel)]
	return ok
}

// GetChannelState returns a copy of the last ROOMSTATE tags, nil before the first one.
func (t *Tracker) GetChannelState(channel string) ports.Tags {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.rooms[normalize(channel)].Clone()
}

// ListChannels returns the joined channels in join order.
func (t *Tracker) ListChannels() []ports.Room {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]ports.Room, 0, len(t.order))
	for _, ch := range t.order {
		out = append(out, ports.Room{Channel: ch, State: t.rooms[ch].Clone()})
	}
	return out
}

func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.order)
}

func (t *Tracker) OnJoin(fn func(channel string)) func() { return t.joined.On(fn) }

func (t *Tracker) OnPart(fn func(channel string)) func() { return t.parted.On(fn) }

func (t *Tracker) OnState(fn func(ports.Room)) func() { return t.state.On(fn) }

// OnChange fires after every join, part and room state update.
func (t *Tracker) OnChange(fn func(channel string)) func() { return t.changed.On(fn) }

func (t *Tracker) handleJoin(channel string) {
	ch := normalize(channel)

	t.mu.Lock()
	if _, ok := t.rooms[ch]; !ok {
		t.rooms[ch] = nil
		t.order = append(t.order, ch)
	}
	t.mu.Unlock()

	t.log.Info("Joined channel", slog.String("channel", ch))
	t.joined.Emit(ch)
	t.changed.Emit(ch)
}

func (t *Tracker) handlePart(channel string) {
	ch := normalize(channel)
	if !t.remove(ch) {
		return
	}

	t.log.Info("Left channel", slog.String("channel", ch))
	t.parted.Emit(ch)
	t.changed.Emit(ch)
}

func (t *Tracker) handleRoomState(ev ports.ChannelTagsEvent) {
	ch := normalize(ev.Channel)

	t.mu.Lock()
	prev, ok := t.rooms[ch]
	if !ok {
		t.mu.Unlock()
		t.log.Debug("Room state for a channel we are not in", slog.String("channel", ch))
		return
	}

	// ROOMSTATE after a mode change only carries the changed tag.
	merged := prev.Clone()
	if merged == nil {
		merged = make(ports.Tags, len(ev.Tags))
	}
	for k, v := range ev.Tags {
		merged[k] = v
	}
	t.rooms[ch] = merged
	t.mu.Unlock()

	t.state.Emit(ports.Room{Channel: ch, State: merged.Clone()})
	t.changed.Emit(ch)
}

func (t *Tracker) remove(ch string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.rooms[ch]; !ok {
		return false
	}
	delete(t.rooms, ch)
	for i, name := range t.order {
		if name == ch {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return true
}

// reset forgets every room after the connection dropped; Twitch does not
// send PART for channels lost that way.
func (t *Tracker) reset() {
	t.mu.Lock()
	lost := t.order
	t.order = nil
	t.rooms = make(map[string]ports.Tags)
	t.mu.Unlock()

	if len(lost) > 0 {
		t.log.Warn("Connection lost, rooms cleared", slog.Int("count", len(lost)))
	}
	for _, ch := range lost {
		t.parted.Emit(ch)
		t.changed.Emit(ch)
	}
}

func normalize(channel string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(channel), "#"))
}
