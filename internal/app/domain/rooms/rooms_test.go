package rooms

import (
	"testing"
	"twitchnotify/internal/app/ports"
	"twitchnotify/pkg/emitter"
	"twitchnotify/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	join  *emitter.Emitter[string]
	part  *emitter.Emitter[string]
	room  *emitter.Emitter[ports.ChannelTagsEvent]
	state *emitter.Emitter[ports.ConnectionState]
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		join:  emitter.New[string](),
		part:  emitter.New[string](),
		room:  emitter.New[ports.ChannelTagsEvent](),
		state: emitter.New[ports.ConnectionState](),
	}
}

func (f *fakeSource) OnJoin(fn func(string)) func() { return f.join.On(fn) }
func (f *fakeSource) OnPart(fn func(string)) func() { return f.part.On(fn) }
func (f *fakeSource) OnRoomState(fn func(ports.ChannelTagsEvent)) func() {
	return f.room.On(fn)
}
func (f *fakeSource) OnStateChange(fn func(ports.ConnectionState)) func() {
	return f.state.On(fn)
}

func TestTracker_JoinPartState(t *testing.T) {
	src := newFakeSource()
	tr := New(logger.NewDiscard(), src)

	assert.False(t, tr.IsInChannel("chan"))

	src.join.Emit("chan")
	assert.True(t, tr.IsInChannel("chan"))
	assert.True(t, tr.IsInChannel("#Chan"))
	assert.Nil(t, tr.GetChannelState("chan"))

	src.room.Emit(ports.ChannelTagsEvent{Channel: "chan", Tags: ports.Tags{"slow": "0", "emote-only": "0"}})
	assert.Equal(t, ports.Tags{"slow": "0", "emote-only": "0"}, tr.GetChannelState("chan"))

	src.room.Emit(ports.ChannelTagsEvent{Channel: "chan", Tags: ports.Tags{"slow": "10"}})
	assert.Equal(t, ports.Tags{"slow": "10", "emote-only": "0"}, tr.GetChannelState("chan"))

	src.part.Emit("chan")
	assert.False(t, tr.IsInChannel("chan"))
	assert.Nil(t, tr.GetChannelState("chan"))
}

func TestTracker_RoomStateForUnknownChannelIgnored(t *testing.T) {
	src := newFakeSource()
	tr := New(logger.NewDiscard(), src)

	src.room.Emit(ports.ChannelTagsEvent{Channel: "ghost", Tags: ports.Tags{"slow": "0"}})
	assert.False(t, tr.IsInChannel("ghost"))
	assert.Empty(t, tr.ListChannels())
}

func TestTracker_ListChannelsIsOrderedSnapshot(t *testing.T) {
	src := newFakeSource()
	tr := New(logger.NewDiscard(), src)

	src.join.Emit("b")
	src.join.Emit("a")
	src.join.Emit("c")
	src.join.Emit("a")
	src.room.Emit(ports.ChannelTagsEvent{Channel: "a", Tags: ports.Tags{"r9k": "1"}})
	src.part.Emit("c")

	list := tr.ListChannels()
	require.Len(t, list, 2)
	assert.Equal(t, ports.Room{Channel: "b"}, list[0])
	assert.Equal(t, ports.Room{Channel: "a", State: ports.Tags{"r9k": "1"}}, list[1])

	list[1].State["r9k"] = "0"
	assert.Equal(t, ports.Tags{"r9k": "1"}, tr.GetChannelState("a"))
}

func TestTracker_Events(t *testing.T) {
	src := newFakeSource()
	tr := New(logger.NewDiscard(), src)

	var joined, parted, changed []string
	var states []ports.Room
	tr.OnJoin(func(ch string) { joined = append(joined, ch) })
	tr.OnPart(func(ch string) { parted = append(parted, ch) })
	tr.OnChange(func(ch string) { changed = append(changed, ch) })
	tr.OnState(func(r ports.Room) { states = append(states, r) })

	src.join.Emit("chan")
	src.room.Emit(ports.ChannelTagsEvent{Channel: "chan", Tags: ports.Tags{"subs-only": "1"}})
	src.part.Emit("chan")
	src.part.Emit("chan")

	assert.Equal(t, []string{"chan"}, joined)
	assert.Equal(t, []string{"chan"}, parted)
	assert.Equal(t, []string{"chan", "chan", "chan"}, changed)
	assert.Equal(t, []ports.Room{{Channel: "chan", State: ports.Tags{"subs-only": "1"}}}, states)
}

func TestTracker_DisconnectClearsRooms(t *testing.T) {
	src := newFakeSource()
	tr := New(logger.NewDiscard(), src)

	var parted []string
	tr.OnPart(func(ch string) { parted = append(parted, ch) })

	src.join.Emit("one")
	src.join.Emit("two")
	src.state.Emit(ports.Connecting)
	assert.Equal(t, 2, tr.Len())

	src.state.Emit(ports.Disconnected)
	assert.Equal(t, 0, tr.Len())
	assert.Equal(t, []string{"one", "two"}, parted)
}

func TestTracker_Close(t *testing.T) {
	src := newFakeSource()
	tr := New(logger.NewDiscard(), src)

	tr.Close()
	assert.Equal(t, 0, src.join.Len())
	assert.Equal(t, 0, src.state.Len())

	src.join.Emit("chan")
	assert.False(t, tr.IsInChannel("chan"))
}
