package irc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLineBuffer_Feed(t *testing.T) {
	var lb lineBuffer

	assert.Empty(t, lb.feed([]byte("PRIVMSG #x :he")))
	assert.Equal(t, []string{"PRIVMSG #x :hello"}, lb.feed([]byte("llo\r\n")))
	assert.Equal(t, "", lb.partial)
}

func TestLineBuffer_MultipleAndEmpty(t *testing.T) {
	var lb lineBuffer

	got := lb.feed([]byte("a\r\n\r\n  \r\nb\r\nc"))
	assert.Equal(t, []string{"a", "b"}, got)
	assert.Equal(t, "c", lb.partial)

	got = lb.feed([]byte("d\r\n"))
	assert.Equal(t, []string{"cd"}, got)
}

func TestLineBuffer_SplitCRLF(t *testing.T) {
	var lb lineBuffer

	assert.Empty(t, lb.feed([]byte("PING :tmi.twitch.tv\r")))
	assert.Equal(t, []string{"PING :tmi.twitch.tv"}, lb.feed([]byte("\n")))
}
