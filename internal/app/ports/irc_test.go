package ports

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTags(t *testing.T) {
	tags := Tags{"bits": "100", "flag": "", "bad": "x1", "system-msg": `A\sB\:\\`}

	v, ok := tags.Lookup("flag")
	assert.True(t, ok)
	assert.Equal(t, "", v)

	_, ok = tags.Lookup("missing")
	assert.False(t, ok)

	assert.Equal(t, 100, tags.Int("bits"))
	assert.Equal(t, 0, tags.Int("bad"))
	assert.Equal(t, 0, tags.Int("missing"))
	assert.Equal(t, `A B;\`, tags.Text("system-msg"))

	clone := tags.Clone()
	clone["bits"] = "1"
	assert.Equal(t, "100", tags.Get("bits"))

	var none Tags
	assert.Nil(t, none.Clone())
	assert.Equal(t, "", none.Get("x"))
}

func TestUnescapeTagValue(t *testing.T) {
	assert.Equal(t, "a b;c\\d", UnescapeTagValue(`a\sb\:c\\d`))
	assert.Equal(t, "line\r\nend", UnescapeTagValue(`line\r\nend`))
	assert.Equal(t, "plain", UnescapeTagValue("plain"))
}

func TestConnectionState_String(t *testing.T) {
	assert.Equal(t, "disconnected", Disconnected.String())
	assert.Equal(t, "awaiting_auth", AwaitingAuth.String())
	assert.Equal(t, "ready", Ready.String())
	assert.Equal(t, "unknown", ConnectionState(42).String())
}
