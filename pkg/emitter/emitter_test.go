package emitter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmitter_OrderAndUnsubscribe(t *testing.T) {
	e := New[int]()

	var got []string
	offA := e.On(func(v int) { got = append(got, "a") })
	e.On(func(v int) { got = append(got, "b") })

	e.Emit(1)
	offA()
	offA()
	e.Emit(2)

	assert.Equal(t, []string{"a", "b", "b"}, got)
	assert.Equal(t, 1, e.Len())
}

func TestEmitter_UnsubscribeDuringEmit(t *testing.T) {
	e := New[int]()

	calls := 0
	var off func()
	off = e.On(func(v int) {
		calls++
		off()
	})

	e.Emit(1)
	e.Emit(2)

	assert.Equal(t, 1, calls)
	assert.Zero(t, e.Len())
}
