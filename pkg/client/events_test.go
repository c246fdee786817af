package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmitterDeliversInSubscriptionOrder(t *testing.T) {
	var e emitter
	var order []string
	e.On("x", func(any) { order = append(order, "a") })
	e.On("x", func(any) { order = append(order, "b") })
	e.On("x", func(any) { order = append(order, "c") })

	e.Emit("x", nil)
	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestEmitterOnceFiresOnce(t *testing.T) {
	var e emitter
	hits := 0
	e.Once("x", func(any) { hits++ })

	e.Emit("x", nil)
	e.Emit("x", nil)
	assert.Equal(t, 1, hits)
	assert.Zero(t, e.ListenerCount("x"))
}

func TestEmitterOffByIdentity(t *testing.T) {
	var e emitter
	var got []string
	a := func(any) { got = append(got, "a") }
	b := func(any) { got = append(got, "b") }
	e.On("x", a)
	e.On("x", b)

	e.Off("x", a)
	e.Emit("x", nil)
	assert.Equal(t, []string{"b"}, got)
	assert.Equal(t, 1, e.ListenerCount("x"))
}

func TestEmitterSnapshotExcludesLateSubscribers(t *testing.T) {
	var e emitter
	late := 0
	e.On("x", func(any) {
		// 投递期间的新订阅不参与本次投递
		e.On("x", func(any) { late++ })
	})

	e.Emit("x", nil)
	assert.Zero(t, late)

	e.Emit("x", nil)
	assert.Equal(t, 1, late)
}

func TestEmitterPayloadPassthrough(t *testing.T) {
	var e emitter
	var got any
	e.On("x", func(p any) { got = p })

	payload := &Request{}
	e.Emit("x", payload)
	assert.Same(t, payload, got)
}
