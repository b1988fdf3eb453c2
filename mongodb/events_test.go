package mongodb

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	bus, err := newEventBus()
	assert.NoError(t, err)
	return &Client{
		logger:        zap.NewNop(),
		bus:           bus,
		subscriptions: map[string]*subscription{},
	}
}

func waitEvent(t *testing.T, ch <-chan OperationEvent) OperationEvent {
	t.Helper()
	select {
	case event := <-ch:
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
		return OperationEvent{}
	}
}

func TestClient_WithEvents_Success(t *testing.T) {
	c := newTestClient(t)
	started := make(chan OperationEvent, 1)
	succeeded := make(chan OperationEvent, 1)
	c.Subscribe(OperationStart, func(event OperationEvent) { started <- event })
	c.Subscribe(OperationSuccess, func(event OperationEvent) { succeeded <- event })

	err := withEvents(c, "insert", "todos", func() (int64, error) {
		return 3, nil
	})
	assert.NoError(t, err)

	start := waitEvent(t, started)
	assert.Equal(t, OperationStart, start.Type)
	assert.Equal(t, "insert", start.Operation)
	assert.Equal(t, "todos", start.Collection)

	success := waitEvent(t, succeeded)
	assert.Equal(t, OperationSuccess, success.Type)
	assert.Equal(t, int64(3), success.Count)
}

func TestClient_WithEvents_Failure(t *testing.T) {
	c := newTestClient(t)
	failed := make(chan OperationEvent, 1)
	c.Subscribe(OperationFailed, func(event OperationEvent) { failed <- event })

	boom := errors.New("write refused")
	err := withEvents(c, "delete", "todos", func() (int64, error) {
		return 0, boom
	})
	assert.Equal(t, boom, err)

	event := waitEvent(t, failed)
	assert.Equal(t, OperationFailed, event.Type)
	assert.Equal(t, "delete", event.Operation)
	if assert.NotNil(t, event.Error) {
		assert.Equal(t, "write refused", *event.Error)
	}
}

func TestClient_Unsubscribe(t *testing.T) {
	c := newTestClient(t)
	var stale atomic.Int64
	live := make(chan OperationEvent, 1)

	id := c.Subscribe(OperationSuccess, func(event OperationEvent) { stale.Add(1) })
	c.Subscribe(OperationSuccess, func(event OperationEvent) { live <- event })
	c.Unsubscribe(id)

	err := withEvents(c, "update", "todos", func() (int64, error) {
		return 1, nil
	})
	assert.NoError(t, err)

	waitEvent(t, live)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int64(0), stale.Load())
}

func TestClient_Unsubscribe_UnknownID(t *testing.T) {
	c := newTestClient(t)
	assert.NotPanics(t, func() { c.Unsubscribe("nope") })
}

func TestWithEvents_NilBus(t *testing.T) {
	c := &Client{logger: zap.NewNop()}
	err := withEvents(c, "find", "todos", func() (int64, error) {
		return 0, nil
	})
	assert.NoError(t, err)
}

func TestClient_Subscribe_NilBus(t *testing.T) {
	c := &Client{logger: zap.NewNop(), subscriptions: map[string]*subscription{}}
	var id string
	assert.NotPanics(t, func() {
		id = c.Subscribe(OperationSuccess, func(OperationEvent) {})
	})
	assert.NotEmpty(t, id)
	assert.NotPanics(t, func() { c.Unsubscribe(id) })
}
