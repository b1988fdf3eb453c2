package mongodb

import (
	"context"
	"time"

	"github.com/asaidimu/go-events"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OperationEventType names the lifecycle stage of a client operation.
type OperationEventType string

const (
	OperationStart   OperationEventType = "operation.start"
	OperationSuccess OperationEventType = "operation.success"
	OperationFailed  OperationEventType = "operation.failed"
)

// OperationEvent describes one client operation against one collection.
type OperationEvent struct {
	Type       OperationEventType `json:"type"`
	Operation  string             `json:"operation"`
	Collection string             `json:"collection"`
	// Count carries the affected document count on success events.
	Count    int64         `json:"count,omitempty"`
	Error    *string       `json:"error,omitempty"`
	Time     time.Time     `json:"time"`
	Duration time.Duration `json:"duration"`
}

// OperationCallback receives operation events.
type OperationCallback func(event OperationEvent)

type subscription struct {
	unsubscribe func()
}

// Subscribe registers a callback for one event type. The returned id
// unregisters it via Unsubscribe.
func (c *Client) Subscribe(eventType OperationEventType, callback OperationCallback) string {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	unsubscribe := func() {}
	if c.bus != nil {
		unsubscribe = c.bus.Subscribe(string(eventType), func(ctx context.Context, event OperationEvent) error {
			callback(event)
			return nil
		})
	}
	id := uuid.New().String()
	c.subscriptions[id] = &subscription{unsubscribe: unsubscribe}
	return id
}

// Unsubscribe removes a subscription by its id.
func (c *Client) Unsubscribe(id string) {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	if sub, ok := c.subscriptions[id]; ok {
		sub.unsubscribe()
		delete(c.subscriptions, id)
	}
}

func (c *Client) emit(event OperationEvent) {
	if c.bus != nil {
		c.bus.Emit(string(event.Type), event)
	}
}

// withEvents wraps an operation with start, success, and failure events.
func withEvents(c *Client, operation, collection string, fn func() (int64, error)) error {
	start := time.Now()
	c.emit(OperationEvent{
		Type:       OperationStart,
		Operation:  operation,
		Collection: collection,
		Time:       start,
	})

	count, err := fn()
	if err != nil {
		errStr := err.Error()
		c.emit(OperationEvent{
			Type:       OperationFailed,
			Operation:  operation,
			Collection: collection,
			Error:      &errStr,
			Time:       time.Now(),
			Duration:   time.Since(start),
		})
		c.logger.Debug("operation failed",
			zap.String("operation", operation),
			zap.String("collection", collection),
			zap.Error(err))
		return err
	}

	c.emit(OperationEvent{
		Type:       OperationSuccess,
		Operation:  operation,
		Collection: collection,
		Count:      count,
		Time:       time.Now(),
		Duration:   time.Since(start),
	})
	c.logger.Debug("operation succeeded",
		zap.String("operation", operation),
		zap.String("collection", collection),
		zap.Int64("count", count),
		zap.Duration("duration", time.Since(start)))
	return nil
}

func newEventBus() (*events.TypedEventBus[OperationEvent], error) {
	return events.NewTypedEventBus[OperationEvent](events.DefaultConfig())
}
