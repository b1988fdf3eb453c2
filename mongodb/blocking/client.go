// Package blocking adapts the client to a synchronous call convention. A
// single background goroutine owns the driver handle; callers hand it
// closures over a channel and block on the reply. Closing the client
// releases every caller with a runtime error.
package blocking

import (
	"context"
	"errors"
	"sync"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/WithSecureLabs/mongo-rs/core"
	"github.com/WithSecureLabs/mongo-rs/mongodb"
)

var errClosed = errors.New("blocking client is closed")

type request struct {
	run  func(ctx context.Context, db *mongo.Database) (any, error)
	resp chan response
}

type response struct {
	value any
	err   error
}

// Client serializes operations through one background goroutine.
type Client struct {
	inner    *mongodb.Client
	requests chan request
	closed   chan struct{}
	once     sync.Once
}

// Wrap puts a blocking facade in front of an existing client and starts
// its background goroutine.
func Wrap(inner *mongodb.Client) *Client {
	c := &Client{
		inner:    inner,
		requests: make(chan request),
		closed:   make(chan struct{}),
	}
	go c.loop()
	return c
}

func (c *Client) loop() {
	ctx := context.Background()
	for {
		select {
		case <-c.closed:
			return
		case req := <-c.requests:
			value, err := req.run(ctx, c.inner.Database())
			req.resp <- response{value: value, err: err}
		}
	}
}

// execute ships one closure to the background goroutine and waits for its
// result. Requests observe Close at both the send and the receive.
func (c *Client) execute(run func(ctx context.Context, db *mongo.Database) (any, error)) (any, error) {
	req := request{run: run, resp: make(chan response, 1)}
	select {
	case c.requests <- req:
	case <-c.closed:
		return nil, core.RuntimeError(errClosed)
	}
	select {
	case resp := <-req.resp:
		return resp.value, resp.err
	case <-c.closed:
		return nil, core.RuntimeError(errClosed)
	}
}

// Inner exposes the wrapped client, for event subscriptions.
func (c *Client) Inner() *mongodb.Client {
	return c.inner
}

// Close stops the background goroutine. In-flight callers receive a
// runtime error; the underlying connection stays open for Disconnect.
func (c *Client) Close() {
	c.once.Do(func() { close(c.closed) })
}

// Disconnect closes the facade and the underlying driver client.
func (c *Client) Disconnect() error {
	c.Close()
	return c.inner.Disconnect(context.Background())
}
