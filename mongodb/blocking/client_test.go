package blocking

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/WithSecureLabs/mongo-rs/core"
	"github.com/WithSecureLabs/mongo-rs/mongodb"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	c := Wrap(&mongodb.Client{})
	t.Cleanup(c.Close)
	return c
}

func TestClient_Execute(t *testing.T) {
	c := newTestClient(t)

	value, err := c.execute(func(ctx context.Context, db *mongo.Database) (any, error) {
		return 42, nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 42, value)
}

func TestClient_Execute_PassesError(t *testing.T) {
	c := newTestClient(t)

	boom := errors.New("server on fire")
	_, err := c.execute(func(ctx context.Context, db *mongo.Database) (any, error) {
		return nil, boom
	})
	assert.Equal(t, boom, err)
}

func TestClient_Execute_Serializes(t *testing.T) {
	c := newTestClient(t)

	// Unsynchronized writes are safe because a single goroutine runs the
	// closures.
	var results []int
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := c.execute(func(ctx context.Context, db *mongo.Database) (any, error) {
				results = append(results, n)
				return nil, nil
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()
	assert.Len(t, results, 50)
}

func TestClient_Close_ReleasesCallers(t *testing.T) {
	c := Wrap(&mongodb.Client{})
	c.Close()

	_, err := c.execute(func(ctx context.Context, db *mongo.Database) (any, error) {
		return nil, nil
	})
	assert.Error(t, err)
	var cerr *core.Error
	assert.True(t, errors.As(err, &cerr))
	assert.Equal(t, core.KindRuntime, cerr.Kind)
}

func TestClient_Close_Idempotent(t *testing.T) {
	c := Wrap(&mongodb.Client{})
	assert.NotPanics(t, func() {
		c.Close()
		c.Close()
	})
}

func TestClient_Inner(t *testing.T) {
	inner := &mongodb.Client{}
	c := Wrap(inner)
	defer c.Close()
	assert.Same(t, inner, c.Inner())
}

func TestClientBuilder_Chains(t *testing.T) {
	b := NewClientBuilder()
	assert.Same(t, b, b.URI("mongodb://localhost:27017"))
	assert.Same(t, b, b.Database("app"))
	assert.Same(t, b, b.Auth("alice", "wonderland"))
	assert.Same(t, b, b.CA("/etc/ssl/ca.pem"))
	assert.Same(t, b, b.CertKey("/etc/ssl/client.pem"))
	assert.Same(t, b, b.Logger(nil))
}
