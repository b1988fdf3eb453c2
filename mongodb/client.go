package mongodb

import (
	"context"
	"sync"

	"github.com/asaidimu/go-events"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/WithSecureLabs/mongo-rs/core"
)

// Client is a handle to one database, ready to run operations for any type
// carrying a Collection companion. It is safe for concurrent use.
type Client struct {
	client   *mongo.Client
	database *mongo.Database
	logger   *zap.Logger

	bus           *events.TypedEventBus[OperationEvent]
	subMu         sync.Mutex
	subscriptions map[string]*subscription
}

func newClient(client *mongo.Client, database string, logger *zap.Logger) *Client {
	bus, err := newEventBus()
	if err != nil {
		// A nil bus disables events; emit and Subscribe tolerate it.
		logger.Warn("event bus unavailable, operation events disabled", zap.Error(err))
		bus = nil
	}
	return &Client{
		client:        client,
		database:      client.Database(database),
		logger:        logger,
		bus:           bus,
		subscriptions: map[string]*subscription{},
	}
}

// FromClient wraps an already connected driver client.
func FromClient(client *mongo.Client, database string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return newClient(client, database, logger)
}

// Database exposes the underlying driver database for operations this
// layer does not cover.
func (c *Client) Database() *mongo.Database {
	return c.database
}

// Collection exposes a named driver collection on the bound database.
func (c *Client) Collection(name string) *mongo.Collection {
	return c.database.Collection(name)
}

// Disconnect closes the underlying driver client.
func (c *Client) Disconnect(ctx context.Context) error {
	if err := c.client.Disconnect(ctx); err != nil {
		return core.MongodbError(err)
	}
	return nil
}

// CollectionOf resolves the driver collection a type's documents live in.
func CollectionOf[C core.Collection](c *Client) *mongo.Collection {
	var zero C
	return c.database.Collection(zero.Collection())
}
