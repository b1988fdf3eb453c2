package blocking

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/WithSecureLabs/mongo-rs/core"
	"github.com/WithSecureLabs/mongo-rs/mongodb"
)

// Cursor walks a result set synchronously, decoding each document into C
// alongside its object id. The driver buffers batches internally, so
// iteration does not round-trip through the background goroutine.
type Cursor[C any, PC core.Decoder[C]] struct {
	inner *mongodb.TypedCursor[C, PC]
}

func newCursor[C any, PC core.Decoder[C]](cursor *mongo.Cursor) *Cursor[C, PC] {
	return &Cursor[C, PC]{inner: mongodb.NewTypedCursor[C, PC](cursor)}
}

// Next advances to the next document.
func (cur *Cursor[C, PC]) Next() bool {
	return cur.inner.Next(context.Background())
}

// Decode converts the current document into C and its object id.
func (cur *Cursor[C, PC]) Decode() (primitive.ObjectID, *C, error) {
	return cur.inner.Decode()
}

// Err reports the first error the cursor hit.
func (cur *Cursor[C, PC]) Err() error {
	return cur.inner.Err()
}

// Close releases the server-side resources of the cursor.
func (cur *Cursor[C, PC]) Close() error {
	return cur.inner.Close(context.Background())
}
