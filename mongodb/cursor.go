package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/WithSecureLabs/mongo-rs/core"
)

// TypedCursor walks a result set, decoding each document into C alongside
// its object id.
type TypedCursor[C any, PC core.Decoder[C]] struct {
	cursor *mongo.Cursor
}

// NewTypedCursor wraps a raw driver cursor.
func NewTypedCursor[C any, PC core.Decoder[C]](cursor *mongo.Cursor) *TypedCursor[C, PC] {
	return &TypedCursor[C, PC]{cursor: cursor}
}

// Next advances to the next document.
func (tc *TypedCursor[C, PC]) Next(ctx context.Context) bool {
	return tc.cursor.Next(ctx)
}

// Decode converts the current document into C and its object id. Documents
// without a generated id yield the zero id.
func (tc *TypedCursor[C, PC]) Decode() (primitive.ObjectID, *C, error) {
	var doc bson.D
	if err := tc.cursor.Decode(&doc); err != nil {
		return primitive.NilObjectID, nil, core.MongodbError(err)
	}
	var id primitive.ObjectID
	for _, elem := range doc {
		if elem.Key == "_id" {
			if oid, ok := elem.Value.(primitive.ObjectID); ok {
				id = oid
			}
			break
		}
	}
	item := new(C)
	if err := PC(item).FromDocument(doc); err != nil {
		return id, nil, err
	}
	return id, item, nil
}

// Err reports the first error the underlying cursor hit.
func (tc *TypedCursor[C, PC]) Err() error {
	if err := tc.cursor.Err(); err != nil {
		return core.MongodbError(err)
	}
	return nil
}

// Close releases the server-side resources of the cursor.
func (tc *TypedCursor[C, PC]) Close(ctx context.Context) error {
	if err := tc.cursor.Close(ctx); err != nil {
		return core.MongodbError(err)
	}
	return nil
}
