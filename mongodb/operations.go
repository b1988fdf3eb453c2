package mongodb

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/WithSecureLabs/mongo-rs/core"
	"github.com/WithSecureLabs/mongo-rs/core/query"
)

// FilterDocument renders a filter, treating nil as match-everything.
func FilterDocument(filter core.Filter) (bson.D, error) {
	if filter == nil {
		return bson.D{}, nil
	}
	return filter.IntoDocument()
}

// Delete removes every document matching the filter and reports how many
// went away. A nil filter empties the collection.
func Delete[C core.Collection](ctx context.Context, c *Client, filter core.Filter) (int64, error) {
	var zero C
	var deleted int64
	err := withEvents(c, "delete", zero.Collection(), func() (int64, error) {
		doc, err := FilterDocument(filter)
		if err != nil {
			return 0, err
		}
		res, err := CollectionOf[C](c).DeleteMany(ctx, doc)
		if err != nil {
			return 0, core.MongodbError(err)
		}
		deleted = res.DeletedCount
		return deleted, nil
	})
	return deleted, err
}

// DeleteOne removes at most one matching document and reports whether one
// was found.
func DeleteOne[C core.Collection](ctx context.Context, c *Client, filter core.Filter) (bool, error) {
	var zero C
	var deleted bool
	err := withEvents(c, "delete_one", zero.Collection(), func() (int64, error) {
		doc, err := FilterDocument(filter)
		if err != nil {
			return 0, err
		}
		res, err := CollectionOf[C](c).DeleteOne(ctx, doc)
		if err != nil {
			return 0, core.MongodbError(err)
		}
		deleted = res.DeletedCount > 0
		return res.DeletedCount, nil
	})
	return deleted, err
}

// Find returns a cursor over every document matching the filter.
func Find[C core.Collection](ctx context.Context, c *Client, filter core.Filter) (*mongo.Cursor, error) {
	var zero C
	var cursor *mongo.Cursor
	err := withEvents(c, "find", zero.Collection(), func() (int64, error) {
		doc, err := FilterDocument(filter)
		if err != nil {
			return 0, err
		}
		cursor, err = CollectionOf[C](c).Find(ctx, doc)
		if err != nil {
			return 0, core.MongodbError(err)
		}
		return 0, nil
	})
	return cursor, err
}

// FindTyped returns a cursor that decodes each document into C.
func FindTyped[C core.Collection, PC core.Decoder[C]](ctx context.Context, c *Client, filter core.Filter) (*TypedCursor[C, PC], error) {
	cursor, err := Find[C](ctx, c, filter)
	if err != nil {
		return nil, err
	}
	return &TypedCursor[C, PC]{cursor: cursor}, nil
}

// FindOne returns the first matching document decoded into C, or nil when
// nothing matches.
func FindOne[C core.Collection, PC core.Decoder[C]](ctx context.Context, c *Client, filter core.Filter) (*C, error) {
	var zero C
	var out *C
	err := withEvents(c, "find_one", zero.Collection(), func() (int64, error) {
		filterDoc, err := FilterDocument(filter)
		if err != nil {
			return 0, err
		}
		var doc bson.D
		err = CollectionOf[C](c).FindOne(ctx, filterDoc).Decode(&doc)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, nil
		}
		if err != nil {
			return 0, core.MongodbError(err)
		}
		item := new(C)
		if err := PC(item).FromDocument(doc); err != nil {
			return 0, err
		}
		out = item
		return 1, nil
	})
	return out, err
}

// Insert stores the given values and returns the generated object ids
// keyed by input index.
func Insert[C core.Collection](ctx context.Context, c *Client, items []C) (map[int]primitive.ObjectID, error) {
	var zero C
	var ids map[int]primitive.ObjectID
	err := withEvents(c, "insert", zero.Collection(), func() (int64, error) {
		docs := make([]any, 0, len(items))
		for _, item := range items {
			doc, err := item.IntoDocument()
			if err != nil {
				return 0, err
			}
			docs = append(docs, doc)
		}
		res, err := CollectionOf[C](c).InsertMany(ctx, docs)
		if err != nil {
			return 0, core.MongodbError(err)
		}
		ids = make(map[int]primitive.ObjectID, len(res.InsertedIDs))
		for i, id := range res.InsertedIDs {
			if oid, ok := id.(primitive.ObjectID); ok {
				ids[i] = oid
			}
		}
		return int64(len(res.InsertedIDs)), nil
	})
	return ids, err
}

// InsertOne stores one value and returns its generated object id.
func InsertOne[C core.Collection](ctx context.Context, c *Client, item C) (primitive.ObjectID, error) {
	var zero C
	var id primitive.ObjectID
	err := withEvents(c, "insert_one", zero.Collection(), func() (int64, error) {
		doc, err := item.IntoDocument()
		if err != nil {
			return 0, err
		}
		res, err := CollectionOf[C](c).InsertOne(ctx, doc)
		if err != nil {
			return 0, core.MongodbError(err)
		}
		if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
			id = oid
		}
		return 1, nil
	})
	return id, err
}

// ReplaceOne swaps at most one matching document for the given value and
// reports whether a document changed.
func ReplaceOne[C core.Collection](ctx context.Context, c *Client, filter core.Filter, item C) (bool, error) {
	var zero C
	var replaced bool
	err := withEvents(c, "replace_one", zero.Collection(), func() (int64, error) {
		filterDoc, err := FilterDocument(filter)
		if err != nil {
			return 0, err
		}
		doc, err := item.IntoDocument()
		if err != nil {
			return 0, err
		}
		res, err := CollectionOf[C](c).ReplaceOne(ctx, filterDoc, doc)
		if err != nil {
			return 0, core.MongodbError(err)
		}
		replaced = res.ModifiedCount > 0
		return res.ModifiedCount, nil
	})
	return replaced, err
}

func updateMany[C core.Collection, U core.Update](ctx context.Context, c *Client, operation string, filter core.Filter, updates query.Updates[U], upsert bool) (int64, error) {
	var zero C
	var modified int64
	err := withEvents(c, operation, zero.Collection(), func() (int64, error) {
		filterDoc, err := FilterDocument(filter)
		if err != nil {
			return 0, err
		}
		updateDoc, err := updates.IntoDocument()
		if err != nil {
			return 0, err
		}
		opts := options.Update().SetUpsert(upsert)
		res, err := CollectionOf[C](c).UpdateMany(ctx, filterDoc, updateDoc, opts)
		if err != nil {
			return 0, core.MongodbError(err)
		}
		modified = res.ModifiedCount
		if res.UpsertedCount > 0 {
			modified += res.UpsertedCount
		}
		return modified, nil
	})
	return modified, err
}

func updateOne[C core.Collection, U core.Update](ctx context.Context, c *Client, operation string, filter core.Filter, updates query.Updates[U], upsert bool) (bool, error) {
	var zero C
	var updated bool
	err := withEvents(c, operation, zero.Collection(), func() (int64, error) {
		filterDoc, err := FilterDocument(filter)
		if err != nil {
			return 0, err
		}
		updateDoc, err := updates.IntoDocument()
		if err != nil {
			return 0, err
		}
		opts := options.Update().SetUpsert(upsert)
		res, err := CollectionOf[C](c).UpdateOne(ctx, filterDoc, updateDoc, opts)
		if err != nil {
			return 0, core.MongodbError(err)
		}
		count := res.ModifiedCount + res.UpsertedCount
		updated = count > 0
		return count, nil
	})
	return updated, err
}

// Update applies the updates to every matching document and returns the
// number of documents touched.
func Update[C core.Collection, U core.Update](ctx context.Context, c *Client, filter core.Filter, updates query.Updates[U]) (int64, error) {
	return updateMany[C](ctx, c, "update", filter, updates, false)
}

// UpdateOne applies the updates to at most one matching document.
func UpdateOne[C core.Collection, U core.Update](ctx context.Context, c *Client, filter core.Filter, updates query.Updates[U]) (bool, error) {
	return updateOne[C](ctx, c, "update_one", filter, updates, false)
}

// Upsert behaves like Update but inserts a new document when nothing
// matches.
func Upsert[C core.Collection, U core.Update](ctx context.Context, c *Client, filter core.Filter, updates query.Updates[U]) (int64, error) {
	return updateMany[C](ctx, c, "upsert", filter, updates, true)
}

// UpsertOne behaves like UpdateOne but inserts a new document when nothing
// matches.
func UpsertOne[C core.Collection, U core.Update](ctx context.Context, c *Client, filter core.Filter, updates query.Updates[U]) (bool, error) {
	return updateOne[C](ctx, c, "upsert_one", filter, updates, true)
}
