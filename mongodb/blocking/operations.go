package blocking

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/WithSecureLabs/mongo-rs/core"
	"github.com/WithSecureLabs/mongo-rs/core/query"
	"github.com/WithSecureLabs/mongo-rs/mongodb"
)

// Delete removes every matching document and reports how many went away.
func Delete[C core.Collection](c *Client, filter core.Filter) (int64, error) {
	value, err := c.execute(func(ctx context.Context, db *mongo.Database) (any, error) {
		n, err := mongodb.NewDelete[C]().Filter(filter).Run(ctx, db)
		return n, err
	})
	if err != nil {
		return 0, err
	}
	return value.(int64), nil
}

// DeleteOne removes at most one matching document.
func DeleteOne[C core.Collection](c *Client, filter core.Filter) (bool, error) {
	value, err := c.execute(func(ctx context.Context, db *mongo.Database) (any, error) {
		n, err := mongodb.NewDelete[C]().Filter(filter).One().Run(ctx, db)
		return n, err
	})
	if err != nil {
		return false, err
	}
	return value.(int64) > 0, nil
}

// Find returns a cursor over every matching document.
func Find[C core.Collection, PC core.Decoder[C]](c *Client, filter core.Filter) (*Cursor[C, PC], error) {
	value, err := c.execute(func(ctx context.Context, db *mongo.Database) (any, error) {
		cursor, err := mongodb.NewFind[C]().Filter(filter).Run(ctx, db)
		return cursor, err
	})
	if err != nil {
		return nil, err
	}
	return newCursor[C, PC](value.(*mongo.Cursor)), nil
}

// FindOne returns the first matching document with its object id, or a nil
// value when nothing matches.
func FindOne[C core.Collection, PC core.Decoder[C]](c *Client, filter core.Filter) (primitive.ObjectID, *C, error) {
	// The captures are safe: execute blocks until the background goroutine
	// has finished running the closure.
	var id primitive.ObjectID
	var item *C
	_, err := c.execute(func(ctx context.Context, db *mongo.Database) (any, error) {
		var zero C
		filterDoc, err := mongodb.FilterDocument(filter)
		if err != nil {
			return nil, err
		}
		var doc bson.D
		err = db.Collection(zero.Collection()).FindOne(ctx, filterDoc).Decode(&doc)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		if err != nil {
			return nil, core.MongodbError(err)
		}
		for _, elem := range doc {
			if elem.Key == "_id" {
				if oid, ok := elem.Value.(primitive.ObjectID); ok {
					id = oid
				}
				break
			}
		}
		decoded := new(C)
		if err := PC(decoded).FromDocument(doc); err != nil {
			return nil, err
		}
		item = decoded
		return nil, nil
	})
	if err != nil {
		return primitive.NilObjectID, nil, err
	}
	return id, item, nil
}

// Insert stores the given values and returns the generated object ids
// keyed by input index.
func Insert[C core.Collection](c *Client, items []C) (map[int]primitive.ObjectID, error) {
	value, err := c.execute(func(ctx context.Context, db *mongo.Database) (any, error) {
		ids, err := mongodb.NewInsert[C]().Push(items...).Run(ctx, db)
		return ids, err
	})
	if err != nil {
		return nil, err
	}
	return value.(map[int]primitive.ObjectID), nil
}

// InsertOne stores one value and returns its generated object id.
func InsertOne[C core.Collection](c *Client, item C) (primitive.ObjectID, error) {
	ids, err := Insert(c, []C{item})
	if err != nil {
		return primitive.NilObjectID, err
	}
	return ids[0], nil
}

// ReplaceOne swaps at most one matching document for the given value.
func ReplaceOne[C core.Collection](c *Client, filter core.Filter, item C) (bool, error) {
	value, err := c.execute(func(ctx context.Context, db *mongo.Database) (any, error) {
		replaced, err := mongodb.NewReplace[C]().Filter(filter).With(item).Run(ctx, db)
		return replaced, err
	})
	if err != nil {
		return false, err
	}
	return value.(bool), nil
}

func update[C core.Collection, U core.Update](c *Client, filter core.Filter, updates query.Updates[U], one, upsert bool) (int64, error) {
	value, err := c.execute(func(ctx context.Context, db *mongo.Database) (any, error) {
		q := mongodb.NewUpdate[C, U]().Filter(filter).Updates(updates)
		if one {
			q.One()
		}
		if upsert {
			q.Upsert()
		}
		n, err := q.Run(ctx, db)
		return n, err
	})
	if err != nil {
		return 0, err
	}
	return value.(int64), nil
}

// Update applies the updates to every matching document.
func Update[C core.Collection, U core.Update](c *Client, filter core.Filter, updates query.Updates[U]) (int64, error) {
	return update[C](c, filter, updates, false, false)
}

// UpdateOne applies the updates to at most one matching document.
func UpdateOne[C core.Collection, U core.Update](c *Client, filter core.Filter, updates query.Updates[U]) (bool, error) {
	n, err := update[C](c, filter, updates, true, false)
	return n > 0, err
}

// Upsert behaves like Update but inserts when nothing matches.
func Upsert[C core.Collection, U core.Update](c *Client, filter core.Filter, updates query.Updates[U]) (int64, error) {
	return update[C](c, filter, updates, false, true)
}

// UpsertOne behaves like UpdateOne but inserts when nothing matches.
func UpsertOne[C core.Collection, U core.Update](c *Client, filter core.Filter, updates query.Updates[U]) (bool, error) {
	n, err := update[C](c, filter, updates, true, true)
	return n > 0, err
}
