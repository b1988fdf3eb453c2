package mongodb

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/WithSecureLabs/mongo-rs/core"
	"github.com/WithSecureLabs/mongo-rs/core/query"
)

var errNoReplacement = errors.New("replace requires a replacement value")

// FindQuery fetches documents with sort, skip, limit, and projection
// controls. Methods chain; Run or Query executes.
type FindQuery[C core.Collection] struct {
	filter    core.Filter
	sort      *query.Sort
	limit     *int64
	skip      *int64
	batchSize *int32
	maxTime   *time.Duration
	comment   *string
	fields    []core.Field
}

// NewFind starts a find over C's collection.
func NewFind[C core.Collection]() *FindQuery[C] {
	return &FindQuery[C]{}
}

// Filter narrows the result set.
func (q *FindQuery[C]) Filter(filter core.Filter) *FindQuery[C] {
	q.filter = filter
	return q
}

// Sort orders the result set.
func (q *FindQuery[C]) Sort(sort *query.Sort) *FindQuery[C] {
	q.sort = sort
	return q
}

// Limit caps the number of returned documents.
func (q *FindQuery[C]) Limit(n int64) *FindQuery[C] {
	q.limit = &n
	return q
}

// Skip drops the first n matching documents.
func (q *FindQuery[C]) Skip(n int64) *FindQuery[C] {
	q.skip = &n
	return q
}

// BatchSize sets how many documents each server round trip returns.
func (q *FindQuery[C]) BatchSize(n int32) *FindQuery[C] {
	q.batchSize = &n
	return q
}

// MaxTime bounds how long the server may spend on the query.
func (q *FindQuery[C]) MaxTime(d time.Duration) *FindQuery[C] {
	q.maxTime = &d
	return q
}

// Comment attaches a marker visible in the server logs and profiler.
func (q *FindQuery[C]) Comment(comment string) *FindQuery[C] {
	q.comment = &comment
	return q
}

// Project restricts returned documents to the named fields.
func (q *FindQuery[C]) Project(fields ...core.Field) *FindQuery[C] {
	q.fields = append(q.fields, fields...)
	return q
}

func (q *FindQuery[C]) driverOptions() *options.FindOptions {
	opts := options.Find()
	if q.sort != nil {
		opts.SetSort(q.sort.Document())
	}
	if q.limit != nil {
		opts.SetLimit(*q.limit)
	}
	if q.skip != nil {
		opts.SetSkip(*q.skip)
	}
	if q.batchSize != nil {
		opts.SetBatchSize(*q.batchSize)
	}
	if q.maxTime != nil {
		opts.SetMaxTime(*q.maxTime)
	}
	if q.comment != nil {
		opts.SetComment(*q.comment)
	}
	if len(q.fields) > 0 {
		projection := bson.D{}
		for _, field := range q.fields {
			projection = append(projection, bson.E{Key: field.FieldName(), Value: int32(1)})
		}
		opts.SetProjection(projection)
	}
	return opts
}

// Run executes against a bare driver database.
func (q *FindQuery[C]) Run(ctx context.Context, db *mongo.Database) (*mongo.Cursor, error) {
	var zero C
	doc, err := FilterDocument(q.filter)
	if err != nil {
		return nil, err
	}
	cursor, err := db.Collection(zero.Collection()).Find(ctx, doc, q.driverOptions())
	if err != nil {
		return nil, core.MongodbError(err)
	}
	return cursor, nil
}

// Query executes against a client, reporting through its event bus.
func (q *FindQuery[C]) Query(ctx context.Context, c *Client) (*mongo.Cursor, error) {
	var zero C
	var cursor *mongo.Cursor
	err := withEvents(c, "find", zero.Collection(), func() (int64, error) {
		var err error
		cursor, err = q.Run(ctx, c.database)
		return 0, err
	})
	return cursor, err
}

// DeleteQuery removes matching documents.
type DeleteQuery[C core.Collection] struct {
	filter core.Filter
	one    bool
}

// NewDelete starts a delete over C's collection.
func NewDelete[C core.Collection]() *DeleteQuery[C] {
	return &DeleteQuery[C]{}
}

// Filter selects the documents to remove. Unset removes everything.
func (q *DeleteQuery[C]) Filter(filter core.Filter) *DeleteQuery[C] {
	q.filter = filter
	return q
}

// One restricts the delete to a single document.
func (q *DeleteQuery[C]) One() *DeleteQuery[C] {
	q.one = true
	return q
}

// Run executes against a bare driver database and returns how many
// documents went away.
func (q *DeleteQuery[C]) Run(ctx context.Context, db *mongo.Database) (int64, error) {
	var zero C
	doc, err := FilterDocument(q.filter)
	if err != nil {
		return 0, err
	}
	collection := db.Collection(zero.Collection())
	var res *mongo.DeleteResult
	if q.one {
		res, err = collection.DeleteOne(ctx, doc)
	} else {
		res, err = collection.DeleteMany(ctx, doc)
	}
	if err != nil {
		return 0, core.MongodbError(err)
	}
	return res.DeletedCount, nil
}

// Query executes against a client, reporting through its event bus.
func (q *DeleteQuery[C]) Query(ctx context.Context, c *Client) (int64, error) {
	var zero C
	var deleted int64
	err := withEvents(c, "delete", zero.Collection(), func() (int64, error) {
		var err error
		deleted, err = q.Run(ctx, c.database)
		return deleted, err
	})
	return deleted, err
}

// InsertQuery stores a batch of values.
type InsertQuery[C core.Collection] struct {
	items   []C
	ordered *bool
}

// NewInsert starts an insert into C's collection.
func NewInsert[C core.Collection]() *InsertQuery[C] {
	return &InsertQuery[C]{}
}

// Push appends values to the batch.
func (q *InsertQuery[C]) Push(items ...C) *InsertQuery[C] {
	q.items = append(q.items, items...)
	return q
}

// Ordered controls whether the server stops at the first write failure.
func (q *InsertQuery[C]) Ordered(ordered bool) *InsertQuery[C] {
	q.ordered = &ordered
	return q
}

// Run executes against a bare driver database and returns the generated
// object ids keyed by batch index.
func (q *InsertQuery[C]) Run(ctx context.Context, db *mongo.Database) (map[int]primitive.ObjectID, error) {
	var zero C
	docs := make([]any, 0, len(q.items))
	for _, item := range q.items {
		doc, err := item.IntoDocument()
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	opts := options.InsertMany()
	if q.ordered != nil {
		opts.SetOrdered(*q.ordered)
	}
	res, err := db.Collection(zero.Collection()).InsertMany(ctx, docs, opts)
	if err != nil {
		return nil, core.MongodbError(err)
	}
	ids := make(map[int]primitive.ObjectID, len(res.InsertedIDs))
	for i, id := range res.InsertedIDs {
		if oid, ok := id.(primitive.ObjectID); ok {
			ids[i] = oid
		}
	}
	return ids, nil
}

// Query executes against a client, reporting through its event bus.
func (q *InsertQuery[C]) Query(ctx context.Context, c *Client) (map[int]primitive.ObjectID, error) {
	var zero C
	var ids map[int]primitive.ObjectID
	err := withEvents(c, "insert", zero.Collection(), func() (int64, error) {
		var err error
		ids, err = q.Run(ctx, c.database)
		return int64(len(ids)), err
	})
	return ids, err
}

// ReplaceQuery swaps one matching document for a new value.
type ReplaceQuery[C core.Collection] struct {
	filter core.Filter
	item   *C
	upsert bool
	bypass bool
}

// NewReplace starts a replace over C's collection.
func NewReplace[C core.Collection]() *ReplaceQuery[C] {
	return &ReplaceQuery[C]{}
}

// Filter selects the document to replace.
func (q *ReplaceQuery[C]) Filter(filter core.Filter) *ReplaceQuery[C] {
	q.filter = filter
	return q
}

// With sets the replacement value.
func (q *ReplaceQuery[C]) With(item C) *ReplaceQuery[C] {
	q.item = &item
	return q
}

// Upsert inserts the value when nothing matches.
func (q *ReplaceQuery[C]) Upsert() *ReplaceQuery[C] {
	q.upsert = true
	return q
}

// BypassValidation skips server-side document validation for this write.
func (q *ReplaceQuery[C]) BypassValidation() *ReplaceQuery[C] {
	q.bypass = true
	return q
}

// Run executes against a bare driver database and reports whether a
// document changed.
func (q *ReplaceQuery[C]) Run(ctx context.Context, db *mongo.Database) (bool, error) {
	var zero C
	if q.item == nil {
		return false, core.BuilderError(errNoReplacement)
	}
	filterDoc, err := FilterDocument(q.filter)
	if err != nil {
		return false, err
	}
	doc, err := (*q.item).IntoDocument()
	if err != nil {
		return false, err
	}
	opts := options.Replace().SetUpsert(q.upsert)
	if q.bypass {
		opts.SetBypassDocumentValidation(true)
	}
	res, err := db.Collection(zero.Collection()).ReplaceOne(ctx, filterDoc, doc, opts)
	if err != nil {
		return false, core.MongodbError(err)
	}
	return res.ModifiedCount+res.UpsertedCount > 0, nil
}

// Query executes against a client, reporting through its event bus.
func (q *ReplaceQuery[C]) Query(ctx context.Context, c *Client) (bool, error) {
	var zero C
	var replaced bool
	err := withEvents(c, "replace_one", zero.Collection(), func() (int64, error) {
		var err error
		replaced, err = q.Run(ctx, c.database)
		if replaced {
			return 1, err
		}
		return 0, err
	})
	return replaced, err
}

// UpdateQuery applies a mutation to matching documents.
type UpdateQuery[C core.Collection, U core.Update] struct {
	filter  core.Filter
	updates query.Updates[U]
	one     bool
	upsert  bool
	bypass  bool
}

// NewUpdate starts an update over C's collection.
func NewUpdate[C core.Collection, U core.Update]() *UpdateQuery[C, U] {
	return &UpdateQuery[C, U]{}
}

// Filter selects the documents to update. Unset updates everything.
func (q *UpdateQuery[C, U]) Filter(filter core.Filter) *UpdateQuery[C, U] {
	q.filter = filter
	return q
}

// Set provides the fields to write.
func (q *UpdateQuery[C, U]) Set(update U) *UpdateQuery[C, U] {
	q.updates.Set = &update
	return q
}

// Unset provides the fields to clear.
func (q *UpdateQuery[C, U]) Unset(update U) *UpdateQuery[C, U] {
	q.updates.Unset = &update
	return q
}

// Updates replaces the whole set/unset envelope at once.
func (q *UpdateQuery[C, U]) Updates(updates query.Updates[U]) *UpdateQuery[C, U] {
	q.updates = updates
	return q
}

// One restricts the update to a single document.
func (q *UpdateQuery[C, U]) One() *UpdateQuery[C, U] {
	q.one = true
	return q
}

// Upsert inserts a document when nothing matches.
func (q *UpdateQuery[C, U]) Upsert() *UpdateQuery[C, U] {
	q.upsert = true
	return q
}

// BypassValidation skips server-side document validation for this write.
func (q *UpdateQuery[C, U]) BypassValidation() *UpdateQuery[C, U] {
	q.bypass = true
	return q
}

// Run executes against a bare driver database and returns how many
// documents were touched.
func (q *UpdateQuery[C, U]) Run(ctx context.Context, db *mongo.Database) (int64, error) {
	var zero C
	filterDoc, err := FilterDocument(q.filter)
	if err != nil {
		return 0, err
	}
	updateDoc, err := q.updates.IntoDocument()
	if err != nil {
		return 0, err
	}
	collection := db.Collection(zero.Collection())
	opts := options.Update().SetUpsert(q.upsert)
	if q.bypass {
		opts.SetBypassDocumentValidation(true)
	}
	var res *mongo.UpdateResult
	if q.one {
		res, err = collection.UpdateOne(ctx, filterDoc, updateDoc, opts)
	} else {
		res, err = collection.UpdateMany(ctx, filterDoc, updateDoc, opts)
	}
	if err != nil {
		return 0, core.MongodbError(err)
	}
	return res.ModifiedCount + res.UpsertedCount, nil
}

// Query executes against a client, reporting through its event bus.
func (q *UpdateQuery[C, U]) Query(ctx context.Context, c *Client) (int64, error) {
	var zero C
	var updated int64
	err := withEvents(c, "update", zero.Collection(), func() (int64, error) {
		var err error
		updated, err = q.Run(ctx, c.database)
		return updated, err
	})
	return updated, err
}
