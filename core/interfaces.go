// Package core defines the contracts shared by generated companions and the
// client layer. Generated code satisfies these interfaces; the client layer
// consumes them without knowing the concrete types involved.
package core

import "go.mongodb.org/mongo-driver/bson"

// Collection is a type persisted as documents of a named collection.
// Implementations are usually generated.
type Collection interface {
	// Collection returns the collection name documents of this type live in.
	Collection() string
	// IntoDocument converts the value into an ordered document.
	IntoDocument() (bson.D, error)
}

// Decoder constrains a pointer type that can populate itself from an ordered
// document. Generic read operations use it to decode results in place.
type Decoder[C any] interface {
	*C
	FromDocument(doc bson.D) error
}

// Filter narrows the documents an operation applies to.
type Filter interface {
	IntoDocument() (bson.D, error)
}

// Update describes modifications applied to matched documents.
type Update interface {
	IntoDocument() (bson.D, error)
}

// Field names a single field of a collection type.
type Field interface {
	FieldName() string
}
