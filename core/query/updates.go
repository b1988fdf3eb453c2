package query

import (
	"go.mongodb.org/mongo-driver/bson"

	"github.com/WithSecureLabs/mongo-rs/core"
)

// Updates wraps a generated update type in the $set/$unset envelope the
// server expects. A nil member contributes nothing to the document.
type Updates[U core.Update] struct {
	Set   *U
	Unset *U
}

// SetOnly is shorthand for an Updates that only sets fields.
func SetOnly[U core.Update](set U) Updates[U] {
	return Updates[U]{Set: &set}
}

// IntoDocument renders the envelope. Both members absent yields an empty
// document, which the server treats as a no-op update.
func (u Updates[U]) IntoDocument() (bson.D, error) {
	doc := bson.D{}
	if u.Set != nil {
		inner, err := (*u.Set).IntoDocument()
		if err != nil {
			return nil, err
		}
		doc = append(doc, bson.E{Key: "$set", Value: inner})
	}
	if u.Unset != nil {
		inner, err := (*u.Unset).IntoDocument()
		if err != nil {
			return nil, err
		}
		doc = append(doc, bson.E{Key: "$unset", Value: inner})
	}
	return doc, nil
}
