// Package query provides the building blocks generated filters and updates
// are assembled from: typed comparators, set/unset envelopes, and sort
// specifications.
package query

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/WithSecureLabs/mongo-rs/core/bsonx"
)

type operator string

const (
	opEq  operator = "$eq"
	opNe  operator = "$ne"
	opGt  operator = "$gt"
	opGte operator = "$gte"
	opLt  operator = "$lt"
	opLte operator = "$lte"
	opIn  operator = "$in"
	opNin operator = "$nin"
)

// Comparator is a single typed comparison against a document field. Filter
// structs hold one optional Comparator per field.
type Comparator[T any] struct {
	op     operator
	value  T
	values []T
}

// Eq matches fields equal to value.
func Eq[T any](value T) *Comparator[T] {
	return &Comparator[T]{op: opEq, value: value}
}

// Ne matches fields not equal to value.
func Ne[T any](value T) *Comparator[T] {
	return &Comparator[T]{op: opNe, value: value}
}

// Gt matches fields greater than value.
func Gt[T any](value T) *Comparator[T] {
	return &Comparator[T]{op: opGt, value: value}
}

// Gte matches fields greater than or equal to value.
func Gte[T any](value T) *Comparator[T] {
	return &Comparator[T]{op: opGte, value: value}
}

// Lt matches fields less than value.
func Lt[T any](value T) *Comparator[T] {
	return &Comparator[T]{op: opLt, value: value}
}

// Lte matches fields less than or equal to value.
func Lte[T any](value T) *Comparator[T] {
	return &Comparator[T]{op: opLte, value: value}
}

// In matches fields equal to any of the given values.
func In[T any](values ...T) *Comparator[T] {
	return &Comparator[T]{op: opIn, values: values}
}

// Nin matches fields equal to none of the given values.
func Nin[T any](values ...T) *Comparator[T] {
	return &Comparator[T]{op: opNin, values: values}
}

// MarshalBson renders the comparison as an operator document.
func (c *Comparator[T]) MarshalBson() (any, error) {
	switch c.op {
	case opIn, opNin:
		items := make(primitive.A, 0, len(c.values))
		for _, v := range c.values {
			item, err := bsonx.Marshal(v)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		return bson.D{{Key: string(c.op), Value: items}}, nil
	default:
		value, err := bsonx.Marshal(c.value)
		if err != nil {
			return nil, err
		}
		return bson.D{{Key: string(c.op), Value: value}}, nil
	}
}
