package query

import (
	"go.mongodb.org/mongo-driver/bson"

	"github.com/WithSecureLabs/mongo-rs/core"
)

// Order is a sort direction or a nested sort for an embedded document.
type Order interface {
	orderValue() any
}

type direction int32

func (d direction) orderValue() any { return int32(d) }

const (
	// Asc sorts ascending.
	Asc direction = 1
	// Desc sorts descending.
	Desc direction = -1
)

// Sort is an ordered list of field sort criteria.
type Sort struct {
	entries bson.D
}

// NewSort returns an empty sort specification.
func NewSort() *Sort {
	return &Sort{}
}

func (s *Sort) orderValue() any { return s.entries }

// Push appends a sort criterion. Criteria apply in insertion order.
func (s *Sort) Push(field core.Field, order Order) *Sort {
	s.entries = append(s.entries, bson.E{Key: field.FieldName(), Value: order.orderValue()})
	return s
}

// Nested sorts by fields of an embedded document.
func Nested(inner *Sort) Order {
	return inner
}

// Document renders the sort specification for the driver.
func (s *Sort) Document() bson.D {
	if s == nil {
		return bson.D{}
	}
	return s.entries
}
