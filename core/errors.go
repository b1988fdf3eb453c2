package core

import "fmt"

// Kind partitions errors by the layer that produced them.
type Kind int

const (
	// KindBson covers failures converting values to or from wire documents.
	KindBson Kind = iota
	// KindBuilder covers invalid client or query construction.
	KindBuilder
	// KindMongodb covers errors surfaced by the underlying driver.
	KindMongodb
	// KindInvalidDocument covers documents that do not match their declared shape.
	KindInvalidDocument
	// KindRuntime covers failures in the blocking bridge.
	KindRuntime
)

func (k Kind) String() string {
	switch k {
	case KindBson:
		return "bson"
	case KindBuilder:
		return "builder"
	case KindMongodb:
		return "mongodb"
	case KindInvalidDocument:
		return "invalid document"
	case KindRuntime:
		return "runtime"
	default:
		return "unknown"
	}
}

// Error wraps an underlying failure with the layer it originated from.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// BsonError marks err as a conversion failure.
func BsonError(err error) *Error {
	return &Error{Kind: KindBson, Err: err}
}

// BuilderError marks err as a construction failure.
func BuilderError(err error) *Error {
	return &Error{Kind: KindBuilder, Err: err}
}

// MongodbError marks err as a driver failure.
func MongodbError(err error) *Error {
	return &Error{Kind: KindMongodb, Err: err}
}

// InvalidDocument marks err as a document shape mismatch.
func InvalidDocument(err error) *Error {
	return &Error{Kind: KindInvalidDocument, Err: err}
}

// RuntimeError marks err as a blocking bridge failure.
func RuntimeError(err error) *Error {
	return &Error{Kind: KindRuntime, Err: err}
}
