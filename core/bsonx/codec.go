package bsonx

// Codec wraps a value so it converts through the driver's codec registry
// instead of the fixed conversion rules. Filter and update slots for fields
// tagged for codec conversion use it to carry values of arbitrary types.
type Codec[T any] struct {
	Value T
}

// Wrap is a convenience constructor for literal filter values.
func Wrap[T any](value T) Codec[T] {
	return Codec[T]{Value: value}
}

func (c Codec[T]) MarshalBson() (any, error) {
	return MarshalCodec(c.Value)
}

func (c *Codec[T]) UnmarshalBson(value any) error {
	return UnmarshalCodec(value, &c.Value)
}
