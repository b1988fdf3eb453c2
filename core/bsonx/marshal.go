// Package bsonx converts Go values to and from the driver's wire
// representation under a fixed, lossless set of rules. Integer widths below
// 32 bits widen to int32, 64-bit and platform-sized integers widen to int64,
// and nil pointers become explicit nulls, so a value always decodes back to
// the type it was encoded from.
package bsonx

import (
	"reflect"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Marshaler is implemented by types that control their own wire form.
// Generated companions implement it for annotated structs and enums.
type Marshaler interface {
	MarshalBson() (any, error)
}

// Marshal converts v into a wire value: a bool, int32, int64, float64,
// string, bson.D, primitive.A, or one of the driver's primitive types.
func Marshal(v any) (any, error) {
	if v == nil {
		return primitive.Null{}, nil
	}
	switch x := v.(type) {
	case bool, string, float64, int32, int64,
		bson.D, primitive.A, primitive.ObjectID, primitive.DateTime,
		primitive.Timestamp, primitive.Binary, primitive.Decimal128,
		primitive.Regex, primitive.DBPointer, primitive.CodeWithScope,
		primitive.Null:
		return x, nil
	case int8:
		return int32(x), nil
	case int16:
		return int32(x), nil
	case uint8:
		return int32(x), nil
	case uint16:
		return int32(x), nil
	case uint32:
		// Round-trips through the signed wire form.
		return int32(x), nil
	case int:
		return int64(x), nil
	case uint:
		return int64(x), nil
	case uint64:
		return int64(x), nil
	case float32:
		return float64(x), nil
	case time.Time:
		return primitive.NewDateTimeFromTime(x), nil
	case []byte:
		return primitive.Binary{Data: x}, nil
	case bson.M:
		return marshalMap(reflect.ValueOf(x))
	}
	if m, ok := v.(Marshaler); ok {
		rv := reflect.ValueOf(v)
		if rv.Kind() == reflect.Pointer && rv.IsNil() {
			return primitive.Null{}, nil
		}
		return m.MarshalBson()
	}
	return marshalReflect(reflect.ValueOf(v))
}

func marshalReflect(rv reflect.Value) (any, error) {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return primitive.Null{}, nil
		}
		return Marshal(rv.Elem().Interface())
	case reflect.Bool:
		return rv.Bool(), nil
	case reflect.Int8, reflect.Int16, reflect.Int32:
		return int32(rv.Int()), nil
	case reflect.Int, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint8, reflect.Uint16, reflect.Uint32:
		return int32(rv.Uint()), nil
	case reflect.Uint, reflect.Uint64:
		return int64(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	case reflect.String:
		return rv.String(), nil
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return primitive.Binary{Data: rv.Bytes()}, nil
		}
		return marshalSequence(rv)
	case reflect.Array:
		return marshalSequence(rv)
	case reflect.Map:
		if rv.Type().Elem() == reflect.TypeOf(struct{}{}) {
			return marshalSet(rv)
		}
		return marshalMap(rv)
	default:
		return nil, &EncodeError{Message: "unsupported type", Type: rv.Type().String()}
	}
}

func marshalSequence(rv reflect.Value) (any, error) {
	out := make(primitive.A, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		item, err := Marshal(rv.Index(i).Interface())
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

// marshalMap produces a document ordered by key so that equal maps always
// encode to equal documents.
func marshalMap(rv reflect.Value) (any, error) {
	if rv.IsNil() {
		return primitive.Null{}, nil
	}
	if rv.Type().Key().Kind() != reflect.String {
		return nil, &EncodeError{Message: "map keys must be strings", Type: rv.Type().String()}
	}
	keys := rv.MapKeys()
	doc := make(bson.D, 0, len(keys))
	for _, k := range keys {
		value, err := Marshal(rv.MapIndex(k).Interface())
		if err != nil {
			return nil, err
		}
		doc = append(doc, bson.E{Key: k.String(), Value: value})
	}
	sort.Slice(doc, func(i, j int) bool { return doc[i].Key < doc[j].Key })
	return doc, nil
}

// marshalSet encodes a map[T]struct{} as an array of its keys.
func marshalSet(rv reflect.Value) (any, error) {
	if rv.IsNil() {
		return primitive.Null{}, nil
	}
	keys := rv.MapKeys()
	if rv.Type().Key().Kind() == reflect.String {
		sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	}
	out := make(primitive.A, 0, len(keys))
	for _, k := range keys {
		item, err := Marshal(k.Interface())
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

// MarshalCodec converts v through the driver's own codec registry,
// honoring `bson` struct tags instead of the fixed rules above.
func MarshalCodec(v any) (any, error) {
	t, raw, err := bson.MarshalValue(v)
	if err != nil {
		return nil, &EncodeError{Message: err.Error(), Type: reflect.TypeOf(v).String()}
	}
	rv := bson.RawValue{Type: t, Value: raw}
	var out any
	if err := rv.Unmarshal(&out); err != nil {
		return nil, &EncodeError{Message: err.Error(), Type: reflect.TypeOf(v).String()}
	}
	return out, nil
}
