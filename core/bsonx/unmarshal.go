package bsonx

import (
	"math"
	"reflect"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Unmarshaler is implemented by types that control their own decoding.
// Generated companions implement it for annotated structs and enums.
type Unmarshaler interface {
	UnmarshalBson(value any) error
}

// IsNull reports whether a wire value represents an explicit null.
func IsNull(value any) bool {
	if value == nil {
		return true
	}
	_, ok := value.(primitive.Null)
	return ok
}

// Unmarshal decodes a wire value into dst, which must be a non-nil pointer.
// Decoding is strict: a value decodes only into the type family it was
// encoded from, and narrowing conversions are range checked.
func Unmarshal(value any, dst any) error {
	if u, ok := dst.(Unmarshaler); ok {
		return u.UnmarshalBson(value)
	}
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return NewDecodeError("destination must be a non-nil pointer", value)
	}
	return unmarshalValue(value, rv.Elem())
}

// As decodes a wire value into a fresh T.
func As[T any](value any) (T, error) {
	var out T
	if err := Unmarshal(value, &out); err != nil {
		return out, err
	}
	return out, nil
}

func unmarshalValue(value any, dst reflect.Value) error {
	if dst.CanAddr() {
		if u, ok := dst.Addr().Interface().(Unmarshaler); ok {
			return u.UnmarshalBson(value)
		}
	}
	if dst.Kind() == reflect.Interface && dst.NumMethod() == 0 {
		if value == nil {
			dst.Set(reflect.Zero(dst.Type()))
			return nil
		}
		dst.Set(reflect.ValueOf(value))
		return nil
	}
	if dst.Kind() == reflect.Pointer {
		if IsNull(value) {
			dst.Set(reflect.Zero(dst.Type()))
			return nil
		}
		elem := reflect.New(dst.Type().Elem())
		if err := unmarshalValue(value, elem.Elem()); err != nil {
			return err
		}
		dst.Set(elem)
		return nil
	}
	if value != nil && reflect.TypeOf(value) == dst.Type() {
		dst.Set(reflect.ValueOf(value))
		return nil
	}
	if dst.Type() == reflect.TypeOf(time.Time{}) {
		dt, ok := value.(primitive.DateTime)
		if !ok {
			return invalidVariant("datetime", value)
		}
		dst.Set(reflect.ValueOf(dt.Time()))
		return nil
	}

	switch dst.Kind() {
	case reflect.Bool:
		b, ok := value.(bool)
		if !ok {
			return invalidVariant("bool", value)
		}
		dst.SetBool(b)
		return nil
	case reflect.String:
		s, ok := value.(string)
		if !ok {
			return invalidVariant("string", value)
		}
		dst.SetString(s)
		return nil
	case reflect.Int8, reflect.Int16, reflect.Int32:
		n, ok := value.(int32)
		if !ok {
			return invalidVariant("int32", value)
		}
		if dst.OverflowInt(int64(n)) {
			return coerceError(n, dst.Type().String())
		}
		dst.SetInt(int64(n))
		return nil
	case reflect.Int64:
		n, ok := value.(int64)
		if !ok {
			return invalidVariant("int64", value)
		}
		dst.SetInt(n)
		return nil
	case reflect.Int:
		n, ok := value.(int64)
		if !ok {
			return invalidVariant("int64", value)
		}
		if dst.OverflowInt(n) {
			return coerceError(n, "int")
		}
		dst.SetInt(n)
		return nil
	case reflect.Uint8, reflect.Uint16:
		n, ok := value.(int32)
		if !ok {
			return invalidVariant("int32", value)
		}
		if n < 0 || dst.OverflowUint(uint64(n)) {
			return coerceError(n, dst.Type().String())
		}
		dst.SetUint(uint64(n))
		return nil
	case reflect.Uint32:
		n, ok := value.(int32)
		if !ok {
			return invalidVariant("int32", value)
		}
		// Inverse of the signed wire cast applied on encode.
		dst.SetUint(uint64(uint32(n)))
		return nil
	case reflect.Uint, reflect.Uint64:
		n, ok := value.(int64)
		if !ok {
			return invalidVariant("int64", value)
		}
		dst.SetUint(uint64(n))
		return nil
	case reflect.Float64:
		f, ok := value.(float64)
		if !ok {
			return invalidVariant("float64", value)
		}
		dst.SetFloat(f)
		return nil
	case reflect.Float32:
		f, ok := value.(float64)
		if !ok {
			return invalidVariant("float64", value)
		}
		if !math.IsInf(f, 0) && math.Abs(f) > math.MaxFloat32 {
			return coerceError(f, "float32")
		}
		dst.SetFloat(f)
		return nil
	case reflect.Slice:
		if dst.Type().Elem().Kind() == reflect.Uint8 {
			bin, ok := value.(primitive.Binary)
			if !ok {
				return invalidVariant("binary", value)
			}
			dst.SetBytes(bin.Data)
			return nil
		}
		return unmarshalSequence(value, dst)
	case reflect.Array:
		return unmarshalSequence(value, dst)
	case reflect.Map:
		if dst.Type().Elem() == reflect.TypeOf(struct{}{}) {
			return unmarshalSet(value, dst)
		}
		return unmarshalMap(value, dst)
	default:
		return NewDecodeError("type "+dst.Type().String()+" does not implement Unmarshaler", value)
	}
}

func unmarshalSequence(value any, dst reflect.Value) error {
	arr, ok := value.(primitive.A)
	if !ok {
		return invalidVariant("array", value)
	}
	if dst.Kind() == reflect.Array {
		if len(arr) != dst.Len() {
			return coerceError(value, "array of length "+strconv.Itoa(dst.Len()))
		}
		for i, item := range arr {
			if err := unmarshalValue(item, dst.Index(i)); err != nil {
				return err
			}
		}
		return nil
	}
	out := reflect.MakeSlice(dst.Type(), len(arr), len(arr))
	for i, item := range arr {
		if err := unmarshalValue(item, out.Index(i)); err != nil {
			return err
		}
	}
	dst.Set(out)
	return nil
}

func unmarshalMap(value any, dst reflect.Value) error {
	var doc bson.D
	switch v := value.(type) {
	case bson.D:
		doc = v
	case bson.M:
		doc = make(bson.D, 0, len(v))
		for key, val := range v {
			doc = append(doc, bson.E{Key: key, Value: val})
		}
	default:
		return invalidVariant("document", value)
	}
	if dst.Type().Key().Kind() != reflect.String {
		return NewDecodeError("map keys must be strings", value)
	}
	out := reflect.MakeMapWithSize(dst.Type(), len(doc))
	for _, elem := range doc {
		key := reflect.New(dst.Type().Key()).Elem()
		key.SetString(elem.Key)
		val := reflect.New(dst.Type().Elem()).Elem()
		if err := unmarshalValue(elem.Value, val); err != nil {
			return err
		}
		out.SetMapIndex(key, val)
	}
	dst.Set(out)
	return nil
}

func unmarshalSet(value any, dst reflect.Value) error {
	arr, ok := value.(primitive.A)
	if !ok {
		return invalidVariant("array", value)
	}
	out := reflect.MakeMapWithSize(dst.Type(), len(arr))
	for _, item := range arr {
		key := reflect.New(dst.Type().Key()).Elem()
		if err := unmarshalValue(item, key); err != nil {
			return err
		}
		out.SetMapIndex(key, reflect.ValueOf(struct{}{}))
	}
	dst.Set(out)
	return nil
}

// UnmarshalCodec decodes a wire value into dst through the driver's own
// codec registry, honoring `bson` struct tags.
func UnmarshalCodec(value any, dst any) error {
	t, raw, err := bson.MarshalValue(value)
	if err != nil {
		return NewDecodeError(err.Error(), value)
	}
	rv := bson.RawValue{Type: t, Value: raw}
	if err := rv.Unmarshal(dst); err != nil {
		return NewDecodeError(err.Error(), value)
	}
	return nil
}

func wireTypeName(value any) string {
	switch value.(type) {
	case nil, primitive.Null:
		return "null"
	case bson.D, bson.M:
		return "document"
	case primitive.A:
		return "array"
	case primitive.Binary:
		return "binary"
	case primitive.DateTime:
		return "datetime"
	case primitive.ObjectID:
		return "objectid"
	default:
		return reflect.TypeOf(value).String()
	}
}
