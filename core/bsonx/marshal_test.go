package bsonx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestMarshal_Scalars(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected any
	}{
		{"bool", true, true},
		{"string", "hello", "hello"},
		{"int8 widens", int8(-7), int32(-7)},
		{"int16 widens", int16(300), int32(300)},
		{"int32", int32(42), int32(42)},
		{"uint8 widens", uint8(255), int32(255)},
		{"uint16 widens", uint16(65535), int32(65535)},
		{"uint32 casts", uint32(4294967295), int32(-1)},
		{"int widens", int(5), int64(5)},
		{"int64", int64(-9), int64(-9)},
		{"uint64 casts", uint64(12), int64(12)},
		{"float32 widens", float32(1.5), float64(1.5)},
		{"float64", 2.25, 2.25},
		{"char", Char('x'), "x"},
		{"nil is null", nil, primitive.Null{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, err := Marshal(tt.input)
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, value)
		})
	}
}

func TestMarshal_Time(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	value, err := Marshal(now)
	assert.NoError(t, err)
	assert.Equal(t, primitive.NewDateTimeFromTime(now), value)
}

func TestMarshal_Bytes(t *testing.T) {
	value, err := Marshal([]byte{1, 2, 3})
	assert.NoError(t, err)
	assert.Equal(t, primitive.Binary{Data: []byte{1, 2, 3}}, value)
}

func TestMarshal_Pointers(t *testing.T) {
	n := uint32(7)
	value, err := Marshal(&n)
	assert.NoError(t, err)
	assert.Equal(t, int32(7), value)

	var absent *uint32
	value, err = Marshal(absent)
	assert.NoError(t, err)
	assert.Equal(t, primitive.Null{}, value)
}

func TestMarshal_Slice(t *testing.T) {
	value, err := Marshal([]int16{1, 2, 3})
	assert.NoError(t, err)
	assert.Equal(t, primitive.A{int32(1), int32(2), int32(3)}, value)
}

func TestMarshal_MapIsOrdered(t *testing.T) {
	value, err := Marshal(map[string]int64{"b": 2, "a": 1, "c": 3})
	assert.NoError(t, err)
	assert.Equal(t, bson.D{
		{Key: "a", Value: int64(1)},
		{Key: "b", Value: int64(2)},
		{Key: "c", Value: int64(3)},
	}, value)
}

func TestMarshal_SetBecomesArray(t *testing.T) {
	value, err := Marshal(map[string]struct{}{"beta": {}, "alpha": {}})
	assert.NoError(t, err)
	assert.Equal(t, primitive.A{"alpha", "beta"}, value)
}

func TestMarshal_MapWithNonStringKeys(t *testing.T) {
	_, err := Marshal(map[int]string{1: "a"})
	assert.Error(t, err)
	assert.IsType(t, &EncodeError{}, err)
}

type plainStruct struct {
	Field int
}

func TestMarshal_StructWithoutMarshaler(t *testing.T) {
	_, err := Marshal(plainStruct{Field: 1})
	assert.Error(t, err)
	assert.IsType(t, &EncodeError{}, err)
}

type taggedValue struct {
	Label string `bson:"label"`
	Count int32  `bson:"count"`
}

func TestMarshalCodec_UsesDriverTags(t *testing.T) {
	value, err := MarshalCodec(taggedValue{Label: "x", Count: 3})
	assert.NoError(t, err)
	doc, ok := value.(bson.D)
	assert.True(t, ok)
	assert.Equal(t, bson.D{
		{Key: "label", Value: "x"},
		{Key: "count", Value: int32(3)},
	}, doc)
}
