package bsonx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestAs_Scalars(t *testing.T) {
	n, err := As[int8](int32(100))
	assert.NoError(t, err)
	assert.Equal(t, int8(100), n)

	s, err := As[string]("hello")
	assert.NoError(t, err)
	assert.Equal(t, "hello", s)

	b, err := As[bool](true)
	assert.NoError(t, err)
	assert.True(t, b)
}

func TestAs_NarrowingIsRangeChecked(t *testing.T) {
	_, err := As[int8](int32(200))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "could not coerce")

	_, err = As[uint16](int32(-1))
	assert.Error(t, err)

	_, err = As[uint8](int32(256))
	assert.Error(t, err)

	_, err = As[float32](float64(1e300))
	assert.Error(t, err)
}

func TestAs_WrongWireTypeIsRejected(t *testing.T) {
	_, err := As[int32](int64(1))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid variant, expected int32")

	_, err = As[string](int32(1))
	assert.Error(t, err)

	_, err = As[float64](int32(1))
	assert.Error(t, err)
}

func TestAs_Uint32RoundTrip(t *testing.T) {
	wire, err := Marshal(uint32(4294967295))
	assert.NoError(t, err)
	back, err := As[uint32](wire)
	assert.NoError(t, err)
	assert.Equal(t, uint32(4294967295), back)
}

func TestAs_Char(t *testing.T) {
	c, err := As[Char]("é")
	assert.NoError(t, err)
	assert.Equal(t, Char('é'), c)

	_, err = As[Char]("ab")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "could not coerce")

	_, err = As[Char]("")
	assert.Error(t, err)
}

func TestAs_Pointer(t *testing.T) {
	p, err := As[*uint32](primitive.Null{})
	assert.NoError(t, err)
	assert.Nil(t, p)

	p, err = As[*uint32](int32(9))
	assert.NoError(t, err)
	assert.NotNil(t, p)
	assert.Equal(t, uint32(9), *p)
}

func TestAs_Time(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	got, err := As[time.Time](primitive.NewDateTimeFromTime(now))
	assert.NoError(t, err)
	assert.True(t, now.Equal(got))
}

func TestAs_Collections(t *testing.T) {
	xs, err := As[[]int16](primitive.A{int32(1), int32(2)})
	assert.NoError(t, err)
	assert.Equal(t, []int16{1, 2}, xs)

	m, err := As[map[string]int64](bson.D{{Key: "a", Value: int64(1)}})
	assert.NoError(t, err)
	assert.Equal(t, map[string]int64{"a": 1}, m)

	fromM, err := As[map[string]int64](bson.M{"a": int64(1), "b": int64(2)})
	assert.NoError(t, err)
	assert.Equal(t, map[string]int64{"a": 1, "b": 2}, fromM)

	set, err := As[map[string]struct{}](primitive.A{"x", "y"})
	assert.NoError(t, err)
	assert.Equal(t, map[string]struct{}{"x": {}, "y": {}}, set)

	raw, err := As[[]byte](primitive.Binary{Data: []byte{9}})
	assert.NoError(t, err)
	assert.Equal(t, []byte{9}, raw)
}

func TestAs_Any(t *testing.T) {
	v, err := As[any](int32(5))
	assert.NoError(t, err)
	assert.Equal(t, int32(5), v)
}

func TestUnmarshal_RequiresPointer(t *testing.T) {
	var n int32
	err := Unmarshal(int32(1), n)
	assert.Error(t, err)
}

func TestUnmarshalCodec_UsesDriverTags(t *testing.T) {
	doc := bson.D{{Key: "label", Value: "x"}, {Key: "count", Value: int32(3)}}
	var got taggedValue
	err := UnmarshalCodec(doc, &got)
	assert.NoError(t, err)
	assert.Equal(t, taggedValue{Label: "x", Count: 3}, got)
}

func TestCodec_RoundTrip(t *testing.T) {
	wire, err := Marshal(Wrap(taggedValue{Label: "y", Count: 1}))
	assert.NoError(t, err)

	var back Codec[taggedValue]
	err = Unmarshal(wire, &back)
	assert.NoError(t, err)
	assert.Equal(t, taggedValue{Label: "y", Count: 1}, back.Value)
}

func TestIsNull(t *testing.T) {
	assert.True(t, IsNull(nil))
	assert.True(t, IsNull(primitive.Null{}))
	assert.False(t, IsNull(int32(0)))
}
