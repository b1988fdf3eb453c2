package gen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func generate(t *testing.T, source string) string {
	t.Helper()
	dir := writeSample(t, source)
	loader := &Loader{}
	pkg, err := loader.Load(dir)
	assert.NoError(t, err)
	generator := &Generator{}
	files, err := generator.Generate(pkg)
	assert.NoError(t, err)
	assert.Len(t, files, 1)
	assert.Equal(t, "sample_mongo.go", files[0].Name)
	return string(files[0].Content)
}

func TestGenerator_Header(t *testing.T) {
	content := generate(t, userSource)
	assert.True(t, strings.HasPrefix(content, "// Code generated by mongogen. DO NOT EDIT.\n"))
	assert.Contains(t, content, "package sample")
	assert.Contains(t, content, `"github.com/WithSecureLabs/mongo-rs/core/bsonx"`)
	assert.Contains(t, content, `"time"`)
}

func TestGenerator_StructMarshal(t *testing.T) {
	content := generate(t, userSource)
	assert.Contains(t, content, "func (v User) MarshalBson() (any, error) {")
	assert.Contains(t, content, `doc = append(doc, bson.E{Key: "name", Value: value})`)
	assert.Contains(t, content, `doc = append(doc, bson.E{Key: "joined", Value: value})`)
	assert.NotContains(t, content, `"secret"`)
}

func TestGenerator_StructUnmarshal(t *testing.T) {
	content := generate(t, userSource)
	assert.Contains(t, content, "func (v *User) UnmarshalBson(value any) error {")
	assert.Contains(t, content, "var fName *string")
	assert.Contains(t, content, "var fAge **uint32")
	assert.Contains(t, content, "if bsonx.IsNull(elem.Value) {")
	assert.Contains(t, content, `bsonx.NewMissingFieldError("joined")`)
	assert.Contains(t, content, "x, err := bsonx.As[Status](elem.Value)")
}

func TestGenerator_Collection(t *testing.T) {
	content := generate(t, userSource)
	assert.Contains(t, content, "func (v User) Collection() string {")
	assert.Contains(t, content, `return "users"`)
	assert.Contains(t, content, "func (v User) IntoDocument() (bson.D, error) {")
	assert.Contains(t, content, "func (v *User) FromDocument(doc bson.D) error {")
}

func TestGenerator_NoCollectionWithoutName(t *testing.T) {
	content := generate(t, `package sample

// +mongo:bson
type Note struct {
	Body string
}
`)
	assert.NotContains(t, content, "Collection()")
	assert.NotContains(t, content, "IntoDocument")
}

func TestGenerator_FieldEnum(t *testing.T) {
	content := generate(t, userSource)
	assert.Contains(t, content, "type UserField string")
	assert.Contains(t, content, `UserFieldName   UserField = "Name"`)
	assert.Contains(t, content, "func (f UserField) FieldName() string {")
}

func TestGenerator_Filter(t *testing.T) {
	content := generate(t, userSource)
	assert.Contains(t, content, "type UserFilter struct {")
	assert.Contains(t, content, "ID     *query.Comparator[primitive.ObjectID]")
	assert.Contains(t, content, "Age    *query.Comparator[*uint32]")
	assert.Contains(t, content, `doc = append(doc, bson.E{Key: "_id", Value: value})`)
	assert.Contains(t, content, "func (v User) IntoFilter() UserFilter {")
	assert.Contains(t, content, "Name: query.Eq(v.Name),")
}

func TestGenerator_Update(t *testing.T) {
	content := generate(t, userSource)
	assert.Contains(t, content, "type UserUpdate struct {")
	assert.Contains(t, content, "Age    **uint32")
	assert.Contains(t, content, "value, err := bsonx.Marshal(*u.Age)")
	assert.Contains(t, content, "func (v User) IntoUpdate() UserUpdate {")
	assert.Contains(t, content, "Name: &v.Name,")
}

func TestGenerator_UnitEnum(t *testing.T) {
	content := generate(t, userSource)
	assert.Contains(t, content, "func (v Status) MarshalBson() (any, error) {")
	assert.Contains(t, content, `return "active", nil`)
	assert.Contains(t, content, "func (v *Status) UnmarshalBson(value any) error {")
	assert.Contains(t, content, `case "suspended":`)
	assert.Contains(t, content, "invalid variant `\"+s+\"`")
}

func TestGenerator_TaggedEnum(t *testing.T) {
	content := generate(t, userSource)
	assert.Contains(t, content, `doc := bson.D{{Key: "_type", Value: "point"}}`)
	assert.Contains(t, content, "func (v *Point) UnmarshalBson(value any) error {")
	assert.Contains(t, content, "func UnmarshalShapeBson(value any) (Shape, error) {")
	assert.Contains(t, content, `"enum type not found"`)
	assert.Contains(t, content, `case "point":`)
}

func TestGenerator_CodecMode(t *testing.T) {
	content := generate(t, `package sample

// +mongo:bson=codec
// +mongo:filter
type Raw struct {
	Body string
}
`)
	assert.Contains(t, content, "return bsonx.MarshalCodec(v)")
	assert.Contains(t, content, "return bsonx.UnmarshalCodec(value, v)")
	assert.Contains(t, content, "Body *query.Comparator[bsonx.Codec[string]]")
}

func TestGenerator_DirectionalOnly(t *testing.T) {
	content := generate(t, `package sample

// +mongo:bson=into
type Event struct {
	Name string
}
`)
	assert.Contains(t, content, "func (v Event) MarshalBson() (any, error) {")
	assert.NotContains(t, content, "UnmarshalBson")
}
