package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDirectives_None(t *testing.T) {
	d, err := ParseDirectives("User is a registered account.\n")
	assert.NoError(t, err)
	assert.Nil(t, d)
}

func TestParseDirectives_Full(t *testing.T) {
	doc := `User is a registered account.

+mongo:bson
+mongo:collection=users
+mongo:field
+mongo:filter
+mongo:update
+mongo:oid
`
	d, err := ParseDirectives(doc)
	assert.NoError(t, err)
	assert.NotNil(t, d)
	assert.True(t, d.Bson)
	assert.Equal(t, "users", d.Options.Collection)
	assert.True(t, d.Options.GenField)
	assert.True(t, d.Options.GenFilter)
	assert.True(t, d.Options.GenUpdate)
	assert.True(t, d.Options.ObjectID)
	assert.True(t, d.Options.From)
	assert.True(t, d.Options.Into)
	assert.Equal(t, ModeFieldwise, d.Options.Mode)
}

func TestParseDirectives_Directionality(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		from bool
		into bool
	}{
		{"both by default", "+mongo:bson", true, true},
		{"from only", "+mongo:bson=from", true, false},
		{"into only", "+mongo:bson=into", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := ParseDirectives(tt.doc)
			assert.NoError(t, err)
			assert.Equal(t, tt.from, d.Options.From)
			assert.Equal(t, tt.into, d.Options.Into)
		})
	}
}

func TestParseDirectives_CodecMode(t *testing.T) {
	d, err := ParseDirectives("+mongo:bson=codec")
	assert.NoError(t, err)
	assert.Equal(t, ModeCodec, d.Options.Mode)
}

func TestParseDirectives_Variant(t *testing.T) {
	d, err := ParseDirectives("+mongo:variant=Shape")
	assert.NoError(t, err)
	assert.Equal(t, "Shape", d.VariantOf)
}

func TestParseDirectives_UnknownKeyIsRejected(t *testing.T) {
	_, err := ParseDirectives("+mongo:collectoin=users")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown directive")
}

func TestParseDirectives_MissingValueIsRejected(t *testing.T) {
	_, err := ParseDirectives("+mongo:collection")
	assert.Error(t, err)

	_, err = ParseDirectives("+mongo:variant")
	assert.Error(t, err)
}

func TestParseFieldTag(t *testing.T) {
	tests := []struct {
		name     string
		tag      string
		expected FieldTag
	}{
		{"empty", "", FieldTag{}},
		{"unrelated", "`json:\"name\"`", FieldTag{}},
		{"skip", "`mongo:\"skip\"`", FieldTag{Skip: true}},
		{"dash", "`mongo:\"-\"`", FieldTag{Skip: true}},
		{"codec", "`mongo:\"codec\"`", FieldTag{Codec: true}},
		{"combined", "`mongo:\"codec,skip\"`", FieldTag{Skip: true, Codec: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ft, err := ParseFieldTag(tt.tag)
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, ft)
		})
	}
}

func TestParseFieldTag_UnknownOptionIsRejected(t *testing.T) {
	_, err := ParseFieldTag("`mongo:\"omitempty\"`")
	assert.Error(t, err)
}

func TestSnake(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Name", "name"},
		{"FirstName", "first_name"},
		{"UserID", "user_id"},
		{"HTTPServer", "http_server"},
		{"A", "a"},
		{"already_snake", "already_snake"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, Snake(tt.input))
		})
	}
}

func TestVariantTag(t *testing.T) {
	assert.Equal(t, "active", VariantTag("Status", "StatusActive"))
	assert.Equal(t, "not_found", VariantTag("Error", "ErrorNotFound"))
	assert.Equal(t, "status", VariantTag("Status", "Status"))
}
