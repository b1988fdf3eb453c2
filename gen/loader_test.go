package gen

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/WithSecureLabs/mongo-rs/core/schema"
)

const userSource = `// Package sample holds annotated types.
package sample

import "time"

// User is a registered account.
//
// +mongo:bson
// +mongo:collection=users
// +mongo:field
// +mongo:filter
// +mongo:update
// +mongo:oid
type User struct {
	Name    string
	Age     *uint32
	Joined  time.Time
	Status  Status
	Secret  string ` + "`mongo:\"skip\"`" + `
	private int
}

// Status is the lifecycle state of a User.
//
// +mongo:bson
type Status int

const (
	StatusActive Status = iota
	StatusSuspended
)

// Shape is a closed set of geometries.
//
// +mongo:bson
type Shape interface {
	MarshalBson() (any, error)
}

// Point is a bare location.
//
// +mongo:variant=Shape
type Point struct {
	X int64
	Y int64
}
`

func writeSample(t *testing.T, source string) string {
	t.Helper()
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, "sample.go"), []byte(source), 0o644)
	assert.NoError(t, err)
	return dir
}

func TestLoader_Load(t *testing.T) {
	dir := writeSample(t, userSource)

	loader := &Loader{}
	pkg, err := loader.Load(dir)
	assert.NoError(t, err)
	assert.Equal(t, "sample", pkg.Name)
	assert.Len(t, pkg.Files, 1)

	descriptors := pkg.Files[0].Descriptors
	assert.Len(t, descriptors, 3)

	status := descriptors[0]
	assert.Equal(t, "Status", status.Name)
	assert.Equal(t, schema.KindEnum, status.Kind)
	assert.False(t, status.Tagged)
	assert.Len(t, status.Variants, 2)
	assert.Equal(t, "active", status.Variants[0].Tag)
	assert.Equal(t, "suspended", status.Variants[1].Tag)

	shape := descriptors[1]
	assert.Equal(t, "Shape", shape.Name)
	assert.True(t, shape.Tagged)
	assert.Len(t, shape.Variants, 1)
	assert.Equal(t, "point", shape.Variants[0].Tag)
	assert.Len(t, shape.Variants[0].Fields, 2)

	user := descriptors[2]
	assert.Equal(t, "User", user.Name)
	assert.Equal(t, schema.KindStruct, user.Kind)
	assert.Equal(t, "users", user.Options.Collection)
	assert.True(t, user.Options.ObjectID)
	assert.True(t, user.Options.From)
	assert.True(t, user.Options.Into)
}

func TestLoader_Fields(t *testing.T) {
	dir := writeSample(t, userSource)

	loader := &Loader{}
	pkg, err := loader.Load(dir)
	assert.NoError(t, err)

	user := pkg.Files[0].Descriptors[2]
	assert.Len(t, user.Fields, 5)

	byName := map[string]schema.FieldDescriptor{}
	for _, f := range user.Fields {
		byName[f.Name] = f
	}

	assert.Equal(t, "string", byName["Name"].Type)
	assert.Equal(t, "name", byName["Name"].Key())

	age := byName["Age"]
	assert.True(t, age.Optional)
	assert.Equal(t, "uint32", age.Type)

	joined := byName["Joined"]
	assert.Equal(t, "time.Time", joined.Type)
	assert.Equal(t, []string{"time"}, joined.Imports)

	assert.True(t, byName["Secret"].Skip)
	assert.False(t, byName["Status"].Enum)
	assert.False(t, byName["Name"].Optional)
}

func TestLoader_UnknownDirective(t *testing.T) {
	dir := writeSample(t, `package sample

// +mongo:filtre
type User struct {
	Name string
}
`)

	loader := &Loader{}
	_, err := loader.Load(dir)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown directive")
}

func TestLoader_VariantOfUnknownEnum(t *testing.T) {
	dir := writeSample(t, `package sample

// +mongo:variant=Shape
type Point struct {
	X int64
}
`)

	loader := &Loader{}
	_, err := loader.Load(dir)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown enum")
}

func TestLoader_EnumWithoutConstants(t *testing.T) {
	dir := writeSample(t, `package sample

// +mongo:bson
type Status int
`)

	loader := &Loader{}
	_, err := loader.Load(dir)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "no constants")
}

func TestLoader_SkipsGeneratedAndTestFiles(t *testing.T) {
	dir := writeSample(t, userSource)
	err := os.WriteFile(filepath.Join(dir, "sample_mongo.go"), []byte("package sample\n\nfunc keep() {}\n"), 0o644)
	assert.NoError(t, err)
	err = os.WriteFile(filepath.Join(dir, "sample_test.go"), []byte("package sample\n"), 0o644)
	assert.NoError(t, err)

	loader := &Loader{}
	pkg, err := loader.Load(dir)
	assert.NoError(t, err)
	assert.Len(t, pkg.Files, 1)
	assert.Equal(t, filepath.Join(dir, "sample.go"), pkg.Files[0].Name)
}
