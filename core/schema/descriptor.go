// Package schema models the annotated types the generator consumes. A
// Descriptor captures everything emission needs: the container kind, its
// options, and its fields or variants.
package schema

// Kind distinguishes the two container shapes the generator understands.
type Kind int

const (
	// KindStruct is a plain struct encoded field by field.
	KindStruct Kind = iota
	// KindEnum is a closed set of variants: a defined type with a const
	// block, or an interface with tagged variant structs.
	KindEnum
)

// Mode selects how a container converts to and from documents.
type Mode int

const (
	// ModeFieldwise converts each field under the fixed conversion rules.
	ModeFieldwise Mode = iota
	// ModeCodec delegates the whole container to the driver's codec
	// registry, honoring `bson` struct tags.
	ModeCodec
)

// ContainerOptions holds the per-type switches collected from directives.
type ContainerOptions struct {
	Mode       Mode
	Collection string
	GenField   bool
	GenFilter  bool
	GenUpdate  bool
	ObjectID   bool
	From       bool
	Into       bool
}

// FieldDescriptor describes one struct field of an annotated container.
type FieldDescriptor struct {
	Name     string
	Type     string
	Optional bool
	Codec    bool
	Skip     bool
	Enum     bool
	// Imports lists the packages the field's type expression refers to, so
	// generated code naming the type can import them.
	Imports []string
}

// Key returns the document key the field encodes under.
func (f FieldDescriptor) Key() string {
	return Snake(f.Name)
}

// VariantDescriptor describes one variant of a tagged enum.
type VariantDescriptor struct {
	Name   string
	Tag    string
	Fields []FieldDescriptor
}

// Unit reports whether the variant carries no data.
func (v VariantDescriptor) Unit() bool {
	return len(v.Fields) == 0
}

// Descriptor is a fully resolved annotated type, ready for emission.
type Descriptor struct {
	Name    string
	Kind    Kind
	Options ContainerOptions
	// Tagged marks an interface enum whose variants encode as documents
	// carrying a discriminator. Unit enums encode as bare strings.
	Tagged   bool
	Fields   []FieldDescriptor
	Variants []VariantDescriptor
}
