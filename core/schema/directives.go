package schema

import (
	"fmt"
	"reflect"
	"strings"
)

// Prefix marks a doc comment line as a generator directive.
const Prefix = "+mongo:"

// Directives is the raw result of scanning a type's doc comment.
type Directives struct {
	// Bson is set when the type opted into conversion at all.
	Bson bool
	// VariantOf names the interface this struct is a variant of, if any.
	VariantOf string
	Options   ContainerOptions
}

// optionSpec binds a directive key to the mutation it applies. Unknown keys
// are rejected rather than skipped so a typo never silently drops a
// companion.
type optionSpec struct {
	key      string
	hasValue bool
	apply    func(d *Directives, value string) error
}

var options = []optionSpec{
	{key: "bson", apply: func(d *Directives, value string) error {
		d.Bson = true
		switch value {
		case "":
			return nil
		case "from":
			d.Options.From = true
		case "into":
			d.Options.Into = true
		case "codec":
			d.Options.Mode = ModeCodec
		default:
			return fmt.Errorf("unknown bson direction %q", value)
		}
		return nil
	}},
	{key: "collection", hasValue: true, apply: func(d *Directives, value string) error {
		if value == "" {
			return fmt.Errorf("collection directive requires a name")
		}
		d.Options.Collection = value
		return nil
	}},
	{key: "field", apply: func(d *Directives, value string) error {
		d.Options.GenField = true
		return nil
	}},
	{key: "filter", apply: func(d *Directives, value string) error {
		d.Options.GenFilter = true
		return nil
	}},
	{key: "update", apply: func(d *Directives, value string) error {
		d.Options.GenUpdate = true
		return nil
	}},
	{key: "oid", apply: func(d *Directives, value string) error {
		d.Options.ObjectID = true
		return nil
	}},
	{key: "variant", hasValue: true, apply: func(d *Directives, value string) error {
		if value == "" {
			return fmt.Errorf("variant directive requires an interface name")
		}
		d.VariantOf = value
		return nil
	}},
}

// ParseDirectives scans a doc comment for directive lines. It returns nil
// when the comment carries none.
func ParseDirectives(doc string) (*Directives, error) {
	var d *Directives
	for _, line := range strings.Split(doc, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, Prefix) {
			continue
		}
		if d == nil {
			d = &Directives{}
		}
		body := strings.TrimPrefix(line, Prefix)
		key, value, _ := strings.Cut(body, "=")
		if err := applyOption(d, key, value); err != nil {
			return nil, err
		}
	}
	if d == nil {
		return nil, nil
	}
	// A type that names neither direction converts both ways.
	if d.Bson && !d.Options.From && !d.Options.Into {
		d.Options.From = true
		d.Options.Into = true
	}
	return d, nil
}

func applyOption(d *Directives, key, value string) error {
	for _, spec := range options {
		if spec.key != key {
			continue
		}
		if spec.hasValue && value == "" {
			return fmt.Errorf("directive %s%s requires a value", Prefix, key)
		}
		return spec.apply(d, value)
	}
	return fmt.Errorf("unknown directive %s%s", Prefix, key)
}

// FieldTag is the parsed `mongo` struct tag of a single field.
type FieldTag struct {
	Skip  bool
	Codec bool
}

// ParseFieldTag reads the `mongo` key of a struct tag.
func ParseFieldTag(tag string) (FieldTag, error) {
	var ft FieldTag
	value, ok := reflect.StructTag(strings.Trim(tag, "`")).Lookup("mongo")
	if !ok {
		return ft, nil
	}
	for _, part := range strings.Split(value, ",") {
		switch strings.TrimSpace(part) {
		case "skip", "-":
			ft.Skip = true
		case "codec":
			ft.Codec = true
		case "":
		default:
			return ft, fmt.Errorf("unknown mongo tag option %q", part)
		}
	}
	return ft, nil
}
