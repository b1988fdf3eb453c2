package gen

import (
	"github.com/WithSecureLabs/mongo-rs/core/schema"
)

func (e *fileEmitter) emitEnum(d *schema.Descriptor) error {
	if d.Tagged {
		return e.emitTaggedEnum(d)
	}
	return e.emitUnitEnum(d)
}

// emitUnitEnum encodes a constant set as its snake_case tag string.
func (e *fileEmitter) emitUnitEnum(d *schema.Descriptor) error {
	e.use(bsonxPath)
	if d.Options.Into {
		e.printf("// MarshalBson converts the value into its wire representation.\n")
		e.printf("func (v %s) MarshalBson() (any, error) {\n", d.Name)
		e.printf("\tswitch v {\n")
		for _, variant := range d.Variants {
			e.printf("\tcase %s:\n", variant.Name)
			e.printf("\t\treturn %q, nil\n", variant.Tag)
		}
		e.printf("\tdefault:\n")
		e.printf("\t\treturn nil, &bsonx.EncodeError{Message: \"invalid variant\", Type: %q}\n", d.Name)
		e.printf("\t}\n")
		e.printf("}\n\n")
	}
	if d.Options.From {
		e.printf("// UnmarshalBson populates the value from its wire representation.\n")
		e.printf("func (v *%s) UnmarshalBson(value any) error {\n", d.Name)
		e.printf("\ts, ok := value.(string)\n")
		e.printf("\tif !ok {\n")
		e.printf("\t\treturn bsonx.NewDecodeError(\"invalid variant, expected a string\", value)\n")
		e.printf("\t}\n")
		e.printf("\tswitch s {\n")
		for _, variant := range d.Variants {
			e.printf("\tcase %q:\n", variant.Tag)
			e.printf("\t\t*v = %s\n", variant.Name)
		}
		e.printf("\tdefault:\n")
		e.printf("\t\treturn bsonx.NewDecodeError(\"invalid variant `\"+s+\"`\", value)\n")
		e.printf("\t}\n")
		e.printf("\treturn nil\n")
		e.printf("}\n\n")
	}
	return nil
}

// emitTaggedEnum encodes interface variants as documents carrying a
// discriminator entry, plus a package-level dispatch decoder.
func (e *fileEmitter) emitTaggedEnum(d *schema.Descriptor) error {
	for _, variant := range d.Variants {
		if d.Options.Into {
			e.emitVariantMarshal(d, variant)
		}
		if d.Options.From {
			e.emitVariantUnmarshal(variant)
		}
	}
	if d.Options.From {
		e.emitEnumDispatch(d)
	}
	return nil
}

func (e *fileEmitter) emitVariantMarshal(d *schema.Descriptor, variant schema.VariantDescriptor) {
	e.use(bsonPath)
	e.printf("// MarshalBson converts the value into its wire representation.\n")
	e.printf("func (v %s) MarshalBson() (any, error) {\n", variant.Name)
	e.printf("\tdoc := bson.D{{Key: %q, Value: %q}}\n", discriminator, variant.Tag)
	for _, f := range included(variant.Fields) {
		e.use(bsonxPath)
		marshal := "bsonx.Marshal"
		if f.Codec {
			marshal = "bsonx.MarshalCodec"
		}
		e.printf("\t{\n")
		e.printf("\t\tvalue, err := %s(v.%s)\n", marshal, f.Name)
		e.printf("\t\tif err != nil {\n")
		e.printf("\t\t\treturn nil, err\n")
		e.printf("\t\t}\n")
		e.printf("\t\tdoc = append(doc, bson.E{Key: %q, Value: value})\n", f.Key())
		e.printf("\t}\n")
	}
	e.printf("\treturn doc, nil\n")
	e.printf("}\n\n")
}

func (e *fileEmitter) emitVariantUnmarshal(variant schema.VariantDescriptor) {
	e.use(bsonPath)
	e.use(bsonxPath)
	fields := included(variant.Fields)
	e.printf("// UnmarshalBson populates the value from its wire representation.\n")
	e.printf("func (v *%s) UnmarshalBson(value any) error {\n", variant.Name)
	e.printf("\tdoc, ok := value.(bson.D)\n")
	e.printf("\tif !ok {\n")
	e.printf("\t\treturn bsonx.NewDecodeError(\"expected a document\", value)\n")
	e.printf("\t}\n")
	for _, f := range fields {
		e.useAll(f.Imports)
		e.printf("\tvar f%s %s\n", f.Name, slotType(f))
	}
	if len(fields) > 0 {
		e.printf("\tfor _, elem := range doc {\n")
		e.printf("\t\tswitch elem.Key {\n")
		for _, f := range fields {
			e.emitDecodeCase(f)
		}
		e.printf("\t\t}\n")
		e.printf("\t}\n")
	}
	for _, f := range fields {
		e.printf("\tif f%s == nil {\n", f.Name)
		e.printf("\t\treturn bsonx.NewMissingFieldError(%q)\n", f.Key())
		e.printf("\t}\n")
	}
	for _, f := range fields {
		e.printf("\tv.%s = *f%s\n", f.Name, f.Name)
	}
	e.printf("\treturn nil\n")
	e.printf("}\n\n")
}

func (e *fileEmitter) emitEnumDispatch(d *schema.Descriptor) {
	e.use(bsonPath)
	e.use(bsonxPath)
	e.printf("// Unmarshal%sBson decodes a tagged document into the matching variant.\n", d.Name)
	e.printf("func Unmarshal%sBson(value any) (%s, error) {\n", d.Name, d.Name)
	e.printf("\tdoc, ok := value.(bson.D)\n")
	e.printf("\tif !ok {\n")
	e.printf("\t\treturn nil, bsonx.NewDecodeError(\"expected a document\", value)\n")
	e.printf("\t}\n")
	e.printf("\ttag, found := \"\", false\n")
	e.printf("\tfor _, elem := range doc {\n")
	e.printf("\t\tif elem.Key != %q {\n", discriminator)
	e.printf("\t\t\tcontinue\n")
	e.printf("\t\t}\n")
	e.printf("\t\ts, ok := elem.Value.(string)\n")
	e.printf("\t\tif !ok {\n")
	e.printf("\t\t\treturn nil, bsonx.NewDecodeError(\"enum type must be a string\", elem.Value)\n")
	e.printf("\t\t}\n")
	e.printf("\t\ttag, found = s, true\n")
	e.printf("\t\tbreak\n")
	e.printf("\t}\n")
	e.printf("\tif !found {\n")
	e.printf("\t\treturn nil, bsonx.NewDecodeError(\"enum type not found\", value)\n")
	e.printf("\t}\n")
	e.printf("\tswitch tag {\n")
	for _, variant := range d.Variants {
		e.printf("\tcase %q:\n", variant.Tag)
		e.printf("\t\tvar v %s\n", variant.Name)
		e.printf("\t\tif err := v.UnmarshalBson(doc); err != nil {\n")
		e.printf("\t\t\treturn nil, err\n")
		e.printf("\t\t}\n")
		e.printf("\t\treturn v, nil\n")
	}
	e.printf("\tdefault:\n")
	e.printf("\t\treturn nil, bsonx.NewDecodeError(\"invalid variant `\"+tag+\"`\", value)\n")
	e.printf("\t}\n")
	e.printf("}\n\n")
}
