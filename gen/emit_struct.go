package gen

import (
	"github.com/WithSecureLabs/mongo-rs/core/schema"
)

func (e *fileEmitter) emitStruct(d *schema.Descriptor) error {
	if d.Options.Into {
		e.emitStructMarshal(d)
	}
	if d.Options.From {
		e.emitStructUnmarshal(d)
	}
	if d.Options.Collection != "" {
		e.emitCollection(d)
	}
	if d.Options.GenField {
		e.emitFieldEnum(d)
	}
	if d.Options.GenFilter {
		e.emitFilter(d)
	}
	if d.Options.GenUpdate {
		e.emitUpdate(d)
	}
	return nil
}

func included(fields []schema.FieldDescriptor) []schema.FieldDescriptor {
	out := make([]schema.FieldDescriptor, 0, len(fields))
	for _, f := range fields {
		if !f.Skip {
			out = append(out, f)
		}
	}
	return out
}

func (e *fileEmitter) emitStructMarshal(d *schema.Descriptor) {
	e.use(bsonxPath)
	e.printf("// MarshalBson converts the value into its wire representation.\n")
	e.printf("func (v %s) MarshalBson() (any, error) {\n", d.Name)
	if d.Options.Mode == schema.ModeCodec {
		e.printf("\treturn bsonx.MarshalCodec(v)\n")
		e.printf("}\n\n")
		return
	}
	e.use(bsonPath)
	e.printf("\tdoc := bson.D{}\n")
	for _, f := range included(d.Fields) {
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

func (e *fileEmitter) emitStructUnmarshal(d *schema.Descriptor) {
	e.use(bsonxPath)
	e.printf("// UnmarshalBson populates the value from its wire representation.\n")
	e.printf("func (v *%s) UnmarshalBson(value any) error {\n", d.Name)
	if d.Options.Mode == schema.ModeCodec {
		e.printf("\treturn bsonx.UnmarshalCodec(value, v)\n")
		e.printf("}\n\n")
		return
	}
	e.use(bsonPath)
	fields := included(d.Fields)
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

// emitDecodeCase writes one switch case of the decode loop. Required fields
// decode straight into their slot; optional fields tolerate explicit nulls.
func (e *fileEmitter) emitDecodeCase(f schema.FieldDescriptor) {
	e.printf("\t\tcase %q:\n", f.Key())
	if !f.Optional {
		e.emitDecodeValue(f, "\t\t\t", "f"+f.Name+" = &x")
		return
	}
	e.printf("\t\t\tif bsonx.IsNull(elem.Value) {\n")
	e.printf("\t\t\t\tvar null *%s\n", f.Type)
	e.printf("\t\t\t\tf%s = &null\n", f.Name)
	e.printf("\t\t\t} else {\n")
	e.emitDecodeValue(f, "\t\t\t\t", "ptr := &x\n\t\t\t\tf"+f.Name+" = &ptr")
	e.printf("\t\t\t}\n")
}

// emitDecodeValue decodes elem.Value into a local x and runs assign.
func (e *fileEmitter) emitDecodeValue(f schema.FieldDescriptor, indent, assign string) {
	switch {
	case f.Codec:
		e.printf("%svar x %s\n", indent, f.Type)
		e.printf("%sif err := bsonx.UnmarshalCodec(elem.Value, &x); err != nil {\n", indent)
		e.printf("%s\treturn err\n", indent)
		e.printf("%s}\n", indent)
	case f.Enum:
		e.printf("%sx, err := Unmarshal%sBson(elem.Value)\n", indent, f.Type)
		e.printf("%sif err != nil {\n", indent)
		e.printf("%s\treturn err\n", indent)
		e.printf("%s}\n", indent)
	default:
		e.printf("%sx, err := bsonx.As[%s](elem.Value)\n", indent, f.Type)
		e.printf("%sif err != nil {\n", indent)
		e.printf("%s\treturn err\n", indent)
		e.printf("%s}\n", indent)
	}
	e.printf("%s%s\n", indent, assign)
}

func (e *fileEmitter) emitCollection(d *schema.Descriptor) {
	e.printf("// Collection names the collection documents of %s live in.\n", d.Name)
	e.printf("func (v %s) Collection() string {\n", d.Name)
	e.printf("\treturn %q\n", d.Options.Collection)
	e.printf("}\n\n")
	if d.Options.Into {
		e.use(corePath)
		e.use(bsonPath)
		e.use(bsonxPath)
		e.printf("// IntoDocument converts the value into an ordered document.\n")
		e.printf("func (v %s) IntoDocument() (bson.D, error) {\n", d.Name)
		e.printf("\tvalue, err := v.MarshalBson()\n")
		e.printf("\tif err != nil {\n")
		e.printf("\t\treturn nil, core.InvalidDocument(err)\n")
		e.printf("\t}\n")
		e.printf("\tdoc, ok := value.(bson.D)\n")
		e.printf("\tif !ok {\n")
		e.printf("\t\treturn nil, core.InvalidDocument(bsonx.NewDecodeError(\"expected a document\", value))\n")
		e.printf("\t}\n")
		e.printf("\treturn doc, nil\n")
		e.printf("}\n\n")
	}
	if d.Options.From {
		e.use(corePath)
		e.use(bsonPath)
		e.printf("// FromDocument populates the value from an ordered document.\n")
		e.printf("func (v *%s) FromDocument(doc bson.D) error {\n", d.Name)
		e.printf("\tif err := v.UnmarshalBson(doc); err != nil {\n")
		e.printf("\t\treturn core.InvalidDocument(err)\n")
		e.printf("\t}\n")
		e.printf("\treturn nil\n")
		e.printf("}\n\n")
	}
}

func (e *fileEmitter) emitFieldEnum(d *schema.Descriptor) {
	fields := included(d.Fields)
	e.printf("// %sField names a field of %s for sort and projection keys.\n", d.Name, d.Name)
	e.printf("type %sField string\n\n", d.Name)
	e.printf("const (\n")
	for _, f := range fields {
		e.printf("\t%sField%s %sField = %q\n", d.Name, f.Name, d.Name, f.Name)
	}
	e.printf(")\n\n")
	e.printf("// FieldName returns the declared field name.\n")
	e.printf("func (f %sField) FieldName() string {\n", d.Name)
	e.printf("\treturn string(f)\n")
	e.printf("}\n\n")
}

// filterSlot is the comparator type a field occupies in its filter struct.
func filterSlot(d *schema.Descriptor, f schema.FieldDescriptor) string {
	inner := f.Type
	if f.Optional {
		inner = "*" + inner
	}
	if f.Codec || d.Options.Mode == schema.ModeCodec {
		inner = "bsonx.Codec[" + inner + "]"
	}
	return "*query.Comparator[" + inner + "]"
}

func (e *fileEmitter) emitFilter(d *schema.Descriptor) {
	e.use(bsonPath)
	e.use(queryPath)
	fields := included(d.Fields)
	codecMode := d.Options.Mode == schema.ModeCodec
	if codecMode && len(fields) > 0 {
		e.use(bsonxPath)
	}
	e.printf("// %sFilter narrows operations over %s documents. Nil comparators\n", d.Name, d.Name)
	e.printf("// leave the corresponding field unconstrained.\n")
	e.printf("type %sFilter struct {\n", d.Name)
	if d.Options.ObjectID {
		e.use(primitivePath)
		e.printf("\tID *query.Comparator[primitive.ObjectID]\n")
	}
	for _, f := range fields {
		if f.Codec {
			e.use(bsonxPath)
		}
		e.useAll(f.Imports)
		e.printf("\t%s %s\n", f.Name, filterSlot(d, f))
	}
	e.printf("}\n\n")

	e.printf("// IntoDocument renders the set comparators as a filter document.\n")
	e.printf("func (f %sFilter) IntoDocument() (bson.D, error) {\n", d.Name)
	e.printf("\tdoc := bson.D{}\n")
	emitEntry := func(name, key string) {
		e.use(corePath)
		e.printf("\tif f.%s != nil {\n", name)
		e.printf("\t\tvalue, err := f.%s.MarshalBson()\n", name)
		e.printf("\t\tif err != nil {\n")
		e.printf("\t\t\treturn nil, core.InvalidDocument(err)\n")
		e.printf("\t\t}\n")
		e.printf("\t\tdoc = append(doc, bson.E{Key: %q, Value: value})\n", key)
		e.printf("\t}\n")
	}
	if d.Options.ObjectID {
		emitEntry("ID", "_id")
	}
	for _, f := range fields {
		emitEntry(f.Name, f.Key())
	}
	e.printf("\treturn doc, nil\n")
	e.printf("}\n\n")

	if d.Options.Into {
		e.printf("// IntoFilter builds a filter matching this exact value.\n")
		e.printf("func (v %s) IntoFilter() %sFilter {\n", d.Name, d.Name)
		e.printf("\treturn %sFilter{\n", d.Name)
		for _, f := range fields {
			if f.Codec || codecMode {
				e.printf("\t\t%s: query.Eq(bsonx.Wrap(v.%s)),\n", f.Name, f.Name)
			} else {
				e.printf("\t\t%s: query.Eq(v.%s),\n", f.Name, f.Name)
			}
		}
		e.printf("\t}\n")
		e.printf("}\n\n")
	}
}

// updateSlot is the pointer type a field occupies in its update struct.
func updateSlot(f schema.FieldDescriptor) string {
	if f.Optional {
		return "**" + f.Type
	}
	return "*" + f.Type
}

func (e *fileEmitter) emitUpdate(d *schema.Descriptor) {
	e.use(bsonPath)
	fields := included(d.Fields)
	codecMode := d.Options.Mode == schema.ModeCodec
	e.printf("// %sUpdate carries new values for individual %s fields. Nil\n", d.Name, d.Name)
	e.printf("// members leave the corresponding field untouched.\n")
	e.printf("type %sUpdate struct {\n", d.Name)
	for _, f := range fields {
		e.useAll(f.Imports)
		e.printf("\t%s %s\n", f.Name, updateSlot(f))
	}
	e.printf("}\n\n")

	e.printf("// IntoDocument renders the set members as a mutation document.\n")
	e.printf("func (u %sUpdate) IntoDocument() (bson.D, error) {\n", d.Name)
	e.printf("\tdoc := bson.D{}\n")
	for _, f := range fields {
		e.use(corePath)
		e.use(bsonxPath)
		marshal := "bsonx.Marshal"
		if f.Codec || codecMode {
			marshal = "bsonx.MarshalCodec"
		}
		e.printf("\tif u.%s != nil {\n", f.Name)
		e.printf("\t\tvalue, err := %s(*u.%s)\n", marshal, f.Name)
		e.printf("\t\tif err != nil {\n")
		e.printf("\t\t\treturn nil, core.InvalidDocument(err)\n")
		e.printf("\t\t}\n")
		e.printf("\t\tdoc = append(doc, bson.E{Key: %q, Value: value})\n", f.Key())
		e.printf("\t}\n")
	}
	e.printf("\treturn doc, nil\n")
	e.printf("}\n\n")

	if d.Options.Into {
		e.printf("// IntoUpdate builds an update setting every field to this value.\n")
		e.printf("func (v %s) IntoUpdate() %sUpdate {\n", d.Name, d.Name)
		e.printf("\treturn %sUpdate{\n", d.Name)
		for _, f := range fields {
			e.printf("\t\t%s: &v.%s,\n", f.Name, f.Name)
		}
		e.printf("\t}\n")
		e.printf("}\n\n")
	}
}
