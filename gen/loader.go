// Package gen turns annotated Go source into companion files. The loader
// parses a package directory and resolves directive-carrying types into
// schema descriptors; the generator emits one companion file per source file
// that declared any.
package gen

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"io/fs"
	"sort"
	"strconv"
	"strings"

	"github.com/WithSecureLabs/mongo-rs/core/schema"
)

// DefaultSuffix is appended to a source file's base name to form its
// companion file name.
const DefaultSuffix = "_mongo.go"

// Package is a parsed source package with its resolved descriptors grouped
// by the file that declared them.
type Package struct {
	Name  string
	Dir   string
	Files []*File
}

// File holds the descriptors declared in one source file.
type File struct {
	Name        string
	Descriptors []*schema.Descriptor
}

// Loader parses package directories into descriptor sets.
type Loader struct {
	// Suffix identifies previously generated files to skip. Defaults to
	// DefaultSuffix when empty.
	Suffix string
}

type rawType struct {
	file    string
	spec    *ast.TypeSpec
	dirs    *schema.Directives
	imports map[string]string
}

// Load parses the package rooted at dir and resolves every annotated type.
func (l *Loader) Load(dir string) (*Package, error) {
	suffix := l.Suffix
	if suffix == "" {
		suffix = DefaultSuffix
	}
	fset := token.NewFileSet()
	pkgs, err := parser.ParseDir(fset, dir, func(fi fs.FileInfo) bool {
		return !strings.HasSuffix(fi.Name(), "_test.go") &&
			!strings.HasSuffix(fi.Name(), suffix)
	}, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", dir, err)
	}

	var astPkg *ast.Package
	for name, p := range pkgs {
		if strings.HasSuffix(name, "_test") {
			continue
		}
		if astPkg != nil {
			return nil, fmt.Errorf("multiple packages in %s", dir)
		}
		astPkg = p
	}
	if astPkg == nil {
		return nil, fmt.Errorf("no Go package in %s", dir)
	}

	fileNames := make([]string, 0, len(astPkg.Files))
	for name := range astPkg.Files {
		fileNames = append(fileNames, name)
	}
	sort.Strings(fileNames)

	var raws []rawType
	consts := map[string][]string{}
	for _, fileName := range fileNames {
		file := astPkg.Files[fileName]
		imports := importTable(file)
		for _, decl := range file.Decls {
			gd, ok := decl.(*ast.GenDecl)
			if !ok {
				continue
			}
			switch gd.Tok {
			case token.TYPE:
				for _, spec := range gd.Specs {
					ts := spec.(*ast.TypeSpec)
					dirs, err := schema.ParseDirectives(docText(gd, ts))
					if err != nil {
						return nil, fmt.Errorf("%s: type %s: %w", fileName, ts.Name.Name, err)
					}
					if dirs == nil {
						continue
					}
					raws = append(raws, rawType{file: fileName, spec: ts, dirs: dirs, imports: imports})
				}
			case token.CONST:
				collectConsts(gd, consts)
			}
		}
	}

	return l.resolve(astPkg.Name, dir, raws, consts)
}

// docText returns the doc comment attached to a type, whether it sits on
// the TypeSpec or on a GenDecl declaring only that type.
func docText(gd *ast.GenDecl, ts *ast.TypeSpec) string {
	if ts.Doc != nil {
		return ts.Doc.Text()
	}
	if len(gd.Specs) == 1 && gd.Doc != nil {
		return gd.Doc.Text()
	}
	return ""
}

// importTable maps the names a file's imports are known by to their paths.
// Unnamed imports fall back to the last path segment.
func importTable(file *ast.File) map[string]string {
	table := map[string]string{}
	for _, spec := range file.Imports {
		path, err := strconv.Unquote(spec.Path.Value)
		if err != nil {
			continue
		}
		name := path
		if i := strings.LastIndex(path, "/"); i >= 0 {
			name = path[i+1:]
		}
		if spec.Name != nil {
			name = spec.Name.Name
		}
		table[name] = path
	}
	return table
}

// collectConsts records constant names grouped by their declared type,
// following the usual iota pattern where only the first spec names it.
func collectConsts(gd *ast.GenDecl, out map[string][]string) {
	current := ""
	for _, spec := range gd.Specs {
		vs, ok := spec.(*ast.ValueSpec)
		if !ok {
			continue
		}
		if vs.Type != nil {
			if ident, ok := vs.Type.(*ast.Ident); ok {
				current = ident.Name
			} else {
				current = ""
			}
		} else if len(vs.Values) > 0 {
			// An untyped constant breaks the run.
			current = ""
		}
		if current == "" {
			continue
		}
		for _, name := range vs.Names {
			if name.Name == "_" {
				continue
			}
			out[current] = append(out[current], name.Name)
		}
	}
}

func (l *Loader) resolve(pkgName, dir string, raws []rawType, consts map[string][]string) (*Package, error) {
	descriptors := map[string]*schema.Descriptor{}
	fileOf := map[string]string{}
	enums := map[string]bool{}
	var order []string

	// Interfaces and defined scalars become enums so variants and struct
	// fields can refer to them.
	for _, raw := range raws {
		name := raw.spec.Name.Name
		switch raw.spec.Type.(type) {
		case *ast.InterfaceType:
			descriptors[name] = &schema.Descriptor{
				Name:    name,
				Kind:    schema.KindEnum,
				Options: raw.dirs.Options,
				Tagged:  true,
			}
			fileOf[name] = raw.file
			enums[name] = true
			order = append(order, name)
		case *ast.Ident:
			variants := consts[name]
			if len(variants) == 0 {
				return nil, fmt.Errorf("enum %s has no constants", name)
			}
			d := &schema.Descriptor{
				Name:    name,
				Kind:    schema.KindEnum,
				Options: raw.dirs.Options,
			}
			for _, v := range variants {
				d.Variants = append(d.Variants, schema.VariantDescriptor{
					Name: v,
					Tag:  schema.VariantTag(name, v),
				})
			}
			descriptors[name] = d
			fileOf[name] = raw.file
			order = append(order, name)
		}
	}

	// Structs either attach to an interface enum as a variant or stand on
	// their own.
	for _, raw := range raws {
		st, ok := raw.spec.Type.(*ast.StructType)
		if !ok {
			continue
		}
		name := raw.spec.Name.Name
		fields, err := l.fields(st, enums, raw.imports)
		if err != nil {
			return nil, fmt.Errorf("%s: type %s: %w", raw.file, name, err)
		}
		if raw.dirs.VariantOf != "" {
			parent, ok := descriptors[raw.dirs.VariantOf]
			if !ok || parent.Kind != schema.KindEnum {
				return nil, fmt.Errorf("type %s: variant of unknown enum %s", name, raw.dirs.VariantOf)
			}
			parent.Variants = append(parent.Variants, schema.VariantDescriptor{
				Name:   name,
				Tag:    schema.Snake(name),
				Fields: fields,
			})
			continue
		}
		descriptors[name] = &schema.Descriptor{
			Name:    name,
			Kind:    schema.KindStruct,
			Options: raw.dirs.Options,
			Fields:  fields,
		}
		fileOf[name] = raw.file
		order = append(order, name)
	}

	for _, name := range order {
		d := descriptors[name]
		if d.Kind == schema.KindEnum && len(d.Variants) == 0 {
			return nil, fmt.Errorf("enum %s has no variants", name)
		}
	}

	pkg := &Package{Name: pkgName, Dir: dir}
	byFile := map[string]*File{}
	for _, name := range order {
		fileName := fileOf[name]
		f := byFile[fileName]
		if f == nil {
			f = &File{Name: fileName}
			byFile[fileName] = f
			pkg.Files = append(pkg.Files, f)
		}
		f.Descriptors = append(f.Descriptors, descriptors[name])
	}
	sort.Slice(pkg.Files, func(i, j int) bool { return pkg.Files[i].Name < pkg.Files[j].Name })
	return pkg, nil
}

func (l *Loader) fields(st *ast.StructType, enums map[string]bool, imports map[string]string) ([]schema.FieldDescriptor, error) {
	var out []schema.FieldDescriptor
	for _, field := range st.Fields.List {
		if len(field.Names) == 0 {
			return nil, fmt.Errorf("embedded fields are not supported")
		}
		tag := ""
		if field.Tag != nil {
			tag = field.Tag.Value
		}
		ft, err := schema.ParseFieldTag(tag)
		if err != nil {
			return nil, err
		}
		expr := field.Type
		optional := false
		if star, ok := expr.(*ast.StarExpr); ok {
			optional = true
			expr = star.X
		}
		typeName := types.ExprString(expr)
		for _, name := range field.Names {
			if !name.IsExported() {
				continue
			}
			out = append(out, schema.FieldDescriptor{
				Name:     name.Name,
				Type:     typeName,
				Optional: optional,
				Codec:    ft.Codec,
				Skip:     ft.Skip,
				Enum:     enums[typeName],
				Imports:  typeImports(expr, imports),
			})
		}
	}
	return out, nil
}

// typeImports resolves the package qualifiers a type expression mentions.
func typeImports(expr ast.Expr, imports map[string]string) []string {
	seen := map[string]bool{}
	var paths []string
	ast.Inspect(expr, func(n ast.Node) bool {
		sel, ok := n.(*ast.SelectorExpr)
		if !ok {
			return true
		}
		ident, ok := sel.X.(*ast.Ident)
		if !ok {
			return true
		}
		if path, ok := imports[ident.Name]; ok && !seen[path] {
			seen[path] = true
			paths = append(paths, path)
		}
		return false
	})
	sort.Strings(paths)
	return paths
}
