package schema

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/token"

	"github.com/roach88/fieldset/internal/catalog"
)

// definition constrains every schema before it is compiled.
const definition = `
#Field: {
	type:      "date" | "string" | "chars" | "short" | "integer" | "long" | "money" | "price" | "units" | "rate" | "ratio" | "boolean" | "bytes" | "link" | "enum" | "object"
	length?:   int & >=0
	equality:  bool | *true
	storage:   *"versioned" | "paired" | "local"
	secured:   bool | *false
}

#Type: {
	extends?: string
	fields: [string]: #Field
}

type: [string]: #Type
`

// Schema is the compiled result: one catalog per declared type.
type Schema struct {
	catalogs []*catalog.Catalog
	byType   map[catalog.TypeID]*catalog.Catalog
}

// Catalogs returns the catalogs in compile order, parents before children.
func (s *Schema) Catalogs() []*catalog.Catalog {
	out := make([]*catalog.Catalog, len(s.catalogs))
	copy(out, s.catalogs)
	return out
}

// Lookup returns the catalog for typ.
func (s *Schema) Lookup(typ catalog.TypeID) (*catalog.Catalog, bool) {
	c, ok := s.byType[typ]
	return c, ok
}

// Register adds every catalog to r in compile order.
func (s *Schema) Register(r *catalog.Registry) error {
	for _, c := range s.catalogs {
		if err := r.Register(c); err != nil {
			return err
		}
	}
	return nil
}

type typeSpec struct {
	name    catalog.TypeID
	extends catalog.TypeID
	value   cue.Value
	pos     token.Pos
}

// CompileString compiles schema source. filename is used in error positions.
func CompileString(src, filename string) (*Schema, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(src, cue.Filename(filename))
	return Compile(v)
}

// Compile validates v against the schema definition and builds its catalogs.
func Compile(v cue.Value) (*Schema, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	def := v.Context().CompileString(definition, cue.Filename("fieldset.schema"))
	if err := def.Err(); err != nil {
		return nil, fmt.Errorf("schema definition: %w", err)
	}
	v = def.Unify(v)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	specs, err := parseTypes(v)
	if err != nil {
		return nil, err
	}
	ordered, err := orderTypes(specs)
	if err != nil {
		return nil, err
	}

	s := &Schema{byType: make(map[catalog.TypeID]*catalog.Catalog, len(ordered))}
	for _, spec := range ordered {
		var c *catalog.Catalog
		if spec.extends == "" {
			c = catalog.New(spec.name)
		} else {
			c = s.byType[spec.extends].Derive(spec.name)
		}
		if err := declareFields(c, spec); err != nil {
			return nil, err
		}
		s.catalogs = append(s.catalogs, c)
		s.byType[spec.name] = c
	}
	return s, nil
}

func parseTypes(v cue.Value) ([]typeSpec, error) {
	typesVal := v.LookupPath(cue.ParsePath("type"))
	if !typesVal.Exists() {
		return nil, &CompileError{Field: "type", Message: "no types declared", Pos: v.Pos()}
	}

	iter, err := typesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var specs []typeSpec
	for iter.Next() {
		tv := iter.Value()
		spec := typeSpec{
			name:  catalog.TypeID(iter.Selector().Unquoted()),
			value: tv,
			pos:   tv.Pos(),
		}
		if ext := tv.LookupPath(cue.ParsePath("extends")); ext.Exists() && ext.IsConcrete() {
			parent, err := ext.String()
			if err != nil {
				return nil, formatCUEError(err)
			}
			spec.extends = catalog.TypeID(parent)
		}
		specs = append(specs, spec)
	}
	if len(specs) == 0 {
		return nil, &CompileError{Field: "type", Message: "no types declared", Pos: v.Pos()}
	}
	return specs, nil
}

// orderTypes sorts specs so every parent precedes its children, keeping
// declaration order otherwise. Unknown parents and cycles are errors.
func orderTypes(specs []typeSpec) ([]typeSpec, error) {
	byName := make(map[catalog.TypeID]typeSpec, len(specs))
	for _, s := range specs {
		byName[s.name] = s
	}

	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[catalog.TypeID]int, len(specs))
	ordered := make([]typeSpec, 0, len(specs))

	var visit func(s typeSpec) error
	visit = func(s typeSpec) error {
		switch state[s.name] {
		case done:
			return nil
		case visiting:
			return &CompileError{
				Field:   fmt.Sprintf("type.%s.extends", s.name),
				Message: fmt.Sprintf("inheritance cycle through %s", s.name),
				Pos:     s.pos,
			}
		}
		state[s.name] = visiting
		if s.extends != "" {
			parent, ok := byName[s.extends]
			if !ok {
				return &CompileError{
					Field:   fmt.Sprintf("type.%s.extends", s.name),
					Message: fmt.Sprintf("unknown parent type %q", s.extends),
					Pos:     s.pos,
				}
			}
			if err := visit(parent); err != nil {
				return err
			}
		}
		state[s.name] = done
		ordered = append(ordered, s)
		return nil
	}

	for _, s := range specs {
		if err := visit(s); err != nil {
			return nil, err
		}
	}
	return ordered, nil
}

func declareFields(c *catalog.Catalog, spec typeSpec) error {
	fieldsVal := spec.value.LookupPath(cue.ParsePath("fields"))
	iter, err := fieldsVal.Fields()
	if err != nil {
		return formatCUEError(err)
	}

	for iter.Next() {
		fv := iter.Value()
		id := iter.Selector().Unquoted()
		path := fmt.Sprintf("type.%s.fields.%s", spec.name, id)

		typ, opts, err := fieldOptions(fv, path)
		if err != nil {
			return err
		}
		if _, err := c.Declare(catalog.FieldID(id), typ, opts...); err != nil {
			return fromContract(err, path, fv.Pos())
		}
	}
	return nil
}

func fieldOptions(fv cue.Value, path string) (catalog.SemanticType, []catalog.FieldOption, error) {
	typeName, err := fv.LookupPath(cue.ParsePath("type")).String()
	if err != nil {
		return 0, nil, formatCUEError(err)
	}
	typ, ok := catalog.ParseSemanticType(typeName)
	if !ok {
		return 0, nil, &CompileError{Field: path + ".type", Message: fmt.Sprintf("unknown type %q", typeName), Pos: fv.Pos()}
	}

	var opts []catalog.FieldOption

	if lv := fv.LookupPath(cue.ParsePath("length")); lv.Exists() && lv.IsConcrete() {
		n, err := lv.Int64()
		if err != nil {
			return 0, nil, formatCUEError(err)
		}
		opts = append(opts, catalog.WithLength(int(n)))
	}

	equality, err := resolved(fv, "equality").Bool()
	if err != nil {
		return 0, nil, formatCUEError(err)
	}
	opts = append(opts, catalog.Equality(equality))

	storageName, err := resolved(fv, "storage").String()
	if err != nil {
		return 0, nil, formatCUEError(err)
	}
	storage, ok := catalog.ParseStorageKind(storageName)
	if !ok {
		return 0, nil, &CompileError{Field: path + ".storage", Message: fmt.Sprintf("unknown storage %q", storageName), Pos: fv.Pos()}
	}
	opts = append(opts, catalog.Storage(storage))

	secured, err := resolved(fv, "secured").Bool()
	if err != nil {
		return 0, nil, formatCUEError(err)
	}
	if secured {
		opts = append(opts, catalog.Secured())
	}

	return typ, opts, nil
}

// resolved looks up a field and selects its default when it has one.
func resolved(v cue.Value, path string) cue.Value {
	fv := v.LookupPath(cue.ParsePath(path))
	if d, ok := fv.Default(); ok {
		return d
	}
	return fv
}
