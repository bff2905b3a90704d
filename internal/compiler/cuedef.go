package compiler

import (
	"fmt"

	"cuelang.org/go/cue"

	"github.com/roach88/eventc/internal/schema"
)

// CompileEventDef parses a CUE value into a native-call EventDefinition.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value should be the event struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`event: EVENT_PAINT_TILE: { ... }`)
//	def, err := CompileEventDef(v.LookupPath(cue.ParsePath("event.EVENT_PAINT_TILE")))
func CompileEventDef(v cue.Value) (*EventDefinition, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	def := &EventDefinition{}

	// The event id is the struct label
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		def.ID = labels[len(labels)-1].String()
	}

	name, err := requiredString(v, "name")
	if err != nil {
		return nil, err
	}
	def.Name = name

	if def.Description, err = optionalString(v, "description"); err != nil {
		return nil, err
	}
	if def.Groups, err = optionalStrings(v, "groups"); err != nil {
		return nil, err
	}
	if def.SubGroups, err = optionalStringMap(v, "subGroups"); err != nil {
		return nil, err
	}
	if def.Helper, err = optionalStringMap(v, "helper"); err != nil {
		return nil, err
	}

	if wait := v.LookupPath(cue.ParsePath("waitUntilAfterInitFade")); wait.Exists() {
		b, err := wait.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		def.WaitUntilAfterInitFade = b
	}

	if fieldsVal := v.LookupPath(cue.ParsePath("fields")); fieldsVal.Exists() {
		def.Fields, err = parseFields(fieldsVal)
		if err != nil {
			return nil, err
		}
	}

	nativeVal := v.LookupPath(cue.ParsePath("native"))
	if !nativeVal.Exists() {
		return nil, &CompileError{
			Code:    CodeInvalidDefinition,
			EventID: def.ID,
			Field:   "native",
			Message: "native is required",
			Pos:     v.Pos(),
		}
	}
	def.Native, err = parseNative(nativeVal)
	if err != nil {
		return nil, err
	}

	return def, nil
}

// parseNative extracts the native call declaration.
func parseNative(v cue.Value) (*NativeCall, error) {
	n := &NativeCall{}

	name, err := requiredString(v, "name")
	if err != nil {
		return nil, err
	}
	n.Name = name

	abi, err := optionalString(v, "abi")
	if err != nil {
		return nil, err
	}
	n.ABI = ABI(abi)

	if n.Result, err = optionalString(v, "result"); err != nil {
		return nil, err
	}
	if n.Comment, err = optionalString(v, "comment"); err != nil {
		return nil, err
	}

	paramsVal := v.LookupPath(cue.ParsePath("params"))
	if !paramsVal.Exists() {
		return n, nil // zero-argument native
	}
	iter, err := paramsVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		pv := iter.Value()
		kind, err := requiredString(pv, "kind")
		if err != nil {
			return nil, err
		}
		p := Param{Kind: ParamKind(kind)}
		if p.Field, err = optionalString(pv, "field"); err != nil {
			return nil, err
		}
		if c := pv.LookupPath(cue.ParsePath("const")); c.Exists() {
			if p.Const, err = c.Int64(); err != nil {
				return nil, formatCUEError(err)
			}
		}
		n.Params = append(n.Params, p)
	}
	return n, nil
}

// parseFields extracts a field list. Groups recurse through their own fields.
func parseFields(v cue.Value) ([]schema.FieldSpec, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var fields []schema.FieldSpec
	for iter.Next() {
		f, err := parseField(iter.Value())
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return fields, nil
}

func parseField(v cue.Value) (schema.FieldSpec, error) {
	var f schema.FieldSpec

	typ, err := requiredString(v, "type")
	if err != nil {
		return f, err
	}
	if f.Type, err = schema.ParseFieldType(typ); err != nil {
		return f, &CompileError{
			Code:    CodeInvalidDefinition,
			Field:   "type",
			Message: err.Error(),
			Pos:     v.Pos(),
		}
	}

	if f.Key, err = optionalString(v, "key"); err != nil {
		return f, err
	}
	if f.Label, err = optionalString(v, "label"); err != nil {
		return f, err
	}
	if f.DefaultType, err = optionalString(v, "defaultType"); err != nil {
		return f, err
	}
	if f.Options, err = optionalStrings(v, "options"); err != nil {
		return f, err
	}
	if f.Types, err = optionalStrings(v, "types"); err != nil {
		return f, err
	}

	if f.Min, err = optionalInt(v, "min"); err != nil {
		return f, err
	}
	if f.Max, err = optionalInt(v, "max"); err != nil {
		return f, err
	}
	maxLen, err := optionalInt(v, "maxLength")
	if err != nil {
		return f, err
	}
	if maxLen != nil {
		f.MaxLength = int(*maxLen)
	}

	if d := v.LookupPath(cue.ParsePath("default")); d.Exists() {
		if f.Default, err = defaultValue(d); err != nil {
			return f, err
		}
	}

	if sub := v.LookupPath(cue.ParsePath("fields")); sub.Exists() {
		if f.Fields, err = parseFields(sub); err != nil {
			return f, err
		}
	}

	if conds := v.LookupPath(cue.ParsePath("conditions")); conds.Exists() {
		if f.Conditions, err = parseConditions(conds); err != nil {
			return f, err
		}
	}
	return f, nil
}

func parseConditions(v cue.Value) ([]schema.Condition, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var conds []schema.Condition
	for iter.Next() {
		cv := iter.Value()
		key, err := requiredString(cv, "key")
		if err != nil {
			return nil, err
		}
		c := schema.Condition{Key: key}
		if eq := cv.LookupPath(cue.ParsePath("eq")); eq.Exists() {
			if c.Eq, err = scalar(eq); err != nil {
				return nil, err
			}
		}
		if ne := cv.LookupPath(cue.ParsePath("ne")); ne.Exists() {
			if c.Ne, err = scalar(ne); err != nil {
				return nil, err
			}
		}
		if set := cv.LookupPath(cue.ParsePath("set")); set.Exists() {
			b, err := set.Bool()
			if err != nil {
				return nil, formatCUEError(err)
			}
			c.Set = &b
		}
		conds = append(conds, c)
	}
	return conds, nil
}

// defaultValue decodes a field default: a scalar, or a struct of scalars
// keyed by union member type.
func defaultValue(v cue.Value) (any, error) {
	if v.IncompleteKind() != cue.StructKind {
		return scalar(v)
	}
	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	out := make(map[string]any)
	for iter.Next() {
		s, err := scalar(iter.Value())
		if err != nil {
			return nil, err
		}
		out[iter.Selector().Unquoted()] = s
	}
	return out, nil
}

// scalar decodes an int, bool or string. Floats are rejected like everywhere
// else in stored values.
func scalar(v cue.Value) (any, error) {
	switch v.IncompleteKind() {
	case cue.IntKind:
		n, err := v.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return n, nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return b, nil
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return s, nil
	}
	return nil, &CompileError{
		Code:    CodeInvalidDefinition,
		Field:   "default",
		Message: fmt.Sprintf("unsupported value kind %s", v.IncompleteKind()),
		Pos:     v.Pos(),
	}
}

func requiredString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", &CompileError{
			Code:    CodeInvalidDefinition,
			Field:   field,
			Message: field + " is required",
			Pos:     v.Pos(),
		}
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func optionalString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", nil
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func optionalInt(v cue.Value, field string) (*int64, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return nil, nil
	}
	n, err := fv.Int64()
	if err != nil {
		return nil, formatCUEError(err)
	}
	return &n, nil
}

func optionalStrings(v cue.Value, field string) ([]string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return nil, nil
	}
	iter, err := fv.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, s)
	}
	return out, nil
}

func optionalStringMap(v cue.Value, field string) (map[string]string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return nil, nil
	}
	iter, err := fv.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	out := make(map[string]string)
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out[iter.Selector().Unquoted()] = s
	}
	return out, nil
}
