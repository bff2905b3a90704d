package compiler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/eventc/internal/ir"
	"github.com/roach88/eventc/internal/schema"
)

// Validation error codes (E100-E199)
const (
	// General validation errors (E100)
	ErrUnsupportedType = "E100" // unsupported value passed to Validate

	// EventDefinition errors (E101-E109)
	ErrEventIDEmpty       = "E101" // id is required
	ErrEventNoCompile     = "E102" // neither Compile nor Native set
	ErrInvalidFields      = "E103" // field schema failed validation
	ErrNativeNameEmpty    = "E104" // native name is required
	ErrNativeUnknownField = "E105" // param or result names no field
	ErrNativeParamKind    = "E106" // param kind does not fit the field type
	ErrNativeInvalidABI   = "E107" // unknown ABI, or a kind the ABI cannot pass
	ErrNativeResultNotVar = "E108" // result field is not a variable field

	// Script errors (E120-E129)
	ErrScriptUnknownEvent  = "E120" // node command is not registered
	ErrScriptFieldMismatch = "E121" // stored value outside its field domain
	ErrScriptStrayChildren = "E122" // children stored under a non-events key
)

// ValidationError represents a definition or script validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Path    string `json:"path,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("[%s] %s: %s: %s", e.Code, e.Path, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks an event definition.
// Returns all errors found (does not fail-fast).
func Validate(v any) []ValidationError {
	switch def := v.(type) {
	case *EventDefinition:
		return validateDefinition(def)
	case EventDefinition:
		return validateDefinition(&def)
	default:
		return []ValidationError{{
			Field:   "type",
			Message: fmt.Sprintf("unsupported type: %T", v),
			Code:    ErrUnsupportedType,
		}}
	}
}

func validateDefinition(def *EventDefinition) []ValidationError {
	var errs []ValidationError

	if strings.TrimSpace(def.ID) == "" {
		errs = append(errs, ValidationError{
			Field:   "id",
			Message: "id is required",
			Code:    ErrEventIDEmpty,
		})
	}

	if def.Compile == nil && def.Native == nil {
		errs = append(errs, ValidationError{
			Field:   "compile",
			Message: "event needs a compile function or a native call",
			Code:    ErrEventNoCompile,
		})
	}

	if err := schema.Validate(def.Fields); err != nil {
		errs = append(errs, ValidationError{
			Field:   "fields",
			Message: err.Error(),
			Code:    ErrInvalidFields,
		})
		return errs
	}

	if def.Native != nil && def.Compile == nil {
		errs = append(errs, validateNative(def.Native, def.Fields)...)
	}
	return errs
}

func validateNative(n *NativeCall, fields []schema.FieldSpec) []ValidationError {
	var errs []ValidationError

	if strings.TrimSpace(n.Name) == "" {
		errs = append(errs, ValidationError{
			Field:   "native.name",
			Message: "native name is required",
			Code:    ErrNativeNameEmpty,
		})
	}

	abi := n.abi()
	if abi != ABIStack && abi != ABIRegisters {
		errs = append(errs, ValidationError{
			Field:   "native.abi",
			Message: fmt.Sprintf("unknown ABI %q", n.ABI),
			Code:    ErrNativeInvalidABI,
		})
	}

	// Flatten cannot fail here; schema.Validate already ran.
	flat, _ := schema.Flatten(fields)
	byKey := make(map[string]schema.FieldSpec, len(flat))
	for _, f := range flat {
		byKey[f.Key] = f
	}

	for i, p := range n.Params {
		name := fmt.Sprintf("native.params[%d]", i)
		if p.Kind == ParamConst {
			continue
		}
		want, known := paramFieldTypes[p.Kind]
		if !known {
			errs = append(errs, ValidationError{
				Field:   name,
				Message: fmt.Sprintf("unknown param kind %q", p.Kind),
				Code:    ErrNativeParamKind,
			})
			continue
		}
		f, ok := byKey[p.Field]
		if !ok {
			errs = append(errs, ValidationError{
				Field:   name,
				Message: fmt.Sprintf("no field with key %q", p.Field),
				Code:    ErrNativeUnknownField,
			})
			continue
		}
		if f.Type != want {
			errs = append(errs, ValidationError{
				Field:   name,
				Message: fmt.Sprintf("%s param needs a %s field, %q is %s", p.Kind, want, p.Field, f.Type),
				Code:    ErrNativeParamKind,
			})
			continue
		}
		if abi == ABIRegisters && !registerable(p, f) {
			errs = append(errs, ValidationError{
				Field:   name,
				Message: fmt.Sprintf("%q cannot be passed through a register", p.Field),
				Code:    ErrNativeInvalidABI,
			})
		}
	}

	if n.Result != "" {
		f, ok := byKey[n.Result]
		switch {
		case !ok:
			errs = append(errs, ValidationError{
				Field:   "native.result",
				Message: fmt.Sprintf("no field with key %q", n.Result),
				Code:    ErrNativeUnknownField,
			})
		case f.Type != schema.TypeVariable:
			errs = append(errs, ValidationError{
				Field:   "native.result",
				Message: fmt.Sprintf("result field %q is %s, not variable", n.Result, f.Type),
				Code:    ErrNativeResultNotVar,
			})
		case abi == ABIStack && len(n.Params) > 0:
			// .ARG0 is the stack top; it is gone once the arguments are popped.
			errs = append(errs, ValidationError{
				Field:   "native.result",
				Message: "a stack call with arguments cannot copy .ARG0 after popping them",
				Code:    ErrNativeInvalidABI,
			})
		}
	}
	return errs
}

// registerable reports whether a param can be written into an argument
// register. Actors only have a push primitive.
func registerable(p Param, f schema.FieldSpec) bool {
	switch p.Kind {
	case ParamActor:
		return false
	case ParamUnion:
		for _, t := range f.Types {
			if t == schema.UnionActor {
				return false
			}
		}
	}
	return true
}

// ValidateScript checks every node of script against reg without emitting
// anything. Returns all errors found (does not fail-fast).
func ValidateScript(reg *Registry, script ir.Script) []ValidationError {
	var errs []ValidationError
	validateList(reg, script.Events, "", "events", &errs)
	return errs
}

func validateList(reg *Registry, events []ir.EventNode, parent ir.Path, key string, errs *[]ValidationError) {
	for i, node := range events {
		path := parent.Child(key, i)
		def, ok := reg.Lookup(node.Command)
		if !ok {
			*errs = append(*errs, ValidationError{
				Field:   "command",
				Message: fmt.Sprintf("no event registered with id %q", node.Command),
				Code:    ErrScriptUnknownEvent,
				Path:    string(path),
			})
			continue
		}

		if _, err := schema.ResolveInput(def.Fields, node); err != nil {
			field := "args"
			var m *schema.MismatchError
			if errors.As(err, &m) {
				field = m.Field
			}
			*errs = append(*errs, ValidationError{
				Field:   field,
				Message: err.Error(),
				Code:    ErrScriptFieldMismatch,
				Path:    string(path),
			})
		}

		eventKeys := eventFieldKeys(def.Fields)
		for _, childKey := range node.ChildKeys() {
			if !eventKeys[childKey] {
				*errs = append(*errs, ValidationError{
					Field:   childKey,
					Message: fmt.Sprintf("%s has no events field %q", def.ID, childKey),
					Code:    ErrScriptStrayChildren,
					Path:    string(path),
				})
				continue
			}
			validateList(reg, node.Children[childKey], path, childKey, errs)
		}
	}
}

func eventFieldKeys(fields []schema.FieldSpec) map[string]bool {
	flat, _ := schema.Flatten(fields)
	keys := make(map[string]bool)
	for _, f := range flat {
		if f.Type == schema.TypeEvents {
			keys[f.Key] = true
		}
	}
	return keys
}
