package resolve

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/roach88/eventc/internal/ir"
)

// Well-known handles.
const (
	LastVariable = "LAST_VARIABLE"
	SelfActor    = "$self$"
	PlayerActor  = "player"
)

// DefaultMaxVariables bounds numeric global variable handles.
const DefaultMaxVariables = 512

// Tables is the project data a ProjectResolver resolves against.
type Tables struct {
	// Variables maps handles to explicit alias symbols.
	Variables map[string]string `json:"variables,omitempty" yaml:"variables,omitempty"`
	// Actors maps actor ids to runtime indexes.
	Actors map[string]int64 `json:"actors,omitempty" yaml:"actors,omitempty"`
	// LastVariable is the handle LAST_VARIABLE stands for.
	LastVariable string `json:"lastVariable,omitempty" yaml:"lastVariable,omitempty"`
	// MaxVariables bounds numeric handles; zero means DefaultMaxVariables.
	MaxVariables int `json:"maxVariables,omitempty" yaml:"maxVariables,omitempty"`
}

var (
	numericHandle = regexp.MustCompile(`^[0-9]+$`)
	localHandle   = regexp.MustCompile(`^L([0-5])$`)
	tempHandle    = regexp.MustCompile(`^T([01])$`)
)

// ProjectResolver resolves handles against a project's tables.
type ProjectResolver struct {
	tables Tables
	self   string
}

// New returns a resolver over tables.
func New(tables Tables) *ProjectResolver {
	return &ProjectResolver{tables: tables}
}

// WithSelf returns a copy whose $self$ actor is id.
func (r *ProjectResolver) WithSelf(id string) *ProjectResolver {
	cp := *r
	cp.self = id
	return &cp
}

// VariableAlias maps a handle to its storage symbol.
//
//	LAST_VARIABLE    resolved again through Tables.LastVariable
//	table entry      the explicit alias
//	n                VAR_VARIABLE_n, for 0 <= n < MaxVariables
//	L0..L5           .LOCAL_L0.. (script locals)
//	T0..T1           .LOCAL_T0.. (script temporaries)
func (r *ProjectResolver) VariableAlias(handle string) (string, error) {
	return r.variableAlias(handle, false)
}

func (r *ProjectResolver) variableAlias(handle string, viaSentinel bool) (string, error) {
	if handle == LastVariable {
		if viaSentinel {
			return "", &UnresolvedError{Kind: KindVariable, Handle: handle, Reason: "last variable refers to itself"}
		}
		if r.tables.LastVariable == "" {
			return "", &UnresolvedError{Kind: KindVariable, Handle: handle, Reason: "project has no last variable"}
		}
		return r.variableAlias(r.tables.LastVariable, true)
	}
	if alias, ok := r.tables.Variables[handle]; ok && alias != "" {
		return alias, nil
	}
	if numericHandle.MatchString(handle) {
		n, err := strconv.Atoi(handle)
		if err != nil || n >= r.maxVariables() {
			return "", &UnresolvedError{Kind: KindVariable, Handle: handle, Reason: fmt.Sprintf("outside 0..%d", r.maxVariables()-1)}
		}
		return fmt.Sprintf("VAR_VARIABLE_%d", n), nil
	}
	if m := localHandle.FindStringSubmatch(handle); m != nil {
		return ".LOCAL_L" + m[1], nil
	}
	if m := tempHandle.FindStringSubmatch(handle); m != nil {
		return ".LOCAL_T" + m[1], nil
	}
	return "", &UnresolvedError{Kind: KindVariable, Handle: handle}
}

func (r *ProjectResolver) maxVariables() int {
	if r.tables.MaxVariables > 0 {
		return r.tables.MaxVariables
	}
	return DefaultMaxVariables
}

// ActorIndex maps an actor id to its runtime index. The player is always 0.
func (r *ProjectResolver) ActorIndex(id string) (int64, error) {
	if id == SelfActor {
		if r.self == "" || r.self == SelfActor {
			return 0, &UnresolvedError{Kind: KindActor, Handle: id, Reason: "script has no owning actor"}
		}
		id = r.self
	}
	if id == PlayerActor {
		return 0, nil
	}
	if idx, ok := r.tables.Actors[id]; ok {
		return idx, nil
	}
	if numericHandle.MatchString(id) {
		n, err := strconv.ParseInt(id, 10, 64)
		if err == nil {
			return n, nil
		}
	}
	return 0, &UnresolvedError{Kind: KindActor, Handle: id}
}

// Fingerprint identifies the tables for cache keys. The owning actor is
// excluded; scripts carry it themselves.
func (r *ProjectResolver) Fingerprint() (string, error) {
	vars := make(ir.Object, len(r.tables.Variables))
	for k, v := range r.tables.Variables {
		vars[k] = ir.String(v)
	}
	actors := make(ir.Object, len(r.tables.Actors))
	for k, v := range r.tables.Actors {
		actors[k] = ir.Int(v)
	}
	return ir.Fingerprint(ir.DomainResolver, ir.Object{
		"variables":     vars,
		"actors":        actors,
		"last_variable": ir.String(r.tables.LastVariable),
		"max_variables": ir.Int(r.maxVariables()),
	})
}
