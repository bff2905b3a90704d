package ir

import (
	"fmt"
	"strconv"
)

// OperandKind distinguishes integer literals from symbolic references.
type OperandKind int

const (
	// KindInt is an integer literal.
	KindInt OperandKind = iota
	// KindSym is a symbol: a variable alias, a local, or a register like .ARG0.
	KindSym
)

// Operand is a single instruction argument.
type Operand struct {
	Kind OperandKind
	N    int64
	Sym  string
}

// IntOperand returns an integer literal operand.
func IntOperand(n int64) Operand {
	return Operand{Kind: KindInt, N: n}
}

// Sym returns a symbolic operand.
func Sym(name string) Operand {
	return Operand{Kind: KindSym, Sym: name}
}

// String renders the operand as assembly text.
func (o Operand) String() string {
	if o.Kind == KindInt {
		return strconv.FormatInt(o.N, 10)
	}
	return o.Sym
}

// Registers the native ABI reads and writes directly.
const (
	// RegResult is the reserved slot natives publish their result through.
	RegResult = ".ARG0"
)

// Arg returns the name of the i-th argument register (.ARG0, .ARG1, ...).
func Arg(i int) string {
	return ".ARG" + strconv.Itoa(i)
}

// Comparison is one of the six comparison operators events may use.
type Comparison string

const (
	EQ  Comparison = "=="
	NE  Comparison = "!="
	LT  Comparison = "<"
	GT  Comparison = ">"
	LTE Comparison = "<="
	GTE Comparison = ">="
)

// comparisonSuffixes maps every operator to its VM opcode suffix.
var comparisonSuffixes = map[Comparison]string{
	EQ:  ".EQ",
	NE:  ".NE",
	LT:  ".LT",
	GT:  ".GT",
	LTE: ".LTE",
	GTE: ".GTE",
}

// Comparisons lists the operator vocabulary in a stable order.
var Comparisons = []Comparison{EQ, NE, LT, GT, LTE, GTE}

// Suffix returns the opcode suffix for the operator.
// ok is false for values outside the vocabulary.
func (c Comparison) Suffix() (suffix string, ok bool) {
	suffix, ok = comparisonSuffixes[c]
	return suffix, ok
}

// ParseComparison accepts either an operator ("<=") or its suffix (".LTE").
func ParseComparison(s string) (Comparison, error) {
	if _, ok := comparisonSuffixes[Comparison(s)]; ok {
		return Comparison(s), nil
	}
	for op, suffix := range comparisonSuffixes {
		if suffix == s {
			return op, nil
		}
	}
	return "", fmt.Errorf("unknown comparison operator %q", s)
}
