package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// Op identifies an emitted instruction.
type Op string

// Emitted instruction set. The mnemonics follow the target VM's assembler.
const (
	// Presentation only: never changes VM state.
	OpComment Op = "comment" // Text: comment body
	OpNewline Op = "newline" // blank line

	// OpRaw is a lower-trust raw statement. Text is emitted verbatim.
	OpRaw Op = "raw"

	// OpLabel marks a jump target. Args: [label]
	OpLabel Op = "label"

	// Scratch storage, separate from the operand stack.
	OpLocal    Op = ".local"    // Args: [symbol, size]
	OpEndLocal Op = ".endlocal" // Args: [symbol]

	// Operand stack.
	OpPushConst Op = "VM_PUSH_CONST" // Args: [operand]
	OpPushValue Op = "VM_PUSH_VALUE" // Args: [symbol]
	OpPop       Op = "VM_POP"        // Args: [count]

	// Storage writes.
	OpSetConst Op = "VM_SET_CONST" // Args: [dst, operand]
	OpSet      Op = "VM_SET"       // Args: [dst, src]

	// Reverse polish expression block; leaves one value on the stack.
	OpRPN         Op = "VM_RPN"
	OpRPNRef      Op = ".R_REF"      // Args: [symbol]
	OpRPNInt      Op = ".R_INT16"    // Args: [n]
	OpRPNOperator Op = ".R_OPERATOR" // Args: [operator]
	OpRPNStop     Op = ".R_STOP"

	// Native invocation. Args: [bank symbol, function symbol]
	OpCallNative Op = "VM_CALL_NATIVE"

	// Control flow. Args: [suffix, lhs, rhs, label, 0]
	OpIfConst Op = "VM_IF_CONST"
	OpIf      Op = "VM_IF"
	OpJump    Op = "VM_JUMP" // Args: [label]

	// Dialogue.
	OpLoadText    Op = "VM_LOAD_TEXT"    // Args: [argument count]
	OpTextArgs    Op = ".dw"             // Args: symbols referenced by %d
	OpTextString  Op = ".asciz"          // Text: quoted string
	OpDisplayText Op = "VM_DISPLAY_TEXT" // no args
)

// Instruction is a single emitted line.
type Instruction struct {
	Op   Op       `json:"op" yaml:"op"`
	Args []string `json:"args,omitempty" yaml:"args,omitempty"`
	Text string   `json:"text,omitempty" yaml:"text,omitempty"`
}

// StackEffect returns the net change this instruction makes to operand stack depth.
func (in Instruction) StackEffect() int {
	switch in.Op {
	case OpPushConst, OpPushValue:
		return 1
	case OpRPNStop:
		return 1
	case OpPop:
		if len(in.Args) == 0 {
			return 0
		}
		n, err := strconv.Atoi(in.Args[0])
		if err != nil {
			return 0
		}
		return -n
	default:
		return 0
	}
}

// IsPresentation reports whether the instruction is a comment or blank line.
func (in Instruction) IsPresentation() bool {
	return in.Op == OpComment || in.Op == OpNewline
}

// NativeName returns the native name for a VM_CALL_NATIVE instruction.
func (in Instruction) NativeName() (string, bool) {
	if in.Op != OpCallNative || len(in.Args) < 2 {
		return "", false
	}
	return strings.TrimPrefix(in.Args[1], "_"), true
}

const (
	indent    = "        "
	rpnIndent = "            "
)

// String renders the instruction as one line of assembly.
func (in Instruction) String() string {
	switch in.Op {
	case OpComment:
		return indent + "; " + in.Text
	case OpNewline:
		return ""
	case OpRaw:
		return indent + in.Text
	case OpLabel:
		return in.Args[0] + ":"
	case OpRPNRef, OpRPNInt, OpRPNOperator, OpRPNStop:
		return strings.TrimRight(rpnIndent+string(in.Op)+" "+strings.Join(in.Args, ", "), " ")
	case OpTextString:
		return indent + string(in.Op) + " " + in.Text
	case OpLocal, OpEndLocal, OpTextArgs:
		return indent + string(in.Op) + " " + strings.Join(in.Args, ", ")
	}
	if len(in.Args) == 0 {
		return indent + string(in.Op)
	}
	return fmt.Sprintf("%s%-24s%s", indent, in.Op, strings.Join(in.Args, ", "))
}

// Format renders a sequence of instructions as assembly text, one per line.
func Format(instructions []Instruction) string {
	var b strings.Builder
	for _, in := range instructions {
		b.WriteString(in.String())
		b.WriteByte('\n')
	}
	return b.String()
}

// StackDepth sums the stack effects of a sequence of instructions.
func StackDepth(instructions []Instruction) int {
	depth := 0
	for _, in := range instructions {
		depth += in.StackEffect()
	}
	return depth
}
