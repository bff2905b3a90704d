package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/eventc/internal/ir"
)

// AssertionError describes a failed assertion with the evidence needed to
// debug it.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	// Trace is the recorded call trace or the assembly, whichever the
	// assertion inspected.
	Trace []string
}

func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "assertion %s failed\n", e.Type)
	fmt.Fprintf(&buf, "  expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  actual:   %s\n", e.Actual)
	if len(e.Trace) > 0 {
		buf.WriteString("\nFull trace:\n")
		for i, line := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s\n", i+1, line)
		}
	}
	return buf.String()
}

// EvaluateAssertions checks every assertion against result and returns the
// failures.
func EvaluateAssertions(result *Result, assertions []Assertion) []error {
	var errs []error
	for _, a := range assertions {
		if err := evaluate(result, a); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func evaluate(result *Result, a Assertion) error {
	switch a.Type {
	case AssertNativesOrder:
		return assertNativesOrder(result, a)
	case AssertNativeCount:
		return assertNativeCount(result, a)
	case AssertCallsContain:
		return assertCallsContain(result, a)
	case AssertOutputContains:
		return assertOutputContains(result, a)
	case AssertStackBalanced:
		return assertStackBalanced(result)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// assertNativesOrder checks that the natives appear in the given relative
// order. Other calls may appear in between.
func assertNativesOrder(result *Result, a Assertion) error {
	natives := result.Natives()
	next := 0
	for _, name := range natives {
		if next < len(a.Natives) && name == a.Natives[next] {
			next++
		}
	}
	if next == len(a.Natives) {
		return nil
	}
	return &AssertionError{
		Type:     AssertNativesOrder,
		Expected: fmt.Sprintf("natives in order: %v", a.Natives),
		Actual:   fmt.Sprintf("%s not found after %v", a.Natives[next], a.Natives[:next]),
		Trace:    natives,
	}
}

func assertNativeCount(result *Result, a Assertion) error {
	count := 0
	for _, name := range result.Natives() {
		if name == a.Native {
			count++
		}
	}
	if count == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertNativeCount,
		Expected: fmt.Sprintf("%d calls to %s", a.Count, a.Native),
		Actual:   fmt.Sprintf("%d calls", count),
		Trace:    result.Natives(),
	}
}

// assertCallsContain checks that the recorded calls contain the lines as a
// contiguous run.
func assertCallsContain(result *Result, a Assertion) error {
	lines := result.Lines()
	if containsRun(lines, a.Lines, func(s string) string { return s }) {
		return nil
	}
	return &AssertionError{
		Type:     AssertCallsContain,
		Expected: fmt.Sprintf("consecutive calls %q", a.Lines),
		Actual:   "not found in call trace",
		Trace:    lines,
	}
}

// assertOutputContains checks that the assembly contains the lines as a
// contiguous run, comparing with runs of whitespace collapsed.
func assertOutputContains(result *Result, a Assertion) error {
	lines := strings.Split(strings.TrimRight(result.Output, "\n"), "\n")
	if containsRun(lines, a.Lines, normalizeSpace) {
		return nil
	}
	return &AssertionError{
		Type:     AssertOutputContains,
		Expected: fmt.Sprintf("consecutive lines %q", a.Lines),
		Actual:   "not found in output",
		Trace:    lines,
	}
}

// assertStackBalanced checks that no prefix of the output pops more than it
// pushed and that the whole output leaves the stack where it started.
func assertStackBalanced(result *Result) error {
	depth := 0
	for i, in := range result.Instructions {
		depth += in.StackEffect()
		if depth < 0 {
			return &AssertionError{
				Type:     AssertStackBalanced,
				Expected: "stack depth never below zero",
				Actual:   fmt.Sprintf("depth %d after instruction %d (%s)", depth, i+1, in.String()),
			}
		}
	}
	if end := ir.StackDepth(result.Instructions); end != 0 {
		return &AssertionError{
			Type:     AssertStackBalanced,
			Expected: "final stack depth 0",
			Actual:   fmt.Sprintf("final stack depth %d", end),
		}
	}
	return nil
}

func containsRun(haystack, needle []string, norm func(string) string) bool {
	if len(needle) == 0 {
		return true
	}
	for start := 0; start+len(needle) <= len(haystack); start++ {
		match := true
		for j, want := range needle {
			if norm(haystack[start+j]) != norm(want) {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
