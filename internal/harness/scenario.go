package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/eventc/internal/ir"
	"github.com/roach88/eventc/internal/resolve"
)

// Scenario defines a conformance test scenario: one script compiled against
// fixed project tables, with expectations on the result.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Project holds the variable and actor tables the script resolves against.
	Project resolve.Tables `yaml:"project,omitempty"`

	// Self is the actor "$self$" stands for.
	Self string `yaml:"self,omitempty"`

	// Events is the script under test.
	Events []ir.EventNode `yaml:"events"`

	// Expect specifies a compile failure. If nil, compilation must succeed.
	Expect *ExpectClause `yaml:"expect,omitempty"`

	// Assertions validate the compiled output and call trace.
	// Supported types: natives_order, native_count, calls_contain,
	// output_contains, stack_balanced
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// ExpectClause specifies the expected compile failure.
type ExpectClause struct {
	// Error is the expected compile error code, e.g. "UNRESOLVED_ALIAS".
	Error string `yaml:"error"`

	// Path is the expected offending node path, e.g. "events[0].true[1]".
	Path string `yaml:"path,omitempty"`
}

// Assertion validates compiled output or the helper call trace.
type Assertion struct {
	// Type specifies the assertion type.
	Type string `yaml:"type"`

	// Natives is the expected relative order (natives_order).
	Natives []string `yaml:"natives,omitempty"`

	// Native is the native counted (native_count).
	Native string `yaml:"native,omitempty"`

	// Count is the expected number of calls (native_count).
	Count int `yaml:"count,omitempty"`

	// Lines are the expected lines (calls_contain, output_contains).
	Lines []string `yaml:"lines,omitempty"`
}

// Assertion type constants.
const (
	AssertNativesOrder   = "natives_order"
	AssertNativeCount    = "native_count"
	AssertCallsContain   = "calls_contain"
	AssertOutputContains = "output_contains"
	AssertStackBalanced  = "stack_balanced"
)

// Script returns the scenario's events as a script named after it.
func (s *Scenario) Script() ir.Script {
	return ir.Script{Name: s.Name, Self: s.Self, Events: s.Events}
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadScenarios loads every *.yaml and *.yml file in dir, sorted by file
// name. Scenario names must be unique.
func LoadScenarios(dir string) ([]*Scenario, error) {
	var paths []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		paths = append(paths, matches...)
	}
	sort.Strings(paths)

	seen := make(map[string]string, len(paths))
	scenarios := make([]*Scenario, 0, len(paths))
	for _, path := range paths {
		s, err := LoadScenario(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if prev, dup := seen[s.Name]; dup {
			return nil, fmt.Errorf("%s: duplicate scenario name %q (also in %s)", path, s.Name, prev)
		}
		seen[s.Name] = path
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Events) == 0 {
		return fmt.Errorf("events list is required and must be non-empty")
	}

	for i, ev := range s.Events {
		if ev.Command == "" {
			return fmt.Errorf("events[%d]: command is required", i)
		}
	}

	if s.Expect != nil && s.Expect.Error == "" {
		return fmt.Errorf("expect: error is required")
	}

	if s.Expect == nil && len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required when no error is expected")
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertNativesOrder:
		if len(a.Natives) == 0 {
			return fmt.Errorf("assertions[%d]: natives list is required for natives_order", index)
		}
	case AssertNativeCount:
		if a.Native == "" {
			return fmt.Errorf("assertions[%d]: native is required for native_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for native_count", index)
		}
	case AssertCallsContain, AssertOutputContains:
		if len(a.Lines) == 0 {
			return fmt.Errorf("assertions[%d]: lines list is required for %s", index, a.Type)
		}
	case AssertStackBalanced:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
