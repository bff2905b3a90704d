// Package harness runs conformance scenarios against the event compiler.
//
// A scenario is a YAML file holding one script of events, the project tables
// it resolves against, and the expectations its compilation must meet.
//
// # Scenario Format
//
//	name: paint_tile
//	description: "Arguments are pushed last first"
//	project:
//	  variables: {score: VAR_SCORE}
//	  actors: {npc: 3}
//	self: npc
//	events:
//	  - command: EVENT_PAINT_TILE
//	    args: {x: 3, y: 4}
//	expect:
//	  error: UNRESOLVED_ALIAS
//	assertions:
//	  - type: natives_order
//	    natives: [vm_paint]
//
// # Assertion Types
//
//   - natives_order: the natives are called in this relative order
//   - native_count: a native is called exactly count times
//   - calls_contain: the recorded helper calls contain these lines in a row
//   - output_contains: the assembly contains these lines, whitespace-insensitive
//   - stack_balanced: the operand stack never goes negative and ends at zero
//
// # Execution
//
// Each scenario compiles twice: once through emit.Writer for the assembly
// and once through testutil.Recorder for the helper call trace. Both runs
// use the same resolver, so they fail or succeed together.
//
// Golden files hold the assembly and live under testdata/golden. Regenerate
// them with:
//
//	go test ./internal/harness -update
package harness
