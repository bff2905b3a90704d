// Package ir provides the foundational types shared by every eventc package.
//
// This package contains type definitions only. All other internal packages
// import ir; ir imports nothing internal. This keeps the stored event model
// and the emitted instruction model at the bottom of the dependency graph.
//
// Two halves live here:
//   - Stored model: Value, EventNode and Script describe what a project file
//     holds (event instances with their saved field values and child lists).
//   - Emitted model: Operand, Comparison, Op and Instruction describe what the
//     compiler produces for the stack VM.
//
// Key design constraints:
//   - NO float types anywhere - stored numbers are int64, the VM has no floats
//   - Canonical JSON (MarshalCanonical) is the only serialization used for
//     content hashes
//   - Instructions are plain data; formatting to assembly happens in Format
package ir
