// Package domain defines the core business entities for Triage.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Query: A user question with optional document scope and agent override
//   - AgentKind: The closed set of answering strategies
//   - Decision: The routing outcome for one query
//   - Document and Chunk: Extracted PDF text and its indexed slices
//   - Trace: How an answer was produced
//   - LogEntry: One persisted routing decision
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
