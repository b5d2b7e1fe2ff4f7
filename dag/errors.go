package dag

import "errors"

// Sentinel errors for the syntactic (loader) and structural (validator)
// failure classes. Callers distinguish them with errors.Is; the wrapped
// message carries the offending id/value.
var (
	// ErrParse indicates the input was not well-formed JSON.
	ErrParse = errors.New("dag: malformed JSON")
	// ErrUnknownOperation indicates a node named an operation outside the
	// closed Kind vocabulary.
	ErrUnknownOperation = errors.New("dag: unknown operation")
	// ErrArityMismatch indicates a node's inputs count did not match its
	// kind's declared arity.
	ErrArityMismatch = errors.New("dag: arity mismatch")
	// ErrDuplicateID indicates two nodes declared the same id.
	ErrDuplicateID = errors.New("dag: duplicate node id")
	// ErrUnresolvedOperand indicates a node referenced an operand id that
	// does not resolve to any node in the graph.
	ErrUnresolvedOperand = errors.New("dag: unresolved operand id")
	// ErrCycle indicates the induced dependency graph is not acyclic.
	ErrCycle = errors.New("dag: cycle detected")
	// ErrFunnel indicates the graph has zero or more than one funnel node.
	ErrFunnel = errors.New("dag: graph must have exactly one funnel node")
	// ErrFunnelNotSink indicates some other node references the funnel node
	// as an operand, which would make it a non-terminal.
	ErrFunnelNotSink = errors.New("dag: funnel node must not be referenced by any other node")
)
