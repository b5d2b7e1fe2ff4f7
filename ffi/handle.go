// Package ffi exposes a validated graph through two surfaces: an
// opaque-handle Go API usable by any caller linking this package directly
// (tested by ffi_test.go, which cgo entry points cannot be), and the cgo
// C-ABI boundary in export.go. export.go exports only the thread-local
// convenience path (one Handle per calling OS thread) plus the batch call,
// and is a thin adapter over this file; the opaque-handle path is this
// Go API and has no C-ABI export.
package ffi

import (
	"fmt"

	"github.com/openpricing/zigdag/dag"
	"github.com/openpricing/zigdag/exec"
)

// InputKind classifies a dynamic input by its value type, mirroring the
// C-ABI InputMeta.Type field.
type InputKind int

const (
	// InputKindNumeric marks a dynamic_input_num node.
	InputKindNumeric InputKind = 0
	// InputKindString marks a dynamic_input_str node.
	InputKindString InputKind = 1
)

// InputMeta describes one dynamic input: its id, kind, and its position
// within its type class (the column index the batch call expects it at).
type InputMeta struct {
	ID    string
	Kind  InputKind
	Index int
}

// Model bundles a validated graph with its plan and precomputed input
// metadata. It is the compile-time-known unit the rest of ffi is
// parameterized by; building one runs Validate exactly once.
type Model struct {
	Graph  *dag.Graph
	Plan   *dag.Plan
	Inputs []InputMeta
}

// NewModel validates g and precomputes its input metadata.
func NewModel(g *dag.Graph) (*Model, error) {
	plan, err := dag.Validate(g)
	if err != nil {
		return nil, err
	}

	m := &Model{Graph: g, Plan: plan}
	for i, slot := range plan.NumericInputs {
		m.Inputs = append(m.Inputs, InputMeta{ID: g.Nodes[slot].ID, Kind: InputKindNumeric, Index: i})
	}
	for i, slot := range plan.StringInputs {
		m.Inputs = append(m.Inputs, InputMeta{ID: g.Nodes[slot].ID, Kind: InputKindString, Index: i})
	}
	return m, nil
}

// NodeCount returns the compile-time-known node count.
func (m *Model) NodeCount() int { return len(m.Graph.Nodes) }

// NodeID returns the id of the node at declaration index, or an error if
// index is out of range.
func (m *Model) NodeID(index int) (string, error) {
	if index < 0 || index >= len(m.Graph.Nodes) {
		return "", fmt.Errorf("ffi: node index %d out of range [0,%d)", index, len(m.Graph.Nodes))
	}
	return m.Graph.Nodes[index].ID, nil
}

// IsDynamicInput reports whether id names a dynamic_input_num or
// dynamic_input_str node. ok is false when id does not exist.
func (m *Model) IsDynamicInput(id string) (isDynamic bool, ok bool) {
	idx := m.Graph.IndexOf(id)
	if idx < 0 {
		return false, false
	}
	k := m.Graph.Nodes[idx].Kind
	return k == dag.KindDynamicInputNum || k == dag.KindDynamicInputStr, true
}

// DynamicInputIDs returns the ids of every dynamic input, in declaration
// order.
func (m *Model) DynamicInputIDs() []string {
	ids := make([]string, 0, len(m.Inputs))
	for _, node := range m.Graph.Nodes {
		if node.Kind == dag.KindDynamicInputNum || node.Kind == dag.KindDynamicInputStr {
			ids = append(ids, node.ID)
		}
	}
	return ids
}

// Handle is a single evaluation context over a Model: the opaque-handle
// equivalent of exec.Executor, exposed here so Go callers (and the
// cgo layer) don't need to depend on package exec directly.
type Handle struct {
	model *Model
	exec  *exec.Executor
}

// NewHandle constructs a zero-initialized handle bound to m.
func NewHandle(m *Model) *Handle {
	return &Handle{model: m, exec: exec.New(m.Graph, m.Plan)}
}

// Free releases a handle. It is a no-op in Go (the garbage collector
// reclaims the Executor); the method exists for symmetry with the C ABI's
// new_executor/free_executor pairing described in the design notes, and so
// callers following that idiom compile unchanged if this package is later
// backed by manually managed memory.
func (h *Handle) Free() {}

// SetNum sets the value of the numeric dynamic input named id.
func (h *Handle) SetNum(id string, value float64) error {
	if err := h.exec.SetInputNum(id, value); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

// SetStr sets the value of the string dynamic input named id.
func (h *Handle) SetStr(id string, value string) error {
	if err := h.exec.SetInputStr(id, value); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

// Eval evaluates the graph and returns the funnel node's value.
func (h *Handle) Eval() (float64, error) {
	return h.exec.GetOutput()
}

// EvalNode evaluates the graph and returns the named node's value.
func (h *Handle) EvalNode(id string) (float64, error) {
	return h.exec.GetOutputByID(id)
}
