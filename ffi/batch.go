package ffi

import (
	"errors"
	"fmt"

	"github.com/openpricing/zigdag/exec"
)

func isMappingNotFound(err error) bool {
	return errors.Is(err, exec.ErrMappingNotFound)
}

func isUnknownNode(err error) bool {
	return errors.Is(err, exec.ErrUnknownInput)
}

func isRowWidthMismatch(err error) bool {
	return errors.Is(err, ErrRowWidthMismatch)
}

// ErrRowWidthMismatch is returned by EvalBatch when a row's column count
// does not match the model's compile-time-known numeric/string input
// count — the batch arity mismatch the C ABI reports as StatusInputCountMismatch.
var ErrRowWidthMismatch = errors.New("ffi: batch row width mismatch")

// BatchInputs is one row of a batch evaluation: values for every numeric
// dynamic input, in Model.Plan.NumericInputs order, and every string
// dynamic input, in Model.Plan.StringInputs order.
type BatchInputs struct {
	Numeric []float64
	String  []string
}

// EvalBatch evaluates m once per row of rows, allocating one Handle per
// call and reusing it for every row (each row sets every dynamic input
// before evaluating). The batch path never touches the thread-local
// handle table in export.go: it is reentrant by construction, matching
// the "no shared state across calls" contract for calculate_final_node_price_batch.
func EvalBatch(m *Model, rows []BatchInputs) ([]float64, error) {
	out := make([]float64, len(rows))
	h := NewHandle(m)
	for i, row := range rows {
		if len(row.Numeric) != len(m.Plan.NumericInputs) {
			return nil, fmt.Errorf("%w: row %d: got %d numeric inputs, want %d", ErrRowWidthMismatch, i, len(row.Numeric), len(m.Plan.NumericInputs))
		}
		if len(row.String) != len(m.Plan.StringInputs) {
			return nil, fmt.Errorf("%w: row %d: got %d string inputs, want %d", ErrRowWidthMismatch, i, len(row.String), len(m.Plan.StringInputs))
		}

		for j, slot := range m.Plan.NumericInputs {
			if err := h.SetNum(m.Graph.Nodes[slot].ID, row.Numeric[j]); err != nil {
				return nil, fmt.Errorf("ffi: batch row %d: %w", i, err)
			}
		}
		for j, slot := range m.Plan.StringInputs {
			if err := h.SetStr(m.Graph.Nodes[slot].ID, row.String[j]); err != nil {
				return nil, fmt.Errorf("ffi: batch row %d: %w", i, err)
			}
		}
		v, err := h.Eval()
		if err != nil {
			return nil, fmt.Errorf("ffi: batch row %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}
