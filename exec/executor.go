// Package exec provides the interpreted reference executor for a validated
// graph. It dispatches on Kind at run time via a switch statement, rather
// than the fully unrolled, index-only straight-line code the codegen
// package emits for production use. Its evaluation semantics are the
// reference the generated code's templates follow; no test in this
// repository runs generated code against it.
package exec

import (
	"errors"
	"fmt"
	"math"

	"github.com/openpricing/zigdag/dag"
)

// Sentinel runtime errors. These are the only two errors that can occur
// once a graph has passed Validate; every structural problem was already
// eliminated at specialization time.
var (
	ErrUnknownInput    = errors.New("exec: unknown dynamic input")
	ErrMappingNotFound = errors.New("exec: conditional mapping key not found")
)

// Executor holds one value slot per node, indexed by declaration order (not
// topological order — that permutation lives separately in Plan.Order).
// Constructing one allocates the slot array and the string table (one
// entry per node); SetInput*/GetOutput* write into those in place and
// allocate nothing further on success.
type Executor struct {
	graph *dag.Graph
	plan  *dag.Plan

	slots   []float64
	strings []string // one slot per node; populated lazily for string-valued nodes
}

// New constructs an Executor bound to graph g using the precomputed plan
// from dag.Validate. All slots start zeroed.
func New(g *dag.Graph, plan *dag.Plan) *Executor {
	return &Executor{
		graph:   g,
		plan:    plan,
		slots:   make([]float64, len(g.Nodes)),
		strings: make([]string, len(g.Nodes)),
	}
}

// SetInputNum writes value into the slot of the dynamic_input_num node
// identified by id.
func (e *Executor) SetInputNum(id string, value float64) error {
	idx := e.graph.IndexOf(id)
	if idx < 0 || e.graph.Nodes[idx].Kind != dag.KindDynamicInputNum {
		return fmt.Errorf("%w: %s", ErrUnknownInput, id)
	}
	e.slots[idx] = value
	return nil
}

// SetInputStr writes value into the slot of the dynamic_input_str node
// identified by id.
func (e *Executor) SetInputStr(id string, value string) error {
	idx := e.graph.IndexOf(id)
	if idx < 0 || e.graph.Nodes[idx].Kind != dag.KindDynamicInputStr {
		return fmt.Errorf("%w: %s", ErrUnknownInput, id)
	}
	e.strings[idx] = value
	return nil
}

// GetOutput runs full evaluation and returns the funnel node's slot.
func (e *Executor) GetOutput() (float64, error) {
	if err := e.evaluate(); err != nil {
		return 0, err
	}
	return e.slots[e.plan.FunnelIndex], nil
}

// GetOutputByID runs full evaluation and returns the named node's slot,
// for introspection.
func (e *Executor) GetOutputByID(id string) (float64, error) {
	idx := e.graph.IndexOf(id)
	if idx < 0 {
		return 0, fmt.Errorf("%w: %s", ErrUnknownInput, id)
	}
	if err := e.evaluate(); err != nil {
		return 0, err
	}
	return e.slots[idx], nil
}

// evaluate walks Plan.Order and writes every non-input node's result into
// its own slot. Dynamic/constant input slots are left as whatever
// SetInput*/the embedded constant already put there.
func (e *Executor) evaluate() error {
	for _, slot := range e.plan.Order {
		node := &e.graph.Nodes[slot]
		operands := e.plan.OperandIndex[slot]

		switch node.Kind {
		case dag.KindDynamicInputNum, dag.KindDynamicInputStr:
			// Value already resident from SetInput*; nothing to compute.
		case dag.KindConstantInputNum:
			e.slots[slot] = node.ConstantValue
		case dag.KindConstantInputStr:
			// Placeholder value: observable only if a constant_input_str
			// slot is read by something other than conditional_value_input.
			// Propagates rather than erroring. The string itself goes into
			// the string table so a conditional_value_input can look it up.
			e.slots[slot] = 0.0
			e.strings[slot] = node.ConstantStrValue
		case dag.KindConditionalValueInput:
			key := e.strings[operands[0]]
			found := false
			for _, c := range node.ConditionalValues {
				if c.When == key {
					e.slots[slot] = c.Value
					found = true
					break
				}
			}
			if !found {
				return fmt.Errorf("%w: node %s key %q", ErrMappingNotFound, node.ID, key)
			}
		case dag.KindAdd:
			e.slots[slot] = e.slots[operands[0]] + e.slots[operands[1]]
		case dag.KindSubtract:
			e.slots[slot] = e.slots[operands[0]] - e.slots[operands[1]]
		case dag.KindMultiply:
			e.slots[slot] = e.slots[operands[0]] * e.slots[operands[1]]
		case dag.KindDivide:
			e.slots[slot] = e.slots[operands[0]] / e.slots[operands[1]]
		case dag.KindPower:
			e.slots[slot] = math.Pow(e.slots[operands[0]], e.slots[operands[1]])
		case dag.KindModulo:
			e.slots[slot] = math.Mod(e.slots[operands[0]], e.slots[operands[1]])
		case dag.KindNegate:
			e.slots[slot] = -e.slots[operands[0]]
		case dag.KindAbs:
			e.slots[slot] = math.Abs(e.slots[operands[0]])
		case dag.KindSqrt:
			e.slots[slot] = math.Sqrt(e.slots[operands[0]])
		case dag.KindExp:
			e.slots[slot] = math.Exp(e.slots[operands[0]])
		case dag.KindLog:
			e.slots[slot] = math.Log(e.slots[operands[0]])
		case dag.KindSin:
			e.slots[slot] = math.Sin(e.slots[operands[0]])
		case dag.KindCos:
			e.slots[slot] = math.Cos(e.slots[operands[0]])
		case dag.KindMax:
			m := e.slots[operands[0]]
			for _, op := range operands[1:] {
				if e.slots[op] > m {
					m = e.slots[op]
				}
			}
			e.slots[slot] = m
		case dag.KindMin:
			m := e.slots[operands[0]]
			for _, op := range operands[1:] {
				if e.slots[op] < m {
					m = e.slots[op]
				}
			}
			e.slots[slot] = m
		case dag.KindWeightedSum:
			var sum float64
			for i, op := range operands {
				sum += e.slots[op] * node.Weights[i]
			}
			e.slots[slot] = sum
		case dag.KindClamp:
			v, lo, hi := e.slots[operands[0]], e.slots[operands[1]], e.slots[operands[2]]
			e.slots[slot] = math.Min(math.Max(v, lo), hi)
		case dag.KindFunnel:
			e.slots[slot] = e.slots[operands[0]]
		default:
			return fmt.Errorf("exec: unhandled kind %q for node %s", node.Kind, node.ID)
		}
	}
	return nil
}
