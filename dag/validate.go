package dag

import (
	"fmt"
	"sort"
	"strings"
)

// Plan is the compile-time-computed result of validating and sorting a
// Graph: the execution permutation, the funnel slot, and the precomputed
// operand indices every evaluator (interpreted or generated) consumes
// instead of ever looking ids up by name at run time.
type Plan struct {
	// Order lists slot indices in the order nodes must be evaluated so that
	// every operand is computed before the node that consumes it.
	Order []int

	// FunnelIndex is the slot index of the unique funnel node.
	FunnelIndex int

	// OperandIndex[i] holds the slot indices of node i's operands, in
	// declaration order, resolved once so no id-to-index lookup is ever
	// needed again.
	OperandIndex [][]int

	// NumericInputs and StringInputs list, in declaration order, the slot
	// indices of dynamic_input_num / dynamic_input_str nodes. Together
	// their lengths are the graph's "batch arity" (glossary).
	NumericInputs []int
	StringInputs  []int
}

// Validate runs Kahn's algorithm over g with a declaration-order
// tie-break, checks operand resolution, and enforces funnel uniqueness and
// sink-ness. It is the sole place graph-level structural invariants are
// enforced; Parse never looks at cross-node relationships.
func Validate(g *Graph) (*Plan, error) {
	n := len(g.Nodes)

	idIndex := make(map[string]int, n)
	for i, node := range g.Nodes {
		if _, dup := idIndex[node.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, node.ID)
		}
		idIndex[node.ID] = i
	}

	operandIndex := make([][]int, n)
	referencedBy := make(map[int][]int, n) // operand slot -> dependents
	inDegree := make([]int, n)
	for i, node := range g.Nodes {
		ops := make([]int, 0, len(node.Inputs))
		for _, inputID := range node.Inputs {
			j, ok := idIndex[inputID]
			if !ok {
				return nil, fmt.Errorf("%w: node %s references %q", ErrUnresolvedOperand, node.ID, inputID)
			}
			ops = append(ops, j)
			referencedBy[j] = append(referencedBy[j], i)
		}
		operandIndex[i] = ops
		inDegree[i] = len(ops)
	}

	funnelIndex := -1
	funnelCount := 0
	var funnelIDs []string
	for i, node := range g.Nodes {
		if node.Kind == KindFunnel {
			funnelCount++
			funnelIndex = i
			funnelIDs = append(funnelIDs, node.ID)
		}
	}
	if funnelCount != 1 {
		return nil, fmt.Errorf("%w: found %d (%s)", ErrFunnel, funnelCount, strings.Join(funnelIDs, ", "))
	}
	if len(referencedBy[funnelIndex]) > 0 {
		deps := make([]string, 0, len(referencedBy[funnelIndex]))
		for _, d := range referencedBy[funnelIndex] {
			deps = append(deps, g.Nodes[d].ID)
		}
		return nil, fmt.Errorf("%w: %s is referenced by %s", ErrFunnelNotSink, g.Nodes[funnelIndex].ID, strings.Join(deps, ", "))
	}

	order, ok := kahn(n, inDegree, referencedBy)
	if !ok {
		return nil, cycleError(g, inDegree, referencedBy)
	}

	plan := &Plan{
		Order:        order,
		FunnelIndex:  funnelIndex,
		OperandIndex: operandIndex,
	}
	for i, node := range g.Nodes {
		switch node.Kind {
		case KindDynamicInputNum:
			plan.NumericInputs = append(plan.NumericInputs, i)
		case KindDynamicInputStr:
			plan.StringInputs = append(plan.StringInputs, i)
		}
	}

	return plan, nil
}

// kahn implements Kahn's algorithm: at every step, emit the lowest
// declaration-index node currently at in-degree zero, then decrement the
// in-degree of every node that depends on it. Re-sorting the ready set each
// iteration (rather than using a FIFO queue) is what gives "preserve
// original declaration order among same-cohort nodes" its precise,
// testable meaning: we always pick the earliest-declared zero-in-degree
// node that exists right now, not merely the one discovered earliest by a
// single left-to-right scan.
func kahn(n int, inDegree []int, referencedBy map[int][]int) ([]int, bool) {
	degree := append([]int(nil), inDegree...)

	ready := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if degree[i] == 0 {
			ready = append(ready, i)
		}
	}

	order := make([]int, 0, n)
	for len(ready) > 0 {
		sort.Ints(ready)
		next := ready[0]
		ready = ready[1:]
		order = append(order, next)

		for _, dependent := range referencedBy[next] {
			degree[dependent]--
			if degree[dependent] == 0 {
				ready = append(ready, dependent)
			}
		}
	}

	return order, len(order) == n
}

// cycleError lists every node left unemitted by a Kahn run.
func cycleError(g *Graph, inDegree []int, referencedBy map[int][]int) error {
	degree := append([]int(nil), inDegree...)
	emitted := make([]bool, len(g.Nodes))

	queue := make([]int, 0, len(g.Nodes))
	for i, d := range degree {
		if d == 0 {
			queue = append(queue, i)
		}
	}
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		emitted[i] = true
		for _, dependent := range referencedBy[i] {
			degree[dependent]--
			if degree[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	var stuck []string
	for i, node := range g.Nodes {
		if !emitted[i] {
			stuck = append(stuck, node.ID)
		}
	}
	return fmt.Errorf("%w: %s", ErrCycle, strings.Join(stuck, ", "))
}
