package codegen

import (
	"fmt"
	"strings"

	"github.com/openpricing/zigdag/dag"
)

// nodeIR is the per-node data a template needs to emit one line of
// straight-line Go: its slot variable name, its kind, and whatever
// operand variable names or literal payload the kind requires. Keeping
// this flat (no method calls from inside the template) mirrors the
// teacher's irGraph/agentNode/transformNode shape, where every field a
// template touches is precomputed in Go rather than derived in the
// template language.
type nodeIR struct {
	Slot       string // Go identifier for this node's value, e.g. "n3"
	ID         string
	Kind       dag.Kind
	Operands   []string // Go identifiers of operand slots, in order
	Const      float64
	ConstStr   string
	Cases      []conditionalCaseIR
	Weights    []float64
	IsDynNum   bool
	IsDynStr   bool
	IsFunnel   bool
	IsConst    bool
	IsConstStr bool
}

type conditionalCaseIR struct {
	When  string
	Value float64
}

// graphIR is the complete template-data root for both nodes.go and
// executor.go generation.
type graphIR struct {
	PackageName   string
	GraphName     string
	Nodes         []nodeIR // in topological (evaluation) order
	DeclIDs       []string // node ids in declaration order, for introspection
	FunnelSlot    string
	NumericInputs []inputIR
	StringInputs  []inputIR
	UsesMath      bool // true if any node needs the math package
	UsesMaxMin    bool // true if any node needs the zigdagMax2/zigdagMin2 helpers
}

type inputIR struct {
	ID   string
	Slot string
}

func slotName(declIndex int) string {
	return fmt.Sprintf("n%d", declIndex)
}

// buildIR turns a validated graph and its plan into the flat structure
// templates render from. It never touches text/template itself.
func buildIR(g *dag.Graph, plan *dag.Plan, pkgName string) (*graphIR, error) {
	ir := &graphIR{
		PackageName: pkgName,
		GraphName:   g.Name,
		Nodes:       make([]nodeIR, 0, len(g.Nodes)),
	}

	// Nodes must be emitted in evaluation (topological) order, plan.Order,
	// not declaration order: straight-line generated code computes each
	// operand before the statement that consumes it.
	for _, slot := range plan.Order {
		node := &g.Nodes[slot]
		operandSlots := plan.OperandIndex[slot]
		operandNames := make([]string, len(operandSlots))
		for i, op := range operandSlots {
			operandNames[i] = slotName(op)
		}

		n := nodeIR{
			Slot:     slotName(slot),
			ID:       node.ID,
			Kind:     node.Kind,
			Operands: operandNames,
			Weights:  node.Weights,
		}

		switch node.Kind {
		case dag.KindDynamicInputNum:
			n.IsDynNum = true
		case dag.KindDynamicInputStr:
			n.IsDynStr = true
		case dag.KindConstantInputNum:
			n.IsConst = true
			n.Const = node.ConstantValue
		case dag.KindConstantInputStr:
			n.IsConstStr = true
			n.ConstStr = node.ConstantStrValue
		case dag.KindConditionalValueInput:
			for _, c := range node.ConditionalValues {
				n.Cases = append(n.Cases, conditionalCaseIR{When: c.When, Value: c.Value})
			}
		case dag.KindFunnel:
			n.IsFunnel = true
			ir.FunnelSlot = n.Slot
		}

		switch node.Kind {
		case dag.KindPower, dag.KindModulo, dag.KindAbs, dag.KindSqrt, dag.KindExp,
			dag.KindLog, dag.KindSin, dag.KindCos, dag.KindClamp:
			ir.UsesMath = true
		case dag.KindMax, dag.KindMin:
			ir.UsesMaxMin = true
		}

		ir.Nodes = append(ir.Nodes, n)
	}

	for _, slot := range plan.NumericInputs {
		ir.NumericInputs = append(ir.NumericInputs, inputIR{ID: g.Nodes[slot].ID, Slot: slotName(slot)})
	}
	for _, slot := range plan.StringInputs {
		ir.StringInputs = append(ir.StringInputs, inputIR{ID: g.Nodes[slot].ID, Slot: slotName(slot)})
	}

	ir.DeclIDs = make([]string, len(g.Nodes))
	for i, node := range g.Nodes {
		ir.DeclIDs[i] = node.ID
	}

	return ir, nil
}

// pyIdentifier turns a node id into a valid Python identifier for the
// generated binding's keyword arguments, replacing runs of non-word
// characters with underscores.
func pyIdentifier(id string) string {
	var b strings.Builder
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := b.String()
	if out == "" || (out[0] >= '0' && out[0] <= '9') {
		out = "_" + out
	}
	return out
}
