// Package dag defines the node intermediate representation consumed by the
// rest of the pipeline: the JSON loader parses into these types, the
// validator sorts and checks them, the interpreted executor walks them, and
// the code generator renders them into Go source.
package dag

// Kind identifies the closed set of operation tags a Node can carry. The
// tagged form is the only one this loader accepts; the legacy flat form
// ("input", "constant") described in the original source is rejected.
type Kind string

// The closed set of operation kinds. Arity per kind is given by arity()
// and the kind tables below.
const (
	KindDynamicInputNum       Kind = "dynamic_input_num"
	KindDynamicInputStr       Kind = "dynamic_input_str"
	KindConstantInputNum      Kind = "constant_input_num"
	KindConstantInputStr      Kind = "constant_input_str"
	KindConditionalValueInput Kind = "conditional_value_input"
	KindAdd                   Kind = "add"
	KindSubtract              Kind = "subtract"
	KindMultiply              Kind = "multiply"
	KindDivide                Kind = "divide"
	KindPower                 Kind = "power"
	KindModulo                Kind = "modulo"
	KindNegate                Kind = "negate"
	KindAbs                   Kind = "abs"
	KindSqrt                  Kind = "sqrt"
	KindExp                   Kind = "exp"
	KindLog                   Kind = "log"
	KindSin                   Kind = "sin"
	KindCos                   Kind = "cos"
	KindMax                   Kind = "max"
	KindMin                   Kind = "min"
	KindWeightedSum           Kind = "weighted_sum"
	KindClamp                 Kind = "clamp"
	KindFunnel                Kind = "funnel"
)

// binaryKinds, unaryKinds and variadicMinKinds classify kinds by declared
// arity so the loader and validator can enforce it without duplicating the
// table. clamp and weighted_sum are handled separately since their arity is
// either fixed-but-unusual (3) or caller-determined (n, with one weight per
// operand).
var binaryKinds = map[Kind]bool{
	KindAdd:      true,
	KindSubtract: true,
	KindMultiply: true,
	KindDivide:   true,
	KindPower:    true,
	KindModulo:   true,
}

var unaryKinds = map[Kind]bool{
	KindNegate: true,
	KindAbs:    true,
	KindSqrt:   true,
	KindExp:    true,
	KindLog:    true,
	KindSin:    true,
	KindCos:    true,
	KindFunnel: true,
}

var variadicMinKinds = map[Kind]int{
	KindMax: 2,
	KindMin: 2,
}

// knownKinds is the full membership set used by the parser to reject
// anything not in the closed vocabulary.
var knownKinds = func() map[Kind]bool {
	m := map[Kind]bool{
		KindDynamicInputNum:       true,
		KindDynamicInputStr:       true,
		KindConstantInputNum:      true,
		KindConstantInputStr:      true,
		KindConditionalValueInput: true,
		KindWeightedSum:           true,
		KindClamp:                 true,
	}
	for k := range binaryKinds {
		m[k] = true
	}
	for k := range unaryKinds {
		m[k] = true
	}
	for k := range variadicMinKinds {
		m[k] = true
	}
	return m
}()

// ConditionalCase is one entry of a conditional_value_input's ordered
// association list: the literal string key and the number it maps to.
type ConditionalCase struct {
	When  string
	Value float64
}

// Metadata carries the display-only fields the JSON schema allows on every
// node. None of it participates in evaluation; it survives parsing purely
// so tooling (the visual editor, out of scope here) has somewhere to read
// it back from if this package is ever asked to round-trip a graph.
type Metadata struct {
	Name        string
	Description string
	PositionX   float64
	PositionY   float64
}

// Node is the immutable IR record for a single graph node: a stable id, an
// operation kind, its operand references (by id, resolved to slot indices
// later by Validate), and kind-specific payload.
type Node struct {
	ID       string
	Kind     Kind
	Inputs   []string
	Metadata Metadata

	// Payload fields; only the ones relevant to Kind are populated.
	ConstantValue     float64
	ConstantStrValue  string
	AllowedValues     []float64
	AllowedStrValues  []string
	ConditionalValues []ConditionalCase
	Weights           []float64
}

// Graph is an ordered sequence of Node as declared in the source JSON.
// Declaration order is significant: it is the slot index assignment and the
// tie-break order for Validate's topological sort.
type Graph struct {
	Name    string
	Version string
	Nodes   []Node
}

// IndexOf returns the declaration-order slot index of the node with the
// given id, or -1 if no such node exists.
func (g *Graph) IndexOf(id string) int {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return i
		}
	}
	return -1
}

// arity reports the number of operand references operation kind k requires,
// or -1 for variadic kinds whose minimum is enforced separately.
func arity(k Kind) int {
	switch {
	case k == KindDynamicInputNum, k == KindDynamicInputStr,
		k == KindConstantInputNum, k == KindConstantInputStr:
		return 0
	case k == KindConditionalValueInput:
		return 1
	case binaryKinds[k]:
		return 2
	case unaryKinds[k]:
		return 1
	case k == KindClamp:
		return 3
	default:
		return -1
	}
}
