package dag

import (
	"encoding/json"
	"fmt"
	"os"
)

// maxModelBytes caps the JSON model the loader will read as a single blob.
const maxModelBytes = 10 << 20 // 10 MiB

// jsonNode mirrors the on-disk node schema field-for-field. Fields absent
// for a given kind are simply left zero-valued; the loader does not
// enforce their presence beyond what the kind needs.
type jsonNode struct {
	ID                string             `json:"id"`
	Operation         string             `json:"operation"`
	Inputs            []string           `json:"inputs"`
	Weights           []float64          `json:"weights"`
	ConstantValue     *float64           `json:"constant_value"`
	ConstantStrValue  *string            `json:"constant_str_value"`
	AllowedValues     []float64          `json:"allowed_values"`
	AllowedStrValues  []string           `json:"allowed_str_values"`
	ConditionalValues []jsonConditional  `json:"conditional_values"`
	Metadata          *jsonNodeMetadata  `json:"metadata"`
}

type jsonConditional struct {
	When  string  `json:"when"`
	Value float64 `json:"value"`
}

type jsonNodeMetadata struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	PositionX   float64 `json:"position_x"`
	PositionY   float64 `json:"position_y"`
}

type jsonModel struct {
	Name    string     `json:"name"`
	Version string     `json:"version"`
	Nodes   []jsonNode `json:"nodes"`
}

// Parse parses a JSON model into a Graph. It performs only syntactic
// checks: malformed JSON, unknown operation names, and arity mismatches
// declared directly in the JSON. Graph-level invariants (cycles, dangling
// ids, funnel uniqueness) are the job of Validate, which runs over the
// already-parsed Graph.
func Parse(data []byte) (*Graph, error) {
	if len(data) > maxModelBytes {
		return nil, fmt.Errorf("%w: model exceeds %d byte cap (got %d)", ErrParse, maxModelBytes, len(data))
	}

	var model jsonModel
	if err := json.Unmarshal(data, &model); err != nil {
		if syn, ok := err.(*json.SyntaxError); ok {
			return nil, fmt.Errorf("%w: at byte offset %d: %v", ErrParse, syn.Offset, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	g := &Graph{
		Name:    model.Name,
		Version: model.Version,
		Nodes:   make([]Node, 0, len(model.Nodes)),
	}

	for _, jn := range model.Nodes {
		node, err := convertNode(jn)
		if err != nil {
			return nil, err
		}
		g.Nodes = append(g.Nodes, node)
	}

	return g, nil
}

// ParseFile reads path and calls Parse.
func ParseFile(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("dag: failed to read model %s: %w", path, err)
	}
	return Parse(data)
}

func convertNode(jn jsonNode) (Node, error) {
	kind := Kind(jn.Operation)
	if !knownKinds[kind] {
		return Node{}, fmt.Errorf("%w: node %s declared operation %q", ErrUnknownOperation, jn.ID, jn.Operation)
	}

	if want := arity(kind); want >= 0 && len(jn.Inputs) != want {
		return Node{}, fmt.Errorf("%w: node %s (%s) expects %d input(s), got %d",
			ErrArityMismatch, jn.ID, kind, want, len(jn.Inputs))
	}
	if min, ok := variadicMinKinds[kind]; ok && len(jn.Inputs) < min {
		return Node{}, fmt.Errorf("%w: node %s (%s) expects at least %d inputs, got %d",
			ErrArityMismatch, jn.ID, kind, min, len(jn.Inputs))
	}
	if kind == KindWeightedSum && len(jn.Weights) != len(jn.Inputs) {
		return Node{}, fmt.Errorf("%w: node %s (weighted_sum) has %d inputs but %d weights",
			ErrArityMismatch, jn.ID, len(jn.Inputs), len(jn.Weights))
	}

	node := Node{
		ID:      jn.ID,
		Kind:    kind,
		Inputs:  jn.Inputs,
		Weights: jn.Weights,
	}
	if jn.ConstantValue != nil {
		node.ConstantValue = *jn.ConstantValue
	}
	if jn.ConstantStrValue != nil {
		node.ConstantStrValue = *jn.ConstantStrValue
	}
	node.AllowedValues = jn.AllowedValues
	node.AllowedStrValues = jn.AllowedStrValues
	for _, c := range jn.ConditionalValues {
		node.ConditionalValues = append(node.ConditionalValues, ConditionalCase{When: c.When, Value: c.Value})
	}
	if jn.Metadata != nil {
		node.Metadata = Metadata{
			Name:        jn.Metadata.Name,
			Description: jn.Metadata.Description,
			PositionX:   jn.Metadata.PositionX,
			PositionY:   jn.Metadata.PositionY,
		}
	}

	return node, nil
}

// ToJSON serializes a Graph back into the on-disk model shape. It exists
// mainly for tests and tooling that round-trip a Graph through the parser.
func ToJSON(g *Graph) ([]byte, error) {
	model := jsonModel{Name: g.Name, Version: g.Version}
	for _, n := range g.Nodes {
		jn := jsonNode{
			ID:               n.ID,
			Operation:        string(n.Kind),
			Inputs:           n.Inputs,
			Weights:          n.Weights,
			AllowedValues:    n.AllowedValues,
			AllowedStrValues: n.AllowedStrValues,
		}
		if n.Kind == KindConstantInputNum {
			v := n.ConstantValue
			jn.ConstantValue = &v
		}
		if n.Kind == KindConstantInputStr {
			v := n.ConstantStrValue
			jn.ConstantStrValue = &v
		}
		for _, c := range n.ConditionalValues {
			jn.ConditionalValues = append(jn.ConditionalValues, jsonConditional{When: c.When, Value: c.Value})
		}
		if n.Metadata != (Metadata{}) {
			jn.Metadata = &jsonNodeMetadata{
				Name:        n.Metadata.Name,
				Description: n.Metadata.Description,
				PositionX:   n.Metadata.PositionX,
				PositionY:   n.Metadata.PositionY,
			}
		}
		model.Nodes = append(model.Nodes, jn)
	}
	return json.MarshalIndent(model, "", "  ")
}
