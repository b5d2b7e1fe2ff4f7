package dag_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openpricing/zigdag/dag"
)

func mustParse(t *testing.T, js string) *dag.Graph {
	t.Helper()
	g, err := dag.Parse([]byte(js))
	require.NoError(t, err)
	return g
}

// TestValidateTopologicalCorrectness is Property 1: every operand of a node
// must appear earlier than that node in the execution order.
func TestValidateTopologicalCorrectness(t *testing.T) {
	g := mustParse(t, pricingGraphJSON)
	plan, err := dag.Validate(g)
	require.NoError(t, err)

	position := make(map[int]int, len(plan.Order))
	for pos, slot := range plan.Order {
		position[slot] = pos
	}
	for slot, operands := range plan.OperandIndex {
		for _, operand := range operands {
			assert.Less(t, position[operand], position[slot],
				"operand %d of node %d must be scheduled earlier", operand, slot)
		}
	}
}

// TestValidateFunnelUniqueness is Property 7 (the structural half; the
// evaluation half is asserted in exec).
func TestValidateFunnelUniqueness(t *testing.T) {
	g := mustParse(t, pricingGraphJSON)
	plan, err := dag.Validate(g)
	require.NoError(t, err)
	assert.Equal(t, g.IndexOf("out"), plan.FunnelIndex)
}

// TestValidateOperandIndexStability is Property 6: reordering the JSON
// declaration while preserving operand-id references changes slot indices
// but not which node depends on which.
func TestValidateOperandIndexStability(t *testing.T) {
	reordered := `{
	  "name": "pricing_example", "version": "1.0",
	  "nodes": [
	    {"id": "hundred", "operation": "constant_input_num", "constant_value": 100},
	    {"id": "nome", "operation": "dynamic_input_str"},
	    {"id": "thirty_k", "operation": "constant_input_num", "constant_value": 30000},
	    {"id": "discount", "operation": "dynamic_input_num"},
	    {"id": "k", "operation": "conditional_value_input", "inputs": ["nome"],
	     "conditional_values": [{"when": "tiago", "value": 200}]},
	    {"id": "prod", "operation": "multiply", "inputs": ["k", "hundred"]},
	    {"id": "sum", "operation": "add", "inputs": ["prod", "thirty_k"]},
	    {"id": "quot", "operation": "divide", "inputs": ["sum", "discount"]},
	    {"id": "out", "operation": "funnel", "inputs": ["quot"]}
	  ]
	}`
	g := mustParse(t, reordered)
	plan, err := dag.Validate(g)
	require.NoError(t, err)
	assert.Equal(t, g.IndexOf("out"), plan.FunnelIndex)
	assert.Equal(t, len(g.Nodes)-1, plan.FunnelIndex, "funnel was declared last in this ordering")
}

func TestValidateCycleRejected(t *testing.T) {
	cyclic := `{"name":"x","version":"1","nodes":[
		{"id":"a","operation":"add","inputs":["b","b"]},
		{"id":"b","operation":"negate","inputs":["a"]},
		{"id":"out","operation":"funnel","inputs":["a"]}
	]}`
	g := mustParse(t, cyclic)
	_, err := dag.Validate(g)
	require.Error(t, err)
	assert.ErrorIs(t, err, dag.ErrCycle)
	assert.Contains(t, err.Error(), "a")
	assert.Contains(t, err.Error(), "b")
}

func TestValidateNoFunnel(t *testing.T) {
	g := mustParse(t, `{"name":"x","version":"1","nodes":[{"id":"a","operation":"dynamic_input_num"}]}`)
	_, err := dag.Validate(g)
	require.Error(t, err)
	assert.ErrorIs(t, err, dag.ErrFunnel)
}

func TestValidateMultipleFunnels(t *testing.T) {
	g := mustParse(t, `{"name":"x","version":"1","nodes":[
		{"id":"a","operation":"dynamic_input_num"},
		{"id":"f1","operation":"funnel","inputs":["a"]},
		{"id":"f2","operation":"funnel","inputs":["a"]}
	]}`)
	_, err := dag.Validate(g)
	require.Error(t, err)
	assert.ErrorIs(t, err, dag.ErrFunnel)
}

func TestValidateFunnelMustBeSink(t *testing.T) {
	g := mustParse(t, `{"name":"x","version":"1","nodes":[
		{"id":"a","operation":"dynamic_input_num"},
		{"id":"out","operation":"funnel","inputs":["a"]},
		{"id":"bad","operation":"negate","inputs":["out"]}
	]}`)
	_, err := dag.Validate(g)
	require.Error(t, err)
	assert.ErrorIs(t, err, dag.ErrFunnelNotSink)
}

func TestValidateUnresolvedOperand(t *testing.T) {
	g := mustParse(t, `{"name":"x","version":"1","nodes":[
		{"id":"out","operation":"funnel","inputs":["missing"]}
	]}`)
	_, err := dag.Validate(g)
	require.Error(t, err)
	assert.ErrorIs(t, err, dag.ErrUnresolvedOperand)
}

func TestValidateDuplicateID(t *testing.T) {
	g := mustParse(t, `{"name":"x","version":"1","nodes":[
		{"id":"a","operation":"dynamic_input_num"},
		{"id":"a","operation":"dynamic_input_num"},
		{"id":"out","operation":"funnel","inputs":["a"]}
	]}`)
	_, err := dag.Validate(g)
	require.Error(t, err)
	assert.ErrorIs(t, err, dag.ErrDuplicateID)
}

// TestValidateDeclarationOrderTieBreak exercises the tie-break rule
// directly: two independent dynamic inputs declared in a given order must
// come out in that same relative order when both are ready at step one.
func TestValidateDeclarationOrderTieBreak(t *testing.T) {
	g := mustParse(t, `{"name":"x","version":"1","nodes":[
		{"id":"b","operation":"dynamic_input_num"},
		{"id":"a","operation":"dynamic_input_num"},
		{"id":"s","operation":"add","inputs":["a","b"]},
		{"id":"out","operation":"funnel","inputs":["s"]}
	]}`)
	plan, err := dag.Validate(g)
	require.NoError(t, err)
	// b=0, a=1 are both in-degree zero initially; declaration order puts b
	// (index 0) before a (index 1).
	require.GreaterOrEqual(t, len(plan.Order), 2)
	assert.Equal(t, 0, plan.Order[0])
	assert.Equal(t, 1, plan.Order[1])
}
