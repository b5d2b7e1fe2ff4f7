package exec_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openpricing/zigdag/dag"
	"github.com/openpricing/zigdag/exec"
)

const pricingGraphJSON = `{
  "name": "pricing_example",
  "version": "1.0",
  "nodes": [
    {"id": "nome", "operation": "dynamic_input_str"},
    {"id": "discount", "operation": "dynamic_input_num"},
    {"id": "k", "operation": "conditional_value_input", "inputs": ["nome"],
     "conditional_values": [
       {"when": "tiago", "value": 200},
       {"when": "ben", "value": 400},
       {"when": "test", "value": 100},
       {"when": "zefaria", "value": 400}
     ]},
    {"id": "hundred", "operation": "constant_input_num", "constant_value": 100},
    {"id": "thirty_k", "operation": "constant_input_num", "constant_value": 30000},
    {"id": "prod", "operation": "multiply", "inputs": ["k", "hundred"]},
    {"id": "sum", "operation": "add", "inputs": ["prod", "thirty_k"]},
    {"id": "quot", "operation": "divide", "inputs": ["sum", "discount"]},
    {"id": "out", "operation": "funnel", "inputs": ["quot"]}
  ]
}`

func buildPricing(t *testing.T) (*dag.Graph, *dag.Plan) {
	t.Helper()
	g, err := dag.Parse([]byte(pricingGraphJSON))
	require.NoError(t, err)
	plan, err := dag.Validate(g)
	require.NoError(t, err)
	return g, plan
}

// TestScenario1PricingExamples runs the worked pricing examples end to end.
func TestScenario1PricingExamples(t *testing.T) {
	g, plan := buildPricing(t)

	cases := []struct {
		name     string
		discount float64
		want     float64
	}{
		{"tiago", 10, 5000},
		{"zefaria", 20, 3500},
		{"test", 5, 8000},
	}
	for _, c := range cases {
		e := exec.New(g, plan)
		require.NoError(t, e.SetInputStr("nome", c.name))
		require.NoError(t, e.SetInputNum("discount", c.discount))
		got, err := e.GetOutput()
		require.NoError(t, err)
		assert.InDelta(t, c.want, got, 1e-9)
	}
}

// TestScenario2Add covers a plain two-input add.
func TestScenario2Add(t *testing.T) {
	g, err := dag.Parse([]byte(`{"name":"x","version":"1","nodes":[
		{"id":"a","operation":"dynamic_input_num"},
		{"id":"b","operation":"dynamic_input_num"},
		{"id":"s","operation":"add","inputs":["a","b"]},
		{"id":"out","operation":"funnel","inputs":["s"]}
	]}`))
	require.NoError(t, err)
	plan, err := dag.Validate(g)
	require.NoError(t, err)

	e := exec.New(g, plan)
	require.NoError(t, e.SetInputNum("a", 1.5))
	require.NoError(t, e.SetInputNum("b", 2.5))
	got, err := e.GetOutput()
	require.NoError(t, err)
	assert.Equal(t, 4.0, got)
}

// TestScenario3WeightedSum covers a three-input weighted_sum.
func TestScenario3WeightedSum(t *testing.T) {
	g, err := dag.Parse([]byte(`{"name":"x","version":"1","nodes":[
		{"id":"a","operation":"dynamic_input_num"},
		{"id":"b","operation":"dynamic_input_num"},
		{"id":"c","operation":"dynamic_input_num"},
		{"id":"ws","operation":"weighted_sum","inputs":["a","b","c"],"weights":[0.5,0.3,0.2]},
		{"id":"out","operation":"funnel","inputs":["ws"]}
	]}`))
	require.NoError(t, err)
	plan, err := dag.Validate(g)
	require.NoError(t, err)

	e := exec.New(g, plan)
	require.NoError(t, e.SetInputNum("a", 100))
	require.NoError(t, e.SetInputNum("b", 50))
	require.NoError(t, e.SetInputNum("c", 20))
	got, err := e.GetOutput()
	require.NoError(t, err)
	assert.InDelta(t, 69.0, got, 1e-9)
}

// TestScenario5MissingConditionalKey checks the unmapped conditional key error.
func TestScenario5MissingConditionalKey(t *testing.T) {
	g, plan := buildPricing(t)
	e := exec.New(g, plan)
	require.NoError(t, e.SetInputStr("nome", "unknown"))
	require.NoError(t, e.SetInputNum("discount", 5))
	_, err := e.GetOutput()
	require.Error(t, err)
	assert.ErrorIs(t, err, exec.ErrMappingNotFound)
}

// TestProperty2Determinism: repeated GetOutput on a graph with no dynamic
// inputs yields bit-identical results.
func TestProperty2Determinism(t *testing.T) {
	g, err := dag.Parse([]byte(`{"name":"x","version":"1","nodes":[
		{"id":"c1","operation":"constant_input_num","constant_value":3},
		{"id":"c2","operation":"constant_input_num","constant_value":4},
		{"id":"s","operation":"add","inputs":["c1","c2"]},
		{"id":"out","operation":"funnel","inputs":["s"]}
	]}`))
	require.NoError(t, err)
	plan, err := dag.Validate(g)
	require.NoError(t, err)

	e := exec.New(g, plan)
	first, err := e.GetOutput()
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		got, err := e.GetOutput()
		require.NoError(t, err)
		assert.Equal(t, first, got)
	}
}

// TestProperty4InputIdempotence: setting the same input to the same value
// twice, in either order relative to other inputs, produces the same
// output.
func TestProperty4InputIdempotence(t *testing.T) {
	g, plan := buildPricing(t)

	e1 := exec.New(g, plan)
	require.NoError(t, e1.SetInputStr("nome", "tiago"))
	require.NoError(t, e1.SetInputNum("discount", 10))
	require.NoError(t, e1.SetInputStr("nome", "tiago"))
	got1, err := e1.GetOutput()
	require.NoError(t, err)

	e2 := exec.New(g, plan)
	require.NoError(t, e2.SetInputNum("discount", 10))
	require.NoError(t, e2.SetInputStr("nome", "tiago"))
	got2, err := e2.GetOutput()
	require.NoError(t, err)

	assert.Equal(t, got1, got2)
}

// TestProperty7FunnelEqualsGetOutputByID: GetOutput's result equals
// GetOutputByID(funnel_id).
func TestProperty7FunnelEqualsGetOutputByID(t *testing.T) {
	g, plan := buildPricing(t)
	e := exec.New(g, plan)
	require.NoError(t, e.SetInputStr("nome", "ben"))
	require.NoError(t, e.SetInputNum("discount", 8))

	want, err := e.GetOutput()
	require.NoError(t, err)
	got, err := e.GetOutputByID("out")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSetInputNumUnknownID(t *testing.T) {
	g, plan := buildPricing(t)
	e := exec.New(g, plan)
	err := e.SetInputNum("does-not-exist", 1)
	assert.ErrorIs(t, err, exec.ErrUnknownInput)
}

func TestSetInputNumWrongKind(t *testing.T) {
	g, plan := buildPricing(t)
	e := exec.New(g, plan)
	// "nome" is a string input, not numeric.
	err := e.SetInputNum("nome", 1)
	assert.ErrorIs(t, err, exec.ErrUnknownInput)
}

func TestConstantInputStrPlaceholder(t *testing.T) {
	g, err := dag.Parse([]byte(`{"name":"x","version":"1","nodes":[
		{"id":"label","operation":"constant_input_str","constant_str_value":"hello"},
		{"id":"out","operation":"funnel","inputs":["label"]}
	]}`))
	require.NoError(t, err)
	plan, err := dag.Validate(g)
	require.NoError(t, err)

	e := exec.New(g, plan)
	got, err := e.GetOutput()
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)
}

func TestClamp(t *testing.T) {
	g, err := dag.Parse([]byte(`{"name":"x","version":"1","nodes":[
		{"id":"v","operation":"dynamic_input_num"},
		{"id":"lo","operation":"constant_input_num","constant_value":0},
		{"id":"hi","operation":"constant_input_num","constant_value":10},
		{"id":"c","operation":"clamp","inputs":["v","lo","hi"]},
		{"id":"out","operation":"funnel","inputs":["c"]}
	]}`))
	require.NoError(t, err)
	plan, err := dag.Validate(g)
	require.NoError(t, err)

	for _, tc := range []struct{ in, want float64 }{{-5, 0}, {5, 5}, {50, 10}} {
		e := exec.New(g, plan)
		require.NoError(t, e.SetInputNum("v", tc.in))
		got, err := e.GetOutput()
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}
}
