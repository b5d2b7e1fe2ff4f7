package dag_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openpricing/zigdag/dag"
)

func TestParsePricingGraph(t *testing.T) {
	g, err := dag.Parse([]byte(pricingGraphJSON))
	require.NoError(t, err)
	assert.Equal(t, "pricing_example", g.Name)
	require.Len(t, g.Nodes, 9)
	assert.Equal(t, dag.KindConditionalValueInput, g.Nodes[2].Kind)
	require.Len(t, g.Nodes[2].ConditionalValues, 4)
	assert.Equal(t, "tiago", g.Nodes[2].ConditionalValues[0].When)
	assert.Equal(t, 200.0, g.Nodes[2].ConditionalValues[0].Value)
}

func TestParseMalformedJSON(t *testing.T) {
	_, err := dag.Parse([]byte(`{"name": "broken", `))
	require.Error(t, err)
	assert.ErrorIs(t, err, dag.ErrParse)
}

func TestParseUnknownOperation(t *testing.T) {
	_, err := dag.Parse([]byte(`{"name":"x","version":"1","nodes":[{"id":"n1","operation":"frobnicate"}]}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, dag.ErrUnknownOperation)
}

func TestParseArityMismatchBinary(t *testing.T) {
	_, err := dag.Parse([]byte(`{"name":"x","version":"1","nodes":[
		{"id":"a","operation":"dynamic_input_num"},
		{"id":"s","operation":"add","inputs":["a"]}
	]}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, dag.ErrArityMismatch)
}

func TestParseArityMismatchClamp(t *testing.T) {
	_, err := dag.Parse([]byte(`{"name":"x","version":"1","nodes":[
		{"id":"a","operation":"dynamic_input_num"},
		{"id":"b","operation":"dynamic_input_num"},
		{"id":"c","operation":"clamp","inputs":["a","b"]}
	]}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, dag.ErrArityMismatch)
}

func TestParseWeightedSumWeightCountMismatch(t *testing.T) {
	_, err := dag.Parse([]byte(`{"name":"x","version":"1","nodes":[
		{"id":"a","operation":"dynamic_input_num"},
		{"id":"b","operation":"dynamic_input_num"},
		{"id":"ws","operation":"weighted_sum","inputs":["a","b"],"weights":[1.0]}
	]}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, dag.ErrArityMismatch)
}

func TestRoundTripJSON(t *testing.T) {
	g, err := dag.Parse([]byte(pricingGraphJSON))
	require.NoError(t, err)

	out, err := dag.ToJSON(g)
	require.NoError(t, err)

	g2, err := dag.Parse(out)
	require.NoError(t, err)
	assert.Equal(t, g.Nodes, g2.Nodes)
}
