package dag_test

// pricingGraphJSON is a discount-pricing graph with a string-keyed
// conditional lookup, used by the dag test suite. The exec and ffi suites
// declare their own identical copy; the codegen suite declares a reduced one.
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

// weightedSumGraphJSON exercises a three-input weighted_sum.
const weightedSumGraphJSON = `{
  "name": "weighted_sum_example",
  "version": "1.0",
  "nodes": [
    {"id": "a", "operation": "dynamic_input_num"},
    {"id": "b", "operation": "dynamic_input_num"},
    {"id": "c", "operation": "dynamic_input_num"},
    {"id": "ws", "operation": "weighted_sum", "inputs": ["a", "b", "c"], "weights": [0.5, 0.3, 0.2]},
    {"id": "out", "operation": "funnel", "inputs": ["ws"]}
  ]
}`

// addGraphJSON exercises a plain two-input add.
const addGraphJSON = `{
  "name": "add_example",
  "version": "1.0",
  "nodes": [
    {"id": "a", "operation": "dynamic_input_num"},
    {"id": "b", "operation": "dynamic_input_num"},
    {"id": "s", "operation": "add", "inputs": ["a", "b"]},
    {"id": "out", "operation": "funnel", "inputs": ["s"]}
  ]
}`
