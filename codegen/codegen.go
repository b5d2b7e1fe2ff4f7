// Package codegen renders a validated graph into generated Go source (a
// fully unrolled, monomorphized evaluator) and a typed Python binding
// package: build an internal IR, execute a text/template against it,
// then run the result through go/format.Source.
package codegen

import (
	"bytes"
	"fmt"
	"go/format"
	"strings"
	"text/template"

	"github.com/openpricing/zigdag/dag"
)

// Output holds generated source files keyed by filename, mirroring the
// teacher's codegen.Output shape.
type Output struct {
	Files map[string][]byte
}

// Options controls package naming for generated Go source.
type Options struct {
	PackageName string
}

// Option is a functional option for the Generate* entry points.
type Option func(*Options)

// WithPackageName overrides the default "generated" package name.
func WithPackageName(name string) Option {
	return func(o *Options) { o.PackageName = name }
}

func applyOptions(opts []Option) Options {
	o := Options{PackageName: "generated"}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// GenerateNodesSource emits nodes.go: the graph's node ids in declaration
// order and the funnel node's id, for introspection without re-parsing JSON.
func GenerateNodesSource(g *dag.Graph, plan *dag.Plan, opts ...Option) ([]byte, error) {
	o := applyOptions(opts)
	ir, err := buildIR(g, plan, o.PackageName)
	if err != nil {
		return nil, err
	}
	return renderTemplate(nodesTemplate, ir)
}

// GenerateExecutorSource emits the fully unrolled straight-line evaluator
// for g: one statement per node in topological order, operand indices
// resolved to Go identifiers at generation time rather than looked up
// through a slice at run time.
func GenerateExecutorSource(g *dag.Graph, plan *dag.Plan, opts ...Option) ([]byte, error) {
	o := applyOptions(opts)
	ir, err := buildIR(g, plan, o.PackageName)
	if err != nil {
		return nil, err
	}
	return renderTemplate(executorTemplate, ir)
}

func renderTemplate(tmpl string, data any) ([]byte, error) {
	t, err := template.New("codegen").Funcs(template.FuncMap{
		"ToExported":      toExported,
		"MaxExpr":         maxExpr,
		"MinExpr":         minExpr,
		"WeightedSumExpr": weightedSumExpr,
	}).Parse(tmpl)
	if err != nil {
		return nil, fmt.Errorf("codegen: parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("codegen: execute template: %w", err)
	}

	src, err := format.Source(buf.Bytes())
	if err != nil {
		// Surface the unformatted source so a caller can see what gofmt
		// choked on.
		return buf.Bytes(), fmt.Errorf("codegen: format generated source: %w", err)
	}
	return src, nil
}

// toExported turns a slot identifier like "n3" into a Go-exported struct
// field name, "N3", so generated Inputs fields are addressable from
// outside the generated package.
func toExported(slot string) string {
	if slot == "" {
		return slot
	}
	return strings.ToUpper(slot[:1]) + slot[1:]
}

// maxExpr and minExpr fold through the zigdagMax2/zigdagMin2 helpers emitted
// into generated code rather than math.Max/math.Min: the math package
// versions special-case NaN and signed zero in ways exec.Executor's plain
// ">"/"<" comparison fold does not, which would make generated and
// interpreted results diverge on those operands.
func maxExpr(operands []string) string {
	return foldExpr("zigdagMax2", operands)
}

func minExpr(operands []string) string {
	return foldExpr("zigdagMin2", operands)
}

// foldExpr builds a left-associative call chain, e.g.
// zigdagMax2(zigdagMax2(a, b), c), matching exec.Executor's left-to-right
// fold over the same operand order.
func foldExpr(fn string, operands []string) string {
	if len(operands) == 0 {
		return "0"
	}
	expr := operands[0]
	for _, op := range operands[1:] {
		expr = fmt.Sprintf("%s(%s, %s)", fn, expr, op)
	}
	return expr
}

func weightedSumExpr(operands []string, weights []float64) string {
	if len(operands) == 0 {
		return "0"
	}
	terms := make([]string, len(operands))
	for i, op := range operands {
		terms[i] = fmt.Sprintf("%s*%g", op, weights[i])
	}
	return strings.Join(terms, " + ")
}
