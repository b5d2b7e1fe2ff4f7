package codegen

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/openpricing/zigdag/dag"
)

// PythonOptions controls the generated binding package's metadata.
type PythonOptions struct {
	PackageName    string // Python package name, e.g. "pricing_example"
	LibraryName    string // shared library base name, e.g. "libpricing_example"
	BatchChunkSize int    // rows per calculate_final_node_price_batch call
}

// GeneratePythonPackage renders a typed Python binding package for g: an
// __init__.py re-exporting the typed entry points, an _engine.py ctypes
// wrapper around the shared library, an _engine.pyi stub, a _types.py
// module with dataclasses and id-list constants mirroring the graph's
// dynamic inputs, a py.typed marker, and a pyproject.toml. Layout mirrors
// the same Output.Files map-of-filename-to-bytes shape returned by
// GenerateNodesSource/GenerateExecutorSource; nothing here depends on
// text/template beyond what those already use.
func GeneratePythonPackage(g *dag.Graph, plan *dag.Plan, opts PythonOptions) (*Output, error) {
	if opts.PackageName == "" {
		return nil, fmt.Errorf("codegen: python package name is required")
	}
	if opts.LibraryName == "" {
		opts.LibraryName = "lib" + g.Name
	}
	if opts.BatchChunkSize <= 0 {
		opts.BatchChunkSize = 1024
	}

	numeric := make([]pyInputIR, 0, len(plan.NumericInputs))
	for _, slot := range plan.NumericInputs {
		n := g.Nodes[slot]
		numeric = append(numeric, pyInputIR{ID: n.ID, Slot: pyIdentifier(n.ID), AllowedValues: n.AllowedValues})
	}
	strs := make([]pyInputIR, 0, len(plan.StringInputs))
	for _, slot := range plan.StringInputs {
		n := g.Nodes[slot]
		strs = append(strs, pyInputIR{ID: n.ID, Slot: pyIdentifier(n.ID), AllowedStrValues: n.AllowedStrValues})
	}

	// allInputIDs walks the graph in JSON declaration order, independent of
	// the numeric/string split plan.NumericInputs and plan.StringInputs
	// each preserve individually.
	allInputIDs := make([]string, 0, len(numeric)+len(strs))
	for _, n := range g.Nodes {
		if n.Kind == dag.KindDynamicInputNum || n.Kind == dag.KindDynamicInputStr {
			allInputIDs = append(allInputIDs, n.ID)
		}
	}

	hasLiterals := false
	for _, in := range numeric {
		if len(in.AllowedValues) > 0 {
			hasLiterals = true
		}
	}
	for _, in := range strs {
		if len(in.AllowedStrValues) > 0 {
			hasLiterals = true
		}
	}

	data := pythonPackageData{
		PackageName:    opts.PackageName,
		LibraryName:    opts.LibraryName,
		GraphName:      g.Name,
		NumericInputs:  numeric,
		StringInputs:   strs,
		AllInputIDs:    allInputIDs,
		HasLiterals:    hasLiterals,
		BatchChunkSize: opts.BatchChunkSize,
	}

	files := map[string][]byte{}
	for name, tmpl := range map[string]string{
		"__init__.py": pyInitTemplate,
		"_engine.py":  pyEngineTemplate,
		"_engine.pyi": pyEngineStubTemplate,
		"_types.py":   pyTypesTemplate,
	} {
		rendered, err := renderPython(tmpl, data)
		if err != nil {
			return nil, fmt.Errorf("codegen: render %s: %w", name, err)
		}
		files[name] = rendered
	}
	files["py.typed"] = []byte("")

	pyproject, err := renderPython(pyProjectTemplate, data)
	if err != nil {
		return nil, fmt.Errorf("codegen: render pyproject.toml: %w", err)
	}
	files["pyproject.toml"] = pyproject

	return &Output{Files: files}, nil
}

// pyInputIR is the per-input data the Python templates need: its id and
// Python-identifier slot, plus whichever allowed-value set (if any) the
// node declared, used to decide between a plain primitive type and a
// typing.Literal union.
type pyInputIR struct {
	ID               string
	Slot             string
	AllowedValues    []float64
	AllowedStrValues []string
}

type pythonPackageData struct {
	PackageName    string
	LibraryName    string
	GraphName      string
	NumericInputs  []pyInputIR
	StringInputs   []pyInputIR
	AllInputIDs    []string // every dynamic input id, JSON declaration order
	HasLiterals    bool
	BatchChunkSize int
}

func renderPython(tmpl string, data pythonPackageData) ([]byte, error) {
	t, err := template.New("python").Funcs(template.FuncMap{
		"PyLiteral":    pyNumLiteralUnion,
		"PyStrLiteral": pyStrLiteralUnion,
	}).Parse(tmpl)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// pyNumLiteralUnion renders a node's allowed_values as a typing.Literal
// union, e.g. Literal[1, 2, 5.5].
func pyNumLiteralUnion(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%g", v)
	}
	return "Literal[" + strings.Join(parts, ", ") + "]"
}

// pyStrLiteralUnion renders a node's allowed_str_values as a typing.Literal
// union, e.g. Literal["gold", "silver"].
func pyStrLiteralUnion(values []string) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%q", v)
	}
	return "Literal[" + strings.Join(parts, ", ") + "]"
}

const pyInitTemplate = `"""Generated binding package for {{.GraphName}}. DO NOT EDIT."""

from ._engine import Engine, EngineError
from ._types import (
    ALL_INPUT_IDS,
    NUMERIC_INPUT_IDS,
    STRING_INPUT_IDS,
    BatchInputs,
    Inputs,
)

__all__ = [
    "Engine",
    "EngineError",
    "Inputs",
    "BatchInputs",
    "ALL_INPUT_IDS",
    "NUMERIC_INPUT_IDS",
    "STRING_INPUT_IDS",
]
`

const pyTypesTemplate = `"""Typed inputs for {{.GraphName}}. DO NOT EDIT."""

from dataclasses import dataclass
{{if .HasLiterals}}from typing import Literal
{{end}}

@dataclass(frozen=True)
class Inputs:
    """One row of dynamic input values."""
{{- range .NumericInputs}}
    {{.Slot}}: {{if .AllowedValues}}{{PyLiteral .AllowedValues}}{{else}}float{{end}}
{{- end}}
{{- range .StringInputs}}
    {{.Slot}}: {{if .AllowedStrValues}}{{PyStrLiteral .AllowedStrValues}}{{else}}str{{end}}
{{- end}}
{{- if not .NumericInputs}}{{if not .StringInputs}}
    pass
{{- end}}{{end}}


@dataclass(frozen=True)
class BatchInputs:
    """Columnar batch of inputs: one equal-length sequence per field."""
{{- range .NumericInputs}}
    {{.Slot}}: list[float]
{{- end}}
{{- range .StringInputs}}
    {{.Slot}}: list[str]
{{- end}}
{{- if not .NumericInputs}}{{if not .StringInputs}}
    pass
{{- end}}{{end}}


# Every dynamic input id, in JSON declaration order.
ALL_INPUT_IDS: tuple[str, ...] = (
{{- range .AllInputIDs}}
    {{printf "%q" .}},
{{- end}}
)

# Numeric-valued input ids, in declaration order.
NUMERIC_INPUT_IDS: tuple[str, ...] = (
{{- range .NumericInputs}}
    {{printf "%q" .ID}},
{{- end}}
)

# String-valued input ids, in declaration order.
STRING_INPUT_IDS: tuple[str, ...] = (
{{- range .StringInputs}}
    {{printf "%q" .ID}},
{{- end}}
)
`

const pyEngineTemplate = `"""ctypes wrapper around {{.LibraryName}}. DO NOT EDIT."""

import ctypes
import pathlib
import sys

from ._types import BatchInputs, Inputs

_LIB_FILES = {"darwin": "{{.LibraryName}}.dylib", "win32": "{{.LibraryName}}.dll"}
_lib_path = pathlib.Path(__file__).with_name(_LIB_FILES.get(sys.platform, "{{.LibraryName}}.so"))
_lib = ctypes.CDLL(str(_lib_path))

_lib.calculate_final_node_price.argtypes = [ctypes.POINTER(ctypes.c_double)]
_lib.calculate_final_node_price.restype = ctypes.c_int
_lib.calculate_node_price.argtypes = [ctypes.c_char_p, ctypes.POINTER(ctypes.c_double)]
_lib.calculate_node_price.restype = ctypes.c_int
_lib.set_input_node_value_num.argtypes = [ctypes.c_char_p, ctypes.c_double]
_lib.set_input_node_value_num.restype = ctypes.c_int
_lib.set_input_node_value_str.argtypes = [ctypes.c_char_p, ctypes.c_char_p]
_lib.set_input_node_value_str.restype = ctypes.c_int
_lib.calculate_final_node_price_batch.argtypes = [
    ctypes.POINTER(ctypes.c_double),
    ctypes.c_int,
    ctypes.POINTER(ctypes.c_char_p),
    ctypes.c_int,
    ctypes.c_int,
    ctypes.POINTER(ctypes.c_double),
]
_lib.calculate_final_node_price_batch.restype = ctypes.c_int

# Rows per calculate_final_node_price_batch call, bounding the size of the
# flattened ctypes buffers calculate_batch builds per chunk.
_BATCH_CHUNK_SIZE = {{.BatchChunkSize}}


class EngineError(RuntimeError):
    """Raised when the underlying shared library returns a non-zero status."""


class Engine:
    """Evaluates "{{.GraphName}}" through the generated shared library."""

    def set_num(self, id: str, value: float) -> None:
        status = _lib.set_input_node_value_num(id.encode("utf-8"), ctypes.c_double(value))
        if status != 0:
            raise EngineError(f"set_input_node_value_num({id}) failed: {status}")

    def set_str(self, id: str, value: str) -> None:
        status = _lib.set_input_node_value_str(id.encode("utf-8"), value.encode("utf-8"))
        if status != 0:
            raise EngineError(f"set_input_node_value_str({id}) failed: {status}")

    def _apply(self, inputs: Inputs) -> None:
{{- range .NumericInputs}}
        self.set_num({{printf "%q" .ID}}, inputs.{{.Slot}})
{{- end}}
{{- range .StringInputs}}
        self.set_str({{printf "%q" .ID}}, inputs.{{.Slot}})
{{- end}}
{{- if not .NumericInputs}}{{if not .StringInputs}}
        pass
{{- end}}{{end}}

    def evaluate(self, inputs: Inputs) -> float:
        self._apply(inputs)
        out = ctypes.c_double()
        status = _lib.calculate_final_node_price(ctypes.byref(out))
        if status != 0:
            raise EngineError("calculate_final_node_price failed: " + str(status))
        return out.value

    def calculate(self, **kwargs) -> float:
        """Builds an Inputs from keyword arguments and evaluates it."""
        return self.evaluate(Inputs(**kwargs))

    def calculate_node(self, node_id: str, inputs: Inputs) -> float:
        self._apply(inputs)
        out = ctypes.c_double()
        status = _lib.calculate_node_price(node_id.encode("utf-8"), ctypes.byref(out))
        if status != 0:
            raise EngineError(f"calculate_node_price({node_id}) failed: {status}")
        return out.value

    def calculate_batch(self, rows: BatchInputs) -> list[float]:
        """Evaluates a columnar batch, chunking FFI calls at _BATCH_CHUNK_SIZE rows."""
        numeric_columns = [
{{- range .NumericInputs}}
            rows.{{.Slot}},
{{- end}}
        ]
        string_columns = [
{{- range .StringInputs}}
            rows.{{.Slot}},
{{- end}}
        ]
        numeric_width = len(numeric_columns)
        string_width = len(string_columns)
        if numeric_width:
            row_count = len(numeric_columns[0])
        elif string_width:
            row_count = len(string_columns[0])
        else:
            row_count = 0

        results: list[float] = []
        for start in range(0, row_count, _BATCH_CHUNK_SIZE):
            end = min(start + _BATCH_CHUNK_SIZE, row_count)
            chunk_len = end - start

            flat_numeric = (ctypes.c_double * (chunk_len * numeric_width))()
            for r in range(chunk_len):
                for c, column in enumerate(numeric_columns):
                    flat_numeric[r * numeric_width + c] = column[start + r]

            flat_string = None
            if string_width:
                flat_string = (ctypes.c_char_p * (chunk_len * string_width))()
                for r in range(chunk_len):
                    for c, column in enumerate(string_columns):
                        flat_string[r * string_width + c] = column[start + r].encode("utf-8")

            out = (ctypes.c_double * chunk_len)()
            status = _lib.calculate_final_node_price_batch(
                flat_numeric,
                ctypes.c_int(numeric_width),
                flat_string,
                ctypes.c_int(string_width),
                ctypes.c_int(chunk_len),
                out,
            )
            if status != 0:
                raise EngineError("calculate_final_node_price_batch failed: " + str(status))
            results.extend(out[:chunk_len])

        return results
`

const pyEngineStubTemplate = `from ._types import BatchInputs, Inputs

class EngineError(RuntimeError): ...

class Engine:
    def set_num(self, id: str, value: float) -> None: ...
    def set_str(self, id: str, value: str) -> None: ...
    def evaluate(self, inputs: Inputs) -> float: ...
    def calculate(self, **kwargs) -> float: ...
    def calculate_node(self, node_id: str, inputs: Inputs) -> float: ...
    def calculate_batch(self, rows: BatchInputs) -> list[float]: ...
`

const pyProjectTemplate = `[build-system]
requires = ["setuptools>=68"]
build-backend = "setuptools.build_meta"

[project]
name = "{{.PackageName}}"
version = "0.1.0"
description = "Generated binding for {{.GraphName}}"
requires-python = ">=3.9"

[tool.setuptools.package-data]
"{{.PackageName}}" = ["*.so", "*.dylib", "py.typed"]
`
