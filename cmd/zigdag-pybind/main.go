// Command zigdag-pybind is the standalone build-host binding emitter:
// given a JSON graph model, it writes the typed Python package that
// wraps the cross-compiled shared library (__init__.py, _engine.py,
// _engine.pyi, _types.py, py.typed, pyproject.toml). zigdag build runs
// this step internally after compiling; this binary exists so a
// packaging step can regenerate bindings without recompiling anything.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/openpricing/zigdag/codegen"
	"github.com/openpricing/zigdag/dag"
)

func main() {
	modelPathFlag := flag.String("model", "", "Path to the JSON graph model (required)")
	outDirFlag := flag.String("out", "./generated/python", "Output directory for the Python package")
	packageFlag := flag.String("package", "", "Python package name (defaults to the graph name)")
	libraryFlag := flag.String("library", "", "Shared library base name (defaults to lib<graph name>)")
	batchChunkFlag := flag.Int("batch-chunk-size", 0, "Row chunk size for the generated calculate_batch (defaults to 1024)")
	flag.Parse()

	if *modelPathFlag == "" {
		fmt.Fprintln(os.Stderr, "zigdag-pybind: -model is required")
		os.Exit(2)
	}

	g, err := dag.ParseFile(*modelPathFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "zigdag-pybind: parse %s: %v\n", *modelPathFlag, err)
		os.Exit(1)
	}
	plan, err := dag.Validate(g)
	if err != nil {
		fmt.Fprintf(os.Stderr, "zigdag-pybind: validate %s: %v\n", *modelPathFlag, err)
		os.Exit(1)
	}

	pkgName := *packageFlag
	if pkgName == "" {
		pkgName = g.Name
	}

	out, err := codegen.GeneratePythonPackage(g, plan, codegen.PythonOptions{
		PackageName:    pkgName,
		LibraryName:    *libraryFlag,
		BatchChunkSize: *batchChunkFlag,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "zigdag-pybind: generate: %v\n", err)
		os.Exit(1)
	}

	targetDir := filepath.Clean(*outDirFlag)
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "zigdag-pybind: mkdir %s: %v\n", targetDir, err)
		os.Exit(1)
	}

	for name, src := range out.Files {
		target := filepath.Join(targetDir, name)
		if err := os.WriteFile(target, src, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "zigdag-pybind: write %s: %v\n", target, err)
			os.Exit(1)
		}
	}

	fmt.Printf("pybind complete: graph=%s package=%s files written to %s\n", g.Name, pkgName, targetDir)
}
