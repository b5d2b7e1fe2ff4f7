// Command zigdag-nodegen is the standalone build-host generator: given a
// JSON graph model, it writes nodes.go and executor.go for the
// specialized evaluator without driving the rest of the build pipeline
// (cross-compilation, Python binding emission). zigdag build runs the
// same two steps internally; this binary exists so a Makefile or another
// build system can invoke nodegen on its own, independent of any
// particular run mode.
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
	outDirFlag := flag.String("out", "./generated", "Output directory for nodes.go and executor.go")
	packageFlag := flag.String("package", "generated", "Go package name for the generated files")
	flag.Parse()

	if *modelPathFlag == "" {
		fmt.Fprintln(os.Stderr, "zigdag-nodegen: -model is required")
		os.Exit(2)
	}

	g, err := dag.ParseFile(*modelPathFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "zigdag-nodegen: parse %s: %v\n", *modelPathFlag, err)
		os.Exit(1)
	}
	plan, err := dag.Validate(g)
	if err != nil {
		fmt.Fprintf(os.Stderr, "zigdag-nodegen: validate %s: %v\n", *modelPathFlag, err)
		os.Exit(1)
	}

	targetDir := filepath.Clean(*outDirFlag)
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "zigdag-nodegen: mkdir %s: %v\n", targetDir, err)
		os.Exit(1)
	}

	nodesSrc, err := codegen.GenerateNodesSource(g, plan, codegen.WithPackageName(*packageFlag))
	if err != nil {
		fmt.Fprintf(os.Stderr, "zigdag-nodegen: generate nodes.go: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(filepath.Join(targetDir, "nodes.go"), nodesSrc, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "zigdag-nodegen: write nodes.go: %v\n", err)
		os.Exit(1)
	}

	execSrc, err := codegen.GenerateExecutorSource(g, plan, codegen.WithPackageName(*packageFlag))
	if err != nil {
		fmt.Fprintf(os.Stderr, "zigdag-nodegen: generate executor.go: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(filepath.Join(targetDir, "executor.go"), execSrc, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "zigdag-nodegen: write executor.go: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("nodegen complete: graph=%s files written to %s\n", g.Name, targetDir)
}
