// Package buildpipeline orchestrates the multi-stage build: nodegen,
// compile, FFI library link, and Python binding emission, in that
// order — a sequence of distinct build-host steps since this pipeline
// also has to cross-compile a shared library and emit a second
// artifact (the Python package).
package buildpipeline

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/google/uuid"

	"github.com/openpricing/zigdag/codegen"
	"github.com/openpricing/zigdag/dag"
	"github.com/openpricing/zigdag/log"
)

// Runner shells out to external tools the pipeline depends on (go build,
// the system C toolchain via cgo). Tests substitute a fake Runner so the
// pipeline's sequencing can be exercised without actually invoking a
// compiler.
type Runner interface {
	Run(name string, args ...string) error
}

// execRunner is the production Runner, shelling out via os/exec.
type execRunner struct{}

func (execRunner) Run(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// Pipeline carries the state shared across the build steps: the parsed
// model, the output directory, and the id stamped on every log line for
// this run.
type Pipeline struct {
	Graph          *dag.Graph
	Plan           *dag.Plan
	OutputDir      string
	Targets        []Target
	Runner         Runner
	BatchChunkSize int

	buildID string
	logger  log.Logger
}

// New constructs a Pipeline for graph g, tagging the run with a fresh
// build correlation id. batchChunkSize sizes the row chunks the generated
// Python binding's calculate_batch sends per FFI call.
func New(g *dag.Graph, plan *dag.Plan, outputDir string, targets []Target, batchChunkSize int) *Pipeline {
	buildID := uuid.NewString()
	return &Pipeline{
		Graph:          g,
		Plan:           plan,
		OutputDir:      outputDir,
		Targets:        targets,
		Runner:         execRunner{},
		BatchChunkSize: batchChunkSize,
		buildID:        buildID,
		logger:         log.WithBuildID(buildID),
	}
}

// Run executes the five build steps in order: nodegen, compile, link,
// pybind, and shared-library copy.
func (p *Pipeline) Run() error {
	p.logger.Infof("starting build for graph %q", p.Graph.Name)

	genDir := filepath.Join(p.OutputDir, "generated")
	if err := p.stageNodegen(genDir); err != nil {
		return fmt.Errorf("buildpipeline: nodegen: %w", err)
	}

	if err := p.compileTargets(genDir); err != nil {
		return err
	}

	if err := p.stagePybind(); err != nil {
		return fmt.Errorf("buildpipeline: pybind: %w", err)
	}

	p.logger.Infof("build complete: %s", p.OutputDir)
	return nil
}

// stageNodegen writes nodes.go and executor.go for the graph into genDir.
// These are two files rather than one since the specialized evaluator
// and node metadata are separate generated artifacts.
func (p *Pipeline) stageNodegen(genDir string) error {
	if err := os.MkdirAll(genDir, 0o755); err != nil {
		return err
	}

	nodesSrc, err := codegen.GenerateNodesSource(p.Graph, p.Plan, codegen.WithPackageName("generated"))
	if err != nil {
		return fmt.Errorf("generate nodes.go: %w", err)
	}
	if err := os.WriteFile(filepath.Join(genDir, "nodes.go"), nodesSrc, 0o644); err != nil {
		return err
	}

	execSrc, err := codegen.GenerateExecutorSource(p.Graph, p.Plan, codegen.WithPackageName("generated"))
	if err != nil {
		return fmt.Errorf("generate executor.go: %w", err)
	}
	if err := os.WriteFile(filepath.Join(genDir, "executor.go"), execSrc, 0o644); err != nil {
		return err
	}

	p.logger.Debugf("nodegen wrote %s", genDir)
	return nil
}

// compileTargets runs stageCompile for every target concurrently: each
// target invokes an independent `go build`, so there is nothing to
// serialize on — every target starts in its own goroutine and joins on
// a sync.WaitGroup.
func (p *Pipeline) compileTargets(genDir string) error {
	var wg sync.WaitGroup
	var mu sync.Mutex
	var errs []error

	for _, target := range p.Targets {
		wg.Add(1)
		go func(target Target) {
			defer wg.Done()
			if err := p.stageCompile(genDir, target); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("compile %s: %w", target, err))
				mu.Unlock()
			}
		}(target)
	}
	wg.Wait()

	if len(errs) > 0 {
		return fmt.Errorf("buildpipeline: %d target(s) failed: %w", len(errs), errs[0])
	}
	return nil
}

// stageCompile cross-compiles the shared library for one target by
// shelling out to `go build -buildmode=c-shared`.
func (p *Pipeline) stageCompile(genDir string, target Target) error {
	libName := p.Graph.Name + target.LibrarySuffix()
	outPath := filepath.Join(p.OutputDir, target.OS+"_"+target.Arch, libName)
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}

	p.logger.Infof("compiling %s for %s", libName, target)
	return p.Runner.Run("go", "build",
		"-buildmode=c-shared",
		"-o", outPath,
		"./"+genDir,
	)
}

// stagePybind renders the typed Python binding package alongside the
// generated library, then copies the shared library compiled for this
// build host into the package directory so pyproject.toml's package-data
// glob has something to ship.
func (p *Pipeline) stagePybind() error {
	pyDir := filepath.Join(p.OutputDir, "python", p.Graph.Name)
	if err := os.MkdirAll(pyDir, 0o755); err != nil {
		return err
	}

	libraryName := "lib" + p.Graph.Name
	out, err := codegen.GeneratePythonPackage(p.Graph, p.Plan, codegen.PythonOptions{
		PackageName:    p.Graph.Name,
		LibraryName:    libraryName,
		BatchChunkSize: p.BatchChunkSize,
	})
	if err != nil {
		return err
	}

	for name, contents := range out.Files {
		if err := os.WriteFile(filepath.Join(pyDir, name), contents, 0o644); err != nil {
			return err
		}
	}

	if err := p.copySharedLibrary(pyDir, libraryName); err != nil {
		return err
	}

	p.logger.Debugf("pybind wrote %s", pyDir)
	return nil
}

// copySharedLibrary copies the artifact compiled for this build host
// (runtime.GOOS/runtime.GOARCH) into pyDir under libraryName, matching
// what the generated _engine.py loads via ctypes.CDLL. A build that only
// cross-compiles for other platforms leaves the package without a bundled
// library; there is nothing this host could have produced to copy.
func (p *Pipeline) copySharedLibrary(pyDir, libraryName string) error {
	var host Target
	found := false
	for _, t := range p.Targets {
		if t.OS == runtime.GOOS && t.Arch == runtime.GOARCH {
			host = t
			found = true
			break
		}
	}
	if !found {
		p.logger.Debugf("no %s/%s target compiled, skipping shared library copy", runtime.GOOS, runtime.GOARCH)
		return nil
	}

	src := filepath.Join(p.OutputDir, host.OS+"_"+host.Arch, p.Graph.Name+host.LibrarySuffix())
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("buildpipeline: copy shared library: %w", err)
	}
	dst := filepath.Join(pyDir, libraryName+host.LibrarySuffix())
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return fmt.Errorf("buildpipeline: copy shared library: %w", err)
	}
	return nil
}
