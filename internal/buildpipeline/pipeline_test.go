package buildpipeline_test

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openpricing/zigdag/dag"
	"github.com/openpricing/zigdag/internal/buildpipeline"
)

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

// fakeRunner records every invocation instead of shelling out, so the
// pipeline's stage sequencing can be asserted without a real compiler. It
// also touches the "-o" output path empty, standing in for the shared
// library `go build -buildmode=c-shared` would have produced, so the
// pybind stage's copy-into-package step has something to read. Compile
// targets run concurrently, so calls must be guarded by a mutex.
type fakeRunner struct {
	mu    sync.Mutex
	calls [][]string
}

func (r *fakeRunner) Run(name string, args ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, append([]string{name}, args...))

	for i, a := range args {
		if a == "-o" && i+1 < len(args) {
			if err := os.WriteFile(args[i+1], nil, 0o644); err != nil {
				return err
			}
		}
	}
	return nil
}

// failingRunner always errors, used to exercise error propagation out of
// the concurrent compile stage.
type failingRunner struct{}

func (failingRunner) Run(name string, args ...string) error {
	return fmt.Errorf("compiler not available")
}

func buildAddGraph(t *testing.T) (*dag.Graph, *dag.Plan) {
	t.Helper()
	g, err := dag.Parse([]byte(addGraphJSON))
	require.NoError(t, err)
	plan, err := dag.Validate(g)
	require.NoError(t, err)
	return g, plan
}

func TestPipelineRunWritesGeneratedAndPythonFiles(t *testing.T) {
	g, plan := buildAddGraph(t)
	outDir := t.TempDir()

	host := buildpipeline.Target{OS: runtime.GOOS, Arch: runtime.GOARCH}
	p := buildpipeline.New(g, plan, outDir, []buildpipeline.Target{host}, 256)
	runner := &fakeRunner{}
	p.Runner = runner

	require.NoError(t, p.Run())

	assert.FileExists(t, filepath.Join(outDir, "generated", "nodes.go"))
	assert.FileExists(t, filepath.Join(outDir, "generated", "executor.go"))
	assert.FileExists(t, filepath.Join(outDir, "python", "add_example", "_engine.py"))
	assert.FileExists(t, filepath.Join(outDir, "python", "add_example", "pyproject.toml"))

	require.Len(t, runner.calls, 1)
	assert.Equal(t, "go", runner.calls[0][0])
	assert.Contains(t, runner.calls[0], "-buildmode=c-shared")

	engineSrc, err := os.ReadFile(filepath.Join(outDir, "python", "add_example", "_engine.py"))
	require.NoError(t, err)
	assert.Contains(t, string(engineSrc), "_BATCH_CHUNK_SIZE = 256")
	assert.Contains(t, string(engineSrc), "def calculate_batch(")

	assert.FileExists(t, filepath.Join(outDir, "python", "add_example", "libadd_example"+host.LibrarySuffix()))
}

func TestPipelineRunCompilesTargetsConcurrently(t *testing.T) {
	g, plan := buildAddGraph(t)
	outDir := t.TempDir()

	targets := []buildpipeline.Target{
		{OS: "linux", Arch: "amd64"},
		{OS: "linux", Arch: "arm64"},
		{OS: "darwin", Arch: "amd64"},
	}
	p := buildpipeline.New(g, plan, outDir, targets, 1024)
	runner := &fakeRunner{}
	p.Runner = runner

	require.NoError(t, p.Run())
	assert.Len(t, runner.calls, len(targets))

	for _, target := range targets {
		libName := "add_example" + target.LibrarySuffix()
		wantOut := filepath.Join(outDir, target.OS+"_"+target.Arch, libName)
		found := false
		for _, call := range runner.calls {
			for _, arg := range call {
				if arg == wantOut {
					found = true
				}
			}
		}
		assert.Truef(t, found, "no compile call found for target %s", target)
	}
}

func TestPipelineRunPropagatesCompileFailure(t *testing.T) {
	g, plan := buildAddGraph(t)
	outDir := t.TempDir()

	p := buildpipeline.New(g, plan, outDir, []buildpipeline.Target{
		{OS: "linux", Arch: "amd64"},
		{OS: "darwin", Arch: "arm64"},
	}, 1024)
	p.Runner = failingRunner{}

	err := p.Run()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "target(s) failed")
}

func TestNewDefaultsToExecRunner(t *testing.T) {
	g, plan := buildAddGraph(t)
	p := buildpipeline.New(g, plan, t.TempDir(), buildpipeline.DefaultTargets, 1024)
	assert.NotNil(t, p.Runner)
}
