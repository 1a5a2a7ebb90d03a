package systems

import (
	"bytes"
	"context"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/spaghettifunk/vktriangle/engine/core"
)

// CommandRunner runs an external command and returns its combined output.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	var b bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &b
	cmd.Stderr = &b
	err := cmd.Run()
	return b.Bytes(), err
}

// ShaderCompiler turns GLSL sources into SPIR-V on the job pool.
type ShaderCompiler struct {
	compiler string
	jobs     *JobSystem
	run      CommandRunner
	timeout  time.Duration

	mu      sync.Mutex
	pending map[string]bool
}

func NewShaderCompiler(compiler string, jobs *JobSystem) *ShaderCompiler {
	return &ShaderCompiler{
		compiler: compiler,
		jobs:     jobs,
		run:      execRunner,
		timeout:  30 * time.Second,
		pending:  make(map[string]bool),
	}
}

// OutputPath maps shader.vert to vert.spv and shader.frag to frag.spv in the
// same directory.
func OutputPath(source string) string {
	stage := strings.TrimPrefix(filepath.Ext(source), ".")
	return filepath.Join(filepath.Dir(source), stage+".spv")
}

// Compile queues a compile of source. A compile already queued for the same
// source absorbs the request.
func (sc *ShaderCompiler) Compile(source string) {
	sc.mu.Lock()
	if sc.pending[source] {
		sc.mu.Unlock()
		return
	}
	sc.pending[source] = true
	sc.mu.Unlock()

	out := OutputPath(source)
	sc.jobs.Submit(Job{
		Name: "compile " + filepath.Base(source),
		Run: func() error {
			defer sc.done(source)
			ctx, cancel := context.WithTimeout(context.Background(), sc.timeout)
			defer cancel()
			output, err := sc.run(ctx, sc.compiler, source, "-o", out)
			if err != nil {
				return errors.Wrapf(err, "%s %s: %s", sc.compiler, source, strings.TrimSpace(string(output)))
			}
			return nil
		},
		OnComplete: func() {
			core.LogInfo("Compiled %s -> %s", source, out)
		},
	})
}

func (sc *ShaderCompiler) done(source string) {
	sc.mu.Lock()
	delete(sc.pending, source)
	sc.mu.Unlock()
}
