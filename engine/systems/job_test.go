package systems

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJobSystemValidation(t *testing.T) {
	_, err := NewJobSystem(0, 1)
	assert.ErrorIs(t, err, ErrNoWorkers)
	_, err = NewJobSystem(1, -1)
	assert.ErrorIs(t, err, ErrNegativeChannelSize)
}

func TestJobSystemRunsCallbacks(t *testing.T) {
	js, err := NewJobSystem(2, 4)
	require.NoError(t, err)

	var completed, failed atomic.Int32
	for i := 0; i < 10; i++ {
		i := i
		js.Submit(Job{
			Name: "test",
			Run: func() error {
				if i%2 == 0 {
					return errors.New("boom")
				}
				return nil
			},
			OnComplete: func() { completed.Add(1) },
			OnFailure:  func(error) { failed.Add(1) },
		})
	}
	require.NoError(t, js.Shutdown())
	require.NoError(t, js.Shutdown())

	assert.Equal(t, int32(5), completed.Load())
	assert.Equal(t, int32(5), failed.Load())
}

func TestOutputPath(t *testing.T) {
	assert.Equal(t, filepath.Join("assets", "shaders", "vert.spv"), OutputPath(filepath.Join("assets", "shaders", "shader.vert")))
	assert.Equal(t, filepath.Join("x", "frag.spv"), OutputPath(filepath.Join("x", "shader.frag")))
}

func TestShaderCompilerInvokesCompiler(t *testing.T) {
	js, err := NewJobSystem(1, 4)
	require.NoError(t, err)

	var mu sync.Mutex
	var calls [][]string
	sc := NewShaderCompiler("glslc", js)
	sc.run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		mu.Lock()
		defer mu.Unlock()
		calls = append(calls, append([]string{name}, args...))
		return nil, nil
	}

	src := filepath.Join("shaders", "shader.frag")
	sc.Compile(src)
	require.NoError(t, js.Shutdown())

	require.Len(t, calls, 1)
	assert.Equal(t, []string{"glslc", src, "-o", filepath.Join("shaders", "frag.spv")}, calls[0])
	assert.Empty(t, sc.pending)
}
