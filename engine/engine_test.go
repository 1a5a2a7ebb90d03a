package engine

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/vktriangle/engine/assets/loaders"
)

func TestNewValidatesConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Window.Height = -1
	_, err := New(cfg)
	assert.Error(t, err)

	e, err := New(DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, EngineStageUninitialized, e.Stage())
}

func TestRunRequiresInitialize(t *testing.T) {
	e, err := New(DefaultConfig())
	require.NoError(t, err)
	assert.Error(t, e.Run())

	// no window yet, nothing to close
	e.RequestShutdown()
}

func TestShaderChangesMarkPipelineDirty(t *testing.T) {
	e, err := New(DefaultConfig())
	require.NoError(t, err)

	e.onAssetChanged("assets/shaders/unrelated.spv", loaders.ResourceTypeShader)
	assert.False(t, e.shadersDirty.Load())

	// without a compiler, sources are ignored
	e.onAssetChanged("assets/shaders/shader.frag", loaders.ResourceTypeShaderSource)
	assert.False(t, e.shadersDirty.Load())

	e.onAssetChanged("assets/shaders/frag.spv", loaders.ResourceTypeShader)
	assert.True(t, e.shadersDirty.Load())
	assert.True(t, e.shadersDirty.CompareAndSwap(true, false))

	e.onAssetChanged("assets/shaders/vert.spv", loaders.ResourceTypeShader)
	assert.True(t, e.shadersDirty.Load())
}

func TestStageString(t *testing.T) {
	assert.Equal(t, "running", EngineStageRunning.String())
	assert.Equal(t, "unknown", Stage(42).String())
}

func TestRequestShutdownStopsOnceShutdownBegins(t *testing.T) {
	e, err := New(DefaultConfig())
	require.NoError(t, err)

	var closes atomic.Int32
	e.requestClose = func() { closes.Add(1) }

	e.RequestShutdown()
	assert.Zero(t, closes.Load(), "no window before Initialize")

	e.setStage(EngineStageRunning)
	e.RequestShutdown()
	assert.Equal(t, int32(1), closes.Load())

	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			for j := 0; j < 100; j++ {
				e.RequestShutdown()
			}
		}()
	}
	close(start)
	e.beginShutdown()
	after := closes.Load()
	wg.Wait()

	assert.Equal(t, after, closes.Load(), "no close request lands after shutdown began")
	assert.Equal(t, EngineStageShuttingDown, e.Stage())
}
