package engine

import (
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/spaghettifunk/vktriangle/engine/assets"
	"github.com/spaghettifunk/vktriangle/engine/assets/loaders"
	"github.com/spaghettifunk/vktriangle/engine/core"
	"github.com/spaghettifunk/vktriangle/engine/platform"
	"github.com/spaghettifunk/vktriangle/engine/renderer"
	"github.com/spaghettifunk/vktriangle/engine/renderer/vulkan"
	"github.com/spaghettifunk/vktriangle/engine/systems"
	"github.com/spaghettifunk/vktriangle/engine/ui"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

func (s Stage) String() string {
	switch s {
	case EngineStageUninitialized:
		return "uninitialized"
	case EngineStageInitializing:
		return "initializing"
	case EngineStageInitialized:
		return "initialized"
	case EngineStageRunning:
		return "running"
	case EngineStageShuttingDown:
		return "shutting down"
	}
	return "unknown"
}

// titleInterval is how often, in seconds, the window title shows fresh FPS.
const titleInterval = 1.0

type Engine struct {
	config *ApplicationConfig
	stage  atomic.Uint32

	platform     *platform.Platform
	assetManager *assets.AssetManager
	jobs         *systems.JobSystem
	compiler     *systems.ShaderCompiler
	backend      *vulkan.VulkanRenderer
	renderer     *renderer.Renderer
	hud          *ui.HUD

	clock     *core.Clock
	metrics   *core.FrameMetrics
	lastTime  float64
	titleTime float64

	// set by the asset watcher, consumed on the render thread between frames
	shadersDirty atomic.Bool

	// closeMu orders close requests from other goroutines against Shutdown,
	// which releases the window they would touch.
	closeMu      sync.Mutex
	requestClose func()
}

func New(config *ApplicationConfig) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	level, _ := core.ParseLogLevel(config.LogLevel)
	core.SetLogLevel(level)

	e := &Engine{
		config:       config,
		platform:     platform.New(),
		assetManager: assets.NewAssetManager(),
		clock:        core.NewClock(),
		metrics:      core.NewFrameMetrics(),
	}
	e.requestClose = e.platform.RequestClose
	return e, nil
}

func (e *Engine) Stage() Stage {
	return Stage(e.stage.Load())
}

func (e *Engine) setStage(s Stage) {
	e.stage.Store(uint32(s))
	core.LogDebug("Engine %s.", s)
}

// Initialize opens the window, indexes the shaders and brings the renderer up.
func (e *Engine) Initialize() error {
	e.setStage(EngineStageInitializing)
	cfg := e.config
	core.LogInfo("Starting %s (session %s).", cfg.Window.Title, core.SessionID())

	if err := e.platform.Startup(cfg.Window.Title, cfg.Window.X, cfg.Window.Y, cfg.Window.Width, cfg.Window.Height); err != nil {
		return core.SetupError(err, "platform startup")
	}

	if cfg.Assets.HotReload {
		if cfg.Assets.CompileShaders {
			jobs, err := systems.NewJobSystem(cfg.Assets.Workers, 16)
			if err != nil {
				return core.SetupError(err, "job system")
			}
			e.jobs = jobs
			e.compiler = systems.NewShaderCompiler(cfg.Assets.Compiler, jobs)
		}
		e.assetManager.OnChange(e.onAssetChanged)
	}
	if err := e.assetManager.Initialize(cfg.Renderer.ShaderDir, cfg.Assets.HotReload); err != nil {
		return core.SetupError(err, "asset manager")
	}

	e.hud = ui.NewHUD(e.metrics, mgl32.Vec3(cfg.Renderer.ClearColor), e.platform.RequestClose)
	e.backend = vulkan.New(e.platform, vulkan.Config{
		ApplicationName: cfg.Window.Title,
		FramesInFlight:  cfg.Renderer.FramesInFlight,
		Validation:      cfg.Renderer.Validation,
		VertexShader:    cfg.Renderer.VertexShader,
		FragmentShader:  cfg.Renderer.FragmentShader,
		Shaders:         e.assetManager,
		ClearColor:      e.hud.ClearColor(),
		Overlay:         e.hud,
	})
	e.renderer = renderer.New(e.backend, e.platform)

	e.platform.SetResizeCallback(e.renderer.OnFramebufferResize)
	e.platform.SetKeyCallback(e.hud.OnKey)

	if err := e.renderer.Initialize(); err != nil {
		return err
	}

	e.setStage(EngineStageInitialized)
	return nil
}

// Run draws frames until the window is closed. It must be called from the
// main goroutine.
func (e *Engine) Run() error {
	if e.Stage() != EngineStageInitialized {
		return errors.Errorf("engine cannot run while %s", e.Stage())
	}
	e.setStage(EngineStageRunning)

	e.clock.Start()
	e.clock.Update()
	e.lastTime = e.clock.Elapsed()

	for !e.platform.ShouldClose() {
		e.platform.PollEvents()

		if e.shadersDirty.CompareAndSwap(true, false) {
			// a failed rebuild keeps the previous pipeline
			if err := e.renderer.ReloadShaders(); err != nil {
				core.LogWarn("shader reload failed: %s", err)
			}
		}

		if err := e.renderer.DrawFrame(); err != nil {
			return err
		}

		e.clock.Update()
		currentTime := e.clock.Elapsed()
		e.metrics.Update(currentTime - e.lastTime)
		e.lastTime = currentTime

		if currentTime-e.titleTime >= titleInterval {
			e.titleTime = currentTime
			e.platform.SetTitle(fmt.Sprintf("%s - %.0f FPS (%.2f ms)", e.config.Window.Title, e.metrics.FPS(), e.metrics.FrameTime()))
		}
	}

	core.LogInfo("Window closed after %d frames.", e.renderer.FrameNumber())
	return nil
}

// RequestShutdown asks the main loop to stop. Safe from any goroutine, also
// while Shutdown runs: once Shutdown has started it does nothing.
func (e *Engine) RequestShutdown() {
	e.closeMu.Lock()
	defer e.closeMu.Unlock()
	switch e.Stage() {
	case EngineStageInitialized, EngineStageRunning:
		e.requestClose()
	}
}

// Shutdown releases everything Initialize created, in reverse order. It
// tolerates a partial Initialize.
func (e *Engine) Shutdown() error {
	e.beginShutdown()

	var first error
	keep := func(err error) {
		if err != nil {
			core.LogError(err.Error())
			if first == nil {
				first = err
			}
		}
	}

	keep(e.assetManager.Shutdown())
	if e.jobs != nil {
		keep(e.jobs.Shutdown())
	}
	if e.renderer != nil {
		keep(e.renderer.Shutdown())
	}
	keep(e.platform.Shutdown())

	e.setStage(EngineStageUninitialized)
	return first
}

// beginShutdown waits out any close request in progress and blocks new ones.
func (e *Engine) beginShutdown() {
	e.closeMu.Lock()
	defer e.closeMu.Unlock()
	e.setStage(EngineStageShuttingDown)
}

// onAssetChanged runs on the watcher goroutine.
func (e *Engine) onAssetChanged(path string, assetType loaders.ResourceType) {
	switch assetType {
	case loaders.ResourceTypeShader:
		name := filepath.Base(path)
		if name == e.config.Renderer.VertexShader || name == e.config.Renderer.FragmentShader {
			core.LogDebug("%s changed, pipeline rebuild pending.", name)
			e.shadersDirty.Store(true)
		}
	case loaders.ResourceTypeShaderSource:
		if e.compiler != nil {
			e.compiler.Compile(path)
		}
	}
}
