package renderer

import (
	"github.com/spaghettifunk/vktriangle/engine/core"
)

// Renderer wires the backend to the swapchain state machine and the frame
// scheduler.
type Renderer struct {
	backend   RendererBackend
	window    Window
	surface   *SurfaceManager
	scheduler *FrameScheduler
}

func New(backend RendererBackend, window Window) *Renderer {
	surface := NewSurfaceManager(backend, window)
	return &Renderer{
		backend: backend,
		window:  window,
		surface: surface,
	}
}

func (r *Renderer) Initialize() error {
	if err := r.backend.Initialize(); err != nil {
		return err
	}
	if err := r.surface.Create(); err != nil {
		return err
	}
	r.scheduler = NewFrameScheduler(r.backend, r.surface)

	info := r.surface.Info()
	core.LogInfo("Renderer initialized: %dx%d, %d swapchain images, %d frames in flight.",
		info.Width, info.Height, info.ImageCount, r.backend.FramesInFlight())
	return nil
}

// OnFramebufferResize is registered with the window's resize callback.
func (r *Renderer) OnFramebufferResize(width, height int) {
	r.surface.NotifyResized()
}

func (r *Renderer) DrawFrame() error {
	return r.scheduler.DrawFrame()
}

// ReloadShaders rebuilds the pipeline from the shader files on disk.
func (r *Renderer) ReloadShaders() error {
	if err := r.backend.WaitIdle(); err != nil {
		return err
	}
	if err := r.backend.RebuildPipeline(); err != nil {
		return err
	}
	core.LogInfo("Pipeline rebuilt.")
	return nil
}

func (r *Renderer) SurfaceState() SurfaceState {
	return r.surface.State()
}

func (r *Renderer) SwapchainInfo() SwapchainInfo {
	return r.surface.Info()
}

func (r *Renderer) FrameNumber() uint64 {
	if r.scheduler == nil {
		return 0
	}
	return r.scheduler.FrameNumber()
}

// Shutdown waits for the GPU, destroys the swapchain and then the backend.
func (r *Renderer) Shutdown() error {
	if err := r.backend.WaitIdle(); err != nil {
		core.LogError("wait idle on shutdown: %s", err)
	}
	r.surface.Destroy()
	return r.backend.Shutdown()
}
