package renderer

// PresentStatus reports swapchain health from acquire and present.
// Staleness is not an error: it drives recreation.
type PresentStatus int

const (
	PresentOK PresentStatus = iota
	// The swapchain still works but no longer matches the surface exactly.
	PresentSuboptimal
	// The swapchain can no longer be used with the surface.
	PresentOutOfDate
)

func (s PresentStatus) String() string {
	switch s {
	case PresentOK:
		return "ok"
	case PresentSuboptimal:
		return "suboptimal"
	case PresentOutOfDate:
		return "out-of-date"
	}
	return "unknown"
}

// SwapchainInfo describes one swapchain instantiation.
type SwapchainInfo struct {
	ImageCount       uint32
	ViewCount        uint32
	FramebufferCount uint32
	Width            uint32
	Height           uint32
	// Format is the backend's native format enum value.
	Format int32
}

// Window is what the frame core needs from the windowing layer.
type Window interface {
	GetFramebufferSize() (int, int)
	// WaitEvents blocks until the window system delivers an event.
	WaitEvents()
}

// SwapchainBackend creates and destroys the swapchain with its views and
// framebuffers as one unit.
type SwapchainBackend interface {
	CreateSwapchain(width, height uint32) (SwapchainInfo, error)
	DestroySwapchain()
	WaitIdle() error
}

// FrameBackend holds the per-slot synchronization and command objects.
// Slots are in [0, FramesInFlight()).
type FrameBackend interface {
	SwapchainBackend

	FramesInFlight() int
	WaitForFence(slot int) error
	ResetFence(slot int) error
	AcquireNextImage(slot int) (uint32, PresentStatus, error)
	ResetCommandBuffer(slot int) error
	RecordCommandBuffer(slot int, imageIndex uint32) error
	Submit(slot int) error
	Present(slot int, imageIndex uint32) (PresentStatus, error)
}

type RendererBackend interface {
	FrameBackend

	// Initialize creates everything that outlives a swapchain.
	Initialize() error
	// RebuildPipeline reloads shaders and recreates the pipeline. The device
	// must be idle.
	RebuildPipeline() error
	Shutdown() error
}
