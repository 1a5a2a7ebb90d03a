package renderer

import (
	"github.com/pkg/errors"
	"github.com/spaghettifunk/vktriangle/engine/core"
)

type SurfaceState int

const (
	SurfaceAbsent SurfaceState = iota
	SurfaceActive
	SurfaceStale
)

func (s SurfaceState) String() string {
	switch s {
	case SurfaceAbsent:
		return "absent"
	case SurfaceActive:
		return "active"
	case SurfaceStale:
		return "stale"
	}
	return "unknown"
}

// SurfaceManager owns the swapchain lifecycle:
//
//	Absent -> Active -> Stale -> Absent (recreating) -> Active
//
// It is driven from the render thread only.
type SurfaceManager struct {
	backend SwapchainBackend
	window  Window

	state         SurfaceState
	info          SwapchainInfo
	resizePending bool
	recreations   uint64
}

func NewSurfaceManager(backend SwapchainBackend, window Window) *SurfaceManager {
	return &SurfaceManager{
		backend: backend,
		window:  window,
		state:   SurfaceAbsent,
	}
}

func (sm *SurfaceManager) State() SurfaceState {
	return sm.state
}

func (sm *SurfaceManager) Info() SwapchainInfo {
	return sm.info
}

// Recreations counts completed recreations since Create.
func (sm *SurfaceManager) Recreations() uint64 {
	return sm.recreations
}

// Create builds the first swapchain. It waits for a non-zero window size.
func (sm *SurfaceManager) Create() error {
	if sm.state != SurfaceAbsent {
		return errors.Errorf("swapchain create called in state %s", sm.state)
	}
	return sm.build()
}

// NotifyResized records a framebuffer size change. The swapchain is
// recreated after the next present.
func (sm *SurfaceManager) NotifyResized() {
	sm.resizePending = true
}

// ConsumeResize reports and clears the deferred resize flag.
func (sm *SurfaceManager) ConsumeResize() bool {
	r := sm.resizePending
	sm.resizePending = false
	return r
}

// Invalidate marks the active swapchain as stale. A stale swapchain must
// not be acquired from again; Recreate replaces it.
func (sm *SurfaceManager) Invalidate() {
	if sm.state == SurfaceActive {
		sm.state = SurfaceStale
	}
}

// Recreate tears the stale swapchain down and builds a new one. A
// minimized window blocks here until it has a non-zero size again. If the
// device cannot be idled the swapchain stays stale.
func (sm *SurfaceManager) Recreate() error {
	sm.Invalidate()

	width, height := sm.waitForSize()
	if err := sm.backend.WaitIdle(); err != nil {
		return err
	}
	sm.Destroy()

	core.LogDebug("Recreating swapchain at %dx%d.", width, height)
	if err := sm.create(width, height); err != nil {
		return err
	}
	sm.recreations++
	return nil
}

// Destroy releases framebuffers, views and swapchain. The caller ensures no
// submitted work still references them.
func (sm *SurfaceManager) Destroy() {
	if sm.state == SurfaceAbsent {
		return
	}
	sm.backend.DestroySwapchain()
	sm.state = SurfaceAbsent
	sm.info = SwapchainInfo{}
}

func (sm *SurfaceManager) build() error {
	width, height := sm.waitForSize()
	return sm.create(width, height)
}

func (sm *SurfaceManager) create(width, height uint32) error {
	info, err := sm.backend.CreateSwapchain(width, height)
	if err != nil {
		return err
	}
	if info.ImageCount != info.ViewCount || info.ImageCount != info.FramebufferCount {
		sm.info = info
		sm.state = SurfaceActive
		sm.Destroy()
		return errors.Wrapf(core.ErrSetup, "swapchain has %d images, %d views, %d framebuffers",
			info.ImageCount, info.ViewCount, info.FramebufferCount)
	}
	sm.info = info
	sm.state = SurfaceActive
	return nil
}

func (sm *SurfaceManager) waitForSize() (uint32, uint32) {
	width, height := sm.window.GetFramebufferSize()
	if width == 0 || height == 0 {
		core.LogInfo("Window minimized, waiting.")
	}
	for width == 0 || height == 0 {
		sm.window.WaitEvents()
		width, height = sm.window.GetFramebufferSize()
	}
	return uint32(width), uint32(height)
}
