package renderer

import (
	"github.com/spaghettifunk/vktriangle/engine/core"
)

// FrameScheduler drives acquire, record, submit and present with up to
// FramesInFlight frames outstanding on the GPU. A slot's resources are only
// reused after its fence has signaled.
type FrameScheduler struct {
	backend FrameBackend
	surface *SurfaceManager

	framesInFlight int
	currentFrame   int
	frameNumber    uint64
}

func NewFrameScheduler(backend FrameBackend, surface *SurfaceManager) *FrameScheduler {
	k := backend.FramesInFlight()
	if k < 1 {
		k = 1
	}
	return &FrameScheduler{
		backend:        backend,
		surface:        surface,
		framesInFlight: k,
	}
}

// CurrentFrame is the slot the next DrawFrame will use.
func (fs *FrameScheduler) CurrentFrame() int {
	return fs.currentFrame
}

// FrameNumber counts presented frames.
func (fs *FrameScheduler) FrameNumber() uint64 {
	return fs.frameNumber
}

// DrawFrame renders and presents one frame. An out-of-date swapchain at
// acquire time recreates it and skips the frame without advancing the slot.
// Errors from acquire, submit and present other than staleness are fatal
// and leave the slot where it was.
func (fs *FrameScheduler) DrawFrame() error {
	slot := fs.currentFrame

	// a previous recreation did not complete
	if fs.surface.State() == SurfaceStale {
		return fs.surface.Recreate()
	}

	if err := fs.backend.WaitForFence(slot); err != nil {
		return err
	}

	imageIndex, status, err := fs.backend.AcquireNextImage(slot)
	if err != nil {
		return core.FrameError(core.ErrAcquire, err)
	}
	if status == PresentOutOfDate {
		core.LogDebug("Swapchain out of date on acquire.")
		fs.surface.Invalidate()
		return fs.surface.Recreate()
	}

	// Only reset the fence once work that signals it is certain to be submitted.
	if err := fs.backend.ResetFence(slot); err != nil {
		return err
	}
	if err := fs.backend.ResetCommandBuffer(slot); err != nil {
		return err
	}
	if err := fs.backend.RecordCommandBuffer(slot, imageIndex); err != nil {
		return err
	}
	if err := fs.backend.Submit(slot); err != nil {
		return core.FrameError(core.ErrFrameSubmit, err)
	}

	status, err = fs.backend.Present(slot, imageIndex)
	if err != nil {
		return core.FrameError(core.ErrFramePresent, err)
	}
	resized := fs.surface.ConsumeResize()
	if status != PresentOK || resized {
		core.LogDebug("Recreating swapchain after present (status %s, resized %t).", status, resized)
		fs.surface.Invalidate()
		if err := fs.surface.Recreate(); err != nil {
			return err
		}
	}

	fs.currentFrame = (fs.currentFrame + 1) % fs.framesInFlight
	fs.frameNumber++
	return nil
}
