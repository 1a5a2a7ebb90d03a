package renderer

import (
	"fmt"
)

// fakeWindow replays a queue of framebuffer sizes; the last one sticks.
type fakeWindow struct {
	sizes      [][2]int
	waitEvents int
}

func (w *fakeWindow) GetFramebufferSize() (int, int) {
	s := w.sizes[0]
	return s[0], s[1]
}

func (w *fakeWindow) WaitEvents() {
	w.waitEvents++
	if len(w.sizes) > 1 {
		w.sizes = w.sizes[1:]
	}
}

// fakeBackend records every call and models fences the way the GPU would:
// a submitted slot's fence signals on the next wait.
type fakeBackend struct {
	k           int
	imageCount  uint32
	calls       []string
	fenceSignal []bool
	cmdInUse    []bool

	acquireStatus []PresentStatus
	presentStatus []PresentStatus
	createErr     error
	brokenCounts  bool

	// returned once by the matching call, then cleared
	acquireErr error
	submitErr  error
	presentErr error
	idleErr    error

	created   []SwapchainInfo
	destroyed int
	live      bool
	nextImage uint32
	violation string
}

func newFakeBackend(k int, imageCount uint32) *fakeBackend {
	fb := &fakeBackend{
		k:           k,
		imageCount:  imageCount,
		fenceSignal: make([]bool, k),
		cmdInUse:    make([]bool, k),
	}
	for i := range fb.fenceSignal {
		fb.fenceSignal[i] = true
	}
	return fb
}

func (fb *fakeBackend) record(format string, args ...interface{}) {
	fb.calls = append(fb.calls, fmt.Sprintf(format, args...))
}

func (fb *fakeBackend) Initialize() error      { fb.record("init"); return nil }
func (fb *fakeBackend) RebuildPipeline() error { fb.record("rebuild"); return nil }
func (fb *fakeBackend) Shutdown() error        { fb.record("shutdown"); return nil }
func (fb *fakeBackend) FramesInFlight() int    { return fb.k }
func (fb *fakeBackend) WaitIdle() error {
	fb.record("idle")
	if err := takeErr(&fb.idleErr); err != nil {
		return err
	}
	for i := range fb.cmdInUse {
		fb.cmdInUse[i] = false
		fb.fenceSignal[i] = true
	}
	return nil
}

func (fb *fakeBackend) CreateSwapchain(width, height uint32) (SwapchainInfo, error) {
	fb.record("create %dx%d", width, height)
	if fb.createErr != nil {
		return SwapchainInfo{}, fb.createErr
	}
	if fb.live {
		fb.violation = "swapchain created twice without destroy"
	}
	fb.live = true
	info := SwapchainInfo{
		ImageCount:       fb.imageCount,
		ViewCount:        fb.imageCount,
		FramebufferCount: fb.imageCount,
		Width:            width,
		Height:           height,
	}
	if fb.brokenCounts {
		info.FramebufferCount--
	}
	fb.created = append(fb.created, info)
	return info, nil
}

func (fb *fakeBackend) DestroySwapchain() {
	fb.record("destroy")
	for i, busy := range fb.cmdInUse {
		if busy {
			fb.violation = fmt.Sprintf("swapchain destroyed while slot %d in flight", i)
		}
	}
	fb.live = false
	fb.destroyed++
}

func (fb *fakeBackend) WaitForFence(slot int) error {
	fb.record("wait %d", slot)
	// the GPU finishes the slot's work
	fb.fenceSignal[slot] = true
	fb.cmdInUse[slot] = false
	return nil
}

func (fb *fakeBackend) ResetFence(slot int) error {
	fb.record("resetfence %d", slot)
	if !fb.fenceSignal[slot] {
		fb.violation = fmt.Sprintf("fence %d reset before it signaled", slot)
	}
	fb.fenceSignal[slot] = false
	return nil
}

func (fb *fakeBackend) AcquireNextImage(slot int) (uint32, PresentStatus, error) {
	fb.record("acquire %d", slot)
	if err := takeErr(&fb.acquireErr); err != nil {
		return 0, PresentOK, err
	}
	status := PresentOK
	if len(fb.acquireStatus) > 0 {
		status = fb.acquireStatus[0]
		fb.acquireStatus = fb.acquireStatus[1:]
	}
	idx := fb.nextImage
	fb.nextImage = (fb.nextImage + 1) % fb.imageCount
	return idx, status, nil
}

func (fb *fakeBackend) ResetCommandBuffer(slot int) error {
	fb.record("resetcmd %d", slot)
	if fb.cmdInUse[slot] {
		fb.violation = fmt.Sprintf("command buffer %d reset while in flight", slot)
	}
	return nil
}

func (fb *fakeBackend) RecordCommandBuffer(slot int, imageIndex uint32) error {
	fb.record("record %d %d", slot, imageIndex)
	return nil
}

func (fb *fakeBackend) Submit(slot int) error {
	fb.record("submit %d", slot)
	if err := takeErr(&fb.submitErr); err != nil {
		return err
	}
	fb.cmdInUse[slot] = true
	return nil
}

func (fb *fakeBackend) Present(slot int, imageIndex uint32) (PresentStatus, error) {
	fb.record("present %d %d", slot, imageIndex)
	if err := takeErr(&fb.presentErr); err != nil {
		return PresentOK, err
	}
	if len(fb.presentStatus) > 0 {
		s := fb.presentStatus[0]
		fb.presentStatus = fb.presentStatus[1:]
		return s, nil
	}
	return PresentOK, nil
}

func (fb *fakeBackend) count(prefix string) int {
	n := 0
	for _, c := range fb.calls {
		if len(c) >= len(prefix) && c[:len(prefix)] == prefix {
			n++
		}
	}
	return n
}

func takeErr(slot *error) error {
	err := *slot
	*slot = nil
	return err
}
