package renderer

import (
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/vktriangle/engine/core"
)

func newTestRenderer(t *testing.T, k int, imageCount uint32, win *fakeWindow) (*Renderer, *fakeBackend) {
	t.Helper()
	fb := newFakeBackend(k, imageCount)
	r := New(fb, win)
	require.NoError(t, r.Initialize())
	fb.calls = nil
	return r, fb
}

func TestSchedulerFrameProtocolOrder(t *testing.T) {
	r, fb := newTestRenderer(t, 2, 3, &fakeWindow{sizes: [][2]int{{800, 600}}})

	require.NoError(t, r.DrawFrame())
	assert.Equal(t, []string{
		"wait 0",
		"acquire 0",
		"resetfence 0",
		"resetcmd 0",
		"record 0 0",
		"submit 0",
		"present 0 0",
	}, fb.calls)
}

func TestSchedulerSlotPeriod(t *testing.T) {
	for _, k := range []int{1, 2, 3} {
		r, fb := newTestRenderer(t, k, 3, &fakeWindow{sizes: [][2]int{{800, 600}}})
		for i := 0; i < k; i++ {
			assert.Equal(t, i, r.scheduler.CurrentFrame())
			require.NoError(t, r.DrawFrame())
		}
		assert.Equal(t, 0, r.scheduler.CurrentFrame(), "slot returns to 0 after K frames")

		for i := 0; i < 50; i++ {
			require.NoError(t, r.DrawFrame())
		}
		assert.Empty(t, fb.violation)
		assert.Equal(t, uint64(50+k), r.FrameNumber())
	}
}

func TestSchedulerWaitPrecedesReuse(t *testing.T) {
	r, fb := newTestRenderer(t, 2, 3, &fakeWindow{sizes: [][2]int{{800, 600}}})
	for i := 0; i < 40; i++ {
		require.NoError(t, r.DrawFrame())
	}

	// every reset of a slot's command buffer is preceded by a wait on that
	// slot's fence since its previous submit
	waited := map[string]bool{}
	for _, c := range fb.calls {
		f := strings.Fields(c)
		switch f[0] {
		case "wait":
			waited[f[1]] = true
		case "resetcmd":
			assert.True(t, waited[f[1]], "slot %s reused without fence wait", f[1])
		case "submit":
			waited[f[1]] = false
		}
	}
	assert.Empty(t, fb.violation)
}

func TestSchedulerAcquireOutOfDateSkipsFrame(t *testing.T) {
	r, fb := newTestRenderer(t, 2, 3, &fakeWindow{sizes: [][2]int{{800, 600}}})
	fb.acquireStatus = []PresentStatus{PresentOutOfDate}

	require.NoError(t, r.DrawFrame())
	assert.Equal(t, []string{"wait 0", "acquire 0", "idle", "destroy", "create 800x600"}, fb.calls)
	assert.Equal(t, 0, r.scheduler.CurrentFrame(), "slot not advanced")
	assert.Zero(t, r.FrameNumber())
	assert.Equal(t, 0, fb.count("resetfence"))

	fb.calls = nil
	require.NoError(t, r.DrawFrame())
	assert.Equal(t, "submit 0", fb.calls[5])
	assert.Equal(t, 1, r.scheduler.CurrentFrame())
}

func TestSchedulerAcquireSuboptimalRenders(t *testing.T) {
	r, fb := newTestRenderer(t, 2, 3, &fakeWindow{sizes: [][2]int{{800, 600}}})
	fb.acquireStatus = []PresentStatus{PresentSuboptimal}

	require.NoError(t, r.DrawFrame())
	assert.Equal(t, 1, fb.count("present"))
	assert.Equal(t, 0, fb.count("create"))
}

func TestSchedulerPresentStalenessRecreates(t *testing.T) {
	for _, status := range []PresentStatus{PresentSuboptimal, PresentOutOfDate} {
		r, fb := newTestRenderer(t, 2, 3, &fakeWindow{sizes: [][2]int{{800, 600}}})
		fb.presentStatus = []PresentStatus{status}

		require.NoError(t, r.DrawFrame(), status.String())
		assert.Equal(t, 1, fb.count("create"), status.String())
		assert.Equal(t, SurfaceActive, r.SurfaceState())
		assert.Equal(t, 1, r.scheduler.CurrentFrame(), "slot advances after present")
		assert.Empty(t, fb.violation)
	}
}

func TestSchedulerDeferredResize(t *testing.T) {
	win := &fakeWindow{sizes: [][2]int{{800, 600}}}
	r, fb := newTestRenderer(t, 2, 3, win)

	win.sizes = [][2]int{{1024, 768}}
	r.OnFramebufferResize(1024, 768)
	assert.Equal(t, 0, fb.count("create"), "resize is deferred until after present")

	require.NoError(t, r.DrawFrame())
	assert.Equal(t, "present 0 0", fb.calls[6])
	assert.Equal(t, "create 1024x768", fb.calls[len(fb.calls)-1])
	assert.Equal(t, uint32(1024), r.SwapchainInfo().Width)

	fb.calls = nil
	require.NoError(t, r.DrawFrame())
	assert.Equal(t, 0, fb.count("create"), "flag cleared")
}

func TestSchedulerMinimizedDuringResize(t *testing.T) {
	win := &fakeWindow{sizes: [][2]int{{800, 600}}}
	r, fb := newTestRenderer(t, 2, 3, win)

	win.sizes = [][2]int{{0, 0}, {0, 0}, {640, 360}}
	r.OnFramebufferResize(0, 0)
	require.NoError(t, r.DrawFrame())

	assert.Equal(t, 2, win.waitEvents)
	assert.Equal(t, "create 640x360", fb.calls[len(fb.calls)-1])
	assert.Equal(t, 0, fb.count("create 0x"))
}

func TestRendererReloadAndShutdown(t *testing.T) {
	r, fb := newTestRenderer(t, 2, 3, &fakeWindow{sizes: [][2]int{{800, 600}}})
	require.NoError(t, r.DrawFrame())
	fb.calls = nil

	require.NoError(t, r.ReloadShaders())
	assert.Equal(t, []string{"idle", "rebuild"}, fb.calls)

	fb.calls = nil
	require.NoError(t, r.Shutdown())
	assert.Equal(t, []string{"idle", "destroy", "shutdown"}, fb.calls)
	assert.Equal(t, SurfaceAbsent, r.SurfaceState())
}

func TestSchedulerFatalErrorsKeepCauseAndSlot(t *testing.T) {
	errDeviceLost := errors.New("device lost")

	for name, tc := range map[string]struct {
		inject func(fb *fakeBackend, err error)
		kind   error
		last   string
	}{
		"acquire": {
			inject: func(fb *fakeBackend, err error) { fb.acquireErr = err },
			kind:   core.ErrAcquire,
			last:   "acquire 1",
		},
		"submit": {
			inject: func(fb *fakeBackend, err error) { fb.submitErr = err },
			kind:   core.ErrFrameSubmit,
			last:   "submit 1",
		},
		"present": {
			inject: func(fb *fakeBackend, err error) { fb.presentErr = err },
			kind:   core.ErrFramePresent,
			last:   "present 1 1",
		},
	} {
		t.Run(name, func(t *testing.T) {
			r, fb := newTestRenderer(t, 2, 3, &fakeWindow{sizes: [][2]int{{800, 600}}})
			require.NoError(t, r.DrawFrame())
			fb.calls = nil

			tc.inject(fb, errors.Wrap(errDeviceLost, name))
			err := r.DrawFrame()
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.kind), "%+v", err)
			assert.True(t, errors.Is(err, errDeviceLost), "cause is kept: %+v", err)

			assert.Equal(t, tc.last, fb.calls[len(fb.calls)-1], "nothing runs after the failing stage")
			assert.Equal(t, 1, r.scheduler.CurrentFrame(), "slot not advanced")
			assert.Equal(t, uint64(1), r.FrameNumber())
			assert.Equal(t, 0, fb.count("create"), "fatal errors do not recreate")
		})
	}
}

func TestSchedulerAcquireErrorLeavesFenceSignaled(t *testing.T) {
	r, fb := newTestRenderer(t, 2, 3, &fakeWindow{sizes: [][2]int{{800, 600}}})
	fb.acquireErr = errors.New("surface lost")

	require.Error(t, r.DrawFrame())
	assert.Equal(t, 0, fb.count("resetfence"))
	assert.True(t, fb.fenceSignal[0])
}

func TestSchedulerStaleSurfaceRecreatedNextFrame(t *testing.T) {
	r, fb := newTestRenderer(t, 2, 3, &fakeWindow{sizes: [][2]int{{800, 600}}})
	fb.presentStatus = []PresentStatus{PresentOutOfDate}
	fb.idleErr = errors.New("device busy")

	require.Error(t, r.DrawFrame())
	assert.Equal(t, SurfaceStale, r.SurfaceState(), "failed recreation leaves the swapchain stale")
	assert.Equal(t, 0, fb.count("destroy"))

	fb.calls = nil
	require.NoError(t, r.DrawFrame())
	assert.Equal(t, []string{"idle", "destroy", "create 800x600"}, fb.calls, "no acquire from a stale swapchain")
	assert.Equal(t, SurfaceActive, r.SurfaceState())

	fb.calls = nil
	require.NoError(t, r.DrawFrame())
	assert.Equal(t, 1, fb.count("present"))
}
