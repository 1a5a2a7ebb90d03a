package renderer

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/vktriangle/engine/core"
)

func TestSurfaceCreateAndDestroy(t *testing.T) {
	fb := newFakeBackend(2, 3)
	sm := NewSurfaceManager(fb, &fakeWindow{sizes: [][2]int{{800, 600}}})

	assert.Equal(t, SurfaceAbsent, sm.State())
	require.NoError(t, sm.Create())
	assert.Equal(t, SurfaceActive, sm.State())
	assert.Equal(t, uint32(800), sm.Info().Width)
	assert.Equal(t, uint32(3), sm.Info().ImageCount)

	assert.Error(t, sm.Create(), "second create without destroy")

	sm.Destroy()
	assert.Equal(t, SurfaceAbsent, sm.State())
	sm.Destroy()
	assert.Equal(t, 1, fb.destroyed)
}

func TestSurfaceRecreationKeepsCounts(t *testing.T) {
	fb := newFakeBackend(2, 3)
	sm := NewSurfaceManager(fb, &fakeWindow{sizes: [][2]int{{1024, 768}}})
	require.NoError(t, sm.Create())
	first := sm.Info()

	for i := 0; i < 25; i++ {
		require.NoError(t, sm.Recreate())
		info := sm.Info()
		assert.Equal(t, first.ImageCount, info.ImageCount)
		assert.Equal(t, first.ViewCount, info.ViewCount)
		assert.Equal(t, first.FramebufferCount, info.FramebufferCount)
		assert.Equal(t, SurfaceActive, sm.State())
	}
	assert.Equal(t, uint64(25), sm.Recreations())
	assert.Equal(t, 25, fb.destroyed)
	assert.Empty(t, fb.violation)
}

func TestSurfaceRecreateOrder(t *testing.T) {
	fb := newFakeBackend(2, 3)
	sm := NewSurfaceManager(fb, &fakeWindow{sizes: [][2]int{{640, 480}}})
	require.NoError(t, sm.Create())
	fb.calls = nil

	require.NoError(t, sm.Recreate())
	assert.Equal(t, []string{"idle", "destroy", "create 640x480"}, fb.calls)
}

func TestSurfaceMinimizedBlocksRecreation(t *testing.T) {
	fb := newFakeBackend(2, 3)
	win := &fakeWindow{sizes: [][2]int{{800, 600}}}
	sm := NewSurfaceManager(fb, win)
	require.NoError(t, sm.Create())

	// minimized for three event rounds, then restored at a new size
	win.sizes = [][2]int{{0, 0}, {0, 600}, {800, 0}, {1280, 720}}
	fb.calls = nil
	sm.NotifyResized()
	require.NoError(t, sm.Recreate())

	assert.Equal(t, 3, win.waitEvents)
	assert.Equal(t, []string{"idle", "destroy", "create 1280x720"}, fb.calls)
	for _, info := range fb.created {
		assert.NotZero(t, info.Width)
		assert.NotZero(t, info.Height)
	}
}

func TestSurfaceCreateWaitsForNonZeroSize(t *testing.T) {
	fb := newFakeBackend(2, 2)
	win := &fakeWindow{sizes: [][2]int{{0, 0}, {300, 200}}}
	sm := NewSurfaceManager(fb, win)
	require.NoError(t, sm.Create())
	assert.Equal(t, 1, win.waitEvents)
	assert.Equal(t, []string{"create 300x200"}, fb.calls)
}

func TestSurfaceResizeFlag(t *testing.T) {
	sm := NewSurfaceManager(newFakeBackend(2, 2), &fakeWindow{sizes: [][2]int{{1, 1}}})
	assert.False(t, sm.ConsumeResize())
	sm.NotifyResized()
	sm.NotifyResized()
	assert.True(t, sm.ConsumeResize())
	assert.False(t, sm.ConsumeResize())
}

func TestSurfaceCreateFailure(t *testing.T) {
	fb := newFakeBackend(2, 2)
	fb.createErr = errors.New("no memory")
	sm := NewSurfaceManager(fb, &fakeWindow{sizes: [][2]int{{1, 1}}})
	assert.Error(t, sm.Create())
	assert.Equal(t, SurfaceAbsent, sm.State())
}

func TestSurfaceRejectsMismatchedCounts(t *testing.T) {
	fb := newFakeBackend(2, 3)
	fb.brokenCounts = true
	sm := NewSurfaceManager(fb, &fakeWindow{sizes: [][2]int{{1, 1}}})
	err := sm.Create()
	assert.ErrorIs(t, err, core.ErrSetup)
	assert.Equal(t, SurfaceAbsent, sm.State())
	assert.Equal(t, 1, fb.destroyed)
}

func TestSurfaceInvalidate(t *testing.T) {
	fb := newFakeBackend(2, 3)
	sm := NewSurfaceManager(fb, &fakeWindow{sizes: [][2]int{{800, 600}}})

	sm.Invalidate()
	assert.Equal(t, SurfaceAbsent, sm.State(), "only an active swapchain goes stale")

	require.NoError(t, sm.Create())
	sm.Invalidate()
	assert.Equal(t, SurfaceStale, sm.State())

	require.NoError(t, sm.Recreate())
	assert.Equal(t, SurfaceActive, sm.State())
	assert.Equal(t, uint64(1), sm.Recreations())
}
