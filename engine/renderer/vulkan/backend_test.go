package vulkan

import (
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vktriangle/engine/renderer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresentStatus(t *testing.T) {
	tests := []struct {
		result vk.Result
		want   renderer.PresentStatus
	}{
		{vk.Success, renderer.PresentOK},
		{vk.Suboptimal, renderer.PresentSuboptimal},
		{vk.ErrorOutOfDate, renderer.PresentOutOfDate},
	}
	for _, tt := range tests {
		got, err := presentStatus(tt.result)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := presentStatus(vk.ErrorDeviceLost)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "VK_ERROR_DEVICE_LOST")

	_, err = presentStatus(vk.ErrorSurfaceLost)
	assert.Error(t, err)
}

func TestNewClampsFramesInFlight(t *testing.T) {
	assert.Equal(t, VULKAN_DEFAULT_FRAMES_IN_FLIGHT, New(nil, Config{}).FramesInFlight())
	assert.Equal(t, 1, New(nil, Config{FramesInFlight: 1}).FramesInFlight())
	assert.Equal(t, VULKAN_MAX_FRAMES_IN_FLIGHT, New(nil, Config{FramesInFlight: 9}).FramesInFlight())
}

func TestShutdownWithoutInitialize(t *testing.T) {
	vr := New(nil, Config{})
	assert.NoError(t, vr.Shutdown())
}

type recordingOverlay struct {
	inits  []OverlayInitInfo
	counts [][2]uint32
}

func (o *recordingOverlay) Init(info *OverlayInitInfo) error {
	o.inits = append(o.inits, *info)
	return nil
}

func (o *recordingOverlay) SetMinImageCount(minImageCount, imageCount uint32) {
	o.counts = append(o.counts, [2]uint32{minImageCount, imageCount})
}

func (o *recordingOverlay) Record(cmd vk.CommandBuffer, extent vk.Extent2D) {}
func (o *recordingOverlay) ClearColor() [4]float32                          { return [4]float32{0, 0, 0, 1} }
func (o *recordingOverlay) Shutdown()                                       {}

func TestOverlayFollowsSwapchainImageCount(t *testing.T) {
	ov := &recordingOverlay{}
	vr := New(nil, Config{FramesInFlight: 2, Overlay: ov})
	ctx := vr.Context()
	ctx.Device = &VulkanDevice{}
	ctx.MainRenderpass = &VulkanRenderpass{}
	ctx.Swapchain = &VulkanSwapchain{Images: make([]vk.Image, 3)}

	require.NoError(t, vr.attachOverlay())
	require.Len(t, ov.inits, 1)
	assert.Equal(t, uint32(2), ov.inits[0].MinImageCount)
	assert.Equal(t, uint32(3), ov.inits[0].ImageCount)
	assert.Empty(t, ov.counts)

	// recreated with a different image count, same render pass
	ctx.Swapchain = &VulkanSwapchain{Images: make([]vk.Image, 4)}
	require.NoError(t, vr.attachOverlay())
	assert.Len(t, ov.inits, 1, "no second Init while the render pass is unchanged")
	assert.Equal(t, [][2]uint32{{2, 4}}, ov.counts)

	// a format change shuts the overlay down and attaches it again
	vr.shutdownOverlay()
	require.NoError(t, vr.attachOverlay())
	require.Len(t, ov.inits, 2)
	assert.Equal(t, uint32(4), ov.inits[1].ImageCount)
}

func TestAttachWithoutOverlay(t *testing.T) {
	vr := New(nil, Config{})
	assert.NoError(t, vr.attachOverlay())
	assert.Nil(t, vr.overlay())
}
