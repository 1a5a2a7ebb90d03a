package ui

import (
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"

	"github.com/spaghettifunk/vktriangle/engine/core"
	"github.com/spaghettifunk/vktriangle/engine/math"
	"github.com/spaghettifunk/vktriangle/engine/platform"
	"github.com/spaghettifunk/vktriangle/engine/renderer/vulkan"
)

// ChannelStep is how much one R/G/B key press moves a channel.
const ChannelStep float32 = 0.05

// Presets cycled with Space. The first entry is the startup default.
var Presets = []mgl32.Vec3{
	{0, 0, 0},
	{0.39, 0.58, 0.93},
	{0.18, 0.31, 0.31},
	{0.5, 0.5, 0.5},
	{1, 1, 1},
}

// HUD is the debug overlay: a panel with the background color and a
// frame time graph, driven from the keyboard. It lives on the render thread.
type HUD struct {
	metrics *core.FrameMetrics
	onClose func()

	background mgl32.Vec3
	preset     int
	visible    bool

	info          *vulkan.OverlayInitInfo
	minImageCount uint32
	imageCount    uint32
}

var _ vulkan.Overlay = (*HUD)(nil)

// NewHUD creates a visible HUD. metrics may be nil, in which case no graph is drawn.
func NewHUD(metrics *core.FrameMetrics, background mgl32.Vec3, onClose func()) *HUD {
	return &HUD{
		metrics:    metrics,
		onClose:    onClose,
		background: clampColor(background),
		visible:    true,
	}
}

func (h *HUD) Init(info *vulkan.OverlayInitInfo) error {
	if info == nil {
		return errors.Wrap(core.ErrSetup, "hud: missing overlay init info")
	}
	if info.RenderPass == vk.NullRenderPass {
		return errors.Wrap(core.ErrSetup, "hud: render pass is not created")
	}
	h.info = info
	h.minImageCount, h.imageCount = info.MinImageCount, info.ImageCount
	core.LogDebug("HUD attached to render pass (images=%d, in flight=%d)", info.ImageCount, info.MinImageCount)
	return nil
}

func (h *HUD) SetMinImageCount(minImageCount, imageCount uint32) {
	h.minImageCount, h.imageCount = minImageCount, imageCount
	core.LogDebug("HUD swapchain images now %d (in flight=%d)", imageCount, minImageCount)
}

// ImageCounts returns the frames in flight and swapchain image count the HUD
// was last told about.
func (h *HUD) ImageCounts() (minImageCount, imageCount uint32) {
	return h.minImageCount, h.imageCount
}

// Record clears the HUD quads into color attachment 0 of the active pass.
func (h *HUD) Record(cmd vk.CommandBuffer, extent vk.Extent2D) {
	if h.info == nil || !h.visible {
		return
	}
	var history []float64
	if h.metrics != nil {
		history = h.metrics.History()
	}
	for _, q := range Layout(extent, h.background, history) {
		attachment := vk.ClearAttachment{
			AspectMask:      vk.ImageAspectFlags(vk.ImageAspectColorBit),
			ColorAttachment: 0,
		}
		attachment.ClearValue.SetColor(q.Color[:])
		rect := vk.ClearRect{
			Rect:           q.Rect,
			BaseArrayLayer: 0,
			LayerCount:     1,
		}
		vk.CmdClearAttachments(cmd, 1, []vk.ClearAttachment{attachment}, 1, []vk.ClearRect{rect})
	}
}

func (h *HUD) ClearColor() [4]float32 {
	return [4]float32{h.background[0], h.background[1], h.background[2], 1}
}

func (h *HUD) Background() mgl32.Vec3 {
	return h.background
}

func (h *HUD) Visible() bool {
	return h.visible
}

func (h *HUD) Shutdown() {
	h.info = nil
}

// OnKey is registered as the window key callback.
func (h *HUD) OnKey(key glfw.Key, action platform.KeyAction, shift bool) {
	if action == platform.KeyRelease {
		return
	}
	step := ChannelStep
	if shift {
		step = -step
	}
	switch key {
	case glfw.KeyR:
		h.nudge(0, step)
	case glfw.KeyG:
		h.nudge(1, step)
	case glfw.KeyB:
		h.nudge(2, step)
	case glfw.KeySpace:
		if action == platform.KeyPress {
			h.preset = (h.preset + 1) % len(Presets)
			h.background = Presets[h.preset]
		}
	case glfw.KeyH:
		if action == platform.KeyPress {
			h.visible = !h.visible
		}
	case glfw.KeyEscape:
		if action == platform.KeyPress && h.onClose != nil {
			h.onClose()
		}
	}
}

func (h *HUD) nudge(channel int, step float32) {
	h.background[channel] = math.Clamp(h.background[channel]+step, 0, 1)
}

func clampColor(c mgl32.Vec3) mgl32.Vec3 {
	for i := range c {
		c[i] = math.Clamp(c[i], 0, 1)
	}
	return c
}
