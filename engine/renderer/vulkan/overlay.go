package vulkan

import (
	vk "github.com/goki/vulkan"
)

// OverlayInitInfo is what an overlay needs to create its own Vulkan objects.
type OverlayInitInfo struct {
	Instance       vk.Instance
	PhysicalDevice vk.PhysicalDevice
	Device         vk.Device
	QueueFamily    uint32
	Queue          vk.Queue
	DescriptorPool vk.DescriptorPool
	RenderPass     vk.RenderPass
	Subpass        uint32
	// MinImageCount is the number of frames in flight.
	MinImageCount uint32
	ImageCount    uint32
	MSAASamples   vk.SampleCountFlagBits
	// CheckVkResultFn is called with every Vulkan result the overlay gets.
	CheckVkResultFn func(vk.Result)
}

// Overlay draws on top of the scene inside the main render pass.
type Overlay interface {
	// Init is called once the first swapchain exists and again whenever the
	// render pass is rebuilt.
	Init(info *OverlayInitInfo) error
	// SetMinImageCount is called after every swapchain recreation that kept
	// the render pass, with the frames in flight and the new image count.
	SetMinImageCount(minImageCount, imageCount uint32)
	// Record appends commands to cmd while the render pass is active.
	Record(cmd vk.CommandBuffer, extent vk.Extent2D)
	// ClearColor is the scene background.
	ClearColor() [4]float32
	Shutdown()
}

func newOverlayInitInfo(context *VulkanContext) *OverlayInitInfo {
	return &OverlayInitInfo{
		Instance:        context.Instance,
		PhysicalDevice:  context.Device.PhysicalDevice,
		Device:          context.Device.LogicalDevice,
		QueueFamily:     uint32(context.Device.GraphicsQueueIndex),
		Queue:           context.Device.GraphicsQueue,
		DescriptorPool:  context.OverlayDescriptorPool,
		RenderPass:      context.MainRenderpass.Handle,
		Subpass:         0,
		MinImageCount:   uint32(context.FramesInFlight),
		ImageCount:      uint32(len(context.Swapchain.Images)),
		MSAASamples:     vk.SampleCount1Bit,
		CheckVkResultFn: CheckResult,
	}
}
