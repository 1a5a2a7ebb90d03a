package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vktriangle/engine/core"
)

type VulkanContext struct {
	Instance  vk.Instance
	Allocator *vk.AllocationCallbacks
	Surface   vk.Surface

	debugMessenger vk.DebugReportCallback

	Device *VulkanDevice

	Swapchain      *VulkanSwapchain
	MainRenderpass *VulkanRenderpass
	Pipeline       *VulkanPipeline
	VertexBuffer   *VulkanBuffer

	// One per frame in flight.
	GraphicsCommandBuffers []*VulkanCommandBuffer
	// One per frame in flight.
	ImageAvailableSemaphores []vk.Semaphore
	// One per frame in flight.
	QueueCompleteSemaphores []vk.Semaphore
	InFlightFences          []*VulkanFence

	FramesInFlight int

	// Handed to the overlay; sized generously for its textures and fonts.
	OverlayDescriptorPool vk.DescriptorPool
}

func (vc *VulkanContext) FindMemoryIndex(typeFilter, propertyFlags uint32) int32 {
	var memoryProperties vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(vc.Device.PhysicalDevice, &memoryProperties)
	memoryProperties.Deref()

	for i := uint32(0); i < memoryProperties.MemoryTypeCount; i++ {
		// Check each memory type to see if its bit is set to 1.
		memoryProperties.MemoryTypes[i].Deref()
		if (typeFilter&(1<<i)) != 0 && (uint32(memoryProperties.MemoryTypes[i].PropertyFlags)&propertyFlags) == propertyFlags {
			return int32(i)
		}
	}
	core.LogWarn("Unable to find suitable memory type!")
	return -1
}
