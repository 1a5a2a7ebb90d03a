package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"
	"github.com/spaghettifunk/vktriangle/engine/core"
)

// overlayDescriptorTypes are all descriptor types an immediate-mode UI
// library may allocate from.
var overlayDescriptorTypes = []vk.DescriptorType{
	vk.DescriptorTypeSampler,
	vk.DescriptorTypeCombinedImageSampler,
	vk.DescriptorTypeSampledImage,
	vk.DescriptorTypeStorageImage,
	vk.DescriptorTypeUniformTexelBuffer,
	vk.DescriptorTypeStorageTexelBuffer,
	vk.DescriptorTypeUniformBuffer,
	vk.DescriptorTypeStorageBuffer,
	vk.DescriptorTypeUniformBufferDynamic,
	vk.DescriptorTypeStorageBufferDynamic,
	vk.DescriptorTypeInputAttachment,
}

// overlayPoolSizes gives every type the same count. MaxSets covers all of
// them.
func overlayPoolSizes(perType uint32) ([]vk.DescriptorPoolSize, uint32) {
	sizes := make([]vk.DescriptorPoolSize, len(overlayDescriptorTypes))
	for i, t := range overlayDescriptorTypes {
		sizes[i] = vk.DescriptorPoolSize{
			Type:            t,
			DescriptorCount: perType,
		}
	}
	return sizes, perType * uint32(len(sizes))
}

// OverlayDescriptorPoolCreate allows individual sets to be freed.
func OverlayDescriptorPoolCreate(context *VulkanContext) error {
	sizes, maxSets := overlayPoolSizes(VULKAN_OVERLAY_DESCRIPTORS_PER_TYPE)
	poolInfo := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		Flags:         vk.DescriptorPoolCreateFlags(vk.DescriptorPoolCreateFreeDescriptorSetBit),
		MaxSets:       maxSets,
		PoolSizeCount: uint32(len(sizes)),
		PPoolSizes:    sizes,
	}

	var pool vk.DescriptorPool
	if res := vk.CreateDescriptorPool(context.Device.LogicalDevice, &poolInfo, context.Allocator, &pool); res != vk.Success {
		err := errors.Errorf("vkCreateDescriptorPool failed with %s", VulkanResultString(res, true))
		core.LogError(err.Error())
		return err
	}
	context.OverlayDescriptorPool = pool
	core.LogDebug("Overlay descriptor pool created (%d sets).", maxSets)
	return nil
}

func OverlayDescriptorPoolDestroy(context *VulkanContext) {
	if context.OverlayDescriptorPool != vk.DescriptorPool(vk.NullHandle) {
		vk.DestroyDescriptorPool(context.Device.LogicalDevice, context.OverlayDescriptorPool, context.Allocator)
		context.OverlayDescriptorPool = vk.DescriptorPool(vk.NullHandle)
	}
}
