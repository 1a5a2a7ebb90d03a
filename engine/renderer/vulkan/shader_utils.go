package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"
	"github.com/spaghettifunk/vktriangle/engine/assets/loaders"
	"github.com/spaghettifunk/vktriangle/engine/core"
)

// ShaderSource provides compiled SPIR-V by file name.
type ShaderSource interface {
	LoadShader(name string) (*loaders.Resource, error)
}

/**
 * @brief Represents a single shader stage.
 */
type VulkanShaderStage struct {
	/** @brief The internal shader module Handle. */
	Handle vk.ShaderModule
	/** @brief The pipeline shader stage creation info. */
	ShaderStageCreateInfo vk.PipelineShaderStageCreateInfo
}

// NewShaderStage loads name from source and wraps it in a shader module with
// entry point "main".
func NewShaderStage(context *VulkanContext, source ShaderSource, name string, stage vk.ShaderStageFlagBits) (*VulkanShaderStage, error) {
	res, err := source.LoadShader(name)
	if err != nil {
		return nil, errors.Wrapf(err, "stage %s", name)
	}
	code := loaders.Code(res)

	createInfo := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint64(len(code) * 4),
		PCode:    code,
	}

	shaderStage := &VulkanShaderStage{}
	if result := vk.CreateShaderModule(context.Device.LogicalDevice, &createInfo, context.Allocator, &shaderStage.Handle); result != vk.Success {
		return nil, errors.Wrapf(core.ErrShaderLoad, "vkCreateShaderModule %s failed with %s", name, VulkanResultString(result, true))
	}

	shaderStage.ShaderStageCreateInfo = vk.PipelineShaderStageCreateInfo{
		SType:  vk.StructureTypePipelineShaderStageCreateInfo,
		Stage:  stage,
		Module: shaderStage.Handle,
		PName:  VulkanSafeString("main"),
	}
	core.LogDebug("Shader module '%s' created (%d bytes).", name, len(code)*4)
	return shaderStage, nil
}

func (s *VulkanShaderStage) Destroy(context *VulkanContext) {
	if s.Handle != vk.NullShaderModule {
		vk.DestroyShaderModule(context.Device.LogicalDevice, s.Handle, context.Allocator)
		s.Handle = vk.NullShaderModule
	}
}
