package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"
	"github.com/spaghettifunk/vktriangle/engine/core"
)

type VulkanDevice struct {
	PhysicalDevice     vk.PhysicalDevice
	LogicalDevice      vk.Device
	SwapchainSupport   SwapchainSupport
	GraphicsQueueIndex int32
	PresentQueueIndex  int32

	GraphicsQueue vk.Queue
	PresentQueue  vk.Queue

	GraphicsCommandPool vk.CommandPool

	Name       string
	Properties vk.PhysicalDeviceProperties
	Features   vk.PhysicalDeviceFeatures
	Memory     vk.PhysicalDeviceMemoryProperties
}

func deviceExtensions(physicalDevice vk.PhysicalDevice) ([]string, error) {
	var count uint32
	if res := vk.EnumerateDeviceExtensionProperties(physicalDevice, "", &count, nil); res != vk.Success {
		return nil, errors.Errorf("vkEnumerateDeviceExtensionProperties failed with %s", VulkanResultString(res, true))
	}
	available := make([]vk.ExtensionProperties, count)
	if count != 0 {
		if res := vk.EnumerateDeviceExtensionProperties(physicalDevice, "", &count, available); res != vk.Success {
			return nil, errors.Errorf("vkEnumerateDeviceExtensionProperties failed with %s", VulkanResultString(res, true))
		}
	}
	names := make([]string, 0, count)
	for i := range available {
		available[i].Deref()
		names = append(names, fixedString(available[i].ExtensionName[:]))
	}
	return names, nil
}

func hasExtension(extensions []string, name string) bool {
	for _, ext := range extensions {
		if ext == name {
			return true
		}
	}
	return false
}

// describeDevice gathers what scoring needs from one physical device.
func describeDevice(physicalDevice vk.PhysicalDevice, surface vk.Surface) (DeviceCandidate, []string) {
	var properties vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(physicalDevice, &properties)
	properties.Deref()
	properties.Limits.Deref()

	var features vk.PhysicalDeviceFeatures
	vk.GetPhysicalDeviceFeatures(physicalDevice, &features)
	features.Deref()

	var queueFamilyCount uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(physicalDevice, &queueFamilyCount, nil)
	queueFamilies := make([]vk.QueueFamilyProperties, queueFamilyCount)
	vk.GetPhysicalDeviceQueueFamilyProperties(physicalDevice, &queueFamilyCount, queueFamilies)

	candidate := DeviceCandidate{
		Name:                vk.ToString(properties.DeviceName[:]),
		Type:                properties.DeviceType,
		MaxImageDimension2D: properties.Limits.MaxImageDimension2D,
		GeometryShader:      features.GeometryShader == vk.True,
	}
	candidate.Families = FindQueueFamilies(queueFamilies, func(index uint32) bool {
		var supportsPresent vk.Bool32
		if res := vk.GetPhysicalDeviceSurfaceSupport(physicalDevice, index, surface, &supportsPresent); res != vk.Success {
			core.LogWarn("Querying present support of family %d failed with %s", index, VulkanResultString(res, false))
			return false
		}
		return supportsPresent == vk.True
	})

	extensions, err := deviceExtensions(physicalDevice)
	if err != nil {
		core.LogWarn("Skipping device '%s': %s", candidate.Name, err)
		return candidate, nil
	}
	candidate.HasSwapchainExtension = hasExtension(extensions, vk.KhrSwapchainExtensionName)

	// Support is only meaningful when the device can create swapchains.
	if candidate.HasSwapchainExtension {
		support, err := DeviceQuerySwapchainSupport(physicalDevice, surface)
		if err != nil {
			core.LogWarn("Skipping device '%s': %s", candidate.Name, err)
		} else {
			candidate.Support = support
		}
	}
	return candidate, extensions
}

// SelectPhysicalDevice scores every device and keeps the best one.
func SelectPhysicalDevice(context *VulkanContext) ([]string, error) {
	var physicalDeviceCount uint32
	if res := vk.EnumeratePhysicalDevices(context.Instance, &physicalDeviceCount, nil); res != vk.Success {
		return nil, errors.Errorf("vkEnumeratePhysicalDevices failed with %s", VulkanResultString(res, true))
	}
	if physicalDeviceCount == 0 {
		return nil, core.ErrNoDevices
	}
	physicalDevices := make([]vk.PhysicalDevice, physicalDeviceCount)
	if res := vk.EnumeratePhysicalDevices(context.Instance, &physicalDeviceCount, physicalDevices); res != vk.Success {
		return nil, errors.Errorf("vkEnumeratePhysicalDevices failed with %s", VulkanResultString(res, true))
	}

	candidates := make([]DeviceCandidate, len(physicalDevices))
	extensions := make([][]string, len(physicalDevices))
	for i := range physicalDevices {
		candidates[i], extensions[i] = describeDevice(physicalDevices[i], context.Surface)
	}

	selected, err := SelectDevice(candidates)
	if err != nil {
		return nil, err
	}

	chosen := candidates[selected]
	device := context.Device
	device.PhysicalDevice = physicalDevices[selected]
	device.Name = chosen.Name
	device.GraphicsQueueIndex = chosen.Families.Graphics
	device.PresentQueueIndex = chosen.Families.Present
	device.SwapchainSupport = chosen.Support

	vk.GetPhysicalDeviceProperties(device.PhysicalDevice, &device.Properties)
	device.Properties.Deref()
	vk.GetPhysicalDeviceFeatures(device.PhysicalDevice, &device.Features)
	device.Features.Deref()
	vk.GetPhysicalDeviceMemoryProperties(device.PhysicalDevice, &device.Memory)
	device.Memory.Deref()

	logDeviceInfo(device, chosen.Type)
	return extensions[selected], nil
}

func logDeviceInfo(device *VulkanDevice, deviceType vk.PhysicalDeviceType) {
	core.LogInfo("Selected device: '%s'.", device.Name)
	switch deviceType {
	case vk.PhysicalDeviceTypeIntegratedGpu:
		core.LogInfo("GPU type is Integrated.")
	case vk.PhysicalDeviceTypeDiscreteGpu:
		core.LogInfo("GPU type is Discrete.")
	case vk.PhysicalDeviceTypeVirtualGpu:
		core.LogInfo("GPU type is Virtual.")
	case vk.PhysicalDeviceTypeCpu:
		core.LogInfo("GPU type is CPU.")
	default:
		core.LogInfo("GPU type is Unknown.")
	}

	core.LogInfo(
		"GPU Driver version: %d.%d.%d",
		vk.Version(device.Properties.DriverVersion).Major(),
		vk.Version(device.Properties.DriverVersion).Minor(),
		vk.Version(device.Properties.DriverVersion).Patch(),
	)
	core.LogInfo(
		"Vulkan API version: %d.%d.%d",
		vk.Version(device.Properties.ApiVersion).Major(),
		vk.Version(device.Properties.ApiVersion).Minor(),
		vk.Version(device.Properties.ApiVersion).Patch(),
	)

	for j := 0; j < int(device.Memory.MemoryHeapCount); j++ {
		heap := device.Memory.MemoryHeaps[j]
		heap.Deref()
		memorySizeGib := float64(heap.Size) / 1024.0 / 1024.0 / 1024.0
		if vk.MemoryHeapFlagBits(heap.Flags)&vk.MemoryHeapDeviceLocalBit != 0 {
			core.LogInfo("Local GPU memory: %.2f GiB", memorySizeGib)
		} else {
			core.LogInfo("Shared System memory: %.2f GiB", memorySizeGib)
		}
	}
}

// DeviceCreate selects a physical device, then creates the logical device,
// its queues and the graphics command pool.
func DeviceCreate(context *VulkanContext) error {
	context.Device = &VulkanDevice{
		GraphicsQueueIndex: -1,
		PresentQueueIndex:  -1,
	}
	available, err := SelectPhysicalDevice(context)
	if err != nil {
		return err
	}

	core.LogInfo("Creating logical device...")

	families := QueueFamilyIndices{
		Graphics: context.Device.GraphicsQueueIndex,
		Present:  context.Device.PresentQueueIndex,
	}.UniqueFamilies()

	queueCreateInfos := make([]vk.DeviceQueueCreateInfo, len(families))
	for i, family := range families {
		queueCreateInfos[i] = vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: family,
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		}
	}

	extensionNames := []string{vk.KhrSwapchainExtensionName}
	if hasExtension(available, VULKAN_PORTABILITY_SUBSET_EXTENSION) {
		core.LogInfo("Adding required extension '%s'.", VULKAN_PORTABILITY_SUBSET_EXTENSION)
		extensionNames = append(extensionNames, VULKAN_PORTABILITY_SUBSET_EXTENSION)
	}

	deviceCreateInfo := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueCreateInfos)),
		PQueueCreateInfos:       queueCreateInfos,
		PEnabledFeatures:        []vk.PhysicalDeviceFeatures{{}},
		EnabledExtensionCount:   uint32(len(extensionNames)),
		PpEnabledExtensionNames: VulkanSafeStrings(extensionNames),
	}

	var logicalDevice vk.Device
	if res := vk.CreateDevice(context.Device.PhysicalDevice, &deviceCreateInfo, context.Allocator, &logicalDevice); res != vk.Success {
		return errors.Errorf("vkCreateDevice failed with %s", VulkanResultString(res, true))
	}
	context.Device.LogicalDevice = logicalDevice
	core.LogInfo("Logical device created.")

	var graphicsQueue, presentQueue vk.Queue
	vk.GetDeviceQueue(logicalDevice, uint32(context.Device.GraphicsQueueIndex), 0, &graphicsQueue)
	vk.GetDeviceQueue(logicalDevice, uint32(context.Device.PresentQueueIndex), 0, &presentQueue)
	context.Device.GraphicsQueue = graphicsQueue
	context.Device.PresentQueue = presentQueue
	core.LogInfo("Queues obtained.")

	poolCreateInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: uint32(context.Device.GraphicsQueueIndex),
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
	}
	var pool vk.CommandPool
	if res := vk.CreateCommandPool(logicalDevice, &poolCreateInfo, context.Allocator, &pool); res != vk.Success {
		return errors.Errorf("vkCreateCommandPool failed with %s", VulkanResultString(res, true))
	}
	context.Device.GraphicsCommandPool = pool
	core.LogInfo("Graphics command pool created.")

	return nil
}

func DeviceWaitIdle(context *VulkanContext) error {
	if context.Device == nil || context.Device.LogicalDevice == nil {
		return nil
	}
	if res := vk.DeviceWaitIdle(context.Device.LogicalDevice); res != vk.Success {
		return errors.Errorf("vkDeviceWaitIdle failed with %s", VulkanResultString(res, true))
	}
	return nil
}

func DeviceDestroy(context *VulkanContext) {
	device := context.Device
	if device == nil {
		return
	}
	device.GraphicsQueue = nil
	device.PresentQueue = nil

	if device.GraphicsCommandPool != vk.NullCommandPool {
		core.LogInfo("Destroying command pools...")
		vk.DestroyCommandPool(device.LogicalDevice, device.GraphicsCommandPool, context.Allocator)
		device.GraphicsCommandPool = vk.NullCommandPool
	}

	if device.LogicalDevice != nil {
		core.LogInfo("Destroying logical device...")
		vk.DestroyDevice(device.LogicalDevice, context.Allocator)
		device.LogicalDevice = nil
	}

	// Physical devices are not destroyed.
	device.PhysicalDevice = nil
	device.SwapchainSupport = SwapchainSupport{}
	device.GraphicsQueueIndex = -1
	device.PresentQueueIndex = -1
}
