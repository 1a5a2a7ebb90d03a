package vulkan

import (
	"runtime"
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"
	"github.com/spaghettifunk/vktriangle/engine/core"
)

type DebugSeverity int

const (
	DebugSeverityDebug DebugSeverity = iota
	DebugSeverityInformation
	DebugSeverityPerformance
	DebugSeverityWarning
	DebugSeverityError
)

func (s DebugSeverity) String() string {
	switch s {
	case DebugSeverityDebug:
		return "DEBUG"
	case DebugSeverityInformation:
		return "INFORMATION"
	case DebugSeverityPerformance:
		return "PERFORMANCE WARNING"
	case DebugSeverityWarning:
		return "WARNING"
	case DebugSeverityError:
		return "ERROR"
	}
	return "UNKNOWN"
}

// DebugSink receives validation layer messages.
type DebugSink interface {
	DebugMessage(severity DebugSeverity, objectType vk.DebugReportObjectType, layer, message string)
}

// LogDebugSink forwards validation messages to the engine logger.
type LogDebugSink struct{}

func (LogDebugSink) DebugMessage(severity DebugSeverity, objectType vk.DebugReportObjectType, layer, message string) {
	switch severity {
	case DebugSeverityError:
		core.LogError("%s: [%s] object type %d : %s", severity, layer, objectType, message)
	case DebugSeverityWarning, DebugSeverityPerformance:
		core.LogWarn("%s: [%s] object type %d : %s", severity, layer, objectType, message)
	case DebugSeverityInformation:
		core.LogInfo("%s: [%s] object type %d : %s", severity, layer, objectType, message)
	default:
		core.LogDebug("%s: [%s] object type %d : %s", severity, layer, objectType, message)
	}
}

// severityFromFlags picks the most severe bit that is set.
func severityFromFlags(flags vk.DebugReportFlags) DebugSeverity {
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		return DebugSeverityError
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0:
		return DebugSeverityWarning
	case flags&vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit) != 0:
		return DebugSeverityPerformance
	case flags&vk.DebugReportFlags(vk.DebugReportInformationBit) != 0:
		return DebugSeverityInformation
	}
	return DebugSeverityDebug
}

// newDebugCallback never asks the driver to abort the call that triggered
// the message.
func newDebugCallback(sink DebugSink) vk.DebugReportCallbackFunc {
	return func(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType, object uint64, location uint64, messageCode int32, pLayerPrefix string, pMessage string, pUserData unsafe.Pointer) vk.Bool32 {
		sink.DebugMessage(severityFromFlags(flags), objectType, pLayerPrefix, pMessage)
		return vk.Bool32(vk.False)
	}
}

// requiredInstanceExtensions adds debug reporting and, on macOS, portability
// enumeration to what the window system needs.
func requiredInstanceExtensions(windowExtensions []string, validation bool, goos string) []string {
	extensions := append([]string{}, windowExtensions...)
	if goos == "darwin" {
		extensions = append(extensions,
			"VK_KHR_portability_enumeration",
			vk.KhrGetPhysicalDeviceProperties2ExtensionName,
		)
	}
	if validation {
		extensions = append(extensions, vk.ExtDebugReportExtensionName)
	}
	return extensions
}

// missingLayers returns the required layers absent from available.
func missingLayers(required, available []string) []string {
	have := make(map[string]struct{}, len(available))
	for _, name := range available {
		have[name] = struct{}{}
	}
	var missing []string
	for _, name := range required {
		if _, ok := have[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

func availableInstanceLayers() ([]string, error) {
	var count uint32
	if res := vk.EnumerateInstanceLayerProperties(&count, nil); res != vk.Success {
		return nil, errors.Errorf("vkEnumerateInstanceLayerProperties failed with %s", VulkanResultString(res, true))
	}
	layers := make([]vk.LayerProperties, count)
	if res := vk.EnumerateInstanceLayerProperties(&count, layers); res != vk.Success {
		return nil, errors.Errorf("vkEnumerateInstanceLayerProperties failed with %s", VulkanResultString(res, true))
	}
	names := make([]string, 0, count)
	for i := range layers {
		layers[i].Deref()
		names = append(names, fixedString(layers[i].LayerName[:]))
	}
	return names, nil
}

// InstanceCreate loads the Vulkan loader through GLFW and creates the
// instance. With validation on, the Khronos layer must be installed.
func InstanceCreate(context *VulkanContext, appName string, windowExtensions []string, validation bool) error {
	procAddr := glfw.GetVulkanGetInstanceProcAddress()
	if procAddr == nil {
		return errors.New("GetInstanceProcAddress is nil")
	}
	vk.SetGetInstanceProcAddr(procAddr)

	if err := vk.Init(); err != nil {
		return errors.Wrap(err, "failed to initialize vk")
	}

	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         uint32(vk.MakeVersion(1, 0, 0)),
		ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
		EngineVersion:      uint32(vk.MakeVersion(1, 0, 0)),
		PApplicationName:   VulkanSafeString(appName),
		PEngineName:        VulkanSafeString("vktriangle"),
	}

	createInfo := vk.InstanceCreateInfo{
		SType:            vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: appInfo,
	}

	extensions := requiredInstanceExtensions(windowExtensions, validation, runtime.GOOS)
	core.LogDebug("Required extensions: %v", extensions)
	createInfo.EnabledExtensionCount = uint32(len(extensions))
	createInfo.PpEnabledExtensionNames = VulkanSafeStrings(extensions)

	if runtime.GOOS == "darwin" {
		// VK_INSTANCE_CREATE_ENUMERATE_PORTABILITY_BIT_KHR
		createInfo.Flags |= 1
	}

	var layerNames []string
	if validation {
		core.LogInfo("Validation layers enabled. Enumerating...")
		layerNames = []string{VULKAN_VALIDATION_LAYER_NAME}

		available, err := availableInstanceLayers()
		if err != nil {
			return err
		}
		if missing := missingLayers(layerNames, available); len(missing) > 0 {
			return errors.Wrapf(core.ErrValidationLayerMissing, "%v", missing)
		}
		core.LogInfo("All required validation layers are present.")
	}
	createInfo.EnabledLayerCount = uint32(len(layerNames))
	createInfo.PpEnabledLayerNames = VulkanSafeStrings(layerNames)

	if res := vk.CreateInstance(&createInfo, context.Allocator, &context.Instance); res != vk.Success {
		return errors.Errorf("vkCreateInstance failed with %s", VulkanResultString(res, true))
	}
	if err := vk.InitInstance(context.Instance); err != nil {
		return errors.Wrap(err, "failed to load instance functions")
	}

	core.LogInfo("Vulkan Instance created.")
	return nil
}

func DebuggerCreate(context *VulkanContext, sink DebugSink) error {
	core.LogDebug("Creating Vulkan debugger...")
	debugCreateInfo := vk.DebugReportCallbackCreateInfo{
		SType: vk.StructureTypeDebugReportCallbackCreateInfo,
		Flags: vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit |
			vk.DebugReportPerformanceWarningBit | vk.DebugReportInformationBit | vk.DebugReportDebugBit),
		PfnCallback: newDebugCallback(sink),
	}

	var dbg vk.DebugReportCallback
	if res := vk.CreateDebugReportCallback(context.Instance, &debugCreateInfo, context.Allocator, &dbg); res != vk.Success {
		return errors.Errorf("vkCreateDebugReportCallbackEXT failed with %s", VulkanResultString(res, true))
	}
	context.debugMessenger = dbg
	core.LogDebug("Vulkan debugger created.")
	return nil
}

func DebuggerDestroy(context *VulkanContext) {
	if context.debugMessenger != vk.NullDebugReportCallback {
		core.LogDebug("Destroying Vulkan debugger...")
		vk.DestroyDebugReportCallback(context.Instance, context.debugMessenger, context.Allocator)
		context.debugMessenger = vk.NullDebugReportCallback
	}
}
