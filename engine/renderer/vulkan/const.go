package vulkan

/**
 * @brief The Khronos validation layer, required when validation is enabled.
 */
const VULKAN_VALIDATION_LAYER_NAME = "VK_LAYER_KHRONOS_validation"

/**
 * @brief Frames that may be recorded while earlier ones are still on the GPU.
 */
const VULKAN_DEFAULT_FRAMES_IN_FLIGHT = 2

/**
 * @brief Upper bound for the frames in flight setting.
 */
const VULKAN_MAX_FRAMES_IN_FLIGHT = 3

/**
 * @brief Score bonus for discrete GPUs during physical device selection.
 */
const VULKAN_DISCRETE_GPU_SCORE uint32 = 1000

/**
 * @brief Descriptors per type in the overlay descriptor pool.
 */
const VULKAN_OVERLAY_DESCRIPTORS_PER_TYPE uint32 = 1000

const VULKAN_PORTABILITY_SUBSET_EXTENSION = "VK_KHR_portability_subset"
