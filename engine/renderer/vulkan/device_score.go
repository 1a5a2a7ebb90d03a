package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"
	"github.com/spaghettifunk/vktriangle/engine/core"
)

// QueueFamilyIndices holds the family indices a device offers for drawing
// and presenting. -1 means not found.
type QueueFamilyIndices struct {
	Graphics int32
	Present  int32
}

func NewQueueFamilyIndices() QueueFamilyIndices {
	return QueueFamilyIndices{Graphics: -1, Present: -1}
}

func (q QueueFamilyIndices) IsComplete() bool {
	return q.Graphics >= 0 && q.Present >= 0
}

// UniqueFamilies returns the distinct family indices, graphics first.
func (q QueueFamilyIndices) UniqueFamilies() []uint32 {
	if !q.IsComplete() {
		return nil
	}
	families := []uint32{uint32(q.Graphics)}
	if q.Present != q.Graphics {
		families = append(families, uint32(q.Present))
	}
	return families
}

// FindQueueFamilies scans families in order and stops as soon as both a
// graphics and a presenting family are known. The same family may serve both.
func FindQueueFamilies(families []vk.QueueFamilyProperties, supportsPresent func(index uint32) bool) QueueFamilyIndices {
	indices := NewQueueFamilyIndices()
	for i, family := range families {
		family.Deref()
		if indices.Graphics < 0 && family.QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) != 0 {
			indices.Graphics = int32(i)
		}
		if indices.Present < 0 && supportsPresent(uint32(i)) {
			indices.Present = int32(i)
		}
		if indices.IsComplete() {
			break
		}
	}
	return indices
}

// SwapchainSupport is what a surface allows on a given device.
type SwapchainSupport struct {
	Capabilities vk.SurfaceCapabilities
	Formats      []vk.SurfaceFormat
	PresentModes []vk.PresentMode
}

// DeviceCandidate is everything device selection looks at, gathered up
// front so that scoring does not touch the driver.
type DeviceCandidate struct {
	Name                  string
	Type                  vk.PhysicalDeviceType
	MaxImageDimension2D   uint32
	GeometryShader        bool
	HasSwapchainExtension bool
	Families              QueueFamilyIndices
	Support               SwapchainSupport
}

// Suitable reports whether the device can render and present at all.
func (c *DeviceCandidate) Suitable() bool {
	return c.Families.IsComplete() &&
		c.HasSwapchainExtension &&
		len(c.Support.Formats) > 0 &&
		len(c.Support.PresentModes) > 0
}

// ScoreDevice ranks a candidate. Zero means unusable. Discrete GPUs get a
// fixed bonus on top of the largest supported 2D image dimension.
func ScoreDevice(c *DeviceCandidate) uint32 {
	if !c.Suitable() || !c.GeometryShader {
		return 0
	}
	var score uint32
	if c.Type == vk.PhysicalDeviceTypeDiscreteGpu {
		score += VULKAN_DISCRETE_GPU_SCORE
	}
	score += c.MaxImageDimension2D
	return score
}

// SelectDevice returns the index of the best candidate. Ties go to the
// first one enumerated.
func SelectDevice(candidates []DeviceCandidate) (int, error) {
	if len(candidates) == 0 {
		return -1, core.ErrNoDevices
	}
	best, bestScore := -1, uint32(0)
	for i := range candidates {
		score := ScoreDevice(&candidates[i])
		core.LogDebug("Device '%s' scored %d.", candidates[i].Name, score)
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	if best < 0 {
		return -1, errors.Wrapf(core.ErrNoSuitableDevice, "%d devices inspected", len(candidates))
	}
	return best, nil
}
