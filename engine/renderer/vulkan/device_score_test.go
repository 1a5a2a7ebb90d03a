package vulkan

import (
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vktriangle/engine/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candidate(name string, deviceType vk.PhysicalDeviceType, maxDim uint32) DeviceCandidate {
	return DeviceCandidate{
		Name:                  name,
		Type:                  deviceType,
		MaxImageDimension2D:   maxDim,
		GeometryShader:        true,
		HasSwapchainExtension: true,
		Families:              QueueFamilyIndices{Graphics: 0, Present: 0},
		Support: SwapchainSupport{
			Formats:      []vk.SurfaceFormat{{Format: vk.FormatB8g8r8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear}},
			PresentModes: []vk.PresentMode{vk.PresentModeFifo},
		},
	}
}

func TestScoreDeviceIsAdditive(t *testing.T) {
	integrated := candidate("integrated", vk.PhysicalDeviceTypeIntegratedGpu, 16384)
	discrete := candidate("discrete", vk.PhysicalDeviceTypeDiscreteGpu, 4096)

	assert.Equal(t, uint32(16384), ScoreDevice(&integrated))
	assert.Equal(t, uint32(5096), ScoreDevice(&discrete))

	idx, err := SelectDevice([]DeviceCandidate{discrete, integrated})
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
}

func TestScoreDeviceUnsuitable(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *DeviceCandidate)
	}{
		{"no geometry shader", func(c *DeviceCandidate) { c.GeometryShader = false }},
		{"no swapchain extension", func(c *DeviceCandidate) { c.HasSwapchainExtension = false }},
		{"no present family", func(c *DeviceCandidate) { c.Families.Present = -1 }},
		{"no graphics family", func(c *DeviceCandidate) { c.Families.Graphics = -1 }},
		{"no formats", func(c *DeviceCandidate) { c.Support.Formats = nil }},
		{"no present modes", func(c *DeviceCandidate) { c.Support.PresentModes = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := candidate("gpu", vk.PhysicalDeviceTypeDiscreteGpu, 8192)
			tt.mutate(&c)
			assert.Zero(t, ScoreDevice(&c))
		})
	}
}

func TestSelectDeviceTieGoesToFirst(t *testing.T) {
	a := candidate("a", vk.PhysicalDeviceTypeDiscreteGpu, 8192)
	b := candidate("b", vk.PhysicalDeviceTypeDiscreteGpu, 8192)

	idx, err := SelectDevice([]DeviceCandidate{a, b})
	require.NoError(t, err)
	assert.Equal(t, 0, idx)
}

func TestSelectDeviceErrors(t *testing.T) {
	_, err := SelectDevice(nil)
	assert.ErrorIs(t, err, core.ErrNoDevices)

	c := candidate("cpu", vk.PhysicalDeviceTypeCpu, 4096)
	c.GeometryShader = false
	_, err = SelectDevice([]DeviceCandidate{c})
	assert.ErrorIs(t, err, core.ErrNoSuitableDevice)
}

func TestFindQueueFamilies(t *testing.T) {
	graphics := vk.QueueFamilyProperties{QueueFlags: vk.QueueFlags(vk.QueueGraphicsBit | vk.QueueTransferBit), QueueCount: 1}
	transfer := vk.QueueFamilyProperties{QueueFlags: vk.QueueFlags(vk.QueueTransferBit), QueueCount: 1}

	t.Run("shared family", func(t *testing.T) {
		var asked []uint32
		got := FindQueueFamilies([]vk.QueueFamilyProperties{graphics, graphics}, func(i uint32) bool {
			asked = append(asked, i)
			return true
		})
		assert.Equal(t, QueueFamilyIndices{Graphics: 0, Present: 0}, got)
		assert.Equal(t, []uint32{0}, asked, "scan stops once both are found")
		assert.Equal(t, []uint32{0}, got.UniqueFamilies())
	})

	t.Run("separate families", func(t *testing.T) {
		got := FindQueueFamilies([]vk.QueueFamilyProperties{transfer, graphics}, func(i uint32) bool {
			return i == 0
		})
		assert.Equal(t, QueueFamilyIndices{Graphics: 1, Present: 0}, got)
		assert.Equal(t, []uint32{1, 0}, got.UniqueFamilies())
	})

	t.Run("no graphics", func(t *testing.T) {
		got := FindQueueFamilies([]vk.QueueFamilyProperties{transfer}, func(uint32) bool { return true })
		assert.False(t, got.IsComplete())
		assert.Nil(t, got.UniqueFamilies())
	})
}
