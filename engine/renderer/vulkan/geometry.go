package vulkan

import (
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"
	"github.com/spaghettifunk/vktriangle/engine/core"
)

// Vertex is a 2D position with an RGB color. It is laid out tightly as five
// float32 values.
type Vertex struct {
	Pos   mgl32.Vec2
	Color mgl32.Vec3
}

const VertexStride = uint32(unsafe.Sizeof(Vertex{}))

// TriangleVertices wind clockwise in framebuffer space, which is the front
// face of the triangle pipeline.
var TriangleVertices = []Vertex{
	{Pos: mgl32.Vec2{0.0, -0.5}, Color: mgl32.Vec3{1.0, 0.0, 0.0}},
	{Pos: mgl32.Vec2{0.5, 0.5}, Color: mgl32.Vec3{0.0, 1.0, 0.0}},
	{Pos: mgl32.Vec2{-0.5, 0.5}, Color: mgl32.Vec3{0.0, 0.0, 1.0}},
}

// VertexAttributes binds location 0 to the position and location 1 to the
// color of binding 0.
func VertexAttributes() []vk.VertexInputAttributeDescription {
	return []vk.VertexInputAttributeDescription{
		{
			Binding:  0,
			Location: 0,
			Format:   vk.FormatR32g32Sfloat,
			Offset:   uint32(unsafe.Offsetof(Vertex{}.Pos)),
		},
		{
			Binding:  0,
			Location: 1,
			Format:   vk.FormatR32g32b32Sfloat,
			Offset:   uint32(unsafe.Offsetof(Vertex{}.Color)),
		},
	}
}

// VertexBytes serializes vertices in the layout described by
// VertexAttributes.
func VertexBytes(vertices []Vertex) []byte {
	out := make([]byte, 0, len(vertices)*int(VertexStride))
	for _, v := range vertices {
		for _, f := range v.Pos {
			out = binary.LittleEndian.AppendUint32(out, math.Float32bits(f))
		}
		for _, f := range v.Color {
			out = binary.LittleEndian.AppendUint32(out, math.Float32bits(f))
		}
	}
	return out
}

// VulkanBuffer is a buffer in host-visible, coherent memory.
type VulkanBuffer struct {
	Handle vk.Buffer
	Memory vk.DeviceMemory
	Size   vk.DeviceSize
}

func BufferCreate(context *VulkanContext, size vk.DeviceSize, usage vk.BufferUsageFlagBits) (*VulkanBuffer, error) {
	bufferInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        size,
		Usage:       vk.BufferUsageFlags(usage),
		SharingMode: vk.SharingModeExclusive,
	}

	outBuffer := &VulkanBuffer{Size: size}
	var buffer vk.Buffer
	if res := vk.CreateBuffer(context.Device.LogicalDevice, &bufferInfo, context.Allocator, &buffer); res != vk.Success {
		return nil, errors.Errorf("vkCreateBuffer failed with %s", VulkanResultString(res, true))
	}
	outBuffer.Handle = buffer

	var memReqs vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(context.Device.LogicalDevice, buffer, &memReqs)
	memReqs.Deref()

	memoryIndex := context.FindMemoryIndex(memReqs.MemoryTypeBits,
		uint32(vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit))
	if memoryIndex < 0 {
		outBuffer.Destroy(context)
		return nil, errors.Errorf("no host visible memory type for buffer")
	}

	allocInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  memReqs.Size,
		MemoryTypeIndex: uint32(memoryIndex),
	}
	var memory vk.DeviceMemory
	if res := vk.AllocateMemory(context.Device.LogicalDevice, &allocInfo, context.Allocator, &memory); res != vk.Success {
		outBuffer.Destroy(context)
		return nil, errors.Errorf("vkAllocateMemory failed with %s", VulkanResultString(res, true))
	}
	outBuffer.Memory = memory

	if res := vk.BindBufferMemory(context.Device.LogicalDevice, buffer, memory, 0); res != vk.Success {
		outBuffer.Destroy(context)
		return nil, errors.Errorf("vkBindBufferMemory failed with %s", VulkanResultString(res, true))
	}
	return outBuffer, nil
}

// LoadData copies data to the start of the buffer.
func (b *VulkanBuffer) LoadData(context *VulkanContext, data []byte) error {
	if vk.DeviceSize(len(data)) > b.Size {
		return errors.Errorf("%d bytes do not fit in a buffer of %d", len(data), b.Size)
	}
	var pData unsafe.Pointer
	if res := vk.MapMemory(context.Device.LogicalDevice, b.Memory, 0, vk.DeviceSize(len(data)), 0, &pData); res != vk.Success {
		return errors.Errorf("vkMapMemory failed with %s", VulkanResultString(res, true))
	}
	n := vk.Memcopy(pData, data)
	vk.UnmapMemory(context.Device.LogicalDevice, b.Memory)
	if n != len(data) {
		return errors.Errorf("copied %d of %d bytes", n, len(data))
	}
	return nil
}

func (b *VulkanBuffer) BindVertex(commandBuffer *VulkanCommandBuffer, offset vk.DeviceSize) {
	vk.CmdBindVertexBuffers(commandBuffer.Handle, 0, 1, []vk.Buffer{b.Handle}, []vk.DeviceSize{offset})
}

func (b *VulkanBuffer) Destroy(context *VulkanContext) {
	if b.Handle != vk.NullBuffer {
		vk.DestroyBuffer(context.Device.LogicalDevice, b.Handle, context.Allocator)
		b.Handle = vk.NullBuffer
	}
	if b.Memory != vk.NullDeviceMemory {
		vk.FreeMemory(context.Device.LogicalDevice, b.Memory, context.Allocator)
		b.Memory = vk.NullDeviceMemory
	}
}

// TriangleBufferCreate uploads TriangleVertices once.
func TriangleBufferCreate(context *VulkanContext) (*VulkanBuffer, error) {
	data := VertexBytes(TriangleVertices)
	buffer, err := BufferCreate(context, vk.DeviceSize(len(data)), vk.BufferUsageVertexBufferBit)
	if err != nil {
		return nil, err
	}
	if err := buffer.LoadData(context, data); err != nil {
		buffer.Destroy(context)
		return nil, err
	}
	core.LogDebug("Vertex buffer created: %d vertices, %d bytes.", len(TriangleVertices), len(data))
	return buffer, nil
}
