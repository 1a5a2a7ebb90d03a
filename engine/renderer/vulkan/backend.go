package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"
	"github.com/spaghettifunk/vktriangle/engine/core"
	"github.com/spaghettifunk/vktriangle/engine/renderer"
)

// Surfacer is the part of the window the backend needs.
type Surfacer interface {
	RequiredInstanceExtensions() []string
	CreateSurface(instance vk.Instance) (vk.Surface, error)
}

type Config struct {
	ApplicationName string
	// FramesInFlight is clamped to [1, VULKAN_MAX_FRAMES_IN_FLIGHT].
	FramesInFlight int
	Validation     bool
	VertexShader   string
	FragmentShader string
	Shaders        ShaderSource
	// ClearColor is used when there is no overlay.
	ClearColor [4]float32
	// Overlay is optional.
	Overlay Overlay
	// DebugSink defaults to LogDebugSink.
	DebugSink DebugSink
}

// VulkanRenderer implements renderer.RendererBackend.
type VulkanRenderer struct {
	config  Config
	window  Surfacer
	context *VulkanContext

	overlayReady bool
}

var _ renderer.RendererBackend = (*VulkanRenderer)(nil)

func New(window Surfacer, config Config) *VulkanRenderer {
	if config.FramesInFlight < 1 {
		config.FramesInFlight = VULKAN_DEFAULT_FRAMES_IN_FLIGHT
	}
	if config.FramesInFlight > VULKAN_MAX_FRAMES_IN_FLIGHT {
		config.FramesInFlight = VULKAN_MAX_FRAMES_IN_FLIGHT
	}
	if config.DebugSink == nil {
		config.DebugSink = LogDebugSink{}
	}
	return &VulkanRenderer{
		config: config,
		window: window,
		context: &VulkanContext{
			Allocator:      nil,
			FramesInFlight: config.FramesInFlight,
		},
	}
}

// Context exposes the Vulkan objects for diagnostics.
func (vr *VulkanRenderer) Context() *VulkanContext {
	return vr.context
}

func (vr *VulkanRenderer) FramesInFlight() int {
	return vr.context.FramesInFlight
}

// Initialize creates everything that outlives a swapchain. On failure the
// objects created so far are left for Shutdown.
func (vr *VulkanRenderer) Initialize() error {
	ctx := vr.context

	if err := InstanceCreate(ctx, vr.config.ApplicationName, vr.window.RequiredInstanceExtensions(), vr.config.Validation); err != nil {
		return core.SetupError(err, "instance")
	}

	if vr.config.Validation {
		if err := DebuggerCreate(ctx, vr.config.DebugSink); err != nil {
			return core.SetupError(err, "debug callback")
		}
	}

	core.LogDebug("Creating Vulkan surface...")
	surface, err := vr.window.CreateSurface(ctx.Instance)
	if err != nil {
		return core.SetupError(err, "surface")
	}
	ctx.Surface = surface
	core.LogDebug("Vulkan surface created.")

	if err := DeviceCreate(ctx); err != nil {
		return core.SetupError(err, "device")
	}

	format, ok := ChooseSurfaceFormat(ctx.Device.SwapchainSupport.Formats)
	if !ok {
		return core.SetupError(errors.New("surface reports no pixel formats"), "render pass")
	}
	if err := vr.createRenderpassAndPipeline(format.Format); err != nil {
		return err
	}

	if err := vr.createCommandBuffers(); err != nil {
		return core.SetupError(err, "command buffers")
	}
	if err := vr.createSyncObjects(); err != nil {
		return core.SetupError(err, "sync objects")
	}

	vb, err := TriangleBufferCreate(ctx)
	if err != nil {
		return core.SetupError(err, "vertex buffer")
	}
	ctx.VertexBuffer = vb

	if vr.config.Overlay != nil {
		if err := OverlayDescriptorPoolCreate(ctx); err != nil {
			return core.SetupError(err, "overlay descriptor pool")
		}
	}

	core.LogInfo("Vulkan renderer initialized successfully.")
	return nil
}

func (vr *VulkanRenderer) createRenderpassAndPipeline(format vk.Format) error {
	ctx := vr.context
	rp, err := RenderpassCreate(ctx, format)
	if err != nil {
		return core.SetupError(err, "render pass")
	}
	ctx.MainRenderpass = rp

	pipeline, err := TrianglePipelineCreate(ctx, rp, vr.config.Shaders, vr.config.VertexShader, vr.config.FragmentShader)
	if err != nil {
		return core.SetupError(err, "graphics pipeline")
	}
	ctx.Pipeline = pipeline
	return nil
}

func (vr *VulkanRenderer) destroyRenderpassAndPipeline() {
	ctx := vr.context
	if ctx.Pipeline != nil {
		ctx.Pipeline.Destroy(ctx)
		ctx.Pipeline = nil
	}
	if ctx.MainRenderpass != nil {
		ctx.MainRenderpass.RenderpassDestroy(ctx)
		ctx.MainRenderpass = nil
	}
}

func (vr *VulkanRenderer) createCommandBuffers() error {
	ctx := vr.context
	ctx.GraphicsCommandBuffers = make([]*VulkanCommandBuffer, ctx.FramesInFlight)
	for i := range ctx.GraphicsCommandBuffers {
		cb, err := NewVulkanCommandBuffer(ctx, ctx.Device.GraphicsCommandPool, true)
		if err != nil {
			return err
		}
		ctx.GraphicsCommandBuffers[i] = cb
	}
	core.LogDebug("Vulkan command buffers created.")
	return nil
}

func (vr *VulkanRenderer) createSyncObjects() error {
	ctx := vr.context
	ctx.ImageAvailableSemaphores = make([]vk.Semaphore, ctx.FramesInFlight)
	ctx.QueueCompleteSemaphores = make([]vk.Semaphore, ctx.FramesInFlight)
	ctx.InFlightFences = make([]*VulkanFence, ctx.FramesInFlight)

	semaphoreCreateInfo := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}
	for i := 0; i < ctx.FramesInFlight; i++ {
		if res := vk.CreateSemaphore(ctx.Device.LogicalDevice, &semaphoreCreateInfo, ctx.Allocator, &ctx.ImageAvailableSemaphores[i]); res != vk.Success {
			return errors.Errorf("vkCreateSemaphore (image available) failed with %s", VulkanResultString(res, true))
		}
		if res := vk.CreateSemaphore(ctx.Device.LogicalDevice, &semaphoreCreateInfo, ctx.Allocator, &ctx.QueueCompleteSemaphores[i]); res != vk.Success {
			return errors.Errorf("vkCreateSemaphore (queue complete) failed with %s", VulkanResultString(res, true))
		}

		// Create the fence in a signaled state, indicating that the first frame has already been "rendered".
		// This will prevent the application from waiting indefinitely for the first frame to render since it
		// cannot be rendered until a frame is "rendered" before it.
		f, err := NewFence(ctx, true)
		if err != nil {
			return err
		}
		ctx.InFlightFences[i] = f
	}
	return nil
}

func (vr *VulkanRenderer) destroySyncObjects() {
	ctx := vr.context
	for i := range ctx.ImageAvailableSemaphores {
		if ctx.ImageAvailableSemaphores[i] != vk.NullSemaphore {
			vk.DestroySemaphore(ctx.Device.LogicalDevice, ctx.ImageAvailableSemaphores[i], ctx.Allocator)
		}
	}
	for i := range ctx.QueueCompleteSemaphores {
		if ctx.QueueCompleteSemaphores[i] != vk.NullSemaphore {
			vk.DestroySemaphore(ctx.Device.LogicalDevice, ctx.QueueCompleteSemaphores[i], ctx.Allocator)
		}
	}
	for _, f := range ctx.InFlightFences {
		if f != nil {
			f.FenceDestroy(ctx)
		}
	}
	ctx.ImageAvailableSemaphores = nil
	ctx.QueueCompleteSemaphores = nil
	ctx.InFlightFences = nil
}

// CreateSwapchain builds the swapchain, views and framebuffers. A surface
// format that differs from the render pass format rebuilds the render pass
// and pipeline first.
func (vr *VulkanRenderer) CreateSwapchain(width, height uint32) (renderer.SwapchainInfo, error) {
	ctx := vr.context
	sc, err := SwapchainCreate(ctx, width, height)
	if err != nil {
		return renderer.SwapchainInfo{}, core.SetupError(err, "swapchain")
	}

	if ctx.MainRenderpass == nil || sc.ImageFormat.Format != ctx.MainRenderpass.Format {
		core.LogInfo("Surface format changed to %d, rebuilding render pass.", sc.ImageFormat.Format)
		vr.shutdownOverlay()
		vr.destroyRenderpassAndPipeline()
		if err := vr.createRenderpassAndPipeline(sc.ImageFormat.Format); err != nil {
			sc.SwapchainDestroy(ctx)
			return renderer.SwapchainInfo{}, err
		}
	}

	if err := sc.CreateFramebuffers(ctx, ctx.MainRenderpass); err != nil {
		sc.SwapchainDestroy(ctx)
		return renderer.SwapchainInfo{}, core.SetupError(err, "framebuffers")
	}
	ctx.Swapchain = sc

	if err := vr.attachOverlay(); err != nil {
		return renderer.SwapchainInfo{}, err
	}

	return renderer.SwapchainInfo{
		ImageCount:       uint32(len(sc.Images)),
		ViewCount:        uint32(len(sc.Views)),
		FramebufferCount: uint32(len(sc.Framebuffers)),
		Width:            sc.Extent.Width,
		Height:           sc.Extent.Height,
		Format:           int32(sc.ImageFormat.Format),
	}, nil
}

func (vr *VulkanRenderer) DestroySwapchain() {
	if vr.context.Swapchain != nil {
		vr.context.Swapchain.SwapchainDestroy(vr.context)
		vr.context.Swapchain = nil
	}
}

func (vr *VulkanRenderer) WaitIdle() error {
	return DeviceWaitIdle(vr.context)
}

func (vr *VulkanRenderer) WaitForFence(slot int) error {
	return vr.context.InFlightFences[slot].FenceWait(vr.context, vk.MaxUint64)
}

func (vr *VulkanRenderer) ResetFence(slot int) error {
	return vr.context.InFlightFences[slot].FenceReset(vr.context)
}

func (vr *VulkanRenderer) AcquireNextImage(slot int) (uint32, renderer.PresentStatus, error) {
	ctx := vr.context
	imageIndex, result := ctx.Swapchain.AcquireNextImageIndex(ctx, vk.MaxUint64, ctx.ImageAvailableSemaphores[slot])
	status, err := presentStatus(result)
	if err != nil {
		return 0, status, errors.Wrap(err, "vkAcquireNextImageKHR")
	}
	return imageIndex, status, nil
}

func (vr *VulkanRenderer) ResetCommandBuffer(slot int) error {
	return vr.context.GraphicsCommandBuffers[slot].Reset()
}

func (vr *VulkanRenderer) RecordCommandBuffer(slot int, imageIndex uint32) error {
	ctx := vr.context
	clearColor := vr.config.ClearColor
	if vr.config.Overlay != nil {
		clearColor = vr.config.Overlay.ClearColor()
	}
	return ctx.GraphicsCommandBuffers[slot].Record(&FrameRecording{
		Renderpass:   ctx.MainRenderpass,
		Framebuffer:  ctx.Swapchain.Framebuffers[imageIndex],
		Pipeline:     ctx.Pipeline,
		VertexBuffer: ctx.VertexBuffer,
		VertexCount:  uint32(len(TriangleVertices)),
		Extent:       ctx.Swapchain.Extent,
		ClearColor:   clearColor,
		Overlay:      vr.overlay(),
	})
}

// attachOverlay initializes the overlay against the current render pass, or
// tells an initialized overlay about the new swapchain image count.
func (vr *VulkanRenderer) attachOverlay() error {
	if vr.config.Overlay == nil {
		return nil
	}
	ctx := vr.context
	if !vr.overlayReady {
		if err := vr.config.Overlay.Init(newOverlayInitInfo(ctx)); err != nil {
			return core.SetupError(err, "overlay")
		}
		vr.overlayReady = true
		return nil
	}
	vr.config.Overlay.SetMinImageCount(uint32(ctx.FramesInFlight), uint32(len(ctx.Swapchain.Images)))
	return nil
}

func (vr *VulkanRenderer) overlay() Overlay {
	if vr.overlayReady {
		return vr.config.Overlay
	}
	return nil
}

func (vr *VulkanRenderer) Submit(slot int) error {
	ctx := vr.context
	commandBuffer := ctx.GraphicsCommandBuffers[slot]

	// The color attachment is not written until the image has been released
	// by the presentation engine.
	submitInfo := vk.SubmitInfo{
		SType:                vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount:   1,
		PWaitSemaphores:      []vk.Semaphore{ctx.ImageAvailableSemaphores[slot]},
		PWaitDstStageMask:    []vk.PipelineStageFlags{vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{commandBuffer.Handle},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{ctx.QueueCompleteSemaphores[slot]},
	}

	if result := vk.QueueSubmit(ctx.Device.GraphicsQueue, 1, []vk.SubmitInfo{submitInfo}, ctx.InFlightFences[slot].Handle); result != vk.Success {
		return errors.Errorf("vkQueueSubmit failed with %s", VulkanResultString(result, true))
	}
	commandBuffer.UpdateSubmitted()
	return nil
}

func (vr *VulkanRenderer) Present(slot int, imageIndex uint32) (renderer.PresentStatus, error) {
	ctx := vr.context
	result := ctx.Swapchain.Present(ctx.Device.PresentQueue, ctx.QueueCompleteSemaphores[slot], imageIndex)
	status, err := presentStatus(result)
	if err != nil {
		return status, errors.Wrap(err, "vkQueuePresentKHR")
	}
	return status, nil
}

// presentStatus maps acquire and present results. Staleness is a status,
// anything else that is not success is an error.
func presentStatus(result vk.Result) (renderer.PresentStatus, error) {
	switch result {
	case vk.Success:
		return renderer.PresentOK, nil
	case vk.Suboptimal:
		return renderer.PresentSuboptimal, nil
	case vk.ErrorOutOfDate:
		return renderer.PresentOutOfDate, nil
	}
	return renderer.PresentOK, errors.New(VulkanResultString(result, true))
}

// RebuildPipeline reloads both shaders. The old pipeline stays in place if
// the new one cannot be built.
func (vr *VulkanRenderer) RebuildPipeline() error {
	ctx := vr.context
	pipeline, err := TrianglePipelineCreate(ctx, ctx.MainRenderpass, vr.config.Shaders, vr.config.VertexShader, vr.config.FragmentShader)
	if err != nil {
		return errors.Wrap(err, "rebuilding pipeline")
	}
	if ctx.Pipeline != nil {
		ctx.Pipeline.Destroy(ctx)
	}
	ctx.Pipeline = pipeline
	return nil
}

func (vr *VulkanRenderer) shutdownOverlay() {
	if vr.overlayReady {
		vr.config.Overlay.Shutdown()
		vr.overlayReady = false
	}
}

// Shutdown destroys everything in reverse creation order. It tolerates a
// partially initialized backend.
func (vr *VulkanRenderer) Shutdown() error {
	ctx := vr.context
	if err := vr.WaitIdle(); err != nil {
		core.LogError(err.Error())
	}

	vr.shutdownOverlay()

	if ctx.Device != nil && ctx.Device.LogicalDevice != nil {
		vr.DestroySwapchain()
		vr.destroyRenderpassAndPipeline()
		vr.destroySyncObjects()
		OverlayDescriptorPoolDestroy(ctx)

		if ctx.VertexBuffer != nil {
			ctx.VertexBuffer.Destroy(ctx)
			ctx.VertexBuffer = nil
		}
		for _, cb := range ctx.GraphicsCommandBuffers {
			if cb != nil {
				cb.Free(ctx, ctx.Device.GraphicsCommandPool)
			}
		}
		ctx.GraphicsCommandBuffers = nil
	}

	core.LogDebug("Destroying Vulkan device...")
	DeviceDestroy(ctx)

	if ctx.Instance != nil {
		DebuggerDestroy(ctx)

		if ctx.Surface != vk.NullSurface {
			core.LogDebug("Destroying Vulkan surface...")
			vk.DestroySurface(ctx.Instance, ctx.Surface, ctx.Allocator)
			ctx.Surface = vk.NullSurface
		}

		core.LogDebug("Destroying Vulkan instance...")
		vk.DestroyInstance(ctx.Instance, ctx.Allocator)
		ctx.Instance = nil
	}
	return nil
}
