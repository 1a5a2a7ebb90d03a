package platform

import (
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"
	"github.com/spaghettifunk/vktriangle/engine/core"
)

func init() {
	// GLFW event handling must run on the main OS thread
	runtime.LockOSThread()
}

// Key actions forwarded to key listeners.
type KeyAction int

const (
	KeyRelease KeyAction = iota
	KeyPress
	KeyRepeat
)

// KeyFunc receives GLFW key codes. shift reports whether a shift modifier was held.
type KeyFunc func(key glfw.Key, action KeyAction, shift bool)

type Platform struct {
	Window *glfw.Window

	onResize []func(width, height int)
	onKey    []KeyFunc
}

func New() *Platform {
	return &Platform{
		Window: nil,
	}
}

func (p *Platform) Startup(applicationName string, x, y, width, height int) error {
	if err := glfw.Init(); err != nil {
		return errors.Wrap(err, "failed to initialize glfw")
	}
	if !glfw.VulkanSupported() {
		glfw.Terminate()
		return errors.Wrap(core.ErrNoDevices, "glfw reports no Vulkan loader")
	}

	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI) // Required for Vulkan.

	window, err := glfw.CreateWindow(width, height, applicationName, nil, nil)
	if err != nil {
		glfw.Terminate()
		return errors.Wrap(err, "failed to create window")
	}
	p.Window = window

	p.Window.SetKeyCallback(p.keyCallback)
	p.Window.SetFramebufferSizeCallback(p.framebufferSizeCallback)
	p.Window.SetPos(x, y)
	p.Window.Show()

	core.LogDebug("Window created: %dx%d '%s'", width, height, applicationName)
	return nil
}

func (p *Platform) Shutdown() error {
	if p.Window != nil {
		p.Window.Destroy()
		p.Window = nil
	}
	glfw.Terminate()
	return nil
}

// GetFramebufferSize returns the size in pixels, which differs from the
// window size on high-DPI displays.
func (p *Platform) GetFramebufferSize() (int, int) {
	return p.Window.GetFramebufferSize()
}

func (p *Platform) PollEvents() {
	glfw.PollEvents()
}

// WaitEvents blocks until the OS delivers at least one event.
func (p *Platform) WaitEvents() {
	glfw.WaitEvents()
}

func (p *Platform) ShouldClose() bool {
	return p.Window.ShouldClose()
}

// RequestClose may be called from any goroutine.
func (p *Platform) RequestClose() {
	p.Window.SetShouldClose(true)
	glfw.PostEmptyEvent()
}

func (p *Platform) SetTitle(title string) {
	p.Window.SetTitle(title)
}

// SetResizeCallback registers fn for framebuffer size changes.
func (p *Platform) SetResizeCallback(fn func(width, height int)) {
	p.onResize = append(p.onResize, fn)
}

func (p *Platform) SetKeyCallback(fn KeyFunc) {
	p.onKey = append(p.onKey, fn)
}

func (p *Platform) RequiredInstanceExtensions() []string {
	return p.Window.GetRequiredInstanceExtensions()
}

func (p *Platform) CreateSurface(instance vk.Instance) (vk.Surface, error) {
	surface, err := p.Window.CreateWindowSurface(instance, nil)
	if err != nil {
		return vk.NullSurface, errors.Wrap(core.ErrSurface, err.Error())
	}
	return vk.SurfaceFromPointer(surface), nil
}

func (p *Platform) keyCallback(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	var a KeyAction
	switch action {
	case glfw.Press:
		a = KeyPress
	case glfw.Repeat:
		a = KeyRepeat
	default:
		a = KeyRelease
	}
	shift := mods&glfw.ModShift != 0
	for _, fn := range p.onKey {
		fn(key, a, shift)
	}
}

func (p *Platform) framebufferSizeCallback(w *glfw.Window, width, height int) {
	core.LogDebug("Framebuffer resized: %d, %d", width, height)
	for _, fn := range p.onResize {
		fn(width, height)
	}
}
