package engine

import (
	"bytes"
	"os"
	"runtime"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/spaghettifunk/vktriangle/engine/core"
	"github.com/spaghettifunk/vktriangle/engine/renderer/vulkan"
)

// DefaultConfigPath is read when no -config flag is given. It may be absent.
const DefaultConfigPath = "config.toml"

type WindowConfig struct {
	// The application name used as the window title.
	Title string `toml:"title"`
	// Window starting position.
	X int `toml:"x"`
	Y int `toml:"y"`
	// Window starting size.
	Width  int `toml:"width"`
	Height int `toml:"height"`
}

type RendererConfig struct {
	// Number of frames the CPU may record ahead of the GPU, 1 to 3.
	FramesInFlight int  `toml:"frames_in_flight"`
	Validation     bool `toml:"validation"`
	// Directory holding the compiled SPIR-V and the GLSL sources.
	ShaderDir      string `toml:"shader_dir"`
	VertexShader   string `toml:"vertex_shader"`
	FragmentShader string `toml:"fragment_shader"`
	// Initial background color, each channel in [0, 1].
	ClearColor [3]float32 `toml:"clear_color"`
}

type AssetsConfig struct {
	// Watch the shader directory and rebuild the pipeline on change.
	HotReload bool `toml:"hot_reload"`
	// Compile changed GLSL sources with Compiler.
	CompileShaders bool   `toml:"compile_shaders"`
	Compiler       string `toml:"compiler"`
	Workers        int    `toml:"workers"`
}

type ApplicationConfig struct {
	LogLevel string         `toml:"log_level"`
	Window   WindowConfig   `toml:"window"`
	Renderer RendererConfig `toml:"renderer"`
	Assets   AssetsConfig   `toml:"assets"`
}

func DefaultConfig() *ApplicationConfig {
	return &ApplicationConfig{
		LogLevel: "info",
		Window: WindowConfig{
			Title:  "vktriangle",
			X:      100,
			Y:      100,
			Width:  800,
			Height: 600,
		},
		Renderer: RendererConfig{
			FramesInFlight: vulkan.VULKAN_DEFAULT_FRAMES_IN_FLIGHT,
			Validation:     defaultValidation,
			ShaderDir:      "assets/shaders",
			VertexShader:   "vert.spv",
			FragmentShader: "frag.spv",
		},
		Assets: AssetsConfig{
			HotReload:      false,
			CompileShaders: false,
			Compiler:       "glslc",
			Workers:        max(1, runtime.NumCPU()/2),
		},
	}
}

// LoadConfig reads path over DefaultConfig. A missing file is only an error
// when the path was given explicitly. Unknown keys are rejected.
func LoadConfig(path string, explicit bool) (*ApplicationConfig, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			core.LogDebug("No config at %s, using defaults.", path)
			return cfg, nil
		}
		return nil, errors.Wrapf(err, "failed to read config %s", path)
	}

	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return nil, errors.Wrapf(core.ErrInvalidConfig, "%s:%d:%d: %s", path, row, col, derr.Error())
		}
		return nil, errors.Wrapf(core.ErrInvalidConfig, "%s: %s", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, path)
	}
	return cfg, nil
}

func (c *ApplicationConfig) Validate() error {
	if _, ok := core.ParseLogLevel(c.LogLevel); !ok {
		return errors.Wrapf(core.ErrInvalidConfig, "unknown log_level %q", c.LogLevel)
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return errors.Wrapf(core.ErrInvalidConfig, "window size must be positive, got %dx%d", c.Window.Width, c.Window.Height)
	}
	if k := c.Renderer.FramesInFlight; k < 1 || k > vulkan.VULKAN_MAX_FRAMES_IN_FLIGHT {
		return errors.Wrapf(core.ErrInvalidConfig, "frames_in_flight must be in [1, %d], got %d", vulkan.VULKAN_MAX_FRAMES_IN_FLIGHT, k)
	}
	if c.Renderer.ShaderDir == "" || c.Renderer.VertexShader == "" || c.Renderer.FragmentShader == "" {
		return errors.Wrap(core.ErrInvalidConfig, "shader_dir, vertex_shader and fragment_shader must be set")
	}
	for i, v := range c.Renderer.ClearColor {
		if v < 0 || v > 1 {
			return errors.Wrapf(core.ErrInvalidConfig, "clear_color[%d] = %g is outside [0, 1]", i, v)
		}
	}
	if c.Assets.CompileShaders && c.Assets.Compiler == "" {
		return errors.Wrap(core.ErrInvalidConfig, "compile_shaders needs a compiler")
	}
	if c.Assets.Workers < 1 {
		return errors.Wrapf(core.ErrInvalidConfig, "workers must be at least 1, got %d", c.Assets.Workers)
	}
	return nil
}
