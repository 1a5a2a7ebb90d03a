package loaders

type ResourceType int

const (
	ResourceTypeNone ResourceType = iota
	// Compiled SPIR-V module.
	ResourceTypeShader
	// GLSL source that compiles to a ResourceTypeShader.
	ResourceTypeShaderSource
)

func (t ResourceType) String() string {
	switch t {
	case ResourceTypeShader:
		return "shader"
	case ResourceTypeShaderSource:
		return "shader-source"
	default:
		return "none"
	}
}

// Resource is what every loader returns.
type Resource struct {
	Name     string
	FullPath string
	// DataSize is the size of Data in bytes.
	DataSize uint64
	Data     interface{}
}
