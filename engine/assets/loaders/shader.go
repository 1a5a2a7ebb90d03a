package loaders

import (
	"github.com/pkg/errors"
	"github.com/spaghettifunk/vktriangle/engine/core"
)

// SPIRVMagic is the first word of every SPIR-V module.
const SPIRVMagic uint32 = 0x07230203

// ShaderLoader loads a compiled SPIR-V module.
type ShaderLoader struct {
	binary BinaryLoader
}

func (sl *ShaderLoader) Load(path string) (*Resource, error) {
	res, err := sl.binary.Load(path)
	if err != nil {
		return nil, errors.Wrap(core.ErrShaderLoad, err.Error())
	}
	code := res.Data.([]uint32)
	if len(code) == 0 || code[0] != SPIRVMagic {
		return nil, errors.Wrapf(core.ErrShaderLoad, "%s is not a SPIR-V module", path)
	}
	return res, nil
}

// Code returns the SPIR-V words of a resource loaded by ShaderLoader.
func Code(res *Resource) []uint32 {
	code, _ := res.Data.([]uint32)
	return code
}

func (sl *ShaderLoader) Unload(res *Resource) error {
	return sl.binary.Unload(res)
}
