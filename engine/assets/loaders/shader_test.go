package loaders

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/spaghettifunk/vktriangle/engine/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeWords(t *testing.T, name string, words ...uint32) string {
	t.Helper()
	buf := make([]byte, 4*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint32(buf[4*i:], w)
	}
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, buf, 0o644))
	return path
}

func TestBytesToBytecode(t *testing.T) {
	code := bytesToBytecode([]byte{0x03, 0x02, 0x23, 0x07, 0xff, 0x00, 0x00, 0x01})
	assert.Equal(t, []uint32{SPIRVMagic, 0x010000ff}, code)
}

func TestShaderLoaderLoadsSPIRV(t *testing.T) {
	path := writeWords(t, "vert.spv", SPIRVMagic, 0x00010000, 0, 1, 0)

	sl := &ShaderLoader{}
	res, err := sl.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "vert.spv", res.Name)
	assert.Equal(t, uint64(20), res.DataSize)
	assert.Len(t, Code(res), 5)

	require.NoError(t, sl.Unload(res))
	assert.Nil(t, Code(res))
}

func TestShaderLoaderRejectsBadInput(t *testing.T) {
	sl := &ShaderLoader{}

	_, err := sl.Load(filepath.Join(t.TempDir(), "missing.spv"))
	assert.ErrorIs(t, err, core.ErrShaderLoad)

	notSPIRV := writeWords(t, "frag.spv", 0xdeadbeef)
	_, err = sl.Load(notSPIRV)
	assert.ErrorIs(t, err, core.ErrShaderLoad)

	odd := filepath.Join(t.TempDir(), "odd.spv")
	require.NoError(t, os.WriteFile(odd, []byte{1, 2, 3}, 0o644))
	_, err = sl.Load(odd)
	assert.ErrorIs(t, err, core.ErrShaderLoad)
}
