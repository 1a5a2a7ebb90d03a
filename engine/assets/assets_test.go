package assets

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/spaghettifunk/vktriangle/engine/assets/loaders"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func spirv(words ...uint32) []byte {
	buf := make([]byte, 4*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint32(buf[4*i:], w)
	}
	return buf
}

func TestDetermineAssetType(t *testing.T) {
	assert.Equal(t, loaders.ResourceTypeShader, determineAssetType("a/vert.spv"))
	assert.Equal(t, loaders.ResourceTypeShaderSource, determineAssetType("shader.vert"))
	assert.Equal(t, loaders.ResourceTypeShaderSource, determineAssetType("shader.frag"))
	assert.Equal(t, loaders.ResourceTypeNone, determineAssetType("README.md"))
}

func TestInitializeIndexesAndLoads(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vert.spv"), spirv(loaders.SPIRVMagic, 1), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "shader.vert"), []byte("#version 450\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	am := NewAssetManager()
	require.NoError(t, am.Initialize(dir, false))
	assert.Len(t, am.Assets(), 2)

	res, err := am.LoadShader("vert.spv")
	require.NoError(t, err)
	assert.Equal(t, []uint32{loaders.SPIRVMagic, 1}, loaders.Code(res))
	require.NoError(t, am.UnloadAsset(res, loaders.ResourceTypeShader))

	_, err = am.LoadAsset("shader.vert", loaders.ResourceTypeShaderSource)
	assert.Error(t, err)
	require.NoError(t, am.Shutdown())
}

func TestInitializeMissingDirectory(t *testing.T) {
	am := NewAssetManager()
	assert.Error(t, am.Initialize(filepath.Join(t.TempDir(), "nope"), false))
}

func TestWatchReportsChanges(t *testing.T) {
	dir := t.TempDir()
	am := NewAssetManager()

	var mu sync.Mutex
	seen := map[string]loaders.ResourceType{}
	am.OnChange(func(path string, assetType loaders.ResourceType) {
		mu.Lock()
		defer mu.Unlock()
		seen[filepath.Base(path)] = assetType
	})
	require.NoError(t, am.Initialize(dir, true))
	defer am.Shutdown()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "frag.spv"), spirv(loaders.SPIRVMagic), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "shader.frag"), []byte("void main() {}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.md"), []byte("x"), 0o644))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return seen["frag.spv"] == loaders.ResourceTypeShader &&
			seen["shader.frag"] == loaders.ResourceTypeShaderSource
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	_, ok := seen["ignored.md"]
	mu.Unlock()
	assert.False(t, ok)
}
