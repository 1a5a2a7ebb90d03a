package assets

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/spaghettifunk/vktriangle/engine/assets/loaders"
	"github.com/spaghettifunk/vktriangle/engine/core"
)

type AssetInfo struct {
	Path       string
	Type       loaders.ResourceType
	LastLoaded time.Time
}

// ChangeFunc is called from the watcher goroutine when a tracked file is
// created or written.
type ChangeFunc func(path string, assetType loaders.ResourceType)

// AssetManager indexes the shader directory and, when watching, reports
// changes to registered listeners.
type AssetManager struct {
	root    string
	assets  map[string]AssetInfo
	loaders map[loaders.ResourceType]Loader

	mutex sync.RWMutex

	done      chan struct{}
	wg        sync.WaitGroup
	fsnotify  *fsnotify.Watcher
	isClosed  bool
	listeners []ChangeFunc
}

func NewAssetManager() *AssetManager {
	am := &AssetManager{
		assets:  make(map[string]AssetInfo),
		loaders: make(map[loaders.ResourceType]Loader),
		done:    make(chan struct{}),
	}
	// Register loaders
	am.registerLoader(loaders.ResourceTypeShader, &loaders.ShaderLoader{})
	return am
}

// Initialize indexes every file under root. With watch set, changes are
// tracked until Shutdown.
func (am *AssetManager) Initialize(root string, watch bool) error {
	am.root = root
	if _, err := os.Stat(root); err != nil {
		return errors.Wrapf(err, "asset directory %s", root)
	}
	if err := am.index(root); err != nil {
		return err
	}
	if !watch {
		return nil
	}

	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create file watcher")
	}
	am.fsnotify = fsWatch
	if err := am.watchRecursive(root); err != nil {
		fsWatch.Close()
		return err
	}

	am.wg.Add(1)
	go am.start()
	core.LogInfo("Watching %s for shader changes.", root)
	return nil
}

// OnChange registers fn. Must be called before Initialize.
func (am *AssetManager) OnChange(fn ChangeFunc) {
	am.listeners = append(am.listeners, fn)
}

// Register loaders for each asset type
func (am *AssetManager) registerLoader(assetType loaders.ResourceType, loader Loader) {
	am.loaders[assetType] = loader
}

// LoadShader loads a compiled shader by file name relative to the asset root.
func (am *AssetManager) LoadShader(name string) (*loaders.Resource, error) {
	return am.LoadAsset(name, loaders.ResourceTypeShader)
}

// Load an asset using the appropriate loader
func (am *AssetManager) LoadAsset(name string, resourceType loaders.ResourceType) (*loaders.Resource, error) {
	path := filepath.Join(am.root, name)

	loader, ok := am.loaders[resourceType]
	if !ok {
		return nil, errors.Errorf("no loader registered for asset type: %s", resourceType)
	}
	res, err := loader.Load(path)
	if err != nil {
		return nil, err
	}

	am.mutex.Lock()
	am.assets[path] = AssetInfo{Path: path, Type: resourceType, LastLoaded: time.Now()}
	am.mutex.Unlock()

	return res, nil
}

func (am *AssetManager) UnloadAsset(res *loaders.Resource, resourceType loaders.ResourceType) error {
	loader, ok := am.loaders[resourceType]
	if !ok {
		return errors.Errorf("no loader registered for asset type: %s", resourceType)
	}
	return loader.Unload(res)
}

// Assets returns a snapshot of the index.
func (am *AssetManager) Assets() []AssetInfo {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	out := make([]AssetInfo, 0, len(am.assets))
	for _, a := range am.assets {
		out = append(out, a)
	}
	return out
}

func (am *AssetManager) Shutdown() error {
	if am.fsnotify == nil || am.isClosed {
		return nil
	}
	am.isClosed = true
	close(am.done)
	am.wg.Wait()
	return nil
}

func (am *AssetManager) start() {
	defer am.wg.Done()
	for {
		select {

		case e, ok := <-am.fsnotify.Events:
			if !ok {
				return
			}
			s, err := os.Stat(e.Name)
			if err == nil && s != nil && s.IsDir() {
				if e.Op&fsnotify.Create != 0 {
					if err := am.watchRecursive(e.Name); err != nil {
						core.LogWarn("failed to watch %s: %s", e.Name, err)
					}
				}
				continue
			}
			// Handle create or modify events
			if e.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				if t := am.handleFileEvent(e.Name); t != loaders.ResourceTypeNone {
					for _, fn := range am.listeners {
						fn(e.Name, t)
					}
				}
			}
			if e.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				am.removeAsset(e.Name)
			}

		case err, ok := <-am.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError("asset watcher: %s", err)

		case <-am.done:
			am.fsnotify.Close()
			return
		}
	}
}

func (am *AssetManager) index(root string) error {
	return filepath.Walk(root, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !fi.IsDir() {
			am.handleFileEvent(walkPath)
		}
		return nil
	})
}

// watchRecursive adds all directories under the given one to the watch list.
func (am *AssetManager) watchRecursive(path string) error {
	return filepath.Walk(path, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			if err := am.fsnotify.Add(walkPath); err != nil {
				return errors.Wrapf(err, "watch %s", walkPath)
			}
		}
		return nil
	})
}

// Handle the creation or modification of a file
func (am *AssetManager) handleFileEvent(path string) loaders.ResourceType {
	assetType := determineAssetType(path)
	if assetType == loaders.ResourceTypeNone {
		return assetType
	}

	am.mutex.Lock()
	defer am.mutex.Unlock()
	am.assets[path] = AssetInfo{
		Path: path,
		Type: assetType,
	}
	return assetType
}

// Remove the asset from the index if it was deleted
func (am *AssetManager) removeAsset(path string) {
	am.mutex.Lock()
	defer am.mutex.Unlock()

	delete(am.assets, path)
}

func determineAssetType(path string) loaders.ResourceType {
	switch filepath.Ext(path) {
	case ".spv":
		return loaders.ResourceTypeShader
	case ".vert", ".frag":
		return loaders.ResourceTypeShaderSource
	default:
		return loaders.ResourceTypeNone
	}
}
