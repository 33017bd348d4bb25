package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

// fileSnapshot persists an in-memory driver's state to a JSON file on every
// mutation. It trades write amplification for simplicity: these drivers are
// meant for single-node deployments that want durability without taking on
// a SQL dependency.
type fileSnapshot struct {
	mu   sync.Mutex
	path string
}

func (f *fileSnapshot) save(v any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	tmp := f.path + ".tmp"
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, f.path)
}

func (f *fileSnapshot) load(v any) error {
	b, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

// fileCache wraps memoryCache with snapshot-to-disk persistence.
type fileCache struct {
	*memoryCache
	snap *fileSnapshot
}

// NewFileCache returns a CacheStore that persists to a JSON file at path,
// loading any existing snapshot on startup.
func NewFileCache(path string) (CacheStore, error) {
	mc := &memoryCache{entries: make(map[string]CachedAnswer)}
	fc := &fileCache{memoryCache: mc, snap: &fileSnapshot{path: path}}
	if err := fc.snap.load(&mc.entries); err != nil {
		return nil, err
	}
	return fc, nil
}

func (f *fileCache) Set(answer CachedAnswer) error {
	if err := f.memoryCache.Set(answer); err != nil {
		return err
	}
	return f.snap.save(f.snapshot())
}

func (f *fileCache) Delete(fp string) (bool, error) {
	ok, err := f.memoryCache.Delete(fp)
	if err != nil {
		return ok, err
	}
	return ok, f.snap.save(f.snapshot())
}

func (f *fileCache) Clear() error {
	if err := f.memoryCache.Clear(); err != nil {
		return err
	}
	return f.snap.save(f.snapshot())
}

func (f *fileCache) snapshot() map[string]CachedAnswer {
	f.memoryCache.mu.RLock()
	defer f.memoryCache.mu.RUnlock()
	out := make(map[string]CachedAnswer, len(f.memoryCache.entries))
	for k, v := range f.memoryCache.entries {
		out[k] = v
	}
	return out
}

// fileList wraps memoryList with snapshot-to-disk persistence.
type fileList struct {
	*memoryList
	snap *fileSnapshot
}

// NewFileList returns a DomainList that persists to a JSON file at path.
func NewFileList(path string) (DomainList, error) {
	ml := &memoryList{entries: make(map[string]ListEntry)}
	fl := &fileList{memoryList: ml, snap: &fileSnapshot{path: path}}
	if err := fl.snap.load(&ml.entries); err != nil {
		return nil, err
	}
	return fl, nil
}

func (f *fileList) Add(entry ListEntry) error {
	if err := f.memoryList.Add(entry); err != nil {
		return err
	}
	return f.persist()
}

func (f *fileList) Remove(list, domain string) (bool, error) {
	ok, err := f.memoryList.Remove(list, domain)
	if err != nil {
		return ok, err
	}
	return ok, f.persist()
}

func (f *fileList) Import(entries []ListEntry) (int, error) {
	n, err := f.memoryList.Import(entries)
	if err != nil {
		return n, err
	}
	return n, f.persist()
}

func (f *fileList) Clear(list string) error {
	if err := f.memoryList.Clear(list); err != nil {
		return err
	}
	return f.persist()
}

func (f *fileList) persist() error {
	f.memoryList.mu.RLock()
	snapshot := make(map[string]ListEntry, len(f.memoryList.entries))
	for k, v := range f.memoryList.entries {
		snapshot[k] = v
	}
	f.memoryList.mu.RUnlock()
	return f.snap.save(snapshot)
}
