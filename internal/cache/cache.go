// Package cache stores probed compiler descriptions so a compiler is only
// interrogated again when its executable changes.
package cache

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/goplus/hsbuild/internal/env"
	"github.com/goplus/hsbuild/internal/lockedfile"
	"github.com/goplus/hsbuild/pkgs/compiler"
	"github.com/qiniu/x/log"
	"golang.org/x/mod/semver"
	"lukechampine.com/blake3"
)

// Cache directory layout:
//
//	dir/
//	  .lock            # held while writing entries
//	  <fingerprint>.json
const (
	lockFile = ".lock"

	// Format is the version of the entry layout. Entries with a different
	// major version are ignored and re-probed.
	Format = "v2.0.0"
)

// ErrFormat is returned when an entry was written by an incompatible
// version of the cache.
var ErrFormat = errors.New("incompatible compiler cache format")

// entry is one cached probe result.
type entry struct {
	Format   string             `json:"format"`
	Path     string             `json:"path"`
	Probed   time.Time          `json:"probed"`
	Compiler *compiler.Compiler `json:"compiler"`
}

// ProbeFunc produces a compiler description for the executable at path.
type ProbeFunc func(ctx context.Context, path string) (*compiler.Compiler, error)

// Cache is a directory of cached compiler descriptions.
type Cache struct {
	dir string
	now func() time.Time
}

// New returns a cache rooted at dir.
func New(dir string) *Cache {
	return &Cache{dir: dir, now: time.Now}
}

// Default returns the per-user compiler cache.
func Default() (*Cache, error) {
	dir, err := env.CompilerCacheDir()
	if err != nil {
		return nil, err
	}
	return New(dir), nil
}

// Dir returns the cache directory.
func (c *Cache) Dir() string {
	return c.dir
}

// Fingerprint identifies a compiler executable by its resolved path and
// contents.
func Fingerprint(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", err
	}
	resolved, err = filepath.Abs(resolved)
	if err != nil {
		return "", err
	}
	f, err := os.Open(resolved)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := blake3.New(32, nil)
	io.WriteString(h, resolved)
	h.Write([]byte{0})
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("fingerprint %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func (c *Cache) entryPath(key string) string {
	return filepath.Join(c.dir, key+".json")
}

// Load returns the entry stored under key. A missing entry reports an
// error satisfying errors.Is(err, fs.ErrNotExist).
func (c *Cache) Load(key string) (*compiler.Compiler, error) {
	data, err := os.ReadFile(c.entryPath(key))
	if err != nil {
		return nil, err
	}
	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("compiler cache %s: %w", key, err)
	}
	if !semver.IsValid(e.Format) || semver.Major(e.Format) != semver.Major(Format) {
		return nil, fmt.Errorf("compiler cache %s: %w: %q", key, ErrFormat, e.Format)
	}
	if e.Compiler == nil {
		return nil, fmt.Errorf("compiler cache %s: no compiler recorded", key)
	}
	return e.Compiler, nil
}

// Store writes comp under key, recording the executable path it was
// probed from.
func (c *Cache) Store(key, path string, comp *compiler.Compiler) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}
	unlock, err := lockedfile.MutexAt(filepath.Join(c.dir, lockFile)).Lock()
	if err != nil {
		return err
	}
	defer unlock()

	data, err := json.MarshalIndent(&entry{
		Format:   Format,
		Path:     path,
		Probed:   c.now(),
		Compiler: comp,
	}, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(c.dir, key+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), c.entryPath(key))
}

// Get returns the cached description of the compiler at path, running
// probe and storing its result when there is no usable entry.
func (c *Cache) Get(ctx context.Context, path string, probe ProbeFunc) (*compiler.Compiler, error) {
	key, err := Fingerprint(path)
	if err != nil {
		return nil, err
	}
	comp, err := c.Load(key)
	switch {
	case err == nil:
		log.Debugf("compiler cache hit for %s: %s", path, comp.ShowIDWithABI())
		return comp, nil
	case errors.Is(err, fs.ErrNotExist):
		log.Debugf("compiler cache miss for %s", path)
	default:
		log.Warnf("ignoring compiler cache entry for %s: %v", path, err)
	}

	comp, err = probe(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := c.Store(key, path, comp); err != nil {
		return nil, fmt.Errorf("save compiler cache: %w", err)
	}
	return comp, nil
}

// Remove deletes the entry for the compiler at path, if any.
func (c *Cache) Remove(path string) error {
	key, err := Fingerprint(path)
	if err != nil {
		return err
	}
	err = os.Remove(c.entryPath(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
