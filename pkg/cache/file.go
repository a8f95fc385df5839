package cache

import (
	"bytes"
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// entrySuffix marks files owned by a FileCache. Clear only removes these.
const entrySuffix = ".entry"

// FileCache stores each entry in its own file under dir, fanned out into
// 256 subdirectories by key hash. An entry file holds the expiry as Unix
// nanoseconds (0 for none) on its first line followed by the raw value, so
// cached SVGs stay readable with a pager.
type FileCache struct {
	dir string
}

// NewFileCache creates dir if needed and returns a cache rooted there.
func NewFileCache(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileCache{dir: dir}, nil
}

// Dir returns the cache directory.
func (c *FileCache) Dir() string { return c.dir }

// Get implements Cache. Expired and unreadable entries are removed and
// reported as misses.
func (c *FileCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	path := c.path(key)
	raw, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		return nil, false, nil
	case err != nil:
		return nil, false, err
	}

	data, expires, ok := decodeEntry(raw)
	if !ok || (!expires.IsZero() && time.Now().After(expires)) {
		_ = os.Remove(path)
		return nil, false, nil
	}
	return data, true, nil
}

// Set implements Cache. The entry is written to a temporary file and renamed
// into place so concurrent readers never see a partial value.
func (c *FileCache) Set(_ context.Context, key string, data []byte, ttl time.Duration) error {
	path := c.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	var expires time.Time
	if ttl > 0 {
		expires = time.Now().Add(ttl)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(encodeEntry(data, expires)); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Delete implements Cache. Deleting a missing key is not an error.
func (c *FileCache) Delete(_ context.Context, key string) error {
	if err := os.Remove(c.path(key)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Clear implements Clearer. It removes every entry file, then any fan-out
// directory left empty. Other files in dir are left alone.
func (c *FileCache) Clear(ctx context.Context) (int, error) {
	removed := 0
	err := filepath.WalkDir(c.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == c.dir && os.IsNotExist(err) {
				return fs.SkipAll
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != entrySuffix {
			return nil
		}
		if os.Remove(path) == nil {
			removed++
		}
		return nil
	})
	if err != nil {
		return removed, err
	}

	subdirs, _ := os.ReadDir(c.dir)
	for _, d := range subdirs {
		if d.IsDir() {
			// Fails harmlessly on directories that still hold files.
			_ = os.Remove(filepath.Join(c.dir, d.Name()))
		}
	}
	return removed, nil
}

// Close implements Cache.
func (c *FileCache) Close() error { return nil }

func (c *FileCache) path(key string) string {
	h := Hash([]byte(key))
	return filepath.Join(c.dir, h[:2], h[2:]+entrySuffix)
}

func encodeEntry(data []byte, expires time.Time) []byte {
	var stamp int64
	if !expires.IsZero() {
		stamp = expires.UnixNano()
	}
	out := strconv.AppendInt(nil, stamp, 10)
	out = append(out, '\n')
	return append(out, data...)
}

func decodeEntry(raw []byte) (data []byte, expires time.Time, ok bool) {
	header, body, found := bytes.Cut(raw, []byte{'\n'})
	if !found {
		return nil, time.Time{}, false
	}
	stamp, err := strconv.ParseInt(string(header), 10, 64)
	if err != nil || stamp < 0 {
		return nil, time.Time{}, false
	}
	if stamp > 0 {
		expires = time.Unix(0, stamp)
	}
	return body, expires, true
}

var (
	_ Cache   = (*FileCache)(nil)
	_ Clearer = (*FileCache)(nil)
)
