package store

import (
	"context"
	"errors"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sync"
)

// Local is a file-backed Store implementation.
//
// Each key maps to one file under the root directory (key names are
// path-escaped, so arbitrary keys are safe). Writes go to a temp file in the
// same directory and are renamed into place, so readers never observe a
// partially written blob. An optional byte quota is enforced over the sum of
// files under the root.
type Local struct {
	mu    sync.Mutex
	root  string
	quota int64 // 0 means unlimited
}

// NewLocal creates a file-backed store rooted at dir, creating it if needed.
func NewLocal(dir string) (*Local, error) {
	return NewLocalWithQuota(dir, 0)
}

// NewLocalWithQuota creates a file-backed store that rejects writes once the
// cumulative size of files under dir would exceed quota bytes. quota <= 0
// means unlimited.
func NewLocalWithQuota(dir string, quota int64) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Local{root: dir, quota: quota}, nil
}

func (l *Local) path(key string) string {
	return filepath.Join(l.root, url.PathEscape(key))
}

// Read returns the blob stored under key.
func (l *Local) Read(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(l.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return data, err
}

// Write stores data under key via an atomic temp-file + rename.
func (l *Local) Write(_ context.Context, key string, data []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	target := l.path(key)

	if l.quota > 0 {
		total, err := l.usedExcept(target)
		if err != nil {
			return err
		}
		if total+int64(len(data)) > l.quota {
			return &QuotaError{Key: key, Size: total + int64(len(data)), Limit: l.quota}
		}
	}

	// Temp file in the same directory so the rename is atomic.
	tmp, err := os.CreateTemp(l.root, url.PathEscape(key)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, target); err != nil {
		return err
	}

	// Best-effort: fsync the directory so the rename is durable on POSIX.
	if d, err := os.Open(l.root); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}
	return nil
}

// Remove deletes the blob stored under key.
func (l *Local) Remove(_ context.Context, key string) error {
	err := os.Remove(l.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// usedExcept sums file sizes under the root, skipping the file being
// replaced and in-flight temp files.
func (l *Local) usedExcept(target string) (int64, error) {
	entries, err := os.ReadDir(l.root)
	if err != nil {
		return 0, err
	}

	var total int64
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		p := filepath.Join(l.root, e.Name())
		if p == target {
			continue
		}
		if matched, _ := filepath.Match("*.tmp-*", e.Name()); matched {
			continue
		}
		info, err := e.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return 0, err
		}
		total += info.Size()
	}
	return total, nil
}
