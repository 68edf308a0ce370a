package artifact

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// FileStore keeps the artifact in a single file. Writes go through a temp
// file and rename; the lock is a sibling file created with O_EXCL.
type FileStore struct {
	path string
	s    settings
}

// NewFileStore binds a store to path and creates its directory.
func NewFileStore(path string, opts ...Option) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("model file path is required")
	}
	path = filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create model directory: %w", err)
	}
	return &FileStore{path: path, s: newSettings(opts)}, nil
}

// Name implements Store.
func (f *FileStore) Name() string { return "file" }

// Path is the artifact location.
func (f *FileStore) Path() string { return f.path }

// Read implements Store.
func (f *FileStore) Read(context.Context) ([]byte, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read model file: %w", err)
	}
	return data, nil
}

// Write implements Store.
func (f *FileStore) Write(_ context.Context, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(f.path), filepath.Base(f.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp model file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write model file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync model file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close model file: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("replace model file: %w", err)
	}
	return nil
}

// Remove implements Store.
func (f *FileStore) Remove(context.Context) error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove model file: %w", err)
	}
	return nil
}

// Lock implements Store. The lock file carries a per-holder token. A lock
// file older than the lease is considered abandoned and broken. Breaking and
// releasing both happen under a short-lived guard file and re-check the token
// there, so neither can remove a lock another holder has since taken.
func (f *FileStore) Lock(ctx context.Context, wait time.Duration) (func(), error) {
	lockPath := f.path + ".lock"
	token := uuid.NewString()

	err := acquire(ctx, wait, f.s.pollInterval, func() (bool, error) {
		ok, err := createLock(lockPath, token)
		if ok || err != nil {
			return ok, err
		}
		f.breakStale(lockPath)
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	return func() { f.release(lockPath, token) }, nil
}

func createLock(path, token string) (bool, error) {
	lf, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600) //nolint:gosec // path derives from configured model path
	if errors.Is(err, fs.ErrExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("create lock file: %w", err)
	}
	_, werr := lf.WriteString(token)
	if cerr := lf.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		_ = os.Remove(path)
		return false, fmt.Errorf("write lock file: %w", werr)
	}
	return true, nil
}

// readLock returns the holder token and whether the lock outlived lease.
func readLock(path string, lease time.Duration) (string, bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", false, err
	}
	data, err := os.ReadFile(path) //nolint:gosec // path derives from configured model path
	if err != nil {
		return "", false, err
	}
	return string(data), time.Since(info.ModTime()) > lease, nil
}

func (f *FileStore) breakStale(lockPath string) {
	seen, stale, err := readLock(lockPath, f.s.lease)
	if err != nil || !stale {
		return
	}
	f.guarded(lockPath, func() {
		token, stale, err := readLock(lockPath, f.s.lease)
		if err == nil && stale && token == seen {
			_ = os.Remove(lockPath)
		}
	})
}

func (f *FileStore) release(lockPath, token string) {
	deadline := time.Now().Add(f.s.lease)
	for {
		if f.guarded(lockPath, func() {
			if held, _, err := readLock(lockPath, f.s.lease); err == nil && held == token {
				_ = os.Remove(lockPath)
			}
		}) || !time.Now().Before(deadline) {
			return
		}
		time.Sleep(f.s.pollInterval)
	}
}

// guarded runs fn while holding the guard file and reports whether it ran.
// A guard older than the lease belonged to a crashed process and is cleared.
func (f *FileStore) guarded(lockPath string, fn func()) bool {
	guard := lockPath + ".guard"
	ok, err := createLock(guard, "")
	if err != nil {
		return false
	}
	if !ok {
		if info, serr := os.Stat(guard); serr == nil && time.Since(info.ModTime()) > f.s.lease {
			_ = os.Remove(guard)
		}
		return false
	}
	defer func() { _ = os.Remove(guard) }()
	fn()
	return true
}
