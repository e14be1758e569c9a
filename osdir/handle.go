package osdir

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"sort"

	"github.com/sandfs/sandfs"
)

type dirHandle struct {
	p    *Provider
	info sandfs.PathInfo
}

func (d *dirHandle) Path() string      { return d.info.FullPath }
func (d *dirHandle) Kind() sandfs.Kind { return sandfs.KindDirectory }

func (d *dirHandle) Entries(_ context.Context) ([]sandfs.Entry, error) {
	dirents, err := os.ReadDir(d.p.osPath(d.info.FullPath))
	if err != nil {
		return nil, sandfs.Convert(err)
	}
	entries := make([]sandfs.Entry, 0, len(dirents))
	for _, de := range dirents {
		kind := sandfs.KindFile
		if de.IsDir() {
			kind = sandfs.KindDirectory
		}
		entries = append(entries, sandfs.Entry{Name: de.Name(), Kind: kind})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

func (d *dirHandle) RemoveEntry(_ context.Context, name string, recursive bool) error {
	childPath := sandfs.JoinPath(d.info.FullPath, name)
	osPath := d.p.osPath(childPath)

	st, err := os.Lstat(osPath)
	if errors.Is(err, fs.ErrNotExist) {
		return sandfs.NotFound(childPath)
	}
	if err != nil {
		return sandfs.Convert(err)
	}

	if st.IsDir() && recursive {
		// measure before deleting so the quota ledger stays honest
		var freed int64
		if d.p.quota > 0 {
			if freed, err = treeSize(osPath); err != nil {
				return sandfs.Convert(err)
			}
		}
		if err := os.RemoveAll(osPath); err != nil {
			return sandfs.Convert(err)
		}
		d.p.used.Add(-freed)
		return nil
	}

	if err := os.Remove(osPath); err != nil {
		return sandfs.Convert(err)
	}
	if !st.IsDir() {
		d.p.used.Add(-st.Size())
	}
	return nil
}

type fileHandle struct {
	p    *Provider
	info sandfs.PathInfo
}

func (f *fileHandle) Path() string      { return f.info.FullPath }
func (f *fileHandle) Kind() sandfs.Kind { return sandfs.KindFile }

// SyncAccess opens the blocking primitive under the requested lock mode.
// Mode conflicts reject with a NoModificationAllowedError before any file
// descriptor is opened.
func (f *fileHandle) SyncAccess(mode sandfs.AccessMode) (sandfs.SyncHandle, error) {
	release, err := f.p.acquire(f.info.FullPath, mode)
	if err != nil {
		return nil, err
	}

	flags := os.O_RDWR
	if mode == sandfs.ModeReadOnly {
		flags = os.O_RDONLY
	}
	file, err := os.OpenFile(f.p.osPath(f.info.FullPath), flags, 0o644)
	if err != nil {
		release()
		if errors.Is(err, fs.ErrNotExist) {
			return nil, sandfs.NotFound(f.info.FullPath)
		}
		return nil, sandfs.Convert(err)
	}
	return &syncHandle{p: f.p, path: f.info.FullPath, file: file, mode: mode, release: release}, nil
}

func (f *fileHandle) Snapshot(_ context.Context) (*sandfs.Snapshot, error) {
	file, err := os.Open(f.p.osPath(f.info.FullPath))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, sandfs.NotFound(f.info.FullPath)
	}
	if err != nil {
		return nil, sandfs.Convert(err)
	}
	st, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, sandfs.Convert(err)
	}
	return &sandfs.Snapshot{ReadCloser: file, Size: st.Size()}, nil
}

// syncHandle adapts *os.File to the blocking primitive and keeps the
// provider's quota ledger current.
type syncHandle struct {
	p       *Provider
	path    string
	file    *os.File
	mode    sandfs.AccessMode
	release func()
	closed  bool
}

func (h *syncHandle) ReadAt(p []byte, off int64) (int, error) {
	return h.file.ReadAt(p, off)
}

func (h *syncHandle) WriteAt(p []byte, off int64) (int, error) {
	if h.mode == sandfs.ModeReadOnly {
		return 0, sandfs.NoModificationAllowed("handle for %s is read-only", h.path)
	}
	cur, err := h.size()
	if err != nil {
		return 0, err
	}
	end := off + int64(len(p))
	if end > cur {
		if err := h.p.chargeGrow(end - cur); err != nil {
			return 0, err
		}
	}
	n, werr := h.file.WriteAt(p, off)
	if actual := off + int64(n); actual < end && end > cur {
		// short write; return the unused reservation
		over := end
		if actual > cur {
			over = actual
		}
		h.p.used.Add(over - end)
	}
	if werr != nil {
		return n, sandfs.Convert(werr)
	}
	return n, nil
}

func (h *syncHandle) Truncate(size int64) error {
	if h.mode == sandfs.ModeReadOnly {
		return sandfs.NoModificationAllowed("handle for %s is read-only", h.path)
	}
	cur, err := h.size()
	if err != nil {
		return err
	}
	if err := h.p.chargeGrow(size - cur); err != nil {
		return err
	}
	if err := h.file.Truncate(size); err != nil {
		h.p.used.Add(cur - size)
		return sandfs.Convert(err)
	}
	return nil
}

func (h *syncHandle) Flush() error {
	if err := h.file.Sync(); err != nil {
		return sandfs.Convert(err)
	}
	return nil
}

func (h *syncHandle) Size() (int64, error) {
	return h.size()
}

func (h *syncHandle) size() (int64, error) {
	st, err := h.file.Stat()
	if err != nil {
		return 0, sandfs.Convert(err)
	}
	return st.Size(), nil
}

func (h *syncHandle) Close() error {
	if h.closed {
		return sandfs.InvalidState("handle for %s is closed", h.path)
	}
	h.closed = true
	err := h.file.Close()
	h.release()
	if err != nil {
		return sandfs.Convert(err)
	}
	return nil
}
