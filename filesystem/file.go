package filesystem

import (
	"context"
	"io"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/sandfs/sandfs"
)

// FileNode addresses one file by path.
type FileNode struct {
	node
}

func (f *FileNode) Kind() sandfs.Kind {
	return sandfs.KindFile
}

func (f *FileNode) Exists(ctx context.Context) (bool, error) {
	return f.exists(ctx, true)
}

// Create makes an empty file at the path, creating missing ancestor
// directories. Creating an existing file is a no-op.
func (f *FileNode) Create(ctx context.Context) error {
	return f.create(ctx, true)
}

func (f *FileNode) Remove(ctx context.Context) error {
	return f.removeSelf(ctx, false)
}

// OpenOptions selects the lock mode for an open session. The zero value
// opens read-only.
type OpenOptions struct {
	Mode sandfs.AccessMode
}

// Open acquires a synchronous access handle for the file through the
// bridge, creating the file when absent, and returns the session that
// tracks its cursors. The storage provider rejects conflicting lock modes;
// that rejection surfaces here unchanged.
func (f *FileNode) Open(ctx context.Context, opts OpenOptions) (*FileSession, error) {
	mode := opts.Mode
	if mode == "" {
		mode = sandfs.ModeReadOnly
	}
	if err := f.fs.bridge.Open(ctx, f.Path(), mode); err != nil {
		return nil, err
	}
	f.fs.log.Debug().Str("path", f.Path()).Str("mode", string(mode)).Msg("opened access handle")
	return &FileSession{fs: f.fs, path: f.Path(), mode: mode}, nil
}

// snapshot opens the committed content directly from the provider; no
// synchronous-access lock is taken.
func (f *FileNode) snapshot(ctx context.Context) (*sandfs.Snapshot, error) {
	h, err := f.fs.provider.Resolve(ctx, f.Path(), sandfs.ResolveOptions{IsFile: true})
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, sandfs.NotFound(f.Path())
	}
	fh, ok := h.(sandfs.FileHandle)
	if !ok {
		return nil, sandfs.TypeErr("entry at %s is not a file", f.Path())
	}
	return fh.Snapshot(ctx)
}

// Stream returns a reader over the whole committed file content.
func (f *FileNode) Stream(ctx context.Context) (io.ReadCloser, error) {
	snap, err := f.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// Bytes reads the whole committed file content.
func (f *FileNode) Bytes(ctx context.Context) ([]byte, error) {
	snap, err := f.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	defer snap.Close()
	data, err := io.ReadAll(snap)
	if err != nil {
		return nil, sandfs.Convert(err)
	}
	return data, nil
}

// Text reads the whole committed file content as a string.
func (f *FileNode) Text(ctx context.Context) (string, error) {
	data, err := f.Bytes(ctx)
	return string(data), err
}

// Size reports the committed content size in bytes.
func (f *FileNode) Size(ctx context.Context) (int64, error) {
	snap, err := f.snapshot(ctx)
	if err != nil {
		return 0, err
	}
	defer snap.Close()
	return snap.Size, nil
}

// ContentType sniffs the committed content's MIME type.
func (f *FileNode) ContentType(ctx context.Context) (string, error) {
	snap, err := f.snapshot(ctx)
	if err != nil {
		return "", err
	}
	defer snap.Close()
	mt, err := mimetype.DetectReader(snap)
	if err != nil {
		return "", sandfs.Convert(err)
	}
	return mt.String(), nil
}

// FileSession is one open synchronous-access session. It tracks a read and
// a write cursor; an explicit offset call overrides the cursor for that
// call only and leaves the cursor at offset + bytes transferred. Sessions
// are safe for concurrent use, though the bridge serializes the actual I/O
// anyway.
type FileSession struct {
	fs   *FS
	path string
	mode sandfs.AccessMode

	mu          sync.Mutex
	closed      bool
	readCursor  int64
	writeCursor int64
}

func (s *FileSession) Path() string {
	return s.path
}

func (s *FileSession) Mode() sandfs.AccessMode {
	return s.mode
}

// Read fills p starting at the session's read cursor.
func (s *FileSession) Read(ctx context.Context, p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readAt(ctx, p, s.readCursor)
}

// ReadAt fills p starting at off, then moves the read cursor to
// off + bytes read.
func (s *FileSession) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readAt(ctx, p, off)
}

func (s *FileSession) readAt(ctx context.Context, p []byte, off int64) (int, error) {
	if s.closed {
		return 0, sandfs.InvalidState("session for %s is closed", s.path)
	}
	n, err := s.fs.bridge.ReadAt(ctx, s.path, p, off)
	s.readCursor = off + int64(n)
	return n, err
}

// Write writes p at the session's write cursor.
func (s *FileSession) Write(ctx context.Context, p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeAt(ctx, p, s.writeCursor)
}

// WriteAt writes p at off, then moves the write cursor to
// off + bytes written.
func (s *FileSession) WriteAt(ctx context.Context, p []byte, off int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeAt(ctx, p, off)
}

func (s *FileSession) writeAt(ctx context.Context, p []byte, off int64) (int, error) {
	if err := s.writableLocked(); err != nil {
		return 0, err
	}
	n, err := s.fs.bridge.WriteAt(ctx, s.path, p, off)
	s.writeCursor = off + int64(n)
	return n, err
}

// Truncate resizes the file. Growing pads with zero bytes; shrinking
// discards the tail and clamps the write cursor down to the new size.
func (s *FileSession) Truncate(ctx context.Context, size int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.writableLocked(); err != nil {
		return err
	}
	if err := s.fs.bridge.Truncate(ctx, s.path, size); err != nil {
		return err
	}
	if s.writeCursor > size {
		s.writeCursor = size
	}
	if s.readCursor > size {
		s.readCursor = size
	}
	return nil
}

// Flush persists writes made through this session.
func (s *FileSession) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.writableLocked(); err != nil {
		return err
	}
	return s.fs.bridge.Flush(ctx, s.path)
}

// Size returns the current file size as seen by the handle.
func (s *FileSession) Size(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, sandfs.InvalidState("session for %s is closed", s.path)
	}
	return s.fs.bridge.Size(ctx, s.path)
}

// Close releases the handle. Every later call on the session rejects with
// an InvalidStateError; nothing silently succeeds post-close.
func (s *FileSession) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return sandfs.InvalidState("session for %s is closed", s.path)
	}
	s.closed = true
	return s.fs.bridge.Close(ctx, s.path)
}

func (s *FileSession) writableLocked() error {
	if s.closed {
		return sandfs.InvalidState("session for %s is closed", s.path)
	}
	if s.mode == sandfs.ModeReadOnly {
		return sandfs.NoModificationAllowed("session for %s is read-only", s.path)
	}
	return nil
}
