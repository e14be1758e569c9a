package sandfs

import (
	"context"
	"io"
)

// Kind tags a storage entry as a file or a directory.
type Kind string

const (
	KindFile      Kind = "file"
	KindDirectory Kind = "directory"
)

// AccessMode selects the lock the storage provider grants with a
// synchronous access handle.
//
//   - ModeReadOnly handles may coexist with other read-only handles.
//   - ModeReadWrite is exclusive against every other mode.
//   - ModeReadWriteUnsafe handles may coexist with each other only; callers
//     take responsibility for coordinating their writes.
type AccessMode string

const (
	ModeReadOnly        AccessMode = "read-only"
	ModeReadWrite       AccessMode = "readwrite"
	ModeReadWriteUnsafe AccessMode = "readwrite-unsafe"
)

// ResolveOptions controls Provider.Resolve.
type ResolveOptions struct {
	// Create the entry (and any missing ancestor directories) when absent
	Create bool
	// IsFile selects a file entry; directories otherwise
	IsFile bool
}

// Entry is one immediate child of a directory.
type Entry struct {
	Name string
	Kind Kind
}

// Provider is the hierarchical storage collaborator this package is built
// on. Implementations own existence, enumeration, deletion, and the raw
// synchronous access primitive; everything above only composes them.
type Provider interface {
	// Resolve returns a handle for the entry at path. When opts.Create is
	// false and the entry is absent it returns (nil, nil); every real
	// failure is an error. Resolving a path whose entry has the other kind
	// fails with a TypeError.
	Resolve(ctx context.Context, path string, opts ResolveOptions) (Handle, error)
}

// Handle is a resolved storage entry; concrete handles are either a
// DirHandle or a FileHandle depending on Kind.
type Handle interface {
	Path() string
	Kind() Kind
}

// DirHandle navigates one directory.
type DirHandle interface {
	Handle

	// Entries lists the immediate children.
	Entries(ctx context.Context) ([]Entry, error)

	// RemoveEntry deletes the named child; recursive is required to delete
	// a non-empty directory. A missing child is a NotFoundError.
	RemoveEntry(ctx context.Context, name string, recursive bool) error
}

// FileHandle reaches one file's content.
type FileHandle interface {
	Handle

	// SyncAccess acquires the synchronous random-access primitive under the
	// given lock mode. The provider enforces mode exclusivity and rejects
	// conflicting acquisitions with a NoModificationAllowedError; callers
	// must drive the returned handle from a single goroutine.
	SyncAccess(mode AccessMode) (SyncHandle, error)

	// Snapshot opens the committed file content for whole-file reads. It
	// does not take the synchronous-access lock.
	Snapshot(ctx context.Context) (*Snapshot, error)
}

// Snapshot is a read-only view of a file's committed content.
type Snapshot struct {
	io.ReadCloser
	Size int64
}

// SyncHandle is the blocking random-access primitive. Calls block the
// goroutine driving them; the bridge confines all of them to one dedicated
// worker goroutine.
type SyncHandle interface {
	ReadAt(p []byte, off int64) (int, error)
	WriteAt(p []byte, off int64) (int, error)
	Truncate(size int64) error
	Flush() error
	Size() (int64, error)
	Close() error
}
