package filesystem

import (
	"context"
	"strings"

	"github.com/sandfs/sandfs"
)

// Node is the surface shared by file and directory nodes. Concrete values
// are always *FileNode or *DirNode, tagged by Kind.
type Node interface {
	Kind() sandfs.Kind
	Path() string
	Name() string
	Parents() []string

	// Exists never errors for plain absence; absent is false, nil.
	Exists(ctx context.Context) (bool, error)

	// Create is idempotent and creates missing ancestor directories.
	Create(ctx context.Context) error

	// Remove deletes the entry; recursively for directories.
	Remove(ctx context.Context) error
}

// node carries the immutable identity shared by both variants.
type node struct {
	fs   *FS
	info sandfs.PathInfo
}

func (n *node) Path() string {
	return n.info.FullPath
}

func (n *node) Name() string {
	return n.info.Name
}

func (n *node) Parents() []string {
	return n.info.Parents
}

func (n *node) parentPath() string {
	return "/" + strings.Join(n.info.Parents, "/")
}

// exists probes the provider without creating. A kind mismatch at the path
// counts as absence of this node, not a failure.
func (n *node) exists(ctx context.Context, isFile bool) (bool, error) {
	h, err := n.fs.provider.Resolve(ctx, n.info.FullPath, sandfs.ResolveOptions{IsFile: isFile})
	if err != nil {
		if sandfs.IsNotFound(err) || sandfs.HasName(err, sandfs.NameTypeError) {
			return false, nil
		}
		return false, err
	}
	return h != nil, nil
}

func (n *node) create(ctx context.Context, isFile bool) error {
	_, err := n.fs.provider.Resolve(ctx, n.info.FullPath, sandfs.ResolveOptions{Create: true, IsFile: isFile})
	return err
}

// removeSelf delegates to the parent directory's entry removal. The
// distinguished root node never reaches this path; see DirNode.Remove.
func (n *node) removeSelf(ctx context.Context, recursive bool) error {
	h, err := n.fs.provider.Resolve(ctx, n.parentPath(), sandfs.ResolveOptions{})
	if err != nil {
		return err
	}
	if h == nil {
		return sandfs.NotFound(n.info.FullPath)
	}
	dh, ok := h.(sandfs.DirHandle)
	if !ok {
		return sandfs.TypeErr("parent of %s is not a directory", n.info.FullPath)
	}
	return dh.RemoveEntry(ctx, n.info.Name, recursive)
}
