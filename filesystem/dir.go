package filesystem

import (
	"context"

	"github.com/sandfs/sandfs"
)

// DirNode addresses one directory by path. The root directory is the node
// with an empty name.
type DirNode struct {
	node
}

func (d *DirNode) Kind() sandfs.Kind {
	return sandfs.KindDirectory
}

func (d *DirNode) Exists(ctx context.Context) (bool, error) {
	if d.info.IsRoot() {
		// the root always exists
		return true, nil
	}
	return d.exists(ctx, false)
}

// Create makes the directory and any missing ancestors; creating an
// existing directory is a no-op.
func (d *DirNode) Create(ctx context.Context) error {
	return d.create(ctx, false)
}

// Remove deletes the directory recursively. Removing the root removes
// every top-level entry individually instead, settling all outcomes; see
// removeRoot in tree.go.
func (d *DirNode) Remove(ctx context.Context) error {
	if d.info.IsRoot() {
		return d.removeRoot(ctx)
	}
	return d.removeSelf(ctx, true)
}

// Children lists the immediate entries wrapped as nodes. A missing
// directory yields an empty list, not an error.
func (d *DirNode) Children(ctx context.Context) ([]Node, error) {
	h, err := d.fs.provider.Resolve(ctx, d.Path(), sandfs.ResolveOptions{})
	if err != nil {
		return nil, err
	}
	if h == nil {
		return []Node{}, nil
	}
	dh, ok := h.(sandfs.DirHandle)
	if !ok {
		return nil, sandfs.TypeErr("entry at %s is not a directory", d.Path())
	}

	entries, err := dh.Entries(ctx)
	if err != nil {
		return nil, err
	}
	children := make([]Node, 0, len(entries))
	for _, e := range entries {
		childPath := sandfs.JoinPath(d.Path(), e.Name)
		switch e.Kind {
		case sandfs.KindDirectory:
			children = append(children, d.fs.Dir(childPath))
		default:
			children = append(children, d.fs.File(childPath))
		}
	}
	return children, nil
}
