package filesystem

import (
	"context"
	"io"

	"github.com/sandfs/sandfs"
	"github.com/sandfs/sandfs/internal/pool"
)

// Tree operations fan out over directory children through the bounded task
// pool. Sibling failures are isolated: the batch always runs to the end and
// the aggregate TreeError names exactly which children failed.
//
// Overwrite policy is uniformly strict: copying a directory onto an
// existing directory, or a file onto an existing file, rejects with an
// AlreadyExistsError. The one sanctioned "destination exists" shape is
// copying a file into an existing directory under its own name.

// CopyTo copies the directory tree under d into dest, which must not exist
// yet. Children are copied concurrently up to the configured pool size.
func (d *DirNode) CopyTo(ctx context.Context, dest *DirNode) error {
	exists, err := d.Exists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		return sandfs.NotFound(d.Path())
	}
	if destExists, err := dest.Exists(ctx); err != nil {
		return err
	} else if destExists {
		return sandfs.AlreadyExists(dest.Path())
	}
	if err := dest.Create(ctx); err != nil {
		return err
	}
	return d.copyChildren(ctx, dest)
}

func (d *DirNode) copyChildren(ctx context.Context, dest *DirNode) error {
	children, err := d.Children(ctx)
	if err != nil {
		return err
	}

	tasks := make([]pool.Task, len(children))
	for i, child := range children {
		tasks[i] = func(ctx context.Context) error {
			target := sandfs.JoinPath(dest.Path(), child.Name())
			switch c := child.(type) {
			case *DirNode:
				sub := d.fs.Dir(target)
				if err := sub.Create(ctx); err != nil {
					return err
				}
				return c.copyChildren(ctx, sub)
			case *FileNode:
				return c.copyContentTo(ctx, target)
			default:
				return sandfs.NotSupported("unknown node kind %q", child.Kind())
			}
		}
	}

	results := pool.Run(ctx, d.fs.cfg.PoolSize, tasks)
	return settle("copy "+d.Path(), children, results)
}

// MoveTo is copy followed by remove; it is not atomic. A failure after the
// copy completes but before the remove does leaves source and destination
// both present.
func (d *DirNode) MoveTo(ctx context.Context, dest *DirNode) error {
	if err := d.CopyTo(ctx, dest); err != nil {
		return err
	}
	return d.Remove(ctx)
}

// removeRoot clears the top of the hierarchy. The root itself cannot be
// deleted, so every top-level entry is removed individually through the
// pool and all outcomes are settled rather than short-circuiting.
func (d *DirNode) removeRoot(ctx context.Context) error {
	children, err := d.Children(ctx)
	if err != nil {
		return err
	}
	tasks := make([]pool.Task, len(children))
	for i, child := range children {
		tasks[i] = func(ctx context.Context) error {
			return child.Remove(ctx)
		}
	}
	results := pool.Run(ctx, d.fs.cfg.PoolSize, tasks)
	return settle("remove /", children, results)
}

// CopyTo copies the file's content to dest, which may be a *DirNode (copy
// into it under the file's own name), a *FileNode or path string (rename
// target; an existing file rejects), or a provider DirHandle/FileHandle.
// It returns the node for the created copy.
func (f *FileNode) CopyTo(ctx context.Context, dest any) (*FileNode, error) {
	destPath, err := f.destinationPath(ctx, dest)
	if err != nil {
		return nil, err
	}
	if err := f.copyContentTo(ctx, destPath); err != nil {
		return nil, err
	}
	return f.fs.File(destPath), nil
}

// MoveTo is copy followed by remove; not atomic (see DirNode.MoveTo).
func (f *FileNode) MoveTo(ctx context.Context, dest any) (*FileNode, error) {
	target, err := f.CopyTo(ctx, dest)
	if err != nil {
		return nil, err
	}
	if err := f.Remove(ctx); err != nil {
		return target, err
	}
	return target, nil
}

// destinationPath maps the accepted destination shapes onto the target
// file path.
func (f *FileNode) destinationPath(ctx context.Context, dest any) (string, error) {
	switch t := dest.(type) {
	case *DirNode:
		return sandfs.JoinPath(t.Path(), f.Name()), nil
	case *FileNode:
		return t.Path(), nil
	case sandfs.DirHandle:
		return sandfs.JoinPath(t.Path(), f.Name()), nil
	case sandfs.FileHandle:
		// a live handle proves the destination file exists
		return "", sandfs.AlreadyExists(t.Path())
	case string:
		info := sandfs.ParsePath(t)
		h, err := f.fs.provider.Resolve(ctx, info.FullPath, sandfs.ResolveOptions{})
		switch {
		case err != nil && sandfs.HasName(err, sandfs.NameTypeError):
			// an existing file; copyContentTo rejects it below
			return info.FullPath, nil
		case err != nil:
			return "", err
		case h != nil:
			// existing directory: copy into it under our own name
			return sandfs.JoinPath(info.FullPath, f.Name()), nil
		default:
			// absent: treat as a rename target
			return info.FullPath, nil
		}
	default:
		return "", sandfs.TypeErr("unsupported copy destination %T", dest)
	}
}

// copyContentTo streams the committed source content into a freshly
// created file at destPath through the bridge.
func (f *FileNode) copyContentTo(ctx context.Context, destPath string) error {
	if destPath == f.Path() {
		return sandfs.AlreadyExists(destPath)
	}

	snap, err := f.snapshot(ctx)
	if err != nil {
		return err
	}
	defer snap.Close()

	if existing, err := f.fs.provider.Resolve(ctx, destPath, sandfs.ResolveOptions{IsFile: true}); err != nil {
		return err
	} else if existing != nil {
		return sandfs.AlreadyExists(destPath)
	}

	if err := f.fs.bridge.Open(ctx, destPath, sandfs.ModeReadWrite); err != nil {
		return err
	}
	defer func() {
		if cerr := f.fs.bridge.Close(ctx, destPath); cerr != nil {
			f.fs.log.Warn().Err(cerr).Str("path", destPath).Msg("closing copy target")
		}
	}()

	buf := make([]byte, f.fs.cfg.ChunkSize)
	var off int64
	for {
		n, rerr := snap.Read(buf)
		if n > 0 {
			if _, werr := f.fs.bridge.WriteAt(ctx, destPath, buf[:n], off); werr != nil {
				return werr
			}
			off += int64(n)
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return sandfs.Convert(rerr)
		}
	}
	return f.fs.bridge.Flush(ctx, destPath)
}

// settle folds pool results into a TreeError naming the failed children.
func settle(op string, children []Node, results []pool.Result) error {
	failed := pool.Failed(results)
	if len(failed) == 0 {
		return nil
	}
	te := &sandfs.TreeError{Op: op}
	for _, r := range failed {
		te.Failures = append(te.Failures, sandfs.ChildFailure{
			Path: children[r.Index].Path(),
			Err:  r.Err,
		})
	}
	return te
}
