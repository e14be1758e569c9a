// Package osdir implements the storage-provider boundary over a private
// directory on the local filesystem. Paths are normalized and jailed under
// the root; synchronous access handles wrap *os.File. The OS does not
// enforce the access-mode exclusivity the contract requires, so the
// provider keeps its own per-path lock table. An optional byte quota is
// policed on writes and truncates.
package osdir

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v4"
	"github.com/rs/zerolog"
	"github.com/sandfs/sandfs"
	"github.com/sandfs/sandfs/internal/util"
)

// Options configures a Provider.
type Options struct {
	// QuotaBytes caps total file content under the root; 0 means unlimited
	QuotaBytes int64
}

// Provider is a sandfs.Provider rooted at one OS directory.
type Provider struct {
	root  string
	quota int64
	used  atomic.Int64
	locks *xsync.Map[string, *lockState]
	log   zerolog.Logger
}

// New creates the root directory when missing and, when a quota is set,
// scans it to seed usage accounting.
func New(root string, opts Options) (*Provider, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, sandfs.Convert(err)
	}
	p := &Provider{
		root:  root,
		quota: opts.QuotaBytes,
		locks: xsync.NewMap[string, *lockState](),
		log:   util.GetLogger("osdir"),
	}
	if p.quota > 0 {
		used, err := treeSize(root)
		if err != nil {
			return nil, sandfs.Convert(err)
		}
		p.used.Store(used)
	}
	return p, nil
}

// Resolve implements sandfs.Provider. Absence without Create is (nil, nil);
// a kind mismatch is a TypeError; Create makes missing ancestors.
func (p *Provider) Resolve(_ context.Context, path string, opts sandfs.ResolveOptions) (sandfs.Handle, error) {
	info := sandfs.ParsePath(path)
	osPath := p.osPath(info.FullPath)

	st, err := os.Stat(osPath)
	switch {
	case err == nil:
		if st.IsDir() == opts.IsFile {
			return nil, sandfs.TypeErr("entry at %s is a %s", info.FullPath, kindOf(st))
		}
		return p.handleFor(info, st.IsDir()), nil
	case !errors.Is(err, fs.ErrNotExist):
		return nil, sandfs.Convert(err)
	}

	if !opts.Create {
		return nil, nil
	}

	if opts.IsFile {
		if err := os.MkdirAll(filepath.Dir(osPath), 0o755); err != nil {
			return nil, sandfs.Convert(err)
		}
		f, err := os.OpenFile(osPath, os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, sandfs.Convert(err)
		}
		if err := f.Close(); err != nil {
			return nil, sandfs.Convert(err)
		}
	} else {
		if err := os.MkdirAll(osPath, 0o755); err != nil {
			return nil, sandfs.Convert(err)
		}
	}
	p.log.Trace().Str("path", info.FullPath).Bool("file", opts.IsFile).Msg("created entry")
	return p.handleFor(info, !opts.IsFile), nil
}

func (p *Provider) handleFor(info sandfs.PathInfo, isDir bool) sandfs.Handle {
	if isDir {
		return &dirHandle{p: p, info: info}
	}
	return &fileHandle{p: p, info: info}
}

// osPath maps a normalized absolute storage path into the jail.
func (p *Provider) osPath(fullPath string) string {
	return filepath.Join(p.root, filepath.FromSlash(strings.TrimPrefix(fullPath, "/")))
}

// chargeGrow reserves delta bytes against the quota; negative deltas always
// succeed and shrink usage.
func (p *Provider) chargeGrow(delta int64) error {
	if delta == 0 {
		return nil
	}
	if delta < 0 {
		p.used.Add(delta)
		return nil
	}
	if p.quota > 0 && p.used.Load()+delta > p.quota {
		return sandfs.QuotaExceeded("write of %d bytes exceeds quota of %d", delta, p.quota)
	}
	p.used.Add(delta)
	return nil
}

func kindOf(st fs.FileInfo) sandfs.Kind {
	if st.IsDir() {
		return sandfs.KindDirectory
	}
	return sandfs.KindFile
}

// treeSize sums regular-file sizes under dir.
func treeSize(dir string) (int64, error) {
	var total int64
	err := filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			st, err := d.Info()
			if err != nil {
				return err
			}
			total += st.Size()
		}
		return nil
	})
	return total, err
}
