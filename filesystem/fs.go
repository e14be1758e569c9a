// Package filesystem exposes the path-addressed file and directory nodes
// callers work with. Nodes are thin wrappers over a normalized path; all
// state lives in the storage provider and in the bridge session the FS
// owns.
package filesystem

import (
	"github.com/rs/zerolog"
	"github.com/sandfs/sandfs"
	"github.com/sandfs/sandfs/config"
	"github.com/sandfs/sandfs/internal/bridge"
	"github.com/sandfs/sandfs/internal/util"
)

// FS ties a storage provider to one bridge session and the tree-operation
// configuration. Construct it once and share it; node values themselves
// carry no mutable state.
type FS struct {
	provider sandfs.Provider
	cfg      *config.Config
	bridge   *bridge.Session
	log      zerolog.Logger
}

// New builds an FS over provider. A nil cfg uses defaults.
func New(provider sandfs.Provider, cfg *config.Config) *FS {
	if cfg == nil {
		cfg = config.NewConfig(nil)
	}
	return &FS{
		provider: provider,
		cfg:      cfg,
		bridge:   bridge.NewSession(provider, cfg),
		log:      util.GetLogger("filesystem"),
	}
}

// File wraps path as a file node. The path is normalized here; nothing is
// resolved until an operation runs.
func (fs *FS) File(path string) *FileNode {
	return &FileNode{node{fs: fs, info: sandfs.ParsePath(path)}}
}

// Dir wraps path as a directory node.
func (fs *FS) Dir(path string) *DirNode {
	return &DirNode{node{fs: fs, info: sandfs.ParsePath(path)}}
}

// Root returns the directory node for the top of the hierarchy; its name
// is empty.
func (fs *FS) Root() *DirNode {
	return fs.Dir("/")
}
