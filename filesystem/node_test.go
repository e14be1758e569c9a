package filesystem

import (
	"context"
	"testing"

	"github.com/sandfs/sandfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNode_CreateMakesAncestors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fs := newTestFS(t)

	require.NoError(t, fs.File("/a/b/c.txt").Create(ctx))

	exists, err := fs.Dir("/a/b").Exists(ctx)
	require.NoError(t, err)
	assert.True(t, exists, "ancestors are created on demand")

	exists, err = fs.File("/a/b/c.txt").Exists(ctx)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestNode_CreateIdempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fs := newTestFS(t)

	writeTestFile(t, fs, "/keep.txt", "payload")
	require.NoError(t, fs.File("/keep.txt").Create(ctx))

	text, err := fs.File("/keep.txt").Text(ctx)
	require.NoError(t, err)
	assert.Equal(t, "payload", text, "re-creating an existing file keeps its content")

	require.NoError(t, fs.Dir("/d").Create(ctx))
	require.NoError(t, fs.Dir("/d").Create(ctx))
}

// Exists answers false, never an error, for absent entries and for kind
// mismatches.
func TestNode_Exists(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fs := newTestFS(t)

	exists, err := fs.File("/ghost.txt").Exists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, fs.Dir("/actually-a-dir").Create(ctx))
	exists, err = fs.File("/actually-a-dir").Exists(ctx)
	require.NoError(t, err)
	assert.False(t, exists, "a directory does not exist as a file")

	writeTestFile(t, fs, "/actually-a-file", "x")
	exists, err = fs.Dir("/actually-a-file").Exists(ctx)
	require.NoError(t, err)
	assert.False(t, exists, "a file does not exist as a directory")

	exists, err = fs.Root().Exists(ctx)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestNode_PathIdentity(t *testing.T) {
	t.Parallel()
	fs := newTestFS(t)

	f := fs.File("a//b/../c/./leaf.txt")
	assert.Equal(t, "/a/c/leaf.txt", f.Path())
	assert.Equal(t, "leaf.txt", f.Name())
	assert.Equal(t, []string{"a", "c"}, f.Parents())

	root := fs.Root()
	assert.Equal(t, "/", root.Path())
	assert.Empty(t, root.Name())
}

func TestDirNode_Children(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fs := newTestFS(t)

	writeTestFile(t, fs, "/top/file.txt", "f")
	require.NoError(t, fs.Dir("/top/sub").Create(ctx))

	children, err := fs.Dir("/top").Children(ctx)
	require.NoError(t, err)
	require.Len(t, children, 2)

	byName := map[string]Node{}
	for _, c := range children {
		byName[c.Name()] = c
	}
	require.Contains(t, byName, "file.txt")
	require.Contains(t, byName, "sub")
	assert.Equal(t, sandfs.KindFile, byName["file.txt"].Kind())
	assert.Equal(t, sandfs.KindDirectory, byName["sub"].Kind())
	assert.Equal(t, "/top/sub", byName["sub"].Path())
}

func TestDirNode_Children_Missing(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fs := newTestFS(t)

	children, err := fs.Dir("/nowhere").Children(ctx)
	require.NoError(t, err)
	assert.Empty(t, children)
}

func TestNode_Remove(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fs := newTestFS(t)

	writeTestFile(t, fs, "/victim.txt", "x")
	require.NoError(t, fs.File("/victim.txt").Remove(ctx))
	exists, err := fs.File("/victim.txt").Exists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)

	err = fs.File("/victim.txt").Remove(ctx)
	assert.True(t, sandfs.IsNotFound(err), "removing an absent entry errors")

	// recursive directory removal
	writeTestFile(t, fs, "/tree/deep/leaf.txt", "x")
	require.NoError(t, fs.Dir("/tree").Remove(ctx))
	exists, err = fs.Dir("/tree").Exists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)
}
