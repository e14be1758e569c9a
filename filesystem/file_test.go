package filesystem

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/sandfs/sandfs"
	"github.com/sandfs/sandfs/osdir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFS(t *testing.T) *FS {
	t.Helper()
	provider, err := osdir.New(t.TempDir(), osdir.Options{})
	require.NoError(t, err)
	return New(provider, nil)
}

// writeTestFile commits content to path through an exclusive session.
func writeTestFile(t *testing.T, fs *FS, path, content string) {
	t.Helper()
	ctx := context.Background()
	sess, err := fs.File(path).Open(ctx, OpenOptions{Mode: sandfs.ModeReadWrite})
	require.NoError(t, err)
	_, err = sess.Write(ctx, []byte(content))
	require.NoError(t, err)
	require.NoError(t, sess.Flush(ctx))
	require.NoError(t, sess.Close(ctx))
}

// Writing b at offset 0, flushing, and reading from offset 0 yields
// exactly b.
func TestFileSession_RoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fs := newTestFS(t)

	payload := []byte("round trip payload \x00\x01\x02 with binary tails")
	sess, err := fs.File("/data.bin").Open(ctx, OpenOptions{Mode: sandfs.ModeReadWrite})
	require.NoError(t, err)

	n, err := sess.WriteAt(ctx, payload, 0)
	require.NoError(t, err)
	require.Equal(t, len(payload), n)
	require.NoError(t, sess.Flush(ctx))

	got := make([]byte, len(payload))
	n, err = sess.ReadAt(ctx, got, 0)
	require.NoError(t, err)
	assert.Equal(t, len(payload), n)
	assert.Equal(t, payload, got)

	require.NoError(t, sess.Close(ctx))
}

// Sequential reads and writes advance their cursors independently; an
// explicit offset overrides the cursor for that call and re-anchors it.
func TestFileSession_CursorTracking(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fs := newTestFS(t)

	sess, err := fs.File("/cursor.txt").Open(ctx, OpenOptions{Mode: sandfs.ModeReadWrite})
	require.NoError(t, err)
	defer sess.Close(ctx) // nolint:errcheck

	_, err = sess.Write(ctx, []byte("abc"))
	require.NoError(t, err)
	_, err = sess.Write(ctx, []byte("def"))
	require.NoError(t, err)

	buf := make([]byte, 3)
	_, err = sess.Read(ctx, buf)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(buf))

	_, err = sess.Read(ctx, buf)
	require.NoError(t, err)
	assert.Equal(t, "def", string(buf), "second read continues from the cursor")

	// explicit offset overrides and re-anchors the cursor
	_, err = sess.ReadAt(ctx, buf[:2], 1)
	require.NoError(t, err)
	assert.Equal(t, "bc", string(buf[:2]))

	_, err = sess.Read(ctx, buf)
	require.NoError(t, err)
	assert.Equal(t, "def", string(buf), "cursor sits at offset + bytes read")
}

// Growing pads with zero bytes; shrinking discards the tail and clamps the
// write cursor to the new size.
func TestFileSession_Truncate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fs := newTestFS(t)

	sess, err := fs.File("/trunc.bin").Open(ctx, OpenOptions{Mode: sandfs.ModeReadWrite})
	require.NoError(t, err)
	defer sess.Close(ctx) // nolint:errcheck

	_, err = sess.Write(ctx, []byte("0123456789"))
	require.NoError(t, err)

	// shrink: tail discarded, write cursor clamped from 10 down to 4
	require.NoError(t, sess.Truncate(ctx, 4))
	size, err := sess.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), size)

	_, err = sess.Write(ctx, []byte("xy"))
	require.NoError(t, err)

	got := make([]byte, 6)
	_, err = sess.ReadAt(ctx, got, 0)
	require.NoError(t, err)
	assert.Equal(t, "0123xy", string(got), "post-clamp write lands at the new end")

	// grow: padded with zero bytes up to the new size
	require.NoError(t, sess.Truncate(ctx, 9))
	got = make([]byte, 9)
	_, err = sess.ReadAt(ctx, got, 0)
	require.NoError(t, err)
	assert.Equal(t, append([]byte("0123xy"), 0, 0, 0), got)
}

// No operation silently succeeds after close.
func TestFileSession_ClosedRejectsEverything(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fs := newTestFS(t)

	sess, err := fs.File("/closed.txt").Open(ctx, OpenOptions{Mode: sandfs.ModeReadWrite})
	require.NoError(t, err)
	require.NoError(t, sess.Close(ctx))

	buf := make([]byte, 1)
	_, err = sess.Read(ctx, buf)
	assert.True(t, sandfs.IsInvalidState(err))
	_, err = sess.Write(ctx, buf)
	assert.True(t, sandfs.IsInvalidState(err))
	assert.True(t, sandfs.IsInvalidState(sess.Truncate(ctx, 0)))
	assert.True(t, sandfs.IsInvalidState(sess.Flush(ctx)))
	_, err = sess.Size(ctx)
	assert.True(t, sandfs.IsInvalidState(err))
	assert.True(t, sandfs.IsInvalidState(sess.Close(ctx)), "double close is an error")
}

func TestFileSession_ReadOnly(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fs := newTestFS(t)

	writeTestFile(t, fs, "/ro.txt", "readable")

	sess, err := fs.File("/ro.txt").Open(ctx, OpenOptions{})
	require.NoError(t, err)
	defer sess.Close(ctx) // nolint:errcheck
	assert.Equal(t, sandfs.ModeReadOnly, sess.Mode())

	buf := make([]byte, 8)
	n, err := sess.Read(ctx, buf)
	require.NoError(t, err)
	assert.Equal(t, "readable", string(buf[:n]))

	_, err = sess.Write(ctx, []byte("x"))
	assert.True(t, sandfs.HasName(err, sandfs.NameNoModificationAllowed))
	assert.True(t, sandfs.HasName(sess.Truncate(ctx, 0), sandfs.NameNoModificationAllowed))
	assert.True(t, sandfs.HasName(sess.Flush(ctx), sandfs.NameNoModificationAllowed))
}

// Whole-content reads bypass the bridge and need no sync-access lock, even
// while an exclusive session is open elsewhere on the same file.
func TestFileNode_WholeContentReads(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fs := newTestFS(t)

	writeTestFile(t, fs, "/docs/readme.txt", "committed content")

	text, err := fs.File("/docs/readme.txt").Text(ctx)
	require.NoError(t, err)
	assert.Equal(t, "committed content", text)

	data, err := fs.File("/docs/readme.txt").Bytes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("committed content"), data)

	r, err := fs.File("/docs/readme.txt").Stream(ctx)
	require.NoError(t, err)
	streamed, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	assert.True(t, bytes.Equal([]byte("committed content"), streamed))

	size, err := fs.File("/docs/readme.txt").Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(len("committed content")), size)

	// snapshot reads work while the sync-access lock is held
	sess, err := fs.File("/docs/readme.txt").Open(ctx, OpenOptions{Mode: sandfs.ModeReadWrite})
	require.NoError(t, err)
	defer sess.Close(ctx) // nolint:errcheck
	text, err = fs.File("/docs/readme.txt").Text(ctx)
	require.NoError(t, err)
	assert.Equal(t, "committed content", text)
}

func TestFileNode_WholeContentReads_Missing(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fs := newTestFS(t)

	_, err := fs.File("/nope.txt").Text(ctx)
	assert.True(t, sandfs.IsNotFound(err))
	_, err = fs.File("/nope.txt").Stream(ctx)
	assert.True(t, sandfs.IsNotFound(err))
}

func TestFileNode_ContentType(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fs := newTestFS(t)

	writeTestFile(t, fs, "/page.html", "<!DOCTYPE html><html><body>hi</body></html>")
	ct, err := fs.File("/page.html").ContentType(ctx)
	require.NoError(t, err)
	assert.Contains(t, ct, "text/html")
}
