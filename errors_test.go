package sandfs

import (
	"context"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_NamePredicates(t *testing.T) {
	t.Parallel()

	err := NotFound("/a/b")
	assert.True(t, IsNotFound(err))
	assert.False(t, IsAlreadyExists(err))
	assert.Contains(t, err.Error(), NameNotFound)
	assert.Contains(t, err.Error(), "/a/b")

	// predicates see through wrapping
	wrapped := fmt.Errorf("outer: %w", err)
	assert.True(t, IsNotFound(wrapped))
}

func TestConvert(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		in       error
		wantName string
	}{
		{"not_exist", fs.ErrNotExist, NameNotFound},
		{"exist", fs.ErrExist, NameAlreadyExists},
		{"canceled", context.Canceled, NameAbort},
		{"deadline", context.DeadlineExceeded, NameAbort},
		{"opaque", fmt.Errorf("disk fell over"), NameInvalidState},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Convert(tt.in)
			require.NotNil(t, got)
			assert.Equal(t, tt.wantName, got.Name)
			// the cause is never swallowed
			assert.ErrorIs(t, got, tt.in)
		})
	}

	t.Run("nil", func(t *testing.T) {
		t.Parallel()
		assert.Nil(t, Convert(nil))
	})

	t.Run("named_passthrough", func(t *testing.T) {
		t.Parallel()
		in := QuotaExceeded("over budget")
		assert.Same(t, in, Convert(in))
		assert.Same(t, in, Convert(fmt.Errorf("wrap: %w", in)))
	})
}

func TestTreeError(t *testing.T) {
	t.Parallel()

	te := &TreeError{
		Op: "copy /src",
		Failures: []ChildFailure{
			{Path: "/src/a", Err: NotFound("/src/a")},
			{Path: "/src/b", Err: QuotaExceeded("over budget")},
		},
	}

	msg := te.Error()
	assert.Contains(t, msg, "2 child operation(s) failed")
	assert.Contains(t, msg, "/src/a")
	assert.Contains(t, msg, "/src/b")

	// child errors stay reachable for errors.Is/As
	assert.True(t, IsNotFound(te))
	assert.True(t, IsQuotaExceeded(te))
	assert.False(t, IsAbort(te))
}
