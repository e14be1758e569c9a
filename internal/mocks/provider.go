package mocks

import (
	"context"

	"github.com/sandfs/sandfs"
	"github.com/stretchr/testify/mock"
)

// MockProvider implements sandfs.Provider for testing across packages
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Resolve(ctx context.Context, path string, opts sandfs.ResolveOptions) (sandfs.Handle, error) {
	args := m.Called(ctx, path, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(sandfs.Handle), args.Error(1)
}

var _ sandfs.Provider = (*MockProvider)(nil)

// MockFileHandle implements sandfs.FileHandle for testing
type MockFileHandle struct {
	mock.Mock
	HandlePath string
}

func (m *MockFileHandle) Path() string      { return m.HandlePath }
func (m *MockFileHandle) Kind() sandfs.Kind { return sandfs.KindFile }

func (m *MockFileHandle) SyncAccess(mode sandfs.AccessMode) (sandfs.SyncHandle, error) {
	args := m.Called(mode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(sandfs.SyncHandle), args.Error(1)
}

func (m *MockFileHandle) Snapshot(ctx context.Context) (*sandfs.Snapshot, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sandfs.Snapshot), args.Error(1)
}

var _ sandfs.FileHandle = (*MockFileHandle)(nil)

// MockDirHandle implements sandfs.DirHandle for testing
type MockDirHandle struct {
	mock.Mock
	HandlePath string
}

func (m *MockDirHandle) Path() string      { return m.HandlePath }
func (m *MockDirHandle) Kind() sandfs.Kind { return sandfs.KindDirectory }

func (m *MockDirHandle) Entries(ctx context.Context) ([]sandfs.Entry, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]sandfs.Entry), args.Error(1)
}

func (m *MockDirHandle) RemoveEntry(ctx context.Context, name string, recursive bool) error {
	args := m.Called(ctx, name, recursive)
	return args.Error(0)
}

var _ sandfs.DirHandle = (*MockDirHandle)(nil)

// MockSyncHandle implements sandfs.SyncHandle for testing
type MockSyncHandle struct {
	mock.Mock
}

func (m *MockSyncHandle) ReadAt(p []byte, off int64) (int, error) {
	args := m.Called(p, off)

	// Handle function return types (for tests that fill the buffer)
	if fn, ok := args.Get(0).(func([]byte, int64) int); ok {
		return fn(p, off), args.Error(1)
	}
	return args.Int(0), args.Error(1)
}

func (m *MockSyncHandle) WriteAt(p []byte, off int64) (int, error) {
	args := m.Called(p, off)
	return args.Int(0), args.Error(1)
}

func (m *MockSyncHandle) Truncate(size int64) error {
	args := m.Called(size)
	return args.Error(0)
}

func (m *MockSyncHandle) Flush() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockSyncHandle) Size() (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSyncHandle) Close() error {
	args := m.Called()
	return args.Error(0)
}

var _ sandfs.SyncHandle = (*MockSyncHandle)(nil)
