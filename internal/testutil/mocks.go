// Package testutil provides helpers and mock implementations for interfaces
// defined in the arabfix core library (pkg/fixer). Configure mock
// expectations with testify/mock (e.g. .On("WriteFile", ...).Return(...)).
package testutil

import (
	"io/fs"
	"os"
	"time"

	"github.com/stackvity/arabfix/pkg/fixer"
	"github.com/stretchr/testify/mock"
)

// MockFileSystem provides a mock implementation of the fixer.FileSystem interface.
type MockFileSystem struct {
	mock.Mock
}

// ReadFile mocks the ReadFile method.
func (m *MockFileSystem) ReadFile(name string) ([]byte, error) {
	args := m.Called(name)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

// WriteFile mocks the WriteFile method.
func (m *MockFileSystem) WriteFile(name string, data []byte, perm os.FileMode) error {
	args := m.Called(name, data, perm)
	return args.Error(0)
}

// Stat mocks the Stat method.
func (m *MockFileSystem) Stat(name string) (fs.FileInfo, error) {
	args := m.Called(name)
	info, _ := args.Get(0).(fs.FileInfo)
	return info, args.Error(1)
}

// MockHooks provides a mock implementation of the fixer.Hooks interface.
type MockHooks struct {
	mock.Mock
}

// OnFileDiscovered mocks the OnFileDiscovered method.
func (m *MockHooks) OnFileDiscovered(path string) error {
	args := m.Called(path)
	return args.Error(0)
}

// OnFileStatusUpdate mocks the OnFileStatusUpdate method.
func (m *MockHooks) OnFileStatusUpdate(path string, status fixer.Status, message string, duration time.Duration) error {
	args := m.Called(path, status, message, duration)
	return args.Error(0)
}

// OnRunComplete mocks the OnRunComplete method.
func (m *MockHooks) OnRunComplete(report fixer.Report) error {
	args := m.Called(report)
	return args.Error(0)
}

// Compile-time checks.
var (
	_ fixer.FileSystem = (*MockFileSystem)(nil)
	_ fixer.Hooks      = (*MockHooks)(nil)
)
