//go:build !windows

package registry

import "fmt"

// SysStore is the live registry adapter. On non-Windows platforms every
// root is unavailable; the CLI falls back to a fixture store when
// REG_FIXTURE is set, which keeps development and CI off-Windows.
type SysStore struct{}

// NewSysStore returns the live registry adapter.
func NewSysStore() Store {
	return SysStore{}
}

// OpenRoot implements Store.
func (SysStore) OpenRoot(root Root) (Key, error) {
	return nil, fmt.Errorf("%s: %w", root, ErrUnsupported)
}
