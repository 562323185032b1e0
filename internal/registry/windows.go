//go:build windows

package registry

import (
	"errors"
	"fmt"
	"syscall"

	sysreg "golang.org/x/sys/windows/registry"
)

// SysStore is the live registry adapter for Windows, backed by
// golang.org/x/sys/windows/registry.
type SysStore struct{}

// NewSysStore returns the live registry adapter.
func NewSysStore() Store {
	return SysStore{}
}

var rootHandles = map[Root]sysreg.Key{
	ClassesRoot:   sysreg.CLASSES_ROOT,
	CurrentUser:   sysreg.CURRENT_USER,
	LocalMachine:  sysreg.LOCAL_MACHINE,
	Users:         sysreg.USERS,
	CurrentConfig: sysreg.CURRENT_CONFIG,
}

// OpenRoot implements Store.
func (SysStore) OpenRoot(root Root) (Key, error) {
	h, ok := rootHandles[root]
	if !ok {
		return nil, fmt.Errorf("%d: %w", int(root), ErrUnknownRoot)
	}
	// Predefined handles need no OpenKey call and must never be closed;
	// probe readability so an unavailable root is reported up front.
	if _, err := h.Stat(); err != nil {
		return nil, mapSysErr(root.String(), err)
	}
	return &sysKey{key: h, predefined: true}, nil
}

// sysKey wraps one open registry handle.
type sysKey struct {
	key        sysreg.Key
	predefined bool
	closed     bool
}

// Subkeys implements Key.
func (k *sysKey) Subkeys() ([]string, error) {
	names, err := k.key.ReadSubKeyNames(-1)
	if err != nil {
		return nil, mapSysErr("enumerating subkeys", err)
	}
	return names, nil
}

// Values implements Key.
func (k *sysKey) Values() ([]Value, error) {
	names, err := k.key.ReadValueNames(-1)
	if err != nil {
		return nil, mapSysErr("enumerating values", err)
	}
	values := make([]Value, 0, len(names))
	for _, name := range names {
		n, typ, err := k.key.GetValue(name, nil)
		if err != nil && !errors.Is(err, syscall.ERROR_MORE_DATA) {
			// Value removed mid-enumeration; skip it, the scan goes on.
			continue
		}
		data := make([]byte, n)
		if n > 0 {
			if _, _, err := k.key.GetValue(name, data); err != nil {
				continue
			}
		}
		values = append(values, Value{Name: name, Type: Type(typ), Data: data})
	}
	return values, nil
}

// Open implements Key.
func (k *sysKey) Open(name string) (Key, error) {
	child, err := sysreg.OpenKey(k.key, name, sysreg.READ)
	if err != nil {
		return nil, mapSysErr(name, err)
	}
	return &sysKey{key: child}, nil
}

// Close implements Key. Idempotent; predefined root handles are never
// closed because the OS owns them.
func (k *sysKey) Close() error {
	if k.closed || k.predefined {
		k.closed = true
		return nil
	}
	k.closed = true
	return k.key.Close()
}

// mapSysErr converts OS errors to the package sentinels so callers can
// branch with errors.Is.
func mapSysErr(ctx string, err error) error {
	switch {
	case errors.Is(err, syscall.ERROR_ACCESS_DENIED):
		return fmt.Errorf("%s: %w", ctx, ErrAccessDenied)
	case errors.Is(err, syscall.ERROR_FILE_NOT_FOUND):
		return fmt.Errorf("%s: %w", ctx, ErrNotFound)
	default:
		return fmt.Errorf("%s: %w", ctx, err)
	}
}
