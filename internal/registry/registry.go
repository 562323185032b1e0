package registry

import "errors"

// Sentinels returned by Store and Key implementations.
var (
	// ErrAccessDenied indicates insufficient rights on a key. Non-fatal
	// to a scan: the caller skips the subtree and continues.
	ErrAccessDenied = errors.New("access denied")

	// ErrNotFound indicates a key vanished between enumeration and open.
	// Non-fatal: the caller skips it and continues with siblings.
	ErrNotFound = errors.New("key not found")

	// ErrUnsupported indicates live registry access is not available on
	// this platform.
	ErrUnsupported = errors.New("live registry access requires windows")

	// ErrUnknownRoot indicates a root name that is not one of the five
	// well-known roots.
	ErrUnknownRoot = errors.New("unknown registry root")
)

// Store opens root handles into the registry.
type Store interface {
	// OpenRoot opens one of the five well-known roots. Failure to open a
	// root (ErrAccessDenied, ErrNotFound, ErrUnsupported) means "skip
	// this root"; it does not invalidate the others.
	OpenRoot(root Root) (Key, error)
}

// Key is an open handle to a single registry key. The handle owns an OS
// resource and must be closed by whoever opened it.
type Key interface {
	// Subkeys returns the names of the immediate child keys. Order is
	// store-defined and not guaranteed stable across calls.
	Subkeys() ([]string, error)

	// Values returns the immediate value entries of this key.
	Values() ([]Value, error)

	// Open opens the named child key. Returns ErrAccessDenied or
	// ErrNotFound for branches that cannot be entered.
	Open(name string) (Key, error)

	// Close releases the handle. Idempotent.
	Close() error
}

// Identity is optionally implemented by Keys that can report a stable
// canonical identity for the underlying key, independent of the display
// path it was reached through. The traversal engine uses it to detect
// symlink-style cycles; stores without cheap identity fall back to the
// display path.
type Identity interface {
	Canonical() string
}
