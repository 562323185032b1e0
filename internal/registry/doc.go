// Package registry abstracts read-only access to a hierarchical
// key-value store shaped like the Windows Registry.
//
// The traversal engine never talks to the OS directly; it drives the
// [Store] and [Key] interfaces. On Windows the real adapter
// ([NewSysStore]) wraps golang.org/x/sys/windows/registry. Everywhere
// else OpenRoot reports [ErrUnsupported]. [MemStore] is a deterministic
// in-memory implementation for tests and fixtures.
//
// Handles follow strict LIFO ownership: a Key obtained from Open is
// closed by its opener before the parent is closed, on success and
// failure paths alike. Close is idempotent.
package registry
