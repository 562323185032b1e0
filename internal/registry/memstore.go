package registry

import (
	"fmt"
	"strings"
	"sync"
)

// MemStore is a deterministic in-memory Store for tests and fixtures.
// It can simulate access-denied subtrees, keys that vanish between
// enumeration and open, and symlink-style cycles. It also counts opened
// and closed handles so tests can assert strict LIFO handle hygiene.
type MemStore struct {
	mu     sync.Mutex
	roots  map[Root]*memNode
	opens  int
	closes int
}

type memNode struct {
	subkeys  []childEntry
	values   []Value
	denied   bool
	vanished bool
}

// childEntry names a child node. Links list an existing node under a
// second name, which is how cycles are built.
type childEntry struct {
	name string
	node *memNode
}

// NewMemStore creates an empty MemStore. Roots are materialized on
// first use; a root with no content still opens successfully.
func NewMemStore() *MemStore {
	return &MemStore{roots: make(map[Root]*memNode)}
}

// Add creates the key at path (segments separated by `\`) under root,
// creating intermediate keys as needed, and returns the store for
// chaining.
func (s *MemStore) Add(root Root, path string) *MemStore {
	s.node(root, path)
	return s
}

// Set attaches values to the key at path, creating it if needed.
func (s *MemStore) Set(root Root, path string, values ...Value) *MemStore {
	n := s.node(root, path)
	n.values = append(n.values, values...)
	return s
}

// Deny marks the key at path access-denied: it is listed by its parent
// but Open fails with ErrAccessDenied. An empty path denies the root
// itself.
func (s *MemStore) Deny(root Root, path string) *MemStore {
	s.node(root, path).denied = true
	return s
}

// Vanish marks the key at path vanished: it is still listed by its
// parent but Open fails with ErrNotFound, simulating a key deleted
// between enumeration and open.
func (s *MemStore) Vanish(root Root, path string) *MemStore {
	s.node(root, path).vanished = true
	return s
}

// Link adds a child named name under parentPath that resolves to the
// key at targetPath, like a reparse-point symlink. Pointing a link back
// at an ancestor creates a cycle.
func (s *MemStore) Link(root Root, parentPath, name, targetPath string) *MemStore {
	parent := s.node(root, parentPath)
	target := s.node(root, targetPath)
	parent.subkeys = append(parent.subkeys, childEntry{name: name, node: target})
	return s
}

// OpenRoot implements Store.
func (s *MemStore) OpenRoot(root Root) (Key, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.roots[root]
	if !ok {
		return nil, fmt.Errorf("%s: %w", root, ErrNotFound)
	}
	if n.denied {
		return nil, fmt.Errorf("%s: %w", root, ErrAccessDenied)
	}
	s.opens++
	return &memKey{store: s, node: n}, nil
}

// OpenHandles returns the number of handles currently open. Zero after
// a scan proves every opened handle was closed.
func (s *MemStore) OpenHandles() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opens - s.closes
}

func (s *MemStore) node(root Root, path string) *memNode {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.roots[root]
	if !ok {
		n = &memNode{}
		s.roots[root] = n
	}
	if path == "" {
		return n
	}
	for seg := range strings.SplitSeq(path, `\`) {
		n = n.child(seg, true)
	}
	return n
}

func (n *memNode) child(name string, create bool) *memNode {
	for _, c := range n.subkeys {
		if strings.EqualFold(c.name, name) {
			return c.node
		}
	}
	if !create {
		return nil
	}
	c := &memNode{}
	n.subkeys = append(n.subkeys, childEntry{name: name, node: c})
	return c
}

// memKey is an open handle onto a memNode.
type memKey struct {
	store  *MemStore
	node   *memNode
	closed bool
}

// Subkeys implements Key.
func (k *memKey) Subkeys() ([]string, error) {
	names := make([]string, len(k.node.subkeys))
	for i, c := range k.node.subkeys {
		names[i] = c.name
	}
	return names, nil
}

// Values implements Key.
func (k *memKey) Values() ([]Value, error) {
	return append([]Value(nil), k.node.values...), nil
}

// Open implements Key. Lookup is case-insensitive, as the real registry is.
func (k *memKey) Open(name string) (Key, error) {
	c := k.node.child(name, false)
	if c == nil || c.vanished {
		return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	if c.denied {
		return nil, fmt.Errorf("%s: %w", name, ErrAccessDenied)
	}
	k.store.mu.Lock()
	k.store.opens++
	k.store.mu.Unlock()
	return &memKey{store: k.store, node: c}, nil
}

// Close implements Key. Idempotent.
func (k *memKey) Close() error {
	if k.closed {
		return nil
	}
	k.closed = true
	k.store.mu.Lock()
	k.store.closes++
	k.store.mu.Unlock()
	return nil
}

// Canonical implements Identity. Two handles reached through different
// display paths report the same identity when they share a node, which
// is how link cycles are detected.
func (k *memKey) Canonical() string {
	return fmt.Sprintf("%p", k.node)
}
