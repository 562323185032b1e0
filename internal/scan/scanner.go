package scan

import (
	"context"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/sourcegraph/conc/pool"

	regerrors "github.com/thoreinstein/reg/internal/errors"
	"github.com/thoreinstein/reg/internal/registry"
)

// Options configures one scan.
type Options struct {
	// Pattern is the search string. Empty matches everything.
	Pattern string
	// CaseSensitive selects exact-case matching.
	CaseSensitive bool
	// Roots restricts the scan. Empty means all five well-known roots,
	// in their fixed enumeration order.
	Roots []registry.Root
}

// Stats summarizes a completed scan.
type Stats struct {
	// Roots is the number of roots that opened successfully.
	Roots int
	// Keys is the number of keys visited.
	Keys int64
	// Skipped is the number of subtrees skipped over access or
	// existence errors.
	Skipped int64
}

// Scanner walks registry roots and streams matches.
type Scanner struct {
	store  registry.Store
	logger *slog.Logger
}

// NewScanner creates a Scanner over the given store with a stderr
// warning logger.
func NewScanner(store registry.Store) *Scanner {
	return &Scanner{store: store, logger: slog.Default()}
}

// NewScannerWithLogger creates a Scanner with the given logger.
func NewScannerWithLogger(store registry.Store, logger *slog.Logger) *Scanner {
	return &Scanner{store: store, logger: logger}
}

// Run performs the scan and calls emit for every match, in arrival
// order, from a single goroutine. Run returns when all roots have been
// fully traversed, ctx is canceled, or no root could be opened at all
// (regerrors.ErrNoRoots). Per-subtree failures are logged and skipped,
// never returned.
func (s *Scanner) Run(ctx context.Context, opts Options, emit func(Match)) (Stats, error) {
	roots := opts.Roots
	if len(roots) == 0 {
		roots = registry.Roots()
	}
	matcher := NewMatcher(opts.Pattern, opts.CaseSensitive)

	var (
		stats   Stats
		opened  atomic.Int64
		keys    atomic.Int64
		skipped atomic.Int64
	)

	matches := make(chan Match, 64)
	p := pool.New().WithMaxGoroutines(len(roots)).WithContext(ctx)

	for _, root := range roots {
		p.Go(func(ctx context.Context) error {
			key, err := s.store.OpenRoot(root)
			if err != nil {
				s.logger.Warn("skipping root", "root", root.String(), "error", err)
				return nil
			}
			opened.Add(1)
			defer key.Close()

			s.logger.Info("scanning", "root", root.String())
			w := &walker{
				scanner: s,
				matcher: matcher,
				visited: make(map[string]struct{}),
				out:     matches,
				keys:    &keys,
				skipped: &skipped,
			}
			// The root's own name is the empty segment: only an empty
			// pattern matches it, same as the original scanner.
			return w.walk(ctx, key, root.String(), "")
		})
	}

	waitDone := make(chan error, 1)
	go func() {
		err := p.Wait()
		close(matches)
		waitDone <- err
	}()

	for m := range matches {
		emit(m)
	}
	err := <-waitDone

	stats.Roots = int(opened.Load())
	stats.Keys = keys.Load()
	stats.Skipped = skipped.Load()

	if err != nil {
		return stats, err
	}
	if stats.Roots == 0 {
		return stats, regerrors.ErrNoRoots
	}
	return stats, nil
}

// walker holds the per-root traversal state. Each root worker owns one
// walker exclusively; nothing here is shared across goroutines except
// the match channel and the atomic counters.
type walker struct {
	scanner *Scanner
	matcher Matcher
	visited map[string]struct{}
	out     chan<- Match
	keys    *atomic.Int64
	skipped *atomic.Int64
}

// walk visits one key depth-first in pre-order: the key's own name,
// then its values, then its children. The caller owns the handle; walk
// closes only the child handles it opens. The only error walk returns
// is context cancellation.
func (w *walker) walk(ctx context.Context, key registry.Key, path, name string) error {
	canon := canonicalID(key, path)
	if _, ok := w.visited[canon]; ok {
		w.scanner.logger.Warn("cycle detected, skipping", "path", path)
		return nil
	}
	w.visited[canon] = struct{}{}
	defer delete(w.visited, canon)

	w.keys.Add(1)

	if w.matcher.Matches(name) {
		if err := w.emit(ctx, Match{Kind: KindKeyName, KeyPath: path}); err != nil {
			return err
		}
	}

	values, err := key.Values()
	if err != nil {
		w.scanner.logger.Warn("cannot list values", "path", path, "error", err)
	}
	for _, v := range values {
		// Name and rendered data are tested independently; one value
		// can produce both records.
		if w.matcher.Matches(v.Name) {
			m := Match{Kind: KindValueName, KeyPath: path, ValueName: v.Name, Data: v.Render()}
			if err := w.emit(ctx, m); err != nil {
				return err
			}
		}
		if data := v.Render(); w.matcher.Matches(data) {
			m := Match{Kind: KindValueData, KeyPath: path, ValueName: v.Name, Data: data}
			if err := w.emit(ctx, m); err != nil {
				return err
			}
		}
	}

	subkeys, err := key.Subkeys()
	if err != nil {
		w.scanner.logger.Warn("cannot list subkeys", "path", path, "error", err)
		w.skipped.Add(1)
		return nil
	}
	for _, child := range subkeys {
		// Cancellation is checked between siblings so a stop lands
		// within one node's processing.
		if err := ctx.Err(); err != nil {
			return err
		}
		childPath := path + `\` + child
		childKey, err := key.Open(child)
		if err != nil {
			w.scanner.logger.Warn("skipping subtree", "path", childPath, "error", err)
			w.skipped.Add(1)
			continue
		}
		walkErr := w.walk(ctx, childKey, childPath, child)
		if cerr := childKey.Close(); cerr != nil {
			w.scanner.logger.Warn("closing key", "path", childPath, "error", cerr)
		}
		if walkErr != nil {
			return walkErr
		}
	}
	return nil
}

func (w *walker) emit(ctx context.Context, m Match) error {
	select {
	case w.out <- m:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// canonicalID returns the identity used by the cycle guard: the store's
// canonical key identity when available, otherwise the case-folded
// display path.
func canonicalID(key registry.Key, path string) string {
	if id, ok := key.(registry.Identity); ok {
		return id.Canonical()
	}
	return strings.ToLower(path)
}
