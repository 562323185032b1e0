package scan

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	regerrors "github.com/thoreinstein/reg/internal/errors"
	"github.com/thoreinstein/reg/internal/logging"
	"github.com/thoreinstein/reg/internal/registry"
)

// collect runs a scan and gathers the streamed matches.
func collect(t *testing.T, store registry.Store, opts Options) ([]Match, Stats) {
	t.Helper()
	s := NewScannerWithLogger(store, logging.ForTest(t))
	var matches []Match
	stats, err := s.Run(t.Context(), opts, func(m Match) {
		matches = append(matches, m)
	})
	require.NoError(t, err)
	return matches, stats
}

func vendorStore() *registry.MemStore {
	return registry.NewMemStore().
		Add(registry.CurrentUser, `Software\Vendor2\Setting`).
		Set(registry.CurrentUser, `Software\Vendor2\Setting`,
			registry.StringValue("Status", "bitlocker status"),
			registry.DWordValue("Enabled", 1)).
		Deny(registry.CurrentUser, `Software\Vendor1`)
}

func TestRun_KeyNameMatchOnce(t *testing.T) {
	store := registry.NewMemStore().
		Add(registry.CurrentUser, `Software\BitLocker\Policies`).
		Add(registry.CurrentUser, `Software\Other`)

	matches, _ := collect(t, store, Options{
		Pattern: "bitlocker",
		Roots:   []registry.Root{registry.CurrentUser},
	})

	require.Len(t, matches, 1)
	assert.Equal(t, KindKeyName, matches[0].Kind)
	assert.Equal(t, `HKEY_CURRENT_USER\Software\BitLocker`, matches[0].KeyPath)
}

func TestRun_KeyNameTestsLastSegmentOnly(t *testing.T) {
	// "Software" appears in every descendant's full path but only the
	// Software key itself has it as a name segment.
	store := registry.NewMemStore().
		Add(registry.CurrentUser, `Software\Alpha\Beta`)

	matches, _ := collect(t, store, Options{
		Pattern: "software",
		Roots:   []registry.Root{registry.CurrentUser},
	})

	require.Len(t, matches, 1)
	assert.Equal(t, `HKEY_CURRENT_USER\Software`, matches[0].KeyPath)
}

func TestRun_ValueNameAndDataIndependent(t *testing.T) {
	store := registry.NewMemStore().
		Set(registry.CurrentUser, "App",
			registry.StringValue("bitlocker", "bitlocker on"), // both surfaces match
			registry.StringValue("mode", "bitlocker off"),     // data only
			registry.StringValue("bitlockerKey", "x"))         // name only

	matches, _ := collect(t, store, Options{
		Pattern: "bitlocker",
		Roots:   []registry.Root{registry.CurrentUser},
	})

	var names, data int
	for _, m := range matches {
		switch m.Kind {
		case KindValueName:
			names++
		case KindValueData:
			data++
		case KindKeyName:
			t.Errorf("unexpected key match: %+v", m)
		}
	}
	assert.Equal(t, 2, names)
	assert.Equal(t, 2, data)
}

func TestRun_DeniedSubtreeDoesNotSuppressSiblings(t *testing.T) {
	matches, stats := collect(t, vendorStore(), Options{
		Pattern: "bitlocker",
		Roots:   []registry.Root{registry.CurrentUser},
	})

	require.Len(t, matches, 1)
	assert.Equal(t, KindValueData, matches[0].Kind)
	assert.Equal(t, `HKEY_CURRENT_USER\Software\Vendor2\Setting`, matches[0].KeyPath)
	assert.Equal(t, "bitlocker status", matches[0].Data)
	assert.EqualValues(t, 1, stats.Skipped)
}

func TestRun_VanishedKeySkipped(t *testing.T) {
	store := registry.NewMemStore().
		Add(registry.CurrentUser, "Alive").
		Vanish(registry.CurrentUser, "Ghost")

	matches, stats := collect(t, store, Options{
		Pattern: "alive",
		Roots:   []registry.Root{registry.CurrentUser},
	})

	require.Len(t, matches, 1)
	assert.EqualValues(t, 1, stats.Skipped)
}

func TestRun_CaseSensitivity(t *testing.T) {
	store := registry.NewMemStore().
		Set(registry.CurrentUser, "App", registry.StringValue("s", "bitlocker status"))

	insensitive, _ := collect(t, store, Options{
		Pattern: "BitLocker",
		Roots:   []registry.Root{registry.CurrentUser},
	})
	assert.Len(t, insensitive, 1)

	sensitive, _ := collect(t, store, Options{
		Pattern:       "BitLocker",
		CaseSensitive: true,
		Roots:         []registry.Root{registry.CurrentUser},
	})
	assert.Empty(t, sensitive)
}

func TestRun_RootFilter(t *testing.T) {
	store := registry.NewMemStore().
		Add(registry.Users, `S-1-5-18\bitlocker`).
		Add(registry.CurrentUser, "bitlocker")

	matches, stats := collect(t, store, Options{
		Pattern: "bitlocker",
		Roots:   []registry.Root{registry.Users},
	})

	require.Len(t, matches, 1)
	assert.Equal(t, `HKEY_USERS\S-1-5-18\bitlocker`, matches[0].KeyPath)
	assert.Equal(t, 1, stats.Roots)
}

func TestRun_EmptyPatternMatchesEverything(t *testing.T) {
	store := registry.NewMemStore().
		Add(registry.CurrentUser, "A").
		Set(registry.CurrentUser, "A", registry.StringValue("v", "data"))

	matches, _ := collect(t, store, Options{
		Pattern: "",
		Roots:   []registry.Root{registry.CurrentUser},
	})

	assert.NotEmpty(t, matches)
	kinds := map[Kind]bool{}
	for _, m := range matches {
		kinds[m.Kind] = true
	}
	assert.True(t, kinds[KindKeyName])
	assert.True(t, kinds[KindValueName])
	assert.True(t, kinds[KindValueData])
}

func TestRun_Idempotent(t *testing.T) {
	store := vendorStore()

	first, _ := collect(t, store, Options{Pattern: "", Roots: []registry.Root{registry.CurrentUser}})
	second, _ := collect(t, store, Options{Pattern: "", Roots: []registry.Root{registry.CurrentUser}})

	sortMatches(first)
	sortMatches(second)
	assert.Equal(t, first, second)
}

func TestRun_AllRootsDefault(t *testing.T) {
	store := registry.NewMemStore()
	for _, root := range registry.Roots() {
		store.Add(root, "marker")
	}

	matches, stats := collect(t, store, Options{Pattern: "marker"})

	assert.Len(t, matches, 5)
	assert.Equal(t, 5, stats.Roots)
}

func TestRun_NoAccessibleRoots(t *testing.T) {
	store := registry.NewMemStore().Deny(registry.CurrentUser, "")

	s := NewScannerWithLogger(store, logging.ForTest(t))
	_, err := s.Run(t.Context(), Options{
		Pattern: "x",
		Roots:   []registry.Root{registry.CurrentUser},
	}, func(Match) {})

	assert.ErrorIs(t, err, regerrors.ErrNoRoots)
}

func TestRun_PartialRootFailureIsNotFatal(t *testing.T) {
	store := registry.NewMemStore().
		Add(registry.CurrentUser, "bitlocker").
		Deny(registry.LocalMachine, "")

	matches, stats := collect(t, store, Options{
		Pattern: "bitlocker",
		Roots:   []registry.Root{registry.CurrentUser, registry.LocalMachine},
	})

	assert.Len(t, matches, 1)
	assert.Equal(t, 1, stats.Roots)
}

func TestRun_CycleDetected(t *testing.T) {
	store := registry.NewMemStore().
		Add(registry.LocalMachine, `System\Setup`).
		Link(registry.LocalMachine, `System\Setup`, "Loop", "System")

	// Must terminate; the looped branch is skipped on re-entry.
	matches, _ := collect(t, store, Options{
		Pattern: "setup",
		Roots:   []registry.Root{registry.LocalMachine},
	})
	assert.Len(t, matches, 1)
}

func TestRun_ClosesEveryHandle(t *testing.T) {
	store := vendorStore()

	_, _ = collect(t, store, Options{Pattern: "", Roots: []registry.Root{registry.CurrentUser}})

	assert.Equal(t, 0, store.OpenHandles())
}

func TestRun_ClosesHandlesWhenCanceled(t *testing.T) {
	store := registry.NewMemStore()
	for i := range 200 {
		store.Add(registry.CurrentUser, `Deep\K`+string(rune('A'+i%26)))
	}

	ctx, cancel := context.WithCancel(t.Context())
	s := NewScannerWithLogger(store, logging.NewDiscard())

	_, err := s.Run(ctx, Options{Pattern: "", Roots: []registry.Root{registry.CurrentUser}}, func(Match) {
		cancel()
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, store.OpenHandles())
}

func TestRun_StreamsBeforeCompletion(t *testing.T) {
	store := registry.NewMemStore().
		Add(registry.CurrentUser, "first").
		Add(registry.CurrentUser, "second")

	s := NewScannerWithLogger(store, logging.ForTest(t))

	received := make(chan Match, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = s.Run(t.Context(), Options{Pattern: "", Roots: []registry.Root{registry.CurrentUser}}, func(m Match) {
			received <- m
		})
	}()

	select {
	case <-received:
		// Got a match while the scan may still be running: streaming works.
	case <-time.After(5 * time.Second):
		t.Fatal("no match streamed")
	}
	<-done
}

func sortMatches(ms []Match) {
	sort.Slice(ms, func(i, j int) bool {
		if ms[i].KeyPath != ms[j].KeyPath {
			return ms[i].KeyPath < ms[j].KeyPath
		}
		if ms[i].Kind != ms[j].Kind {
			return ms[i].Kind < ms[j].Kind
		}
		return ms[i].ValueName < ms[j].ValueName
	})
}
