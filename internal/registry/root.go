package registry

import (
	"fmt"
	"strings"
)

// Root identifies one of the five well-known registry entry points.
type Root int

const (
	ClassesRoot Root = iota
	CurrentUser
	LocalMachine
	Users
	CurrentConfig
)

// Roots returns all five roots in their fixed enumeration order. Scans
// that cover the whole registry visit them in exactly this order.
func Roots() []Root {
	return []Root{ClassesRoot, CurrentUser, LocalMachine, Users, CurrentConfig}
}

// String returns the canonical HKEY_* name.
func (r Root) String() string {
	switch r {
	case ClassesRoot:
		return "HKEY_CLASSES_ROOT"
	case CurrentUser:
		return "HKEY_CURRENT_USER"
	case LocalMachine:
		return "HKEY_LOCAL_MACHINE"
	case Users:
		return "HKEY_USERS"
	case CurrentConfig:
		return "HKEY_CURRENT_CONFIG"
	default:
		return fmt.Sprintf("UNKNOWN_ROOT_%d", int(r))
	}
}

// rootAliases maps accepted spellings (upper-cased) to roots. Short
// forms follow the usual Windows abbreviations.
var rootAliases = map[string]Root{
	"HKEY_CLASSES_ROOT":   ClassesRoot,
	"HKCR":                ClassesRoot,
	"HKEY_CURRENT_USER":   CurrentUser,
	"HKCU":                CurrentUser,
	"HKEY_LOCAL_MACHINE":  LocalMachine,
	"HKLM":                LocalMachine,
	"HKEY_USERS":          Users,
	"HKU":                 Users,
	"HKEY_CURRENT_CONFIG": CurrentConfig,
	"HKCC":                CurrentConfig,
}

// ParseRoot resolves a root name. Both canonical names
// ("HKEY_LOCAL_MACHINE") and short aliases ("HKLM") are accepted,
// case-insensitively.
func ParseRoot(s string) (Root, error) {
	if r, ok := rootAliases[strings.ToUpper(strings.TrimSpace(s))]; ok {
		return r, nil
	}
	return 0, fmt.Errorf("%w: %q (valid: %s)", ErrUnknownRoot, s, strings.Join(RootNames(), ", "))
}

// RootNames returns the canonical names of all roots in enumeration order.
func RootNames() []string {
	roots := Roots()
	names := make([]string, len(roots))
	for i, r := range roots {
		names[i] = r.String()
	}
	return names
}
