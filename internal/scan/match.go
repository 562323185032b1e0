package scan

import "fmt"

// Kind tags which surface of a node produced a match.
type Kind int

const (
	// KindKeyName: the key's own name matched.
	KindKeyName Kind = iota
	// KindValueName: a value's name matched.
	KindValueName
	// KindValueData: a value's rendered data matched.
	KindValueData
)

// String implements the Stringer interface for Kind.
func (k Kind) String() string {
	switch k {
	case KindKeyName:
		return "key"
	case KindValueName:
		return "value-name"
	case KindValueData:
		return "value-data"
	default:
		return fmt.Sprintf("UNKNOWN_KIND_%d", int(k))
	}
}

// MarshalText implements encoding.TextMarshaler so JSON output carries
// the symbolic name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Match is one reported hit.
//
// KeyPath is always the fully-qualified display path starting at the
// root ("HKEY_CURRENT_USER\Software\..."). ValueName and Data are set
// for value matches only; ValueName is "" for a key's default value.
// A single value can produce both a KindValueName and a KindValueData
// record when name and data both match.
type Match struct {
	Kind      Kind   `json:"kind"`
	KeyPath   string `json:"key_path"`
	ValueName string `json:"value_name,omitempty"`
	Data      string `json:"data,omitempty"`
}
