package registry

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"
)

// Type enumerates Windows registry value types. The numbers align with
// the Windows definitions.
type Type uint32

const (
	TypeNone     Type = 0
	TypeSZ       Type = 1
	TypeExpandSZ Type = 2
	TypeBinary   Type = 3
	TypeDWord    Type = 4
	TypeDWordBE  Type = 5
	TypeLink     Type = 6
	TypeMultiSZ  Type = 7
	TypeQWord    Type = 11
)

// String implements the Stringer interface for Type.
func (t Type) String() string {
	switch t {
	case TypeNone:
		return "REG_NONE"
	case TypeSZ:
		return "REG_SZ"
	case TypeExpandSZ:
		return "REG_EXPAND_SZ"
	case TypeBinary:
		return "REG_BINARY"
	case TypeDWord:
		return "REG_DWORD"
	case TypeDWordBE:
		return "REG_DWORD_BE"
	case TypeLink:
		return "REG_LINK"
	case TypeMultiSZ:
		return "REG_MULTI_SZ"
	case TypeQWord:
		return "REG_QWORD"
	default:
		return fmt.Sprintf("UNKNOWN_TYPE_%d", uint32(t))
	}
}

// ParseType resolves a REG_* type name, as used in fixture files.
func ParseType(s string) (Type, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "REG_NONE", "":
		return TypeNone, nil
	case "REG_SZ":
		return TypeSZ, nil
	case "REG_EXPAND_SZ":
		return TypeExpandSZ, nil
	case "REG_BINARY":
		return TypeBinary, nil
	case "REG_DWORD":
		return TypeDWord, nil
	case "REG_DWORD_BE":
		return TypeDWordBE, nil
	case "REG_LINK":
		return TypeLink, nil
	case "REG_MULTI_SZ":
		return TypeMultiSZ, nil
	case "REG_QWORD":
		return TypeQWord, nil
	default:
		return 0, fmt.Errorf("unknown registry value type %q", s)
	}
}

// Value is one (name, type, data) entry attached to a key. Name is ""
// for the key's default value. Data holds the raw payload exactly as
// the store keeps it: UTF-16LE for string types, little-endian for
// integers.
type Value struct {
	Name string
	Type Type
	Data []byte
}

// utf16le is the registry's native string encoding. Encoders and
// decoders carry transform state, so each call builds its own.
var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// Render returns the canonical text form of the value data, used for
// both matching and display so results are reproducible:
//
//   - REG_SZ / REG_EXPAND_SZ / REG_LINK: the decoded string
//   - REG_MULTI_SZ: elements joined with ", "
//   - REG_DWORD / REG_DWORD_BE / REG_QWORD: decimal
//   - REG_BINARY and anything else: lowercase hex, no separators
//   - REG_NONE or empty data: ""
func (v Value) Render() string {
	if len(v.Data) == 0 {
		return ""
	}
	switch v.Type {
	case TypeSZ, TypeExpandSZ, TypeLink:
		return decodeUTF16(v.Data)
	case TypeMultiSZ:
		return strings.Join(splitMulti(decodeUTF16(v.Data)), ", ")
	case TypeDWord:
		if len(v.Data) >= 4 {
			return strconv.FormatUint(uint64(binary.LittleEndian.Uint32(v.Data)), 10)
		}
	case TypeDWordBE:
		if len(v.Data) >= 4 {
			return strconv.FormatUint(uint64(binary.BigEndian.Uint32(v.Data)), 10)
		}
	case TypeQWord:
		if len(v.Data) >= 8 {
			return strconv.FormatUint(binary.LittleEndian.Uint64(v.Data), 10)
		}
	}
	return hex.EncodeToString(v.Data)
}

func decodeUTF16(data []byte) string {
	decoded, err := utf16le.NewDecoder().Bytes(data)
	if err != nil {
		// Undecodable payload, fall back to hex so matching stays total.
		return hex.EncodeToString(data)
	}
	return strings.TrimRight(string(decoded), "\x00")
}

// splitMulti splits a decoded MULTI_SZ payload on its embedded NULs.
func splitMulti(s string) []string {
	parts := strings.Split(s, "\x00")
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Constructors used by MemStore and fixtures to build raw payloads in
// the store's native encoding.

// StringValue builds a REG_SZ value.
func StringValue(name, s string) Value {
	return Value{Name: name, Type: TypeSZ, Data: encodeUTF16(s)}
}

// MultiStringValue builds a REG_MULTI_SZ value.
func MultiStringValue(name string, elems ...string) Value {
	var b strings.Builder
	for _, e := range elems {
		b.WriteString(e)
		b.WriteByte(0)
	}
	b.WriteByte(0)
	return Value{Name: name, Type: TypeMultiSZ, Data: encodeUTF16(b.String())}
}

// DWordValue builds a REG_DWORD value.
func DWordValue(name string, v uint32) Value {
	data := make([]byte, 4)
	binary.LittleEndian.PutUint32(data, v)
	return Value{Name: name, Type: TypeDWord, Data: data}
}

// QWordValue builds a REG_QWORD value.
func QWordValue(name string, v uint64) Value {
	data := make([]byte, 8)
	binary.LittleEndian.PutUint64(data, v)
	return Value{Name: name, Type: TypeQWord, Data: data}
}

// BinaryValue builds a REG_BINARY value.
func BinaryValue(name string, data []byte) Value {
	return Value{Name: name, Type: TypeBinary, Data: data}
}

func encodeUTF16(s string) []byte {
	encoded, err := utf16le.NewEncoder().Bytes([]byte(s + "\x00"))
	if err != nil {
		return nil
	}
	return encoded
}
