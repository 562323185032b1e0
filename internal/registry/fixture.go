package registry

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Fixture files describe a registry tree in YAML for tests and for
// exercising the scanner on platforms without a live registry:
//
//	roots:
//	  HKEY_CURRENT_USER:
//	    keys:
//	      Software:
//	        keys:
//	          Vendor:
//	            denied: true
//	        values:
//	          - name: Setting
//	            type: REG_SZ
//	            data: bitlocker
//
// Value data by type: a string for REG_SZ/REG_EXPAND_SZ, a sequence of
// strings for REG_MULTI_SZ, an integer for REG_DWORD/REG_QWORD, and a
// hex string for REG_BINARY.

type fixtureFile struct {
	Roots map[string]*fixtureKey `yaml:"roots"`
}

type fixtureKey struct {
	Keys   map[string]*fixtureKey `yaml:"keys"`
	Values []fixtureValue         `yaml:"values"`
	Denied bool                   `yaml:"denied"`
}

type fixtureValue struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
	Data any    `yaml:"data"`
}

// LoadFixture builds a MemStore from fixture YAML.
func LoadFixture(r io.Reader) (*MemStore, error) {
	var f fixtureFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parsing fixture: %w", err)
	}

	store := NewMemStore()
	for name, key := range f.Roots {
		root, err := ParseRoot(name)
		if err != nil {
			return nil, err
		}
		store.Add(root, "")
		if err := addFixtureKey(store, root, "", key); err != nil {
			return nil, err
		}
	}
	return store, nil
}

// LoadFixtureFile builds a MemStore from a fixture file on disk.
func LoadFixtureFile(path string) (*MemStore, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening fixture: %w", err)
	}
	defer f.Close()
	return LoadFixture(f)
}

func addFixtureKey(store *MemStore, root Root, path string, key *fixtureKey) error {
	if key == nil {
		return nil
	}
	if key.Denied {
		store.Deny(root, path)
	}
	for _, fv := range key.Values {
		v, err := fv.build()
		if err != nil {
			return fmt.Errorf("key %q: %w", path, err)
		}
		store.Set(root, path, v)
	}
	for name, child := range key.Keys {
		childPath := name
		if path != "" {
			childPath = path + `\` + name
		}
		store.Add(root, childPath)
		if err := addFixtureKey(store, root, childPath, child); err != nil {
			return err
		}
	}
	return nil
}

func (fv fixtureValue) build() (Value, error) {
	typ, err := ParseType(fv.Type)
	if err != nil {
		return Value{}, err
	}
	switch typ {
	case TypeSZ, TypeExpandSZ:
		s, ok := fv.Data.(string)
		if !ok {
			return Value{}, fmt.Errorf("value %q: %s data must be a string", fv.Name, typ)
		}
		v := StringValue(fv.Name, s)
		v.Type = typ
		return v, nil
	case TypeMultiSZ:
		raw, ok := fv.Data.([]any)
		if !ok {
			return Value{}, fmt.Errorf("value %q: REG_MULTI_SZ data must be a sequence", fv.Name)
		}
		elems := make([]string, len(raw))
		for i, e := range raw {
			s, ok := e.(string)
			if !ok {
				return Value{}, fmt.Errorf("value %q: REG_MULTI_SZ element %d is not a string", fv.Name, i)
			}
			elems[i] = s
		}
		return MultiStringValue(fv.Name, elems...), nil
	case TypeDWord:
		n, err := fixtureInt(fv.Data)
		if err != nil {
			return Value{}, fmt.Errorf("value %q: %w", fv.Name, err)
		}
		return DWordValue(fv.Name, uint32(n)), nil
	case TypeQWord:
		n, err := fixtureInt(fv.Data)
		if err != nil {
			return Value{}, fmt.Errorf("value %q: %w", fv.Name, err)
		}
		return QWordValue(fv.Name, n), nil
	case TypeBinary:
		s, ok := fv.Data.(string)
		if !ok {
			return Value{}, fmt.Errorf("value %q: REG_BINARY data must be a hex string", fv.Name)
		}
		data, err := hex.DecodeString(s)
		if err != nil {
			return Value{}, fmt.Errorf("value %q: %w", fv.Name, err)
		}
		return BinaryValue(fv.Name, data), nil
	case TypeNone:
		return Value{Name: fv.Name, Type: TypeNone}, nil
	default:
		return Value{}, fmt.Errorf("value %q: unsupported fixture type %s", fv.Name, typ)
	}
}

func fixtureInt(data any) (uint64, error) {
	switch n := data.(type) {
	case int:
		if n < 0 {
			return 0, fmt.Errorf("integer data must not be negative, got %d", n)
		}
		return uint64(n), nil
	case uint64:
		return n, nil
	default:
		return 0, fmt.Errorf("integer data must be a number, got %T", data)
	}
}
