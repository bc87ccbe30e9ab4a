// pkg/registry/fixture.go - YAML fixtures and snapshots of registry subtrees.

package registry

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Fixture is the on-disk form of a MemoryHive: a flat list of keys, each
// with its values in enumeration order.
type Fixture struct {
	Keys []FixtureKey `yaml:"keys"`
}

// FixtureKey is one key of a Fixture.
type FixtureKey struct {
	Path   string         `yaml:"path"`
	Values []FixtureValue `yaml:"values,omitempty"`
}

// FixtureValue is one value of a FixtureKey. Data is decoded according to
// Type; BINARY and other raw types are hex strings.
type FixtureValue struct {
	Name string    `yaml:"name"`
	Type ValueType `yaml:"type"`
	Data yaml.Node `yaml:"data"`
}

// MarshalYAML writes the type by name.
func (t ValueType) MarshalYAML() (interface{}, error) {
	return t.String(), nil
}

// UnmarshalYAML accepts a type name (SZ, REG_DWORD, ...).
func (t *ValueType) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := ParseValueType(node.Value)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (fv FixtureValue) value() (Value, error) {
	v := Value{Name: fv.Name, Type: fv.Type}
	switch fv.Type {
	case SZ, EXPAND_SZ, LINK:
		var s string
		if err := fv.Data.Decode(&s); err != nil {
			return v, fmt.Errorf("value %s: %w", fv.Name, err)
		}
		v.Data = s
	case MULTI_SZ:
		var ss []string
		if err := fv.Data.Decode(&ss); err != nil {
			return v, fmt.Errorf("value %s: %w", fv.Name, err)
		}
		v.Data = ss
	case DWORD, DWORD_BIG_ENDIAN, QWORD:
		var n uint64
		if err := fv.Data.Decode(&n); err != nil {
			return v, fmt.Errorf("value %s: %w", fv.Name, err)
		}
		v.Data = n
	default:
		var s string
		if err := fv.Data.Decode(&s); err != nil {
			return v, fmt.Errorf("value %s: %w", fv.Name, err)
		}
		b, err := hex.DecodeString(s)
		if err != nil {
			return v, fmt.Errorf("value %s: %w", fv.Name, err)
		}
		v.Data = b
	}
	return v, nil
}

func fixtureValue(v Value) (FixtureValue, error) {
	fv := FixtureValue{Name: v.Name, Type: v.Type}
	var data interface{} = v.Data
	if b, ok := v.Data.([]byte); ok {
		data = hex.EncodeToString(b)
	}
	if err := fv.Data.Encode(data); err != nil {
		return fv, fmt.Errorf("value %s: %w", v.Name, err)
	}
	return fv, nil
}

// ParseFixture builds a MemoryHive from YAML fixture data.
func ParseFixture(data []byte) (*MemoryHive, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse registry fixture: %w", err)
	}
	h := NewMemoryHive()
	for _, k := range f.Keys {
		h.CreateKey(k.Path)
		for _, fv := range k.Values {
			v, err := fv.value()
			if err != nil {
				return nil, fmt.Errorf("key %s: %w", k.Path, err)
			}
			h.SetValue(k.Path, v)
		}
	}
	return h, nil
}

// LoadFixture reads a YAML fixture file.
func LoadFixture(path string) (*MemoryHive, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read registry fixture: %w", err)
	}
	return ParseFixture(data)
}

// Fixture returns the hive contents in fixture form. Keys without values
// are listed only when they have no subkeys.
func (h *MemoryHive) Fixture() (Fixture, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var f Fixture
	var walk func(k *memKey, path string) error
	walk = func(k *memKey, path string) error {
		if path != "" && (len(k.values) > 0 || len(k.children) == 0) {
			fk := FixtureKey{Path: path}
			for _, v := range k.values {
				fv, err := fixtureValue(v)
				if err != nil {
					return fmt.Errorf("key %s: %w", path, err)
				}
				fk.Values = append(fk.Values, fv)
			}
			f.Keys = append(f.Keys, fk)
		}
		for _, c := range k.children {
			if err := walk(c, Join(path, c.name)); err != nil {
				return err
			}
		}
		return nil
	}
	err := walk(h.root, "")
	return f, err
}

// MarshalYAML renders the hive as a YAML fixture.
func (h *MemoryHive) MarshalYAML() (interface{}, error) {
	return h.Fixture()
}

// Snapshot copies the subtrees at roots from src into a new MemoryHive,
// descending at most depth levels below each root. Roots that do not exist
// are skipped.
func Snapshot(src Hive, roots []string, depth int) (*MemoryHive, error) {
	dst := NewMemoryHive()
	for _, root := range roots {
		exists, err := KeyExists(src, root)
		if err != nil {
			return nil, err
		}
		if !exists {
			continue
		}
		if err := copyKey(src, dst, root, depth); err != nil {
			return nil, err
		}
	}
	return dst, nil
}

func copyKey(src Hive, dst *MemoryHive, path string, depth int) error {
	k, err := src.OpenKey(path)
	if err != nil {
		return err
	}
	defer k.Close()

	dst.CreateKey(path)
	for i := 0; ; i++ {
		v, err := k.Value(i)
		if errors.Is(err, ErrNoMoreItems) {
			break
		}
		if err != nil {
			return fmt.Errorf("enumerate values of %s: %w", path, err)
		}
		dst.SetValue(path, v)
	}
	if depth <= 0 {
		return nil
	}
	for i := 0; ; i++ {
		name, err := k.SubKeyName(i)
		if errors.Is(err, ErrNoMoreItems) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("enumerate subkeys of %s: %w", path, err)
		}
		if err := copyKey(src, dst, Join(path, name), depth-1); err != nil {
			if errors.Is(err, ErrNotExist) {
				// removed between enumeration and open
				continue
			}
			return err
		}
	}
}
