// pkg/registry/registry.go - read-only view of a registry hive.
//
// The Hive and Key interfaces expose exactly the operations the application
// walker needs: open a key by path, enumerate its subkeys and values by
// positional index until the hive reports there are no more, and close it.
// LocalMachine returns the live HKEY_LOCAL_MACHINE hive on Windows; MemoryHive
// is an in-memory hive used for fixtures and snapshots.

package registry

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrNotExist is returned when a key does not exist.
	ErrNotExist = errors.New("registry key does not exist")
	// ErrNoMoreItems ends an indexed enumeration.
	ErrNoMoreItems = errors.New("no more registry items")
	// ErrUnsupported is returned by LocalMachine on hosts without a registry.
	ErrUnsupported = errors.New("registry is not available on this platform")
)

// ValueType is the declared type of a registry value, numbered like the
// Windows REG_* constants.
type ValueType uint32

const (
	NONE                       ValueType = 0
	SZ                         ValueType = 1
	EXPAND_SZ                  ValueType = 2
	BINARY                     ValueType = 3
	DWORD                      ValueType = 4
	DWORD_BIG_ENDIAN           ValueType = 5
	LINK                       ValueType = 6
	MULTI_SZ                   ValueType = 7
	RESOURCE_LIST              ValueType = 8
	FULL_RESOURCE_DESCRIPTOR   ValueType = 9
	RESOURCE_REQUIREMENTS_LIST ValueType = 10
	QWORD                      ValueType = 11
)

var valueTypeNames = map[ValueType]string{
	NONE:                       "NONE",
	SZ:                         "SZ",
	EXPAND_SZ:                  "EXPAND_SZ",
	BINARY:                     "BINARY",
	DWORD:                      "DWORD",
	DWORD_BIG_ENDIAN:           "DWORD_BIG_ENDIAN",
	LINK:                       "LINK",
	MULTI_SZ:                   "MULTI_SZ",
	RESOURCE_LIST:              "RESOURCE_LIST",
	FULL_RESOURCE_DESCRIPTOR:   "FULL_RESOURCE_DESCRIPTOR",
	RESOURCE_REQUIREMENTS_LIST: "RESOURCE_REQUIREMENTS_LIST",
	QWORD:                      "QWORD",
}

// String returns the REG_ name without its prefix.
func (t ValueType) String() string {
	if name, ok := valueTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TYPE_%d", uint32(t))
}

// ParseValueType accepts names with or without the REG_ prefix.
func ParseValueType(s string) (ValueType, error) {
	name := strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(s)), "REG_")
	for t, n := range valueTypeNames {
		if n == name {
			return t, nil
		}
	}
	return NONE, fmt.Errorf("unknown registry value type %q", s)
}

// Value is one named value of a key. Data holds a string for SZ, EXPAND_SZ
// and LINK, a []string for MULTI_SZ, a uint64 for DWORD, DWORD_BIG_ENDIAN
// and QWORD, and a []byte for everything else.
type Value struct {
	Name string
	Type ValueType
	Data interface{}
}

// String renders the value data as text. Integers are rendered in decimal.
func (v Value) String() string {
	switch d := v.Data.(type) {
	case nil:
		return ""
	case string:
		return d
	case []string:
		return strings.Join(d, " ")
	case uint64:
		return strconv.FormatUint(d, 10)
	case []byte:
		return hex.EncodeToString(d)
	default:
		return fmt.Sprint(d)
	}
}

// Integer interprets the value as an integer. Missing data and strings that
// do not parse as integers count as zero. QWORDs beyond math.MaxInt64
// saturate so they stay positive.
func (v Value) Integer() int64 {
	switch d := v.Data.(type) {
	case uint64:
		if d > math.MaxInt64 {
			return math.MaxInt64
		}
		return int64(d)
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(d), 10, 64)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

// decodeBigEndianDWord decodes REG_DWORD_BIG_ENDIAN data.
func decodeBigEndianDWord(b []byte) (uint64, error) {
	if len(b) != 4 {
		return 0, fmt.Errorf("big-endian DWORD of %d bytes", len(b))
	}
	return uint64(binary.BigEndian.Uint32(b)), nil
}

// Key is an open registry key. Callers must Close it.
type Key interface {
	// SubKeyName returns the name of the index-th subkey, or ErrNoMoreItems.
	SubKeyName(index int) (string, error)
	// Value returns the index-th value, or ErrNoMoreItems.
	Value(index int) (Value, error)
	Close() error
}

// Hive opens keys by path relative to its root.
type Hive interface {
	OpenKey(path string) (Key, error)
}

// KeyExists reports whether path can be opened. Errors other than
// ErrNotExist are returned to the caller.
func KeyExists(h Hive, path string) (bool, error) {
	k, err := h.OpenKey(path)
	if err != nil {
		if errors.Is(err, ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	k.Close()
	return true, nil
}

// Join joins key path elements with backslashes.
func Join(elem ...string) string {
	parts := make([]string, 0, len(elem))
	for _, e := range elem {
		if e = strings.Trim(e, `\`); e != "" {
			parts = append(parts, e)
		}
	}
	return strings.Join(parts, `\`)
}

// Base returns the last element of a key path.
func Base(path string) string {
	path = strings.TrimRight(path, `\`)
	if i := strings.LastIndex(path, `\`); i >= 0 {
		return path[i+1:]
	}
	return path
}
