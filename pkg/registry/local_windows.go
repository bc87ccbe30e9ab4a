//go:build windows
// +build windows

package registry

import (
	"errors"
	"fmt"

	"golang.org/x/sys/windows"
	winreg "golang.org/x/sys/windows/registry"
)

// maxKeyNameLength is the registry limit on key name length, in characters.
const maxKeyNameLength = 255

type localHive struct {
	root winreg.Key
}

// LocalMachine returns the live HKEY_LOCAL_MACHINE hive.
func LocalMachine() (Hive, error) {
	return &localHive{root: winreg.LOCAL_MACHINE}, nil
}

func (h *localHive) OpenKey(path string) (Key, error) {
	k, err := winreg.OpenKey(h.root, path, winreg.READ)
	if err != nil {
		if errors.Is(err, winreg.ErrNotExist) {
			return nil, fmt.Errorf("open %s: %w", path, ErrNotExist)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &localKey{key: k, path: path}, nil
}

type localKey struct {
	key   winreg.Key
	path  string
	names []string
}

// SubKeyName enumerates with RegEnumKeyEx so each call reads exactly one
// subkey at the requested position.
func (k *localKey) SubKeyName(index int) (string, error) {
	buf := make([]uint16, maxKeyNameLength+1)
	n := uint32(len(buf))
	err := windows.RegEnumKeyEx(windows.Handle(k.key), uint32(index), &buf[0], &n, nil, nil, nil, nil)
	if err != nil {
		if errors.Is(err, windows.ERROR_NO_MORE_ITEMS) {
			return "", ErrNoMoreItems
		}
		return "", fmt.Errorf("enumerate subkeys of %s: %w", k.path, vanished(err))
	}
	return windows.UTF16ToString(buf[:n]), nil
}

// Value reads the index-th value. Value names are listed once per open key
// in the order the registry enumerates them; data is read on demand.
func (k *localKey) Value(index int) (Value, error) {
	if k.names == nil {
		names, err := k.key.ReadValueNames(0)
		if err != nil {
			return Value{}, fmt.Errorf("enumerate values of %s: %w", k.path, vanished(err))
		}
		if names == nil {
			names = []string{}
		}
		k.names = names
	}
	if index < 0 || index >= len(k.names) {
		return Value{}, ErrNoMoreItems
	}
	return k.read(k.names[index])
}

func (k *localKey) read(name string) (Value, error) {
	_, valtype, err := k.key.GetValue(name, nil)
	if err != nil {
		return Value{}, fmt.Errorf("read %s\\%s: %w", k.path, name, vanished(err))
	}
	v := Value{Name: name, Type: ValueType(valtype)}
	switch valtype {
	case winreg.SZ, winreg.EXPAND_SZ:
		v.Data, _, err = k.key.GetStringValue(name)
	case winreg.MULTI_SZ:
		v.Data, _, err = k.key.GetStringsValue(name)
	case winreg.DWORD, winreg.QWORD:
		v.Data, _, err = k.key.GetIntegerValue(name)
	case winreg.DWORD_BIG_ENDIAN:
		buf := make([]byte, 4)
		var n int
		n, _, err = k.key.GetValue(name, buf)
		if err == nil {
			v.Data, err = decodeBigEndianDWord(buf[:n])
		}
	default:
		buf := make([]byte, 1024)
		var n int
		n, _, err = k.key.GetValue(name, buf)
		if errors.Is(err, windows.ERROR_MORE_DATA) {
			buf = make([]byte, n)
			n, _, err = k.key.GetValue(name, buf)
		}
		if err == nil {
			v.Data = buf[:n]
		}
	}
	if err != nil {
		return Value{}, fmt.Errorf("read %s\\%s: %w", k.path, name, vanished(err))
	}
	return v, nil
}

// vanished maps the errors Windows returns for a key deleted while open, or
// a value deleted between listing and reading, to ErrNotExist.
func vanished(err error) error {
	if errors.Is(err, windows.ERROR_KEY_DELETED) || errors.Is(err, windows.ERROR_FILE_NOT_FOUND) {
		return fmt.Errorf("%w: %v", ErrNotExist, err)
	}
	return err
}

func (k *localKey) Close() error {
	return k.key.Close()
}
