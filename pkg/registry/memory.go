package registry

import (
	"fmt"
	"strings"
	"sync"
)

// MemoryHive is an in-memory Hive. Key lookups are case-insensitive like the
// Windows registry; subkeys and values enumerate in insertion order.
type MemoryHive struct {
	mu   sync.Mutex
	root *memKey
	open int
}

type memKey struct {
	name     string
	children []*memKey
	values   []Value
	deleted  bool
}

func (k *memKey) markDeleted() {
	k.deleted = true
	for _, c := range k.children {
		c.markDeleted()
	}
}

// NewMemoryHive returns an empty hive.
func NewMemoryHive() *MemoryHive {
	return &MemoryHive{root: &memKey{}}
}

func splitPath(path string) []string {
	path = strings.ReplaceAll(path, "/", `\`)
	var parts []string
	for _, p := range strings.Split(path, `\`) {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

func (k *memKey) child(name string) *memKey {
	for _, c := range k.children {
		if strings.EqualFold(c.name, name) {
			return c
		}
	}
	return nil
}

func (h *MemoryHive) lookup(path string) *memKey {
	k := h.root
	for _, part := range splitPath(path) {
		if k = k.child(part); k == nil {
			return nil
		}
	}
	return k
}

func (h *MemoryHive) create(path string) *memKey {
	k := h.root
	for _, part := range splitPath(path) {
		c := k.child(part)
		if c == nil {
			c = &memKey{name: part}
			k.children = append(k.children, c)
		}
		k = c
	}
	return k
}

// CreateKey creates path and any missing parents.
func (h *MemoryHive) CreateKey(path string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.create(path)
}

// SetValue stores v under path, creating the key if needed. A value with
// the same name (case-insensitive) is replaced in place.
func (h *MemoryHive) SetValue(path string, v Value) {
	h.mu.Lock()
	defer h.mu.Unlock()
	k := h.create(path)
	for i := range k.values {
		if strings.EqualFold(k.values[i].Name, v.Name) {
			k.values[i] = v
			return
		}
	}
	k.values = append(k.values, v)
}

// SetString is shorthand for SetValue with an SZ value.
func (h *MemoryHive) SetString(path, name, data string) {
	h.SetValue(path, Value{Name: name, Type: SZ, Data: data})
}

// SetDWord is shorthand for SetValue with a DWORD value.
func (h *MemoryHive) SetDWord(path, name string, data uint32) {
	h.SetValue(path, Value{Name: name, Type: DWORD, Data: uint64(data)})
}

// DeleteKey removes path and everything below it. Handles already open on
// the removed keys fail with ErrNotExist, as they do on Windows.
func (h *MemoryHive) DeleteKey(path string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	parts := splitPath(path)
	if len(parts) == 0 {
		return fmt.Errorf("delete root key: %w", ErrNotExist)
	}
	parent := h.lookup(strings.Join(parts[:len(parts)-1], `\`))
	if parent == nil {
		return fmt.Errorf("delete %s: %w", path, ErrNotExist)
	}
	for i, c := range parent.children {
		if strings.EqualFold(c.name, parts[len(parts)-1]) {
			parent.children = append(parent.children[:i], parent.children[i+1:]...)
			c.markDeleted()
			return nil
		}
	}
	return fmt.Errorf("delete %s: %w", path, ErrNotExist)
}

// OpenKey implements Hive.
func (h *MemoryHive) OpenKey(path string) (Key, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	k := h.lookup(path)
	if k == nil {
		return nil, fmt.Errorf("open %s: %w", path, ErrNotExist)
	}
	h.open++
	return &memHandle{hive: h, key: k}, nil
}

// OpenHandles returns the number of keys opened and not yet closed.
func (h *MemoryHive) OpenHandles() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.open
}

type memHandle struct {
	hive   *MemoryHive
	key    *memKey
	closed bool
}

func (m *memHandle) SubKeyName(index int) (string, error) {
	m.hive.mu.Lock()
	defer m.hive.mu.Unlock()
	if m.closed {
		return "", fmt.Errorf("enumerate closed key %s", m.key.name)
	}
	if m.key.deleted {
		return "", fmt.Errorf("enumerate subkeys of deleted key %s: %w", m.key.name, ErrNotExist)
	}
	if index < 0 || index >= len(m.key.children) {
		return "", ErrNoMoreItems
	}
	return m.key.children[index].name, nil
}

func (m *memHandle) Value(index int) (Value, error) {
	m.hive.mu.Lock()
	defer m.hive.mu.Unlock()
	if m.closed {
		return Value{}, fmt.Errorf("enumerate closed key %s", m.key.name)
	}
	if m.key.deleted {
		return Value{}, fmt.Errorf("enumerate values of deleted key %s: %w", m.key.name, ErrNotExist)
	}
	if index < 0 || index >= len(m.key.values) {
		return Value{}, ErrNoMoreItems
	}
	return m.key.values[index], nil
}

func (m *memHandle) Close() error {
	m.hive.mu.Lock()
	defer m.hive.mu.Unlock()
	if !m.closed {
		m.closed = true
		m.hive.open--
	}
	return nil
}
