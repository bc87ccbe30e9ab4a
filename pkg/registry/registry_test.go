package registry

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueString(t *testing.T) {
	tests := []struct {
		name  string
		value Value
		want  string
	}{
		{"nil", Value{}, ""},
		{"string", Value{Type: SZ, Data: "7-Zip"}, "7-Zip"},
		{"multi", Value{Type: MULTI_SZ, Data: []string{"a", "b"}}, "a b"},
		{"dword", Value{Type: DWORD, Data: uint64(42)}, "42"},
		{"binary", Value{Type: BINARY, Data: []byte{0xde, 0xad}}, "dead"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.value.String())
		})
	}
}

func TestValueInteger(t *testing.T) {
	assert.Equal(t, int64(1), Value{Data: uint64(1)}.Integer())
	assert.Equal(t, int64(3), Value{Data: " 3 "}.Integer())
	assert.Equal(t, int64(0), Value{Data: "yes"}.Integer())
	assert.Equal(t, int64(0), Value{Data: []byte{1}}.Integer())
	assert.Equal(t, int64(math.MaxInt64), Value{Type: QWORD, Data: uint64(1) << 63}.Integer())
	assert.Equal(t, int64(math.MaxInt64), Value{Type: QWORD, Data: uint64(math.MaxUint64)}.Integer())
}

func TestDecodeBigEndianDWord(t *testing.T) {
	n, err := decodeBigEndianDWord([]byte{0x00, 0x00, 0x01, 0x02})
	require.NoError(t, err)
	assert.Equal(t, uint64(258), n)

	_, err = decodeBigEndianDWord([]byte{0x01})
	assert.Error(t, err)
}

func TestParseValueType(t *testing.T) {
	vt, err := ParseValueType("REG_DWORD")
	require.NoError(t, err)
	assert.Equal(t, DWORD, vt)

	vt, err = ParseValueType("expand_sz")
	require.NoError(t, err)
	assert.Equal(t, EXPAND_SZ, vt)

	_, err = ParseValueType("REG_FOO")
	assert.Error(t, err)
	assert.Equal(t, "TYPE_99", ValueType(99).String())
}

func TestJoinAndBase(t *testing.T) {
	assert.Equal(t, `Software\Microsoft\Uninstall\7-Zip`, Join(`Software\Microsoft\`, `\Uninstall`, "", "7-Zip"))
	assert.Equal(t, "7-Zip", Base(`Software\Microsoft\Uninstall\7-Zip\`))
	assert.Equal(t, "Software", Base("Software"))
}

func TestMemoryHiveEnumeration(t *testing.T) {
	h := NewMemoryHive()
	h.SetString(`Software\Uninstall\B`, "DisplayName", "Bee")
	h.SetDWord(`Software\Uninstall\B`, "SystemComponent", 1)
	h.CreateKey(`Software\Uninstall\A`)

	k, err := h.OpenKey(`software\UNINSTALL`)
	require.NoError(t, err)
	defer k.Close()

	var names []string
	for i := 0; ; i++ {
		name, err := k.SubKeyName(i)
		if errors.Is(err, ErrNoMoreItems) {
			break
		}
		require.NoError(t, err)
		names = append(names, name)
	}
	assert.Equal(t, []string{"B", "A"}, names)

	b, err := h.OpenKey(`Software\Uninstall\B`)
	require.NoError(t, err)
	v, err := b.Value(1)
	require.NoError(t, err)
	assert.Equal(t, Value{Name: "SystemComponent", Type: DWORD, Data: uint64(1)}, v)
	_, err = b.Value(2)
	assert.ErrorIs(t, err, ErrNoMoreItems)
	require.NoError(t, b.Close())

	_, err = b.Value(0)
	assert.Error(t, err)
}

func TestMemoryHiveOpenHandles(t *testing.T) {
	h := NewMemoryHive()
	h.CreateKey(`Software\X`)

	k, err := h.OpenKey(`Software\X`)
	require.NoError(t, err)
	assert.Equal(t, 1, h.OpenHandles())
	require.NoError(t, k.Close())
	require.NoError(t, k.Close())
	assert.Equal(t, 0, h.OpenHandles())

	_, err = h.OpenKey(`Software\Y`)
	assert.ErrorIs(t, err, ErrNotExist)
	assert.Equal(t, 0, h.OpenHandles())
}

func TestMemoryHiveSetValueReplaces(t *testing.T) {
	h := NewMemoryHive()
	h.SetString(`K`, "DisplayName", "old")
	h.SetString(`K`, "displayname", "new")

	k, err := h.OpenKey("K")
	require.NoError(t, err)
	defer k.Close()
	v, err := k.Value(0)
	require.NoError(t, err)
	assert.Equal(t, "new", v.Data)
	_, err = k.Value(1)
	assert.ErrorIs(t, err, ErrNoMoreItems)
}

func TestMemoryHiveDeleteKey(t *testing.T) {
	h := NewMemoryHive()
	h.CreateKey(`Software\Uninstall\A\Sub`)

	require.NoError(t, h.DeleteKey(`Software\Uninstall\a`))
	exists, err := KeyExists(h, `Software\Uninstall\A\Sub`)
	require.NoError(t, err)
	assert.False(t, exists)

	assert.ErrorIs(t, h.DeleteKey(`Software\Uninstall\A`), ErrNotExist)
	assert.ErrorIs(t, h.DeleteKey(``), ErrNotExist)
}

func TestMemoryHiveDeleteInvalidatesOpenHandles(t *testing.T) {
	h := NewMemoryHive()
	h.SetString(`Software\Uninstall\A`, "DisplayName", "A")
	h.CreateKey(`Software\Uninstall\A\Sub`)

	k, err := h.OpenKey(`Software\Uninstall\A`)
	require.NoError(t, err)
	defer k.Close()
	sub, err := h.OpenKey(`Software\Uninstall\A\Sub`)
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, h.DeleteKey(`Software\Uninstall\A`))

	_, err = k.Value(0)
	assert.ErrorIs(t, err, ErrNotExist)
	_, err = k.SubKeyName(0)
	assert.ErrorIs(t, err, ErrNotExist)
	_, err = sub.Value(0)
	assert.ErrorIs(t, err, ErrNotExist)

	h.SetString(`Software\Uninstall\A`, "DisplayName", "A again")
	_, err = k.Value(0)
	assert.ErrorIs(t, err, ErrNotExist)
}

type failingHive struct{ err error }

func (f failingHive) OpenKey(string) (Key, error) { return nil, f.err }

func TestKeyExistsPropagatesOtherErrors(t *testing.T) {
	denied := errors.New("access denied")
	_, err := KeyExists(failingHive{err: denied}, `Software`)
	assert.ErrorIs(t, err, denied)
}
