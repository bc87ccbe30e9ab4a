package apps

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/windowsadmins/winapps/pkg/config"
	"github.com/windowsadmins/winapps/pkg/registry"
)

const (
	nativeRoot = `Software\Microsoft\Windows\CurrentVersion\Uninstall`
	wowRoot    = `Software\WOW6432Node\Microsoft\Windows\CurrentVersion\Uninstall`
)

func sz(name, data string) registry.Value {
	return registry.Value{Name: name, Type: registry.SZ, Data: data}
}

func dword(name string, data uint64) registry.Value {
	return registry.Value{Name: name, Type: registry.DWORD, Data: data}
}

func addApp(h *registry.MemoryHive, root, key string, values ...registry.Value) string {
	path := registry.Join(root, key)
	h.CreateKey(path)
	for _, v := range values {
		h.SetValue(path, v)
	}
	return path
}

func collect(t *testing.T, inv *Inventory, q Query) []InstalledApplication {
	t.Helper()
	var out []InstalledApplication
	for app, err := range inv.Search(q) {
		require.NoError(t, err)
		out = append(out, app)
	}
	return out
}

func names(apps []InstalledApplication) []string {
	out := make([]string, 0, len(apps))
	for _, a := range apps {
		out = append(out, a.Name)
	}
	return out
}

// countingHive counts value reads and can fail opens of chosen paths.
type countingHive struct {
	registry.Hive
	mu     sync.Mutex
	reads  int
	failOn map[string]error
}

func (c *countingHive) OpenKey(path string) (registry.Key, error) {
	for p, err := range c.failOn {
		if strings.EqualFold(p, path) {
			return nil, err
		}
	}
	k, err := c.Hive.OpenKey(path)
	if err != nil {
		return nil, err
	}
	return &countingKey{Key: k, hive: c}, nil
}

type countingKey struct {
	registry.Key
	hive *countingHive
}

func (k *countingKey) Value(i int) (registry.Value, error) {
	v, err := k.Key.Value(i)
	if err == nil {
		k.hive.mu.Lock()
		k.hive.reads++
		k.hive.mu.Unlock()
	}
	return v, err
}

// fakeRunner records runs and applies an optional side effect, such as
// deleting the uninstall key.
type fakeRunner struct {
	calls  [][]string
	onRun  func(path string, args []string)
	result error
}

func (f *fakeRunner) Run(_ context.Context, path string, args []string) (string, error) {
	f.calls = append(f.calls, append([]string{path}, args...))
	if f.onRun != nil {
		f.onRun(path, args)
	}
	return "", f.result
}

func testConfig() *config.Configuration {
	cfg := config.GetDefaultConfig()
	cfg.UninstallPollAttempts = 2
	cfg.UninstallPollIntervalMs = 0
	return cfg
}

func noneRunning(context.Context, string) ([]string, error) { return nil, nil }

var errAccessDenied = errors.New("access is denied")

// vanishingHive deletes the key at path right after handing out a handle to
// it, as when an uninstaller removes the key mid-read.
type vanishingHive struct {
	*registry.MemoryHive
	path string
}

func (v *vanishingHive) OpenKey(path string) (registry.Key, error) {
	k, err := v.MemoryHive.OpenKey(path)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(path, v.path) {
		if err := v.MemoryHive.DeleteKey(path); err != nil {
			k.Close()
			return nil, err
		}
	}
	return k, nil
}
