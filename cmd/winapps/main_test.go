package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/windowsadmins/winapps/pkg/apps"
	"github.com/windowsadmins/winapps/pkg/config"
	"github.com/windowsadmins/winapps/pkg/logging"
	"github.com/windowsadmins/winapps/pkg/registry"
)

const (
	nativeRoot = `Software\Microsoft\Windows\CurrentVersion\Uninstall`
	wowRoot    = `Software\WOW6432Node\Microsoft\Windows\CurrentVersion\Uninstall`
	sevenZip   = nativeRoot + `\7-Zip`
)

var configPath, logDir string

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "winapps-cli")
	if err != nil {
		panic(err)
	}
	cfg := config.GetDefaultConfig()
	logDir = filepath.Join(dir, "logs")
	cfg.LogDir = logDir
	cfg.UninstallPollAttempts = 2
	cfg.UninstallPollIntervalMs = 0
	configPath = filepath.Join(dir, "Config.yaml")
	if err := config.SaveConfig(configPath, cfg); err != nil {
		panic(err)
	}

	code := m.Run()
	logging.CloseLogger()
	os.RemoveAll(dir)
	os.Exit(code)
}

func testHive() *registry.MemoryHive {
	h := registry.NewMemoryHive()
	h.SetString(sevenZip, "DisplayName", "7-Zip 19.00 (x64)")
	h.SetString(sevenZip, "DisplayVersion", "19.00")
	h.SetString(sevenZip, "Publisher", "Igor Pavlov")
	h.SetString(sevenZip, "InstallDate", "20190221")
	h.SetString(sevenZip, "InstallLocation", `C:\Program Files\7-Zip\`)
	h.SetString(sevenZip, "UninstallString", `"C:\Program Files\7-Zip\Uninstall.exe"`)

	npp := wowRoot + `\Notepad++`
	h.SetString(npp, "DisplayName", "Notepad++ (32-bit x86)")
	h.SetString(npp, "DisplayVersion", "7.6.6")
	h.SetString(npp, "Publisher", "Notepad++ Team")

	hidden := nativeRoot + `\Connection Manager`
	h.SetString(hidden, "DisplayName", "Connection Manager")
	h.SetDWord(hidden, "SystemComponent", 1)
	return h
}

type recordingRunner struct {
	calls [][]string
	onRun func(path string)
}

func (r *recordingRunner) Run(_ context.Context, path string, args []string) (string, error) {
	r.calls = append(r.calls, append([]string{path}, args...))
	if r.onRun != nil {
		r.onRun(path)
	}
	return "", nil
}

func execute(t *testing.T, c *cli, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd(c)
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(append([]string{"--config", configPath}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFixture(t *testing.T, h *registry.MemoryHive) string {
	t.Helper()
	data, err := yaml.Marshal(h)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "hive.yaml")
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestListJSONFromFixture(t *testing.T) {
	fixture := writeFixture(t, testHive())

	out, err := execute(t, &cli{}, "--fixture", fixture, "list", "--output", "json")
	require.NoError(t, err)

	var list []apps.InstalledApplication
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	require.Len(t, list, 2)
	assert.Equal(t, "7-Zip 19.00 (x64)", list[0].Name)
	assert.Equal(t, "2019-02-21", list[0].InstallDate.String())
	assert.Equal(t, "Notepad++ (32-bit x86)", list[1].Name)
}

func TestListText(t *testing.T) {
	out, err := execute(t, &cli{hive: testHive()}, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "7-Zip 19.00 (x64)")
	assert.Contains(t, out, "Igor Pavlov")
	assert.NotContains(t, out, "Connection Manager")

	out, err = execute(t, &cli{hive: registry.NewMemoryHive()}, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No applications found.")
}

func TestSearchYAML(t *testing.T) {
	out, err := execute(t, &cli{hive: testHive()},
		"search", "--field", "publisher=team$", "--version", ">= 7", "--output", "yaml")
	require.NoError(t, err)

	var list []apps.InstalledApplication
	require.NoError(t, yaml.Unmarshal([]byte(out), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "Notepad++ (32-bit x86)", list[0].Name)
}

func TestSearchErrors(t *testing.T) {
	_, err := execute(t, &cli{hive: testHive()}, "search", "--field", "colour=red")
	assert.Error(t, err)

	_, err = execute(t, &cli{hive: testHive()}, "search", "--field", "publisher")
	assert.Error(t, err)

	_, err = execute(t, &cli{hive: testHive()}, "search", "(")
	assert.Error(t, err)

	_, err = execute(t, &cli{hive: testHive()}, "list", "--output", "xml")
	assert.Error(t, err)
}

func TestUninstallRunsUninstaller(t *testing.T) {
	h := testHive()
	r := &recordingRunner{onRun: func(string) {
		require.NoError(t, h.DeleteKey(sevenZip))
	}}

	_, err := execute(t, &cli{hive: h, runner: r}, "uninstall", "^7-zip", "--arg", "/S")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{`C:\Program Files\7-Zip\Uninstall.exe`, "/S"}}, r.calls)

	exists, err := registry.KeyExists(h, sevenZip)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestUninstallDryRun(t *testing.T) {
	r := &recordingRunner{}
	out, err := execute(t, &cli{hive: testHive(), runner: r}, "uninstall", "7-zip", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "Would uninstall 7-Zip 19.00 (x64) 19.00")
	assert.Empty(t, r.calls)
}

func TestUninstallRequiresSelection(t *testing.T) {
	r := &recordingRunner{}
	_, err := execute(t, &cli{hive: testHive(), runner: r}, "uninstall")
	assert.Error(t, err)
	assert.Empty(t, r.calls)
}

func TestModifyWithoutMatch(t *testing.T) {
	_, err := execute(t, &cli{hive: testHive(), runner: &recordingRunner{}}, "modify", "firefox")
	assert.ErrorContains(t, err, "no application matches")
}

func TestInstallCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "setup.exe")
	require.NoError(t, os.WriteFile(path, []byte("MZ"), 0755))
	r := &recordingRunner{}

	_, err := execute(t, &cli{runner: r}, "install", path, "--quiet", "--log", "setup.log")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{path, "/install", "/quiet", "/log", "setup.log"}}, r.calls)

	_, err = execute(t, &cli{runner: r}, "install", filepath.Join(t.TempDir(), "setup.msi"))
	assert.Error(t, err)

	data, err := os.ReadFile(filepath.Join(logDir, "winapps.log"))
	require.NoError(t, err)
	var runs int
	for _, line := range strings.Split(string(data), "\n") {
		if strings.Contains(line, "Running installer") && strings.Contains(line, path) {
			runs++
		}
	}
	assert.Equal(t, 1, runs)
}

func TestFixtureRefusesCommands(t *testing.T) {
	fixture := writeFixture(t, testHive())
	r := &recordingRunner{}

	_, err := execute(t, &cli{runner: r}, "--fixture", fixture, "uninstall", "7-zip")
	assert.ErrorIs(t, err, errFixtureReadOnly)

	_, err = execute(t, &cli{runner: r}, "--fixture", fixture, "modify", "7-zip")
	assert.ErrorIs(t, err, errFixtureReadOnly)
	assert.Empty(t, r.calls)

	out, err := execute(t, &cli{runner: r}, "--fixture", fixture, "uninstall", "7-zip", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "Would uninstall 7-Zip 19.00 (x64)")
	assert.Empty(t, r.calls)
}

func TestSnapshotRoundTrip(t *testing.T) {
	src := testHive()
	src.SetString(`Software\Classes\Installer\Products\00002109030000000000000000F01FEC`, "ProductName", "Office")
	path := filepath.Join(t.TempDir(), "snapshot.yaml")

	_, err := execute(t, &cli{hive: src}, "snapshot", path)
	require.NoError(t, err)

	h, err := registry.LoadFixture(path)
	require.NoError(t, err)
	exists, err := registry.KeyExists(h, `Software\Classes\Installer\Products\00002109030000000000000000F01FEC`)
	require.NoError(t, err)
	assert.True(t, exists)

	out, err := execute(t, &cli{}, "--fixture", path, "list", "-o", "json")
	require.NoError(t, err)
	var list []apps.InstalledApplication
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	assert.Len(t, list, 2)
}

func TestVersion(t *testing.T) {
	out, err := execute(t, &cli{}, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "winapps version")

	out, err = execute(t, &cli{}, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "winapps")
}
