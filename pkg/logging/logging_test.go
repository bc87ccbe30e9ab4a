package logging

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/windowsadmins/winapps/pkg/config"
	"gopkg.in/yaml.v3"
)

func newTestLogger(t *testing.T, level string) (*Logger, *bytes.Buffer, string) {
	t.Helper()
	cfg := config.GetDefaultConfig()
	cfg.LogDir = t.TempDir()
	cfg.LogLevel = level

	var console bytes.Buffer
	l, err := newLogger(cfg, &console)
	require.NoError(t, err)
	t.Cleanup(l.close)
	return l, &console, cfg.LogDir
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelWarn, ParseLevel(" WARNING "))
	assert.Equal(t, LevelError, ParseLevel("ERROR"))
	assert.Equal(t, LevelInfo, ParseLevel("verbose"))
	assert.Equal(t, "UNKNOWN", LogLevel(42).String())
}

func TestLogMessageWritesAllSinks(t *testing.T) {
	l, console, dir := newTestLogger(t, "INFO")

	l.logMessage(LevelInfo, "Uninstallation complete", "name", "7-Zip", "attempts", 2)

	assert.Contains(t, console.String(), "INFO  Uninstallation complete name=7-Zip attempts=2")

	text, err := os.ReadFile(filepath.Join(dir, "winapps.log"))
	require.NoError(t, err)
	assert.Equal(t, console.String(), string(text))

	jsonData, err := os.ReadFile(filepath.Join(dir, "events.jsonl"))
	require.NoError(t, err)
	scanner := bufio.NewScanner(bytes.NewReader(jsonData))
	require.True(t, scanner.Scan())
	var entry LogEntry
	require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
	assert.Equal(t, "INFO", entry.Level)
	assert.Equal(t, "Uninstallation complete", entry.Message)
	assert.Equal(t, "7-Zip", entry.Properties["name"])
	assert.False(t, scanner.Scan())

	yamlData, err := os.ReadFile(filepath.Join(dir, "winapps.yaml"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(yamlData), "---\n"))
	var yamlEntry LogEntry
	require.NoError(t, yaml.Unmarshal(yamlData[4:], &yamlEntry))
	assert.Equal(t, entry.Message, yamlEntry.Message)
}

func TestLogMessageLevelFilter(t *testing.T) {
	l, console, _ := newTestLogger(t, "WARN")

	l.logMessage(LevelDebug, "walking key")
	l.logMessage(LevelInfo, "listing")
	assert.Empty(t, console.String())

	l.logMessage(LevelWarn, "still installed")
	l.logMessage(LevelError, "failed")
	lines := strings.Split(strings.TrimSpace(console.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "WARN  still installed")
	assert.Contains(t, lines[1], "ERROR failed")
}

func TestLogMessageOddKeyValues(t *testing.T) {
	l, console, _ := newTestLogger(t, "DEBUG")

	l.logMessage(LevelDebug, "dangling", "key")
	assert.Contains(t, console.String(), "DEBUG dangling\n")
}

func TestConsoleLoggerColors(t *testing.T) {
	l := New(true)
	var out bytes.Buffer
	l.SetOutput(&out)

	l.Success("removed %s", "7-Zip")
	assert.Contains(t, out.String(), colorGreen)
	assert.Contains(t, out.String(), "removed 7-Zip")
	assert.Contains(t, out.String(), colorReset)

	out.Reset()
	l.Printf("plain")
	assert.NotContains(t, out.String(), "\033[")
}
