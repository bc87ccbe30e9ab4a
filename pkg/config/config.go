// pkg/config/config.go - configuration settings for winapps.

package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/windowsadmins/winapps/pkg/registry"
	"gopkg.in/yaml.v3"
)

const ConfigPath = `C:\ProgramData\WinApps\Config.yaml`

// PolicyRegistryPath holds policy-delivered settings, read when no
// configuration file exists.
const PolicyRegistryPath = `SOFTWARE\WinApps\Config`

// Configuration holds the configurable options for winapps in YAML format
type Configuration struct {
	LogLevel string `yaml:"LogLevel"`
	LogDir   string `yaml:"LogDir"`

	// Installer timeout settings
	InstallerTimeoutMinutes int `yaml:"InstallerTimeoutMinutes"`

	// How long Uninstall waits for an entry to leave the registry
	UninstallPollAttempts   int `yaml:"UninstallPollAttempts"`
	UninstallPollIntervalMs int `yaml:"UninstallPollIntervalMs"`

	CaseSensitiveSearch bool `yaml:"CaseSensitiveSearch"`
	RefuseWhenRunning   bool `yaml:"RefuseWhenRunning"`

	// Read applications from a YAML registry fixture instead of HKLM
	FixturePath string `yaml:"FixturePath"`
}

// GetDefaultConfig provides default configuration values.
func GetDefaultConfig() *Configuration {
	programData := os.Getenv("ProgramData")
	if programData == "" {
		programData = `C:\ProgramData`
	}
	return &Configuration{
		LogLevel:                "INFO",
		LogDir:                  filepath.Join(programData, "WinApps", "logs"),
		InstallerTimeoutMinutes: 15,
		UninstallPollAttempts:   10,
		UninstallPollIntervalMs: 500,
		CaseSensitiveSearch:     false,
		RefuseWhenRunning:       false,
	}
}

// InstallerTimeout returns InstallerTimeoutMinutes as a duration.
func (c *Configuration) InstallerTimeout() time.Duration {
	return time.Duration(c.InstallerTimeoutMinutes) * time.Minute
}

// UninstallPollInterval returns UninstallPollIntervalMs as a duration.
func (c *Configuration) UninstallPollInterval() time.Duration {
	return time.Duration(c.UninstallPollIntervalMs) * time.Millisecond
}

// LoadConfig loads the configuration from the YAML file at path. If the file
// doesn't exist, it falls back to policy settings under PolicyRegistryPath in
// policy, and to the defaults when that key is missing too. policy may be nil.
func LoadConfig(path string, policy registry.Hive) (*Configuration, error) {
	if path == "" {
		path = ConfigPath
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		log.Printf("Configuration file does not exist: %s", path)
		if policy == nil {
			return GetDefaultConfig(), nil
		}
		return LoadConfigFromPolicy(policy)
	}
	if err != nil {
		return nil, fmt.Errorf("read configuration file: %w", err)
	}

	config := GetDefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse configuration file %s: %w", path, err)
	}
	config.applyDefaults()
	return config, nil
}

// SaveConfig saves the configuration to a YAML file.
func SaveConfig(path string, config *Configuration) error {
	if path == "" {
		path = ConfigPath
	}
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("serialize configuration: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create configuration directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write configuration file: %w", err)
	}
	return nil
}

// LoadConfigFromPolicy starts from the defaults and overrides every setting
// present under PolicyRegistryPath. A missing key leaves the defaults.
func LoadConfigFromPolicy(policy registry.Hive) (*Configuration, error) {
	config := GetDefaultConfig()

	key, err := policy.OpenKey(PolicyRegistryPath)
	if errors.Is(err, registry.ErrNotExist) {
		return config, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open policy key %s: %w", PolicyRegistryPath, err)
	}
	defer key.Close()

	values := make(map[string]registry.Value)
	for i := 0; ; i++ {
		v, err := key.Value(i)
		if errors.Is(err, registry.ErrNoMoreItems) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read policy key %s: %w", PolicyRegistryPath, err)
		}
		values[strings.ToLower(v.Name)] = v
	}

	loadString(values, "LogLevel", &config.LogLevel)
	loadString(values, "LogDir", &config.LogDir)
	loadString(values, "FixturePath", &config.FixturePath)

	loadInt(values, "InstallerTimeoutMinutes", &config.InstallerTimeoutMinutes)
	loadInt(values, "UninstallPollAttempts", &config.UninstallPollAttempts)
	loadInt(values, "UninstallPollIntervalMs", &config.UninstallPollIntervalMs)

	loadBool(values, "CaseSensitiveSearch", &config.CaseSensitiveSearch)
	loadBool(values, "RefuseWhenRunning", &config.RefuseWhenRunning)

	config.applyDefaults()
	log.Printf("Loaded policy configuration from registry path: %s", PolicyRegistryPath)
	return config, nil
}

func (c *Configuration) applyDefaults() {
	defaults := GetDefaultConfig()
	if c.LogLevel == "" {
		c.LogLevel = defaults.LogLevel
	}
	if c.LogDir == "" {
		c.LogDir = defaults.LogDir
	}
	if c.InstallerTimeoutMinutes <= 0 {
		c.InstallerTimeoutMinutes = defaults.InstallerTimeoutMinutes
	}
	if c.UninstallPollAttempts <= 0 {
		c.UninstallPollAttempts = defaults.UninstallPollAttempts
	}
	if c.UninstallPollIntervalMs < 0 {
		c.UninstallPollIntervalMs = defaults.UninstallPollIntervalMs
	}
}

// loadString loads a string value if it exists and is not empty.
func loadString(values map[string]registry.Value, name string, target *string) {
	if v, ok := values[strings.ToLower(name)]; ok {
		if s := strings.TrimSpace(v.String()); s != "" {
			*target = s
		}
	}
}

// loadBool accepts "true"/"false", "1"/"0" and DWORD 1/0.
func loadBool(values map[string]registry.Value, name string, target *bool) {
	v, ok := values[strings.ToLower(name)]
	if !ok {
		return
	}
	if n, isInt := v.Data.(uint64); isInt {
		*target = n != 0
		return
	}
	if parsed, err := strconv.ParseBool(strings.TrimSpace(v.String())); err == nil {
		*target = parsed
	}
}

// loadInt accepts a DWORD or a decimal string.
func loadInt(values map[string]registry.Value, name string, target *int) {
	v, ok := values[strings.ToLower(name)]
	if !ok {
		return
	}
	if n, isInt := v.Data.(uint64); isInt {
		*target = int(n)
		return
	}
	if parsed, err := strconv.Atoi(strings.TrimSpace(v.String())); err == nil {
		*target = parsed
	}
}
