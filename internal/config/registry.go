package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	appName    = "formstate"
	configFile = "config.yaml"
)

// ErrUnknownForm is returned by Resolve when the argument is neither a
// registered name nor an existing file.
var ErrUnknownForm = errors.New("unknown form")

var (
	// Global registry instance (loaded lazily)
	globalRegistry     *Registry
	globalRegistryOnce sync.Once
	globalRegistryErr  error

	// Mutex for thread-safe file operations
	fileMutex sync.Mutex
)

// GetConfigDir returns the OS-appropriate configuration directory for the application.
//   - Linux: $XDG_CONFIG_HOME/formstate or $HOME/.config/formstate
//   - macOS: $HOME/.config/formstate
//   - Windows: %LOCALAPPDATA%\formstate
func GetConfigDir() (string, error) {
	var baseDir string

	switch runtime.GOOS {
	case "windows":
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			userProfile := os.Getenv("USERPROFILE")
			if userProfile == "" {
				return "", fmt.Errorf("cannot determine user profile directory (LOCALAPPDATA and USERPROFILE not set)")
			}
			baseDir = filepath.Join(userProfile, "AppData", "Local", appName)
		} else {
			baseDir = filepath.Join(localAppData, appName)
		}

	case "darwin":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		baseDir = filepath.Join(homeDir, ".config", appName)

	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			baseDir = filepath.Join(xdg, appName)
		} else {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("cannot determine home directory: %w", err)
			}
			baseDir = filepath.Join(homeDir, ".config", appName)
		}
	}

	return baseDir, nil
}

// GetConfigPath returns the full path to the configuration file.
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, configFile), nil
}

// LoadRegistry loads the configuration registry from disk.
// If the file doesn't exist, returns a new default registry.
// Thread-safe - multiple calls will return the same instance.
func LoadRegistry() (*Registry, error) {
	globalRegistryOnce.Do(func() {
		configPath, err := GetConfigPath()
		if err != nil {
			globalRegistryErr = fmt.Errorf("failed to get config path: %w", err)
			return
		}
		globalRegistry, globalRegistryErr = LoadRegistryFrom(configPath)
	})
	return globalRegistry, globalRegistryErr
}

// LoadRegistryFrom reads a registry file. A missing file yields a default registry.
func LoadRegistryFrom(configPath string) (*Registry, error) {
	data, err := os.ReadFile(configPath)
	if errors.Is(err, os.ErrNotExist) {
		return NewRegistry(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var registry Registry
	if err := yaml.Unmarshal(data, &registry); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if registry.Version != 1 {
		return nil, fmt.Errorf("unsupported config version: %d (expected 1)", registry.Version)
	}

	if registry.Forms == nil {
		registry.Forms = make(map[string]*FormEntry)
	}
	if registry.Preferences == nil {
		registry.Preferences = defaultPreferences()
	}
	if registry.Preferences.Listen == "" {
		registry.Preferences.Listen = DefaultListen
	}

	return &registry, nil
}

// Save writes the registry to the default configuration path.
func (r *Registry) Save() error {
	configPath, err := GetConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}
	return r.SaveTo(configPath)
}

// SaveTo writes the registry to configPath.
// Performs an atomic write to prevent corruption on crash.
func (r *Registry) SaveTo(configPath string) error {
	fileMutex.Lock()
	defer fileMutex.Unlock()

	if err := os.MkdirAll(filepath.Dir(configPath), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# formstate configuration file
# Registered form definitions and preferences. Form values are never stored here.
#
# Location: ` + configPath + `

`)
	data = append(header, data...)

	tmpPath := configPath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary config file: %w", err)
	}

	if err := os.Rename(tmpPath, configPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to save config file: %w", err)
	}

	return nil
}

// Resolve maps a form argument to a definition file. A registered name wins;
// otherwise the argument must be an existing file. The returned name is the
// registered name, or "" for a plain path.
func (r *Registry) Resolve(arg string) (name, path string, err error) {
	if entry, ok := r.Forms[arg]; ok {
		return arg, entry.Path, nil
	}
	info, statErr := os.Stat(arg)
	if statErr != nil || info.IsDir() {
		return "", "", fmt.Errorf("%w: %q is neither a registered name nor a file", ErrUnknownForm, arg)
	}
	return "", arg, nil
}
