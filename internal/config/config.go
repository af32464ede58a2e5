// Package config provides configuration management for the deskmote host.
package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sync"
)

// Config represents the host configuration
type Config struct {
	// Port is the control server listen port
	Port int `json:"port"`

	// FrameWidth is the target width mirror frames are downscaled to
	FrameWidth int `json:"frame_width"`

	// Quality is the JPEG quality for mirror frames (1-100)
	Quality int `json:"quality"`

	// StartMinimized starts the host without opening anything visible
	StartMinimized bool `json:"start_minimized"`
}

// DefaultConfig returns a new Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Port:           8137,
		FrameWidth:     640,
		Quality:        70,
		StartMinimized: true,
	}
}

// Manager handles loading, saving and live-updating configuration
type Manager struct {
	mu         sync.Mutex
	configPath string
	config     *Config
	onChanged  func()
}

// NewManager creates a new configuration manager rooted at the platform
// config directory.
func NewManager() (*Manager, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	return &Manager{
		configPath: filepath.Join(dir, "config.json"),
		config:     DefaultConfig(),
	}, nil
}

// NewManagerAt creates a manager backed by an explicit config file path.
func NewManagerAt(path string) *Manager {
	return &Manager{
		configPath: path,
		config:     DefaultConfig(),
	}
}

// Dir returns the deskmote configuration directory, creating it if needed.
func Dir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "deskmote")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		configDir = filepath.Join(appData, "deskmote")
	default:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, ".config", "deskmote")
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", err
	}
	return configDir, nil
}

// Load reads the configuration from disk
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(m.configPath)
	if os.IsNotExist(err) {
		// No config file, use defaults
		return nil
	}
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, m.config); err != nil {
		return err
	}
	if m.onChanged != nil {
		m.onChanged()
	}
	return nil
}

// Save writes the configuration to disk
func (m *Manager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveLocked()
}

func (m *Manager) saveLocked() error {
	data, err := json.MarshalIndent(m.config, "", "  ")
	if err != nil {
		return err
	}

	log.Printf("Config: Saving configuration to %s (%d bytes)", m.configPath, len(data))
	return os.WriteFile(m.configPath, data, 0644)
}

// Get returns a snapshot of the current configuration
func (m *Manager) Get() Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.config
}

// RegisterChangeCallback registers a function to be called when config changes
func (m *Manager) RegisterChangeCallback(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChanged = fn
}

// Update applies a single allow-listed configuration change coming from the
// wire. The value arrives as raw JSON and is validated strictly; any key not
// on the allow list is rejected.
func (m *Manager) Update(key string, value json.RawMessage) error {
	if err := m.applyUpdate(key, value); err != nil {
		return err
	}
	if m.onChanged != nil {
		m.onChanged()
	}
	return nil
}

func (m *Manager) applyUpdate(key string, value json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch key {
	case "port":
		port, err := decodeInt(value)
		if err != nil {
			return fmt.Errorf("port must be an integer: %w", err)
		}
		if port < 1 || port > 65535 {
			return fmt.Errorf("port %d out of range [1,65535]", port)
		}
		m.config.Port = port

	case "frame_width":
		width, err := decodeInt(value)
		if err != nil {
			return fmt.Errorf("frame_width must be an integer: %w", err)
		}
		if width < 160 || width > 3840 {
			return fmt.Errorf("frame_width %d out of range [160,3840]", width)
		}
		m.config.FrameWidth = width

	case "quality":
		quality, err := decodeInt(value)
		if err != nil {
			return fmt.Errorf("quality must be an integer: %w", err)
		}
		if quality < 1 || quality > 100 {
			return fmt.Errorf("quality %d out of range [1,100]", quality)
		}
		m.config.Quality = quality

	default:
		return fmt.Errorf("unknown config key %q", key)
	}

	return m.saveLocked()
}

// decodeInt accepts only a JSON number with no fractional part
func decodeInt(raw json.RawMessage) (int, error) {
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, err
	}
	n := int(f)
	if float64(n) != f {
		return 0, fmt.Errorf("not an integer: %v", f)
	}
	return n, nil
}
