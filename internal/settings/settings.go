// Package settings persists the last used scan parameters between runs.
package settings

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// Window is the last known window geometry. The CLI keeps it untouched so a
// front end sharing the file does not lose it.
type Window struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Settings holds the persisted scan parameters.
type Settings struct {
	LastDirectory string   `json:"last_directory,omitempty"`
	Recursive     bool     `json:"recursive"`
	Depth         int      `json:"depth,omitempty"`
	MaskText      string   `json:"mask_text,omitempty"`
	Mode          string   `json:"mode,omitempty"`
	Accepted      []string `json:"accepted,omitempty"`
	Detector      string   `json:"detector,omitempty"`
	Window        Window   `json:"window"`
}

// Defaults returns the settings used when no file exists yet.
func Defaults() Settings {
	return Settings{
		Recursive: true,
		MaskText:  "*.txt",
		Mode:      "view",
		Accepted:  []string{"UTF-8"},
		Window:    Window{X: -1, Y: -1, Width: 1024, Height: 768},
	}
}

// Manager handles loading and saving settings
type Manager struct {
	fs           afero.Fs
	path         string
	settings     Settings
	mu           sync.RWMutex
	dirty        bool
	saveTimer    *time.Timer
	saveDuration time.Duration
}

// NewManager creates a manager for path on fs. An empty path selects
// DefaultPath and a nil fs the OS filesystem.
func NewManager(fs afero.Fs, path string) *Manager {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if path == "" {
		path = DefaultPath()
	}
	return &Manager{
		fs:           fs,
		path:         path,
		settings:     Defaults(),
		saveDuration: 2 * time.Second,
	}
}

// DefaultPath returns ~/.charsetfinder/settings.json.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".charsetfinder-settings.json"
	}
	return filepath.Join(home, ".charsetfinder", "settings.json")
}

// Path returns the settings file path.
func (m *Manager) Path() string { return m.path }

// Load reads settings from disk. A missing file keeps the defaults.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := afero.ReadFile(m.fs, m.path)
	if err != nil {
		if os.IsNotExist(err) {
			m.settings = Defaults()
			return nil
		}
		return err
	}

	s := Defaults()
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	m.settings = s
	return nil
}

// Get returns a copy of the current settings.
func (m *Manager) Get() Settings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.settings
	s.Accepted = append([]string(nil), m.settings.Accepted...)
	return s
}

// Save writes settings to disk immediately
func (m *Manager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveLocked()
}

// saveLocked requires m.mu held.
func (m *Manager) saveLocked() error {
	if err := m.fs.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(m.settings, "", "  ")
	if err != nil {
		return err
	}
	m.dirty = false
	return afero.WriteFile(m.fs, m.path, data, 0644)
}

// Update applies fn and schedules a debounced save.
func (m *Manager) Update(fn func(*Settings)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	fn(&m.settings)
	m.dirty = true

	if m.saveTimer != nil {
		m.saveTimer.Stop()
	}
	m.saveTimer = time.AfterFunc(m.saveDuration, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.dirty {
			if err := m.saveLocked(); err != nil {
				logrus.WithError(err).WithField("path", m.path).Warn("Failed to save settings")
			}
		}
	})
}

// Close writes any pending change.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.saveTimer != nil {
		m.saveTimer.Stop()
		m.saveTimer = nil
	}
	if m.dirty {
		return m.saveLocked()
	}
	return nil
}
