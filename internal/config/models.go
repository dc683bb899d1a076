package config

import (
	"sort"
	"time"
)

// Default preference values.
const (
	DefaultListen   = "127.0.0.1:8765"
	DefaultLogLevel = ""
)

// Registry represents the entire user configuration file.
// It stores named form definitions and application preferences, never form values.
type Registry struct {
	Version     int                   `yaml:"version"`
	Forms       map[string]*FormEntry `yaml:"forms,omitempty"` // Keyed by form name
	Preferences *Preferences          `yaml:"preferences,omitempty"`
}

// FormEntry points a registered name at a definition file.
type FormEntry struct {
	Path       string    `yaml:"path"`                  // Absolute path to the definition file
	LastOpened time.Time `yaml:"last_opened,omitempty"` // Last time the form was run or served
}

// Preferences represents application-wide user preferences.
type Preferences struct {
	LogLevel  string `yaml:"log_level,omitempty"` // debug, info, warn, error; empty disables logging
	Listen    string `yaml:"listen"`              // Default address for the event bridge
	Advertise bool   `yaml:"advertise"`           // Advertise the bridge over mDNS
}

func defaultPreferences() *Preferences {
	return &Preferences{
		LogLevel:  DefaultLogLevel,
		Listen:    DefaultListen,
		Advertise: false,
	}
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version:     1,
		Forms:       make(map[string]*FormEntry),
		Preferences: defaultPreferences(),
	}
}

// GetForm retrieves a form entry by name.
// Returns nil if the name isn't registered.
func (r *Registry) GetForm(name string) *FormEntry {
	return r.Forms[name]
}

// AddForm registers path under name, replacing any previous entry.
func (r *Registry) AddForm(name, path string) *FormEntry {
	if r.Forms == nil {
		r.Forms = make(map[string]*FormEntry)
	}
	entry := &FormEntry{Path: path}
	r.Forms[name] = entry
	return entry
}

// RemoveForm unregisters name. It reports whether the name was registered.
func (r *Registry) RemoveForm(name string) bool {
	if _, ok := r.Forms[name]; !ok {
		return false
	}
	delete(r.Forms, name)
	return true
}

// TouchForm records that the named form was just opened.
func (r *Registry) TouchForm(name string) {
	if entry, ok := r.Forms[name]; ok {
		entry.LastOpened = time.Now()
	}
}

// FormNames returns the registered names in sorted order.
func (r *Registry) FormNames() []string {
	names := make([]string, 0, len(r.Forms))
	for name := range r.Forms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
