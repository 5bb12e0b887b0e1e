// Package features holds runtime feature flags that operators can flip
// without a redeploy.
package features

import (
	"sort"
	"sync"
)

// Flag names.
const (
	// ModelScoring routes scoring through the prediction oracle. When off, only
	// the rule-based strategy runs.
	ModelScoring = "model_scoring"
)

// Flag is a snapshot of one feature flag.
type Flag struct {
	Name        string `json:"name"`
	Enabled     bool   `json:"enabled"`
	Description string `json:"description"`
}

// Manager is safe for concurrent use.
type Manager struct {
	mu    sync.RWMutex
	flags map[string]*Flag
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	return &Manager{flags: make(map[string]*Flag)}
}

// Register adds or replaces a flag.
func (m *Manager) Register(name string, enabled bool, description string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flags[name] = &Flag{Name: name, Enabled: enabled, Description: description}
}

// IsEnabled reports the flag state. Unknown flags are disabled.
// A nil manager reports every flag as enabled.
func (m *Manager) IsEnabled(name string) bool {
	if m == nil {
		return true
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	flag, ok := m.flags[name]
	return ok && flag.Enabled
}

// Set changes a registered flag. It reports false for unknown flags.
func (m *Manager) Set(name string, enabled bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	flag, ok := m.flags[name]
	if !ok {
		return false
	}
	flag.Enabled = enabled
	return true
}

// All returns copies of every flag sorted by name.
func (m *Manager) All() []Flag {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Flag, 0, len(m.flags))
	for _, f := range m.flags {
		out = append(out, *f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
