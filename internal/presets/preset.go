// Package presets provides named label sets that can be seeded into a
// repository.
package presets

import (
	"fmt"
	"sort"

	"github.com/naoray/hubber/internal/labels"
)

// Preset is a named set of labels.
type Preset interface {
	Name() string
	Description() string
	Labels() []labels.Label
}

type basePreset struct {
	name        string
	description string
	labels      []labels.Label
}

func (p *basePreset) Name() string        { return p.name }
func (p *basePreset) Description() string { return p.description }

// Labels returns a copy so callers cannot alter the preset.
func (p *basePreset) Labels() []labels.Label {
	return append([]labels.Label(nil), p.labels...)
}

// Manager holds the known presets by name.
type Manager struct {
	presets map[string]Preset
}

// NewManager returns a Manager with the built-in presets registered.
func NewManager() *Manager {
	m := &Manager{presets: make(map[string]Preset)}
	m.Register(NewWorkflow())
	m.Register(NewMinimal())
	return m
}

// Register adds p, replacing any preset with the same name.
func (m *Manager) Register(p Preset) {
	m.presets[p.Name()] = p
}

// RegisterCustom adds a user-defined preset after validating its labels.
func (m *Manager) RegisterCustom(name string, set []labels.Label) error {
	for _, l := range set {
		if err := labels.Validate(l); err != nil {
			return fmt.Errorf("preset %q: %w", name, err)
		}
	}
	m.Register(&basePreset{name: name, description: "custom preset", labels: set})
	return nil
}

// Get returns the preset called name.
func (m *Manager) Get(name string) (Preset, error) {
	p, ok := m.presets[name]
	if !ok {
		return nil, fmt.Errorf("unknown label preset %q (available: %v)", name, m.Names())
	}
	return p, nil
}

// Names lists the registered presets alphabetically.
func (m *Manager) Names() []string {
	names := make([]string, 0, len(m.presets))
	for name := range m.presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
