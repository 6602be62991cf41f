package assistant

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Store exposes profile retrieval for HTTP handlers.
type Store interface {
	List() []Profile
	FindByID(id string) (Profile, bool)
}

// MemoryStore implements Store with an in-memory slice.
type MemoryStore struct {
	items []Profile
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied profiles.
func NewMemoryStore(items []Profile) *MemoryStore {
	return &MemoryStore{items: append([]Profile(nil), items...)}
}

// List returns the configured profiles.
func (s *MemoryStore) List() []Profile {
	return append([]Profile(nil), s.items...)
}

// FindByID looks up a profile by identifier.
func (s *MemoryStore) FindByID(id string) (Profile, bool) {
	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return Profile{}, false
}

type overrideFile struct {
	Profiles []Profile `yaml:"profiles"`
}

// LoadOverrides reads a YAML file of profile overrides and applies them to
// base. Profiles with an unknown id are appended as new profiles.
func LoadOverrides(path string, base []Profile) ([]Profile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile overrides: %w", err)
	}
	return ApplyOverrides(raw, base)
}

// ApplyOverrides merges YAML encoded overrides into base.
func ApplyOverrides(raw []byte, base []Profile) ([]Profile, error) {
	var file overrideFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("decode profile overrides: %w", err)
	}

	merged := append([]Profile(nil), base...)
	for _, override := range file.Profiles {
		if override.ID == "" {
			return nil, fmt.Errorf("profile override without id")
		}
		found := false
		for i := range merged {
			if merged[i].ID == override.ID {
				merged[i] = merged[i].Merge(override)
				found = true
				break
			}
		}
		if !found {
			merged = append(merged, override)
		}
	}
	return merged, nil
}
