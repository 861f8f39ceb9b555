package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LocalStateFile is kept in the repository root and must never be committed.
const LocalStateFile = ".hubber.local"

// LocalState remembers the issue being worked on in one repository.
type LocalState struct {
	IssueNumber int    `yaml:"issue_number,omitempty"`
	IssueTitle  string `yaml:"issue_title,omitempty"`
	Branch      string `yaml:"branch,omitempty"`
}

// ReadLocalState reads .hubber.local from repoPath. A missing file yields an
// empty state.
func ReadLocalState(repoPath string) (*LocalState, error) {
	content, err := os.ReadFile(filepath.Join(repoPath, LocalStateFile))
	if os.IsNotExist(err) {
		return &LocalState{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading local state: %w", err)
	}

	var state LocalState
	if err := yaml.Unmarshal(content, &state); err != nil {
		return nil, fmt.Errorf("parsing local state: %w", err)
	}

	return &state, nil
}

// WriteLocalState merges data into .hubber.local, keeping unknown keys.
func WriteLocalState(repoPath string, data LocalState) error {
	configPath := filepath.Join(repoPath, LocalStateFile)

	var existing map[string]interface{}
	if content, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(content, &existing); err != nil {
			return fmt.Errorf("parsing existing local state: %w", err)
		}
	}

	if existing == nil {
		existing = make(map[string]interface{})
	}

	if data.IssueNumber != 0 {
		existing["issue_number"] = data.IssueNumber
	}
	if data.IssueTitle != "" {
		existing["issue_title"] = data.IssueTitle
	}
	if data.Branch != "" {
		existing["branch"] = data.Branch
	}

	content, err := yaml.Marshal(existing)
	if err != nil {
		return fmt.Errorf("marshaling local state: %w", err)
	}

	if err := os.WriteFile(configPath, content, 0644); err != nil {
		return fmt.Errorf("writing local state: %w", err)
	}

	return nil
}

// ClearLocalState removes .hubber.local.
func ClearLocalState(repoPath string) error {
	err := os.Remove(filepath.Join(repoPath, LocalStateFile))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing local state: %w", err)
	}
	return nil
}
