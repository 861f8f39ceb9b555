package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// legacyKeys maps the camelCase keys of older config files to current ones.
var legacyKeys = map[string]string{
	"accessToken": "access_token",
	"remoteRepos": "remote_repos",
}

// MigrateLegacyKeys renames camelCase keys in hubber.yaml to their current
// names. When both forms exist the current one wins and the legacy key is
// dropped. Returns true if the file was rewritten.
func MigrateLegacyKeys(dir string) (bool, error) {
	configPath := filepath.Join(dir, FileName)

	content, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", FileName, err)
	}

	doc := &yaml.Node{}
	if err := yaml.Unmarshal(content, doc); err != nil {
		return false, fmt.Errorf("parsing %s: %w", FileName, err)
	}
	if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return false, nil
	}
	root := doc.Content[0]

	present := make(map[string]bool, len(root.Content)/2)
	for i := 0; i < len(root.Content); i += 2 {
		present[root.Content[i].Value] = true
	}

	migrated := false
	kept := root.Content[:0]
	for i := 0; i < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		if current, ok := legacyKeys[key.Value]; ok {
			migrated = true
			if present[current] {
				continue
			}
			key.Value = current
		}
		kept = append(kept, key, value)
	}
	root.Content = kept

	if !migrated {
		return false, nil
	}

	newContent, err := yaml.Marshal(doc)
	if err != nil {
		return false, fmt.Errorf("marshaling %s: %w", FileName, err)
	}

	if err := os.WriteFile(configPath, newContent, 0600); err != nil {
		return false, fmt.Errorf("writing %s: %w", FileName, err)
	}

	return true, nil
}
