package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Save writes cfg to hubber.yaml in dir. Keys hubber does not manage, and
// the comments and ordering of existing keys, are preserved. The file holds
// the access token, so it is only readable by the owner.
func Save(dir string, cfg *Config) error {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configPath := filepath.Join(dir, FileName)
	doc, err := loadDocument(configPath)
	if err != nil {
		return err
	}

	switch cfg.TokenSource {
	case TokenSourceConfig, TokenSourceNone:
		if cfg.AccessToken == "" {
			doc.remove("access_token")
		} else {
			doc.setScalar("access_token", cfg.AccessToken)
		}
	}

	if cfg.APIURL != "" {
		doc.setScalar("api_url", cfg.APIURL)
	}
	if cfg.Name != "" {
		doc.setScalar("name", cfg.Name)
	}
	if cfg.Email != "" {
		doc.setScalar("email", cfg.Email)
	}
	if cfg.DefaultBaseBranch != "" {
		doc.setScalar("default_base_branch", cfg.DefaultBaseBranch)
	}
	if cfg.MaxConcurrency != 0 {
		doc.setScalar("max_concurrency", cfg.MaxConcurrency)
	}
	if cfg.RequestTimeout != 0 && cfg.RequestTimeout != DefaultRequestTimeout {
		doc.setScalar("request_timeout", cfg.RequestTimeout.String())
	}
	if cfg.LabelPreset != "" {
		doc.setScalar("label_preset", cfg.LabelPreset)
	}

	workflow := doc.section("workflow_labels")
	for _, entry := range [][2]string{
		{"todo", cfg.WorkflowLabels.Todo},
		{"doing", cfg.WorkflowLabels.Doing},
		{"review", cfg.WorkflowLabels.Review},
	} {
		if entry[1] != "" {
			setIn(workflow, entry[0], scalarNode(entry[1]))
		}
	}
	if len(workflow.Content) == 0 {
		doc.remove("workflow_labels")
	}

	if len(cfg.RemoteRepos) > 0 {
		if err := doc.setEncoded("remote_repos", cfg.RemoteRepos); err != nil {
			return err
		}
	}
	if len(cfg.Presets) > 0 {
		if err := doc.setEncoded("presets", cfg.Presets); err != nil {
			return err
		}
	}

	content, err := yaml.Marshal(doc.doc)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, content, 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// document is a YAML file edited in place through its node tree.
type document struct {
	doc  *yaml.Node
	root *yaml.Node
}

func loadDocument(path string) (*document, error) {
	d := &document{}

	if content, err := os.ReadFile(path); err == nil {
		node := &yaml.Node{}
		if err := yaml.Unmarshal(content, node); err != nil {
			return nil, fmt.Errorf("parsing existing config: %w", err)
		}
		if len(node.Content) > 0 && node.Content[0].Kind == yaml.MappingNode {
			d.doc = node
			d.root = node.Content[0]
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading existing config: %w", err)
	}

	if d.root == nil {
		d.root = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		d.doc = &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{d.root}}
	}
	return d, nil
}

func (d *document) setScalar(key string, value any) {
	setIn(d.root, key, scalarNode(value))
}

func (d *document) setEncoded(key string, value any) error {
	node := &yaml.Node{}
	if err := node.Encode(value); err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	setIn(d.root, key, node)
	return nil
}

// section returns the mapping stored under key, creating it if needed.
func (d *document) section(key string) *yaml.Node {
	for i := 0; i < len(d.root.Content); i += 2 {
		if d.root.Content[i].Value == key {
			if d.root.Content[i+1].Kind != yaml.MappingNode {
				d.root.Content[i+1] = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
			}
			return d.root.Content[i+1]
		}
	}
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	d.root.Content = append(d.root.Content, keyNode(key), node)
	return node
}

func (d *document) remove(key string) {
	for i := 0; i < len(d.root.Content); i += 2 {
		if d.root.Content[i].Value == key {
			d.root.Content = append(d.root.Content[:i], d.root.Content[i+2:]...)
			return
		}
	}
}

// setIn sets key in mapping. An existing scalar keeps its node, and with it
// any attached comment.
func setIn(mapping *yaml.Node, key string, value *yaml.Node) {
	for i := 0; i < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value != key {
			continue
		}
		existing := mapping.Content[i+1]
		if existing.Kind == yaml.ScalarNode && value.Kind == yaml.ScalarNode {
			existing.Value = value.Value
			existing.Tag = value.Tag
			existing.Style = value.Style
			return
		}
		mapping.Content[i+1] = value
		return
	}
	mapping.Content = append(mapping.Content, keyNode(key), value)
}

func keyNode(key string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}
}

func scalarNode(v any) *yaml.Node {
	switch val := v.(type) {
	case string:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: val}
	case bool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: fmt.Sprintf("%t", val)}
	case int:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: fmt.Sprintf("%d", val)}
	default:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: fmt.Sprintf("%v", val)}
	}
}
