// Package templates loads issue templates and splits them into YAML front
// matter and body.
package templates

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// RepoDir is where GitHub looks for issue templates inside a repository.
const RepoDir = ".github/ISSUE_TEMPLATE"

//go:embed defaults/*.md
var defaultFS embed.FS

// FrontMatter is the metadata block of an issue template.
type FrontMatter struct {
	Name      string   `yaml:"name"`
	About     string   `yaml:"about"`
	Title     string   `yaml:"title"`
	Labels    NameList `yaml:"labels"`
	Assignees NameList `yaml:"assignees"`
}

// NameList accepts either a YAML sequence or a comma separated string.
type NameList []string

func (l *NameList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		*l = splitNames(value.Value)
		return nil
	case yaml.SequenceNode:
		var items []string
		if err := value.Decode(&items); err != nil {
			return err
		}
		var names NameList
		for _, item := range items {
			if item = strings.TrimSpace(item); item != "" {
				names = append(names, item)
			}
		}
		*l = names
		return nil
	default:
		return fmt.Errorf("line %d: expected a string or a list", value.Line)
	}
}

func splitNames(s string) NameList {
	var names NameList
	for _, part := range strings.Split(s, ",") {
		if part = strings.Trim(strings.TrimSpace(part), `'"`); part != "" {
			names = append(names, part)
		}
	}
	return names
}

// Template is a parsed issue template.
type Template struct {
	FileName string
	FrontMatter
	Body string
	// Raw is the full file content, front matter included.
	Raw string
}

// DisplayName is the front matter name, or the file name without extension.
func (t *Template) DisplayName() string {
	if t.Name != "" {
		return t.Name
	}
	return strings.TrimSuffix(t.FileName, filepath.Ext(t.FileName))
}

// Parse splits content into front matter and body. Content without a
// leading "---" line has no front matter.
func Parse(fileName string, content []byte) (*Template, error) {
	raw := string(content)
	tpl := &Template{FileName: fileName, Raw: raw}

	text := strings.ReplaceAll(raw, "\r\n", "\n")
	if !strings.HasPrefix(text, "---\n") {
		tpl.Body = strings.TrimSpace(text)
		return tpl, nil
	}

	rest := "\n" + text[len("---\n"):]
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return nil, fmt.Errorf("parsing %s: front matter is not terminated", fileName)
	}

	if err := yaml.Unmarshal([]byte(rest[:end]), &tpl.FrontMatter); err != nil {
		return nil, fmt.Errorf("parsing %s front matter: %w", fileName, err)
	}

	body := rest[end+len("\n---"):]
	if i := strings.Index(body, "\n"); i >= 0 {
		body = body[i+1:]
	} else {
		body = ""
	}
	tpl.Body = strings.TrimSpace(body)
	return tpl, nil
}

// Defaults returns the templates shipped with hubber.
func Defaults() ([]*Template, error) {
	return loadFS(defaultFS, "defaults")
}

// Discover returns the markdown templates in the repository at repoPath.
// It returns nil when the repository has no template directory.
func Discover(repoPath string) ([]*Template, error) {
	dir := filepath.Join(repoPath, RepoDir)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, nil
	}
	return loadFS(os.DirFS(dir), ".")
}

// Load prefers the repository templates and falls back to the defaults.
func Load(repoPath string) ([]*Template, error) {
	tpls, err := Discover(repoPath)
	if err != nil {
		return nil, err
	}
	if len(tpls) > 0 {
		return tpls, nil
	}
	return Defaults()
}

// CopyDefaults writes the default templates into the repository at repoPath,
// skipping files that already exist. It returns the paths written, relative
// to repoPath.
func CopyDefaults(repoPath string) ([]string, error) {
	dir := filepath.Join(repoPath, RepoDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", RepoDir, err)
	}

	entries, err := fs.ReadDir(defaultFS, "defaults")
	if err != nil {
		return nil, fmt.Errorf("reading default templates: %w", err)
	}

	var written []string
	for _, entry := range entries {
		target := filepath.Join(dir, entry.Name())
		if _, err := os.Stat(target); err == nil {
			continue
		}
		content, err := defaultFS.ReadFile("defaults/" + entry.Name())
		if err != nil {
			return written, fmt.Errorf("reading %s: %w", entry.Name(), err)
		}
		if err := os.WriteFile(target, content, 0644); err != nil {
			return written, fmt.Errorf("writing %s: %w", target, err)
		}
		written = append(written, filepath.Join(RepoDir, entry.Name()))
	}
	return written, nil
}

func loadFS(fsys fs.FS, dir string) ([]*Template, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("reading templates: %w", err)
	}

	var tpls []*Template
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".md") {
			continue
		}
		content, err := fs.ReadFile(fsys, filepath.ToSlash(filepath.Join(dir, entry.Name())))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", entry.Name(), err)
		}
		tpl, err := Parse(entry.Name(), bytes.TrimPrefix(content, []byte("\xef\xbb\xbf")))
		if err != nil {
			return nil, err
		}
		tpls = append(tpls, tpl)
	}

	sort.Slice(tpls, func(i, j int) bool { return tpls[i].FileName < tpls[j].FileName })
	return tpls, nil
}
