// Package labels reconciles issue labels across GitHub repositories.
//
// It owns the label data model and validation, computes which labels a
// repository is missing compared to a base repository, and applies
// creations, edits and deletions across many repositories at once. All
// remote access goes through the Store interface so the logic can be tested
// without a network.
package labels

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxDescriptionLength is the longest description GitHub accepts for a label.
const MaxDescriptionLength = 100

var colorPattern = regexp.MustCompile(`^[0-9A-Fa-f]{3}$|^[0-9A-Fa-f]{6}$`)

// Label is a named, colored tag attachable to issues and pull requests.
// Color is a 3 or 6 digit hex string without the leading '#'.
type Label struct {
	Name        string `mapstructure:"name" yaml:"name"`
	Description string `mapstructure:"description" yaml:"description"`
	Color       string `mapstructure:"color" yaml:"color"`
}

// RepositoryRef identifies a remote repository.
type RepositoryRef struct {
	Owner string
	Name  string
}

// String returns the owner/name form.
func (r RepositoryRef) String() string {
	return r.Owner + "/" + r.Name
}

// ParseRepositoryRef parses "owner/name".
func ParseRepositoryRef(s string) (RepositoryRef, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return RepositoryRef{}, fmt.Errorf("invalid repository %q: expected owner/name", s)
	}
	return RepositoryRef{Owner: parts[0], Name: parts[1]}, nil
}

// ParseRepositoryRefs parses a list of "owner/name" values, skipping blanks.
func ParseRepositoryRefs(values []string) ([]RepositoryRef, error) {
	var refs []RepositoryRef
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			continue
		}
		ref, err := ParseRepositoryRef(v)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// IsValidColor reports whether color is a 3 or 6 digit hex code without '#'.
func IsValidColor(color string) bool {
	return colorPattern.MatchString(color)
}

// Validate checks the label fields GitHub would reject.
func Validate(label Label) error {
	if strings.TrimSpace(label.Name) == "" {
		return &Error{Kind: KindValidationFailed, Label: label.Name, Err: fmt.Errorf("label name cannot be empty")}
	}
	if n := utf8.RuneCountInString(label.Description); n > MaxDescriptionLength {
		return &Error{
			Kind:  KindValidationFailed,
			Label: label.Name,
			Err:   fmt.Errorf("description must be at most %d characters, got %d", MaxDescriptionLength, n),
		}
	}
	if !IsValidColor(label.Color) {
		return &Error{Kind: KindValidationFailed, Label: label.Name, Err: fmt.Errorf("color %q is not a valid hex code", label.Color)}
	}
	return nil
}

// DiffMissing returns the labels of base whose name does not appear in
// target, in base order. Names are compared exactly; description and color
// are ignored.
func DiffMissing(base, target []Label) []Label {
	present := make(map[string]struct{}, len(target))
	for _, l := range target {
		present[l.Name] = struct{}{}
	}

	missing := make([]Label, 0, len(base))
	for _, l := range base {
		if _, ok := present[l.Name]; !ok {
			missing = append(missing, l)
		}
	}
	return missing
}

// Names returns the label names in order.
func Names(set []Label) []string {
	names := make([]string, len(set))
	for i, l := range set {
		names[i] = l.Name
	}
	return names
}
