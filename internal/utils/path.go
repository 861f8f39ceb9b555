package utils

import (
	"regexp"
	"strings"
)

var (
	whitespace      = regexp.MustCompile(`\s+`)
	invalidRefChars = regexp.MustCompile(`[~^:?*\[\\\x00-\x1f\x7f]`)
	repeatedDots    = regexp.MustCompile(`\.{2,}`)
)

// SanitizeBranchName turns free text into something git accepts as a branch
// name: whitespace runs become '-', characters git forbids in refs are dropped.
func SanitizeBranchName(name string) string {
	name = whitespace.ReplaceAllString(strings.TrimSpace(name), "-")
	name = invalidRefChars.ReplaceAllString(name, "")
	name = repeatedDots.ReplaceAllString(name, ".")
	name = strings.TrimSuffix(name, ".lock")
	return strings.Trim(name, "-./")
}

// IsGitShortFormat detects the owner/repo form.
func IsGitShortFormat(repo string) bool {
	if strings.ContainsAny(repo, "@:") {
		return false
	}
	parts := strings.Split(repo, "/")
	return len(parts) == 2 && parts[0] != "" && parts[1] != ""
}

// Truncate shortens s to at most max runes, marking the cut with an ellipsis.
func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 1 {
		return string(runes[:max])
	}
	return string(runes[:max-1]) + "…"
}
