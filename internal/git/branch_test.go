package git

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIssueBranchName(t *testing.T) {
	assert.Equal(t, "12-Fix-login-button", IssueBranchName(12, "Fix login button"))
	assert.Equal(t, "3-Crash-on-start", IssueBranchName(3, "Crash on start?"))
	assert.Equal(t, "4", IssueBranchName(4, "???"))
}

func TestIssueNumberFromBranch(t *testing.T) {
	tests := []struct {
		branch string
		want   int
		ok     bool
	}{
		{"12-Fix-login-button", 12, true},
		{"7", 7, true},
		{"master", 0, false},
		{"feature-12", 0, false},
		{"0-zero", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.branch, func(t *testing.T) {
			n, ok := IssueNumberFromBranch(tt.branch)
			assert.Equal(t, tt.want, n)
			assert.Equal(t, tt.ok, ok)
		})
	}
}
