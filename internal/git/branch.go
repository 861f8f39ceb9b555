package git

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/naoray/hubber/internal/utils"
)

// IssueBranchName is the branch an issue is worked on: its number, a dash and
// the title with whitespace replaced by dashes.
func IssueBranchName(number int, title string) string {
	name := utils.SanitizeBranchName(title)
	if name == "" {
		return strconv.Itoa(number)
	}
	return fmt.Sprintf("%d-%s", number, name)
}

// IssueNumberFromBranch parses the issue number an issue branch starts with.
func IssueNumberFromBranch(branch string) (int, bool) {
	prefix, _, _ := strings.Cut(branch, "-")
	n, err := strconv.Atoi(prefix)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
