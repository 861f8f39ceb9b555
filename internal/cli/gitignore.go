package cli

import (
	"context"
	"os"
	"path/filepath"

	"github.com/naoray/hubber/internal/config"
	"github.com/naoray/hubber/internal/git"
	"github.com/naoray/hubber/internal/ui"
)

// checkLocalStateIgnored warns when .hubber.local exists but git would pick
// it up.
func checkLocalStateIgnored(ctx context.Context, repo *git.Repository) {
	if _, err := os.Stat(filepath.Join(repo.Dir, config.LocalStateFile)); os.IsNotExist(err) {
		return
	}

	ignored, err := repo.IsIgnored(ctx, config.LocalStateFile)
	if err == nil && ignored {
		return
	}

	ui.PrintWarning("Add %s to .gitignore to prevent committing local state", config.LocalStateFile)
}
