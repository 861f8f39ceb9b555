package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/naoray/hubber/internal/cli"
	hubbererrors "github.com/naoray/hubber/internal/errors"
	"github.com/naoray/hubber/internal/ui"
)

// These variables are set at build time via -ldflags
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

func main() {
	cli.Version = Version
	cli.Commit = Commit
	cli.BuildDate = BuildDate

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := cli.ExecuteContext(ctx)
	stop()

	if err != nil {
		if ui.IsAbort(ui.NormalizeAbort(err)) {
			ui.PrintWarning("Aborted")
		} else {
			ui.PrintError(err)
		}
	}
	os.Exit(hubbererrors.ExitCode(ui.NormalizeAbort(err)))
}
