package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/naoray/hubber/internal/github"
	"github.com/naoray/hubber/internal/ui"
)

var pullsCmd = &cobra.Command{
	Use:   "pulls",
	Short: "Work with pull requests",
}

var pullsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the open pull requests of the current repository",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cc, err := openCommandContext(cmd)
		if err != nil {
			return err
		}
		repo, _ := cmd.Flags().GetString("repo")
		return runPullsList(cc, repo)
	},
}

func runPullsList(cc *CommandContext, repoFlag string) error {
	repo, err := cc.RepoOrCurrent(repoFlag)
	if err != nil {
		return err
	}

	pulls, err := ui.Fetch(cc.Ctx, "Fetching pull requests of "+repo.String(), func(ctx context.Context) ([]github.PullRequest, error) {
		return cc.GitHub.ListPullRequests(ctx, repo)
	})
	if err != nil {
		return err
	}
	if len(pulls) == 0 {
		ui.PrintMuted("No open pull requests in %s", repo)
		return nil
	}

	ui.PrintHeader(fmt.Sprintf("%s (%d open)", repo, len(pulls)))
	for _, pr := range pulls {
		ui.PrintInfo("#%d %s", pr.Number, pr.Title)
		ui.PrintMuted("   %s -> %s by %s", pr.Head, pr.Base, pr.Author)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(pullsCmd)
	pullsCmd.AddCommand(pullsListCmd)

	pullsListCmd.Flags().String("repo", "", "Repository to list (owner/name, default: the current one)")
}
