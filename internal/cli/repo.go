package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/naoray/hubber/internal/bootstrap"
	"github.com/naoray/hubber/internal/config"
	hubbererrors "github.com/naoray/hubber/internal/errors"
	"github.com/naoray/hubber/internal/git"
	"github.com/naoray/hubber/internal/github"
	"github.com/naoray/hubber/internal/labels"
	"github.com/naoray/hubber/internal/ui"
	"github.com/naoray/hubber/internal/utils"
)

var repoCmd = &cobra.Command{
	Use:   "repo",
	Short: "Create and clone repositories",
}

type repoCreateOptions struct {
	org         string
	name        string
	description string
	private     bool
	privateSet  bool
	preset      string
	dir         string
}

var repoCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a repository and prepare it for the issue workflow",
	Long: `Creates a repository on GitHub, seeds it with a label preset, clones it,
adds the default issue templates and pushes an initial commit.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cc, err := openCommandContext(cmd)
		if err != nil {
			return err
		}
		var opts repoCreateOptions
		opts.org, _ = cmd.Flags().GetString("org")
		opts.name, _ = cmd.Flags().GetString("name")
		opts.description, _ = cmd.Flags().GetString("description")
		opts.private, _ = cmd.Flags().GetBool("private")
		opts.privateSet = cmd.Flags().Changed("private")
		opts.preset, _ = cmd.Flags().GetString("preset")
		opts.dir, _ = cmd.Flags().GetString("dir")
		return runRepoCreate(cc, opts)
	},
}

const personalOwner = ""

func runRepoCreate(cc *CommandContext, opts repoCreateOptions) error {
	login, err := cc.GitHub.Login(cc.Ctx)
	if err != nil {
		return err
	}

	org := opts.org
	if org == "" && ui.InputEnabled() {
		if org, err = chooseOwner(cc, login); err != nil {
			return err
		}
	}
	owner := org
	if owner == personalOwner {
		owner = login
	}

	name := opts.name
	if name == "" {
		if name, err = ui.Input("Repository name", "my-project", "", nonEmpty("name")); err != nil {
			return err
		}
	}

	description := opts.description
	if description == "" && ui.InputEnabled() {
		if description, err = ui.Input("Description", "optional", "", nil); err != nil {
			return err
		}
	}

	private := opts.private
	if !opts.privateSet && ui.InputEnabled() {
		if private, err = ui.Confirm("Make the repository private?"); err != nil {
			return err
		}
	}

	presetName := opts.preset
	if presetName == "" {
		presetName = cc.Config.LabelPreset
	}
	preset, err := cc.PresetManager().Get(presetName)
	if err != nil {
		return err
	}

	parent, err := targetDir(cc, opts.dir)
	if err != nil {
		return err
	}

	ref := labels.RepositoryRef{Owner: owner, Name: name}
	if cc.DryRun {
		ui.PrintInfo("[DRY-RUN] Would create %s (private: %t)", ref, private)
	} else {
		created, err := ui.Fetch(cc.Ctx, "Creating "+ref.String(), func(ctx context.Context) (*github.Repository, error) {
			return cc.GitHub.CreateRepository(ctx, github.NewRepository{Org: org, Name: name, Description: description, Private: private})
		})
		if err != nil {
			return err
		}
		ref = created.Ref
		ui.PrintSuccess("Created %s", ref)
	}

	rc := bootstrap.NewRepoContext(ref, parent, git.InsertToken(git.HTTPSURL(ref.Owner, ref.Name), cc.Config.AccessToken), preset.Labels())
	if err := runBootstrap(cc, bootstrap.NewRepositorySteps(cc.Reconciler(), cc.Commander), rc); err != nil {
		return err
	}

	return rememberClone(cc, ref, rc.Dir)
}

func chooseOwner(cc *CommandContext, login string) (string, error) {
	orgs, err := ui.Fetch(cc.Ctx, "Fetching organizations", cc.GitHub.ListOrganizations)
	if err != nil {
		return "", err
	}
	if len(orgs) == 0 {
		return personalOwner, nil
	}

	options := []ui.Option[string]{ui.NewOption(login+" (personal)", personalOwner)}
	for _, o := range orgs {
		options = append(options, ui.NewOption(o, o))
	}
	return ui.Select("Owner", "Where should the repository live?", options)
}

func targetDir(cc *CommandContext, dir string) (string, error) {
	if dir == "" {
		return cc.CWD, nil
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", dir, err)
	}
	return abs, nil
}

func runBootstrap(cc *CommandContext, steps []bootstrap.Step, rc *bootstrap.RepoContext) error {
	opts := bootstrap.Options{DryRun: cc.DryRun, Verbose: cc.Verbose}
	results, err := bootstrap.Run(cc.Ctx, steps, rc, opts, cc.Logger)
	for _, r := range results {
		switch {
		case r.Err != nil:
			ui.PrintWarning("%s failed", r.Step.Name())
		case r.Skipped:
			if cc.Verbose {
				ui.PrintMuted("%s skipped", r.Step.Name())
			}
		case cc.DryRun:
			ui.PrintInfo("[DRY-RUN] Would run %s", r.Step.Name())
		default:
			ui.PrintSuccess("%s", r.Step.Name())
		}
	}
	return err
}

func rememberClone(cc *CommandContext, ref labels.RepositoryRef, dir string) error {
	if cc.DryRun {
		return nil
	}
	cc.Config.RememberRepo(config.RemoteRepo{Owner: ref.Owner, Repo: ref.Name, URL: git.HTTPSURL(ref.Owner, ref.Name)})
	if err := cc.SaveConfig(); err != nil {
		return err
	}
	ui.PrintInfo("%s is ready in %s", ref, dir)
	return nil
}

var repoCloneCmd = &cobra.Command{
	Use:   "clone [OWNER/NAME | URL]",
	Short: "Clone one of your repositories",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cc, err := openCommandContext(cmd)
		if err != nil {
			return err
		}
		var name string
		if len(args) == 1 {
			name = args[0]
		}
		dir, _ := cmd.Flags().GetString("dir")
		return runRepoClone(cc, name, dir)
	},
}

func runRepoClone(cc *CommandContext, name, dir string) error {
	var ref labels.RepositoryRef
	var err error
	if name != "" {
		ref, err = parseCloneTarget(name)
	} else {
		ref, err = chooseRepositoryToClone(cc)
	}
	if err != nil {
		return err
	}

	parent, err := targetDir(cc, dir)
	if err != nil {
		return err
	}
	rc := bootstrap.NewRepoContext(ref, parent, git.InsertToken(git.HTTPSURL(ref.Owner, ref.Name), cc.Config.AccessToken), nil)
	if _, err := os.Stat(rc.Dir); err == nil {
		return fmt.Errorf("%w: %s exists", hubbererrors.ErrAlreadyCloned, rc.Dir)
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	if err := runBootstrap(cc, bootstrap.CloneSteps(cc.Commander), rc); err != nil {
		return err
	}
	return rememberClone(cc, ref, rc.Dir)
}

// parseCloneTarget accepts owner/name or a GitHub clone URL.
func parseCloneTarget(name string) (labels.RepositoryRef, error) {
	if utils.IsGitShortFormat(name) {
		return labels.ParseRepositoryRef(name)
	}
	remote, err := git.ParseGitHubRemote(name)
	if err != nil {
		return labels.RepositoryRef{}, err
	}
	return labels.RepositoryRef{Owner: remote.Owner, Name: remote.Repo}, nil
}

func chooseRepositoryToClone(cc *CommandContext) (labels.RepositoryRef, error) {
	repos, err := ui.Fetch(cc.Ctx, "Fetching your repositories", cc.GitHub.ListUserRepositories)
	if err != nil {
		return labels.RepositoryRef{}, err
	}

	options := make([]ui.Option[labels.RepositoryRef], len(repos))
	for i, r := range repos {
		label := r.Ref.String()
		if cc.Config.IsCloned(r.Ref.Owner, r.Ref.Name) {
			label += " (cloned)"
		}
		options[i] = ui.NewOption(label, r.Ref)
	}
	ref, err := ui.Select("Select a repository to clone", "Type to filter", options)
	if err != nil {
		return ref, err
	}
	if cc.Config.IsCloned(ref.Owner, ref.Name) {
		ui.PrintWarning("%s was cloned before", ref)
	}
	return ref, nil
}

func init() {
	rootCmd.AddCommand(repoCmd)
	repoCmd.AddCommand(repoCreateCmd, repoCloneCmd)

	repoCreateCmd.Flags().String("org", "", "Organization to create the repository in (default: personal)")
	repoCreateCmd.Flags().String("name", "", "Repository name")
	repoCreateCmd.Flags().String("description", "", "Repository description")
	repoCreateCmd.Flags().Bool("private", false, "Create a private repository")
	repoCreateCmd.Flags().String("preset", "", "Label preset to seed (default: label_preset from the config)")
	repoCreateCmd.Flags().String("dir", "", "Directory to clone into (default: current directory)")

	repoCloneCmd.Flags().String("dir", "", "Directory to clone into (default: current directory)")
}
