package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/naoray/hubber/internal/config"
	hubbererrors "github.com/naoray/hubber/internal/errors"
	"github.com/naoray/hubber/internal/exec"
	"github.com/naoray/hubber/internal/git"
	"github.com/naoray/hubber/internal/github"
	"github.com/naoray/hubber/internal/labels"
	"github.com/naoray/hubber/internal/presets"
	"github.com/naoray/hubber/internal/ui"
)

// commander runs git for every command. Tests replace it.
var commander exec.Commander

// CommandContext carries what a command needs: configuration, the GitHub
// client and the working copy it was started in.
type CommandContext struct {
	Ctx       context.Context
	CWD       string
	ConfigDir string
	Config    *config.Config
	GitHub    *github.Client
	Commander exec.Commander
	Logger    *log.Logger
	DryRun    bool
	Verbose   bool

	repo        *git.Repository
	currentRepo *labels.RepositoryRef

	presetManager *presets.Manager
	presetsInit   sync.Once
}

// openCommandContext loads the configuration named by cmd's flags and
// authenticates against GitHub.
func openCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	cc, err := loadCommandContext(cmd)
	if err != nil {
		return nil, err
	}
	if err := cc.authenticate(); err != nil {
		return nil, err
	}
	return cc, nil
}

// loadCommandContext is openCommandContext without authentication.
func loadCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting current directory: %w", err)
	}

	override, _ := cmd.Flags().GetString("config")
	dir, err := config.ResolveDir(override)
	if err != nil {
		return nil, err
	}
	if _, err := config.MigrateLegacyKeys(dir); err != nil {
		return nil, err
	}
	cfg, err := config.Load(dir)
	if err != nil {
		return nil, err
	}

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	verbose, _ := cmd.Flags().GetBool("verbose")

	return &CommandContext{
		Ctx:       cmd.Context(),
		CWD:       cwd,
		ConfigDir: dir,
		Config:    cfg,
		Commander: commander,
		Logger:    log.Default(),
		DryRun:    dryRun,
		Verbose:   verbose,
	}, nil
}

// newClient creates a GitHub client for token.
func (cc *CommandContext) newClient(token string) (*github.Client, error) {
	opts := []github.Option{github.WithLogger(cc.Logger)}
	if cc.Config.APIURL != "" {
		opts = append(opts, github.WithBaseURL(cc.Config.APIURL))
	}
	return github.NewClient(token, cc.Config.RequestTimeout, opts...)
}

// authenticate makes sure a token is configured, verifies it and keeps the
// stored identity and the global git identity in step with the account.
func (cc *CommandContext) authenticate() error {
	if cc.Config.AccessToken == "" {
		token, err := ui.Password("GitHub personal access token")
		if errors.Is(err, ui.ErrInputDisabled) {
			return fmt.Errorf("%w: run 'hubber token update' or set GITHUB_TOKEN", hubbererrors.ErrTokenMissing)
		}
		if err != nil {
			return err
		}
		cc.Config.SetToken(token)
		if err := cc.SaveConfig(); err != nil {
			return err
		}
	}

	client, err := cc.newClient(cc.Config.AccessToken)
	if err != nil {
		return err
	}

	user, err := client.Authenticate(cc.Ctx)
	if err != nil {
		if errors.Is(err, hubbererrors.ErrInvalidCredentials) && cc.Config.TokenSource == config.TokenSourceConfig {
			cc.Config.ClearToken()
			if saveErr := cc.SaveConfig(); saveErr != nil {
				cc.Logger.Warn("clearing stored token failed", "err", saveErr)
			}
			return fmt.Errorf("%w (the stored token was cleared, run 'hubber token update')", err)
		}
		return err
	}
	cc.GitHub = client
	cc.Logger.Debug("authenticated", "login", user.Login)

	return cc.syncIdentity(user)
}

func (cc *CommandContext) syncIdentity(user *github.User) error {
	name := user.Name
	if name == "" {
		name = user.Login
	}
	if name == cc.Config.Name && (user.Email == "" || user.Email == cc.Config.Email) {
		return nil
	}

	cc.Config.Name = name
	if user.Email != "" {
		cc.Config.Email = user.Email
	}
	if err := cc.SaveConfig(); err != nil {
		return err
	}
	if cc.DryRun {
		return nil
	}
	return git.SetGlobalIdentity(cc.Ctx, cc.Commander, cc.Config.Name, cc.Config.Email)
}

// SaveConfig writes the configuration back to its directory.
func (cc *CommandContext) SaveConfig() error {
	return config.Save(cc.ConfigDir, cc.Config)
}

// Repository is the working copy the command was started in.
func (cc *CommandContext) Repository() *git.Repository {
	if cc.repo == nil {
		cc.repo = git.NewRepository(cc.CWD, cc.Commander)
	}
	return cc.repo
}

// CurrentRepo resolves the GitHub repository behind the origin remote of the
// working copy and remembers it in the configuration.
func (cc *CommandContext) CurrentRepo() (labels.RepositoryRef, error) {
	if cc.currentRepo != nil {
		return *cc.currentRepo, nil
	}

	url, err := cc.Repository().RemoteURL(cc.Ctx, "origin")
	if err != nil {
		return labels.RepositoryRef{}, err
	}
	if url == "" {
		if !cc.Repository().IsRepository(cc.Ctx) {
			return labels.RepositoryRef{}, fmt.Errorf("%w: %s", hubbererrors.ErrNotGitRepository, cc.CWD)
		}
		return labels.RepositoryRef{}, fmt.Errorf("%w: no origin remote configured", hubbererrors.ErrNotGitHubRemote)
	}

	remote, err := git.ParseGitHubRemote(url)
	if err != nil {
		return labels.RepositoryRef{}, err
	}
	ref := labels.RepositoryRef{Owner: remote.Owner, Name: remote.Repo}
	cc.currentRepo = &ref

	if cc.Config.RememberRepo(config.RemoteRepo{Owner: ref.Owner, Repo: ref.Name, URL: git.StripToken(url)}) {
		if err := cc.SaveConfig(); err != nil {
			cc.Logger.Warn("remembering repository failed", "repo", ref, "err", err)
		}
	}
	return ref, nil
}

// RepoOrCurrent parses value as owner/name, falling back to the current
// repository when value is empty.
func (cc *CommandContext) RepoOrCurrent(value string) (labels.RepositoryRef, error) {
	if value == "" {
		return cc.CurrentRepo()
	}
	return labels.ParseRepositoryRef(value)
}

// TopLevel is the root of the working copy.
func (cc *CommandContext) TopLevel() (string, error) {
	return cc.Repository().TopLevel(cc.Ctx)
}

// ensurePushAccess embeds the access token into an HTTPS origin so git can
// push without prompting. SSH remotes are left alone.
func (cc *CommandContext) ensurePushAccess() error {
	url, err := cc.Repository().RemoteURL(cc.Ctx, "origin")
	if err != nil || url == "" {
		return err
	}
	withToken := git.InsertToken(url, cc.Config.AccessToken)
	if withToken == url {
		return nil
	}
	return cc.Repository().SetRemoteURL(cc.Ctx, "origin", withToken)
}

// Reconciler returns a label reconciler backed by the GitHub client.
func (cc *CommandContext) Reconciler() *labels.Reconciler {
	return labels.NewReconciler(cc.GitHub,
		labels.WithLogger(cc.Logger),
		labels.WithMaxConcurrency(cc.Config.MaxConcurrency),
		labels.WithDryRun(cc.DryRun),
	)
}

func (cc *CommandContext) PresetManager() *presets.Manager {
	cc.presetsInit.Do(func() {
		cc.presetManager = presets.NewManager()
		for name, set := range cc.Config.Presets {
			if err := cc.presetManager.RegisterCustom(name, set); err != nil {
				cc.Logger.Warn("ignoring invalid preset", "preset", name, "err", err)
			}
		}
	})
	return cc.presetManager
}
