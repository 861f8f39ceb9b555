package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/naoray/hubber/internal/labels"
	"github.com/naoray/hubber/internal/ui"
)

var labelCmd = &cobra.Command{
	Use:   "label",
	Short: "Manage labels across repositories",
}

type labelFieldOptions struct {
	name        string
	description string
	color       string

	// descriptionSet tells --description "" apart from no flag, so a
	// description can be cleared.
	descriptionSet bool
}

func (o labelFieldOptions) set() bool {
	return o.name != "" || o.descriptionSet || o.color != ""
}

// apply overrides the fields of base that were given as flags.
func (o labelFieldOptions) apply(base labels.Label) labels.Label {
	if o.name != "" {
		base.Name = o.name
	}
	if o.descriptionSet {
		base.Description = o.description
	}
	if o.color != "" {
		base.Color = o.color
	}
	return ui.NormalizeLabel(base)
}

func labelFieldFlags(cmd *cobra.Command) labelFieldOptions {
	name, _ := cmd.Flags().GetString("name")
	description, _ := cmd.Flags().GetString("description")
	color, _ := cmd.Flags().GetString("color")
	return labelFieldOptions{
		name:           name,
		description:    description,
		color:          color,
		descriptionSet: cmd.Flags().Changed("description"),
	}
}

func addLabelFieldFlags(cmd *cobra.Command) {
	cmd.Flags().String("name", "", "Label name")
	cmd.Flags().String("description", "", "Label description")
	cmd.Flags().String("color", "", "Label color as a hex code")
}

// propagation decides which other repositories of the owner a label change
// reaches: the explicit list, every candidate, or the ones the user picks.
type propagation struct {
	repos []string
	all   bool
}

func propagationFlags(cmd *cobra.Command) propagation {
	repos, _ := cmd.Flags().GetStringSlice("repos")
	all, _ := cmd.Flags().GetBool("all")
	return propagation{repos: repos, all: all}
}

func addPropagationFlags(cmd *cobra.Command, allUsage string) {
	cmd.Flags().StringSlice("repos", nil, "Other repositories to include (owner/name, comma separated)")
	cmd.Flags().Bool("all", false, allUsage)
}

// targets returns current followed by the other repositories to act on.
// candidates lists the repositories that may be offered; it is only called
// when they are needed.
func (p propagation) targets(current labels.RepositoryRef, question string, candidates func() ([]labels.RepositoryRef, error)) ([]labels.RepositoryRef, error) {
	targets := []labels.RepositoryRef{current}

	if len(p.repos) > 0 {
		extra, err := labels.ParseRepositoryRefs(p.repos)
		if err != nil {
			return nil, err
		}
		return appendUnique(targets, extra...), nil
	}

	if !p.all {
		if !ui.InputEnabled() {
			return targets, nil
		}
		ok, err := ui.Confirm(question)
		if err != nil || !ok {
			return targets, err
		}
	}

	others, err := candidates()
	if err != nil {
		return nil, err
	}
	others = without(others, current)
	if len(others) == 0 {
		ui.PrintMuted("No other repositories to include.")
		return targets, nil
	}
	if p.all {
		return appendUnique(targets, others...), nil
	}

	selected, err := ui.SelectRepositories("Select repositories", others)
	if err != nil {
		return nil, err
	}
	return appendUnique(targets, selected...), nil
}

func appendUnique(list []labels.RepositoryRef, refs ...labels.RepositoryRef) []labels.RepositoryRef {
	seen := make(map[labels.RepositoryRef]bool, len(list))
	for _, r := range list {
		seen[r] = true
	}
	for _, r := range refs {
		if !seen[r] {
			seen[r] = true
			list = append(list, r)
		}
	}
	return list
}

func without(list []labels.RepositoryRef, drop labels.RepositoryRef) []labels.RepositoryRef {
	var out []labels.RepositoryRef
	for _, r := range list {
		if r != drop {
			out = append(out, r)
		}
	}
	return out
}

// reportFailures prints every per-repository failure in err and returns an
// error summarising them, or nil.
func reportFailures(action string, total int, err error) error {
	failures := labels.Failures(err)
	if len(failures) == 0 {
		return nil
	}
	for _, f := range failures {
		ui.PrintWarning("%s", f)
	}
	return fmt.Errorf("%s failed for %d of %d repositories: %w", action, len(failures), total, err)
}

func findLabel(set []labels.Label, name string) (labels.Label, bool) {
	for _, l := range set {
		if l.Name == name {
			return l, true
		}
	}
	return labels.Label{}, false
}

// chooseLabel returns the label called name from repo, or lets the user pick
// one when name is empty.
func chooseLabel(cc *CommandContext, repo labels.RepositoryRef, name, title string) (labels.Label, error) {
	set, err := ui.Fetch(cc.Ctx, "Fetching labels of "+repo.String(), func(ctx context.Context) ([]labels.Label, error) {
		return cc.GitHub.ListLabels(ctx, repo)
	})
	if err != nil {
		return labels.Label{}, err
	}

	if name == "" {
		return ui.SelectLabel(title, set)
	}
	l, ok := findLabel(set, name)
	if !ok {
		return labels.Label{}, &labels.Error{Kind: labels.KindNotFound, Repo: repo, Label: name}
	}
	return l, nil
}

func ownerRepositories(cc *CommandContext, owner string) func() ([]labels.RepositoryRef, error) {
	return func() ([]labels.RepositoryRef, error) {
		return ui.Fetch(cc.Ctx, "Fetching repositories of "+owner, func(ctx context.Context) ([]labels.RepositoryRef, error) {
			return cc.GitHub.ListRepositoriesForOwner(ctx, owner)
		})
	}
}

// reposWithLabel lists the repositories of owner that have the label,
// printing lookups that failed.
func reposWithLabel(cc *CommandContext, owner, name string) func() ([]labels.RepositoryRef, error) {
	return func() ([]labels.RepositoryRef, error) {
		found, err := ui.Fetch(cc.Ctx, fmt.Sprintf("Looking for %q in %s", name, owner), func(ctx context.Context) ([]labels.RepositoryRef, error) {
			return cc.Reconciler().FindReposWithLabel(ctx, owner, name)
		})
		var batch *labels.BatchError
		if err != nil && !errors.As(err, &batch) {
			return nil, err
		}
		for _, f := range labels.Failures(err) {
			ui.PrintWarning("could not check %s: %s", f.Repo, f)
		}
		return found, nil
	}
}

type labelAddOptions struct {
	repo   string
	fields labelFieldOptions
	scope  propagation
}

var labelAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a label in this and other repositories",
	Long: `Creates a label in the current repository and, optionally, in other
repositories of the same owner.

Without --name the label is prompted for; the prompt repeats until the
description is at most 100 characters and the color is a valid hex code.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cc, err := openCommandContext(cmd)
		if err != nil {
			return err
		}
		repo, _ := cmd.Flags().GetString("repo")
		return runLabelAdd(cc, labelAddOptions{
			repo:   repo,
			fields: labelFieldFlags(cmd),
			scope:  propagationFlags(cmd),
		})
	},
}

func runLabelAdd(cc *CommandContext, opts labelAddOptions) error {
	current, err := cc.RepoOrCurrent(opts.repo)
	if err != nil {
		return err
	}

	label := opts.fields.apply(labels.Label{})
	if label.Name == "" {
		if label, err = ui.PromptLabel("New label", label); err != nil {
			return err
		}
	}
	if err := labels.Validate(label); err != nil {
		return err
	}

	question := fmt.Sprintf("Add %q to other repositories of %s?", label.Name, current.Owner)
	targets, err := opts.scope.targets(current, question, ownerRepositories(cc, current.Owner))
	if err != nil {
		return err
	}

	done, err := ui.Fetch(cc.Ctx, "Creating label", func(ctx context.Context) ([]labels.RepositoryRef, error) {
		return cc.Reconciler().AddToRepositories(ctx, label, targets)
	})
	for _, repo := range done {
		ui.PrintSuccess("Created %s in %s", ui.Swatch(label), repo)
	}
	return reportFailures("creating the label", len(targets), err)
}

type labelEditOptions struct {
	repo   string
	label  string
	fields labelFieldOptions
	scope  propagation
}

var labelEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Change a label in this and other repositories",
	Long: `Updates a label of the current repository. The change can be carried to
every other repository of the owner that has a label with the same name.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cc, err := openCommandContext(cmd)
		if err != nil {
			return err
		}
		repo, _ := cmd.Flags().GetString("repo")
		label, _ := cmd.Flags().GetString("label")
		return runLabelEdit(cc, labelEditOptions{
			repo:   repo,
			label:  label,
			fields: labelFieldFlags(cmd),
			scope:  propagationFlags(cmd),
		})
	},
}

func runLabelEdit(cc *CommandContext, opts labelEditOptions) error {
	current, err := cc.RepoOrCurrent(opts.repo)
	if err != nil {
		return err
	}

	old, err := chooseLabel(cc, current, opts.label, "Select a label to edit")
	if err != nil {
		return err
	}

	updated := opts.fields.apply(old)
	if !opts.fields.set() {
		if updated, err = ui.PromptLabel("Edit "+old.Name, old); err != nil {
			return err
		}
	}
	if err := labels.Validate(updated); err != nil {
		return err
	}

	question := fmt.Sprintf("Edit %q in other repositories of %s?", old.Name, current.Owner)
	targets, err := opts.scope.targets(current, question, reposWithLabel(cc, current.Owner, old.Name))
	if err != nil {
		return err
	}

	err = ui.RunWithSpinner(cc.Ctx, "Updating label", func(ctx context.Context) error {
		return cc.Reconciler().Edit(ctx, old.Name, updated, targets)
	})
	failed := make(map[labels.RepositoryRef]bool)
	for _, f := range labels.Failures(err) {
		failed[f.Repo] = true
	}
	for _, repo := range targets {
		if !failed[repo] {
			ui.PrintSuccess("Updated %s in %s", ui.Swatch(updated), repo)
		}
	}
	return reportFailures("editing the label", len(targets), err)
}

type labelRemoveOptions struct {
	repo  string
	label string
	yes   bool
	scope propagation
}

var labelRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Delete a label from this and other repositories",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cc, err := openCommandContext(cmd)
		if err != nil {
			return err
		}
		repo, _ := cmd.Flags().GetString("repo")
		label, _ := cmd.Flags().GetString("label")
		yes, _ := cmd.Flags().GetBool("yes")
		return runLabelRemove(cc, labelRemoveOptions{
			repo:  repo,
			label: label,
			yes:   yes,
			scope: propagationFlags(cmd),
		})
	},
}

func runLabelRemove(cc *CommandContext, opts labelRemoveOptions) error {
	current, err := cc.RepoOrCurrent(opts.repo)
	if err != nil {
		return err
	}

	target, err := chooseLabel(cc, current, opts.label, "Select a label to remove")
	if err != nil {
		return err
	}

	question := fmt.Sprintf("Remove %q from other repositories of %s?", target.Name, current.Owner)
	targets, err := opts.scope.targets(current, question, reposWithLabel(cc, current.Owner, target.Name))
	if err != nil {
		return err
	}

	if !opts.yes && ui.InputEnabled() {
		ok, err := ui.Confirm(fmt.Sprintf("Remove %q from %d repositories?", target.Name, len(targets)))
		if err != nil {
			return err
		}
		if !ok {
			return ui.ErrUserAborted
		}
	}

	err = ui.RunWithSpinner(cc.Ctx, "Removing label", func(ctx context.Context) error {
		return cc.Reconciler().Remove(ctx, target.Name, targets)
	})
	failed := make(map[labels.RepositoryRef]bool)
	for _, f := range labels.Failures(err) {
		failed[f.Repo] = true
	}
	for _, repo := range targets {
		if !failed[repo] {
			ui.PrintSuccess("Removed %q from %s", target.Name, repo)
		}
	}
	return reportFailures("removing the label", len(targets), err)
}

type labelSyncOptions struct {
	base    string
	targets []string
}

var labelSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Copy missing labels from a base repository to others",
	Long: `Adds every label of the base repository that a target repository lacks.
Labels are matched by name only; existing labels are never changed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cc, err := openCommandContext(cmd)
		if err != nil {
			return err
		}
		base, _ := cmd.Flags().GetString("base")
		targets, _ := cmd.Flags().GetStringSlice("targets")
		return runLabelSync(cc, labelSyncOptions{base: base, targets: targets})
	},
}

func runLabelSync(cc *CommandContext, opts labelSyncOptions) error {
	var repos []labels.RepositoryRef
	userRepos := func() ([]labels.RepositoryRef, error) {
		if repos != nil {
			return repos, nil
		}
		list, err := ui.Fetch(cc.Ctx, "Fetching your repositories", func(ctx context.Context) ([]labels.RepositoryRef, error) {
			all, err := cc.GitHub.ListUserRepositories(ctx)
			refs := make([]labels.RepositoryRef, 0, len(all))
			for _, r := range all {
				refs = append(refs, r.Ref)
			}
			return refs, err
		})
		repos = list
		return list, err
	}

	var base labels.RepositoryRef
	var err error
	if opts.base != "" {
		base, err = labels.ParseRepositoryRef(opts.base)
	} else {
		base, err = selectRepository(userRepos, "Select the base repository")
	}
	if err != nil {
		return err
	}

	var targets []labels.RepositoryRef
	if len(opts.targets) > 0 {
		targets, err = labels.ParseRepositoryRefs(opts.targets)
		if err != nil {
			return err
		}
		targets = without(targets, base)
	} else {
		candidates, err := userRepos()
		if err != nil {
			return err
		}
		targets, err = ui.SelectRepositories("Select repositories to sync", without(candidates, base))
		if err != nil {
			return err
		}
	}
	if len(targets) == 0 {
		ui.PrintMuted("No target repositories selected.")
		return nil
	}

	report, err := ui.Fetch(cc.Ctx, "Syncing labels from "+base.String(), func(ctx context.Context) (*labels.SyncReport, error) {
		return cc.Reconciler().Sync(ctx, base, targets)
	})
	if err != nil {
		return err
	}
	return printSyncReport(report)
}

func selectRepository(list func() ([]labels.RepositoryRef, error), title string) (labels.RepositoryRef, error) {
	repos, err := list()
	if err != nil {
		return labels.RepositoryRef{}, err
	}
	options := make([]ui.Option[labels.RepositoryRef], len(repos))
	for i, r := range repos {
		options[i] = ui.NewOption(r.String(), r)
	}
	return ui.Select(title, "Type to filter", options)
}

func printSyncReport(report *labels.SyncReport) error {
	for _, target := range report.Targets {
		added := report.Added[target]
		failures := report.FailuresFor(target)
		switch {
		case len(added) > 0:
			ui.PrintInfo("%s: adding labels %s", target, ui.Swatches(added))
		case len(failures) == 0:
			ui.PrintMuted("%s already has labels synced", target)
		}
		for _, f := range failures {
			ui.PrintWarning("%s: %s", target, f)
		}
	}
	if len(report.Errors) > 0 {
		return fmt.Errorf("syncing labels: %w", &labels.BatchError{Errors: report.Errors})
	}
	ui.PrintDone()
	return nil
}

var labelListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the labels of a repository",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cc, err := openCommandContext(cmd)
		if err != nil {
			return err
		}
		repo, _ := cmd.Flags().GetString("repo")
		return runLabelList(cc, repo)
	},
}

func runLabelList(cc *CommandContext, repoFlag string) error {
	repo, err := cc.RepoOrCurrent(repoFlag)
	if err != nil {
		return err
	}
	set, err := ui.Fetch(cc.Ctx, "Fetching labels of "+repo.String(), func(ctx context.Context) ([]labels.Label, error) {
		return cc.GitHub.ListLabels(ctx, repo)
	})
	if err != nil {
		return err
	}
	if len(set) == 0 {
		ui.PrintMuted("%s has no labels", repo)
		return nil
	}
	ui.PrintHeader(fmt.Sprintf("%s (%d labels)", repo, len(set)))
	ui.PrintLabels(set)
	return nil
}

func init() {
	rootCmd.AddCommand(labelCmd)
	labelCmd.AddCommand(labelAddCmd, labelEditCmd, labelRemoveCmd, labelSyncCmd, labelListCmd)

	for _, cmd := range []*cobra.Command{labelAddCmd, labelEditCmd, labelRemoveCmd, labelListCmd} {
		cmd.Flags().String("repo", "", "Repository to act on (owner/name, default: the current one)")
	}

	addLabelFieldFlags(labelAddCmd)
	addPropagationFlags(labelAddCmd, "Add the label to every repository of the owner")

	labelEditCmd.Flags().String("label", "", "Name of the label to edit")
	addLabelFieldFlags(labelEditCmd)
	addPropagationFlags(labelEditCmd, "Edit the label in every repository of the owner that has it")

	labelRemoveCmd.Flags().String("label", "", "Name of the label to remove")
	labelRemoveCmd.Flags().BoolP("yes", "y", false, "Skip the confirmation")
	addPropagationFlags(labelRemoveCmd, "Remove the label from every repository of the owner that has it")

	labelSyncCmd.Flags().String("base", "", "Repository to copy labels from (owner/name)")
	labelSyncCmd.Flags().StringSlice("targets", nil, "Repositories to copy labels to (owner/name, comma separated)")
}
