package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/naoray/hubber/internal/config"
	hubbererrors "github.com/naoray/hubber/internal/errors"
	"github.com/naoray/hubber/internal/git"
	"github.com/naoray/hubber/internal/github"
	"github.com/naoray/hubber/internal/labels"
	"github.com/naoray/hubber/internal/templates"
	"github.com/naoray/hubber/internal/ui"
	"github.com/naoray/hubber/internal/utils"
)

var issueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Create issues and work on them in branches",
}

type issueCreateOptions struct {
	title    string
	body     string
	template string
	labels   []string
}

var issueCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Open an issue from a template",
	Long: `Opens an issue in the current repository. Templates are read from
.github/ISSUE_TEMPLATE, falling back to the templates shipped with hubber.
Labels listed in the template front matter are attached to the issue.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cc, err := openCommandContext(cmd)
		if err != nil {
			return err
		}
		title, _ := cmd.Flags().GetString("title")
		body, _ := cmd.Flags().GetString("body")
		template, _ := cmd.Flags().GetString("template")
		extra, _ := cmd.Flags().GetStringSlice("labels")
		return runIssueCreate(cc, issueCreateOptions{title: title, body: body, template: template, labels: extra})
	},
}

func runIssueCreate(cc *CommandContext, opts issueCreateOptions) error {
	current, err := cc.CurrentRepo()
	if err != nil {
		return err
	}

	if err := ensureIssuesEnabled(cc, current); err != nil {
		return err
	}

	root, err := cc.TopLevel()
	if err != nil {
		return err
	}
	tpls, err := templates.Load(root)
	if err != nil {
		return err
	}
	tpl, err := chooseTemplate(tpls, opts.template)
	if err != nil {
		return err
	}

	title := opts.title
	if title == "" {
		if title, err = ui.Input("Issue title", "", tpl.Title, nonEmpty("title")); err != nil {
			return err
		}
	}
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("issue title cannot be empty")
	}

	body := opts.body
	if body == "" {
		body = tpl.Body
		if ui.InputEnabled() {
			if body, err = ui.Text("Issue body", tpl.Body); err != nil {
				return err
			}
		}
	}

	req := github.NewIssue{
		Title:     title,
		Body:      body,
		Labels:    mergeNames(tpl.Labels, opts.labels),
		Assignees: tpl.Assignees,
	}
	if cc.DryRun {
		ui.PrintInfo("[DRY-RUN] Would create issue %q in %s with labels %v", req.Title, current, req.Labels)
		return nil
	}

	issue, err := ui.Fetch(cc.Ctx, "Creating issue", func(ctx context.Context) (*github.Issue, error) {
		return cc.GitHub.CreateIssue(ctx, current, req)
	})
	if err != nil {
		return err
	}
	ui.PrintSuccess("Created issue #%d: %s", issue.Number, issue.Title)
	if issue.HTMLURL != "" {
		ui.PrintMuted("%s", issue.HTMLURL)
	}
	return nil
}

func ensureIssuesEnabled(cc *CommandContext, repo labels.RepositoryRef) error {
	info, err := cc.GitHub.GetRepository(cc.Ctx, repo)
	if err != nil {
		return err
	}
	if info.HasIssues {
		return nil
	}
	if cc.DryRun {
		ui.PrintInfo("[DRY-RUN] Would enable issues on %s", repo)
		return nil
	}
	if err := cc.GitHub.EnableIssues(cc.Ctx, repo); err != nil {
		return err
	}
	ui.PrintInfo("Enabled issues on %s", repo)
	return nil
}

func chooseTemplate(tpls []*templates.Template, name string) (*templates.Template, error) {
	if len(tpls) == 0 {
		return &templates.Template{}, nil
	}
	if name != "" {
		for _, t := range tpls {
			if strings.EqualFold(t.DisplayName(), name) || strings.EqualFold(t.FileName, name) ||
				strings.EqualFold(strings.TrimSuffix(t.FileName, ".md"), name) {
				return t, nil
			}
		}
		return nil, fmt.Errorf("unknown issue template %q", name)
	}
	if len(tpls) == 1 || !ui.InputEnabled() {
		return tpls[0], nil
	}

	options := make([]ui.Option[int], len(tpls))
	for i, t := range tpls {
		label := t.DisplayName()
		if t.About != "" {
			label += " - " + t.About
		}
		options[i] = ui.NewOption(label, i)
	}
	i, err := ui.Select("Select an issue template", "", options)
	if err != nil {
		return nil, err
	}
	return tpls[i], nil
}

func mergeNames(lists ...[]string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, list := range lists {
		for _, name := range list {
			if name = strings.TrimSpace(name); name != "" && !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	return out
}

func nonEmpty(what string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s cannot be empty", what)
		}
		return nil
	}
}

var issueListCmd = &cobra.Command{
	Use:   "list",
	Short: "List open issues",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cc, err := openCommandContext(cmd)
		if err != nil {
			return err
		}
		all, _ := cmd.Flags().GetBool("all")
		return runIssueList(cc, all)
	},
}

func runIssueList(cc *CommandContext, all bool) error {
	var (
		issues []github.Issue
		err    error
	)
	if all {
		issues, err = ui.Fetch(cc.Ctx, "Fetching your issues", cc.GitHub.ListMyIssues)
	} else {
		var current labels.RepositoryRef
		if current, err = cc.CurrentRepo(); err != nil {
			return err
		}
		issues, err = ui.Fetch(cc.Ctx, "Fetching issues of "+current.String(), func(ctx context.Context) ([]github.Issue, error) {
			return cc.GitHub.ListIssues(ctx, current)
		})
	}
	if err != nil {
		return err
	}
	if len(issues) == 0 {
		return hubbererrors.ErrNoIssues
	}

	if !ui.InputEnabled() {
		for _, issue := range issues {
			ui.PrintInfo("%s", issueLine(issue, all))
		}
		return nil
	}

	issue, err := selectIssue("Select an issue", issues, all)
	if err != nil {
		return err
	}
	printIssue(issue)

	if !all {
		ui.PrintMuted("Run 'hubber issue start --issue %d' to start working on it.", issue.Number)
		return nil
	}
	if cc.Config.IsCloned(issue.Repo.Owner, issue.Repo.Name) {
		ui.PrintMuted("%s is already cloned. Run 'hubber issue start --issue %d' inside it.", issue.Repo, issue.Number)
	} else {
		ui.PrintMuted("Run 'hubber repo clone %s' to get the repository.", issue.Repo)
	}
	return nil
}

func issueLine(issue github.Issue, withRepo bool) string {
	line := fmt.Sprintf("#%d %s", issue.Number, issue.Title)
	if withRepo {
		line = issue.Repo.String() + " " + line
	}
	if len(issue.Labels) > 0 {
		line += " [" + strings.Join(issue.Labels, ", ") + "]"
	}
	return line
}

func selectIssue(title string, issues []github.Issue, withRepo bool) (github.Issue, error) {
	options := make([]ui.Option[int], len(issues))
	for i, issue := range issues {
		options[i] = ui.NewOption(utils.Truncate(issueLine(issue, withRepo), 100), i)
	}
	i, err := ui.Select(title, "Type to filter", options)
	if err != nil {
		return github.Issue{}, err
	}
	return issues[i], nil
}

func printIssue(issue github.Issue) {
	ui.PrintHeader(fmt.Sprintf("#%d %s", issue.Number, issue.Title))
	if issue.Repo != (labels.RepositoryRef{}) {
		ui.PrintMuted("%s", issue.Repo)
	}
	if len(issue.Labels) > 0 {
		ui.PrintInfo("Labels: %s", strings.Join(issue.Labels, ", "))
	}
	if len(issue.Assignees) > 0 {
		ui.PrintInfo("Assignees: %s", strings.Join(issue.Assignees, ", "))
	}
	if issue.Milestone != "" {
		ui.PrintInfo("Milestone: %s", issue.Milestone)
	}
	if issue.HTMLURL != "" {
		ui.PrintMuted("%s", issue.HTMLURL)
	}
	if issue.Body != "" {
		ui.PrintInfo("\n%s", issue.Body)
	}
}

type issueSearchOptions struct {
	query     string
	state     string
	label     string
	milestone string
	assignee  string
}

func (o issueSearchOptions) filtered() bool {
	return o.query != "" || o.state != "" || o.label != "" || o.milestone != "" || o.assignee != ""
}

// searchQuery builds the issue search for repo from the options.
func searchQuery(repo labels.RepositoryRef, opts issueSearchOptions) string {
	parts := []string{"is:issue", "repo:" + repo.String()}
	if opts.state != "" && opts.state != "any" {
		parts = append(parts, "is:"+opts.state)
	}
	if opts.label != "" {
		parts = append(parts, fmt.Sprintf("label:%q", opts.label))
	}
	if opts.milestone != "" {
		parts = append(parts, fmt.Sprintf("milestone:%q", opts.milestone))
	}
	if opts.assignee != "" {
		parts = append(parts, "assignee:"+opts.assignee)
	}
	if opts.query != "" {
		parts = append(parts, opts.query)
	}
	return strings.Join(parts, " ")
}

var issueSearchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search the issues of the current repository",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cc, err := openCommandContext(cmd)
		if err != nil {
			return err
		}
		var opts issueSearchOptions
		opts.query, _ = cmd.Flags().GetString("query")
		opts.state, _ = cmd.Flags().GetString("state")
		opts.label, _ = cmd.Flags().GetString("label")
		opts.milestone, _ = cmd.Flags().GetString("milestone")
		opts.assignee, _ = cmd.Flags().GetString("assignee")
		return runIssueSearch(cc, opts)
	},
}

func runIssueSearch(cc *CommandContext, opts issueSearchOptions) error {
	current, err := cc.CurrentRepo()
	if err != nil {
		return err
	}

	if !opts.filtered() && ui.InputEnabled() {
		if opts, err = promptSearchFilters(cc, current); err != nil {
			return err
		}
	}

	query := searchQuery(current, opts)
	cc.Logger.Debug("searching issues", "query", query)
	issues, err := ui.Fetch(cc.Ctx, "Searching issues", func(ctx context.Context) ([]github.Issue, error) {
		return cc.GitHub.SearchIssues(ctx, query)
	})
	if err != nil {
		return err
	}
	if len(issues) == 0 {
		return hubbererrors.ErrNoIssues
	}

	if !ui.InputEnabled() {
		for _, issue := range issues {
			ui.PrintInfo("%s", issueLine(issue, false))
		}
		return nil
	}
	issue, err := selectIssue(fmt.Sprintf("%d issues found", len(issues)), issues, false)
	if err != nil {
		return err
	}
	printIssue(issue)
	return nil
}

const anyFilter = ""

func promptSearchFilters(cc *CommandContext, repo labels.RepositoryRef) (issueSearchOptions, error) {
	var opts issueSearchOptions
	var err error

	opts.query, err = ui.Input("Search text", "leave empty to use filters only", "", nil)
	if err != nil {
		return opts, err
	}

	opts.state, err = ui.Select("State", "", []ui.Option[string]{
		ui.NewOption("open", "open"),
		ui.NewOption("closed", "closed"),
		ui.NewOption("any", "any"),
	})
	if err != nil {
		return opts, err
	}

	choose := func(title string, load func(ctx context.Context) ([]string, error)) (string, error) {
		values, err := ui.Fetch(cc.Ctx, "Fetching "+strings.ToLower(title), load)
		if err != nil || len(values) == 0 {
			return anyFilter, err
		}
		options := []ui.Option[string]{ui.NewOption("any", anyFilter)}
		for _, v := range values {
			options = append(options, ui.NewOption(v, v))
		}
		return ui.Select(title, "Type to filter", options)
	}

	if opts.label, err = choose("Labels", func(ctx context.Context) ([]string, error) {
		set, err := cc.GitHub.ListLabels(ctx, repo)
		return labels.Names(set), err
	}); err != nil {
		return opts, err
	}
	if opts.milestone, err = choose("Milestones", func(ctx context.Context) ([]string, error) {
		return cc.GitHub.ListMilestones(ctx, repo)
	}); err != nil {
		return opts, err
	}
	if opts.assignee, err = choose("Assignees", func(ctx context.Context) ([]string, error) {
		return cc.GitHub.ListAssignees(ctx, repo)
	}); err != nil {
		return opts, err
	}
	return opts, nil
}

var issueStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start working on an issue in its own branch",
	Long: `Moves the issue from the todo to the doing workflow label and checks out
the issue branch, named after its number and title. A new branch starts
with an empty initial commit.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cc, err := openCommandContext(cmd)
		if err != nil {
			return err
		}
		number, _ := cmd.Flags().GetInt("issue")
		return runIssueStart(cc, number)
	},
}

func runIssueStart(cc *CommandContext, number int) error {
	current, err := cc.CurrentRepo()
	if err != nil {
		return err
	}
	root, err := cc.TopLevel()
	if err != nil {
		return err
	}

	issues, err := ui.Fetch(cc.Ctx, "Fetching issues of "+current.String(), func(ctx context.Context) ([]github.Issue, error) {
		return cc.GitHub.ListIssues(ctx, current)
	})
	if err != nil {
		return err
	}
	if len(issues) == 0 {
		return hubbererrors.ErrNoIssues
	}

	var issue github.Issue
	if number > 0 {
		found := false
		for _, i := range issues {
			if i.Number == number {
				issue, found = i, true
				break
			}
		}
		if !found {
			return fmt.Errorf("%w: no open issue #%d in %s", hubbererrors.ErrNoIssues, number, current)
		}
	} else if issue, err = selectIssue("Select an issue to start", issues, false); err != nil {
		return err
	}

	branch := git.IssueBranchName(issue.Number, issue.Title)
	workflow := cc.Config.WorkflowLabels
	if cc.DryRun {
		ui.PrintInfo("[DRY-RUN] Would move #%d from %q to %q", issue.Number, workflow.Todo, workflow.Doing)
		ui.PrintInfo("[DRY-RUN] Would check out %s", branch)
		return nil
	}

	if err := cc.GitHub.MoveIssueLabel(cc.Ctx, current, issue.Number, workflow.Todo, workflow.Doing); err != nil {
		return err
	}

	repo := git.NewRepository(root, cc.Commander)
	created, err := repo.SwitchToIssueBranch(cc.Ctx, branch)
	if err != nil {
		return err
	}

	if err := config.WriteLocalState(root, config.LocalState{IssueNumber: issue.Number, IssueTitle: issue.Title, Branch: branch}); err != nil {
		return err
	}
	checkLocalStateIgnored(cc.Ctx, repo)

	if created {
		ui.PrintSuccess("Created branch %s", branch)
	} else {
		ui.PrintSuccess("Switched to branch %s", branch)
	}
	ui.PrintInfo("Working on #%d: %s", issue.Number, issue.Title)
	return nil
}

var issueSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Commit and push your work on the issue branch",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cc, err := openCommandContext(cmd)
		if err != nil {
			return err
		}
		message, _ := cmd.Flags().GetString("message")
		return runIssueSave(cc, message)
	},
}

func runIssueSave(cc *CommandContext, message string) error {
	if _, err := cc.CurrentRepo(); err != nil {
		return err
	}
	root, err := cc.TopLevel()
	if err != nil {
		return err
	}
	repo := git.NewRepository(root, cc.Commander)

	changed, err := repo.HasChanges(cc.Ctx)
	if err != nil {
		return err
	}
	if !changed {
		return hubbererrors.ErrNothingToSave
	}

	branch, err := repo.CurrentBranch(cc.Ctx)
	if err != nil {
		return err
	}

	if message == "" {
		if message, err = ui.Input("Commit message", "What did you change?", "", nonEmpty("commit message")); err != nil {
			return err
		}
	}
	if strings.TrimSpace(message) == "" {
		return fmt.Errorf("commit message cannot be empty")
	}

	if cc.DryRun {
		ui.PrintInfo("[DRY-RUN] Would commit %q and push %s", message, branch)
		return nil
	}

	if err := repo.AddAll(cc.Ctx); err != nil {
		return err
	}
	if err := repo.Commit(cc.Ctx, message, false); err != nil {
		return err
	}
	if err := cc.ensurePushAccess(); err != nil {
		return err
	}
	if err := ui.RunWithSpinner(cc.Ctx, "Pushing "+branch, func(ctx context.Context) error {
		return repo.Push(ctx, "origin", branch, true)
	}); err != nil {
		return err
	}
	ui.PrintSuccess("Saved and pushed %s", branch)
	return nil
}

type issueDoneOptions struct {
	title   string
	comment string
	ping    []string
}

var issueDoneCmd = &cobra.Command{
	Use:   "done",
	Short: "Open a pull request for the issue branch",
	Long: `Opens a pull request from the current issue branch into the default base
branch, moves the issue to the review workflow label and optionally asks
contributors for a review.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cc, err := openCommandContext(cmd)
		if err != nil {
			return err
		}
		title, _ := cmd.Flags().GetString("title")
		comment, _ := cmd.Flags().GetString("comment")
		ping, _ := cmd.Flags().GetStringSlice("ping")
		return runIssueDone(cc, issueDoneOptions{title: title, comment: comment, ping: ping})
	},
}

func runIssueDone(cc *CommandContext, opts issueDoneOptions) error {
	current, err := cc.CurrentRepo()
	if err != nil {
		return err
	}
	root, err := cc.TopLevel()
	if err != nil {
		return err
	}
	repo := git.NewRepository(root, cc.Commander)

	branch, err := repo.CurrentBranch(cc.Ctx)
	if err != nil {
		return err
	}
	base := cc.Config.DefaultBaseBranch
	if branch == base {
		return fmt.Errorf("%w: %s", hubbererrors.ErrProtectedBranch, branch)
	}

	state, err := config.ReadLocalState(root)
	if err != nil {
		return err
	}
	number, ok := git.IssueNumberFromBranch(branch)
	if !ok {
		number = state.IssueNumber
	}
	if number == 0 {
		return fmt.Errorf("cannot tell which issue %s belongs to: name the branch <number>-<title> or run 'hubber issue start'", branch)
	}

	title := opts.title
	if title == "" {
		if title, err = ui.Input("Pull request title", "", state.IssueTitle, nonEmpty("title")); err != nil {
			if !errors.Is(err, ui.ErrInputDisabled) || state.IssueTitle == "" {
				return err
			}
			title = state.IssueTitle
		}
	}

	comment := opts.comment
	if comment == "" && ui.InputEnabled() {
		if comment, err = ui.Text("Pull request description", ""); err != nil {
			return err
		}
	}

	req := github.NewPullRequest{
		Title: title,
		Head:  branch,
		Base:  base,
		Body:  pullRequestBody(number, comment),
	}
	workflow := cc.Config.WorkflowLabels
	if cc.DryRun {
		ui.PrintInfo("[DRY-RUN] Would open a pull request from %s into %s resolving #%d", branch, base, number)
		ui.PrintInfo("[DRY-RUN] Would move #%d from %q to %q", number, workflow.Doing, workflow.Review)
		return nil
	}

	pr, err := ui.Fetch(cc.Ctx, "Opening pull request", func(ctx context.Context) (*github.PullRequest, error) {
		return cc.GitHub.CreatePullRequest(ctx, current, req)
	})
	if err != nil {
		return err
	}
	ui.PrintSuccess("Opened pull request #%d", pr.Number)
	if pr.HTMLURL != "" {
		ui.PrintMuted("%s", pr.HTMLURL)
	}

	if err := cc.GitHub.MoveIssueLabel(cc.Ctx, current, number, workflow.Doing, workflow.Review); err != nil {
		return err
	}

	reviewers, err := chooseReviewers(cc, current, opts.ping)
	if err != nil {
		return err
	}
	if len(reviewers) > 0 {
		if err := cc.GitHub.CreateComment(cc.Ctx, current, number, reviewComment(reviewers, pr.Number)); err != nil {
			return err
		}
		ui.PrintSuccess("Asked %s for a review", strings.Join(reviewers, ", "))
	}

	if err := config.ClearLocalState(root); err != nil {
		cc.Logger.Warn("clearing local state failed", "err", err)
	}
	ui.PrintDone()
	return nil
}

func pullRequestBody(issue int, comment string) string {
	body := fmt.Sprintf("Resolves #%d.", issue)
	if comment = strings.TrimSpace(comment); comment != "" {
		body += "\n\n" + comment
	}
	return body
}

func reviewComment(reviewers []string, pr int) string {
	mentions := make([]string, len(reviewers))
	for i, r := range reviewers {
		mentions[i] = "@" + strings.TrimPrefix(r, "@")
	}
	return fmt.Sprintf("%s please review #%d.", strings.Join(mentions, " "), pr)
}

func chooseReviewers(cc *CommandContext, repo labels.RepositoryRef, given []string) ([]string, error) {
	if len(given) > 0 || !ui.InputEnabled() {
		return given, nil
	}

	ok, err := ui.Confirm("Ask contributors for a review?")
	if err != nil || !ok {
		return nil, err
	}

	contributors, err := cc.GitHub.ListContributors(cc.Ctx, repo)
	if err != nil {
		return nil, err
	}
	login, _ := cc.GitHub.Login(cc.Ctx)

	var options []ui.Option[string]
	for _, c := range contributors {
		if c != login {
			options = append(options, ui.NewOption(c, c))
		}
	}
	if len(options) == 0 {
		ui.PrintMuted("No other contributors to ask.")
		return nil, nil
	}
	return ui.MultiSelect("Select reviewers", options)
}

func init() {
	rootCmd.AddCommand(issueCmd)
	issueCmd.AddCommand(issueCreateCmd, issueListCmd, issueSearchCmd, issueStartCmd, issueSaveCmd, issueDoneCmd)

	issueCreateCmd.Flags().String("title", "", "Issue title")
	issueCreateCmd.Flags().String("body", "", "Issue body (default: the template body)")
	issueCreateCmd.Flags().StringP("template", "t", "", "Issue template name")
	issueCreateCmd.Flags().StringSlice("labels", nil, "Extra labels to attach")

	issueListCmd.Flags().BoolP("all", "a", false, "List your issues across all repositories")

	issueSearchCmd.Flags().StringP("query", "q", "", "Search text")
	issueSearchCmd.Flags().String("state", "", "open, closed or any")
	issueSearchCmd.Flags().String("label", "", "Only issues with this label")
	issueSearchCmd.Flags().String("milestone", "", "Only issues in this milestone")
	issueSearchCmd.Flags().String("assignee", "", "Only issues assigned to this login")

	issueStartCmd.Flags().IntP("issue", "i", 0, "Issue number (default: choose interactively)")

	issueSaveCmd.Flags().StringP("message", "m", "", "Commit message")

	issueDoneCmd.Flags().String("title", "", "Pull request title")
	issueDoneCmd.Flags().String("comment", "", "Pull request description")
	issueDoneCmd.Flags().StringSlice("ping", nil, "Contributors to ask for a review")
}
