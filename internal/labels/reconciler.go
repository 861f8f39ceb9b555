package labels

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/sourcegraph/conc/pool"
)

// Reconciler applies label changes across repositories through a Store.
// It keeps no state between calls; every operation re-reads what it needs.
type Reconciler struct {
	store          Store
	logger         *log.Logger
	maxConcurrency int
	dryRun         bool
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithLogger sets the logger used for debug output.
func WithLogger(logger *log.Logger) Option {
	return func(r *Reconciler) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMaxConcurrency caps the number of in-flight store calls per batch.
// Zero or less means unbounded.
func WithMaxConcurrency(n int) Option {
	return func(r *Reconciler) {
		r.maxConcurrency = n
	}
}

// WithDryRun makes mutations succeed without calling the store.
// Reads still go to the store.
func WithDryRun(dryRun bool) Option {
	return func(r *Reconciler) {
		r.dryRun = dryRun
	}
}

// NewReconciler creates a Reconciler backed by store.
func NewReconciler(store Store, opts ...Option) *Reconciler {
	r := &Reconciler{
		store:  store,
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SyncReport is the outcome of Sync. Added has an entry for every target,
// empty when the target was already in sync or could not be processed.
type SyncReport struct {
	Base    RepositoryRef
	Targets []RepositoryRef
	Added   map[RepositoryRef][]Label
	Errors  []*Error
}

// FailuresFor returns the errors recorded for one target.
func (r *SyncReport) FailuresFor(repo RepositoryRef) []*Error {
	var errs []*Error
	for _, err := range r.Errors {
		if err.Repo == repo {
			errs = append(errs, err)
		}
	}
	return errs
}

// Apply creates every label on target. Labels failing local validation are
// rejected without a remote call. Creations run concurrently and a failure
// never stops its siblings. It returns the labels created, in input order,
// and a *BatchError listing the failures, if any.
func (r *Reconciler) Apply(ctx context.Context, target RepositoryRef, set []Label) ([]Label, error) {
	type outcome struct {
		label   Label
		created bool
		err     *Error
	}

	outcomes := settle(r.maxConcurrency, len(set), func(i int) outcome {
		label := set[i]
		if err := Validate(label); err != nil {
			return outcome{label: label, err: asError(err, target, label.Name)}
		}
		if r.dryRun {
			r.logger.Debug("dry run: skipping label creation", "repo", target, "label", label.Name)
			return outcome{label: label, created: true}
		}
		created, err := r.store.CreateLabel(ctx, target, label)
		if err != nil {
			r.logger.Debug("creating label failed", "repo", target, "label", label.Name, "err", err)
			return outcome{label: label, err: asError(err, target, label.Name)}
		}
		if created.Name == "" {
			created = label
		}
		return outcome{label: created, created: true}
	})

	var created []Label
	var errs []*Error
	for _, o := range outcomes {
		if o.created {
			created = append(created, o.label)
			continue
		}
		errs = append(errs, o.err)
	}
	return created, batchError(errs)
}

// Sync adds the labels of base that are missing on each target. The base
// label set is fetched once; failing to fetch it aborts the sync. Targets are
// processed concurrently and a failing target is recorded in the report
// without affecting the others.
func (r *Reconciler) Sync(ctx context.Context, base RepositoryRef, targets []RepositoryRef) (*SyncReport, error) {
	baseLabels, err := r.store.ListLabels(ctx, base)
	if err != nil {
		return nil, fmt.Errorf("fetching labels of base repository %s: %w", base, asError(err, base, ""))
	}
	r.logger.Debug("fetched base labels", "repo", base, "count", len(baseLabels))

	type outcome struct {
		added []Label
		errs  []*Error
	}

	outcomes := settle(r.maxConcurrency, len(targets), func(i int) outcome {
		target := targets[i]
		targetLabels, err := r.store.ListLabels(ctx, target)
		if err != nil {
			return outcome{errs: []*Error{asError(err, target, "")}}
		}

		missing := DiffMissing(baseLabels, targetLabels)
		if len(missing) == 0 {
			r.logger.Debug("repository already in sync", "repo", target)
			return outcome{}
		}

		created, err := r.Apply(ctx, target, missing)
		return outcome{added: created, errs: Failures(err)}
	})

	report := &SyncReport{
		Base:    base,
		Targets: targets,
		Added:   make(map[RepositoryRef][]Label, len(targets)),
	}
	for i, o := range outcomes {
		added := o.added
		if added == nil {
			added = []Label{}
		}
		report.Added[targets[i]] = added
		report.Errors = append(report.Errors, o.errs...)
	}
	return report, nil
}

// AddToRepositories creates label on every target concurrently and returns
// the targets where it was created, in input order.
func (r *Reconciler) AddToRepositories(ctx context.Context, label Label, targets []RepositoryRef) ([]RepositoryRef, error) {
	if err := Validate(label); err != nil {
		return nil, err
	}

	type outcome struct {
		ok  bool
		err *Error
	}

	outcomes := settle(r.maxConcurrency, len(targets), func(i int) outcome {
		created, err := r.Apply(ctx, targets[i], []Label{label})
		if err != nil {
			return outcome{err: Failures(err)[0]}
		}
		return outcome{ok: len(created) == 1}
	})

	var done []RepositoryRef
	var errs []*Error
	for i, o := range outcomes {
		if o.ok {
			done = append(done, targets[i])
		} else if o.err != nil {
			errs = append(errs, o.err)
		}
	}
	return done, batchError(errs)
}

// Edit replaces the label named labelName on every target with newLabel.
// newLabel is validated once before any remote call.
func (r *Reconciler) Edit(ctx context.Context, labelName string, newLabel Label, targets []RepositoryRef) error {
	if err := Validate(newLabel); err != nil {
		return err
	}

	errs := settle(r.maxConcurrency, len(targets), func(i int) *Error {
		target := targets[i]
		if r.dryRun {
			r.logger.Debug("dry run: skipping label update", "repo", target, "label", labelName)
			return nil
		}
		if _, err := r.store.UpdateLabel(ctx, target, labelName, newLabel); err != nil {
			return asError(err, target, labelName)
		}
		return nil
	})
	return batchError(compact(errs))
}

// Remove deletes the label named labelName from every target. A target that
// does not have the label counts as success.
func (r *Reconciler) Remove(ctx context.Context, labelName string, targets []RepositoryRef) error {
	errs := settle(r.maxConcurrency, len(targets), func(i int) *Error {
		target := targets[i]
		if r.dryRun {
			r.logger.Debug("dry run: skipping label deletion", "repo", target, "label", labelName)
			return nil
		}
		err := r.store.DeleteLabel(ctx, target, labelName)
		if err == nil || errors.Is(err, ErrNotFound) {
			return nil
		}
		return asError(err, target, labelName)
	})
	return batchError(compact(errs))
}

// FindReposWithLabel lists the repositories of owner that have a label named
// labelName, in the order the store enumerates them. Repositories without
// the label are skipped silently; other lookup failures are returned as a
// *BatchError next to the repositories that were found.
func (r *Reconciler) FindReposWithLabel(ctx context.Context, owner, labelName string) ([]RepositoryRef, error) {
	repos, err := r.store.ListRepositoriesForOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("listing repositories for %s: %w", owner, asError(err, RepositoryRef{Owner: owner}, ""))
	}

	type outcome struct {
		found bool
		err   *Error
	}

	outcomes := settle(r.maxConcurrency, len(repos), func(i int) outcome {
		_, err := r.store.GetLabel(ctx, repos[i], labelName)
		switch {
		case err == nil:
			return outcome{found: true}
		case errors.Is(err, ErrNotFound):
			return outcome{}
		default:
			return outcome{err: asError(err, repos[i], labelName)}
		}
	})

	var found []RepositoryRef
	var errs []*Error
	for i, o := range outcomes {
		if o.found {
			found = append(found, repos[i])
		}
		if o.err != nil {
			errs = append(errs, o.err)
		}
	}
	r.logger.Debug("searched repositories for label", "owner", owner, "label", labelName, "searched", len(repos), "found", len(found))
	return found, batchError(errs)
}

// settle runs fn for every index concurrently, waits for all of them and
// returns the results in index order.
func settle[T any](limit, n int, fn func(i int) T) []T {
	type indexed struct {
		index int
		value T
	}

	p := pool.NewWithResults[indexed]()
	if limit > 0 {
		p = p.WithMaxGoroutines(limit)
	}
	for i := range n {
		p.Go(func() indexed {
			return indexed{index: i, value: fn(i)}
		})
	}

	results := make([]T, n)
	for _, res := range p.Wait() {
		results[res.index] = res.value
	}
	return results
}

func compact(errs []*Error) []*Error {
	var out []*Error
	for _, err := range errs {
		if err != nil {
			out = append(out, err)
		}
	}
	return out
}
