package labels

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryStore is a concurrency-safe in-memory Store.
type memoryStore struct {
	mu      sync.Mutex
	repos   map[RepositoryRef][]Label
	owners  map[string][]RepositoryRef
	failing map[string]error
	calls   map[string]int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		repos:   map[RepositoryRef][]Label{},
		owners:  map[string][]RepositoryRef{},
		failing: map[string]error{},
		calls:   map[string]int{},
	}
}

func (s *memoryStore) addRepo(repo RepositoryRef, set ...Label) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.repos[repo] = append([]Label{}, set...)
	s.owners[repo.Owner] = append(s.owners[repo.Owner], repo)
}

// fail makes op on repo return err.
func (s *memoryStore) fail(op string, repo RepositoryRef, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failing[op+" "+repo.String()] = err
}

func (s *memoryStore) enter(op string, repo RepositoryRef) error {
	s.calls[op]++
	if err, ok := s.failing[op+" "+repo.String()]; ok {
		return err
	}
	if _, ok := s.repos[repo]; !ok {
		return &Error{Kind: KindNotFound, Repo: repo}
	}
	return nil
}

func (s *memoryStore) callCount(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

func (s *memoryStore) labelsOf(repo RepositoryRef) []Label {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Label{}, s.repos[repo]...)
}

func (s *memoryStore) find(repo RepositoryRef, name string) int {
	for i, l := range s.repos[repo] {
		if l.Name == name {
			return i
		}
	}
	return -1
}

func (s *memoryStore) ListLabels(_ context.Context, repo RepositoryRef) ([]Label, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("list", repo); err != nil {
		return nil, err
	}
	return append([]Label{}, s.repos[repo]...), nil
}

func (s *memoryStore) CreateLabel(_ context.Context, repo RepositoryRef, label Label) (Label, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("create", repo); err != nil {
		return Label{}, err
	}
	if s.find(repo, label.Name) >= 0 {
		return Label{}, &Error{Kind: KindAlreadyExists, Repo: repo, Label: label.Name}
	}
	s.repos[repo] = append(s.repos[repo], label)
	return label, nil
}

func (s *memoryStore) GetLabel(_ context.Context, repo RepositoryRef, name string) (Label, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("get", repo); err != nil {
		return Label{}, err
	}
	i := s.find(repo, name)
	if i < 0 {
		return Label{}, &Error{Kind: KindNotFound, Repo: repo, Label: name}
	}
	return s.repos[repo][i], nil
}

func (s *memoryStore) UpdateLabel(_ context.Context, repo RepositoryRef, oldName string, label Label) (Label, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("update", repo); err != nil {
		return Label{}, err
	}
	i := s.find(repo, oldName)
	if i < 0 {
		return Label{}, &Error{Kind: KindNotFound, Repo: repo, Label: oldName}
	}
	s.repos[repo][i] = label
	return label, nil
}

func (s *memoryStore) DeleteLabel(_ context.Context, repo RepositoryRef, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("delete", repo); err != nil {
		return err
	}
	i := s.find(repo, name)
	if i < 0 {
		return &Error{Kind: KindNotFound, Repo: repo, Label: name}
	}
	s.repos[repo] = append(s.repos[repo][:i], s.repos[repo][i+1:]...)
	return nil
}

func (s *memoryStore) ListRepositoriesForOwner(_ context.Context, owner string) ([]RepositoryRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["repos"]++
	if err, ok := s.failing["repos "+owner]; ok {
		return nil, err
	}
	return append([]RepositoryRef{}, s.owners[owner]...), nil
}

var (
	bugLabel      = Label{Name: "bug", Color: "d73a4a", Description: "Something isn't working"}
	featureLabel  = Label{Name: "feature", Color: "a2eeef"}
	docsLabel     = Label{Name: "docs", Color: "0075ca", Description: "Documentation"}
	quietLogger   = log.New(io.Discard)
	repoA         = RepositoryRef{Owner: "acme", Name: "a"}
	repoB         = RepositoryRef{Owner: "acme", Name: "b"}
	repoC         = RepositoryRef{Owner: "acme", Name: "c"}
	errConnection = errors.New("connection reset")
)

func newTestReconciler(store Store, opts ...Option) *Reconciler {
	return NewReconciler(store, append([]Option{WithLogger(quietLogger)}, opts...)...)
}

func TestReconciler_Apply(t *testing.T) {
	t.Run("creates every label on the target", func(t *testing.T) {
		store := newMemoryStore()
		store.addRepo(repoA)

		created, err := newTestReconciler(store).Apply(context.Background(), repoA, []Label{bugLabel, featureLabel})

		require.NoError(t, err)
		assert.Equal(t, []Label{bugLabel, featureLabel}, created)
		assert.ElementsMatch(t, []Label{bugLabel, featureLabel}, store.labelsOf(repoA))
	})

	t.Run("existing label fails without stopping siblings", func(t *testing.T) {
		store := newMemoryStore()
		store.addRepo(repoA, featureLabel)

		created, err := newTestReconciler(store).Apply(context.Background(), repoA, []Label{bugLabel, featureLabel, docsLabel})

		assert.Equal(t, []Label{bugLabel, docsLabel}, created)
		require.Error(t, err)
		failures := Failures(err)
		require.Len(t, failures, 1)
		assert.Equal(t, KindAlreadyExists, failures[0].Kind)
		assert.Equal(t, "feature", failures[0].Label)
		assert.Equal(t, repoA, failures[0].Repo)
		assert.True(t, errors.Is(err, ErrAlreadyExists))
	})

	t.Run("invalid color is rejected before any remote call", func(t *testing.T) {
		store := newMemoryStore()
		store.addRepo(repoA)

		created, err := newTestReconciler(store).Apply(context.Background(), repoA, []Label{{Name: "bad", Color: "12G456"}})

		assert.Empty(t, created)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrValidationFailed))
		assert.Equal(t, 0, store.callCount("create"))
	})

	t.Run("long description is rejected", func(t *testing.T) {
		store := newMemoryStore()
		store.addRepo(repoA)
		long := Label{Name: "long", Color: "fff", Description: string(make([]byte, 101))}

		created, err := newTestReconciler(store).Apply(context.Background(), repoA, []Label{long, bugLabel})

		assert.Equal(t, []Label{bugLabel}, created)
		failures := Failures(err)
		require.Len(t, failures, 1)
		assert.Equal(t, KindValidationFailed, failures[0].Kind)
		assert.Equal(t, 1, store.callCount("create"))
	})

	t.Run("remote failure is reported per label", func(t *testing.T) {
		store := newMemoryStore()
		store.addRepo(repoA)
		store.fail("create", repoA, errConnection)

		created, err := newTestReconciler(store).Apply(context.Background(), repoA, []Label{bugLabel, docsLabel})

		assert.Empty(t, created)
		failures := Failures(err)
		require.Len(t, failures, 2)
		for _, f := range failures {
			assert.Equal(t, KindRemoteUnavailable, f.Kind)
			assert.ErrorIs(t, f, errConnection)
		}
	})

	t.Run("dry run skips creation", func(t *testing.T) {
		store := newMemoryStore()
		store.addRepo(repoA)

		created, err := newTestReconciler(store, WithDryRun(true)).Apply(context.Background(), repoA, []Label{bugLabel})

		require.NoError(t, err)
		assert.Equal(t, []Label{bugLabel}, created)
		assert.Empty(t, store.labelsOf(repoA))
	})
}

func TestReconciler_Sync(t *testing.T) {
	t.Run("adds missing labels to each target", func(t *testing.T) {
		store := newMemoryStore()
		store.addRepo(repoA, bugLabel, featureLabel)
		store.addRepo(repoB, bugLabel)
		store.addRepo(repoC, bugLabel, featureLabel)

		report, err := newTestReconciler(store).Sync(context.Background(), repoA, []RepositoryRef{repoB, repoC})

		require.NoError(t, err)
		assert.Empty(t, report.Errors)
		assert.Equal(t, []Label{featureLabel}, report.Added[repoB])
		assert.Empty(t, report.Added[repoC])
		assert.Contains(t, report.Added, repoC)
		assert.ElementsMatch(t, []Label{bugLabel, featureLabel}, store.labelsOf(repoB))
	})

	t.Run("target ends up with a superset of base names", func(t *testing.T) {
		store := newMemoryStore()
		store.addRepo(repoA, bugLabel, featureLabel, docsLabel)
		store.addRepo(repoB, Label{Name: "wontfix", Color: "ffffff"})

		_, err := newTestReconciler(store).Sync(context.Background(), repoA, []RepositoryRef{repoB})
		require.NoError(t, err)

		names := Names(store.labelsOf(repoB))
		assert.Subset(t, names, []string{"bug", "feature", "docs"})
		assert.Contains(t, names, "wontfix")
	})

	t.Run("second sync adds nothing", func(t *testing.T) {
		store := newMemoryStore()
		store.addRepo(repoA, bugLabel, featureLabel)
		store.addRepo(repoB)
		reconciler := newTestReconciler(store)

		_, err := reconciler.Sync(context.Background(), repoA, []RepositoryRef{repoB})
		require.NoError(t, err)
		report, err := reconciler.Sync(context.Background(), repoA, []RepositoryRef{repoB})

		require.NoError(t, err)
		assert.Empty(t, report.Added[repoB])
		assert.Equal(t, 2, store.callCount("create"))
	})

	t.Run("same name with different color counts as synced", func(t *testing.T) {
		store := newMemoryStore()
		store.addRepo(repoA, bugLabel)
		store.addRepo(repoB, Label{Name: "bug", Color: "000"})

		report, err := newTestReconciler(store).Sync(context.Background(), repoA, []RepositoryRef{repoB})

		require.NoError(t, err)
		assert.Empty(t, report.Added[repoB])
		assert.Equal(t, 0, store.callCount("create"))
	})

	t.Run("base fetch failure aborts", func(t *testing.T) {
		store := newMemoryStore()
		store.addRepo(repoA, bugLabel)
		store.addRepo(repoB)
		store.fail("list", repoA, errConnection)

		report, err := newTestReconciler(store).Sync(context.Background(), repoA, []RepositoryRef{repoB})

		assert.Nil(t, report)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrRemoteUnavailable))
		assert.Equal(t, 0, store.callCount("create"))
	})

	t.Run("failing target does not affect siblings", func(t *testing.T) {
		store := newMemoryStore()
		store.addRepo(repoA, bugLabel)
		store.addRepo(repoB)
		store.addRepo(repoC)
		store.fail("list", repoB, errConnection)

		report, err := newTestReconciler(store, WithMaxConcurrency(1)).Sync(context.Background(), repoA, []RepositoryRef{repoB, repoC})

		require.NoError(t, err)
		assert.Equal(t, []Label{bugLabel}, report.Added[repoC])
		assert.Empty(t, report.Added[repoB])
		failures := report.FailuresFor(repoB)
		require.Len(t, failures, 1)
		assert.Equal(t, KindRemoteUnavailable, failures[0].Kind)
		assert.Empty(t, report.FailuresFor(repoC))
	})

	t.Run("missing target is reported as not found", func(t *testing.T) {
		store := newMemoryStore()
		store.addRepo(repoA, bugLabel)
		ghost := RepositoryRef{Owner: "acme", Name: "ghost"}

		report, err := newTestReconciler(store).Sync(context.Background(), repoA, []RepositoryRef{ghost})

		require.NoError(t, err)
		require.Len(t, report.Errors, 1)
		assert.Equal(t, KindNotFound, report.Errors[0].Kind)
		assert.Equal(t, ghost, report.Errors[0].Repo)
	})
}

func TestReconciler_AddToRepositories(t *testing.T) {
	store := newMemoryStore()
	store.addRepo(repoA)
	store.addRepo(repoB, bugLabel)
	store.addRepo(repoC)

	done, err := newTestReconciler(store).AddToRepositories(context.Background(), bugLabel, []RepositoryRef{repoA, repoB, repoC})

	assert.Equal(t, []RepositoryRef{repoA, repoC}, done)
	failures := Failures(err)
	require.Len(t, failures, 1)
	assert.Equal(t, KindAlreadyExists, failures[0].Kind)
	assert.Equal(t, repoB, failures[0].Repo)

	t.Run("invalid label is rejected up front", func(t *testing.T) {
		store := newMemoryStore()
		store.addRepo(repoA)

		done, err := newTestReconciler(store).AddToRepositories(context.Background(), Label{Name: "x", Color: "nothex"}, []RepositoryRef{repoA})

		assert.Empty(t, done)
		assert.True(t, errors.Is(err, ErrValidationFailed))
		assert.Equal(t, 0, store.callCount("create"))
	})
}

func TestReconciler_Edit(t *testing.T) {
	renamed := Label{Name: "defect", Color: "ff0000", Description: "Broken"}

	t.Run("renames the label on every target", func(t *testing.T) {
		store := newMemoryStore()
		store.addRepo(repoA, bugLabel)
		store.addRepo(repoB, bugLabel, docsLabel)

		err := newTestReconciler(store).Edit(context.Background(), "bug", renamed, []RepositoryRef{repoA, repoB})

		require.NoError(t, err)
		assert.Equal(t, []Label{renamed}, store.labelsOf(repoA))
		assert.Equal(t, []Label{renamed, docsLabel}, store.labelsOf(repoB))
	})

	t.Run("invalid new label makes no remote call", func(t *testing.T) {
		store := newMemoryStore()
		store.addRepo(repoA, bugLabel)

		err := newTestReconciler(store).Edit(context.Background(), "bug", Label{Name: "bug", Color: "12G456"}, []RepositoryRef{repoA})

		assert.True(t, errors.Is(err, ErrValidationFailed))
		assert.Equal(t, 0, store.callCount("update"))
	})

	t.Run("collects per target failures", func(t *testing.T) {
		store := newMemoryStore()
		store.addRepo(repoA, bugLabel)
		store.addRepo(repoB)

		err := newTestReconciler(store).Edit(context.Background(), "bug", renamed, []RepositoryRef{repoA, repoB})

		failures := Failures(err)
		require.Len(t, failures, 1)
		assert.Equal(t, KindNotFound, failures[0].Kind)
		assert.Equal(t, repoB, failures[0].Repo)
		assert.Equal(t, []Label{renamed}, store.labelsOf(repoA))
	})
}

func TestReconciler_Remove(t *testing.T) {
	t.Run("deletes from every target treating absence as success", func(t *testing.T) {
		store := newMemoryStore()
		store.addRepo(repoA, bugLabel, docsLabel)
		store.addRepo(repoB)

		err := newTestReconciler(store).Remove(context.Background(), "bug", []RepositoryRef{repoA, repoB})

		require.NoError(t, err)
		assert.Equal(t, []Label{docsLabel}, store.labelsOf(repoA))
	})

	t.Run("reports remote failures", func(t *testing.T) {
		store := newMemoryStore()
		store.addRepo(repoA, bugLabel)
		store.addRepo(repoB, bugLabel)
		store.fail("delete", repoA, errConnection)

		err := newTestReconciler(store).Remove(context.Background(), "bug", []RepositoryRef{repoA, repoB})

		failures := Failures(err)
		require.Len(t, failures, 1)
		assert.Equal(t, repoA, failures[0].Repo)
		assert.Empty(t, store.labelsOf(repoB))
	})

	t.Run("dry run leaves labels in place", func(t *testing.T) {
		store := newMemoryStore()
		store.addRepo(repoA, bugLabel)

		err := newTestReconciler(store, WithDryRun(true)).Remove(context.Background(), "bug", []RepositoryRef{repoA})

		require.NoError(t, err)
		assert.Equal(t, []Label{bugLabel}, store.labelsOf(repoA))
		assert.Equal(t, 0, store.callCount("delete"))
	})
}

func TestReconciler_FindReposWithLabel(t *testing.T) {
	t.Run("filters repositories without the label", func(t *testing.T) {
		store := newMemoryStore()
		store.addRepo(repoA, bugLabel)
		store.addRepo(repoB, docsLabel)
		store.addRepo(repoC, docsLabel, bugLabel)

		found, err := newTestReconciler(store).FindReposWithLabel(context.Background(), "acme", "bug")

		require.NoError(t, err)
		assert.Equal(t, []RepositoryRef{repoA, repoC}, found)
	})

	t.Run("owner without repositories", func(t *testing.T) {
		found, err := newTestReconciler(newMemoryStore()).FindReposWithLabel(context.Background(), "nobody", "bug")

		require.NoError(t, err)
		assert.Empty(t, found)
	})

	t.Run("other lookup failures are reported next to the result", func(t *testing.T) {
		store := newMemoryStore()
		store.addRepo(repoA, bugLabel)
		store.addRepo(repoB, bugLabel)
		store.fail("get", repoB, errConnection)

		found, err := newTestReconciler(store).FindReposWithLabel(context.Background(), "acme", "bug")

		assert.Equal(t, []RepositoryRef{repoA}, found)
		failures := Failures(err)
		require.Len(t, failures, 1)
		assert.Equal(t, repoB, failures[0].Repo)
		assert.Equal(t, KindRemoteUnavailable, failures[0].Kind)
	})

	t.Run("enumeration failure is fatal", func(t *testing.T) {
		store := newMemoryStore()
		store.mu.Lock()
		store.failing["repos acme"] = errConnection
		store.mu.Unlock()

		found, err := newTestReconciler(store).FindReposWithLabel(context.Background(), "acme", "bug")

		assert.Nil(t, found)
		assert.ErrorIs(t, err, errConnection)
	})
}

func TestSettle_PreservesInputOrderUnderLimit(t *testing.T) {
	for _, limit := range []int{0, 1, 3} {
		results := settle(limit, 20, func(i int) int { return i * i })
		for i, v := range results {
			assert.Equal(t, i*i, v)
		}
	}
}
