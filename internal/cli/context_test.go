package cli

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naoray/hubber/internal/config"
	hubbererrors "github.com/naoray/hubber/internal/errors"
	"github.com/naoray/hubber/internal/labels"
)

func TestAuthenticate(t *testing.T) {
	t.Run("syncs the identity into config and git", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, `{"login":"mona","name":"Mona Lisa","email":"mona@example.com"}`)
		})
		cc, mock := newTestContext(t, mux)
		cc.GitHub = nil

		require.NoError(t, cc.authenticate())

		assert.NotNil(t, cc.GitHub)
		assert.True(t, mock.WasCalled("git", "config", "--global", "user.name", "Mona Lisa"))
		assert.True(t, mock.WasCalled("git", "config", "--global", "user.email", "mona@example.com"))

		saved, err := config.Load(cc.ConfigDir)
		require.NoError(t, err)
		assert.Equal(t, "Mona Lisa", saved.Name)
		assert.Equal(t, "mona@example.com", saved.Email)
	})

	t.Run("unchanged identity leaves git alone", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, `{"login":"mona"}`)
		})
		cc, mock := newTestContext(t, mux)
		cc.Config.Name = "mona"

		require.NoError(t, cc.authenticate())
		assert.Zero(t, mock.CallCount())
	})

	t.Run("rejected stored token is cleared", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusUnauthorized, `{"message":"Bad credentials"}`)
		})
		cc, _ := newTestContext(t, mux)
		require.NoError(t, cc.SaveConfig())

		err := cc.authenticate()

		assert.ErrorIs(t, err, hubbererrors.ErrInvalidCredentials)
		assert.Empty(t, cc.Config.AccessToken)
		saved, loadErr := config.Load(cc.ConfigDir)
		require.NoError(t, loadErr)
		assert.Empty(t, saved.AccessToken)
	})

	t.Run("rejected environment token is kept", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusUnauthorized, `{"message":"Bad credentials"}`)
		})
		cc, _ := newTestContext(t, mux)
		cc.Config.TokenSource = config.TokenSourceEnv

		assert.ErrorIs(t, cc.authenticate(), hubbererrors.ErrInvalidCredentials)
		assert.Equal(t, "test-token", cc.Config.AccessToken)
	})

	t.Run("missing token without input", func(t *testing.T) {
		cc, _ := newTestContext(t, http.NewServeMux())
		cc.Config.ClearToken()

		assert.ErrorIs(t, cc.authenticate(), hubbererrors.ErrTokenMissing)
	})
}

func TestCurrentRepo(t *testing.T) {
	t.Run("parses origin and remembers it without credentials", func(t *testing.T) {
		cc, mock := newTestContext(t, http.NewServeMux())
		mock.SetGitResponse("https://old-token@github.com/acme/widgets.git", nil, "config", "--get", "remote.origin.url")

		ref, err := cc.CurrentRepo()

		require.NoError(t, err)
		assert.Equal(t, labels.RepositoryRef{Owner: "acme", Name: "widgets"}, ref)
		assert.Equal(t, "https://github.com/acme/widgets.git", cc.Config.FindRepo("acme", "widgets").URL)

		calls := mock.CallCount()
		_, err = cc.CurrentRepo()
		require.NoError(t, err)
		assert.Equal(t, calls, mock.CallCount(), "resolved once")
	})

	t.Run("ssh remote", func(t *testing.T) {
		cc, mock := newTestContext(t, http.NewServeMux())
		mock.SetGitResponse("git@github.com:acme/gadgets.git", nil, "config", "--get", "remote.origin.url")

		ref, err := cc.CurrentRepo()
		require.NoError(t, err)
		assert.Equal(t, labels.RepositoryRef{Owner: "acme", Name: "gadgets"}, ref)
	})

	t.Run("no origin", func(t *testing.T) {
		cc, mock := newTestContext(t, http.NewServeMux())
		mock.SetGitResponse("", exitStatus(1), "config", "--get", "remote.origin.url")
		mock.SetGitResponse("true", nil, "rev-parse", "--is-inside-work-tree")

		_, err := cc.CurrentRepo()
		assert.ErrorIs(t, err, hubbererrors.ErrNotGitHubRemote)
	})

	t.Run("outside a repository", func(t *testing.T) {
		cc, mock := newTestContext(t, http.NewServeMux())
		mock.SetGitResponse("", exitStatus(1), "config", "--get", "remote.origin.url")
		mock.SetGitResponse("", exitStatus(128), "rev-parse", "--is-inside-work-tree")

		_, err := cc.CurrentRepo()
		assert.ErrorIs(t, err, hubbererrors.ErrNotGitRepository)
	})

	t.Run("not a GitHub remote", func(t *testing.T) {
		cc, mock := newTestContext(t, http.NewServeMux())
		mock.SetGitResponse("https://gitlab.com/acme/widgets.git", nil, "config", "--get", "remote.origin.url")

		_, err := cc.CurrentRepo()
		assert.ErrorIs(t, err, hubbererrors.ErrNotGitHubRemote)
	})
}

func TestRepoOrCurrent(t *testing.T) {
	cc, mock := newTestContext(t, http.NewServeMux())

	ref, err := cc.RepoOrCurrent("octo/cat")
	require.NoError(t, err)
	assert.Equal(t, labels.RepositoryRef{Owner: "octo", Name: "cat"}, ref)
	assert.Zero(t, mock.CallCount())

	ref, err = cc.RepoOrCurrent("")
	require.NoError(t, err)
	assert.Equal(t, labels.RepositoryRef{Owner: "acme", Name: "widgets"}, ref)
}

func TestEnsurePushAccess(t *testing.T) {
	t.Run("ssh remote is left alone", func(t *testing.T) {
		cc, mock := newTestContext(t, http.NewServeMux())
		mock.SetGitResponse("git@github.com:acme/widgets.git", nil, "config", "--get", "remote.origin.url")

		require.NoError(t, cc.ensurePushAccess())
		assert.Equal(t, 1, mock.CallCount())
	})

	t.Run("token already present", func(t *testing.T) {
		cc, mock := newTestContext(t, http.NewServeMux())
		mock.SetGitResponse("https://test-token@github.com/acme/widgets.git", nil, "config", "--get", "remote.origin.url")

		require.NoError(t, cc.ensurePushAccess())
		assert.Equal(t, 1, mock.CallCount())
	})
}

func TestPresetManager(t *testing.T) {
	cc, _ := newTestContext(t, http.NewServeMux())
	cc.Config.Presets = map[string][]labels.Label{
		"team": {{Name: "team", Color: "123456"}},
		"bad":  {{Name: "bad", Color: "xyz"}},
	}

	manager := cc.PresetManager()
	assert.Same(t, manager, cc.PresetManager())

	team, err := manager.Get("team")
	require.NoError(t, err)
	assert.Equal(t, []labels.Label{{Name: "team", Color: "123456"}}, team.Labels())

	_, err = manager.Get("bad")
	assert.Error(t, err)
}
