package cli

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naoray/hubber/internal/config"
	hubbererrors "github.com/naoray/hubber/internal/errors"
)

func TestRunTokenUpdate(t *testing.T) {
	t.Run("stores a verified token", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer fresh-token", r.Header.Get("Authorization"))
			writeJSON(w, http.StatusOK, `{"login":"mona"}`)
		})
		cc, _ := newTestContext(t, mux)
		out := captureOutput(t)

		require.NoError(t, runTokenUpdate(cc, " fresh-token "))

		saved, err := config.Load(cc.ConfigDir)
		require.NoError(t, err)
		assert.Equal(t, "fresh-token", saved.AccessToken)
		assert.Contains(t, out.String(), "Token stored for mona")
	})

	t.Run("rejected token is not stored", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusUnauthorized, `{"message":"Bad credentials"}`)
		})
		cc, _ := newTestContext(t, mux)

		err := runTokenUpdate(cc, "bad-token")

		assert.ErrorIs(t, err, hubbererrors.ErrInvalidCredentials)
		saved, loadErr := config.Load(cc.ConfigDir)
		require.NoError(t, loadErr)
		assert.Empty(t, saved.AccessToken)
	})

	t.Run("prompting fails without input", func(t *testing.T) {
		cc, _ := newTestContext(t, http.NewServeMux())

		assert.ErrorIs(t, runTokenUpdate(cc, ""), hubbererrors.ErrTokenMissing)
	})
}
