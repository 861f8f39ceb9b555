package bootstrap

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingStep struct {
	name    string
	applies bool
	err     error
	ran     *[]string
}

func (s *recordingStep) Name() string                   { return s.name }
func (s *recordingStep) Condition(rc *RepoContext) bool { return s.applies }
func (s *recordingStep) Run(ctx context.Context, rc *RepoContext, opts Options) error {
	*s.ran = append(*s.ran, s.name)
	return s.err
}

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func TestExecutor(t *testing.T) {
	t.Run("runs applicable steps in order", func(t *testing.T) {
		var ran []string
		steps := []Step{
			&recordingStep{name: "first", applies: true, ran: &ran},
			&recordingStep{name: "skipped", applies: false, ran: &ran},
			&recordingStep{name: "last", applies: true, ran: &ran},
		}

		results, err := Run(context.Background(), steps, &RepoContext{}, Options{}, quietLogger())
		require.NoError(t, err)
		assert.Equal(t, []string{"first", "last"}, ran)
		require.Len(t, results, 3)
		assert.False(t, results[0].Skipped)
		assert.True(t, results[1].Skipped)
		assert.False(t, results[2].Skipped)
	})

	t.Run("stops at the first failure", func(t *testing.T) {
		var ran []string
		boom := errors.New("boom")
		steps := []Step{
			&recordingStep{name: "fails", applies: true, err: boom, ran: &ran},
			&recordingStep{name: "never", applies: true, ran: &ran},
		}

		results, err := Run(context.Background(), steps, &RepoContext{}, Options{Verbose: true}, quietLogger())
		require.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "step fails failed")
		assert.Equal(t, []string{"fails"}, ran)
		require.Len(t, results, 1)
		assert.ErrorIs(t, results[0].Err, boom)
	})

	t.Run("dry run records without running", func(t *testing.T) {
		var ran []string
		steps := []Step{&recordingStep{name: "first", applies: true, ran: &ran}}

		results, err := Run(context.Background(), steps, &RepoContext{}, Options{DryRun: true}, quietLogger())
		require.NoError(t, err)
		assert.Empty(t, ran)
		require.Len(t, results, 1)
		assert.False(t, results[0].Skipped)
		assert.NoError(t, results[0].Err)
	})

	t.Run("cancelled context stops before the next step", func(t *testing.T) {
		var ran []string
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := Run(ctx, []Step{&recordingStep{name: "first", applies: true, ran: &ran}}, &RepoContext{}, Options{}, quietLogger())
		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, ran)
	})
}
