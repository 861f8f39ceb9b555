package ui

import (
	"context"

	"github.com/charmbracelet/huh/spinner"
)

// RunWithSpinner runs action while showing a spinner titled title. Without a
// terminal the action runs silently.
func RunWithSpinner(ctx context.Context, title string, action func(ctx context.Context) error) error {
	if !IsInteractive() {
		return action(ctx)
	}

	var actionErr error
	err := spinner.New().
		Title(title).
		Context(ctx).
		Action(func() {
			actionErr = action(ctx)
		}).
		Run()
	if err != nil {
		return NormalizeAbort(err)
	}
	return actionErr
}

// Fetch runs fn behind a spinner and returns its result.
func Fetch[T any](ctx context.Context, title string, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := RunWithSpinner(ctx, title, func(ctx context.Context) error {
		var err error
		result, err = fn(ctx)
		return err
	})
	return result, err
}
