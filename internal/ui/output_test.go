package ui

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/naoray/hubber/internal/labels"
)

func captureOutput(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	prevOut, prevErr := out, errOut
	SetOutput(stdout, stderr)
	t.Cleanup(func() { SetOutput(prevOut, prevErr) })
	return stdout, stderr
}

func TestPrinters(t *testing.T) {
	stdout, stderr := captureOutput(t)

	PrintSuccess("created %s", "bug")
	PrintInfo("syncing %d repositories", 2)
	PrintWarning("skipped %s", "acme/a")
	PrintError(errors.New("boom"))
	PrintDone()

	assert.Contains(t, stdout.String(), "created bug")
	assert.Contains(t, stdout.String(), "syncing 2 repositories")
	assert.Contains(t, stdout.String(), "Done!")
	assert.Contains(t, stderr.String(), "skipped acme/a")
	assert.Contains(t, stderr.String(), "boom")
}

func TestSwatch(t *testing.T) {
	assert.Contains(t, Swatch(labels.Label{Name: "bug", Color: "d73a4a"}), "bug")
	assert.Equal(t, "plain", Swatch(labels.Label{Name: "plain", Color: "nope"}))

	rendered := Swatches([]labels.Label{{Name: "bug", Color: "d73a4a"}, {Name: "docs", Color: "0075ca"}})
	assert.Contains(t, rendered, "bug")
	assert.Contains(t, rendered, "docs")
}

func TestPrintLabels(t *testing.T) {
	stdout, _ := captureOutput(t)

	PrintLabels([]labels.Label{{Name: "bug", Color: "d73a4a", Description: "Something is broken"}})
	assert.Contains(t, stdout.String(), "bug")
	assert.Contains(t, stdout.String(), "Something is broken")
}

func TestContrastColor(t *testing.T) {
	assert.Equal(t, "#000000", contrastColor("ffffff"))
	assert.Equal(t, "#000000", contrastColor("fff"))
	assert.Equal(t, "#ffffff", contrastColor("000000"))
	assert.Equal(t, "#ffffff", contrastColor("0033CC"))
}

func TestRunWithSpinnerWithoutTerminal(t *testing.T) {
	want := errors.New("fetch failed")
	err := RunWithSpinner(context.Background(), "Fetching", func(ctx context.Context) error {
		return want
	})
	assert.ErrorIs(t, err, want)

	n, err := Fetch(context.Background(), "Counting", func(ctx context.Context) (int, error) {
		return 3, nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, n)
}
