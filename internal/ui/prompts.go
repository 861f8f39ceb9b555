package ui

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/huh"

	"github.com/naoray/hubber/internal/labels"
)

// ErrInputDisabled is returned by prompts when input has been turned off
// with DisableInput.
var ErrInputDisabled = errors.New("input required but prompts are disabled")

// Option is a choice shown by Select.
type Option[T comparable] struct {
	Label string
	Value T
}

// NewOption creates an Option.
func NewOption[T comparable](label string, value T) Option[T] {
	return Option[T]{Label: label, Value: value}
}

func run(form *huh.Form) error {
	if !InputEnabled() {
		return ErrInputDisabled
	}
	return NormalizeAbort(form.WithTheme(huh.ThemeCatppuccin()).Run())
}

// Select asks for one of options. Typing filters the list.
func Select[T comparable](title, description string, options []Option[T]) (T, error) {
	var selected T
	if len(options) == 0 {
		return selected, fmt.Errorf("nothing to select for %q", title)
	}

	opts := make([]huh.Option[T], len(options))
	for i, o := range options {
		opts[i] = huh.NewOption(o.Label, o.Value)
	}

	err := run(huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[T]().
				Title(title).
				Description(description).
				Options(opts...).
				Filtering(true).
				Value(&selected),
		),
	))
	return selected, err
}

// MultiSelect asks for any number of options and returns the chosen values
// in option order.
func MultiSelect[T comparable](title string, options []Option[T]) ([]T, error) {
	if len(options) == 0 {
		return nil, nil
	}

	opts := make([]huh.Option[T], len(options))
	for i, o := range options {
		opts[i] = huh.NewOption(o.Label, o.Value)
	}

	var selected []T
	err := run(huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[T]().
				Title(title).
				Description("Space to toggle, Enter to confirm").
				Options(opts...).
				Filterable(true).
				Value(&selected),
		),
	))
	if err != nil {
		return nil, err
	}
	return inOptionOrder(options, selected), nil
}

func inOptionOrder[T comparable](options []Option[T], selected []T) []T {
	chosen := make(map[T]bool, len(selected))
	for _, v := range selected {
		chosen[v] = true
	}
	var out []T
	for _, o := range options {
		if chosen[o.Value] {
			out = append(out, o.Value)
		}
	}
	return out
}

func Confirm(message string) (bool, error) {
	return ConfirmWithDescription(message, "")
}

func ConfirmWithDescription(title, description string) (bool, error) {
	var confirmed bool
	err := run(huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(description).
				Value(&confirmed),
		),
	))
	return confirmed, err
}

// Input asks for a single line. value is the initial content; validate may
// be nil.
func Input(title, placeholder, value string, validate func(string) error) (string, error) {
	field := huh.NewInput().
		Title(title).
		Placeholder(placeholder).
		Value(&value)
	if validate != nil {
		field = field.Validate(validate)
	}

	err := run(huh.NewForm(huh.NewGroup(field)))
	return strings.TrimSpace(value), err
}

// Text asks for multi-line content, starting from value. ctrl+e opens the
// user's $EDITOR.
func Text(title, value string) (string, error) {
	err := run(huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title(title).
				Description("ctrl+e to open your editor").
				Lines(12).
				CharLimit(0).
				Value(&value),
		),
	))
	return value, err
}

func Password(title string) (string, error) {
	var value string
	err := run(huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(title).
				EchoMode(huh.EchoModePassword).
				Value(&value).
				Validate(required("value")),
		),
	))
	return strings.TrimSpace(value), err
}

// PromptLabel asks for the fields of a label, starting from current. The form
// does not complete until every field passes label validation.
func PromptLabel(title string, current labels.Label) (labels.Label, error) {
	label := current
	err := run(huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Value(&label.Name).
				Validate(required("label name")),
			huh.NewInput().
				Title("Description").
				Description(fmt.Sprintf("At most %d characters", labels.MaxDescriptionLength)).
				CharLimit(labels.MaxDescriptionLength+1).
				Value(&label.Description).
				Validate(ValidateDescription),
			huh.NewInput().
				Title("Color").
				Description("Hex code such as d73a4a or #fff").
				Value(&label.Color).
				Validate(ValidateColor),
		).Title(title),
	))
	if err != nil {
		return labels.Label{}, err
	}
	return NormalizeLabel(label), nil
}

// NormalizeLabel trims the fields of label and drops a leading '#' from its
// color.
func NormalizeLabel(label labels.Label) labels.Label {
	return labels.Label{
		Name:        strings.TrimSpace(label.Name),
		Description: strings.TrimSpace(label.Description),
		Color:       strings.TrimPrefix(strings.TrimSpace(label.Color), "#"),
	}
}

func ValidateColor(s string) error {
	if !labels.IsValidColor(strings.TrimPrefix(strings.TrimSpace(s), "#")) {
		return fmt.Errorf("color must be a 3 or 6 digit hex code")
	}
	return nil
}

func ValidateDescription(s string) error {
	if n := utf8.RuneCountInString(strings.TrimSpace(s)); n > labels.MaxDescriptionLength {
		return fmt.Errorf("description must be at most %d characters, got %d", labels.MaxDescriptionLength, n)
	}
	return nil
}

func required(what string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s cannot be empty", what)
		}
		return nil
	}
}

// SelectRepositories asks which of repos to act on.
func SelectRepositories(title string, repos []labels.RepositoryRef) ([]labels.RepositoryRef, error) {
	options := make([]Option[labels.RepositoryRef], len(repos))
	for i, r := range repos {
		options[i] = NewOption(r.String(), r)
	}
	return MultiSelect(title, options)
}

// SelectLabel asks for one label of set, shown as colored swatches.
func SelectLabel(title string, set []labels.Label) (labels.Label, error) {
	if len(set) == 0 {
		return labels.Label{}, fmt.Errorf("repository has no labels")
	}

	options := make([]Option[string], len(set))
	for i, l := range set {
		options[i] = NewOption(Swatch(l), l.Name)
	}
	name, err := Select(title, "", options)
	if err != nil {
		return labels.Label{}, err
	}
	for _, l := range set {
		if l.Name == name {
			return l, nil
		}
	}
	return labels.Label{}, fmt.Errorf("label %q not found", name)
}
