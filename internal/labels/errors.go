package labels

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies label store failures.
type Kind int

const (
	KindRemoteUnavailable Kind = iota
	KindAlreadyExists
	KindValidationFailed
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindAlreadyExists:
		return "already exists"
	case KindValidationFailed:
		return "validation failed"
	case KindNotFound:
		return "not found"
	default:
		return "remote unavailable"
	}
}

// Sentinels matched by errors.Is against any *Error of the same kind.
var (
	ErrAlreadyExists     = errors.New("label already exists")
	ErrValidationFailed  = errors.New("label validation failed")
	ErrNotFound          = errors.New("label or repository not found")
	ErrRemoteUnavailable = errors.New("label store unavailable")
)

// Error is a failure for one label on one repository.
type Error struct {
	Kind  Kind
	Repo  RepositoryRef
	Label string
	Err   error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Repo != (RepositoryRef{}) {
		fmt.Fprintf(&b, " in %s", e.Repo)
	}
	if e.Label != "" {
		fmt.Fprintf(&b, " for label %q", e.Label)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for the error's kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrAlreadyExists:
		return e.Kind == KindAlreadyExists
	case ErrValidationFailed:
		return e.Kind == KindValidationFailed
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrRemoteUnavailable:
		return e.Kind == KindRemoteUnavailable
	}
	return false
}

// KindOf extracts the kind of err, treating unknown errors as
// KindRemoteUnavailable.
func KindOf(err error) Kind {
	var labelErr *Error
	if errors.As(err, &labelErr) {
		return labelErr.Kind
	}
	return KindRemoteUnavailable
}

// asError turns any store error into an *Error scoped to repo and label.
func asError(err error, repo RepositoryRef, label string) *Error {
	var labelErr *Error
	if errors.As(err, &labelErr) {
		scoped := *labelErr
		if scoped.Repo == (RepositoryRef{}) {
			scoped.Repo = repo
		}
		if scoped.Label == "" {
			scoped.Label = label
		}
		return &scoped
	}
	return &Error{Kind: KindRemoteUnavailable, Repo: repo, Label: label, Err: err}
}

// BatchError collects per-item failures of a batch operation.
type BatchError struct {
	Errors []*Error
}

func (e *BatchError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("%d label operations failed: %s", len(e.Errors), strings.Join(msgs, "; "))
}

func (e *BatchError) Unwrap() []error {
	errs := make([]error, len(e.Errors))
	for i, err := range e.Errors {
		errs[i] = err
	}
	return errs
}

// batchError returns nil for an empty slice so callers can return it as error.
func batchError(errs []*Error) error {
	if len(errs) == 0 {
		return nil
	}
	return &BatchError{Errors: errs}
}

// Failures lists the per-item errors inside err, which may be a *BatchError,
// a single *Error, or any other error.
func Failures(err error) []*Error {
	if err == nil {
		return nil
	}
	var batch *BatchError
	if errors.As(err, &batch) {
		return batch.Errors
	}
	return []*Error{asError(err, RepositoryRef{}, "")}
}
