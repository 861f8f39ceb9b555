package github

import (
	"errors"
	"fmt"
	"net/http"

	gh "github.com/google/go-github/v66/github"

	hubbererrors "github.com/naoray/hubber/internal/errors"
	"github.com/naoray/hubber/internal/labels"
)

// translate maps a go-github error onto the label error kinds:
// 404 is NotFound, 422 with an already_exists code is AlreadyExists, any
// other 422 is ValidationFailed, everything else is RemoteUnavailable.
// A 401 additionally matches errors.ErrInvalidCredentials.
func translate(err error, repo labels.RepositoryRef, label string) error {
	if err == nil {
		return nil
	}

	kind := labels.KindRemoteUnavailable
	cause := err

	var rateErr *gh.RateLimitError
	var abuseErr *gh.AbuseRateLimitError
	var respErr *gh.ErrorResponse
	switch {
	case errors.As(err, &rateErr), errors.As(err, &abuseErr):
	case errors.As(err, &respErr) && respErr.Response != nil:
		switch respErr.Response.StatusCode {
		case http.StatusNotFound:
			kind = labels.KindNotFound
		case http.StatusUnprocessableEntity:
			kind = labels.KindValidationFailed
			if hasErrorCode(respErr, "already_exists") {
				kind = labels.KindAlreadyExists
			}
		case http.StatusUnauthorized:
			cause = fmt.Errorf("%w: %w", hubbererrors.ErrInvalidCredentials, err)
		}
	}

	return &labels.Error{Kind: kind, Repo: repo, Label: label, Err: cause}
}

func hasErrorCode(resp *gh.ErrorResponse, code string) bool {
	for _, e := range resp.Errors {
		if e.Code == code {
			return true
		}
	}
	return false
}

func isNotFound(err error) bool {
	var respErr *gh.ErrorResponse
	return errors.As(err, &respErr) && respErr.Response != nil && respErr.Response.StatusCode == http.StatusNotFound
}
