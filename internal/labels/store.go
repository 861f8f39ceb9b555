package labels

import "context"

// Store is the remote label store the reconciler operates on.
//
// Implementations report failures as *Error values (or errors wrapping one)
// so the reconciler can tell a missing label from an unavailable remote.
// Errors of any other type are treated as KindRemoteUnavailable.
type Store interface {
	ListLabels(ctx context.Context, repo RepositoryRef) ([]Label, error)
	CreateLabel(ctx context.Context, repo RepositoryRef, label Label) (Label, error)
	GetLabel(ctx context.Context, repo RepositoryRef, name string) (Label, error)
	UpdateLabel(ctx context.Context, repo RepositoryRef, oldName string, label Label) (Label, error)
	DeleteLabel(ctx context.Context, repo RepositoryRef, name string) error
	ListRepositoriesForOwner(ctx context.Context, owner string) ([]RepositoryRef, error)
}
