package credentialstore

import "context"

// Store is a key-value store for bearer credentials
type Store interface {
	// Returns the credential stored under name, and whether it was present
	GetCredential(ctx context.Context, name string) (string, bool, error)
	SetCredential(ctx context.Context, name string, value string) error
	// Deleting a missing credential is not an error
	DeleteCredential(ctx context.Context, name string) error
}
