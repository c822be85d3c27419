package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/Amund211/videofeed/internal/constants"
	"github.com/Amund211/videofeed/internal/domain"
)

type Login func(ctx context.Context, token string) error

type Logout func(ctx context.Context) error

type credentialWriter interface {
	SetCredential(ctx context.Context, name string, value string) error
	DeleteCredential(ctx context.Context, name string) error
}

type listingInvalidator interface {
	Invalidate(ctx context.Context)
}

// BuildLogin stores the credential and drops the listing fetched with the previous one
func BuildLogin(store credentialWriter, listing listingInvalidator) Login {
	return func(ctx context.Context, token string) error {
		token = strings.TrimSpace(token)
		if token == "" || len(token) > 4096 {
			return fmt.Errorf("%w: invalid token length", domain.ErrInvalidCredential)
		}

		err := store.SetCredential(ctx, constants.CREDENTIAL_NAME, token)
		if err != nil {
			// NOTE: Store implementations handle their own error reporting
			return fmt.Errorf("failed to store credential: %w", err)
		}

		listing.Invalidate(ctx)
		return nil
	}
}

func BuildLogout(store credentialWriter, listing listingInvalidator) Logout {
	return func(ctx context.Context) error {
		err := store.DeleteCredential(ctx, constants.CREDENTIAL_NAME)
		if err != nil {
			// NOTE: Store implementations handle their own error reporting
			return fmt.Errorf("failed to delete credential: %w", err)
		}

		listing.Invalidate(ctx)
		return nil
	}
}
