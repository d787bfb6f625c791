package auth

import (
	"context"

	"github.com/splitease/splitease/internal/models"
)

// Authenticator is the interface for authentication implementations, so the
// API layer does not care whether accounts are password, OAuth or
// passkey-backed.
type Authenticator interface {
	// Register creates a new user account. Returns the created user or an
	// error if registration fails (weak password, duplicate email, ...).
	Register(ctx context.Context, email, firstName, lastName, password string) (*models.User, error)

	// Authenticate verifies the user's credentials and returns the user if
	// successful.
	Authenticate(ctx context.Context, email, password string) (*models.User, error)

	// ValidateCredential checks if the credential meets the implementation's
	// requirements.
	ValidateCredential(password string) error
}
