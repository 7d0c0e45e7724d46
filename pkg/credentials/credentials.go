package credentials

import (
	"context"
	"time"

	"github.com/Sachamoyne/Contactly/pkg/provider"
)

// Credential is one stored OAuth session for a cloud provider. The token is
// opaque to the rest of the system; expiry is provider-driven.
type Credential struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
	AccountEmail string
}

// Store persists one credential per (user, provider). A cleared credential is
// never recreated except through an explicit sign-in.
type Store interface {
	// Save creates or overwrites the credential.
	Save(ctx context.Context, userId int, p provider.Type, cred Credential) error

	// Read returns the stored credential, or nil when none exists. Access
	// failures are treated as "no token", not as fatal errors.
	Read(ctx context.Context, userId int, p provider.Type) (*Credential, error)

	// Clear deletes the credential. Idempotent.
	Clear(ctx context.Context, userId int, p provider.Type) error
}
