package sessiongate

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// ProvisionResult reports what a delegated-identity contact resolved to.
// Pending means the principal was unknown: records were created but no
// credentials may be issued until the account is approved.
type ProvisionResult struct {
	Pending     bool
	UserID      string
	DisplayName string
}

// Provisioner finds or creates the email/user pair for a verified external
// profile.
type Provisioner struct {
	store  Store
	logger Logger
}

// NewProvisioner returns a Provisioner over the given record store.
func NewProvisioner(store Store) *Provisioner {
	return &Provisioner{
		store:  store,
		logger: defLogger{},
	}
}

func (p *Provisioner) WithLogger(logger Logger) *Provisioner {
	if logger != nil {
		p.logger = logger
	}
	return p
}

// Provision resolves a verified profile to an owning user id, creating the
// email record and then the user record on first contact. The two inserts are
// not transactional; a dangling email record after a failed user insert is an
// accepted failure mode.
func (p *Provisioner) Provision(ctx context.Context, profile Profile) (*ProvisionResult, error) {
	emailRecord, err := p.store.Get(ctx, EmailKey(profile.Email))
	if err != nil {
		if !IsRecordNotFound(err) {
			return nil, errors.Wrap(err, errors.CategoryInternal, "failed to look up email record")
		}
		return p.provisionUnknown(ctx, profile)
	}

	displayName := profile.DisplayName
	if user, err := p.store.Get(ctx, emailRecord.UserID); err == nil && user.DisplayName != "" {
		displayName = user.DisplayName
	} else if err != nil && !IsRecordNotFound(err) {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to load user record")
	}

	return &ProvisionResult{
		UserID:      emailRecord.UserID,
		DisplayName: displayName,
	}, nil
}

func (p *Provisioner) provisionUnknown(ctx context.Context, profile Profile) (*ProvisionResult, error) {
	userID := mintUserID(profile.Email)

	if err := p.store.Insert(ctx, NewEmailRecord(profile.Email, userID, profile.Provider)); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to create email record")
	}

	if err := p.store.Insert(ctx, NewUserRecord(userID, profile.DisplayName)); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to create user record")
	}

	p.logger.Info("provisioned pending account", "email", NormalizeEmail(profile.Email), "user_id", userID)

	return &ProvisionResult{
		Pending:     true,
		UserID:      userID,
		DisplayName: profile.DisplayName,
	}, nil
}

// mintUserID derives a stable user id from the email so a retried first
// contact lands on the same id; falls back to a random UUID.
func mintUserID(email string) string {
	if id, err := hashid.NewUUID(NormalizeEmail(email)); err == nil {
		return id.String()
	}
	return uuid.NewString()
}
