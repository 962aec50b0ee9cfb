package sessiongate

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-errors"
)

// RegisterInput carries the fields needed to create a password account.
type RegisterInput struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

// Validate implements validation.Validatable.
func (r RegisterInput) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 128)),
		validation.Field(&r.DisplayName, validation.Length(0, 256)),
	)
}

// Registrar creates password-authenticated accounts: an email record carrying
// the hash plus its owning user record.
type Registrar struct {
	store  Store
	logger Logger
}

// NewRegistrar returns a Registrar over the given record store.
func NewRegistrar(store Store) *Registrar {
	return &Registrar{
		store:  store,
		logger: defLogger{},
	}
}

func (r *Registrar) WithLogger(logger Logger) *Registrar {
	if logger != nil {
		r.logger = logger
	}
	return r
}

// Register creates the email and user records for a new password account.
// Registering an email that already has a record is a conflict, whatever auth
// type the existing record carries.
func (r *Registrar) Register(ctx context.Context, input RegisterInput) (*ProvisionResult, error) {
	if err := input.Validate(); err != nil {
		return nil, errors.Wrap(err, errors.CategoryValidation, "invalid registration payload").
			WithTextCode("VALIDATION_ERROR").
			WithCode(errors.CodeBadRequest)
	}

	if _, err := r.store.Get(ctx, EmailKey(input.Email)); err == nil {
		return nil, errors.New("email already registered", errors.CategoryConflict).
			WithTextCode("EMAIL_TAKEN").
			WithCode(errors.CodeConflict)
	} else if !IsRecordNotFound(err) {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to look up email record")
	}

	hash, err := HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	userID := mintUserID(input.Email)

	emailRecord := NewEmailRecord(input.Email, userID, AuthTypePassword)
	emailRecord.Algorithm = AlgorithmBcrypt
	emailRecord.PasswordHash = hash

	if err := r.store.Insert(ctx, emailRecord); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to create email record")
	}

	if err := r.store.Insert(ctx, NewUserRecord(userID, input.DisplayName)); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to create user record")
	}

	r.logger.Info("registered password account", "email", NormalizeEmail(input.Email), "user_id", userID)

	return &ProvisionResult{
		UserID:      userID,
		DisplayName: input.DisplayName,
	}, nil
}
