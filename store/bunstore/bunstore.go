// Package bunstore persists engine records in a SQL database through bun.
// All three record kinds share one table keyed by the logical record key, so
// the adapter stays a direct translation of the get/insert store contract.
package bunstore

import (
	"context"
	"time"

	"github.com/bitmast/sessiongate"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RecordRow is the bun model backing sessiongate records.
type RecordRow struct {
	bun.BaseModel `bun:"table:auth_records,alias:rec"`

	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Key           string     `bun:"record_key,notnull,unique" json:"record_key,omitempty"`
	Kind          string     `bun:"kind,notnull" json:"kind,omitempty"`
	DisplayName   string     `bun:"display_name" json:"display_name,omitempty"`
	UserID        string     `bun:"user_id" json:"user_id,omitempty"`
	AuthType      string     `bun:"auth_type" json:"auth_type,omitempty"`
	Algorithm     string     `bun:"algorithm" json:"algorithm,omitempty"`
	PasswordHash  string     `bun:"password_hash" json:"password_hash,omitempty"`
	FailedLogins  int        `bun:"failed_logins" json:"failed_logins,omitempty"`
	AccountLocked *time.Time `bun:"account_locked,nullzero" json:"account_locked,omitempty"`
	Created       int64      `bun:"created" json:"created,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Store implements sessiongate.Store over a bun database.
type Store struct {
	db   *bun.DB
	repo repository.Repository[*RecordRow]
}

var _ sessiongate.Store = (*Store)(nil)

// New returns a Store backed by db.
func New(db *bun.DB) *Store {
	repo := repository.NewRepository[*RecordRow](db, repository.ModelHandlers[*RecordRow]{
		NewRecord: func() *RecordRow { return &RecordRow{} },
		GetID: func(r *RecordRow) uuid.UUID {
			if r == nil {
				return uuid.Nil
			}
			return r.ID
		},
		SetID: func(r *RecordRow, id uuid.UUID) {
			if r != nil {
				r.ID = id
			}
		},
	})

	return &Store{
		db:   db,
		repo: repo,
	}
}

// CreateTables creates the backing table if it does not exist. Hosts with
// migration tooling can ignore this and manage the schema themselves.
func (s *Store) CreateTables(ctx context.Context) error {
	_, err := s.db.NewCreateTable().
		Model((*RecordRow)(nil)).
		IfNotExists().
		Exec(ctx)
	return err
}

// Get loads the record stored under key.
func (s *Store) Get(ctx context.Context, key string) (*sessiongate.Record, error) {
	row, err := s.getRow(ctx, key)
	if err != nil {
		return nil, err
	}
	return fromRow(row), nil
}

// Insert creates or replaces the record at its key.
func (s *Store) Insert(ctx context.Context, record *sessiongate.Record) error {
	row := toRow(record)

	existing, err := s.getRow(ctx, record.Key)
	if err == nil {
		row.ID = existing.ID
		row.CreatedAt = existing.CreatedAt
		now := time.Now()
		row.UpdatedAt = &now
		_, err = s.repo.Update(ctx, row, repository.UpdateByID(row.ID.String()))
		return err
	}

	if !sessiongate.IsRecordNotFound(err) {
		return err
	}

	row.ID = uuid.New()
	_, err = s.repo.Create(ctx, row)
	return err
}

func (s *Store) getRow(ctx context.Context, key string) (*RecordRow, error) {
	row := &RecordRow{}
	err := s.db.NewSelect().
		Model(row).
		Where("?TableAlias.record_key = ?", key).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, sessiongate.ErrRecordNotFound.Clone().WithMetadata(map[string]any{
				"key": key,
			})
		}
		return nil, err
	}
	return row, nil
}

func toRow(record *sessiongate.Record) *RecordRow {
	return &RecordRow{
		Key:           record.Key,
		Kind:          string(record.Kind),
		DisplayName:   record.DisplayName,
		UserID:        record.UserID,
		AuthType:      record.AuthType,
		Algorithm:     string(record.Algorithm),
		PasswordHash:  record.PasswordHash,
		FailedLogins:  record.FailedLogins,
		AccountLocked: record.AccountLocked,
		Created:       record.Created,
	}
}

func fromRow(row *RecordRow) *sessiongate.Record {
	return &sessiongate.Record{
		Key:           row.Key,
		Kind:          sessiongate.RecordKind(row.Kind),
		Rev:           row.ID.String(),
		DisplayName:   row.DisplayName,
		UserID:        row.UserID,
		AuthType:      row.AuthType,
		Algorithm:     sessiongate.HashAlgorithm(row.Algorithm),
		PasswordHash:  row.PasswordHash,
		FailedLogins:  row.FailedLogins,
		AccountLocked: row.AccountLocked,
		Created:       row.Created,
	}
}
