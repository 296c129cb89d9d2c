package repository

import (
	"context"
	"database/sql"
	"errors"

	"chamberctl/internal/models"
)

// ErrWriteFailed marks a failed write to the storage medium.
var ErrWriteFailed = errors.New("storage write failed")

// StateRepo persists the operating state. Implementations never cache.
type StateRepo interface {
	Save(ctx context.Context, s models.OperatingState) error
	// Load reports found=false on first boot.
	Load(ctx context.Context) (rec models.PersistedRecord, found bool, err error)
}

// CredentialsRepo stores the uplink credentials used by provisioning.
type CredentialsRepo interface {
	Save(ctx context.Context, c models.Credentials) error
	Load(ctx context.Context) (c models.Credentials, found bool, err error)
}

type Repository struct {
	StateRepo       StateRepo
	CredentialsRepo CredentialsRepo
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		StateRepo:       NewStateSQLite(db),
		CredentialsRepo: NewCredentialsSQLite(db),
	}
}
