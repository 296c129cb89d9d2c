package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"chamberctl/internal/models"
)

type CredentialsSQLite struct {
	db *sql.DB
}

func NewCredentialsSQLite(db *sql.DB) *CredentialsSQLite {
	return &CredentialsSQLite{db: db}
}

var _ CredentialsRepo = (*CredentialsSQLite)(nil)

const (
	credentialsRowID = 1

	upsertCredentialsSQL = `
		INSERT INTO link_credentials (id, ssid, password, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			ssid=excluded.ssid,
			password=excluded.password,
			updated_at=excluded.updated_at
	`

	selectCredentialsSQL = `SELECT ssid, password FROM link_credentials WHERE id=?`
)

// Save upserts the single credentials row (id always 1).
func (r *CredentialsSQLite) Save(ctx context.Context, c models.Credentials) error {
	if c.SSID == "" {
		return errors.New("ssid is required")
	}
	_, err := r.db.ExecContext(ctx, upsertCredentialsSQL,
		credentialsRowID,
		c.SSID,
		c.Password,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("%w: credentials: %v", ErrWriteFailed, err)
	}
	return nil
}

// Load returns found=false when nothing has been provisioned yet.
func (r *CredentialsSQLite) Load(ctx context.Context) (models.Credentials, bool, error) {
	var c models.Credentials
	err := r.db.QueryRowContext(ctx, selectCredentialsSQL, credentialsRowID).Scan(&c.SSID, &c.Password)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Credentials{}, false, nil
		}
		return models.Credentials{}, false, fmt.Errorf("select credentials: %w", err)
	}
	if c.SSID == "" {
		return models.Credentials{}, false, nil
	}
	return c, true, nil
}
