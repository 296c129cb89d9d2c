package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"chamberctl/internal/models"
)

// StateSQLite keeps the operating state as four key/value rows.
type StateSQLite struct {
	db *sql.DB
	mu sync.Mutex // serialises whole saves
}

func NewStateSQLite(db *sql.DB) *StateSQLite {
	return &StateSQLite{db: db}
}

// Ensure implementation of StateRepo interface at compile time.
var _ StateRepo = (*StateSQLite)(nil)

const (
	keyPhaseID         = "phase_id"
	keyModeID          = "mode_id"
	keyFanState        = "fan_state"
	keyHumidifierState = "humidifier_state"

	upsertStateKeySQL = `
		INSERT INTO device_state (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value=excluded.value
	`

	selectStateSQL = `SELECT key, value FROM device_state`
)

// defaults applied per key when a row is missing or unreadable
var stateDefaults = map[string]int64{
	keyPhaseID:         0,
	keyModeID:          1,
	keyFanState:        0,
	keyHumidifierState: 0,
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// Save writes all four keys inside one transaction.
func (r *StateSQLite) Save(ctx context.Context, s models.OperatingState) error {
	rec := s.Record()
	values := []struct {
		key string
		val int64
	}{
		{keyPhaseID, int64(rec.PhaseID)},
		{keyModeID, int64(rec.ModeID)},
		{keyFanState, boolToInt(rec.Fan)},
		{keyHumidifierState, boolToInt(rec.Humidifier)},
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", ErrWriteFailed, err)
	}
	for _, v := range values {
		if _, err := tx.ExecContext(ctx, upsertStateKeySQL, v.key, v.val); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("%w: write %s: %v", ErrWriteFailed, v.key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", ErrWriteFailed, err)
	}
	return nil
}

// Load reads whatever keys exist. found is false only when none of the state
// keys is present; an unreadable value falls back to its default.
func (r *StateSQLite) Load(ctx context.Context) (models.PersistedRecord, bool, error) {
	values := make(map[string]int64, len(stateDefaults))
	for k, v := range stateDefaults {
		values[k] = v
	}

	rows, err := r.db.QueryContext(ctx, selectStateSQL)
	if err != nil {
		return models.PersistedRecord{}, false, fmt.Errorf("query device_state: %w", err)
	}
	defer rows.Close()

	found := false
	for rows.Next() {
		var (
			key string
			raw any
		)
		if err := rows.Scan(&key, &raw); err != nil {
			continue
		}
		if _, known := stateDefaults[key]; !known {
			continue
		}
		found = true
		if v, ok := toInt64(raw); ok {
			values[key] = v
		}
	}
	if err := rows.Err(); err != nil {
		return models.PersistedRecord{}, false, fmt.Errorf("iterate device_state: %w", err)
	}
	if !found {
		return models.PersistedRecord{}, false, nil
	}

	return models.PersistedRecord{
		PhaseID:    int(values[keyPhaseID]),
		ModeID:     int(values[keyModeID]),
		Fan:        values[keyFanState] != 0,
		Humidifier: values[keyHumidifierState] != 0,
	}, true, nil
}

// toInt64 accepts the representations SQLite drivers hand back for an
// INTEGER column.
func toInt64(raw any) (int64, bool) {
	switch v := raw.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case bool:
		return boolToInt(v), true
	case []byte:
		n, err := strconv.ParseInt(strings.TrimSpace(string(v)), 10, 64)
		return n, err == nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}
