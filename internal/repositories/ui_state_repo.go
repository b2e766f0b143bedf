package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/BradenHooton/useradmin/internal/database"
	"github.com/BradenHooton/useradmin/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UIStateRepository persists per-operator view state as key/value pairs.
// Concurrent writers are not coordinated: the last write wins.
type UIStateRepository struct {
	pool *pgxpool.Pool
}

func NewUIStateRepository(db *database.DB) *UIStateRepository {
	return &UIStateRepository{pool: db.Pool}
}

func (r *UIStateRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := r.pool.QueryRow(ctx, `SELECT value FROM ui_state WHERE key = $1`, key).Scan(&value)
	if err != nil {
		mapped := database.MapPostgresError(err)
		if errors.Is(mapped, models.ErrNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read ui state: %w", mapped)
	}
	return value, true, nil
}

func (r *UIStateRepository) Set(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO ui_state (key, value, updated_at) VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`

	if _, err := r.pool.Exec(ctx, query, key, value, time.Now()); err != nil {
		return fmt.Errorf("failed to write ui state: %w", database.MapPostgresError(err))
	}
	return nil
}
