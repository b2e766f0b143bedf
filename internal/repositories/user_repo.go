package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/BradenHooton/useradmin/internal/database"
	"github.com/BradenHooton/useradmin/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

const userColumns = `username, email, password_hash, admin, virtual_clusters, extension, created_at, updated_at`

type UserRepository struct {
	db   *database.DB
	pool *pgxpool.Pool
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db, pool: db.Pool}
}

// rowScanner interface for scanning user rows (supports both single row and multiple rows)
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanUserRow handles nullable fields and populates a User model from a database row
func scanUserRow(scanner rowScanner) (*models.User, error) {
	var user models.User
	var passwordHash *string
	var virtualClusters []string
	var extension map[string]any

	err := scanner.Scan(
		&user.Username, &user.Email, &passwordHash, &user.Admin,
		pq.Array(&virtualClusters), &extension,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	if passwordHash != nil {
		user.PasswordHash = *passwordHash
	}
	if virtualClusters == nil {
		virtualClusters = []string{}
	}
	user.VirtualClusters = virtualClusters
	if extension == nil {
		extension = map[string]any{}
	}
	user.Extension = extension

	return &user, nil
}

// scanUserRows iterates through rows and scans each into User models
func scanUserRows(rows pgx.Rows) ([]*models.User, error) {
	defer rows.Close()

	users := make([]*models.User, 0)

	for rows.Next() {
		user, err := scanUserRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return users, nil
}

// ListAll returns every user of the installation ordered by username.
func (r *UserRepository) ListAll(ctx context.Context) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY username`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}

	return scanUserRows(rows)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`

	return scanUserRow(r.pool.QueryRow(ctx, query, username))
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	if user.VirtualClusters == nil {
		user.VirtualClusters = []string{}
	}
	if user.Extension == nil {
		user.Extension = map[string]any{}
	}

	query := `
		INSERT INTO users (username, email, password_hash, admin, virtual_clusters, extension, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + userColumns

	var passwordHash *string
	if user.PasswordHash != "" {
		passwordHash = &user.PasswordHash
	}

	return scanUserRow(r.pool.QueryRow(ctx, query,
		user.Username, user.Email, passwordHash, user.Admin,
		pq.Array(user.VirtualClusters), user.Extension,
		user.CreatedAt, user.UpdatedAt,
	))
}

// Update writes the editable profile fields: email, admin flag, virtual clusters
// and extension.
func (r *UserRepository) Update(ctx context.Context, user *models.User) (*models.User, error) {
	user.UpdatedAt = time.Now()

	query := `
		UPDATE users SET email = $1, admin = $2, virtual_clusters = $3, extension = $4, updated_at = $5
		WHERE username = $6
		RETURNING ` + userColumns

	return scanUserRow(r.pool.QueryRow(ctx, query,
		user.Email, user.Admin, pq.Array(user.VirtualClusters), user.Extension, user.UpdatedAt, user.Username,
	))
}

func (r *UserRepository) UpdatePassword(ctx context.Context, username, passwordHash string) error {
	query := `UPDATE users SET password_hash = $1, updated_at = $2 WHERE username = $3`

	return r.execOne(ctx, query, passwordHash, time.Now(), username)
}

func (r *UserRepository) UpdateVirtualClusters(ctx context.Context, username string, virtualClusters []string) error {
	query := `UPDATE users SET virtual_clusters = $1, updated_at = $2 WHERE username = $3`

	return r.execOne(ctx, query, pq.Array(virtualClusters), time.Now(), username)
}

// UpdateExtension replaces a single top-level key of the user's extension.
func (r *UserRepository) UpdateExtension(ctx context.Context, username, key string, value any) error {
	query := `UPDATE users SET extension = jsonb_set(extension, ARRAY[$1::text], $2::jsonb, true), updated_at = $3 WHERE username = $4`

	return r.execOne(ctx, query, key, value, time.Now(), username)
}

// Delete removes the user together with any view state stored under their
// name (keys of the form "<scope>:<username>").
func (r *UserRepository) Delete(ctx context.Context, username string) error {
	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		result, err := tx.Exec(ctx, `DELETE FROM users WHERE username = $1`, username)
		if err != nil {
			return database.MapPostgresError(err)
		}
		if result.RowsAffected() == 0 {
			return models.ErrNotFound
		}

		if _, err := tx.Exec(ctx, `DELETE FROM ui_state WHERE right(key, length($1) + 1) = ':' || $1`, username); err != nil {
			return fmt.Errorf("failed to delete ui state of %s: %w", username, database.MapPostgresError(err))
		}
		return nil
	})
}

// execOne runs a statement that must touch exactly one user row.
func (r *UserRepository) execOne(ctx context.Context, query string, args ...any) error {
	result, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return database.MapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}
