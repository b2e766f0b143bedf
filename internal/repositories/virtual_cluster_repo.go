package repositories

import (
	"context"
	"fmt"

	"github.com/BradenHooton/useradmin/internal/database"
	"github.com/jackc/pgx/v5/pgxpool"
)

// VirtualClusterRepository reads the virtual-cluster registry.
type VirtualClusterRepository struct {
	pool *pgxpool.Pool
}

func NewVirtualClusterRepository(db *database.DB) *VirtualClusterRepository {
	return &VirtualClusterRepository{pool: db.Pool}
}

func (r *VirtualClusterRepository) ListNames(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT name FROM virtual_clusters ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query virtual clusters: %w", err)
	}
	defer rows.Close()

	names := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan virtual cluster: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return names, nil
}

// Create registers a virtual cluster. Existing names are left untouched.
func (r *VirtualClusterRepository) Create(ctx context.Context, name, description string) error {
	query := `INSERT INTO virtual_clusters (name, description) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING`

	if _, err := r.pool.Exec(ctx, query, name, description); err != nil {
		return database.MapPostgresError(err)
	}
	return nil
}
