package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/couchcryptid/fire-aq-dashboard/internal/domain"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema is the DDL of the table LoadFires reads. The dashboard never runs it;
// the catalog is provisioned outside this service.
const Schema = `
CREATE TABLE IF NOT EXISTS major_wildfires (
	id            BIGSERIAL PRIMARY KEY,
	name          TEXT NOT NULL,
	country       TEXT NOT NULL,
	start_date    DATE,
	latitude      DOUBLE PRECISION NOT NULL,
	longitude     DOUBLE PRECISION NOT NULL,
	intensity_frp DOUBLE PRECISION NOT NULL
)`

// CatalogRepository reads the wildfire catalog from the major_wildfires table.
// It never writes.
type CatalogRepository struct {
	pool *pgxpool.Pool
}

// NewCatalogRepository creates a read-only catalog repository.
func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

// Connect opens a pool for dsn and verifies connectivity.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to create pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: failed to connect: %w", err)
	}
	return pool, nil
}

// LoadFires returns every catalog row ordered by start date.
func (r *CatalogRepository) LoadFires(ctx context.Context) ([]domain.FireRecord, error) {
	query := `
		SELECT name, country, start_date, latitude, longitude, intensity_frp
		FROM major_wildfires
		ORDER BY start_date NULLS LAST, name
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query fire catalog: %w", err)
	}
	defer rows.Close()

	var results []domain.FireRecord
	for rows.Next() {
		var (
			f     domain.FireRecord
			start pgtype.Date
		)
		if err := rows.Scan(&f.Name, &f.Country, &start, &f.Latitude, &f.Longitude, &f.IntensityFRP); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan fire row: %w", err)
		}
		if start.Valid {
			f.StartDate = start.Time
		}
		results = append(results, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: failed to read fire rows: %w", err)
	}

	return results, nil
}

// Health checks database connectivity.
func (r *CatalogRepository) Health(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: health check failed: %w", err)
	}
	return nil
}
