package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/dbca-wa/wastd-sub002/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type speciesRepository struct {
	pool *pgxpool.Pool
}

// NewSpeciesRepository wires a repository backed by pgxpool.
func NewSpeciesRepository(pool *pgxpool.Pool) SpeciesRepository {
	return &speciesRepository{pool: pool}
}

func (r *speciesRepository) GetByScientificName(ctx context.Context, scientificName string) (domain.Species, error) {
	if r.pool == nil {
		return domain.Species{}, fmt.Errorf("species repository not initialized")
	}

	var species domain.Species
	err := r.pool.QueryRow(
		ctx,
		`SELECT id, scientific_name, common_name, created_at, updated_at
		 FROM species
		 WHERE scientific_name = $1`,
		scientificName,
	).Scan(
		&species.ID,
		&species.ScientificName,
		&species.CommonName,
		&species.CreatedAt,
		&species.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Species{}, fmt.Errorf("species %q: %w", scientificName, ErrNotFound)
		}
		return domain.Species{}, fmt.Errorf("failed to get species by scientific name: %w", err)
	}

	return species, nil
}

func (r *speciesRepository) List(ctx context.Context) ([]domain.Species, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("species repository not initialized")
	}

	rows, err := r.pool.Query(
		ctx,
		`SELECT id, scientific_name, common_name, created_at, updated_at
		 FROM species
		 ORDER BY scientific_name`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list species: %w", err)
	}
	defer rows.Close()

	species := []domain.Species{}
	for rows.Next() {
		var row domain.Species
		if scanErr := rows.Scan(
			&row.ID,
			&row.ScientificName,
			&row.CommonName,
			&row.CreatedAt,
			&row.UpdatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan species: %w", scanErr)
		}
		species = append(species, row)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate species: %w", rowsErr)
	}

	return species, nil
}
