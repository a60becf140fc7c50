package database

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

var _ EntityRepository = (*SQLEntityRepository)(nil)

type SQLEntityRepository struct {
	db *DB
}

func NewEntityRepository(db *DB) *SQLEntityRepository {
	return &SQLEntityRepository{db: db}
}

// Upsert registers an entity by slug, updating name and enabled state for
// an existing row. It returns the database ID and whether the name changed.
func (r *SQLEntityRepository) Upsert(slug, name string, enabled bool) (string, bool, error) {
	existing, err := r.GetBySlug(slug)
	if err != nil {
		return "", false, fmt.Errorf("failed to check existing entity: %w", err)
	}

	if existing != nil {
		nameChanged := existing.Name != name
		_, err := r.db.Exec(`
			UPDATE entities
			SET name = ?, enabled = ?, updated_at = CURRENT_TIMESTAMP
			WHERE slug = ?
		`, name, enabled, slug)
		if err != nil {
			return "", false, fmt.Errorf("failed to update entity: %w", err)
		}
		return existing.ID, nameChanged, nil
	}

	id := uuid.NewString()
	_, err = r.db.Exec(`
		INSERT INTO entities (id, slug, name, enabled)
		VALUES (?, ?, ?, ?)
	`, id, slug, name, enabled)
	if err != nil {
		return "", false, fmt.Errorf("failed to insert entity: %w", err)
	}

	return id, false, nil
}

func (r *SQLEntityRepository) GetBySlug(slug string) (*Entity, error) {
	var entity Entity
	err := r.db.QueryRow(`
		SELECT id, slug, name, enabled, created_at, updated_at
		FROM entities
		WHERE slug = ?
	`, slug).Scan(&entity.ID, &entity.Slug, &entity.Name, &entity.Enabled, &entity.CreatedAt, &entity.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entity: %w", err)
	}

	return &entity, nil
}

func (r *SQLEntityRepository) GetAll() ([]Entity, error) {
	rows, err := r.db.Query(`
		SELECT id, slug, name, enabled, created_at, updated_at
		FROM entities
		ORDER BY slug
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list entities: %w", err)
	}
	defer rows.Close()

	var entities []Entity
	for rows.Next() {
		var entity Entity
		if err := rows.Scan(&entity.ID, &entity.Slug, &entity.Name, &entity.Enabled, &entity.CreatedAt, &entity.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan entity row: %w", err)
		}
		entities = append(entities, entity)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entity rows: %w", err)
	}

	return entities, nil
}

func (r *SQLEntityRepository) GetCount() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM entities").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count entities: %w", err)
	}
	return count, nil
}
