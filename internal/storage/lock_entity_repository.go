package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ringo-bridge/backend/internal/storage/models"
)

// LockEntityRepository provides data access for the lock entity registry.
type LockEntityRepository struct {
	BaseRepository
}

// NewLockEntityRepository creates a new lock entity repository.
func NewLockEntityRepository(db *DB) *LockEntityRepository {
	return &LockEntityRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// Upsert inserts a lock entity or refreshes its name on rediscovery.
// The assigned key and state are preserved for existing rows.
func (r *LockEntityRepository) Upsert(ctx context.Context, entity *models.LockEntity) error {
	entity.UpdatedAt = r.Now()

	_, err := r.DB().ExecContext(ctx, `
		INSERT INTO lock_entities (entity_id, entry_id, lock_id, relay_id, name, state, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(entity_id) DO UPDATE SET
			name = excluded.name,
			updated_at = excluded.updated_at
	`,
		entity.EntityID, entity.EntryID, entity.LockID, entity.RelayID,
		entity.Name, entity.State, entity.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("upserting lock entity: %w", err)
	}

	return nil
}

// GetByEntityID retrieves a lock entity by its entity ID.
func (r *LockEntityRepository) GetByEntityID(ctx context.Context, entityID string) (*models.LockEntity, error) {
	entity := &models.LockEntity{}

	err := r.DB().QueryRowContext(ctx, `
		SELECT entity_id, entry_id, lock_id, relay_id, name, assigned_key, state, updated_at
		FROM lock_entities WHERE entity_id = ?
	`, entityID).Scan(
		&entity.EntityID, &entity.EntryID, &entity.LockID, &entity.RelayID,
		&entity.Name, &entity.AssignedKey, &entity.State, &entity.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying lock entity: %w", err)
	}

	return entity, nil
}

// List retrieves all registered lock entities.
func (r *LockEntityRepository) List(ctx context.Context) ([]models.LockEntity, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT entity_id, entry_id, lock_id, relay_id, name, assigned_key, state, updated_at
		FROM lock_entities
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("querying lock entities: %w", err)
	}
	defer rows.Close()

	var entities []models.LockEntity
	for rows.Next() {
		var entity models.LockEntity
		if err := rows.Scan(
			&entity.EntityID, &entity.EntryID, &entity.LockID, &entity.RelayID,
			&entity.Name, &entity.AssignedKey, &entity.State, &entity.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning lock entity: %w", err)
		}
		entities = append(entities, entity)
	}

	return entities, rows.Err()
}

// ExistsLockID reports whether any registered entity references the given
// vendor lock ID.
func (r *LockEntityRepository) ExistsLockID(ctx context.Context, lockID int) (bool, error) {
	var one int
	err := r.DB().QueryRowContext(ctx,
		"SELECT 1 FROM lock_entities WHERE lock_id = ? LIMIT 1", lockID,
	).Scan(&one)

	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("querying lock id: %w", err)
	}
	return true, nil
}

// UpdateState stores the last known state of a lock entity.
func (r *LockEntityRepository) UpdateState(ctx context.Context, entityID, state string) error {
	_, err := r.DB().ExecContext(ctx, `
		UPDATE lock_entities SET state = ?, updated_at = ? WHERE entity_id = ?
	`, state, r.Now(), entityID)

	if err != nil {
		return fmt.Errorf("updating lock state: %w", err)
	}
	return nil
}

// AssignKey associates a digital key with a lock entity.
func (r *LockEntityRepository) AssignKey(ctx context.Context, entityID, digitalKey string) error {
	res, err := r.DB().ExecContext(ctx, `
		UPDATE lock_entities SET assigned_key = ?, updated_at = ? WHERE entity_id = ?
	`, digitalKey, r.Now(), entityID)

	if err != nil {
		return fmt.Errorf("assigning key: %w", err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
