package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ringo-bridge/backend/internal/storage/models"
)

// EntryRepository provides data access for config entries.
type EntryRepository struct {
	BaseRepository
}

// NewEntryRepository creates a new config entry repository.
func NewEntryRepository(db *DB) *EntryRepository {
	return &EntryRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// Create inserts a new config entry.
func (r *EntryRepository) Create(ctx context.Context, entry *models.ConfigEntry) error {
	entry.ID = GenerateID()
	entry.CreatedAt = r.Now()

	_, err := r.DB().ExecContext(ctx, `
		INSERT INTO config_entries (id, title, host, client, secret, auto_lock_time, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		entry.ID, entry.Title, entry.Host, entry.Client, entry.Secret,
		entry.AutoLockTime, entry.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("inserting config entry: %w", err)
	}

	return nil
}

// GetByID retrieves a config entry by its ID.
func (r *EntryRepository) GetByID(ctx context.Context, id string) (*models.ConfigEntry, error) {
	return r.getOne(ctx, "id = ?", id)
}

// GetByHost retrieves a config entry by its host.
func (r *EntryRepository) GetByHost(ctx context.Context, host string) (*models.ConfigEntry, error) {
	return r.getOne(ctx, "host = ?", host)
}

func (r *EntryRepository) getOne(ctx context.Context, where string, arg any) (*models.ConfigEntry, error) {
	entry := &models.ConfigEntry{}

	err := r.DB().QueryRowContext(ctx, `
		SELECT id, title, host, client, secret, auto_lock_time, created_at
		FROM config_entries WHERE `+where,
		arg,
	).Scan(
		&entry.ID, &entry.Title, &entry.Host, &entry.Client, &entry.Secret,
		&entry.AutoLockTime, &entry.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying config entry: %w", err)
	}

	return entry, nil
}

// List retrieves all config entries.
func (r *EntryRepository) List(ctx context.Context) ([]models.ConfigEntry, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT id, title, host, client, secret, auto_lock_time, created_at
		FROM config_entries
		ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("querying config entries: %w", err)
	}
	defer rows.Close()

	var entries []models.ConfigEntry
	for rows.Next() {
		var entry models.ConfigEntry
		if err := rows.Scan(
			&entry.ID, &entry.Title, &entry.Host, &entry.Client, &entry.Secret,
			&entry.AutoLockTime, &entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning config entry: %w", err)
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// Delete removes a config entry and, via foreign key cascade, its lock entities.
func (r *EntryRepository) Delete(ctx context.Context, id string) error {
	res, err := r.DB().ExecContext(ctx, "DELETE FROM config_entries WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting config entry: %w", err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
