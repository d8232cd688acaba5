package storage

import (
	"context"
	"fmt"

	"github.com/ringo-bridge/backend/internal/storage/models"
)

// ServiceLogRepository provides data access for the service call audit log.
type ServiceLogRepository struct {
	BaseRepository
}

// NewServiceLogRepository creates a new service log repository.
func NewServiceLogRepository(db *DB) *ServiceLogRepository {
	return &ServiceLogRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// Record appends one service call to the audit log.
func (r *ServiceLogRepository) Record(ctx context.Context, call *models.ServiceCall) error {
	call.ID = GenerateID()
	call.CreatedAt = r.Now()

	_, err := r.DB().ExecContext(ctx, `
		INSERT INTO service_log (id, service, success, error, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		call.ID, call.Service, call.Success, call.Error, call.DurationMs, call.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("inserting service call: %w", err)
	}
	return nil
}

// Recent returns the most recent service calls, newest first.
func (r *ServiceLogRepository) Recent(ctx context.Context, limit int) ([]models.ServiceCall, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.DB().QueryContext(ctx, `
		SELECT id, service, success, error, duration_ms, created_at
		FROM service_log
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying service log: %w", err)
	}
	defer rows.Close()

	var calls []models.ServiceCall
	for rows.Next() {
		var call models.ServiceCall
		if err := rows.Scan(
			&call.ID, &call.Service, &call.Success, &call.Error,
			&call.DurationMs, &call.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning service call: %w", err)
		}
		calls = append(calls, call)
	}

	return calls, rows.Err()
}
