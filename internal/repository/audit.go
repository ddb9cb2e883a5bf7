package repository

import (
	"context"
	"fmt"

	"github.com/adi-0903/FacePass/internal/domain"
)

type AuditRepository struct {
	pool PgxPool
}

func NewAuditRepository(pool PgxPool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

func (r *AuditRepository) Log(ctx context.Context, event *domain.AuditEvent) error {
	query := `
		INSERT INTO audit_logs (event_type, user_id, details, ip_address, timestamp)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id, timestamp
	`

	err := r.pool.QueryRow(ctx, query,
		event.EventType,
		event.UserID,
		event.Details,
		event.IPAddress,
	).Scan(&event.ID, &event.Timestamp)

	if err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}
