package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/booking-service/internal/domain"
)

// HistoryRepository stores appointment audit entries.
type HistoryRepository interface {
	Create(ctx context.Context, history *domain.AppointmentHistory) error
	ListByAppointment(ctx context.Context, appointmentID string) ([]domain.AppointmentHistory, error)
}

type historyRepository struct {
	pool *pgxpool.Pool
}

// NewHistoryRepository builds the repository.
func NewHistoryRepository(pool *pgxpool.Pool) HistoryRepository {
	return &historyRepository{pool: pool}
}

func (r *historyRepository) Create(ctx context.Context, history *domain.AppointmentHistory) error {
	const query = `
        INSERT INTO appointment_history (appointment_id, changed_by_type, changed_by_id, change_type, old_value, new_value)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		history.AppointmentID,
		history.ChangedByType,
		history.ChangedByID,
		history.ChangeType,
		history.OldValue,
		history.NewValue,
	).Scan(&history.ID, &history.CreatedAt)
}

func (r *historyRepository) ListByAppointment(ctx context.Context, appointmentID string) ([]domain.AppointmentHistory, error) {
	const query = `
        SELECT id, appointment_id, changed_by_type, changed_by_id, change_type, old_value, new_value, created_at
        FROM appointment_history WHERE appointment_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, appointmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.AppointmentHistory
	for rows.Next() {
		var history domain.AppointmentHistory
		if err := rows.Scan(
			&history.ID,
			&history.AppointmentID,
			&history.ChangedByType,
			&history.ChangedByID,
			&history.ChangeType,
			&history.OldValue,
			&history.NewValue,
			&history.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, history)
	}
	return result, rows.Err()
}
