package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/booking-service/internal/domain"
)

var (
	// ErrActiveAppointmentExists signals the customer already holds a
	// future appointment in an active state.
	ErrActiveAppointmentExists = errors.New("customer already has an active appointment")
	// ErrSlotTaken signals the staff member already holds a booking at the
	// requested slot.
	ErrSlotTaken = errors.New("staff member already booked for this slot")
	// ErrStale signals a compare-and-set update matched no row, meaning a
	// concurrent writer got there first.
	ErrStale = errors.New("appointment changed concurrently")
)

// AppointmentFilter captures list query parameters.
type AppointmentFilter struct {
	CustomerID      *string
	AssignedStaffID *string
	Statuses        []domain.AppointmentStatus
	Types           []domain.AppointmentType
	ScheduledFrom   *time.Time
	ScheduledTo     *time.Time
	Limit           int
	Offset          int
}

// AppointmentRepository encapsulates appointment persistence.
type AppointmentRepository interface {
	// Create inserts the appointment only when the customer has no other
	// active future appointment; returns ErrActiveAppointmentExists otherwise.
	Create(ctx context.Context, appt *domain.Appointment) error
	GetByID(ctx context.Context, id string) (*domain.Appointment, error)
	// UpdateCAS persists the appointment only if the stored row still
	// matches the expected status and acceptance state. Returns ErrStale
	// when the guard misses and ErrSlotTaken on a staff slot collision.
	UpdateCAS(ctx context.Context, appt *domain.Appointment, expectedStatus domain.AppointmentStatus, expectedAcceptance domain.AcceptanceState) error
	ListWithFilter(ctx context.Context, filter AppointmentFilter) ([]domain.Appointment, error)
	HasStaffBooking(ctx context.Context, staffID string, at time.Time) (bool, error)
}

type appointmentRepository struct {
	pool *pgxpool.Pool
}

// NewAppointmentRepository instantiates the repository.
func NewAppointmentRepository(pool *pgxpool.Pool) AppointmentRepository {
	return &appointmentRepository{pool: pool}
}

const appointmentColumns = `id, customer_id, appointment_type, scheduled_at, status, assigned_staff_id,
       dispatch_note, acceptance_state, accepted_at, reschedule_reason,
       cancel_reason, cancel_message,
       street, barangay, city, province, zip, landmark, latitude, longitude,
       description, notes, created_at, updated_at`

func (r *appointmentRepository) Create(ctx context.Context, appt *domain.Appointment) error {
	// Under READ COMMITTED the guard subquery cannot see a concurrent
	// transaction's uncommitted insert, so creates for the same customer
	// are serialized with a transaction-scoped advisory lock first.
	const lockQuery = `SELECT pg_advisory_xact_lock(hashtext($1))`
	const query = `
        INSERT INTO appointments (customer_id, appointment_type, scheduled_at, status, dispatch_note,
            acceptance_state, street, barangay, city, province, zip, landmark, latitude, longitude,
            description, notes)
        SELECT $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16
        WHERE NOT EXISTS (
            SELECT 1 FROM appointments
            WHERE customer_id = $1
              AND scheduled_at > NOW()
              AND status = ANY($17)
        )
        RETURNING id, created_at, updated_at`

	addr := appt.SiteAddress
	if addr == nil {
		addr = &domain.SiteAddress{}
	}

	active := make([]string, 0, 4)
	for _, status := range domain.ActiveStatuses() {
		active = append(active, string(status))
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, lockQuery, appt.CustomerID); err != nil {
		return err
	}

	err = tx.QueryRow(ctx, query,
		appt.CustomerID,
		appt.Type,
		appt.ScheduledAt,
		appt.Status,
		appt.DispatchNote,
		appt.Acceptance.State,
		nullableString(addr.Street),
		nullableString(addr.Barangay),
		nullableString(addr.City),
		nullableString(addr.Province),
		nullableString(addr.Zip),
		nullableString(addr.Landmark),
		addr.Latitude,
		addr.Longitude,
		appt.Description,
		appt.Notes,
		active,
	).Scan(&appt.ID, &appt.CreatedAt, &appt.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrActiveAppointmentExists
	}
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *appointmentRepository) GetByID(ctx context.Context, id string) (*domain.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id=$1`
	return scanAppointment(r.pool.QueryRow(ctx, query, id))
}

func (r *appointmentRepository) UpdateCAS(ctx context.Context, appt *domain.Appointment, expectedStatus domain.AppointmentStatus, expectedAcceptance domain.AcceptanceState) error {
	const query = `
        UPDATE appointments
        SET status=$1, assigned_staff_id=$2, dispatch_note=$3, acceptance_state=$4, accepted_at=$5,
            reschedule_reason=$6, cancel_reason=$7, cancel_message=$8, notes=$9, updated_at=NOW()
        WHERE id=$10 AND status=$11 AND acceptance_state=$12`

	var cancelReason, cancelMessage *string
	if appt.Cancellation != nil {
		reason := string(appt.Cancellation.Reason)
		cancelReason = &reason
		cancelMessage = &appt.Cancellation.Message
	}

	cmd, err := r.pool.Exec(ctx, query,
		appt.Status,
		appt.AssignedStaffID,
		appt.DispatchNote,
		appt.Acceptance.State,
		appt.Acceptance.AcceptedAt,
		nullableString(appt.Acceptance.RescheduleReason),
		cancelReason,
		cancelMessage,
		appt.Notes,
		appt.ID,
		expectedStatus,
		expectedAcceptance,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrSlotTaken
		}
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrStale
	}
	return nil
}

func (r *appointmentRepository) ListWithFilter(ctx context.Context, filter AppointmentFilter) ([]domain.Appointment, error) {
	base := `SELECT ` + appointmentColumns + ` FROM appointments`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.CustomerID != nil {
		args = append(args, *filter.CustomerID)
		clauses = append(clauses, fmt.Sprintf("customer_id=$%d", len(args)))
	}
	if filter.AssignedStaffID != nil {
		args = append(args, *filter.AssignedStaffID)
		clauses = append(clauses, fmt.Sprintf("assigned_staff_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Types) > 0 {
		placeholders := make([]string, len(filter.Types))
		for i, apptType := range filter.Types {
			args = append(args, apptType)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("appointment_type IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.ScheduledFrom != nil {
		args = append(args, *filter.ScheduledFrom)
		clauses = append(clauses, fmt.Sprintf("scheduled_at >= $%d", len(args)))
	}
	if filter.ScheduledTo != nil {
		args = append(args, *filter.ScheduledTo)
		clauses = append(clauses, fmt.Sprintf("scheduled_at <= $%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY scheduled_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *appt)
	}
	return result, rows.Err()
}

func (r *appointmentRepository) HasStaffBooking(ctx context.Context, staffID string, at time.Time) (bool, error) {
	const query = `
        SELECT EXISTS (
            SELECT 1 FROM appointments
            WHERE assigned_staff_id=$1 AND scheduled_at=$2 AND status <> 'CANCELLED'
        )`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, staffID, at).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func scanAppointment(row pgx.Row) (*domain.Appointment, error) {
	var (
		appt                                            domain.Appointment
		rescheduleReason                                *string
		cancelReason, cancelMessage                     *string
		street, barangay, city, province, zip, landmark *string
		latitude, longitude                             *float64
	)
	if err := row.Scan(
		&appt.ID,
		&appt.CustomerID,
		&appt.Type,
		&appt.ScheduledAt,
		&appt.Status,
		&appt.AssignedStaffID,
		&appt.DispatchNote,
		&appt.Acceptance.State,
		&appt.Acceptance.AcceptedAt,
		&rescheduleReason,
		&cancelReason,
		&cancelMessage,
		&street,
		&barangay,
		&city,
		&province,
		&zip,
		&landmark,
		&latitude,
		&longitude,
		&appt.Description,
		&appt.Notes,
		&appt.CreatedAt,
		&appt.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if rescheduleReason != nil {
		appt.Acceptance.RescheduleReason = *rescheduleReason
	}
	if cancelReason != nil {
		cancellation := domain.Cancellation{Reason: domain.CancellationReason(*cancelReason)}
		if cancelMessage != nil {
			cancellation.Message = *cancelMessage
		}
		appt.Cancellation = &cancellation
	}
	if street != nil || barangay != nil || city != nil || province != nil || zip != nil || landmark != nil {
		appt.SiteAddress = &domain.SiteAddress{
			Street:    deref(street),
			Barangay:  deref(barangay),
			City:      deref(city),
			Province:  deref(province),
			Zip:       deref(zip),
			Landmark:  deref(landmark),
			Latitude:  latitude,
			Longitude: longitude,
		}
	}
	return &appt, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
