package availability

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func (r *PgRepository) GetDoctorSettings(ctx context.Context, doctorID uuid.UUID) (*DoctorSettings, error) {
	var s DoctorSettings

	err := r.pool.QueryRow(ctx, `
		SELECT id, slot_minutes, buffer_minutes, requires_approval
		FROM doctors
		WHERE id = $1 AND deleted_at IS NULL
	`, doctorID).Scan(
		&s.DoctorID,
		&s.SlotMinutes,
		&s.BufferMinutes,
		&s.RequiresApproval,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}

	return &s, nil
}

func (r *PgRepository) ListRules(ctx context.Context, doctorID uuid.UUID) ([]WeeklyRule, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, doctor_id, weekday, start_min, end_min, consultation_type,
		       location_id, active, effective_from, effective_until, created_at, updated_at
		FROM weekly_availability_rules
		WHERE doctor_id = $1 AND active
	`, doctorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []WeeklyRule
	for rows.Next() {
		var rule WeeklyRule
		var weekday int

		err := rows.Scan(
			&rule.ID,
			&rule.DoctorID,
			&weekday,
			&rule.StartMin,
			&rule.EndMin,
			&rule.Type,
			&rule.LocationID,
			&rule.Active,
			&rule.EffectiveFrom,
			&rule.EffectiveUntil,
			&rule.CreatedAt,
			&rule.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}

		rule.Weekday = time.Weekday(weekday)
		result = append(result, rule)
	}

	return result, rows.Err()
}

func (r *PgRepository) ListExceptions(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]Exception, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, doctor_id, date, start_min, end_min, kind, COALESCE(consultation_type, '')
		FROM availability_exceptions
		WHERE doctor_id = $1 AND date BETWEEN $2 AND $3
	`, doctorID, DateOf(from), DateOf(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Exception
	for rows.Next() {
		var ex Exception

		err := rows.Scan(
			&ex.ID,
			&ex.DoctorID,
			&ex.Date,
			&ex.StartMin,
			&ex.EndMin,
			&ex.Kind,
			&ex.Type,
		)
		if err != nil {
			return nil, err
		}

		ex.Date = DateOf(ex.Date)
		result = append(result, ex)
	}

	return result, rows.Err()
}

func (r *PgRepository) ListBusyPeriods(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]BusyPeriod, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT b.start_at, b.end_at
		FROM external_busy_intervals b
		JOIN calendar_connections c ON c.id = b.connection_id
		WHERE c.doctor_id = $1
		  AND c.status = 'active'
		  AND b.end_at > $2
		  AND b.start_at < $3
	`, doctorID, DateOf(from), DateOf(to).AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []BusyPeriod
	for rows.Next() {
		var b BusyPeriod
		if err := rows.Scan(&b.Start, &b.End); err != nil {
			return nil, err
		}
		result = append(result, b)
	}

	return result, rows.Err()
}

func (r *PgRepository) ListBookedStarts(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]BookedStart, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT date, start_min
		FROM bookings
		WHERE doctor_id = $1
		  AND date BETWEEN $2 AND $3
		  AND status IN ('pending_payment', 'confirmed', 'pending_approval', 'approved')
	`, doctorID, DateOf(from), DateOf(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []BookedStart
	for rows.Next() {
		var b BookedStart
		if err := rows.Scan(&b.Date, &b.StartMin); err != nil {
			return nil, err
		}
		b.Date = DateOf(b.Date)
		result = append(result, b)
	}

	return result, rows.Err()
}
