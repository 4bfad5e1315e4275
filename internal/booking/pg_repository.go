package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// bookings_active_slot_idx is the partial unique index on
// (doctor_id, date, start_min) WHERE status IN (active set). It is the
// serialization point for concurrent booking attempts.
const activeSlotIndex = "bookings_active_slot_idx"

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const bookingColumns = `id, doctor_id, patient_id, date, start_min, end_min,
	consultation_type, notes, status, created_at, updated_at, expires_at`

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking

	err := row.Scan(
		&b.ID,
		&b.DoctorID,
		&b.PatientID,
		&b.Date,
		&b.StartMin,
		&b.EndMin,
		&b.Type,
		&b.Notes,
		&b.Status,
		&b.CreatedAt,
		&b.UpdatedAt,
		&b.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	b.Date = b.Date.UTC()
	return &b, nil
}

func (r *PgRepository) CreatePending(ctx context.Context, b *Booking) (*Booking, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO bookings (id, doctor_id, patient_id, date, start_min, end_min,
		                      consultation_type, notes, status, created_at, updated_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'pending_payment', now(), now(), $9)
		RETURNING `+bookingColumns+`
	`, id, b.DoctorID, b.PatientID, b.Date, b.StartMin, b.EndMin, b.Type, b.Notes, b.ExpiresAt)

	created, err := scanBooking(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == activeSlotIndex {
			return nil, ErrSlotTaken
		}
		return nil, err
	}

	return created, nil
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE id = $1
	`, id)
	return scanBooking(row)
}

func (r *PgRepository) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]Booking, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE patient_id = $1
		ORDER BY date DESC, start_min DESC
		LIMIT $2 OFFSET $3
	`, patientID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *b)
	}

	return result, rows.Err()
}

func (r *PgRepository) UpdateStatusFrom(ctx context.Context, id uuid.UUID, from []Status, to Status) (*Booking, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE bookings
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = ANY($3)
		RETURNING `+bookingColumns+`
	`, id, to, statusStrings(from))

	return scanBooking(row)
}

func (r *PgRepository) DeleteExpiredPending(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM bookings
		WHERE status = 'pending_payment'
		  AND expires_at IS NOT NULL
		  AND expires_at < $1
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete expired pending: %w", err)
	}

	return tag.RowsAffected(), nil
}

func (r *PgRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO booking_events (event_type, booking_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, ev.BookingID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert booking event: %w", err)
	}

	return nil
}

func statusStrings(ss []Status) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = string(s)
	}
	return out
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
