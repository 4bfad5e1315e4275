package calendarsync

import (
	"context"
	"errors"
	"fmt"
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

const connectionColumns = `id, doctor_id, provider, account_email, channel_id,
	resource_id, sync_token, status, last_synced_at, created_at, updated_at`

func scanConnection(row pgx.Row) (*Connection, error) {
	var c Connection

	err := row.Scan(
		&c.ID,
		&c.DoctorID,
		&c.Provider,
		&c.AccountEmail,
		&c.ChannelID,
		&c.ResourceID,
		&c.SyncToken,
		&c.Status,
		&c.LastSyncedAt,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrConnectionNotFound
		}
		return nil, err
	}

	return &c, nil
}

func (r *PgRepository) GetConnection(ctx context.Context, id uuid.UUID) (*Connection, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+connectionColumns+`
		FROM calendar_connections
		WHERE id = $1
	`, id)
	return scanConnection(row)
}

func (r *PgRepository) GetConnectionByChannel(ctx context.Context, channelID, resourceID string) (*Connection, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+connectionColumns+`
		FROM calendar_connections
		WHERE channel_id = $1 AND resource_id = $2
	`, channelID, resourceID)
	return scanConnection(row)
}

func (r *PgRepository) ListActiveConnections(ctx context.Context) ([]Connection, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+connectionColumns+`
		FROM calendar_connections
		WHERE status = 'active'
		ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Connection
	for rows.Next() {
		c, err := scanConnection(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *c)
	}

	return result, rows.Err()
}

func (r *PgRepository) ReplaceBusyIntervals(ctx context.Context, connectionID uuid.UUID, windowStart, windowEnd time.Time, intervals []BusyInterval) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin replace tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	_, err = tx.Exec(ctx, `
		DELETE FROM external_busy_intervals
		WHERE connection_id = $1
		  AND end_at > $2
		  AND start_at < $3
	`, connectionID, windowStart, windowEnd)
	if err != nil {
		return fmt.Errorf("delete busy intervals: %w", err)
	}

	for _, iv := range intervals {
		_, err = tx.Exec(ctx, `
			INSERT INTO external_busy_intervals (id, connection_id, start_at, end_at)
			VALUES ($1, $2, $3, $4)
		`, uuid.New(), connectionID, iv.StartAt, iv.EndAt)
		if err != nil {
			return fmt.Errorf("insert busy interval: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit replace tx: %w", err)
	}

	return nil
}

func (r *PgRepository) SetConnectionStatus(ctx context.Context, id uuid.UUID, status ConnectionStatus) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE calendar_connections
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
	`, id, status)
	if err != nil {
		return fmt.Errorf("set connection status: %w", err)
	}

	return nil
}

func (r *PgRepository) RecordSync(ctx context.Context, id uuid.UUID, syncToken *string, at time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE calendar_connections
		SET sync_token = COALESCE($2, sync_token),
		    last_synced_at = $3,
		    updated_at = now()
		WHERE id = $1
	`, id, syncToken, at)
	if err != nil {
		return fmt.Errorf("record sync: %w", err)
	}

	return nil
}
