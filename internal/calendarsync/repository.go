package calendarsync

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrConnectionNotFound = errors.New("calendar connection not found")
)

// Repository contains all DB interactions needed by the sync controller.
type Repository interface {
	GetConnection(ctx context.Context, id uuid.UUID) (*Connection, error)
	GetConnectionByChannel(ctx context.Context, channelID, resourceID string) (*Connection, error)
	ListActiveConnections(ctx context.Context) ([]Connection, error)

	// ReplaceBusyIntervals transactionally deletes the connection's rows
	// overlapping [windowStart, windowEnd) and inserts the given set.
	ReplaceBusyIntervals(ctx context.Context, connectionID uuid.UUID, windowStart, windowEnd time.Time, intervals []BusyInterval) error

	SetConnectionStatus(ctx context.Context, id uuid.UUID, status ConnectionStatus) error
	RecordSync(ctx context.Context, id uuid.UUID, syncToken *string, at time.Time) error
}
