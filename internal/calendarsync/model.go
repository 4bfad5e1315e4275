package calendarsync

import (
	"time"

	"github.com/google/uuid"
)

type ConnectionStatus string

const (
	ConnectionActive  ConnectionStatus = "active"
	ConnectionExpired ConnectionStatus = "expired"
	ConnectionRevoked ConnectionStatus = "revoked"
)

// Connection is a doctor's link to an external calendar account. ChannelID
// and ResourceID route inbound push notifications and are unique across all
// connections.
type Connection struct {
	ID           uuid.UUID
	DoctorID     uuid.UUID
	Provider     string
	AccountEmail string
	ChannelID    string
	ResourceID   string
	SyncToken    *string
	Status       ConnectionStatus
	LastSyncedAt *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// BusyInterval is one imported busy range. Rows for a sync window are fully
// replaced on every successful resync, never merged, so upstream deletions
// cannot leave stale rows behind.
type BusyInterval struct {
	ID           uuid.UUID
	ConnectionID uuid.UUID
	StartAt      time.Time
	EndAt        time.Time
}
