package event

import "time"

const ExportCreatedDestination string = "vault.export.created"

type ExportCreatedMessage struct {
	UserID     int64     `json:"user_id"`
	Count      int       `json:"count"`
	Snapshot   string    `json:"snapshot,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
