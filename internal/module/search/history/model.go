// Package history records completed searches for later inspection. It is
// optional infrastructure: writes are best-effort and never fail a search.
package history

import (
	"time"

	"github.com/google/uuid"
)

// Record is one completed (or failed) search dispatch.
type Record struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	EngineID       string    `gorm:"index;size:64" json:"engine_id"`
	Query          string    `gorm:"size:2048" json:"query"`
	ResultCount    int       `json:"result_count"`
	TookMs         int64     `json:"took_ms"`
	CreditsCharged int       `json:"credits_charged"`
	Success        bool      `json:"success"`
	CreatedAt      time.Time `gorm:"index" json:"created_at"`
}

// TableName sets the table name for gorm.
func (Record) TableName() string {
	return "search_history"
}
