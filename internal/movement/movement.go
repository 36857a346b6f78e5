package movement

import (
	"time"

	"github.com/cefe-herrera/copilot-finance-back/internal/extract"
)

// Movement is a persisted financial movement: the extraction result
// plus the stored ticket file and record metadata.
type Movement struct {
	ID string `json:"id"`
	extract.Movement
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// MonthlySummary aggregates the movements of one calendar month
type MonthlySummary struct {
	Month      string             `json:"month"` // YYYY-MM
	Total      float64            `json:"total"`
	Count      int                `json:"count"`
	ByCategory map[string]float64 `json:"by_category"`
}
