package scanning

import "github.com/cefe-herrera/copilot-finance-back/internal/extract"

// Quality is the caller's hint about how much effort to spend preparing
// the image before recognition. It never changes extraction behavior,
// only the preprocessing done for the recognizer.
type Quality string

const (
	QualityLow    Quality = "low"
	QualityMedium Quality = "medium"
	QualityHigh   Quality = "high"
)

// ParseQuality maps a user-supplied string to a Quality, defaulting to
// medium for anything unrecognized.
func ParseQuality(s string) Quality {
	switch Quality(s) {
	case QualityLow, QualityMedium, QualityHigh:
		return Quality(s)
	default:
		return QualityMedium
	}
}

// Scanner defines the interface for ticket scanning backends. The
// heuristic OCR path and the vision-model paths all produce the same
// extract.Movement shape, so callers can swap between them without
// changing consumer code.
type Scanner interface {
	// ScanTicket analyzes a ticket image/PDF and extracts movement data
	ScanTicket(imageData []byte, contentType string, quality Quality) (*extract.Movement, error)
	// Close closes the scanner and releases resources
	Close() error
}
