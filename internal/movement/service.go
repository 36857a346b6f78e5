package movement

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cefe-herrera/copilot-finance-back/internal/extract"
	"github.com/cefe-herrera/copilot-finance-back/internal/scanning"
)

// IDGenerator generates unique IDs for movements
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	return uuid.NewString()
}

type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service handles movement operations
type Service struct {
	db          DB
	scanner     scanning.Scanner
	storage     Storage
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with default ID generator and time source
func NewService(db DB, scanner scanning.Scanner, storage Storage) *Service {
	return &Service{
		db:          db,
		scanner:     scanner,
		storage:     storage,
		idGenerator: &defaultIDGenerator{},
		timeSource:  &defaultTimeSource{},
	}
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, scanner scanning.Scanner, storage Storage, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		scanner:     scanner,
		storage:     storage,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

var (
	filenameSpecialRe = regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	filenameSpacesRe  = regexp.MustCompile(`\s+`)
)

// sanitizeFilename cleans up a filename by removing special characters
// and truncating the phone-generated long names
func sanitizeFilename(filename string) string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)

	base = filenameSpecialRe.ReplaceAllString(base, "")
	base = filenameSpacesRe.ReplaceAllString(base, " ")
	base = strings.TrimSpace(base)

	maxLen := 50
	if len(base) > maxLen {
		base = base[:maxLen]
	}
	if base == "" {
		base = "ticket"
	}

	return base + ext
}

// ProcessTicket stores a ticket file, scans it and persists the
// resulting movement. Extraction never fails on its own; a missing
// amount or date simply comes back absent with its confidence, and
// deciding whether that is acceptable is the client's call.
func (s *Service) ProcessTicket(filename string, data []byte, contentType string, quality scanning.Quality) (*Movement, error) {
	id := s.idGenerator.Generate()
	now := s.timeSource.Now()

	cleanFilename := sanitizeFilename(filename)

	savedPath, err := s.storage.Save(fmt.Sprintf("%s_%s", id, cleanFilename), data)
	if err != nil {
		return nil, fmt.Errorf("saving file: %w", err)
	}

	extracted, err := s.scanner.ScanTicket(data, contentType, quality)
	if err != nil {
		slog.Error("Failed to scan ticket",
			"filename", filename,
			"content_type", contentType,
			"file_size", len(data),
			"error", err,
		)
		// Clean up the saved file since scanning failed
		s.storage.Delete(savedPath)
		return nil, fmt.Errorf("scanning ticket: %w", err)
	}

	movement := &Movement{
		ID:          id,
		Movement:    *extracted,
		Filename:    savedPath,
		ContentType: contentType,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.db.SaveMovement(movement); err != nil {
		// Clean up file if database save fails
		s.storage.Delete(savedPath)
		return nil, fmt.Errorf("saving movement to database: %w", err)
	}

	return movement, nil
}

// ExtractTicket scans a ticket without persisting anything, for
// clients that want to review the extraction before saving.
func (s *Service) ExtractTicket(data []byte, contentType string, quality scanning.Quality) (*extract.Movement, error) {
	extracted, err := s.scanner.ScanTicket(data, contentType, quality)
	if err != nil {
		return nil, fmt.Errorf("scanning ticket: %w", err)
	}
	return extracted, nil
}

// GetMovement retrieves a movement by ID
func (s *Service) GetMovement(id string) (*Movement, error) {
	movement, err := s.db.GetMovement(id)
	if err != nil {
		return nil, fmt.Errorf("getting movement: %w", err)
	}
	return movement, nil
}

// ListMovements returns all movements
func (s *Service) ListMovements() ([]*Movement, error) {
	movements, err := s.db.ListMovements()
	if err != nil {
		return nil, fmt.Errorf("listing movements: %w", err)
	}
	return movements, nil
}

// DeleteMovement removes a movement and its ticket file
func (s *Service) DeleteMovement(id string) error {
	movement, err := s.db.GetMovement(id)
	if err != nil {
		return fmt.Errorf("getting movement for deletion: %w", err)
	}

	if err := s.storage.Delete(movement.Filename); err != nil {
		// Log error but continue with database deletion
		slog.Warn("Failed to delete file", "filename", movement.Filename, "error", err)
	}

	if err := s.db.DeleteMovement(id); err != nil {
		return fmt.Errorf("deleting movement from database: %w", err)
	}
	return nil
}

// GetTicketFile retrieves the stored ticket file for a movement
func (s *Service) GetTicketFile(id string) ([]byte, string, error) {
	movement, err := s.db.GetMovement(id)
	if err != nil {
		return nil, "", fmt.Errorf("getting movement: %w", err)
	}

	data, err := s.storage.Get(movement.Filename)
	if err != nil {
		return nil, "", fmt.Errorf("getting ticket file: %w", err)
	}

	return data, movement.ContentType, nil
}

// MonthlySummary totals the movements of one YYYY-MM month by
// category. Movements without an extracted date or amount are skipped;
// ones without a category count under "Other".
func (s *Service) MonthlySummary(month string) (*MonthlySummary, error) {
	if _, err := time.Parse("2006-01", month); err != nil {
		return nil, fmt.Errorf("invalid month %q: expected YYYY-MM", month)
	}

	movements, err := s.db.ListMovements()
	if err != nil {
		return nil, fmt.Errorf("listing movements: %w", err)
	}

	summary := &MonthlySummary{
		Month:      month,
		ByCategory: make(map[string]float64),
	}
	for _, m := range movements {
		if m.Amount == nil || !strings.HasPrefix(m.Date, month) {
			continue
		}
		category := m.Category
		if category == "" {
			category = "Other"
		}
		summary.Total += *m.Amount
		summary.Count++
		summary.ByCategory[category] += *m.Amount
	}

	return summary, nil
}
