package scanning

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cefe-herrera/copilot-finance-back/internal/extract"
)

// Amounts a vision model reports outside this range are OCR hallucinations
const (
	amountMin = 0.01
	amountMax = 999_999_999.99
)

// vision models do not always report per-field confidence; assume a
// strong score for fields they did return
const defaultModelConfidence = 90

// movementPayload is the wire shape requested from the vision models
type movementPayload struct {
	Amount        *float64 `json:"amount"`
	Date          string   `json:"date"`
	Vendor        string   `json:"vendor"`
	Category      string   `json:"category"`
	TaxID         string   `json:"tax_id"`
	InvoiceNumber string   `json:"invoice_number"`
	Subtotal      *float64 `json:"subtotal"`
	Tax           *float64 `json:"tax"`
	Confidence    struct {
		Amount *int `json:"amount"`
		Date   *int `json:"date"`
		Vendor *int `json:"vendor"`
	} `json:"confidence"`
}

// parseMovementJSON parses a vision model's response into the same
// Movement shape the heuristic engine produces. Fields that fail
// validation are dropped rather than guessed, mirroring the engine's
// no-match semantics.
func parseMovementJSON(text string) (*extract.Movement, error) {
	text = strings.TrimSpace(text)

	// Remove markdown code blocks if present
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSpace(text)

	// Find the JSON object boundaries - look for first { and last }
	startIdx := strings.Index(text, "{")
	if startIdx == -1 {
		return nil, fmt.Errorf("no JSON object found in response")
	}
	endIdx := strings.LastIndex(text, "}")
	if endIdx == -1 || endIdx < startIdx {
		return nil, fmt.Errorf("invalid JSON object in response")
	}
	text = text[startIdx : endIdx+1]

	var payload movementPayload
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return nil, fmt.Errorf("unmarshaling json: %w", err)
	}

	m := &extract.Movement{TransactionType: extract.TypeExpense}

	if payload.Amount != nil && *payload.Amount >= amountMin && *payload.Amount <= amountMax {
		v := *payload.Amount
		m.Amount = &v
		m.Confidence.Amount = clampConfidence(payload.Confidence.Amount)
	}

	if d, ok := parseModelDate(payload.Date); ok {
		m.Date = d
		m.Confidence.Date = clampConfidence(payload.Confidence.Date)
	}

	if v := strings.TrimSpace(payload.Vendor); v != "" {
		m.Vendor = v
		m.Confidence.Vendor = clampConfidence(payload.Confidence.Vendor)
		m.Category = strings.TrimSpace(payload.Category)
		m.Description = "Invoice - " + v
	}

	m.TaxID = strings.TrimSpace(payload.TaxID)
	m.InvoiceNumber = strings.TrimSpace(payload.InvoiceNumber)
	if m.Vendor != "" && m.InvoiceNumber != "" {
		m.Description += fmt.Sprintf(" (%s)", m.InvoiceNumber)
	}
	if payload.Subtotal != nil && *payload.Subtotal > 0 {
		v := *payload.Subtotal
		m.Subtotal = &v
	}
	if payload.Tax != nil && *payload.Tax > 0 {
		v := *payload.Tax
		m.Tax = &v
	}

	m.Confidence.Overall = extract.OverallConfidence(m.Confidence.Amount, m.Confidence.Date, m.Confidence.Vendor)

	return m, nil
}

// parseModelDate normalizes the date formats vision models answer with
// into ISO form. An unparseable date is dropped, never defaulted.
func parseModelDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	formats := []string{
		"2006-01-02",
		"2006/01/02",
		"02/01/2006",
		"02-01-2006",
	}
	for _, format := range formats {
		if d, err := time.Parse(format, s); err == nil {
			return d.Format("2006-01-02"), true
		}
	}
	return "", false
}

func clampConfidence(v *int) *int {
	c := defaultModelConfidence
	if v != nil {
		c = *v
	}
	if c < 0 {
		c = 0
	}
	if c > 100 {
		c = 100
	}
	return &c
}
