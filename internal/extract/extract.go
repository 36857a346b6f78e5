package extract

import (
	"fmt"
	"math"
	"time"
)

// TypeExpense is the transaction type assigned to every extracted
// movement. A photographed ticket or invoice always documents spending;
// income never arrives on a receipt.
const TypeExpense = "expense"

// Movement is the structured result of running the extraction engine
// over recognized receipt text. Optional fields are absent when no
// pattern matched; absence is never an error.
type Movement struct {
	Amount          *float64   `json:"amount,omitempty"`
	Date            string     `json:"date,omitempty"` // ISO 8601, YYYY-MM-DD
	Vendor          string     `json:"vendor,omitempty"`
	Description     string     `json:"description,omitempty"`
	Category        string     `json:"category,omitempty"`
	TransactionType string     `json:"transaction_type"`
	TaxID           string     `json:"tax_id,omitempty"`
	InvoiceNumber   string     `json:"invoice_number,omitempty"`
	Subtotal        *float64   `json:"subtotal,omitempty"`
	Tax             *float64   `json:"tax,omitempty"`
	Confidence      Confidence `json:"confidence"`
}

// Confidence holds the per-field heuristic certainty scores (0-100).
// Overall is the rounded mean of whichever of amount/date/vendor were
// actually found, or 0 when none were.
type Confidence struct {
	Amount  *int `json:"amount,omitempty"`
	Date    *int `json:"date,omitempty"`
	Vendor  *int `json:"vendor,omitempty"`
	Overall int  `json:"overall"`
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time { return time.Now() }

// Engine extracts structured movement data from recognized receipt
// text. It holds no per-call state and is safe for concurrent use.
type Engine struct {
	timeSource TimeSource
}

// NewEngine creates an Engine backed by the wall clock.
func NewEngine() *Engine {
	return &Engine{timeSource: &defaultTimeSource{}}
}

// NewEngineWithTimeSource creates an Engine with a custom time source
// for testing. The date extractor's future filter and its tie-break
// both depend on "now".
func NewEngineWithTimeSource(ts TimeSource) *Engine {
	return &Engine{timeSource: ts}
}

// Extract runs the full pipeline over raw recognized text. It is total:
// any input, including the empty string, yields a well-formed Movement.
func (e *Engine) Extract(text string) *Movement {
	flat, lines := normalize(text)
	now := e.timeSource.Now()

	m := &Movement{TransactionType: TypeExpense}

	if c := extractAmount(lines); c != nil {
		v := c.value
		m.Amount = &v
		m.Confidence.Amount = intPtr(c.confidence)
	}
	if c := extractDate(lines, now); c != nil {
		m.Date = c.value.Format("2006-01-02")
		m.Confidence.Date = intPtr(c.confidence)
	}
	if v := extractVendor(flat); v != "" {
		m.Vendor = v
		m.Confidence.Vendor = intPtr(vendorConfidence)
	}

	m.TaxID = extractTaxID(flat)
	m.InvoiceNumber = extractInvoiceNumber(flat)
	m.Subtotal = extractSubtotal(flat)
	m.Tax = extractTaxAmount(flat)

	if m.Vendor != "" {
		if cat, ok := classifyVendor(m.Vendor); ok {
			m.Category = cat
		}
		m.Description = "Invoice - " + m.Vendor
		if m.InvoiceNumber != "" {
			m.Description += fmt.Sprintf(" (%s)", m.InvoiceNumber)
		}
	}

	m.Confidence.Overall = OverallConfidence(m.Confidence.Amount, m.Confidence.Date, m.Confidence.Vendor)

	return m
}

// OverallConfidence returns the rounded mean of the per-field scores
// that are present, or 0 when none are.
func OverallConfidence(scores ...*int) int {
	sum, n := 0, 0
	for _, s := range scores {
		if s != nil {
			sum += *s
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return int(math.Round(float64(sum) / float64(n)))
}

func intPtr(v int) *int { return &v }
