package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	vendorConfidence = 75

	// A vendor name must be longer than 2 and shorter than 100 runes;
	// anything outside that is a label fragment or a swallowed block of
	// the receipt.
	vendorMinLen = 2
	vendorMaxLen = 100
)

// extractVendor tries the label-anchored vendor patterns, in order,
// against the flattened text. First acceptable match wins; no match
// yields the empty string.
func extractVendor(flat string) string {
	for _, re := range vendorPatterns {
		m := re.FindStringSubmatch(flat)
		if m == nil {
			continue
		}
		name := collapseSpaces(m[1])
		if n := utf8.RuneCountInString(name); n > vendorMinLen && n < vendorMaxLen {
			return name
		}
	}
	return ""
}

// extractTaxID returns the first RFC-shaped match, or "".
func extractTaxID(flat string) string {
	if m := firstMatch(taxIDPatterns, flat); m != "" {
		return strings.ToUpper(strings.ReplaceAll(m, " ", ""))
	}
	return ""
}

// extractInvoiceNumber returns the first folio/invoice number, or "".
func extractInvoiceNumber(flat string) string {
	return firstMatch(invoiceNumberPatterns, flat)
}

// extractSubtotal returns the subtotal amount, or nil.
func extractSubtotal(flat string) *float64 {
	return firstNumericMatch(subtotalPatterns, flat)
}

// extractTaxAmount returns the IVA/tax amount, or nil.
func extractTaxAmount(flat string) *float64 {
	return firstNumericMatch(taxAmountPatterns, flat)
}

func firstMatch(patterns []*regexp.Regexp, flat string) string {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(flat); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

// firstNumericMatch is firstMatch plus a numeric parse; a match that
// fails to parse leaves the field absent.
func firstNumericMatch(patterns []*regexp.Regexp, flat string) *float64 {
	for _, re := range patterns {
		m := re.FindStringSubmatch(flat)
		if m == nil {
			continue
		}
		if v, ok := parseNumber(strings.TrimSpace(m[1])); ok {
			return &v
		}
	}
	return nil
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
