package extract

import "regexp"

// Pattern tables are compiled once at init and shared, read-only, across
// all extraction calls.

var (
	// totalLabelRe marks lines that carry the receipt total. Spanish
	// receipts label it "total", "importe" or "total a pagar".
	totalLabelRe = regexp.MustCompile(`(?i)\b(?:total|importe|monto|a\s+pagar)\b`)

	// numberRe matches grouped/decimal numeric tokens: 1,234.56 and
	// 1.234,56 and 44017,00 and bare integers of 3+ digits.
	numberRe = regexp.MustCompile(`\b\d{1,3}(?:[.,]\d{3})+(?:[.,]\d{1,2})?\b|\b\d+[.,]\d{1,2}\b|\b\d{3,}\b`)

	// dateLabelRe marks lines that carry the transaction date.
	dateLabelRe = regexp.MustCompile(`(?i)\b(?:fecha|date|emisi[oó]n|expedici[oó]n)\b`)
)

// datePatterns are tried in declaration order against each line. The
// 4-digit-year forms come first so that a 2-digit-year pattern never
// truncates a full year.
var datePatterns = []datePattern{
	{re: regexp.MustCompile(`\b(\d{4})-(\d{1,2})-(\d{1,2})\b`), yearFirst: true},
	{re: regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{4})\b`)},
	{re: regexp.MustCompile(`\b(\d{1,2})-(\d{1,2})-(\d{4})\b`)},
	{re: regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{2})\b`), shortYear: true},
	{re: regexp.MustCompile(`\b(\d{1,2})-(\d{1,2})-(\d{2})\b`), shortYear: true},
}

// vendorStop terminates a vendor capture at the next known receipt
// label, so that label-anchored matches on the flattened text do not
// swallow the rest of the document.
const vendorStop = `(?:\s+(?:rfc|r\.f\.c|fecha|date|folio|factura|ticket|tel|direcci[oó]n|domicilio|sucursal|c\.p|cp)\b|$)`

// vendorPatterns are tried in declaration order; the first match wins.
var vendorPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)raz[oó]n\s+social[:.\s]+(.{2,99}?)` + vendorStop),
	regexp.MustCompile(`(?i)\bempresa[:.\s]+(.{2,99}?)` + vendorStop),
	regexp.MustCompile(`(?i)\bproveedor[:.\s]+(.{2,99}?)` + vendorStop),
	regexp.MustCompile(`(?i)\bexpedido\s+por[:.\s]+(.{2,99}?)` + vendorStop),
	// Uncaptioned: a name carrying a Mexican legal-entity suffix.
	regexp.MustCompile(`(?i)\b([a-zñáéíóúü][\w\sñáéíóúü.,&-]{1,80}?\s+s\.?a\.?(?:b?\.?\s+de\s+c\.?v\.?)?)(?:\s|$)`),
}

var taxIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bR\.?F\.?C\.?[:.\s]*([A-ZÑ&]{3,4}\s?\d{6}\s?[A-Z0-9]{3})\b`),
	regexp.MustCompile(`\b([A-ZÑ&]{3,4}\d{6}[A-Z0-9]{3})\b`),
}

var invoiceNumberPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bfolio[:.\s#]*([A-Z0-9-]{1,30})\b`),
	regexp.MustCompile(`(?i)\bfactura\s*(?:no\.?|#|:)\s*([A-Z0-9-]{1,30})\b`),
	regexp.MustCompile(`(?i)\bticket[:.\s#]*(\d{1,30})\b`),
}

var subtotalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bsub\s?-?total[:.\s$]*([\d.,]+)`),
}

var taxAmountPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bI\.?V\.?A\.?\s*(?:\(?\d{1,2}\s*%\)?)?[:.\s$]*([\d.,]+)`),
	regexp.MustCompile(`(?i)\bimpuestos?[:.\s$]*([\d.,]+)`),
}
