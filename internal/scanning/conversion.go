package scanning

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	"image/png"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/gen2brain/heic"
)

// movementScanPrompt is the shared prompt used by the vision-model
// scanners. It asks for the same structured shape the heuristic engine
// produces so that both paths are contract-equivalent.
const movementScanPrompt = `You are analyzing a photographed receipt or invoice (Mexican tickets are common: look for RFC, folio, IVA). Carefully read all text in the image and extract:

1. **Total amount**: the final total or "TOTAL A PAGAR", as a number in currency units (not cents).
2. **Transaction date**: the purchase/issue date, in ISO 8601 format (YYYY-MM-DD). Ignore due dates and card expiry dates.
3. **Vendor**: the merchant or issuer name, usually at the top.
4. **Auxiliary fields** when visible: tax id (RFC), invoice/folio number, subtotal, tax (IVA) amount.
5. **Confidence**: for amount, date and vendor, an integer 0-100 expressing how certain you are of each.

Return ONLY valid JSON in this exact format:
{
  "amount": 0.00,
  "date": "YYYY-MM-DD",
  "vendor": "",
  "category": "",
  "tax_id": "",
  "invoice_number": "",
  "subtotal": 0.00,
  "tax": 0.00,
  "confidence": {"amount": 0, "date": 0, "vendor": 0}
}

Important:
- Numbers must be numbers, not strings
- Use null for any field you cannot find
- Do not include any text before or after the JSON
- Do not use markdown code blocks`

// renderDPI maps the caller's quality hint to the resolution PDFs are
// rendered at before recognition.
func renderDPI(quality Quality) float64 {
	switch quality {
	case QualityLow:
		return 150
	case QualityHigh:
		return 600
	default:
		return 300
	}
}

// pdfToImage renders the first page of a PDF to a PNG image. Receipts
// are almost always single page.
func pdfToImage(pdfData []byte, quality Quality) ([]byte, error) {
	doc, err := fitz.NewFromMemory(pdfData)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	img, err := doc.ImageDPI(0, renderDPI(quality))
	if err != nil {
		return nil, fmt.Errorf("rendering PDF page: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}

	return buf.Bytes(), nil
}

// imageToPNG converts any supported image format to PNG
func imageToPNG(imageData []byte, mimeType string) ([]byte, error) {
	var img image.Image
	var err error

	// HEIC/HEIF (iPhone photos) is not covered by the standard image
	// package; decode it separately.
	if isHEICFormat(imageData) || isHEICMimeType(mimeType) {
		img, err = heic.Decode(bytes.NewReader(imageData))
		if err != nil {
			return nil, fmt.Errorf("decoding HEIC/HEIF image: %w", err)
		}
	} else {
		img, _, err = image.Decode(bytes.NewReader(imageData))
		if err != nil {
			if strings.Contains(err.Error(), "unknown format") || strings.Contains(err.Error(), "unsupported") {
				return nil, fmt.Errorf("unsupported image format. Supported formats: JPEG, PNG, GIF, HEIC, HEIF, PDF. Error: %w", err)
			}
			return nil, fmt.Errorf("decoding image: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}

	return buf.Bytes(), nil
}

// isHEICFormat checks the ftyp box brands HEIC containers start with
func isHEICFormat(data []byte) bool {
	if len(data) < 12 {
		return false
	}
	if string(data[4:8]) == "ftyp" {
		brand := string(data[8:12])
		if brand == "heic" || brand == "heif" || brand == "mif1" || brand == "msf1" {
			return true
		}
	}
	return false
}

func isHEICMimeType(mimeType string) bool {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	return mimeType == "image/heic" || mimeType == "image/heif" ||
		strings.Contains(mimeType, "heic") || strings.Contains(mimeType, "heif")
}

// prepareImageData normalizes the MIME type and converts PDFs and
// non-PNG images to PNG. After this call the data is always PNG.
func prepareImageData(imageData []byte, contentType string, quality Quality) ([]byte, error) {
	mimeType := strings.ToLower(strings.TrimSpace(contentType))
	if mimeType == "" {
		mimeType = "image/jpeg" // default
	}

	if mimeType == "application/pdf" {
		pngData, err := pdfToImage(imageData, quality)
		if err != nil {
			return nil, fmt.Errorf("converting PDF to image: %w", err)
		}
		return pngData, nil
	}

	if mimeType != "image/png" || isHEICFormat(imageData) {
		pngData, err := imageToPNG(imageData, mimeType)
		if err != nil {
			return nil, fmt.Errorf("converting image to PNG: %w", err)
		}
		return pngData, nil
	}

	return imageData, nil
}
