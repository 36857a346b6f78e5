package scanning

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cefe-herrera/copilot-finance-back/internal/extract"
)

// Recognizer is the out-of-scope text-recognition collaborator: it
// turns image bytes into raw text. Implementations own whatever worker
// or remote session that requires and release it in Close.
type Recognizer interface {
	// Recognize returns the raw text recognized in a PNG image
	Recognize(ctx context.Context, image []byte, quality Quality) (string, error)
	// Close releases the recognizer's resources
	Close() error
}

// Heuristic implements the Scanner interface by recognizing the ticket
// text and running the extraction engine over it. This is the primary,
// deterministic path.
type Heuristic struct {
	recognizer Recognizer
	engine     *extract.Engine
	timeout    time.Duration
}

// NewHeuristic creates a Heuristic Scanner around a recognizer
func NewHeuristic(recognizer Recognizer) (*Heuristic, error) {
	if recognizer == nil {
		return nil, fmt.Errorf("a recognizer is required")
	}
	return &Heuristic{
		recognizer: recognizer,
		engine:     extract.NewEngine(),
		timeout:    60 * time.Second,
	}, nil
}

// ScanTicket prepares the image, recognizes its text and extracts
// movement data. Only the recognition step can fail; the extraction
// engine is total over whatever text comes back.
func (h *Heuristic) ScanTicket(imageData []byte, contentType string, quality Quality) (*extract.Movement, error) {
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	pngData, err := prepareImageData(imageData, contentType, quality)
	if err != nil {
		return nil, err
	}

	text, err := h.recognizer.Recognize(ctx, pngData, quality)
	if err != nil {
		return nil, fmt.Errorf("recognizing text: %w", err)
	}

	return h.engine.Extract(text), nil
}

// Close closes the underlying recognizer
func (h *Heuristic) Close() error {
	return h.recognizer.Close()
}

// HTTPRecognizer is a Recognizer backed by a remote OCR service that
// accepts a base64 PNG and answers with the recognized text.
type HTTPRecognizer struct {
	baseURL string
	client  *http.Client
}

// NewHTTPRecognizer creates a recognizer client for the given OCR
// service base URL.
func NewHTTPRecognizer(baseURL string) (*HTTPRecognizer, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("ocr service url is required")
	}
	return &HTTPRecognizer{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}, nil
}

type recognizeRequest struct {
	Image   []byte `json:"image"` // base64-encoded by encoding/json
	Quality string `json:"quality,omitempty"`
}

type recognizeResponse struct {
	Text string `json:"text"`
}

// Recognize sends the image to the OCR service and returns its text
func (r *HTTPRecognizer) Recognize(ctx context.Context, image []byte, quality Quality) (string, error) {
	body, err := json.Marshal(recognizeRequest{Image: image, Quality: string(quality)})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/recognize", r.baseURL)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling ocr service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("ocr service error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var recognized recognizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&recognized); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}

	return recognized.Text, nil
}

// Close closes the recognizer (no-op for the HTTP client)
func (r *HTTPRecognizer) Close() error {
	return nil
}
