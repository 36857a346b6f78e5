package scanning

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/cefe-herrera/copilot-finance-back/internal/extract"
)

// Gemini implements the Scanner interface using Google Gemini as the
// vision-language extraction path.
type Gemini struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGemini creates a new Gemini Scanner instance
func NewGemini(apiKey string, modelName string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if modelName == "" {
		modelName = "gemini-2.5-pro"
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	return &Gemini{
		client: client,
		model:  client.GenerativeModel(modelName),
	}, nil
}

// ScanTicket sends the prepared image to Gemini and parses its answer
// into the shared movement shape.
func (g *Gemini) ScanTicket(imageData []byte, contentType string, quality Quality) (*extract.Movement, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pngData, err := prepareImageData(imageData, contentType, quality)
	if err != nil {
		return nil, err
	}

	// prepareImageData always yields PNG, and genai.ImageData wants the
	// bare format suffix rather than a MIME type
	parts := []genai.Part{
		genai.ImageData("png", pngData),
		genai.Text(movementScanPrompt),
	}

	resp, err := g.model.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, fmt.Errorf("generating content: %w", err)
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("no response from gemini")
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			responseText.WriteString(string(text))
		}
	}

	movement, err := parseMovementJSON(responseText.String())
	if err != nil {
		return nil, fmt.Errorf("parsing movement data: %w", err)
	}

	return movement, nil
}

// Close closes the Gemini client
func (g *Gemini) Close() error {
	return g.client.Close()
}
