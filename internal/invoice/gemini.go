// Package invoice extracts structured invoice fields from scanned documents.
package invoice

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"logiledger/internal/domain"
)

const extractionPrompt = `You are reading a freight invoice issued by a transport provider.
Return only a JSON object with these keys, using null when a value is not present:
invoiceNumber, invoiceDate (YYYY-MM-DD), vendorName, vendorGstin, billedTo,
origin, destination, vehicleNumber, subtotal, taxAmount, totalAmount, currency,
lineItems (array of {description, quantity, rate, amount}).
Amounts are numbers without currency symbols. Do not add commentary.`

var supportedMIMETypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/webp":      true,
	"application/pdf": true,
}

type GeminiExtractor struct {
	client *genai.Client
	model  string
}

func NewGeminiExtractor(ctx context.Context, apiKey, model string) (*GeminiExtractor, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	return &GeminiExtractor{client: client, model: model}, nil
}

func SupportedMIMEType(mimeType string) bool {
	return supportedMIMETypes[strings.ToLower(strings.TrimSpace(mimeType))]
}

func (e *GeminiExtractor) Extract(ctx context.Context, document []byte, mimeType string) (domain.InvoiceData, error) {
	if !SupportedMIMEType(mimeType) {
		return nil, fmt.Errorf("unsupported document type %q", mimeType)
	}

	content := &genai.Content{
		Parts: []*genai.Part{
			{Text: extractionPrompt},
			{InlineData: &genai.Blob{MIMEType: mimeType, Data: document}},
		},
	}

	result, err := e.client.Models.GenerateContent(ctx, e.model, []*genai.Content{content}, &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(0.1)),
	})
	if err != nil {
		return nil, fmt.Errorf("generating content: %w", err)
	}

	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("empty response from model")
	}

	return ParseResponse(result.Candidates[0].Content.Parts[0].Text)
}

// ParseResponse decodes the model output, tolerating a markdown code fence.
func ParseResponse(text string) (domain.InvoiceData, error) {
	payload := stripCodeFence(text)
	if payload == "" {
		return nil, fmt.Errorf("model returned no JSON")
	}

	var data domain.InvoiceData
	if err := json.Unmarshal([]byte(payload), &data); err != nil {
		return nil, fmt.Errorf("parsing model response: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("model returned an empty invoice")
	}

	data["source"] = "scan"
	return data, nil
}

func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}
