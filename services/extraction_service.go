package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/sashabaranov/go-openai"

	"medicao/models"
)

// Extraction errors the handler surfaces to the operator as-is, so the
// frontend can distinguish "wait a minute" from "out of credits".
var (
	ErrRateLimited    = errors.New("document service rate limited, try again shortly")
	ErrQuotaExhausted = errors.New("document service quota exhausted")
)

const extractionPrompt = `Você recebe a foto de um Relatório Diário de Atividades (RDA) de obra rodoviária.
Extraia cada serviço executado como um objeto JSON com os campos:
"description" (texto do serviço), "raw_code" (código se legível, senão vazio),
"quantity" (número), "unit" (unidade, ex: m3, m2, un).
Extraia também, quando presentes: "report_date" (AAAA-MM-DD), "contractor",
"weather_morning", "weather_afternoon".
Responda somente com JSON: {"services": [...], "report_date": "...", "contractor": "...",
"weather_morning": "...", "weather_afternoon": "..."}.`

// ExtractionService reads handwritten or printed daily reports through a
// vision model. It never touches the catalog: matching extracted rows to
// price items stays with the reconciliation engine.
type ExtractionService struct {
	client *openai.Client
	model  string
}

func NewExtractionService() *ExtractionService {
	apiKey := os.Getenv("EXTRACTION_API_KEY")
	baseURL := os.Getenv("EXTRACTION_BASE_URL")
	model := os.Getenv("EXTRACTION_MODEL")
	if model == "" {
		model = "gpt-4o-mini"
	}

	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &ExtractionService{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

// Extract sends the document image to the vision model and parses the
// structured rows out of its JSON answer.
func (s *ExtractionService) Extract(ctx context.Context, doc []byte, mimeType string) (*models.ExtractResponse, error) {
	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(doc))

	req := openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: extractionPrompt},
					{
						Type:     openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{URL: dataURL},
					},
				},
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.1,
	}

	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, classifyExtractionError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("document service returned no content")
	}

	var raw struct {
		Services         []models.ServiceOccurrence `json:"services"`
		ReportDate       string                     `json:"report_date"`
		Contractor       string                     `json:"contractor"`
		WeatherMorning   string                     `json:"weather_morning"`
		WeatherAfternoon string                     `json:"weather_afternoon"`
	}
	content := resp.Choices[0].Message.Content
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse document service response: %v", err)
	}

	out := &models.ExtractResponse{
		Fields:      map[string]string{},
		Occurrences: raw.Services,
	}
	if raw.ReportDate != "" {
		out.Fields["report_date"] = raw.ReportDate
	}
	if raw.Contractor != "" {
		out.Fields["contractor"] = raw.Contractor
	}
	if raw.WeatherMorning != "" {
		out.Fields["weather_morning"] = raw.WeatherMorning
	}
	if raw.WeatherAfternoon != "" {
		out.Fields["weather_afternoon"] = raw.WeatherAfternoon
	}
	if len(out.Occurrences) == 0 {
		out.Warnings = append(out.Warnings, "nenhum serviço reconhecido no documento")
	}
	return out, nil
}

// classifyExtractionError maps provider errors onto the sentinel errors
// the handlers report. 429 with an insufficient_quota code means the
// account is out of credits rather than merely throttled.
func classifyExtractionError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if code, ok := apiErr.Code.(string); ok && code == "insufficient_quota" {
			return ErrQuotaExhausted
		}
		if apiErr.HTTPStatusCode == 429 {
			if strings.Contains(strings.ToLower(apiErr.Message), "quota") {
				return ErrQuotaExhausted
			}
			return ErrRateLimited
		}
	}
	return fmt.Errorf("document service request failed: %v", err)
}
