package geminiservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AbdulRehmanZia/rice-quality--checker-app/internal/imagecapture"
	"github.com/rs/zerolog"
	"google.golang.org/genai"
)

// --- Gemini API Configuration ---
const (
	DefaultModel       = "gemini-2.0-flash"
	DefaultTimeout     = 60 * time.Second
	structuredMimeType = "application/json"
)

// ErrNotConfigured is returned when no API key is available.
var ErrNotConfigured = errors.New("server is not configured for AI analysis")

// StructuredRequest is one call to the hosted model: prompts, the image and
// the schema the JSON answer must follow.
type StructuredRequest struct {
	Flow         string
	SystemPrompt string
	Prompt       string
	Image        imagecapture.Image
	Schema       *GeminiSchema
}

// Model is the hosted generative model. It returns the raw JSON text of the
// structured answer.
type Model interface {
	GenerateStructured(ctx context.Context, req StructuredRequest) (string, error)
}

// Unconfigured is the Model used when no API key is set. Every call fails
// with ErrNotConfigured so the rest of the app keeps working.
type Unconfigured struct{}

func (Unconfigured) GenerateStructured(context.Context, StructuredRequest) (string, error) {
	return "", ErrNotConfigured
}

// GenAIModel calls Gemini through the official genai SDK.
type GenAIModel struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewGenAIModel creates a Gemini-backed Model.
func NewGenAIModel(ctx context.Context, apiKey, model string, timeout time.Duration) (*GenAIModel, error) {
	if apiKey == "" {
		return nil, ErrNotConfigured
	}
	if model == "" {
		model = DefaultModel
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GenAIModel{client: client, model: model, timeout: timeout}, nil
}

// Name returns the model identifier.
func (m *GenAIModel) Name() string {
	return m.model
}

// GenerateStructured sends the prompt and image in a single attempt.
func (m *GenAIModel) GenerateStructured(ctx context.Context, req StructuredRequest) (string, error) {
	log := zerolog.Ctx(ctx)

	reqCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(req.Prompt),
			genai.NewPartFromBytes(req.Image.Data, req.Image.MimeType),
		}, genai.RoleUser),
	}

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: structuredMimeType,
		ResponseSchema:   req.Schema.toGenAI(),
	}
	if req.SystemPrompt != "" {
		config.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
	}

	log.Info().Str("flow", req.Flow).Str("model", m.model).Int("image_bytes", len(req.Image.Data)).Msg("Calling Gemini API...")
	started := time.Now()

	resp, err := m.client.Models.GenerateContent(reqCtx, m.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("no content found in Gemini response")
	}

	log.Info().Str("flow", req.Flow).Dur("took", time.Since(started)).Msg("Gemini API responded")
	return text, nil
}

// toGenAI converts the schema into the SDK representation.
func (s *GeminiSchema) toGenAI() *genai.Schema {
	if s == nil {
		return nil
	}

	out := &genai.Schema{
		Type:        genai.Type(s.Type),
		Format:      s.Format,
		Description: s.Description,
		Required:    s.Required,
		Enum:        s.Enum,
		Minimum:     s.Minimum,
		Maximum:     s.Maximum,
		Items:       s.Items.toGenAI(),
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = prop.toGenAI()
		}
	}
	return out
}
