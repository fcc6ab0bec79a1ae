package geminiservice

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// flow pairs a prompt with the schema of its answer.
type flow struct {
	name   string
	prompt string
	schema *GeminiSchema
}

var (
	classifyRiceFlow       = flow{name: "classifyRice", prompt: ClassifyRicePrompt, schema: ClassifyRiceSchema}
	detectPlantDiseaseFlow = flow{name: "detectPlantDisease", prompt: DetectPlantDiseasePrompt, schema: DetectPlantDiseaseSchema}
	assessPlantHealthFlow  = flow{name: "assessPlantHealth", prompt: AssessPlantHealthPrompt, schema: AssessPlantHealthSchema}
)

type validator interface {
	Validate() error
}

// Service runs the three image analysis flows against a Model. It keeps no
// state between calls: every call reaches the model exactly once.
type Service struct {
	model Model
}

// NewService creates a Service backed by model.
func NewService(model Model) *Service {
	return &Service{model: model}
}

// ClassifyRice classifies rice grains as long grain, short grain or broken.
func (s *Service) ClassifyRice(ctx context.Context, in ImageInput) (ClassifyRiceOutput, error) {
	var out ClassifyRiceOutput
	if err := s.generateAndParse(ctx, classifyRiceFlow, in, &out); err != nil {
		return ClassifyRiceOutput{}, err
	}
	return out, nil
}

// DetectPlantDisease diagnoses diseases visible on a rice plant.
func (s *Service) DetectPlantDisease(ctx context.Context, in ImageInput) (DetectPlantDiseaseOutput, error) {
	var out DetectPlantDiseaseOutput
	if err := s.generateAndParse(ctx, detectPlantDiseaseFlow, in, &out); err != nil {
		return DetectPlantDiseaseOutput{}, err
	}
	return out, nil
}

// AssessPlantHealth scores plant health from 0 to 100.
func (s *Service) AssessPlantHealth(ctx context.Context, in ImageInput) (AssessPlantHealthOutput, error) {
	var out AssessPlantHealthOutput
	if err := s.generateAndParse(ctx, assessPlantHealthFlow, in, &out); err != nil {
		return AssessPlantHealthOutput{}, err
	}
	return out, nil
}

// generateAndParse validates the input, calls the model, then decodes and
// validates the answer into out.
func (s *Service) generateAndParse(ctx context.Context, f flow, in ImageInput, out validator) error {
	log := zerolog.Ctx(ctx)

	img, err := in.Validate()
	if err != nil {
		return err
	}

	raw, err := s.model.GenerateStructured(ctx, StructuredRequest{
		Flow:         f.name,
		SystemPrompt: SystemPrompt,
		Prompt:       f.prompt,
		Image:        img,
		Schema:       f.schema,
	})
	if err != nil {
		log.Error().Err(err).Str("flow", f.name).Msg("Inference call failed")
		return fmt.Errorf("%s: %w: %w", f.name, ErrInference, err)
	}

	body := []byte(trimJSON(raw))
	if err := f.schema.checkRequired(body, ""); err != nil {
		log.Warn().Err(err).Str("flow", f.name).Str("raw", raw).Msg("Model response is missing required fields")
		return fmt.Errorf("%s: %w: %w", f.name, ErrInvalidOutput, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		log.Error().Err(err).Str("flow", f.name).Str("raw", raw).Msg("Failed to parse model response")
		return fmt.Errorf("%s: %w: %w", f.name, ErrInvalidOutput, err)
	}
	if err := out.Validate(); err != nil {
		log.Warn().Err(err).Str("flow", f.name).Msg("Model response violates output contract")
		return fmt.Errorf("%s: %w: %w", f.name, ErrInvalidOutput, err)
	}

	return nil
}

// trimJSON drops a markdown code fence some models put around JSON.
func trimJSON(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
