package geminiservice

import (
	"bytes"
	"encoding/json"
	"fmt"
)

/* =================================================================================
							GEMINI SCHEMA DEFINITION
	Tells Gemini how to format its JSON response for each flow
=================================================================================*/

// GeminiSchema defines the structure for "Controlled Generation" (Structured Output).
// It maps onto the genai Schema type when a request is sent.
type GeminiSchema struct {
	// Type defines the data type (e.g., "OBJECT", "ARRAY", "STRING", "NUMBER", "BOOLEAN").
	Type string `json:"type"`

	// Format specifies data format, primarily used for "enum" validation.
	Format string `json:"format,omitempty"`

	// Description explains the field's purpose to the AI.
	Description string `json:"description,omitempty"`

	// Properties maps field names to their child schemas (used when Type is "OBJECT").
	Properties map[string]*GeminiSchema `json:"properties,omitempty"`

	// Items defines the schema for elements within an array (used when Type is "ARRAY").
	Items *GeminiSchema `json:"items,omitempty"`

	// Required lists the field names that the AI MUST include in the response.
	Required []string `json:"required,omitempty"`

	// Enum lists valid specific string values for fields with restricted options.
	Enum []string `json:"enum,omitempty"`

	// Minimum and Maximum bound NUMBER fields.
	Minimum *float64 `json:"minimum,omitempty"`
	Maximum *float64 `json:"maximum,omitempty"`
}

func bound(v float64) *float64 { return &v }

// checkRequired walks raw against the schema. Required fields must be present
// and no value may be null.
func (s *GeminiSchema) checkRequired(raw json.RawMessage, path string) error {
	if s == nil {
		return nil
	}
	if isNull(raw) {
		return fmt.Errorf("%s is null", fieldName(path))
	}

	switch s.Type {
	case "OBJECT":
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil {
			return fmt.Errorf("%s is not an object: %w", fieldName(path), err)
		}
		for _, name := range s.Required {
			if _, ok := fields[name]; !ok {
				return fmt.Errorf("missing required field %s", joinPath(path, name))
			}
		}
		for name, value := range fields {
			prop, ok := s.Properties[name]
			if !ok {
				continue
			}
			if err := prop.checkRequired(value, joinPath(path, name)); err != nil {
				return err
			}
		}
	case "ARRAY":
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return fmt.Errorf("%s is not an array: %w", fieldName(path), err)
		}
		for i, item := range items {
			if err := s.Items.checkRequired(item, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
	}
	return nil
}

func isNull(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

func joinPath(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}

func fieldName(path string) string {
	if path == "" {
		return "response"
	}
	return path
}

/* =================================================================================
								PROMPTS
=================================================================================*/

// SystemPrompt is shared by all flows.
const SystemPrompt = `You are an agronomy assistant specialised in rice.
You only analyse the single image attached to the request.
Return ONLY the JSON structure defined in the schema. Do NOT add markdown, explanations, or preamble.`

// ClassifyRicePrompt asks for the grain classification.
const ClassifyRicePrompt = `You are an expert in rice grain quality inspection.

Analyze the attached image of rice grains and classify them as exactly one of:
"long grain", "short grain" or "broken".
Also provide a confidence between 0 and 1 for your classification.`

// DetectPlantDiseasePrompt asks for a disease diagnosis.
const DetectPlantDiseasePrompt = `You are an expert in diagnosing rice plant diseases. Analyze the attached image and determine if any diseases are present.

Based on the image, identify the possible diseases, provide a confidence level between 0 and 1 for each (in the same order as the diseases), and give recommendations for addressing them.
If no disease is present, set diseaseDetected to false and return empty lists.`

// AssessPlantHealthPrompt asks for a 0-100 health score.
const AssessPlantHealthPrompt = `You are an expert in rice plant health assessment.

Based on the attached image of the rice plant, assess its overall health.
Provide a health score between 0 and 100, where 0 indicates a completely unhealthy plant and 100 indicates a perfectly healthy plant.`

/* =================================================================================
								RESPONSE SCHEMAS
=================================================================================*/

// ClassifyRiceSchema is the response schema of the classification flow.
var ClassifyRiceSchema = &GeminiSchema{
	Type: "OBJECT",
	Properties: map[string]*GeminiSchema{
		"classification": {
			Type:        "STRING",
			Format:      "enum",
			Description: "The classification of the rice grains.",
			Enum:        ClassificationLabels,
		},
		"confidence": {
			Type:        "NUMBER",
			Description: "Confidence of the classification, from 0 to 1.",
			Minimum:     bound(0),
			Maximum:     bound(1),
		},
	},
	Required: []string{"classification", "confidence"},
}

// DetectPlantDiseaseSchema is the response schema of the disease flow.
var DetectPlantDiseaseSchema = &GeminiSchema{
	Type: "OBJECT",
	Properties: map[string]*GeminiSchema{
		"diseaseDiagnosis": {
			Type: "OBJECT",
			Properties: map[string]*GeminiSchema{
				"diseaseDetected": {
					Type:        "BOOLEAN",
					Description: "Whether or not a disease is detected.",
				},
				"possibleDiseases": {
					Type:        "ARRAY",
					Description: "The possible diseases detected in the plant.",
					Items:       &GeminiSchema{Type: "STRING"},
				},
				"confidenceLevels": {
					Type:        "ARRAY",
					Description: "The confidence levels (0 to 1) for each possible disease, index-aligned with possibleDiseases.",
					Items:       &GeminiSchema{Type: "NUMBER", Minimum: bound(0), Maximum: bound(1)},
				},
				"recommendations": {
					Type:        "STRING",
					Description: "Recommendations for addressing the detected diseases.",
				},
			},
			Required: []string{"diseaseDetected", "possibleDiseases", "confidenceLevels", "recommendations"},
		},
	},
	Required: []string{"diseaseDiagnosis"},
}

// AssessPlantHealthSchema is the response schema of the health flow.
var AssessPlantHealthSchema = &GeminiSchema{
	Type: "OBJECT",
	Properties: map[string]*GeminiSchema{
		"healthScore": {
			Type:        "NUMBER",
			Description: "A number between 0 and 100 representing the health of the plant.",
			Minimum:     bound(0),
			Maximum:     bound(100),
		},
	},
	Required: []string{"healthScore"},
}
