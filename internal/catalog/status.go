package catalog

import "fmt"

// Status is the banded reading of a plant health score.
type Status struct {
	Text  string `json:"text"`
	Level string `json:"level"` // excellent, good, fair, poor; used as a css class
}

// HealthStatus maps a 0-100 health score to its display band.
func HealthStatus(score float64) Status {
	switch {
	case score >= 80:
		return Status{Text: "Excellent", Level: "excellent"}
	case score >= 60:
		return Status{Text: "Good", Level: "good"}
	case score >= 40:
		return Status{Text: "Fair", Level: "fair"}
	default:
		return Status{Text: "Poor", Level: "poor"}
	}
}

// ClassificationNote explains a classification result to the user.
func ClassificationNote(label string) string {
	if label == "broken" {
		return "This classification is based on visual analysis by our AI model. Broken grains can affect cooking properties and are often used differently."
	}
	return fmt.Sprintf("This classification is based on visual analysis by our AI model. '%s' rice has distinct characteristics ideal for specific dishes.", label)
}

// HealthNote explains a health score to the user.
func HealthNote(score float64) string {
	const base = "This score is an AI-generated estimate based on the provided image."
	if score < 60 {
		return base + " A lower score may indicate potential stress, nutrient deficiencies, or early signs of disease. Consider further investigation or consultation with an agricultural expert."
	}
	return base + " A higher score suggests good plant vitality. Continue to maintain optimal growing conditions and monitor your plants regularly."
}

// SuggestDiseaseCheck reports whether a score is low enough to point the user
// at the disease detection tool.
func SuggestDiseaseCheck(score float64) bool {
	return score < 70
}
