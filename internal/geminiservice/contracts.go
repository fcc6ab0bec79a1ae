package geminiservice

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/AbdulRehmanZia/rice-quality--checker-app/internal/imagecapture"
)

var (
	// ErrInvalidInput marks a request rejected before the model was called.
	ErrInvalidInput = errors.New("invalid analysis input")

	// ErrInference marks a failed call to the hosted model.
	ErrInference = errors.New("inference call failed")

	// ErrInvalidOutput marks a model response that does not satisfy the output contract.
	ErrInvalidOutput = errors.New("model returned an invalid result")
)

// Classification labels the model may return.
const (
	LabelLongGrain  = "long grain"
	LabelShortGrain = "short grain"
	LabelBroken     = "broken"
)

// ClassificationLabels is the enum of the classification flow.
var ClassificationLabels = []string{LabelLongGrain, LabelShortGrain, LabelBroken}

// ImageInput is the input of every flow.
type ImageInput struct {
	// PhotoDataURI must look like data:<mimetype>;base64,<encoded_data>.
	PhotoDataURI string `json:"photoDataUri"`
}

// Validate decodes the data URI and rejects anything that is not an image.
func (in ImageInput) Validate() (imagecapture.Image, error) {
	img, err := imagecapture.ParseImage(in.PhotoDataURI)
	if err != nil {
		return imagecapture.Image{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return img, nil
}

// ClassifyRiceOutput is the result of the classification flow.
type ClassifyRiceOutput struct {
	Classification string  `json:"classification"`
	Confidence     float64 `json:"confidence"`
}

func (o ClassifyRiceOutput) Validate() error {
	if !slices.Contains(ClassificationLabels, o.Classification) {
		return fmt.Errorf("unknown classification %q", o.Classification)
	}
	return checkRange("confidence", o.Confidence, 0, 1)
}

// DiseaseDiagnosis is the structured diagnosis of the disease flow.
// ConfidenceLevels is index-aligned with PossibleDiseases.
type DiseaseDiagnosis struct {
	DiseaseDetected  bool      `json:"diseaseDetected"`
	PossibleDiseases []string  `json:"possibleDiseases"`
	ConfidenceLevels []float64 `json:"confidenceLevels"`
	Recommendations  string    `json:"recommendations"`
}

// DetectPlantDiseaseOutput is the result of the disease flow.
type DetectPlantDiseaseOutput struct {
	DiseaseDiagnosis DiseaseDiagnosis `json:"diseaseDiagnosis"`
}

func (o DetectPlantDiseaseOutput) Validate() error {
	d := o.DiseaseDiagnosis
	if len(d.ConfidenceLevels) != len(d.PossibleDiseases) {
		return fmt.Errorf("%d confidence levels for %d diseases", len(d.ConfidenceLevels), len(d.PossibleDiseases))
	}
	for i, c := range d.ConfidenceLevels {
		if err := checkRange(fmt.Sprintf("confidenceLevels[%d]", i), c, 0, 1); err != nil {
			return err
		}
	}
	return nil
}

// AssessPlantHealthOutput is the result of the health flow.
type AssessPlantHealthOutput struct {
	HealthScore float64 `json:"healthScore"`
}

func (o AssessPlantHealthOutput) Validate() error {
	return checkRange("healthScore", o.HealthScore, 0, 100)
}

func checkRange(field string, v, lo, hi float64) error {
	if math.IsNaN(v) || v < lo || v > hi {
		return fmt.Errorf("%s %v outside [%v, %v]", field, v, lo, hi)
	}
	return nil
}
