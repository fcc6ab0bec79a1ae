/*
Package analysis joins the inference flows with the static suggestion tables.
It is shared by the web pages, the JSON API and the command line.
*/
package analysis

import (
	"context"

	"github.com/AbdulRehmanZia/rice-quality--checker-app/internal/catalog"
	"github.com/AbdulRehmanZia/rice-quality--checker-app/internal/geminiservice"
)

// Analyzer runs the three inference flows. *geminiservice.Service satisfies it.
type Analyzer interface {
	ClassifyRice(ctx context.Context, in geminiservice.ImageInput) (geminiservice.ClassifyRiceOutput, error)
	DetectPlantDisease(ctx context.Context, in geminiservice.ImageInput) (geminiservice.DetectPlantDiseaseOutput, error)
	AssessPlantHealth(ctx context.Context, in geminiservice.ImageInput) (geminiservice.AssessPlantHealthOutput, error)
}

// ClassificationResult is a rice classification with its cuisine ideas.
type ClassificationResult struct {
	geminiservice.ClassifyRiceOutput
	Note         string                `json:"note"`
	CuisineIdeas []catalog.CuisineIdea `json:"cuisineIdeas"`
}

// DiseaseResult is a disease diagnosis. Medicines is only filled when a
// disease was detected.
type DiseaseResult struct {
	geminiservice.DetectPlantDiseaseOutput
	Findings  []Finding              `json:"-"`
	Medicines []catalog.MedicineInfo `json:"medicineInfo,omitempty"`
}

// Finding pairs a disease with its confidence for display.
type Finding struct {
	Disease    string
	Confidence float64
}

// HealthResult is a health score with its band.
type HealthResult struct {
	geminiservice.AssessPlantHealthOutput
	Status              catalog.Status `json:"status"`
	Note                string         `json:"note"`
	SuggestDiseaseCheck bool           `json:"suggestDiseaseCheck"`
}

func Classify(ctx context.Context, a Analyzer, in geminiservice.ImageInput) (ClassificationResult, error) {
	out, err := a.ClassifyRice(ctx, in)
	if err != nil {
		return ClassificationResult{}, err
	}
	return ClassificationResult{
		ClassifyRiceOutput: out,
		Note:               catalog.ClassificationNote(out.Classification),
		CuisineIdeas:       catalog.GetCuisineIdeas(out.Classification),
	}, nil
}

func DetectDisease(ctx context.Context, a Analyzer, in geminiservice.ImageInput) (DiseaseResult, error) {
	out, err := a.DetectPlantDisease(ctx, in)
	if err != nil {
		return DiseaseResult{}, err
	}

	d := out.DiseaseDiagnosis
	res := DiseaseResult{DetectPlantDiseaseOutput: out}
	if d.DiseaseDetected {
		res.Findings = make([]Finding, len(d.PossibleDiseases))
		for i, name := range d.PossibleDiseases {
			res.Findings[i] = Finding{Disease: name, Confidence: d.ConfidenceLevels[i]}
		}
		res.Medicines = catalog.GetMedicineInfo(d.PossibleDiseases)
	}
	return res, nil
}

func AssessHealth(ctx context.Context, a Analyzer, in geminiservice.ImageInput) (HealthResult, error) {
	out, err := a.AssessPlantHealth(ctx, in)
	if err != nil {
		return HealthResult{}, err
	}
	return HealthResult{
		AssessPlantHealthOutput: out,
		Status:                  catalog.HealthStatus(out.HealthScore),
		Note:                    catalog.HealthNote(out.HealthScore),
		SuggestDiseaseCheck:     catalog.SuggestDiseaseCheck(out.HealthScore),
	}, nil
}
