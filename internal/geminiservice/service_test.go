package geminiservice

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/AbdulRehmanZia/rice-quality--checker-app/internal/imagecapture"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubModel struct {
	response string
	err      error
	calls    []StructuredRequest
}

func (m *stubModel) GenerateStructured(_ context.Context, req StructuredRequest) (string, error) {
	m.calls = append(m.calls, req)
	return m.response, m.err
}

var validInput = ImageInput{
	PhotoDataURI: "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString([]byte("rice")),
}

func TestClassifyRice(t *testing.T) {
	model := &stubModel{response: `{"classification":"long grain","confidence":0.92}`}
	svc := NewService(model)

	out, err := svc.ClassifyRice(context.Background(), validInput)
	require.NoError(t, err)
	assert.Equal(t, ClassifyRiceOutput{Classification: "long grain", Confidence: 0.92}, out)

	require.Len(t, model.calls, 1)
	call := model.calls[0]
	assert.Equal(t, "classifyRice", call.Flow)
	assert.Equal(t, "image/jpeg", call.Image.MimeType)
	assert.Equal(t, []byte("rice"), call.Image.Data)
	assert.Same(t, ClassifyRiceSchema, call.Schema)
}

func TestClassifyRice_NoCaching(t *testing.T) {
	model := &stubModel{response: `{"classification":"broken","confidence":0.5}`}
	svc := NewService(model)

	for i := 0; i < 3; i++ {
		_, err := svc.ClassifyRice(context.Background(), validInput)
		require.NoError(t, err)
	}
	assert.Len(t, model.calls, 3)
}

func TestClassifyRice_RejectsOutOfContractOutput(t *testing.T) {
	cases := []string{
		`{"classification":"basmati","confidence":0.5}`,
		`{"classification":"long grain","confidence":1.5}`,
		`{"classification":"long grain","confidence":-0.1}`,
		`{"classification":"broken"}`,
		`{"classification":null,"confidence":0.5}`,
		`{}`,
		`not json`,
	}
	for _, resp := range cases {
		svc := NewService(&stubModel{response: resp})
		_, err := svc.ClassifyRice(context.Background(), validInput)
		assert.ErrorIs(t, err, ErrInvalidOutput, resp)
	}
}

func TestInvalidInputSkipsModel(t *testing.T) {
	model := &stubModel{response: `{"healthScore":50}`}
	svc := NewService(model)

	for _, uri := range []string{"", "http://example.com/rice.jpg", "data:image/png;base64,"} {
		_, err := svc.AssessPlantHealth(context.Background(), ImageInput{PhotoDataURI: uri})
		assert.ErrorIs(t, err, ErrInvalidInput, uri)
	}

	textURI := "data:text/plain;base64," + base64.StdEncoding.EncodeToString([]byte("hello"))
	_, err := svc.AssessPlantHealth(context.Background(), ImageInput{PhotoDataURI: textURI})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.ErrorIs(t, err, imagecapture.ErrNotImage)

	assert.Empty(t, model.calls)
}

func TestInferenceFailure(t *testing.T) {
	boom := errors.New("upstream 503")
	svc := NewService(&stubModel{err: boom})

	_, err := svc.DetectPlantDisease(context.Background(), validInput)
	assert.ErrorIs(t, err, ErrInference)
	assert.ErrorIs(t, err, boom)
}

func TestDetectPlantDisease(t *testing.T) {
	model := &stubModel{response: "```json\n" + `{"diseaseDiagnosis":{"diseaseDetected":true,"possibleDiseases":["Brown Spot","Sheath Rot"],"confidenceLevels":[0.8,0.3],"recommendations":"Apply fungicide."}}` + "\n```"}
	svc := NewService(model)

	out, err := svc.DetectPlantDisease(context.Background(), validInput)
	require.NoError(t, err)
	d := out.DiseaseDiagnosis
	assert.True(t, d.DiseaseDetected)
	assert.Equal(t, []string{"Brown Spot", "Sheath Rot"}, d.PossibleDiseases)
	assert.Equal(t, []float64{0.8, 0.3}, d.ConfidenceLevels)
	assert.Equal(t, "Apply fungicide.", d.Recommendations)
}

func TestDetectPlantDisease_ContractViolations(t *testing.T) {
	cases := []string{
		`{"diseaseDiagnosis":{"diseaseDetected":true,"possibleDiseases":["Brown Spot"],"confidenceLevels":[],"recommendations":""}}`,
		`{"diseaseDiagnosis":{"diseaseDetected":true,"possibleDiseases":["Brown Spot"],"confidenceLevels":[1.2],"recommendations":""}}`,
		`{"diseaseDiagnosis":{"diseaseDetected":true,"possibleDiseases":["Brown Spot"],"confidenceLevels":[null],"recommendations":""}}`,
		`{"diseaseDiagnosis":{"diseaseDetected":true,"possibleDiseases":["Brown Spot"],"confidenceLevels":[0.4]}}`,
		`{"diseaseDiagnosis":{}}`,
		`{"diseaseDiagnosis":null}`,
		`{}`,
	}
	for _, resp := range cases {
		svc := NewService(&stubModel{response: resp})
		_, err := svc.DetectPlantDisease(context.Background(), validInput)
		assert.ErrorIs(t, err, ErrInvalidOutput, resp)
	}
}

func TestDetectPlantDisease_HealthyPlant(t *testing.T) {
	svc := NewService(&stubModel{response: `{"diseaseDiagnosis":{"diseaseDetected":false,"possibleDiseases":[],"confidenceLevels":[],"recommendations":"Keep monitoring."}}`})

	out, err := svc.DetectPlantDisease(context.Background(), validInput)
	require.NoError(t, err)
	assert.False(t, out.DiseaseDiagnosis.DiseaseDetected)
	assert.Empty(t, out.DiseaseDiagnosis.PossibleDiseases)
}

func TestAssessPlantHealth(t *testing.T) {
	svc := NewService(&stubModel{response: `{"healthScore":73.5}`})

	out, err := svc.AssessPlantHealth(context.Background(), validInput)
	require.NoError(t, err)
	assert.Equal(t, 73.5, out.HealthScore)

	for _, resp := range []string{`{"healthScore":140}`, `{}`, `{"healthScore":null}`, `null`, ``} {
		svc = NewService(&stubModel{response: resp})
		_, err = svc.AssessPlantHealth(context.Background(), validInput)
		assert.ErrorIs(t, err, ErrInvalidOutput, resp)
	}
}

func TestAssessPlantHealth_ZeroScoreIsValid(t *testing.T) {
	svc := NewService(&stubModel{response: `{"healthScore":0}`})

	out, err := svc.AssessPlantHealth(context.Background(), validInput)
	require.NoError(t, err)
	assert.Zero(t, out.HealthScore)
}

func TestSchemaToGenAI(t *testing.T) {
	s := DetectPlantDiseaseSchema.toGenAI()
	require.NotNil(t, s)
	assert.Equal(t, "OBJECT", string(s.Type))

	diag := s.Properties["diseaseDiagnosis"]
	require.NotNil(t, diag)
	levels := diag.Properties["confidenceLevels"]
	require.NotNil(t, levels)
	require.NotNil(t, levels.Items)
	assert.Equal(t, "NUMBER", string(levels.Items.Type))
	require.NotNil(t, levels.Items.Maximum)
	assert.Equal(t, 1.0, *levels.Items.Maximum)

	c := ClassifyRiceSchema.toGenAI()
	assert.Equal(t, ClassificationLabels, c.Properties["classification"].Enum)
}

func TestUnconfiguredModel(t *testing.T) {
	svc := NewService(Unconfigured{})

	_, err := svc.AssessPlantHealth(context.Background(), validInput)
	require.ErrorIs(t, err, ErrInference)
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = NewGenAIModel(context.Background(), "", "", 0)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestCheckRequiredNamesMissingField(t *testing.T) {
	err := DetectPlantDiseaseSchema.checkRequired([]byte(`{"diseaseDiagnosis":{"diseaseDetected":true,"possibleDiseases":[],"confidenceLevels":[]}}`), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "diseaseDiagnosis.recommendations")

	err = DetectPlantDiseaseSchema.checkRequired([]byte(`{"diseaseDiagnosis":{"diseaseDetected":true,"possibleDiseases":["Brown Spot"],"confidenceLevels":[null],"recommendations":""}}`), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "diseaseDiagnosis.confidenceLevels[0]")

	assert.NoError(t, AssessPlantHealthSchema.checkRequired([]byte(`{"healthScore":0}`), ""))
}
