package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names[T any](items []T, name func(T) string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, name(it))
	}
	return out
}

func cuisineName(c CuisineIdea) string   { return c.Name }
func medicineName(m MedicineInfo) string { return m.Name }

func TestGetCuisineIdeas_KnownLabels(t *testing.T) {
	for _, label := range CuisineLabels() {
		got := GetCuisineIdeas(label)
		assert.Equal(t, cuisineIdeas[label], got, label)
		assert.Len(t, got, 3, label)
	}
}

func TestGetCuisineIdeas_CaseInsensitive(t *testing.T) {
	assert.Equal(t, GetCuisineIdeas("long grain"), GetCuisineIdeas("Long Grain"))
	assert.Equal(t, []string{"Pilaf", "Fried Rice", "Jollof Rice"}, names(GetCuisineIdeas("LONG GRAIN"), cuisineName))
}

func TestGetCuisineIdeas_Fallback(t *testing.T) {
	for _, label := range []string{"", "basmati", "long", " long grain"} {
		got := GetCuisineIdeas(label)
		require.Len(t, got, 1, "label %q", label)
		assert.Equal(t, "Steamed Rice", got[0].Name)
	}
}

func TestGetCuisineIdeas_ReturnsCopy(t *testing.T) {
	got := GetCuisineIdeas("broken")
	got[0].Name = "mutated"
	assert.Equal(t, "Congee/Rice Porridge", GetCuisineIdeas("broken")[0].Name)
}

func TestGetMedicineInfo_SubstringMatch(t *testing.T) {
	got := GetMedicineInfo([]string{"Bacterial Blight observed on leaf"})
	assert.Equal(t, []string{
		"Agri-Mycin 17 (Streptomycin Sulfate)",
		"Kocide 3000 (Copper Hydroxide)",
	}, names(got, medicineName))
}

func TestGetMedicineInfo_DeduplicatesFirstSeenWins(t *testing.T) {
	got := GetMedicineInfo([]string{"brown spot", "Sheath rot", "BROWN SPOT (late)", "bacterial blight"})
	assert.Equal(t, []string{
		"Beam (Tricyclazole)",
		"Nativo (Tebuconazole + Trifloxystrobin)",
		"Tilt (Propiconazole)",
		"Score (Difenoconazole)",
		"Agri-Mycin 17 (Streptomycin Sulfate)",
		"Kocide 3000 (Copper Hydroxide)",
	}, names(got, medicineName))

	seen := map[string]bool{}
	for _, m := range got {
		assert.False(t, seen[m.Name], "duplicate %s", m.Name)
		seen[m.Name] = true
	}
}

func TestGetMedicineInfo_FirstKeyOnly(t *testing.T) {
	// Both keys occur; only the first declared one is used.
	got := GetMedicineInfo([]string{"brown spot with bacterial blight"})
	assert.Equal(t, []string{
		"Agri-Mycin 17 (Streptomycin Sulfate)",
		"Kocide 3000 (Copper Hydroxide)",
	}, names(got, medicineName))
}

func TestGetMedicineInfo_Default(t *testing.T) {
	want := []string{"Neem Oil Extract", "Trichoderma spp."}

	assert.Equal(t, want, names(GetMedicineInfo(nil), medicineName))
	assert.Equal(t, want, names(GetMedicineInfo([]string{}), medicineName))
	assert.Equal(t, want, names(GetMedicineInfo([]string{"Rice Blast", "Tungro"}), medicineName))
}

func TestGetMedicineInfo_UnmatchedNamesAreSkipped(t *testing.T) {
	got := GetMedicineInfo([]string{"Tungro", "Sheath Rot"})
	assert.Equal(t, []string{"Tilt (Propiconazole)", "Score (Difenoconazole)"}, names(got, medicineName))
}

func TestHealthStatus(t *testing.T) {
	cases := map[float64]string{
		100: "Excellent",
		80:  "Excellent",
		79:  "Good",
		60:  "Good",
		59:  "Fair",
		40:  "Fair",
		39:  "Poor",
		0:   "Poor",
	}
	for score, want := range cases {
		assert.Equal(t, want, HealthStatus(score).Text, "score %v", score)
	}
}

func TestClassificationNote(t *testing.T) {
	assert.Contains(t, ClassificationNote("broken"), "Broken grains")
	assert.Contains(t, ClassificationNote("long grain"), "'long grain' rice")
}

func TestHealthNoteAndDiseaseCheck(t *testing.T) {
	assert.Contains(t, HealthNote(45), "lower score")
	assert.Contains(t, HealthNote(60), "higher score")

	assert.True(t, SuggestDiseaseCheck(69.5))
	assert.False(t, SuggestDiseaseCheck(70))
}
