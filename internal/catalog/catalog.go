/*
Package catalog holds the static suggestion tables shown next to analysis
results: cuisine ideas keyed by grain classification and medicine info keyed
by disease name.
*/
package catalog

import "strings"

// DefaultKey names the fallback bucket of both tables.
const DefaultKey = "default"

// CuisineIdea is a dish suggestion for a rice classification.
type CuisineIdea struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// MedicineInfo describes a treatment product for a rice disease.
type MedicineInfo struct {
	Name        string `json:"name"`
	Type        string `json:"type"` // e.g. Fungicide, Bactericide
	Usage       string `json:"usage"`
	Precautions string `json:"precautions"`
}

var cuisineIdeas = map[string][]CuisineIdea{
	"long grain": {
		{Name: "Pilaf", Description: "Aromatic rice dish cooked in broth, often with spices, vegetables, or meat."},
		{Name: "Fried Rice", Description: "Stir-fried rice with eggs, vegetables, seafood, or meat. A versatile classic."},
		{Name: "Jollof Rice", Description: "A popular West African dish made with long-grain rice, tomatoes, onions, spices, vegetables and meat."},
	},
	"short grain": {
		{Name: "Sushi", Description: "Japanese dish of specially prepared vinegared rice, usually with some other ingredients, such as seafood, vegetables and occasionally tropical fruits."},
		{Name: "Risotto", Description: "Creamy Italian rice dish cooked with broth until it reaches a creamy consistency."},
		{Name: "Paella", Description: "A Spanish rice dish originally from Valencia. Often made with short or medium grain rice."},
	},
	"broken": {
		{Name: "Congee/Rice Porridge", Description: "A type of rice porridge or gruel popular in many Asian countries. Savory or sweet."},
		{Name: "Rice Pudding", Description: "Sweet dessert made by simmering rice with milk or cream and sweeteners like sugar."},
		{Name: "Idli/Dosa Batter", Description: "Broken rice is often used in South Indian cuisine to make batters for fermented foods like idli and dosa."},
	},
	DefaultKey: {
		{Name: "Steamed Rice", Description: "Simple and versatile, pairs with many dishes across various cuisines."},
	},
}

// medicineEntry keeps the medicine table in declaration order; lookup takes
// the first key contained in the disease name, so order is significant.
type medicineEntry struct {
	key   string
	infos []MedicineInfo
}

var medicineTable = []medicineEntry{
	{
		key: "Bacterial Blight",
		infos: []MedicineInfo{
			{Name: "Agri-Mycin 17 (Streptomycin Sulfate)", Type: "Bactericide", Usage: "Apply as a foliar spray at the first sign of disease. Repeat at 7-10 day intervals if conditions favor disease development.", Precautions: "Follow label instructions. Avoid spraying during bee activity. Protective gear recommended."},
			{Name: "Kocide 3000 (Copper Hydroxide)", Type: "Bactericide/Fungicide", Usage: "Provides protective barrier against bacterial infection. Apply before disease onset or at very early stages.", Precautions: "Can be phytotoxic if overused or applied in hot, dry conditions. Check for copper sensitivity."},
		},
	},
	{
		key: "Sheath Rot",
		infos: []MedicineInfo{
			{Name: "Tilt (Propiconazole)", Type: "Fungicide", Usage: "Systemic fungicide. Apply at late booting to early heading stage for best results.", Precautions: "Rotate with fungicides of different modes of action to prevent resistance. Adhere to pre-harvest intervals."},
			{Name: "Score (Difenoconazole)", Type: "Fungicide", Usage: "Broad-spectrum fungicide effective against sheath rot complex. Apply preventatively or at early signs.", Precautions: "Ensure thorough coverage. Follow re-entry intervals specified on the label."},
		},
	},
	{
		key: "Brown Spot",
		infos: []MedicineInfo{
			{Name: "Beam (Tricyclazole)", Type: "Fungicide", Usage: "Systemic fungicide, particularly effective against rice blast but can help manage brown spot.", Precautions: "Primarily for blast; consult local recommendations for brown spot efficacy."},
			{Name: "Nativo (Tebuconazole + Trifloxystrobin)", Type: "Fungicide", Usage: "Combination fungicide offering broad-spectrum control. Apply at tillering and booting stages.", Precautions: "Good for integrated disease management. Observe resistance management guidelines."},
		},
	},
	{
		key: DefaultKey,
		infos: []MedicineInfo{
			{Name: "Neem Oil Extract", Type: "Organic Biopesticide", Usage: "Broad-spectrum, can help deter pests and manage some fungal issues. Apply as a foliar spray.", Precautions: "Test on a small area first. Avoid spraying in direct sunlight or high temperatures."},
			{Name: "Trichoderma spp.", Type: "Biofungicide", Usage: "Soil or seed treatment to promote plant health and suppress soil-borne pathogens.", Precautions: "Store properly to maintain viability. Compatible with many organic practices."},
		},
	},
}

// GetCuisineIdeas returns the dishes for a classification label. The label is
// matched exactly after lowercasing; an empty or unknown label yields the
// default bucket, so the result is never empty.
func GetCuisineIdeas(classification string) []CuisineIdea {
	ideas, ok := cuisineIdeas[strings.ToLower(classification)]
	if classification == "" || !ok {
		ideas = cuisineIdeas[DefaultKey]
	}
	return append([]CuisineIdea(nil), ideas...)
}

// GetMedicineInfo collects treatment info for the given disease names.
//
// For each name only the first table key (in declaration order) that occurs
// in it, case-insensitively, is used. Records are de-duplicated by name with
// the first occurrence kept. If nothing matched the default bucket is returned.
func GetMedicineInfo(diseases []string) []MedicineInfo {
	var result []MedicineInfo
	seen := make(map[string]struct{})

	for _, disease := range diseases {
		entry, ok := findMedicineEntry(disease)
		if !ok {
			continue
		}
		for _, info := range entry.infos {
			if _, dup := seen[info.Name]; dup {
				continue
			}
			seen[info.Name] = struct{}{}
			result = append(result, info)
		}
	}

	if len(result) == 0 {
		return DefaultMedicineInfo()
	}
	return result
}

// DefaultMedicineInfo returns a copy of the fallback medicine bucket.
func DefaultMedicineInfo() []MedicineInfo {
	for _, entry := range medicineTable {
		if entry.key == DefaultKey {
			return append([]MedicineInfo(nil), entry.infos...)
		}
	}
	return nil
}

func findMedicineEntry(disease string) (medicineEntry, bool) {
	lower := strings.ToLower(disease)
	for _, entry := range medicineTable {
		if strings.Contains(lower, strings.ToLower(entry.key)) {
			return entry, true
		}
	}
	return medicineEntry{}, false
}

// CuisineLabels lists the labels that have their own cuisine bucket.
func CuisineLabels() []string {
	return []string{"long grain", "short grain", "broken"}
}
