package models

// ExtractedAttributes is the structured view of a product page. Every field is optional.
type ExtractedAttributes struct {
	PerfumeName   *string  `json:"perfume_name"`
	BrandName     *string  `json:"brand_name"`
	TopNotes      []string `json:"top_notes"`
	HeartNotes    []string `json:"heart_notes"`
	BaseNotes     []string `json:"base_notes"`
	Perfumer      *string  `json:"perfumer"`
	Year          *string  `json:"year"`
	Concentration *string  `json:"concentration"`
}

// NameOr returns the extracted perfume name, or fallback when it is missing.
func (a *ExtractedAttributes) NameOr(fallback string) string {
	return valueOr(a.PerfumeName, fallback)
}

// BrandOr returns the extracted brand, or fallback when it is missing.
func (a *ExtractedAttributes) BrandOr(fallback string) string {
	return valueOr(a.BrandName, fallback)
}

func valueOr(v *string, fallback string) string {
	if v == nil || *v == "" {
		return fallback
	}
	return *v
}
