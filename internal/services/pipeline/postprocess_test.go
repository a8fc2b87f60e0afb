package pipeline

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "perfume-studio/internal/common/errors"
	"perfume-studio/internal/models"
)

const naxosJSON = `{"perfume_name":"Naxos","brand_name":"Xerjoff","top_notes":["bergamot","lavender"],"heart_notes":["honey"],"base_notes":["tobacco","vanilla"],"perfumer":null,"year":2015,"concentration":"Eau de Parfum"}`

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"plain", naxosJSON},
		{"json fence", "```json\n" + naxosJSON + "\n```"},
		{"bare fence", "```\n" + naxosJSON + "\n```"},
		{"padded", "  \n```json " + naxosJSON + "```  "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			once := StripCodeFences(tt.input)
			assert.Equal(t, naxosJSON, once)
			assert.Equal(t, once, StripCodeFences(once))
		})
	}
}

func TestParseAttributes_FencedEqualsPlain(t *testing.T) {
	plain, err := ParseAttributes(naxosJSON)
	require.NoError(t, err)
	fenced, err := ParseAttributes("```json\n" + naxosJSON + "\n```")
	require.NoError(t, err)

	assert.Equal(t, plain, fenced)
	assert.Equal(t, "Naxos", *plain.PerfumeName)
	assert.Equal(t, []string{"bergamot", "lavender"}, plain.TopNotes)
	assert.Nil(t, plain.Perfumer)
	require.NotNil(t, plain.Year)
	assert.Equal(t, "2015", *plain.Year)
}

func TestParseAttributes_NullsAndMissingFields(t *testing.T) {
	attrs, err := ParseAttributes(`{"perfume_name":null,"top_notes":null,"year":"2019"}`)
	require.NoError(t, err)

	assert.Nil(t, attrs.PerfumeName)
	assert.Nil(t, attrs.BrandName)
	assert.Empty(t, attrs.TopNotes)
	assert.Equal(t, "2019", *attrs.Year)
}

func TestParseAttributes_Rejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", "Sorry, I cannot help with that."},
		{"truncated", `{"perfume_name": "Nax`},
		{"array root", `["Naxos"]`},
		{"notes as string", `{"top_notes":"bergamot, lavender"}`},
		{"name as object", `{"perfume_name":{"en":"Naxos"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attrs, err := ParseAttributes(tt.raw)
			assert.Nil(t, attrs)
			require.Error(t, err)
			assert.True(t, errors.Is(err, &apperrors.StandardError{Code: apperrors.ErrCodeAttributesParseFailed}))
		})
	}
}

func TestIsolateFinalVersion(t *testing.T) {
	tests := []struct {
		name     string
		output   string
		expected string
	}{
		{
			name:     "analysis then final",
			output:   "## ניתוח SEO\n- נקודה\n\n## גרסה סופית משופרת\nנקסוס של Xerjoff.\nשורה שנייה.\n",
			expected: "נקסוס של Xerjoff.\nשורה שנייה.",
		},
		{
			name:     "ready text marker",
			output:   "## הטקסט המוכן\nטקסט",
			expected: "טקסט",
		},
		{
			name:     "empty first match falls through",
			output:   "## גרסה סופית\n\n## גרסה סופית משופרת\nהטקסט",
			expected: "הטקסט",
		},
		{
			name:     "no marker",
			output:   "## ניתוח\nרק ניתוח",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsolateFinalVersion(tt.output))
		})
	}
}

func TestDownloadFilename(t *testing.T) {
	assert.Equal(t, "Xerjoff_Naxos_description.txt", DownloadFilename("Xerjoff", "Naxos"))
	assert.Equal(t, "Maison_Francis_Baccarat Rouge 540_description.txt", DownloadFilename(" Maison/Francis", "Baccarat Rouge 540"))
}

// ==========================
// Prompt Tests
// ==========================

func TestDraftPrompt(t *testing.T) {
	q := models.SearchQuery{Brand: "Xerjoff", Model: "Naxos"}
	opts := models.WritingOptions{}.WithDefaults("gemini-1.5-flash")

	t.Run("falls back to user input", func(t *testing.T) {
		p := DraftPrompt(q, &models.ExtractedAttributes{TopNotes: []string{"bergamot", "lemon"}}, opts)
		assert.Contains(t, p, "- שם: Naxos")
		assert.Contains(t, p, "- מותג: Xerjoff")
		assert.Contains(t, p, "תווים עליונים: bergamot, lemon")
		assert.NotContains(t, p, "תווים בסיסיים")
		assert.Contains(t, p, "באורך 150-200 מילה")
		assert.Contains(t, p, "- אווירה רצויה: ערב ומסתורי")
		assert.Contains(t, p, "- קהל יעד: יוניסקס")
	})

	t.Run("prefers extracted names", func(t *testing.T) {
		name, brand := "Naxos Eau de Parfum", "XERJOFF"
		p := DraftPrompt(q, &models.ExtractedAttributes{PerfumeName: &name, BrandName: &brand}, opts)
		assert.Contains(t, p, "- שם: Naxos Eau de Parfum")
		assert.Contains(t, p, "- מותג: XERJOFF")
	})
}

func TestSEOPrompt(t *testing.T) {
	q := models.SearchQuery{Brand: "Xerjoff", Model: "Naxos"}

	p := SEOPrompt(q, "טיוטה", models.WritingOptions{SEOKeywords: "בושם טבק"})
	assert.Contains(t, p, "'Naxos', 'Xerjoff', 'בושם יוקרה', 'בושם נישה', בושם טבק.")
	assert.Contains(t, p, "## גרסה סופית משופרת")
	assert.True(t, strings.Contains(p, "טיוטה לניתוח:\nטיוטה"))

	p = SEOPrompt(q, "טיוטה", models.WritingOptions{})
	assert.Contains(t, p, "'בושם נישה'.")
}

func TestExtractionPrompt(t *testing.T) {
	p := ExtractionPrompt("RAW PAGE")
	assert.Contains(t, p, "Respond *only* with valid JSON.")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(p), "RAW TEXT:\nRAW PAGE"))
	for _, key := range []string{"perfume_name", "brand_name", "top_notes", "heart_notes", "base_notes", "perfumer", "year", "concentration"} {
		assert.Contains(t, p, `"`+key+`"`)
	}
}
