package pipeline

import (
	"fmt"
	"strings"

	"perfume-studio/internal/models"
)

const extractionTemplate = `
You are a data extraction bot. Your task is to parse the following raw text from a perfume website.
Extract ONLY the following information in a clean JSON format.
If you can't find information, return null for that field. Do not add any commentary.
Respond *only* with valid JSON.

JSON Structure:
{
  "perfume_name": "...",
  "brand_name": "...",
  "top_notes": ["...", "..."],
  "heart_notes": ["...", "..."],
  "base_notes": ["...", "..."],
  "perfumer": "...",
  "year": "...",
  "concentration": "..."
}

RAW TEXT:
%s
`

const draftTemplate = `
אתה קופירייטר מומחה לבשמי נישה עבור בוטיק יוקרתי.
הטון שלך מתוחכם, מעורר חושים ומסתורי.

משימה: כתוב תיאור מוצר שיווקי ומרגש באורך %s מילה.
אל תציין רק את התווים, אלא תשזור אותם בתוך סיפור או חוויה חושית.

נתונים:
- שם: %s
- מותג: %s
%s
- קהל יעד: %s
- אווירה רצויה: %s

כתוב בעברית. התחל עם כותרת מרתקת (לא כותרת H1, רק משפט פותח).
התמקד בחוויה ובתחושות, לא בפירוט טכני יבש.
`

const seoTemplate = `
אתה מומחה SEO לאתרי איקומרס בתחום הבישום.

משימה:
1. נתח את תיאור המוצר הבא מבחינת SEO
2. ספק 3-5 נקודות לשיפור (צפיפות מילות מפתח, קריאות, ייחודיות)
3. כתוב את הגרסה הסופית המשופרת בעברית

מילות מפתח חובה לשילוב: %s.

טיוטה לניתוח:
%s

החזר בפורמט:

## ניתוח SEO
[רשימת נקודות]

## גרסה סופית משופרת
[הטקסט המוכן]
`

func ExtractionPrompt(pageText string) string {
	return fmt.Sprintf(extractionTemplate, pageText)
}

// DraftPrompt falls back to the user's brand and model when extraction found none.
func DraftPrompt(q models.SearchQuery, attrs *models.ExtractedAttributes, opts models.WritingOptions) string {
	if attrs == nil {
		attrs = &models.ExtractedAttributes{}
	}
	return fmt.Sprintf(draftTemplate,
		opts.LengthRange(),
		attrs.NameOr(q.Model),
		attrs.BrandOr(q.Brand),
		notesBlock(attrs),
		opts.Audience,
		opts.Vibe,
	)
}

func SEOPrompt(q models.SearchQuery, draft string, opts models.WritingOptions) string {
	keywords := []string{
		quote(q.Model),
		quote(q.Brand),
		quote("בושם יוקרה"),
		quote("בושם נישה"),
	}
	if extra := strings.TrimSpace(opts.SEOKeywords); extra != "" {
		keywords = append(keywords, extra)
	}
	return fmt.Sprintf(seoTemplate, strings.Join(keywords, ", "), draft)
}

func notesBlock(attrs *models.ExtractedAttributes) string {
	var lines []string
	if len(attrs.TopNotes) > 0 {
		lines = append(lines, "תווים עליונים: "+strings.Join(attrs.TopNotes, ", "))
	}
	if len(attrs.HeartNotes) > 0 {
		lines = append(lines, "תווים אמצעיים: "+strings.Join(attrs.HeartNotes, ", "))
	}
	if len(attrs.BaseNotes) > 0 {
		lines = append(lines, "תווים בסיסיים: "+strings.Join(attrs.BaseNotes, ", "))
	}
	return strings.Join(lines, "\n")
}

func quote(s string) string {
	return "'" + s + "'"
}
