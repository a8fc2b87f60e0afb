package pipeline

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"

	apperrors "perfume-studio/internal/common/errors"
	"perfume-studio/internal/common/validation"
	"perfume-studio/internal/models"
	"perfume-studio/pkg/registry"
)

var finalMarkers = []string{"גרסה סופית", "הטקסט המוכן"}

var (
	schemaOnce sync.Once
	schema     *validation.Schema
	schemaErr  error
)

func attributesSchema() (*validation.Schema, error) {
	schemaOnce.Do(func() {
		activity, ok := registry.Default().Find(registry.TaskExtractAttributes)
		if !ok {
			schemaErr = fmt.Errorf("registry has no %s activity", registry.TaskExtractAttributes)
			return
		}
		prop, ok := activity.OutputProperty("attributes")
		if !ok {
			schemaErr = fmt.Errorf("%s declares no attributes output", registry.TaskExtractAttributes)
			return
		}
		schema, schemaErr = validation.Compile(prop)
	})
	return schema, schemaErr
}

// StripCodeFences removes markdown code fences around a JSON payload.
// Applying it twice gives the same result as applying it once.
func StripCodeFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```JSON", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

type rawAttributes struct {
	PerfumeName   *string     `json:"perfume_name"`
	BrandName     *string     `json:"brand_name"`
	TopNotes      []string    `json:"top_notes"`
	HeartNotes    []string    `json:"heart_notes"`
	BaseNotes     []string    `json:"base_notes"`
	Perfumer      *string     `json:"perfumer"`
	Year          interface{} `json:"year"`
	Concentration *string     `json:"concentration"`
}

// ParseAttributes decodes a structured-output response. Anything that is not
// a JSON object of the expected shape is ATTRIBUTES_PARSE_FAILED.
func ParseAttributes(raw string) (*models.ExtractedAttributes, error) {
	payload := []byte(StripCodeFences(raw))
	if !json.Valid(payload) {
		return nil, apperrors.NewAttributesParseFailedError(fmt.Errorf("response is not valid JSON"))
	}

	s, err := attributesSchema()
	if err != nil {
		return nil, apperrors.NewAttributesParseFailedError(err)
	}
	result, err := s.ValidateJSON(payload)
	if err != nil {
		return nil, apperrors.NewAttributesParseFailedError(err)
	}
	if !result.Valid {
		return nil, apperrors.NewAttributesParseFailedError(fmt.Errorf("unexpected shape: %s", result.Summary()))
	}

	var decoded rawAttributes
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, apperrors.NewAttributesParseFailedError(err)
	}

	attrs := &models.ExtractedAttributes{
		PerfumeName:   decoded.PerfumeName,
		BrandName:     decoded.BrandName,
		TopNotes:      decoded.TopNotes,
		HeartNotes:    decoded.HeartNotes,
		BaseNotes:     decoded.BaseNotes,
		Perfumer:      decoded.Perfumer,
		Concentration: decoded.Concentration,
	}
	switch y := decoded.Year.(type) {
	case string:
		attrs.Year = &y
	case float64:
		s := strconv.FormatFloat(y, 'f', -1, 64)
		attrs.Year = &s
	}
	return attrs, nil
}

// IsolateFinalVersion returns the body of the first "##" section whose header
// names the final version. An empty string means no such section was found.
func IsolateFinalVersion(output string) string {
	for _, part := range strings.Split(output, "##") {
		if !containsMarker(part) {
			continue
		}
		lines := strings.Split(part, "\n")
		if text := strings.TrimSpace(strings.Join(lines[1:], "\n")); text != "" {
			return text
		}
	}
	return ""
}

func containsMarker(s string) bool {
	for _, m := range finalMarkers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

// DownloadFilename names the exported text file after the user's input.
func DownloadFilename(brand, model string) string {
	clean := func(s string) string {
		s = strings.TrimSpace(s)
		return strings.Map(func(r rune) rune {
			switch r {
			case '/', '\\', ':', '*', '?', '"', '<', '>', '|', '\n', '\r':
				return '_'
			}
			return r
		}, s)
	}
	return fmt.Sprintf("%s_%s_description.txt", clean(brand), clean(model))
}
