package web

import (
	"net/url"
	"strings"

	"perfume-studio/internal/models"
)

type choice struct {
	Value    string
	Selected bool
}

type pageView struct {
	Session     *models.GenerationSession
	CanGenerate bool
	Sites       []choice
	Vibes       []choice
	Audiences   []choice
	Models      []choice
	Options     models.WritingOptions
	Brand       string
	Model       string
	Debug       bool
	MinLength   int
	MaxLength   int
	StageLabel  string
}

var stageLabels = map[models.PipelineState]string{
	models.StateSearching:  "חיפוש",
	models.StateScraping:   "גירוד העמוד",
	models.StateExtracting: "שלב א': חילוץ תווים",
	models.StateDrafting:   "שלב ב': כתיבה יצירתית",
	models.StateOptimizing: "שלב ג': אופטימיזציית SEO",
}

func newPageView(s *models.GenerationSession, opts Options) pageView {
	v := pageView{
		Session:     s,
		CanGenerate: s.CanGenerate(),
		MinLength:   models.MinLengthWords,
		MaxLength:   models.MaxLengthWords,
	}

	selectedSites := models.DefaultSites
	if s.Query != nil {
		v.Brand = s.Query.Brand
		v.Model = s.Query.Model
		v.Debug = s.Query.Debug
		if len(s.Query.AllowedSites) > 0 {
			selectedSites = s.Query.AllowedSites
		}
	}
	v.Sites = choices(models.SiteOptions, selectedSites...)

	writing := models.WritingOptions{}
	if s.Options != nil {
		writing = *s.Options
	}
	v.Options = writing.WithDefaults(opts.DefaultModel)
	v.Vibes = choices(models.Vibes, v.Options.Vibe)
	v.Audiences = choices(models.Audiences, v.Options.Audience)
	v.Models = choices(opts.Models, v.Options.Model)

	if s.Failure != nil {
		v.StageLabel = stageLabels[s.Failure.Stage]
	}
	return v
}

func choices(values []string, selected ...string) []choice {
	out := make([]choice, len(values))
	for i, val := range values {
		out[i] = choice{Value: val}
		for _, sel := range selected {
			if sel == val {
				out[i].Selected = true
				break
			}
		}
	}
	return out
}

func pathEscape(s string) string {
	return strings.ReplaceAll(url.PathEscape(s), "+", "%2B")
}
