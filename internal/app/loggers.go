package app

import (
	"perfume-studio/internal/common/logger"
	"perfume-studio/internal/services/archive"
	"perfume-studio/internal/services/pipeline"
	"perfume-studio/internal/services/scraper"
	"perfume-studio/internal/services/search"
	"perfume-studio/internal/services/textgen"
	"perfume-studio/internal/web"
)

// Each package declares its own Logger so it does not import the shared one.
// These adapters narrow logger.Logger to those interfaces.

type searchLogger struct{ logger.Logger }

func (l searchLogger) With(fields map[string]interface{}) search.Logger {
	return searchLogger{l.Logger.With(fields)}
}

type scraperLogger struct{ logger.Logger }

func (l scraperLogger) With(fields map[string]interface{}) scraper.Logger {
	return scraperLogger{l.Logger.With(fields)}
}

type textgenLogger struct{ logger.Logger }

func (l textgenLogger) With(fields map[string]interface{}) textgen.Logger {
	return textgenLogger{l.Logger.With(fields)}
}

type pipelineLogger struct{ logger.Logger }

func (l pipelineLogger) With(fields map[string]interface{}) pipeline.Logger {
	return pipelineLogger{l.Logger.With(fields)}
}

type archiveLogger struct{ logger.Logger }

func (l archiveLogger) With(fields map[string]interface{}) archive.Logger {
	return archiveLogger{l.Logger.With(fields)}
}

type webLogger struct{ logger.Logger }

func (l webLogger) With(fields map[string]interface{}) web.Logger {
	return webLogger{l.Logger.With(fields)}
}

// WebLogger adapts log for the web server.
func WebLogger(log logger.Logger) web.Logger {
	return webLogger{log}
}
