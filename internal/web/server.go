// internal/web/server.go
package web

import (
	"context"
	"embed"
	"encoding/json"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"perfume-studio/internal/models"
	"perfume-studio/internal/services/archive"
	"perfume-studio/internal/session"
)

const (
	readTimeout  = 15 * time.Second
	writeTimeout = 5 * time.Minute
	idleTimeout  = 120 * time.Second
)

//go:embed templates/*.html
var templatesFS embed.FS

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

type Pipeline interface {
	Search(ctx context.Context, s *models.GenerationSession, q models.SearchQuery) error
	Generate(ctx context.Context, s *models.GenerationSession, opts models.WritingOptions) error
}

type History interface {
	History(ctx context.Context, text string) ([]archive.Record, error)
}

// ProcessStarter launches the workflow version of the pipeline.
type ProcessStarter interface {
	StartPipeline(ctx context.Context, variables map[string]interface{}) (int64, error)
}

type Options struct {
	CookieName   string
	SecureCookie bool
	SessionTTL   time.Duration
	DefaultModel string
	Models       []string
}

type Server struct {
	pipeline Pipeline
	sessions session.Store
	history  History
	starter  ProcessStarter
	ready    func(ctx context.Context) error
	opts     Options
	logger   Logger
}

func NewServer(p Pipeline, sessions session.Store, opts Options, log Logger) *Server {
	if opts.CookieName == "" {
		opts.CookieName = "perfume_session"
	}
	return &Server{
		pipeline: p,
		sessions: sessions,
		opts:     opts,
		logger:   log.With(map[string]interface{}{"component": "web"}),
	}
}

func (s *Server) WithHistory(h History) *Server {
	s.history = h
	return s
}

func (s *Server) WithProcessStarter(p ProcessStarter) *Server {
	s.starter = p
	return s
}

// WithReadiness sets the check behind /ready.
func (s *Server) WithReadiness(fn func(ctx context.Context) error) *Server {
	s.ready = fn
	return s
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(s.loggingMiddleware())
	router.SetHTMLTemplate(template.Must(
		template.New("").Funcs(templateFuncs).ParseFS(templatesFS, "templates/*.html"),
	))

	router.GET("/", s.index)
	router.POST("/search", s.search)
	router.POST("/generate", s.generate)
	router.GET("/download", s.download)
	router.GET("/api/session", s.sessionJSON)
	router.GET("/history", s.listHistory)
	router.POST("/pipelines", s.startPipeline)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	router.GET("/ready", s.readiness)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}

// HTTPServer wraps the router with the listener timeouts.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if c.Request.URL.Path == "/health" || c.Request.URL.Path == "/metrics" {
			return
		}
		s.logger.Info("request handled", map[string]interface{}{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		})
	}
}

func (s *Server) readiness(c *gin.Context) {
	if s.ready != nil {
		if err := s.ready(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

var templateFuncs = template.FuncMap{
	"join": strings.Join,
	"pretty": func(v interface{}) string {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return ""
		}
		return string(data)
	},
}
