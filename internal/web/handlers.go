package web

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "perfume-studio/internal/common/errors"
	"perfume-studio/internal/models"
	"perfume-studio/internal/services/pipeline"
	"perfume-studio/internal/session"
)

func (s *Server) loadSession(c *gin.Context) (*models.GenerationSession, bool) {
	id, _ := c.Cookie(s.opts.CookieName)
	sess, err := session.LoadOrCreate(c.Request.Context(), s.sessions, id)
	if err != nil {
		s.logger.Error("session load failed", map[string]interface{}{"error": err.Error()})
		c.String(http.StatusServiceUnavailable, apperrors.Normalize(err).UserMessage())
		return nil, false
	}
	if sess.ID != id {
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(s.opts.CookieName, sess.ID, int(s.opts.SessionTTL.Seconds()), "/", "", s.opts.SecureCookie, true)
	}
	return sess, true
}

func (s *Server) saveSession(c *gin.Context, sess *models.GenerationSession) bool {
	if err := s.sessions.Save(c.Request.Context(), sess); err != nil {
		s.logger.Error("session save failed", map[string]interface{}{
			"sessionId": sess.ID,
			"error":     err.Error(),
		})
		c.String(http.StatusServiceUnavailable, apperrors.Normalize(err).UserMessage())
		return false
	}
	return true
}

func (s *Server) index(c *gin.Context) {
	sess, ok := s.loadSession(c)
	if !ok {
		return
	}
	c.HTML(http.StatusOK, "index.html", newPageView(sess, s.opts))
}

func (s *Server) search(c *gin.Context) {
	sess, ok := s.loadSession(c)
	if !ok {
		return
	}

	q := models.SearchQuery{
		Brand:        c.PostForm("brand"),
		Model:        c.PostForm("model"),
		AllowedSites: c.PostFormArray("sites"),
		Debug:        c.PostForm("debug") != "",
	}
	if err := s.pipeline.Search(c.Request.Context(), sess, q); err != nil {
		s.logger.Info("search ended without page", map[string]interface{}{
			"sessionId": sess.ID,
			"state":     sess.State.String(),
		})
	}

	if !s.saveSession(c, sess) {
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) generate(c *gin.Context) {
	sess, ok := s.loadSession(c)
	if !ok {
		return
	}

	length, err := models.ParseLengthWords(c.PostForm("length"))
	if err != nil {
		sess.Validation = err.Error()
		if s.saveSession(c, sess) {
			c.Redirect(http.StatusSeeOther, "/")
		}
		return
	}
	opts := models.WritingOptions{
		Vibe:        c.PostForm("vibe"),
		Audience:    c.PostForm("audience"),
		SEOKeywords: c.PostForm("keywords"),
		LengthWords: length,
		Model:       c.PostForm("model"),
	}
	if err := s.pipeline.Generate(c.Request.Context(), sess, opts); err != nil {
		s.logger.Info("generation ended without output", map[string]interface{}{
			"sessionId": sess.ID,
			"state":     sess.State.String(),
		})
	}

	if !s.saveSession(c, sess) {
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) download(c *gin.Context) {
	sess, ok := s.loadSession(c)
	if !ok {
		return
	}
	if sess.FinalText == "" || sess.Query == nil {
		c.String(http.StatusNotFound, "אין תוצר להורדה.")
		return
	}

	name := pipeline.DownloadFilename(sess.Query.Brand, sess.Query.Model)
	c.Header("Content-Disposition", contentDisposition(name))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(sess.FinalText))
}

func (s *Server) sessionJSON(c *gin.Context) {
	sess, ok := s.loadSession(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session":     sess,
		"canGenerate": sess.CanGenerate(),
	})
}

func (s *Server) listHistory(c *gin.Context) {
	if s.history == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "history is disabled"})
		return
	}
	records, err := s.history.History(c.Request.Context(), strings.TrimSpace(c.Query("q")))
	if err != nil {
		s.logger.Error("history query failed", map[string]interface{}{"error": err.Error()})
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records, "count": len(records)})
}

type startPipelineRequest struct {
	Brand   string                `json:"brand" binding:"required"`
	Model   string                `json:"model" binding:"required"`
	Sites   []string              `json:"sites"`
	Debug   bool                  `json:"debug"`
	Options models.WritingOptions `json:"options"`
}

func (s *Server) startPipeline(c *gin.Context) {
	if s.starter == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "workflow mode is disabled"})
		return
	}

	var req startPipelineRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Brand) == "" || strings.TrimSpace(req.Model) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": pipeline.MissingInputMessage})
		return
	}
	sites := models.NormalizeSites(req.Sites)
	if len(sites) == 0 {
		sites = models.DefaultSites
	}
	opts := req.Options.WithDefaults(s.opts.DefaultModel)
	if err := opts.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	key, err := s.starter.StartPipeline(c.Request.Context(), map[string]interface{}{
		"brand":   strings.TrimSpace(req.Brand),
		"model":   strings.TrimSpace(req.Model),
		"sites":   sites,
		"debug":   req.Debug,
		"options": opts,
	})
	if err != nil {
		s.logger.Error("start pipeline failed", map[string]interface{}{"error": err.Error()})
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"processInstanceKey": key})
}

func contentDisposition(name string) string {
	ascii := strings.Map(func(r rune) rune {
		if r > 127 || r == '"' {
			return '_'
		}
		return r
	}, name)
	return `attachment; filename="` + ascii + `"; filename*=UTF-8''` + pathEscape(name)
}
