package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/xiaole5211314/portfolio/internal/browser"
	"github.com/xiaole5211314/portfolio/internal/content"
	"github.com/xiaole5211314/portfolio/internal/session"
	"github.com/xiaole5211314/portfolio/internal/store"
	"github.com/xiaole5211314/portfolio/internal/view"
)

// ReducedMotionHint is the client hint carrying prefers-reduced-motion.
const ReducedMotionHint = "Sec-CH-Prefers-Reduced-Motion"

// EventRecorder stores navigation analytics. The analytics store implements it.
type EventRecorder interface {
	RecordEvent(ctx context.Context, kind store.EventKind, target string) error
}

type PortfolioHandler struct {
	content  *content.Content
	sessions *session.Manager
	events   EventRecorder
	now      func() time.Time
	logger   *zap.Logger
}

func NewPortfolioHandler(c *content.Content, sessions *session.Manager, events EventRecorder, now func() time.Time, logger *zap.Logger) *PortfolioHandler {
	if now == nil {
		now = time.Now
	}
	return &PortfolioHandler{
		content:  c,
		sessions: sessions,
		events:   events,
		now:      now,
		logger:   logger,
	}
}

func (h *PortfolioHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/", h.Index)

	s := r.Group("/session/:id")
	s.POST("/scroll", h.Scroll)
	s.POST("/motion", h.Motion)
	s.POST("/top", h.BackToTop)
	s.POST("/nav/:section", h.Navigate)
	s.POST("/close", h.Close)
	s.DELETE("", h.Close)
}

// Index handles GET / - mounts a view session and renders the full page.
func (h *PortfolioHandler) Index(c *gin.Context) {
	s := h.sessions.Mount(signalsFromRequest(c.Request))

	c.Header("Accept-CH", ReducedMotionHint)
	c.Header("Vary", ReducedMotionHint)
	c.Header("Cache-Control", "no-store")
	c.HTML(http.StatusOK, view.PageTemplate, view.Build(h.content, s.State(), h.now()))
}

// Scroll handles POST /session/:id/scroll - returns the back-to-top fragment,
// which is empty when the control is not shown.
func (h *PortfolioHandler) Scroll(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	y, err := strconv.ParseFloat(c.PostForm("y"), 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid scroll offset")
		return
	}

	visible := s.ReportScroll(y)
	c.HTML(http.StatusOK, view.BackToTopTemplate, gin.H{"BackToTop": visible})
}

// Motion handles POST /session/:id/motion
func (h *PortfolioHandler) Motion(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	reduce, err := strconv.ParseBool(c.PostForm("reduce"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid reduce value")
		return
	}

	c.JSON(http.StatusOK, gin.H{"reducedMotion": s.ReportMotion(reduce)})
}

// BackToTop handles POST /session/:id/top
func (h *PortfolioHandler) BackToTop(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	reqs := s.ClickBackToTop()
	if len(reqs) > 0 {
		h.record(c.Request.Context(), store.EventBackToTop, "")
	}
	respondRequests(c, reqs)
}

// Navigate handles POST /session/:id/nav/:section
func (h *PortfolioHandler) Navigate(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	section := c.Param("section")
	reqs, err := s.Navigate(section)
	if errors.Is(err, view.ErrUnknownSection) {
		respondError(c, http.StatusNotFound, "section not found")
		return
	}
	if err != nil {
		respondError(c, http.StatusInternalServerError, "navigation failed")
		return
	}

	h.record(c.Request.Context(), store.EventNav, section)
	respondRequests(c, reqs)
}

// Close handles DELETE /session/:id and the page's unload beacon.
func (h *PortfolioHandler) Close(c *gin.Context) {
	if err := h.sessions.Unmount(c.Param("id")); err != nil {
		respondError(c, http.StatusNotFound, "session not found")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *PortfolioHandler) session(c *gin.Context) (*session.Session, bool) {
	s, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusNotFound, "session not found")
		return nil, false
	}
	return s, true
}

func (h *PortfolioHandler) record(ctx context.Context, kind store.EventKind, target string) {
	if h.events == nil {
		return
	}
	if err := h.events.RecordEvent(ctx, kind, target); err != nil {
		h.logger.Warn("record event failed",
			zap.String("kind", string(kind)),
			zap.String("target", target),
			zap.Error(err))
	}
}

// signalsFromRequest reads the initial page signals. The reduced-motion
// client hint is used when present; ?motion=reduce|normal overrides it.
// A missing or malformed signal counts as absent.
func signalsFromRequest(r *http.Request) session.Signals {
	var sig session.Signals

	switch strings.Trim(strings.TrimSpace(r.Header.Get(ReducedMotionHint)), `"`) {
	case "reduce":
		sig.ReducedMotion = boolPtr(true)
	case "no-preference":
		sig.ReducedMotion = boolPtr(false)
	}

	switch r.URL.Query().Get("motion") {
	case "reduce":
		sig.ReducedMotion = boolPtr(true)
	case "normal":
		sig.ReducedMotion = boolPtr(false)
	}

	if y, err := strconv.ParseFloat(r.URL.Query().Get("y"), 64); err == nil {
		sig.ScrollY = y
	}
	return sig
}

func boolPtr(b bool) *bool { return &b }

func respondRequests(c *gin.Context, reqs []browser.ScrollRequest) {
	if reqs == nil {
		reqs = []browser.ScrollRequest{}
	}
	c.JSON(http.StatusOK, gin.H{"requests": reqs})
}

func respondError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}
