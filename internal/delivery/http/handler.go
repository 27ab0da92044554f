package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pnsenthil/smartshop/internal/domain"
	"github.com/pnsenthil/smartshop/internal/usecase"
)

// EngineStatus reports the generic engine's configuration for the demo header
type EngineStatus struct {
	Mode             string `json:"mode"`
	RuleCount        int    `json:"ruleCount"`
	RerankConfigured bool   `json:"rerankConfigured"`
	RerankOnline     bool   `json:"rerankOnline"`
}

// EngineStatusFunc supplies the current engine status without coupling the
// delivery layer to the engine implementation
type EngineStatusFunc func() EngineStatus

// Handler holds dependencies for HTTP handlers
type Handler struct {
	sessions     *usecase.SessionService
	profiles     domain.ProfileSource
	registry     *usecase.ScenarioRegistry
	engineStatus EngineStatusFunc
	logger       *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(
	sessions *usecase.SessionService,
	profiles domain.ProfileSource,
	registry *usecase.ScenarioRegistry,
	engineStatus EngineStatusFunc,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		sessions:     sessions,
		profiles:     profiles,
		registry:     registry,
		engineStatus: engineStatus,
		logger:       logger,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "smartshop-nudges",
		"version": "1.0.0",
		"engine":  h.engineStatus(),
	})
}

// EngineInfo reports engine mode, rule count and reranker liveness
func (h *Handler) EngineInfo(c *gin.Context) {
	c.JSON(http.StatusOK, h.engineStatus())
}

// ListProfiles returns the demo personas in configured order
func (h *Handler) ListProfiles(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"profiles": h.profiles.AllProfiles()})
}

// ProfileScenarios returns a profile's trigger guide
func (h *Handler) ProfileScenarios(c *gin.Context) {
	id := c.Param("id")
	if _, ok := h.profiles.Profile(id); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"scenarios": h.registry.ScenariosFor(id)})
}

type selectProfileRequest struct {
	ProfileID string `json:"profileId" binding:"required"`
}

// SelectProfile starts a fresh session for the requested persona
func (h *Handler) SelectProfile(c *gin.Context) {
	var req selectProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "profileId is required"})
		return
	}

	profile, err := h.sessions.SelectProfile(req.ProfileID)
	if err != nil {
		if errors.Is(err, domain.ErrProfileNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
			return
		}
		h.logger.Error("profile selection failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not select profile"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

// ReturnHome discards the live session
func (h *Handler) ReturnHome(c *gin.Context) {
	h.sessions.ReturnHome()
	c.JSON(http.StatusOK, gin.H{"reset": true})
}

// GetSession returns the full session snapshot
func (h *Handler) GetSession(c *gin.Context) {
	snap, err := h.sessions.Snapshot()
	if err != nil {
		h.respondNoSession(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

type scanRequest struct {
	SKU string `json:"sku" binding:"required"`
}

// Scan handles a product scan
func (h *Handler) Scan(c *gin.Context) {
	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sku is required"})
		return
	}

	result, err := h.sessions.Scan(c.Request.Context(), req.SKU)
	if err != nil {
		h.respondNoSession(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// OpenNudge returns the nudge currently awaiting a decision
func (h *Handler) OpenNudge(c *gin.Context) {
	candidate, open, err := h.sessions.OpenNudge()
	if err != nil {
		h.respondNoSession(c, err)
		return
	}
	if !open {
		c.JSON(http.StatusOK, gin.H{"open": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"open": true, "nudge": candidate})
}

// AcceptNudge applies the open nudge's accept semantics
func (h *Handler) AcceptNudge(c *gin.Context) {
	result, err := h.sessions.Accept()
	if err != nil {
		h.respondNoSession(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// DismissNudge applies the open nudge's dismiss semantics
func (h *Handler) DismissNudge(c *gin.Context) {
	result, err := h.sessions.Dismiss()
	if err != nil {
		h.respondNoSession(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// CheckoutSummary returns the side-effect-free checkout view
func (h *Handler) CheckoutSummary(c *gin.Context) {
	summary, err := h.sessions.CheckoutSummary()
	if err != nil {
		h.respondNoSession(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// CompleteOrder finalizes the order and resets the session
func (h *Handler) CompleteOrder(c *gin.Context) {
	summary, err := h.sessions.CompleteOrder()
	if err != nil {
		h.respondNoSession(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": summary, "sessionReset": true})
}

// respondNoSession maps coordinator errors to HTTP. The only expected error
// on session endpoints is the missing-session precondition.
func (h *Handler) respondNoSession(c *gin.Context, err error) {
	if errors.Is(err, domain.ErrNoSession) {
		c.JSON(http.StatusConflict, gin.H{"error": "no active session, select a profile first"})
		return
	}
	h.logger.Error("session operation failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
