package admin

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"anihub/internal/events"
	"anihub/internal/mapping"
	"anihub/pkg/utils"
)

// Handler exposes the operational surface: mappings are never deleted
// or overridden by the engine itself, only here.
type Handler struct {
	Repo   *mapping.Repo
	Hub    *events.Hub
	Tokens TokenService
	Cfg    utils.AuthConfig
}

func NewHandler(repo *mapping.Repo, hub *events.Hub, tokens TokenService, cfg utils.AuthConfig) *Handler {
	return &Handler{Repo: repo, Hub: hub, Tokens: tokens, Cfg: cfg}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/login", h.login)

	protected := rg.Group("", AuthMiddleware(h.Tokens))
	protected.GET("/mappings", h.listMappings)
	protected.PUT("/mappings/:show_id", h.overrideMapping)
	protected.DELETE("/mappings/:show_id", h.deleteMapping)
}

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json", "kind": "bad_request"})
		return
	}

	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password required", "kind": "bad_request"})
		return
	}

	// don't reveal which part failed
	if h.Cfg.AdminPasswordHash == "" || username != h.Cfg.AdminUser {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials", "kind": "unauthorized"})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(h.Cfg.AdminPasswordHash), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials", "kind": "unauthorized"})
		return
	}

	token, exp, err := h.Tokens.Sign(username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token failed", "kind": "internal"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"expires_at": exp.UTC().Format(time.RFC3339),
	})
}

func (h *Handler) listMappings(c *gin.Context) {
	limit := parseInt(c.Query("limit"), 20)
	offset := parseInt(c.Query("offset"), 0)

	total, err := h.Repo.Count(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "count failed", "kind": "store_error"})
		return
	}

	items, err := h.Repo.List(c.Request.Context(), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed", "kind": "store_error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":  total,
		"limit":  limit,
		"offset": offset,
		"items":  items,
	})
}

type overrideReq struct {
	MalID *int64 `json:"mal_id"` // null clears the mapping to a confirmed miss
}

func (h *Handler) overrideMapping(c *gin.Context) {
	showID := strings.TrimSpace(c.Param("show_id"))
	if showID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "show_id required", "kind": "bad_request"})
		return
	}

	var req overrideReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json", "kind": "bad_request"})
		return
	}

	if err := h.Repo.Upsert(c.Request.Context(), showID, req.MalID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "override failed", "kind": "store_error"})
		return
	}
	if h.Hub != nil {
		h.Hub.BroadcastJSON(events.NewMappingEvent(events.TypeMappingOverride, showID, req.MalID))
	}

	c.JSON(http.StatusOK, gin.H{"status": "overridden", "show_id": showID, "mal_id": req.MalID})
}

func (h *Handler) deleteMapping(c *gin.Context) {
	showID := strings.TrimSpace(c.Param("show_id"))
	if showID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "show_id required", "kind": "bad_request"})
		return
	}

	err := h.Repo.Delete(c.Request.Context(), showID)
	if errors.Is(err, mapping.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found", "kind": "not_found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed", "kind": "store_error"})
		return
	}
	if h.Hub != nil {
		h.Hub.BroadcastJSON(events.NewMappingEvent(events.TypeMappingDeleted, showID, nil))
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted", "show_id": showID})
}

func parseInt(s string, def int) int {
	if strings.TrimSpace(s) == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
