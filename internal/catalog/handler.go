package catalog

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"anihub/internal/mapping"
	"anihub/internal/provider"
)

// Handler serves the public catalog routes. Shows are keyed by MAL id
// on the way in; the provider's own ids never leave the response
// payloads unexplained.
type Handler struct {
	Provider *provider.Provider
	Service  *mapping.Service
}

func NewHandler(p *provider.Provider, svc *mapping.Service) *Handler {
	return &Handler{Provider: p, Service: svc}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/search", h.search)
	r.GET("/episodes/:mal_id", h.episodes)
	r.GET("/episode_url", h.episodeURL)
}

func (h *Handler) search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("query"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query required", "kind": "bad_request"})
		return
	}

	entries, err := h.Provider.Search(c.Request.Context(), query)
	if err != nil {
		writeProviderError(c, err)
		return
	}

	resolutions, err := h.Service.Reconcile(c.Request.Context(), entries)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "reconcile failed", "kind": "store_error"})
		return
	}

	items := make([]gin.H, 0, len(resolutions))
	for _, r := range resolutions {
		items = append(items, gin.H{
			"show_id":  r.Entry.ShowID,
			"title":    r.Entry.Title,
			"episodes": r.Entry.Episodes,
			"mal_id":   r.MalID,
		})
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *Handler) episodes(c *gin.Context) {
	malID, ok := parseMalID(c, c.Param("mal_id"))
	if !ok {
		return
	}

	showID, err := h.Service.LookupByExternal(c.Request.Context(), malID)
	if errors.Is(err, mapping.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown mal_id", "kind": "not_found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "mapping lookup failed", "kind": "store_error"})
		return
	}

	raw, err := h.Provider.Episodes(c.Request.Context(), showID)
	if err != nil {
		writeProviderError(c, err)
		return
	}

	c.Data(http.StatusOK, "application/json", raw)
}

func (h *Handler) episodeURL(c *gin.Context) {
	malID, ok := parseMalID(c, c.Query("mal_id"))
	if !ok {
		return
	}

	epNo := strings.TrimSpace(c.Query("ep_no"))
	if epNo == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ep_no required", "kind": "bad_request"})
		return
	}
	quality := c.DefaultQuery("quality", "best")

	showID, err := h.Service.LookupByExternal(c.Request.Context(), malID)
	if errors.Is(err, mapping.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown mal_id", "kind": "not_found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "mapping lookup failed", "kind": "store_error"})
		return
	}

	raw, err := h.Provider.EpisodeURL(c.Request.Context(), showID, epNo, quality)
	if err != nil {
		writeProviderError(c, err)
		return
	}

	c.Data(http.StatusOK, "application/json", raw)
}

func parseMalID(c *gin.Context, s string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "mal_id must be a positive integer", "kind": "bad_request"})
		return 0, false
	}
	return id, true
}

// writeProviderError maps provider failures to the error taxonomy:
// garbled output is a parse_error carrying the raw output for
// diagnosis, anything else is a provider_error.
func writeProviderError(c *gin.Context, err error) {
	var pe *provider.ParseError
	if errors.As(err, &pe) {
		c.JSON(http.StatusBadGateway, gin.H{
			"error": pe.Error(),
			"kind":  "parse_error",
			"raw":   truncate(pe.Raw, 500),
		})
		return
	}
	c.JSON(http.StatusBadGateway, gin.H{"error": "catalog provider failed", "kind": "provider_error"})
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
