package activity

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/gradlink/server/internal/shared/response"
)

// Handler handles HTTP requests for repository activity.
type Handler struct {
	service *Service
}

// NewHandler creates a new activity handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers activity routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/vcs/repositories/:owner/:repo/activity", h.RepoActivity)
}

// RepoActivity returns the active/inactive member partition.
//
//	@Summary		Repository activity
//	@Description	Partition repository members into recently active and inactive
//	@Tags			Activity
//	@Produce		json
//	@Security		BearerAuth
//	@Param			owner	path		string	true	"Repository owner"
//	@Param			repo	path		string	true	"Repository name"
//	@Param			days	query		int		false	"Activity window in days"	default(21)
//	@Success		200		{object}	Snapshot
//	@Failure		400		{object}	response.ErrorResponse
//	@Failure		404		{object}	response.ErrorResponse
//	@Router			/vcs/repositories/{owner}/{repo}/activity [get]
func (h *Handler) RepoActivity(c *gin.Context) {
	// days 0 leaves the choice to the service's configured default.
	days := 0
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			response.BadRequest(c, "days must be a positive integer")
			return
		}
		days = parsed
	}

	snapshot, err := h.service.RepoActivity(c.Request.Context(), c.Param("owner"), c.Param("repo"), days)
	if err != nil {
		response.FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, snapshot)
}
