package pullrequest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gradlink/server/internal/shared/middleware"
	"github.com/gradlink/server/internal/shared/response"
)

// Handler handles HTTP requests for pull-request orchestration.
type Handler struct {
	service *Service
}

// NewHandler creates a new pull-request handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers pull-request routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/vcs/repositories/:owner/:repo/pulls", h.Create)
}

// Create validates and opens a pull request.
//
//	@Summary		Create pull request
//	@Description	Validate the head branch and comparison, open the pull request, and record it
//	@Tags			PullRequest
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			owner	path		string			true	"Repository owner"
//	@Param			repo	path		string			true	"Repository name"
//	@Param			request	body		CreateRequest	true	"Pull request"
//	@Success		201		{object}	CreateResponse
//	@Failure		400		{object}	response.ErrorResponse
//	@Failure		404		{object}	response.ErrorResponse
//	@Failure		422		{object}	response.ErrorResponse
//	@Router			/vcs/repositories/{owner}/{repo}/pulls [post]
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	record, err := h.service.Create(c.Request.Context(), middleware.GetIdentity(c), c.Param("owner"), c.Param("repo"), &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	c.JSON(http.StatusCreated, record.ToResponse())
}
