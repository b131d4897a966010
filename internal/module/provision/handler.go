package provision

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gradlink/server/internal/shared/middleware"
	"github.com/gradlink/server/internal/shared/response"
)

// Handler handles HTTP requests for repository provisioning.
type Handler struct {
	service *Service
}

// NewHandler creates a new provisioning handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers provisioning routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	repos := r.Group("/vcs/repositories")
	{
		repos.POST("", h.Create)
		repos.POST("/:owner/:repo/link", h.LinkSupervisor)
	}
}

// Create handles team repository provisioning.
//
//	@Summary		Create team repository
//	@Description	Create a private team repository, invite team members, and record the result
//	@Tags			Provision
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		CreateRepositoryRequest	true	"Provisioning request"
//	@Success		201		{object}	CreateRepositoryResponse
//	@Failure		400		{object}	response.ErrorResponse
//	@Failure		403		{object}	response.ErrorResponse
//	@Router			/vcs/repositories [post]
func (h *Handler) Create(c *gin.Context) {
	var req CreateRepositoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateTeamRepository(c.Request.Context(), middleware.GetIdentity(c), &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result.ToResponse())
}

// LinkSupervisor attaches the calling supervisor to an existing repository.
//
//	@Summary		Link supervisor
//	@Description	Attach the calling supervisor to a team repository after connection approval
//	@Tags			Provision
//	@Produce		json
//	@Security		BearerAuth
//	@Param			owner	path		string	true	"Repository owner"
//	@Param			repo	path		string	true	"Repository name"
//	@Success		200		{object}	LinkSupervisorResponse
//	@Failure		403		{object}	response.ErrorResponse
//	@Failure		404		{object}	response.ErrorResponse
//	@Router			/vcs/repositories/{owner}/{repo}/link [post]
func (h *Handler) LinkSupervisor(c *gin.Context) {
	repo, err := h.service.LinkSupervisor(
		c.Request.Context(),
		middleware.GetIdentity(c),
		c.Param("owner"),
		c.Param("repo"),
	)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, ToLinkResponse(repo))
}

func (h *Handler) handleError(c *gin.Context, err error) {
	if response.HandleError(c, err, []response.ErrorMapping{
		{Err: ErrRepoNotFound, Status: http.StatusNotFound, Code: "NOT_FOUND"},
	}) {
		return
	}
	response.FromError(c, err)
}
