package credential

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gradlink/server/internal/shared/middleware"
	"github.com/gradlink/server/internal/shared/response"
)

// Handler handles HTTP requests for the credential lifecycle.
type Handler struct {
	service *Service
}

// NewHandler creates a new credential handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers credential routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	oauth := r.Group("/vcs/oauth")
	{
		oauth.POST("/exchange", h.Exchange)
		oauth.POST("/refresh", h.Refresh)
	}
}

// Exchange handles the authorization-code exchange.
//
//	@Summary		Exchange authorization code
//	@Description	Exchange an OAuth authorization code and PKCE verifier for platform tokens
//	@Tags			Credential
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		ExchangeRequest	true	"Exchange request"
//	@Success		200		{object}	ExchangeResponse
//	@Failure		400		{object}	response.ErrorResponse
//	@Failure		502		{object}	response.ErrorResponse
//	@Router			/vcs/oauth/exchange [post]
func (h *Handler) Exchange(c *gin.Context) {
	var req ExchangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	doc, err := h.service.Exchange(c.Request.Context(), callerUID(c), req.Code, req.CodeVerifier)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, doc.ToExchangeResponse())
}

// Refresh handles a credential refresh.
//
//	@Summary		Refresh credential
//	@Description	Refresh the stored platform credential for an account
//	@Tags			Credential
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		RefreshRequest	true	"Refresh request"
//	@Success		200		{object}	RefreshResponse
//	@Failure		400		{object}	response.ErrorResponse
//	@Failure		404		{object}	response.ErrorResponse
//	@Router			/vcs/oauth/refresh [post]
func (h *Handler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	doc, err := h.service.Refresh(c.Request.Context(), callerUID(c), req.AccountKey)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, doc.ToRefreshResponse())
}

func callerUID(c *gin.Context) string {
	if id := middleware.GetIdentity(c); id != nil {
		return id.UID
	}
	return ""
}

func (h *Handler) handleError(c *gin.Context, err error) {
	if response.HandleError(c, err, []response.ErrorMapping{
		{Err: ErrAccountNotFound, Status: http.StatusNotFound, Code: "NOT_FOUND"},
	}) {
		return
	}
	response.FromError(c, err)
}
