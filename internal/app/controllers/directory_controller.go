package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/notatki/notehub/internal/app/models/dto"
	"github.com/notatki/notehub/internal/app/services"
	"github.com/notatki/notehub/internal/middleware"
	"github.com/notatki/notehub/internal/pkg/catalog"
)

// DirectoryController serves one searchable dropdown source, subjects or professors
type DirectoryController struct {
	directoryService services.DirectoryService
}

// NewDirectoryController creates a new DirectoryController
func NewDirectoryController(directoryService services.DirectoryService) *DirectoryController {
	return &DirectoryController{
		directoryService: directoryService,
	}
}

// List godoc
// @Summary List subjects or professors
// @Tags directory
// @Produce json
// @Success 200 {object} dto.APIResponse{data=[]models.NamedEntity}
// @Router /subjects [get]
// @Router /professors [get]
func (c *DirectoryController) List(ctx *gin.Context) {
	entities, err := c.directoryService.List(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data: entities,
	})
}

// Suggest godoc
// @Summary Search dropdown options
// @Description Case-insensitive substring match; terms under 2 characters return nothing
// @Tags directory
// @Produce json
// @Param q query string false "Search term"
// @Param limit query int false "Maximum options (default 5)"
// @Success 200 {object} dto.APIResponse{data=catalog.Suggestions}
// @Router /subjects/suggest [get]
// @Router /professors/suggest [get]
func (c *DirectoryController) Suggest(ctx *gin.Context) {
	limit := catalog.DefaultSuggestLimit
	if raw := ctx.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			ctx.JSON(http.StatusBadRequest, dto.APIResponse{
				Error: dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "limit must be a positive integer").WithField("limit"),
			})
			return
		}
		limit = n
	}

	suggestions, err := c.directoryService.Suggest(ctx.Request.Context(), ctx.Query("q"), limit)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data: suggestions,
	})
}

// Create godoc
// @Summary Add a subject or professor
// @Description Returns the existing entry when the name already exists, ignoring case
// @Tags directory
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateNamedEntityRequest true "Name"
// @Success 200 {object} dto.APIResponse{data=models.NamedEntity} "Existing entry"
// @Success 201 {object} dto.APIResponse{data=models.NamedEntity} "Created"
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /subjects [post]
// @Router /professors [post]
func (c *DirectoryController) Create(ctx *gin.Context) {
	var req dto.CreateNamedEntityRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBindError(ctx, err)
		return
	}

	entity, created, err := c.directoryService.Create(ctx.Request.Context(), req.Name)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	ctx.JSON(status, dto.APIResponse{
		Data: entity,
	})
}
