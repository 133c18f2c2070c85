package controllers

import (
	"errors"
	"mime"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/notatki/notehub/internal/app/models/dto"
	"github.com/notatki/notehub/internal/app/services"
	"github.com/notatki/notehub/internal/middleware"
	"github.com/notatki/notehub/internal/pkg/catalog"
	"github.com/rs/zerolog"
)

// NoteController handles note operations
type NoteController struct {
	noteService services.NoteService
	logger      zerolog.Logger
}

// NewNoteController creates a new NoteController
func NewNoteController(noteService services.NoteService, logger zerolog.Logger) *NoteController {
	return &NoteController{
		noteService: noteService,
		logger:      logger,
	}
}

// ListNotes godoc
// @Summary Browse the note catalog
// @Description Filters by title search, subject, professor and uploader university, then sorts
// @Tags notes
// @Produce json
// @Param search query string false "Case-insensitive title search"
// @Param subject query string false "Exact subject name"
// @Param professor query string false "Exact professor name"
// @Param university query string false "Exact uploader university"
// @Param sortBy query string false "Sort mode" Enums(newest, oldest, title-asc, title-desc, rating-desc, rating-asc)
// @Success 200 {object} dto.APIResponse{data=dto.NoteListResponse}
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /notes [get]
func (c *NoteController) ListNotes(ctx *gin.Context) {
	var filter catalog.FilterOptions
	if err := ctx.ShouldBindQuery(&filter); err != nil {
		respondBindError(ctx, err)
		return
	}

	notes, err := c.noteService.ListNotes(ctx.Request.Context(), filter)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data: notes,
	})
}

// GetNote godoc
// @Summary Get a note by ID
// @Tags notes
// @Produce json
// @Param id path int true "Note ID"
// @Success 200 {object} dto.APIResponse{data=dto.NoteResponse}
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Failure 404 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /notes/{id} [get]
func (c *NoteController) GetNote(ctx *gin.Context) {
	id, ok := idParamOrAbort(ctx, "id", "note")
	if !ok {
		return
	}

	note, err := c.noteService.GetNote(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data: note,
	})
}

// ListMyNotes godoc
// @Summary List my notes
// @Tags notes
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.NoteResponse}
// @Failure 401 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /me/notes [get]
func (c *NoteController) ListMyNotes(ctx *gin.Context) {
	userID, ok := userIDOrAbort(ctx)
	if !ok {
		return
	}

	notes, err := c.noteService.ListUserNotes(ctx.Request.Context(), userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data: notes,
	})
}

// CreateNote godoc
// @Summary Create a note
// @Description Creates a file note (pdf or image, up to 10 MB) or a text note
// @Tags notes
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param title formData string true "Title"
// @Param subjectId formData int true "Subject ID"
// @Param professorId formData int true "Professor ID"
// @Param year formData int true "Year"
// @Param noteType formData string true "Note type" Enums(file, text)
// @Param content formData string false "Text content for text notes"
// @Param file formData file false "File for file notes"
// @Success 201 {object} dto.APIResponse{data=dto.NoteResponse}
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Failure 401 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /notes [post]
func (c *NoteController) CreateNote(ctx *gin.Context) {
	userID, ok := userIDOrAbort(ctx)
	if !ok {
		return
	}

	limitUploadBody(ctx)
	var req dto.CreateNoteRequest
	if err := ctx.ShouldBind(&req); err != nil {
		respondBindError(ctx, err)
		return
	}

	var file *multipart.FileHeader
	if req.NoteType == dto.NoteTypeFile {
		f, err := ctx.FormFile("file")
		if err != nil && !errors.Is(err, http.ErrMissingFile) {
			c.logger.Warn().Err(err).Msg("Unreadable note upload")
			respondBindError(ctx, err)
			return
		}
		file = f
	}

	note, err := c.noteService.CreateNote(ctx.Request.Context(), userID, &req, file)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.APIResponse{
		Data: note,
	})
}

// UpdateNote godoc
// @Summary Update a note
// @Description Only the uploader may edit. Content is applied to text notes only.
// @Tags notes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Note ID"
// @Param request body dto.UpdateNoteRequest true "Note fields"
// @Success 200 {object} dto.APIResponse{data=dto.NoteResponse}
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Failure 403 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Failure 404 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /notes/{id} [put]
func (c *NoteController) UpdateNote(ctx *gin.Context) {
	userID, ok := userIDOrAbort(ctx)
	if !ok {
		return
	}
	id, ok := idParamOrAbort(ctx, "id", "note")
	if !ok {
		return
	}

	var req dto.UpdateNoteRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBindError(ctx, err)
		return
	}

	note, err := c.noteService.UpdateNote(ctx.Request.Context(), userID, id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data: note,
	})
}

// DeleteNote godoc
// @Summary Delete a note
// @Tags notes
// @Produce json
// @Security BearerAuth
// @Param id path int true "Note ID"
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse}
// @Failure 403 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Failure 404 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /notes/{id} [delete]
func (c *NoteController) DeleteNote(ctx *gin.Context) {
	userID, ok := userIDOrAbort(ctx)
	if !ok {
		return
	}
	id, ok := idParamOrAbort(ctx, "id", "note")
	if !ok {
		return
	}

	if err := c.noteService.DeleteNote(ctx.Request.Context(), userID, id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data: dto.SuccessResponse{Message: "Note deleted"},
	})
}

// DownloadNote godoc
// @Summary Download a note's file
// @Description Streams the stored file and records the download
// @Tags notes
// @Produce application/octet-stream
// @Security BearerAuth
// @Param id path int true "Note ID"
// @Success 200 {file} file
// @Failure 404 {object} dto.APIResponse{error=dto.ErrorDetail} "Note or file not found"
// @Router /notes/{id}/download [get]
func (c *NoteController) DownloadNote(ctx *gin.Context) {
	userID, ok := userIDOrAbort(ctx)
	if !ok {
		return
	}
	id, ok := idParamOrAbort(ctx, "id", "note")
	if !ok {
		return
	}

	download, err := c.noteService.OpenDownload(ctx.Request.Context(), userID, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	defer download.Body.Close()

	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": download.Filename})
	ctx.DataFromReader(http.StatusOK, -1, download.ContentType, download.Body, map[string]string{
		"Content-Disposition": disposition,
	})
}
