package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/notatki/notehub/internal/app/models/dto"
	"github.com/notatki/notehub/internal/app/services"
	"github.com/notatki/notehub/internal/middleware"
)

// RatingController handles note ratings
type RatingController struct {
	ratingService services.RatingService
}

// NewRatingController creates a new RatingController
func NewRatingController(ratingService services.RatingService) *RatingController {
	return &RatingController{
		ratingService: ratingService,
	}
}

// ListRatings godoc
// @Summary List a note's ratings
// @Description Newest first, with the rater's username and avatar
// @Tags ratings
// @Produce json
// @Param id path int true "Note ID"
// @Success 200 {object} dto.APIResponse{data=[]models.Rating}
// @Failure 404 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /notes/{id}/ratings [get]
func (c *RatingController) ListRatings(ctx *gin.Context) {
	noteID, ok := idParamOrAbort(ctx, "id", "note")
	if !ok {
		return
	}

	ratings, err := c.ratingService.ListRatings(ctx.Request.Context(), noteID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data: ratings,
	})
}

// GetMyRating godoc
// @Summary Get my rating of a note
// @Tags ratings
// @Produce json
// @Security BearerAuth
// @Param id path int true "Note ID"
// @Success 200 {object} dto.APIResponse{data=models.Rating}
// @Failure 404 {object} dto.APIResponse{error=dto.ErrorDetail} "Not rated yet"
// @Router /notes/{id}/ratings/me [get]
func (c *RatingController) GetMyRating(ctx *gin.Context) {
	userID, ok := userIDOrAbort(ctx)
	if !ok {
		return
	}
	noteID, ok := idParamOrAbort(ctx, "id", "note")
	if !ok {
		return
	}

	rating, err := c.ratingService.GetMyRating(ctx.Request.Context(), userID, noteID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data: rating,
	})
}

// SaveRating godoc
// @Summary Rate a note
// @Description Creates my rating or replaces the existing one
// @Tags ratings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Note ID"
// @Param request body dto.SaveRatingRequest true "Stars 1-5 and optional comment"
// @Success 200 {object} dto.APIResponse{data=dto.SaveRatingResponse}
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Failure 404 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /notes/{id}/ratings [put]
func (c *RatingController) SaveRating(ctx *gin.Context) {
	userID, ok := userIDOrAbort(ctx)
	if !ok {
		return
	}
	noteID, ok := idParamOrAbort(ctx, "id", "note")
	if !ok {
		return
	}

	var req dto.SaveRatingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBindError(ctx, err)
		return
	}

	resp, err := c.ratingService.SaveRating(ctx.Request.Context(), userID, noteID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data: resp,
	})
}
