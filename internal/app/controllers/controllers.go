// Package controllers handles HTTP request handling
package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/notatki/notehub/internal/app/models/dto"
	"github.com/notatki/notehub/internal/middleware"
	"github.com/notatki/notehub/internal/pkg/apperrors"
	"github.com/notatki/notehub/internal/pkg/validation"
)

// uploadBodyLimit caps multipart bodies at the largest accepted file plus room for the other form fields
var uploadBodyLimit = validation.MaxUploadSize + 1<<20

var errInvalidID = errors.New("invalid id")

// parseIDParam parses a positive ID parameter from the request path
func parseIDParam(ctx *gin.Context, paramName string) (int64, error) {
	id, err := strconv.ParseInt(ctx.Param(paramName), 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidID
	}
	return id, nil
}

// idParamOrAbort writes a 400 and returns false when the path ID is malformed
func idParamOrAbort(ctx *gin.Context, paramName, label string) (int64, bool) {
	id, err := parseIDParam(ctx, paramName)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodeResourceInvalid, "Invalid "+label+" ID").WithField(paramName),
		})
		return 0, false
	}
	return id, true
}

// userIDOrAbort returns the authenticated user or writes a 401
func userIDOrAbort(ctx *gin.Context) (int64, bool) {
	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		middleware.HandleAPIError(ctx, apperrors.ErrUnauthenticated)
		return 0, false
	}
	return userID, true
}

// respondBindError writes the 400 for a request that failed to bind
func respondBindError(ctx *gin.Context, err error) {
	if respondTooLarge(ctx, err) {
		return
	}
	ctx.JSON(http.StatusBadRequest, dto.APIResponse{
		Error: dto.HandleValidationError(err),
	})
}

// limitUploadBody makes multipart parsing fail once the body passes uploadBodyLimit
func limitUploadBody(ctx *gin.Context) {
	ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, uploadBodyLimit)
}

// respondTooLarge writes a 413 when err comes from an oversized request body
func respondTooLarge(ctx *gin.Context, err error) bool {
	var maxErr *http.MaxBytesError
	if !errors.As(err, &maxErr) {
		return false
	}
	ctx.JSON(http.StatusRequestEntityTooLarge, dto.APIResponse{
		Error: dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Request body too large").
			WithDetails("Uploads must be at most 10 MB"),
	})
	return true
}
