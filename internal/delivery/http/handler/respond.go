package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainInspection "yardcheck/internal/domain/inspection"
	domainInspector "yardcheck/internal/domain/inspector"
	"yardcheck/internal/imaging"
	"yardcheck/internal/report"
	"yardcheck/internal/usecase/inspection"
	appErrors "yardcheck/pkg/errors"
	"yardcheck/pkg/utils"
)

// respondError maps service errors onto HTTP statuses and user-facing
// messages in one place so the handlers stay thin
func respondError(c *gin.Context, err error) {
	var appErr *appErrors.AppError

	switch {
	case errors.Is(err, domainInspection.ErrInspectionNotFound),
		errors.Is(err, domainInspector.ErrInspectorNotFound):
		utils.ErrorResponse(c, http.StatusNotFound, err.Error())

	case errors.Is(err, domainInspection.ErrInspectionClosed),
		errors.Is(err, domainInspection.ErrAlreadyJoined),
		errors.Is(err, domainInspector.ErrInspectorAlreadyExists):
		utils.ErrorResponse(c, http.StatusConflict, err.Error())

	case errors.Is(err, domainInspection.ErrInvalidTruckNumber),
		errors.Is(err, domainInspection.ErrInvalidInspectorName),
		errors.Is(err, domainInspection.ErrInvalidItemID),
		errors.Is(err, domainInspection.ErrInvalidSection),
		errors.Is(err, domainInspection.ErrCommentTooLong),
		errors.Is(err, domainInspection.ErrDefectsTooLong),
		errors.Is(err, appErrors.ErrInvalidEmail),
		errors.Is(err, report.ErrNoRecipients):
		utils.ErrorResponse(c, http.StatusBadRequest, err.Error())

	case errors.Is(err, imaging.ErrImageTooLarge):
		utils.ErrorResponse(c, http.StatusRequestEntityTooLarge, "Image is too large to process. Try taking the photo again.")

	case errors.Is(err, imaging.ErrEmptyImage):
		utils.ErrorResponse(c, http.StatusBadRequest, "No image data received")

	case errors.Is(err, imaging.ErrNotAnImage):
		utils.ErrorResponse(c, http.StatusUnsupportedMediaType, "The uploaded file is not an image")

	case errors.Is(err, appErrors.ErrInvalidCredentials),
		errors.Is(err, domainInspector.ErrInspectorInactive):
		utils.ErrorResponse(c, http.StatusUnauthorized, "Invalid credentials")

	case errors.Is(err, report.ErrRateLimited):
		utils.ErrorResponse(c, http.StatusTooManyRequests, err.Error())

	// Exhausted photo saves carry a message already phrased for the
	// inspector; the upstream dependency is what failed
	case errors.As(err, &appErr) && appErr.Code == inspection.CodePhotoSaveFailed:
		utils.ErrorResponse(c, http.StatusBadGateway, appErr.Message)

	case errors.As(err, &appErr):
		utils.ErrorResponse(c, http.StatusBadRequest, appErr.Message)

	default:
		utils.ErrorResponse(c, http.StatusInternalServerError, "Internal server error")
	}
}

// actorName returns the authenticated inspector's display name
func actorName(c *gin.Context) string {
	if name, ok := c.Get("inspectorName"); ok {
		if s, ok := name.(string); ok {
			return s
		}
	}
	return ""
}
