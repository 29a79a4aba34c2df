package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"yardcheck/internal/report"
	"yardcheck/pkg/utils"
)

type ReportHandler struct {
	service *report.Service
}

func NewReportHandler(service *report.Service) *ReportHandler {
	return &ReportHandler{service: service}
}

func (h *ReportHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/inspections/:id/report", h.SendDefectReport)
}

type sendReportRequest struct {
	Recipients []string `json:"recipients" binding:"required,min=1"`
}

func (h *ReportHandler) SendDefectReport(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid inspection ID")
		return
	}

	var req sendReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.service.SendDefectReport(c.Request.Context(), id, req.Recipients, actorName(c)); err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Defect report sent", nil)
}
