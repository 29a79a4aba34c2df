package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"yardcheck/internal/checklist"
	"yardcheck/internal/realtime"
	"yardcheck/internal/usecase/inspection"
	"yardcheck/pkg/utils"
)

type InspectionHandler struct {
	service *inspection.Service
	hub     *realtime.Hub
}

func NewInspectionHandler(service *inspection.Service, hub *realtime.Hub) *InspectionHandler {
	return &InspectionHandler{service: service, hub: hub}
}

func (h *InspectionHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/checklist", h.GetChecklist)
	router.GET("/sync-status", h.GetSyncStatus)
	router.GET("/live", h.Live)

	inspections := router.Group("/inspections")
	{
		inspections.POST("", h.Start)
		inspections.GET("", h.List)
		inspections.GET("/:id", h.Get)
		inspections.POST("/:id/join", h.Join)
		inspections.PUT("/:id/items", h.UpdateItem)
		inspections.PUT("/:id/comments", h.UpdateComment)
		inspections.POST("/:id/items/:section/:itemId/photo", h.CaptureItemPhoto)
		inspections.DELETE("/:id/items/:section/:itemId/photo", h.DeleteItemPhoto)
		inspections.POST("/:id/defect-photos", h.AddDefectPhoto)
		inspections.DELETE("/:id/defect-photos", h.RemoveDefectPhoto)
		inspections.PUT("/:id/additional-defects", h.UpdateAdditionalDefects)
		inspections.POST("/:id/complete", h.Complete)
		inspections.POST("/:id/gone", h.MarkGone)
	}
}

// GetChecklist serves the checklist schema so the app renders whatever
// the server considers current
func (h *InspectionHandler) GetChecklist(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Checklist configuration", gin.H{
		"sections":   checklist.Config,
		"totalItems": checklist.TotalItems,
	})
}

func (h *InspectionHandler) GetSyncStatus(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Sync status", gin.H{
		"state": h.service.Connectivity(),
	})
}

// Live upgrades to a websocket for snapshot subscriptions
func (h *InspectionHandler) Live(c *gin.Context) {
	realtime.ServeWS(h.hub, c.Writer, c.Request)
}

func (h *InspectionHandler) Start(c *gin.Context) {
	var req inspection.StartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.InspectorName == "" {
		req.InspectorName = actorName(c)
	}

	result, err := h.service.Start(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusOK
	message := "Joined existing inspection"
	if result.Created {
		status = http.StatusCreated
		message = "Inspection started"
	}
	utils.SuccessResponse(c, status, message, result)
}

func (h *InspectionHandler) List(c *gin.Context) {
	var req inspection.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid query parameters")
		return
	}

	result, err := h.service.List(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Inspections retrieved", result)
}

func (h *InspectionHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid inspection ID")
		return
	}

	result, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Inspection retrieved", result)
}

func (h *InspectionHandler) Join(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid inspection ID")
		return
	}

	var req inspection.JoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.InspectorName == "" {
		req.InspectorName = actorName(c)
	}

	result, err := h.service.Join(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Joined inspection", result)
}

func (h *InspectionHandler) UpdateItem(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid inspection ID")
		return
	}

	var req inspection.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.service.UpdateItem(c.Request.Context(), id, &req, actorName(c))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Item updated", result)
}

func (h *InspectionHandler) UpdateComment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid inspection ID")
		return
	}

	var req inspection.UpdateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.service.UpdateComment(c.Request.Context(), id, &req, actorName(c))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Comment updated", result)
}

// readPhoto pulls image bytes from either a multipart "photo" field or
// a raw request body
func readPhoto(c *gin.Context) ([]byte, error) {
	if file, err := c.FormFile("photo"); err == nil {
		f, err := file.Open()
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return io.ReadAll(f)
	}
	return io.ReadAll(c.Request.Body)
}

func (h *InspectionHandler) CaptureItemPhoto(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid inspection ID")
		return
	}

	data, err := readPhoto(c)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Failed to read photo data")
		return
	}

	result, err := h.service.CaptureItemPhoto(
		c.Request.Context(), id,
		c.Param("section"), c.Param("itemId"),
		data, actorName(c),
	)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Photo saved", result)
}

func (h *InspectionHandler) DeleteItemPhoto(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid inspection ID")
		return
	}

	result, err := h.service.DeleteItemPhoto(c.Request.Context(), id, c.Param("section"), c.Param("itemId"))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Photo deleted", result)
}

func (h *InspectionHandler) AddDefectPhoto(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid inspection ID")
		return
	}

	data, err := readPhoto(c)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Failed to read photo data")
		return
	}

	var caption *string
	if v := c.PostForm("caption"); v != "" {
		caption = &v
	}

	result, err := h.service.AddDefectPhoto(c.Request.Context(), id, data, caption, actorName(c))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusCreated, "Defect photo added", result)
}

func (h *InspectionHandler) RemoveDefectPhoto(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid inspection ID")
		return
	}

	photoURL := c.Query("url")
	if photoURL == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Missing photo url")
		return
	}

	result, err := h.service.RemoveDefectPhoto(c.Request.Context(), id, photoURL)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Defect photo removed", result)
}

func (h *InspectionHandler) UpdateAdditionalDefects(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid inspection ID")
		return
	}

	var req inspection.AdditionalDefectsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.service.UpdateAdditionalDefects(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Additional defects updated", result)
}

func (h *InspectionHandler) Complete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid inspection ID")
		return
	}

	result, err := h.service.Complete(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Inspection completed", result)
}

func (h *InspectionHandler) MarkGone(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid inspection ID")
		return
	}

	result, err := h.service.MarkGone(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Truck marked gone", result)
}
