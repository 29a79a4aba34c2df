package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"yardcheck/internal/usecase/inspector"
	"yardcheck/pkg/utils"
)

type InspectorHandler struct {
	service *inspector.Service
}

func NewInspectorHandler(service *inspector.Service) *InspectorHandler {
	return &InspectorHandler{service: service}
}

func (h *InspectorHandler) RegisterPublicRoutes(router *gin.RouterGroup) {
	router.POST("/auth/login", h.Login)
}

func (h *InspectorHandler) RegisterProtectedRoutes(router *gin.RouterGroup) {
	router.GET("/auth/me", h.Me)
	router.POST("/auth/change-password", h.ChangePassword)
}

func (h *InspectorHandler) RegisterAdminRoutes(router *gin.RouterGroup) {
	inspectors := router.Group("/inspectors")
	{
		inspectors.POST("", h.Register)
		inspectors.GET("", h.GetAll)
		inspectors.PUT("/:id", h.Update)
		inspectors.DELETE("/:id", h.Delete)
	}
}

func (h *InspectorHandler) Login(c *gin.Context) {
	var req inspector.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.service.Login(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Login successful", result)
}

func (h *InspectorHandler) Me(c *gin.Context) {
	id, ok := c.MustGet("inspectorID").(uuid.UUID)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "Invalid inspector ID in token")
		return
	}

	result, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Profile retrieved", result)
}

func (h *InspectorHandler) ChangePassword(c *gin.Context) {
	id, ok := c.MustGet("inspectorID").(uuid.UUID)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "Invalid inspector ID in token")
		return
	}

	var req inspector.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.service.ChangePassword(c.Request.Context(), id, &req); err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Password changed", nil)
}

func (h *InspectorHandler) Register(c *gin.Context) {
	var req inspector.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.service.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusCreated, "Inspector created", result)
}

func (h *InspectorHandler) GetAll(c *gin.Context) {
	result, err := h.service.GetAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Inspectors retrieved", result)
}

func (h *InspectorHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid inspector ID")
		return
	}

	var req inspector.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.service.Update(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Inspector updated", result)
}

func (h *InspectorHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid inspector ID")
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Inspector deleted", nil)
}
