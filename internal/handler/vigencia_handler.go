package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type VigenciaHandler struct {
	vigenciaService service.VigenciaService
}

func NewVigenciaHandler(vigenciaService service.VigenciaService) *VigenciaHandler {
	return &VigenciaHandler{vigenciaService: vigenciaService}
}

func (h *VigenciaHandler) RegisterRoutes(router *gin.RouterGroup) {
	vigencias := router.Group("/api/vigencias", middleware.RequireAuth())
	{
		vigencias.GET("/user/all", h.ListOwn)
		vigencias.GET("/user/unpaid", h.ListOwnUnpaid)
		vigencias.GET("/vehicle/:vehicleId", h.ListByVehicle)
		vigencias.GET("/vehicle/:vehicleId/unpaid", h.ListUnpaidByVehicle)
		// creation is reserved for the tax authority side
		vigencias.POST("/vehicle/:vehicleId", middleware.RequireAdmin(), h.CreateVigencia)
		vigencias.PUT("/:id", h.UpdateVigencia)
		vigencias.DELETE("/:id", h.DeleteVigencia)
	}
}

// CreateVigencia registers a tax-year obligation for a vehicle
// @Summary      Create vigencia
// @Description  Registers a yearly tax obligation for a vehicle. One per (vehicle, year).
// @Tags         vigencias
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        vehicleId  path      string                         true  "Vehicle ID"
// @Param        payload    body      service.CreateVigenciaRequest  true  "Create Vigencia Payload"
// @Success      201        {object}  response.Response{data=service.VigenciaResponse}
// @Failure      400        {object}  response.Response
// @Failure      404        {object}  response.Response
// @Failure      409        {object}  response.Response
// @Router       /api/vigencias/vehicle/{vehicleId} [post]
func (h *VigenciaHandler) CreateVigencia(c *gin.Context) {
	var req service.CreateVigenciaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	vigencia, err := h.vigenciaService.CreateVigencia(c.Request.Context(), c.Param("vehicleId"), req)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, vigencia))
}

// ListOwn returns every vigencia on the user's vehicles
// @Summary      List own vigencias
// @Tags         vigencias
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]service.VigenciaResponse}
// @Router       /api/vigencias/user/all [get]
func (h *VigenciaHandler) ListOwn(c *gin.Context) {
	h.listOwn(c, false)
}

// ListOwnUnpaid returns the user's unpaid vigencias
// @Summary      List own unpaid vigencias
// @Tags         vigencias
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]service.VigenciaResponse}
// @Router       /api/vigencias/user/unpaid [get]
func (h *VigenciaHandler) ListOwnUnpaid(c *gin.Context) {
	h.listOwn(c, true)
}

func (h *VigenciaHandler) listOwn(c *gin.Context, unpaidOnly bool) {
	actorID, _, err := middleware.CurrentActor(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, err.Error()))
		return
	}

	vigencias, err := h.vigenciaService.ListByOwner(c.Request.Context(), actorID, unpaidOnly)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, vigencias))
}

// ListByVehicle returns a vehicle's vigencias (owner or admin)
// @Summary      List vehicle vigencias
// @Tags         vigencias
// @Security     BearerAuth
// @Produce      json
// @Param        vehicleId  path      string  true  "Vehicle ID"
// @Success      200        {object}  response.Response{data=[]service.VigenciaResponse}
// @Failure      403        {object}  response.Response
// @Failure      404        {object}  response.Response
// @Router       /api/vigencias/vehicle/{vehicleId} [get]
func (h *VigenciaHandler) ListByVehicle(c *gin.Context) {
	h.listByVehicle(c, false)
}

// ListUnpaidByVehicle returns a vehicle's unpaid vigencias (owner or admin)
// @Summary      List vehicle unpaid vigencias
// @Tags         vigencias
// @Security     BearerAuth
// @Produce      json
// @Param        vehicleId  path      string  true  "Vehicle ID"
// @Success      200        {object}  response.Response{data=[]service.VigenciaResponse}
// @Failure      403        {object}  response.Response
// @Failure      404        {object}  response.Response
// @Router       /api/vigencias/vehicle/{vehicleId}/unpaid [get]
func (h *VigenciaHandler) ListUnpaidByVehicle(c *gin.Context) {
	h.listByVehicle(c, true)
}

func (h *VigenciaHandler) listByVehicle(c *gin.Context, unpaidOnly bool) {
	actorID, role, err := middleware.CurrentActor(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, err.Error()))
		return
	}

	vigencias, err := h.vigenciaService.ListByVehicle(c.Request.Context(), c.Param("vehicleId"), actorID, role, unpaidOnly)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, vigencias))
}

// UpdateVigencia edits year/amount of an unpaid vigencia
// @Summary      Update vigencia
// @Description  Edits an unpaid vigencia. Paid vigencias are locked for every role.
// @Tags         vigencias
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                         true  "Vigencia ID"
// @Param        payload  body      service.UpdateVigenciaRequest  true  "Update Vigencia Payload"
// @Success      200      {object}  response.Response{data=service.VigenciaResponse}
// @Failure      403      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Failure      423      {object}  response.Response
// @Router       /api/vigencias/{id} [put]
func (h *VigenciaHandler) UpdateVigencia(c *gin.Context) {
	actorID, role, err := middleware.CurrentActor(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, err.Error()))
		return
	}

	var req service.UpdateVigenciaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	vigencia, err := h.vigenciaService.UpdateVigencia(c.Request.Context(), c.Param("id"), req, actorID, role)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, vigencia))
}

// DeleteVigencia removes an unpaid vigencia
// @Summary      Delete vigencia
// @Tags         vigencias
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Vigencia ID"
// @Success      200  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Failure      423  {object}  response.Response
// @Router       /api/vigencias/{id} [delete]
func (h *VigenciaHandler) DeleteVigencia(c *gin.Context) {
	actorID, role, err := middleware.CurrentActor(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, err.Error()))
		return
	}

	removed, err := h.vigenciaService.DeleteVigencia(c.Request.Context(), c.Param("id"), actorID, role)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"removed": removed}))
}
