package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type VehicleHandler struct {
	vehicleService service.VehicleService
}

func NewVehicleHandler(vehicleService service.VehicleService) *VehicleHandler {
	return &VehicleHandler{vehicleService: vehicleService}
}

func (h *VehicleHandler) RegisterRoutes(router *gin.RouterGroup) {
	vehicles := router.Group("/api/vehicles", middleware.RequireAuth())
	{
		vehicles.GET("", h.ListVehicles)
		vehicles.POST("", h.CreateVehicle)
		vehicles.GET("/plate/:plate", h.GetVehicleByPlate)
		vehicles.GET("/:id", h.GetVehicle)
		vehicles.PUT("/:id", h.UpdateVehicle)
		vehicles.DELETE("/:id", h.DeleteVehicle)
	}
}

// CreateVehicle registers a vehicle owned by the authenticated user
// @Summary      Register vehicle
// @Tags         vehicles
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateVehicleRequest  true  "Create Vehicle Payload"
// @Success      201      {object}  response.Response{data=service.VehicleResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/vehicles [post]
func (h *VehicleHandler) CreateVehicle(c *gin.Context) {
	actorID, _, err := middleware.CurrentActor(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, err.Error()))
		return
	}

	var req service.CreateVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	vehicle, err := h.vehicleService.CreateVehicle(c.Request.Context(), actorID, req)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, vehicle))
}

// ListVehicles returns the authenticated user's vehicles
// @Summary      List own vehicles
// @Tags         vehicles
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]service.VehicleResponse}
// @Router       /api/vehicles [get]
func (h *VehicleHandler) ListVehicles(c *gin.Context) {
	actorID, _, err := middleware.CurrentActor(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, err.Error()))
		return
	}

	vehicles, err := h.vehicleService.ListOwnVehicles(c.Request.Context(), actorID)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, vehicles))
}

// GetVehicle returns one vehicle by id
// @Summary      Get vehicle
// @Tags         vehicles
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Vehicle ID"
// @Success      200  {object}  response.Response{data=service.VehicleResponse}
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/vehicles/{id} [get]
func (h *VehicleHandler) GetVehicle(c *gin.Context) {
	actorID, role, err := middleware.CurrentActor(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, err.Error()))
		return
	}

	vehicle, err := h.vehicleService.GetVehicleByID(c.Request.Context(), c.Param("id"), actorID, role)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, vehicle))
}

// GetVehicleByPlate looks a vehicle up by its plate
// @Summary      Get vehicle by plate
// @Tags         vehicles
// @Security     BearerAuth
// @Produce      json
// @Param        plate  path      string  true  "Vehicle Plate"
// @Success      200    {object}  response.Response{data=service.VehicleResponse}
// @Failure      403    {object}  response.Response
// @Failure      404    {object}  response.Response
// @Router       /api/vehicles/plate/{plate} [get]
func (h *VehicleHandler) GetVehicleByPlate(c *gin.Context) {
	actorID, role, err := middleware.CurrentActor(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, err.Error()))
		return
	}

	vehicle, err := h.vehicleService.GetVehicleByPlate(c.Request.Context(), c.Param("plate"), actorID, role)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, vehicle))
}

// UpdateVehicle edits plate/brand/model
// @Summary      Update vehicle
// @Tags         vehicles
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                        true  "Vehicle ID"
// @Param        payload  body      service.UpdateVehicleRequest  true  "Update Vehicle Payload"
// @Success      200      {object}  response.Response{data=service.VehicleResponse}
// @Failure      403      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/vehicles/{id} [put]
func (h *VehicleHandler) UpdateVehicle(c *gin.Context) {
	actorID, role, err := middleware.CurrentActor(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, err.Error()))
		return
	}

	var req service.UpdateVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	vehicle, err := h.vehicleService.UpdateVehicle(c.Request.Context(), c.Param("id"), req, actorID, role)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, vehicle))
}

// DeleteVehicle removes a vehicle
// @Summary      Delete vehicle
// @Tags         vehicles
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Vehicle ID"
// @Success      200  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/vehicles/{id} [delete]
func (h *VehicleHandler) DeleteVehicle(c *gin.Context) {
	actorID, role, err := middleware.CurrentActor(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, err.Error()))
		return
	}

	removed, err := h.vehicleService.DeleteVehicle(c.Request.Context(), c.Param("id"), actorID, role)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"removed": removed}))
}
