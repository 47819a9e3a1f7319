package handler

import (
	"net/http"
	"time"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	paymentService service.PaymentService
}

func NewPaymentHandler(paymentService service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

func (h *PaymentHandler) RegisterRoutes(router *gin.RouterGroup) {
	payments := router.Group("/api/payments", middleware.RequireAuth())
	{
		payments.POST("/pay/:vigenciaId", h.ProcessPayment)
		payments.GET("/me", h.GetMyPayments)
		payments.GET("/vehicle/:vehicleId", h.GetVehiclePayments)
		payments.GET("/admin/all", middleware.RequireAdmin(), h.GetAllPayments)
		payments.GET("/admin/stats", middleware.RequireAdmin(), h.GetPaymentStats)
		payments.GET("/admin/date-range", middleware.RequireAdmin(), h.GetPaymentsByDateRange)
		payments.GET("/:id", h.GetPaymentByID)
	}
}

// ProcessPayment settles a vigencia
// @Summary      Pay vigencia
// @Description  Records the payment and marks the vigencia paid atomically. A second attempt returns 409.
// @Tags         payments
// @Security     BearerAuth
// @Produce      json
// @Param        vigenciaId  path      string  true  "Vigencia ID"
// @Success      201         {object}  response.Response{data=service.PaymentResult}
// @Failure      403         {object}  response.Response
// @Failure      404         {object}  response.Response
// @Failure      409         {object}  response.Response
// @Router       /api/payments/pay/{vigenciaId} [post]
func (h *PaymentHandler) ProcessPayment(c *gin.Context) {
	actorID, role, err := middleware.CurrentActor(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, err.Error()))
		return
	}

	result, err := h.paymentService.ProcessPayment(c.Request.Context(), c.Param("vigenciaId"), actorID, role)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, result))
}

// GetMyPayments lists the authenticated user's payments
// @Summary      List own payments
// @Tags         payments
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]service.PaymentResponse}
// @Router       /api/payments/me [get]
func (h *PaymentHandler) GetMyPayments(c *gin.Context) {
	actorID, _, err := middleware.CurrentActor(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, err.Error()))
		return
	}

	payments, err := h.paymentService.GetUserPayments(c.Request.Context(), actorID)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, payments))
}

// GetVehiclePayments lists payments for a vehicle (owner or admin)
// @Summary      List vehicle payments
// @Tags         payments
// @Security     BearerAuth
// @Produce      json
// @Param        vehicleId  path      string  true  "Vehicle ID"
// @Success      200        {object}  response.Response{data=[]service.PaymentResponse}
// @Failure      403        {object}  response.Response
// @Router       /api/payments/vehicle/{vehicleId} [get]
func (h *PaymentHandler) GetVehiclePayments(c *gin.Context) {
	actorID, role, err := middleware.CurrentActor(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, err.Error()))
		return
	}

	payments, err := h.paymentService.GetVehiclePayments(c.Request.Context(), c.Param("vehicleId"), actorID, role)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, payments))
}

// GetPaymentByID returns one payment (payer or admin)
// @Summary      Get payment
// @Tags         payments
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Payment ID"
// @Success      200  {object}  response.Response{data=service.PaymentResponse}
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/payments/{id} [get]
func (h *PaymentHandler) GetPaymentByID(c *gin.Context) {
	actorID, role, err := middleware.CurrentActor(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, err.Error()))
		return
	}

	payment, err := h.paymentService.GetPaymentByID(c.Request.Context(), c.Param("id"), actorID, role)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, payment))
}

// GetAllPayments lists every payment with payer and vehicle metadata
// @Summary      List all payments (admin)
// @Tags         payments
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Router       /api/payments/admin/all [get]
func (h *PaymentHandler) GetAllPayments(c *gin.Context) {
	params := pagination.Parse(c)

	payments, total, err := h.paymentService.GetAllPayments(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"payments":   payments,
		"pagination": params.MetaFor(total),
	}))
}

// GetPaymentStats aggregates the payment ledger
// @Summary      Payment statistics (admin)
// @Tags         payments
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=model.PaymentStats}
// @Router       /api/payments/admin/stats [get]
func (h *PaymentHandler) GetPaymentStats(c *gin.Context) {
	stats, err := h.paymentService.GetPaymentStats(c.Request.Context())
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, stats))
}

// GetPaymentsByDateRange lists payments between two RFC3339 instants
// @Summary      List payments by date range (admin)
// @Tags         payments
// @Security     BearerAuth
// @Produce      json
// @Param        start  query     string  true  "Start (RFC3339)"
// @Param        end    query     string  true  "End (RFC3339)"
// @Success      200    {object}  response.Response{data=[]service.PaymentResponse}
// @Failure      400    {object}  response.Response
// @Router       /api/payments/admin/date-range [get]
func (h *PaymentHandler) GetPaymentsByDateRange(c *gin.Context) {
	start, err := time.Parse(time.RFC3339, c.Query("start"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid start date, expected RFC3339"))
		return
	}
	end, err := time.Parse(time.RFC3339, c.Query("end"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid end date, expected RFC3339"))
		return
	}

	payments, err := h.paymentService.GetPaymentsByDateRange(c.Request.Context(), start, end)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, payments))
}
