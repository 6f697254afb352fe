// Package httpapi — HTTP-слой сервиса заказов поверх gin.
package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orders/internal/domain"
	"github.com/vladislavdragonenkov/orders/internal/service/orders"
)

// OrderHandler обслуживает HTTP-запросы к заказам.
type OrderHandler struct {
	service *orders.Service
	logger  *log.Entry
}

// NewOrderHandler создаёт HTTP handler поверх оркестратора заказов.
func NewOrderHandler(service *orders.Service, logger *log.Entry) *OrderHandler {
	if logger == nil {
		logger = log.WithField("component", "http")
	}
	return &OrderHandler{service: service, logger: logger}
}

// CreateOrder обрабатывает POST /orders.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	result, err := h.service.Create(c.Request.Context(), req.toItems())
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, fromCreateResult(result))
}

// ListOrders обрабатывает GET /orders с query-параметрами page, limit, status.
func (h *OrderHandler) ListOrders(c *gin.Context) {
	page, err := queryInt(c, "page", 1)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "page must be an integer"})
		return
	}
	limit, err := queryInt(c, "limit", 10)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "limit must be an integer"})
		return
	}

	var status *domain.OrderStatus
	if raw := c.Query("status"); raw != "" {
		parsed, ok := domain.ParseOrderStatus(raw)
		if !ok {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "unknown status: " + raw})
			return
		}
		status = &parsed
	}

	result, err := h.service.List(c.Request.Context(), page, limit, status)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, fromPage(result))
}

// GetOrder обрабатывает GET /orders/:id.
func (h *OrderHandler) GetOrder(c *gin.Context) {
	view, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, fromOrderView(view))
}

// ChangeOrderStatus обрабатывает PATCH /orders/:id/status.
func (h *OrderHandler) ChangeOrderStatus(c *gin.Context) {
	var req changeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	status, ok := domain.ParseOrderStatus(req.Status)
	if !ok {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "unknown status: " + req.Status})
		return
	}

	updated, err := h.service.ChangeStatus(c.Request.Context(), c.Param("id"), status)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, fromOrder(updated))
}

// writeError переводит доменные ошибки в HTTP-статусы.
func (h *OrderHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrStatusTransition):
		c.JSON(http.StatusConflict, errorResponse{Error: err.Error()})
	case domain.IsValidation(err):
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	case domain.IsNotFound(err):
		c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
	case domain.IsUpstreamUnavailable(err):
		c.JSON(http.StatusBadGateway, errorResponse{Error: err.Error()})
	default:
		h.logger.WithError(err).Error("request failed")
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func queryInt(c *gin.Context, name string, fallback int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
