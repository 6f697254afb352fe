package httpapi

import (
	"github.com/gin-gonic/gin"
)

// NewRouter собирает gin-роутер с маршрутами заказов.
func NewRouter(handler *OrderHandler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(metricsMiddleware())

	registerOrderRoutes(router.Group("/"), handler)
	return router
}

func registerOrderRoutes(rg *gin.RouterGroup, handler *OrderHandler) {
	ordersGroup := rg.Group("/orders")
	{
		ordersGroup.POST("", handler.CreateOrder)
		ordersGroup.GET("", handler.ListOrders)
		ordersGroup.GET("/:id", handler.GetOrder)
		ordersGroup.PATCH("/:id/status", handler.ChangeOrderStatus)
	}
}
