package handlers

import (
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"mynature/internal/logger"
	"mynature/internal/service"
)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	}
}

/* =========================
   CREATE ORDER
========================= */

func CreateOrder(orders *service.OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/orders"
		defer handlePanic(c, route)

		var req service.PlaceOrderInput
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, bindingMessage(err))
			return
		}

		ctx, cancel := storeContext(c)
		defer cancel()

		order, err := orders.PlaceOrder(ctx, req)
		if err != nil {
			respondWithServiceError(c, route, err)
			return
		}

		logger.Log.Info("order created",
			zap.String("route", route),
			zap.String("order_id", order.ID),
			zap.String("total", order.TotalAmount.String()),
		)
		c.JSON(http.StatusOK, order)
	}
}

/* =========================
   ADMIN ORDER OPERATIONS
========================= */

func ListOrders(orders *service.OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/orders"
		defer handlePanic(c, route)

		limit, err := parseLimitParam(c.Query("limit"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		ctx, cancel := storeContext(c)
		defer cancel()

		list, err := orders.List(ctx, c.Query("status"), limit)
		if err != nil {
			respondWithServiceError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

func GetOrder(orders *service.OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/orders/:id"
		defer handlePanic(c, route)

		ctx, cancel := storeContext(c)
		defer cancel()

		order, err := orders.Get(ctx, c.Param("id"))
		if err != nil {
			respondWithServiceError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

func UpdateOrder(orders *service.OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /api/orders/:id"
		defer handlePanic(c, route)

		var req service.UpdateOrderInput
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid request body")
			return
		}

		ctx, cancel := storeContext(c)
		defer cancel()

		order, err := orders.Update(ctx, c.Param("id"), req)
		if err != nil {
			respondWithServiceError(c, route, err)
			return
		}

		logger.Log.Info("order updated", zap.String("order_id", order.ID), zap.String("status", order.Status))
		c.JSON(http.StatusOK, order)
	}
}

func DeleteOrder(orders *service.OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /api/orders/:id"
		defer handlePanic(c, route)

		ctx, cancel := storeContext(c)
		defer cancel()

		if err := orders.Delete(ctx, c.Param("id")); err != nil {
			respondWithServiceError(c, route, err)
			return
		}

		logger.Log.Info("order deleted", zap.String("order_id", c.Param("id")))
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

func GetOrderStats(orders *service.OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/admin/stats"
		defer handlePanic(c, route)

		ctx, cancel := storeContext(c)
		defer cancel()

		stats, err := orders.Stats(ctx)
		if err != nil {
			respondWithServiceError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}
