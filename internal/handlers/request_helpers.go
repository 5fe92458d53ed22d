package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"mynature/internal/logger"
	"mynature/internal/service"
	"mynature/internal/store"
)

const storeTimeout = 5 * time.Second

func handlePanic(c *gin.Context, route string) {
	if r := recover(); r != nil {
		logger.Log.Error("panic recovered", zap.String("route", route), zap.Any("panic", r))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func storeContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), storeTimeout)
}

func respondWithError(c *gin.Context, status int, route string, message string) {
	fields := []zap.Field{zap.String("route", route), zap.Int("status", status), zap.String("error", message)}
	if status >= http.StatusInternalServerError {
		logger.Log.Error("request failed", fields...)
	} else {
		logger.Log.Warn("request rejected", fields...)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

// respondWithServiceError maps service and store errors onto the HTTP taxonomy.
func respondWithServiceError(c *gin.Context, route string, err error) {
	var verr *service.ValidationError
	var stockErr *store.StockError

	switch {
	case errors.As(err, &verr):
		respondWithError(c, http.StatusBadRequest, route, verr.Error())
	case errors.As(err, &stockErr):
		body := gin.H{
			"error":     stockErr.Error(),
			"productId": stockErr.ProductID,
			"requested": stockErr.Requested,
		}
		if errors.Is(stockErr, store.ErrInsufficientStock) {
			body["available"] = stockErr.Available
		}
		logger.Log.Warn("order rejected", zap.String("route", route), zap.Error(err))
		c.AbortWithStatusJSON(http.StatusBadRequest, body)
	case errors.Is(err, store.ErrNotFound):
		respondWithError(c, http.StatusNotFound, route, "order not found")
	default:
		respondWithError(c, http.StatusInternalServerError, route, err.Error())
	}
}

// bindingMessage turns a gin binding failure into a field-level message.
func bindingMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid request body"
	}

	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "min":
		return fe.Field() + " must contain at least " + fe.Param() + " item(s)"
	case "gt":
		return fe.Field() + " must be greater than " + fe.Param()
	default:
		return fe.Field() + " is invalid"
	}
}
