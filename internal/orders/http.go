// Package orders は注文 API の HTTP ハンドラーを提供します。
package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/order-api/internal/api"
	"github.com/yourusername/order-api/internal/storage"
)

const (
	MsgCreated  = "Order created"
	MsgFetched  = "Order fetched"
	MsgRemoved  = "Order removed"
	MsgNotFound = "Order not found"
	MsgCanceled = "Request canceled"
)

// Store は注文の永続化層が実装します。
type Store interface {
	Create(ctx context.Context, description string) (int64, error)
	Get(ctx context.Context, id int64) (*storage.Order, error)
	List(ctx context.Context) ([]storage.Order, error)
	Deactivate(ctx context.Context, id int64) (int64, error)
}

type createRequest struct {
	Description string `json:"description" binding:"required"`
}

// CreateHandler は POST /orders/create_order のハンドラーを返します。
func CreateHandler(store Store, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			api.BadRequest(c)
			return
		}

		id, err := store.Create(c.Request.Context(), req.Description)
		if err != nil {
			respondWithError(c, logger, err)
			return
		}
		api.Respond(c, http.StatusOK, MsgCreated, gin.H{"orderId": id})
	}
}

// GetHandler は GET /orders/get_one のハンドラーを返します。
func GetHandler(store Store, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseOrderID(c)
		if !ok {
			return
		}

		order, err := store.Get(c.Request.Context(), id)
		if err != nil {
			respondWithError(c, logger, err)
			return
		}
		api.Respond(c, http.StatusOK, MsgFetched, order)
	}
}

// ListHandler は GET /orders/order_list のハンドラーを返します。
func ListHandler(store Store, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		orders, err := store.List(c.Request.Context())
		if err != nil {
			respondWithError(c, logger, err)
			return
		}
		api.Respond(c, http.StatusOK, fmt.Sprintf("Order list fetched (%d records)", len(orders)), orders)
	}
}

// DeleteHandler は /orders/delete_order のハンドラーを返します。注文は論理削除されます。
func DeleteHandler(store Store, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseOrderID(c)
		if !ok {
			return
		}

		n, err := store.Deactivate(c.Request.Context(), id)
		if err != nil {
			respondWithError(c, logger, err)
			return
		}
		if n == 0 {
			api.Respond(c, http.StatusNotFound, MsgNotFound, nil)
			return
		}
		api.Respond(c, http.StatusOK, MsgRemoved, gin.H{"rowsAffected": n})
	}
}

// parseOrderID はクエリの order_id を読み取ります。不正な場合は 400 を返して false になります。
func parseOrderID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Query("order_id"), 10, 64)
	if err != nil || id <= 0 {
		api.BadRequest(c)
		return 0, false
	}
	return id, true
}

func respondWithError(c *gin.Context, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		api.Respond(c, http.StatusNotFound, MsgNotFound, nil)
	case errors.Is(err, context.Canceled):
		api.Respond(c, http.StatusRequestTimeout, MsgCanceled, nil)
	default:
		logger.Error("order store failed", "path", c.FullPath(), "error", err)
		api.InternalError(c)
	}
}
