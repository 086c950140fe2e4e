package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	app "github.com/oksasatya/go-ddd-ecommerce/internal/application"
	"github.com/oksasatya/go-ddd-ecommerce/internal/domain/entity"
	"github.com/oksasatya/go-ddd-ecommerce/pkg/response"
	"github.com/oksasatya/go-ddd-ecommerce/pkg/validation"
)

type CartHandler struct {
	Cart   *app.CartService
	Logger *logrus.Logger
}

func NewCartHandler(cart *app.CartService, logger *logrus.Logger) *CartHandler {
	return &CartHandler{Cart: cart, Logger: logger}
}

type cartRequest struct {
	UserID    string           `json:"userId" binding:"required"`
	ProductID string           `json:"productId" binding:"required,pid"`
	Price     *decimal.Decimal `json:"price" binding:"required"`
}

func (h *CartHandler) mutate(op entity.CartOp) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req cartRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
			return
		}
		u, err := h.Cart.Apply(c.Request.Context(), req.UserID, op, req.ProductID, *req.Price)
		if err != nil {
			failAs(c, h.Logger, err, "cart update failed", http.StatusBadRequest)
			return
		}
		response.Success(c, http.StatusOK, u, "cart updated", nil)
	}
}

func (h *CartHandler) AddToCart() gin.HandlerFunc      { return h.mutate(entity.CartAdd) }
func (h *CartHandler) IncreaseCart() gin.HandlerFunc   { return h.mutate(entity.CartIncrease) }
func (h *CartHandler) DecreaseCart() gin.HandlerFunc   { return h.mutate(entity.CartDecrease) }
func (h *CartHandler) RemoveFromCart() gin.HandlerFunc { return h.mutate(entity.CartRemove) }
