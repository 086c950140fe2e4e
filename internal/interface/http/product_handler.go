package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	app "github.com/oksasatya/go-ddd-ecommerce/internal/application"
	"github.com/oksasatya/go-ddd-ecommerce/pkg/response"
	"github.com/oksasatya/go-ddd-ecommerce/pkg/validation"
)

const maxPictureBytes = 5 << 20

type ProductHandler struct {
	Catalog *app.CatalogService
	Logger  *logrus.Logger
}

func NewProductHandler(catalog *app.CatalogService, logger *logrus.Logger) *ProductHandler {
	return &ProductHandler{Catalog: catalog, Logger: logger}
}

type createProductRequest struct {
	Name        string           `json:"name" binding:"required,max=200"`
	Description string           `json:"description" binding:"max=5000"`
	Price       *decimal.Decimal `json:"price" binding:"required"`
	Category    string           `json:"category" binding:"required,max=100"`
	Pictures    []string         `json:"pictures" binding:"omitempty,dive,url"`
}

type patchProductRequest struct {
	Name        *string          `json:"name" binding:"omitempty,max=200"`
	Description *string          `json:"description" binding:"omitempty,max=5000"`
	Price       *decimal.Decimal `json:"price"`
	Category    *string          `json:"category" binding:"omitempty,max=100"`
}

type actorRequest struct {
	UserID string `json:"user_id" form:"user_id"`
}

func (h *ProductHandler) List(c *gin.Context) {
	products, err := h.Catalog.List(c.Request.Context())
	if err != nil {
		fail(c, h.Logger, err, "failed to list products")
		return
	}
	response.Success(c, http.StatusOK, products, "products", nil)
}

func (h *ProductHandler) ListByCategory(c *gin.Context) {
	products, err := h.Catalog.ListByCategory(c.Request.Context(), c.Param("category"))
	if err != nil {
		fail(c, h.Logger, err, "failed to list products")
		return
	}
	response.Success(c, http.StatusOK, products, "products", nil)
}

func (h *ProductHandler) Get(c *gin.Context) {
	p, similar, err := h.Catalog.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, app.ErrProductNotFound) {
		response.Error[any](c, http.StatusNotFound, "product not found", nil)
		return
	}
	if err != nil {
		fail(c, h.Logger, err, "failed to load product")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"product": p, "similar": similar}, "product", nil)
}

func (h *ProductHandler) Search(c *gin.Context) {
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))
	products, err := h.Catalog.SearchProducts(c.Request.Context(), c.Query("q"), size)
	if err != nil {
		fail(c, h.Logger, err, "search failed")
		return
	}
	response.Success(c, http.StatusOK, products, "search results", gin.H{"count": len(products)})
}

func (h *ProductHandler) Create(c *gin.Context) {
	var req createProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	products, err := h.Catalog.Create(c.Request.Context(), app.ProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       *req.Price,
		Category:    req.Category,
		Pictures:    req.Pictures,
	})
	if err != nil {
		fail(c, h.Logger, err, "failed to create product")
		return
	}
	response.Success(c, http.StatusCreated, products, "product created", nil)
}

func (h *ProductHandler) Update(c *gin.Context) {
	var req patchProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	p, err := h.Catalog.Update(c.Request.Context(), c.Param("id"), app.ProductPatch{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
	})
	if err != nil {
		fail(c, h.Logger, err, "failed to update product")
		return
	}
	response.Success(c, http.StatusOK, p, "product updated", nil)
}

// Delete removes a product on behalf of the admin named by user_id in the body.
func (h *ProductHandler) Delete(c *gin.Context) {
	var req actorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	products, err := h.Catalog.Delete(c.Request.Context(), req.UserID, c.Param("id"))
	if err != nil {
		failAs(c, h.Logger, err, "failed to delete product", http.StatusBadRequest)
		return
	}
	response.Success(c, http.StatusOK, products, "product deleted", nil)
}

// AddPicture accepts a multipart upload with a "picture" file and a user_id field.
func (h *ProductHandler) AddPicture(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxPictureBytes+1<<20)
	var req actorRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	fh, err := c.FormFile("picture")
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "picture file is required", nil)
		return
	}
	if fh.Size > maxPictureBytes {
		response.Error[any](c, http.StatusRequestEntityTooLarge, "picture too large", nil)
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "unreadable picture", nil)
		return
	}
	defer func() { _ = f.Close() }()

	p, err := h.Catalog.AddPicture(c.Request.Context(), req.UserID, c.Param("id"), f, fh.Filename, fh.Header.Get("Content-Type"))
	if errors.Is(err, app.ErrStorageUnavailable) {
		response.Error[any](c, http.StatusServiceUnavailable, err.Error(), nil)
		return
	}
	if err != nil {
		fail(c, h.Logger, err, "failed to upload picture")
		return
	}
	response.Success(c, http.StatusOK, p, "picture added", nil)
}
