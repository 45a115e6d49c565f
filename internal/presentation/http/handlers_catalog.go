package httppresentation

import (
	"net/http"

	domcatalog "github.com/escabi/escabiapi/internal/domain/catalog"

	"github.com/gin-gonic/gin"
)

func (h *Handler) handleListProducts(c *gin.Context) {
	products, err := h.svc.Catalog.List(c.Request.Context(), c.Query("category"))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	out := make([]productResponse, 0, len(products))
	for _, p := range products {
		out = append(out, toProductResponse(p))
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) handleGetProduct(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	p, err := h.svc.Catalog.Get(c.Request.Context(), id)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProductResponse(p))
}

type createProductRequest struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description"`
	Price       int64    `json:"price" binding:"required"`
	Category    string   `json:"category" binding:"required"`
	Stock       int      `json:"stock"`
	ImageURL    string   `json:"image_url"`
	ABV         *float64 `json:"abv"`
	VolumeML    *int     `json:"volume_ml"`
	Origin      string   `json:"origin"`
}

func (h *Handler) handleCreateProduct(c *gin.Context) {
	var req createProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, http.StatusBadRequest, err.Error())
		return
	}
	p, err := h.svc.Catalog.Create(c.Request.Context(), caller(c), domcatalog.NewProductParams{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		Stock:       req.Stock,
		ImageURL:    req.ImageURL,
		ABV:         req.ABV,
		VolumeML:    req.VolumeML,
		Origin:      req.Origin,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toProductResponse(p))
}
