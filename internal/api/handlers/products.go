package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/urbanedge/storefront-api/internal/catalog"
)

// ProductResponse is one catalog entry projection.
type ProductResponse struct {
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Price float64        `json:"price"`
	Sizes map[string]int `json:"sizes"`
}

// HandleListProducts handles GET /v1/products
func HandleListProducts(cat *catalog.Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		products := cat.Products()
		out := make([]ProductResponse, 0, len(products))
		for _, p := range products {
			out = append(out, ProductResponse{
				ID:    p.ID,
				Name:  p.Name,
				Price: p.Price,
				Sizes: p.Sizes,
			})
		}
		c.JSON(http.StatusOK, gin.H{"products": out})
	}
}
