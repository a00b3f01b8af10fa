package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hotel-inventory/services"
	"hotel-inventory/utils"
)

type CatalogController struct {
	PricingSvc *services.PriceComposer
}

func NewCatalogController(svc *services.PriceComposer) *CatalogController {
	return &CatalogController{PricingSvc: svc}
}

// GET /api/catalog
func (cc *CatalogController) Catalog(c *gin.Context) {
	cat, err := cc.PricingSvc.Catalog(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, cat)
}

// GET /api/room-types/:id/rate-variants?check_in&check_out
func (cc *CatalogController) RateVariants(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	r, ok := stayRange(c)
	if !ok {
		return
	}
	variants, err := cc.PricingSvc.RateVariants(c.Request.Context(), id, r)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, variants)
}

// POST /api/quote
func (cc *CatalogController) Quote(c *gin.Context) {
	var sel services.Selection
	if err := c.ShouldBindJSON(&sel); err != nil {
		badRequest(c, "invalid request payload")
		return
	}
	priced, err := cc.PricingSvc.Quote(c.Request.Context(), sel)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, priced)
}
