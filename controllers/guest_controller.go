package controllers

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"hotel-inventory/models"
	"hotel-inventory/services"
	"hotel-inventory/utils"
)

type GuestController struct {
	GuestSvc *services.GuestService
	// DocumentDir receives identity scans. It is not publicly served.
	DocumentDir string
}

func NewGuestController(svc *services.GuestService, documentDir string) *GuestController {
	return &GuestController{GuestSvc: svc, DocumentDir: documentDir}
}

type BlacklistPayload struct {
	Blacklisted bool   `json:"blacklisted"`
	Reason      string `json:"reason"`
}

type DocumentPayload struct {
	IDType          string `json:"idType" binding:"required"`
	IDNumber        string `json:"idNumber" binding:"required"`
	IDIssuedCountry string `json:"idIssuedCountry"`
	// ImageBase64 may be a raw payload or a data URI.
	ImageBase64 string `json:"imageBase64"`
}

// GET /api/admin/guests?q=
func (gc *GuestController) GetGuests(ctx *gin.Context) {
	guests, err := gc.GuestSvc.List(ctx.Request.Context(), strings.TrimSpace(ctx.Query("q")))
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.JSONSuccess(ctx, http.StatusOK, guests)
}

// GET /api/admin/guests/lookup?email=&phone=
// A miss is a 200 with null data, not an error.
func (gc *GuestController) Lookup(ctx *gin.Context) {
	g, err := gc.GuestSvc.Lookup(ctx.Request.Context(), ctx.Query("email"), ctx.Query("phone"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.JSONSuccess(ctx, http.StatusOK, g)
}

// GET /api/admin/guests/:id
func (gc *GuestController) GetGuestByID(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	g, err := gc.GuestSvc.Get(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.JSONSuccess(ctx, http.StatusOK, g)
}

// POST /api/admin/guests
func (gc *GuestController) UpsertGuest(ctx *gin.Context) {
	var in services.Contact
	if err := ctx.ShouldBindJSON(&in); err != nil {
		badRequest(ctx, "invalid request payload")
		return
	}
	g, created, err := gc.GuestSvc.Upsert(ctx.Request.Context(), in)
	if err != nil {
		respondError(ctx, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	utils.JSONSuccess(ctx, status, g)
}

// PATCH /api/admin/guests/:id/blacklist
func (gc *GuestController) SetBlacklisted(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	var in BlacklistPayload
	if err := ctx.ShouldBindJSON(&in); err != nil {
		badRequest(ctx, "invalid request payload")
		return
	}
	g, err := gc.GuestSvc.SetBlacklisted(ctx.Request.Context(), id, in.Blacklisted, in.Reason)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.JSONSuccess(ctx, http.StatusOK, g)
}

// POST /api/admin/guests/:id/documents
func (gc *GuestController) AttachDocument(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	var in DocumentPayload
	if err := ctx.ShouldBindJSON(&in); err != nil {
		badRequest(ctx, "idType and idNumber are required")
		return
	}

	doc := models.GuestDocument{
		IDType:          strings.TrimSpace(in.IDType),
		IDNumber:        strings.TrimSpace(in.IDNumber),
		IDIssuedCountry: strings.TrimSpace(in.IDIssuedCountry),
	}
	if doc.IDType == "" || doc.IDNumber == "" {
		badRequest(ctx, "idType and idNumber are required")
		return
	}
	if _, err := gc.GuestSvc.Get(ctx.Request.Context(), id); err != nil {
		respondError(ctx, err)
		return
	}

	var saved string
	if in.ImageBase64 != "" {
		path, err := utils.SaveBase64Image(in.ImageBase64, gc.DocumentDir, "guest_doc")
		if err != nil {
			badRequest(ctx, "invalid document image")
			return
		}
		saved = path
		doc.ImagePath = filepath.ToSlash(path)
	}

	if err := gc.GuestSvc.AttachDocument(ctx.Request.Context(), id, &doc); err != nil {
		if saved != "" {
			_ = os.Remove(saved)
		}
		respondError(ctx, err)
		return
	}
	utils.JSONSuccess(ctx, http.StatusCreated, doc)
}

// DELETE /api/admin/guests/:id is always refused.
func (gc *GuestController) DeleteGuest(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	respondError(ctx, gc.GuestSvc.Delete(ctx.Request.Context(), id))
}
