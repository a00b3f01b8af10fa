package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hotel-inventory/models"
	"hotel-inventory/services"
	"hotel-inventory/utils"
)

type RoomTypeController struct {
	RoomTypeSvc *services.RoomTypeService
}

func NewRoomTypeController(svc *services.RoomTypeService) *RoomTypeController {
	return &RoomTypeController{RoomTypeSvc: svc}
}

// GET /api/room-types (published only)
func (rc *RoomTypeController) GetPublished(c *gin.Context) {
	rc.list(c, true)
}

// GET /api/admin/room-types
func (rc *RoomTypeController) GetAll(c *gin.Context) {
	rc.list(c, false)
}

func (rc *RoomTypeController) list(c *gin.Context, publishedOnly bool) {
	types, err := rc.RoomTypeSvc.GetAll(c.Request.Context(), publishedOnly)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, types)
}

// GET /api/room-types/:id
func (rc *RoomTypeController) GetByID(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	rt, err := rc.RoomTypeSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, rt)
}

// POST /api/admin/room-types
func (rc *RoomTypeController) Create(c *gin.Context) {
	var rt models.RoomType
	if err := c.ShouldBindJSON(&rt); err != nil {
		badRequest(c, "invalid request payload")
		return
	}
	rt.ID = 0
	if err := rc.RoomTypeSvc.Create(c.Request.Context(), &rt); err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusCreated, rt)
}

// PUT /api/admin/room-types/:id
func (rc *RoomTypeController) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in models.RoomType
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request payload")
		return
	}
	rt, err := rc.RoomTypeSvc.Update(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, rt)
}
