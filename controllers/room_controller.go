package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"hotel-inventory/models"
	"hotel-inventory/services"
	"hotel-inventory/utils"
)

type RoomController struct {
	RoomSvc *services.RoomService
}

func NewRoomController(svc *services.RoomService) *RoomController {
	return &RoomController{RoomSvc: svc}
}

// GET /api/admin/rooms?room_type_id=
func (rc *RoomController) GetRooms(c *gin.Context) {
	typeID, ok := queryUint(c, "room_type_id")
	if !ok {
		return
	}
	rooms, err := rc.RoomSvc.GetAll(c.Request.Context(), typeID)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, rooms)
}

// GET /api/admin/rooms/:id
func (rc *RoomController) GetRoom(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	room, err := rc.RoomSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, room)
}

// POST /api/admin/rooms
func (rc *RoomController) CreateRoom(c *gin.Context) {
	var room models.Room
	if err := c.ShouldBindJSON(&room); err != nil {
		badRequest(c, "invalid request payload")
		return
	}
	room.ID = 0
	room.RoomNumber = strings.TrimSpace(room.RoomNumber)
	if err := rc.RoomSvc.Create(c.Request.Context(), &room); err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusCreated, room)
}

// PATCH /api/admin/rooms/:id/status
func (rc *RoomController) SetStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in StatusPayload
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "status is required")
		return
	}
	room, err := rc.RoomSvc.SetStatus(c.Request.Context(), id, in.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, room)
}
