package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"hotel-inventory/models"
	"hotel-inventory/services"
	"hotel-inventory/utils"
)

type AvailabilityController struct {
	AvailabilitySvc *services.AvailabilityService
}

func NewAvailabilityController(svc *services.AvailabilityService) *AvailabilityController {
	return &AvailabilityController{AvailabilitySvc: svc}
}

// GET /api/availability?check_in&check_out&guests&room_type_id
func (ac *AvailabilityController) Search(c *gin.Context) {
	r, ok := stayRange(c)
	if !ok {
		return
	}
	guests, err := strconv.Atoi(c.DefaultQuery("guests", "1"))
	if err != nil {
		badRequest(c, "invalid guests")
		return
	}
	typeID, ok := queryUint(c, "room_type_id")
	if !ok {
		return
	}

	rooms, err := ac.AvailabilitySvc.Search(c.Request.Context(), services.SearchRequest{Range: r, Guests: guests, RoomTypeID: typeID})
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, rooms)
}

// GET /api/admin/availability/grid?check_in&check_out&room_type_id
func (ac *AvailabilityController) Grid(c *gin.Context) {
	r, ok := stayRange(c)
	if !ok {
		return
	}
	typeID, ok := queryUint(c, "room_type_id")
	if !ok {
		return
	}
	grid, err := ac.AvailabilitySvc.GridStatus(c.Request.Context(), typeID, r)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, grid)
}

// GET /api/admin/bookings?check_in&check_out&status
func (ac *AvailabilityController) Bookings(c *gin.Context) {
	r, ok := stayRange(c)
	if !ok {
		return
	}
	status := c.Query("status")
	if status != "" && !models.ValidPaymentStatus(status) {
		badRequest(c, "unknown status "+strconv.Quote(status))
		return
	}
	list, err := ac.AvailabilitySvc.Bookings(c.Request.Context(), r, status)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, list)
}
