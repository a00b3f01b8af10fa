package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hotel-inventory/services"
	"hotel-inventory/utils"
)

// ---------------------------
// Payloads
// ---------------------------

type DraftRequest struct {
	Selection services.Selection `json:"selection"`
	Contact   services.Contact   `json:"contact"`
}

type CommitPayload struct {
	Selection services.Selection     `json:"selection"`
	Contact   services.Contact       `json:"contact"`
	Payment   *services.PaymentEvent `json:"payment"`
}

type StatusPayload struct {
	Status string `json:"status" binding:"required"`
}

type InvalidatePayload struct {
	Reason string `json:"reason"`
}

type BookingController struct {
	BookingSvc *services.BookingService
}

func NewBookingController(svc *services.BookingService) *BookingController {
	return &BookingController{BookingSvc: svc}
}

// POST /api/checkout/drafts
func (bc *BookingController) CreateDraft(c *gin.Context) {
	var in DraftRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request payload")
		return
	}
	d, err := bc.BookingSvc.CreateDraft(c.Request.Context(), in.Selection, in.Contact)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusCreated, d)
}

// GET /api/checkout/drafts/:orderId
func (bc *BookingController) GetDraft(c *gin.Context) {
	d, err := bc.BookingSvc.GetDraft(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, d)
}

// POST /api/payments/confirm
func (bc *BookingController) ConfirmPayment(c *gin.Context) {
	var ev services.PaymentEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		badRequest(c, "invalid request payload")
		return
	}
	res, err := bc.BookingSvc.ConfirmPayment(c.Request.Context(), ev)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, committedStatus(res), res)
}

// POST /api/bookings/commit
//
// Only paid bookings come through here; unpaid ones are created by an admin.
func (bc *BookingController) Commit(c *gin.Context) {
	var in CommitPayload
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request payload")
		return
	}
	if in.Payment == nil {
		badRequest(c, "payment is required")
		return
	}
	res, err := bc.BookingSvc.Commit(c.Request.Context(), services.CommitRequest{
		Selection: in.Selection,
		Contact:   in.Contact,
		Payment:   in.Payment,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, committedStatus(res), res)
}

// A replayed payment answers 200 with the booking it already produced.
func committedStatus(res *services.CommitResult) int {
	if res.Replayed {
		return http.StatusOK
	}
	return http.StatusCreated
}

// POST /api/admin/bookings
func (bc *BookingController) CreateManual(c *gin.Context) {
	var in DraftRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request payload")
		return
	}
	res, err := bc.BookingSvc.CreateManual(c.Request.Context(), in.Selection, in.Contact)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusCreated, res)
}

// GET /api/admin/bookings/:id
func (bc *BookingController) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	b, err := bc.BookingSvc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, b)
}

// PATCH /api/admin/bookings/:id/status
func (bc *BookingController) UpdateStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in StatusPayload
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "status is required")
		return
	}
	b, err := bc.BookingSvc.UpdateStatus(c.Request.Context(), id, in.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, b)
}

// POST /api/admin/drafts/:orderId/invalidate
func (bc *BookingController) InvalidateDraft(c *gin.Context) {
	var in InvalidatePayload
	// empty body falls back to the admin reason
	_ = c.ShouldBindJSON(&in)
	d, err := bc.BookingSvc.InvalidateDraft(c.Request.Context(), c.Param("orderId"), in.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, d)
}
