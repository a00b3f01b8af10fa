package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"hotel-inventory/daterange"
	"hotel-inventory/services"
	"hotel-inventory/utils"
)

type errorShape struct {
	status int
	code   string
}

var errorShapes = map[services.Kind]errorShape{
	services.KindValidation:  {http.StatusBadRequest, "error.validation"},
	services.KindAuth:        {http.StatusUnauthorized, "error.unauthorized"},
	services.KindNotFound:    {http.StatusNotFound, "error.notFound"},
	services.KindSlotTaken:   {http.StatusConflict, "error.slotTaken"},
	services.KindAmount:      {http.StatusConflict, "error.amountMismatch"},
	services.KindDraft:       {http.StatusGone, "error.draftInvalid"},
	services.KindQuery:       {http.StatusServiceUnavailable, "error.queryFailed"},
	services.KindCommand:     {http.StatusServiceUnavailable, "error.commandFailed"},
	services.KindGuestLookup: {http.StatusServiceUnavailable, "error.guestLookup"},
}

// respondError writes the error envelope for err. Errors without a Kind are
// internal and their text is not echoed.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	var e *services.Error
	if !errors.As(err, &e) {
		utils.JSONError(c, http.StatusInternalServerError, "error.internal", "internal error", false)
		return
	}
	shape, ok := errorShapes[e.Kind]
	if !ok {
		shape = errorShape{http.StatusInternalServerError, "error.internal"}
	}
	msg := string(e.Kind)
	if e.Err != nil {
		msg = e.Err.Error()
	}
	if shape.status == http.StatusServiceUnavailable {
		msg = "temporarily unavailable, please retry"
	}
	utils.JSONError(c, shape.status, shape.code, msg, e.Kind.Retryable())
}

func badRequest(c *gin.Context, msg string) {
	utils.JSONError(c, http.StatusBadRequest, "error.validation", msg, false)
}

// paramID reads a positive numeric path parameter, answering 400 otherwise.
func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

func queryUint(c *gin.Context, name string) (uint, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return uint(v), true
}

// stayRange reads check_in and check_out from the query string.
func stayRange(c *gin.Context) (daterange.Range, bool) {
	r, err := daterange.Parse(c.Query("check_in"), c.Query("check_out"))
	if err != nil {
		badRequest(c, err.Error())
		return daterange.Range{}, false
	}
	return r, true
}
