package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotel-inventory/config"
	"hotel-inventory/controllers"
	"hotel-inventory/middleware"
	"hotel-inventory/repository"
	"hotel-inventory/services"
	"hotel-inventory/utils"
)

const (
	jwtSecret     = "routes-test-secret"
	paymentSecret = "routes-test-payments"
)

type env struct {
	t         *testing.T
	router    *gin.Engine
	booking   *services.BookingService
	token     string
	documents string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log, _ := test.NewNullLogger()

	store := repository.NewMemoryStore()
	require.NoError(t, config.SeedDatabase(context.Background(), store, log))

	opts := services.Options{QueryTimeout: 2 * time.Second, DraftTTL: 10 * time.Minute, Log: log}
	availability := services.NewAvailabilityService(store, opts)
	pricing := services.NewPriceComposer(store, opts)
	booking := services.NewBookingService(store, pricing, availability, opts)
	admin := services.NewAdminService(store, jwtSecret, time.Hour, opts)
	uploads := t.TempDir()
	documents := t.TempDir()

	r := SetupRouter(Controllers{
		Availability: controllers.NewAvailabilityController(availability),
		Catalog:      controllers.NewCatalogController(pricing),
		Booking:      controllers.NewBookingController(booking),
		RoomType:     controllers.NewRoomTypeController(services.NewRoomTypeService(store, opts)),
		Room:         controllers.NewRoomController(services.NewRoomService(store, opts)),
		Guest:        controllers.NewGuestController(services.NewGuestService(store, opts), documents),
		Auth:         controllers.NewAuthController(admin),
		Admin:        controllers.NewAdminController(admin, utils.SMTPConfig{}, "http://localhost:5173/admin/login", log),
	}, Options{
		Origins:       []string{"http://localhost:5173"},
		UploadDir:     uploads,
		DocumentDir:   documents,
		JWTSecret:     jwtSecret,
		PaymentSecret: paymentSecret,
		Log:           log,
	})

	e := &env{t: t, router: r, booking: booking, documents: documents}
	t.Cleanup(booking.Wait)
	return e
}

func (e *env) do(method, path string, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	return e.send(method, path, body, "")
}

// assertNoBookings checks through the admin API that nothing was booked.
func (e *env) assertNoBookings(checkIn, checkOut string) {
	e.t.Helper()
	e.login()
	w := e.do(http.MethodGet, "/api/admin/bookings?check_in="+checkIn+"&check_out="+checkOut, nil)
	require.Equal(e.t, http.StatusOK, w.Code, w.Body.String())
	var out struct {
		Data []json.RawMessage `json:"data"`
	}
	decode(e.t, w, &out)
	assert.Empty(e.t, out.Data)
}

// pay posts body the way the payment provider does, signed with secret.
func (e *env) pay(path, secret string, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(e.t, err)
	return e.send(http.MethodPost, path, json.RawMessage(raw), middleware.Sign(secret, raw))
}

func (e *env) send(method, path string, body any, signature string) *httptest.ResponseRecorder {
	e.t.Helper()
	var buf bytes.Buffer
	if raw, ok := body.(json.RawMessage); ok {
		buf.Write(raw)
	} else if body != nil {
		require.NoError(e.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if e.token != "" {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}
	if signature != "" {
		req.Header.Set(middleware.SignatureHeader, signature)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *env) login() {
	e.t.Helper()
	w := e.do(http.MethodPost, "/api/auth/login", map[string]string{"username": "admin@hotel.local", "password": "admin123"})
	require.Equal(e.t, http.StatusOK, w.Code, w.Body.String())
	var out struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	decode(e.t, w, &out)
	require.NotEmpty(e.t, out.Data.Token)
	e.token = out.Data.Token
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

type errBody struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		Retryable bool   `json:"retryable"`
	} `json:"error"`
}

func errorOf(t *testing.T, w *httptest.ResponseRecorder) errBody {
	var e errBody
	decode(t, w, &e)
	return e
}

// roomTypeID finds a seeded room type by name.
func (e *env) roomTypeID(name string) uint {
	e.t.Helper()
	w := e.do(http.MethodGet, "/api/room-types", nil)
	require.Equal(e.t, http.StatusOK, w.Code)
	var out struct {
		Data []struct {
			ID   uint   `json:"id"`
			Name string `json:"name"`
		} `json:"data"`
	}
	decode(e.t, w, &out)
	for _, rt := range out.Data {
		if rt.Name == name {
			return rt.ID
		}
	}
	e.t.Fatalf("room type %s not seeded", name)
	return 0
}

type draftOut struct {
	Data struct {
		OrderID     string `json:"order_id"`
		QuotedTotal int64  `json:"quoted_total"`
		Status      string `json:"status"`
	} `json:"data"`
}

type commitOut struct {
	Data struct {
		Booking struct {
			ID            uint   `json:"id"`
			BookingCode   string `json:"bookingCode"`
			PaymentStatus string `json:"paymentStatus"`
			TotalAmount   int64  `json:"totalAmount"`
		} `json:"booking"`
		Replayed bool `json:"replayed"`
	} `json:"data"`
}

func contact() map[string]string {
	return map[string]string{"first_name": "Ana", "last_name": "Costa", "email": "ana@example.com", "phone": "+91 98765 43210"}
}

func TestHealth(t *testing.T) {
	e := newEnv(t)
	w := e.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestAvailabilitySearch(t *testing.T) {
	e := newEnv(t)

	w := e.do(http.MethodGet, "/api/availability?check_in=2031-03-01&check_out=2031-03-03&guests=3", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var out struct {
		Data []struct {
			RoomType struct {
				Name string `json:"name"`
			} `json:"room_type"`
			AvailableCount int   `json:"available_count"`
			Nights         int   `json:"nights"`
			StayPrice      int64 `json:"stay_price"`
		} `json:"data"`
	}
	decode(t, w, &out)
	require.Len(t, out.Data, 3)
	assert.Equal(t, "Superior", out.Data[0].RoomType.Name)
	assert.Equal(t, 3, out.Data[0].AvailableCount)
	assert.Equal(t, 2, out.Data[0].Nights)
	assert.Equal(t, int64(15000), out.Data[0].StayPrice)
	assert.Equal(t, "Connecting", out.Data[2].RoomType.Name)

	w = e.do(http.MethodGet, "/api/availability?check_in=2031-03-05&check_out=2031-03-05&guests=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"success","data":[]}`, w.Body.String())

	w = e.do(http.MethodGet, "/api/availability?check_in=tomorrow&check_out=2031-03-05", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "error.validation", errorOf(t, w).Error.Code)
}

func TestQuote(t *testing.T) {
	e := newEnv(t)
	standard := e.roomTypeID("Standard")

	w := e.do(http.MethodPost, "/api/quote", map[string]any{
		"room_type_id": standard, "check_in": "2031-03-01", "check_out": "2031-03-03", "guests": 2, "meal_plan": "half-board",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var out struct {
		Data struct {
			Quote struct {
				Total  int64 `json:"total"`
				Nights int   `json:"nights"`
			} `json:"quote"`
		} `json:"data"`
	}
	decode(t, w, &out)
	// 6500*2 room + (300+500)*2 guests*2 nights
	assert.Equal(t, int64(16200), out.Data.Quote.Total)
	assert.Equal(t, 2, out.Data.Quote.Nights)

	w = e.do(http.MethodPost, "/api/quote", map[string]any{
		"room_type_id": standard, "check_in": "2031-03-01", "check_out": "2031-03-03", "guests": 9,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCatalog(t *testing.T) {
	e := newEnv(t)
	w := e.do(http.MethodGet, "/api/catalog", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var out struct {
		Data services.Catalog `json:"data"`
	}
	decode(t, w, &out)
	assert.Len(t, out.Data.Addons, 3)
	assert.Len(t, out.Data.MealRates, 4)
	assert.Len(t, out.Data.Pickups, 2)
	assert.Len(t, out.Data.Bedding, 2)

	year := time.Now().UTC().Year()
	path := "/api/room-types/" + uintStr(e.roomTypeID("Deluxe")) + "/rate-variants?check_in=" +
		dateStr(year, 6, 1) + "&check_out=" + dateStr(year, 6, 4)
	w = e.do(http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var variants struct {
		Data []services.PricedVariant `json:"data"`
	}
	decode(t, w, &variants)
	require.Len(t, variants.Data, 2)
	assert.Equal(t, int64(8500*3), variants.Data[0].RoomRate)
}

func TestDraftThenPaymentCommitsOnce(t *testing.T) {
	e := newEnv(t)
	connecting := e.roomTypeID("Connecting")
	sel := map[string]any{"room_type_id": connecting, "check_in": "2031-04-10", "check_out": "2031-04-12", "guests": 2}

	w := e.do(http.MethodPost, "/api/checkout/drafts", map[string]any{"selection": sel, "contact": contact()})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var d draftOut
	decode(t, w, &d)
	require.NotEmpty(t, d.Data.OrderID)
	assert.Equal(t, int64(24000), d.Data.QuotedTotal)

	w = e.pay("/api/payments/confirm", paymentSecret, map[string]any{"paymentId": "pay_1", "orderId": d.Data.OrderID, "amountCharged": 23000})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "error.amountMismatch", errorOf(t, w).Error.Code)

	w = e.pay("/api/payments/confirm", paymentSecret, map[string]any{"paymentId": "pay_2", "orderId": d.Data.OrderID, "amountCharged": 24000})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var first commitOut
	decode(t, w, &first)
	assert.Equal(t, "confirmed", first.Data.Booking.PaymentStatus)
	assert.Equal(t, int64(24000), first.Data.Booking.TotalAmount)

	w = e.pay("/api/payments/confirm", paymentSecret, map[string]any{"paymentId": "pay_2", "orderId": d.Data.OrderID, "amountCharged": 24000})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var again commitOut
	decode(t, w, &again)
	assert.True(t, again.Data.Replayed)
	assert.Equal(t, first.Data.Booking.ID, again.Data.Booking.ID)

	// the only connecting unit is now taken
	w = e.do(http.MethodPost, "/api/checkout/drafts", map[string]any{"selection": sel, "contact": contact()})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "error.slotTaken", errorOf(t, w).Error.Code)
}

func TestDirectCommit(t *testing.T) {
	e := newEnv(t)
	standard := e.roomTypeID("Standard")
	w := e.pay("/api/bookings/commit", paymentSecret, map[string]any{
		"selection": map[string]any{"room_type_id": standard, "check_in": "2031-05-01", "check_out": "2031-05-02", "guests": 1},
		"contact":   contact(),
		"payment":   map[string]any{"paymentId": "pay_direct", "amountCharged": 6500},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var out commitOut
	decode(t, w, &out)
	assert.NotEmpty(t, out.Data.Booking.BookingCode)
	assert.Equal(t, "confirmed", out.Data.Booking.PaymentStatus)
}

func TestCommitWithoutPaymentIsRefused(t *testing.T) {
	e := newEnv(t)
	standard := e.roomTypeID("Standard")
	body := map[string]any{
		"selection": map[string]any{"room_type_id": standard, "check_in": "2031-05-01", "check_out": "2031-05-02", "guests": 1},
		"contact":   contact(),
	}

	w := e.do(http.MethodPost, "/api/bookings/commit", body)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.pay("/api/bookings/commit", paymentSecret, body)
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	assert.Equal(t, "error.validation", errorOf(t, w).Error.Code)

	e.assertNoBookings("2031-05-01", "2031-05-02")
}

func TestPaymentCallbacksNeedSignature(t *testing.T) {
	e := newEnv(t)
	standard := e.roomTypeID("Standard")
	commit := map[string]any{
		"selection": map[string]any{"room_type_id": standard, "check_in": "2031-05-01", "check_out": "2031-05-02", "guests": 1},
		"contact":   contact(),
		"payment":   map[string]any{"paymentId": "pay_forged", "amountCharged": 6500},
	}

	w := e.do(http.MethodPost, "/api/bookings/commit", commit)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "error.unauthorized", errorOf(t, w).Error.Code)

	w = e.pay("/api/bookings/commit", "guessed-secret", commit)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.do(http.MethodPost, "/api/payments/confirm", map[string]any{"paymentId": "pay_forged", "orderId": "nope", "amountCharged": 6500})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	e.assertNoBookings("2031-05-01", "2031-05-02")
}

func TestAdminRequiresToken(t *testing.T) {
	e := newEnv(t)
	w := e.do(http.MethodGet, "/api/admin/rooms", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.do(http.MethodPost, "/api/auth/login", map[string]string{"username": "admin@hotel.local", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "error.unauthorized", errorOf(t, w).Error.Code)
}

func TestAdminBookingLifecycle(t *testing.T) {
	e := newEnv(t)
	e.login()
	superior := e.roomTypeID("Superior")

	w := e.do(http.MethodPost, "/api/admin/bookings", map[string]any{
		"selection": map[string]any{"room_type_id": superior, "check_in": "2031-06-01", "check_out": "2031-06-04", "guests": 2},
		"contact":   contact(),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created commitOut
	decode(t, w, &created)
	assert.Equal(t, "pending", created.Data.Booking.PaymentStatus)
	id := uintStr(created.Data.Booking.ID)

	w = e.do(http.MethodPatch, "/api/admin/bookings/"+id+"/status", map[string]string{"status": "completed"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(http.MethodPatch, "/api/admin/bookings/"+id+"/status", map[string]string{"status": "confirmed"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = e.do(http.MethodGet, "/api/admin/bookings?check_in=2031-06-01&check_out=2031-06-30", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Data []struct {
			ID            uint   `json:"id"`
			PaymentStatus string `json:"paymentStatus"`
		} `json:"data"`
	}
	decode(t, w, &list)
	require.Len(t, list.Data, 1)
	assert.Equal(t, "confirmed", list.Data[0].PaymentStatus)

	w = e.do(http.MethodGet, "/api/admin/availability/grid?check_in=2031-06-01&check_out=2031-06-05&room_type_id="+uintStr(superior), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var grid struct {
		Data []services.UnitGrid `json:"data"`
	}
	decode(t, w, &grid)
	require.Len(t, grid.Data, 3)
	booked := 0
	for _, u := range grid.Data {
		require.Len(t, u.Days, 4)
		if u.Days[0].Status == services.DayConfirmed {
			booked++
			assert.Equal(t, services.DayAvailable, u.Days[3].Status)
		}
	}
	assert.Equal(t, 1, booked)

	w = e.do(http.MethodGet, "/api/admin/bookings/999999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "error.notFound", errorOf(t, w).Error.Code)
}

func TestAdminInvalidatesDraft(t *testing.T) {
	e := newEnv(t)
	deluxe := e.roomTypeID("Deluxe")
	w := e.do(http.MethodPost, "/api/checkout/drafts", map[string]any{
		"selection": map[string]any{"room_type_id": deluxe, "check_in": "2031-07-01", "check_out": "2031-07-02", "guests": 2},
		"contact":   contact(),
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var d draftOut
	decode(t, w, &d)

	e.login()
	w = e.do(http.MethodPost, "/api/admin/drafts/"+d.Data.OrderID+"/invalidate", map[string]string{"reason": "price_changed"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	e.token = ""
	w = e.pay("/api/payments/confirm", paymentSecret, map[string]any{"paymentId": "pay_x", "orderId": d.Data.OrderID, "amountCharged": d.Data.QuotedTotal})
	assert.Equal(t, http.StatusGone, w.Code)
	assert.Equal(t, "error.draftInvalid", errorOf(t, w).Error.Code)
}

func TestAdminRoomsAndGuests(t *testing.T) {
	e := newEnv(t)
	e.login()
	standard := e.roomTypeID("Standard")

	w := e.do(http.MethodPost, "/api/admin/rooms", map[string]any{"roomTypeId": standard, "roomNumber": "105"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var room struct {
		Data struct {
			ID     uint   `json:"ID"`
			Status string `json:"status"`
		} `json:"data"`
	}
	decode(t, w, &room)
	assert.Equal(t, "active", room.Data.Status)

	w = e.do(http.MethodPost, "/api/admin/rooms", map[string]any{"roomTypeId": standard, "roomNumber": "105"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(http.MethodPatch, "/api/admin/rooms/"+uintStr(room.Data.ID)+"/status", map[string]string{"status": "maintenance"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = e.do(http.MethodPost, "/api/admin/guests", contact())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var guest struct {
		Data struct {
			ID uint `json:"id"`
		} `json:"data"`
	}
	decode(t, w, &guest)

	w = e.do(http.MethodPost, "/api/admin/guests", contact())
	assert.Equal(t, http.StatusOK, w.Code)

	w = e.do(http.MethodGet, "/api/admin/guests/lookup?phone=9876543210", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &guest)
	assert.NotZero(t, guest.Data.ID)

	w = e.do(http.MethodGet, "/api/admin/guests/lookup?email=nobody@example.com", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"success","data":null}`, w.Body.String())

	gid := uintStr(guest.Data.ID)
	w = e.do(http.MethodPost, "/api/admin/guests/"+gid+"/documents", map[string]string{
		"idType": "passport", "idNumber": "P1234567", "imageBase64": "data:image/png;base64,iVBORw0KGgo=",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var doc struct {
		Data struct {
			ImagePath string `json:"imagePath"`
		} `json:"data"`
	}
	decode(t, w, &doc)
	_, err := os.Stat(doc.Data.ImagePath)
	assert.NoError(t, err)
	assert.Equal(t, e.documents, filepath.Dir(filepath.FromSlash(doc.Data.ImagePath)))

	// scans are only served to admins
	name := filepath.Base(doc.Data.ImagePath)
	w = e.do(http.MethodGet, "/api/admin/documents/"+name, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = e.do(http.MethodGet, "/uploads/"+name, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = e.do(http.MethodGet, "/uploads/documents/"+name, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	token := e.token
	e.token = ""
	w = e.do(http.MethodGet, "/api/admin/documents/"+name, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	e.token = token

	// a rejected document leaves no file behind
	image := "data:image/png;base64,iVBORw0KGgo="
	w = e.do(http.MethodPost, "/api/admin/guests/999999/documents", map[string]string{"idType": "passport", "idNumber": "P1", "imageBase64": image})
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = e.do(http.MethodPost, "/api/admin/guests/"+gid+"/documents", map[string]string{"idType": "  ", "idNumber": "P1", "imageBase64": image})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	files, err := os.ReadDir(e.documents)
	require.NoError(t, err)
	assert.Len(t, files, 1)

	w = e.do(http.MethodPatch, "/api/admin/guests/"+gid+"/blacklist", map[string]any{"blacklisted": true, "reason": "chargeback"})
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(http.MethodDelete, "/api/admin/guests/"+gid, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func uintStr(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}

func dateStr(y, m, d int) string {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC).Format("2006-01-02")
}

func TestAdminCreatesAdmin(t *testing.T) {
	e := newEnv(t)
	e.login()

	w := e.do(http.MethodPost, "/api/admin/admins", map[string]string{"full_name": "Night Manager", "username": "night@hotel.local", "password": "s3cret-pass"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = e.do(http.MethodPost, "/api/admin/admins", map[string]string{"username": "night@hotel.local", "password": "s3cret-pass"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	e.token = ""
	w = e.do(http.MethodPost, "/api/auth/login", map[string]string{"username": "night@hotel.local", "password": "s3cret-pass"})
	assert.Equal(t, http.StatusOK, w.Code)
}
