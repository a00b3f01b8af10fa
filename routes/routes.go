package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"hotel-inventory/controllers"
	"hotel-inventory/middleware"
	"hotel-inventory/utils"
)

// Controllers groups the handlers mounted by SetupRouter.
type Controllers struct {
	Availability *controllers.AvailabilityController
	Catalog      *controllers.CatalogController
	Booking      *controllers.BookingController
	RoomType     *controllers.RoomTypeController
	Room         *controllers.RoomController
	Guest        *controllers.GuestController
	Auth         *controllers.AuthController
	Admin        *controllers.AdminController
}

type Options struct {
	Origins []string
	// UploadDir is served publicly under /uploads.
	UploadDir string
	// DocumentDir holds guest identity scans, served to admins only.
	DocumentDir   string
	JWTSecret     string
	PaymentSecret string
	Log           *logrus.Logger
}

func SetupRouter(h Controllers, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.Logger(opts.Log))
	if opts.UploadDir != "" {
		r.Static("/uploads", opts.UploadDir)
	}

	origins := opts.Origins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	allowCredentials := true
	for _, origin := range origins {
		if origin == "*" {
			allowCredentials = false
			break
		}
	}

	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: allowCredentials,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		api.GET("/availability", h.Availability.Search)
		api.GET("/catalog", h.Catalog.Catalog)
		api.POST("/quote", h.Catalog.Quote)

		roomTypes := api.Group("/room-types")
		{
			roomTypes.GET("", h.RoomType.GetPublished)
			roomTypes.GET("/:id", h.RoomType.GetByID)
			roomTypes.GET("/:id/rate-variants", h.Catalog.RateVariants)
		}

		checkout := api.Group("/checkout")
		{
			checkout.POST("/drafts", h.Booking.CreateDraft)
			checkout.GET("/drafts/:orderId", h.Booking.GetDraft)
		}

		signed := middleware.PaymentSignature(opts.PaymentSecret)
		api.POST("/payments/confirm", signed, h.Booking.ConfirmPayment)
		api.POST("/bookings/commit", signed, h.Booking.Commit)

		auth := api.Group("/auth")
		{
			auth.POST("/login", h.Auth.Login)
		}

		admin := api.Group("/admin", middleware.JWTAuth(opts.JWTSecret), middleware.RequireRole(utils.RoleAdmin))
		{
			admin.GET("/me", h.Admin.Me)
			if opts.DocumentDir != "" {
				admin.Static("/documents", opts.DocumentDir)
			}
			admin.POST("/admins", h.Admin.CreateAdmin)

			admin.GET("/availability/grid", h.Availability.Grid)

			bookings := admin.Group("/bookings")
			{
				bookings.GET("", h.Availability.Bookings)
				bookings.POST("", h.Booking.CreateManual)
				bookings.GET("/:id", h.Booking.Get)
				bookings.PATCH("/:id/status", h.Booking.UpdateStatus)
			}
			admin.POST("/drafts/:orderId/invalidate", h.Booking.InvalidateDraft)

			roomTypes := admin.Group("/room-types")
			{
				roomTypes.GET("", h.RoomType.GetAll)
				roomTypes.POST("", h.RoomType.Create)
				roomTypes.PUT("/:id", h.RoomType.Update)
			}

			rooms := admin.Group("/rooms")
			{
				rooms.GET("", h.Room.GetRooms)
				rooms.POST("", h.Room.CreateRoom)
				rooms.GET("/:id", h.Room.GetRoom)
				rooms.PATCH("/:id/status", h.Room.SetStatus)
			}

			guests := admin.Group("/guests")
			{
				guests.GET("", h.Guest.GetGuests)
				// before /:id
				guests.GET("/lookup", h.Guest.Lookup)
				guests.GET("/:id", h.Guest.GetGuestByID)
				guests.POST("", h.Guest.UpsertGuest)
				guests.PATCH("/:id/blacklist", h.Guest.SetBlacklisted)
				guests.POST("/:id/documents", h.Guest.AttachDocument)
				guests.DELETE("/:id", h.Guest.DeleteGuest)
			}
		}
	}

	return r
}
