package config

import (
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"

	"hotel-inventory/services"
	"hotel-inventory/utils"
)

type App struct {
	// HTTP
	Port        string `envconfig:"PORT" default:"8080"`
	CorsOrigins string `envconfig:"CORS_ORIGINS"`
	FrontendURL string `envconfig:"FRONTEND_URL" default:"http://localhost:3000"`
	UploadDir   string `envconfig:"UPLOAD_DIR" default:"uploads"`
	// DocumentDir must not sit inside UploadDir.
	DocumentDir string `envconfig:"DOCUMENT_DIR" default:"private/documents"`

	// DB
	DBDriver    string `envconfig:"DB_DRIVER" default:"mysql"`
	DatabaseURL string `envconfig:"DATABASE_URL"`
	MySQLURL    string `envconfig:"MYSQL_URL"`
	DBHost      string `envconfig:"DB_HOST" default:"127.0.0.1"`
	DBPort      string `envconfig:"DB_PORT"`
	DBUser      string `envconfig:"DB_USER" default:"root"`
	DBPass      string `envconfig:"DB_PASS"`
	DBName      string `envconfig:"DB_NAME" default:"hotel_db"`
	DBSeed      bool   `envconfig:"DB_SEED" default:"true"`
	DBLogLevel  string `envconfig:"DB_LOG_LEVEL" default:"warn"`

	// JWT
	JWTSecret    string `envconfig:"JWT_SECRET" required:"true"`
	JWTExpireMin int    `envconfig:"JWT_EXPIRE_MIN" default:"720"`

	// Payment callbacks over HTTP are signed with this; empty refuses them.
	PaymentWebhookSecret string `envconfig:"PAYMENT_WEBHOOK_SECRET"`

	// Booking engine
	QueryTimeout        time.Duration `envconfig:"QUERY_TIMEOUT" default:"5s"`
	DraftTTL            time.Duration `envconfig:"DRAFT_TTL" default:"30m"`
	PhoneCountryPrefix  string        `envconfig:"PHONE_COUNTRY_PREFIX" default:"91"`
	PhoneNationalDigits int           `envconfig:"PHONE_NATIONAL_DIGITS" default:"10"`

	// Messaging; an empty RabbitURL disables it.
	RabbitURL       string `envconfig:"RABBIT_URL"`
	PaymentExchange string `envconfig:"PAYMENT_EXCHANGE" default:"payment.exchange"`
	PaymentQueue    string `envconfig:"PAYMENT_QUEUE" default:"hotel-inventory.payments"`
	BookingExchange string `envconfig:"BOOKING_EXCHANGE" default:"booking.exchange"`
	Prefetch        int    `envconfig:"RABBIT_PREFETCH" default:"8"`

	// SMTP; unset means confirmation mails are only logged.
	SMTPHost     string `envconfig:"SMTP_HOST"`
	SMTPPort     string `envconfig:"SMTP_PORT" default:"587"`
	SMTPUser     string `envconfig:"SMTP_USER"`
	SMTPPass     string `envconfig:"SMTP_PASS"`
	SMTPFromName string `envconfig:"SMTP_FROM_NAME" default:"Hotel Reservations"`

	// Logging
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`
}

func Load() (App, error) {
	var c App
	err := envconfig.Process("", &c)
	return c, err
}

// Origins splits CORS_ORIGINS; empty means any origin.
func (c App) Origins() []string {
	var out []string
	for _, part := range strings.Split(c.CorsOrigins, ",") {
		if o := strings.TrimSpace(part); o != "" {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

func (c App) JWTTTL() time.Duration {
	return time.Duration(c.JWTExpireMin) * time.Minute
}

func (c App) SMTP() utils.SMTPConfig {
	return utils.SMTPConfig{
		Host:     c.SMTPHost,
		Port:     c.SMTPPort,
		Username: c.SMTPUser,
		Password: c.SMTPPass,
		FromName: c.SMTPFromName,
	}
}

func (c App) ServiceOptions(log *logrus.Logger) services.Options {
	return services.Options{
		QueryTimeout: c.QueryTimeout,
		DraftTTL:     c.DraftTTL,
		Phone:        services.PhoneRule{CountryPrefix: c.PhoneCountryPrefix, NationalDigits: c.PhoneNationalDigits},
		Log:          log,
	}
}

// NewLogger builds the process logger. Unknown levels fall back to info.
func NewLogger(c App) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)
	if strings.EqualFold(c.LogFormat, "json") {
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log
}
