package config

import (
	"errors"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port           string        `envconfig:"PORT" default:"8080"`
	GinMode        string        `envconfig:"GIN_MODE" default:"release"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s"`

	StoreDriver string `envconfig:"STORE_DRIVER" default:"mongo"`
	MongoURI    string `envconfig:"MONGO_URI"`
	DBName      string `envconfig:"DB_NAME" default:"catalog"`

	JWTSecret string        `envconfig:"JWT_SECRET"`
	JWTIssuer string        `envconfig:"JWT_ISSUER" default:"catalog"`
	TokenTTL  time.Duration `envconfig:"TOKEN_TTL" default:"720h"`

	OTPTTL    time.Duration `envconfig:"OTP_TTL" default:"10m"`
	OTPLength int           `envconfig:"OTP_LENGTH" default:"6"`
	OTPEcho   bool          `envconfig:"OTP_ECHO" default:"true"`

	UploadDir       string `envconfig:"UPLOAD_DIR" default:"./uploads"`
	UploadURLPrefix string `envconfig:"UPLOAD_URL_PREFIX" default:"/uploads"`
	BaseURL         string `envconfig:"BASE_URL"`
	MaxImageBytes   int64  `envconfig:"MAX_IMAGE_BYTES" default:"5242880"`
	MaxImages       int    `envconfig:"MAX_IMAGES" default:"5"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	LogDev   bool   `envconfig:"LOG_DEV" default:"false"`

	TwilioSID   string `envconfig:"TWILIO_ACCOUNT_SID"`
	TwilioToken string `envconfig:"TWILIO_AUTH_TOKEN"`
	TwilioFrom  string `envconfig:"TWILIO_FROM_NUMBER"`

	PostmarkServerToken string `envconfig:"POSTMARK_SERVER_TOKEN"`
	PostmarkFrom        string `envconfig:"POSTMARK_FROM"`

	AMQPURL      string `envconfig:"AMQP_URL"`
	AMQPExchange string `envconfig:"AMQP_EXCHANGE" default:"catalog.events"`
}

// Load reads .env (if present) and the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println(".env not loaded:", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, err
	}

	// legacy name kept from the first deployment
	if cfg.MongoURI == "" {
		cfg.MongoURI = getEnvOrDefault("MONGODB_URI", "")
	}
	cfg.UploadURLPrefix = "/" + strings.Trim(cfg.UploadURLPrefix, "/")
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return errors.New("JWT_SECRET is required")
	}
	switch c.StoreDriver {
	case "mongo":
		if c.MongoURI == "" {
			return errors.New("MONGO_URI is required when STORE_DRIVER=mongo")
		}
	case "memory":
	default:
		return errors.New("STORE_DRIVER must be mongo or memory")
	}
	if c.TokenTTL <= 0 || c.OTPTTL <= 0 {
		return errors.New("TOKEN_TTL and OTP_TTL must be positive")
	}
	if c.OTPLength < 4 || c.OTPLength > 10 {
		return errors.New("OTP_LENGTH must be between 4 and 10")
	}
	if c.MaxImageBytes <= 0 || c.MaxImages <= 0 {
		return errors.New("MAX_IMAGE_BYTES and MAX_IMAGES must be positive")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}
