package config

import (
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds everything the API reads from the environment.
type Config struct {
	Env  string `envconfig:"APP_ENV" default:"development"`
	Port string `envconfig:"API_PORT" default:"8080"`

	MongoURI      string `envconfig:"MONGO_URI" required:"true"`
	MongoDatabase string `envconfig:"MONGO_DATABASE" default:"dentaheal"`

	JWTSecret string `envconfig:"JWT_SECRET" required:"true"`

	SMTPHost     string `envconfig:"SMTP_HOST" default:"smtp.gmail.com"`
	SMTPPort     int    `envconfig:"SMTP_PORT" default:"465"`
	SMTPUser     string `envconfig:"SMTP_USER"`
	SMTPPassword string `envconfig:"SMTP_PASSWORD"`

	// Every reminder goes to this single inbox, as in the clinic's
	// original setup.
	ReminderRecipient string `envconfig:"REMINDER_RECIPIENT"`

	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"https://dentaheal.netlify.app"`

	RateLimitRPS   float64 `envconfig:"RATE_LIMIT_RPS" default:"10"`
	RateLimitBurst int     `envconfig:"RATE_LIMIT_BURST" default:"20"`
}

// Load reads a .env file if present, then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	var c Config
	err := envconfig.Process("", &c)
	return c, err
}
