package config

import (
	"time"
)

type DB struct {
	Url            string `envconfig:"URL" default:"sqlite://mywatercloset.db"`
	MigrationsPath string `envconfig:"MIGRATIONS_PATH"`
	MaxOpenConns   int    `envconfig:"MAX_OPEN_CONNS" default:"25"`
}

type Jwt struct {
	Secret string        `envconfig:"SECRET" required:"true"`
	Expiry time.Duration `envconfig:"EXPIRY" default:"24h"`
}

type Auth struct {
	Jwt *Jwt `envconfig:"JWT"`
}

type Redis struct {
	URL          string        `envconfig:"URL" default:"redis://localhost:6379/0"`
	PoolSize     int           `envconfig:"POOL_SIZE" default:"10"`
	DialTimeout  time.Duration `envconfig:"DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"3s"`
}

type Kafka struct {
	Brokers     []string `envconfig:"BROKERS" default:"localhost:9092"`
	TopicPrefix string   `envconfig:"TOPIC_PREFIX" default:"mywatercloset"`
}

// EventBus selects the transport used to run post-commit side effects.
type EventBus struct {
	Driver string `envconfig:"DRIVER" default:"memory"` // memory | redis | kafka
	Stream string `envconfig:"STREAM" default:"bookings"`
	Group  string `envconfig:"GROUP" default:"side-effects"`
}

type RateLimit struct {
	MaxRequests int           `envconfig:"MAX_REQUESTS" default:"100"`
	Window      time.Duration `envconfig:"WINDOW" default:"1m"`
	// Storage is memory or redis.
	Storage string `envconfig:"STORAGE" default:"memory"`
}

//revive:disable
type Stripe struct {
	ApiKey               string `envconfig:"API_KEY"`
	SigningSecret        string `envconfig:"SIGNING_SECRET"`
	Currency             string `envconfig:"CURRENCY" default:"usd"`
	OnboardingReturnURL  string `envconfig:"ONBOARDING_RETURN_URL" default:"http://localhost:3000/manage/settings?stripe=success"`
	OnboardingRefreshURL string `envconfig:"ONBOARDING_REFRESH_URL" default:"http://localhost:3000/manage/settings?stripe=refresh"`
}

//revive:enable
type PaymentProviders struct {
	Stripe *Stripe `envconfig:"STRIPE"`
}

// Gateway bounds every outbound call to the payment provider.
type Gateway struct {
	Timeout time.Duration `envconfig:"TIMEOUT" default:"10s"`
}

type Notify struct {
	BrevoApiKey string        `envconfig:"BREVO_API_KEY"`
	BrevoURL    string        `envconfig:"BREVO_URL" default:"https://api.brevo.com/v3/smtp/email"`
	SenderEmail string        `envconfig:"SENDER_EMAIL" default:"noreply@mywatercloset.com"`
	SenderName  string        `envconfig:"SENDER_NAME" default:"MyWaterCloset"`
	FrontendURL string        `envconfig:"FRONTEND_URL" default:"http://localhost:3000"`
	HTTPTimeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"10s"`
}

type Log struct {
	Level      int    `envconfig:"LEVEL" default:"0"`
	Format     string `envconfig:"FORMAT" default:"json"`
	TimeFormat string `envconfig:"TIME_FORMAT" default:"2006-01-02 15:04:05"`
	Prefix     string `envconfig:"PREFIX" default:"[mywatercloset]"`
}

type Server struct {
	Scheme string `envconfig:"SCHEME" default:"http"`
	Host   string `envconfig:"HOST" default:"localhost"`
	Port   int    `envconfig:"PORT" default:"3000"`
}

type App struct {
	Env              string            `envconfig:"APP_ENV" default:"development"`
	Server           *Server           `envconfig:"SERVER"`
	Log              *Log              `envconfig:"LOG"`
	DB               *DB               `envconfig:"DATABASE"`
	Auth             *Auth             `envconfig:"AUTH"`
	Redis            *Redis            `envconfig:"REDIS"`
	Kafka            *Kafka            `envconfig:"KAFKA"`
	EventBus         *EventBus         `envconfig:"EVENT_BUS"`
	RateLimit        *RateLimit        `envconfig:"RATE_LIMIT"`
	PaymentProviders *PaymentProviders `envconfig:"PAYMENT_PROVIDER"`
	Gateway          *Gateway          `envconfig:"GATEWAY"`
	Notify           *Notify           `envconfig:"NOTIFY"`
}
