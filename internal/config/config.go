package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"

	applog "easybake/internal/log"
)

// Storefront configures the customer-facing BFF server.
type Storefront struct {
	Env           string `envconfig:"ENV" default:"development"`
	Addr          string `envconfig:"ADDR" default:":8080"`
	LogFile       string `envconfig:"LOG_FILE"`
	SecureCookies bool   `envconfig:"SECURE_COOKIES" default:"false"`

	Backend BackendClient

	VATRate     string `envconfig:"VAT_RATE" default:"0.10"`
	Currency    string `envconfig:"CURRENCY" default:"BHD"`
	DeliveryFee string `envconfig:"DELIVERY_FEE" default:"1.000"`
	// LoginAttempts caps login posts per IP per 10 minutes.
	LoginAttempts int `envconfig:"LOGIN_ATTEMPTS" default:"5"`

	SessionIdleTTL time.Duration `envconfig:"SESSION_IDLE_TTL" default:"2h"`
	SweepInterval  time.Duration `envconfig:"CACHE_SWEEP_INTERVAL" default:"1m"`

	// RedisURL enables the shared catalog cache when set.
	RedisURL string `envconfig:"REDIS_URL"`
}

// BackendClient holds the REST backend connection settings
// (EASYBAKE_BACKEND_URL, EASYBAKE_BACKEND_TIMEOUT, ...).
type BackendClient struct {
	BaseURL     string        `envconfig:"URL" default:"http://localhost:8000/api"`
	CSRFPath    string        `envconfig:"CSRF_PATH" default:"/sanctum/csrf-cookie"`
	Timeout     time.Duration `envconfig:"TIMEOUT" default:"30s"`
	MaxAttempts int           `envconfig:"MAX_ATTEMPTS" default:"3"`
	BaseBackoff time.Duration `envconfig:"BACKOFF" default:"300ms"`
}

// DevAPI configures the reference backend used for local runs and tests.
type DevAPI struct {
	Env     string `envconfig:"ENV" default:"development"`
	Addr    string `envconfig:"DEVAPI_ADDR" default:":8000"`
	DBDSN   string `envconfig:"DEVAPI_DB_DSN" default:"easybake.db"`
	LogFile string `envconfig:"LOG_FILE"`
	// MediaDir holds product images served under /media.
	MediaDir string `envconfig:"MEDIA_DIR" default:"./media"`
	// Seed loads the demo catalog and customer into an empty database.
	Seed bool `envconfig:"DEVAPI_SEED" default:"true"`

	VATRate       string `envconfig:"VAT_RATE" default:"0.10"`
	DeliveryFee   string `envconfig:"DELIVERY_FEE" default:"1.000"`
	SecureCookies bool   `envconfig:"SECURE_COOKIES" default:"false"`
	LoginAttempts int    `envconfig:"DEVAPI_LOGIN_ATTEMPTS" default:"5"`
}

// Environment returns the parsed deployment environment.
func (s Storefront) Environment() Environment { return ParseEnvironment(s.Env) }

// VAT returns the configured VAT rate, falling back to 10%.
func (s Storefront) VAT() decimal.Decimal {
	return decimalOr(s.VATRate, "0.10")
}

// Delivery returns the flat delivery fee shown before the backend quotes one.
func (s Storefront) Delivery() decimal.Decimal {
	return decimalOr(s.DeliveryFee, "0")
}

func (d DevAPI) Environment() Environment { return ParseEnvironment(d.Env) }

func (d DevAPI) VAT() decimal.Decimal { return decimalOr(d.VATRate, "0.10") }

func (d DevAPI) Delivery() decimal.Decimal { return decimalOr(d.DeliveryFee, "0") }

func decimalOr(v, fallback string) decimal.Decimal {
	d, err := decimal.NewFromString(v)
	if err != nil || d.IsNegative() {
		return decimal.RequireFromString(fallback)
	}
	return d
}

const prefix = "EASYBAKE"

// dotenv loads .env when present. A missing file is normal outside local runs.
func dotenv() {
	if err := godotenv.Load(".env"); err != nil {
		applog.Debug().Err(err).Msg("config: no .env file loaded")
	}
}

// LoadStorefront reads the storefront configuration from the environment.
func LoadStorefront() (Storefront, error) {
	dotenv()
	var cfg Storefront
	if err := envconfig.Process(prefix, &cfg); err != nil {
		return Storefront{}, err
	}
	applog.Info(nil, "config.loaded", map[string]any{
		"env":         cfg.Env,
		"addr":        cfg.Addr,
		"backend_url": cfg.Backend.BaseURL,
		"redis":       cfg.RedisURL != "",
		"currency":    cfg.Currency,
	})
	return cfg, nil
}

// LoadDevAPI reads the reference backend configuration from the environment.
func LoadDevAPI() (DevAPI, error) {
	dotenv()
	var cfg DevAPI
	if err := envconfig.Process(prefix, &cfg); err != nil {
		return DevAPI{}, err
	}
	applog.Info(nil, "config.loaded", map[string]any{"addr": cfg.Addr, "db_dsn": cfg.DBDSN})
	return cfg, nil
}
