package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dropDatabas3/websecdemo/internal/cookie"
	"github.com/dropDatabas3/websecdemo/internal/observability/logger"
)

type Config struct {
	App struct {
		// dev | prod
		Env      string `yaml:"app_env"`
		LogLevel string `yaml:"log_level"`
	} `yaml:"app"`

	Server struct {
		// origin de la app (víctima)
		Addr string `yaml:"addr"`
		// origin atacante, distinto puerto = distinto origin
		EvilAddr     string        `yaml:"evil_addr"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
		// ShutdownTimeout para el drain en SIGINT/SIGTERM
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Session struct {
		CookieName      string `yaml:"cookie_name"`
		DefaultSameSite string `yaml:"default_samesite"`
	} `yaml:"session"`

	Demo struct {
		Username string `yaml:"username"`
	} `yaml:"demo"`

	Ledger struct {
		InitialBalance int64 `yaml:"initial_balance"`
		MinAmount      int64 `yaml:"min_amount"`
		MaxAmount      int64 `yaml:"max_amount"`
		DefaultAmount  int64 `yaml:"default_amount"`
	} `yaml:"ledger"`

	Rate struct {
		Enabled bool `yaml:"enabled"`
		// memory | redis
		Backend string        `yaml:"backend"`
		Limit   int           `yaml:"limit"`
		Window  time.Duration `yaml:"window"`
		Redis   struct {
			Addr     string `yaml:"addr"`
			DB       int    `yaml:"db"`
			Password string `yaml:"password"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"rate"`
}

// Load lee path (opcional: "" o inexistente = sólo defaults), aplica
// defaults, pisa con env y valida.
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, &c); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
			// sin archivo: defaults + env
		default:
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	c.applyDefaults()
	c.applyEnvOverrides()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Default devuelve la config sólo con defaults, sin archivo ni env.
func Default() *Config {
	var c Config
	c.applyDefaults()
	return &c
}

// sane defaults
func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = "127.0.0.1:8000"
	}
	if c.Server.EvilAddr == "" {
		c.Server.EvilAddr = "127.0.0.1:8001"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 10 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 15 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 5 * time.Second
	}
	if c.Session.CookieName == "" {
		c.Session.CookieName = "sessionid"
	}
	if c.Session.DefaultSameSite == "" {
		c.Session.DefaultSameSite = "lax"
	}
	if c.Demo.Username == "" {
		c.Demo.Username = "demo"
	}
	if c.Ledger.InitialBalance == 0 {
		c.Ledger.InitialBalance = 10000
	}
	if c.Ledger.MinAmount == 0 {
		c.Ledger.MinAmount = 1
	}
	if c.Ledger.MaxAmount == 0 {
		c.Ledger.MaxAmount = 1_000_000
	}
	if c.Ledger.DefaultAmount == 0 {
		c.Ledger.DefaultAmount = 1000
	}
	if c.Rate.Backend == "" {
		c.Rate.Backend = "memory"
	}
	if c.Rate.Limit == 0 {
		c.Rate.Limit = 30
	}
	if c.Rate.Window == 0 {
		c.Rate.Window = time.Minute
	}
	if c.Rate.Redis.Addr == "" {
		c.Rate.Redis.Addr = "127.0.0.1:6379"
	}
	if c.Rate.Redis.Prefix == "" {
		c.Rate.Redis.Prefix = "websec:rl:"
	}
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}
func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}
func getEnvInt64(key string) (int64, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
			return i, true
		}
	}
	return 0, false
}
func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}
func getEnvDur(key string) (time.Duration, bool) {
	if s, ok := getEnvStr(key); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(s)); err == nil {
			return d, true
		}
	}
	return 0, false
}

// applyEnvOverrides: pisa el YAML con variables de entorno.
func (c *Config) applyEnvOverrides() {
	// APP
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.App.LogLevel = strings.ToLower(v)
	}

	// SERVER
	if v, ok := getEnvStr("APP_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvStr("EVIL_ADDR"); ok {
		c.Server.EvilAddr = v
	}
	if v, ok := getEnvDur("SERVER_READ_TIMEOUT"); ok {
		c.Server.ReadTimeout = v
	}
	if v, ok := getEnvDur("SERVER_WRITE_TIMEOUT"); ok {
		c.Server.WriteTimeout = v
	}

	// SESSION
	if v, ok := getEnvStr("SESSION_COOKIE_NAME"); ok {
		c.Session.CookieName = v
	}
	if v, ok := getEnvStr("SESSION_DEFAULT_SAMESITE"); ok {
		c.Session.DefaultSameSite = v
	}

	// DEMO / LEDGER
	if v, ok := getEnvStr("DEMO_USERNAME"); ok {
		c.Demo.Username = v
	}
	if v, ok := getEnvInt64("LEDGER_INITIAL_BALANCE"); ok {
		c.Ledger.InitialBalance = v
	}

	// RATE
	if v, ok := getEnvBool("RATE_ENABLED"); ok {
		c.Rate.Enabled = v
	}
	if v, ok := getEnvStr("RATE_BACKEND"); ok {
		c.Rate.Backend = strings.ToLower(v)
	}
	if v, ok := getEnvInt("RATE_LIMIT"); ok {
		c.Rate.Limit = v
	}
	if v, ok := getEnvDur("RATE_WINDOW"); ok {
		c.Rate.Window = v
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Rate.Redis.Addr = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Rate.Redis.DB = v
	}
	if v, ok := getEnvStr("REDIS_PASSWORD"); ok {
		c.Rate.Redis.Password = v
	}
}

// SameSite devuelve el modo por defecto ya normalizado (desconocido = Lax).
func (c *Config) SameSite() cookie.SameSiteMode {
	return cookie.ParseSameSiteMode(c.Session.DefaultSameSite)
}

// Validate revisa valores críticos. El SameSite desconocido no es error: se
// normaliza a Lax igual que en runtime.
func (c *Config) Validate() error {
	var errs []error
	if _, err := logger.ParseLevel(c.App.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("app.log_level: %w", err))
	}
	if c.Server.Addr == c.Server.EvilAddr {
		errs = append(errs, errors.New("server.addr and server.evil_addr must differ (distinct origins)"))
	}
	if strings.TrimSpace(c.Session.CookieName) == "" || strings.ContainsAny(c.Session.CookieName, " ;,=") {
		errs = append(errs, fmt.Errorf("session.cookie_name %q is not a valid cookie name", c.Session.CookieName))
	}
	if c.Ledger.InitialBalance < 0 {
		errs = append(errs, errors.New("ledger.initial_balance must be >= 0"))
	}
	if c.Ledger.MinAmount < 1 || c.Ledger.MaxAmount < c.Ledger.MinAmount {
		errs = append(errs, fmt.Errorf("ledger amount range [%d, %d] is invalid", c.Ledger.MinAmount, c.Ledger.MaxAmount))
	}
	switch c.Rate.Backend {
	case "memory", "redis":
	default:
		errs = append(errs, fmt.Errorf("rate.backend %q must be memory or redis", c.Rate.Backend))
	}
	if c.Rate.Enabled && (c.Rate.Limit < 1 || c.Rate.Window <= 0) {
		errs = append(errs, errors.New("rate.limit and rate.window must be positive when rate is enabled"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}
