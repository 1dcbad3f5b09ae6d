package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	SessionStoreMemory   = "memory"
	SessionStorePostgres = "postgres"
	SessionStoreMongo    = "mongo"
)

type Config struct {
	Env          string
	Addr         string
	PublicURL    *url.URL
	CookieSecret string
	SessionTTL   time.Duration
	LogLevel     string

	APIBaseURL   *url.URL
	APITimeout   time.Duration
	APILoginPath string
	BannerTTL    time.Duration
	ChatURL      string
	CORSOrigins  []string

	SessionStore string
	DBDSN        string
	MongoURI     string
	MongoDB      string
}

// Load reads APP_ENV_FILE (default .env) into the process environment, then
// parses the environment. Variables already set win over the file.
func Load() (Config, error) {
	path := os.Getenv("APP_ENV_FILE")
	if path == "" {
		path = ".env"
	}
	if err := loadDotEnvFile(path, os.Setenv, os.Getenv); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return LoadFromEnv(os.Getenv)
}

func loadDotEnvFile(path string, setenv func(string, string) error, getenv func(string) string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	vals, err := godotenv.Parse(f)
	if err != nil {
		return err
	}
	for k, v := range vals {
		if v == "" || getenv(k) != "" {
			continue
		}
		if err := setenv(k, v); err != nil {
			return fmt.Errorf("set %s: %w", k, err)
		}
	}
	return nil
}

func LoadFromEnv(getenv func(string) string) (Config, error) {
	cfg := Config{
		Env:          getenv("APP_ENV"),
		Addr:         getenv("APP_ADDR"),
		LogLevel:     getenv("APP_LOG_LEVEL"),
		CookieSecret: getenv("APP_COOKIE_SECRET"),
		APILoginPath: strings.TrimSpace(getenv("APP_API_LOGIN_PATH")),
		ChatURL:      strings.TrimSpace(getenv("APP_CHAT_URL")),
		SessionStore: strings.TrimSpace(strings.ToLower(getenv("APP_SESSION_STORE"))),
		DBDSN:        getenv("APP_DB_DSN"),
		MongoURI:     getenv("APP_MONGO_URI"),
		MongoDB:      strings.TrimSpace(getenv("APP_MONGO_DB")),
	}

	if cfg.Env == "" {
		cfg.Env = "dev"
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8080"
	}
	if cfg.APILoginPath == "" {
		cfg.APILoginPath = "login/"
	}
	if cfg.MongoDB == "" {
		cfg.MongoDB = "matchdash"
	}

	switch cfg.Env {
	case "dev", "prod", "test":
	default:
		return Config{}, errors.New("APP_ENV: must be one of dev, test, prod")
	}

	publicURLRaw := getenv("APP_PUBLIC_URL")
	if publicURLRaw != "" {
		parsed, err := parseHTTPURL(publicURLRaw)
		if err != nil {
			return Config{}, fmt.Errorf("APP_PUBLIC_URL: %w", err)
		}
		cfg.PublicURL = parsed
	}

	apiRaw := strings.TrimSpace(getenv("APP_API_BASE_URL"))
	if apiRaw == "" {
		return Config{}, errors.New("APP_API_BASE_URL: required")
	}
	apiURL, err := parseHTTPURL(apiRaw)
	if err != nil {
		return Config{}, fmt.Errorf("APP_API_BASE_URL: %w", err)
	}
	if !strings.HasSuffix(apiURL.Path, "/") {
		apiURL.Path += "/"
	}
	cfg.APIBaseURL = apiURL

	if cfg.SessionTTL, err = parsePositiveDuration(getenv, "APP_SESSION_TTL", 30*24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.APITimeout, err = parsePositiveDuration(getenv, "APP_API_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.BannerTTL, err = parsePositiveDuration(getenv, "APP_BANNER_TTL", 2000*time.Millisecond); err != nil {
		return Config{}, err
	}

	if cfg.ChatURL != "" && !strings.Contains(cfg.ChatURL, "{room}") {
		return Config{}, errors.New("APP_CHAT_URL: must contain the {room} placeholder")
	}

	cfg.CORSOrigins = parseCSV(getenv("APP_CORS_ORIGINS"))

	if cfg.SessionStore == "" {
		switch {
		case cfg.DBDSN != "":
			cfg.SessionStore = SessionStorePostgres
		case cfg.MongoURI != "":
			cfg.SessionStore = SessionStoreMongo
		default:
			cfg.SessionStore = SessionStoreMemory
		}
	}
	switch cfg.SessionStore {
	case SessionStoreMemory:
	case SessionStorePostgres:
		if cfg.DBDSN == "" {
			return Config{}, errors.New("APP_DB_DSN: required when APP_SESSION_STORE=postgres")
		}
	case SessionStoreMongo:
		if cfg.MongoURI == "" {
			return Config{}, errors.New("APP_MONGO_URI: required when APP_SESSION_STORE=mongo")
		}
	default:
		return Config{}, errors.New("APP_SESSION_STORE: must be one of memory, postgres, mongo")
	}

	if cfg.IsProd() {
		if cfg.PublicURL == nil {
			return Config{}, errors.New("APP_PUBLIC_URL: required in prod")
		}
		if cfg.SessionStore == SessionStoreMemory {
			return Config{}, errors.New("APP_SESSION_STORE: memory store is not allowed in prod")
		}
		if len(cfg.CookieSecret) < 32 {
			return Config{}, errors.New("APP_COOKIE_SECRET: must be at least 32 bytes in prod")
		}
	}

	return cfg, nil
}

func (c Config) IsProd() bool { return c.Env == "prod" }

func (c Config) CookieSecure() bool {
	if c.PublicURL != nil {
		return c.PublicURL.Scheme == "https"
	}
	return c.IsProd()
}

func parseHTTPURL(raw string) (*url.URL, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if !parsed.IsAbs() || parsed.Host == "" {
		return nil, errors.New("must be an absolute URL")
	}
	switch parsed.Scheme {
	case "http", "https":
	default:
		return nil, errors.New("scheme must be http or https")
	}
	return parsed, nil
}

func parsePositiveDuration(getenv func(string) string, key string, def time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(getenv(key))
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s: must be > 0", key)
	}
	return d, nil
}

func parseCSV(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	seen := make(map[string]bool, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}
