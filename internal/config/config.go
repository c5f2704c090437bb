package config

import (
	"bytes"
	"fmt"
	"net"
	neturl "net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"
	defaultPort       = 3001
	defaultEnv        = "development"

	defaultDBHost     = "127.0.0.1"
	defaultDBPort     = 3306
	defaultDBUser     = "root"
	defaultDBPassword = "password"
	defaultDBName     = "guardnest"
	defaultDBCharset  = "utf8mb4"
	defaultDBLoc      = "Local"

	defaultRedisHost = "localhost"
	defaultRedisPort = 6379

	defaultSessionCookie = "session_id"
	defaultRefreshCookie = "refresh_token"
	defaultSessionTTLSec = 3600
	defaultRefreshTTLSec = 604800
	defaultIdentityURL   = "http://localhost:3000"
	defaultRefreshPath   = "/api/auth"
	minimumSessionTTLSec = 1
)

// AppConfig holds runtime startup configuration loaded from YAML.
type AppConfig struct {
	Port           int                   `yaml:"port"`
	Env            string                `yaml:"env"` // "development" | "production"
	DSN            string                `yaml:"dsn"`
	RedisURL       string                `yaml:"redis_url"`
	Database       DatabaseRuntimeConfig `yaml:"database"`
	Redis          RedisRuntimeConfig    `yaml:"redis"`
	AllowedOrigins []string              `yaml:"allowed_origins"`
	Auth           AuthRuntimeConfig     `yaml:"auth"`
}

type DatabaseRuntimeConfig struct {
	DSN       string `yaml:"dsn"`
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	User      string `yaml:"user"`
	Password  string `yaml:"password"`
	Name      string `yaml:"name"`
	Charset   string `yaml:"charset"`
	ParseTime bool   `yaml:"parse_time"`
	Loc       string `yaml:"loc"`
}

type RedisRuntimeConfig struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	TLS      bool   `yaml:"tls"`
}

// AuthRuntimeConfig controls cookie naming, token lifetimes, the cleanup
// secret and the identity provider endpoint.
type AuthRuntimeConfig struct {
	SessionCookie string `yaml:"session_cookie"`
	RefreshCookie string `yaml:"refresh_cookie"`
	CookieDomain  string `yaml:"cookie_domain"`
	RefreshPath   string `yaml:"refresh_path"`
	SessionTTLSec int    `yaml:"session_ttl_seconds"`
	RefreshTTLSec int    `yaml:"refresh_ttl_seconds"`
	CronSecret    string `yaml:"cron_secret"`
	IdentityURL   string `yaml:"identity_url"`
}

type rawAppConfig struct {
	Port               int            `yaml:"port"`
	Env                string         `yaml:"env"`
	NodeEnv            string         `yaml:"node_env"`
	DSN                string         `yaml:"dsn"`
	DatabaseURL        string         `yaml:"database_url"`
	RedisURL           string         `yaml:"redis_url"`
	Database           rawDBConfig    `yaml:"database"`
	Redis              rawRedisConfig `yaml:"redis"`
	AllowedOrigins     []string       `yaml:"allowed_origins"`
	CORSAllowedOrigins []string       `yaml:"cors_allowed_origins"`
	Auth               rawAuthConfig  `yaml:"auth"`

	// Flat aliases kept for parity with the original env-style deployment.
	SessionCookieName string `yaml:"session_cookie_name"`
	RefreshCookieName string `yaml:"refresh_cookie_name"`
	CookieDomain      string `yaml:"cookie_domain"`
	SessionTTLSec     *int   `yaml:"session_ttl_seconds"`
	RefreshTTLSec     *int   `yaml:"refresh_ttl_seconds"`
	CronSecret        string `yaml:"cron_secret"`
	IdentityURL       string `yaml:"identity_url"`
}

type rawDBConfig struct {
	DSN       string `yaml:"dsn"`
	URL       string `yaml:"url"`
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	User      string `yaml:"user"`
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
	Name      string `yaml:"name"`
	DBName    string `yaml:"db_name"`
	Charset   string `yaml:"charset"`
	ParseTime *bool  `yaml:"parse_time"`
	Loc       string `yaml:"loc"`
}

type rawRedisConfig struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DB       *int   `yaml:"db"`
	TLS      *bool  `yaml:"tls"`
}

type rawAuthConfig struct {
	SessionCookie string `yaml:"session_cookie"`
	RefreshCookie string `yaml:"refresh_cookie"`
	CookieDomain  string `yaml:"cookie_domain"`
	RefreshPath   string `yaml:"refresh_path"`
	SessionTTLSec *int   `yaml:"session_ttl_seconds"`
	RefreshTTLSec *int   `yaml:"refresh_ttl_seconds"`
	CronSecret    string `yaml:"cron_secret"`
	CleanupSecret string `yaml:"cleanup_secret"`
	IdentityURL   string `yaml:"identity_url"`
	ProviderURL   string `yaml:"provider_url"`
}

// Load reads and validates the YAML config file at path.
func Load(configPath string) (*AppConfig, error) {
	path := strings.TrimSpace(configPath)
	if path == "" {
		path = DefaultConfigPath
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %q: %w", path, err)
	}

	cfg := defaultAppConfig()
	decoder := yaml.NewDecoder(bytes.NewReader(content))
	decoder.KnownFields(true)
	raw := rawAppConfig{}
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("parse config file %q: %w", path, err)
	}

	applyRawAppConfig(&cfg, raw)
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d in %q, expected 1-65535", cfg.Port, path)
	}
	if cfg.Auth.SessionTTLSec < minimumSessionTTLSec {
		return nil, fmt.Errorf("invalid auth.session_ttl_seconds %d in %q, expected >= 1", cfg.Auth.SessionTTLSec, path)
	}
	if cfg.Auth.RefreshTTLSec < cfg.Auth.SessionTTLSec {
		return nil, fmt.Errorf("auth.refresh_ttl_seconds %d must be >= auth.session_ttl_seconds %d", cfg.Auth.RefreshTTLSec, cfg.Auth.SessionTTLSec)
	}

	return &cfg, nil
}

func defaultAppConfig() AppConfig {
	return AppConfig{
		Port: defaultPort,
		Env:  defaultEnv,
		Database: DatabaseRuntimeConfig{
			Host:      defaultDBHost,
			Port:      defaultDBPort,
			User:      defaultDBUser,
			Password:  defaultDBPassword,
			Name:      defaultDBName,
			Charset:   defaultDBCharset,
			ParseTime: true,
			Loc:       defaultDBLoc,
		},
		Redis: RedisRuntimeConfig{
			Host: defaultRedisHost,
			Port: defaultRedisPort,
		},
		Auth: AuthRuntimeConfig{
			SessionCookie: defaultSessionCookie,
			RefreshCookie: defaultRefreshCookie,
			RefreshPath:   defaultRefreshPath,
			SessionTTLSec: defaultSessionTTLSec,
			RefreshTTLSec: defaultRefreshTTLSec,
			IdentityURL:   defaultIdentityURL,
		},
	}
}

func applyRawAppConfig(cfg *AppConfig, raw rawAppConfig) {
	if raw.Port != 0 {
		cfg.Port = raw.Port
	}
	if v := strings.TrimSpace(raw.Env); v != "" {
		cfg.Env = v
	}
	if v := strings.TrimSpace(raw.NodeEnv); v != "" {
		cfg.Env = v
	}
	cfg.Env = strings.ToLower(strings.TrimSpace(cfg.Env))
	if cfg.Env == "" {
		cfg.Env = defaultEnv
	}

	cfg.Database = applyRawDBConfig(cfg.Database, raw)
	cfg.Redis = applyRawRedisConfig(cfg.Redis, raw)
	cfg.Auth = applyRawAuthConfig(cfg.Auth, raw)

	switch {
	case raw.AllowedOrigins != nil:
		cfg.AllowedOrigins = normalizeOrigins(raw.AllowedOrigins)
	case raw.CORSAllowedOrigins != nil:
		cfg.AllowedOrigins = normalizeOrigins(raw.CORSAllowedOrigins)
	}

	cfg.DSN = cfg.Database.DSNValue()
	cfg.RedisURL = cfg.Redis.URLValue()
}

func applyRawDBConfig(current DatabaseRuntimeConfig, raw rawAppConfig) DatabaseRuntimeConfig {
	cfg := current
	for _, v := range []string{raw.Database.DSN, raw.Database.URL, raw.DSN, raw.DatabaseURL} {
		if v = strings.TrimSpace(v); v != "" {
			cfg.DSN = v
		}
	}
	if v := strings.TrimSpace(raw.Database.Host); v != "" {
		cfg.Host = v
	}
	if raw.Database.Port != 0 {
		cfg.Port = raw.Database.Port
	}
	if v := strings.TrimSpace(raw.Database.User); v != "" {
		cfg.User = v
	}
	if v := strings.TrimSpace(raw.Database.Username); v != "" {
		cfg.User = v
	}
	if v := strings.TrimSpace(raw.Database.Password); v != "" {
		cfg.Password = v
	}
	if v := strings.TrimSpace(raw.Database.Name); v != "" {
		cfg.Name = v
	}
	if v := strings.TrimSpace(raw.Database.DBName); v != "" {
		cfg.Name = v
	}
	if v := strings.TrimSpace(raw.Database.Charset); v != "" {
		cfg.Charset = v
	}
	if raw.Database.ParseTime != nil {
		cfg.ParseTime = *raw.Database.ParseTime
	}
	if v := strings.TrimSpace(raw.Database.Loc); v != "" {
		cfg.Loc = v
	}
	return cfg
}

func applyRawRedisConfig(current RedisRuntimeConfig, raw rawAppConfig) RedisRuntimeConfig {
	cfg := current
	if v := strings.TrimSpace(raw.Redis.URL); v != "" {
		cfg.URL = v
	}
	if v := strings.TrimSpace(raw.RedisURL); v != "" {
		cfg.URL = v
	}
	if v := strings.TrimSpace(raw.Redis.Host); v != "" {
		cfg.Host = v
	}
	if raw.Redis.Port != 0 {
		cfg.Port = raw.Redis.Port
	}
	if v := strings.TrimSpace(raw.Redis.Username); v != "" {
		cfg.Username = v
	}
	if v := strings.TrimSpace(raw.Redis.Password); v != "" {
		cfg.Password = v
	}
	if raw.Redis.DB != nil {
		cfg.DB = *raw.Redis.DB
	}
	if raw.Redis.TLS != nil {
		cfg.TLS = *raw.Redis.TLS
	}
	return cfg
}

func applyRawAuthConfig(current AuthRuntimeConfig, raw rawAppConfig) AuthRuntimeConfig {
	cfg := current
	if v := strings.TrimSpace(raw.Auth.SessionCookie); v != "" {
		cfg.SessionCookie = v
	}
	if v := strings.TrimSpace(raw.SessionCookieName); v != "" {
		cfg.SessionCookie = v
	}
	if v := strings.TrimSpace(raw.Auth.RefreshCookie); v != "" {
		cfg.RefreshCookie = v
	}
	if v := strings.TrimSpace(raw.RefreshCookieName); v != "" {
		cfg.RefreshCookie = v
	}
	if v := strings.TrimSpace(raw.Auth.CookieDomain); v != "" {
		cfg.CookieDomain = v
	}
	if v := strings.TrimSpace(raw.CookieDomain); v != "" {
		cfg.CookieDomain = v
	}
	if v := strings.TrimSpace(raw.Auth.RefreshPath); v != "" {
		cfg.RefreshPath = v
	}
	if raw.Auth.SessionTTLSec != nil {
		cfg.SessionTTLSec = *raw.Auth.SessionTTLSec
	}
	if raw.SessionTTLSec != nil {
		cfg.SessionTTLSec = *raw.SessionTTLSec
	}
	if raw.Auth.RefreshTTLSec != nil {
		cfg.RefreshTTLSec = *raw.Auth.RefreshTTLSec
	}
	if raw.RefreshTTLSec != nil {
		cfg.RefreshTTLSec = *raw.RefreshTTLSec
	}
	if v := strings.TrimSpace(raw.Auth.CronSecret); v != "" {
		cfg.CronSecret = v
	}
	if v := strings.TrimSpace(raw.Auth.CleanupSecret); v != "" {
		cfg.CronSecret = v
	}
	if v := strings.TrimSpace(raw.CronSecret); v != "" {
		cfg.CronSecret = v
	}
	if v := strings.TrimSpace(raw.Auth.IdentityURL); v != "" {
		cfg.IdentityURL = v
	}
	if v := strings.TrimSpace(raw.Auth.ProviderURL); v != "" {
		cfg.IdentityURL = v
	}
	if v := strings.TrimSpace(raw.IdentityURL); v != "" {
		cfg.IdentityURL = v
	}
	cfg.IdentityURL = strings.TrimRight(cfg.IdentityURL, "/")
	return cfg
}

func normalizeOrigins(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, origin := range origins {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// DSNValue builds the MySQL DSN from discrete fields unless an explicit DSN
// was configured.
func (c DatabaseRuntimeConfig) DSNValue() string {
	if v := strings.TrimSpace(c.DSN); v != "" {
		return v
	}

	params := neturl.Values{}
	params.Set("charset", c.Charset)
	params.Set("parseTime", strconv.FormatBool(c.ParseTime))
	params.Set("loc", c.Loc)

	return fmt.Sprintf("%s:%s@tcp(%s)/%s?%s",
		c.User, c.Password,
		net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		c.Name, params.Encode())
}

// URLValue builds the redis:// URL from discrete fields unless an explicit
// URL was configured.
func (c RedisRuntimeConfig) URLValue() string {
	raw := strings.TrimSpace(c.URL)
	if raw != "" {
		if strings.HasPrefix(raw, "redis://") || strings.HasPrefix(raw, "rediss://") {
			return raw
		}
		return "redis://" + raw
	}

	scheme := "redis"
	if c.TLS {
		scheme = "rediss"
	}
	u := &neturl.URL{
		Scheme: scheme,
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   "/" + strconv.Itoa(c.DB),
	}
	if c.Username != "" {
		u.User = neturl.UserPassword(c.Username, c.Password)
	} else if c.Password != "" {
		u.User = neturl.UserPassword("", c.Password)
	}
	return u.String()
}

func (c *AppConfig) IsDev() bool {
	return strings.EqualFold(c.Env, defaultEnv)
}

// SessionTTL is the access-token lifetime.
func (c *AuthRuntimeConfig) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLSec) * time.Second
}

// RefreshTTL is the refresh-token lifetime.
func (c *AuthRuntimeConfig) RefreshTTL() time.Duration {
	return time.Duration(c.RefreshTTLSec) * time.Second
}
