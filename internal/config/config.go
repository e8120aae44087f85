package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/blogdeck/admin/pkg/logger"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	Site      SiteConfig
	Admin     AdminConfig
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	MinIO     MinIOConfig
	RateLimit RateLimitConfig
	OIDC      OIDCConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Watch        bool
}

// SiteConfig is the subset of the blog's _config.yml the admin service reads.
type SiteConfig struct {
	BaseDir       string
	SourceDir     string
	Root          string
	DefaultLayout string
	FilenameCase  int
	Author        string
	Timezone      string
	// Metadata maps site-declared front-matter keys to their default values.
	Metadata map[string]interface{}
}

type AdminConfig struct {
	DeployCommand string
	Username      string
	PasswordHash  string
	Secret        string
	TokenTTL      time.Duration
}

type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
}

type RateLimitConfig struct {
	Enabled       bool
	UseRedis      bool
	RPS           float64
	Burst         int
	WindowSeconds int
}

type OIDCConfig struct {
	Issuer   string
	ClientID string
}

// MetadataKeys returns the declared metadata keys in a stable order.
func (s SiteConfig) MetadataKeys() []string {
	keys := make([]string, 0, len(s.Metadata))
	for k := range s.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Location resolves the configured timezone, falling back to local time.
func (s SiteConfig) Location() *time.Location {
	if s.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		logger.Warnf("unknown timezone %q in site config, using local time", s.Timezone)
		return time.Local
	}
	return loc
}

// LoadConfig loads configuration from environment variables, an optional
// .env file, and the site's _config.yml found under SITE_DIR.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load(".env")

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", "4001")
	v.SetDefault("SERVER_HOST", "127.0.0.1")
	v.SetDefault("SERVER_ENVIRONMENT", "development")
	v.SetDefault("SERVER_WATCH", true)
	v.SetDefault("SITE_DIR", ".")
	v.SetDefault("MONGODB_DATABASE", "blogdeck")
	v.SetDefault("MONGODB_TIMEOUT", 10)
	v.SetDefault("MINIO_BUCKET", "blogdeck")
	v.SetDefault("RATE_LIMIT_ENABLED", false)
	v.SetDefault("RATE_LIMIT_RPS", 10)
	v.SetDefault("RATE_LIMIT_BURST", 20)
	v.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 1)
	v.SetDefault("ADMIN_TOKEN_TTL", 720)

	site, admin, err := LoadSiteConfig(v.GetString("SITE_DIR"))
	if err != nil {
		return nil, err
	}
	if s := v.GetString("ADMIN_SECRET"); s != "" {
		admin.Secret = s
	}
	if s := v.GetString("ADMIN_DEPLOY_COMMAND"); s != "" {
		admin.DeployCommand = s
	}
	admin.TokenTTL = time.Duration(v.GetInt("ADMIN_TOKEN_TTL")) * time.Minute

	cfg := &Config{
		Server: ServerConfig{
			Port:         v.GetString("SERVER_PORT"),
			Host:         v.GetString("SERVER_HOST"),
			Environment:  v.GetString("SERVER_ENVIRONMENT"),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			Watch:        v.GetBool("SERVER_WATCH"),
		},
		Site:  *site,
		Admin: *admin,
		MongoDB: MongoDBConfig{
			URI:      v.GetString("MONGODB_URI"),
			Database: v.GetString("MONGODB_DATABASE"),
			Timeout:  time.Duration(v.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		MinIO: MinIOConfig{
			Endpoint:  v.GetString("MINIO_ENDPOINT"),
			AccessKey: v.GetString("MINIO_ACCESS_KEY"),
			SecretKey: os.Getenv("MINIO_SECRET_KEY"),
			UseSSL:    v.GetBool("MINIO_USE_SSL"),
			Bucket:    v.GetString("MINIO_BUCKET"),
		},
		RateLimit: RateLimitConfig{
			Enabled:       v.GetBool("RATE_LIMIT_ENABLED"),
			UseRedis:      v.GetBool("RATE_LIMIT_USE_REDIS"),
			RPS:           v.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         v.GetInt("RATE_LIMIT_BURST"),
			WindowSeconds: v.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
		OIDC: OIDCConfig{
			Issuer:   v.GetString("ADMIN_OIDC_ISSUER"),
			ClientID: v.GetString("ADMIN_OIDC_CLIENT_ID"),
		},
	}

	if cfg.Admin.Username != "" && cfg.Admin.Secret == "" {
		logger.Warnf("admin.username is set but admin.secret is empty; set a secure value in production")
	}

	return cfg, nil
}

// siteFile mirrors the keys of _config.yml used by the admin service.
// Parsed with yaml.v3 directly so metadata keys keep their case.
type siteFile struct {
	SourceDir     string                 `yaml:"source_dir"`
	Root          string                 `yaml:"root"`
	DefaultLayout string                 `yaml:"default_layout"`
	FilenameCase  int                    `yaml:"filename_case"`
	Author        string                 `yaml:"author"`
	Timezone      string                 `yaml:"timezone"`
	Metadata      map[string]interface{} `yaml:"metadata"`
	Admin         struct {
		DeployCommand string `yaml:"deployCommand"`
		Username      string `yaml:"username"`
		PasswordHash  string `yaml:"password_hash"`
		Secret        string `yaml:"secret"`
	} `yaml:"admin"`
}

// LoadSiteConfig reads <baseDir>/_config.yml. A missing file yields defaults.
func LoadSiteConfig(baseDir string) (*SiteConfig, *AdminConfig, error) {
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve site dir: %w", err)
	}
	var sf siteFile
	b, err := os.ReadFile(filepath.Join(abs, "_config.yml"))
	switch {
	case errors.Is(err, os.ErrNotExist):
		logger.Warnf("no _config.yml in %s, using defaults", abs)
	case err != nil:
		return nil, nil, fmt.Errorf("read site config: %w", err)
	default:
		if err := yaml.Unmarshal(b, &sf); err != nil {
			return nil, nil, fmt.Errorf("parse site config: %w", err)
		}
	}

	if sf.SourceDir == "" {
		sf.SourceDir = "source"
	}
	if sf.Root == "" {
		sf.Root = "/"
	}
	if !strings.HasSuffix(sf.Root, "/") {
		sf.Root += "/"
	}
	if sf.DefaultLayout == "" {
		sf.DefaultLayout = "post"
	}
	if sf.Metadata == nil {
		sf.Metadata = map[string]interface{}{}
	}

	site := &SiteConfig{
		BaseDir:       abs,
		SourceDir:     filepath.Join(abs, sf.SourceDir),
		Root:          sf.Root,
		DefaultLayout: sf.DefaultLayout,
		FilenameCase:  sf.FilenameCase,
		Author:        sf.Author,
		Timezone:      sf.Timezone,
		Metadata:      sf.Metadata,
	}
	admin := &AdminConfig{
		DeployCommand: sf.Admin.DeployCommand,
		Username:      sf.Admin.Username,
		PasswordHash:  sf.Admin.PasswordHash,
		Secret:        sf.Admin.Secret,
	}
	return site, admin, nil
}
