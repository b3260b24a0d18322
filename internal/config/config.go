package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"

	MediaLocal = "local"
	MediaMinIO = "minio"
	MediaS3    = "s3"
)

type DB struct {
	DbHOST     string
	DbPORT     string
	DbUSER     string
	DbPASSWORD string
	DbNAME     string
	DbSSLMODE  string
}

// URL renders the connection string for lib/pq and golang-migrate. User and
// password are escaped, so they may contain any character.
func (d DB) URL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.DbUSER, d.DbPASSWORD),
		Host:     net.JoinHostPort(d.DbHOST, d.DbPORT),
		Path:     "/" + d.DbNAME,
		RawQuery: url.Values{"sslmode": {d.DbSSLMODE}}.Encode(),
	}
	return u.String()
}

type Redis struct {
	Addr     string
	Password string
	DB       int
}

type MinIO struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	BucketName    string
	UseSSL        bool
	PublicBaseURL string
}

type S3 struct {
	Region        string
	Bucket        string
	Endpoint      string
	PublicBaseURL string
}

type Media struct {
	Backend      string
	UploadDir    string
	PublicPrefix string
	Timeout      time.Duration
	MinIO        MinIO
	S3           S3
}

type Config struct {
	ServerPort         int
	SessionSecret      string
	SessionTTL         time.Duration
	SessionBackend     string
	CookieSecure       bool
	RepositoryBackend  string
	DB                 DB
	Redis              Redis
	Media              Media
	MaxUploadSize      int64
	LogLevel           string
	LogFormat          string
	RateLimitPerMinute int
	CORSAllowedOrigins []string
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return fallback
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func LoadDB() DB {
	return DB{
		DbHOST:     getEnv("DB_HOST", "localhost"),
		DbPORT:     getEnv("DB_PORT", "5432"),
		DbUSER:     getEnv("DB_USER", "postgres"),
		DbPASSWORD: getEnv("DB_PASSWORD", "password"),
		DbNAME:     getEnv("DB_NAME", "instagram"),
		DbSSLMODE:  getEnv("DB_SSLMODE", "disable"),
	}
}

func LoadRedis() Redis {
	return Redis{
		Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvAsInt("REDIS_DB", 0),
	}
}

func LoadMedia() Media {
	return Media{
		Backend:      strings.ToLower(getEnv("MEDIA_BACKEND", MediaLocal)),
		UploadDir:    getEnv("MEDIA_UPLOAD_DIR", "uploads"),
		PublicPrefix: "/" + strings.Trim(getEnv("MEDIA_PUBLIC_PREFIX", "/uploads"), "/"),
		Timeout:      getEnvDuration("MEDIA_TIMEOUT", 30*time.Second),
		MinIO: MinIO{
			Endpoint:      getEnv("MINIO_ENDPOINT", ""),
			AccessKey:     getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey:     getEnv("MINIO_SECRET_KEY", ""),
			BucketName:    getEnv("MINIO_BUCKET_NAME", "images"),
			UseSSL:        getEnvBool("MINIO_USE_SSL", false),
			PublicBaseURL: getEnv("MINIO_PUBLIC_BASE_URL", ""),
		},
		S3: S3{
			Region:        getEnv("S3_REGION", ""),
			Bucket:        getEnv("S3_BUCKET", ""),
			Endpoint:      getEnv("S3_ENDPOINT", ""),
			PublicBaseURL: getEnv("S3_PUBLIC_BASE_URL", ""),
		},
	}
}

func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		logrus.Info(".env file not found, using environment variables")
	}

	return &Config{
		ServerPort:         getEnvAsInt("PORT", 3000),
		SessionSecret:      getEnv("SESSION_SECRET", ""),
		SessionTTL:         getEnvDuration("SESSION_TTL", 24*time.Hour),
		SessionBackend:     strings.ToLower(getEnv("SESSION_BACKEND", BackendMemory)),
		CookieSecure:       getEnvBool("COOKIE_SECURE", false),
		RepositoryBackend:  strings.ToLower(getEnv("REPOSITORY_BACKEND", BackendMemory)),
		DB:                 LoadDB(),
		Redis:              LoadRedis(),
		Media:              LoadMedia(),
		MaxUploadSize:      parseMaxUploadSize(getEnv("MAX_UPLOAD_SIZE", "10485760")),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "json"),
		RateLimitPerMinute: getEnvAsInt("RATE_LIMIT_PER_MINUTE", 0),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
	}
}

func parseMaxUploadSize(value string) int64 {
	size, err := strconv.ParseInt(value, 10, 64)
	if err != nil || size <= 0 {
		return 10 * 1024 * 1024
	}
	return size
}

// Validate reports settings the process cannot start without.
// Incomplete media storage settings are not an error here: the media store
// degrades to an always-failing backend and logs a warning instead.
func (c *Config) Validate() error {
	if c.SessionSecret == "" {
		return errors.New("SESSION_SECRET is not set")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %s", c.SessionTTL)
	}
	switch c.SessionBackend {
	case BackendMemory, BackendRedis:
	default:
		return fmt.Errorf("unknown SESSION_BACKEND %q", c.SessionBackend)
	}
	switch c.RepositoryBackend {
	case BackendMemory, BackendPostgres:
	default:
		return fmt.Errorf("unknown REPOSITORY_BACKEND %q", c.RepositoryBackend)
	}
	switch c.Media.Backend {
	case MediaLocal, MediaMinIO, MediaS3:
	default:
		return fmt.Errorf("unknown MEDIA_BACKEND %q", c.Media.Backend)
	}
	return nil
}

// MissingMediaSettings lists the variables the selected remote backend needs
// but does not have.
func (m Media) MissingMediaSettings() []string {
	var missing []string
	switch m.Backend {
	case MediaMinIO:
		if m.MinIO.Endpoint == "" {
			missing = append(missing, "MINIO_ENDPOINT")
		}
		if m.MinIO.AccessKey == "" {
			missing = append(missing, "MINIO_ACCESS_KEY")
		}
		if m.MinIO.SecretKey == "" {
			missing = append(missing, "MINIO_SECRET_KEY")
		}
		if m.MinIO.BucketName == "" {
			missing = append(missing, "MINIO_BUCKET_NAME")
		}
	case MediaS3:
		if m.S3.Region == "" {
			missing = append(missing, "S3_REGION")
		}
		if m.S3.Bucket == "" {
			missing = append(missing, "S3_BUCKET")
		}
	}
	return missing
}
