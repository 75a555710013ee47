package config

import (
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv   string
	HTTPAddr string

	// Tenants: ALLOWED_DOMAINS JSON, or a JSON/YAML file that takes precedence.
	AllowedDomains string
	TenantsFile    string

	// S3 / MinIO
	S3Region           string
	S3Endpoint         string // empty means AWS default endpoints
	S3ExternalEndpoint string // host used in signed URLs, defaults to S3Endpoint
	S3AccessKeyID      string // empty means the default credential chain
	S3SecretAccessKey  string
	S3UsePathStyle     bool
	S3EnsureBuckets    bool

	// Recorder/playback pages
	EnableConsolePlugin bool
	StaticDir           string

	BodyMaxBytes int64

	// Rate Limiting
	RLEnabled bool
	RLLimit   int
	RLWindow  time.Duration
	RedisURL  string // when set the limit is shared across replicas

	CORSAllowedOrigins []string

	// Peers allowed to set X-Forwarded-For / X-Real-IP. Empty trusts nobody.
	TrustedProxies []netip.Prefix

	// RabbitMQ (optional)
	RabbitURL      string
	RabbitExchange string

	// Tracing
	OTELEnabled  bool
	OTELEndpoint string

	LogLevel  string
	LogFormat string

	HTTPReadTimeout     time.Duration
	HTTPWriteTimeout    time.Duration
	HTTPIdleTimeout     time.Duration
	HTTPShutdownTimeout time.Duration
}

// LoadFrom reads the given env files (default ".env") into the environment
// without overriding variables that are already set, then loads Config.
func LoadFrom(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && len(envFiles) > 0 {
		return nil, fmt.Errorf("load env files: %w", err)
	}

	cfg := &Config{}

	cfg.AppEnv = getEnv("APP_ENV", "dev")
	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":"+getEnv("PORT", "3000"))

	cfg.AllowedDomains = getEnv("ALLOWED_DOMAINS", "")
	cfg.TenantsFile = getEnv("TENANTS_FILE", "")

	cfg.S3Region = getEnv("AWS_REGION", getEnv("S3_REGION", "us-east-1"))
	cfg.S3Endpoint = getEnv("S3_ENDPOINT", "")
	cfg.S3ExternalEndpoint = getEnv("S3_EXTERNAL_ENDPOINT", cfg.S3Endpoint)
	cfg.S3AccessKeyID = getEnv("S3_ACCESS_KEY_ID", "")
	cfg.S3SecretAccessKey = getEnv("S3_SECRET_ACCESS_KEY", "")
	cfg.S3UsePathStyle = getBool("S3_USE_PATH_STYLE", cfg.S3Endpoint != "")
	cfg.S3EnsureBuckets = getBool("S3_ENSURE_BUCKETS", false)

	cfg.EnableConsolePlugin = getBool("ENABLE_CONSOLE_PLUGIN", false)
	cfg.StaticDir = getEnv("STATIC_DIR", "public")

	cfg.BodyMaxBytes = int64(getInt("REQUEST_BODY_MAX_SIZE", 1<<20))

	// 60 reqs / 1 min per IP
	cfg.RLEnabled = getBool("RL_ENABLED", true)
	cfg.RLLimit = getInt("RL_LIMIT", 60)
	cfg.RLWindow = getDuration("RL_WINDOW", time.Minute)
	cfg.RedisURL = getEnv("REDIS_URL", "")

	cfg.CORSAllowedOrigins = getList("CORS_ALLOWED_ORIGINS", []string{"*"})

	proxies, err := parsePrefixes(getList("TRUSTED_PROXIES", nil))
	if err != nil {
		return nil, fmt.Errorf("TRUSTED_PROXIES: %w", err)
	}
	cfg.TrustedProxies = proxies

	cfg.RabbitURL = getEnv("RABBIT_URL", "")
	cfg.RabbitExchange = getEnv("RABBIT_EXCHANGE", "rrweb.sessions")

	cfg.OTELEnabled = getBool("OTEL_ENABLED", false)
	cfg.OTELEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318")

	cfg.LogLevel = getEnv("LOG_LEVEL", "info")
	cfg.LogFormat = getEnv("LOG_FORMAT", "console")

	cfg.HTTPReadTimeout = getDuration("HTTP_READ_TIMEOUT", 10*time.Second)
	cfg.HTTPWriteTimeout = getDuration("HTTP_WRITE_TIMEOUT", 30*time.Second)
	cfg.HTTPIdleTimeout = getDuration("HTTP_IDLE_TIMEOUT", 60*time.Second)
	cfg.HTTPShutdownTimeout = getDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second)

	// validation
	if cfg.AllowedDomains == "" && cfg.TenantsFile == "" {
		return nil, fmt.Errorf("missing ALLOWED_DOMAINS or TENANTS_FILE")
	}
	if (cfg.S3AccessKeyID == "") != (cfg.S3SecretAccessKey == "") {
		return nil, fmt.Errorf("S3_ACCESS_KEY_ID and S3_SECRET_ACCESS_KEY must be set together")
	}
	if cfg.BodyMaxBytes <= 0 {
		return nil, fmt.Errorf("REQUEST_BODY_MAX_SIZE must be positive")
	}
	if cfg.RLEnabled && (cfg.RLLimit <= 0 || cfg.RLWindow <= 0) {
		return nil, fmt.Errorf("RL_LIMIT and RL_WINDOW must be positive when RL_ENABLED")
	}

	return cfg, nil
}

func getEnv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func getList(key string, def []string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

// parsePrefixes accepts CIDRs and bare addresses.
func parsePrefixes(vals []string) ([]netip.Prefix, error) {
	out := make([]netip.Prefix, 0, len(vals))
	for _, v := range vals {
		if strings.Contains(v, "/") {
			p, err := netip.ParsePrefix(v)
			if err != nil {
				return nil, err
			}
			out = append(out, p.Masked())
			continue
		}
		a, err := netip.ParseAddr(v)
		if err != nil {
			return nil, err
		}
		a = a.Unmap()
		out = append(out, netip.PrefixFrom(a, a.BitLen()))
	}
	return out, nil
}
