package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Catalog
	SnapshotFile     string        // path of the YAML catalog snapshot (empty = snapshots disabled)
	SnapshotInterval time.Duration // interval between catalog snapshots (default: 1h)
	VerifyInterval   time.Duration // interval between location verification passes (default: 24h)
	VerifyTimeout    time.Duration // per-URL timeout during verification (default: 5s)

	// Metadata extraction
	ExtractTimeout time.Duration // timeout for fetching remote page metadata (default: 10s)

	// Permanent storage
	ArkbBinary string // arkb executable name or path (default: "arkb")
	WalletFile string // path to the Arweave wallet keyfile (empty = archival disabled)
	GatewayURL string // Arweave gateway base URL (default: "https://arweave.net")

	// Redis
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold    int           // warn after this many attempts
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("KEEP_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("KEEP_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("KEEP_LOG_LEVEL", "info"),
		PrettyLog: mustBool("KEEP_PRETTY_LOG", true),

		// Catalog maintenance
		SnapshotFile:     getenv("KEEP_SNAPSHOT_FILE", ""),
		SnapshotInterval: mustDuration("KEEP_SNAPSHOT_INTERVAL", time.Hour),
		VerifyInterval:   mustDuration("KEEP_VERIFY_INTERVAL", 24*time.Hour),
		VerifyTimeout:    mustDuration("KEEP_VERIFY_TIMEOUT", 5*time.Second),

		// Metadata extraction
		ExtractTimeout: mustDuration("KEEP_EXTRACT_TIMEOUT", 10*time.Second),

		// Permanent storage
		ArkbBinary: getenv("KEEP_ARKB_BINARY", "arkb"),
		WalletFile: getenv("KEEP_WALLET_FILE", ""),
		GatewayURL: getenv("KEEP_GATEWAY_URL", "https://arweave.net"),

		// Redis settings
		RedisAddr:             requireEnv("KEEP_REDIS_ADDR"),
		RedisUser:             getenv("KEEP_REDIS_USERNAME", "default"),
		RedisPasswordRequired: mustBool("KEEP_REDIS_PASSWORD_REQUIRED", true),
		RedisPassword:         getenv("KEEP_REDIS_PASSWORD", ""),
		RedisDB:               getenvInt("KEEP_REDIS_DB", 0),
		RedisDT:               mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:               mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:               mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:          mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:      mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:         getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout:   mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:    mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:    getenvInt("REDIS_WARN_THRESHOLD", 3),
	}

	// Validate Redis password configuration
	if cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
		panic("❌ FATAL: KEEP_REDIS_PASSWORD is required when KEEP_REDIS_PASSWORD_REQUIRED=true")
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.RedisPassword = "***REDACTED***"
		if cfg.RedisUser != "" {
			cfgCopy.RedisUser = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// ArchivalEnabled reports whether a wallet is configured. Without a
// wallet the archival phase is offered but every upload is rejected,
// so the client is only wired when this holds.
func (c *Config) ArchivalEnabled() bool {
	return c.WalletFile != ""
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
