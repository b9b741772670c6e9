package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment variable prefix for all Fortress settings
const envPrefix = "FORTRESS_"

// ScannerConfig contains port prober defaults
type ScannerConfig struct {
	// Per-probe connect timeout
	ProbeTimeout time.Duration

	// Max concurrent probes per scan
	Concurrency int

	// Max probe starts per second (0 = unlimited)
	RateLimit int

	// Port range used by the interactive menu
	MenuPorts string

	// Extra service name database, read once on first lookup
	ServicesFile string

	// Banner grab connect and read timeout
	BannerTimeout time.Duration
}

// ICMPConfig contains host discovery settings
type ICMPConfig struct {
	// Wait for each echo reply
	Timeout time.Duration

	// Echo requests per host
	Count int

	// Max hosts pinged at once
	Workers int

	// Raw sockets (root or CAP_NET_RAW); false uses unprivileged ping sockets
	Privileged bool
}

// HTTPClientConfig contains configurable HTTP client settings
type HTTPClientConfig struct {
	// Response body limit for page fetches (bytes)
	MaxBodySize int64

	// HTTP client connection pool settings
	MaxIdleConns        int
	MaxIdleConnsPerHost int
	IdleConnTimeout     time.Duration

	// HTTP client timeouts
	DialTimeout    time.Duration
	RequestTimeout time.Duration
	BustTimeout    time.Duration

	UserAgent string

	// Directory brute force fan-out
	BustConcurrency int

	// Geolocation API base, the IP is appended
	GeoBaseURL string
}

// DNSConfig contains resolver settings
type DNSConfig struct {
	// Server used instead of the system resolver ("" = system resolver)
	Server string

	QueryTimeout time.Duration

	// Max concurrent lookups during subdomain enumeration
	Concurrency int

	ValidateResponseID bool
}

// DefaultScannerConfig returns default scanner configuration
func DefaultScannerConfig() ScannerConfig {
	return ScannerConfig{
		ProbeTimeout:  getEnvDuration("PROBE_TIMEOUT", time.Second),      // 1s
		Concurrency:   getEnvInt("PROBE_CONCURRENCY", 50),                // 50 probes
		RateLimit:     getEnvInt("PROBE_RATE", 0),                        // unlimited
		MenuPorts:     getEnvString("MENU_PORTS", "20-1024"),             // common ports
		ServicesFile:  getEnvString("SERVICES_FILE", "/etc/services"),
		BannerTimeout: getEnvDuration("BANNER_TIMEOUT", 5*time.Second), // 5s
	}
}

// DefaultHTTPClientConfig returns default HTTP client configuration
func DefaultHTTPClientConfig() HTTPClientConfig {
	return HTTPClientConfig{
		MaxBodySize:         getEnvInt64("HTTP_MAX_BODY_SIZE", 1024*1024),              // 1MB
		MaxIdleConns:        getEnvInt("HTTP_MAX_IDLE_CONNS", 100),                      // 100 connections
		MaxIdleConnsPerHost: getEnvInt("HTTP_MAX_IDLE_CONNS_PER_HOST", 10),              // 10 per host
		IdleConnTimeout:     getEnvDuration("HTTP_IDLE_CONN_TIMEOUT", 90*time.Second),   // 90s
		DialTimeout:         getEnvDuration("HTTP_DIAL_TIMEOUT", 5*time.Second),         // 5s
		RequestTimeout:      getEnvDuration("HTTP_REQUEST_TIMEOUT", 5*time.Second),      // 5s
		BustTimeout:         getEnvDuration("HTTP_BUST_TIMEOUT", 3*time.Second),         // 3s
		UserAgent:           getEnvString("HTTP_USER_AGENT", "fortress/1.0"),
		BustConcurrency:     getEnvInt("HTTP_BUST_CONCURRENCY", 10),
		GeoBaseURL:          getEnvString("GEO_BASE_URL", "http://ip-api.com/json/"),
	}
}

// DefaultICMPConfig returns default host discovery configuration
func DefaultICMPConfig() ICMPConfig {
	return ICMPConfig{
		Timeout:    getEnvDuration("ICMP_TIMEOUT", time.Second), // 1s
		Count:      getEnvInt("ICMP_COUNT", 1),                   // single echo
		Workers:    getEnvInt("ICMP_WORKERS", 100),
		Privileged: getEnvBool("ICMP_PRIVILEGED", true),
	}
}

// DefaultDNSConfig returns default DNS configuration
func DefaultDNSConfig() DNSConfig {
	return DNSConfig{
		Server:             getEnvString("DNS_SERVER", ""),
		QueryTimeout:       getEnvDuration("DNS_QUERY_TIMEOUT", 3*time.Second),
		Concurrency:        getEnvInt("DNS_CONCURRENCY", 20),
		ValidateResponseID: getEnvBool("DNS_VALIDATE_RESPONSE_ID", true),
	}
}

// getEnvInt retrieves an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if val := os.Getenv(envPrefix + key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultValue
}

// getEnvInt64 retrieves an int64 environment variable with a default value
func getEnvInt64(key string, defaultValue int64) int64 {
	if val := os.Getenv(envPrefix + key); val != "" {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

// getEnvDuration retrieves a duration environment variable with a default value
// Accepts values like "500ms", "5s", "1m"
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if val := os.Getenv(envPrefix + key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvBool retrieves a boolean environment variable with a default value
// Accepts: "true", "false", "1", "0", "yes", "no", "on", "off" (case-insensitive)
func getEnvBool(key string, defaultValue bool) bool {
	if val := os.Getenv(envPrefix + key); val != "" {
		val = strings.ToLower(strings.TrimSpace(val))
		switch val {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return defaultValue
}

// getEnvString retrieves a string environment variable with a default value
func getEnvString(key string, defaultValue string) string {
	if val := os.Getenv(envPrefix + key); val != "" {
		return val
	}
	return defaultValue
}

// Global configuration instances (initialized once at startup)
var (
	Scanner = DefaultScannerConfig()
	HTTP    = DefaultHTTPClientConfig()
	ICMP    = DefaultICMPConfig()
	DNS     = DefaultDNSConfig()
)

// Init reloads all configuration from environment variables
// Call this at application startup
func Init() {
	Scanner = DefaultScannerConfig()
	HTTP = DefaultHTTPClientConfig()
	ICMP = DefaultICMPConfig()
	DNS = DefaultDNSConfig()
}
