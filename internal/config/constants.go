package config

import "time"

// Database connection pool settings
const (
	DBMaxOpenConns    = 25
	DBMaxIdleConns    = 5
	DBConnMaxLifetime = 5 * time.Minute
)

// HTTP server timeouts
const (
	ServerRequestTimeout  = 60 * time.Second
	ServerReadTimeout     = 15 * time.Second
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 30 * time.Second
)

// Database ping timeout for health checks
const DBPingTimeout = 5 * time.Second

// Upstream API client timeouts. Chat replies come from a language model and
// can take a while; everything else is ordinary REST.
const (
	UpstreamTimeout     = 15 * time.Second
	UpstreamChatTimeout = 90 * time.Second
)

// Background job intervals
const CleanupJobInterval = 5 * time.Minute

// One-shot flash messages survive this long before the next page load claims them
const FlashTTL = 5 * time.Minute
