package utils

import (
	"os"
	"strconv"
	"time"
)

type AuthConfig struct {
	JWTSecret   string
	JWTIssuer   string
	JWTDuration time.Duration

	// Single admin principal; there are no user accounts.
	AdminUser         string
	AdminPasswordHash string // bcrypt hash
}

func LoadAuthConfig() AuthConfig {
	secret := os.Getenv("ANIHUB_JWT_SECRET")
	if secret == "" {
		// dev default (change for demo / production)
		secret = "dev-secret-change-me"
	}

	issuer := os.Getenv("ANIHUB_JWT_ISSUER")
	if issuer == "" {
		issuer = "anihub"
	}

	user := os.Getenv("ANIHUB_ADMIN_USER")
	if user == "" {
		user = "admin"
	}

	return AuthConfig{
		JWTSecret:         secret,
		JWTIssuer:         issuer,
		JWTDuration:       time.Duration(envInt("ANIHUB_JWT_TTL_HOURS", 24)) * time.Hour,
		AdminUser:         user,
		AdminPasswordHash: os.Getenv("ANIHUB_ADMIN_PASSWORD_HASH"),
	}
}

type ResolverConfig struct {
	// MAL search endpoint base, Jikan-compatible.
	BaseURL string
	Timeout time.Duration

	// Acceptance is strictly greater-than this score.
	MatchThreshold float64

	// When true, a failed lookup call (transport/parse error) is
	// cached as a permanent miss, like a confirmed no-match. Off by
	// default so transient failures stay retry-eligible.
	CacheLookupFailures bool

	// Parallel resolutions per reconcile batch.
	Workers int
}

func LoadResolverConfig() ResolverConfig {
	base := os.Getenv("ANIHUB_MAL_BASE_URL")
	if base == "" {
		base = "https://api.jikan.moe/v4"
	}

	threshold := 0.85
	if s := os.Getenv("ANIHUB_MATCH_THRESHOLD"); s != "" {
		if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 && f < 1 {
			threshold = f
		}
	}

	return ResolverConfig{
		BaseURL:             base,
		Timeout:             time.Duration(envInt("ANIHUB_LOOKUP_TIMEOUT_SECONDS", 10)) * time.Second,
		MatchThreshold:      threshold,
		CacheLookupFailures: os.Getenv("ANIHUB_CACHE_LOOKUP_FAILURES") == "true",
		Workers:             envInt("ANIHUB_RESOLVE_WORKERS", 4),
	}
}

type ProviderConfig struct {
	// Path to the anime.sh-compatible catalog script.
	ScriptPath string
	Timeout    time.Duration
}

func LoadProviderConfig() ProviderConfig {
	script := os.Getenv("ANIHUB_PROVIDER_SCRIPT")
	if script == "" {
		script = "./anime.sh"
	}

	return ProviderConfig{
		ScriptPath: script,
		Timeout:    time.Duration(envInt("ANIHUB_PROVIDER_TIMEOUT_SECONDS", 30)) * time.Second,
	}
}

func envInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
