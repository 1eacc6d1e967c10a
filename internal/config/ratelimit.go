package config

import (
    "strings"
    "time"

    "github.com/goaltime/goaltime/internal/logger"
)

// Rate limit key strategies.
const (
    RateKeyIP      = "ip"
    RateKeyRoute   = "route"
    RateKeyIPRoute = "ip_route"
)

// RateLimitConfig drives the Redis token bucket.  Every key starts with
// Capacity tokens and regains RefillTokens every RefillInterval.
type RateLimitConfig struct {
    Enabled        bool
    Capacity       int
    RefillTokens   int
    RefillInterval time.Duration
    TTL            time.Duration
    KeyStrategy    string // ip, route or ip_route
    Prefix         string
}

// LoadRateLimitConfig reads the RATE_LIMIT_* variables and clamps them to
// usable values.  Login and register share the bucket with every other
// route of the same client, which slows down credential guessing.
func LoadRateLimitConfig() RateLimitConfig {
    cfg := RateLimitConfig{
        Enabled:        envBool("RATE_LIMIT_ENABLED", true),
        Capacity:       envInt("RATE_LIMIT_CAPACITY", 60),
        RefillTokens:   envInt("RATE_LIMIT_REFILL_TOKENS", 1),
        RefillInterval: envDur("RATE_LIMIT_REFILL_INTERVAL", time.Second),
        TTL:            envDur("RATE_LIMIT_TTL", 10*time.Minute),
        KeyStrategy:    strings.ToLower(envStr("RATE_LIMIT_KEY_STRATEGY", RateKeyIPRoute)),
        Prefix:         envStr("RATE_LIMIT_PREFIX", "goaltime:rl"),
    }
    switch cfg.KeyStrategy {
    case RateKeyIP, RateKeyRoute, RateKeyIPRoute:
    default:
        logger.L().Warn().Str("strategy", cfg.KeyStrategy).Msg("unknown RATE_LIMIT_KEY_STRATEGY, using ip_route")
        cfg.KeyStrategy = RateKeyIPRoute
    }
    if cfg.Capacity < 1 {
        cfg.Capacity = 1
    }
    if cfg.RefillTokens < 1 {
        cfg.RefillTokens = 1
    }
    if cfg.RefillInterval <= 0 {
        cfg.RefillInterval = time.Second
    }
    if minTTL := 5 * cfg.RefillInterval; cfg.TTL < minTTL {
        cfg.TTL = minTTL
    }
    return cfg
}
