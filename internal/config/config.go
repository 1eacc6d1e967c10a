package config // package config loads application configuration from environment variables

import (
    "fmt"     // fmt builds descriptive configuration errors
    "os"      // os provides access to environment variables
    "strconv" // strconv converts strings to other types
    "time"    // time parses token lifetimes

    "github.com/joho/godotenv" // godotenv loads a local .env file into the environment

    "github.com/goaltime/goaltime/internal/logger" // logger reports configuration errors and halts execution
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers and secrets, durations for
// lifetimes and ints for costs.
type Config struct {
    Env          string        // application environment (e.g. "dev", "prod")
    Port         string        // HTTP port to listen on
    DBUser       string        // database username
    DBPass       string        // database password (optional)
    DBHost       string        // database host address
    DBPort       string        // database port number
    DBName       string        // database name
    DBMigrate    bool          // apply embedded migrations on startup
    JWTSecret    string        // secret used to sign JWTs
    JWTExpiresIn time.Duration // access token time-to-live
    BcryptCost   int           // bcrypt cost for password hashing
    LogLevel     string        // zerolog level name
    LogFormat    string        // "json" or "console"
}

// Load reads .env (when present) and the environment and returns a
// Config.  Missing or malformed required values cause the program to exit
// with a fatal log message.
func Load() Config {
    _ = godotenv.Load()
    cfg, err := Parse()
    if err != nil {
        logger.L().Fatal().Err(err).Msg("invalid configuration")
    }
    return cfg
}

// Parse builds a Config from the current environment without exiting.
func Parse() (Config, error) {
    cfg := Config{
        DBPass:    os.Getenv("DB_PASS"),
        DBMigrate: envBool("DB_MIGRATE", true),
        LogLevel:  envStr("LOG_LEVEL", "info"),
        LogFormat: envStr("LOG_FORMAT", "json"),
    }
    required := []struct {
        key string
        dst *string
    }{
        {"APP_ENV", &cfg.Env},
        {"APP_PORT", &cfg.Port},
        {"DB_USER", &cfg.DBUser},
        {"DB_HOST", &cfg.DBHost},
        {"DB_PORT", &cfg.DBPort},
        {"DB_NAME", &cfg.DBName},
        {"JWT_SECRET", &cfg.JWTSecret},
    }
    for _, r := range required {
        v, ok := os.LookupEnv(r.key)
        if !ok || v == "" {
            return Config{}, fmt.Errorf("missing required env var: %s", r.key)
        }
        *r.dst = v
    }

    ttl, err := parseTTL(envStr("JWT_EXPIRES_IN", "1h"))
    if err != nil {
        return Config{}, fmt.Errorf("invalid JWT_EXPIRES_IN: %w", err)
    }
    cfg.JWTExpiresIn = ttl

    cost, err := strconv.Atoi(envStr("BCRYPT_COST", "10"))
    if err != nil || cost < 4 || cost > 31 {
        return Config{}, fmt.Errorf("invalid BCRYPT_COST: %q", os.Getenv("BCRYPT_COST"))
    }
    cfg.BcryptCost = cost
    return cfg, nil
}

// parseTTL accepts a Go duration ("90m", "1h") or a bare number of seconds.
func parseTTL(s string) (time.Duration, error) {
    if n, err := strconv.Atoi(s); err == nil {
        if n <= 0 {
            return 0, fmt.Errorf("must be positive, got %d", n)
        }
        return time.Duration(n) * time.Second, nil
    }
    d, err := time.ParseDuration(s)
    if err != nil {
        return 0, err
    }
    if d <= 0 {
        return 0, fmt.Errorf("must be positive, got %s", d)
    }
    return d, nil
}
