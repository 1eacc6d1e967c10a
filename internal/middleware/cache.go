package middleware

import (
    "bytes"
    "context"
    "crypto/sha1"
    "encoding/json"
    "fmt"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/goaltime/goaltime/internal/config"
    "github.com/goaltime/goaltime/internal/logger"
)

// captureWriter tees the response body into buf until limit bytes, after
// which the response is marked as too large to cache.
type captureWriter struct {
    http.ResponseWriter
    status   int
    buf      bytes.Buffer
    limit    int
    overflow bool
}

func (cw *captureWriter) WriteHeader(code int) {
    cw.status = code
    cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
    if !cw.overflow {
        if cw.limit > 0 && cw.buf.Len()+len(b) > cw.limit {
            cw.overflow = true
            cw.buf.Reset()
        } else {
            cw.buf.Write(b)
        }
    }
    return cw.ResponseWriter.Write(b)
}

// cacheKey is Prefix:group:sha1(route[?query]).
func cacheKey(cfg config.CacheConfig, group string, c echo.Context) string {
    id := c.Path()
    if cfg.KeyStrategy != "route" {
        id += "?" + c.Request().URL.RawQuery
        // concrete ids matter for /:id routes
        for _, v := range c.ParamValues() {
            id += "|" + v
        }
    }
    sum := sha1.Sum([]byte(id))
    return fmt.Sprintf("%s:%s:%x", cfg.Prefix, group, sum[:])
}

// perRequestHeaders belong to the request that produced a response, not
// to the response itself, so they are neither stored nor replayed.
var perRequestHeaders = map[string]bool{
    echo.HeaderContentLength: true,
    echo.HeaderXRequestID:    true,
    "X-Cache":                true,
    "X-Ratelimit-Limit":      true,
    "X-Ratelimit-Remaining":  true,
    echo.HeaderRetryAfter:    true,
}

func cacheableHeader(h http.Header) http.Header {
    out := make(http.Header, len(h))
    for k, vals := range h {
        if perRequestHeaders[http.CanonicalHeaderKey(k)] {
            continue
        }
        out[k] = append([]string(nil), vals...)
    }
    return out
}

func groupPattern(cfg config.CacheConfig, group string) string {
    return cfg.Prefix + ":" + group + ":*"
}

// NewRedisCache serves cached 200 responses for the configured methods.
// Entries are Redis hashes holding status, headers and body, and expire
// after cfg.TTL.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client, group string) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if !cfg.Methods[c.Request().Method] {
                return next(c)
            }
            ctx := c.Request().Context()
            key := cacheKey(cfg, group, c)

            if entry, err := rdb.HGetAll(ctx, key).Result(); err == nil && len(entry) > 0 {
                if served := replay(c, entry); served {
                    return nil
                }
            }

            cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: cfg.MaxBodyBytes}
            c.Response().Writer = cw
            c.Response().Header().Set("X-Cache", "MISS")
            if err := next(c); err != nil {
                return err
            }
            if cw.status != http.StatusOK || cw.overflow {
                return nil
            }

            hdr, err := json.Marshal(cacheableHeader(c.Response().Header()))
            if err != nil {
                return nil
            }
            // store after the client has its response
            sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
            defer cancel()
            _, err = rdb.TxPipelined(sctx, func(p redis.Pipeliner) error {
                p.HSet(sctx, key, "status", cw.status, "header", hdr, "body", cw.buf.Bytes())
                p.Expire(sctx, key, cfg.TTL)
                return nil
            })
            if err != nil {
                logger.FromContext(ctx).Warn().Err(err).Str("key", key).Msg("cache store failed")
            }
            return nil
        }
    }
}

func replay(c echo.Context, entry map[string]string) bool {
    status, err := strconv.Atoi(entry["status"])
    if err != nil {
        return false
    }
    var hdr http.Header
    if err := json.Unmarshal([]byte(entry["header"]), &hdr); err != nil {
        return false
    }
    // headers already set for this request win over stored ones
    out := c.Response().Header()
    for k, vals := range cacheableHeader(hdr) {
        if _, live := out[http.CanonicalHeaderKey(k)]; live {
            continue
        }
        out[http.CanonicalHeaderKey(k)] = vals
    }
    out.Set("X-Cache", "HIT")
    c.Response().WriteHeader(status)
    _, _ = c.Response().Write([]byte(entry["body"]))
    return true
}

// InvalidateCache drops every cached entry of groups after the wrapped
// handler completes with a status below 400.
func InvalidateCache(cfg config.CacheConfig, rdb *redis.Client, groups ...string) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if err := next(c); err != nil {
                return err
            }
            if c.Response().Status >= http.StatusBadRequest {
                return nil
            }
            ctx := c.Request().Context()
            for _, g := range groups {
                if err := purge(ctx, rdb, groupPattern(cfg, g)); err != nil {
                    logger.FromContext(ctx).Warn().Err(err).Str("group", g).Msg("cache invalidation failed")
                }
            }
            return nil
        }
    }
}

func purge(ctx context.Context, rdb *redis.Client, pattern string) error {
    iter := rdb.Scan(ctx, 0, pattern, 100).Iterator()
    var keys []string
    for iter.Next(ctx) {
        keys = append(keys, iter.Val())
    }
    if err := iter.Err(); err != nil {
        return err
    }
    if len(keys) == 0 {
        return nil
    }
    return rdb.Del(ctx, keys...).Err()
}
