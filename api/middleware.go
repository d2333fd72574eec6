package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Domenick1991/travelbooking/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	IdentityHeader  = "x-user"
	RequestIDHeader = "X-Request-ID"

	identityKey  = "identity"
	requestIDKey = "request_id"
)

type TokenParser interface {
	Parse(raw string) (domain.Identity, error)
}

// Authenticate turns a bearer token into the x-user identity header that the
// protected routes read. A client-sent x-user is dropped unless trustHeader is
// set, which is only meant for deployments behind an authenticating gateway.
// Requests without a token pass through untouched.
func Authenticate(tokens TokenParser, trustHeader bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !trustHeader {
			c.Request.Header.Del(IdentityHeader)
		}

		raw := c.GetHeader("Authorization")
		if raw == "" {
			c.Next()
			return
		}

		identity, err := tokens.Parse(raw)
		if err != nil {
			respondError(c, err)
			return
		}
		encoded, err := json.Marshal(identity)
		if err != nil {
			respondError(c, err)
			return
		}
		c.Request.Header.Set(IdentityHeader, string(encoded))
		c.Next()
	}
}

// RequireUser rejects requests without a usable x-user identity.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(IdentityHeader)
		if raw == "" {
			respondError(c, domain.ErrUnauthorized)
			return
		}
		var identity domain.Identity
		if err := json.Unmarshal([]byte(raw), &identity); err != nil || identity.ID <= 0 {
			respondError(c, domain.ErrUnauthorized)
			return
		}
		c.Set(identityKey, identity)
		c.Next()
	}
}

// RequireRole must run after RequireUser.
func RequireRole(role domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := currentUser(c)
		if !ok {
			respondError(c, domain.ErrUnauthorized)
			return
		}
		if identity.Role != role {
			respondError(c, domain.ErrForbidden)
			return
		}
		c.Next()
	}
}

func currentUser(c *gin.Context) (domain.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return domain.Identity{}, false
	}
	identity, ok := v.(domain.Identity)
	return identity, ok
}

// userID is only called behind RequireUser.
func userID(c *gin.Context) int64 {
	identity, _ := currentUser(c)
	return identity.ID
}

// limiterIdleTTL is how long a client IP may stay silent before its limiter
// is dropped.
const limiterIdleTTL = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type ipLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	limit     rate.Limit
	burst     int
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func newIPLimiter(limit rate.Limit, burst int, idleTTL time.Duration) *ipLimiter {
	return &ipLimiter{
		visitors: make(map[string]*visitor),
		limit:    limit,
		burst:    burst,
		idleTTL:  idleTTL,
		now:      time.Now,
	}
}

func (l *ipLimiter) get(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= l.idleTTL {
		l.sweep(now)
	}

	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter
}

// sweep must be called with mu held.
func (l *ipLimiter) sweep(now time.Time) {
	for ip, v := range l.visitors {
		if now.Sub(v.lastSeen) >= l.idleTTL {
			delete(l.visitors, ip)
		}
	}
	l.lastSweep = now
}

// RateLimit allows requestsPerMinute per client IP with the given burst.
func RateLimit(requestsPerMinute, burst int) gin.HandlerFunc {
	if requestsPerMinute <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	limiter := newIPLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), burst, limiterIdleTTL)
	return func(c *gin.Context) {
		if !limiter.get(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}

func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Header(RequestIDHeader, requestID)

		c.Next()

		fields := []zap.Field{
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", strings.TrimSpace(c.Errors.String())))
		}
		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			log.Error("request failed", fields...)
		case status >= http.StatusBadRequest:
			log.Warn("request rejected", fields...)
		default:
			log.Info("request", fields...)
		}
	}
}

func Recovery(log *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.Error("panic recovered",
			zap.Any("panic", recovered),
			zap.String("path", c.Request.URL.Path),
			zap.Stack("stack"),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	})
}
