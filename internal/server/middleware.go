package server

import (
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"bidding-engine/internal/biddingerrors"
	"bidding-engine/internal/models"
	"bidding-engine/services/bidding/helpers"
	"bidding-engine/utils"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	headerUserID   = "X-User-ID"
	headerUserRole = "X-User-Role"
	roleAdmin      = "admin"
)

var errTooManyRequests = errors.New("too many requests, try again later")

// RequestLoggerMiddleware logs incoming requests with timing
func RequestLoggerMiddleware(c *gin.Context) {
	start := time.Now()

	c.Next() // process request

	fields := map[string]any{
		"method":  c.Request.Method,
		"path":    c.Request.URL.Path,
		"status":  c.Writer.Status(),
		"latency": time.Since(start).String(),
	}
	if actor := helpers.ActorFrom(c); actor.UserID != "" {
		fields["user_id"] = actor.UserID
	}
	utils.Info("HTTP Request", fields)
}

// IdentityMiddleware reads the trusted identity headers set by the gateway in
// front of the engine.
func IdentityMiddleware(c *gin.Context) {
	helpers.SetActor(c, models.Actor{
		UserID: strings.TrimSpace(c.GetHeader(headerUserID)),
		Admin:  strings.EqualFold(strings.TrimSpace(c.GetHeader(headerUserRole)), roleAdmin),
	})
	c.Next()
}

// RequireUser rejects requests without a caller identity
func RequireUser(c *gin.Context) {
	if helpers.ActorFrom(c).UserID == "" {
		abort(c, biddingerrors.ErrMissingIdentity)
		return
	}
	c.Next()
}

// RequireAdmin rejects callers without the admin role
func RequireAdmin(c *gin.Context) {
	actor := helpers.ActorFrom(c)
	if actor.UserID == "" {
		abort(c, biddingerrors.ErrMissingIdentity)
		return
	}
	if !actor.Admin {
		abort(c, biddingerrors.ErrForbidden)
		return
	}
	c.Next()
}

func abort(c *gin.Context, err error) {
	status, message := helpers.MapErrorToHTTP(err)
	utils.AbortJSONError(c, status, err, message)
	utils.Warn("request rejected", map[string]any{
		"path":   c.Request.URL.Path,
		"error":  err.Error(),
		"status": status,
	})
}

// Throttle limits each caller to perMinute requests, with a burst of the same
// size. A non-positive perMinute disables it.
type Throttle struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	limiters  map[string]*rate.Limiter
	lastSeen  map[string]time.Time
	idleAfter time.Duration
}

func NewThrottle(perMinute int) *Throttle {
	t := &Throttle{
		limiters:  make(map[string]*rate.Limiter),
		lastSeen:  make(map[string]time.Time),
		idleAfter: 10 * time.Minute,
	}
	if perMinute > 0 {
		t.limit = rate.Every(time.Minute / time.Duration(perMinute))
		t.burst = perMinute
	}
	return t
}

func (t *Throttle) limiter(key string, now time.Time) *rate.Limiter {
	t.mu.Lock()
	defer t.mu.Unlock()

	for k, seen := range t.lastSeen {
		if now.Sub(seen) > t.idleAfter {
			delete(t.lastSeen, k)
			delete(t.limiters, k)
		}
	}

	l, ok := t.limiters[key]
	if !ok {
		l = rate.NewLimiter(t.limit, t.burst)
		t.limiters[key] = l
	}
	t.lastSeen[key] = now
	return l
}

// Middleware returns the gin handler enforcing the limit per caller
func (t *Throttle) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if t.burst == 0 {
			c.Next()
			return
		}
		key := helpers.ActorFrom(c).UserID
		if key == "" {
			key = c.ClientIP()
		}
		now := time.Now()
		if !t.limiter(key, now).AllowN(now, 1) {
			c.Header("Retry-After", "60")
			utils.AbortJSONError(c, http.StatusTooManyRequests, errTooManyRequests, errTooManyRequests.Error())
			utils.Warn("request throttled", map[string]any{
				"path":    c.Request.URL.Path,
				"user_id": key,
			})
			return
		}
		c.Next()
	}
}
