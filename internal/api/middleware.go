package api

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/osrplabs/osrp/internal/auth"
	"github.com/osrplabs/osrp/internal/logging"
	"github.com/osrplabs/osrp/pkg/protocol"
)

// statusRecorder captures the response status for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// RequestLogger logs one line per request. Bodies are never logged; the
// interesting protocol values are secrets.
func RequestLogger(logger *logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			logger.Info("request", map[string]any{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      rec.status,
				"duration_ms": time.Since(start).Milliseconds(),
				"remote":      clientIP(r),
			})
		})
	}
}

// ipLimiter tracks one token bucket per client IP.
type ipLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     rate.Limit
	burst    int
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimit is transport-level per-IP limiting, independent of the
// protocol's per-username OPRF budget.
func IPRateLimit(perSecond float64, burst int) func(http.Handler) http.Handler {
	il := &ipLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate.Limit(perSecond),
		burst:    burst,
	}
	go il.cleanupLoop()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !il.allow(clientIP(r)) {
				writeError(w, http.StatusTooManyRequests, protocol.NewRateLimitExceededError(1))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (il *ipLimiter) allow(ip string) bool {
	il.mu.Lock()
	v, ok := il.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(il.rate, il.burst)}
		il.visitors[ip] = v
	}
	v.lastSeen = time.Now()
	il.mu.Unlock()

	return v.limiter.Allow()
}

// cleanupLoop removes buckets for IPs idle longer than three minutes.
func (il *ipLimiter) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		il.mu.Lock()
		for ip, v := range il.visitors {
			if time.Since(v.lastSeen) > 3*time.Minute {
				delete(il.visitors, ip)
			}
		}
		il.mu.Unlock()
	}
}

// clientIP extracts the peer address without the port.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RequireSession validates the Bearer token and rejects the request when
// it is missing, unknown, or expired.
func RequireSession(sessions *auth.SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || !auth.VerifyTokenShape(token) {
				writeError(w, http.StatusUnauthorized, protocol.NewSessionInvalidError())
				return
			}

			session, err := sessions.ValidateSession(token)
			if err != nil {
				switch err {
				case auth.ErrSessionExpired:
					writeError(w, http.StatusUnauthorized, protocol.NewSessionExpiredError())
				default:
					writeError(w, http.StatusUnauthorized, protocol.NewSessionInvalidError())
				}
				return
			}

			r.Header.Set("X-OSRP-Username", session.Username)
			next.ServeHTTP(w, r)
		})
	}
}
