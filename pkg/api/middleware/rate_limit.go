package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter stores rate limiters for each client
type RateLimiter struct {
	clients map[string]*clientLimiter
	mu      sync.Mutex

	requestsPerSecond rate.Limit
	burst             int
	idleTTL           time.Duration

	ticker *time.Ticker
	done   chan struct{}
	once   sync.Once
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(requestsPerSecond float64, burst int) *RateLimiter {
	rl := &RateLimiter{
		clients:           make(map[string]*clientLimiter),
		requestsPerSecond: rate.Limit(requestsPerSecond),
		burst:             burst,
		idleTTL:           10 * time.Minute,
		ticker:            time.NewTicker(time.Minute),
		done:              make(chan struct{}),
	}

	go rl.cleanupClients()

	return rl
}

// cleanupClients drops limiters of clients idle for longer than idleTTL
func (rl *RateLimiter) cleanupClients() {
	for {
		select {
		case now := <-rl.ticker.C:
			rl.evict(now)
		case <-rl.done:
			return
		}
	}
}

func (rl *RateLimiter) evict(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for id, cl := range rl.clients {
		if now.Sub(cl.lastSeen) > rl.idleTTL {
			delete(rl.clients, id)
		}
	}
}

// Stop stops the rate limiter cleanup goroutine
func (rl *RateLimiter) Stop() {
	rl.once.Do(func() {
		rl.ticker.Stop()
		close(rl.done)
	})
}

// getLimiter returns the rate limiter for a client
func (rl *RateLimiter) getLimiter(clientID string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cl, exists := rl.clients[clientID]
	if !exists {
		cl = &clientLimiter{limiter: rate.NewLimiter(rl.requestsPerSecond, rl.burst)}
		rl.clients[clientID] = cl
	}
	cl.lastSeen = time.Now()
	return cl.limiter
}

// RateLimit returns a middleware that rate limits requests per user, or per IP when anonymous
func (rl *RateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID := c.ClientIP()
		if username, ok := c.Get("username"); ok {
			clientID = "user:" + username.(string)
		}

		if !rl.getLimiter(clientID).Allow() {
			AbortWithError(c, http.StatusTooManyRequests, "throttled",
				"Request was throttled.")
			return
		}

		c.Next()
	}
}
