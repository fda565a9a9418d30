package httphandler

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

type userLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ChatLimiter bounds chat messages per user per minute.
type ChatLimiter struct {
	mu        sync.Mutex
	users     map[string]*userLimiter
	limit     rate.Limit
	burst     int
	lastPrune time.Time
	now       func() time.Time
}

// NewChatLimiter allows perMinute messages per user with an equal burst.
// A non-positive perMinute disables limiting.
func NewChatLimiter(perMinute int) *ChatLimiter {
	l := &ChatLimiter{
		users: make(map[string]*userLimiter),
		limit: rate.Inf,
		now:   time.Now,
	}
	if perMinute > 0 {
		l.limit = rate.Every(time.Minute / time.Duration(perMinute))
		l.burst = perMinute
	}
	return l
}

// Allow reports whether userID may send now and, if not, how long to wait.
func (l *ChatLimiter) Allow(userID string) (bool, time.Duration) {
	if l.limit == rate.Inf {
		return true, 0
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.prune(now)

	u, ok := l.users[userID]
	if !ok {
		u = &userLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.users[userID] = u
	}
	u.lastSeen = now

	res := u.limiter.ReserveN(now, 1)
	if !res.OK() {
		return false, time.Minute
	}
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		return false, delay
	}
	return true, 0
}

func (l *ChatLimiter) prune(now time.Time) {
	if now.Sub(l.lastPrune) < limiterIdleTTL {
		return
	}
	l.lastPrune = now
	for id, u := range l.users {
		if now.Sub(u.lastSeen) > limiterIdleTTL {
			delete(l.users, id)
		}
	}
}

// Middleware answers 429 with Retry-After once the caller's budget is spent.
// It must run after authentication.
func (l *ChatLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := IdentityFrom(r.Context())
		ok, wait := l.Allow(id.UserID)
		if !ok {
			secs := int(math.Ceil(wait.Seconds()))
			if secs < 1 {
				secs = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(secs))
			writeError(w, http.StatusTooManyRequests, "too many chat messages, slow down")
			return
		}
		next.ServeHTTP(w, r)
	})
}
