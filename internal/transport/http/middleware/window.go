package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// WindowStore keeps a sliding-window log of accepted attempts per key.
type WindowStore interface {
	// Allow records an attempt at now and reports whether it fits in limit for
	// the trailing window. Rejected attempts are not recorded.
	Allow(ctx context.Context, key string, limit int, window time.Duration, now time.Time) (bool, error)
}

// WindowLimiter allows at most limit requests per caller IP in any trailing
// window. Unlike the token bucket it never lets a burst exceed the limit.
type WindowLimiter struct {
	store   WindowStore
	limit   int
	window  time.Duration
	message string
	now     func() time.Time
}

func NewWindowLimiter(store WindowStore, limit int, window time.Duration, message string) *WindowLimiter {
	return &WindowLimiter{store: store, limit: limit, window: window, message: message, now: time.Now}
}

func (wl *WindowLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := realIP(r)
		ok, err := wl.store.Allow(r.Context(), ip, wl.limit, wl.window, wl.now())
		if err != nil {
			// Store errors fail open.
			zerolog.Ctx(r.Context()).Error().Err(err).Str("ip", ip).Msg("rate limit store unavailable")
		} else if !ok {
			w.Header().Set("Retry-After", retryAfter(wl.window))
			writeJSONError(w, http.StatusTooManyRequests, wl.message)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func retryAfter(d time.Duration) string {
	return strconv.Itoa(max(int(d.Seconds()), 1))
}

// MemoryWindowStore is the single-instance WindowStore.
type MemoryWindowStore struct {
	mu   sync.Mutex
	hits map[string][]time.Time
	stop chan struct{}
	once sync.Once
}

// NewMemoryWindowStore starts a sweeper that drops keys idle for longer than maxAge.
func NewMemoryWindowStore(maxAge time.Duration) *MemoryWindowStore {
	s := &MemoryWindowStore{hits: make(map[string][]time.Time), stop: make(chan struct{})}
	go s.sweep(maxAge)
	return s
}

func (s *MemoryWindowStore) Allow(_ context.Context, key string, limit int, window time.Duration, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	log := prune(s.hits[key], now.Add(-window))
	if len(log) >= limit {
		s.hits[key] = log
		return false, nil
	}
	s.hits[key] = append(log, now)
	return true, nil
}

// prune drops timestamps at or before cutoff. The log is in insertion order.
func prune(log []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(log) && !log[i].After(cutoff) {
		i++
	}
	return log[i:]
}

func (s *MemoryWindowStore) sweep(maxAge time.Duration) {
	t := time.NewTicker(maxAge)
	defer t.Stop()
	for {
		select {
		case <-s.stop:
			return
		case now := <-t.C:
			s.mu.Lock()
			for k, log := range s.hits {
				if len(log) == 0 || now.Sub(log[len(log)-1]) > maxAge {
					delete(s.hits, k)
				}
			}
			s.mu.Unlock()
		}
	}
}

// Close stops the sweeper.
func (s *MemoryWindowStore) Close() {
	s.once.Do(func() { close(s.stop) })
}
