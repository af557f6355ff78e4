package handlers

import (
	"net"
	"net/http"
	"sync"
	"time"
)

type attemptData struct {
	count        int
	firstAttempt time.Time
}

// rateLimiter throttles repeated failures per client IP.
type rateLimiter struct {
	sync.Mutex
	attempts map[string]*attemptData
	blocked  map[string]time.Time

	maxAttempts   int
	window        time.Duration
	blockDuration time.Duration
}

func newRateLimiter(maxAttempts int, window, blockDuration time.Duration) *rateLimiter {
	return &rateLimiter{
		attempts:      make(map[string]*attemptData),
		blocked:       make(map[string]time.Time),
		maxAttempts:   maxAttempts,
		window:        window,
		blockDuration: blockDuration,
	}
}

// signinLimiter and signupLimiter throttle credential guessing and
// bulk account creation separately.
var (
	signinLimiter = newRateLimiter(5, 15*time.Minute, 15*time.Minute)
	signupLimiter = newRateLimiter(5, 15*time.Minute, 15*time.Minute)
)

// Allow returns false if the IP is currently blocked.
// It also cleans up expired blocks.
func (r *rateLimiter) Allow(ip string) bool {
	r.Lock()
	defer r.Unlock()

	if unblockTime, ok := r.blocked[ip]; ok {
		if time.Now().Before(unblockTime) {
			return false
		}
		// Block expired
		delete(r.blocked, ip)
		delete(r.attempts, ip)
	}
	return true
}

// RecordFailure increments the failure count and blocks if threshold reached.
func (r *rateLimiter) RecordFailure(ip string) {
	r.Lock()
	defer r.Unlock()

	// Keep the map bounded; a full reset opens a short bypass window but
	// caps memory under a flood of distinct addresses.
	if len(r.attempts) > 10000 {
		r.attempts = make(map[string]*attemptData)
	}

	data, exists := r.attempts[ip]
	if !exists || time.Since(data.firstAttempt) > r.window {
		r.attempts[ip] = &attemptData{count: 1, firstAttempt: time.Now()}
	} else {
		data.count++
		if data.count >= r.maxAttempts {
			r.blocked[ip] = time.Now().Add(r.blockDuration)
		}
	}
}

// Reset clears the counter for an IP (used on successful signin or signup).
func (r *rateLimiter) Reset(ip string) {
	r.Lock()
	defer r.Unlock()
	delete(r.attempts, ip)
	delete(r.blocked, ip)
}

func getClientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
