package service

import (
	"log"
	"sync"
	"time"
)

// AuthLimiterConfig holds configuration for the auth failure limiter.
type AuthLimiterConfig struct {
	// LogInterval is the minimum gap between log lines for the same
	// credential prefix. Default: 1 minute.
	LogInterval time.Duration

	// SweepInterval is how often stale entries are evicted. Default: 10 minutes.
	SweepInterval time.Duration

	// EntryTTL is how long an idle entry is kept. Default: 1 hour.
	EntryTTL time.Duration

	// MaxEntries bounds the table; the sweep trims overflow. Default: 1000.
	MaxEntries int
}

// DefaultAuthLimiterConfig returns default limiter configuration.
func DefaultAuthLimiterConfig() AuthLimiterConfig {
	return AuthLimiterConfig{
		LogInterval:   1 * time.Minute,
		SweepInterval: 10 * time.Minute,
		EntryTTL:      1 * time.Hour,
		MaxEntries:    1000,
	}
}

type authAttempt struct {
	failures   int
	lastLogged time.Time
	lastSeen   time.Time
}

// AuthLimiter tracks repeated authentication failures per credential prefix
// so the log is not flooded by a client retrying a dead token. Bounded and
// swept periodically; injected into the auth service rather than living as
// package state.
type AuthLimiter struct {
	config   AuthLimiterConfig
	mu       sync.Mutex
	attempts map[string]*authAttempt
	ticker   *time.Ticker
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewAuthLimiter creates a new auth failure limiter.
func NewAuthLimiter(config AuthLimiterConfig) *AuthLimiter {
	if config.LogInterval == 0 {
		config.LogInterval = 1 * time.Minute
	}
	if config.SweepInterval == 0 {
		config.SweepInterval = 10 * time.Minute
	}
	if config.EntryTTL == 0 {
		config.EntryTTL = 1 * time.Hour
	}
	if config.MaxEntries == 0 {
		config.MaxEntries = 1000
	}

	return &AuthLimiter{
		config:   config,
		attempts: make(map[string]*authAttempt),
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background sweep.
func (l *AuthLimiter) Start() {
	l.ticker = time.NewTicker(l.config.SweepInterval)
	go l.run()
}

func (l *AuthLimiter) run() {
	for {
		select {
		case <-l.ticker.C:
			l.sweep()
		case <-l.stopCh:
			return
		}
	}
}

// RecordFailure notes a failed resolution for a credential prefix and reports
// whether this failure should be logged (at most once per LogInterval).
func (l *AuthLimiter) RecordFailure(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	a, ok := l.attempts[key]
	if !ok {
		a = &authAttempt{}
		l.attempts[key] = a
	}
	a.failures++
	a.lastSeen = now

	if now.Sub(a.lastLogged) >= l.config.LogInterval {
		a.lastLogged = now
		return true
	}
	return false
}

// Reset clears the failure record after a successful resolution.
func (l *AuthLimiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.attempts, key)
}

// sweep evicts idle entries and trims the table back under MaxEntries.
func (l *AuthLimiter) sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := time.Now().Add(-l.config.EntryTTL)
	removed := 0
	for key, a := range l.attempts {
		if a.lastSeen.Before(cutoff) {
			delete(l.attempts, key)
			removed++
		}
	}

	for key := range l.attempts {
		if len(l.attempts) <= l.config.MaxEntries {
			break
		}
		delete(l.attempts, key)
		removed++
	}

	if removed > 0 {
		log.Printf("[AuthLimiter] Evicted %d stale auth failure records", removed)
	}
}

// Stop stops the background sweep.
func (l *AuthLimiter) Stop() {
	l.stopOnce.Do(func() {
		if l.ticker != nil {
			l.ticker.Stop()
		}
		close(l.stopCh)
	})
}
