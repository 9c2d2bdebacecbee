// Package ratelimit provides per-client API rate limiting built on
// golang.org/x/time/rate token buckets.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Info contains information about rate limit status.
type Info struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	Whitelist       map[string]bool
	Blacklist       map[string]bool
	EndpointConfigs []EndpointConfig
}

// clientBucket pairs a token bucket with its last access time for cleanup
type clientBucket struct {
	limiter    *rate.Limiter
	capacity   int
	lastAccess time.Time
}

// Limiter manages rate limiting for multiple clients. Buckets are keyed by
// client, endpoint and method, so a heavy caller of one endpoint does not
// starve its other requests.
type Limiter struct {
	mu            sync.Mutex
	buckets       map[string]*clientBucket
	config        *Config
	cleanupTicker *time.Ticker
	cleanupStop   chan struct{}
}

// NewLimiter creates a new rate limiter with the given configuration.
func NewLimiter(config *Config) *Limiter {
	if config == nil {
		config = &Config{
			Enabled:         true,
			DefaultLimit:    1000,
			DefaultWindow:   time.Minute,
			CleanupInterval: 5 * time.Minute,
			Whitelist:       make(map[string]bool),
			Blacklist:       make(map[string]bool),
		}
	}

	limiter := &Limiter{
		buckets: make(map[string]*clientBucket),
		config:  config,
	}

	if config.Enabled && config.CleanupInterval > 0 {
		limiter.cleanupTicker = time.NewTicker(config.CleanupInterval)
		limiter.cleanupStop = make(chan struct{})
		go limiter.cleanup()
	}

	return limiter
}

// Allow checks if a request from the given client is allowed for the
// specified endpoint. Returns whether the request may proceed, along with
// rate limit information for response headers.
func (l *Limiter) Allow(clientID string, endpoint string, method string) (bool, Info) {
	if !l.config.Enabled || l.config.Whitelist[clientID] {
		return true, Info{Allowed: true}
	}
	if l.config.Blacklist[clientID] {
		return false, Info{Allowed: false}
	}

	endpointConfig := MatchEndpoint(endpoint, method, l.config.EndpointConfigs)
	if endpointConfig == nil {
		endpointConfig = &EndpointConfig{
			Limit:  l.config.DefaultLimit,
			Window: l.config.DefaultWindow,
			Burst:  l.config.DefaultLimit,
		}
	}

	// Unlimited endpoint (e.g. health check)
	if endpointConfig.Limit <= 0 {
		return true, Info{Allowed: true}
	}

	bucketKey := clientID + ":" + endpoint + ":" + method
	bucket := l.getBucket(bucketKey, endpointConfig)

	now := time.Now()
	allowed := bucket.limiter.Allow()
	remaining := int(bucket.limiter.Tokens())
	if remaining < 0 {
		remaining = 0
	}

	info := Info{
		Allowed:   allowed,
		Limit:     endpointConfig.Limit,
		Remaining: remaining,
		ResetTime: resetTime(now, bucket, endpointConfig),
	}
	if !allowed {
		info.RetryAfter = retryAfter(bucket.limiter)
	}
	return allowed, info
}

// getBucket gets or creates the token bucket for the given key.
func (l *Limiter) getBucket(key string, cfg *EndpointConfig) *clientBucket {
	l.mu.Lock()
	defer l.mu.Unlock()

	if bucket, exists := l.buckets[key]; exists {
		bucket.lastAccess = time.Now()
		return bucket
	}

	capacity := cfg.Burst
	if capacity <= 0 {
		capacity = cfg.Limit
	}
	refill := rate.Limit(float64(cfg.Limit) / cfg.Window.Seconds())

	bucket := &clientBucket{
		limiter:    rate.NewLimiter(refill, capacity),
		capacity:   capacity,
		lastAccess: time.Now(),
	}
	l.buckets[key] = bucket
	return bucket
}

// retryAfter estimates how long until a single token is available.
func retryAfter(lim *rate.Limiter) time.Duration {
	r := lim.Reserve()
	delay := r.Delay()
	r.Cancel()
	if delay < 0 {
		return 0
	}
	return delay
}

// resetTime estimates when the bucket refills completely.
func resetTime(now time.Time, bucket *clientBucket, cfg *EndpointConfig) time.Time {
	tokens := bucket.limiter.Tokens()
	missing := float64(bucket.capacity) - tokens
	if missing <= 0 {
		return now
	}
	perToken := cfg.Window.Seconds() / float64(cfg.Limit)
	return now.Add(time.Duration(missing * perToken * float64(time.Second)))
}

// cleanup removes idle buckets to prevent unbounded growth.
func (l *Limiter) cleanup() {
	for {
		select {
		case <-l.cleanupTicker.C:
			l.cleanupBuckets()
		case <-l.cleanupStop:
			return
		}
	}
}

// cleanupBuckets removes buckets that have not been accessed in over an hour.
func (l *Limiter) cleanupBuckets() {
	cutoff := time.Now().Add(-1 * time.Hour)

	l.mu.Lock()
	defer l.mu.Unlock()

	for key, bucket := range l.buckets {
		if bucket.lastAccess.Before(cutoff) {
			delete(l.buckets, key)
		}
	}
}

// Stop stops the cleanup goroutine.
func (l *Limiter) Stop() {
	if l.cleanupTicker != nil {
		l.cleanupTicker.Stop()
	}
	if l.cleanupStop != nil {
		close(l.cleanupStop)
	}
}
