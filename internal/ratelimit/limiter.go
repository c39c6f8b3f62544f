// Package ratelimit caps how many holds a checkout session or client IP can
// place within a window.
package ratelimit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Clock interface for testing time-dependent behavior.
type Clock interface {
	Now() time.Time
}

// realClock implements Clock using the system time.
type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Config holds rate limit configuration.
type Config struct {
	Window          time.Duration // Counting window (default: 1h)
	HoldsPerSession int           // Max holds per session per window (default: 10)
	HoldsPerIP      int           // Max holds per IP per window (default: 60)

	// Clock for testing (nil uses real time)
	Clock Clock
}

// DefaultConfig returns production-ready defaults.
func DefaultConfig() *Config {
	return &Config{
		Window:          time.Hour,
		HoldsPerSession: 10,
		HoldsPerIP:      60,
	}
}

// LimitResult contains the result of a rate limit check.
type LimitResult struct {
	Allowed    bool
	RetryAfter time.Duration
	Reason     string // For logging
}

// entry tracks request counts and timestamps.
type entry struct {
	count   int
	firstAt time.Time // First request in window
	lastAt  time.Time
}

// Limiter implements per-session and per-IP fixed-window limits on hold creation.
type Limiter struct {
	config *Config
	clock  Clock
	mu     sync.RWMutex
	// Keyed by hash of session id or IP
	bySession map[string]*entry
	byIP      map[string]*entry

	// Cleanup goroutine management
	cleanupCtx    context.Context
	cleanupCancel context.CancelFunc
	cleanupOnce   sync.Once
	cleanupWg     sync.WaitGroup
}

// New creates a new rate limiter with the given config.
func New(cfg *Config) *Limiter {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	defaults := DefaultConfig()
	if cfg.Window <= 0 {
		cfg.Window = defaults.Window
	}
	if cfg.HoldsPerSession <= 0 {
		cfg.HoldsPerSession = defaults.HoldsPerSession
	}
	if cfg.HoldsPerIP <= 0 {
		cfg.HoldsPerIP = defaults.HoldsPerIP
	}
	clock := cfg.Clock
	if clock == nil {
		clock = realClock{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Limiter{
		config:        cfg,
		clock:         clock,
		bySession:     make(map[string]*entry),
		byIP:          make(map[string]*entry),
		cleanupCtx:    ctx,
		cleanupCancel: cancel,
	}
}

// Close stops the cleanup goroutine and releases resources.
func (l *Limiter) Close() {
	l.cleanupCancel()
	l.cleanupWg.Wait()
}

// CheckHold checks if a hold request is allowed.
// Does NOT record the attempt - call RecordHold once the hold was created.
func (l *Limiter) CheckHold(sessionID, ip string) LimitResult {
	l.startCleanup()
	now := l.clock.Now()
	sessionKey := l.hashKey("hold:session:", normalizeSession(sessionID))
	ipKey := l.hashKey("hold:ip:", ip)

	l.mu.RLock()
	defer l.mu.RUnlock()

	if e := l.bySession[sessionKey]; e != nil {
		if now.Sub(e.firstAt) < l.config.Window && e.count >= l.config.HoldsPerSession {
			return LimitResult{
				Allowed:    false,
				RetryAfter: l.config.Window - now.Sub(e.firstAt),
				Reason:     "session_limit",
			}
		}
	}

	if e := l.byIP[ipKey]; e != nil {
		if now.Sub(e.firstAt) < l.config.Window && e.count >= l.config.HoldsPerIP {
			return LimitResult{
				Allowed:    false,
				RetryAfter: l.config.Window - now.Sub(e.firstAt),
				Reason:     "ip_limit",
			}
		}
	}

	return LimitResult{Allowed: true}
}

// RecordHold counts a created hold against its session and IP.
func (l *Limiter) RecordHold(sessionID, ip string) {
	now := l.clock.Now()
	sessionKey := l.hashKey("hold:session:", normalizeSession(sessionID))
	ipKey := l.hashKey("hold:ip:", ip)

	l.mu.Lock()
	defer l.mu.Unlock()

	l.bump(l.bySession, sessionKey, now)
	l.bump(l.byIP, ipKey, now)
}

func (l *Limiter) bump(entries map[string]*entry, key string, now time.Time) {
	e := entries[key]
	if e == nil || now.Sub(e.firstAt) >= l.config.Window {
		entries[key] = &entry{count: 1, firstAt: now, lastAt: now}
		return
	}
	e.count++
	e.lastAt = now
}

func (l *Limiter) hashKey(prefix, value string) string {
	hash := sha256.Sum256([]byte(value))
	return prefix + hex.EncodeToString(hash[:8])
}

func normalizeSession(sessionID string) string {
	return strings.TrimSpace(sessionID)
}

func (l *Limiter) startCleanup() {
	l.cleanupOnce.Do(func() {
		l.cleanupWg.Add(1)
		go func() {
			defer l.cleanupWg.Done()
			ticker := time.NewTicker(5 * time.Minute)
			defer ticker.Stop()
			for {
				select {
				case <-l.cleanupCtx.Done():
					return
				case <-ticker.C:
					l.cleanup()
				}
			}
		}()
	})
}

func (l *Limiter) cleanup() {
	now := l.clock.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	for k, e := range l.bySession {
		if now.Sub(e.firstAt) >= l.config.Window {
			delete(l.bySession, k)
		}
	}
	for k, e := range l.byIP {
		if now.Sub(e.firstAt) >= l.config.Window {
			delete(l.byIP, k)
		}
	}
}

// size reports tracked entries, for tests.
func (l *Limiter) size() (sessions, ips int) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.bySession), len(l.byIP)
}

// GetClientIP extracts the client IP from a request.
// When trustProxy is true, uses the rightmost IP from X-Forwarded-For (added by your proxy).
// When trustProxy is false, ignores X-Forwarded-For entirely (prevents spoofing).
func GetClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			// Use RIGHTMOST IP - this is the one your proxy added, not user-supplied
			parts := strings.Split(xff, ",")
			for i := len(parts) - 1; i >= 0; i-- {
				ip := strings.TrimSpace(parts[i])
				// Skip private/internal IPs to find the real client
				if ip != "" && !isPrivateIP(ip) {
					return ip
				}
			}
			// All IPs are private, use the last one
			return strings.TrimSpace(parts[len(parts)-1])
		}

		// Check X-Real-IP (set by nginx)
		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			return strings.TrimSpace(xri)
		}
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		if parsed := net.ParseIP(r.RemoteAddr); parsed != nil {
			return r.RemoteAddr
		}
		return r.RemoteAddr
	}
	return ip
}

// privateNetworks holds parsed CIDR ranges for private/reserved IPs.
var privateNetworks []*net.IPNet

func init() {
	privateRanges := []string{
		"10.0.0.0/8",
		"172.16.0.0/12",
		"192.168.0.0/16",
		"127.0.0.0/8",
		"::1/128",
		"fc00::/7",
		"fe80::/10", // Link-local
	}
	for _, cidr := range privateRanges {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			panic("invalid private CIDR: " + cidr)
		}
		privateNetworks = append(privateNetworks, network)
	}
}

// isPrivateIP checks if an IP is in a private/reserved range.
// Handles both IPv4 and IPv4-mapped IPv6 addresses (e.g., ::ffff:192.168.1.1).
func isPrivateIP(ipStr string) bool {
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return false
	}
	if ipv4 := ip.To4(); ipv4 != nil {
		ip = ipv4
	}
	for _, network := range privateNetworks {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// maskSession shortens a session id for logging.
func maskSession(sessionID string) string {
	sessionID = normalizeSession(sessionID)
	if len(sessionID) > 6 {
		return sessionID[:6] + "***"
	}
	return "***"
}

// LogRateLimitExceeded logs a rate limit event with a masked session id.
func LogRateLimitExceeded(ctx context.Context, sessionID, ip string, result LimitResult) {
	log.Ctx(ctx).Warn().
		Str("event", "rate_limit_exceeded").
		Str("session", maskSession(sessionID)).
		Str("ip", ip).
		Str("reason", result.Reason).
		Dur("retry_after", result.RetryAfter).
		Msg("Hold rate limit exceeded")
}
