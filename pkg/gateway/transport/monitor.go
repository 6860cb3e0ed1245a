package transport

import (
	"sync"
	"time"
)

// Status represents the observed health of the gateway.
type Status int

const (
	StatusHealthy   Status = iota // Gateway is answering normally
	StatusDegraded                // Gateway is slow but working
	StatusThrottled               // Gateway asked us to back off
	StatusBlocked                 // Gateway is rejecting our credentials
)

func (s Status) String() string {
	switch s {
	case StatusDegraded:
		return "degraded"
	case StatusThrottled:
		return "throttled"
	case StatusBlocked:
		return "blocked"
	default:
		return "healthy"
	}
}

// MonitorStats holds monitoring statistics for the gateway.
type MonitorStats struct {
	Status           Status
	AverageLatency   time.Duration
	ThrottleCount429 int
	AuthFailures     int
	NetworkFailures  int
	RequestsLastHour int
	RetryAfter       time.Duration
	LastThrottleAt   time.Time
}

// Monitor tracks gateway latency and throttling across attempts.
type Monitor struct {
	mu sync.RWMutex

	recentLatencies  []time.Duration
	maxLatencyWindow int

	status429Count  int
	authFailures    int
	networkFailures int
	lastThrottle    time.Time
	throttledUntil  time.Time
	lastAuthFailure time.Time

	requestTimestamps []time.Time
	windowDuration    time.Duration

	slowResponseThreshold time.Duration
	blockedWindow         time.Duration
}

// NewMonitor creates a new monitor with default settings.
func NewMonitor() *Monitor {
	return &Monitor{
		recentLatencies:       make([]time.Duration, 0, 100),
		maxLatencyWindow:      100,
		requestTimestamps:     make([]time.Time, 0),
		windowDuration:        time.Hour,
		slowResponseThreshold: 3 * time.Second,
		blockedWindow:         time.Minute,
	}
}

// RecordRequest records a completed round trip with its latency.
func (m *Monitor) RecordRequest(latency time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()

	m.recentLatencies = append(m.recentLatencies, latency)
	if len(m.recentLatencies) > m.maxLatencyWindow {
		m.recentLatencies = m.recentLatencies[1:]
	}

	m.requestTimestamps = append(m.requestTimestamps, now)

	cutoff := now.Add(-m.windowDuration)
	i := 0
	for i < len(m.requestTimestamps) && !m.requestTimestamps[i].After(cutoff) {
		i++
	}
	m.requestTimestamps = m.requestTimestamps[i:]
}

// RecordThrottle records a 429. retryAfter <= 0 means the gateway gave no hint.
func (m *Monitor) RecordThrottle(retryAfter time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	m.status429Count++
	m.lastThrottle = now
	if retryAfter > 0 {
		m.throttledUntil = now.Add(retryAfter)
	}
}

// RecordAuthFailure records a 401/403.
func (m *Monitor) RecordAuthFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.authFailures++
	m.lastAuthFailure = time.Now()
}

// RecordNetworkFailure records an attempt that never got a response.
func (m *Monitor) RecordNetworkFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.networkFailures++
}

// Status returns the current status of the gateway as seen by this client.
func (m *Monitor) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.statusLocked(time.Now())
}

func (m *Monitor) statusLocked(now time.Time) Status {
	if !m.lastAuthFailure.IsZero() && now.Sub(m.lastAuthFailure) < m.blockedWindow {
		return StatusBlocked
	}

	if now.Before(m.throttledUntil) {
		return StatusThrottled
	}

	if len(m.recentLatencies) > 10 && m.averageLatencyLocked() > m.slowResponseThreshold {
		return StatusDegraded
	}

	return StatusHealthy
}

// RetryAfter returns the remaining time of the last Retry-After window.
func (m *Monitor) RetryAfter() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if remaining := time.Until(m.throttledUntil); remaining > 0 {
		return remaining
	}
	return 0
}

// AverageLatency returns the average latency of recent requests.
func (m *Monitor) AverageLatency() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.averageLatencyLocked()
}

func (m *Monitor) averageLatencyLocked() time.Duration {
	if len(m.recentLatencies) == 0 {
		return 0
	}

	var total time.Duration
	for _, lat := range m.recentLatencies {
		total += lat
	}
	return total / time.Duration(len(m.recentLatencies))
}

// Stats returns current monitoring statistics.
func (m *Monitor) Stats() MonitorStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := time.Now()
	stats := MonitorStats{
		Status:           m.statusLocked(now),
		AverageLatency:   m.averageLatencyLocked(),
		ThrottleCount429: m.status429Count,
		AuthFailures:     m.authFailures,
		NetworkFailures:  m.networkFailures,
		RequestsLastHour: len(m.requestTimestamps),
		LastThrottleAt:   m.lastThrottle,
	}
	if remaining := m.throttledUntil.Sub(now); remaining > 0 {
		stats.RetryAfter = remaining
	}
	return stats
}
