package monitoring

import (
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics holds application counters. Simple atomics plus a bounded sample
// buffer for percentiles; scraped via the /metrics endpoint.
type Metrics struct {
	RequestCount   int64
	ErrorCount     int64
	IngestRuns     int64
	GitHubAPICalls int64
	StartTime      time.Time

	// Last 1000 response times, for percentiles.
	responseTimes []time.Duration
	responseMu    sync.RWMutex

	scoreCounts map[string]int64
	scoreMu     sync.RWMutex

	statusCounts map[int]int64
	statusMu     sync.RWMutex

	RateLimitIPBlocks    int64
	RateLimitRedisErrors int64
	RateLimitFallbacks   int64
}

// NewMetrics creates a metrics instance.
func NewMetrics() *Metrics {
	return &Metrics{
		StartTime:     time.Now(),
		responseTimes: make([]time.Duration, 0, 1000),
		scoreCounts:   make(map[string]int64),
		statusCounts:  make(map[int]int64),
	}
}

// IncrementRequest increments the request count.
func (m *Metrics) IncrementRequest() {
	atomic.AddInt64(&m.RequestCount, 1)
}

// IncrementError increments the error count.
func (m *Metrics) IncrementError() {
	atomic.AddInt64(&m.ErrorCount, 1)
}

// IncrementIngestRun increments the ingestion run count.
func (m *Metrics) IncrementIngestRun() {
	atomic.AddInt64(&m.IngestRuns, 1)
}

// IncrementGitHubCalls increments the GitHub API call count.
func (m *Metrics) IncrementGitHubCalls() {
	atomic.AddInt64(&m.GitHubAPICalls, 1)
}

// IncrementScore increments the per-score-type request count.
func (m *Metrics) IncrementScore(scoreType string) {
	m.scoreMu.Lock()
	defer m.scoreMu.Unlock()
	m.scoreCounts[scoreType]++
}

// RecordResponseTime stores a response time sample, keeping the last 1000.
func (m *Metrics) RecordResponseTime(duration time.Duration) {
	m.responseMu.Lock()
	defer m.responseMu.Unlock()
	m.responseTimes = append(m.responseTimes, duration)
	if len(m.responseTimes) > 1000 {
		m.responseTimes = m.responseTimes[1:]
	}
}

// RecordRequestByStatus records a request count by HTTP status code.
func (m *Metrics) RecordRequestByStatus(statusCode int) {
	m.statusMu.Lock()
	defer m.statusMu.Unlock()
	m.statusCounts[statusCode]++
}

// IncrementRateLimitIPBlock increments IP-based rate limit blocks.
func (m *Metrics) IncrementRateLimitIPBlock() {
	atomic.AddInt64(&m.RateLimitIPBlocks, 1)
}

// IncrementRateLimitRedisError increments the Redis failure count.
func (m *Metrics) IncrementRateLimitRedisError() {
	atomic.AddInt64(&m.RateLimitRedisErrors, 1)
}

// IncrementRateLimitFallback increments local-fallback limiter usage.
func (m *Metrics) IncrementRateLimitFallback() {
	atomic.AddInt64(&m.RateLimitFallbacks, 1)
}

// GetPercentileResponseTime calculates a percentile over the sample buffer.
func (m *Metrics) GetPercentileResponseTime(percentile float64) time.Duration {
	m.responseMu.RLock()
	defer m.responseMu.RUnlock()

	if len(m.responseTimes) == 0 {
		return 0
	}

	times := make([]time.Duration, len(m.responseTimes))
	copy(times, m.responseTimes)
	sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })

	index := int(float64(len(times)-1) * percentile / 100.0)
	if index >= len(times) {
		index = len(times) - 1
	}
	return times[index]
}

// GetScoreCounts returns per-score-type request counts.
func (m *Metrics) GetScoreCounts() map[string]int64 {
	m.scoreMu.RLock()
	defer m.scoreMu.RUnlock()

	out := make(map[string]int64, len(m.scoreCounts))
	for k, v := range m.scoreCounts {
		out[k] = v
	}
	return out
}

// GetStatusCodeDistribution returns request counts by status code.
func (m *Metrics) GetStatusCodeDistribution() map[int]int64 {
	m.statusMu.RLock()
	defer m.statusMu.RUnlock()

	out := make(map[int]int64, len(m.statusCounts))
	for k, v := range m.statusCounts {
		out[k] = v
	}
	return out
}

// GetStats returns a snapshot of all counters for the metrics endpoint.
func (m *Metrics) GetStats() map[string]interface{} {
	requests := atomic.LoadInt64(&m.RequestCount)
	errors := atomic.LoadInt64(&m.ErrorCount)

	errorRate := float64(0)
	if requests > 0 {
		errorRate = float64(errors) / float64(requests) * 100
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return map[string]interface{}{
		"uptime_seconds":           time.Since(m.StartTime).Seconds(),
		"total_requests":           requests,
		"error_count":              errors,
		"error_rate_percent":       errorRate,
		"ingest_runs":              atomic.LoadInt64(&m.IngestRuns),
		"github_api_calls":         atomic.LoadInt64(&m.GitHubAPICalls),
		"score_counts":             m.GetScoreCounts(),
		"status_code_distribution": m.GetStatusCodeDistribution(),
		"p50_response_time_ms":     float64(m.GetPercentileResponseTime(50)) / 1e6,
		"p95_response_time_ms":     float64(m.GetPercentileResponseTime(95)) / 1e6,
		"p99_response_time_ms":     float64(m.GetPercentileResponseTime(99)) / 1e6,
		"rate_limit_ip_blocks":     atomic.LoadInt64(&m.RateLimitIPBlocks),
		"rate_limit_redis_errors":  atomic.LoadInt64(&m.RateLimitRedisErrors),
		"rate_limit_fallbacks":     atomic.LoadInt64(&m.RateLimitFallbacks),
		"go_goroutines":            runtime.NumGoroutine(),
		"go_heap_alloc_bytes":      mem.HeapAlloc,
		"go_gc_count":              mem.NumGC,
		"start_time":               m.StartTime.Format(time.RFC3339),
	}
}

// Reset zeroes all counters. For tests.
func (m *Metrics) Reset() {
	atomic.StoreInt64(&m.RequestCount, 0)
	atomic.StoreInt64(&m.ErrorCount, 0)
	atomic.StoreInt64(&m.IngestRuns, 0)
	atomic.StoreInt64(&m.GitHubAPICalls, 0)
	atomic.StoreInt64(&m.RateLimitIPBlocks, 0)
	atomic.StoreInt64(&m.RateLimitRedisErrors, 0)
	atomic.StoreInt64(&m.RateLimitFallbacks, 0)

	m.responseMu.Lock()
	m.responseTimes = m.responseTimes[:0]
	m.responseMu.Unlock()

	m.scoreMu.Lock()
	m.scoreCounts = make(map[string]int64)
	m.scoreMu.Unlock()

	m.statusMu.Lock()
	m.statusCounts = make(map[int]int64)
	m.statusMu.Unlock()

	m.StartTime = time.Now()
}
