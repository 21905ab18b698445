// Package ratelimit provides token bucket rate limiting for inbound
// webhook traffic, keyed per sender.
package ratelimit

import (
	"sync"
	"time"
)

// Bucket is a token bucket. Tokens refill continuously at refillRate per
// second up to burst capacity.
type Bucket struct {
	mu         sync.Mutex
	tokens     float64
	burst      float64
	refillRate float64
	lastRefill time.Time
}

// NewBucket creates a bucket that starts full.
func NewBucket(burst, refillRate float64) *Bucket {
	return &Bucket{
		tokens:     burst,
		burst:      burst,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// Allow consumes one token if available.
func (b *Bucket) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill(time.Now())
	if b.tokens >= 1.0 {
		b.tokens -= 1.0
		return true
	}
	return false
}

// Available returns the current token count without consuming.
func (b *Bucket) Available() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill(time.Now())
	return b.tokens
}

func (b *Bucket) refill(now time.Time) {
	elapsed := now.Sub(b.lastRefill).Seconds()
	b.tokens += elapsed * b.refillRate
	if b.tokens > b.burst {
		b.tokens = b.burst
	}
	b.lastRefill = now
}

// DropRecorder counts rejected requests.
type DropRecorder interface {
	RecordRateLimiterDrop(scope string)
}

// PerSender rate limits each sender with its own bucket. Buckets for
// senders that have gone quiet are dropped by a background sweep.
type PerSender struct {
	mu         sync.RWMutex
	buckets    map[string]*Bucket
	burst      float64
	refillRate float64
	metrics    DropRecorder
	stop       chan struct{}
	stopOnce   sync.Once
}

// NewPerSender creates a per-sender limiter. sweep is the interval of the
// idle bucket cleanup. metrics may be nil.
func NewPerSender(burst, refillRate float64, sweep time.Duration, metrics DropRecorder) *PerSender {
	p := &PerSender{
		buckets:    make(map[string]*Bucket),
		burst:      burst,
		refillRate: refillRate,
		metrics:    metrics,
		stop:       make(chan struct{}),
	}
	go p.sweepLoop(sweep)
	return p
}

// Allow checks whether a message from sender may be processed.
func (p *PerSender) Allow(sender string) bool {
	p.mu.RLock()
	bucket, ok := p.buckets[sender]
	p.mu.RUnlock()

	if !ok {
		p.mu.Lock()
		bucket, ok = p.buckets[sender]
		if !ok {
			bucket = NewBucket(p.burst, p.refillRate)
			p.buckets[sender] = bucket
		}
		p.mu.Unlock()
	}

	allowed := bucket.Allow()
	if !allowed && p.metrics != nil {
		p.metrics.RecordRateLimiterDrop("sender")
	}
	return allowed
}

// Close stops the cleanup goroutine.
func (p *PerSender) Close() {
	p.stopOnce.Do(func() { close(p.stop) })
}

func (p *PerSender) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.mu.Lock()
			// a full bucket belongs to an idle sender
			for sender, bucket := range p.buckets {
				if bucket.Available() >= p.burst {
					delete(p.buckets, sender)
				}
			}
			p.mu.Unlock()
		case <-p.stop:
			return
		}
	}
}
