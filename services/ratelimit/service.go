// Package ratelimit throttles inbound requests per client with token buckets.
package ratelimit

import (
	"math"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	defaultIdleTTL = 15 * time.Minute
	sweepInterval  = 2 * time.Minute
)

// Config holds the per-client bucket parameters
type Config struct {
	RPS     float64
	Burst   int
	IdleTTL time.Duration
}

// Result represents the result of a rate limit check
type Result struct {
	Allowed    bool
	Limit      float64
	Burst      int
	Remaining  int
	RetryAfter time.Duration
}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Service keeps one limiter per client key and forgets idle keys.
type Service struct {
	cfg    Config
	logger *zap.Logger
	now    func() time.Time

	mu        sync.Mutex
	clients   map[string]*entry
	lastSweep time.Time
}

// NewService creates a new rate limit service
func NewService(cfg Config, logger *zap.Logger) *Service {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = defaultIdleTTL
	}
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	return &Service{
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
		clients: make(map[string]*entry),
	}
}

// Allow consumes one token from key's bucket.
func (s *Service) Allow(key string) Result {
	now := s.now()
	lim := s.limiter(key, now)

	res := Result{Limit: s.cfg.RPS, Burst: s.cfg.Burst}
	r := lim.ReserveN(now, 1)
	if !r.OK() {
		return res
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		res.RetryAfter = delay
		s.logger.Debug("rate limit exceeded",
			zap.String("client", key),
			zap.Duration("retry_after", delay))
		return res
	}

	res.Allowed = true
	res.Remaining = int(math.Max(0, math.Floor(lim.TokensAt(now))))
	return res
}

// Clients returns the number of tracked client keys.
func (s *Service) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Service) limiter(key string, now time.Time) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.clients[key]; ok {
		e.lastSeen = now
		return e.limiter
	}

	lim := rate.NewLimiter(rate.Limit(s.cfg.RPS), s.cfg.Burst)
	s.clients[key] = &entry{limiter: lim, lastSeen: now}

	if s.lastSweep.IsZero() || now.Sub(s.lastSweep) > sweepInterval {
		s.sweepLocked(now)
		s.lastSweep = now
	}
	return lim
}

func (s *Service) sweepLocked(now time.Time) {
	for k, e := range s.clients {
		if now.Sub(e.lastSeen) > s.cfg.IdleTTL {
			delete(s.clients, k)
		}
	}
}
