package health

import (
	"context"
	"sync"
	"time"

	"calsync/core/storage"
	"calsync/feature/health/checks"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

// Overall status values.
const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
)

// Dependencies are the components the health checks probe. Nil members are reported as disabled.
type Dependencies struct {
	Source      checks.Pinger
	Destination checks.Pinger
	DB          *gorm.DB
	Storage     storage.Client
	Bucket      string
}

// Report is the combined result of all checks.
type Report struct {
	Status    string          `json:"status"`
	Checks    []checks.Result `json:"checks"`
	CheckedAt time.Time       `json:"checked_at"`
	Cached    bool            `json:"cached"`
}

// Healthy reports whether every check passed.
func (r *Report) Healthy() bool {
	return r.Status == StatusOK
}

// Service runs health checks and caches the report for a TTL.
type Service struct {
	deps    Dependencies
	ttl     time.Duration
	timeout time.Duration
	logger  *zap.Logger

	mu     sync.RWMutex
	cached *Report
	sf     singleflight.Group
	now    func() time.Time
}

// NewService creates a new health service.
func NewService(deps Dependencies, cfg Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Service{
		deps:    deps,
		ttl:     time.Duration(cfg.CacheTTLSeconds) * time.Second,
		timeout: timeout,
		logger:  logger,
		now:     time.Now,
	}
}

// Check returns the cached report while it is fresh and runs the checks otherwise.
// Concurrent callers share one round of checks.
func (s *Service) Check(ctx context.Context) *Report {
	// Fast path
	if report := s.fresh(); report != nil {
		return report
	}

	// Slow path: one build at a time
	result, _, _ := s.sf.Do("health", func() (interface{}, error) {
		if report := s.fresh(); report != nil {
			return report, nil
		}

		report := s.run(ctx)

		s.mu.Lock()
		s.cached = report
		s.mu.Unlock()

		return report, nil
	})

	return result.(*Report)
}

// Invalidate drops the cached report.
func (s *Service) Invalidate() {
	s.mu.Lock()
	s.cached = nil
	s.mu.Unlock()
}

func (s *Service) fresh() *Report {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.cached == nil || s.ttl <= 0 || s.now().Sub(s.cached.CheckedAt) > s.ttl {
		return nil
	}
	copied := *s.cached
	copied.Cached = true
	return &copied
}

// run executes all checks concurrently.
func (s *Service) run(ctx context.Context) *Report {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	results := make([]checks.Result, 4)
	var wg sync.WaitGroup
	wg.Add(len(results))

	go func() {
		defer wg.Done()
		results[0] = checks.CheckPing(ctx, "source", s.deps.Source)
	}()
	go func() {
		defer wg.Done()
		results[1] = checks.CheckPing(ctx, "destination", s.deps.Destination)
	}()
	go func() {
		defer wg.Done()
		results[2] = checks.CheckSchema(s.deps.DB)
	}()
	go func() {
		defer wg.Done()
		results[3] = checks.CheckBucket(ctx, s.deps.Storage, s.deps.Bucket)
	}()

	wg.Wait()

	report := &Report{Status: StatusOK, Checks: results, CheckedAt: s.now()}
	for _, r := range results {
		if !r.Healthy() {
			report.Status = StatusDegraded
			s.logger.Warn("Health check failed", zap.String("check", r.Name), zap.String("error", r.Error))
		}
	}
	return report
}
