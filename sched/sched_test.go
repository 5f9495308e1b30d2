package sched

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// ──────────────────────────────────────────────────
// Pool
// ──────────────────────────────────────────────────

func TestPool_ExecutesTasks(t *testing.T) {
	p := NewPool(WithWorkers(4), WithQueueDepth(16))
	p.Start()

	var count atomic.Int64
	var wg sync.WaitGroup
	for range 32 {
		wg.Add(1)
		if !p.Go(func() {
			defer wg.Done()
			count.Add(1)
		}) {
			t.Fatal("Go on running pool should be accepted")
		}
	}
	wg.Wait()

	if count.Load() != 32 {
		t.Errorf("executed %d tasks, want 32", count.Load())
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := p.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestPool_RejectsBeforeStart(t *testing.T) {
	p := NewPool()
	if p.Go(func() {}) {
		t.Error("Go before Start should report false")
	}
}

func TestPool_RejectsAfterStop(t *testing.T) {
	p := NewPool(WithWorkers(1))
	p.Start()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := p.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	if p.Go(func() {}) {
		t.Error("Go after Stop should report false")
	}
	// Stop is idempotent.
	if err := p.Stop(context.Background()); err != nil {
		t.Fatalf("second Stop: %v", err)
	}
}

func TestPool_StopDrainsQueuedTasks(t *testing.T) {
	p := NewPool(WithWorkers(1), WithQueueDepth(64))
	p.Start()

	release := make(chan struct{})
	var done atomic.Int64
	p.Go(func() { <-release }) // occupies the single worker

	const queued = 16
	for range queued {
		if !p.Go(func() { done.Add(1) }) {
			t.Fatal("Go should be accepted while queue has room")
		}
	}

	close(release)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	if done.Load() != queued {
		t.Errorf("Stop returned with %d of %d queued tasks executed", done.Load(), queued)
	}
}

func TestGoroutines_RunsEverything(t *testing.T) {
	s := Goroutines()

	var wg sync.WaitGroup
	var count atomic.Int64
	for range 64 {
		wg.Add(1)
		if !s.Go(func() {
			defer wg.Done()
			count.Add(1)
		}) {
			t.Fatal("unbounded scheduler should never reject")
		}
	}
	wg.Wait()

	if count.Load() != 64 {
		t.Errorf("executed %d tasks, want 64", count.Load())
	}
}

// ──────────────────────────────────────────────────
// Limiter
// ──────────────────────────────────────────────────

func TestLimiter_CapsConcurrency(t *testing.T) {
	l := NewLimiter(Goroutines(), WithMaxConcurrent(2))

	var inFlight, peak atomic.Int64
	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		l.Go(func() {
			defer wg.Done()
			n := inFlight.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			inFlight.Add(-1)
		})
	}
	wg.Wait()

	if got := peak.Load(); got > 2 {
		t.Errorf("peak concurrency = %d, want at most 2", got)
	}
}

func TestLimiter_PassThroughWithoutOptions(t *testing.T) {
	l := NewLimiter(Goroutines())

	var ran atomic.Bool
	var wg sync.WaitGroup
	wg.Add(1)
	if !l.Go(func() {
		defer wg.Done()
		ran.Store(true)
	}) {
		t.Fatal("pass-through limiter should accept the task")
	}
	wg.Wait()

	if !ran.Load() {
		t.Error("task did not run")
	}
}

func TestLimiter_RateLimitSpacesStarts(t *testing.T) {
	// 100/s with burst 1 forces roughly 10ms between starts.
	l := NewLimiter(Goroutines(), WithRateLimit(100, 1))

	const n = 5
	var wg sync.WaitGroup
	start := time.Now()
	for range n {
		wg.Add(1)
		l.Go(func() { wg.Done() })
	}
	wg.Wait()

	if elapsed := time.Since(start); elapsed < (n-1)*10*time.Millisecond/2 {
		t.Errorf("all %d tasks started in %v, rate limit not applied", n, elapsed)
	}
}

// ──────────────────────────────────────────────────
// Config
// ──────────────────────────────────────────────────

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Workers != 8 {
		t.Errorf("Workers = %d, want 8", cfg.Workers)
	}
	if cfg.QueueDepth != 256 {
		t.Errorf("QueueDepth = %d, want 256", cfg.QueueDepth)
	}
	if cfg.RateLimit != 0 || cfg.MaxConcurrent != 0 {
		t.Error("limits should default to disabled")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg != DefaultConfig() {
		t.Errorf("cfg = %+v, want defaults %+v", cfg, DefaultConfig())
	}
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sched.yaml")
	data := []byte("workers: 16\nrate_limit: 50.0\nrate_burst: 10\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Workers != 16 {
		t.Errorf("Workers = %d, want 16", cfg.Workers)
	}
	if cfg.RateLimit != 50.0 {
		t.Errorf("RateLimit = %v, want 50.0", cfg.RateLimit)
	}
	if cfg.QueueDepth != 256 {
		t.Errorf("QueueDepth = %d, want default 256", cfg.QueueDepth)
	}
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sched.yaml")
	if err := os.WriteFile(path, []byte("workers: 16\n"), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv("BEACON_WORKERS", "32")
	t.Setenv("BEACON_MAX_CONCURRENT", "4")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Workers != 32 {
		t.Errorf("Workers = %d, want env override 32", cfg.Workers)
	}
	if cfg.MaxConcurrent != 4 {
		t.Errorf("MaxConcurrent = %d, want 4", cfg.MaxConcurrent)
	}
}

func TestLoadConfig_RejectsInvalidWorkers(t *testing.T) {
	t.Setenv("BEACON_WORKERS", "0")
	if _, err := LoadConfig(""); err == nil {
		t.Error("LoadConfig should reject workers=0")
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("LoadConfig should fail for a missing file")
	}
}

func TestConfig_BuildPlainPool(t *testing.T) {
	s, stop := DefaultConfig().Build(nil)
	defer stop(context.Background())

	if _, ok := s.(*Pool); !ok {
		t.Errorf("Build without limits = %T, want *Pool", s)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	if !s.Go(func() { wg.Done() }) {
		t.Fatal("built scheduler should be started")
	}
	wg.Wait()
}

func TestConfig_BuildWithLimits(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxConcurrent = 2

	s, stop := cfg.Build(nil)
	defer stop(context.Background())

	if _, ok := s.(*Limiter); !ok {
		t.Errorf("Build with limits = %T, want *Limiter", s)
	}
}
