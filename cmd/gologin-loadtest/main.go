// Command gologin-loadtest drives concurrent logins and session restores against the
// in-process stub backend, persisting sessions in Redis (or miniredis).
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"net/http/httptest"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	goLogin "github.com/MrEthical07/goLogin"
	"github.com/MrEthical07/goLogin/connection"
	"github.com/MrEthical07/goLogin/internal/stubbackend"
	"github.com/MrEthical07/goLogin/metrics/export/prometheus"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func main() {
	var (
		accounts    = flag.Int("accounts", 200, "number of stub accounts to seed")
		concurrency = flag.Int("concurrency", 32, "number of concurrent workers, one engine each")
		ops         = flag.Int("ops", 5000, "operations per phase (login + restore)")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", "gls-load", "session key prefix")
		showMetrics = flag.Bool("metrics", false, "print the first engine's metrics after the run")
	)
	flag.Parse()

	if *accounts <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "accounts, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", mr.Addr())
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	tokens, err := stubbackend.NewTokenManager([]byte("gologin-loadtest-secret-key-0001"), time.Hour)
	if err != nil {
		fmt.Fprintf(os.Stderr, "token manager: %v\n", err)
		os.Exit(1)
	}
	stub, err := stubbackend.New(stubbackend.Config{Namespace: "loadtest", Tokens: tokens})
	if err != nil {
		fmt.Fprintf(os.Stderr, "stub backend: %v\n", err)
		os.Exit(1)
	}
	server := httptest.NewServer(stub)
	defer server.Close()

	fmt.Printf("seeding %d accounts...\n", *accounts)
	startSeed := time.Now()
	for i := 0; i < *accounts; i++ {
		if _, err := stub.AddAccount(emailFor(i), passwordFor(i)); err != nil {
			fmt.Fprintf(os.Stderr, "seed failed: %v\n", err)
			os.Exit(1)
		}
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	engines := make([]*goLogin.Engine, *concurrency)
	for w := range engines {
		cfg := goLogin.DefaultConfig()
		cfg.APIHost = server.URL
		cfg.Target = "https://loadtest.example.com"
		cfg.Session.KeyPrefix = *prefix
		cfg.Session.Slot = fmt.Sprintf("worker-%d", w)
		engine, err := goLogin.New().
			WithConfig(cfg).
			WithConnection(connection.NewLocal(tokens)).
			WithRedis(client).
			WithMetricsEnabled(true).
			WithLatencyHistograms(true).
			Build()
		if err != nil {
			fmt.Fprintf(os.Stderr, "engine build failed: %v\n", err)
			os.Exit(1)
		}
		defer engine.Close()
		engines[w] = engine
	}

	ctx := context.Background()
	loginStats := runPhase(*ops, engines, func(w int, r *rand.Rand) error {
		i := r.Intn(*accounts)
		_, err := engines[w].LoginWithEmail(ctx, emailFor(i), passwordFor(i), nil).Wait(ctx)
		return err
	})
	restoreStats := runPhase(*ops, engines, func(w int, _ *rand.Rand) error {
		id, err := engines[w].CheckAuthStatus(ctx, nil).Wait(ctx)
		if err == nil && id == nil {
			return fmt.Errorf("worker %d: no session restored", w)
		}
		return err
	})

	fmt.Println("---- results ----")
	printStats("login", loginStats)
	printStats("restore", restoreStats)
	if *showMetrics {
		fmt.Print(prometheus.NewExporter(engines[0]).Render())
	}
}

// runPhase runs ops operations spread over one worker per engine.
func runPhase(ops int, engines []*goLogin.Engine, op func(worker int, r *rand.Rand) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := range engines {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				if int(atomic.AddInt64(&cursor, 1)) > ops {
					return
				}
				t0 := time.Now()
				err := op(worker, r)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	return samples[(len(samples)-1)*p/100]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}

func emailFor(i int) string    { return fmt.Sprintf("user%d@loadtest.example.com", i) }
func passwordFor(i int) string { return fmt.Sprintf("pw-%d", i) }
