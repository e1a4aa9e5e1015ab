// Command authcore-loadtest measures authorize, login and refresh throughput
// of an Engine backed by the Redis credential store.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/farmlink/authcore"
	"github.com/farmlink/authcore/store"
	"github.com/redis/go-redis/v9"
)

type account struct {
	email string
	id    string
	token string
	role  authcore.Role
}

func main() {
	var (
		principals  = flag.Int("principals", 1000, "number of principals to register")
		concurrency = flag.Int("concurrency", 64, "number of concurrent workers")
		ops         = flag.Int("ops", 100000, "operations per phase")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", "lt:", "redis key prefix")
		algorithm   = flag.String("algorithm", "sha256", "password algorithm: sha256 or argon2id")
		revocation  = flag.Bool("revocation", true, "consult the redis denylist on every authorize")
	)
	flag.Parse()

	if *principals <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "principals, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

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
		addr = mr.Addr()
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	cfg := authcore.DefaultConfig()
	cfg.JWT.Secret = []byte("loadtest-signing-secret-0123456789abcdef")
	cfg.Password.Algorithm = *algorithm
	cfg.Security.RedisPrefix = *prefix
	cfg.Revocation.Enabled = *revocation
	cfg.Account.SelfRegistrationRoles = authcore.Roles()

	engine, err := authcore.New().
		WithConfig(cfg).
		WithCredentialStore(store.NewRedis(client, *prefix)).
		WithRedis(client).
		WithMetricsEnabled(true).
		WithLatencyHistograms(true).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "engine build failed: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	accounts := make([]account, *principals)
	fmt.Printf("registering %d principals...\n", *principals)
	startSeed := time.Now()
	roles := authcore.Roles()
	runID := time.Now().UnixNano()
	for i := 0; i < *principals; i++ {
		role := roles[i%len(roles)]
		email := fmt.Sprintf("lt-%d-%d@example.com", runID, i)
		sess, err := engine.Register(ctx, authcore.RegisterInput{
			Email:       email,
			Password:    passwordFor(i),
			DisplayName: fmt.Sprintf("load %d", i),
			Role:        role,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "register failed: %v\n", err)
			os.Exit(1)
		}
		accounts[i] = account{email: email, id: sess.Principal.ID, token: sess.Token, role: role}
	}
	fmt.Printf("registered in %s\n", time.Since(startSeed).Round(time.Millisecond))

	authorizeStats := runPhase(*ops, *concurrency, 7919, func(r *rand.Rand) error {
		a := &accounts[r.Intn(len(accounts))]
		req := authcore.Requirement{Role: a.role, OwnerID: a.id}
		_, err := engine.AuthorizeToken(ctx, a.token, req)
		return err
	})
	loginStats := runPhase(*ops, *concurrency, 6151, func(r *rand.Rand) error {
		i := r.Intn(len(accounts))
		_, err := engine.Login(ctx, accounts[i].email, passwordFor(i))
		return err
	})
	refreshStats := runPhase(*ops, *concurrency, 3571, func(r *rand.Rand) error {
		_, err := engine.Refresh(ctx, accounts[r.Intn(len(accounts))].token)
		return err
	})

	fmt.Println("---- results ----")
	printStats("authorize", authorizeStats)
	printStats("login", loginStats)
	printStats("refresh", refreshStats)

	snap := engine.MetricsSnapshot()
	fmt.Printf("tokens minted=%d authorize ok=%d login ok=%d\n",
		snap.Counters[authcore.MetricTokenMinted],
		snap.Counters[authcore.MetricAuthorizeSuccess],
		snap.Counters[authcore.MetricLoginSuccess],
	)
}

// runPhase spreads ops calls of op across concurrency workers and records the
// latency of each call.
func runPhase(ops, concurrency int, seed int64, op func(r *rand.Rand) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*seed))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				err := op(r)
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
	total := time.Since(start)
	return computeStats(total, latencies, failures)
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
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
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

func passwordFor(i int) string {
	return fmt.Sprintf("pw-%06d", i)
}
