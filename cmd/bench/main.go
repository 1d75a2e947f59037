// README: Benchmark runner; plans synthetic trips in-process, checks itinerary properties and prints results.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

func main() {
	cfg := loadConfig()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	bench := NewRunner(cfg)
	results := bench.RunAll(ctx)

	fmt.Println("\n== Summary ==")
	pass, fail, skipped := 0, 0, 0
	for _, r := range results {
		switch r.Status {
		case statusPass:
			pass++
		case statusFail:
			fail++
		case statusSkip:
			skipped++
		}
	}
	fmt.Printf("PASS=%d FAIL=%d SKIP=%d\n", pass, fail, skipped)

	if fail > 0 || (cfg.Strict && skipped > 0) {
		os.Exit(1)
	}
}

type Config struct {
	BaseURL   string
	RedisAddr string
	Seed      int64
	Scenarios int
	Runs      int
	Strict    bool
	Timeout   time.Duration
}

func loadConfig() Config {
	var cfg Config
	flag.StringVar(&cfg.BaseURL, "base-url", envOrDefault("WAYFARER_BENCH_BASE_URL", ""), "API base URL; empty skips HTTP cases")
	flag.StringVar(&cfg.RedisAddr, "redis", envOrDefault("WAYFARER_REDIS_ADDR", ""), "Redis address; empty skips cache cases")
	flag.Int64Var(&cfg.Seed, "seed", int64(envOrDefaultInt("WAYFARER_BENCH_SEED", 7)), "Scenario seed")
	flag.IntVar(&cfg.Scenarios, "scenarios", envOrDefaultInt("WAYFARER_BENCH_SCENARIOS", 40), "Synthetic scenarios per property")
	flag.IntVar(&cfg.Runs, "runs", envOrDefaultInt("WAYFARER_BENCH_RUNS", 50), "Runs for latency cases")
	flag.BoolVar(&cfg.Strict, "strict", envOrDefaultBool("WAYFARER_BENCH_STRICT", false), "Fail on skipped cases")
	flag.DurationVar(&cfg.Timeout, "timeout", envOrDefaultDuration("WAYFARER_BENCH_TIMEOUT", 2*time.Minute), "Total timeout")
	flag.Parse()
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return cfg
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		v = strings.ToLower(v)
		return v == "1" || v == "true" || v == "yes"
	}
	return def
}

func envOrDefaultInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
