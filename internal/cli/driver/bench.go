package driver

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// BenchConfig controls a write benchmark run.
type BenchConfig struct {
	// Requests is the total number of write commands to issue.
	Requests int
	// Connections is the number of concurrent client connections.
	Connections int
	// ValueSize is the length of each random value in bytes.
	ValueSize int
	// TTLSeconds, when positive, is appended as the per-entry TTL.
	TTLSeconds int
}

// BenchResult summarizes a benchmark run.
type BenchResult struct {
	Requests int
	Errors   int
	Elapsed  time.Duration
}

// Throughput returns completed requests per second.
func (r BenchResult) Throughput() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Requests-r.Errors) / r.Elapsed.Seconds()
}

const valueAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

func randomValue(rng *rand.Rand, n int) string {
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		b.WriteByte(valueAlphabet[rng.Intn(len(valueAlphabet))])
	}
	return b.String()
}

// RunBench issues cfg.Requests write commands with ULID keys and
// random values, spread across cfg.Connections connections, and
// reports timing.
func RunBench(addr string, cfg BenchConfig) (BenchResult, error) {
	if cfg.Requests <= 0 {
		cfg.Requests = 1000
	}
	if cfg.Connections <= 0 {
		cfg.Connections = 1
	}
	if cfg.Connections > cfg.Requests {
		cfg.Connections = cfg.Requests
	}
	if cfg.ValueSize <= 0 {
		cfg.ValueSize = 32
	}

	type workerResult struct {
		errs int
		err  error
	}

	per := cfg.Requests / cfg.Connections
	extra := cfg.Requests % cfg.Connections
	results := make(chan workerResult, cfg.Connections)

	start := time.Now()
	for i := 0; i < cfg.Connections; i++ {
		n := per
		if i < extra {
			n++
		}
		go func(seed int64, n int) {
			rng := rand.New(rand.NewSource(seed))
			cl := NewClient(addr)
			if err := cl.Connect(); err != nil {
				results <- workerResult{errs: n, err: err}
				return
			}
			defer cl.Close()

			var errs int
			for j := 0; j < n; j++ {
				cmd := fmt.Sprintf("write %s %s", ulid.Make().String(), randomValue(rng, cfg.ValueSize))
				if cfg.TTLSeconds > 0 {
					cmd = fmt.Sprintf("%s %d", cmd, cfg.TTLSeconds)
				}
				reply, err := cl.Execute(cmd)
				if err != nil || reply != "OK" {
					errs++
				}
			}
			results <- workerResult{errs: errs}
		}(time.Now().UnixNano()+int64(i), n)
	}

	res := BenchResult{Requests: cfg.Requests}
	var firstErr error
	for i := 0; i < cfg.Connections; i++ {
		wr := <-results
		res.Errors += wr.errs
		if wr.err != nil && firstErr == nil {
			firstErr = wr.err
		}
	}
	res.Elapsed = time.Since(start)

	return res, firstErr
}
