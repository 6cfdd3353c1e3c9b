package optimize

import (
	"context"
	"runtime"
	"sync"

	"ohfid-core/fidelity"
	"ohfid-core/pool"
)

// RestartConfig drives RunRestarts.
type RestartConfig struct {
	Config
	Restarts int
	Threads  int // 0 = NumCPU
	Seed     uint64
	Init     []string
}

// RunRestarts runs cfg.Restarts independent optimizers with seeds Seed+r on
// a bounded worker pool and returns the best run (ties go to the lowest
// restart index) together with every run in restart order. The outcome does
// not depend on Threads. An improve hook passed in opts is called from
// several goroutines when Threads > 1.
func RunRestarts(ctx context.Context, js []pool.Junction, ev *fidelity.Evaluator, cfg RestartConfig, opts ...Option) (Result, []Result, error) {
	n := cfg.Restarts
	if n <= 0 {
		n = 1
	}
	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	if threads > n {
		threads = n
	}

	// Validate once up front so configuration errors are not reported n times.
	if _, err := New(js, ev, cfg.Config, opts...); err != nil {
		return Result{}, nil, err
	}

	results := make([]Result, n)
	errs := make([]error, n)
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < threads; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for r := range jobs {
				ro := make([]Option, 0, len(opts)+1)
				ro = append(ro, opts...)
				ro = append(ro, WithSeed(cfg.Seed+uint64(r)))
				o, err := New(js, ev, cfg.Config, ro...)
				if err != nil {
					errs[r] = err
					continue
				}
				res, err := o.Run(ctx, cfg.Init)
				res.Restart = r
				results[r], errs[r] = res, err
			}
		}()
	}
	for r := 0; r < n; r++ {
		jobs <- r
	}
	close(jobs)
	wg.Wait()

	best := -1
	var firstErr error
	for r := range results {
		if errs[r] != nil && firstErr == nil {
			firstErr = errs[r]
		}
		if len(results[r].Overhangs) == 0 {
			continue
		}
		if best < 0 || results[r].Score > results[best].Score {
			best = r
		}
	}
	if best < 0 {
		return Result{}, results, firstErr
	}
	return results[best], results, firstErr
}
