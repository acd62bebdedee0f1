package sampling

import (
	"runtime"
	"sync"

	"github.com/inodb/genarch/internal/architecture"
	"github.com/inodb/genarch/internal/environment"
	"github.com/inodb/genarch/internal/fitness"
)

// WorkItem names one environment to evaluate.
type WorkItem struct {
	Seq int
}

// WorkResult holds the exact optimum for a single environment.
type WorkResult struct {
	Seq         int
	Fitness     int
	AfterChange int // realised fitness of the optimum once the environment changed
	Err         error
}

// ParallelEvaluate evaluates environments drawn from src on a pool of
// workers. Results arrive in completion order; use OrderedCollect to consume
// them by sequence number. If workers is 0, runtime.NumCPU() is used.
func ParallelEvaluate(arch *architecture.Architecture, src *environment.Source, changeMagnitude int, items <-chan WorkItem, workers int) <-chan WorkResult {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make(chan WorkResult, 2*workers)

	var wg sync.WaitGroup
	wg.Add(workers)

	for range workers {
		go func() {
			defer wg.Done()
			for item := range items {
				results <- evaluate(arch, src, changeMagnitude, item.Seq)
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

func evaluate(arch *architecture.Architecture, src *environment.Source, changeMagnitude, seq int) WorkResult {
	targets := src.Environment(seq)
	opt, err := fitness.OptimalFitness(arch, targets)
	if err != nil {
		return WorkResult{Seq: seq, Err: err}
	}

	r := WorkResult{Seq: seq, Fitness: opt.Fitness}
	if changeMagnitude > 0 {
		changed := src.Changed(seq, targets, changeMagnitude)
		r.AfterChange, r.Err = fitness.Evaluate(arch, opt.SiteValues, changed)
	}
	return r
}

// OrderedCollect hands results to fn in environment order, so summary
// statistics are accumulated identically for any worker count. Results that
// finish ahead of their turn wait in a map keyed by environment index. After
// fn fails, the remaining results are discarded so workers can exit.
func OrderedCollect(results <-chan WorkResult, fn func(WorkResult) error) error {
	early := make(map[int]WorkResult)
	want := 0

	var err error
	for r := range results {
		if err != nil {
			continue
		}
		early[r.Seq] = r
		for next, ok := early[want]; ok; next, ok = early[want] {
			delete(early, want)
			want++
			if err = fn(next); err != nil {
				break
			}
		}
	}
	return err
}
