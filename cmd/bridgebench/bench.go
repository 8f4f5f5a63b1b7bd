package main

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/curtisnewbie/cpubridge/util/async"
	"github.com/curtisnewbie/cpubridge/util/errs"
	"golang.org/x/sync/errgroup"
)

type BenchParam struct {
	Tasks      int
	Work       int
	PanicEvery int
	Ordering   async.Ordering
}

type BenchResult struct {
	Completed int64
	Aborted   int64
	Checksum  uint64
	Took      time.Duration
}

func (r BenchResult) Throughput() float64 {
	if r.Took <= 0 {
		return 0
	}
	return float64(r.Completed+r.Aborted) / r.Took.Seconds()
}

// Submit all tasks up-front, then await them concurrently.
func Bench(ctx context.Context, ex async.Executor, p BenchParam) (BenchResult, error) {
	var res BenchResult
	start := time.Now()

	handles := make([]*async.TaskHandle[uint64], 0, p.Tasks)
	for i := 0; i < p.Tasks; i++ {
		i := i
		handles = append(handles, async.Submit(ex, p.Ordering, func() uint64 {
			if p.PanicEvery > 0 && (i+1)%p.PanicEvery == 0 {
				panic(fmt.Sprintf("task %d gave up", i))
			}
			return Burn(uint64(i), p.Work)
		}))
	}

	var completed, aborted atomic.Int64
	var checksum atomic.Uint64
	g, gctx := errgroup.WithContext(ctx)
	for _, h := range handles {
		h := h
		g.Go(func() error {
			v, err := h.Await(gctx)
			if err == nil {
				completed.Add(1)
				checksum.Add(v)
				return nil
			}
			var pe *async.PanicError
			if errors.As(err, &pe) {
				aborted.Add(1)
				return nil
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		for _, h := range handles {
			h.Drop()
		}
		return res, errs.WrapErrf(err, "benchmark interrupted")
	}

	res.Completed = completed.Load()
	res.Aborted = aborted.Load()
	res.Checksum = checksum.Load()
	res.Took = time.Since(start)
	return res, nil
}

// CPU-bound work, n rounds of 64-bit FNV-1a over the seed.
func Burn(seed uint64, n int) uint64 {
	const (
		offset = 14695981039346656037
		prime  = 1099511628211
	)
	h := uint64(offset)
	for i := 0; i < n; i++ {
		for s := 0; s < 64; s += 8 {
			h ^= (seed >> s) & 0xff
			h *= prime
		}
		seed = h
	}
	return h
}
