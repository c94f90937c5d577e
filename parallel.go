package loom

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// defaultParallelism is the worker count used to derive a chunk size when
// a Parallel call is given chunkSize <= 0.
func defaultParallelism() int {
	if n := runtime.GOMAXPROCS(0); n > 0 {
		return n
	}
	return 1
}

// autoChunkSize spreads n rows evenly across workers goroutines.
func autoChunkSize(n, workers int) int {
	if workers <= 0 {
		workers = 1
	}
	c := (n + workers - 1) / workers
	if c < 1 {
		c = 1
	}
	return c
}

func resolveChunkSize(n, chunkSize int) int {
	if chunkSize > 0 {
		return chunkSize
	}
	return autoChunkSize(n, defaultParallelism())
}

// ParallelUniform1 fans fn out across fixed-size row chunks within every
// archetype matched by q, assuming expr1 is plain: chunkSize rows are
// handed to each worker goroutine (§4.7 "stream.parallel(...,
// chunk_size=256)"); chunkSize <= 0 picks a chunk size that spreads each
// archetype's rows evenly across runtime.GOMAXPROCS(0) workers. A panic
// inside any worker is recovered and surfaced as the returned error once
// every worker has returned, the same first-failure-wins contract errgroup
// gives plain errors, extended to panics (grounded on the teacher's
// worker-pool + countdown-latch fan-out, rehomed onto
// golang.org/x/sync/errgroup).
func ParallelUniform1[T1 any](w *World, q *Query, expr1 TypeExpression, chunkSize int, fn func(id Identity, v1 *T1)) error {
	w.Lock()
	defer w.Unlock()
	g, _ := errgroup.WithContext(context.Background())
	for _, a := range q.Matched() {
		col := a.columnFor(expr1)
		if col == nil {
			continue
		}
		c1 := col.(*Column[T1])
		arch := a
		n := arch.Len()
		chunk := resolveChunkSize(n, chunkSize)
		for start := 0; start < n; start += chunk {
			start, end := start, min(start+chunk, n)
			g.Go(func() (err error) {
				defer func() {
					if r := recover(); r != nil {
						err = fmt.Errorf("loom: panic in parallel stream: %v", r)
					}
				}()
				for row := start; row < end; row++ {
					fn(arch.EntityAt(row), c1.At(row))
				}
				return nil
			})
		}
	}
	return g.Wait()
}

// ParallelUniform2 is ParallelUniform1 generalized to two plain slots.
func ParallelUniform2[T1, T2 any](w *World, q *Query, expr1, expr2 TypeExpression, chunkSize int, fn func(id Identity, v1 *T1, v2 *T2)) error {
	w.Lock()
	defer w.Unlock()
	g, _ := errgroup.WithContext(context.Background())
	for _, a := range q.Matched() {
		col1 := a.columnFor(expr1)
		col2 := a.columnFor(expr2)
		if col1 == nil || col2 == nil {
			continue
		}
		c1 := col1.(*Column[T1])
		c2 := col2.(*Column[T2])
		arch := a
		n := arch.Len()
		chunk := resolveChunkSize(n, chunkSize)
		for start := 0; start < n; start += chunk {
			start, end := start, min(start+chunk, n)
			g.Go(func() (err error) {
				defer func() {
					if r := recover(); r != nil {
						err = fmt.Errorf("loom: panic in parallel stream: %v", r)
					}
				}()
				for row := start; row < end; row++ {
					fn(arch.EntityAt(row), c1.At(row), c2.At(row))
				}
				return nil
			})
		}
	}
	return g.Wait()
}
