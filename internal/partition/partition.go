// Package partition runs map and associative reduce steps over a bounded
// worker pool. Callers only supply pure map functions and an associative,
// commutative merge; nothing here depends on how work is scheduled.
package partition

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Workers normalizes a worker count: non-positive means one per CPU
func Workers(n int) int {
	if n <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return n
}

// Map applies fn to every item with at most workers concurrent calls and
// returns the results in input order. The first error cancels the rest.
func Map[T, R any](ctx context.Context, items []T, workers int, fn func(context.Context, T) (R, error)) ([]R, error) {
	results := make([]R, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(Workers(workers))
	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			r, err := fn(gctx, item)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Split cuts items into at most n contiguous partitions of near-equal size
func Split[T any](items []T, n int) [][]T {
	n = Workers(n)
	if n > len(items) {
		n = len(items)
	}
	if n == 0 {
		return nil
	}
	parts := make([][]T, 0, n)
	size := len(items) / n
	extra := len(items) % n
	start := 0
	for i := 0; i < n; i++ {
		end := start + size
		if i < extra {
			end++
		}
		parts = append(parts, items[start:end])
		start = end
	}
	return parts
}

// MapReduce folds each partition of items into its own accumulator with
// fold, on its own worker, then merges the partition accumulators. merge
// must be associative and commutative; the merge order is unspecified.
func MapReduce[T, A any](ctx context.Context, items []T, workers int, zero func() A, fold func(A, T) A, merge func(A, A) A) (A, error) {
	parts := Split(items, workers)
	partials, err := Map(ctx, parts, workers, func(ctx context.Context, part []T) (A, error) {
		acc := zero()
		for _, item := range part {
			if err := ctx.Err(); err != nil {
				return acc, err
			}
			acc = fold(acc, item)
		}
		return acc, nil
	})
	if err != nil {
		var empty A
		return empty, err
	}

	result := zero()
	for _, p := range partials {
		result = merge(result, p)
	}
	return result, nil
}
