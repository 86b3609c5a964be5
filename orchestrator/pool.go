package orchestrator

import (
	"cmp"
	"slices"

	"golang.org/x/sync/errgroup"
)

type orderedOutput[T any] struct {
	order  int
	output T
}

// mapConcurrent runs f over every input with at most concurrency goroutines
// in flight, and returns results in input order regardless of completion
// order. concurrency<=0 means unlimited. This is the bounded worker pool
// used to dispatch per-file parsing.
func mapConcurrent[Tin, Tout any](inputs []Tin, concurrency int, f func(Tin) (Tout, error)) ([]Tout, error) {
	eg := errgroup.Group{}
	if concurrency > 0 {
		eg.SetLimit(concurrency)
	}

	results := make([]orderedOutput[Tout], len(inputs))
	for i := range inputs {
		i, in := i, inputs[i]
		eg.Go(func() error {
			out, err := f(in)
			if err != nil {
				return err
			}
			results[i] = orderedOutput[Tout]{order: i, output: out}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	slices.SortFunc(results, func(a, b orderedOutput[Tout]) int {
		return cmp.Compare(a.order, b.order)
	})

	outputs := make([]Tout, len(results))
	for i, r := range results {
		outputs[i] = r.output
	}
	return outputs, nil
}
