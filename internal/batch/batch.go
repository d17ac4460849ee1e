// Package batch runs independent resize calls in parallel
package batch

import (
	"context"
	"fmt"
	"runtime"

	"github.com/UnendingLoop/MediaPicker/internal/model"
	"github.com/sourcegraph/conc/pool"
)

type Resizer interface {
	Resize(ctx context.Context, req model.ResizeRequest) (model.ResizeResult, error)
}

// Run resizes every request on at most parallelism goroutines. The first failure cancels
// the requests that have not started yet and is returned; results keep the input order.
func Run(ctx context.Context, r Resizer, reqs []model.ResizeRequest, parallelism int) ([]model.ResizeResult, error) {
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}

	results := make([]model.ResizeResult, len(reqs))
	if len(reqs) == 0 {
		return results, nil
	}

	p := pool.New().
		WithMaxGoroutines(parallelism).
		WithContext(ctx).
		WithCancelOnError().
		WithFirstError()

	for i, req := range reqs {
		p.Go(func(ctx context.Context) error {
			// задачу, до которой очередь дошла после отмены, даже не начинаем
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := r.Resize(ctx, req)
			if err != nil {
				return fmt.Errorf("resize %q: %w", req.Source.Path, err)
			}
			results[i] = res
			return nil
		})
	}

	if err := p.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
