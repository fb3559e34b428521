package validation

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/rezonia/invoice-validator/internal/model"
)

// ValidateBatch validates inputs on up to concurrency goroutines. Results
// keep input order. The only error is ctx's, when it ends before the batch
// is done.
func (e *Engine) ValidateBatch(ctx context.Context, inputs []*model.ExtractionResult, concurrency int) ([]*model.ValidationResult, error) {
	if concurrency <= 0 {
		concurrency = 1
	}

	results := make([]*model.ValidationResult, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, in := range inputs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = e.Validate(in)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
