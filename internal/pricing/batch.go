package pricing

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Result bundles the valuation and Greeks of one contract.
type Result struct {
	Contract  Contract  `json:"-"`
	Valuation Valuation `json:"valuation"`
	Greeks    Greeks    `json:"greeks"`
}

// Evaluate prices c and computes its Greeks.
func Evaluate(c Contract) Result {
	return Result{
		Contract:  c,
		Valuation: Value(c),
		Greeks:    ComputeGreeks(c),
	}
}

// ValueAll evaluates every contract, fanning the work out over at most
// workers goroutines (GOMAXPROCS when workers <= 0). Contracts are
// independent, so this is a plain parallel map; results[i] always belongs to
// contracts[i].
//
// The only error is ctx's, returned when it is cancelled before all
// contracts have been evaluated.
func ValueAll(ctx context.Context, contracts []Contract, workers int) ([]Result, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([]Result, len(contracts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, c := range contracts {
		if err := gctx.Err(); err != nil {
			_ = g.Wait()
			return nil, err
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = Evaluate(c)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
