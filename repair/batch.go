package repair

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// BatchResult is the outcome of one instruction in a batch.
type BatchResult struct {
	Index       int
	Instruction string
	Result      *Result
	Err         error
}

// RunBatch runs loop once per instruction with at most concurrency Runs in
// flight. Each Run owns its own budget and trail, and a failing Run does not
// stop the others. Results are in input order. concurrency <= 0 means no limit.
func RunBatch(ctx context.Context, loop *Loop, instructions []string, concurrency int) []BatchResult {
	results := make([]BatchResult, len(instructions))

	var g errgroup.Group
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}
	for i, instruction := range instructions {
		g.Go(func() error {
			res, err := loop.Run(ctx, instruction)
			results[i] = BatchResult{
				Index:       i,
				Instruction: instruction,
				Result:      res,
				Err:         err,
			}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// Failed returns the results that ended in an error.
func Failed(results []BatchResult) []BatchResult {
	var failed []BatchResult
	for _, r := range results {
		if r.Err != nil {
			failed = append(failed, r)
		}
	}
	return failed
}
