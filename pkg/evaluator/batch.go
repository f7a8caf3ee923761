package evaluator

import (
	"context"
	"sync"

	"digital.vasic.evaluator/pkg/exercise"
)

// CancelledMessage is the compilation error of batch entries
// that never started because the context was done.
const CancelledMessage = "evaluation cancelled"

// batchResult pairs a report with its original index so reports
// can be returned in submission order.
type batchResult struct {
	index  int
	report *exercise.Report
}

// EvaluateBatch evaluates independent requests concurrently with
// at most maxConcurrency evaluations in flight. Reports are
// returned in the same order as reqs. Cancelling ctx only stops
// requests that have not started yet; they are reported with
// CancelledMessage as their compilation error.
func (e *DefaultEvaluator) EvaluateBatch(
	ctx context.Context,
	reqs []Request,
	maxConcurrency int,
) []*exercise.Report {
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}

	sem := make(chan struct{}, maxConcurrency)
	resultsCh := make(chan batchResult, len(reqs))

	var wg sync.WaitGroup

	for i, req := range reqs {
		wg.Add(1)
		go func(idx int, r Request) {
			defer wg.Done()

			// Acquire semaphore slot.
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				resultsCh <- batchResult{
					index:  idx,
					report: cancelledReport(r),
				}
				return
			}

			if ctx.Err() != nil {
				resultsCh <- batchResult{
					index:  idx,
					report: cancelledReport(r),
				}
				return
			}

			resultsCh <- batchResult{
				index:  idx,
				report: e.Evaluate(r),
			}
		}(i, req)
	}

	// Close channel after all goroutines complete.
	go func() {
		wg.Wait()
		close(resultsCh)
	}()

	ordered := make([]*exercise.Report, len(reqs))
	for br := range resultsCh {
		ordered[br.index] = br.report
	}
	return ordered
}

func cancelledReport(r Request) *exercise.Report {
	return exercise.FailedReport(
		CancelledMessage,
		exercise.CompilationErrorPrefix+CancelledMessage,
		r.TestCases,
	)
}
