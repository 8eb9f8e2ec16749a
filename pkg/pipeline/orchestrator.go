package pipeline

import (
	"context"
	"log"
	"sort"
	"sync"

	"news-ingest/pkg/domain"
)

// SourceRunner is one isolated unit of work: a full pipeline run for one
// source.
type SourceRunner interface {
	ID() string
	Run(ctx context.Context) domain.SourceRunResult
}

// Orchestrator fans source pipelines out over a bounded worker pool. Each
// source runs in its own goroutine context; the pool only bounds how many
// run at once. One source reaching Failed never affects any other source's
// result or aborts the run.
type Orchestrator struct {
	concurrency int
	verbose     bool
}

// NewOrchestrator creates an orchestrator with the given worker-pool size.
func NewOrchestrator(concurrency int, verbose bool) *Orchestrator {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Orchestrator{
		concurrency: concurrency,
		verbose:     verbose,
	}
}

// RunAll executes every runner and collects their results. Results are
// returned sorted by source id so runs are reproducible; callers needing a
// different total order sort explicitly.
func (o *Orchestrator) RunAll(ctx context.Context, runners []SourceRunner) []domain.SourceRunResult {
	jobChan := make(chan SourceRunner, len(runners))
	for _, r := range runners {
		jobChan <- r
	}
	close(jobChan)

	resultsChan := make(chan domain.SourceRunResult, len(runners))

	workers := o.concurrency
	if workers > len(runners) {
		workers = len(runners)
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for runner := range jobChan {
				if o.verbose {
					log.Printf("Orchestrator: worker %d starting source %s", workerID, runner.ID())
				}
				resultsChan <- runner.Run(ctx)
			}
		}(i)
	}

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	results := make([]domain.SourceRunResult, 0, len(runners))
	for res := range resultsChan {
		results = append(results, res)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].SourceID < results[j].SourceID
	})
	return results
}
