package main

import (
	"context"
	"fmt"
	"io"
	"time"

	eutelescope "github.com/MengqingWu/eutelescope/pkg"
	"golang.org/x/sync/errgroup"
)

type eventSource interface {
	getNextEvent() (*eutelescope.Event, error)
}

type eventSink interface {
	WriteEvent(event *eutelescope.Event) error
}

type RunTotals struct {
	Events            int
	FailedEvents      int
	HitsIn            int
	HitsKept          int
	HitsExcludedPlane int
}

func worker(ctx context.Context, id int, filter *eventFilter, jobs <-chan *eutelescope.Event, results chan<- filterResult) {
	for event := range jobs {
		if configuration.Verbosity > 2 {
			message := fmt.Sprintf("Worker %d processing event %d", id, event.EventNumber)
			logger.Info(message, "workers")
		}
		result := filter.processEvent(event)
		select {
		case results <- result:
		case <-ctx.Done():
			return
		}
	}
}

func sendEventsToWorkers(ctx context.Context, source eventSource, jobs chan<- *eutelescope.Event) error {
	defer close(jobs)
	for {
		event, err := source.getNextEvent()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			// A broken event does not stop the run.
			logger.Error(err.Error())
			continue
		}
		select {
		case jobs <- event:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func processWorkerResults(results <-chan filterResult, sink eventSink) (RunTotals, error) {
	var totals RunTotals
	var totalTime time.Duration
	for result := range results {
		totals.Events++
		if result.Summary.Err != nil {
			totals.FailedEvents++
			continue
		}
		totals.HitsIn += result.Summary.HitsIn
		totals.HitsKept += result.Summary.HitsKept
		totals.HitsExcludedPlane += result.Summary.HitsExcludedPlane

		if sink != nil {
			start := time.Now()
			if err := sink.WriteEvent(result.Event); err != nil {
				return totals, fmt.Errorf("error writing event %d: %w", result.Summary.EventNumber, err)
			}
			totalTime += time.Since(start)
		}
	}
	if configuration.Verbosity > 0 && sink != nil {
		message := fmt.Sprintf("Total time writing: %d ms", totalTime.Milliseconds())
		logger.Info(message, "workers")
	}
	return totals, nil
}

// runWorkers filters every event of source with nWorkers workers. Results are
// written to sink, when given, in completion order.
func runWorkers(ctx context.Context, source eventSource, filter *eventFilter, sink eventSink, nWorkers int) (RunTotals, error) {
	jobs := make(chan *eutelescope.Event, nWorkers)
	results := make(chan filterResult, nWorkers)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sendEventsToWorkers(ctx, source, jobs)
	})

	var workers errgroup.Group
	for id := 0; id < nWorkers; id++ {
		id := id
		workers.Go(func() error {
			worker(ctx, id, filter, jobs, results)
			return nil
		})
	}
	g.Go(func() error {
		err := workers.Wait()
		close(results)
		return err
	})

	var totals RunTotals
	g.Go(func() error {
		var err error
		totals, err = processWorkerResults(results, sink)
		return err
	})

	err := g.Wait()
	return totals, err
}
