package main

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/lobsterload/lobsterload/workload"
	"github.com/lobsterload/lobsterload/workload/hist"
	"github.com/lobsterload/lobsterload/workload/pgengine"
	"github.com/lobsterload/lobsterload/workload/primer"
)

// Issue rate at scale 1.0, spread evenly over the run.
const baseRequestsPerMinute = 44440

// issueBatchInterval is the generator tick; each tick issues the
// requests that fell due since the previous one.
const issueBatchInterval = 10 * time.Millisecond

// issued is one scheduled request. Sojourn time counts from the moment
// it was due, so queueing delay in front of busy workers is part of the
// measurement.
type issued struct {
	req workload.Request
	due time.Time
}

type runner struct {
	cfg    Config
	engine *pgengine.Engine
	logger workload.Logger
	reg    *hist.Registry

	// measureFrom gates histogram recording until warmup has passed.
	measureFrom time.Time
}

func newRunner(cfg Config, engine *pgengine.Engine, logger workload.Logger) *runner {
	return &runner{
		cfg:    cfg,
		engine: engine,
		logger: logger,
		reg:    hist.NewRegistry(defaultMaxLat),
	}
}

// Run drives the measured phase: a single generator produces the
// request stream open-loop, a fixed set of workers executes it, and
// requests that find every worker busy are dropped rather than queued
// indefinitely.
func (r *runner) Run(ctx context.Context, seeded primer.Config, rng *rand.Rand) error {
	total := r.cfg.Warmup + r.cfg.Runtime
	runCtx, cancel := context.WithTimeout(ctx, total)
	defer cancel()

	r.measureFrom = time.Now().Add(r.cfg.Warmup)

	queue := make(chan issued, r.cfg.Workers)

	var wg sync.WaitGroup
	for i := 0; i < r.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.worker(runCtx, queue)
		}()
	}

	r.generate(runCtx, queue, newGenerator(rng, seeded))

	cancel()
	close(queue)
	wg.Wait()

	// Whatever the workers left behind was never executed and counts as
	// dropped, like any other request the run had no capacity for.
	for range queue {
		droppedTotal.Inc()
	}

	return nil
}

// generate issues requests at the scaled rate until the run context
// expires. A full queue means every worker is busy; the request is
// dropped and counted, keeping the loop open.
func (r *runner) generate(ctx context.Context, queue chan<- issued, gen *generator) {
	rate := float64(baseRequestsPerMinute) / 60.0 * r.cfg.Scale
	interval := time.Duration(float64(time.Second) / rate)

	ticker := time.NewTicker(issueBatchInterval)
	defer ticker.Stop()

	next := time.Now()
	for {
		select {
		case <-ctx.Done():
			return

		case now := <-ticker.C:
			for !next.After(now) {
				item := issued{req: gen.next(), due: next}
				generatedTotal.WithLabelValues(item.req.Page.String()).Inc()

				select {
				case queue <- item:
				default:
					droppedTotal.Inc()
				}

				next = next.Add(interval)
			}
		}
	}
}

// worker admits itself to the pool, then takes the next due request and
// executes it. Admission happens before the request is known, so the
// in-flight bound applies regardless of page kind.
func (r *runner) worker(ctx context.Context, queue <-chan issued) {
	admission := r.engine.NewAdmission()
	defer admission.Abandon()

	hists := r.reg.GetHandle()

	for {
		if !r.awaitAdmission(ctx, admission) {
			return
		}

		item, ok := takeNext(ctx, queue)
		if !ok {
			return
		}

		r.execute(ctx, admission.TakeConn(), item, hists)
	}
}

// takeNext returns the next request to execute, or false when the run
// is over. A queued item can win the select against an expired context,
// so the context is checked again after the receive; without that,
// every run would end with a burst of requests executed against a
// canceled context and counted as failures.
func takeNext(ctx context.Context, queue <-chan issued) (issued, bool) {
	select {
	case <-ctx.Done():
		return issued{}, false

	case item, ok := <-queue:
		if !ok || ctx.Err() != nil {
			return issued{}, false
		}

		return item, true
	}
}

func (r *runner) awaitAdmission(ctx context.Context, admission *pgengine.Admission) bool {
	for {
		state, err := admission.TryAdmit(ctx)
		if err != nil {
			// Pool shutdown reaches workers here; anything else is
			// still the end of this worker's run.
			if r.cfg.Verbose {
				r.logger.Debug("admission ended", "error", err)
			}
			return false
		}
		if state == pgengine.Ready {
			return true
		}

		select {
		case <-ctx.Done():
			return false
		case <-time.After(time.Millisecond):
		}
	}
}

func (r *runner) execute(ctx context.Context, conn pgengine.Conn, item issued, hists *hist.Histograms) {
	start := time.Now()
	err := r.engine.Execute(ctx, conn, item.req)
	end := time.Now()

	countOutcome(item.req.Page, err)
	if err != nil {
		r.logger.Error("request failed", "page", item.req.Page.String(), "error", err)
	}

	if end.After(r.measureFrom) {
		page := item.req.Page.String()
		hists.Get(page + "-sojourn").Record(end.Sub(item.due))
		hists.Get(page + "-processing").Record(end.Sub(start))
	}
}

// report prints the per-page latency table for the measured window.
func (r *runner) report() {
	fmt.Printf("%-28s %10s %8s %8s %8s %8s\n",
		"histogram", "count", "p50(ms)", "p95(ms)", "p99(ms)", "max(ms)")
	for _, s := range r.reg.Summaries() {
		fmt.Printf("%-28s %10d %8.2f %8.2f %8.2f %8.2f\n",
			s.Name, s.Count,
			ms(s.Quantile(50)), ms(s.Quantile(95)),
			ms(s.Quantile(99)), ms(s.Quantile(100)))
	}
}

func ms(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1e6
}
