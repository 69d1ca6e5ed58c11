package crawler

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"chcrawler/internal/components/telemetry"
	"chcrawler/internal/session"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const (
	report_dispatcher_close   = "dispatcher.close"
	report_dispatcher_extract = "dispatcher.extract"
	report_dispatcher_tasks   = "dispatcher.tasks"
)

type DispatchResult struct {
	// Records are in the order their targets were admitted.
	Records []Record

	Admitted  int
	Extracted int
	NotFound  int
	Failed    int
	// Skipped targets were never started because the run was cancelled.
	Skipped int
}

// Dispatcher runs extraction over the targets of a query with at most
// Workers tasks (and so sessions) alive at once.
type Dispatcher struct {
	provider    session.Provider
	extractor   TargetExtractor
	workers     int
	taskTimeout time.Duration
	tel         telemetry.API
}

func NewDispatcher(provider session.Provider, extractor TargetExtractor, workers int, taskTimeout time.Duration, tel telemetry.API) Dispatcher {
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	if taskTimeout <= 0 {
		taskTimeout = DefaultTaskTimeout
	}
	return Dispatcher{
		provider:    provider,
		extractor:   extractor,
		workers:     workers,
		taskTimeout: taskTimeout,
		tel:         telemetry.NewScopedAPI("dispatcher", tel),
	}
}

type collected struct {
	index  int
	record Record
}

type dispatchState struct {
	mutex   sync.Mutex
	result  DispatchResult
	records []collected
	running int64
}

// Run extracts every target, task failures are reported and dropped. Run
// returns once every admitted task has finished.
func (d Dispatcher) Run(ctx context.Context, targets []Target) DispatchResult {
	state := &dispatchState{}

	if d.workers == 1 {
		for i, target := range targets {
			d.runTask(ctx, state, i, target)
		}
	} else {
		group := errgroup.Group{}
		group.SetLimit(d.workers)
		for i, target := range targets {
			if ctx.Err() != nil {
				state.mutex.Lock()
				state.result.Skipped += len(targets) - i
				state.mutex.Unlock()
				break
			}
			// blocks until a slot is free
			group.Go(func() error {
				d.runTask(ctx, state, i, target)
				return nil
			})
		}
		group.Wait()
	}

	sort.Slice(state.records, func(i, j int) bool {
		return state.records[i].index < state.records[j].index
	})
	result := state.result
	result.Records = make([]Record, len(state.records))
	for i, c := range state.records {
		result.Records[i] = c.record
	}
	return result
}

func (d Dispatcher) runTask(ctx context.Context, state *dispatchState, index int, target Target) {
	if ctx.Err() != nil {
		state.mutex.Lock()
		state.result.Skipped++
		state.mutex.Unlock()
		return
	}

	state.mutex.Lock()
	state.result.Admitted++
	state.running++
	d.tel.ReportCount(report_dispatcher_tasks, state.running)
	state.mutex.Unlock()

	defer func() {
		state.mutex.Lock()
		state.running--
		d.tel.ReportCount(report_dispatcher_tasks, state.running)
		state.mutex.Unlock()
	}()

	ctx, cancel := context.WithTimeout(ctx, d.taskTimeout)
	defer cancel()

	ctx, span := tracer.Start(ctx, "dispatcher:extract", trace.WithAttributes(
		attribute.String("code", target.Code),
		attribute.Int("index", target.Index),
	))
	defer span.End()

	record, err := d.extract(ctx, target)

	state.mutex.Lock()
	defer state.mutex.Unlock()
	switch {
	case errors.Is(err, ErrNotFound):
		state.result.NotFound++
		d.tel.ReportWarning(report_dispatcher_extract, "not found", target.Code, target.Name)
	case err != nil:
		state.result.Failed++
		span.RecordError(err)
		span.SetStatus(codes.Error, "extraction failed")
		d.tel.ReportBroken(report_dispatcher_extract, err, target.Code, target.Name)
	default:
		state.result.Extracted++
		state.records = append(state.records, collected{index: index, record: record})
		d.tel.ReportInfo("extracted", "index", target.Index, "code", target.Code, "name", target.Name)
	}
}

// extract runs the extractor on a session of its own which is closed
// before returning.
func (d Dispatcher) extract(ctx context.Context, target Target) (Record, error) {
	sess, err := d.provider.Open(ctx)
	if err != nil {
		return Record{}, fmt.Errorf("open session: %w", err)
	}
	defer func() {
		if err := sess.Close(); err != nil {
			d.tel.ReportWarning(report_dispatcher_close, err, target.Code)
		}
	}()
	return d.extractor.Extract(ctx, target, sess)
}
