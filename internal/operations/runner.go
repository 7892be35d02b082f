package operations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"costsheet/internal/infrastructure"
	"costsheet/internal/scraper"
	"costsheet/pkg/contracts/domain"
)

// RunnerConfig bounds each run.
type RunnerConfig struct {
	Timeout time.Duration
}

// Runner starts runs on registered sources and records them in a RunStore.
type Runner struct {
	store     RunStore
	sources   map[domain.SourceKind]Source
	publisher Publisher
	metrics   *infrastructure.BusinessMetrics
	logger    *slog.Logger
	cfg       RunnerConfig

	flight singleflight.Group

	mu         sync.Mutex
	flights    map[string]*stepFanout
	flightSeq  uint64
	liveTarget string
	liveRuns   int
	closed     bool
	wg         sync.WaitGroup
	baseCtx    context.Context
	cancelAll  context.CancelFunc
}

// NewRunner creates a Runner. A nil publisher discards notifications.
func NewRunner(store RunStore, publisher Publisher, metrics *infrastructure.BusinessMetrics, logger *slog.Logger, cfg RunnerConfig, sources ...Source) *Runner {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	r := &Runner{
		store:     store,
		sources:   make(map[domain.SourceKind]Source, len(sources)),
		flights:   make(map[string]*stepFanout),
		publisher: publisher,
		metrics:   metrics,
		logger:    logger.With(slog.String("component", "runner")),
		cfg:       cfg,
		baseCtx:   ctx,
		cancelAll: cancel,
	}
	for _, src := range sources {
		r.sources[src.Kind()] = src
	}
	return r
}

// HasSource reports whether kind can be started.
func (r *Runner) HasSource(kind domain.SourceKind) bool {
	_, ok := r.sources[kind]
	return ok
}

// Start records a pending run and executes it in the background. A browser
// run for the target already being extracted joins that extraction; one for
// any other target returns ErrRunInProgress.
func (r *Runner) Start(ctx context.Context, kind domain.SourceKind, target string) (domain.Run, error) {
	src, ok := r.sources[kind]
	if !ok {
		return domain.Run{}, fmt.Errorf("%w: %s", ErrUnknownSource, kind)
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return domain.Run{}, ErrShuttingDown
	}
	if kind == domain.SourceBrowser {
		if r.liveRuns > 0 && r.liveTarget != target {
			r.mu.Unlock()
			return domain.Run{}, ErrRunInProgress
		}
		r.liveTarget = target
		r.liveRuns++
	}
	r.wg.Add(1)
	r.mu.Unlock()

	run := domain.Run{
		ID:        uuid.NewString(),
		Source:    kind,
		Target:    target,
		Status:    domain.RunPending,
		Steps:     []domain.StepRecord{},
		CreatedAt: time.Now(),
	}
	if err := r.store.Create(run); err != nil {
		r.finish(kind)
		return domain.Run{}, fmt.Errorf("failed to save run: %w", err)
	}

	runCtx := infrastructure.WithTraceID(r.baseCtx, run.ID)
	r.logger.InfoContext(ctx, "run requested",
		slog.String("run_id", run.ID),
		slog.String("source", string(kind)))

	go r.execute(runCtx, src, run)
	return run, nil
}

// Record stores a run that was computed synchronously, such as an upload.
func (r *Runner) Record(kind domain.SourceKind, target string, summary domain.CostSummary, started time.Time) (domain.Run, error) {
	now := time.Now()
	run := domain.Run{
		ID:          uuid.NewString(),
		Source:      kind,
		Target:      target,
		Status:      statusFor(summary),
		Progress:    100,
		Message:     summary.Message,
		Steps:       []domain.StepRecord{},
		Summary:     &summary,
		CreatedAt:   started,
		StartedAt:   &started,
		CompletedAt: &now,
	}
	if err := r.store.Create(run); err != nil {
		return domain.Run{}, fmt.Errorf("failed to save run: %w", err)
	}
	r.publisher.PublishResult(run)
	return run, nil
}

// Get returns a run by ID.
func (r *Runner) Get(id string) (domain.Run, error) {
	return r.store.Get(id)
}

// List returns recent runs, newest first.
func (r *Runner) List(limit int) []domain.Run {
	return r.store.List(limit)
}

// Shutdown cancels active runs and waits for them to record their result.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	r.cancelAll()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("timeout waiting for runs to finish: %w", ctx.Err())
	}
}

func (r *Runner) execute(ctx context.Context, src Source, run domain.Run) {
	defer r.finish(src.Kind())

	logger := r.logger.With(
		slog.String("run_id", run.ID),
		slog.String("source", string(src.Kind())))

	started := time.Now()
	running, err := r.store.Update(run.ID, func(rr *domain.Run) {
		rr.Status = domain.RunRunning
		rr.StartedAt = &started
	})
	if err != nil {
		logger.ErrorContext(ctx, "run vanished before start", slog.String("error", err.Error()))
		return
	}
	r.publisher.PublishStatus(running)
	infrastructure.RecordActiveRunChange(ctx, r.metrics, 1, string(src.Kind()))
	defer infrastructure.RecordActiveRunChange(ctx, r.metrics, -1, string(src.Kind()))

	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	reporter := scraper.ReporterFunc(func(step domain.StepRecord) {
		updated, err := r.store.Update(run.ID, func(rr *domain.Run) {
			rr.Steps = append(rr.Steps, step)
			if step.Status != domain.StepRunning && step.Progress > rr.Progress {
				rr.Progress = step.Progress
			}
		})
		if err == nil {
			r.publisher.PublishStep(updated, step)
		}
	})

	summary := r.extract(ctx, src, run.Target, reporter)

	completed := time.Now()
	final, err := r.store.Update(run.ID, func(rr *domain.Run) {
		rr.Status = statusFor(summary)
		rr.Progress = 100
		rr.Message = summary.Message
		rr.Summary = &summary
		rr.CompletedAt = &completed
	})
	if err != nil {
		logger.ErrorContext(ctx, "run vanished before completion", slog.String("error", err.Error()))
		return
	}

	infrastructure.RecordRunMetrics(ctx, r.metrics, string(src.Kind()), string(summary.Status), completed.Sub(started), summary.Count)
	logger.InfoContext(ctx, "run finished",
		slog.String("status", string(final.Status)),
		slog.String("summary_status", string(summary.Status)),
		slog.Int("count", summary.Count),
		slog.Duration("duration", completed.Sub(started)))

	r.publisher.PublishStatus(final)
	r.publisher.PublishResult(final)
}

// extract shares one in-flight extraction between runs of the same source
// and target. A run that joins late first receives the steps already taken.
func (r *Runner) extract(ctx context.Context, src Source, target string, reporter scraper.Reporter) domain.CostSummary {
	base := string(src.Kind()) + "|" + target

	r.mu.Lock()
	fan, joined := r.flights[base]
	if !joined {
		r.flightSeq++
		fan = &stepFanout{key: fmt.Sprintf("%s|%d", base, r.flightSeq)}
		r.flights[base] = fan
	}
	sub := fan.add(reporter)
	// The flight entry is removed inside fn, so a joiner always reaches
	// DoChan while the leader's call is still registered.
	ch := r.flight.DoChan(fan.key, func() (interface{}, error) {
		summary := src.Run(ctx, target, fan)
		r.mu.Lock()
		if r.flights[base] == fan {
			delete(r.flights, base)
		}
		r.mu.Unlock()
		return summary, nil
	})
	r.mu.Unlock()

	var res singleflight.Result
	if joined {
		select {
		case res = <-ch:
		case <-ctx.Done():
			fan.remove(sub)
			return domain.ErrorSummary(src.Kind(), domain.CodeSourceUnreachable, ctx.Err().Error())
		}
	} else {
		res = <-ch
	}

	if res.Err != nil {
		return domain.ErrorSummary(src.Kind(), domain.CodeInternal, res.Err.Error())
	}
	summary := res.Val.(domain.CostSummary)
	if res.Shared {
		summary.Values = append([]float64{}, summary.Values...)
	}
	return summary
}

func (r *Runner) finish(kind domain.SourceKind) {
	r.mu.Lock()
	if kind == domain.SourceBrowser {
		r.liveRuns--
		if r.liveRuns == 0 {
			r.liveTarget = ""
		}
	}
	r.mu.Unlock()
	r.wg.Done()
}

// stepFanout forwards the steps of one extraction to every run sharing it.
type stepFanout struct {
	key string

	mu    sync.Mutex
	steps []domain.StepRecord
	subs  []*fanoutSub
}

type fanoutSub struct {
	reporter scraper.Reporter
}

func (f *stepFanout) add(rep scraper.Reporter) *fanoutSub {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, step := range f.steps {
		rep.ReportStep(step)
	}
	sub := &fanoutSub{reporter: rep}
	f.subs = append(f.subs, sub)
	return sub
}

func (f *stepFanout) remove(sub *fanoutSub) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, s := range f.subs {
		if s == sub {
			f.subs = append(f.subs[:i], f.subs[i+1:]...)
			return
		}
	}
}

func (f *stepFanout) ReportStep(step domain.StepRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.steps = append(f.steps, step)
	for _, sub := range f.subs {
		sub.reporter.ReportStep(step)
	}
}

func statusFor(summary domain.CostSummary) domain.RunStatus {
	if summary.Status == domain.StatusError {
		return domain.RunFailed
	}
	return domain.RunCompleted
}

// IsConflict reports whether err means another run blocks this one.
func IsConflict(err error) bool {
	return errors.Is(err, ErrRunInProgress)
}
