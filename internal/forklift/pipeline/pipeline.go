// Package pipeline runs upload tasks through a fixed pool of workers. Each
// worker repeatedly takes a task from the queue, composes its metadata,
// uploads it and routes the file by outcome.
package pipeline

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/dart-platform/dart-cli/internal/constants"
	"github.com/dart-platform/dart-cli/internal/logging"
	"github.com/dart-platform/dart-cli/internal/models"
	"github.com/dart-platform/dart-cli/internal/progress"
)

// Uploader sends one task. Implementations must be safe for concurrent use.
type Uploader interface {
	Upload(ctx context.Context, task models.UploadTask, meta models.Metadata) models.Outcome
}

// Composer produces the metadata for one task.
type Composer interface {
	Compose(task models.UploadTask) models.Metadata
}

// Router moves a finished task's file and returns its new location.
type Router interface {
	Route(task models.UploadTask, outcome models.Outcome) (string, error)
}

// Limiter paces uploads. Wait blocks until the next upload may start.
type Limiter interface {
	Wait(ctx context.Context) error
}

// ResultCallback is called once per task after it reaches a terminal
// outcome. It runs on worker goroutines.
type ResultCallback func(res models.Result)

// Options configures a Pool.
type Options struct {
	Workers  int
	Uploader Uploader
	Composer Composer // nil sends no metadata
	Router   Router   // nil leaves every file in place
	Limiter  Limiter  // nil posts as fast as the workers allow
	Logger   *logging.Logger
	RunID    string

	// ProgressEvery logs the task being posted every N indices. 0 uses the default.
	ProgressEvery int
	// StatusInterval is the cadence of the status line. 0 disables it.
	StatusInterval time.Duration

	OnResult ResultCallback
}

// Summary is the aggregate of a run.
type Summary struct {
	RunID     string
	Total     int
	Succeeded int
	Failed    int
	Cancelled int
	Elapsed   time.Duration
}

// Minutes returns the elapsed time in minutes rounded to two decimals.
func (s Summary) Minutes() string {
	return progress.Elapsed(s.Elapsed)
}

// Err returns a non-nil error when the run did not fully succeed.
func (s Summary) Err() error {
	switch {
	case s.Cancelled > 0:
		return fmt.Errorf("run interrupted: %d of %d task(s) cancelled", s.Cancelled, s.Total)
	case s.Failed > 0:
		return fmt.Errorf("%d of %d task(s) failed", s.Failed, s.Total)
	}
	return nil
}

// Pool is a fixed-size worker pool over one FIFO queue.
type Pool struct {
	workers        int
	uploader       Uploader
	composer       Composer
	router         Router
	limiter        Limiter
	logger         *logging.Logger
	runID          string
	progressEvery  int
	statusInterval time.Duration
	onResult       ResultCallback

	mu        sync.Mutex
	results   []models.Result
	finished  []bool
	active    int
	succeeded int
	failed    int
	cancelled int
}

type workItem struct {
	pos  int
	task models.UploadTask
}

// New validates opts and creates a pool.
func New(opts Options) (*Pool, error) {
	if opts.Uploader == nil {
		return nil, fmt.Errorf("uploader is required")
	}
	if opts.Workers < constants.MinWorkers || opts.Workers > constants.MaxWorkers {
		return nil, fmt.Errorf("workers must be between %d and %d, got %d",
			constants.MinWorkers, constants.MaxWorkers, opts.Workers)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNopLogger()
	}
	if opts.ProgressEvery <= 0 {
		opts.ProgressEvery = constants.ProgressLogEvery
	}

	logger := opts.Logger
	if opts.RunID != "" {
		logger = logger.WithStr("run_id", opts.RunID)
	}

	return &Pool{
		workers:        opts.Workers,
		uploader:       opts.Uploader,
		composer:       opts.Composer,
		router:         opts.Router,
		limiter:        opts.Limiter,
		logger:         logger,
		runID:          opts.RunID,
		progressEvery:  opts.ProgressEvery,
		statusInterval: opts.StatusInterval,
		onResult:       opts.OnResult,
	}, nil
}

// Run processes every task and blocks until each has a terminal outcome.
// Results are returned in task order. When ctx is cancelled, tasks that
// were never started are reported as Cancelled.
func (p *Pool) Run(ctx context.Context, tasks []models.UploadTask) (Summary, []models.Result) {
	start := time.Now()

	p.mu.Lock()
	p.results = make([]models.Result, len(tasks))
	p.finished = make([]bool, len(tasks))
	p.active, p.succeeded, p.failed, p.cancelled = 0, 0, 0, 0
	p.mu.Unlock()

	queue := make(chan workItem, len(tasks))
	for i, task := range tasks {
		queue <- workItem{pos: i, task: task}
	}
	close(queue)

	p.logger.Info().
		Int("tasks", len(tasks)).
		Int("workers", p.workers).
		Msg("Starting upload")

	stopStatus := make(chan struct{})
	var statusDone sync.WaitGroup
	if p.statusInterval > 0 {
		statusDone.Add(1)
		go func() {
			defer statusDone.Done()
			p.statusReporter(len(tasks), stopStatus)
		}()
	}

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go p.worker(ctx, &wg, queue)
	}
	wg.Wait()

	close(stopStatus)
	statusDone.Wait()

	// Anything still queued was never dispatched.
	for i, task := range tasks {
		p.mu.Lock()
		done := p.finished[i]
		p.mu.Unlock()
		if !done {
			outcome := models.Cancellation(ctx.Err(), 0)
			outcome.FinishedAt = time.Now()
			p.record(i, models.Result{Task: task, Outcome: outcome})
		}
	}

	p.mu.Lock()
	summary := Summary{
		RunID:     p.runID,
		Total:     len(tasks),
		Succeeded: p.succeeded,
		Failed:    p.failed,
		Cancelled: p.cancelled,
		Elapsed:   time.Since(start),
	}
	results := p.results
	p.mu.Unlock()

	p.logger.Info().
		Int("succeeded", summary.Succeeded).
		Int("failed", summary.Failed).
		Int("cancelled", summary.Cancelled).
		Msgf("Completed in %s minutes", summary.Minutes())

	return summary, results
}

func (p *Pool) worker(ctx context.Context, wg *sync.WaitGroup, queue <-chan workItem) {
	defer wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case item, ok := <-queue:
			if !ok {
				return
			}
			p.process(ctx, item)
		}
	}
}

// process runs one task to a terminal outcome. It never panics.
func (p *Pool) process(ctx context.Context, item workItem) {
	task := item.task
	p.setActive(1)
	defer p.setActive(-1)

	if ctx.Err() != nil {
		outcome := models.Cancellation(ctx.Err(), 0)
		outcome.FinishedAt = time.Now()
		p.record(item.pos, models.Result{Task: task, Outcome: outcome})
		return
	}

	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			outcome := models.Cancellation(err, 0)
			outcome.FinishedAt = time.Now()
			p.record(item.pos, models.Result{Task: task, Outcome: outcome})
			return
		}
	}

	if task.Index%p.progressEvery == 0 {
		p.logger.Info().Msgf("Posting: #%d %s", task.Index, task.FilePath)
	}

	outcome := p.upload(ctx, task)

	switch outcome.Kind {
	case models.Failed:
		p.logger.Error().
			Int("index", task.Index).
			Str("file", task.FilePath).
			Int("status", outcome.StatusCode).
			Int("attempts", outcome.Attempts).
			Str("stage", "upload").
			Msg(outcome.Message)
	case models.Cancelled:
		p.logger.Debug().
			Int("index", task.Index).
			Str("file", task.FilePath).
			Msg("Upload interrupted")
	default:
		p.logger.Debug().
			Int("index", task.Index).
			Str("file", task.FilePath).
			Int("status", outcome.StatusCode).
			Int("attempts", outcome.Attempts).
			Msg("Posted")
	}

	if p.router != nil && outcome.Kind != models.Cancelled {
		dest, err := p.router.Route(task, outcome)
		if err != nil {
			p.logger.Error().
				Err(err).
				Int("index", task.Index).
				Str("file", task.FilePath).
				Str("stage", "route").
				Msg("Failed to move file")
		}
		outcome.Destination = dest
	}

	outcome.FinishedAt = time.Now()
	p.record(item.pos, models.Result{Task: task, Outcome: outcome})
}

// upload composes and sends the task. A panic in either step becomes a
// Failed outcome.
func (p *Pool) upload(ctx context.Context, task models.UploadTask) (outcome models.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error().
				Int("index", task.Index).
				Str("file", task.FilePath).
				Str("stack", string(debug.Stack())).
				Msgf("Recovered panic: %v", r)
			outcome = models.Failure(fmt.Errorf("internal error: %v", r), 0, 0)
		}
	}()

	var meta models.Metadata
	if p.composer != nil {
		meta = p.composer.Compose(task)
	}
	return p.uploader.Upload(ctx, task, meta)
}

func (p *Pool) record(pos int, res models.Result) {
	p.mu.Lock()
	if p.finished[pos] {
		p.mu.Unlock()
		return
	}
	p.finished[pos] = true
	p.results[pos] = res
	switch res.Outcome.Kind {
	case models.Succeeded:
		p.succeeded++
	case models.Failed:
		p.failed++
	case models.Cancelled:
		p.cancelled++
	}
	p.mu.Unlock()

	if p.onResult != nil {
		p.onResult(res)
	}
}

func (p *Pool) setActive(delta int) {
	p.mu.Lock()
	p.active += delta
	p.mu.Unlock()
}

// statusReporter logs a status line on every tick until stop is closed.
func (p *Pool) statusReporter(total int, stop <-chan struct{}) {
	ticker := time.NewTicker(p.statusInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.mu.Lock()
			active := p.active
			succeeded, failed, cancelled := p.succeeded, p.failed, p.cancelled
			p.mu.Unlock()

			p.logger.Info().
				Int("active", active).
				Int("succeeded", succeeded).
				Int("failed", failed).
				Msgf("Completed: %d/%d", succeeded+failed+cancelled, total)
		case <-stop:
			return
		}
	}
}
