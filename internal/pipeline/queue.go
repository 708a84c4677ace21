package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/tastebase/recipe-api/internal/domain"
	"github.com/tastebase/recipe-api/internal/redact"
)

// Errors returned by the submission surface.
var (
	ErrEmptyURL  = errors.New("url cannot be empty")
	ErrEmptyText = errors.New("text cannot be empty")

	errNilContentSource = errors.New("content source cannot be nil")
	errNilExtractor     = errors.New("extractor cannot be nil")
	errNilLogger        = errors.New("logger cannot be nil")
)

// ContentSource resolves a URL to bounded plain text ready for extraction.
type ContentSource interface {
	Resolve(ctx context.Context, url string) (string, error)
}

// Extractor turns plain text into a structured recipe. The source label is
// the URL the text came from, or ManualSourceKey for submitted text.
type Extractor interface {
	Extract(ctx context.Context, text, source string) (*domain.Recipe, error)
}

// Translator produces the translated mirror of a recipe.
type Translator interface {
	Translate(ctx context.Context, recipe *domain.Recipe) (*domain.Translation, error)
}

// Illustrator generates and stores an image for a recipe, returning its
// public URL. The job ID names the stored artifact.
type Illustrator interface {
	Illustrate(ctx context.Context, jobID string, recipe *domain.Recipe) (string, error)
}

// RecipeStore persists a finished recipe, upserting by source key.
type RecipeStore interface {
	Upsert(ctx context.Context, recipe *domain.Recipe, sourceKey, typeKey string) (string, error)
}

// Stages bundles the collaborators the queue orchestrates. Source and
// Extractor are required; the rest may be nil, in which case the
// corresponding stage is skipped and the job completes in degraded form.
type Stages struct {
	Source      ContentSource
	Extractor   Extractor
	Translator  Translator
	Illustrator Illustrator
	Store       RecipeStore
}

// Config holds queue orchestrator settings.
type Config struct {
	// TypeKey is the deployment-scoped tag attached to persisted records.
	TypeKey string

	// StageTimeout bounds each collaborator call. Zero disables the bound.
	StageTimeout time.Duration

	// RecentJobLimit is how many terminal jobs are retained for status
	// lookups after eviction from the live queue.
	RecentJobLimit int
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		TypeKey:        "default",
		StageTimeout:   2 * time.Minute,
		RecentJobLimit: 64,
	}
}

// Queue serializes recipe extraction work. Jobs are processed strictly in
// submission order by a single drain goroutine; submissions never block on
// processing. Stage failures are contained per job: a fetch or extraction
// error fails only that job, and translation, illustration, and persistence
// errors degrade the result without failing it.
type Queue struct {
	mu     sync.Mutex
	jobs   []*Job
	recent []*Job // terminal jobs, oldest first, bounded by RecentJobLimit

	draining atomic.Bool
	wg       sync.WaitGroup

	stages Stages
	config Config
	logger *slog.Logger
}

// NewQueue creates a queue orchestrator. Stages.Source and Stages.Extractor
// must be non-nil.
func NewQueue(stages Stages, config Config, logger *slog.Logger) (*Queue, error) {
	if stages.Source == nil {
		return nil, errNilContentSource
	}
	if stages.Extractor == nil {
		return nil, errNilExtractor
	}
	if logger == nil {
		return nil, errNilLogger
	}
	if config.RecentJobLimit <= 0 {
		config.RecentJobLimit = DefaultConfig().RecentJobLimit
	}

	return &Queue{
		stages: stages,
		config: config,
		logger: logger.With(slog.String("component", "pipeline")),
	}, nil
}

// SubmitURL queues extraction of the page at url. It returns the new job's
// ID and its 1-based queue position at the instant of insertion.
func (q *Queue) SubmitURL(url string) (string, int, error) {
	if strings.TrimSpace(url) == "" {
		return "", 0, ErrEmptyURL
	}
	return q.submit(&Job{
		ID:       uuid.New().String(),
		URL:      url,
		Status:   JobStatusQueued,
		QueuedAt: time.Now().UTC(),
	})
}

// SubmitText queues extraction of literal recipe text.
func (q *Queue) SubmitText(text string) (string, int, error) {
	if strings.TrimSpace(text) == "" {
		return "", 0, ErrEmptyText
	}
	return q.submit(&Job{
		ID:       uuid.New().String(),
		Text:     text,
		Status:   JobStatusQueued,
		QueuedAt: time.Now().UTC(),
	})
}

func (q *Queue) submit(job *Job) (string, int, error) {
	q.mu.Lock()
	q.jobs = append(q.jobs, job)
	position := len(q.jobs)
	q.mu.Unlock()

	q.logger.Info("job queued",
		"job_id", job.ID,
		"source", job.SourceKey(),
		"position", position)

	q.triggerDrain()
	return job.ID, position, nil
}

// Snapshot returns a copy of the live queue: every job still queued or
// currently processing, in submission order. It never blocks on processing.
func (q *Queue) Snapshot() []Job {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]Job, len(q.jobs))
	for i, job := range q.jobs {
		out[i] = *job
	}
	return out
}

// Status looks up a job by ID in the live queue, then among recently
// finished jobs. The second return is false when the job is unknown or has
// aged out of the terminal-job buffer.
func (q *Queue) Status(jobID string) (Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, job := range q.jobs {
		if job.ID == jobID {
			return *job, true
		}
	}
	for i := len(q.recent) - 1; i >= 0; i-- {
		if q.recent[i].ID == jobID {
			return *q.recent[i], true
		}
	}
	return Job{}, false
}

// Wait blocks until the drain loop goes idle. Intended for shutdown and tests.
func (q *Queue) Wait() {
	q.wg.Wait()
}

// triggerDrain starts the drain goroutine unless one is already running.
// The atomic flag makes the trigger idempotent: any number of submissions
// during a drain leave exactly one loop active.
func (q *Queue) triggerDrain() {
	if q.draining.CompareAndSwap(false, true) {
		q.wg.Add(1)
		go q.drain()
	}
}

// drain processes queued jobs strictly in FIFO order, one at a time. Stage
// failures never stop the loop; it runs until the queue is empty.
func (q *Queue) drain() {
	defer q.wg.Done()

	for {
		for {
			job := q.startNext()
			if job == nil {
				break
			}
			q.process(job)
			q.evict(job)
		}

		q.draining.Store(false)

		// A submission may have landed between the last startNext and the
		// flag clearing above. Reclaim the flag and keep draining if so;
		// if another trigger won the race, that loop owns the queue now.
		if !q.hasQueued() || !q.draining.CompareAndSwap(false, true) {
			return
		}
	}
}

// startNext peeks the head job without removing it and marks it processing.
// Returns nil when the queue is empty.
func (q *Queue) startNext() *Job {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.jobs) == 0 {
		return nil
	}
	job := q.jobs[0]
	now := time.Now().UTC()
	job.Status = JobStatusProcessing
	job.StartedAt = &now
	return job
}

func (q *Queue) hasQueued() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs) > 0
}

// process runs every stage for the job and records the terminal outcome.
func (q *Queue) process(job *Job) {
	log := q.logger.With(slog.String("job_id", job.ID))
	log.Info("starting job", "source", job.SourceKey())

	recipe, storedID, err := q.runStages(job, log)

	now := time.Now().UTC()
	q.mu.Lock()
	job.CompletedAt = &now
	if err != nil {
		job.Status = JobStatusFailed
		job.Error = redact.Error(err)
	} else {
		job.Status = JobStatusCompleted
		job.Result = &JobResult{Recipe: recipe, StoredID: storedID}
	}
	q.mu.Unlock()

	if err != nil {
		log.Error("job failed", "error", err)
	} else {
		log.Info("job completed", "recipe", recipe.Name, "stored_id", storedID)
	}
}

// runStages executes the fixed stage order. Fetch and extraction errors are
// returned and fail the job; translation, illustration, and persistence
// errors are logged and swallowed.
func (q *Queue) runStages(job *Job, log *slog.Logger) (*domain.Recipe, string, error) {
	sourceKey := job.SourceKey()

	var text string
	if job.Text != "" {
		text = job.Text
		log.Info("using submitted text", "chars", len(text))
	} else {
		ctx, cancel := q.stageContext()
		resolved, err := q.stages.Source.Resolve(ctx, job.URL)
		cancel()
		if err != nil {
			return nil, "", fmt.Errorf("content fetch failed: %w", err)
		}
		text = resolved
		log.Info("content resolved", "chars", len(text))
	}

	ctx, cancel := q.stageContext()
	recipe, err := q.stages.Extractor.Extract(ctx, text, sourceKey)
	cancel()
	if err != nil {
		return nil, "", fmt.Errorf("extraction failed: %w", err)
	}
	log.Info("recipe extracted", "recipe", recipe.Name)

	if q.stages.Translator != nil {
		ctx, cancel := q.stageContext()
		translation, err := q.stages.Translator.Translate(ctx, recipe)
		cancel()
		if err != nil {
			log.Error("translation failed, continuing with original text", "error", err)
		} else {
			recipe.ApplyTranslation(translation)
			log.Info("recipe translated")
		}
	}

	if q.stages.Illustrator != nil && recipe.Name != "" {
		ctx, cancel := q.stageContext()
		imageURL, err := q.stages.Illustrator.Illustrate(ctx, job.ID, recipe)
		cancel()
		if err != nil {
			log.Error("illustration failed, continuing without image", "error", err)
		} else {
			recipe.ImageURL = imageURL
			log.Info("image attached", "image_url", imageURL)
		}
	}

	var storedID string
	if q.stages.Store != nil {
		ctx, cancel := q.stageContext()
		id, err := q.stages.Store.Upsert(ctx, recipe, sourceKey, q.config.TypeKey)
		cancel()
		if err != nil {
			log.Error("persist failed, completing without stored id", "error", err)
		} else {
			storedID = id
			log.Info("recipe stored", "stored_id", id)
		}
	}

	return recipe, storedID, nil
}

// evict removes the finished head job from the live queue and retains it in
// the bounded terminal-job buffer for later status lookups.
func (q *Queue) evict(job *Job) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, queued := range q.jobs {
		if queued == job {
			q.jobs = append(q.jobs[:i], q.jobs[i+1:]...)
			break
		}
	}

	q.recent = append(q.recent, job)
	if len(q.recent) > q.config.RecentJobLimit {
		q.recent = q.recent[len(q.recent)-q.config.RecentJobLimit:]
	}
}

func (q *Queue) stageContext() (context.Context, context.CancelFunc) {
	if q.config.StageTimeout > 0 {
		return context.WithTimeout(context.Background(), q.config.StageTimeout)
	}
	return context.WithCancel(context.Background())
}
