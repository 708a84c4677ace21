package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tastebase/recipe-api/internal/domain"
)

// Function-field mocks for the stage adapters.

type mockSource struct {
	ResolveFn func(ctx context.Context, url string) (string, error)
}

func (m *mockSource) Resolve(ctx context.Context, url string) (string, error) {
	if m.ResolveFn != nil {
		return m.ResolveFn(ctx, url)
	}
	return "resolved text", nil
}

type mockExtractor struct {
	ExtractFn func(ctx context.Context, text, source string) (*domain.Recipe, error)
}

func (m *mockExtractor) Extract(ctx context.Context, text, source string) (*domain.Recipe, error) {
	if m.ExtractFn != nil {
		return m.ExtractFn(ctx, text, source)
	}
	return sampleRecipe(), nil
}

type mockTranslator struct {
	TranslateFn func(ctx context.Context, recipe *domain.Recipe) (*domain.Translation, error)
}

func (m *mockTranslator) Translate(ctx context.Context, recipe *domain.Recipe) (*domain.Translation, error) {
	if m.TranslateFn != nil {
		return m.TranslateFn(ctx, recipe)
	}
	return &domain.Translation{Name: recipe.Name + " (translated)"}, nil
}

type mockIllustrator struct {
	IllustrateFn func(ctx context.Context, jobID string, recipe *domain.Recipe) (string, error)
}

func (m *mockIllustrator) Illustrate(ctx context.Context, jobID string, recipe *domain.Recipe) (string, error) {
	if m.IllustrateFn != nil {
		return m.IllustrateFn(ctx, jobID, recipe)
	}
	return "https://images.example.com/" + jobID + ".jpg", nil
}

type mockStore struct {
	UpsertFn func(ctx context.Context, recipe *domain.Recipe, sourceKey, typeKey string) (string, error)
}

func (m *mockStore) Upsert(ctx context.Context, recipe *domain.Recipe, sourceKey, typeKey string) (string, error) {
	if m.UpsertFn != nil {
		return m.UpsertFn(ctx, recipe, sourceKey, typeKey)
	}
	return "stored-1", nil
}

func sampleRecipe() *domain.Recipe {
	return &domain.Recipe{
		Name:         "Lentil Soup",
		Description:  "A hearty soup.",
		TotalTime:    "45 minutes",
		Servings:     4,
		Ingredients:  []domain.Ingredient{{Item: "lentils", Amount: "2", Unit: "cups"}},
		Instructions: []domain.Instruction{{StepNumber: 1, Text: "Simmer the lentils."}},
		Healthify: domain.Healthify{
			Cut:  domain.HealthifySection{Ingredients: []string{"skip the oil"}, Instructions: []string{"dry saute"}, Notes: "lighter"},
			Bulk: domain.HealthifySection{Ingredients: []string{"add spinach"}, Instructions: []string{"stir in greens"}, Notes: "more volume"},
		},
		ImagePrompt: "a rustic bowl of lentil soup",
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestQueue(t *testing.T, stages Stages) *Queue {
	t.Helper()
	if stages.Source == nil {
		stages.Source = &mockSource{}
	}
	if stages.Extractor == nil {
		stages.Extractor = &mockExtractor{}
	}
	q, err := NewQueue(stages, DefaultConfig(), testLogger())
	require.NoError(t, err)
	return q
}

func TestNewQueue_RequiresCoreStages(t *testing.T) {
	_, err := NewQueue(Stages{Extractor: &mockExtractor{}}, DefaultConfig(), testLogger())
	assert.Error(t, err)

	_, err = NewQueue(Stages{Source: &mockSource{}}, DefaultConfig(), testLogger())
	assert.Error(t, err)

	_, err = NewQueue(Stages{Source: &mockSource{}, Extractor: &mockExtractor{}}, DefaultConfig(), nil)
	assert.Error(t, err)
}

func TestSubmit_RejectsEmptyInput(t *testing.T) {
	q := newTestQueue(t, Stages{})

	_, _, err := q.SubmitURL("")
	assert.ErrorIs(t, err, ErrEmptyURL)

	_, _, err = q.SubmitURL("   ")
	assert.ErrorIs(t, err, ErrEmptyURL)

	_, _, err = q.SubmitText("")
	assert.ErrorIs(t, err, ErrEmptyText)

	q.Wait()
	assert.Empty(t, q.Snapshot(), "no job should be created for invalid input")
}

func TestSubmit_PositionMatchesQueueLength(t *testing.T) {
	// Hold the first job in the extractor so later submissions stack up.
	release := make(chan struct{})
	extractor := &mockExtractor{
		ExtractFn: func(ctx context.Context, text, source string) (*domain.Recipe, error) {
			<-release
			return sampleRecipe(), nil
		},
	}
	q := newTestQueue(t, Stages{Extractor: extractor})

	_, pos1, err := q.SubmitText("first")
	require.NoError(t, err)
	_, pos2, err := q.SubmitText("second")
	require.NoError(t, err)
	_, pos3, err := q.SubmitText("third")
	require.NoError(t, err)

	assert.Equal(t, 1, pos1)
	assert.Equal(t, 2, pos2)
	assert.Equal(t, 3, pos3)

	close(release)
	q.Wait()
}

func TestDrain_ProcessesInFIFOOrderWithoutOverlap(t *testing.T) {
	var mu sync.Mutex
	var events []string

	extractor := &mockExtractor{
		ExtractFn: func(ctx context.Context, text, source string) (*domain.Recipe, error) {
			mu.Lock()
			events = append(events, "start "+text)
			mu.Unlock()
			time.Sleep(5 * time.Millisecond)
			mu.Lock()
			events = append(events, "end "+text)
			mu.Unlock()
			return sampleRecipe(), nil
		},
	}
	q := newTestQueue(t, Stages{Extractor: extractor})

	_, _, err := q.SubmitText("A")
	require.NoError(t, err)
	_, _, err = q.SubmitText("B")
	require.NoError(t, err)
	_, _, err = q.SubmitText("C")
	require.NoError(t, err)
	q.Wait()

	require.Equal(t, []string{"start A", "end A", "start B", "end B", "start C", "end C"}, events)
}

func TestDrain_TriggerIsIdempotentUnderConcurrentSubmits(t *testing.T) {
	var inFlight atomic.Int32
	var maxInFlight atomic.Int32

	extractor := &mockExtractor{
		ExtractFn: func(ctx context.Context, text, source string) (*domain.Recipe, error) {
			n := inFlight.Add(1)
			for {
				max := maxInFlight.Load()
				if n <= max || maxInFlight.CompareAndSwap(max, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			inFlight.Add(-1)
			return sampleRecipe(), nil
		},
	}
	q := newTestQueue(t, Stages{Extractor: extractor})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, err := q.SubmitText(fmt.Sprintf("job %d", i))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()
	q.Wait()

	assert.Equal(t, int32(1), maxInFlight.Load(), "only one job may be processed at a time")
	assert.Empty(t, q.Snapshot())
}

func TestTranslationFailure_IsSoft(t *testing.T) {
	translator := &mockTranslator{
		TranslateFn: func(ctx context.Context, recipe *domain.Recipe) (*domain.Translation, error) {
			return nil, errors.New("translate service unavailable")
		},
	}
	q := newTestQueue(t, Stages{Translator: translator})

	jobID, _, err := q.SubmitText("some recipe text")
	require.NoError(t, err)
	q.Wait()

	job, ok := q.Status(jobID)
	require.True(t, ok)
	assert.Equal(t, JobStatusCompleted, job.Status)
	require.NotNil(t, job.Result)
	assert.Equal(t, "Lentil Soup", job.Result.Recipe.Name)
	assert.Empty(t, job.Result.Recipe.NameLocal, "no translated fields on translation failure")
	assert.Nil(t, job.Result.Recipe.HealthifyLocal)
}

func TestIllustrationFailure_IsSoft(t *testing.T) {
	illustrator := &mockIllustrator{
		IllustrateFn: func(ctx context.Context, jobID string, recipe *domain.Recipe) (string, error) {
			return "", errors.New("image generation failed")
		},
	}
	q := newTestQueue(t, Stages{Illustrator: illustrator})

	jobID, _, err := q.SubmitText("some recipe text")
	require.NoError(t, err)
	q.Wait()

	job, ok := q.Status(jobID)
	require.True(t, ok)
	assert.Equal(t, JobStatusCompleted, job.Status)
	require.NotNil(t, job.Result)
	assert.Empty(t, job.Result.Recipe.ImageURL)
}

func TestPersistenceFailure_CompletesWithoutStoredID(t *testing.T) {
	store := &mockStore{
		UpsertFn: func(ctx context.Context, recipe *domain.Recipe, sourceKey, typeKey string) (string, error) {
			return "", errors.New("database unreachable")
		},
	}
	q := newTestQueue(t, Stages{Store: store})

	jobID, _, err := q.SubmitText("some recipe text")
	require.NoError(t, err)
	q.Wait()

	job, ok := q.Status(jobID)
	require.True(t, ok)
	assert.Equal(t, JobStatusCompleted, job.Status)
	require.NotNil(t, job.Result)
	assert.Empty(t, job.Result.StoredID)
}

func TestFetchFailure_IsHardAndQueueContinues(t *testing.T) {
	source := &mockSource{
		ResolveFn: func(ctx context.Context, url string) (string, error) {
			return "", errors.New("no such host")
		},
	}
	q := newTestQueue(t, Stages{Source: source})

	failedID, _, err := q.SubmitURL("http://invalid.invalid/recipe")
	require.NoError(t, err)
	okID, _, err := q.SubmitText("still works")
	require.NoError(t, err)
	q.Wait()

	failed, ok := q.Status(failedID)
	require.True(t, ok)
	assert.Equal(t, JobStatusFailed, failed.Status)
	assert.Contains(t, failed.Error, "content fetch failed")
	assert.Nil(t, failed.Result)

	succeeded, ok := q.Status(okID)
	require.True(t, ok)
	assert.Equal(t, JobStatusCompleted, succeeded.Status)

	assert.Empty(t, q.Snapshot(), "queue drains past a failed job")
}

func TestExtractionFailure_IsHard(t *testing.T) {
	extractor := &mockExtractor{
		ExtractFn: func(ctx context.Context, text, source string) (*domain.Recipe, error) {
			return nil, errors.New("model returned no content")
		},
	}
	q := newTestQueue(t, Stages{Extractor: extractor})

	jobID, _, err := q.SubmitText("unparseable")
	require.NoError(t, err)
	q.Wait()

	job, ok := q.Status(jobID)
	require.True(t, ok)
	assert.Equal(t, JobStatusFailed, job.Status)
	assert.Contains(t, job.Error, "extraction failed")
}

func TestTerminalJobs_AreEvictedFromSnapshotButQueryable(t *testing.T) {
	q := newTestQueue(t, Stages{})

	jobID, _, err := q.SubmitText("evict me")
	require.NoError(t, err)
	q.Wait()

	assert.Empty(t, q.Snapshot())

	job, ok := q.Status(jobID)
	require.True(t, ok, "terminal jobs stay queryable for a while")
	assert.True(t, job.Terminal())
	require.NotNil(t, job.CompletedAt)
	require.NotNil(t, job.StartedAt)
	assert.False(t, job.CompletedAt.Before(*job.StartedAt))
}

func TestRecentJobBuffer_IsBounded(t *testing.T) {
	stages := Stages{Source: &mockSource{}, Extractor: &mockExtractor{}}
	cfg := DefaultConfig()
	cfg.RecentJobLimit = 2
	q, err := NewQueue(stages, cfg, testLogger())
	require.NoError(t, err)

	var ids []string
	for i := 0; i < 4; i++ {
		id, _, err := q.SubmitText(fmt.Sprintf("job %d", i))
		require.NoError(t, err)
		ids = append(ids, id)
	}
	q.Wait()

	_, ok := q.Status(ids[0])
	assert.False(t, ok, "oldest terminal job ages out")
	_, ok = q.Status(ids[3])
	assert.True(t, ok)
}

func TestEndToEnd_TextSubmission(t *testing.T) {
	var gotSource, gotTypeKey string
	store := &mockStore{
		UpsertFn: func(ctx context.Context, recipe *domain.Recipe, sourceKey, typeKey string) (string, error) {
			gotSource = sourceKey
			gotTypeKey = typeKey
			return "rec-42", nil
		},
	}
	stages := Stages{
		Source:      &mockSource{},
		Extractor:   &mockExtractor{},
		Translator:  &mockTranslator{},
		Illustrator: &mockIllustrator{},
		Store:       store,
	}
	cfg := DefaultConfig()
	cfg.TypeKey = "staging"
	q, err := NewQueue(stages, cfg, testLogger())
	require.NoError(t, err)

	jobID, position, err := q.SubmitText("Ingredients: 2 cups flour...")
	require.NoError(t, err)
	assert.Equal(t, 1, position)

	q.Wait()

	job, ok := q.Status(jobID)
	require.True(t, ok)
	require.Equal(t, JobStatusCompleted, job.Status)
	require.NotNil(t, job.Result)

	recipe := job.Result.Recipe
	assert.NotEmpty(t, recipe.Healthify.Cut.Notes)
	assert.NotEmpty(t, recipe.Healthify.Bulk.Notes)
	assert.NotEmpty(t, recipe.ImagePrompt)
	assert.Equal(t, "Lentil Soup (translated)", recipe.NameLocal)
	assert.Equal(t, "https://images.example.com/"+jobID+".jpg", recipe.ImageURL)

	assert.Equal(t, "rec-42", job.Result.StoredID)
	assert.Equal(t, ManualSourceKey, gotSource)
	assert.Equal(t, "staging", gotTypeKey)
}

func TestURLSubmission_UsesURLAsSourceKey(t *testing.T) {
	const url = "https://cooking.example.com/lentil-soup"

	var gotLabel, gotKey string
	extractor := &mockExtractor{
		ExtractFn: func(ctx context.Context, text, source string) (*domain.Recipe, error) {
			gotLabel = source
			return sampleRecipe(), nil
		},
	}
	store := &mockStore{
		UpsertFn: func(ctx context.Context, recipe *domain.Recipe, sourceKey, typeKey string) (string, error) {
			gotKey = sourceKey
			return "rec-7", nil
		},
	}
	q := newTestQueue(t, Stages{Extractor: extractor, Store: store})

	_, _, err := q.SubmitURL(url)
	require.NoError(t, err)
	q.Wait()

	assert.Equal(t, url, gotLabel)
	assert.Equal(t, url, gotKey)
}

func TestStageTimeout_FailsStuckFetch(t *testing.T) {
	source := &mockSource{
		ResolveFn: func(ctx context.Context, url string) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		},
	}
	stages := Stages{Source: source, Extractor: &mockExtractor{}}
	cfg := DefaultConfig()
	cfg.StageTimeout = 10 * time.Millisecond
	q, err := NewQueue(stages, cfg, testLogger())
	require.NoError(t, err)

	jobID, _, err := q.SubmitURL("https://slow.example.com/recipe")
	require.NoError(t, err)
	q.Wait()

	job, ok := q.Status(jobID)
	require.True(t, ok)
	assert.Equal(t, JobStatusFailed, job.Status)
	assert.Contains(t, job.Error, "context deadline exceeded")
}
