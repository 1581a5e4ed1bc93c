package analysis

import (
	"Receipt-Review-Backend/domain"
	"Receipt-Review-Backend/entities"
	"Receipt-Review-Backend/pkg/feedback"
	"Receipt-Review-Backend/pkg/testrun"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeRunRegistry covers the registry lookups analysis depends on. The
// remaining repository methods are never called.
type fakeRunRegistry struct {
	testrun.TestRunRepository
	runs       map[string]*entities.TestRun
	receiptIDs []string
	itemCount  int64
}

func (f *fakeRunRegistry) GetTestRunByID(_ context.Context, id string) (*entities.TestRun, error) {
	testRun, ok := f.runs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return testRun, nil
}

func (f *fakeRunRegistry) UpdateTestRun(_ context.Context, testRun *entities.TestRun) error {
	f.runs[testRun.ID.String()] = testRun
	return nil
}

func (f *fakeRunRegistry) GetReceiptIDs(_ context.Context, _ string) ([]string, error) {
	return f.receiptIDs, nil
}

func (f *fakeRunRegistry) CountItems(_ context.Context, _ []string) (int64, error) {
	return f.itemCount, nil
}

type fakeFeedbackLog struct {
	feedback.FeedbackRepository
	entries []*entities.QualityFeedbackEntry
}

func (f *fakeFeedbackLog) GetEntriesByTestRun(_ context.Context, _ string) ([]*entities.QualityFeedbackEntry, error) {
	return f.entries, nil
}

type fakeSummarizer struct {
	result domain.SummarizationResult
	err    error
	calls  int
}

func (f *fakeSummarizer) Summarize(_ context.Context, _ domain.SummarizationRequest) (domain.SummarizationResult, error) {
	f.calls++
	return f.result, f.err
}

type analysisFixture struct {
	registry   *fakeRunRegistry
	log        *fakeFeedbackLog
	summarizer *fakeSummarizer
	service    AnalysisService
	testRun    *entities.TestRun
}

func newAnalysisFixture(status string) *analysisFixture {
	fixture := &analysisFixture{
		registry: &fakeRunRegistry{
			runs:       map[string]*entities.TestRun{},
			receiptIDs: []string{uuid.New().String(), uuid.New().String()},
			itemCount:  20,
		},
		log: &fakeFeedbackLog{},
		summarizer: &fakeSummarizer{
			result: domain.SummarizationResult{
				Summary: "price extraction dominates the error log",
				PrevalentIssues: []domain.PrevalentIssue{
					{
						Pattern:            "unit price misread on faded paper",
						Count:              3,
						Severity:           "high",
						RootCause:          "low contrast digits",
						AffectedConditions: []string{"incorrect_price", "faded", "store:Aldi Sued"},
						SuggestedFix:       "re-run contrast normalization before extraction",
					},
				},
			},
		},
		testRun: &entities.TestRun{ID: uuid.New(), Status: status, Version: "1.0"},
	}
	fixture.registry.runs[fixture.testRun.ID.String()] = fixture.testRun
	fixture.service = NewAnalysisService(fixture.registry, fixture.log, fixture.summarizer)
	return fixture
}

func entry(errorType string, critical bool) *entities.QualityFeedbackEntry {
	return &entities.QualityFeedbackEntry{
		ID:              uuid.New(),
		ErrorType:       errorType,
		ErrorOrigin:     entities.ErrorOriginTextractRaw,
		IsCriticalError: critical,
		ReceiptQuality:  "faded",
		StoreName:       "Aldi Sued",
	}
}

func TestAnalyze(t *testing.T) {
	fixture := newAnalysisFixture(entities.TestRunStatusCompleted)
	fixture.log.entries = []*entities.QualityFeedbackEntry{
		entry(entities.ErrorTypeIncorrectPrice, true),
		entry(entities.ErrorTypeIncorrectPrice, false),
		entry(entities.ErrorTypeMissedLine, false),
		entry(entities.ErrorTypeWrongCategory, false),
	}

	summary, err := fixture.service.Analyze(context.Background(), fixture.testRun.ID.String())
	require.NoError(t, err)

	assert.Equal(t, 4, summary.TotalErrors)
	assert.Equal(t, 1, summary.CriticalErrors)
	// 4 errors over 20 items
	assert.Equal(t, 20.0, summary.ErrorRate)
	assert.Equal(t, "price extraction dominates the error log", summary.Summary)
	assert.False(t, summary.AnalyzedAt.IsZero())

	assert.Equal(t, entities.TestRunStatusAnalyzed, fixture.testRun.Status)
	assert.NotEmpty(t, fixture.testRun.BatchAnalysisSummary)
}

func TestAnalyzeExcludesCleanMarkers(t *testing.T) {
	fixture := newAnalysisFixture(entities.TestRunStatusCompleted)
	fixture.log.entries = []*entities.QualityFeedbackEntry{
		entry(entities.ErrorTypeIncorrectPrice, false),
		entry(entities.ErrorTypeNoError, false),
		entry(entities.ErrorTypeNoError, false),
	}

	summary, err := fixture.service.Analyze(context.Background(), fixture.testRun.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TotalErrors)
}

func TestAnalyzeOnlyCleanMarkers(t *testing.T) {
	fixture := newAnalysisFixture(entities.TestRunStatusCompleted)
	fixture.log.entries = []*entities.QualityFeedbackEntry{
		entry(entities.ErrorTypeNoError, false),
	}

	_, err := fixture.service.Analyze(context.Background(), fixture.testRun.ID.String())
	assert.ErrorIs(t, err, domain.ErrNoFeedback)
	assert.Equal(t, 0, fixture.summarizer.calls)
}

func TestAnalyzeRequiresCompletedRun(t *testing.T) {
	fixture := newAnalysisFixture(entities.TestRunStatusInProgress)

	_, err := fixture.service.Analyze(context.Background(), fixture.testRun.ID.String())
	assert.ErrorIs(t, err, domain.ErrTestRunNotCompleted)
}

func TestAnalyzeRejectsSecondRun(t *testing.T) {
	fixture := newAnalysisFixture(entities.TestRunStatusAnalyzed)

	_, err := fixture.service.Analyze(context.Background(), fixture.testRun.ID.String())
	assert.ErrorIs(t, err, domain.ErrTestRunAlreadyAnalyzed)
}

func TestAnalyzeSummarizerFailureKeepsRunCompleted(t *testing.T) {
	fixture := newAnalysisFixture(entities.TestRunStatusCompleted)
	fixture.log.entries = []*entities.QualityFeedbackEntry{entry(entities.ErrorTypeIncorrectPrice, false)}
	fixture.summarizer.err = errors.New("upstream timeout")

	_, err := fixture.service.Analyze(context.Background(), fixture.testRun.ID.String())
	assert.ErrorIs(t, err, domain.ErrSummarizationFailed)

	// the run can be re-analyzed later
	assert.Equal(t, entities.TestRunStatusCompleted, fixture.testRun.Status)
	assert.Empty(t, fixture.testRun.BatchAnalysisSummary)
}

func TestAnalyzeRejectsMalformedSummary(t *testing.T) {
	fixture := newAnalysisFixture(entities.TestRunStatusCompleted)
	fixture.log.entries = []*entities.QualityFeedbackEntry{entry(entities.ErrorTypeIncorrectPrice, false)}
	fixture.summarizer.result = domain.SummarizationResult{
		Summary: "ok",
		PrevalentIssues: []domain.PrevalentIssue{
			{Severity: "high", AffectedConditions: []string{"mercury_retrograde"}},
		},
	}

	_, err := fixture.service.Analyze(context.Background(), fixture.testRun.ID.String())
	assert.ErrorIs(t, err, domain.ErrMalformedSummary)
	assert.Equal(t, entities.TestRunStatusCompleted, fixture.testRun.Status)
}

func TestErrorRate(t *testing.T) {
	assert.Equal(t, 0.0, ErrorRate(5, 0))
	assert.Equal(t, 20.0, ErrorRate(4, 20))
	assert.Equal(t, 100.0, ErrorRate(10, 10))
}

func TestComputeStatistics(t *testing.T) {
	entries := []*entities.QualityFeedbackEntry{
		entry(entities.ErrorTypeIncorrectPrice, true),
		entry(entities.ErrorTypeIncorrectPrice, false),
		entry(entities.ErrorTypeMissedLine, false),
	}

	stats := ComputeStatistics(entries)

	assert.Equal(t, 3, stats.TotalErrors)
	assert.Equal(t, 1, stats.CriticalErrors)
	assert.Equal(t, 2, stats.ByErrorType[entities.ErrorTypeIncorrectPrice])
	assert.Equal(t, 3, stats.ByErrorOrigin[entities.ErrorOriginTextractRaw])
	assert.Equal(t, 3, stats.ByStore["Aldi Sued"])
}

func TestBuildSampleCapsEntries(t *testing.T) {
	entries := make([]*entities.QualityFeedbackEntry, 0, SampleSize+10)
	for i := 0; i < SampleSize+10; i++ {
		e := entry(entities.ErrorTypeOther, false)
		e.Comment = fmt.Sprintf("entry %d", i)
		entries = append(entries, e)
	}

	sample := buildSample(entries, SampleSize)
	assert.Len(t, sample, SampleSize)
	assert.Equal(t, "entry 0", sample[0].Comment)
}
