package analysis

import (
	"Receipt-Review-Backend/domain"
	"Receipt-Review-Backend/entities"
	"Receipt-Review-Backend/pkg/feedback"
	"Receipt-Review-Backend/pkg/testrun"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// SampleSize caps how many representative entries are sent to the
// summarization service alongside the frequency tables.
const SampleSize = 50

type (
	AnalysisService interface {
		Analyze(ctx context.Context, testRunID string) (domain.BatchAnalysisSummary, error)
	}

	analysisService struct {
		testRunRepository  testrun.TestRunRepository
		feedbackRepository feedback.FeedbackRepository
		summarizer         Summarizer
	}
)

func NewAnalysisService(
	testRunRepository testrun.TestRunRepository,
	feedbackRepository feedback.FeedbackRepository,
	summarizer Summarizer,
) AnalysisService {
	return &analysisService{
		testRunRepository:  testRunRepository,
		feedbackRepository: feedbackRepository,
		summarizer:         summarizer,
	}
}

func (s *analysisService) Analyze(ctx context.Context, testRunID string) (domain.BatchAnalysisSummary, error) {
	testRun, err := s.testRunRepository.GetTestRunByID(ctx, testRunID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.BatchAnalysisSummary{}, domain.ErrTestRunNotFound
		}
		return domain.BatchAnalysisSummary{}, err
	}

	switch testRun.Status {
	case entities.TestRunStatusCompleted:
	case entities.TestRunStatusAnalyzed:
		return domain.BatchAnalysisSummary{}, domain.ErrTestRunAlreadyAnalyzed
	default:
		return domain.BatchAnalysisSummary{}, domain.ErrTestRunNotCompleted
	}

	allEntries, err := s.feedbackRepository.GetEntriesByTestRun(ctx, testRunID)
	if err != nil {
		return domain.BatchAnalysisSummary{}, err
	}

	// no_error markers confirm a clean review; they are not errors.
	entries := make([]*entities.QualityFeedbackEntry, 0, len(allEntries))
	for _, entry := range allEntries {
		if entry.ErrorType == entities.ErrorTypeNoError {
			continue
		}
		entries = append(entries, entry)
	}
	if len(entries) == 0 {
		return domain.BatchAnalysisSummary{}, domain.ErrNoFeedback
	}

	stats := ComputeStatistics(entries)
	sample := buildSample(entries, SampleSize)

	result, err := s.summarizer.Summarize(ctx, domain.SummarizationRequest{
		Statistics:    stats,
		SampleEntries: sample,
	})
	if err != nil {
		// Abort the analyzed transition entirely; the run stays completed and
		// the caller may re-invoke.
		return domain.BatchAnalysisSummary{}, fmt.Errorf("%w: %v", domain.ErrSummarizationFailed, err)
	}
	if err := validateResult(result); err != nil {
		return domain.BatchAnalysisSummary{}, err
	}

	receiptIDs, err := s.testRunRepository.GetReceiptIDs(ctx, testRunID)
	if err != nil {
		return domain.BatchAnalysisSummary{}, err
	}
	totalItems, err := s.testRunRepository.CountItems(ctx, receiptIDs)
	if err != nil {
		return domain.BatchAnalysisSummary{}, err
	}

	summary := domain.BatchAnalysisSummary{
		SummarizationResult: result,
		ErrorRate:           ErrorRate(stats.TotalErrors, int(totalItems)),
		TotalErrors:         stats.TotalErrors,
		CriticalErrors:      stats.CriticalErrors,
		AnalyzedAt:          time.Now().UTC(),
	}

	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return domain.BatchAnalysisSummary{}, err
	}

	testRun.BatchAnalysisSummary = string(summaryJSON)
	testRun.Status = entities.TestRunStatusAnalyzed
	if err := s.testRunRepository.UpdateTestRun(ctx, testRun); err != nil {
		return domain.BatchAnalysisSummary{}, err
	}

	return summary, nil
}

// ComputeStatistics builds the frequency tables over the given entries.
func ComputeStatistics(entries []*entities.QualityFeedbackEntry) domain.FeedbackStatistics {
	stats := domain.FeedbackStatistics{
		ByErrorType:      map[string]int{},
		ByErrorOrigin:    map[string]int{},
		ByReceiptQuality: map[string]int{},
		ByStore:          map[string]int{},
	}
	for _, entry := range entries {
		stats.ByErrorType[entry.ErrorType]++
		stats.ByErrorOrigin[entry.ErrorOrigin]++
		stats.ByReceiptQuality[entry.ReceiptQuality]++
		stats.ByStore[entry.StoreName]++
		if entry.IsCriticalError {
			stats.CriticalErrors++
		}
		stats.TotalErrors++
	}
	return stats
}

// ErrorRate is total errors per hundred items, zero for an empty run.
func ErrorRate(totalErrors, totalItems int) float64 {
	if totalItems == 0 {
		return 0
	}
	return float64(totalErrors) / float64(totalItems) * 100
}

func buildSample(entries []*entities.QualityFeedbackEntry, limit int) []domain.SampleEntry {
	if len(entries) < limit {
		limit = len(entries)
	}
	sample := make([]domain.SampleEntry, 0, limit)
	for _, entry := range entries[:limit] {
		sample = append(sample, domain.SampleEntry{
			ErrorType:             entry.ErrorType,
			ErrorOrigin:           entry.ErrorOrigin,
			OriginalValue:         entry.OriginalValue,
			CorrectedValue:        entry.CorrectedValue,
			Comment:               entry.Comment,
			IsCriticalError:       entry.IsCriticalError,
			ReceiptQuality:        entry.ReceiptQuality,
			ReceiptLengthCategory: entry.ReceiptLengthCategory,
			StoreName:             entry.StoreName,
		})
	}
	return sample
}

var issueSeverities = []string{"low", "medium", "high", "critical"}

// validateResult rejects summaries that reference taxonomy values outside the
// closed sets; the summarization service is untrusted output. Conditions may
// also name a store via a "store:" prefix, which is free text.
func validateResult(result domain.SummarizationResult) error {
	if result.Summary == "" {
		return fmt.Errorf("%w: empty summary", domain.ErrMalformedSummary)
	}
	for _, issue := range result.PrevalentIssues {
		if !contains(issueSeverities, issue.Severity) {
			return fmt.Errorf("%w: unknown severity %q", domain.ErrMalformedSummary, issue.Severity)
		}
		for _, condition := range issue.AffectedConditions {
			if strings.HasPrefix(condition, "store:") {
				continue
			}
			if entities.IsValidErrorType(condition) || entities.IsValidErrorOrigin(condition) ||
				contains(entities.ReceiptQualities, condition) ||
				contains(entities.ReceiptLengthCategories, condition) {
				continue
			}
			return fmt.Errorf("%w: unknown condition %q", domain.ErrMalformedSummary, condition)
		}
	}
	return nil
}

func contains(set []string, value string) bool {
	for _, s := range set {
		if s == value {
			return true
		}
	}
	return false
}
