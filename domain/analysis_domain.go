package domain

import (
	"errors"
	"time"
)

var (
	MessageSuccessRunAnalysis = "batch analysis completed successfully"
	MessageFailedRunAnalysis  = "failed to run batch analysis"

	ErrNoFeedback             = errors.New("no feedback entries recorded for this test run")
	ErrTestRunNotCompleted    = errors.New("test run review is not completed")
	ErrTestRunAlreadyAnalyzed = errors.New("test run has already been analyzed")
	ErrSummarizationFailed    = errors.New("summarization service failed")
	ErrMalformedSummary       = errors.New("summarization service returned a malformed summary")
)

type (
	FeedbackStatistics struct {
		ByErrorType      map[string]int `json:"by_error_type"`
		ByErrorOrigin    map[string]int `json:"by_error_origin"`
		ByReceiptQuality map[string]int `json:"by_receipt_quality"`
		ByStore          map[string]int `json:"by_store"`
		CriticalErrors   int            `json:"critical_errors"`
		TotalErrors      int            `json:"total_errors"`
	}

	SampleEntry struct {
		ErrorType             string `json:"error_type"`
		ErrorOrigin           string `json:"error_origin"`
		OriginalValue         string `json:"original_value,omitempty"`
		CorrectedValue        string `json:"corrected_value,omitempty"`
		Comment               string `json:"comment,omitempty"`
		IsCriticalError       bool   `json:"is_critical_error"`
		ReceiptQuality        string `json:"receipt_quality"`
		ReceiptLengthCategory string `json:"receipt_length_category"`
		StoreName             string `json:"store_name"`
	}

	SummarizationRequest struct {
		Statistics    FeedbackStatistics `json:"statistics"`
		SampleEntries []SampleEntry      `json:"sample_entries"`
	}

	PrevalentIssue struct {
		Pattern            string   `json:"pattern"`
		Count              int      `json:"count"`
		Severity           string   `json:"severity"`
		RootCause          string   `json:"root_cause"`
		AffectedConditions []string `json:"affected_conditions"`
		SuggestedFix       string   `json:"suggested_fix"`
	}

	SummarizationResult struct {
		Summary                 string           `json:"summary"`
		PrevalentIssues         []PrevalentIssue `json:"prevalent_issues"`
		Correlations            []string         `json:"correlations"`
		PriorityRecommendations []string         `json:"priority_recommendations"`
	}

	BatchAnalysisSummary struct {
		SummarizationResult
		ErrorRate      float64   `json:"error_rate"`
		TotalErrors    int       `json:"total_errors"`
		CriticalErrors int       `json:"critical_errors"`
		AnalyzedAt     time.Time `json:"analyzed_at"`
	}
)
