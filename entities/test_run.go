package entities

import (
	"github.com/google/uuid"
)

const (
	TestRunStatusInProgress = "in_progress"
	TestRunStatusCompleted  = "completed"
	TestRunStatusAnalyzed   = "analyzed"
)

type TestRun struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	Name        string    `json:"name"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	Version     string    `json:"version"` // "1.0", bumped by 0.1 on rerun
	Status      string    `gorm:"index" json:"status"`

	// Counters recomputed from attached receipts and feedback on every read.
	TotalReceipts    int `json:"total_receipts"`
	TotalItems       int `json:"total_items"`
	ReviewedReceipts int `json:"reviewed_receipts"`

	BatchAnalysisSummary string `gorm:"type:text" json:"batch_analysis_summary,omitempty"`

	Timestamp
}

// TestRunReceipt orders receipts within a run. A receipt set is shared between
// a run and its reruns, so membership lives in a join table.
type TestRunReceipt struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	TestRunID uuid.UUID `gorm:"index" json:"test_run_id"`
	ReceiptID uuid.UUID `gorm:"index" json:"receipt_id"`
	Position  int       `json:"position"`

	Timestamp
}
