package feedback

import (
	"Receipt-Review-Backend/domain"
	"Receipt-Review-Backend/entities"
	"Receipt-Review-Backend/pkg/testrun"
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeFeedbackRepository struct {
	entries []*entities.QualityFeedbackEntry
}

func (f *fakeFeedbackRepository) CreateEntry(_ context.Context, entry *entities.QualityFeedbackEntry) error {
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeFeedbackRepository) GetEntriesByTestRun(_ context.Context, testRunID string) ([]*entities.QualityFeedbackEntry, error) {
	var matched []*entities.QualityFeedbackEntry
	for _, entry := range f.entries {
		if entry.TestRunID.String() == testRunID {
			matched = append(matched, entry)
		}
	}
	return matched, nil
}

func (f *fakeFeedbackRepository) CountReviewedReceipts(_ context.Context, testRunID string) (int64, error) {
	seen := map[uuid.UUID]struct{}{}
	for _, entry := range f.entries {
		if entry.TestRunID.String() == testRunID {
			seen[entry.ReceiptID] = struct{}{}
		}
	}
	return int64(len(seen)), nil
}

func (f *fakeFeedbackRepository) DeleteEntriesByTestRun(_ context.Context, testRunID string) error {
	kept := f.entries[:0]
	for _, entry := range f.entries {
		if entry.TestRunID.String() != testRunID {
			kept = append(kept, entry)
		}
	}
	f.entries = kept
	return nil
}

// fakeRunRegistry covers the test run lookups feedback recording depends on.
// The remaining repository methods are never called.
type fakeRunRegistry struct {
	testrun.TestRunRepository
	runs     map[string]*entities.TestRun
	attached map[string]bool
}

func (f *fakeRunRegistry) GetTestRunByID(_ context.Context, id string) (*entities.TestRun, error) {
	testRun, ok := f.runs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return testRun, nil
}

func (f *fakeRunRegistry) IsReceiptAttached(_ context.Context, testRunID string, receiptID string) (bool, error) {
	return f.attached[testRunID+"/"+receiptID], nil
}

type feedbackFixture struct {
	repo      *fakeFeedbackRepository
	registry  *fakeRunRegistry
	service   FeedbackService
	testRunID uuid.UUID
	receiptID uuid.UUID
}

func newFeedbackFixture() *feedbackFixture {
	fixture := &feedbackFixture{
		repo: &fakeFeedbackRepository{},
		registry: &fakeRunRegistry{
			runs:     map[string]*entities.TestRun{},
			attached: map[string]bool{},
		},
		testRunID: uuid.New(),
		receiptID: uuid.New(),
	}
	fixture.registry.runs[fixture.testRunID.String()] = &entities.TestRun{
		ID:     fixture.testRunID,
		Status: entities.TestRunStatusInProgress,
	}
	fixture.registry.attached[fixture.testRunID.String()+"/"+fixture.receiptID.String()] = true
	fixture.service = NewFeedbackService(fixture.repo, fixture.registry)
	return fixture
}

func validRequest(receiptID uuid.UUID) domain.RecordFeedbackRequest {
	return domain.RecordFeedbackRequest{
		ReceiptID:             receiptID.String(),
		ReceiptQuality:        "faded",
		ReceiptLengthCategory: "long",
		StoreName:             "Aldi Sued",
		Items: []domain.FeedbackItemRequest{
			{
				ItemIndex:       0,
				ErrorType:       entities.ErrorTypeIncorrectPrice,
				ErrorOrigin:     entities.ErrorOriginTextractRaw,
				OriginalValue:   "1.80",
				CorrectedValue:  "1.50",
				IsCriticalError: true,
			},
			{ItemIndex: 1},
			{
				ItemIndex:   2,
				ErrorType:   entities.ErrorTypeWrongCategory,
				ErrorOrigin: entities.ErrorOriginLLMCanonicalization,
			},
		},
	}
}

func TestRecordFeedback(t *testing.T) {
	fixture := newFeedbackFixture()

	response, err := fixture.service.Record(context.Background(), fixture.testRunID.String(), validRequest(fixture.receiptID))
	require.NoError(t, err)

	// the clean item in the middle produces no entry
	assert.Equal(t, 2, response.EntriesRecorded)
	require.Len(t, fixture.repo.entries, 2)

	first := fixture.repo.entries[0]
	assert.Equal(t, fixture.testRunID, first.TestRunID)
	assert.Equal(t, fixture.receiptID, first.ReceiptID)
	assert.Equal(t, entities.ErrorTypeIncorrectPrice, first.ErrorType)
	assert.True(t, first.IsCriticalError)

	// receipt context is denormalized onto every entry
	for _, entry := range fixture.repo.entries {
		assert.Equal(t, "faded", entry.ReceiptQuality)
		assert.Equal(t, "long", entry.ReceiptLengthCategory)
		assert.Equal(t, "Aldi Sued", entry.StoreName)
	}
}

func TestRecordFeedbackUnknownErrorType(t *testing.T) {
	fixture := newFeedbackFixture()

	req := validRequest(fixture.receiptID)
	req.Items[0].ErrorType = "gremlins"

	_, err := fixture.service.Record(context.Background(), fixture.testRunID.String(), req)
	assert.ErrorIs(t, err, domain.ErrInvalidErrorType)
}

func TestRecordFeedbackUnknownErrorOrigin(t *testing.T) {
	fixture := newFeedbackFixture()

	req := validRequest(fixture.receiptID)
	req.Items[0].ErrorOrigin = "cosmic_rays"

	_, err := fixture.service.Record(context.Background(), fixture.testRunID.String(), req)
	assert.ErrorIs(t, err, domain.ErrInvalidErrorOrigin)
}

func TestRecordFeedbackUnattachedReceipt(t *testing.T) {
	fixture := newFeedbackFixture()

	_, err := fixture.service.Record(context.Background(), fixture.testRunID.String(), validRequest(uuid.New()))
	assert.ErrorIs(t, err, domain.ErrReceiptNotInTestRun)
}

func TestRecordFeedbackMissingTestRun(t *testing.T) {
	fixture := newFeedbackFixture()

	_, err := fixture.service.Record(context.Background(), uuid.New().String(), validRequest(fixture.receiptID))
	assert.ErrorIs(t, err, domain.ErrTestRunNotFound)
}

func TestConfirmClean(t *testing.T) {
	fixture := newFeedbackFixture()

	err := fixture.service.ConfirmClean(context.Background(), fixture.testRunID.String(), fixture.receiptID.String(), domain.ConfirmCleanRequest{
		ReceiptQuality:        "crisp",
		ReceiptLengthCategory: "short",
		StoreName:             "Rewe",
	})
	require.NoError(t, err)

	require.Len(t, fixture.repo.entries, 1)
	marker := fixture.repo.entries[0]
	assert.Equal(t, entities.ErrorTypeNoError, marker.ErrorType)
	assert.Equal(t, entities.ErrorOriginOverallMetadata, marker.ErrorOrigin)
	assert.Equal(t, -1, marker.ItemIndex)
	assert.Equal(t, "crisp", marker.ReceiptQuality)

	// the marker still counts the receipt as reviewed
	reviewed, err := fixture.repo.CountReviewedReceipts(context.Background(), fixture.testRunID.String())
	require.NoError(t, err)
	assert.Equal(t, int64(1), reviewed)
}
