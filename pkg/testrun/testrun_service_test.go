package testrun

import (
	"Receipt-Review-Backend/domain"
	"Receipt-Review-Backend/entities"
	"Receipt-Review-Backend/pkg/receipt"
	"context"
	"encoding/json"
	"mime/multipart"
	"sort"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeTestRunRepository struct {
	runs       map[string]*entities.TestRun
	links      []*entities.TestRunReceipt
	itemCounts map[string]int
}

func newFakeTestRunRepository() *fakeTestRunRepository {
	return &fakeTestRunRepository{
		runs:       map[string]*entities.TestRun{},
		itemCounts: map[string]int{},
	}
}

func (f *fakeTestRunRepository) CreateTestRun(_ context.Context, testRun *entities.TestRun) error {
	f.runs[testRun.ID.String()] = testRun
	return nil
}

func (f *fakeTestRunRepository) GetTestRunByID(_ context.Context, id string) (*entities.TestRun, error) {
	testRun, ok := f.runs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return testRun, nil
}

func (f *fakeTestRunRepository) UpdateTestRun(_ context.Context, testRun *entities.TestRun) error {
	f.runs[testRun.ID.String()] = testRun
	return nil
}

func (f *fakeTestRunRepository) DeleteTestRun(_ context.Context, id string) error {
	delete(f.runs, id)
	kept := f.links[:0]
	for _, link := range f.links {
		if link.TestRunID.String() != id {
			kept = append(kept, link)
		}
	}
	f.links = kept
	return nil
}

func (f *fakeTestRunRepository) GetTestRuns(_ context.Context, _, _ int) ([]*entities.TestRun, int64, error) {
	var runs []*entities.TestRun
	for _, testRun := range f.runs {
		runs = append(runs, testRun)
	}
	return runs, int64(len(runs)), nil
}

func (f *fakeTestRunRepository) AttachReceipt(_ context.Context, link *entities.TestRunReceipt) error {
	f.links = append(f.links, link)
	return nil
}

func (f *fakeTestRunRepository) GetReceiptIDs(_ context.Context, testRunID string) ([]string, error) {
	var matched []*entities.TestRunReceipt
	for _, link := range f.links {
		if link.TestRunID.String() == testRunID {
			matched = append(matched, link)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Position < matched[j].Position })

	ids := make([]string, 0, len(matched))
	for _, link := range matched {
		ids = append(ids, link.ReceiptID.String())
	}
	return ids, nil
}

func (f *fakeTestRunRepository) IsReceiptAttached(_ context.Context, testRunID string, receiptID string) (bool, error) {
	for _, link := range f.links {
		if link.TestRunID.String() == testRunID && link.ReceiptID.String() == receiptID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeTestRunRepository) CountItems(_ context.Context, receiptIDs []string) (int64, error) {
	var count int64
	for _, id := range receiptIDs {
		count += int64(f.itemCounts[id])
	}
	return count, nil
}

// fakeUploader stands in for the receipt service during attachment. Only
// CreateFromUpload is expected to be called.
type fakeUploader struct {
	receipt.ReceiptService
	uploads []string
}

func (f *fakeUploader) CreateFromUpload(_ context.Context, req domain.UploadReceiptRequest, householdID string, isTestData bool) (domain.UploadReceiptResponse, error) {
	if !isTestData {
		panic("test run receipts must be flagged as test data")
	}
	if len(req.ReceiptImages) != 1 {
		panic("test run receipts are uploaded one image at a time")
	}
	id := uuid.New().String()
	f.uploads = append(f.uploads, id)
	return domain.UploadReceiptResponse{
		ReceiptID:        id,
		ValidationStatus: entities.ReceiptStatusProcessing,
	}, nil
}

type fakeReceiptStore struct {
	receipt.ReceiptRepository
	deleted []string
}

func (f *fakeReceiptStore) DeleteReceipt(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeFeedbackStore struct {
	reviewed int64
	deleted  []string
}

func (f *fakeFeedbackStore) CountReviewedReceipts(_ context.Context, _ string) (int64, error) {
	return f.reviewed, nil
}

func (f *fakeFeedbackStore) DeleteEntriesByTestRun(_ context.Context, testRunID string) error {
	f.deleted = append(f.deleted, testRunID)
	return nil
}

type testRunFixture struct {
	repo     *fakeTestRunRepository
	receipts *fakeReceiptStore
	uploader *fakeUploader
	feedback *fakeFeedbackStore
	service  TestRunService
}

func newTestRunFixture() *testRunFixture {
	fixture := &testRunFixture{
		repo:     newFakeTestRunRepository(),
		receipts: &fakeReceiptStore{},
		uploader: &fakeUploader{},
		feedback: &fakeFeedbackStore{},
	}
	fixture.service = NewTestRunService(fixture.repo, fixture.receipts, fixture.uploader, fixture.feedback)
	return fixture
}

func (f *testRunFixture) seedRun(status string, receiptIDs ...uuid.UUID) *entities.TestRun {
	testRun := &entities.TestRun{
		ID:      uuid.New(),
		Name:    "weekly ocr batch",
		Version: "1.0",
		Status:  status,
	}
	f.repo.runs[testRun.ID.String()] = testRun
	for i, receiptID := range receiptIDs {
		f.repo.links = append(f.repo.links, &entities.TestRunReceipt{
			ID:        uuid.New(),
			TestRunID: testRun.ID,
			ReceiptID: receiptID,
			Position:  i,
		})
	}
	return testRun
}

func TestCreateTestRun(t *testing.T) {
	fixture := newTestRunFixture()

	response, err := fixture.service.Create(context.Background(), domain.CreateTestRunRequest{
		Name:        "weekly ocr batch",
		Description: "receipts from the aldi pilot",
	})
	require.NoError(t, err)

	assert.Equal(t, "1.0", response.Version)
	assert.Equal(t, entities.TestRunStatusInProgress, response.Status)
	assert.Equal(t, 0, response.TotalReceipts)
	assert.Equal(t, 0, response.TotalItems)
	assert.Equal(t, 0, response.ReviewedReceipts)
	assert.Nil(t, response.BatchAnalysis)
}

func TestAttachReceipts(t *testing.T) {
	fixture := newTestRunFixture()
	testRun := fixture.seedRun(entities.TestRunStatusInProgress)

	response, err := fixture.service.AttachReceipts(context.Background(), testRun.ID.String(), domain.AttachReceiptsRequest{
		ReceiptImages: []*multipart.FileHeader{{Filename: "a.jpg"}, {Filename: "b.jpg"}},
	}, uuid.New().String())
	require.NoError(t, err)

	assert.Equal(t, 2, response.TotalReceipts)
	assert.Equal(t, fixture.uploader.uploads, response.ReceiptIDs)
	require.Len(t, fixture.repo.links, 2)
	assert.Equal(t, 0, fixture.repo.links[0].Position)
	assert.Equal(t, 1, fixture.repo.links[1].Position)
}

func TestAttachReceiptsContinuesPositions(t *testing.T) {
	fixture := newTestRunFixture()
	testRun := fixture.seedRun(entities.TestRunStatusInProgress, uuid.New())

	_, err := fixture.service.AttachReceipts(context.Background(), testRun.ID.String(), domain.AttachReceiptsRequest{
		ReceiptImages: []*multipart.FileHeader{{Filename: "c.jpg"}},
	}, uuid.New().String())
	require.NoError(t, err)

	require.Len(t, fixture.repo.links, 2)
	assert.Equal(t, 1, fixture.repo.links[1].Position)
}

func TestAttachReceiptsRequiresInProgress(t *testing.T) {
	fixture := newTestRunFixture()
	testRun := fixture.seedRun(entities.TestRunStatusCompleted)

	_, err := fixture.service.AttachReceipts(context.Background(), testRun.ID.String(), domain.AttachReceiptsRequest{
		ReceiptImages: []*multipart.FileHeader{{Filename: "a.jpg"}},
	}, uuid.New().String())
	assert.ErrorIs(t, err, domain.ErrTestRunNotInProgress)
}

func TestAttachReceiptsRequiresImages(t *testing.T) {
	fixture := newTestRunFixture()
	testRun := fixture.seedRun(entities.TestRunStatusInProgress)

	_, err := fixture.service.AttachReceipts(context.Background(), testRun.ID.String(), domain.AttachReceiptsRequest{}, uuid.New().String())
	assert.ErrorIs(t, err, domain.ErrNoTestRunImages)
}

func TestCountersRecomputedOnRead(t *testing.T) {
	fixture := newTestRunFixture()
	first, second := uuid.New(), uuid.New()
	testRun := fixture.seedRun(entities.TestRunStatusInProgress, first, second)
	fixture.repo.itemCounts[first.String()] = 7
	fixture.repo.itemCounts[second.String()] = 5
	fixture.feedback.reviewed = 1

	response, err := fixture.service.GetTestRun(context.Background(), testRun.ID.String())
	require.NoError(t, err)

	assert.Equal(t, 2, response.TotalReceipts)
	assert.Equal(t, 12, response.TotalItems)
	assert.Equal(t, 1, response.ReviewedReceipts)
}

func TestComplete(t *testing.T) {
	fixture := newTestRunFixture()
	testRun := fixture.seedRun(entities.TestRunStatusInProgress)

	response, err := fixture.service.Complete(context.Background(), testRun.ID.String())
	require.NoError(t, err)
	assert.Equal(t, entities.TestRunStatusCompleted, response.Status)

	_, err = fixture.service.Complete(context.Background(), testRun.ID.String())
	assert.ErrorIs(t, err, domain.ErrTestRunNotInProgress)
}

func TestRerunBumpsVersionAndSharesReceipts(t *testing.T) {
	fixture := newTestRunFixture()
	first, second := uuid.New(), uuid.New()
	original := fixture.seedRun(entities.TestRunStatusCompleted, first, second)

	response, err := fixture.service.Rerun(context.Background(), original.ID.String())
	require.NoError(t, err)

	assert.NotEqual(t, original.ID.String(), response.ID)
	assert.Equal(t, "1.1", response.Version)
	assert.Equal(t, entities.TestRunStatusInProgress, response.Status)
	assert.Equal(t, []string{first.String(), second.String()}, response.ReceiptIDs)
	assert.Equal(t, 0, response.ReviewedReceipts)

	// the original run is untouched
	assert.Equal(t, entities.TestRunStatusCompleted, fixture.repo.runs[original.ID.String()].Status)
	assert.Equal(t, "1.0", fixture.repo.runs[original.ID.String()].Version)
}

func TestRerunVersionCarriesOverTheInteger(t *testing.T) {
	fixture := newTestRunFixture()
	original := fixture.seedRun(entities.TestRunStatusCompleted)
	original.Version = "1.9"

	response, err := fixture.service.Rerun(context.Background(), original.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "2.0", response.Version)
}

func TestDeleteCascades(t *testing.T) {
	fixture := newTestRunFixture()
	first, second := uuid.New(), uuid.New()
	testRun := fixture.seedRun(entities.TestRunStatusCompleted, first, second)

	err := fixture.service.Delete(context.Background(), testRun.ID.String())
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{first.String(), second.String()}, fixture.receipts.deleted)
	assert.Equal(t, []string{testRun.ID.String()}, fixture.feedback.deleted)
	assert.Empty(t, fixture.repo.runs)
	assert.Empty(t, fixture.repo.links)
}

func TestDeleteMissingTestRun(t *testing.T) {
	fixture := newTestRunFixture()

	err := fixture.service.Delete(context.Background(), uuid.New().String())
	assert.ErrorIs(t, err, domain.ErrTestRunNotFound)
}

func TestResponseCarriesBatchAnalysis(t *testing.T) {
	fixture := newTestRunFixture()
	testRun := fixture.seedRun(entities.TestRunStatusAnalyzed)

	summary, err := json.Marshal(domain.BatchAnalysisSummary{
		SummarizationResult: domain.SummarizationResult{Summary: "price errors dominate"},
		ErrorRate:           20.0,
		TotalErrors:         4,
	})
	require.NoError(t, err)
	testRun.BatchAnalysisSummary = string(summary)

	response, err := fixture.service.GetTestRun(context.Background(), testRun.ID.String())
	require.NoError(t, err)
	require.NotNil(t, response.BatchAnalysis)
	assert.Equal(t, "price errors dominate", response.BatchAnalysis.Summary)
	assert.Equal(t, 20.0, response.BatchAnalysis.ErrorRate)
}
