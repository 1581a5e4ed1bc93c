package extraction

import (
	"Receipt-Review-Backend/domain"
	"Receipt-Review-Backend/internal/utils"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type (
	// Client talks to the external extraction stage (OCR + canonicalization).
	Client interface {
		Extract(ctx context.Context, imageURLs []string, hints domain.ExtractionHints) (domain.ExtractionResult, error)
	}

	modelClient struct {
		httpClient *http.Client
	}
)

func NewClient() Client {
	return &modelClient{
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *modelClient) Extract(ctx context.Context, imageURLs []string, hints domain.ExtractionHints) (domain.ExtractionResult, error) {
	modelURL := utils.GetConfig("AI_MODEL_URL")
	if modelURL == "" {
		return domain.ExtractionResult{}, fmt.Errorf("AI_MODEL_URL not configured")
	}

	requestBody := map[string]interface{}{
		"image_urls": imageURLs,
	}
	if hints.KnownStore != "" {
		requestBody["known_store"] = hints.KnownStore
	}
	if hints.KnownTotal != nil {
		requestBody["known_total"] = hints.KnownTotal
	}

	requestJSON, err := json.Marshal(requestBody)
	if err != nil {
		return domain.ExtractionResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", modelURL, bytes.NewBuffer(requestJSON))
	if err != nil {
		return domain.ExtractionResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.ExtractionResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return domain.ExtractionResult{}, fmt.Errorf("extraction stage error: %s - %s", resp.Status, string(bodyBytes))
	}

	var modelResp struct {
		Success bool                    `json:"success"`
		Result  domain.ExtractionResult `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&modelResp); err != nil {
		return domain.ExtractionResult{}, err
	}

	if !modelResp.Success {
		return domain.ExtractionResult{}, domain.ErrExtractionFailed
	}

	return modelResp.Result, nil
}
