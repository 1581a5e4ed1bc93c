package analysis

import (
	"Receipt-Review-Backend/domain"
	"Receipt-Review-Backend/internal/utils"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

type (
	// Summarizer turns feedback statistics plus a representative sample into a
	// structured improvement report.
	Summarizer interface {
		Summarize(ctx context.Context, req domain.SummarizationRequest) (domain.SummarizationResult, error)
	}

	geminiSummarizer struct {
		httpClient *http.Client
	}
)

func NewGeminiSummarizer() Summarizer {
	return &geminiSummarizer{
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

const summarizePrompt = "You are reviewing OCR quality feedback for a grocery receipt extraction pipeline. " +
	"Given error statistics and sample entries, group recurring patterns, infer root causes, rank issues by estimated fix impact, " +
	"and surface cross-cutting correlations (for example receipt quality versus store). " +
	"Respond ONLY with a valid JSON object with exactly these fields: 'summary' (string), " +
	"'prevalent_issues' (array of {pattern, count, severity, root_cause, affected_conditions, suggested_fix}), " +
	"'correlations' (array of strings), 'priority_recommendations' (array of strings). " +
	"Do not include any explanations, markdown formatting, or extra text."

func (g *geminiSummarizer) Summarize(ctx context.Context, req domain.SummarizationRequest) (domain.SummarizationResult, error) {
	geminiAPIKey := utils.GetConfig("GEMINI_API_KEY")
	if geminiAPIKey == "" {
		return domain.SummarizationResult{}, fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}

	geminiModel := utils.GetConfig("GEMINI_MODEL")
	if geminiModel == "" {
		return domain.SummarizationResult{}, fmt.Errorf("GEMINI_MODEL environment variable not set")
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return domain.SummarizationResult{}, err
	}

	geminiURL := fmt.Sprintf("https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent?key=%s", geminiModel, geminiAPIKey)

	requestBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"parts": []map[string]interface{}{
					{"text": summarizePrompt},
					{"text": string(payload)},
				},
			},
		},
		"generationConfig": map[string]interface{}{
			"temperature": 0.1,
			"topP":        0.8,
			"topK":        40,
		},
	}

	requestJSON, err := json.Marshal(requestBody)
	if err != nil {
		return domain.SummarizationResult{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", geminiURL, bytes.NewBuffer(requestJSON))
	if err != nil {
		return domain.SummarizationResult{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return domain.SummarizationResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return domain.SummarizationResult{}, fmt.Errorf("gemini API error: %s - %s", resp.Status, string(bodyBytes))
	}

	var geminiResp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&geminiResp); err != nil {
		return domain.SummarizationResult{}, err
	}

	if len(geminiResp.Candidates) == 0 || len(geminiResp.Candidates[0].Content.Parts) == 0 {
		return domain.SummarizationResult{}, domain.ErrSummarizationFailed
	}

	responseText := geminiResp.Candidates[0].Content.Parts[0].Text

	// Model replies sometimes wrap the JSON in markdown fences or prose.
	jsonPattern := regexp.MustCompile(`(?s)\{.*\}`)
	if matches := jsonPattern.FindString(responseText); matches != "" {
		responseText = matches
	}
	responseText = strings.TrimSpace(responseText)
	responseText = strings.TrimPrefix(responseText, "```json")
	responseText = strings.TrimPrefix(responseText, "```")
	responseText = strings.TrimSuffix(responseText, "```")
	responseText = strings.TrimSpace(responseText)

	var result domain.SummarizationResult
	if err := json.Unmarshal([]byte(responseText), &result); err != nil {
		return domain.SummarizationResult{}, fmt.Errorf("failed to parse summarization response: %v", err)
	}

	return result, nil
}
