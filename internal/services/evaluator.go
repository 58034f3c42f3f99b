package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"ankora-backend/internal/models"
)

// AnswerEvaluator grades a free-text answer against a card. Implementations
// must return an error rather than a made-up score when grading fails.
type AnswerEvaluator interface {
	Evaluate(ctx context.Context, card models.Card, answer string) (models.Evaluation, error)
}

type GeminiEvaluator struct {
	client   *genai.Client
	model    *genai.GenerativeModel
	rateChan chan struct{} // Token bucket
}

func NewGeminiEvaluator(apiKey string, concurrentReqs int) (*GeminiEvaluator, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel("gemini-3-flash-preview")
	model.SetTemperature(0.1)
	model.SetTopP(0.95)

	// Token bucket for rate limiting
	rateChan := make(chan struct{}, concurrentReqs)
	for i := 0; i < concurrentReqs; i++ {
		rateChan <- struct{}{}
	}

	return &GeminiEvaluator{
		client:   client,
		model:    model,
		rateChan: rateChan,
	}, nil
}

func (s *GeminiEvaluator) Close() {
	s.client.Close()
}

// acquireRate blocks until a rate slot is available
func (s *GeminiEvaluator) acquireRate(ctx context.Context) error {
	select {
	case <-s.rateChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(time.Minute):
		return &RateLimitError{Message: "timeout waiting for Gemini rate slot"}
	}
}

func (s *GeminiEvaluator) releaseRate() {
	s.rateChan <- struct{}{}
}

func (s *GeminiEvaluator) Evaluate(ctx context.Context, card models.Card, answer string) (models.Evaluation, error) {
	if err := s.acquireRate(ctx); err != nil {
		return models.Evaluation{}, err
	}
	defer s.releaseRate()

	prompt := buildGradingPrompt(card, answer)

	resp, err := s.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return models.Evaluation{}, &UpstreamError{Message: fmt.Sprintf("Gemini API error: %v", err)}
	}

	rawText := extractText(resp)
	rawText = strings.TrimPrefix(rawText, "```json")
	rawText = strings.TrimPrefix(rawText, "```")
	rawText = strings.TrimSuffix(rawText, "```")
	rawText = strings.TrimSpace(rawText)

	var graded struct {
		Score       int    `json:"score"`
		Explanation string `json:"explanation"`
	}
	if err := json.Unmarshal([]byte(rawText), &graded); err != nil {
		// The model sometimes wraps the object in prose.
		start := strings.Index(rawText, "{")
		end := strings.LastIndex(rawText, "}")
		if start < 0 || end <= start {
			return models.Evaluation{}, &UpstreamError{Message: "Gemini returned unparseable grading output"}
		}
		if err := json.Unmarshal([]byte(rawText[start:end+1]), &graded); err != nil {
			return models.Evaluation{}, &UpstreamError{Message: "Gemini returned unparseable grading output"}
		}
	}

	if graded.Score < models.ScoreNoIdea || graded.Score > models.ScorePerfect {
		return models.Evaluation{}, &UpstreamError{Message: fmt.Sprintf("Gemini returned out-of-range score %d", graded.Score)}
	}

	return models.Evaluation{
		Score:       graded.Score,
		Explanation: strings.TrimSpace(graded.Explanation),
	}, nil
}

func extractText(resp *genai.GenerateContentResponse) string {
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text.WriteString(string(t))
				}
			}
		}
	}
	return text.String()
}

func buildGradingPrompt(card models.Card, answer string) string {
	var b strings.Builder

	b.WriteString("You are an expert tutor grading a student's answer to a flashcard.\n\n")
	b.WriteString("CRITICAL: Return ONLY a valid JSON object. No preamble, no markdown, no backticks.\n\n")
	b.WriteString(`Grade on this scale:
0 = no idea, the answer is blank, unrelated, or wrong in every respect
1 = wrong but shows partial understanding of the concept
2 = good, correct in substance with minor gaps or imprecision
3 = perfect, complete and accurate

JSON schema:
{"score": 0|1|2|3, "explanation": "one or two sentences telling the student what was right and what was missing"}
`)

	b.WriteString("\n---CARD FRONT---\n")
	b.WriteString(card.Front)
	b.WriteString("\n---EXPECTED ANSWER---\n")
	b.WriteString(card.Back)
	b.WriteString("\n---STUDENT ANSWER---\n")
	b.WriteString(answer)
	b.WriteString("\n---END---\n")

	return b.String()
}
