package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/giacomoverdi/voice-notes-transcriber/internal/models"
)

// Summarizer derives a summary and action items from a transcript.
type Summarizer interface {
	GenerateSummary(ctx context.Context, text string) (string, error)
	ExtractActionItems(ctx context.Context, text string) ([]models.ActionItem, error)
}

// AIService implements Summarizer on the OpenAI chat API.
type AIService struct {
	client *openai.Client
	model  string
}

func NewAIService(apiKey, model string) *AIService {
	if model == "" {
		model = openai.GPT4o
	}
	return &AIService{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

// GenerateSummary condenses the transcript into a few sentences.
func (s *AIService) GenerateSummary(ctx context.Context, text string) (string, error) {
	prompt := fmt.Sprintf(`Summarize the following voice note transcript in 2-3 sentences.
Keep the speaker's language. Return only the summary, no preamble.

Transcript:
%s`, text)

	content, err := s.complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("summary generation failed: %w", err)
	}
	return strings.TrimSpace(content), nil
}

// ExtractActionItems pulls concrete tasks out of the transcript as JSON.
func (s *AIService) ExtractActionItems(ctx context.Context, text string) ([]models.ActionItem, error) {
	currentTime := time.Now().Format("2006-01-02 15:04:05")
	prompt := fmt.Sprintf(`You are a task extraction assistant. Extract concrete action items from the transcript below.

Current time: %s

Transcript:
%s

Return a JSON array in exactly this shape:
[
  {
    "task": "what needs to be done, phrased briefly",
    "priority": "high" | "medium" | "low",
    "deadline": "ISO8601 timestamp or null when no deadline is mentioned"
  }
]

Rules:
- Return [] when there are no action items
- Convert relative deadlines ("tomorrow", "next week") to concrete timestamps
- Return only JSON, no explanations`, currentTime, text)

	content, err := s.complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("action item extraction failed: %w", err)
	}

	var items []models.ActionItem
	if err := json.Unmarshal([]byte(stripCodeFences(content)), &items); err != nil {
		return nil, fmt.Errorf("failed to parse action items: %w (response: %s)", err, content)
	}
	return items, nil
}

func (s *AIService) complete(ctx context.Context, prompt string) (string, error) {
	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: s.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Temperature: 0.3,
		},
	)
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}
	return resp.Choices[0].Message.Content, nil
}

// stripCodeFences tolerates models wrapping JSON in markdown fences.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(s, "```")
	}
	return strings.TrimSpace(s)
}
