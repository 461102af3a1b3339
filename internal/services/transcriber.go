package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"github.com/sashabaranov/go-openai"

	"github.com/giacomoverdi/voice-notes-transcriber/internal/constants"
	"github.com/giacomoverdi/voice-notes-transcriber/internal/models"
)

// TranscriptionResult carries the recognized text plus per-segment
// confidence and the metadata persisted into the note's bag.
type TranscriptionResult struct {
	Text     string
	Language string
	Duration float64
	Segments []models.TranscriptSegment
	Model    string
}

// Transcriber converts an audio file into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath, language string) (*TranscriptionResult, error)
}

// OpenAITranscriber runs speech recognition through the OpenAI audio API.
type OpenAITranscriber struct {
	client *openai.Client
	model  string
}

func NewOpenAITranscriber(apiKey, model string) *OpenAITranscriber {
	if model == "" {
		model = openai.Whisper1
	}
	return &OpenAITranscriber{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

// Transcribe uploads the audio and returns the recognition result. An empty
// language lets the service auto-detect; an explicit user preference is
// passed through. Transient API failures are retried with backoff.
func (t *OpenAITranscriber) Transcribe(ctx context.Context, audioPath, language string) (*TranscriptionResult, error) {
	info, err := os.Stat(audioPath)
	if err != nil {
		return nil, fmt.Errorf("audio file not found at %s: %w", audioPath, err)
	}
	if info.Size() > constants.MaxAudioBytes {
		return nil, fmt.Errorf("audio file too large (%d bytes, max %d)", info.Size(), constants.MaxAudioBytes)
	}

	req := openai.AudioRequest{
		Model:    t.model,
		FilePath: audioPath,
		Format:   openai.AudioResponseFormatVerboseJSON,
		Language: language,
	}

	var resp openai.AudioResponse
	err = retry.Do(
		func() error {
			var callErr error
			resp, callErr = t.client.CreateTranscription(ctx, req)
			return callErr
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(2*time.Second),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isRetryableError),
		retry.OnRetry(func(n uint, err error) {
			slog.Info("Retrying transcription call", "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("transcription failed: %w", err)
	}

	if strings.TrimSpace(resp.Text) == "" {
		return nil, fmt.Errorf("no transcription results returned")
	}

	segments := make([]models.TranscriptSegment, 0, len(resp.Segments))
	for _, seg := range resp.Segments {
		segments = append(segments, models.TranscriptSegment{
			Text:       strings.TrimSpace(seg.Text),
			Confidence: logprobToConfidence(seg.AvgLogprob),
		})
	}

	lang := resp.Language
	if language != "" {
		lang = language
	}

	return &TranscriptionResult{
		Text:     resp.Text,
		Language: lang,
		Duration: resp.Duration,
		Segments: segments,
		Model:    t.model,
	}, nil
}

// logprobToConfidence maps an average token log-probability into (0, 1].
func logprobToConfidence(avgLogprob float64) float64 {
	if avgLogprob >= 0 {
		return 1
	}
	c := 1 + avgLogprob
	if c < 0 {
		return 0
	}
	return c
}

// isRetryableError matches rate limits, 5xx responses and network hiccups.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, s := range []string{
		"status code: 429",
		"status code: 500",
		"status code: 502",
		"status code: 503",
		"connection refused",
		"i/o timeout",
		"unexpected end of JSON input",
	} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
