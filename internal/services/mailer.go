package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/giacomoverdi/voice-notes-transcriber/internal/config"
)

const postmarkBaseURL = "https://api.postmarkapp.com"

// Mailer sends the transactional emails around the inbound pipeline and
// verifies inbound webhook signatures.
type Mailer interface {
	SendRegistrationPrompt(ctx context.Context, to string) error
	SendNoAudioError(ctx context.Context, to string) error
	SendProcessingConfirmation(ctx context.Context, to string, results []AttachmentResult) error
	SendVerificationEmail(ctx context.Context, to, token string) error
	SendPasswordResetEmail(ctx context.Context, to, token string) error
	VerifySignature(body []byte, signature string) bool
}

// PostmarkService implements Mailer against the Postmark REST API.
type PostmarkService struct {
	client         *resty.Client
	fromEmail      string
	inboundAddress string
	frontendURL    string
	webhookSecret  string
	verifyDisabled bool
}

func NewPostmarkService(cfg *config.Config) *PostmarkService {
	client := resty.New().
		SetBaseURL(postmarkBaseURL).
		SetHeader("X-Postmark-Server-Token", cfg.PostmarkServerToken).
		SetHeader("Accept", "application/json").
		SetTimeout(15 * time.Second)

	return &PostmarkService{
		client:         client,
		fromEmail:      cfg.PostmarkFromEmail,
		inboundAddress: cfg.PostmarkInboundAddr,
		frontendURL:    cfg.FrontendURL,
		webhookSecret:  cfg.PostmarkWebhookSecret,
		verifyDisabled: cfg.WebhookVerifyDisabled,
	}
}

// VerifySignature checks the inbound payload against the shared secret
// (HMAC-SHA256, base64). Verification can only be skipped by explicit
// configuration, and that is loudly logged: shipping with it off is a
// security regression, not a default.
func (s *PostmarkService) VerifySignature(body []byte, signature string) bool {
	if s.verifyDisabled {
		slog.Warn("Webhook signature verification is DISABLED by configuration; do not run this in production")
		return true
	}
	if s.webhookSecret == "" {
		slog.Error("Webhook secret not configured; rejecting inbound request")
		return false
	}
	if signature == "" {
		slog.Error("Missing webhook signature header")
		return false
	}

	mac := hmac.New(sha256.New, []byte(s.webhookSecret))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}

type outboundEmail struct {
	From          string `json:"From"`
	To            string `json:"To"`
	Subject       string `json:"Subject"`
	HtmlBody      string `json:"HtmlBody"`
	TextBody      string `json:"TextBody"`
	MessageStream string `json:"MessageStream"`
}

type postmarkResponse struct {
	ErrorCode int    `json:"ErrorCode"`
	Message   string `json:"Message"`
}

func (s *PostmarkService) send(ctx context.Context, to, subject, htmlBody string) error {
	var result postmarkResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(outboundEmail{
			From:          s.fromEmail,
			To:            to,
			Subject:       subject,
			HtmlBody:      htmlBody,
			TextBody:      htmlToText(htmlBody),
			MessageStream: "outbound",
		}).
		SetResult(&result).
		Post("/email")
	if err != nil {
		return fmt.Errorf("postmark send: %w", err)
	}
	if resp.IsError() || result.ErrorCode != 0 {
		return fmt.Errorf("postmark send: %s (code %d)", result.Message, result.ErrorCode)
	}
	slog.Info("Email sent", "to", to, "subject", subject)
	return nil
}

func (s *PostmarkService) SendRegistrationPrompt(ctx context.Context, to string) error {
	body := fmt.Sprintf(`
		<h2>Welcome to Voice Notes Transcriber!</h2>
		<p>We received a voice note from your email address.</p>
		<p>To start using our service, please complete your registration:</p>
		<ol>
			<li>Click the link below to activate your account</li>
			<li>Set up your preferences</li>
			<li>Start sending voice notes to: <strong>%s</strong></li>
		</ol>
		<p><a href="%s/register?email=%s">Complete Registration</a></p>
		<p>Once registered, simply email your voice recordings and we'll transcribe them automatically!</p>
		<hr>
		<p>If you didn't send a voice note, please ignore this email.</p>
	`, s.inboundAddress, s.frontendURL, to)

	return s.send(ctx, to, "Complete your Voice Notes registration", body)
}

func (s *PostmarkService) SendNoAudioError(ctx context.Context, to string) error {
	body := fmt.Sprintf(`
		<h2>No Audio File Found</h2>
		<p>We received your email but couldn't find any audio attachments.</p>
		<p>Please make sure to:</p>
		<ul>
			<li>Attach an audio file (MP3, WAV, M4A, etc.)</li>
			<li>Check that the file size is under 25MB</li>
			<li>Ensure the attachment uploaded correctly</li>
		</ul>
		<p>Supported audio formats: MP3, WAV, M4A, MP4, OGG, WEBM, FLAC</p>
		<p>Try sending your voice note again to: <strong>%s</strong></p>
	`, s.inboundAddress)

	return s.send(ctx, to, "No audio file found in your email", body)
}

func (s *PostmarkService) SendProcessingConfirmation(ctx context.Context, to string, results []AttachmentResult) error {
	var succeeded, failed int
	var items strings.Builder
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(&items, `<li>❌ %s: %s</li>`, r.Filename, r.Err.Error())
		} else {
			succeeded++
			fmt.Fprintf(&items, `<li>✅ %s: Successfully transcribed</li>`, r.Filename)
		}
	}

	failedLine := ""
	if failed > 0 {
		failedLine = fmt.Sprintf("<li>❌ Failed: %d</li>", failed)
	}

	body := fmt.Sprintf(`
		<h2>Voice Notes Processing Complete</h2>
		<p>We've finished processing your voice notes:</p>
		<ul>
			<li>✅ Successful: %d</li>
			%s
		</ul>
		<h3>Results:</h3>
		<ul>%s</ul>
		<p><a href="%s">View your notes</a></p>
	`, succeeded, failedLine, items.String(), s.frontendURL)

	return s.send(ctx, to, "Your voice notes have been processed", body)
}

func (s *PostmarkService) SendVerificationEmail(ctx context.Context, to, token string) error {
	url := fmt.Sprintf("%s/verify-email/%s", s.frontendURL, token)
	body := fmt.Sprintf(`
		<h2>Welcome to Voice Notes Transcriber!</h2>
		<p>Please verify your email address to activate your account.</p>
		<p><a href="%s">Verify Email</a></p>
		<p>Or copy this link: %s</p>
		<p>This link will expire in 24 hours.</p>
	`, url, url)

	return s.send(ctx, to, "Verify your Voice Notes account", body)
}

func (s *PostmarkService) SendPasswordResetEmail(ctx context.Context, to, token string) error {
	url := fmt.Sprintf("%s/reset-password/%s", s.frontendURL, token)
	body := fmt.Sprintf(`
		<h2>Password Reset Request</h2>
		<p>We received a request to reset your password.</p>
		<p><a href="%s">Reset Password</a></p>
		<p>Or copy this link: %s</p>
		<p>This link will expire in 1 hour.</p>
		<p>If you didn't request this, please ignore this email.</p>
	`, url, url)

	return s.send(ctx, to, "Reset your Voice Notes password", body)
}

var (
	htmlTags     = regexp.MustCompile(`<[^>]*>`)
	htmlEntities = strings.NewReplacer("&amp;", "&", "&lt;", "<", "&gt;", ">", "&quot;", `"`, "&nbsp;", " ")
)

func htmlToText(html string) string {
	text := htmlEntities.Replace(htmlTags.ReplaceAllString(html, ""))
	lines := strings.Split(text, "\n")
	var out []string
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return strings.Join(out, "\n")
}
