package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/giacomoverdi/voice-notes-transcriber/internal/config"
)

func signBody(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func newTestPostmark(secret string, verifyDisabled bool) *PostmarkService {
	return NewPostmarkService(&config.Config{
		PostmarkFromEmail:     "noreply@example.com",
		PostmarkWebhookSecret: secret,
		WebhookVerifyDisabled: verifyDisabled,
		FrontendURL:           "http://localhost:3000",
	})
}

func TestPostmarkService_VerifySignature(t *testing.T) {
	svc := newTestPostmark("shared-secret", false)
	body := []byte(`{"From":"alice@example.com"}`)

	require.True(t, svc.VerifySignature(body, signBody("shared-secret", body)))
	require.False(t, svc.VerifySignature(body, signBody("wrong-secret", body)))
	require.False(t, svc.VerifySignature(body, ""))
	require.False(t, svc.VerifySignature([]byte("tampered"), signBody("shared-secret", body)))
}

func TestPostmarkService_VerifySignatureWithoutSecret(t *testing.T) {
	svc := newTestPostmark("", false)
	body := []byte("payload")

	// No secret means nothing can be trusted.
	require.False(t, svc.VerifySignature(body, signBody("", body)))
}

func TestPostmarkService_VerifyDisabledAcceptsAnything(t *testing.T) {
	svc := newTestPostmark("shared-secret", true)

	require.True(t, svc.VerifySignature([]byte("anything"), "forged"))
}

func TestHtmlToText(t *testing.T) {
	html := "<h2>Hello</h2><p>First line</p><p>Second &amp; last</p>"
	text := htmlToText(html)

	require.NotContains(t, text, "<")
	require.Contains(t, text, "Hello")
	require.Contains(t, text, "Second & last")
}
