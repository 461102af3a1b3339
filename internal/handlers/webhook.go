package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	apierrors "github.com/giacomoverdi/voice-notes-transcriber/internal/errors"
	"github.com/giacomoverdi/voice-notes-transcriber/internal/services"
)

// WebhookHandler receives inbound email callbacks from the mail provider.
type WebhookHandler struct {
	pipeline        *services.Pipeline
	mailer          services.Mailer
	verifyDisabled  bool
	signatureHeader string
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(pipeline *services.Pipeline, mailer services.Mailer, verifyDisabled bool) *WebhookHandler {
	if verifyDisabled {
		slog.Warn("Webhook signature verification is DISABLED; do not run this way in production")
	}
	return &WebhookHandler{
		pipeline:        pipeline,
		mailer:          mailer,
		verifyDisabled:  verifyDisabled,
		signatureHeader: "X-Webhook-Signature",
	}
}

// Health lets the mail provider confirm the endpoint is reachable.
func (h *WebhookHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Inbound validates the provider signature and runs the processing flow.
// The provider retries on non-2xx, so processing errors after the payload
// is accepted still return 200 with a failure report.
func (h *WebhookHandler) Inbound(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		apierrors.BadRequest(c, "Failed to read request body")
		return
	}

	if !h.verifyDisabled {
		if !h.mailer.VerifySignature(body, c.GetHeader(h.signatureHeader)) {
			apierrors.Unauthorized(c, "Invalid webhook signature")
			return
		}
	}

	var email services.InboundEmail
	if err := json.Unmarshal(body, &email); err != nil {
		apierrors.BadRequest(c, "Invalid payload")
		return
	}
	if email.From == "" {
		apierrors.BadRequest(c, "Missing sender")
		return
	}

	report, err := h.pipeline.ProcessInbound(c.Request.Context(), email)
	if err != nil {
		slog.Error("Inbound processing failed", "from", email.From, "error", err)
		apierrors.InternalError(c, "Failed to process email")
		return
	}

	processed, failed := 0, 0
	for _, r := range report.Results {
		if r.Err != nil {
			failed++
		} else {
			processed++
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"registrationSent": report.RegistrationSent,
		"noAudio":          report.NoAudio,
		"processed":        processed,
		"failed":           failed,
	})
}
