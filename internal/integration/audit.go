package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"playlink/internal/application"
	"playlink/internal/models"

	"github.com/google/uuid"
)

// WebhookNotifier posts audit notifications to a Discord-compatible webhook.
// Delivery is best effort: every failure is logged and swallowed, it never
// reaches the operation that triggered the notification.
type WebhookNotifier struct {
	url    string
	client *http.Client
	logger application.Logger
}

func NewWebhookNotifier(url string, logger application.Logger) *WebhookNotifier {
	return &WebhookNotifier{
		url: url,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

type webhookPayload struct {
	Content string `json:"content"`
}

func (n *WebhookNotifier) CodeIssued(all []models.LinkRecord) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Link code issued. Active records: %d\n", len(all))
	for _, rec := range all {
		sb.WriteString("- " + application.Summarize(rec) + "\n")
	}
	n.post(sb.String())
}

func (n *WebhookNotifier) LinkChanged(event string, rec models.LinkRecord) {
	n.post(fmt.Sprintf("Link %s: %s", event, application.Summarize(rec)))
}

func (n *WebhookNotifier) post(content string) {
	if n.url == "" {
		return
	}

	eventID := uuid.NewString()
	body, err := json.Marshal(webhookPayload{
		Content: fmt.Sprintf("%s\nevent: %s", content, eventID),
	})
	if err != nil {
		n.logger.Warn("Audit delivery %s skipped, encode failed: %v", eventID, err)
		return
	}

	resp, err := n.client.Post(n.url, "application/json", bytes.NewReader(body))
	if err != nil {
		n.logger.Warn("Audit delivery %s failed: %v", eventID, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		n.logger.Warn("Audit delivery %s rejected: status %d", eventID, resp.StatusCode)
	}
}
