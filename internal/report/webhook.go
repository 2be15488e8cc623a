package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/harrison/dora/internal/models"
	"github.com/harrison/dora/internal/submission"
)

// DefaultWebhookTimeout bounds a single webhook POST.
const DefaultWebhookTimeout = 15 * time.Second

// webhookRequest is the JSON body posted to the report webhook.
type webhookRequest struct {
	Subject    string                   `json:"subject"`
	Submission models.SubmissionPayload `json:"submission"`
	Language   models.Language          `json:"language"`
	Scores     []webhookScore           `json:"scores"`
	ReportName string                   `json:"report_filename"`
	ReportType string                   `json:"report_content_type"`
	Report     []byte                   `json:"report"` // base64 HTML
}

type webhookScore struct {
	CategoryID string   `json:"category_id"`
	Label      string   `json:"label"`
	Mean       *float64 `json:"mean"`
	Percent    *float64 `json:"percent"`
	Answered   int      `json:"answered"`
	Total      int      `json:"total"`
}

// WebhookSink POSTs the report as JSON to a URL. Any 2xx response counts as
// delivered.
type WebhookSink struct {
	url        string
	httpClient *http.Client
}

// NewWebhookSink creates a sink for url. A non-positive timeout uses
// DefaultWebhookTimeout.
func NewWebhookSink(url string, timeout time.Duration) *WebhookSink {
	if timeout <= 0 {
		timeout = DefaultWebhookTimeout
	}
	return &WebhookSink{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Name implements Sink.
func (w *WebhookSink) Name() string { return "webhook" }

// Send implements Sink.
func (w *WebhookSink) Send(ctx context.Context, doc *Document, req submission.ReportRequest) error {
	body := webhookRequest{
		Subject:    models.LabelsFor(req.Language).DeliverySubject,
		Submission: req.Payload,
		Language:   req.Language,
		Scores:     make([]webhookScore, 0, len(req.Scores)),
		ReportName: doc.Filename,
		ReportType: doc.ContentType,
		Report:     doc.HTML,
	}
	for _, s := range req.Scores {
		ws := webhookScore{CategoryID: s.CategoryID, Label: s.Label, Answered: s.Answered, Total: s.Total}
		if s.HasData {
			mean := s.Mean
			ws.Mean = &mean
		}
		if pct, ok := s.Percent(); ok {
			ws.Percent = &pct
		}
		body.Scores = append(body.Scores, ws)
	}

	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode webhook body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create webhook request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook returned %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}
