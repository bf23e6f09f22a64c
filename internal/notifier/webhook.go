package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"ScalpSentinel/internal/model"
)

const (
	attachmentName = "chart.png"
	maxDiagnostic  = 2048
)

// Outcome is the result class of a Notify call.
type Outcome string

const (
	OutcomeSent    Outcome = "sent"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// Result reports what Notify did. Failures carry the HTTP status (0 on
// transport errors) and a diagnostic taken from the response body or error.
type Result struct {
	Outcome    Outcome
	StatusCode int
	Diagnostic string
}

// WebhookConfig is the destination of a WebhookNotifier.
type WebhookConfig struct {
	URL      string
	Username string
	Color    int
	Timeout  time.Duration
}

// WebhookNotifier posts signal alerts to a Discord-style webhook and
// suppresses repeats of the last successfully delivered signal.
type WebhookNotifier struct {
	Config WebhookConfig
	Client *http.Client

	mu       sync.Mutex
	lastSent string
}

// NewWebhookNotifier creates a notifier with optional proxy support.
func NewWebhookNotifier(cfg WebhookConfig, proxyURL string) *WebhookNotifier {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &WebhookNotifier{
		Config: cfg,
		Client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
	}
}

// LastSent returns the last successfully delivered signal label.
func (n *WebhookNotifier) LastSent() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.lastSent
}

// Reset clears the throttle state.
func (n *WebhookNotifier) Reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.lastSent = ""
}

// Notify dispatches evt unless it repeats the last delivered signal or is the
// no-trade sentinel. The throttle state only advances on a 200 or 204 reply.
func (n *WebhookNotifier) Notify(ctx context.Context, evt model.SignalEvent) Result {
	n.mu.Lock()
	defer n.mu.Unlock()

	if evt.Signal == n.lastSent || model.IsNoTrade(evt.Signal) {
		log.Debugf("no new signal to send (%q)", evt.Signal)
		return Result{Outcome: OutcomeSkipped}
	}

	body, err := json.Marshal(buildPayload(n.Config.Username, n.Config.Color, evt))
	if err != nil {
		return Result{Outcome: OutcomeFailed, Diagnostic: errors.Wrap(err, "marshal payload").Error()}
	}

	req, err := n.newRequest(ctx, body, loadAttachment(evt.ChartPath))
	if err != nil {
		return Result{Outcome: OutcomeFailed, Diagnostic: err.Error()}
	}

	resp, err := n.Client.Do(req)
	if err != nil {
		log.Errorf("webhook send failed: %v", err)
		return Result{Outcome: OutcomeFailed, Diagnostic: errors.Wrap(err, "send webhook").Error()}
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxDiagnostic))

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		log.Errorf("webhook send failed: status %d, body: %s", resp.StatusCode, string(respBody))
		return Result{Outcome: OutcomeFailed, StatusCode: resp.StatusCode, Diagnostic: string(respBody)}
	}

	n.lastSent = evt.Signal
	log.Infof("webhook alert sent: %s", evt.Signal)
	return Result{Outcome: OutcomeSent, StatusCode: resp.StatusCode}
}

// attachment is the optional chart image. A nil *attachment means plain JSON dispatch.
type attachment struct {
	data []byte
}

// loadAttachment resolves the chart reference once. Unreadable or missing
// files fall back to a plain dispatch.
func loadAttachment(path string) *attachment {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warnf("read chart attachment %s: %v", path, err)
		}
		return nil
	}
	return &attachment{data: data}
}

func (n *WebhookNotifier) newRequest(ctx context.Context, payloadJSON []byte, att *attachment) (*http.Request, error) {
	if att == nil {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.Config.URL, bytes.NewReader(payloadJSON))
		if err != nil {
			return nil, errors.Wrap(err, "create request")
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("payload_json", string(payloadJSON)); err != nil {
		return nil, errors.Wrap(err, "write payload_json")
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+attachmentName+`"`)
	h.Set("Content-Type", "image/png")
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, errors.Wrap(err, "create file part")
	}
	if _, err := part.Write(att.data); err != nil {
		return nil, errors.Wrap(err, "write file part")
	}
	if err := w.Close(); err != nil {
		return nil, errors.Wrap(err, "close multipart writer")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.Config.URL, &buf)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req, nil
}
