package notifier

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ScalpSentinel/internal/model"
)

type recordedRequest struct {
	contentType string
	payload     payload
	fileName    string
	fileType    string
	fileData    []byte
}

// webhookServer records requests and replies with the given status.
type webhookServer struct {
	*httptest.Server
	mu       sync.Mutex
	status   int
	requests []recordedRequest
}

func newWebhookServer(t *testing.T, status int) *webhookServer {
	ws := &webhookServer{status: status}
	ws.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recordedRequest{contentType: r.Header.Get("Content-Type")}
		if r.Header.Get("Content-Type") == "application/json" {
			body, _ := io.ReadAll(r.Body)
			assert.NoError(t, json.Unmarshal(body, &rec.payload))
		} else {
			assert.NoError(t, r.ParseMultipartForm(1<<20))
			assert.NoError(t, json.Unmarshal([]byte(r.FormValue("payload_json")), &rec.payload))
			f, hdr, err := r.FormFile("file")
			if assert.NoError(t, err) {
				rec.fileName = hdr.Filename
				rec.fileType = hdr.Header.Get("Content-Type")
				rec.fileData, _ = io.ReadAll(f)
				f.Close()
			}
		}

		ws.mu.Lock()
		ws.requests = append(ws.requests, rec)
		status := ws.status
		ws.mu.Unlock()

		w.WriteHeader(status)
		if status >= 400 {
			_, _ = w.Write([]byte(`{"message": "Invalid Webhook Token"}`))
		}
	}))
	t.Cleanup(ws.Close)
	return ws
}

func (ws *webhookServer) setStatus(status int) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.status = status
}

func (ws *webhookServer) count() int {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return len(ws.requests)
}

func (ws *webhookServer) last() recordedRequest {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return ws.requests[len(ws.requests)-1]
}

func newTestNotifier(url string) *WebhookNotifier {
	return NewWebhookNotifier(WebhookConfig{
		URL:      url,
		Username: "CryptoScalpBot 🤖",
		Color:    65300,
		Timeout:  5 * time.Second,
	}, "")
}

func strongLong() model.SignalEvent {
	return model.SignalEvent{
		Signal:     "Strong Long",
		Entry:      30000.12,
		StopLoss:   29850.12,
		TakeProfit: 30225.12,
		OFI:        7.5,
		Confidence: model.ConfidenceStrongLong,
	}
}

func TestNotify_SendsThenSuppressesRepeat(t *testing.T) {
	ws := newWebhookServer(t, http.StatusNoContent)
	n := newTestNotifier(ws.URL)
	ctx := context.Background()

	res := n.Notify(ctx, strongLong())
	assert.Equal(t, OutcomeSent, res.Outcome)
	assert.Equal(t, http.StatusNoContent, res.StatusCode)
	assert.Equal(t, "Strong Long", n.LastSent())

	res = n.Notify(ctx, strongLong())
	assert.Equal(t, OutcomeSkipped, res.Outcome)
	assert.Equal(t, 1, ws.count())
}

func TestNotify_PlainJSONPayload(t *testing.T) {
	ws := newWebhookServer(t, http.StatusOK)
	n := newTestNotifier(ws.URL)

	evt := strongLong()
	evt.DashboardLink = "http://localhost:8504/"
	res := n.Notify(context.Background(), evt)
	require.Equal(t, OutcomeSent, res.Outcome)

	req := ws.last()
	assert.Equal(t, "application/json", req.contentType)
	assert.Equal(t, "CryptoScalpBot 🤖", req.payload.Username)
	assert.Equal(t, "", req.payload.Content)
	require.Len(t, req.payload.Embeds, 1)
	assert.Equal(t, "📢 Strong Long", req.payload.Embeds[0].Title)
	assert.Equal(t, 65300, req.payload.Embeds[0].Color)
	assert.Equal(t, "http://localhost:8504/", req.payload.Embeds[0].URL)
	assert.Contains(t, req.payload.Embeds[0].Description, "**Entry**: `30000.12`")
	assert.Contains(t, req.payload.Embeds[0].Description, "**OFI**: `7.5`")
}

func TestNotify_NoTradeNeverDispatches(t *testing.T) {
	ws := newWebhookServer(t, http.StatusOK)
	n := newTestNotifier(ws.URL)
	ctx := context.Background()

	for _, signal := range []string{model.SignalNoTrade, "No Trade"} {
		evt := strongLong()
		evt.Signal = signal
		assert.Equal(t, OutcomeSkipped, n.Notify(ctx, evt).Outcome)
	}

	// still suppressed after another signal was delivered
	require.Equal(t, OutcomeSent, n.Notify(ctx, strongLong()).Outcome)
	evt := strongLong()
	evt.Signal = model.SignalNoTrade
	assert.Equal(t, OutcomeSkipped, n.Notify(ctx, evt).Outcome)

	assert.Equal(t, 1, ws.count())
	assert.Equal(t, "Strong Long", n.LastSent())
}

func TestNotify_FailureKeepsState(t *testing.T) {
	ws := newWebhookServer(t, http.StatusUnauthorized)
	n := newTestNotifier(ws.URL)
	ctx := context.Background()

	res := n.Notify(ctx, strongLong())
	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	assert.Contains(t, res.Diagnostic, "Invalid Webhook Token")
	assert.Equal(t, "", n.LastSent())

	// the same signal is retried on the next cycle
	ws.setStatus(http.StatusOK)
	res = n.Notify(ctx, strongLong())
	assert.Equal(t, OutcomeSent, res.Outcome)
	assert.Equal(t, 2, ws.count())
}

func TestNotify_NetworkFailure(t *testing.T) {
	ws := newWebhookServer(t, http.StatusOK)
	url := ws.URL
	ws.Close()

	n := newTestNotifier(url)
	res := n.Notify(context.Background(), strongLong())
	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.Equal(t, 0, res.StatusCode)
	assert.NotEmpty(t, res.Diagnostic)
	assert.Equal(t, "", n.LastSent())
}

func TestNotify_SignalChangeDispatches(t *testing.T) {
	ws := newWebhookServer(t, http.StatusOK)
	n := newTestNotifier(ws.URL)
	ctx := context.Background()

	require.Equal(t, OutcomeSent, n.Notify(ctx, strongLong()).Outcome)

	short := strongLong()
	short.Signal = "Strong Short"
	short.OFI = -6
	short.Confidence = model.ConfidenceStrongShort
	require.Equal(t, OutcomeSent, n.Notify(ctx, short).Outcome)
	assert.Equal(t, "Strong Short", n.LastSent())

	// back to long is a new signal again
	require.Equal(t, OutcomeSent, n.Notify(ctx, strongLong()).Outcome)
	assert.Equal(t, 3, ws.count())

	n.Reset()
	assert.Equal(t, "", n.LastSent())
}

func TestNotify_ZeroOFI(t *testing.T) {
	ws := newWebhookServer(t, http.StatusOK)
	n := newTestNotifier(ws.URL)

	evt := strongLong()
	evt.OFI = 0
	require.Equal(t, OutcomeSent, n.Notify(context.Background(), evt).Outcome)
	assert.Contains(t, ws.last().payload.Embeds[0].Description, "**OFI**: `0`")
}

func TestNotify_WithChartAttachment(t *testing.T) {
	ws := newWebhookServer(t, http.StatusOK)
	n := newTestNotifier(ws.URL)

	chartPath := filepath.Join(t.TempDir(), "snapshot.png")
	png := []byte("\x89PNG\r\n\x1a\nfake")
	require.NoError(t, os.WriteFile(chartPath, png, 0o644))

	evt := strongLong()
	evt.ChartPath = chartPath
	require.Equal(t, OutcomeSent, n.Notify(context.Background(), evt).Outcome)

	req := ws.last()
	assert.Contains(t, req.contentType, "multipart/form-data")
	assert.Equal(t, "chart.png", req.fileName)
	assert.Equal(t, "image/png", req.fileType)
	assert.Equal(t, png, req.fileData)
	assert.Equal(t, "📢 Strong Long", req.payload.Embeds[0].Title)
}

func TestNotify_MissingChartFallsBackToJSON(t *testing.T) {
	ws := newWebhookServer(t, http.StatusOK)
	n := newTestNotifier(ws.URL)

	evt := strongLong()
	evt.ChartPath = filepath.Join(t.TempDir(), "missing.png")
	require.Equal(t, OutcomeSent, n.Notify(context.Background(), evt).Outcome)
	assert.Equal(t, "application/json", ws.last().contentType)
}

func TestNotify_ConcurrentSameSignalDispatchesOnce(t *testing.T) {
	ws := newWebhookServer(t, http.StatusOK)
	n := newTestNotifier(ws.URL)

	var sent int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if n.Notify(context.Background(), strongLong()).Outcome == OutcomeSent {
				atomic.AddInt32(&sent, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), sent)
	assert.Equal(t, 1, ws.count())
}
