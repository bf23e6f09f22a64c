package collector

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/pkg/errors"

	"ScalpSentinel/internal/model"
)

// HTTPFetcher implements Fetcher against a REST service that serves the
// precomputed signal feed.
type HTTPFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewHTTPFetcher creates a new fetcher with optional proxy support.
func NewHTTPFetcher(baseURL, apiKey, proxyURL string) *HTTPFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &HTTPFetcher{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

func (f *HTTPFetcher) Name() string { return "http" }

// httpBar is the expected JSON shape of one bar.
type httpBar struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	BBUpper   float64 `json:"bb_upper"`
	BBLower   float64 `json:"bb_lower"`
	VWAP      float64 `json:"vwap"`
	Signal    string  `json:"signal"`
}

func (f *HTTPFetcher) FetchBars(ctx context.Context, symbol string) ([]model.Bar, error) {
	endpoint := f.BaseURL + "/api/v1/bars?symbol=" + url.QueryEscape(symbol)
	var raw []httpBar
	status, err := f.getJSON(ctx, endpoint, &raw)
	if err != nil {
		return nil, errors.Wrap(err, "fetch bars")
	}
	if status == http.StatusNotFound || len(raw) == 0 {
		return nil, ErrNoRows
	}

	bars := make([]model.Bar, len(raw))
	for i, hb := range raw {
		bars[i] = model.Bar{
			Time:    time.Unix(hb.Timestamp, 0),
			Open:    hb.Open,
			High:    hb.High,
			Low:     hb.Low,
			Close:   hb.Close,
			BBUpper: hb.BBUpper,
			BBLower: hb.BBLower,
			VWAP:    hb.VWAP,
			Signal:  hb.Signal,
		}
	}
	// Ensure chronological order
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

// FetchOFI treats 404 as "no reading yet".
func (f *HTTPFetcher) FetchOFI(ctx context.Context, symbol string) (model.OFIReading, error) {
	endpoint := f.BaseURL + "/api/v1/ofi?symbol=" + url.QueryEscape(symbol)
	var result struct {
		OFI *float64 `json:"ofi"`
	}
	status, err := f.getJSON(ctx, endpoint, &result)
	if err != nil {
		return model.OFIReading{}, errors.Wrap(err, "fetch ofi")
	}
	if status == http.StatusNotFound || result.OFI == nil {
		return model.OFIReading{}, nil
	}
	return model.OFIReading{Value: *result.OFI, Available: true}, nil
}

// getJSON decodes a 200 response into out. A 404 is returned as a status with no error.
func (f *HTTPFetcher) getJSON(ctx context.Context, endpoint string, out interface{}) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, err
	}
	if f.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.APIKey)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return resp.StatusCode, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return resp.StatusCode, errors.Errorf("status %d, body: %s", resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, errors.Wrap(err, "decode")
	}
	return resp.StatusCode, nil
}
