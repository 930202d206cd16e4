package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kstrading/scand/internal/models"
	"github.com/kstrading/scand/internal/scanerr"
)

const defaultTimeout = 30 * time.Second

// HTTPClient is a generic history-endpoint broker client: HTTP GET with
// query params, Bearer auth header, and JSON body decode. Any broker
// exposing a "history" endpoint with a symbol/interval/start/end query
// shape can be pointed at by BaseURL.
type HTTPClient struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient builds an HTTPClient against baseURL, authenticating with
// apiKey as a bearer token. Pass a nil httpClient to get a default one with
// defaultTimeout.
func NewHTTPClient(baseURL, apiKey string, httpClient *http.Client) *HTTPClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &HTTPClient{
		client:  httpClient,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

type historyResponse struct {
	History struct {
		Day []historyDay `json:"day"`
	} `json:"history"`
}

type historyDay struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

// FetchHistorical implements Client.
func (c *HTTPClient) FetchHistorical(ctx context.Context, instrument string, interval models.Interval, from, to time.Time) (models.BarSeries, error) {
	params := url.Values{}
	params.Set("symbol", instrument)
	params.Set("interval", historyIntervalParam(interval))
	params.Set("start", from.Format("2006-01-02"))
	params.Set("end", to.Format("2006-01-02"))

	endpoint := fmt.Sprintf("%s/markets/history?%s", c.baseURL, params.Encode())

	var resp historyResponse
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return models.BarSeries{}, err
	}

	bars := make([]models.Bar, 0, len(resp.History.Day))
	for _, d := range resp.History.Day {
		ts, err := time.Parse("2006-01-02", d.Date)
		if err != nil {
			return models.BarSeries{}, scanerr.Wrap(scanerr.KindValidation, "parse history date", err)
		}
		bars = append(bars, models.Bar{
			Timestamp: ts,
			Open:      decimal.NewFromFloat(d.Open),
			High:      decimal.NewFromFloat(d.High),
			Low:       decimal.NewFromFloat(d.Low),
			Close:     decimal.NewFromFloat(d.Close),
			Volume:    d.Volume,
		})
	}

	return models.BarSeries{
		Instrument: instrument,
		Interval:   interval,
		From:       from,
		To:         to,
		Bars:       bars,
	}, nil
}

func historyIntervalParam(interval models.Interval) string {
	switch interval {
	case models.IntervalDaily:
		return "daily"
	case models.Interval15Min:
		return "15min"
	case models.Interval5Min:
		return "5min"
	default:
		return "daily"
	}
}

func (c *HTTPClient) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return scanerr.Wrap(scanerr.KindFatal, "build request", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "scand/1.0")

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return scanerr.Wrap(scanerr.KindTimeout, "history request deadline exceeded", ctx.Err())
		}
		return scanerr.Wrap(scanerr.KindTransient, "history request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return classifyStatus(resp.StatusCode, resp.Header.Get("Retry-After"), string(body))
	}

	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(out); err != nil && err != io.EOF {
		return scanerr.Wrap(scanerr.KindValidation, "decode history response", err)
	}
	return nil
}

func classifyStatus(status int, retryAfter, body string) error {
	msg := fmt.Sprintf("broker returned status %d: %s", status, body)
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return scanerr.New(scanerr.KindUnauthorized, msg)
	case http.StatusNotFound:
		return scanerr.New(scanerr.KindNotFound, msg)
	case http.StatusTooManyRequests:
		seconds, err := strconv.ParseFloat(retryAfter, 64)
		if err != nil {
			return scanerr.New(scanerr.KindTransient, msg)
		}
		return scanerr.New(scanerr.KindRateLimited, msg).WithRetryAfter(seconds)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return scanerr.New(scanerr.KindValidation, msg)
	default:
		if status >= 500 {
			return scanerr.New(scanerr.KindTransient, msg)
		}
		return scanerr.New(scanerr.KindTransient, msg)
	}
}
