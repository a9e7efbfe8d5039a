// Package proxy forwards the dashboard's PVGIS, OpenWeather and Google Solar
// lookups and substitutes static data when an upstream is unusable.
package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	DefaultPVGISURL       = "https://re.jrc.ec.europa.eu/api/v5_2/PVcalc"
	DefaultOpenWeatherURL = "https://api.openweathermap.org/data/2.5/weather"
	DefaultGoogleSolarURL = "https://solar.googleapis.com/v1/buildingInsights:findClosest"

	DefaultTimeout = 10 * time.Second
	UserAgent      = "Karnataka Solar Monitor"

	// DemoKey is the placeholder key shipped in sample env files.
	DemoKey = "demo_key"

	maxBodyBytes = 4 << 20
)

var ErrTimeout = errors.New("upstream timed out")

// UpstreamError is a non 2xx answer from an upstream API.
type UpstreamError struct {
	Status int
	Body   any
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream responded with status %d", e.Status)
}

type Client struct {
	httpClient *http.Client

	pvgisURL       string
	openWeatherURL string
	googleSolarURL string

	openWeatherKey string
	googleSolarKey string
}

type ClientOption func(*Client)

func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithBaseURLs points the client at other upstreams, empty values keep the
// defaults.
func WithBaseURLs(pvgis, openWeather, googleSolar string) ClientOption {
	return func(c *Client) {
		if pvgis != "" {
			c.pvgisURL = pvgis
		}
		if openWeather != "" {
			c.openWeatherURL = openWeather
		}
		if googleSolar != "" {
			c.googleSolarURL = googleSolar
		}
	}
}

func WithAPIKeys(openWeather, googleSolar string) ClientOption {
	return func(c *Client) {
		c.openWeatherKey = openWeather
		c.googleSolarKey = googleSolar
	}
}

func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient:     &http.Client{Timeout: DefaultTimeout},
		pvgisURL:       DefaultPVGISURL,
		openWeatherURL: DefaultOpenWeatherURL,
		googleSolarURL: DefaultGoogleSolarURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func usableKey(key string) bool {
	return key != "" && key != DemoKey
}

func (c *Client) HasOpenWeatherKey() bool { return usableKey(c.openWeatherKey) }
func (c *Client) HasGoogleSolarKey() bool { return usableKey(c.googleSolarKey) }

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// PVGIS runs a PVcalc for a 1 kWp free standing system tilted 35 degrees due south.
func (c *Client) PVGIS(ctx context.Context, lat, lng float64) (json.RawMessage, error) {
	q := url.Values{}
	q.Set("lat", formatCoord(lat))
	q.Set("lon", formatCoord(lng))
	q.Set("raddatabase", "PVGIS-SARAH2")
	q.Set("browser", "0")
	q.Set("outputformat", "json")
	q.Set("peakpower", "1")
	q.Set("loss", "14")
	q.Set("mountingplace", "free")
	q.Set("angle", "35")
	q.Set("aspect", "0")
	return c.get(ctx, c.pvgisURL, q)
}

func (c *Client) Weather(ctx context.Context, lat, lng float64) (json.RawMessage, error) {
	q := url.Values{}
	q.Set("lat", formatCoord(lat))
	q.Set("lon", formatCoord(lng))
	q.Set("appid", c.openWeatherKey)
	q.Set("units", "metric")
	return c.get(ctx, c.openWeatherURL, q)
}

func (c *Client) SolarInsight(ctx context.Context, lat, lng float64) (json.RawMessage, error) {
	q := url.Values{}
	q.Set("location.latitude", formatCoord(lat))
	q.Set("location.longitude", formatCoord(lng))
	q.Set("key", c.googleSolarKey)
	return c.get(ctx, c.googleSolarURL, q)
}

func (c *Client) get(ctx context.Context, base string, q url.Values) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, &UpstreamError{Status: resp.StatusCode, Body: decodeBody(body)}
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("upstream returned invalid JSON")
	}
	return body, nil
}

// decodeBody keeps a JSON error body as JSON and anything else as text.
func decodeBody(body []byte) any {
	if json.Valid(body) {
		return json.RawMessage(body)
	}
	return string(body)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
