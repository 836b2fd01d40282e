package rapidapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const maxResponseSizeBytes = 1 << 20

// ErrUpstream is returned for any non-2xx answer from a RapidAPI backend.
var ErrUpstream = errors.New("rapidapi: upstream error")

type Config struct {
	Key            string        `split_words:"true"`
	WeatherBaseURL string        `envconfig:"WEATHER_BASE_URL" default:"https://weatherapi-com.p.rapidapi.com"`
	FinanceBaseURL string        `envconfig:"FINANCE_BASE_URL" default:"https://yahoo-finance160.p.rapidapi.com"`
	Timeout        time.Duration `split_words:"true" default:"10s"`
}

type Client struct {
	key        string
	weatherURL *url.URL
	financeURL *url.URL
	httpClient *http.Client
}

func NewClient(cfg Config) (*Client, error) {
	weatherURL, err := parseBase(cfg.WeatherBaseURL, "weather")
	if err != nil {
		return nil, err
	}
	financeURL, err := parseBase(cfg.FinanceBaseURL, "finance")
	if err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		key:        strings.TrimSpace(cfg.Key),
		weatherURL: weatherURL,
		financeURL: financeURL,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

func MustNew(cfg Config) *Client {
	c, err := NewClient(cfg)
	if err != nil {
		panic(err)
	}
	return c
}

func parseBase(raw, name string) (*url.URL, error) {
	raw = strings.TrimRight(strings.TrimSpace(raw), "/")
	if raw == "" {
		return nil, fmt.Errorf("rapidapi %s base url is required", name)
	}
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid rapidapi %s url: %w", name, err)
	}
	return u, nil
}

type Weather struct {
	Location struct {
		Name    string `json:"name"`
		Region  string `json:"region"`
		Country string `json:"country"`
	} `json:"location"`
	Current struct {
		TempC     float64 `json:"temp_c"`
		TempF     float64 `json:"temp_f"`
		Humidity  int     `json:"humidity"`
		WindKph   float64 `json:"wind_kph"`
		Condition struct {
			Text string `json:"text"`
		} `json:"condition"`
	} `json:"current"`
}

// CurrentWeather fetches current conditions for a city.
func (c *Client) CurrentWeather(ctx context.Context, city string) (*Weather, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return nil, errors.New("rapidapi: city is required")
	}

	u := *c.weatherURL
	u.Path = strings.TrimRight(u.Path, "/") + "/current.json"
	u.RawQuery = url.Values{"q": {city}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build weather request: %w", err)
	}

	var out Weather
	if err := c.do(req, c.weatherURL.Host, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type Logo struct {
	Logo *string `json:"logo"`
}

// FinanceLogo fetches the logo URL of a stock symbol. Logo is nil when the
// provider has none.
func (c *Client) FinanceLogo(ctx context.Context, stock string) (*Logo, error) {
	stock = strings.TrimSpace(stock)
	if stock == "" {
		return nil, errors.New("rapidapi: stock is required")
	}

	body, err := json.Marshal(map[string]string{"stock": stock})
	if err != nil {
		return nil, fmt.Errorf("marshal logo request: %w", err)
	}

	u := *c.financeURL
	u.Path = strings.TrimRight(u.Path, "/") + "/getlogo"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build logo request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var out Logo
	if err := c.do(req, c.financeURL.Host, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(req *http.Request, host string, out any) error {
	req.Header.Set("x-rapidapi-host", host)
	if c.key != "" {
		req.Header.Set("x-rapidapi-key", c.key)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute rapidapi request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return fmt.Errorf("read rapidapi response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("%w: status=%d body=%s", ErrUpstream, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode rapidapi response: %w", err)
	}
	return nil
}
