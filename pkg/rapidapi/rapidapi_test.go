package rapidapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c, err := NewClient(Config{Key: "k", WeatherBaseURL: server.URL, FinanceBaseURL: server.URL + "/finance"})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return c
}

func TestCurrentWeather(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/current.json" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.URL.Query().Get("q"); got != "Karachi" {
			t.Errorf("q = %q, want Karachi", got)
		}
		if got := r.Header.Get("x-rapidapi-key"); got != "k" {
			t.Errorf("x-rapidapi-key = %q", got)
		}
		if r.Header.Get("x-rapidapi-host") == "" {
			t.Error("missing x-rapidapi-host")
		}
		fmt.Fprint(w, `{"location":{"name":"Karachi","region":"Sindh","country":"Pakistan"},
			"current":{"temp_c":31.5,"temp_f":88.7,"humidity":62,"wind_kph":14.4,"condition":{"text":"Sunny"}}}`)
	})

	got, err := c.CurrentWeather(context.Background(), " Karachi ")
	if err != nil {
		t.Fatalf("CurrentWeather() error = %v", err)
	}
	if got.Location.Name != "Karachi" || got.Current.TempC != 31.5 || got.Current.Condition.Text != "Sunny" {
		t.Fatalf("unexpected weather: %+v", got)
	}
}

func TestCurrentWeatherUpstreamError(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"No matching location found."}}`, http.StatusBadRequest)
	})

	_, err := c.CurrentWeather(context.Background(), "Atlantis")
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
}

func TestCurrentWeatherRejectsEmptyCity(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	if _, err := c.CurrentWeather(context.Background(), "  "); err == nil {
		t.Fatal("expected error")
	}
}

func TestFinanceLogo(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/finance/getlogo" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body["stock"] != "AAPL" {
			t.Errorf("stock = %q", body["stock"])
		}
		fmt.Fprint(w, `{"logo":"https://logo.example/aapl.png"}`)
	})

	got, err := c.FinanceLogo(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("FinanceLogo() error = %v", err)
	}
	if got.Logo == nil || *got.Logo != "https://logo.example/aapl.png" {
		t.Fatalf("unexpected logo: %+v", got)
	}
}

func TestFinanceLogoNull(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"logo":null}`)
	})

	got, err := c.FinanceLogo(context.Background(), "ZZZZ")
	if err != nil {
		t.Fatalf("FinanceLogo() error = %v", err)
	}
	if got.Logo != nil {
		t.Fatalf("expected nil logo, got %q", *got.Logo)
	}
}

func TestFinanceLogoBadJSON(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html>`)
	})

	if _, err := c.FinanceLogo(context.Background(), "AAPL"); err == nil {
		t.Fatal("expected decode error")
	}
}
