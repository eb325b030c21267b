package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/sunlight-history/internal/common"
	"github.com/i474232898/sunlight-history/internal/sunlight"
)

// Endpoint is the fixed path appended to the configured base URL.
const Endpoint = "/json"

// SunriseSunsetProvider implements sunlight.Provider for the sunrise/sunset API.
type SunriseSunsetProvider struct {
	name    string
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

// NewSunriseSunsetProvider builds a provider for baseURL. The client's Timeout
// bounds every upstream call.
func NewSunriseSunsetProvider(client *http.Client, baseURL string) *SunriseSunsetProvider {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:         "sunrisesunset",
		MaxRequests:  5,
		Interval:     1 * time.Minute,
		Timeout:      2 * time.Minute,
		IsSuccessful: breakerSuccess,
	})

	return &SunriseSunsetProvider{
		name:    "sunrisesunset",
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		circuit: cb,
	}
}

func (p *SunriseSunsetProvider) Name() string {
	return p.name
}

func (p *SunriseSunsetProvider) Fetch(ctx context.Context, q sunlight.Query) ([]sunlight.RawRecord, error) {
	if p.baseURL == "" {
		return nil, fmt.Errorf("sunrisesunset base url is not configured")
	}

	values := url.Values{}
	values.Set("lat", q.Latitude.String())
	values.Set("lng", q.Longitude.String())
	values.Set("date_start", common.FormatDate(q.StartDate))
	values.Set("date_end", common.FormatDate(q.EndDate))

	u := fmt.Sprintf("%s%s?%s", p.baseURL, Endpoint, values.Encode())
	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := doRequest(ctx, p.client, p.circuit, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		Results []sunlight.RawRecord `json:"results"`
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: reading body: %w", sunlight.ErrNetwork, err)
		}
		return nil, fmt.Errorf("%w: %w", sunlight.ErrMalformedResponse, err)
	}

	if payload.Results == nil {
		return []sunlight.RawRecord{}, nil
	}
	return payload.Results, nil
}
