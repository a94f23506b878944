package quote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// BrapiClient fetches B3 quotes from a brapi-compatible API.
type BrapiClient struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewBrapiClient(baseURL, token string, timeout time.Duration) *BrapiClient {
	return &BrapiClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

type brapiResponse struct {
	Results []struct {
		Symbol             string  `json:"symbol"`
		RegularMarketPrice float64 `json:"regularMarketPrice"`
	} `json:"results"`
}

// GetPrice looks up the instrument's regular market price. The API takes bare
// B3 tickers, so the canonical market suffix is stripped before the call.
// Every failure mode maps to ErrUnavailable so callers can downgrade.
func (c *BrapiClient) GetPrice(ctx context.Context, instrument string) (float64, error) {
	ticker := strings.TrimSuffix(instrument, ".SA")

	url := fmt.Sprintf("%s/api/quote/%s", c.baseURL, ticker)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s: %s: %w", instrument, err, ErrUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%s: status %d: %w", instrument, resp.StatusCode, ErrUnavailable)
	}

	var body brapiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("%s: decoding response: %s: %w", instrument, err, ErrUnavailable)
	}

	if len(body.Results) == 0 || body.Results[0].RegularMarketPrice <= 0 {
		return 0, fmt.Errorf("%s: no price in response: %w", instrument, ErrUnavailable)
	}

	return body.Results[0].RegularMarketPrice, nil
}
