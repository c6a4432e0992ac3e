package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/avvvet/deckvault-services/internal/vaultsvc/models"
)

const (
	DefaultURL     = "https://db.ygoprodeck.com/api/v7/cardinfo.php"
	DefaultTimeout = 2 * time.Minute
)

// Record is one card as returned by the YGOProDeck card info endpoint.
type Record struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	Type       string     `json:"type"`
	Attribute  *string    `json:"attribute"`
	Race       *string    `json:"race"`
	Atk        *int32     `json:"atk"`
	Def        *int32     `json:"def"`
	Desc       string     `json:"desc"`
	CardImages []Image    `json:"card_images"`
	CardPrices []PriceSet `json:"card_prices"`
}

type Image struct {
	ImageURL string `json:"image_url"`
}

type PriceSet struct {
	TCGPlayer  PriceText `json:"tcgplayer_price"`
	CardMarket PriceText `json:"cardmarket_price"`
}

// PriceText keeps a price exactly as the provider sent it. The provider
// normally sends strings, but numbers and null are accepted too.
type PriceText string

func (p *PriceText) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*p = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*p = PriceText(s)
		return nil
	}
	// bare number; keep its literal text
	if _, err := strconv.ParseFloat(string(b), 64); err != nil {
		*p = ""
		return nil
	}
	*p = PriceText(b)
	return nil
}

type response struct {
	Data  []Record `json:"data"`
	Error string   `json:"error"`
}

// Client fetches the full catalog in one request.
type Client struct {
	url  string
	http *http.Client
}

func NewClient(url string, timeout time.Duration) *Client {
	if url == "" {
		url = DefaultURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{url: url, http: &http.Client{Timeout: timeout}}
}

// FetchAll returns every card the provider knows about. Any failure is a
// *models.ProviderError.
func (c *Client) FetchAll(ctx context.Context) ([]Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, &models.ProviderError{Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &models.ProviderError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &models.ProviderError{
			Err: fmt.Errorf("unexpected status %d: %s", resp.StatusCode, bytes.TrimSpace(snippet)),
		}
	}

	var payload response
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &models.ProviderError{Err: fmt.Errorf("decode response: %w", err)}
	}
	if payload.Error != "" {
		return nil, &models.ProviderError{Err: errors.New(payload.Error)}
	}
	if payload.Data == nil {
		return nil, &models.ProviderError{Err: errors.New("response has no data field")}
	}

	return payload.Data, nil
}
