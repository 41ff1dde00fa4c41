// Package translate fetches the Italian rendering of the secret word from
// the MyMemory public API. Translation is decorative, so every failure mode
// collapses to a placeholder instead of an error.
package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

const (
	// DefaultBaseURL is the public MyMemory endpoint.
	DefaultBaseURL = "https://api.mymemory.translated.net"

	// Placeholder is returned whenever a translation cannot be obtained.
	Placeholder = "-"

	requestTimeout = 5 * time.Second
)

type response struct {
	ResponseData struct {
		TranslatedText string `json:"translatedText"`
	} `json:"responseData"`
}

// Client queries MyMemory for English to Italian translations.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

func NewClient(baseURL string, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: requestTimeout},
		logger:  logger.With(slog.String("component", "translate")),
	}
}

// Translate returns the Italian rendering of word, or Placeholder when the
// service is unreachable or answers with anything unexpected.
func (c *Client) Translate(ctx context.Context, word string) string {
	endpoint := fmt.Sprintf("%s/get?q=%s&langpair=%s",
		c.baseURL, url.QueryEscape(word), url.QueryEscape("en|it"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		c.logger.Warn("building translation request", slog.Any("error", err))
		return Placeholder
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("translation request failed", slog.Any("error", err))
		return Placeholder
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("translation request rejected", slog.Int("status", resp.StatusCode))
		return Placeholder
	}

	var decoded response
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		c.logger.Warn("decoding translation response", slog.Any("error", err))
		return Placeholder
	}
	if decoded.ResponseData.TranslatedText == "" {
		return Placeholder
	}
	return decoded.ResponseData.TranslatedText
}
