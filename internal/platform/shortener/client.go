package shortener

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"videobot-backend/internal/common/config"
	"videobot-backend/internal/common/logger"
)

// Client calls an external URL-shortening service. Shorten never fails:
// on any trouble it falls back to the original link so the caller always
// has something to present.
type Client struct {
	httpClient *http.Client
	apiURL     string
	minLength  int
}

func NewClient(cfg *config.Config) *Client {
	timeout := time.Duration(cfg.Shortener.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		apiURL:     cfg.Shortener.APIURL,
		minLength:  cfg.Shortener.MinLength,
	}
}

// Shorten returns a short form of longURL, or a normalized fallback.
func (c *Client) Shorten(ctx context.Context, longURL string) string {
	if c.apiURL == "" || len(longURL) < c.minLength {
		return normalize(longURL)
	}

	endpoint := strings.Replace(c.apiURL, "{url}", url.QueryEscape(longURL), 1)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return normalize(longURL)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Warn().Err(err).Msg("Shortener request failed, using fallback")
		return normalize(longURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.Warn().Int("status", resp.StatusCode).Msg("Shortener returned non-2xx, using fallback")
		return normalize(longURL)
	}
	if ct := resp.Header.Get("Content-Type"); strings.Contains(ct, "text/html") {
		return normalize(longURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return normalize(longURL)
	}

	short := extract(body)
	if short == "" || looksLikeDocument(short) || !strings.HasPrefix(short, "http") {
		return normalize(longURL)
	}
	return short
}

// extract pulls the short link out of a plain-text or JSON body. Services
// disagree on the key name, so a few common ones are tried.
func extract(body []byte) string {
	text := strings.TrimSpace(string(body))
	if !strings.HasPrefix(text, "{") {
		return text
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return text
	}
	for _, key := range []string{"shortenedUrl", "short_url", "shortened", "url"} {
		if v, ok := payload[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// looksLikeDocument rejects bodies that are a full HTML page even when
// the service answered 200.
func looksLikeDocument(s string) bool {
	lower := strings.ToLower(s)
	return strings.Contains(lower, "<html") || strings.Contains(lower, "<!doctype")
}

// normalize substitutes the canonical Telegram domain on fallback links.
func normalize(longURL string) string {
	return strings.Replace(longURL, "https://telegram.dog/", "https://t.me/", 1)
}
