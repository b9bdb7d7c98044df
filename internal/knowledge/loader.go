package knowledge

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const maxBodyBytes = 1 << 20

var (
	reScript     = regexp.MustCompile(`(?is)<(script|style)[^>]*>.*?</(script|style)>`)
	reTag        = regexp.MustCompile(`(?s)<[^>]+>`)
	reWhitespace = regexp.MustCompile(`\s+`)
)

// Loader turns an add payload into document text. URLs are fetched, anything
// else is used verbatim.
type Loader struct {
	client  *http.Client
	limiter *rate.Limiter
}

// NewLoader creates a loader allowing one fetch per interval (0 disables pacing)
func NewLoader(timeout, interval time.Duration) *Loader {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Loader{
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Load returns the text behind source
func (l *Loader) Load(ctx context.Context, source string) (string, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return "", ErrEmptySource
	}
	if !IsURL(source) {
		return source, nil
	}
	return l.fetch(ctx, source)
}

// IsURL reports whether source should be fetched over HTTP
func IsURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

func (l *Loader) fetch(ctx context.Context, url string) (string, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFetch, err)
	}
	req.Header.Set("User-Agent", "whatsapp-bot/1.0")

	resp, err := l.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: %s returned status %d", ErrFetch, url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("%w: read body: %v", ErrFetch, err)
	}

	text := string(body)
	if strings.Contains(resp.Header.Get("Content-Type"), "html") {
		text = htmlToText(text)
	}
	return strings.TrimSpace(text), nil
}

func htmlToText(page string) string {
	text := reScript.ReplaceAllString(page, " ")
	text = reTag.ReplaceAllString(text, " ")
	text = html.UnescapeString(text)
	return reWhitespace.ReplaceAllString(text, " ")
}
