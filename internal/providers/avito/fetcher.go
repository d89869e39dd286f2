package avito

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	DefaultUserAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	DefaultAcceptLanguage = "ru-RU,ru;q=0.9"
	DefaultTimeout        = 15 * time.Second
	DefaultCooldown       = 60 * time.Second

	acceptHTML = "text/html,application/xhtml+xml"
)

// ErrRateLimited is returned after the fetcher sat out a 429 cooldown.
var ErrRateLimited = errors.New("rate limited")

type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status: %d", e.Code)
}

type Fetcher struct {
	client         *http.Client
	userAgent      string
	acceptLanguage string
	timeout        time.Duration
	cooldown       time.Duration
}

type FetcherOption func(*Fetcher)

func WithUserAgent(userAgent string) FetcherOption {
	return func(f *Fetcher) {
		if userAgent != "" {
			f.userAgent = userAgent
		}
	}
}

func WithAcceptLanguage(lang string) FetcherOption {
	return func(f *Fetcher) {
		if lang != "" {
			f.acceptLanguage = lang
		}
	}
}

func WithTimeout(timeout time.Duration) FetcherOption {
	return func(f *Fetcher) {
		if timeout > 0 {
			f.timeout = timeout
		}
	}
}

func WithCooldown(cooldown time.Duration) FetcherOption {
	return func(f *Fetcher) {
		if cooldown >= 0 {
			f.cooldown = cooldown
		}
	}
}

func NewFetcher(client *http.Client, options ...FetcherOption) *Fetcher {
	if client == nil {
		client = &http.Client{}
	}
	f := &Fetcher{
		client:         client,
		userAgent:      DefaultUserAgent,
		acceptLanguage: DefaultAcceptLanguage,
		timeout:        DefaultTimeout,
		cooldown:       DefaultCooldown,
	}
	for _, option := range options {
		option(f)
	}
	return f
}

// Fetch returns the body of a 2xx response. On 429 it waits out the
// cooldown before returning ErrRateLimited so the next cycle starts fresh.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", acceptHTML)
	req.Header.Set("Accept-Language", f.acceptLanguage)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		log.Warn().Dur("cooldown", f.cooldown).Msg("rate limited by source, cooling down")
		if err := f.wait(ctx); err != nil {
			return "", err
		}
		return "", ErrRateLimited
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &StatusError{Code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return string(body), nil
}

func (f *Fetcher) wait(ctx context.Context) error {
	if f.cooldown <= 0 {
		return nil
	}
	timer := time.NewTimer(f.cooldown)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
