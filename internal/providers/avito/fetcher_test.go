package avito

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

func TestFetchSuccessSetsBrowserHeaders(t *testing.T) {
	var gotUA, gotLang, gotAccept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotLang = r.Header.Get("Accept-Language")
		gotAccept = r.Header.Get("Accept")
		_, _ = w.Write([]byte("<html>ok</html>"))
	}))
	defer server.Close()

	f := NewFetcher(server.Client())
	body, err := f.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body != "<html>ok</html>" {
		t.Errorf("body = %q", body)
	}
	if gotUA != DefaultUserAgent {
		t.Errorf("User-Agent = %q", gotUA)
	}
	if gotLang != DefaultAcceptLanguage {
		t.Errorf("Accept-Language = %q", gotLang)
	}
	if gotAccept != acceptHTML {
		t.Errorf("Accept = %q", gotAccept)
	}
}

func TestFetchNonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	_, err := NewFetcher(server.Client()).Fetch(context.Background(), server.URL)
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.Code != http.StatusForbidden {
		t.Errorf("code = %d", statusErr.Code)
	}
}

func TestFetchRateLimitedWaitsCooldown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	cooldown := 50 * time.Millisecond
	f := NewFetcher(server.Client(), WithCooldown(cooldown))

	start := time.Now()
	_, err := f.Fetch(context.Background(), server.URL)
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if elapsed := time.Since(start); elapsed < cooldown {
		t.Errorf("returned after %s, before cooldown %s", elapsed, cooldown)
	}
}

type closeNotifyBody struct {
	io.ReadCloser
	once   sync.Once
	closed chan struct{}
}

func (b *closeNotifyBody) Close() error {
	b.once.Do(func() { close(b.closed) })
	return b.ReadCloser.Close()
}

type closeTrackingTransport struct {
	base   http.RoundTripper
	closed chan struct{}
}

func (t *closeTrackingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	resp.Body = &closeNotifyBody{ReadCloser: resp.Body, closed: t.closed}
	return resp, nil
}

func TestFetchRateLimitedClosesBodyBeforeCooldown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte("slow down"))
	}))
	defer server.Close()

	transport := &closeTrackingTransport{base: server.Client().Transport, closed: make(chan struct{})}
	f := NewFetcher(&http.Client{Transport: transport}, WithCooldown(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := f.Fetch(ctx, server.URL)
		done <- err
	}()
	defer func() {
		cancel()
		<-done
	}()

	select {
	case <-transport.closed:
	case <-time.After(2 * time.Second):
		t.Fatal("response body was held open during the cooldown")
	}
}

func TestFetchRateLimitCooldownIsCancellable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	f := NewFetcher(server.Client(), WithCooldown(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	done := make(chan error, 1)
	go func() {
		_, err := f.Fetch(ctx, server.URL)
		done <- err
	}()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("cooldown was not interrupted by cancellation")
	}
}

func TestFetchNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	if _, err := NewFetcher(nil).Fetch(context.Background(), url); err == nil {
		t.Fatal("expected error for closed server")
	}
}

func TestFetchTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	f := NewFetcher(server.Client(), WithTimeout(50*time.Millisecond))
	if _, err := f.Fetch(context.Background(), server.URL); err == nil {
		t.Fatal("expected timeout error")
	}
}
