package httpclient

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
	"unicode/utf8"
)

const (
	// DefaultTimeout applies when a caller passes a non-positive timeout.
	DefaultTimeout = 30 * time.Second
	// MaxResponseBytes caps response bodies. Edited images come back as
	// base64 JSON, so this is much larger than a chat reply needs.
	MaxResponseBytes = 64 * 1024 * 1024
	// MaxErrorBodyBytes caps how much of an error body is kept for messages.
	MaxErrorBodyBytes = 2048

	MaxIdleConns          = 16
	MaxIdleConnsPerHost   = 4
	IdleConnTimeout       = 90 * time.Second
	TLSHandshakeTimeout   = 15 * time.Second
	ExpectContinueTimeout = 2 * time.Second
)

// ErrBodyTooLarge is returned when a response exceeds MaxResponseBytes.
var ErrBodyTooLarge = errors.New("response body too large")

// NewClient returns an http.Client with its own transport so that closing
// idle connections on one session does not affect another.
func NewClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          MaxIdleConns,
		MaxIdleConnsPerHost:   MaxIdleConnsPerHost,
		IdleConnTimeout:       IdleConnTimeout,
		TLSHandshakeTimeout:   TLSHandshakeTimeout,
		ExpectContinueTimeout: ExpectContinueTimeout,
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

// DoAndRead performs req, reads the whole body (bounded by MaxResponseBytes)
// and always closes it.
func DoAndRead(client *http.Client, req *http.Request) ([]byte, *http.Response, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	if resp.ContentLength > MaxResponseBytes {
		return nil, resp, fmt.Errorf("%w (limit %d bytes)", ErrBodyTooLarge, MaxResponseBytes)
	}

	limited := &io.LimitedReader{R: resp.Body, N: MaxResponseBytes + 1}
	body, err := io.ReadAll(limited)
	if err != nil {
		return nil, resp, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(body)) > MaxResponseBytes {
		return nil, resp, fmt.Errorf("%w (limit %d bytes)", ErrBodyTooLarge, MaxResponseBytes)
	}
	return body, resp, nil
}

// Snippet returns body trimmed to MaxErrorBodyBytes for use in error text.
// The cut never splits a UTF-8 sequence.
func Snippet(body []byte) string {
	if len(body) <= MaxErrorBodyBytes {
		return string(body)
	}
	cut := MaxErrorBodyBytes
	for cut > 0 && cut > MaxErrorBodyBytes-utf8.UTFMax && !utf8.RuneStart(body[cut]) {
		cut--
	}
	return string(body[:cut]) + "..."
}
