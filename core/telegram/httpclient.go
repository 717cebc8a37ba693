package telegram

import (
	"log/slog"
	"net"
	"net/http"
	"path"
	"strconv"
	"time"

	"github.com/m3rciful/topicbot/core/logger"
)

const (
	defaultDialTimeout       = 5 * time.Second
	defaultTLSHandshake      = 5 * time.Second
	defaultIdleConnTimeout   = 30 * time.Second
	defaultResponseTimeout   = 10 * time.Second
	defaultClientTimeout     = 30 * time.Second
	defaultKeepAliveInterval = 30 * time.Second
)

// BuildHTTPClient returns an HTTP client tuned for Telegram API calls.
// Calls are never retried; every round trip is traced at debug level.
func BuildHTTPClient() *http.Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: defaultDialTimeout, KeepAlive: defaultKeepAliveInterval}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       defaultIdleConnTimeout,
		TLSHandshakeTimeout:   defaultTLSHandshake,
		ResponseHeaderTimeout: defaultResponseTimeout,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{
		Timeout:   defaultClientTimeout,
		Transport: &traceTransport{base: transport},
	}
}

// traceTransport logs the API method of each call. The URL path carries the bot
// token, so only its last segment is ever logged.
type traceTransport struct {
	base http.RoundTripper
}

func (t *traceTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	start := time.Now()
	resp, err := base.RoundTrip(req)
	if !logger.ShouldSampleDebug() {
		return resp, err
	}
	attrs := []slog.Attr{
		slog.String("method", path.Base(req.URL.Path)),
		slog.Duration("duration", logger.Took(start)),
	}
	if err != nil {
		attrs = append(attrs, slog.String("status", "fail"))
	} else {
		attrs = append(attrs,
			slog.String("status", "ok"),
			slog.String("http_status", strconv.Itoa(resp.StatusCode)),
		)
	}
	logger.LogEvent(req.Context(), logger.TG, slog.LevelDebug, "api.call", attrs...)
	return resp, err
}
