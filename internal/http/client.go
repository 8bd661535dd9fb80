// Package http builds the HTTP clients used to talk to the ingest service:
// proxy-aware transports and a bounded retry policy on top of go-retryablehttp.
package http

import (
	"crypto/tls"
	nethttp "net/http"
	"os"

	"golang.org/x/net/http2"

	"github.com/dart-platform/dart-cli/internal/config"
	"github.com/dart-platform/dart-cli/internal/logging"
)

// NewClient creates an HTTP client for bulk uploads with proxy support.
//
// The transport keeps one idle connection per worker so that a batch reuses
// connections instead of reconnecting per file. HTTP/2 is attempted unless
// DISABLE_HTTP2=true, or a proxy is active (proxies often break multiplexed
// streams; FORCE_HTTP2=true overrides that).
func NewClient(cfg *config.Config, logger *logging.Logger) (*nethttp.Client, error) {
	client, err := ConfigureHTTPClient(cfg.Proxy, logger)
	if err != nil {
		return nil, err
	}

	tr, ok := client.Transport.(*nethttp.Transport)
	if !ok {
		// NTLM wraps the transport in a Negotiator; leave it as configured.
		return client, nil
	}

	if cfg.Upload.Workers > 0 {
		tr.MaxIdleConnsPerHost = cfg.Upload.Workers
	}
	tr.ForceAttemptHTTP2 = true
	_ = http2.ConfigureTransport(tr)

	disable := os.Getenv("DISABLE_HTTP2") == "true" ||
		(proxyActive(cfg.Proxy, os.Getenv) && os.Getenv("FORCE_HTTP2") != "true")
	if disable {
		tr.ForceAttemptHTTP2 = false
		tr.TLSNextProto = make(map[string]func(string, *tls.Conn) nethttp.RoundTripper)
	}

	client.Transport = tr
	return client, nil
}
