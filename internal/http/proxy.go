package http

import (
	"crypto/tls"
	"fmt"
	"net"
	nethttp "net/http"
	"net/url"
	"strings"

	ntlmssp "github.com/Azure/go-ntlmssp"
	"golang.org/x/net/http/httpproxy"

	"github.com/dart-platform/dart-cli/internal/config"
	"github.com/dart-platform/dart-cli/internal/constants"
	"github.com/dart-platform/dart-cli/internal/logging"
)

// ConfigureHTTPClient configures an HTTP client with proxy settings
func ConfigureHTTPClient(p config.ProxyConfig, logger *logging.Logger) (*nethttp.Client, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	transport := newTransport()

	switch strings.ToLower(p.Mode) {
	case config.ProxyNone, "":
		transport.Proxy = nil

	case config.ProxySystem:
		transport.Proxy = nethttp.ProxyFromEnvironment

	case config.ProxyNTLM:
		// Fall back to a direct connection if the profile is incomplete
		if p.Host == "" {
			logger.Warn().Msg("Proxy mode is ntlm but host is missing - falling back to no-proxy mode")
			return &nethttp.Client{Transport: transport, Timeout: constants.HTTPRequestTimeout}, nil
		}

		transport.Proxy = proxyFuncWithBypass(buildProxyURL(p), p.NoProxy, logger)

		return &nethttp.Client{
			Transport: ntlmssp.Negotiator{
				RoundTripper: transport,
			},
			Timeout: constants.HTTPRequestTimeout,
		}, nil

	case config.ProxyBasic:
		if p.Host == "" {
			logger.Warn().Msg("Proxy mode is basic but host is missing - falling back to no-proxy mode")
			return &nethttp.Client{Transport: transport, Timeout: constants.HTTPRequestTimeout}, nil
		}

		transport.Proxy = proxyFuncWithBypass(buildProxyURL(p), p.NoProxy, logger)

		if p.User != "" && p.Password == "" {
			logger.Warn().Msg("Proxy user configured but password missing - proxy auth disabled")
		}

	default:
		return nil, fmt.Errorf("unsupported proxy mode: %s", p.Mode)
	}

	return &nethttp.Client{
		Transport: transport,
		Timeout:   constants.HTTPRequestTimeout,
	}, nil
}

func newTransport() *nethttp.Transport {
	return &nethttp.Transport{
		DialContext: (&net.Dialer{
			Timeout:   constants.HTTPDialTimeout,
			KeepAlive: constants.HTTPDialKeepAlive,
		}).DialContext,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   constants.MaxWorkers,
		MaxConnsPerHost:       constants.MaxWorkers,
		IdleConnTimeout:       constants.HTTPIdleConnTimeout,
		TLSHandshakeTimeout:   constants.HTTPTLSHandshakeTimeout,
		ExpectContinueTimeout: constants.HTTPExpectContinueTimeout,
	}
}

// buildProxyURL constructs a proxy URL from config
func buildProxyURL(p config.ProxyConfig) *url.URL {
	port := p.Port
	if port == 0 {
		port = 8080
	}

	proxyURL := &url.URL{
		Scheme: "http",
		Host:   fmt.Sprintf("%s:%d", p.Host, port),
	}

	// Empty password in the URL breaks some proxies
	if p.User != "" && p.Password != "" {
		proxyURL.User = url.UserPassword(p.User, p.Password)
	}

	return proxyURL
}

// proxyFuncWithBypass returns a proxy function that respects the NoProxy bypass list.
// If noProxy is empty, behaves identically to nethttp.ProxyURL.
func proxyFuncWithBypass(proxyURL *url.URL, noProxy string, logger *logging.Logger) func(*nethttp.Request) (*url.URL, error) {
	if noProxy == "" {
		return nethttp.ProxyURL(proxyURL)
	}
	cfg := httpproxy.Config{
		HTTPProxy:  proxyURL.String(),
		HTTPSProxy: proxyURL.String(),
		NoProxy:    noProxy,
	}
	proxyFunc := cfg.ProxyFunc()
	return func(req *nethttp.Request) (*url.URL, error) {
		result, err := proxyFunc(req.URL)
		if result == nil {
			logger.Debug().Str("host", req.URL.Host).Msg("proxy bypass (direct connection)")
		} else {
			logger.Debug().Str("host", req.URL.Host).Str("proxy", result.Host).Msg("proxied")
		}
		return result, err
	}
}

// proxyActive reports whether requests from this profile go through a proxy.
func proxyActive(p config.ProxyConfig, getenv func(string) string) bool {
	switch strings.ToLower(p.Mode) {
	case config.ProxyNone, "":
		return false
	case config.ProxySystem:
		return getenv("HTTP_PROXY") != "" || getenv("HTTPS_PROXY") != "" ||
			getenv("http_proxy") != "" || getenv("https_proxy") != ""
	default:
		return true
	}
}
