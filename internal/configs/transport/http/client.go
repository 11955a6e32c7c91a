package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sbilibin2017/gophrt/internal/configs/tlsconfig"
)

// Opt defines a function type that configures a *resty.Client and may return an error.
// It is used for modular configuration of the client.
type Opt func(*resty.Client) error

// New creates and returns a new instance of resty.Client with the given base URL and options.
// Options are passed as a slice of Opt functions for flexible client configuration.
func New(baseURL string, opts ...Opt) (*resty.Client, error) {
	client := resty.New().SetBaseURL(baseURL)

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(client); err != nil {
			return nil, err
		}
	}

	return client, nil
}

// RetryPolicy describes the parameters for HTTP request retry logic.
type RetryPolicy struct {
	Count   int           // Number of retry attempts
	Wait    time.Duration // Wait time between retries
	MaxWait time.Duration // Maximum total wait time across retries
}

// WithRetryPolicy returns an Opt that applies the first valid retry policy from the provided list.
// A policy is considered valid if at least one of its fields is greater than zero.
// If no valid policies are found, the client remains unchanged.
func WithRetryPolicy(policies ...RetryPolicy) Opt {
	return func(c *resty.Client) error {
		for _, policy := range policies {
			if policy.Count > 0 || policy.Wait > 0 || policy.MaxWait > 0 {
				if policy.Count > 0 {
					c.SetRetryCount(policy.Count)
				}
				if policy.Wait > 0 {
					c.SetRetryWaitTime(policy.Wait)
				}
				if policy.MaxWait > 0 {
					c.SetRetryMaxWaitTime(policy.MaxWait)
				}
				break
			}
		}
		return nil
	}
}

// WithTimeout returns an Opt that sets the overall request timeout to the
// first positive duration in timeouts.
func WithTimeout(timeouts ...time.Duration) Opt {
	return func(c *resty.Client) error {
		for _, timeout := range timeouts {
			if timeout > 0 {
				c.SetTimeout(timeout)
				break
			}
		}
		return nil
	}
}

// WithTLS returns an Opt that builds a TLS configuration from opts and
// installs it on the client transport. Without opts the transport defaults are kept.
func WithTLS(opts ...tlsconfig.Opt) Opt {
	return func(c *resty.Client) error {
		if len(opts) == 0 {
			return nil
		}
		cfg, err := tlsconfig.New(opts...)
		if err != nil {
			return fmt.Errorf("tls: %w", err)
		}
		c.SetTLSClientConfig(cfg)
		return nil
	}
}

// WithProxy returns an Opt that routes requests through proxyURL.
// An empty value leaves the environment proxy settings in place.
func WithProxy(proxyURL string) Opt {
	return func(c *resty.Client) error {
		if strings.TrimSpace(proxyURL) == "" {
			return nil
		}
		u, err := url.Parse(proxyURL)
		if err != nil {
			return fmt.Errorf("proxy: %w", err)
		}
		if u.Scheme == "" || u.Host == "" {
			return errors.New("proxy: url must have a scheme and a host")
		}
		c.SetProxy(u.String())
		return nil
	}
}

// WithUserAgent returns an Opt that sets the User-Agent header on every request.
func WithUserAgent(userAgent string) Opt {
	return func(c *resty.Client) error {
		if userAgent != "" {
			c.SetHeader("User-Agent", userAgent)
		}
		return nil
	}
}

// WithLogger returns an Opt that sends resty's own diagnostics to logger.
// *zap.SugaredLogger satisfies resty.Logger.
func WithLogger(logger resty.Logger) Opt {
	return func(c *resty.Client) error {
		if logger != nil {
			c.SetLogger(logger)
		}
		return nil
	}
}

// WithTransport returns an Opt that replaces the underlying round tripper.
func WithTransport(rt http.RoundTripper) Opt {
	return func(c *resty.Client) error {
		if rt == nil {
			return errors.New("transport: round tripper is nil")
		}
		c.SetTransport(rt)
		return nil
	}
}
