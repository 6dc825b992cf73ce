package fragments

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Config contains configuration for the fragments API client.
//
// Example configuration (HCL):
//
//	api {
//	  base_url   = "http://localhost:8080"
//	  timeout    = "30s"
//	  tls_verify = true
//	}
type Config struct {
	// BaseURL is the base URL of the fragments service, without the /v1 prefix.
	// Example: "http://ec2-54-237-216-221.compute-1.amazonaws.com:8080"
	BaseURL string `json:"baseUrl"`

	// TLSVerify controls TLS certificate verification.
	// Set to false only for development with self-signed certs.
	TLSVerify *bool `json:"tlsVerify,omitempty"`

	// Timeout for a single API request.
	// Default: 30 seconds
	Timeout time.Duration `json:"timeout,omitempty"`

	// Concurrency bounds the number of requests GetFragmentDataAll has in
	// flight at once.
	// Default: 4
	Concurrency int `json:"concurrency,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	tlsVerify := true
	return &Config{
		TLSVerify:   &tlsVerify,
		Timeout:     30 * time.Second,
		Concurrency: 4,
	}
}

// applyDefaults fills zero values from DefaultConfig.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.TLSVerify == nil {
		c.TLSVerify = defaults.TLSVerify
	}
	if c.Timeout == 0 {
		c.Timeout = defaults.Timeout
	}
	if c.Concurrency == 0 {
		c.Concurrency = defaults.Concurrency
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}

	parsedURL, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base_url: %w", err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("base_url must use http or https scheme, got: %s", parsedURL.Scheme)
	}

	if parsedURL.Host == "" {
		return fmt.Errorf("base_url must include a host")
	}

	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative, got: %v", c.Timeout)
	}

	if c.Concurrency < 0 {
		return fmt.Errorf("concurrency must be non-negative, got: %d", c.Concurrency)
	}

	return nil
}

// NewHTTPClient creates a configured HTTP client for the fragments API.
func (c *Config) NewHTTPClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = 10
	transport.IdleConnTimeout = 90 * time.Second

	if c.TLSVerify != nil && !*c.TLSVerify {
		transport.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: true,
		}
	}

	return &http.Client{
		Timeout:   c.Timeout,
		Transport: transport,
	}
}
