// Package web opens http and https locators through cycleTLS, retrying
// with a sequence of browser TLS fingerprints.
package web

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Danny-Dasilva/CycleTLS/cycletls"
	"go.uber.org/zap"

	"github.com/rodrigopv/streamfetch/internal/locator"
)

// Profile holds a JA3 fingerprint and User-Agent combination.
type Profile struct {
	JA3       string `yaml:"ja3"`
	UserAgent string `yaml:"userAgent"`
}

// DefaultProfiles defines the list of profiles to try sequentially.
var DefaultProfiles = []Profile{
	{
		// Safari on macos
		JA3:       "772,4865-4866-4867-49196-49195-52393-49200-49199-52392-49162-49161-49172-49171-157-156-53-47-49160-49170-10,0-23-65281-10-11-16-5-13-18-51-45-43-27,29-23-24-25,0",
		UserAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/18.4 Safari/605.1.15",
	},
	{
		// Default Firefox profile
		JA3:       "771,4865-4867-4866-49195-49199-52393-52392-49196-49200-49162-49161-49171-49172-51-57-47-53-10,0-23-65281-10-11-35-16-5-51-43-13-45-28-21,29-23-24-25-256-257,0",
		UserAgent: "Mozilla/5.0 (X11; Ubuntu; Linux x86_64; rv:87.0) Gecko/20100101 Firefox/87.0",
	},
}

// Client opens web locators. It implements fetch.ResourceProvider for the
// http and https schemes.
type Client struct {
	client   cycletls.CycleTLS
	profiles []Profile
	log      *zap.SugaredLogger
}

// NewClient creates a Client with default cycleTLS settings. An empty
// profiles list selects DefaultProfiles.
func NewClient(profiles []Profile, log *zap.SugaredLogger) *Client {
	if len(profiles) == 0 {
		profiles = DefaultProfiles
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Client{
		client:   cycletls.Init(),
		profiles: profiles,
		log:      log,
	}
}

// Schemes lists the locator schemes served by Client.
func (c *Client) Schemes() []string {
	return []string{"http", "https"}
}

// OpenStream fetches loc and returns the response body.
// It iterates through the configured JA3/User-Agent profiles, attempting
// the request with each until one succeeds or the list is exhausted.
// A 404 or 410 response yields nil, nil: the resource has no content.
func (c *Client) OpenStream(ctx context.Context, loc locator.Locator) (io.ReadCloser, error) {
	body, _, err := c.Fetch(ctx, loc.String())
	return body, err
}

// Fetch retrieves targetURL and returns its body and the final URL reached
// after any redirects. The caller is responsible for closing the body.
func (c *Client) Fetch(ctx context.Context, targetURL string) (io.ReadCloser, string, error) {
	var lastResp cycletls.Response
	var lastErr error
	var success bool

	for i, profile := range c.profiles {
		if err := ctx.Err(); err != nil {
			return nil, targetURL, err
		}

		options := cycletls.Options{
			Body:      "",
			Ja3:       profile.JA3,
			UserAgent: profile.UserAgent,
			Headers:   map[string]string{},
		}

		resp, err := c.client.Do(targetURL, options, "GET")

		lastResp = resp
		lastErr = err

		if err != nil {
			c.log.Debugf("web: profile #%d failed for %s: error during Do(): %v", i+1, targetURL, err)
			continue
		}

		if resp.Status == 0 && (strings.Contains(resp.Body, "tls: protocol version not supported") || strings.Contains(resp.Body, "HANDSHAKE_FAILURE")) {
			c.log.Debugf("web: profile #%d failed for %s: TLS handshake error", i+1, targetURL)
			continue
		}

		if resp.Status == http.StatusForbidden {
			c.log.Debugf("web: profile #%d received 403 Forbidden for %s, trying next profile", i+1, targetURL)
			continue
		}

		success = true
		break
	}

	finalURL := lastResp.FinalUrl
	if finalURL == "" {
		finalURL = targetURL
	}

	if !success {
		errMsg := fmt.Sprintf("web: all TLS profiles failed for %s", targetURL)
		if lastErr != nil {
			return nil, finalURL, fmt.Errorf("%s: %w", errMsg, lastErr)
		} else if lastResp.Status == 0 && lastResp.Body != "" {
			errMsg = fmt.Sprintf("%s. Last response body: %s", errMsg, lastResp.Body)
		} else if lastResp.Status == http.StatusForbidden {
			errMsg = fmt.Sprintf("%s. Last attempt resulted in 403 Forbidden.", errMsg)
		}
		return nil, finalURL, fmt.Errorf("%s", errMsg)
	}

	switch lastResp.Status {
	case 0:
		errMsg := fmt.Sprintf("web: cycleTLS returned status 0 (non-TLS handshake error) for %s", finalURL)
		if lastResp.Body != "" {
			errMsg = fmt.Sprintf("%s, body: %s", errMsg, lastResp.Body)
		}
		return nil, finalURL, fmt.Errorf("%s", errMsg)
	case http.StatusOK:
	case http.StatusNotFound, http.StatusGone:
		c.log.Debugf("web: %s returned %d, treating as no content", finalURL, lastResp.Status)
		return nil, finalURL, nil
	default:
		return nil, finalURL, fmt.Errorf("web: bad status code fetching %s (final URL: %s): %d", targetURL, finalURL, lastResp.Status)
	}

	return io.NopCloser(strings.NewReader(lastResp.Body)), finalURL, nil
}
