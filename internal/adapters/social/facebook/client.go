// Package facebook implements the Platform Adapter contract for Facebook
// Page video posts (spec §4.3.2): a single POST to the page's /videos
// endpoint with file_url and description.
//
// Adapted from the teacher's adapters/social/facebook client, trimmed from
// its full OAuth+post surface to the publish-only contract this spec's
// Worker dispatches through.
package facebook

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	social "github.com/techappsUT/social-publisher/internal/adapters/social"
)

const (
	graphBaseURL = "https://graph.facebook.com/v21.0"
	httpTimeout  = 30 * time.Second
)

// Client publishes page videos through the Facebook Graph API.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient builds a Facebook adapter.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{Timeout: httpTimeout},
		baseURL:    graphBaseURL,
	}
}

type videoResponse struct {
	ID    string `json:"id"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    int    `json:"code"`
}

// Publish implements social.Adapter.
func (c *Client) Publish(ctx context.Context, creds social.Credentials, content social.Content, log social.Logger) (*social.Result, error) {
	pageID := creds.PlatformUserID
	endpoint := fmt.Sprintf("%s/%s/videos", c.baseURL, pageID)

	form := url.Values{}
	form.Set("file_url", content.VideoURL)
	form.Set("description", content.Caption)
	form.Set("access_token", creds.AccessToken)

	log.Info("facebook: posting page video", "page_id", pageID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("facebook: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error("facebook: request failed", "error", err.Error())
		return nil, fmt.Errorf("facebook: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	var parsed videoResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("facebook: decode response: %w", err)
	}

	if resp.StatusCode != http.StatusOK || parsed.Error != nil {
		msg := string(body)
		if parsed.Error != nil {
			msg = parsed.Error.Message
		}
		log.Error("facebook: publish rejected", "status", resp.StatusCode, "message", msg)
		return nil, fmt.Errorf("facebook: publish failed (%d): %s", resp.StatusCode, msg)
	}

	log.Info("facebook: video posted", "post_id", parsed.ID)

	return &social.Result{
		Status:      "published",
		PlatformID:  parsed.ID,
		URL:         fmt.Sprintf("https://www.facebook.com/%s", parsed.ID),
		PublishedAt: time.Now().UTC(),
	}, nil
}
