// Package tiktok implements the Platform Adapter contract for TikTok
// video posts (spec §4.3.6): download the blob, init a single-chunk
// upload session, PUT the blob with a retry ladder on timeout, then
// confirm via the publish status endpoint.
package tiktok

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
	"unicode/utf8"

	social "github.com/techappsUT/social-publisher/internal/adapters/social"
)

const (
	apiBaseURL = "https://open.tiktokapis.com/v2"

	maxTitleChars   = 150
	httpTimeout     = 30 * time.Second
	downloadTimeout = 120 * time.Second
	maxPutAttempts  = 3
)

// putTimeouts is the exponential timeout ladder spec §4.3.6 mandates:
// 3, 6, then 9 minutes across up to three attempts.
var putTimeouts = []time.Duration{3 * time.Minute, 6 * time.Minute, 9 * time.Minute}

// Client publishes videos through TikTok's Content Posting API.
type Client struct {
	httpClient *http.Client
	blobClient *http.Client
}

// NewClient builds a TikTok adapter. blobClient carries no Timeout of
// its own — http.Client.Timeout caps the whole exchange regardless of
// context, which would otherwise clamp download's context and every
// putOnce attempt to httpTimeout instead of the 3m/6m/9m ladder; their
// own context.WithTimeout is the only deadline that applies to them.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{Timeout: httpTimeout},
		blobClient: &http.Client{},
	}
}

type initRequest struct {
	PostInfo   postInfo   `json:"post_info"`
	SourceInfo sourceInfo `json:"source_info"`
}

type postInfo struct {
	Title            string `json:"title"`
	PrivacyLevel     string `json:"privacy_level"`
	DisableDuet      bool   `json:"disable_duet"`
	DisableComment   bool   `json:"disable_comment"`
	DisableStitch    bool   `json:"disable_stitch"`
}

type sourceInfo struct {
	Source          string `json:"source"`
	VideoSize       int64  `json:"video_size"`
	ChunkSize       int64  `json:"chunk_size"`
	TotalChunkCount int    `json:"total_chunk_count"`
}

type initResponse struct {
	Data struct {
		PublishID string `json:"publish_id"`
		UploadURL string `json:"upload_url"`
	} `json:"data"`
	Error apiError `json:"error"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type statusResponse struct {
	Data struct {
		Status string `json:"status"`
	} `json:"data"`
	Error apiError `json:"error"`
}

// httpStatusError marks a response whose status code is the terminal
// rejection spec §4.3.6 says must not be retried (any 4xx/5xx).
type httpStatusError struct {
	status int
	body   string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("rejected (%d): %s", e.status, e.body)
}

// Publish implements social.Adapter.
func (c *Client) Publish(ctx context.Context, creds social.Credentials, content social.Content, log social.Logger) (*social.Result, error) {
	blob, err := c.download(ctx, content.VideoURL, log)
	if err != nil {
		return nil, fmt.Errorf("tiktok: download: %w", err)
	}

	publishID, uploadURL, err := c.initUpload(ctx, creds, content, int64(len(blob)), log)
	if err != nil {
		return nil, fmt.Errorf("tiktok: init: %w", err)
	}

	if err := c.putWithRetry(ctx, creds, uploadURL, blob, log); err != nil {
		return nil, fmt.Errorf("tiktok: upload: %w", err)
	}

	if err := c.confirmStatus(ctx, creds, publishID, log); err != nil {
		return nil, fmt.Errorf("tiktok: confirm: %w", err)
	}

	return &social.Result{
		Status:      "published",
		PlatformID:  publishID,
		PublishedAt: time.Now().UTC(),
	}, nil
}

func (c *Client) download(ctx context.Context, videoURL string, log social.Logger) ([]byte, error) {
	dlCtx, cancel := context.WithTimeout(ctx, downloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(dlCtx, http.MethodGet, videoURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.blobClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch video_url failed (%d)", resp.StatusCode)
	}
	blob, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	log.Info("tiktok: downloaded video", "bytes", len(blob))
	return blob, nil
}

// truncateTitle elides s to at most maxTitleChars runes, never splitting
// a multi-byte UTF-8 rune.
func truncateTitle(s string) string {
	if utf8.RuneCountInString(s) <= maxTitleChars {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxTitleChars])
}

func (c *Client) initUpload(ctx context.Context, creds social.Credentials, content social.Content, size int64, log social.Logger) (publishID, uploadURL string, err error) {
	title := truncateTitle(content.Caption)

	payload := initRequest{
		PostInfo: postInfo{
			Title:        title,
			PrivacyLevel: "SELF_ONLY",
		},
		SourceInfo: sourceInfo{
			Source:          "FILE_UPLOAD",
			VideoSize:       size,
			ChunkSize:       size,
			TotalChunkCount: 1,
		},
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", "", err
	}

	log.Info("tiktok: initializing upload", "video_size", size)

	endpoint := apiBaseURL + "/post/publish/video/init/"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(raw))
	if err != nil {
		return "", "", err
	}
	req.Header.Set("Authorization", "Bearer "+creds.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		log.Error("tiktok: init rejected", "status", resp.StatusCode, "body", string(body))
		return "", "", fmt.Errorf("init rejected (%d): %s", resp.StatusCode, string(body))
	}

	var parsed initResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", "", err
	}
	if parsed.Error.Code != "" && parsed.Error.Code != "ok" {
		return "", "", fmt.Errorf("init error: %s", parsed.Error.Message)
	}
	return parsed.Data.PublishID, parsed.Data.UploadURL, nil
}

// putWithRetry uploads the blob, retrying only on context-deadline /
// network timeouts using the 3m/6m/9m ladder (spec §4.3.6). A 4xx/5xx
// response is terminal and is never retried.
func (c *Client) putWithRetry(ctx context.Context, creds social.Credentials, uploadURL string, blob []byte, log social.Logger) error {
	var lastErr error
	for attempt := 0; attempt < maxPutAttempts; attempt++ {
		timeout := putTimeouts[attempt]
		log.Info("tiktok: uploading chunk", "attempt", attempt+1, "timeout", timeout)

		err := c.putOnce(ctx, creds, uploadURL, blob, timeout)
		if err == nil {
			return nil
		}

		var statusErr *httpStatusError
		if errors.As(err, &statusErr) {
			log.Error("tiktok: upload rejected, not retrying", "status", statusErr.status)
			return err
		}

		var netErr net.Error
		if !errors.Is(err, context.DeadlineExceeded) && !(errors.As(err, &netErr) && netErr.Timeout()) {
			log.Error("tiktok: upload failed, not retrying", "error", err.Error())
			return err
		}

		log.Warn("tiktok: upload attempt timed out", "attempt", attempt+1, "error", err.Error())
		lastErr = err
	}
	return fmt.Errorf("exhausted %d attempts: %w", maxPutAttempts, lastErr)
}

func (c *Client) putOnce(ctx context.Context, creds social.Credentials, uploadURL string, blob []byte, timeout time.Duration) error {
	putCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(putCtx, http.MethodPut, uploadURL, bytes.NewReader(blob))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+creds.AccessToken)
	req.Header.Set("Content-Type", "video/mp4")
	req.Header.Set("Content-Range", fmt.Sprintf("bytes 0-%d/%d", len(blob)-1, len(blob)))
	req.ContentLength = int64(len(blob))

	resp, err := c.blobClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return &httpStatusError{status: resp.StatusCode, body: string(body)}
	}
	return nil
}

func (c *Client) confirmStatus(ctx context.Context, creds social.Credentials, publishID string, log social.Logger) error {
	payload := map[string]string{"publish_id": publishID}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	log.Info("tiktok: confirming publish status", "publish_id", publishID)

	endpoint := apiBaseURL + "/post/publish/status/fetch/"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+creds.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		log.Error("tiktok: status fetch rejected", "status", resp.StatusCode, "body", string(body))
		return fmt.Errorf("status fetch rejected (%d): %s", resp.StatusCode, string(body))
	}

	var parsed statusResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return err
	}
	log.Info("tiktok: publish status", "publish_id", publishID, "status", parsed.Data.Status)
	return nil
}
