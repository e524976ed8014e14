// Package instagram implements the Platform Adapter contract for
// Instagram Reels publishing (spec §4.3.1): fetch the blob, create a
// resumable media container, upload it in 5 MiB chunks, poll container
// status, then publish.
//
// Grounded on other_examples' Instagram Graph API client (container
// create / poll / publish step logging) and on the chunked-resumable
// upload shape the teacher's Twitter adapter already uses for its own
// INIT/APPEND/FINALIZE protocol.
package instagram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	social "github.com/techappsUT/social-publisher/internal/adapters/social"
)

const (
	graphBaseURL = "https://graph.facebook.com/v21.0"

	chunkSize       = 5 * 1024 * 1024
	pollAttempts    = 5
	pollInterval    = 3 * time.Second
	overallBudget   = 15 * time.Second
	downloadTimeout = 60 * time.Second
	chunkPutTimeout = 60 * time.Second
	httpJSONTimeout = 15 * time.Second
)

// Client publishes Reels through the Instagram Graph API's resumable
// container protocol.
type Client struct {
	httpClient *http.Client
	blobClient *http.Client
	baseURL    string
}

// NewClient builds an Instagram adapter. blobClient carries no Timeout
// of its own — http.Client.Timeout caps the whole exchange regardless
// of context, which would otherwise clamp downloadToScratch's and each
// chunk PUT's own longer context.WithTimeout deadlines down to
// httpJSONTimeout; their own context is the only deadline that applies
// to blob transfers.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{Timeout: httpJSONTimeout},
		blobClient: &http.Client{},
		baseURL:    graphBaseURL,
	}
}

type containerResponse struct {
	ID        string `json:"id"`
	UploadURI string `json:"uri"`
}

type containerStatus struct {
	StatusCode string `json:"status_code"` // IN_PROGRESS, FINISHED, ERROR, PUBLISHED
}

type publishResponse struct {
	ID string `json:"id"`
}

// Publish implements social.Adapter, executing spec §4.3.1's five steps.
func (c *Client) Publish(ctx context.Context, creds social.Credentials, content social.Content, log social.Logger) (*social.Result, error) {
	deadline := time.Now().Add(overallBudget)

	// Step 1: fetch the blob to local scratch.
	scratchPath, size, err := c.downloadToScratch(ctx, content.VideoURL, log)
	if err != nil {
		return nil, fmt.Errorf("instagram: download: %w", err)
	}
	defer os.Remove(scratchPath)

	// Step 2: create the resumable container.
	containerID, uploadURI, err := c.createContainer(ctx, creds, content, size, log)
	if err != nil {
		return nil, fmt.Errorf("instagram: create container: %w", err)
	}

	// Step 3: upload in 5 MiB chunks.
	if err := c.uploadChunks(ctx, uploadURI, creds, scratchPath, size, log); err != nil {
		return nil, fmt.Errorf("instagram: chunk upload: %w", err)
	}

	// Step 4: poll up to 5 times at 3s intervals.
	finished := false
	for attempt := 0; attempt < pollAttempts; attempt++ {
		status, err := c.pollContainer(ctx, creds, containerID, log)
		if err != nil {
			return nil, fmt.Errorf("instagram: poll: %w", err)
		}
		switch status {
		case "FINISHED":
			finished = true
		case "ERROR":
			log.Error("instagram: container entered ERROR state", "container_id", containerID)
			return nil, fmt.Errorf("instagram: container %s failed processing", containerID)
		}
		if finished || time.Now().After(deadline) {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(pollInterval):
		}
	}

	if !finished {
		// Step 5: budget exhausted while still processing. This is a
		// SUCCESS terminal state per spec §4.3.1/§9 — the platform
		// finalizes autonomously; no back-verification is performed.
		// TODO: a secondary reconciliation poll job could later promote
		// this to a real media_id (spec §9 open question).
		log.Info("instagram: processing budget exhausted, deferring to platform", "container_id", containerID)
		return &social.Result{
			Status:      "processing",
			PlatformID:  containerID,
			PublishedAt: time.Now().UTC(),
		}, nil
	}

	// Step 4 continued: publish the finished container.
	mediaID, err := c.publishContainer(ctx, creds, containerID, log)
	if err != nil {
		return nil, fmt.Errorf("instagram: publish: %w", err)
	}

	return &social.Result{
		Status:      "published",
		PlatformID:  mediaID,
		PublishedAt: time.Now().UTC(),
	}, nil
}

func (c *Client) downloadToScratch(ctx context.Context, videoURL string, log social.Logger) (string, int64, error) {
	dlCtx, cancel := context.WithTimeout(ctx, downloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(dlCtx, http.MethodGet, videoURL, nil)
	if err != nil {
		return "", 0, err
	}
	resp, err := c.blobClient.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", 0, fmt.Errorf("fetch video_url failed (%d)", resp.StatusCode)
	}

	f, err := os.CreateTemp("", "ig-reel-*.mp4")
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	size, err := io.Copy(f, resp.Body)
	if err != nil {
		os.Remove(f.Name())
		return "", 0, err
	}
	log.Info("instagram: downloaded video to scratch", "bytes", size)
	return f.Name(), size, nil
}

func (c *Client) createContainer(ctx context.Context, creds social.Credentials, content social.Content, size int64, log social.Logger) (containerID, uploadURI string, err error) {
	form := url.Values{}
	form.Set("media_type", "REELS")
	form.Set("upload_type", "resumable")
	form.Set("file_size", fmt.Sprintf("%d", size))
	form.Set("caption", content.Caption)
	form.Set("share_to_feed", "true")
	form.Set("access_token", creds.AccessToken)

	endpoint := fmt.Sprintf("%s/%s/media?%s", c.baseURL, creds.PlatformUserID, form.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return "", "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("container create failed (%d): %s", resp.StatusCode, string(body))
	}

	var parsed containerResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", "", err
	}
	log.Info("instagram: container created", "container_id", parsed.ID)
	return parsed.ID, parsed.UploadURI, nil
}

func (c *Client) uploadChunks(ctx context.Context, uploadURI string, creds social.Credentials, path string, size int64, log social.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var offset int64
	chunkNum := 0
	total := (size + chunkSize - 1) / chunkSize

	for offset < size {
		length := int64(chunkSize)
		if remaining := size - offset; remaining < length {
			length = remaining
		}
		buf := make([]byte, length)
		if _, err := io.ReadFull(f, buf); err != nil {
			return fmt.Errorf("read chunk at offset %d: %w", offset, err)
		}

		chunkNum++
		log.Info("instagram: uploading chunk", "chunk", chunkNum, "of", total, "offset", offset)

		putCtx, cancel := context.WithTimeout(ctx, chunkPutTimeout)
		req, err := http.NewRequestWithContext(putCtx, http.MethodPost, uploadURI, bytes.NewReader(buf))
		if err != nil {
			cancel()
			return err
		}
		req.Header.Set("Authorization", "OAuth "+creds.AccessToken)
		req.Header.Set("offset", fmt.Sprintf("%d", offset))
		req.Header.Set("file_size", fmt.Sprintf("%d", size))
		req.ContentLength = length

		resp, err := c.blobClient.Do(req)
		if err != nil {
			cancel()
			return fmt.Errorf("chunk %d/%d: %w", chunkNum, total, err)
		}
		status := resp.StatusCode
		resp.Body.Close()
		cancel()

		switch status {
		case http.StatusOK, http.StatusCreated, 206:
			offset += length
		default:
			log.Error("instagram: chunk rejected", "chunk", chunkNum, "status", status)
			return fmt.Errorf("chunk %d/%d rejected with status %d", chunkNum, total, status)
		}
	}
	return nil
}

func (c *Client) pollContainer(ctx context.Context, creds social.Credentials, containerID string, log social.Logger) (string, error) {
	endpoint := fmt.Sprintf("%s/%s?fields=status_code&access_token=%s", c.baseURL, containerID, url.QueryEscape(creds.AccessToken))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var parsed containerStatus
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", err
	}
	log.Info("instagram: poll", "container_id", containerID, "status_code", parsed.StatusCode)
	return parsed.StatusCode, nil
}

func (c *Client) publishContainer(ctx context.Context, creds social.Credentials, containerID string, log social.Logger) (string, error) {
	form := url.Values{}
	form.Set("creation_id", containerID)
	form.Set("access_token", creds.AccessToken)

	endpoint := fmt.Sprintf("%s/%s/media_publish?%s", c.baseURL, creds.PlatformUserID, form.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("publish failed (%d): %s", resp.StatusCode, string(body))
	}

	var parsed publishResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", err
	}
	log.Info("instagram: published", "media_id", parsed.ID)
	return parsed.ID, nil
}
