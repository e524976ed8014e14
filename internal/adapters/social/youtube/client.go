// Package youtube implements the Platform Adapter contract for YouTube
// Shorts publishing (spec §4.3.4): initialize a resumable upload session,
// then PUT the blob to the returned Location URL.
//
// Adapted from the teacher's adapters/social client shape; the resumable
// upload protocol itself is grounded directly on spec §4.3.4's exact
// wire description, since the teacher repo had no YouTube adapter.
package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	social "github.com/techappsUT/social-publisher/internal/adapters/social"
)

const (
	initURL = "https://www.googleapis.com/upload/youtube/v3/videos?uploadType=resumable&part=snippet,status"

	maxTitleChars   = 100
	shortsTag       = "#Shorts"
	httpTimeout     = 30 * time.Second
	downloadTimeout = 120 * time.Second
	uploadTimeout   = 10 * time.Minute
)

// Client publishes videos through YouTube's resumable upload protocol.
type Client struct {
	httpClient *http.Client
	blobClient *http.Client
}

// NewClient builds a YouTube adapter. blobClient carries no Timeout of
// its own — http.Client.Timeout caps the whole exchange regardless of
// context, which would otherwise clamp download's and putBlob's own
// longer context.WithTimeout deadlines down to httpTimeout; their
// context is the only deadline that applies to blob transfers.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{Timeout: httpTimeout},
		blobClient: &http.Client{},
	}
}

type initRequest struct {
	Snippet snippet `json:"snippet"`
	Status  status  `json:"status"`
}

type snippet struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags,omitempty"`
	CategoryID  string   `json:"categoryId"`
}

type status struct {
	PrivacyStatus           string `json:"privacyStatus"`
	SelfDeclaredMadeForKids bool   `json:"selfDeclaredMadeForKids"`
}

type videoResponse struct {
	ID string `json:"id"`
}

// Publish implements social.Adapter.
func (c *Client) Publish(ctx context.Context, creds social.Credentials, content social.Content, log social.Logger) (*social.Result, error) {
	blob, contentType, err := c.download(ctx, content.VideoURL, log)
	if err != nil {
		return nil, fmt.Errorf("youtube: download: %w", err)
	}

	uploadURL, err := c.initResumable(ctx, creds, content, log)
	if err != nil {
		return nil, fmt.Errorf("youtube: init: %w", err)
	}

	videoID, err := c.putBlob(ctx, uploadURL, blob, contentType, log)
	if err != nil {
		return nil, fmt.Errorf("youtube: upload: %w", err)
	}

	return &social.Result{
		Status:      "published",
		PlatformID:  videoID,
		URL:         fmt.Sprintf("https://youtube.com/shorts/%s", videoID),
		PublishedAt: time.Now().UTC(),
	}, nil
}

func (c *Client) download(ctx context.Context, videoURL string, log social.Logger) ([]byte, string, error) {
	dlCtx, cancel := context.WithTimeout(ctx, downloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(dlCtx, http.MethodGet, videoURL, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := c.blobClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("fetch video_url failed (%d)", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "video/mp4"
	}

	blob, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}
	log.Info("youtube: downloaded video", "bytes", len(blob))
	return blob, contentType, nil
}

func (c *Client) initResumable(ctx context.Context, creds social.Credentials, content social.Content, log social.Logger) (string, error) {
	description := content.Caption
	if !strings.Contains(description, shortsTag) {
		if description != "" {
			description += " "
		}
		description += shortsTag
	}

	title := content.Caption
	if utf8.RuneCountInString(title) > maxTitleChars {
		runes := []rune(title)
		title = string(runes[:maxTitleChars])
	}

	payload := initRequest{
		Snippet: snippet{
			Title:       title,
			Description: description,
			CategoryID:  "22",
		},
		Status: status{
			PrivacyStatus:           "public",
			SelfDeclaredMadeForKids: false,
		},
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	log.Info("youtube: initializing resumable upload")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, initURL, strings.NewReader(string(raw)))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+creds.AccessToken)
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	req.Header.Set("X-Upload-Content-Type", "video/mp4")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		log.Error("youtube: init rejected", "status", resp.StatusCode, "body", string(body))
		return "", fmt.Errorf("init rejected (%d): %s", resp.StatusCode, string(body))
	}

	location := resp.Header.Get("Location")
	if location == "" {
		return "", fmt.Errorf("init response missing Location header")
	}
	return location, nil
}

func (c *Client) putBlob(ctx context.Context, uploadURL string, blob []byte, contentType string, log social.Logger) (string, error) {
	putCtx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	log.Info("youtube: uploading blob", "bytes", len(blob))

	req, err := http.NewRequestWithContext(putCtx, http.MethodPut, uploadURL, bytes.NewReader(blob))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", contentType)
	req.ContentLength = int64(len(blob))
	req.Header.Set("Content-Length", strconv.Itoa(len(blob)))

	resp, err := c.blobClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		log.Error("youtube: upload rejected", "status", resp.StatusCode, "body", string(body))
		return "", fmt.Errorf("upload rejected (%d): %s", resp.StatusCode, string(body))
	}

	var parsed videoResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", err
	}
	log.Info("youtube: video published", "video_id", parsed.ID)
	return parsed.ID, nil
}
