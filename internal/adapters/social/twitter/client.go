// Package twitter implements the Platform Adapter contract for Twitter/X
// (spec §4.3.3): download the blob, chunked INIT/APPEND/FINALIZE media
// upload signed with OAuth 1.0a HMAC-SHA1, a processing STATUS poll, then
// tweet creation via v2 /tweets.
//
// Adapted from the teacher's adapters/social/twitter client for HTTP
// structure and error wrapping; the OAuth2-bearer auth and v1.1
// statuses/update flow it used do not apply here — Twitter's video path
// is OAuth 1.0a signed end-to-end per spec.
package twitter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"
	"unicode/utf8"

	social "github.com/techappsUT/social-publisher/internal/adapters/social"
)

const (
	uploadBaseURL = "https://upload.twitter.com/1.1/media/upload.json"
	tweetsURL     = "https://api.twitter.com/2/tweets"

	maxBlobSize      = 512 * 1024 * 1024
	chunkSize        = 5 * 1024 * 1024
	statusPollBudget = 300 * time.Second
	maxTweetChars    = 280
	httpTimeout      = 30 * time.Second
	downloadTimeout  = 120 * time.Second
)

// Client publishes tweets with attached video through Twitter's v1.1
// chunked media upload and v2 tweet creation endpoints.
type Client struct {
	httpClient *http.Client
	blobClient *http.Client
	signer     *oauth1Signer
}

// NewClient builds a Twitter adapter. consumerKey/consumerSecret are the
// app-level OAuth 1.0a credentials (spec §6 TWITTER_API_KEY/_SECRET);
// the per-account access token and secret come from Credentials on each
// Publish call. blobClient carries no Timeout of its own — http.Client.
// Timeout caps the whole exchange regardless of context, which would
// otherwise clamp download's own longer context.WithTimeout deadline
// down to httpTimeout for a blob up to the 512 MiB cap.
func NewClient(consumerKey, consumerSecret string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: httpTimeout},
		blobClient: &http.Client{},
		signer:     newOAuth1Signer(consumerKey, consumerSecret),
	}
}

type initResponse struct {
	MediaIDString string `json:"media_id_string"`
}

type finalizeResponse struct {
	MediaIDString   string           `json:"media_id_string"`
	ProcessingInfo  *processingInfo  `json:"processing_info,omitempty"`
}

type processingInfo struct {
	State           string `json:"state"` // pending, in_progress, succeeded, failed
	CheckAfterSecs  int    `json:"check_after_secs"`
	Error           *apiError `json:"error,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
}

type tweetRequest struct {
	Text  string        `json:"text"`
	Media *tweetMediaRef `json:"media,omitempty"`
}

type tweetMediaRef struct {
	MediaIDs []string `json:"media_ids"`
}

type tweetResponse struct {
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors,omitempty"`
}

// Publish implements social.Adapter.
func (c *Client) Publish(ctx context.Context, creds social.Credentials, content social.Content, log social.Logger) (*social.Result, error) {
	blob, err := c.download(ctx, content.VideoURL, log)
	if err != nil {
		return nil, fmt.Errorf("twitter: download: %w", err)
	}

	mediaID, err := c.initUpload(ctx, creds, int64(len(blob)), log)
	if err != nil {
		return nil, fmt.Errorf("twitter: init: %w", err)
	}

	if err := c.appendChunks(ctx, creds, mediaID, blob, log); err != nil {
		return nil, fmt.Errorf("twitter: append: %w", err)
	}

	if err := c.finalizeAndAwait(ctx, creds, mediaID, log); err != nil {
		return nil, fmt.Errorf("twitter: finalize: %w", err)
	}

	tweetID, err := c.createTweet(ctx, creds, content.Caption, mediaID, log)
	if err != nil {
		return nil, fmt.Errorf("twitter: create tweet: %w", err)
	}

	return &social.Result{
		Status:      "published",
		PlatformID:  tweetID,
		URL:         fmt.Sprintf("https://twitter.com/i/web/status/%s", tweetID),
		PublishedAt: time.Now().UTC(),
		Extra:       map[string]string{"tweet_id": tweetID, "media_id": mediaID},
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

	limited := io.LimitReader(resp.Body, maxBlobSize+1)
	blob, err := io.ReadAll(limited)
	if err != nil {
		return nil, err
	}
	if len(blob) > maxBlobSize {
		return nil, fmt.Errorf("video exceeds %d byte cap", maxBlobSize)
	}
	log.Info("twitter: downloaded video", "bytes", len(blob))
	return blob, nil
}

func (c *Client) initUpload(ctx context.Context, creds social.Credentials, totalBytes int64, log social.Logger) (string, error) {
	params := url.Values{}
	params.Set("command", "INIT")
	params.Set("media_category", "tweet_video")
	params.Set("total_bytes", strconv.FormatInt(totalBytes, 10))
	params.Set("media_type", "video/mp4")

	log.Info("twitter: INIT", "total_bytes", totalBytes)

	body, err := c.signedForm(ctx, creds, http.MethodPost, uploadBaseURL, params)
	if err != nil {
		return "", err
	}
	var parsed initResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", err
	}
	return parsed.MediaIDString, nil
}

func (c *Client) appendChunks(ctx context.Context, creds social.Credentials, mediaID string, blob []byte, log social.Logger) error {
	total := (len(blob) + chunkSize - 1) / chunkSize
	for segment := 0; segment*chunkSize < len(blob); segment++ {
		start := segment * chunkSize
		end := start + chunkSize
		if end > len(blob) {
			end = len(blob)
		}
		chunk := blob[start:end]

		query := url.Values{}
		query.Set("command", "APPEND")
		query.Set("media_id", mediaID)
		query.Set("segment_index", strconv.Itoa(segment))

		log.Info("twitter: APPEND", "segment", segment, "of", total)

		if err := c.appendChunk(ctx, creds, query, chunk); err != nil {
			return fmt.Errorf("segment %d/%d: %w", segment, total, err)
		}
	}
	return nil
}

func (c *Client) appendChunk(ctx context.Context, creds social.Credentials, query url.Values, chunk []byte) error {
	reqURL := uploadBaseURL + "?" + query.Encode()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("media", "chunk")
	if err != nil {
		return err
	}
	if _, err := part.Write(chunk); err != nil {
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}

	authHeader, err := c.signer.sign(http.MethodPost, reqURL, creds.AccessToken, creds.TokenSecret, query)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", authHeader)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("append rejected (%d): %s", resp.StatusCode, string(respBody))
	}
	return nil
}

func (c *Client) finalizeAndAwait(ctx context.Context, creds social.Credentials, mediaID string, log social.Logger) error {
	params := url.Values{}
	params.Set("command", "FINALIZE")
	params.Set("media_id", mediaID)

	log.Info("twitter: FINALIZE", "media_id", mediaID)

	body, err := c.signedForm(ctx, creds, http.MethodPost, uploadBaseURL, params)
	if err != nil {
		return err
	}
	var parsed finalizeResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return err
	}

	if parsed.ProcessingInfo == nil || parsed.ProcessingInfo.State == "succeeded" {
		return nil
	}

	deadline := time.Now().Add(statusPollBudget)
	state := parsed.ProcessingInfo.State
	waitSecs := parsed.ProcessingInfo.CheckAfterSecs

	for state == "pending" || state == "in_progress" {
		if time.Now().After(deadline) {
			return fmt.Errorf("media %s still processing after %s", mediaID, statusPollBudget)
		}
		if waitSecs <= 0 {
			waitSecs = 1
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(waitSecs) * time.Second):
		}

		info, err := c.checkStatus(ctx, creds, mediaID, log)
		if err != nil {
			return err
		}
		state = info.State
		waitSecs = info.CheckAfterSecs
		if state == "failed" {
			msg := ""
			if info.Error != nil {
				msg = info.Error.Message
			}
			return fmt.Errorf("media processing failed: %s", msg)
		}
	}
	return nil
}

func (c *Client) checkStatus(ctx context.Context, creds social.Credentials, mediaID string, log social.Logger) (*processingInfo, error) {
	params := url.Values{}
	params.Set("command", "STATUS")
	params.Set("media_id", mediaID)

	log.Info("twitter: STATUS", "media_id", mediaID)

	reqURL := uploadBaseURL + "?" + params.Encode()
	authHeader, err := c.signer.sign(http.MethodGet, reqURL, creds.AccessToken, creds.TokenSecret, params)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", authHeader)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var parsed finalizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	if parsed.ProcessingInfo == nil {
		return &processingInfo{State: "succeeded"}, nil
	}
	return parsed.ProcessingInfo, nil
}

func (c *Client) signedForm(ctx context.Context, creds social.Credentials, method, rawURL string, params url.Values) ([]byte, error) {
	reqURL := rawURL + "?" + params.Encode()
	authHeader, err := c.signer.sign(method, reqURL, creds.AccessToken, creds.TokenSecret, params)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", authHeader)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("request rejected (%d): %s", resp.StatusCode, string(body))
	}
	return body, nil
}

func (c *Client) createTweet(ctx context.Context, creds social.Credentials, caption, mediaID string, log social.Logger) (string, error) {
	text := truncate(caption, maxTweetChars)

	payload := tweetRequest{
		Text:  text,
		Media: &tweetMediaRef{MediaIDs: []string{mediaID}},
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	authHeader, err := c.signer.sign(http.MethodPost, tweetsURL, creds.AccessToken, creds.TokenSecret, url.Values{})
	if err != nil {
		return "", err
	}

	log.Info("twitter: creating tweet", "media_id", mediaID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tweetsURL, bytes.NewReader(raw))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", authHeader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	var parsed tweetResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK || len(parsed.Errors) > 0 {
		log.Error("twitter: tweet creation rejected", "status", resp.StatusCode, "body", string(body))
		return "", fmt.Errorf("tweet creation failed (%d): %s", resp.StatusCode, string(body))
	}
	log.Info("twitter: tweet created", "tweet_id", parsed.Data.ID)
	return parsed.Data.ID, nil
}

// truncate elides s to at most max runes, appending "…" when cut.
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max-1]) + "…"
}
