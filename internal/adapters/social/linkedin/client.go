// Package linkedin implements the Platform Adapter contract for LinkedIn
// video posts (spec §4.3.5): register an upload asset, PUT the blob, poll
// the asset until available, then post a ugcPost referencing it.
package linkedin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	social "github.com/techappsUT/social-publisher/internal/adapters/social"
)

const (
	apiBaseURL = "https://api.linkedin.com/v2"

	pollBudget      = 120 * time.Second
	pollInterval    = 5 * time.Second
	httpTimeout     = 30 * time.Second
	downloadTimeout = 120 * time.Second
	uploadTimeout   = 5 * time.Minute
)

// Client publishes videos through LinkedIn's asset-registration protocol.
type Client struct {
	httpClient *http.Client
}

// NewClient builds a LinkedIn adapter.
func NewClient() *Client {
	return &Client{httpClient: &http.Client{Timeout: httpTimeout}}
}

type registerRequest struct {
	RegisterUploadRequest registerUploadRequest `json:"registerUploadRequest"`
}

type registerUploadRequest struct {
	Recipes           []string          `json:"recipes"`
	Owner             string            `json:"owner"`
	ServiceRelationships []serviceRelationship `json:"serviceRelationships"`
}

type serviceRelationship struct {
	RelationshipType string `json:"relationshipType"`
	Identifier       string `json:"identifier"`
}

type registerResponse struct {
	Value struct {
		Asset                  string `json:"asset"`
		UploadMechanism        struct {
			MediaUploadHTTPRequest struct {
				UploadURL string `json:"uploadUrl"`
			} `json:"com.linkedin.digitalmedia.uploading.MediaUploadHttpRequest"`
		} `json:"uploadMechanism"`
	} `json:"value"`
}

type assetStatusResponse struct {
	RecipeValues []struct {
		Status string `json:"status"`
	} `json:"recipes"`
}

type ugcPostRequest struct {
	Author          string            `json:"author"`
	LifecycleState  string            `json:"lifecycleState"`
	SpecificContent specificContent   `json:"specificContent"`
	Visibility      map[string]string `json:"visibility"`
}

type specificContent struct {
	ShareContent shareContentWrapper `json:"com.linkedin.ugc.ShareContent"`
}

type shareContentWrapper struct {
	ShareCommentary    shareCommentary `json:"shareCommentary"`
	ShareMediaCategory string          `json:"shareMediaCategory"`
	Media              []mediaRef      `json:"media"`
}

type shareCommentary struct {
	Text string `json:"text"`
}

type mediaRef struct {
	Status string `json:"status"`
	Media  string `json:"media"`
}

type ugcPostResponse struct {
	ID string `json:"id"`
}

// Publish implements social.Adapter.
func (c *Client) Publish(ctx context.Context, creds social.Credentials, content social.Content, log social.Logger) (*social.Result, error) {
	owner := fmt.Sprintf("urn:li:organization:%s", creds.PlatformUserID)

	blob, err := c.download(ctx, content.VideoURL, log)
	if err != nil {
		return nil, fmt.Errorf("linkedin: download: %w", err)
	}

	asset, uploadURL, err := c.registerUpload(ctx, creds, owner, log)
	if err != nil {
		return nil, fmt.Errorf("linkedin: register upload: %w", err)
	}

	if err := c.putBlob(ctx, creds, uploadURL, blob, log); err != nil {
		return nil, fmt.Errorf("linkedin: upload: %w", err)
	}

	if err := c.awaitAvailable(ctx, creds, asset, log); err != nil {
		return nil, fmt.Errorf("linkedin: poll: %w", err)
	}

	postID, err := c.createPost(ctx, creds, owner, asset, content.Caption, log)
	if err != nil {
		return nil, fmt.Errorf("linkedin: create post: %w", err)
	}

	return &social.Result{
		Status:      "published",
		PlatformID:  postID,
		PublishedAt: time.Now().UTC(),
		Extra:       map[string]string{"asset": asset},
	}, nil
}

func (c *Client) download(ctx context.Context, videoURL string, log social.Logger) ([]byte, error) {
	dlCtx, cancel := context.WithTimeout(ctx, downloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(dlCtx, http.MethodGet, videoURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
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
	log.Info("linkedin: downloaded video", "bytes", len(blob))
	return blob, nil
}

func (c *Client) registerUpload(ctx context.Context, creds social.Credentials, owner string, log social.Logger) (asset, uploadURL string, err error) {
	payload := registerRequest{
		RegisterUploadRequest: registerUploadRequest{
			Recipes: []string{"urn:li:digitalmediaRecipe:feedshare-video"},
			Owner:   owner,
			ServiceRelationships: []serviceRelationship{
				{RelationshipType: "OWNER", Identifier: "urn:li:userGeneratedContent"},
			},
		},
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", "", err
	}

	log.Info("linkedin: registering upload asset")

	endpoint := apiBaseURL + "/assets?action=registerUpload"
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
		log.Error("linkedin: register upload rejected", "status", resp.StatusCode, "body", string(body))
		return "", "", fmt.Errorf("register upload rejected (%d): %s", resp.StatusCode, string(body))
	}

	var parsed registerResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", "", err
	}
	return parsed.Value.Asset, parsed.Value.UploadMechanism.MediaUploadHTTPRequest.UploadURL, nil
}

func (c *Client) putBlob(ctx context.Context, creds social.Credentials, uploadURL string, blob []byte, log social.Logger) error {
	putCtx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	log.Info("linkedin: uploading blob", "bytes", len(blob))

	req, err := http.NewRequestWithContext(putCtx, http.MethodPut, uploadURL, bytes.NewReader(blob))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+creds.AccessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		log.Error("linkedin: blob upload rejected", "status", resp.StatusCode, "body", string(body))
		return fmt.Errorf("upload rejected (%d): %s", resp.StatusCode, string(body))
	}
	return nil
}

func (c *Client) awaitAvailable(ctx context.Context, creds social.Credentials, asset string, log social.Logger) error {
	deadline := time.Now().Add(pollBudget)
	for {
		status, err := c.assetStatus(ctx, creds, asset, log)
		if err != nil {
			return err
		}
		switch status {
		case "AVAILABLE", "ALLOWED":
			return nil
		case "FAILED", "PROCESSING_FAILED":
			log.Error("linkedin: asset processing failed", "asset", asset, "status", status)
			return fmt.Errorf("asset %s entered status %s", asset, status)
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("asset %s still not available after %s", asset, pollBudget)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

func (c *Client) assetStatus(ctx context.Context, creds social.Credentials, asset string, log social.Logger) (string, error) {
	endpoint := apiBaseURL + "/assets/" + assetID(asset)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+creds.AccessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var parsed assetStatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", err
	}
	status := "PROCESSING"
	if len(parsed.RecipeValues) > 0 {
		status = parsed.RecipeValues[0].Status
	}
	log.Info("linkedin: poll", "asset", asset, "status", status)
	return status, nil
}

func (c *Client) createPost(ctx context.Context, creds social.Credentials, owner, asset, caption string, log social.Logger) (string, error) {
	payload := ugcPostRequest{
		Author:         owner,
		LifecycleState: "PUBLISHED",
		SpecificContent: specificContent{
			ShareContent: shareContentWrapper{
				ShareCommentary:    shareCommentary{Text: caption},
				ShareMediaCategory: "VIDEO",
				Media: []mediaRef{
					{Status: "READY", Media: asset},
				},
			},
		},
		Visibility: map[string]string{"com.linkedin.ugc.MemberNetworkVisibility": "PUBLIC"},
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	log.Info("linkedin: creating ugcPost")

	endpoint := apiBaseURL + "/ugcPosts"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(raw))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+creds.AccessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Restli-Protocol-Version", "2.0.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		log.Error("linkedin: ugcPost rejected", "status", resp.StatusCode, "body", string(body))
		return "", fmt.Errorf("ugcPost rejected (%d): %s", resp.StatusCode, string(body))
	}

	id := resp.Header.Get("X-RestLi-Id")
	if id != "" {
		log.Info("linkedin: post created", "post_id", id)
		return id, nil
	}

	var parsed ugcPostResponse
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.ID != "" {
		return parsed.ID, nil
	}
	return asset, nil
}

func assetID(urn string) string {
	return url.PathEscape(urn)
}
