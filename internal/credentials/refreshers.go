package credentials

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"

	"github.com/techappsUT/social-publisher/internal/domain/account"
)

// metaRefresher implements facebook/instagram's policy (spec §4.2 row 1):
// long-lived tokens with no separate refresh token, re-exchanged for a
// new long-lived token starting 7 days before expiry.
type metaRefresher struct {
	httpClient   *http.Client
	appID        string
	appSecret    string
	refreshWindow time.Duration
}

func NewMetaRefresher(httpClient *http.Client, appID, appSecret string) Refresher {
	return &metaRefresher{httpClient: httpClient, appID: appID, appSecret: appSecret, refreshWindow: 7 * 24 * time.Hour}
}

func (r *metaRefresher) Window(acc *account.Account, now time.Time) bool {
	if acc.TokenExpiresAt == nil {
		return true
	}
	return now.Before(acc.TokenExpiresAt.Add(-r.refreshWindow))
}

func (r *metaRefresher) Refresh(ctx context.Context, acc *account.Account) (Refreshed, error) {
	endpoint := fmt.Sprintf(
		"https://graph.facebook.com/v21.0/oauth/access_token?grant_type=fb_exchange_token&client_id=%s&client_secret=%s&fb_exchange_token=%s",
		url.QueryEscape(r.appID), url.QueryEscape(r.appSecret), url.QueryEscape(acc.AccessToken),
	)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Refreshed{}, err
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return Refreshed{}, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return Refreshed{}, fmt.Errorf("token re-exchange rejected (%d): %s", resp.StatusCode, string(body))
	}

	var parsed struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Refreshed{}, err
	}

	expires := time.Now().Add(time.Duration(parsed.ExpiresIn) * time.Second)
	return Refreshed{AccessToken: parsed.AccessToken, ExpiresAt: &expires}, nil
}

// youtubeRefresher implements spec §4.2 row 2: refresh at-or-after
// expiry via golang.org/x/oauth2's token source, leaving the refresh
// token untouched.
type youtubeRefresher struct {
	conf *oauth2.Config
}

func NewYouTubeRefresher(clientID, clientSecret string) Refresher {
	return &youtubeRefresher{conf: &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL: "https://oauth2.googleapis.com/token",
		},
	}}
}

func (r *youtubeRefresher) Window(acc *account.Account, now time.Time) bool {
	return acc.TokenExpiresAt != nil && now.Before(*acc.TokenExpiresAt)
}

func (r *youtubeRefresher) Refresh(ctx context.Context, acc *account.Account) (Refreshed, error) {
	if acc.RefreshToken == "" {
		return Refreshed{}, fmt.Errorf("youtube: no refresh token on file")
	}
	token := &oauth2.Token{RefreshToken: acc.RefreshToken}
	src := r.conf.TokenSource(ctx, token)
	newToken, err := src.Token()
	if err != nil {
		return Refreshed{}, err
	}
	return Refreshed{AccessToken: newToken.AccessToken, ExpiresAt: &newToken.Expiry}, nil
}

// linkedInRefresher implements spec §4.2 row 3: refresh 7 days before
// expiry, rotating both access and refresh tokens.
type linkedInRefresher struct {
	httpClient    *http.Client
	clientID      string
	clientSecret  string
	refreshWindow time.Duration
}

func NewLinkedInRefresher(httpClient *http.Client, clientID, clientSecret string) Refresher {
	return &linkedInRefresher{httpClient: httpClient, clientID: clientID, clientSecret: clientSecret, refreshWindow: 7 * 24 * time.Hour}
}

func (r *linkedInRefresher) Window(acc *account.Account, now time.Time) bool {
	if acc.TokenExpiresAt == nil {
		return true
	}
	return now.Before(acc.TokenExpiresAt.Add(-r.refreshWindow))
}

func (r *linkedInRefresher) Refresh(ctx context.Context, acc *account.Account) (Refreshed, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", acc.RefreshToken)
	form.Set("client_id", r.clientID)
	form.Set("client_secret", r.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://www.linkedin.com/oauth/v2/accessToken", bytes.NewReader([]byte(form.Encode())))
	if err != nil {
		return Refreshed{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return Refreshed{}, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return Refreshed{}, fmt.Errorf("refresh rejected (%d): %s", resp.StatusCode, string(body))
	}

	var parsed struct {
		AccessToken  string `json:"access_token"`
		ExpiresIn    int64  `json:"expires_in"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Refreshed{}, err
	}

	expires := time.Now().Add(time.Duration(parsed.ExpiresIn) * time.Second)
	return Refreshed{AccessToken: parsed.AccessToken, RefreshToken: parsed.RefreshToken, ExpiresAt: &expires}, nil
}

// tiktokRefresher implements spec §4.2 row 4: refresh 5 minutes before
// expiry (and, per policy, at least once daily since access tokens are
// only 24h-lived), rotating both tokens.
type tiktokRefresher struct {
	httpClient    *http.Client
	clientKey     string
	clientSecret  string
	refreshWindow time.Duration
}

func NewTikTokRefresher(httpClient *http.Client, clientKey, clientSecret string) Refresher {
	return &tiktokRefresher{httpClient: httpClient, clientKey: clientKey, clientSecret: clientSecret, refreshWindow: 5 * time.Minute}
}

func (r *tiktokRefresher) Window(acc *account.Account, now time.Time) bool {
	if acc.TokenExpiresAt == nil {
		return true
	}
	return now.Before(acc.TokenExpiresAt.Add(-r.refreshWindow))
}

func (r *tiktokRefresher) Refresh(ctx context.Context, acc *account.Account) (Refreshed, error) {
	form := url.Values{}
	form.Set("client_key", r.clientKey)
	form.Set("client_secret", r.clientSecret)
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", acc.RefreshToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://open.tiktokapis.com/v2/oauth/token/", bytes.NewReader([]byte(form.Encode())))
	if err != nil {
		return Refreshed{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return Refreshed{}, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return Refreshed{}, fmt.Errorf("refresh rejected (%d): %s", resp.StatusCode, string(body))
	}

	var parsed struct {
		AccessToken  string `json:"access_token"`
		ExpiresIn    int64  `json:"expires_in"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Refreshed{}, err
	}

	expires := time.Now().Add(time.Duration(parsed.ExpiresIn) * time.Second)
	return Refreshed{AccessToken: parsed.AccessToken, RefreshToken: parsed.RefreshToken, ExpiresAt: &expires}, nil
}

// twitterRefresher implements spec §4.2 row 5: OAuth 1.0a tokens never
// expire, so Window always reports fresh and Refresh always fails if
// somehow invoked.
type twitterRefresher struct{}

func NewTwitterRefresher() Refresher { return &twitterRefresher{} }

func (r *twitterRefresher) Window(acc *account.Account, now time.Time) bool {
	return true
}

func (r *twitterRefresher) Refresh(ctx context.Context, acc *account.Account) (Refreshed, error) {
	return Refreshed{}, fmt.Errorf("twitter: oauth 1.0a tokens are non-expiring, refresh must not be invoked")
}
